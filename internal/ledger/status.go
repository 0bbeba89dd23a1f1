package ledger

import (
	"context"
	"fmt"
	"sort"

	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/storage"
)

// TokenStatus is the last known state of one token within a run.
type TokenStatus struct {
	Role      domain.TokenRole
	Index     int
	Mint      string
	Stage     domain.Stage
	Signature string // signature of the last successful step
	Error     string // set when Stage is StageFailed
}

// RunStatus summarizes a run from its events.
type RunStatus struct {
	Run    *domain.Run
	Tokens []TokenStatus // collection first, then items by index
	Events int
}

// Count returns the number of tokens at the given stage.
func (s *RunStatus) Count(stage domain.Stage) int {
	n := 0
	for _, t := range s.Tokens {
		if t.Stage == stage {
			n++
		}
	}
	return n
}

// LoadStatus reads a run and folds its events into per-token status.
func LoadStatus(ctx context.Context, runs storage.RunStore, events storage.TokenEventStore, runID string) (*RunStatus, error) {
	run, err := runs.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}

	evs, err := events.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get events of run %s: %w", runID, err)
	}

	return &RunStatus{
		Run:    run,
		Tokens: Fold(evs),
		Events: len(evs),
	}, nil
}

// Fold reduces events, ordered by seq, to the latest state per token.
func Fold(events []*domain.TokenEvent) []TokenStatus {
	type key struct {
		role  domain.TokenRole
		index int
	}
	byToken := make(map[key]*TokenStatus)

	for _, e := range events {
		k := key{role: e.Role, index: e.Index}
		st, ok := byToken[k]
		if !ok {
			st = &TokenStatus{Role: e.Role, Index: e.Index}
			byToken[k] = st
		}
		if e.Mint != "" {
			st.Mint = e.Mint
		}
		st.Stage = e.Stage
		st.Error = e.Error
		if e.Signature != "" {
			st.Signature = e.Signature
		}
	}

	result := make([]TokenStatus, 0, len(byToken))
	for _, st := range byToken {
		result = append(result, *st)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Role != result[j].Role {
			return result[i].Role == domain.RoleCollection
		}
		return result[i].Index < result[j].Index
	})
	return result
}
