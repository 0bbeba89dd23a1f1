package memory

import (
	"context"
	"sort"
	"sync"

	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/storage"
)

type eventKey struct {
	runID string
	seq   int
}

// TokenEventStore is an in-memory implementation of storage.TokenEventStore.
type TokenEventStore struct {
	mu   sync.RWMutex
	data map[eventKey]*domain.TokenEvent
}

// NewTokenEventStore creates a new in-memory token event store.
func NewTokenEventStore() *TokenEventStore {
	return &TokenEventStore{
		data: make(map[eventKey]*domain.TokenEvent),
	}
}

// Insert adds a new event. Returns ErrDuplicateKey if (run_id, seq) exists.
func (s *TokenEventStore) Insert(_ context.Context, e *domain.TokenEvent) error {
	if e == nil || e.RunID == "" || e.Seq <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := eventKey{runID: e.RunID, seq: e.Seq}
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	eventCopy := *e
	s.data[key] = &eventCopy
	return nil
}

// GetByRun retrieves all events of a run, ordered by seq ASC.
func (s *TokenEventStore) GetByRun(_ context.Context, runID string) ([]*domain.TokenEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenEvent
	for key, e := range s.data {
		if key.runID == runID {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

// GetByMint retrieves all events of a token across runs, ordered by occurred_at ASC.
func (s *TokenEventStore) GetByMint(_ context.Context, mint string) ([]*domain.TokenEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenEvent
	for _, e := range s.data {
		if e.Mint == mint {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].OccurredAt != result[j].OccurredAt {
			return result[i].OccurredAt < result[j].OccurredAt
		}
		if result[i].RunID != result[j].RunID {
			return result[i].RunID < result[j].RunID
		}
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

var _ storage.TokenEventStore = (*TokenEventStore)(nil)
