package reporting

import (
	"context"
	"time"

	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/ledger"
	"solana-nft-mint/internal/solana"
	"solana-nft-mint/internal/storage"
)

// Generator builds reports from the run ledger.
type Generator struct {
	runs   storage.RunStore
	events storage.TokenEventStore
	now    func() time.Time
}

// NewGenerator creates a report generator.
func NewGenerator(runs storage.RunStore, events storage.TokenEventStore) *Generator {
	return &Generator{runs: runs, events: events, now: time.Now}
}

// Generate loads runID from the ledger and builds its report.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	status, err := ledger.LoadStatus(ctx, g.runs, g.events, runID)
	if err != nil {
		return nil, err
	}
	return Build(status, g.now()), nil
}

// Build converts a folded run status into a report.
func Build(status *ledger.RunStatus, generatedAt time.Time) *Report {
	run := status.Run
	cluster := solana.Cluster(run.Cluster)

	r := &Report{
		GeneratedAt: generatedAt.UTC(),
		RunID:       run.RunID,
		Cluster:     run.Cluster,
		Authority:   run.Authority,
		AssetDir:    run.AssetDir,
		StartedAt:   run.StartedAt,
		Events:      status.Events,
		Summary: Summary{
			Minted:   status.Count(domain.StageMinted),
			Linked:   status.Count(domain.StageLinked),
			Verified: status.Count(domain.StageVerified),
			Failed:   status.Count(domain.StageFailed),
		},
		Tokens: make([]TokenRow, 0, len(status.Tokens)),
	}

	for _, t := range status.Tokens {
		row := TokenRow{
			Role:      string(t.Role),
			Index:     t.Index,
			Mint:      t.Mint,
			Stage:     string(t.Stage),
			Signature: t.Signature,
			Error:     t.Error,
		}
		if t.Mint != "" && cluster.IsValid() {
			row.ExplorerURL = cluster.AddressURL(t.Mint)
		}
		r.Tokens = append(r.Tokens, row)
	}
	return r
}
