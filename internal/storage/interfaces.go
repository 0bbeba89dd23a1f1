package storage

import (
	"context"

	"solana-nft-mint/internal/domain"
)

// RunStore provides access to mint_runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.Run) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.Run, error)

	// List retrieves the most recent runs, ordered by started_at DESC.
	// A limit <= 0 returns all runs.
	List(ctx context.Context, limit int) ([]*domain.Run, error)
}

// TokenEventStore provides access to token_events storage.
type TokenEventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if (run_id, seq) exists.
	Insert(ctx context.Context, e *domain.TokenEvent) error

	// GetByRun retrieves all events of a run, ordered by seq ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.TokenEvent, error)

	// GetByMint retrieves all events of a token across runs, ordered by occurred_at ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.TokenEvent, error)
}
