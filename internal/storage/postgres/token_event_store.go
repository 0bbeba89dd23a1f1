package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/storage"
)

// TokenEventStore implements storage.TokenEventStore using PostgreSQL.
type TokenEventStore struct {
	pool *Pool
}

// NewTokenEventStore creates a new TokenEventStore.
func NewTokenEventStore(pool *Pool) *TokenEventStore {
	return &TokenEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenEventStore = (*TokenEventStore)(nil)

const tokenEventColumns = `run_id, seq, role, item_index, mint, stage, signature, error, occurred_at, created_at`

// Insert adds a new event. Returns ErrDuplicateKey if (run_id, seq) exists.
func (s *TokenEventStore) Insert(ctx context.Context, e *domain.TokenEvent) error {
	if e == nil || e.RunID == "" || e.Seq <= 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_events (
			run_id, seq, role, item_index, mint, stage, signature, error, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		e.RunID,
		e.Seq,
		string(e.Role),
		e.Index,
		e.Mint,
		string(e.Stage),
		nullable(e.Signature),
		nullable(e.Error),
		e.OccurredAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token event: %w", err)
	}
	return nil
}

// GetByRun retrieves all events of a run, ordered by seq ASC.
func (s *TokenEventStore) GetByRun(ctx context.Context, runID string) ([]*domain.TokenEvent, error) {
	query := `SELECT ` + tokenEventColumns + ` FROM token_events WHERE run_id = $1 ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get token events by run: %w", err)
	}
	defer rows.Close()

	return scanTokenEvents(rows)
}

// GetByMint retrieves all events of a token across runs, ordered by occurred_at ASC.
func (s *TokenEventStore) GetByMint(ctx context.Context, mint string) ([]*domain.TokenEvent, error) {
	query := `
		SELECT ` + tokenEventColumns + `
		FROM token_events
		WHERE mint = $1
		ORDER BY occurred_at ASC, run_id ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get token events by mint: %w", err)
	}
	defer rows.Close()

	return scanTokenEvents(rows)
}

// scanTokenEvents scans multiple rows into a slice of TokenEvent.
func scanTokenEvents(rows pgx.Rows) ([]*domain.TokenEvent, error) {
	var events []*domain.TokenEvent

	for rows.Next() {
		var e domain.TokenEvent
		var role, stage string
		var signature, errMsg *string

		err := rows.Scan(
			&e.RunID,
			&e.Seq,
			&role,
			&e.Index,
			&e.Mint,
			&stage,
			&signature,
			&errMsg,
			&e.OccurredAt,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token event row: %w", err)
		}

		e.Role = domain.TokenRole(role)
		e.Stage = domain.Stage(stage)
		if signature != nil {
			e.Signature = *signature
		}
		if errMsg != nil {
			e.Error = *errMsg
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token event rows: %w", err)
	}

	return events, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
