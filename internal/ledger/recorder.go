// Package ledger records the stage transitions of a mint run.
//
// The ledger is append-only and used for inspection. Nothing is resumed
// from it: a failed run is re-run from scratch and mints new tokens.
package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/idhash"
	"solana-nft-mint/internal/storage"
)

// Recorder appends token events for one run.
// Write failures are logged and never interrupt minting, since the chain
// state they describe has already changed.
type Recorder struct {
	runs   storage.RunStore
	events storage.TokenEventStore
	logger *zap.Logger
	now    func() time.Time

	mu  sync.Mutex
	run *domain.Run
	seq int
}

// NewRecorder creates a recorder over the given stores.
func NewRecorder(runs storage.RunStore, events storage.TokenEventStore, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		runs:   runs,
		events: events,
		logger: logger.Named("ledger"),
		now:    time.Now,
	}
}

// Begin inserts the run record. Events recorded before Begin are dropped.
func (r *Recorder) Begin(ctx context.Context, authority, cluster, assetDir string, startedAt time.Time) (*domain.Run, error) {
	startedMs := startedAt.UnixMilli()
	run := &domain.Run{
		RunID:     idhash.ComputeRunID(authority, cluster, assetDir, startedMs),
		Authority: authority,
		Cluster:   cluster,
		AssetDir:  assetDir,
		StartedAt: startedMs,
	}
	if err := r.runs.Insert(ctx, run); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.run = run
	r.seq = 0
	r.mu.Unlock()

	r.logger.Info("run started", zap.String("run_id", run.RunID))
	return run, nil
}

// RunID returns the current run id, or "" before Begin.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.run == nil {
		return ""
	}
	return r.run.RunID
}

// Minted records a freshly minted token.
func (r *Recorder) Minted(ctx context.Context, tok *domain.MintedToken) {
	r.append(ctx, &domain.TokenEvent{
		Role:      tok.Role,
		Index:     tok.Index,
		Mint:      tok.Mint,
		Stage:     domain.StageMinted,
		Signature: tok.Signature,
	})
}

// MintFailed records a descriptor that could not be minted.
func (r *Recorder) MintFailed(ctx context.Context, role domain.TokenRole, index int, err error) {
	r.append(ctx, &domain.TokenEvent{
		Role:  role,
		Index: index,
		Stage: domain.StageFailed,
		Error: err.Error(),
	})
}

// Stage records a collection linking transition of an item.
func (r *Recorder) Stage(ctx context.Context, item *domain.ItemResult) {
	e := &domain.TokenEvent{
		Role:  item.Token.Role,
		Index: item.Token.Index,
		Mint:  item.Token.Mint,
		Stage: item.Stage,
	}
	switch {
	case item.Err != nil:
		e.Stage = domain.StageFailed
		e.Error = item.Err.Error()
	case item.Stage == domain.StageLinked:
		e.Signature = item.LinkSignature
	case item.Stage == domain.StageVerified:
		e.Signature = item.VerifySignature
	}
	r.append(ctx, e)
}

func (r *Recorder) append(ctx context.Context, e *domain.TokenEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.run == nil {
		return
	}
	r.seq++
	e.RunID = r.run.RunID
	e.Seq = r.seq
	e.OccurredAt = r.now().UnixMilli()

	if err := r.events.Insert(ctx, e); err != nil {
		r.logger.Warn("record token event",
			zap.Int("seq", e.Seq),
			zap.String("stage", string(e.Stage)),
			zap.String("mint", e.Mint),
			zap.Error(err),
		)
	}
}
