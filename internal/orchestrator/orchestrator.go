// Package orchestrator drives a mint run end to end.
// It coordinates: scan → mint collection → mint items → link and verify
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"solana-nft-mint/internal/assets"
	"solana-nft-mint/internal/collection"
	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/idhash"
	"solana-nft-mint/internal/ledger"
	"solana-nft-mint/internal/minter"
	"solana-nft-mint/internal/observability"
	"solana-nft-mint/internal/solana"
	"solana-nft-mint/internal/upload"
)

// NFTClient is the on-chain surface a run needs. Implemented by *metaplex.Client.
type NFTClient interface {
	minter.TokenMinter
	collection.Linker
}

// Orchestrator runs the pipeline strictly sequentially.
// Flow: scan → collection → items → link/verify
type Orchestrator struct {
	assetDir string
	cluster  solana.Cluster
	nfts     NFTClient
	recorder *ledger.Recorder
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time

	minter   *minter.Minter
	verifier *collection.Verifier

	skipCheck bool
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	AssetDir string
	Uploader upload.Uploader
	NFTs     NFTClient

	// Optional
	Cluster  solana.Cluster         // explorer links; defaults to devnet
	Recorder *ledger.Recorder       // run ledger
	Metrics  *observability.Metrics // run metrics
	Output   io.Writer              // progress lines; defaults to io.Discard
	Logger   *zap.Logger

	SkipCheck bool // skip validating every descriptor before minting
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cluster := opts.Cluster
	if cluster == "" {
		cluster = solana.Devnet
	}
	out := opts.Output
	if out == nil {
		out = io.Discard
	}

	o := &Orchestrator{
		assetDir:  opts.AssetDir,
		cluster:   cluster,
		nfts:      opts.NFTs,
		recorder:  opts.Recorder,
		metrics:   opts.Metrics,
		logger:    logger.Named("orchestrator"),
		now:       time.Now,
		skipCheck: opts.SkipCheck,
	}
	o.minter = minter.New(opts.Uploader, opts.NFTs,
		minter.WithCluster(cluster),
		minter.WithObserver(o),
		minter.WithOutput(out),
		minter.WithLogger(logger),
	)
	o.verifier = collection.New(opts.NFTs,
		collection.WithCluster(cluster),
		collection.WithObserver(o),
		collection.WithOutput(out),
		collection.WithLogger(logger),
	)
	return o
}

// RunResult contains results from orchestrator execution. On failure it
// holds everything completed before the failing step.
type RunResult struct {
	RunID         string
	Listing       *assets.Listing
	Collection    *domain.MintedToken
	Items         []domain.MintedToken
	Report        *domain.LinkReport
	Verifications []string // verify signatures in item order
	Duration      time.Duration
}

// CollectionMint returns the collection token address, or "" if it was not minted.
func (r *RunResult) CollectionMint() string {
	if r.Collection == nil {
		return ""
	}
	return r.Collection.Mint
}

// Run executes the full pipeline.
// Phases:
//  1. Scan the asset directory and check every descriptor
//  2. Mint the collection token
//  3. Mint each item in index order
//  4. Link and verify each item
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	started := o.now()
	result := &RunResult{}

	err := o.mint(ctx, result, started)
	if err == nil {
		err = o.link(ctx, result)
	}
	result.Duration = o.now().Sub(started)
	o.finish(result, err)
	return result, err
}

// Mint runs phases 1 to 3 without linking items to the collection.
func (o *Orchestrator) Mint(ctx context.Context) (*RunResult, error) {
	started := o.now()
	result := &RunResult{}

	err := o.mint(ctx, result, started)
	result.Duration = o.now().Sub(started)
	o.finish(result, err)
	return result, err
}

// Verify links and verifies already minted items against collectionMint.
func (o *Orchestrator) Verify(ctx context.Context, collectionMint string, mints []string) (*RunResult, error) {
	started := o.now()
	if err := o.begin(ctx, started); err != nil {
		return nil, err
	}

	result := &RunResult{
		Collection: &domain.MintedToken{Role: domain.RoleCollection, Index: domain.CollectionIndex, Mint: collectionMint},
	}
	for i, mint := range mints {
		result.Items = append(result.Items, domain.MintedToken{Role: domain.RoleItem, Index: i, Mint: mint})
	}

	err := o.link(ctx, result)
	result.Duration = o.now().Sub(started)
	o.finish(result, err)
	return result, err
}

func (o *Orchestrator) mint(ctx context.Context, result *RunResult, started time.Time) error {
	// Phase 1: Scan
	o.logger.Info("phase 1: scanning assets", zap.String("dir", o.assetDir))
	listing, err := assets.Scan(o.assetDir)
	if err != nil {
		return fmt.Errorf("phase 1 (scan) failed: %w", err)
	}
	result.Listing = listing
	o.logger.Info("assets found",
		zap.Int("collection", listing.CollectionFiles),
		zap.Int("items", listing.ItemCount()))

	if !o.skipCheck {
		if err := assets.Check(listing); err != nil {
			return fmt.Errorf("phase 1 (check) failed: %w", err)
		}
	}

	if err := o.begin(ctx, started); err != nil {
		return err
	}
	result.RunID = o.runID()

	// Phase 2: Collection
	o.logger.Info("phase 2: minting collection")
	coll, err := o.minter.MintCollection(ctx, listing)
	if err != nil {
		return fmt.Errorf("phase 2 (collection) failed: %w", err)
	}
	result.Collection = coll

	// Phase 3: Items
	o.logger.Info("phase 3: minting items", zap.Int("count", listing.ItemCount()))
	items, err := o.minter.MintItems(ctx, listing)
	result.Items = items
	if err != nil {
		return fmt.Errorf("phase 3 (items) failed: %w", err)
	}
	return nil
}

// link runs phase 4 over result.Items.
func (o *Orchestrator) link(ctx context.Context, result *RunResult) error {
	o.logger.Info("phase 4: linking and verifying items", zap.Int("count", len(result.Items)))
	report, err := o.verifier.LinkAndVerify(ctx, result.CollectionMint(), result.Items)
	result.Report = report
	if report != nil {
		for _, item := range report.Items {
			if item.Stage == domain.StageVerified {
				result.Verifications = append(result.Verifications, item.VerifySignature)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("phase 4 (link and verify) failed: %w", err)
	}
	return nil
}

func (o *Orchestrator) begin(ctx context.Context, started time.Time) error {
	if o.recorder == nil {
		return nil
	}
	if _, err := o.recorder.Begin(ctx, o.nfts.Authority().String(), string(o.cluster), o.assetDir, started); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func (o *Orchestrator) runID() string {
	if o.recorder == nil {
		return ""
	}
	return o.recorder.RunID()
}

func (o *Orchestrator) finish(result *RunResult, err error) {
	if result.RunID == "" {
		result.RunID = o.runID()
	}
	status := observability.StatusSuccess
	if err != nil {
		status = observability.StatusFailed
	}
	if o.metrics != nil {
		o.metrics.RecordRun(status, result.Duration)
	}
	o.logger.Info("run finished",
		zap.String("run", idhash.ShortID(result.RunID)),
		zap.String("status", status),
		zap.String("collection", result.CollectionMint()),
		zap.Int("items", len(result.Items)),
		zap.Int("verified", len(result.Verifications)),
		zap.Duration("duration", result.Duration))
}

// Minted implements minter.Observer.
func (o *Orchestrator) Minted(ctx context.Context, tok *domain.MintedToken) {
	if o.recorder != nil {
		o.recorder.Minted(ctx, tok)
	}
	if o.metrics != nil {
		o.metrics.Minted(ctx, tok)
	}
}

// MintFailed implements minter.Observer.
func (o *Orchestrator) MintFailed(ctx context.Context, role domain.TokenRole, index int, err error) {
	if o.recorder != nil {
		o.recorder.MintFailed(ctx, role, index, err)
	}
	if o.metrics != nil {
		o.metrics.MintFailed(ctx, role, index, err)
	}
}

// Stage implements collection.Observer.
func (o *Orchestrator) Stage(ctx context.Context, item *domain.ItemResult) {
	if o.recorder != nil {
		o.recorder.Stage(ctx, item)
	}
	if o.metrics != nil {
		o.metrics.Stage(ctx, item)
	}
}

var (
	_ minter.Observer     = (*Orchestrator)(nil)
	_ collection.Observer = (*Orchestrator)(nil)
)
