// Package collection attaches minted items to their collection token and
// verifies the membership, one item at a time.
package collection

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/metaplex"
	"solana-nft-mint/internal/solana"
)

// Linker is the on-chain surface used to link and verify items.
// Implemented by *metaplex.Client.
type Linker interface {
	FindByMint(ctx context.Context, mint solana.PublicKey) (*metaplex.Metadata, error)
	SetCollection(ctx context.Context, nft *metaplex.Metadata, collectionMint solana.PublicKey) (solana.Signature, error)
	VerifyCollection(ctx context.Context, mint, collectionMint solana.PublicKey) (solana.Signature, error)
}

// Observer is notified after every stage transition of an item,
// including the failing one.
type Observer interface {
	Stage(ctx context.Context, item *domain.ItemResult)
}

// Step names used in StageError.
const (
	StepFetch  = "fetch"
	StepLink   = "link"
	StepVerify = "verify"
)

// StageError reports the item that stopped the run and how far it got.
type StageError struct {
	Index int          // position in the supplied item list
	Mint  string       // item token address
	Stage domain.Stage // last stage reached before the failure
	Step  string       // step that failed
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("item %d (%s): %s failed at stage %s: %v", e.Index, e.Mint, e.Step, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Verifier links items to a collection and verifies them.
type Verifier struct {
	nfts     Linker
	cluster  solana.Cluster
	observer Observer
	out      io.Writer
	logger   *zap.Logger
}

// Option configures Verifier.
type Option func(*Verifier)

// WithCluster sets the cluster used for explorer links.
func WithCluster(cluster solana.Cluster) Option {
	return func(v *Verifier) {
		v.cluster = cluster
	}
}

// WithObserver sets the stage observer.
func WithObserver(o Observer) Option {
	return func(v *Verifier) {
		v.observer = o
	}
}

// WithOutput sets where progress lines are printed.
func WithOutput(w io.Writer) Option {
	return func(v *Verifier) {
		v.out = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// New creates a Verifier.
func New(nfts Linker, opts ...Option) *Verifier {
	v := &Verifier{
		nfts:    nfts,
		cluster: solana.Devnet,
		out:     io.Discard,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = zap.NewNop()
	}
	v.logger = v.logger.Named("collection")
	return v
}

// LinkAndVerify processes items in the supplied order. For each item it
// fetches the metadata, sets the unverified collection reference and then
// verifies it. The first failure stops the loop; the returned report lists
// every attempted item including the failed one, and the error is a
// *StageError.
func (v *Verifier) LinkAndVerify(ctx context.Context, collectionMint string, items []domain.MintedToken) (*domain.LinkReport, error) {
	report := &domain.LinkReport{
		CollectionMint: collectionMint,
		Items:          make([]domain.ItemResult, 0, len(items)),
	}
	if len(items) == 0 {
		return report, nil
	}

	collectionKey, err := solana.PublicKeyFromBase58(collectionMint)
	if err != nil {
		return report, fmt.Errorf("collection mint: %w", err)
	}

	total := len(items)
	for i, tok := range items {
		result, err := v.process(ctx, i, total, collectionKey, tok)
		report.Items = append(report.Items, result)
		if err != nil {
			return report, err
		}
	}

	v.logger.Info("collection verified",
		zap.String("collection", collectionMint),
		zap.Int("items", report.Verified()))
	return report, nil
}

func (v *Verifier) process(ctx context.Context, i, total int, collectionKey solana.PublicKey, tok domain.MintedToken) (domain.ItemResult, error) {
	result := domain.ItemResult{Token: tok, Stage: domain.StageMinted}
	fail := func(step string, err error) (domain.ItemResult, error) {
		stageErr := &StageError{Index: i, Mint: tok.Mint, Stage: result.Stage, Step: step, Err: err}
		result.Err = stageErr
		v.logger.Error("item failed",
			zap.Int("index", i),
			zap.String("mint", tok.Mint),
			zap.String("step", step),
			zap.Error(err))
		v.notify(ctx, &result)
		return result, stageErr
	}

	if err := ctx.Err(); err != nil {
		return fail(StepFetch, err)
	}

	mint, err := solana.PublicKeyFromBase58(tok.Mint)
	if err != nil {
		return fail(StepFetch, err)
	}

	nft, err := v.nfts.FindByMint(ctx, mint)
	if err != nil {
		return fail(StepFetch, err)
	}

	linkSig, err := v.nfts.SetCollection(ctx, nft, collectionKey)
	if err != nil {
		return fail(StepLink, err)
	}
	result.Stage = domain.StageLinked
	result.LinkSignature = linkSig.String()
	v.notify(ctx, &result)

	fmt.Fprintf(v.out, "(%d/%d) Token Mint: %s\n", i+1, total, v.cluster.AddressURL(tok.Mint))
	fmt.Fprintf(v.out, "(%d/%d) Waiting to verify collection %s on mint %s... \n", i+1, total, collectionKey, tok.Mint)

	verifySig, err := v.nfts.VerifyCollection(ctx, mint, collectionKey)
	if err != nil {
		return fail(StepVerify, err)
	}
	result.Stage = domain.StageVerified
	result.VerifySignature = verifySig.String()
	v.notify(ctx, &result)

	fmt.Fprintf(v.out, "(%d/%d) Signature Explorer: %s\n\n", i+1, total, v.cluster.TxURL(result.VerifySignature))
	return result, nil
}

func (v *Verifier) notify(ctx context.Context, item *domain.ItemResult) {
	if v.observer != nil {
		v.observer.Stage(ctx, item)
	}
}
