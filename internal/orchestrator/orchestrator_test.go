// Package orchestrator provides E2E pipeline orchestration tests.
package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-nft-mint/internal/assets"
	"solana-nft-mint/internal/collection"
	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/ledger"
	"solana-nft-mint/internal/metaplex"
	"solana-nft-mint/internal/observability"
	"solana-nft-mint/internal/solana"
	"solana-nft-mint/internal/storage/memory"
	"solana-nft-mint/internal/upload"
)

// fakeChain keeps minted metadata in memory and logs every call in order.
type fakeChain struct {
	authority solana.PublicKey
	metadata  map[solana.PublicKey]*metaplex.Metadata
	calls     []string
	next      byte

	failVerifyOn int // 1-based verify call that fails; 0 never
	verifies     int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		authority: solana.PublicKey{250},
		metadata:  make(map[solana.PublicKey]*metaplex.Metadata),
	}
}

func (c *fakeChain) Authority() solana.PublicKey { return c.authority }

func (c *fakeChain) CreateNFT(_ context.Context, in metaplex.NFTInput) (*metaplex.CreateOutput, error) {
	c.next++
	mint := solana.PublicKey{c.next}
	c.calls = append(c.calls, "create:"+in.Name)
	c.metadata[mint] = &metaplex.Metadata{
		Mint: mint,
		Data: metaplex.Data{Name: in.Name, Symbol: in.Symbol, URI: in.URI, SellerFeeBasisPoints: in.SellerFeeBasisPoints},
	}
	return &metaplex.CreateOutput{Mint: mint, Signature: solana.Signature{c.next}}, nil
}

func (c *fakeChain) FindByMint(_ context.Context, mint solana.PublicKey) (*metaplex.Metadata, error) {
	c.calls = append(c.calls, "fetch:"+c.name(mint))
	md, ok := c.metadata[mint]
	if !ok {
		return nil, metaplex.ErrMetadataNotFound
	}
	copied := *md
	return &copied, nil
}

func (c *fakeChain) SetCollection(_ context.Context, nft *metaplex.Metadata, collectionMint solana.PublicKey) (solana.Signature, error) {
	c.calls = append(c.calls, "link:"+c.name(nft.Mint))
	c.metadata[nft.Mint].Collection = &metaplex.Collection{Key: collectionMint}
	c.next++
	return solana.Signature{c.next}, nil
}

func (c *fakeChain) VerifyCollection(_ context.Context, mint, _ solana.PublicKey) (solana.Signature, error) {
	c.calls = append(c.calls, "verify:"+c.name(mint))
	c.verifies++
	if c.verifies == c.failVerifyOn {
		return solana.Signature{}, errors.New("blockhash not found")
	}
	c.metadata[mint].Collection.Verified = true
	c.next++
	return solana.Signature{c.next}, nil
}

func (c *fakeChain) name(mint solana.PublicKey) string {
	if md, ok := c.metadata[mint]; ok {
		return md.Data.Name
	}
	return mint.String()
}

func writeAssets(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("collection.json", `{"name":"Coll","symbol":"COL","image":"collection.png","seller_fee_basis_points":0}`)
	write("collection.png", "collection-image")
	for i := 0; i < n; i++ {
		write(fmt.Sprintf("%d.json", i), fmt.Sprintf(`{"name":"Item %d","symbol":"ITM","image":"%d.png","seller_fee_basis_points":100}`, i, i))
		write(fmt.Sprintf("%d.png", i), fmt.Sprintf("image-%d", i))
	}
	return dir
}

type harness struct {
	chain   *fakeChain
	store   *upload.MemoryUploader
	runs    *memory.RunStore
	events  *memory.TokenEventStore
	metrics *observability.Metrics
	out     *bytes.Buffer
}

func newHarness() *harness {
	return &harness{
		chain:   newFakeChain(),
		store:   upload.NewMemoryUploader("https://cdn.test"),
		runs:    memory.NewRunStore(),
		events:  memory.NewTokenEventStore(),
		metrics: observability.NewMetrics("test"),
		out:     &bytes.Buffer{},
	}
}

func (h *harness) orchestrator(dir string) *Orchestrator {
	return New(Options{
		AssetDir: dir,
		Uploader: h.store,
		NFTs:     h.chain,
		Recorder: ledger.NewRecorder(h.runs, h.events, nil),
		Metrics:  h.metrics,
		Output:   h.out,
	})
}

func TestOrchestrator_Run(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	result, err := h.orchestrator(writeAssets(t, 3)).Run(ctx)
	require.NoError(t, err)

	require.NotNil(t, result.Collection)
	assert.Equal(t, domain.RoleCollection, result.Collection.Role)
	assert.Len(t, result.Items, 3)
	assert.Len(t, result.Verifications, 3)
	assert.Equal(t, 3, result.Report.Verified())
	assert.NotEmpty(t, result.RunID)

	assert.Equal(t, []string{
		"create:Coll", "create:Item 0", "create:Item 1", "create:Item 2",
		"fetch:Item 0", "link:Item 0", "verify:Item 0",
		"fetch:Item 1", "link:Item 1", "verify:Item 1",
		"fetch:Item 2", "link:Item 2", "verify:Item 2",
	}, h.chain.calls)

	// Two uploads per descriptor: image then metadata.
	assert.Len(t, h.store.URIs(), 8)

	status, err := ledger.LoadStatus(ctx, h.runs, h.events, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1+3+3*2, status.Events)
	assert.Equal(t, 3, status.Count(domain.StageVerified))
	assert.Equal(t, 1, status.Count(domain.StageMinted))

	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.TokensMinted.WithLabelValues("ITEM")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RunsTotal.WithLabelValues(observability.StatusSuccess)))
}

func TestOrchestrator_Run_ZeroItems(t *testing.T) {
	h := newHarness()

	result, err := h.orchestrator(writeAssets(t, 0)).Run(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, result.Collection)
	assert.Empty(t, result.Items)
	assert.Empty(t, result.Verifications)
	assert.Equal(t, []string{"create:Coll"}, h.chain.calls)
}

func TestOrchestrator_Run_VerifyFailureHalts(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.chain.failVerifyOn = 2

	result, err := h.orchestrator(writeAssets(t, 4)).Run(ctx)
	require.Error(t, err)

	var stageErr *collection.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, 1, stageErr.Index)
	assert.Equal(t, domain.StageLinked, stageErr.Stage)

	// All items minted; item 0 verified, item 1 linked only, items 2..3 untouched.
	assert.Len(t, result.Items, 4)
	assert.Equal(t, 1, result.Report.Verified())
	require.Len(t, result.Report.Items, 2)
	assert.Equal(t, domain.StageLinked, result.Report.Items[1].Stage)
	assert.Len(t, result.Verifications, 1)
	assert.NotContains(t, h.chain.calls, "fetch:Item 2")
	assert.NotContains(t, h.chain.calls, "fetch:Item 3")

	status, err := ledger.LoadStatus(ctx, h.runs, h.events, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Count(domain.StageVerified))
	assert.Equal(t, 1, status.Count(domain.StageFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RunsTotal.WithLabelValues(observability.StatusFailed)))
}

func TestOrchestrator_Run_InvalidDescriptorMintsNothing(t *testing.T) {
	h := newHarness()
	dir := writeAssets(t, 3)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.json"), []byte(`{"name":"broken"}`), 0o644))

	result, err := h.orchestrator(dir).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assets.ErrInvalidDescriptor)
	assert.Nil(t, result.Collection)
	assert.Empty(t, h.chain.calls)
	assert.Empty(t, h.store.URIs())

	runs, err := h.runs.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs, "no run is recorded before minting starts")
}

func TestOrchestrator_Run_ScanError(t *testing.T) {
	h := newHarness()

	_, err := h.orchestrator(filepath.Join(t.TempDir(), "missing")).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOrchestrator_Mint(t *testing.T) {
	h := newHarness()

	result, err := h.orchestrator(writeAssets(t, 2)).Mint(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Nil(t, result.Report)
	assert.NotContains(t, h.chain.calls, "fetch:Item 0")
}

func TestOrchestrator_Verify(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	dir := writeAssets(t, 2)

	minted, err := h.orchestrator(dir).Mint(ctx)
	require.NoError(t, err)

	mints := []string{minted.Items[0].Mint, minted.Items[1].Mint}
	verifier := h.orchestrator(dir)
	verifier.now = func() time.Time { return time.Now().Add(time.Hour) }
	result, err := verifier.Verify(ctx, minted.CollectionMint(), mints)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Report.Verified())
	assert.NotEqual(t, minted.RunID, result.RunID)
}
