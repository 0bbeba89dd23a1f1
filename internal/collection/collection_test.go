package collection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/metaplex"
	"solana-nft-mint/internal/solana"
)

// fakeLinker records every call as "<op>:<mint>" and fails the given op on failMint.
type fakeLinker struct {
	ops      []string
	failOp   string
	failMint solana.PublicKey
	sigs     byte
}

func (f *fakeLinker) fail(op string, mint solana.PublicKey) error {
	if op == f.failOp && mint == f.failMint {
		return errors.New("rpc unavailable")
	}
	return nil
}

func (f *fakeLinker) FindByMint(_ context.Context, mint solana.PublicKey) (*metaplex.Metadata, error) {
	f.ops = append(f.ops, "fetch:"+mint.String())
	if err := f.fail(StepFetch, mint); err != nil {
		return nil, err
	}
	return &metaplex.Metadata{Mint: mint}, nil
}

func (f *fakeLinker) SetCollection(_ context.Context, nft *metaplex.Metadata, _ solana.PublicKey) (solana.Signature, error) {
	f.ops = append(f.ops, "link:"+nft.Mint.String())
	if err := f.fail(StepLink, nft.Mint); err != nil {
		return solana.Signature{}, err
	}
	f.sigs++
	return solana.Signature{f.sigs}, nil
}

func (f *fakeLinker) VerifyCollection(_ context.Context, mint, _ solana.PublicKey) (solana.Signature, error) {
	f.ops = append(f.ops, "verify:"+mint.String())
	if err := f.fail(StepVerify, mint); err != nil {
		return solana.Signature{}, err
	}
	f.sigs++
	return solana.Signature{f.sigs}, nil
}

type stageRecorder struct {
	stages []domain.Stage
	errs   int
}

func (r *stageRecorder) Stage(_ context.Context, item *domain.ItemResult) {
	r.stages = append(r.stages, item.Stage)
	if item.Err != nil {
		r.errs++
	}
}

var collectionMint = solana.PublicKey{200}

func items(n int) []domain.MintedToken {
	out := make([]domain.MintedToken, n)
	for i := range out {
		out[i] = domain.MintedToken{Role: domain.RoleItem, Index: i, Mint: solana.PublicKey{byte(i + 1)}.String()}
	}
	return out
}

func TestLinkAndVerify_Order(t *testing.T) {
	linker := &fakeLinker{}
	obs := &stageRecorder{}
	var out bytes.Buffer
	v := New(linker, WithObserver(obs), WithOutput(&out))

	toks := items(3)
	report, err := v.LinkAndVerify(context.Background(), collectionMint.String(), toks)
	require.NoError(t, err)

	var want []string
	for _, tok := range toks {
		want = append(want, "fetch:"+tok.Mint, "link:"+tok.Mint, "verify:"+tok.Mint)
	}
	assert.Equal(t, want, linker.ops)

	assert.Equal(t, collectionMint.String(), report.CollectionMint)
	assert.Equal(t, 3, report.Verified())
	for i, item := range report.Items {
		assert.Equal(t, toks[i].Mint, item.Token.Mint)
		assert.Equal(t, domain.StageVerified, item.Stage)
		assert.NotEmpty(t, item.LinkSignature)
		assert.NotEmpty(t, item.VerifySignature)
		assert.NoError(t, item.Err)
	}

	assert.Equal(t, []domain.Stage{
		domain.StageLinked, domain.StageVerified,
		domain.StageLinked, domain.StageVerified,
		domain.StageLinked, domain.StageVerified,
	}, obs.stages)
	assert.Contains(t, out.String(), fmt.Sprintf("(3/3) Waiting to verify collection %s on mint %s", collectionMint, toks[2].Mint))
}

func TestLinkAndVerify_Empty(t *testing.T) {
	linker := &fakeLinker{}
	v := New(linker)

	report, err := v.LinkAndVerify(context.Background(), collectionMint.String(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Items)
	assert.Empty(t, linker.ops)
}

func TestLinkAndVerify_HaltsOnFailure(t *testing.T) {
	tests := []struct {
		step      string
		wantStage domain.Stage
		wantOps   int // ops on the failing item
	}{
		{StepFetch, domain.StageMinted, 1},
		{StepLink, domain.StageMinted, 2},
		{StepVerify, domain.StageLinked, 3},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			toks := items(5)
			failing := toks[2]
			failKey, _ := solana.PublicKeyFromBase58(failing.Mint)
			linker := &fakeLinker{failOp: tt.step, failMint: failKey}
			obs := &stageRecorder{}
			v := New(linker, WithObserver(obs))

			report, err := v.LinkAndVerify(context.Background(), collectionMint.String(), toks)
			require.Error(t, err)

			var stageErr *StageError
			require.True(t, errors.As(err, &stageErr))
			assert.Equal(t, 2, stageErr.Index)
			assert.Equal(t, failing.Mint, stageErr.Mint)
			assert.Equal(t, tt.step, stageErr.Step)
			assert.Equal(t, tt.wantStage, stageErr.Stage)

			// Items before the failure are verified, items after are never touched.
			require.Len(t, report.Items, 3)
			assert.Equal(t, 2, report.Verified())
			assert.Equal(t, tt.wantStage, report.Items[2].Stage)
			assert.Error(t, report.Items[2].Err)
			assert.Len(t, linker.ops, 6+tt.wantOps)
			for _, op := range linker.ops {
				assert.NotContains(t, op, toks[3].Mint)
				assert.NotContains(t, op, toks[4].Mint)
			}
			assert.Equal(t, 1, obs.errs)
		})
	}
}

func TestLinkAndVerify_InvalidCollection(t *testing.T) {
	linker := &fakeLinker{}
	v := New(linker)

	_, err := v.LinkAndVerify(context.Background(), "not-base58!", items(1))
	require.Error(t, err)
	assert.Empty(t, linker.ops)
}

func TestStageError(t *testing.T) {
	cause := errors.New("boom")
	err := &StageError{Index: 4, Mint: "Mint111", Stage: domain.StageLinked, Step: StepVerify, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "item 4 (Mint111): verify failed at stage LINKED: boom", err.Error())
}
