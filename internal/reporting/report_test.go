package reporting

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/ledger"
	"solana-nft-mint/internal/storage"
	"solana-nft-mint/internal/storage/memory"
)

// recordRun writes a run whose second item failed to link.
func recordRun(t *testing.T) (*Generator, string) {
	t.Helper()
	ctx := context.Background()
	runs := memory.NewRunStore()
	events := memory.NewTokenEventStore()

	rec := ledger.NewRecorder(runs, events, nil)
	run, err := rec.Begin(ctx, "Auth1111", "devnet", "./assets", time.UnixMilli(1_700_000_000_000))
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	coll := &domain.MintedToken{Role: domain.RoleCollection, Index: domain.CollectionIndex, Mint: "CoLL", Signature: "sigC"}
	item0 := &domain.MintedToken{Role: domain.RoleItem, Index: 0, Mint: "Mint0", Signature: "sig0"}
	item1 := &domain.MintedToken{Role: domain.RoleItem, Index: 1, Mint: "Mint1", Signature: "sig1"}
	rec.Minted(ctx, coll)
	rec.Minted(ctx, item0)
	rec.Minted(ctx, item1)
	rec.Stage(ctx, &domain.ItemResult{Token: *item0, Stage: domain.StageLinked, LinkSignature: "link0"})
	rec.Stage(ctx, &domain.ItemResult{Token: *item0, Stage: domain.StageVerified, LinkSignature: "link0", VerifySignature: "ver0"})
	rec.Stage(ctx, &domain.ItemResult{Token: *item1, Stage: domain.StageMinted, Err: errors.New("rpc: node is behind, try again")})

	g := NewGenerator(runs, events)
	g.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return g, run.RunID
}

func TestGenerate(t *testing.T) {
	g, runID := recordRun(t)

	r, err := g.Generate(context.Background(), runID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if r.RunID != runID || r.Cluster != "devnet" || r.Events != 6 {
		t.Errorf("unexpected run fields: %+v", r)
	}
	want := Summary{Minted: 1, Verified: 1, Failed: 1}
	if r.Summary != want {
		t.Errorf("expected summary %+v, got %+v", want, r.Summary)
	}
	if r.Summary.Total() != 3 || len(r.Tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(r.Tokens))
	}
	if r.Tokens[0].Role != string(domain.RoleCollection) || r.Tokens[0].Index != domain.CollectionIndex {
		t.Errorf("collection should come first: %+v", r.Tokens[0])
	}
	if r.Tokens[1].Signature != "ver0" {
		t.Errorf("expected verify signature on item 0, got %q", r.Tokens[1].Signature)
	}
	if !strings.Contains(r.Tokens[1].ExplorerURL, "/address/Mint0?cluster=devnet") {
		t.Errorf("unexpected explorer url: %s", r.Tokens[1].ExplorerURL)
	}
}

func TestGenerate_UnknownRun(t *testing.T) {
	g, _ := recordRun(t)
	if _, err := g.Generate(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRenderMarkdown(t *testing.T) {
	g, runID := recordRun(t)
	r, err := g.Generate(context.Background(), runID)
	if err != nil {
		t.Fatal(err)
	}
	r.AssetDir = "a|b"

	md := RenderMarkdown(r)
	for _, want := range []string{
		"# Mint Run " + runID,
		"Generated: 2024-01-02T03:04:05Z",
		"| Cluster | devnet |",
		`| Asset Directory | a\|b |`,
		"| VERIFIED | 1 |",
		"| FAILED | 1 |",
		"The run stopped at a failure.",
		"| COLLECTION | - | MINTED |",
		"| ITEM | 1 | FAILED |",
		"node is behind",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRenderMarkdown_NoTokens(t *testing.T) {
	md := RenderMarkdown(&Report{RunID: "r1"})
	if !strings.Contains(md, "No token events recorded.") {
		t.Errorf("expected empty token section:\n%s", md)
	}
	if strings.Contains(md, "stopped at a failure") {
		t.Error("no failure note expected")
	}
}

func TestWriteCSV(t *testing.T) {
	g, runID := recordRun(t)
	r, err := g.Generate(context.Background(), runID)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, r); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header and 3 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "run_id,role,item_index,stage,mint,signature,error" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][2] != "" {
		t.Errorf("collection should have empty item_index, got %q", records[1][2])
	}
	if records[3][6] != "rpc: node is behind, try again" {
		t.Errorf("error with comma not preserved: %q", records[3][6])
	}
}
