package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"solana-nft-mint/internal/config"
	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/ledger"
	"solana-nft-mint/internal/reporting"
	"solana-nft-mint/internal/ui"
)

// errNoPersistentLedger is returned by status when runs are not persisted.
var errNoPersistentLedger = errors.New("status needs ledger.backend=postgres; other backends keep nothing between runs")

// Status output formats.
const (
	formatTable    = "table"
	formatMarkdown = "markdown"
	formatCSV      = "csv"
)

func newStatusCmd(a *app) *cobra.Command {
	var (
		limit   int
		format  string
		outPath string
		mint    string
	)
	cmd := &cobra.Command{
		Use:   "status [run-id]",
		Short: "Show recorded runs, or the token stages of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatTable, formatMarkdown, formatCSV:
			default:
				return fmt.Errorf("unknown format %q (table, markdown or csv)", format)
			}
			if a.cfg.Ledger.Backend != config.LedgerPostgres {
				return errNoPersistentLedger
			}
			ctx := cmd.Context()
			stores, err := a.openLedger(ctx)
			if err != nil {
				return err
			}
			defer stores.close()

			if mint != "" {
				events, err := stores.events.GetByMint(ctx, mint)
				if err != nil {
					return fmt.Errorf("events of %s: %w", mint, err)
				}
				printMintHistory(a.out, mint, events)
				return nil
			}

			if len(args) == 0 {
				runs, err := stores.runs.List(ctx, limit)
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				printRuns(a.out, runs)
				return nil
			}

			if format == formatTable {
				status, err := ledger.LoadStatus(ctx, stores.runs, stores.events, args[0])
				if err != nil {
					return err
				}
				printStatus(a.out, status)
				return nil
			}

			report, err := reporting.NewGenerator(stores.runs, stores.events).Generate(ctx, args[0])
			if err != nil {
				return err
			}
			return writeReport(a.out, outPath, format, report)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to list (0 for all)")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format for a run: table, markdown or csv")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the markdown or csv report to this file")
	cmd.Flags().StringVar(&mint, "mint", "", "show every recorded event of one token across runs")
	return cmd
}

// writeReport renders report to path, or to w when path is empty.
func writeReport(w io.Writer, path, format string, report *reporting.Report) error {
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		if err := renderReport(f, format, report); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintln(w, ui.FormatSuccess("Wrote "+path))
		return nil
	}
	return renderReport(w, format, report)
}

func renderReport(w io.Writer, format string, report *reporting.Report) error {
	if format == formatCSV {
		if err := reporting.WriteCSV(w, report); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	}
	if _, err := io.WriteString(w, reporting.RenderMarkdown(report)); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

func printRuns(w io.Writer, runs []*domain.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, ui.FormatMuted("no runs recorded"))
		return
	}
	table := ui.NewTable("RUN", "STARTED", "CLUSTER", "AUTHORITY", "ASSETS")
	for _, r := range runs {
		table.AddRow(r.RunID, formatMillis(r.StartedAt), r.Cluster, r.Authority, r.AssetDir)
	}
	fmt.Fprint(w, table.Render())
}

func printMintHistory(w io.Writer, mint string, events []*domain.TokenEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, ui.FormatMuted("no events recorded for "+mint))
		return
	}
	fmt.Fprintln(w, ui.FormatTitle("Token "+mint))
	table := ui.NewTable("TIME", "RUN", "SEQ", "STAGE", "SIGNATURE", "ERROR")
	for _, e := range events {
		table.AddRow(formatMillis(e.OccurredAt), e.RunID, strconv.Itoa(e.Seq), string(e.Stage), orDash(e.Signature), e.Error)
	}
	fmt.Fprint(w, table.Render())
}

func printStatus(w io.Writer, s *ledger.RunStatus) {
	fmt.Fprintln(w, ui.FormatTitle("Run "+s.Run.RunID))
	fmt.Fprintln(w, ui.KeyValue("Started", formatMillis(s.Run.StartedAt)))
	fmt.Fprintln(w, ui.KeyValue("Cluster", s.Run.Cluster))
	fmt.Fprintln(w, ui.KeyValue("Authority", s.Run.Authority))
	fmt.Fprintln(w, ui.KeyValue("Events", s.Events))
	fmt.Fprintln(w)

	table := ui.NewTable("ROLE", "INDEX", "STAGE", "MINT", "SIGNATURE", "ERROR")
	for _, t := range s.Tokens {
		index := "-"
		if t.Role == domain.RoleItem {
			index = strconv.Itoa(t.Index)
		}
		table.AddRow(string(t.Role), index, string(t.Stage), orDash(t.Mint), orDash(t.Signature), t.Error)
	}
	fmt.Fprint(w, table.Render())
	fmt.Fprintln(w)

	summary := fmt.Sprintf("%d minted, %d linked, %d verified",
		s.Count(domain.StageMinted), s.Count(domain.StageLinked), s.Count(domain.StageVerified))
	if failed := s.Count(domain.StageFailed); failed > 0 {
		fmt.Fprintln(w, ui.FormatWarning(fmt.Sprintf("%s, %d failed", summary, failed)))
		return
	}
	fmt.Fprintln(w, ui.FormatSuccess(summary))
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
