package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"solana-nft-mint/internal/assets"
	"solana-nft-mint/internal/orchestrator"
	"solana-nft-mint/internal/solana"
	"solana-nft-mint/internal/ui"
)

func newRunCmd(a *app) *cobra.Command {
	var skipCheck bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Mint the collection and every item, then link and verify each item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := a.newPipeline(ctx, pipelineOptions{needUpload: true, skipCheck: skipCheck})
			if err != nil {
				return err
			}
			defer p.Close()

			result, err := p.orch.Run(ctx)
			a.pushMetrics(ctx)
			printSummary(a.out, result)
			return err
		},
	}
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "do not validate every descriptor before minting")
	return cmd
}

func newMintCmd(a *app) *cobra.Command {
	var skipCheck bool
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint the collection and every item without linking them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := a.newPipeline(ctx, pipelineOptions{needUpload: true, skipCheck: skipCheck})
			if err != nil {
				return err
			}
			defer p.Close()

			result, err := p.orch.Mint(ctx)
			a.pushMetrics(ctx)
			printSummary(a.out, result)
			printMints(a.out, result)
			return err
		},
	}
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "do not validate every descriptor before minting")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var collectionMint string
	cmd := &cobra.Command{
		Use:   "verify --collection <mint> <item-mint>...",
		Short: "Link already minted items to a collection and verify them, in argument order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := solana.PublicKeyFromBase58(collectionMint); err != nil {
				return fmt.Errorf("--collection: %w", err)
			}
			for _, m := range args {
				if _, err := solana.PublicKeyFromBase58(m); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			p, err := a.newPipeline(ctx, pipelineOptions{})
			if err != nil {
				return err
			}
			defer p.Close()

			result, err := p.orch.Verify(ctx, collectionMint, args)
			a.pushMetrics(ctx)
			printSummary(a.out, result)
			return err
		},
	}
	cmd.Flags().StringVar(&collectionMint, "collection", "", "collection token address")
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List and validate the descriptors in the asset directory without minting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listing, err := assets.Scan(a.cfg.AssetDir)
			if err != nil {
				return err
			}

			table := ui.NewTable("INDEX", "FILE", "NAME", "SYMBOL", "IMAGE", "ROYALTY")
			paths := append([]string{listing.Collection}, listing.Items...)
			for _, path := range paths {
				d, err := assets.LoadDescriptor(path)
				if err != nil {
					fmt.Fprint(a.out, table.Render())
					return err
				}
				index := "collection"
				if !d.IsCollection() {
					index = strconv.Itoa(d.Index)
				}
				table.AddRow(index, path, d.Name, d.Symbol, d.ImageName,
					fmt.Sprintf("%.2f%%", float64(d.SellerFeeBasisPoints)/100))
			}

			fmt.Fprintln(a.out, ui.FormatTitle(listing.Dir))
			fmt.Fprint(a.out, table.Render())
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, ui.FormatSuccess(fmt.Sprintf("%d collection.json file found, %d NFT JSON file(s) are found.",
				listing.CollectionFiles, listing.ItemCount())))
			return nil
		},
	}
}

// printSummary writes the outcome of a run. result may be partial or nil.
func printSummary(w io.Writer, result *orchestrator.RunResult) {
	if result == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.FormatTitle("Summary"))
	if result.RunID != "" {
		fmt.Fprintln(w, ui.KeyValue("Run", result.RunID))
	}
	fmt.Fprintln(w, ui.KeyValue("Collection", orDash(result.CollectionMint())))
	fmt.Fprintln(w, ui.KeyValue("Items", len(result.Items)))
	if result.Report != nil {
		fmt.Fprintln(w, ui.KeyValue("Verified", result.Report.Verified()))
	}
	fmt.Fprintln(w, ui.KeyValue("Duration", result.Duration.Round(time.Millisecond)))
}

// printMints lists item addresses so they can be passed to verify.
func printMints(w io.Writer, result *orchestrator.RunResult) {
	if result == nil || len(result.Items) == 0 {
		return
	}
	table := ui.NewTable("INDEX", "MINT", "METADATA")
	for _, item := range result.Items {
		table.AddRow(strconv.Itoa(item.Index), item.Mint, item.MetadataURI)
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, table.Render())
}
