package main

import (
	"io"

	"github.com/spf13/cobra"
)

func newRootCmd(out io.Writer) (*cobra.Command, *app) {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "nftmint",
		Short: "Mint a Solana NFT collection from a directory of JSON descriptors",
		Long: `nftmint reads collection.json and 0.json..N-1.json from an asset directory,
uploads each image and its metadata, mints the collection and every item,
then links each item to the collection and verifies it.

Steps run one at a time and the first failure stops the run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgPath, "config", "c", "nftmint.yaml", "config file (missing file uses defaults)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFile, "log-file", "", "also write JSON logs to this file")
	flags.StringVarP(&a.assetDir, "assets", "a", "", "asset directory (overrides asset_dir)")

	root.AddCommand(
		newRunCmd(a),
		newMintCmd(a),
		newVerifyCmd(a),
		newScanCmd(a),
		newKeygenCmd(a),
		newAddressCmd(a),
		newBalanceCmd(a),
		newAirdropCmd(a),
		newStatusCmd(a),
	)
	return root, a
}
