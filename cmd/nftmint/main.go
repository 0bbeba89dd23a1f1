// Package main provides the nftmint command line entry point.
// Subcommands: run, mint, verify, scan, keygen, address, balance, airdrop, status
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"solana-nft-mint/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root, a := newRootCmd(os.Stdout)
	err := root.ExecuteContext(ctx)
	stop()
	a.close()

	if err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatError(err.Error()))
		os.Exit(1)
	}
}
