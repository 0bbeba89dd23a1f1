package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"solana-nft-mint/internal/config"
	"solana-nft-mint/internal/solana"
	"solana-nft-mint/internal/ui"
)

func newKeygenCmd(a *app) *cobra.Command {
	var (
		outPath string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a keypair file in Solana CLI format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := expandHome(outPath)
			flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
			if force {
				flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			}

			kp, err := solana.NewKeypair()
			if err != nil {
				return err
			}
			f, err := os.OpenFile(path, flag, 0o600)
			if err != nil {
				if errors.Is(err, os.ErrExist) {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
				return fmt.Errorf("create keypair file: %w", err)
			}
			if _, err := f.Write(kp.JSON()); err != nil {
				f.Close()
				return fmt.Errorf("write keypair file: %w", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write keypair file: %w", err)
			}

			fmt.Fprintln(a.out, ui.FormatSuccess("Wrote "+path))
			fmt.Fprintln(a.out, ui.KeyValue("Address", kp.PublicKey()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "keypair.json", "output file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newAddressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the authority address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kp, err := a.loadKeypair(cmd.Context())
			if err != nil {
				return err
			}
			addr := kp.PublicKey().String()
			fmt.Fprintln(a.out, ui.KeyValue("Address", addr))
			fmt.Fprintln(a.out, ui.KeyValue("Explorer", a.cfg.ClusterValue().AddressURL(addr)))
			return nil
		},
	}
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Print the balance of the authority or the given address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var owner solana.PublicKey
			if len(args) == 1 {
				pk, err := solana.PublicKeyFromBase58(args[0])
				if err != nil {
					return err
				}
				owner = pk
			} else {
				kp, err := a.loadKeypair(ctx)
				if err != nil {
					return err
				}
				owner = kp.PublicKey()
			}

			balance, err := a.rpcClient().GetBalance(ctx, owner, a.cfg.CommitmentValue())
			if err != nil {
				return fmt.Errorf("get balance: %w", err)
			}
			fmt.Fprintln(a.out, ui.KeyValue("Address", owner))
			fmt.Fprintln(a.out, ui.KeyValue("Balance", formatSOL(balance)))
			return nil
		},
	}
}

func newAirdropCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "airdrop [sol]",
		Short: "Request an airdrop to the authority on devnet, testnet or localnet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cluster := a.cfg.ClusterValue()
			if !cluster.SupportsAirdrop() {
				return fmt.Errorf("cluster %s has no faucet", cluster)
			}
			sol := a.cfg.Funds.AirdropSOL
			if len(args) == 1 {
				v, err := strconv.ParseFloat(args[0], 64)
				if err != nil || v <= 0 {
					return fmt.Errorf("invalid amount %q", args[0])
				}
				sol = v
			}

			ctx := cmd.Context()
			kp, err := a.loadKeypair(ctx)
			if err != nil {
				return err
			}
			c := a.connect(ctx, kp)
			defer c.Close()

			sig, err := c.rpc.RequestAirdrop(ctx, kp.PublicKey(), config.Lamports(sol))
			if err != nil {
				return fmt.Errorf("request airdrop: %w", err)
			}
			fmt.Fprintln(a.out, ui.FormatInfo("Waiting for confirmation..."))
			if err := c.confirmer.Confirm(ctx, sig); err != nil {
				return fmt.Errorf("confirm airdrop: %w", err)
			}
			balance, err := c.rpc.GetBalance(ctx, kp.PublicKey(), a.cfg.CommitmentValue())
			if err != nil {
				return fmt.Errorf("get balance: %w", err)
			}
			fmt.Fprintln(a.out, ui.KeyValue("Signature", cluster.TxURL(sig.String())))
			fmt.Fprintln(a.out, ui.KeyValue("Balance", formatSOL(balance)))
			return nil
		},
	}
}
