package identity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"solana-nft-mint/internal/solana"
)

// DefaultMinBalance is the balance below which an airdrop is requested.
const DefaultMinBalance = solana.LamportsPerSOL

// FundsChecker tops up the authority on clusters that run a faucet.
type FundsChecker struct {
	RPC        solana.RPCClient
	Confirmer  solana.Confirmer
	Cluster    solana.Cluster
	MinBalance uint64
	// Airdrop is the amount requested. Defaults to one SOL.
	Airdrop uint64
	Logger  *zap.Logger
}

// EnsureFunds requests an airdrop when the balance of owner is below
// MinBalance and returns the resulting balance. On clusters without a
// faucet the balance is only reported.
func (f *FundsChecker) EnsureFunds(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	minBalance := f.MinBalance
	if minBalance == 0 {
		minBalance = DefaultMinBalance
	}
	amount := f.Airdrop
	if amount == 0 {
		amount = solana.LamportsPerSOL
	}

	balance, err := f.RPC.GetBalance(ctx, owner, solana.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	if balance >= minBalance {
		return balance, nil
	}

	if !f.Cluster.SupportsAirdrop() {
		logger.Warn("balance below minimum and cluster has no faucet",
			zap.Stringer("address", owner),
			zap.Float64("sol", LamportsToSOL(balance)))
		return balance, nil
	}

	logger.Info("requesting airdrop",
		zap.Stringer("address", owner),
		zap.Float64("sol", LamportsToSOL(amount)))
	sig, err := f.RPC.RequestAirdrop(ctx, owner, amount)
	if err != nil {
		return balance, fmt.Errorf("request airdrop: %w", err)
	}
	if err := f.Confirmer.Confirm(ctx, sig); err != nil {
		return balance, fmt.Errorf("confirm airdrop: %w", err)
	}

	balance, err = f.RPC.GetBalance(ctx, owner, solana.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	logger.Info("new balance", zap.Float64("sol", LamportsToSOL(balance)))
	return balance, nil
}

// LamportsToSOL converts lamports to SOL for display.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / solana.LamportsPerSOL
}
