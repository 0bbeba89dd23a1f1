package solana

import "context"

// RPCClient defines the Solana JSON-RPC methods used to mint and verify NFTs.
type RPCClient interface {
	// GetLatestBlockhash returns a recent blockhash for transaction construction.
	GetLatestBlockhash(ctx context.Context, commitment Commitment) (*LatestBlockhash, error)

	// SendTransaction submits a signed transaction and returns its signature.
	SendTransaction(ctx context.Context, tx *Transaction, opts *SendOpts) (Signature, error)

	// GetSignatureStatuses returns statuses in request order; unknown signatures are nil.
	GetSignatureStatuses(ctx context.Context, sigs ...Signature) ([]*SignatureStatus, error)

	// GetAccountInfo returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey PublicKey, commitment Commitment) (*AccountInfo, error)

	// GetBalance returns the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey PublicKey, commitment Commitment) (uint64, error)

	// GetMinimumBalanceForRentExemption returns lamports for a rent-exempt account of size bytes.
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)

	// RequestAirdrop asks a test cluster faucet for lamports.
	RequestAirdrop(ctx context.Context, pubkey PublicKey, lamports uint64) (Signature, error)
}
