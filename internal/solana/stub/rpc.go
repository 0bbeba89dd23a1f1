package stub

import (
	"context"
	"errors"
	"sync"

	"solana-nft-mint/internal/solana"
)

// ErrNotFound is returned when a signature is unknown to the stub.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing.
// Sent transactions are recorded and immediately reported as finalized.
type RPCClient struct {
	mu sync.Mutex

	Blockhash solana.Hash
	Accounts  map[solana.PublicKey]*solana.AccountInfo
	Balances  map[solana.PublicKey]uint64
	Statuses  map[solana.Signature]*solana.SignatureStatus
	Sent      []*solana.Transaction
	Airdrops  []solana.PublicKey

	// RentPerByte scales GetMinimumBalanceForRentExemption.
	RentPerByte uint64

	// OnSend, if set, runs for every SendTransaction; a non-nil error rejects the transaction.
	OnSend func(tx *solana.Transaction) error

	// TxErr, if set, marks every sent transaction as failed on chain with this value.
	TxErr interface{}

	slot uint64
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Blockhash:   solana.Hash{1, 2, 3},
		Accounts:    make(map[solana.PublicKey]*solana.AccountInfo),
		Balances:    make(map[solana.PublicKey]uint64),
		Statuses:    make(map[solana.Signature]*solana.SignatureStatus),
		RentPerByte: 6960,
	}
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context, _ solana.Commitment) (*solana.LatestBlockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &solana.LatestBlockhash{Blockhash: c.Blockhash, LastValidBlockHeight: c.slot + 150}, nil
}

// SendTransaction verifies signatures and records the transaction.
func (c *RPCClient) SendTransaction(_ context.Context, tx *solana.Transaction, _ *solana.SendOpts) (solana.Signature, error) {
	if err := tx.VerifySignatures(); err != nil {
		return solana.Signature{}, err
	}

	c.mu.Lock()
	onSend := c.OnSend
	c.mu.Unlock()
	if onSend != nil {
		if err := onSend(tx); err != nil {
			return solana.Signature{}, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot++
	c.Sent = append(c.Sent, tx)
	sig := tx.Signature()
	c.Statuses[sig] = &solana.SignatureStatus{
		Slot:               c.slot,
		Err:                c.TxErr,
		ConfirmationStatus: solana.CommitmentFinalized,
	}
	return sig, nil
}

// GetSignatureStatuses returns recorded statuses; unknown signatures are nil.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, sigs ...solana.Signature) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		if st, ok := c.Statuses[sig]; ok {
			cp := *st
			out[i] = &cp
		}
	}
	return out, nil
}

// GetAccountInfo returns a stored account or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey solana.PublicKey, _ solana.Commitment) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	acc, ok := c.Accounts[pubkey]
	if !ok {
		return nil, nil
	}
	cp := *acc
	cp.Data = append([]byte(nil), acc.Data...)
	return &cp, nil
}

// GetBalance returns the stored balance.
func (c *RPCClient) GetBalance(_ context.Context, pubkey solana.PublicKey, _ solana.Commitment) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Balances[pubkey], nil
}

// GetMinimumBalanceForRentExemption returns size * RentPerByte.
func (c *RPCClient) GetMinimumBalanceForRentExemption(_ context.Context, size uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return size * c.RentPerByte, nil
}

// RequestAirdrop credits the balance and records a finalized status.
func (c *RPCClient) RequestAirdrop(_ context.Context, pubkey solana.PublicKey, lamports uint64) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot++
	c.Balances[pubkey] += lamports
	c.Airdrops = append(c.Airdrops, pubkey)

	var sig solana.Signature
	sig[0] = byte(c.slot)
	sig[1] = byte(c.slot >> 8)
	copy(sig[2:], pubkey[:])
	c.Statuses[sig] = &solana.SignatureStatus{
		Slot:               c.slot,
		ConfirmationStatus: solana.CommitmentFinalized,
	}
	return sig, nil
}

// SetAccount stores account data owned by owner.
func (c *RPCClient) SetAccount(pubkey, owner solana.PublicKey, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[pubkey] = &solana.AccountInfo{Owner: owner, Data: data, Lamports: uint64(len(data)) * c.RentPerByte}
}

// SentTransactions returns a copy of the sent transaction list.
func (c *RPCClient) SentTransactions() []*solana.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*solana.Transaction(nil), c.Sent...)
}

// Status looks up a recorded status.
func (c *RPCClient) Status(sig solana.Signature) (*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.Statuses[sig]
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

// SetStatus records a status for sig.
func (c *RPCClient) SetStatus(sig solana.Signature, status *solana.SignatureStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses[sig] = status
}
