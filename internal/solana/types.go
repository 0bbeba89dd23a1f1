package solana

import "fmt"

// Commitment is the bank state a query or confirmation targets.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// IsValid checks if the commitment is a known level.
func (c Commitment) IsValid() bool {
	return c.rank() > 0
}

func (c Commitment) rank() int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	default:
		return 0
	}
}

// LatestBlockhash from getLatestBlockhash.
type LatestBlockhash struct {
	Blockhash            Hash
	LastValidBlockHeight uint64
}

// SignatureStatus from getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64
	Err                interface{}
	ConfirmationStatus Commitment
}

// Reached reports whether the status satisfies the target commitment.
func (s *SignatureStatus) Reached(target Commitment) bool {
	if s == nil {
		return false
	}
	return s.ConfirmationStatus.rank() >= target.rank()
}

// AccountInfo from getAccountInfo with data decoded from base64.
type AccountInfo struct {
	Lamports   uint64
	Owner      PublicKey
	Data       []byte
	Executable bool
	RentEpoch  uint64
}

// SendOpts configures sendTransaction preflight.
type SendOpts struct {
	SkipPreflight       bool
	PreflightCommitment Commitment
	MaxRetries          *uint
}

// TransactionError is returned when a transaction landed but failed on chain.
type TransactionError struct {
	Signature Signature
	Err       interface{}
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Err)
}

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000
