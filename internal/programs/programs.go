// Package programs builds instructions for the native System program and the
// SPL Token and Associated Token Account programs.
package programs

import (
	"fmt"

	"github.com/near/borsh-go"

	"solana-nft-mint/internal/solana"
)

// Well-known program IDs.
var (
	SystemProgramID          = solana.MustPublicKey("11111111111111111111111111111111")
	TokenProgramID           = solana.MustPublicKey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = solana.MustPublicKey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

func encode(programID solana.PublicKey, args interface{}) ([]byte, error) {
	data, err := borsh.Serialize(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s instruction: %w", programID, err)
	}
	return data, nil
}
