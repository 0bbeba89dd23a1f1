// Package metaplex implements the subset of the Metaplex Token Metadata
// program needed to mint master edition NFTs and manage their collection.
package metaplex

import (
	"fmt"

	"solana-nft-mint/internal/solana"
)

// ProgramID is the Token Metadata program.
var ProgramID = solana.MustPublicKey("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

// Field limits enforced by the program.
const (
	MaxNameLength          = 32
	MaxSymbolLength        = 10
	MaxURILength           = 200
	MaxSellerFeeBasisPoint = 10000
	MaxCreatorLimit        = 5
)

// MetadataAddress derives the metadata account of mint.
func MetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("metadata"), ProgramID[:], mint[:]},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("metadata address for %s: %w", mint, err)
	}
	return pda, nil
}

// MasterEditionAddress derives the master edition account of mint.
func MasterEditionAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("metadata"), ProgramID[:], mint[:], []byte("edition")},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("master edition address for %s: %w", mint, err)
	}
	return pda, nil
}
