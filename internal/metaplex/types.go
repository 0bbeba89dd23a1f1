package metaplex

import (
	"github.com/near/borsh-go"

	"solana-nft-mint/internal/solana"
)

// Account discriminators stored in the first byte.
const (
	KeyMetadataV1 uint8 = 4
)

// Creator is a royalty recipient listed in the metadata.
type Creator struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

// Collection references the collection mint an NFT belongs to.
type Collection struct {
	Verified bool
	Key      solana.PublicKey
}

// Uses limits how often an NFT can be used.
type Uses struct {
	UseMethod borsh.Enum
	Remaining uint64
	Total     uint64
}

// DataV2 is the mutable metadata payload of create and update instructions.
type DataV2 struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator
	Collection           *Collection
	Uses                 *Uses
}

// Data is the metadata payload as stored on chain.
type Data struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator
}

// Metadata is a decoded metadata account.
type Metadata struct {
	Key                 uint8
	UpdateAuthority     solana.PublicKey
	Mint                solana.PublicKey
	Data                Data
	PrimarySaleHappened bool
	IsMutable           bool
	EditionNonce        *uint8
	TokenStandard       *borsh.Enum
	Collection          *Collection
	Uses                *Uses

	// Address is the metadata account itself.
	Address solana.PublicKey
}

// DataV2 converts the stored data into an update payload keeping collection and uses.
func (m *Metadata) DataV2() DataV2 {
	return DataV2{
		Name:                 m.Data.Name,
		Symbol:               m.Data.Symbol,
		URI:                  m.Data.URI,
		SellerFeeBasisPoints: m.Data.SellerFeeBasisPoints,
		Creators:             m.Data.Creators,
		Collection:           m.Collection,
		Uses:                 m.Uses,
	}
}
