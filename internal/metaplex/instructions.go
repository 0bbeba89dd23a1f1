package metaplex

import (
	"fmt"

	"github.com/near/borsh-go"

	"solana-nft-mint/internal/programs"
	"solana-nft-mint/internal/solana"
)

// Token Metadata instruction discriminators.
const (
	ixUpdateMetadataAccountV2 uint8 = 15
	ixCreateMasterEditionV3   uint8 = 17
	ixVerifyCollection        uint8 = 18
	ixCreateMetadataAccountV3 uint8 = 33
)

// sizedCollectionDetails mirrors CollectionDetails::V1. Only ever nil here.
type sizedCollectionDetails struct {
	Variant uint8
	Size    uint64
}

type createMetadataAccountV3Args struct {
	Instruction       uint8
	Data              DataV2
	IsMutable         bool
	CollectionDetails *sizedCollectionDetails
}

type createMasterEditionV3Args struct {
	Instruction uint8
	MaxSupply   *uint64
}

type updateMetadataAccountV2Args struct {
	Instruction         uint8
	Data                *DataV2
	UpdateAuthority     *solana.PublicKey
	PrimarySaleHappened *bool
	IsMutable           *bool
}

func encodeArgs(args interface{}) ([]byte, error) {
	data, err := borsh.Serialize(args)
	if err != nil {
		return nil, fmt.Errorf("encode token metadata instruction: %w", err)
	}
	return data, nil
}

// ValidateData checks the field limits the program enforces.
func ValidateData(d DataV2) error {
	if len(d.Name) > MaxNameLength {
		return fmt.Errorf("name %q exceeds %d bytes", d.Name, MaxNameLength)
	}
	if len(d.Symbol) > MaxSymbolLength {
		return fmt.Errorf("symbol %q exceeds %d bytes", d.Symbol, MaxSymbolLength)
	}
	if len(d.URI) > MaxURILength {
		return fmt.Errorf("uri exceeds %d bytes", MaxURILength)
	}
	if d.SellerFeeBasisPoints > MaxSellerFeeBasisPoint {
		return fmt.Errorf("seller fee %d exceeds %d basis points", d.SellerFeeBasisPoints, MaxSellerFeeBasisPoint)
	}
	if d.Creators != nil {
		if len(*d.Creators) > MaxCreatorLimit {
			return fmt.Errorf("%d creators exceed %d", len(*d.Creators), MaxCreatorLimit)
		}
		var total int
		for _, c := range *d.Creators {
			total += int(c.Share)
		}
		if total != 100 {
			return fmt.Errorf("creator shares sum to %d, want 100", total)
		}
	}
	return nil
}

// CreateMetadataAccountV3Accounts lists the accounts of CreateMetadataAccountV3.
type CreateMetadataAccountV3Accounts struct {
	Metadata        solana.PublicKey
	Mint            solana.PublicKey
	MintAuthority   solana.PublicKey
	Payer           solana.PublicKey
	UpdateAuthority solana.PublicKey
}

// CreateMetadataAccountV3 creates the metadata account of a mint.
func CreateMetadataAccountV3(accts CreateMetadataAccountV3Accounts, data DataV2, isMutable bool) (solana.Instruction, error) {
	if err := ValidateData(data); err != nil {
		return solana.Instruction{}, err
	}
	raw, err := encodeArgs(createMetadataAccountV3Args{
		Instruction: ixCreateMetadataAccountV3,
		Data:        data,
		IsMutable:   isMutable,
	})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.Instruction{
		ProgramID: ProgramID,
		Accounts: []solana.AccountMeta{
			solana.Meta(accts.Metadata, false, true),
			solana.Meta(accts.Mint, false, false),
			solana.Meta(accts.MintAuthority, true, false),
			solana.Meta(accts.Payer, true, true),
			solana.Meta(accts.UpdateAuthority, true, false),
			solana.Meta(programs.SystemProgramID, false, false),
		},
		Data: raw,
	}, nil
}

// CreateMasterEditionV3Accounts lists the accounts of CreateMasterEditionV3.
type CreateMasterEditionV3Accounts struct {
	Edition         solana.PublicKey
	Mint            solana.PublicKey
	UpdateAuthority solana.PublicKey
	MintAuthority   solana.PublicKey
	Payer           solana.PublicKey
	Metadata        solana.PublicKey
}

// CreateMasterEditionV3 turns a mint into a master edition. maxSupply nil
// allows unlimited prints; zero makes the NFT one of one.
func CreateMasterEditionV3(accts CreateMasterEditionV3Accounts, maxSupply *uint64) (solana.Instruction, error) {
	raw, err := encodeArgs(createMasterEditionV3Args{
		Instruction: ixCreateMasterEditionV3,
		MaxSupply:   maxSupply,
	})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.Instruction{
		ProgramID: ProgramID,
		Accounts: []solana.AccountMeta{
			solana.Meta(accts.Edition, false, true),
			solana.Meta(accts.Mint, false, true),
			solana.Meta(accts.UpdateAuthority, true, false),
			solana.Meta(accts.MintAuthority, true, false),
			solana.Meta(accts.Payer, true, true),
			solana.Meta(accts.Metadata, false, true),
			solana.Meta(programs.TokenProgramID, false, false),
			solana.Meta(programs.SystemProgramID, false, false),
		},
		Data: raw,
	}, nil
}

// UpdateMetadataAccountV2 replaces the metadata payload. Nil arguments are left unchanged.
func UpdateMetadataAccountV2(metadata, updateAuthority solana.PublicKey, data *DataV2, newUpdateAuthority *solana.PublicKey, primarySaleHappened, isMutable *bool) (solana.Instruction, error) {
	if data != nil {
		if err := ValidateData(*data); err != nil {
			return solana.Instruction{}, err
		}
	}
	raw, err := encodeArgs(updateMetadataAccountV2Args{
		Instruction:         ixUpdateMetadataAccountV2,
		Data:                data,
		UpdateAuthority:     newUpdateAuthority,
		PrimarySaleHappened: primarySaleHappened,
		IsMutable:           isMutable,
	})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.Instruction{
		ProgramID: ProgramID,
		Accounts: []solana.AccountMeta{
			solana.Meta(metadata, false, true),
			solana.Meta(updateAuthority, true, false),
		},
		Data: raw,
	}, nil
}

// VerifyCollectionAccounts lists the accounts of VerifyCollection.
type VerifyCollectionAccounts struct {
	Metadata                solana.PublicKey
	CollectionAuthority     solana.PublicKey
	Payer                   solana.PublicKey
	CollectionMint          solana.PublicKey
	Collection              solana.PublicKey
	CollectionMasterEdition solana.PublicKey
}

// VerifyCollection marks an unsized collection reference as verified.
func VerifyCollection(accts VerifyCollectionAccounts) solana.Instruction {
	return solana.Instruction{
		ProgramID: ProgramID,
		Accounts: []solana.AccountMeta{
			solana.Meta(accts.Metadata, false, true),
			solana.Meta(accts.CollectionAuthority, true, true),
			solana.Meta(accts.Payer, true, true),
			solana.Meta(accts.CollectionMint, false, false),
			solana.Meta(accts.Collection, false, false),
			solana.Meta(accts.CollectionMasterEdition, false, false),
		},
		Data: []byte{ixVerifyCollection},
	}
}
