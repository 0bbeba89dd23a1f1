package programs

import "solana-nft-mint/internal/solana"

// MintAccountSize is the size of an SPL Token mint account.
const MintAccountSize = 82

// SPL Token instruction tags.
const (
	tokenMintTo          uint8 = 7
	tokenInitializeMint2 uint8 = 20
)

type initializeMint2Args struct {
	Instruction     uint8
	Decimals        uint8
	MintAuthority   solana.PublicKey
	FreezeAuthority *solana.PublicKey
}

// InitializeMint2 initializes a mint account. freezeAuthority may be nil.
func InitializeMint2(mint solana.PublicKey, decimals uint8, mintAuthority solana.PublicKey, freezeAuthority *solana.PublicKey) (solana.Instruction, error) {
	data, err := encode(TokenProgramID, initializeMint2Args{
		Instruction:     tokenInitializeMint2,
		Decimals:        decimals,
		MintAuthority:   mintAuthority,
		FreezeAuthority: freezeAuthority,
	})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.Instruction{
		ProgramID: TokenProgramID,
		Accounts:  []solana.AccountMeta{solana.Meta(mint, false, true)},
		Data:      data,
	}, nil
}

type mintToArgs struct {
	Instruction uint8
	Amount      uint64
}

// MintTo mints amount tokens into destination.
func MintTo(mint, destination, authority solana.PublicKey, amount uint64) (solana.Instruction, error) {
	data, err := encode(TokenProgramID, mintToArgs{Instruction: tokenMintTo, Amount: amount})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.Instruction{
		ProgramID: TokenProgramID,
		Accounts: []solana.AccountMeta{
			solana.Meta(mint, false, true),
			solana.Meta(destination, false, true),
			solana.Meta(authority, true, false),
		},
		Data: data,
	}, nil
}
