package programs

import "solana-nft-mint/internal/solana"

// FindAssociatedTokenAddress derives the associated token account of owner for mint.
func FindAssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindProgramAddress(
		[][]byte{owner[:], TokenProgramID[:], mint[:]},
		AssociatedTokenProgramID,
	)
	return ata, err
}

// CreateAssociatedTokenAccount creates the associated token account of owner for mint.
func CreateAssociatedTokenAccount(payer, owner, mint solana.PublicKey) (solana.Instruction, error) {
	ata, err := FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.Instruction{
		ProgramID: AssociatedTokenProgramID,
		Accounts: []solana.AccountMeta{
			solana.Meta(payer, true, true),
			solana.Meta(ata, false, true),
			solana.Meta(owner, false, false),
			solana.Meta(mint, false, false),
			solana.Meta(SystemProgramID, false, false),
			solana.Meta(TokenProgramID, false, false),
		},
		Data: []byte{0},
	}, nil
}
