package programs

import "solana-nft-mint/internal/solana"

// System program instruction tags.
const (
	systemCreateAccount uint32 = 0
	systemTransfer      uint32 = 2
)

type createAccountArgs struct {
	Instruction uint32
	Lamports    uint64
	Space       uint64
	Owner       solana.PublicKey
}

// CreateAccount allocates a new account of space bytes owned by owner.
// Both payer and the new account must sign.
func CreateAccount(payer, newAccount solana.PublicKey, lamports, space uint64, owner solana.PublicKey) (solana.Instruction, error) {
	data, err := encode(SystemProgramID, createAccountArgs{
		Instruction: systemCreateAccount,
		Lamports:    lamports,
		Space:       space,
		Owner:       owner,
	})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.Instruction{
		ProgramID: SystemProgramID,
		Accounts: []solana.AccountMeta{
			solana.Meta(payer, true, true),
			solana.Meta(newAccount, true, true),
		},
		Data: data,
	}, nil
}

type transferArgs struct {
	Instruction uint32
	Lamports    uint64
}

// Transfer moves lamports between system accounts.
func Transfer(from, to solana.PublicKey, lamports uint64) (solana.Instruction, error) {
	data, err := encode(SystemProgramID, transferArgs{Instruction: systemTransfer, Lamports: lamports})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.Instruction{
		ProgramID: SystemProgramID,
		Accounts: []solana.AccountMeta{
			solana.Meta(from, true, true),
			solana.Meta(to, false, true),
		},
		Data: data,
	}, nil
}
