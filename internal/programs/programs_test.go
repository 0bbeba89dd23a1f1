package programs

import (
	"bytes"
	"encoding/binary"
	"testing"

	"solana-nft-mint/internal/solana"
)

func TestCreateAccount_Encoding(t *testing.T) {
	payer := solana.PublicKey{1}
	mint := solana.PublicKey{2}

	ix, err := CreateAccount(payer, mint, 1461600, MintAccountSize, TokenProgramID)
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	if len(ix.Data) != 4+8+8+32 {
		t.Fatalf("unexpected data length %d", len(ix.Data))
	}
	if tag := binary.LittleEndian.Uint32(ix.Data[0:4]); tag != 0 {
		t.Errorf("expected tag 0, got %d", tag)
	}
	if lamports := binary.LittleEndian.Uint64(ix.Data[4:12]); lamports != 1461600 {
		t.Errorf("unexpected lamports %d", lamports)
	}
	if space := binary.LittleEndian.Uint64(ix.Data[12:20]); space != MintAccountSize {
		t.Errorf("unexpected space %d", space)
	}
	if !bytes.Equal(ix.Data[20:], TokenProgramID[:]) {
		t.Error("owner must be the token program")
	}
	if !ix.Accounts[1].IsSigner || !ix.Accounts[1].IsWritable {
		t.Error("new account must sign and be writable")
	}
}

func TestTransfer_Encoding(t *testing.T) {
	ix, err := Transfer(solana.PublicKey{1}, solana.PublicKey{2}, 42)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	want := []byte{2, 0, 0, 0, 42, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(ix.Data, want) {
		t.Errorf("data = %v, want %v", ix.Data, want)
	}
}

func TestInitializeMint2_Encoding(t *testing.T) {
	mint := solana.PublicKey{3}
	authority := solana.PublicKey{4}

	ix, err := InitializeMint2(mint, 0, authority, &authority)
	if err != nil {
		t.Fatalf("InitializeMint2: %v", err)
	}
	if len(ix.Data) != 1+1+32+1+32 {
		t.Fatalf("unexpected data length %d", len(ix.Data))
	}
	if ix.Data[0] != 20 || ix.Data[1] != 0 {
		t.Errorf("unexpected tag/decimals %v", ix.Data[:2])
	}
	if ix.Data[34] != 1 {
		t.Error("freeze authority option must be set")
	}

	noFreeze, err := InitializeMint2(mint, 0, authority, nil)
	if err != nil {
		t.Fatalf("InitializeMint2: %v", err)
	}
	if len(noFreeze.Data) != 35 || noFreeze.Data[34] != 0 {
		t.Errorf("unexpected data without freeze authority: %v", noFreeze.Data)
	}
	if len(ix.Accounts) != 1 || ix.Accounts[0].PublicKey != mint {
		t.Error("InitializeMint2 takes only the mint account")
	}
}

func TestMintTo_Encoding(t *testing.T) {
	ix, err := MintTo(solana.PublicKey{1}, solana.PublicKey{2}, solana.PublicKey{3}, 1)
	if err != nil {
		t.Fatalf("MintTo: %v", err)
	}
	want := []byte{7, 1, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(ix.Data, want) {
		t.Errorf("data = %v, want %v", ix.Data, want)
	}
	if !ix.Accounts[2].IsSigner {
		t.Error("mint authority must sign")
	}
}

func TestFindAssociatedTokenAddress(t *testing.T) {
	owner := solana.MustPublicKey("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
	mint := solana.MustPublicKey("So11111111111111111111111111111111111111112")

	ata, err := FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		t.Fatalf("FindAssociatedTokenAddress: %v", err)
	}
	if got := ata.String(); got != "8LjUgMjzZuHj8VdyxzkmLLQVmW4C3gd56md1nLd76TNW" {
		t.Errorf("unexpected associated token address %s", got)
	}

	ix, err := CreateAssociatedTokenAccount(owner, owner, mint)
	if err != nil {
		t.Fatalf("CreateAssociatedTokenAccount: %v", err)
	}
	if ix.Accounts[1].PublicKey != ata {
		t.Error("second account must be the derived address")
	}
	if len(ix.Accounts) != 6 {
		t.Errorf("expected 6 accounts, got %d", len(ix.Accounts))
	}
}
