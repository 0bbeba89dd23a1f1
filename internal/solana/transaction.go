package solana

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// maxAccountKeys is the number of account indexes addressable by a u8.
const maxAccountKeys = 256

// Hash is a 32-byte blockhash.
type Hash [32]byte

// HashFromBase58 parses a base58 blockhash.
func HashFromBase58(s string) (Hash, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return Hash{}, fmt.Errorf("decode blockhash: %w", err)
	}
	if len(decoded) != len(Hash{}) {
		return Hash{}, fmt.Errorf("blockhash: invalid length %d", len(decoded))
	}
	var h Hash
	copy(h[:], decoded)
	return h, nil
}

// String returns the base58 form.
func (h Hash) String() string {
	return base58.Encode(h[:])
}

// AccountMeta describes one account referenced by an instruction.
type AccountMeta struct {
	PublicKey  PublicKey
	IsSigner   bool
	IsWritable bool
}

// Meta is shorthand for building an AccountMeta.
func Meta(pk PublicKey, signer, writable bool) AccountMeta {
	return AccountMeta{PublicKey: pk, IsSigner: signer, IsWritable: writable}
}

// Instruction is a single program invocation before compilation.
type Instruction struct {
	ProgramID PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// MessageHeader counts the signer and read-only accounts of a message.
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// CompiledInstruction references accounts by index into Message.AccountKeys.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}

// Message is a legacy transaction message.
type Message struct {
	Header          MessageHeader
	AccountKeys     []PublicKey
	RecentBlockhash Hash
	Instructions    []CompiledInstruction
}

// NewMessage compiles instructions into a legacy message.
// Accounts are ordered: writable signers (fee payer first), read-only signers,
// writable non-signers, read-only non-signers.
func NewMessage(feePayer PublicKey, instructions []Instruction, blockhash Hash) (*Message, error) {
	if len(instructions) == 0 {
		return nil, errors.New("message has no instructions")
	}

	type flags struct {
		signer, writable bool
	}
	order := []PublicKey{feePayer}
	seen := map[PublicKey]*flags{feePayer: {signer: true, writable: true}}

	add := func(pk PublicKey, signer, writable bool) {
		f, ok := seen[pk]
		if !ok {
			f = &flags{}
			seen[pk] = f
			order = append(order, pk)
		}
		f.signer = f.signer || signer
		f.writable = f.writable || writable
	}
	for _, ix := range instructions {
		for _, acc := range ix.Accounts {
			add(acc.PublicKey, acc.IsSigner, acc.IsWritable)
		}
		add(ix.ProgramID, false, false)
	}

	if len(order) > maxAccountKeys {
		return nil, fmt.Errorf("message references %d accounts, max %d", len(order), maxAccountKeys)
	}

	var groups [4][]PublicKey
	for _, pk := range order {
		f := seen[pk]
		switch {
		case f.signer && f.writable:
			groups[0] = append(groups[0], pk)
		case f.signer:
			groups[1] = append(groups[1], pk)
		case f.writable:
			groups[2] = append(groups[2], pk)
		default:
			groups[3] = append(groups[3], pk)
		}
	}

	msg := &Message{
		Header: MessageHeader{
			NumRequiredSignatures:       uint8(len(groups[0]) + len(groups[1])),
			NumReadonlySignedAccounts:   uint8(len(groups[1])),
			NumReadonlyUnsignedAccounts: uint8(len(groups[3])),
		},
		RecentBlockhash: blockhash,
	}
	index := make(map[PublicKey]uint8, len(order))
	for _, g := range groups {
		for _, pk := range g {
			index[pk] = uint8(len(msg.AccountKeys))
			msg.AccountKeys = append(msg.AccountKeys, pk)
		}
	}

	for _, ix := range instructions {
		compiled := CompiledInstruction{
			ProgramIDIndex: index[ix.ProgramID],
			Accounts:       make([]uint8, len(ix.Accounts)),
			Data:           ix.Data,
		}
		for i, acc := range ix.Accounts {
			compiled.Accounts[i] = index[acc.PublicKey]
		}
		msg.Instructions = append(msg.Instructions, compiled)
	}

	return msg, nil
}

// Signers returns the account keys that must sign, in signature order.
func (m *Message) Signers() []PublicKey {
	return m.AccountKeys[:m.Header.NumRequiredSignatures]
}

// IsWritable reports whether the account at index i is writable.
func (m *Message) IsWritable(i int) bool {
	h := m.Header
	numSigned := int(h.NumRequiredSignatures)
	if i < numSigned {
		return i < numSigned-int(h.NumReadonlySignedAccounts)
	}
	return i < len(m.AccountKeys)-int(h.NumReadonlyUnsignedAccounts)
}

// Serialize encodes the message in wire format.
func (m *Message) Serialize() []byte {
	b := []byte{
		m.Header.NumRequiredSignatures,
		m.Header.NumReadonlySignedAccounts,
		m.Header.NumReadonlyUnsignedAccounts,
	}
	b = AppendCompactU16(b, len(m.AccountKeys))
	for _, pk := range m.AccountKeys {
		b = append(b, pk[:]...)
	}
	b = append(b, m.RecentBlockhash[:]...)
	b = AppendCompactU16(b, len(m.Instructions))
	for _, ix := range m.Instructions {
		b = append(b, ix.ProgramIDIndex)
		b = AppendCompactU16(b, len(ix.Accounts))
		b = append(b, ix.Accounts...)
		b = AppendCompactU16(b, len(ix.Data))
		b = append(b, ix.Data...)
	}
	return b
}

// Transaction is a signed legacy transaction.
type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction wraps a compiled message with empty signature slots.
func NewTransaction(msg *Message) *Transaction {
	return &Transaction{
		Signatures: make([]Signature, msg.Header.NumRequiredSignatures),
		Message:    *msg,
	}
}

// Sign fills the signature slots. Every required signer must be supplied.
func (tx *Transaction) Sign(signers ...*Keypair) error {
	byKey := make(map[PublicKey]*Keypair, len(signers))
	for _, s := range signers {
		byKey[s.PublicKey()] = s
	}

	payload := tx.Message.Serialize()
	for i, pk := range tx.Message.Signers() {
		kp, ok := byKey[pk]
		if !ok {
			return fmt.Errorf("missing signer %s", pk)
		}
		tx.Signatures[i] = kp.Sign(payload)
	}
	return nil
}

// VerifySignatures checks every signature against the message bytes.
func (tx *Transaction) VerifySignatures() error {
	payload := tx.Message.Serialize()
	signers := tx.Message.Signers()
	if len(tx.Signatures) != len(signers) {
		return fmt.Errorf("have %d signatures, need %d", len(tx.Signatures), len(signers))
	}
	for i, pk := range signers {
		if !tx.Signatures[i].Verify(pk, payload) {
			return fmt.Errorf("invalid signature for %s", pk)
		}
	}
	return nil
}

// Signature returns the first signature, which identifies the transaction.
func (tx *Transaction) Signature() Signature {
	if len(tx.Signatures) == 0 {
		return Signature{}
	}
	return tx.Signatures[0]
}

// Serialize encodes the signed transaction in wire format.
func (tx *Transaction) Serialize() []byte {
	b := AppendCompactU16(nil, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		b = append(b, sig[:]...)
	}
	return append(b, tx.Message.Serialize()...)
}

// Base64 returns the base64 wire encoding accepted by sendTransaction.
func (tx *Transaction) Base64() string {
	return base64.StdEncoding.EncodeToString(tx.Serialize())
}

// AppendCompactU16 appends n in the shortvec encoding used for array lengths.
func AppendCompactU16(b []byte, n int) []byte {
	v := uint16(n)
	for {
		elem := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(b, elem)
		}
		b = append(b, elem|0x80)
	}
}

// ReadCompactU16 decodes a shortvec length, returning the value and bytes consumed.
func ReadCompactU16(b []byte) (int, int, error) {
	var v int
	for i := 0; i < 3; i++ {
		if i >= len(b) {
			return 0, 0, errors.New("compact-u16: unexpected end of input")
		}
		elem := int(b[i])
		v |= (elem & 0x7f) << (7 * i)
		if elem&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, errors.New("compact-u16: value too long")
}
