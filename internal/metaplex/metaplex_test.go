package metaplex

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/near/borsh-go"

	"solana-nft-mint/internal/solana"
)

var wrappedSOL = solana.MustPublicKey("So11111111111111111111111111111111111111112")

func TestAddresses(t *testing.T) {
	md, err := MetadataAddress(wrappedSOL)
	if err != nil {
		t.Fatalf("MetadataAddress: %v", err)
	}
	if md.String() != "6dM4TqWyWJsbx7obrdLcviBkTafD5E8av61zfU6jq57X" {
		t.Errorf("unexpected metadata address %s", md)
	}

	ed, err := MasterEditionAddress(wrappedSOL)
	if err != nil {
		t.Fatalf("MasterEditionAddress: %v", err)
	}
	if ed.String() != "7r1W5yu5i7ev1wPNGsNuRLcdKW1sCy2x4rwyQkdi9ew2" {
		t.Errorf("unexpected edition address %s", ed)
	}
}

// borshString mirrors the u32 length prefixed string encoding.
func borshString(s string) []byte {
	b := binary.LittleEndian.AppendUint32(nil, uint32(len(s)))
	return append(b, s...)
}

func TestCreateMetadataAccountV3_Encoding(t *testing.T) {
	creator := solana.PublicKey{9}
	creators := []Creator{{Address: creator, Verified: true, Share: 100}}

	ix, err := CreateMetadataAccountV3(CreateMetadataAccountV3Accounts{
		Metadata:        solana.PublicKey{1},
		Mint:            solana.PublicKey{2},
		MintAuthority:   creator,
		Payer:           creator,
		UpdateAuthority: creator,
	}, DataV2{
		Name:                 "Bull #0",
		Symbol:               "BULL",
		URI:                  "https://x/0.json",
		SellerFeeBasisPoints: 500,
		Creators:             &creators,
	}, true)
	if err != nil {
		t.Fatalf("CreateMetadataAccountV3: %v", err)
	}

	var want []byte
	want = append(want, 33)
	want = append(want, borshString("Bull #0")...)
	want = append(want, borshString("BULL")...)
	want = append(want, borshString("https://x/0.json")...)
	want = binary.LittleEndian.AppendUint16(want, 500)
	want = append(want, 1)                           // creators: Some
	want = binary.LittleEndian.AppendUint32(want, 1) // one creator
	want = append(want, creator[:]...)               // address
	want = append(want, 1, 100)                      // verified, share
	want = append(want, 0, 0)                        // collection, uses: None
	want = append(want, 1)                           // is_mutable
	want = append(want, 0)                           // collection_details: None

	if !bytes.Equal(ix.Data, want) {
		t.Errorf("data mismatch\n got %x\nwant %x", ix.Data, want)
	}
	if ix.ProgramID != ProgramID {
		t.Error("wrong program")
	}
	if len(ix.Accounts) != 6 || !ix.Accounts[0].IsWritable || ix.Accounts[1].IsWritable {
		t.Errorf("unexpected accounts %+v", ix.Accounts)
	}
}

func TestValidateData(t *testing.T) {
	tests := []struct {
		name    string
		data    DataV2
		wantErr bool
	}{
		{"ok", DataV2{Name: "a", Symbol: "B", URI: "u", SellerFeeBasisPoints: 10000}, false},
		{"long name", DataV2{Name: strings.Repeat("n", 33)}, true},
		{"long symbol", DataV2{Name: "a", Symbol: strings.Repeat("s", 11)}, true},
		{"long uri", DataV2{Name: "a", URI: strings.Repeat("u", 201)}, true},
		{"fee", DataV2{Name: "a", SellerFeeBasisPoints: 10001}, true},
		{"shares", DataV2{Name: "a", Creators: &[]Creator{{Share: 50}}}, true},
		{"creators", DataV2{Name: "a", Creators: &[]Creator{{Share: 20}, {Share: 20}, {Share: 20}, {Share: 20}, {Share: 10}, {Share: 10}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateData(tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateData() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMasterEditionV3_Encoding(t *testing.T) {
	zero := uint64(0)
	ix, err := CreateMasterEditionV3(CreateMasterEditionV3Accounts{}, &zero)
	if err != nil {
		t.Fatalf("CreateMasterEditionV3: %v", err)
	}
	want := []byte{17, 1, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(ix.Data, want) {
		t.Errorf("data = %v, want %v", ix.Data, want)
	}
	if len(ix.Accounts) != 8 {
		t.Errorf("expected 8 accounts, got %d", len(ix.Accounts))
	}
}

func TestUpdateMetadataAccountV2_Encoding(t *testing.T) {
	collection := solana.PublicKey{7}
	data := DataV2{
		Name:       "Bull #1",
		Symbol:     "BULL",
		URI:        "https://x/1.json",
		Collection: &Collection{Verified: false, Key: collection},
	}

	ix, err := UpdateMetadataAccountV2(solana.PublicKey{1}, solana.PublicKey{2}, &data, nil, nil, nil)
	if err != nil {
		t.Fatalf("UpdateMetadataAccountV2: %v", err)
	}

	var want []byte
	want = append(want, 15, 1) // instruction, data: Some
	want = append(want, borshString("Bull #1")...)
	want = append(want, borshString("BULL")...)
	want = append(want, borshString("https://x/1.json")...)
	want = binary.LittleEndian.AppendUint16(want, 0)
	want = append(want, 0)                // creators: None
	want = append(want, 1, 0)             // collection: Some, unverified
	want = append(want, collection[:]...) // collection key
	want = append(want, 0)                // uses: None
	want = append(want, 0, 0, 0)          // update_authority, primary_sale_happened, is_mutable: None

	if !bytes.Equal(ix.Data, want) {
		t.Errorf("data mismatch\n got %x\nwant %x", ix.Data, want)
	}
	if !ix.Accounts[1].IsSigner {
		t.Error("update authority must sign")
	}
}

func TestVerifyCollection_Accounts(t *testing.T) {
	ix := VerifyCollection(VerifyCollectionAccounts{
		Metadata:                solana.PublicKey{1},
		CollectionAuthority:     solana.PublicKey{2},
		Payer:                   solana.PublicKey{2},
		CollectionMint:          solana.PublicKey{3},
		Collection:              solana.PublicKey{4},
		CollectionMasterEdition: solana.PublicKey{5},
	})
	if !bytes.Equal(ix.Data, []byte{18}) {
		t.Errorf("unexpected data %v", ix.Data)
	}
	if !ix.Accounts[0].IsWritable || !ix.Accounts[1].IsSigner {
		t.Error("metadata writable and authority signer expected")
	}
}

// encodeMetadata builds account data the way the program lays it out,
// including fixed-width NUL padded strings and trailing slack.
func encodeMetadata(t *testing.T, m *Metadata) []byte {
	t.Helper()
	head := struct {
		Key                 uint8
		UpdateAuthority     solana.PublicKey
		Mint                solana.PublicKey
		Data                Data
		PrimarySaleHappened bool
		IsMutable           bool
	}{
		Key:                 KeyMetadataV1,
		UpdateAuthority:     m.UpdateAuthority,
		Mint:                m.Mint,
		Data:                m.Data,
		PrimarySaleHappened: m.PrimarySaleHappened,
		IsMutable:           m.IsMutable,
	}
	head.Data.Name = pad(m.Data.Name, MaxNameLength)
	head.Data.Symbol = pad(m.Data.Symbol, MaxSymbolLength)
	head.Data.URI = pad(m.Data.URI, MaxURILength)

	b, err := borsh.Serialize(head)
	if err != nil {
		t.Fatalf("serialize head: %v", err)
	}
	tail := struct {
		EditionNonce  *uint8
		TokenStandard *borsh.Enum
		Collection    *Collection
		Uses          *Uses
	}{m.EditionNonce, m.TokenStandard, m.Collection, m.Uses}
	tb, err := borsh.Serialize(tail)
	if err != nil {
		t.Fatalf("serialize tail: %v", err)
	}
	b = append(b, tb...)
	return append(b, make([]byte, 64)...)
}

func pad(s string, n int) string {
	return s + strings.Repeat("\x00", n-len(s))
}

func TestDecodeMetadata(t *testing.T) {
	nonce := uint8(254)
	standard := borsh.Enum(0)
	authority := solana.PublicKey{1}
	collection := solana.PublicKey{3}
	creators := []Creator{{Address: authority, Verified: true, Share: 100}}

	data := encodeMetadata(t, &Metadata{
		UpdateAuthority: authority,
		Mint:            solana.PublicKey{2},
		Data: Data{
			Name:                 "Bull #2",
			Symbol:               "BULL",
			URI:                  "https://x/2.json",
			SellerFeeBasisPoints: 250,
			Creators:             &creators,
		},
		IsMutable:     true,
		EditionNonce:  &nonce,
		TokenStandard: &standard,
		Collection:    &Collection{Verified: true, Key: collection},
	})

	m, err := DecodeMetadata(data)
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	if m.Data.Name != "Bull #2" || m.Data.Symbol != "BULL" || m.Data.URI != "https://x/2.json" {
		t.Errorf("padding not trimmed: %q %q %q", m.Data.Name, m.Data.Symbol, m.Data.URI)
	}
	if m.Data.SellerFeeBasisPoints != 250 || !m.IsMutable || m.UpdateAuthority != authority {
		t.Errorf("unexpected fields %+v", m)
	}
	if m.Data.Creators == nil || len(*m.Data.Creators) != 1 || (*m.Data.Creators)[0].Share != 100 {
		t.Errorf("unexpected creators %+v", m.Data.Creators)
	}
	if m.EditionNonce == nil || *m.EditionNonce != 254 {
		t.Errorf("unexpected edition nonce %v", m.EditionNonce)
	}
	if m.Collection == nil || m.Collection.Key != collection || !m.Collection.Verified {
		t.Errorf("unexpected collection %+v", m.Collection)
	}
	if m.Uses != nil {
		t.Errorf("expected no uses, got %+v", m.Uses)
	}

	update := m.DataV2()
	if update.Collection != m.Collection || update.Name != "Bull #2" {
		t.Error("DataV2 must carry stored fields")
	}
}

func TestDecodeMetadata_WrongKey(t *testing.T) {
	if _, err := DecodeMetadata([]byte{6, 0, 0}); err != ErrNotMetadata {
		t.Errorf("expected ErrNotMetadata, got %v", err)
	}
	if _, err := DecodeMetadata(nil); err != ErrNotMetadata {
		t.Errorf("expected ErrNotMetadata for empty data, got %v", err)
	}
}

func TestDecodeMetadata_NoneStaysNil(t *testing.T) {
	data := encodeMetadata(t, &Metadata{
		UpdateAuthority: solana.PublicKey{1},
		Mint:            solana.PublicKey{2},
		Data:            Data{Name: "Bull #5", Symbol: "BULL", URI: "https://x/5.json", SellerFeeBasisPoints: 100},
	})

	m, err := DecodeMetadata(data)
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	if m.Data.Creators != nil {
		t.Errorf("expected nil creators, got %+v", *m.Data.Creators)
	}
	if m.EditionNonce != nil || m.TokenStandard != nil || m.Collection != nil || m.Uses != nil {
		t.Errorf("expected nil optional fields, got %+v", m)
	}
}

func TestDecodeMetadata_Uses(t *testing.T) {
	uses := &Uses{UseMethod: borsh.Enum(2), Remaining: 3, Total: 10}
	data := encodeMetadata(t, &Metadata{
		Mint: solana.PublicKey{2},
		Data: Data{Name: "Bull #6"},
		Uses: uses,
	})

	m, err := DecodeMetadata(data)
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	if m.Uses == nil || *m.Uses != *uses {
		t.Errorf("unexpected uses %+v", m.Uses)
	}
}

// An update built from decoded metadata must carry the stored payload
// unchanged apart from the new collection.
func TestDecodeMetadata_UpdatePreservesData(t *testing.T) {
	authority := solana.PublicKey{1}
	collection := solana.PublicKey{3}
	creators := []Creator{
		{Address: authority, Verified: true, Share: 60},
		{Address: solana.PublicKey{4}, Verified: false, Share: 40},
	}
	stored := Data{
		Name:                 "Bull #2",
		Symbol:               "BULL",
		URI:                  "https://x/2.json",
		SellerFeeBasisPoints: 250,
		Creators:             &creators,
	}

	m, err := DecodeMetadata(encodeMetadata(t, &Metadata{
		UpdateAuthority: authority,
		Mint:            solana.PublicKey{2},
		Data:            stored,
		IsMutable:       true,
	}))
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}

	update := m.DataV2()
	update.Collection = &Collection{Key: collection}
	got, err := UpdateMetadataAccountV2(solana.PublicKey{5}, authority, &update, nil, nil, nil)
	if err != nil {
		t.Fatalf("UpdateMetadataAccountV2: %v", err)
	}

	expected := DataV2{
		Name:                 stored.Name,
		Symbol:               stored.Symbol,
		URI:                  stored.URI,
		SellerFeeBasisPoints: stored.SellerFeeBasisPoints,
		Creators:             &creators,
		Collection:           &Collection{Key: collection},
	}
	want, err := UpdateMetadataAccountV2(solana.PublicKey{5}, authority, &expected, nil, nil, nil)
	if err != nil {
		t.Fatalf("UpdateMetadataAccountV2: %v", err)
	}
	if !bytes.Equal(got.Data, want.Data) {
		t.Errorf("update payload mismatch\n got %x\nwant %x", got.Data, want.Data)
	}
}

func TestDecodeMetadata_OlderAccount(t *testing.T) {
	full := encodeMetadata(t, &Metadata{
		Mint: solana.PublicKey{2},
		Data: Data{Name: "Bull #7", Symbol: "BULL", URI: "https://x/7.json"},
	})
	// key, two keys, three padded strings with length prefixes, fee, creators tag, two bools
	headLen := 1 + 32 + 32 + (4 + MaxNameLength) + (4 + MaxSymbolLength) + (4 + MaxURILength) + 2 + 1 + 2

	m, err := DecodeMetadata(full[:headLen])
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	if m.Data.Name != "Bull #7" || m.EditionNonce != nil || m.Collection != nil {
		t.Errorf("unexpected metadata %+v", m)
	}
}

func TestDecodeMetadata_Truncated(t *testing.T) {
	full := encodeMetadata(t, &Metadata{
		Mint: solana.PublicKey{2},
		Data: Data{Name: "Bull #8"},
	})
	if _, err := DecodeMetadata(full[:40]); err == nil {
		t.Error("expected error for truncated account")
	}
}

func TestDecodeMetadata_InvalidOptionTag(t *testing.T) {
	data := encodeMetadata(t, &Metadata{Data: Data{Name: "Bull #9"}})
	creatorsTag := 1 + 32 + 32 + (4 + MaxNameLength) + (4 + MaxSymbolLength) + (4 + MaxURILength) + 2
	data[creatorsTag] = 7
	if _, err := DecodeMetadata(data); err == nil {
		t.Error("expected error for invalid option tag")
	}
}
