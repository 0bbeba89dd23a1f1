package metaplex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/near/borsh-go"

	"solana-nft-mint/internal/solana"
)

// ErrNotMetadata is returned when account data is not a metadata account.
var ErrNotMetadata = errors.New("account is not token metadata")

// Encoded sizes of the fixed-width records.
const (
	creatorSize    = solana.PublicKeySize + 2
	collectionSize = 1 + solana.PublicKeySize
	usesSize       = 1 + 8 + 8
)

// accountReader walks borsh encoded account data. Option tags are read by
// hand so that None stays a nil pointer.
type accountReader struct {
	data []byte
	off  int
}

func (r *accountReader) next(n int, field string) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, fmt.Errorf("decode metadata: %s: need %d bytes at offset %d, have %d", field, n, r.off, len(r.data)-r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *accountReader) u8(field string) (uint8, error) {
	b, err := r.next(1, field)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *accountReader) boolean(field string) (bool, error) {
	v, err := r.u8(field)
	if err != nil {
		return false, err
	}
	if v > 1 {
		return false, fmt.Errorf("decode metadata: %s: invalid bool %d", field, v)
	}
	return v == 1, nil
}

func (r *accountReader) u16(field string) (uint16, error) {
	b, err := r.next(2, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *accountReader) u32(field string) (uint32, error) {
	b, err := r.next(4, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *accountReader) publicKey(field string) (solana.PublicKey, error) {
	var pk solana.PublicKey
	b, err := r.next(solana.PublicKeySize, field)
	if err != nil {
		return pk, err
	}
	copy(pk[:], b)
	return pk, nil
}

func (r *accountReader) str(field string) (string, error) {
	n, err := r.u32(field)
	if err != nil {
		return "", err
	}
	b, err := r.next(int(n), field)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\x00"), nil
}

// option reads an Option tag and reports whether a value follows.
func (r *accountReader) option(field string) (bool, error) {
	tag, err := r.u8(field)
	if err != nil {
		return false, err
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("decode metadata: %s: invalid option tag %d", field, tag)
	}
}

// record decodes a fixed-size borsh struct into v.
func (r *accountReader) record(v interface{}, size int, field string) error {
	b, err := r.next(size, field)
	if err != nil {
		return err
	}
	if err := borsh.Deserialize(v, b); err != nil {
		return fmt.Errorf("decode metadata: %s: %w", field, err)
	}
	return nil
}

// exhausted reports whether an optional trailing field is absent because the
// account was written by an older program version.
func (r *accountReader) exhausted() bool {
	return r.off >= len(r.data)
}

// DecodeMetadata decodes a metadata account, trimming NUL padding from strings.
// Fields added by later program versions are optional; accounts written by
// older versions decode with those fields nil.
func DecodeMetadata(data []byte) (*Metadata, error) {
	if len(data) == 0 || data[0] != KeyMetadataV1 {
		return nil, ErrNotMetadata
	}

	r := &accountReader{data: data, off: 1}
	m := &Metadata{Key: KeyMetadataV1}

	var err error
	if m.UpdateAuthority, err = r.publicKey("update_authority"); err != nil {
		return nil, err
	}
	if m.Mint, err = r.publicKey("mint"); err != nil {
		return nil, err
	}
	if m.Data, err = decodeData(r); err != nil {
		return nil, err
	}
	if m.PrimarySaleHappened, err = r.boolean("primary_sale_happened"); err != nil {
		return nil, err
	}
	if m.IsMutable, err = r.boolean("is_mutable"); err != nil {
		return nil, err
	}

	if err := decodeTail(r, m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeData(r *accountReader) (Data, error) {
	var d Data
	var err error
	if d.Name, err = r.str("name"); err != nil {
		return d, err
	}
	if d.Symbol, err = r.str("symbol"); err != nil {
		return d, err
	}
	if d.URI, err = r.str("uri"); err != nil {
		return d, err
	}
	if d.SellerFeeBasisPoints, err = r.u16("seller_fee_basis_points"); err != nil {
		return d, err
	}

	some, err := r.option("creators")
	if err != nil || !some {
		return d, err
	}
	n, err := r.u32("creators")
	if err != nil {
		return d, err
	}
	if int(n) > MaxCreatorLimit {
		return d, fmt.Errorf("decode metadata: creators: %d exceeds %d", n, MaxCreatorLimit)
	}
	creators := make([]Creator, n)
	for i := range creators {
		if err := r.record(&creators[i], creatorSize, "creator"); err != nil {
			return d, err
		}
	}
	d.Creators = &creators
	return d, nil
}

// decodeTail reads edition_nonce, token_standard, collection and uses.
// Running out of data before a tag leaves the remaining fields nil.
func decodeTail(r *accountReader, m *Metadata) error {
	if r.exhausted() {
		return nil
	}
	if some, err := r.option("edition_nonce"); err != nil {
		return err
	} else if some {
		v, err := r.u8("edition_nonce")
		if err != nil {
			return err
		}
		m.EditionNonce = &v
	}

	if r.exhausted() {
		return nil
	}
	if some, err := r.option("token_standard"); err != nil {
		return err
	} else if some {
		v, err := r.u8("token_standard")
		if err != nil {
			return err
		}
		standard := borsh.Enum(v)
		m.TokenStandard = &standard
	}

	if r.exhausted() {
		return nil
	}
	if some, err := r.option("collection"); err != nil {
		return err
	} else if some {
		var c Collection
		if err := r.record(&c, collectionSize, "collection"); err != nil {
			return err
		}
		m.Collection = &c
	}

	if r.exhausted() {
		return nil
	}
	if some, err := r.option("uses"); err != nil {
		return err
	} else if some {
		b, err := r.next(usesSize, "uses")
		if err != nil {
			return err
		}
		m.Uses = &Uses{
			UseMethod: borsh.Enum(b[0]),
			Remaining: binary.LittleEndian.Uint64(b[1:9]),
			Total:     binary.LittleEndian.Uint64(b[9:17]),
		}
	}
	return nil
}
