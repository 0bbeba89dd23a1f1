package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/metaplex"
)

// MaxBasisPoints is 100% royalty.
const MaxBasisPoints = metaplex.MaxSellerFeeBasisPoint

var (
	// ErrMissingImage is returned when the image named by a descriptor cannot be read.
	ErrMissingImage = errors.New("descriptor image not found")

	// ErrInvalidDescriptor is returned when a descriptor fails validation.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// descriptorFile is the on-disk JSON shape of a descriptor.
type descriptorFile struct {
	Name                 string             `json:"name"`
	Symbol               string             `json:"symbol"`
	Description          string             `json:"description"`
	Image                string             `json:"image"`
	SellerFeeBasisPoints *int               `json:"seller_fee_basis_points"`
	Royalty              *float64           `json:"royalty"` // fraction in [0, 1]
	ExternalURL          string             `json:"external_url"`
	Attributes           []domain.Attribute `json:"attributes"`
}

// LoadDescriptor reads and validates a descriptor and loads its image,
// which is resolved relative to the descriptor's directory.
func LoadDescriptor(path string) (*domain.Descriptor, error) {
	index, err := DescriptorIndex(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	d, err := ParseDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	d.Path = path
	d.Index = index

	imagePath := filepath.Join(filepath.Dir(path), filepath.FromSlash(d.ImageName))
	d.Image, err = os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s: %v", filepath.Base(path), ErrMissingImage, d.ImageName, err)
	}
	if len(d.Image) == 0 {
		return nil, fmt.Errorf("%s: %w: %s is empty", filepath.Base(path), ErrMissingImage, d.ImageName)
	}

	return d, nil
}

// ParseDescriptor decodes descriptor JSON without touching the filesystem.
// Path, Index and Image are left for the caller.
func ParseDescriptor(data []byte) (*domain.Descriptor, error) {
	var f descriptorFile
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}

	d := &domain.Descriptor{
		Name:        strings.TrimSpace(f.Name),
		Symbol:      strings.TrimSpace(f.Symbol),
		Description: f.Description,
		ImageName:   strings.TrimSpace(f.Image),
		ExternalURL: f.ExternalURL,
		Attributes:  f.Attributes,
	}

	var missing []string
	if d.Name == "" {
		missing = append(missing, "name")
	}
	if d.Symbol == "" {
		missing = append(missing, "symbol")
	}
	if d.ImageName == "" {
		missing = append(missing, "image")
	}
	if f.SellerFeeBasisPoints == nil && f.Royalty == nil {
		missing = append(missing, "seller_fee_basis_points")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidDescriptor, strings.Join(missing, ", "))
	}

	if len(d.Name) > metaplex.MaxNameLength {
		return nil, fmt.Errorf("%w: name %q exceeds %d bytes", ErrInvalidDescriptor, d.Name, metaplex.MaxNameLength)
	}
	if len(d.Symbol) > metaplex.MaxSymbolLength {
		return nil, fmt.Errorf("%w: symbol %q exceeds %d bytes", ErrInvalidDescriptor, d.Symbol, metaplex.MaxSymbolLength)
	}
	if !filepath.IsLocal(filepath.FromSlash(d.ImageName)) {
		return nil, fmt.Errorf("%w: image %q must be a path inside the asset directory", ErrInvalidDescriptor, d.ImageName)
	}

	bps, err := basisPoints(f.SellerFeeBasisPoints, f.Royalty)
	if err != nil {
		return nil, err
	}
	d.SellerFeeBasisPoints = bps

	return d, nil
}

// basisPoints prefers seller_fee_basis_points and falls back to the
// royalty fraction.
func basisPoints(bps *int, royalty *float64) (uint16, error) {
	if bps != nil {
		if *bps < 0 || *bps > MaxBasisPoints {
			return 0, fmt.Errorf("%w: seller_fee_basis_points %d out of range 0..%d", ErrInvalidDescriptor, *bps, MaxBasisPoints)
		}
		return uint16(*bps), nil
	}
	if math.IsNaN(*royalty) || *royalty < 0 || *royalty > 1 {
		return 0, fmt.Errorf("%w: royalty %v out of range 0..1", ErrInvalidDescriptor, *royalty)
	}
	return uint16(math.Round(*royalty * MaxBasisPoints)), nil
}

// Check loads every descriptor of the listing, returning the first error.
// Nothing is uploaded, so a malformed item is caught before any token is minted.
func Check(l *Listing) error {
	paths := append([]string{l.Collection}, l.Items...)
	for _, path := range paths {
		if _, err := LoadDescriptor(path); err != nil {
			return err
		}
	}
	return nil
}
