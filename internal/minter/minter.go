// Package minter turns local descriptors into on-chain NFTs: upload the
// image, upload the metadata document, then mint.
package minter

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"solana-nft-mint/internal/assets"
	"solana-nft-mint/internal/domain"
	"solana-nft-mint/internal/metaplex"
	"solana-nft-mint/internal/solana"
	"solana-nft-mint/internal/upload"
)

// TokenMinter creates NFTs on chain. Implemented by *metaplex.Client.
type TokenMinter interface {
	Authority() solana.PublicKey
	CreateNFT(ctx context.Context, in metaplex.NFTInput) (*metaplex.CreateOutput, error)
}

// Observer is notified of every mint outcome.
type Observer interface {
	Minted(ctx context.Context, tok *domain.MintedToken)
	MintFailed(ctx context.Context, role domain.TokenRole, index int, err error)
}

// Minter mints descriptors one at a time. It never retries: the first
// failing upload or transaction is returned to the caller.
type Minter struct {
	uploader upload.Uploader
	nfts     TokenMinter
	cluster  solana.Cluster
	observer Observer
	out      io.Writer
	logger   *zap.Logger
}

// Option configures Minter.
type Option func(*Minter)

// WithCluster sets the cluster used for explorer links.
func WithCluster(cluster solana.Cluster) Option {
	return func(m *Minter) {
		m.cluster = cluster
	}
}

// WithObserver sets the mint observer.
func WithObserver(o Observer) Option {
	return func(m *Minter) {
		m.observer = o
	}
}

// WithOutput sets where progress lines are printed.
func WithOutput(w io.Writer) Option {
	return func(m *Minter) {
		m.out = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Minter) {
		m.logger = logger
	}
}

// New creates a Minter.
func New(uploader upload.Uploader, nfts TokenMinter, opts ...Option) *Minter {
	m := &Minter{
		uploader: uploader,
		nfts:     nfts,
		cluster:  solana.Devnet,
		out:      io.Discard,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	m.logger = m.logger.Named("minter")
	return m
}

// MintDescriptor loads the descriptor at path, uploads its image and
// metadata document and mints the token.
func (m *Minter) MintDescriptor(ctx context.Context, path string) (*domain.MintedToken, error) {
	d, err := assets.LoadDescriptor(path)
	if err != nil {
		return nil, err
	}
	log := m.logger.With(zap.String("descriptor", filepath.Base(path)))

	imageURI, err := m.uploader.Upload(ctx, upload.File{Name: d.ImageName, Data: d.Image})
	if err != nil {
		return nil, fmt.Errorf("upload image %s: %w", d.ImageName, err)
	}
	log.Info("image uploaded", zap.String("uri", imageURI))

	metadataURI, err := m.uploader.UploadJSON(ctx, m.metadataDocument(d, imageURI))
	if err != nil {
		return nil, fmt.Errorf("upload metadata: %w", err)
	}
	log.Info("metadata uploaded", zap.String("uri", metadataURI))

	out, err := m.nfts.CreateNFT(ctx, metaplex.NFTInput{
		Name:                 d.Name,
		Symbol:               d.Symbol,
		URI:                  metadataURI,
		SellerFeeBasisPoints: d.SellerFeeBasisPoints,
		IsMutable:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("mint %s: %w", filepath.Base(path), err)
	}

	tok := &domain.MintedToken{
		Role:        domain.RoleItem,
		Index:       d.Index,
		Source:      path,
		Name:        d.Name,
		Mint:        out.Mint.String(),
		ImageURI:    imageURI,
		MetadataURI: metadataURI,
		Signature:   out.Signature.String(),
	}
	if d.IsCollection() {
		tok.Role = domain.RoleCollection
	}

	log.Info("token minted",
		zap.String("mint", tok.Mint),
		zap.String("signature", tok.Signature))
	fmt.Fprintf(m.out, "Signature Explorer: %s\n", m.cluster.TxURL(tok.Signature))
	return tok, nil
}

// MintCollection mints the collection token of the listing.
func (m *Minter) MintCollection(ctx context.Context, l *assets.Listing) (*domain.MintedToken, error) {
	fmt.Fprintf(m.out, "%d %s file found.\n\n", l.CollectionFiles, assets.CollectionFile)
	fmt.Fprintf(m.out, "Creating NFT from %s ...\n", assets.CollectionFile)

	tok, err := m.MintDescriptor(ctx, l.Collection)
	if err != nil {
		m.failed(ctx, domain.RoleCollection, domain.CollectionIndex, err)
		return nil, fmt.Errorf("mint collection: %w", err)
	}
	m.minted(ctx, tok)

	fmt.Fprintf(m.out, "Created Collection NFT Explorer: %s\n", m.cluster.AddressURL(tok.Mint))
	return tok, nil
}

// MintItems mints every item of the listing in index order. On failure it
// returns the tokens minted so far along with the error; later items are
// not attempted.
func (m *Minter) MintItems(ctx context.Context, l *assets.Listing) ([]domain.MintedToken, error) {
	total := l.ItemCount()
	fmt.Fprintf(m.out, "%d NFT JSON file(s) are found.\n\n", total)

	minted := make([]domain.MintedToken, 0, total)
	for i, path := range l.Items {
		if err := ctx.Err(); err != nil {
			return minted, err
		}

		fmt.Fprintf(m.out, "(%d/%d) Creating NFT from %s ...\n", i+1, total, filepath.Base(path))
		tok, err := m.MintDescriptor(ctx, path)
		if err != nil {
			m.failed(ctx, domain.RoleItem, i, err)
			return minted, fmt.Errorf("item %d/%d: %w", i+1, total, err)
		}
		m.minted(ctx, tok)
		minted = append(minted, *tok)

		fmt.Fprintf(m.out, "(%d/%d) Created NFT Explorer: %s\n\n", i+1, total, m.cluster.AddressURL(tok.Mint))
	}
	return minted, nil
}

// metadataDocument builds the off-chain JSON the token URI points to.
func (m *Minter) metadataDocument(d *domain.Descriptor, imageURI string) *metaplex.JSONMetadata {
	doc := &metaplex.JSONMetadata{
		Name:                 d.Name,
		Symbol:               d.Symbol,
		Description:          d.Description,
		SellerFeeBasisPoints: d.SellerFeeBasisPoints,
		Image:                imageURI,
		ExternalURL:          d.ExternalURL,
		Properties: &metaplex.Properties{
			Files:    []metaplex.File{{URI: imageURI, Type: mimetype.Detect(d.Image).String()}},
			Category: "image",
			Creators: []metaplex.CreatorShare{{Address: m.nfts.Authority().String(), Share: 100}},
		},
	}
	for _, a := range d.Attributes {
		doc.Attributes = append(doc.Attributes, metaplex.Attribute{TraitType: a.TraitType, Value: a.Value})
	}
	return doc
}

func (m *Minter) minted(ctx context.Context, tok *domain.MintedToken) {
	if m.observer != nil {
		m.observer.Minted(ctx, tok)
	}
}

func (m *Minter) failed(ctx context.Context, role domain.TokenRole, index int, err error) {
	m.logger.Error("mint failed", zap.String("role", string(role)), zap.Int("index", index), zap.Error(err))
	if m.observer != nil {
		m.observer.MintFailed(ctx, role, index, err)
	}
}
