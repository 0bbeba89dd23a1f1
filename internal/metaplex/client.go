package metaplex

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"solana-nft-mint/internal/programs"
	"solana-nft-mint/internal/solana"
)

// ErrMetadataNotFound is returned when a mint has no metadata account.
var ErrMetadataNotFound = errors.New("metadata account not found")

// NFTInput describes a master edition NFT to create.
type NFTInput struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	IsMutable            bool
}

// CreateOutput is the result of CreateNFT.
type CreateOutput struct {
	Mint          solana.PublicKey
	Metadata      solana.PublicKey
	MasterEdition solana.PublicKey
	TokenAccount  solana.PublicKey
	Signature     solana.Signature
}

// Client submits Token Metadata transactions signed by a single authority
// that acts as payer, mint authority, update authority and sole creator.
type Client struct {
	rpc        solana.RPCClient
	confirmer  solana.Confirmer
	authority  *solana.Keypair
	commitment solana.Commitment
	sendOpts   *solana.SendOpts
	newMint    func() (*solana.Keypair, error)
	logger     *zap.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCommitment sets the commitment used for reads and blockhashes.
func WithCommitment(commitment solana.Commitment) ClientOption {
	return func(c *Client) {
		c.commitment = commitment
	}
}

// WithSendOpts sets sendTransaction preflight options.
func WithSendOpts(opts *solana.SendOpts) ClientOption {
	return func(c *Client) {
		c.sendOpts = opts
	}
}

// WithMintGenerator overrides how new mint keypairs are created.
func WithMintGenerator(fn func() (*solana.Keypair, error)) ClientOption {
	return func(c *Client) {
		c.newMint = fn
	}
}

// NewClient creates a Token Metadata client.
func NewClient(rpc solana.RPCClient, confirmer solana.Confirmer, authority *solana.Keypair, opts ...ClientOption) *Client {
	c := &Client{
		rpc:        rpc,
		confirmer:  confirmer,
		authority:  authority,
		commitment: solana.CommitmentConfirmed,
		newMint:    solana.NewKeypair,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("metaplex")
	return c
}

// Authority returns the signing authority.
func (c *Client) Authority() solana.PublicKey {
	return c.authority.PublicKey()
}

// CreateNFT mints a one-of-one NFT in a single transaction: mint account,
// token account holding the single token, metadata and master edition.
func (c *Client) CreateNFT(ctx context.Context, in NFTInput) (*CreateOutput, error) {
	authority := c.authority.PublicKey()

	mint, err := c.newMint()
	if err != nil {
		return nil, err
	}
	out := &CreateOutput{Mint: mint.PublicKey()}

	if out.Metadata, err = MetadataAddress(out.Mint); err != nil {
		return nil, err
	}
	if out.MasterEdition, err = MasterEditionAddress(out.Mint); err != nil {
		return nil, err
	}
	if out.TokenAccount, err = programs.FindAssociatedTokenAddress(authority, out.Mint); err != nil {
		return nil, err
	}

	rent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, programs.MintAccountSize)
	if err != nil {
		return nil, fmt.Errorf("mint rent: %w", err)
	}

	creators := []Creator{{Address: authority, Verified: true, Share: 100}}
	data := DataV2{
		Name:                 in.Name,
		Symbol:               in.Symbol,
		URI:                  in.URI,
		SellerFeeBasisPoints: in.SellerFeeBasisPoints,
		Creators:             &creators,
	}

	createMint, err := programs.CreateAccount(authority, out.Mint, rent, programs.MintAccountSize, programs.TokenProgramID)
	if err != nil {
		return nil, err
	}
	initMint, err := programs.InitializeMint2(out.Mint, 0, authority, &authority)
	if err != nil {
		return nil, err
	}
	createATA, err := programs.CreateAssociatedTokenAccount(authority, authority, out.Mint)
	if err != nil {
		return nil, err
	}
	mintTo, err := programs.MintTo(out.Mint, out.TokenAccount, authority, 1)
	if err != nil {
		return nil, err
	}
	createMetadata, err := CreateMetadataAccountV3(CreateMetadataAccountV3Accounts{
		Metadata:        out.Metadata,
		Mint:            out.Mint,
		MintAuthority:   authority,
		Payer:           authority,
		UpdateAuthority: authority,
	}, data, in.IsMutable)
	if err != nil {
		return nil, err
	}
	maxSupply := uint64(0)
	createEdition, err := CreateMasterEditionV3(CreateMasterEditionV3Accounts{
		Edition:         out.MasterEdition,
		Mint:            out.Mint,
		UpdateAuthority: authority,
		MintAuthority:   authority,
		Payer:           authority,
		Metadata:        out.Metadata,
	}, &maxSupply)
	if err != nil {
		return nil, err
	}

	ixs := []solana.Instruction{createMint, initMint, createATA, mintTo, createMetadata, createEdition}
	sig, err := c.send(ctx, ixs, mint)
	if err != nil {
		return nil, fmt.Errorf("create nft %q: %w", in.Name, err)
	}
	out.Signature = sig

	c.logger.Debug("nft created",
		zap.Stringer("mint", out.Mint),
		zap.Stringer("signature", sig))
	return out, nil
}

// FindByMint fetches and decodes the metadata account of mint.
func (c *Client) FindByMint(ctx context.Context, mint solana.PublicKey) (*Metadata, error) {
	addr, err := MetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	info, err := c.rpc.GetAccountInfo(ctx, addr, c.commitment)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata %s: %w", addr, err)
	}
	if info == nil {
		return nil, fmt.Errorf("mint %s: %w", mint, ErrMetadataNotFound)
	}
	if info.Owner != ProgramID {
		return nil, fmt.Errorf("metadata %s owned by %s: %w", addr, info.Owner, ErrNotMetadata)
	}

	md, err := DecodeMetadata(info.Data)
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", addr, err)
	}
	md.Address = addr
	return md, nil
}

// SetCollection points nft at collectionMint as an unverified collection,
// keeping every other metadata field.
func (c *Client) SetCollection(ctx context.Context, nft *Metadata, collectionMint solana.PublicKey) (solana.Signature, error) {
	data := nft.DataV2()
	data.Collection = &Collection{Verified: false, Key: collectionMint}

	ix, err := UpdateMetadataAccountV2(nft.Address, c.authority.PublicKey(), &data, nil, nil, nil)
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err := c.send(ctx, []solana.Instruction{ix})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("set collection of %s: %w", nft.Mint, err)
	}
	return sig, nil
}

// VerifyCollection marks the collection reference of mint as verified.
func (c *Client) VerifyCollection(ctx context.Context, mint, collectionMint solana.PublicKey) (solana.Signature, error) {
	authority := c.authority.PublicKey()

	metadata, err := MetadataAddress(mint)
	if err != nil {
		return solana.Signature{}, err
	}
	collectionMetadata, err := MetadataAddress(collectionMint)
	if err != nil {
		return solana.Signature{}, err
	}
	collectionEdition, err := MasterEditionAddress(collectionMint)
	if err != nil {
		return solana.Signature{}, err
	}

	ix := VerifyCollection(VerifyCollectionAccounts{
		Metadata:                metadata,
		CollectionAuthority:     authority,
		Payer:                   authority,
		CollectionMint:          collectionMint,
		Collection:              collectionMetadata,
		CollectionMasterEdition: collectionEdition,
	})
	sig, err := c.send(ctx, []solana.Instruction{ix})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("verify collection of %s: %w", mint, err)
	}
	return sig, nil
}

// send signs with the authority plus extra signers, submits and waits for confirmation.
func (c *Client) send(ctx context.Context, ixs []solana.Instruction, extra ...*solana.Keypair) (solana.Signature, error) {
	bh, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("latest blockhash: %w", err)
	}

	msg, err := solana.NewMessage(c.authority.PublicKey(), ixs, bh.Blockhash)
	if err != nil {
		return solana.Signature{}, err
	}
	tx := solana.NewTransaction(msg)
	if err := tx.Sign(append([]*solana.Keypair{c.authority}, extra...)...); err != nil {
		return solana.Signature{}, err
	}
	if err := tx.VerifySignatures(); err != nil {
		return solana.Signature{}, err
	}

	sig, err := c.rpc.SendTransaction(ctx, tx, c.sendOpts)
	if err != nil {
		var rpcErr *solana.RPCError
		if errors.As(err, &rpcErr) {
			for _, line := range rpcErr.Logs() {
				c.logger.Debug("simulation log", zap.String("line", line))
			}
		}
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}

	if err := c.confirmer.Confirm(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}
