package domain

// TokenRole distinguishes the collection token from collection items.
type TokenRole string

const (
	RoleCollection TokenRole = "COLLECTION"
	RoleItem       TokenRole = "ITEM"
)

// Stage is how far a token has progressed through the pipeline.
type Stage string

const (
	// StageMinted: the token exists with metadata and a master edition.
	StageMinted Stage = "MINTED"
	// StageLinked: the token references the collection, unverified.
	StageLinked Stage = "LINKED"
	// StageVerified: the collection reference is verified.
	StageVerified Stage = "VERIFIED"
	// StageFailed: a step failed; the event carries the error.
	StageFailed Stage = "FAILED"
)

// MintedToken is the result of minting one descriptor.
type MintedToken struct {
	Role        TokenRole
	Index       int    // CollectionIndex for the collection token
	Source      string // descriptor path
	Name        string
	Mint        string // token address (base58)
	ImageURI    string
	MetadataURI string
	Signature   string // mint transaction signature
}

// ItemResult is the collection linking outcome for one item.
type ItemResult struct {
	Token           MintedToken
	Stage           Stage  // last stage reached
	LinkSignature   string // set once Stage >= StageLinked
	VerifySignature string // set once Stage == StageVerified
	Err             error  // error that stopped this item, if any
}

// LinkReport lists item results in processing order. Items after a failure
// are absent since they were never attempted.
type LinkReport struct {
	CollectionMint string
	Items          []ItemResult
}

// Verified returns the number of items whose collection is verified.
func (r *LinkReport) Verified() int {
	n := 0
	for _, item := range r.Items {
		if item.Stage == StageVerified {
			n++
		}
	}
	return n
}
