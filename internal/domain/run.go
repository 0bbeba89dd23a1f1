package domain

// Run represents one invocation of the minting pipeline.
// Corresponds to mint_runs table in PostgreSQL.
type Run struct {
	RunID     string // PRIMARY KEY, deterministic hash
	Authority string // signing wallet address
	Cluster   string // devnet | testnet | mainnet-beta | localnet
	AssetDir  string // scanned directory
	StartedAt int64  // Unix timestamp in milliseconds
	CreatedAt int64  // record creation timestamp (ms)
}

// TokenEvent records one stage transition of a token within a run.
// Corresponds to token_events table in PostgreSQL.
type TokenEvent struct {
	RunID      string    // FK to mint_runs
	Seq        int       // position within the run, starts at 1
	Role       TokenRole // COLLECTION | ITEM
	Index      int       // descriptor index; CollectionIndex for the collection
	Mint       string    // token address; empty if minting failed
	Stage      Stage     // MINTED | LINKED | VERIFIED | FAILED
	Signature  string    // transaction signature of the step (nullable)
	Error      string    // failure message for FAILED events
	OccurredAt int64     // Unix timestamp in milliseconds
	CreatedAt  int64     // record creation timestamp (ms)
}
