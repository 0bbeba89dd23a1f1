// Package reporting renders a recorded run as Markdown or CSV.
package reporting

import "time"

// Report is the exported view of one run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	Cluster     string
	Authority   string
	AssetDir    string
	StartedAt   int64 // Unix ms
	Events      int

	Summary Summary

	// Collection first, then items by index
	Tokens []TokenRow
}

// Summary counts tokens by last stage reached.
type Summary struct {
	Minted   int
	Linked   int
	Verified int
	Failed   int
}

// Total returns the number of tokens in the report.
func (s Summary) Total() int {
	return s.Minted + s.Linked + s.Verified + s.Failed
}

// TokenRow is the last known state of one token.
type TokenRow struct {
	Role        string
	Index       int // -1 for the collection
	Mint        string
	Stage       string
	Signature   string
	Error       string
	ExplorerURL string // empty when the token was never minted
}
