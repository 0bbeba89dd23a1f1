package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(authority|cluster|asset_dir|started_at)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(authority, cluster, assetDir string, startedAt int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		authority,
		cluster,
		assetDir,
		startedAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ShortID returns the first 12 characters of an id for display.
func ShortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
