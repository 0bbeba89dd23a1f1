package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"solana-nft-mint/internal/identity"
)

func formatSOL(lamports uint64) string {
	return fmt.Sprintf("%.4f SOL", identity.LamportsToSOL(lamports))
}

// expandHome resolves a leading ~/ the way the Solana CLI config does.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
