package solana

import (
	"fmt"
	"net/url"
)

// Cluster names a Solana network.
type Cluster string

const (
	Devnet      Cluster = "devnet"
	Testnet     Cluster = "testnet"
	MainnetBeta Cluster = "mainnet-beta"
	Localnet    Cluster = "localnet"
)

// IsValid checks if the cluster is known.
func (c Cluster) IsValid() bool {
	switch c {
	case Devnet, Testnet, MainnetBeta, Localnet:
		return true
	}
	return false
}

// SupportsAirdrop reports whether the cluster runs a faucet.
func (c Cluster) SupportsAirdrop() bool {
	return c == Devnet || c == Testnet || c == Localnet
}

// RPCURL returns the public HTTP endpoint.
func (c Cluster) RPCURL() string {
	switch c {
	case MainnetBeta:
		return "https://api.mainnet-beta.solana.com"
	case Testnet:
		return "https://api.testnet.solana.com"
	case Localnet:
		return "http://127.0.0.1:8899"
	default:
		return "https://api.devnet.solana.com"
	}
}

// WSURL returns the public WebSocket endpoint.
func (c Cluster) WSURL() string {
	switch c {
	case MainnetBeta:
		return "wss://api.mainnet-beta.solana.com"
	case Testnet:
		return "wss://api.testnet.solana.com"
	case Localnet:
		return "ws://127.0.0.1:8900"
	default:
		return "wss://api.devnet.solana.com"
	}
}

const explorerBase = "https://explorer.solana.com"

func (c Cluster) explorerQuery() string {
	switch c {
	case MainnetBeta:
		return ""
	case Localnet:
		return "?cluster=custom&customUrl=" + url.QueryEscape(c.RPCURL())
	default:
		return "?cluster=" + string(c)
	}
}

// AddressURL returns the block explorer page for an account.
func (c Cluster) AddressURL(addr string) string {
	return fmt.Sprintf("%s/address/%s%s", explorerBase, addr, c.explorerQuery())
}

// TxURL returns the block explorer page for a transaction signature.
func (c Cluster) TxURL(sig string) string {
	return fmt.Sprintf("%s/tx/%s%s", explorerBase, sig, c.explorerQuery())
}
