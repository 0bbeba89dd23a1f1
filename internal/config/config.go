// Package config loads the nftmint YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"solana-nft-mint/internal/solana"
)

// Keypair sources.
const (
	KeypairEnv    = "env"
	KeypairFile   = "file"
	KeypairSecret = "secret"
)

// Storage backends.
const (
	StorageS3     = "s3"
	StorageMemory = "memory"
)

// Ledger backends.
const (
	LedgerNone     = "none"
	LedgerMemory   = "memory"
	LedgerPostgres = "postgres"
)

// Environment overrides.
const (
	EnvRPCURL         = "SOLANA_RPC_URL"
	EnvWSURL          = "SOLANA_WS_URL"
	EnvCluster        = "SOLANA_CLUSTER"
	EnvPostgresDSN    = "NFTMINT_POSTGRES_DSN"
	EnvS3Bucket       = "NFTMINT_S3_BUCKET"
	EnvPushgatewayURL = "NFTMINT_PUSHGATEWAY_URL"
)

// Config is the complete nftmint configuration.
type Config struct {
	Cluster      string        `yaml:"cluster"`
	RPCURL       string        `yaml:"rpc_url"`
	WSURL        string        `yaml:"ws_url"`
	Commitment   string        `yaml:"commitment"`
	AssetDir     string        `yaml:"asset_dir"`
	RPCTimeout   time.Duration `yaml:"rpc_timeout"`
	RPCRetries   int           `yaml:"rpc_retries"`
	ConfirmAfter time.Duration `yaml:"confirm_timeout"`

	Keypair KeypairConfig `yaml:"keypair"`
	Storage StorageConfig `yaml:"storage"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Funds   FundsConfig   `yaml:"funds"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// KeypairConfig selects where the signing key comes from.
type KeypairConfig struct {
	Source   string `yaml:"source"`    // env | file | secret
	Path     string `yaml:"path"`      // keypair file for source=file
	EnvFile  string `yaml:"env_file"`  // dotenv file for source=env
	Generate bool   `yaml:"generate"`  // create a key when none is found (source=env)
	SecretID string `yaml:"secret_id"` // Secrets Manager id for source=secret
	Region   string `yaml:"region"`
}

// StorageConfig selects the upload backend.
type StorageConfig struct {
	Backend        string `yaml:"backend"` // s3 | memory
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	Prefix         string `yaml:"prefix"`
	PublicBaseURL  string `yaml:"public_base_url"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// LedgerConfig selects where run events are recorded.
type LedgerConfig struct {
	Backend     string `yaml:"backend"` // none | memory | postgres
	PostgresDSN string `yaml:"postgres_dsn"`
	Migrate     bool   `yaml:"migrate"`
	MaxConns    int32  `yaml:"max_conns"` // 0 uses the pool default
}

// FundsConfig controls the devnet airdrop top-up.
type FundsConfig struct {
	MinBalanceSOL float64 `yaml:"min_balance_sol"`
	AirdropSOL    float64 `yaml:"airdrop_sol"`
	Disabled      bool    `yaml:"disabled"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig configures the Pushgateway export.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		Cluster:      string(solana.Devnet),
		Commitment:   string(solana.CommitmentFinalized),
		AssetDir:     "./assets",
		RPCTimeout:   30 * time.Second,
		RPCRetries:   3,
		ConfirmAfter: 90 * time.Second,
		Keypair: KeypairConfig{
			Source:   KeypairEnv,
			EnvFile:  ".env",
			Generate: true,
		},
		Storage: StorageConfig{
			Backend: StorageS3,
			Prefix:  "nft",
		},
		Ledger: LedgerConfig{
			Backend: LedgerMemory,
			Migrate: true,
		},
		Funds: FundsConfig{
			MinBalanceSOL: 1,
			AirdropSOL:    1,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Metrics: MetricsConfig{
			Job: "nftmint",
		},
	}
}

// Load reads configuration from the specified file path. A missing file
// yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvCluster); v != "" {
		c.Cluster = v
	}
	if v := os.Getenv(EnvRPCURL); v != "" {
		c.RPCURL = v
	}
	if v := os.Getenv(EnvWSURL); v != "" {
		c.WSURL = v
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.Ledger.PostgresDSN = v
		c.Ledger.Backend = LedgerPostgres
	}
	if v := os.Getenv(EnvS3Bucket); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv(EnvPushgatewayURL); v != "" {
		c.Metrics.PushgatewayURL = v
	}
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	var problems []string

	if !solana.Cluster(c.Cluster).IsValid() {
		problems = append(problems, fmt.Sprintf("cluster %q must be one of devnet, testnet, mainnet-beta, localnet", c.Cluster))
	}
	if !solana.Commitment(c.Commitment).IsValid() {
		problems = append(problems, fmt.Sprintf("commitment %q must be processed, confirmed or finalized", c.Commitment))
	}
	if c.AssetDir == "" {
		problems = append(problems, "asset_dir is required")
	}
	if c.RPCRetries < 0 {
		problems = append(problems, "rpc_retries must be >= 0")
	}

	switch c.Keypair.Source {
	case KeypairEnv:
	case KeypairFile:
		if c.Keypair.Path == "" {
			problems = append(problems, "keypair.path is required for source=file")
		}
	case KeypairSecret:
		if c.Keypair.SecretID == "" {
			problems = append(problems, "keypair.secret_id is required for source=secret")
		}
	default:
		problems = append(problems, fmt.Sprintf("keypair.source %q must be env, file or secret", c.Keypair.Source))
	}

	switch c.Storage.Backend {
	case StorageMemory, StorageS3:
	default:
		problems = append(problems, fmt.Sprintf("storage.backend %q must be s3 or memory", c.Storage.Backend))
	}

	switch c.Ledger.Backend {
	case LedgerNone, LedgerMemory:
	case LedgerPostgres:
		if c.Ledger.PostgresDSN == "" {
			problems = append(problems, "ledger.postgres_dsn is required for backend=postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("ledger.backend %q must be none, memory or postgres", c.Ledger.Backend))
	}

	if c.Funds.MinBalanceSOL < 0 || c.Funds.AirdropSOL < 0 {
		problems = append(problems, "funds amounts must be >= 0")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateStorage checks the upload settings. Only commands that upload
// assets need them.
func (c *Config) ValidateStorage() error {
	if c.Storage.Backend == StorageS3 && c.Storage.Bucket == "" {
		return fmt.Errorf("invalid config: storage.bucket is required for backend=s3 (or set %s)", EnvS3Bucket)
	}
	return nil
}

// ClusterValue returns the configured cluster.
func (c *Config) ClusterValue() solana.Cluster {
	return solana.Cluster(c.Cluster)
}

// CommitmentValue returns the configured commitment.
func (c *Config) CommitmentValue() solana.Commitment {
	return solana.Commitment(c.Commitment)
}

// Endpoints returns the RPC and websocket URLs, falling back to the
// cluster's public endpoints.
func (c *Config) Endpoints() (rpcURL, wsURL string) {
	cluster := c.ClusterValue()
	rpcURL = c.RPCURL
	if rpcURL == "" {
		rpcURL = cluster.RPCURL()
	}
	wsURL = c.WSURL
	if wsURL == "" {
		if c.RPCURL != "" {
			wsURL = deriveWSURL(c.RPCURL)
		} else {
			wsURL = cluster.WSURL()
		}
	}
	return rpcURL, wsURL
}

// deriveWSURL maps an http(s) RPC URL to its ws(s) counterpart. A local
// validator serves websockets one port above RPC.
func deriveWSURL(rpcURL string) string {
	u, err := url.Parse(rpcURL)
	if err != nil {
		return rpcURL
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	host := u.Hostname()
	if port, err := strconv.Atoi(u.Port()); err == nil && (host == "localhost" || host == "127.0.0.1") {
		u.Host = net.JoinHostPort(host, strconv.Itoa(port+1))
	}
	return u.String()
}

// Lamports converts a SOL amount to lamports.
func Lamports(sol float64) uint64 {
	return uint64(sol * solana.LamportsPerSOL)
}
