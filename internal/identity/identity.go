// Package identity loads the signing keypair that pays for and owns minted NFTs.
package identity

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"solana-nft-mint/internal/solana"
)

// EnvKey is the variable holding the keypair as a JSON byte array.
const EnvKey = "PRIVATE_KEY"

// ErrKeyNotFound is returned when a source holds no keypair.
var ErrKeyNotFound = errors.New("keypair not found")

// Source yields the signing keypair.
type Source interface {
	Load(ctx context.Context) (*solana.Keypair, error)
}

// FileSource reads a Solana CLI keypair file.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(_ context.Context) (*solana.Keypair, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("keypair file %s: %w", s.Path, ErrKeyNotFound)
		}
		return nil, fmt.Errorf("read keypair file: %w", err)
	}
	kp, err := solana.KeypairFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("keypair file %s: %w", s.Path, err)
	}
	return kp, nil
}

// EnvSource reads PRIVATE_KEY from the process environment, then from a
// dotenv file. With Generate set, a missing key is created and appended to
// the dotenv file so later runs reuse the same wallet.
type EnvSource struct {
	// EnvFile is the dotenv path. Defaults to ".env".
	EnvFile  string
	Generate bool
	Logger   *zap.Logger
}

// Load implements Source.
func (s EnvSource) Load(_ context.Context) (*solana.Keypair, error) {
	path := s.EnvFile
	if path == "" {
		path = ".env"
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if v := os.Getenv(EnvKey); v != "" {
		return parseEnvKey(v)
	}

	env, err := godotenv.Read(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if v := env[EnvKey]; v != "" {
		return parseEnvKey(v)
	}

	if !s.Generate {
		return nil, fmt.Errorf("%s not set in environment or %s: %w", EnvKey, path, ErrKeyNotFound)
	}

	kp, err := solana.NewKeypair()
	if err != nil {
		return nil, err
	}
	if err := appendEnv(path, EnvKey, string(kp.JSON())); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("generated new keypair",
		zap.Stringer("address", kp.PublicKey()),
		zap.String("env_file", path))
	return kp, nil
}

// appendEnv adds key=value as a new line at the end of the dotenv file,
// leaving existing lines untouched.
func appendEnv(path, key, value string) error {
	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return err
	}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		line = "\n" + line
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parseEnvKey(v string) (*solana.Keypair, error) {
	kp, err := solana.KeypairFromJSON([]byte(v))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvKey, err)
	}
	return kp, nil
}
