package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-nft-mint/internal/solana"
	"solana-nft-mint/internal/solana/stub"
)

func TestFileSource(t *testing.T) {
	kp, err := solana.NewKeypair()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, kp.JSON(), 0o600))

	loaded, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), loaded.PublicKey())

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.Load(context.Background())
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestEnvSource_GeneratesAndReuses(t *testing.T) {
	t.Setenv(EnvKey, "")
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("OTHER=keep\n"), 0o600))

	src := EnvSource{EnvFile: envFile, Generate: true}
	first, err := src.Load(context.Background())
	require.NoError(t, err)

	env, err := godotenv.Read(envFile)
	require.NoError(t, err)
	assert.Equal(t, "keep", env["OTHER"], "existing entries must survive")
	assert.NotEmpty(t, env[EnvKey])

	second, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.PublicKey(), second.PublicKey(), "second run must reuse the stored key")
}

func TestEnvSource_AppendsToExistingFile(t *testing.T) {
	t.Setenv(EnvKey, "")
	envFile := filepath.Join(t.TempDir(), ".env")
	original := "# wallet settings\nZED='single quoted'\nALPHA=1"
	require.NoError(t, os.WriteFile(envFile, []byte(original), 0o600))

	kp, err := EnvSource{EnvFile: envFile, Generate: true}.Load(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(envFile)
	require.NoError(t, err)
	content := string(raw)
	assert.True(t, strings.HasPrefix(content, original+"\n"), "existing lines must be kept verbatim, got %q", content)

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[3], EnvKey+"="), "key must be the last line, got %q", lines[3])

	env, err := godotenv.Read(envFile)
	require.NoError(t, err)
	stored, err := solana.KeypairFromJSON([]byte(env[EnvKey]))
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), stored.PublicKey())
}

func TestEnvSource_ProcessEnvWins(t *testing.T) {
	kp, err := solana.NewKeypair()
	require.NoError(t, err)
	t.Setenv(EnvKey, string(kp.JSON()))

	loaded, err := EnvSource{EnvFile: filepath.Join(t.TempDir(), ".env")}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), loaded.PublicKey())
}

func TestEnvSource_MissingWithoutGenerate(t *testing.T) {
	t.Setenv(EnvKey, "")
	envFile := filepath.Join(t.TempDir(), ".env")

	_, err := EnvSource{EnvFile: envFile}.Load(context.Background())
	assert.ErrorIs(t, err, ErrKeyNotFound)
	_, statErr := os.Stat(envFile)
	assert.True(t, os.IsNotExist(statErr), "no file may be written without Generate")
}

func TestEnvSource_Malformed(t *testing.T) {
	t.Setenv(EnvKey, "[1,2,3]")
	_, err := EnvSource{}.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvKey)
}

// mockSecrets implements SecretsAPI for testing.
type mockSecrets struct {
	getSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func (m *mockSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return m.getSecretValueFunc(ctx, params, optFns...)
}

func TestSecretSource(t *testing.T) {
	kp, err := solana.NewKeypair()
	require.NoError(t, err)

	tests := []struct {
		name    string
		fn      func(*secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error)
		wantErr error
	}{
		{
			name: "string secret",
			fn: func(in *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
				assert.Equal(t, "nft/authority", *in.SecretId)
				return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(string(kp.JSON()))}, nil
			},
		},
		{
			name: "binary secret",
			fn: func(*secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
				return &secretsmanager.GetSecretValueOutput{SecretBinary: kp.JSON()}, nil
			},
		},
		{
			name: "not found",
			fn: func(*secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
				return nil, &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "no such secret"}
			},
			wantErr: ErrKeyNotFound,
		},
		{
			name: "empty",
			fn: func(*secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
				return &secretsmanager.GetSecretValueOutput{}, nil
			},
			wantErr: ErrKeyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &SecretSource{
				SecretID: "nft/authority",
				Client: &mockSecrets{getSecretValueFunc: func(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
					return tt.fn(in)
				}},
			}
			loaded, err := src.Load(context.Background())
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, kp.PublicKey(), loaded.PublicKey())
		})
	}
}

func TestEnsureFunds(t *testing.T) {
	owner := solana.PublicKey{1}

	tests := []struct {
		name        string
		cluster     solana.Cluster
		balance     uint64
		wantAirdrop bool
		wantBalance uint64
	}{
		{"funded", solana.Devnet, 2 * solana.LamportsPerSOL, false, 2 * solana.LamportsPerSOL},
		{"low on devnet", solana.Devnet, 1000, true, 1000 + solana.LamportsPerSOL},
		{"low on mainnet", solana.MainnetBeta, 1000, false, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rpc := stub.NewRPCClient()
			rpc.Balances[owner] = tt.balance

			checker := &FundsChecker{
				RPC:       rpc,
				Confirmer: solana.NewConfirmer(rpc, solana.WithPollInterval(time.Millisecond)),
				Cluster:   tt.cluster,
			}
			balance, err := checker.EnsureFunds(context.Background(), owner)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBalance, balance)
			assert.Equal(t, tt.wantAirdrop, len(rpc.Airdrops) == 1)
		})
	}
}

func TestLamportsToSOL(t *testing.T) {
	assert.InDelta(t, 1.5, LamportsToSOL(1_500_000_000), 1e-9)
}
