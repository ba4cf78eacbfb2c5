package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genesisAddress = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assetlockd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", config.Server.Bind)
	assert.Equal(t, DefaultPort, config.Server.Port)
	assert.Equal(t, DefaultRPCTimeout, config.Server.RPCTimeout)
	assert.Equal(t, DefaultBackend, config.Database.Backend)
	assert.Equal(t, DefaultCacheSize, config.Database.CacheSize)
	assert.False(t, config.Journal.Enabled)
	assert.Equal(t, DefaultWithdrawalWindow, config.Escrow.WithdrawalWindow)
	assert.Empty(t, config.AMM.Pools)
	assert.Equal(t, "127.0.0.1:5005", config.Server.Address())
	assert.Equal(t, []string{"127.0.0.1"}, config.Server.Admin)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
[server]
bind = "0.0.0.0"
port = 6006
rpc_timeout = "5s"
admin = ["10.0.0.1", "10.0.0.2"]

[database]
backend = "bbolt"
path = "/tmp/assetlock"
cache_size = 128

[journal]
enabled = true
driver = "postgres"
dsn = "postgres://localhost/assetlock?sslmode=disable"

[escrow]
withdrawal_window = "30m"
vault_seed = "test-vault"

[[amm.pools]]
currency = "USD"
issuer = "`+genesisAddress+`"
native_reserve = 1000000000
token_reserve = 5000000
trading_fee = 300
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.GetConfigPath())

	assert.Equal(t, 6006, config.Server.Port)
	assert.Equal(t, 5*time.Second, config.Server.RPCTimeout)
	assert.Equal(t, "http://127.0.0.1:6006", config.Server.URL())
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, config.Server.Admin)

	assert.Equal(t, "bbolt", config.Database.Backend)
	assert.Equal(t, "/tmp/assetlock", config.Database.Path)
	assert.Equal(t, 128, config.Database.CacheSize)

	assert.True(t, config.Journal.Enabled)
	assert.Equal(t, "postgres", config.Journal.Driver)

	assert.Equal(t, 30*time.Minute, config.Escrow.WithdrawalWindow)
	assert.Equal(t, "test-vault", config.Escrow.VaultSeed)

	require.Len(t, config.AMM.Pools, 1)
	pool := config.AMM.Pools[0]
	assert.Equal(t, uint64(1000000000), pool.NativeReserve)
	assert.Equal(t, uint64(5000000), pool.TokenReserve)
	assert.Equal(t, uint16(300), pool.TradingFee)

	token, err := pool.Token()
	require.NoError(t, err)
	assert.Equal(t, types.Token{Currency: "USD", Issuer: types.MustParseAccountID(genesisAddress)}, token)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("ASSETLOCKD_SERVER_PORT", "7007")
	t.Setenv("ASSETLOCKD_ESCROW_WITHDRAWAL_WINDOW", "1h")
	t.Setenv("ASSETLOCKD_DATABASE_BACKEND", "memory")

	path := writeConfig(t, `
[server]
port = 6006
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7007, config.Server.Port)
	assert.Equal(t, time.Hour, config.Escrow.WithdrawalWindow)
	assert.Equal(t, "memory", config.Database.Backend)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"port", "[server]\nport = 70000\n", "port must be between"},
		{"admin", "[server]\nadmin = [\"localhost\"]\n", "invalid admin ip"},
		{"trusted proxy", "[server]\ntrusted_proxies = [\"proxy\"]\n", "invalid trusted proxy ip"},
		{"backend", "[database]\nbackend = \"rocksdb\"\n", "invalid backend"},
		{"journal driver", "[journal]\nenabled = true\ndriver = \"mysql\"\n", "invalid journal driver"},
		{"window", "[escrow]\nwithdrawal_window = \"0s\"\n", "withdrawal_window must be positive"},
		{"pool fee", "[[amm.pools]]\ncurrency = \"USD\"\nissuer = \"" + genesisAddress + "\"\nnative_reserve = 1\ntoken_reserve = 1\ntrading_fee = 1001\n", "above"},
		{"pool token", "[[amm.pools]]\ncurrency = \"XRP\"\nissuer = \"" + genesisAddress + "\"\nnative_reserve = 1\ntoken_reserve = 1\n", "invalid token"},
		{"pool reserves", "[[amm.pools]]\ncurrency = \"USD\"\nissuer = \"" + genesisAddress + "\"\nnative_reserve = 0\ntoken_reserve = 1\n", "reserves must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestJournalConfig_DisabledSkipsValidation(t *testing.T) {
	j := JournalConfig{Enabled: false, Driver: "mysql"}
	assert.NoError(t, j.Validate())
}

func TestSaveExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.toml")
	require.NoError(t, SaveExampleConfig(path))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, config.AMM.Pools, 1)
	assert.Equal(t, "USD", config.AMM.Pools[0].Currency)

	reloaded, err := ReloadConfig(config)
	require.NoError(t, err)
	assert.Equal(t, config.AMM.Pools, reloaded.AMM.Pools)
}
