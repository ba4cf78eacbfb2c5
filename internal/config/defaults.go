package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values
const (
	DefaultPort             = 5005
	DefaultRPCTimeout       = 30 * time.Second
	DefaultBackend          = "pebble"
	DefaultDatabasePath     = "./data"
	DefaultDatabaseName     = "assetlock"
	DefaultCacheSize        = 4096
	DefaultJournalDriver    = "sqlite"
	DefaultJournalDSN       = "./data/events.db"
	DefaultWithdrawalWindow = 2 * time.Hour
	DefaultVaultSeed        = "assetlock"
)

// setDefaults sets all default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.bind", "127.0.0.1")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.rpc_timeout", DefaultRPCTimeout)
	v.SetDefault("server.admin", []string{"127.0.0.1"})
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.backend", DefaultBackend)
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.name", DefaultDatabaseName)
	v.SetDefault("database.cache_size", DefaultCacheSize)

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.driver", DefaultJournalDriver)
	v.SetDefault("journal.dsn", DefaultJournalDSN)
	v.SetDefault("journal.max_open_conns", 10)

	v.SetDefault("escrow.withdrawal_window", DefaultWithdrawalWindow)
	v.SetDefault("escrow.vault_seed", DefaultVaultSeed)
}
