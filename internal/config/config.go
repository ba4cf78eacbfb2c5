// Package config loads the assetlockd configuration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config represents the complete assetlockd configuration
type Config struct {
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Journal  JournalConfig  `toml:"journal" mapstructure:"journal"`
	Escrow   EscrowConfig   `toml:"escrow" mapstructure:"escrow"`
	AMM      AMMConfig      `toml:"amm" mapstructure:"amm"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig represents the [server] section
type ServerConfig struct {
	Bind       string        `toml:"bind" mapstructure:"bind"`
	Port       int           `toml:"port" mapstructure:"port"`
	RPCTimeout time.Duration `toml:"rpc_timeout" mapstructure:"rpc_timeout"`
	// Admin lists client IPs allowed to call admin methods such as fund.
	Admin []string `toml:"admin" mapstructure:"admin"`
	// TrustedProxies lists peers whose X-Forwarded-For header is believed.
	TrustedProxies []string `toml:"trusted_proxies" mapstructure:"trusted_proxies"`
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Bind, strconv.Itoa(s.Port))
}

// URL returns the base URL a local client reaches the server at.
func (s ServerConfig) URL() string {
	host := s.Bind
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.Port))
}

// DatabaseConfig represents the [database] section: the key-value store
// holding requests, balances and pools.
type DatabaseConfig struct {
	Backend   string `toml:"backend" mapstructure:"backend"`
	Path      string `toml:"path" mapstructure:"path"`
	Name      string `toml:"name" mapstructure:"name"`
	CacheSize int    `toml:"cache_size" mapstructure:"cache_size"`
}

// JournalConfig represents the [journal] section: the relational event
// history.
type JournalConfig struct {
	Enabled      bool   `toml:"enabled" mapstructure:"enabled"`
	Driver       string `toml:"driver" mapstructure:"driver"`
	DSN          string `toml:"dsn" mapstructure:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns" mapstructure:"max_open_conns"`
}

// EscrowConfig represents the [escrow] section
type EscrowConfig struct {
	WithdrawalWindow time.Duration `toml:"withdrawal_window" mapstructure:"withdrawal_window"`
	VaultSeed        string        `toml:"vault_seed" mapstructure:"vault_seed"`
}

// AMMConfig represents the [amm] section. Pools listed here are created
// at startup if the database does not hold them yet.
type AMMConfig struct {
	Pools []PoolConfig `toml:"pools" mapstructure:"pools"`
}

// PoolConfig is one [[amm.pools]] entry. Reserves are in base units; the
// native reserve is in drops.
type PoolConfig struct {
	Currency      string `toml:"currency" mapstructure:"currency"`
	Issuer        string `toml:"issuer" mapstructure:"issuer"`
	NativeReserve uint64 `toml:"native_reserve" mapstructure:"native_reserve"`
	TokenReserve  uint64 `toml:"token_reserve" mapstructure:"token_reserve"`
	TradingFee    uint16 `toml:"trading_fee" mapstructure:"trading_fee"`
}

// GetConfigPath returns the path the configuration was loaded from
func (c *Config) GetConfigPath() string {
	return c.configPath
}
