package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/LeJamon/goAssetLock/internal/core/amm"
	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/LeJamon/goAssetLock/internal/storage"
	"github.com/LeJamon/goAssetLock/internal/storage/journal"
)

// ValidateConfig validates every section
func ValidateConfig(config *Config) error {
	if err := config.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := config.Database.Validate(); err != nil {
		return fmt.Errorf("database validation failed: %w", err)
	}
	if err := config.Journal.Validate(); err != nil {
		return fmt.Errorf("journal validation failed: %w", err)
	}
	if err := config.Escrow.Validate(); err != nil {
		return fmt.Errorf("escrow validation failed: %w", err)
	}
	if err := config.AMM.Validate(); err != nil {
		return fmt.Errorf("amm validation failed: %w", err)
	}
	return nil
}

// Validate performs validation on the server configuration
func (s *ServerConfig) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.RPCTimeout < 0 {
		return fmt.Errorf("rpc_timeout must be non-negative, got %s", s.RPCTimeout)
	}
	for _, ip := range s.Admin {
		if net.ParseIP(ip) == nil {
			return fmt.Errorf("invalid admin ip: %s", ip)
		}
	}
	for _, ip := range s.TrustedProxies {
		if net.ParseIP(ip) == nil {
			return fmt.Errorf("invalid trusted proxy ip: %s", ip)
		}
	}
	return nil
}

// Validate performs validation on the database configuration
func (d *DatabaseConfig) Validate() error {
	if !contains(storage.Backends, strings.ToLower(d.Backend)) {
		return fmt.Errorf("invalid backend: %s (valid options: %s)", d.Backend, strings.Join(storage.Backends, ", "))
	}
	if d.Path == "" && !strings.EqualFold(d.Backend, storage.BackendMemory) {
		return fmt.Errorf("database path is required")
	}
	if d.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if d.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", d.CacheSize)
	}
	return nil
}

// Validate performs validation on the journal configuration
func (j *JournalConfig) Validate() error {
	if !j.Enabled {
		return nil
	}
	switch j.Driver {
	case journal.DriverSQLite, journal.DriverPostgres:
	default:
		return fmt.Errorf("invalid journal driver: %s (valid options: sqlite, postgres)", j.Driver)
	}
	if j.DSN == "" {
		return fmt.Errorf("journal dsn is required")
	}
	if j.MaxOpenConns < 0 {
		return fmt.Errorf("max_open_conns must be non-negative, got %d", j.MaxOpenConns)
	}
	return nil
}

// Validate performs validation on the escrow configuration
func (e *EscrowConfig) Validate() error {
	if e.WithdrawalWindow <= 0 {
		return fmt.Errorf("withdrawal_window must be positive, got %s", e.WithdrawalWindow)
	}
	return nil
}

// Validate performs validation on the configured pools
func (a *AMMConfig) Validate() error {
	seen := make(map[types.Token]bool)
	for i, p := range a.Pools {
		token, err := p.Token()
		if err != nil {
			return fmt.Errorf("pool %d: %w", i, err)
		}
		if seen[token] {
			return fmt.Errorf("pool %d: duplicate pool for %s", i, token)
		}
		seen[token] = true

		if p.NativeReserve == 0 || p.TokenReserve == 0 {
			return fmt.Errorf("pool %d: reserves must be positive", i)
		}
		if p.TradingFee > amm.TradingFeeThreshold {
			return fmt.Errorf("pool %d: trading_fee %d above %d", i, p.TradingFee, amm.TradingFeeThreshold)
		}
	}
	return nil
}

// Token returns the pool's destination token.
func (p PoolConfig) Token() (types.Token, error) {
	issuer, err := types.ParseAccountID(p.Issuer)
	if err != nil {
		return types.Token{}, err
	}
	token := types.Token{Currency: p.Currency, Issuer: issuer}
	if err := token.Validate(); err != nil {
		return types.Token{}, err
	}
	return token, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
