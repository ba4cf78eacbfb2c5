package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goAssetLock/internal/config"
	"github.com/LeJamon/goAssetLock/internal/core/amm"
	"github.com/LeJamon/goAssetLock/internal/core/bank"
	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/core/state"
	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/LeJamon/goAssetLock/internal/logging"
	"github.com/LeJamon/goAssetLock/internal/rpc"
	"github.com/LeJamon/goAssetLock/internal/storage"
	"github.com/LeJamon/goAssetLock/internal/storage/database"
	"github.com/LeJamon/goAssetLock/internal/storage/journal"
)

// node wires storage, the escrow ledger and the RPC server together.
type node struct {
	manager database.Manager
	journal *journal.Journal
	ledger  *escrow.Ledger
	rpc     *rpc.Server
	logger  logging.Logger
}

func newNode(ctx context.Context, cfg *config.Config, clock escrow.Clock, logger logging.Logger, version string) (_ *node, err error) {
	n := &node{logger: logger}
	defer func() {
		if err != nil {
			n.Close()
		}
	}()

	n.manager, err = storage.NewManager(cfg.Database.Backend, cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	db, err := n.manager.OpenDB(cfg.Database.Name)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	base, err := state.NewBase(db, cfg.Database.CacheSize)
	if err != nil {
		return nil, err
	}
	b := bank.New(base)

	for _, p := range cfg.AMM.Pools {
		token, err := p.Token()
		if err != nil {
			return nil, err
		}
		pool, err := amm.Bootstrap(ctx, base, b, token, types.Amount(p.NativeReserve), types.Amount(p.TokenReserve), p.TradingFee)
		if err != nil {
			return nil, fmt.Errorf("bootstrap pool %s: %w", token, err)
		}
		logger.Info("pool ready", "token", token, "account", pool.Account, "fee", pool.TradingFee)
	}

	opts := []escrow.Option{
		escrow.WithWithdrawalWindow(cfg.Escrow.WithdrawalWindow),
		escrow.WithVault(escrow.VaultAccount(cfg.Escrow.VaultSeed)),
		escrow.WithLogger(logger),
	}
	rpcOpts := []rpc.Option{
		rpc.WithTimeout(cfg.Server.RPCTimeout),
		rpc.WithLogger(logger),
		rpc.WithVersion(version),
		rpc.WithAdmin(cfg.Server.Admin...),
		rpc.WithTrustedProxies(cfg.Server.TrustedProxies...),
	}

	if cfg.Journal.Enabled {
		n.journal, err = journal.Open(ctx, journal.Config{
			Driver:       cfg.Journal.Driver,
			DSN:          cfg.Journal.DSN,
			MaxOpenConns: cfg.Journal.MaxOpenConns,
		}, journal.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		last, err := n.journal.LastSeq(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, escrow.WithEventSeq(last), escrow.WithSink(n.journal))
		rpcOpts = append(rpcOpts, rpc.WithEventStore(n.journal))
		logger.Info("event journal opened", "driver", cfg.Journal.Driver, "last_seq", last)
	}

	n.ledger = escrow.New(base, b, amm.NewOracle(b), clock, opts...)

	report, err := n.ledger.Audit(ctx)
	switch {
	case errors.Is(err, escrow.ErrConservation):
		logger.Error("startup audit found an imbalance", "err", err)
	case err != nil:
		return nil, err
	default:
		logger.Info("startup audit passed", "requests", report.Requests)
	}

	n.rpc = rpc.NewServer(n.ledger, rpcOpts...)
	return n, nil
}

// Close releases the node's resources.
func (n *node) Close() error {
	var errs []error
	if n.rpc != nil {
		n.rpc.Hub().Close()
	}
	if n.journal != nil {
		errs = append(errs, n.journal.Close())
	}
	if n.manager != nil {
		errs = append(errs, n.manager.Close())
	}
	return errors.Join(errs...)
}
