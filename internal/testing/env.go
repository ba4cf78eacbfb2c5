package testing

import (
	"context"
	"testing"
	"time"

	"github.com/LeJamon/goAssetLock/internal/core/amm"
	"github.com/LeJamon/goAssetLock/internal/core/bank"
	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/core/state"
	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/LeJamon/goAssetLock/internal/storage/database"
	"github.com/LeJamon/goAssetLock/internal/storage/database/memory"
)

const (
	// DefaultFunding is what Fund gives each account.
	DefaultFunding = 1000 // XRP

	// DefaultPoolNative and DefaultPoolTokens seed the USD pool. The
	// price is about 1000 USD base units per XRP.
	DefaultPoolNative = 100_000 // XRP
	DefaultPoolTokens = 100_000_000_000
)

// TestEnv manages a test escrow ledger: in-memory state, a bank, one
// constant-product pool for the gateway's USD and a manual clock.
type TestEnv struct {
	t        *testing.T
	ctx      context.Context
	db       database.DB
	base     *state.Base
	bank     *bank.Bank
	oracle   *amm.Oracle
	ledger   *escrow.Ledger
	clock    *ManualClock
	accounts map[string]*Account
	gateway  *Account
}

// NewTestEnv creates a test environment on an in-memory database.
func NewTestEnv(t *testing.T, opts ...escrow.Option) *TestEnv {
	t.Helper()
	return NewTestEnvWithDB(t, memory.NewDB(), opts...)
}

// NewTestEnvWithDB creates a test environment on db. Pools are created
// only if db does not already hold them.
func NewTestEnvWithDB(t *testing.T, db database.DB, opts ...escrow.Option) *TestEnv {
	t.Helper()

	base, err := state.NewBase(db, 0)
	if err != nil {
		t.Fatalf("Failed to create state base: %v", err)
	}

	env := &TestEnv{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		base:     base,
		bank:     bank.New(base),
		clock:    NewManualClock(),
		accounts: make(map[string]*Account),
	}
	env.oracle = amm.NewOracle(env.bank)
	env.gateway = env.Account("gateway")

	if _, err := amm.Bootstrap(env.ctx, base, env.bank, env.USD(), XRP(DefaultPoolNative), DefaultPoolTokens, 0); err != nil {
		t.Fatalf("Failed to create USD pool: %v", err)
	}

	env.ledger = escrow.New(base, env.bank, env.oracle, env.clock, opts...)
	return env
}

// Ledger returns the escrow ledger under test.
func (e *TestEnv) Ledger() *escrow.Ledger { return e.ledger }

// Bank returns the environment's bank.
func (e *TestEnv) Bank() *bank.Bank { return e.bank }

// Base returns the committed state.
func (e *TestEnv) Base() *state.Base { return e.base }

// DB returns the backing database.
func (e *TestEnv) DB() database.DB { return e.db }

// Oracle returns the AMM swap oracle.
func (e *TestEnv) Oracle() *amm.Oracle { return e.oracle }

// Clock returns the manual clock.
func (e *TestEnv) Clock() *ManualClock { return e.clock }

// Context returns the context used for env helpers.
func (e *TestEnv) Context() context.Context { return e.ctx }

// Account returns the named account, creating it on first use.
func (e *TestEnv) Account(name string) *Account {
	if acc, ok := e.accounts[name]; ok {
		return acc
	}
	acc := NewAccount(name)
	e.accounts[name] = acc
	return acc
}

// Gateway returns the issuer of the environment's tokens.
func (e *TestEnv) Gateway() *Account { return e.gateway }

// USD returns the gateway-issued USD token, which has a pool.
func (e *TestEnv) USD() types.Token {
	return IssuedToken(e.gateway, "USD")
}

// EUR returns the gateway-issued EUR token, which has no pool.
func (e *TestEnv) EUR() types.Token {
	return IssuedToken(e.gateway, "EUR")
}

// Fund gives each account DefaultFunding XRP.
func (e *TestEnv) Fund(accs ...*Account) {
	e.t.Helper()
	for _, acc := range accs {
		e.FundAmount(acc, types.Native, XRP(DefaultFunding))
	}
}

// FundAmount credits acc with amount of asset.
func (e *TestEnv) FundAmount(acc *Account, asset types.Token, amount types.Amount) {
	e.t.Helper()
	if err := e.bank.Fund(e.ctx, acc.ID, asset, amount); err != nil {
		e.t.Fatalf("Failed to fund %s: %v", acc.Name, err)
	}
}

// Balance returns acc's native balance in drops.
func (e *TestEnv) Balance(acc *Account) types.Amount {
	return e.TokenBalance(acc, types.Native)
}

// TokenBalance returns acc's balance of asset.
func (e *TestEnv) TokenBalance(acc *Account, asset types.Token) types.Amount {
	e.t.Helper()
	return e.balanceOf(acc.ID, asset)
}

// VaultBalance returns the escrow vault's balance of asset.
func (e *TestEnv) VaultBalance(asset types.Token) types.Amount {
	e.t.Helper()
	return e.balanceOf(e.ledger.Vault(), asset)
}

func (e *TestEnv) balanceOf(id types.AccountID, asset types.Token) types.Amount {
	e.t.Helper()
	bal, err := e.bank.Balance(e.ctx, id, asset)
	if err != nil {
		e.t.Fatalf("Failed to read balance: %v", err)
	}
	return bal
}

// Now returns the current test time.
func (e *TestEnv) Now() time.Time { return e.clock.Now() }

// LedgerTime returns the current ledger time.
func (e *TestEnv) LedgerTime() types.LedgerTime { return e.clock.LedgerTime() }

// AdvanceTime moves the clock forward.
func (e *TestEnv) AdvanceTime(d time.Duration) { e.clock.Advance(d) }

// SetTime sets the clock.
func (e *TestEnv) SetTime(t time.Time) { e.clock.Set(t) }

// Deposit locks value from creator for beneficiary into token.
func (e *TestEnv) Deposit(creator, beneficiary *Account, value types.Amount, token types.Token) (uint64, error) {
	return e.ledger.CreateDeposit(e.ctx, creator.Pay(value), token, beneficiary.ID)
}

// Swap runs InitiateSwap for creator's request nonce.
func (e *TestEnv) Swap(creator *Account, nonce uint64, minOut types.Amount) (types.Amount, error) {
	return e.ledger.InitiateSwap(e.ctx, creator.Call(), creator.ID, nonce, minOut)
}

// Withdraw runs Withdraw as caller on creator's request nonce.
func (e *TestEnv) Withdraw(caller, creator *Account, nonce uint64) (types.Amount, error) {
	return e.ledger.Withdraw(e.ctx, caller.Call(), creator.ID, nonce)
}

// Request returns the committed request or fails the test.
func (e *TestEnv) Request(creator *Account, nonce uint64) escrow.Request {
	e.t.Helper()
	req, err := e.ledger.RequestOf(e.ctx, creator.ID, nonce)
	if err != nil {
		e.t.Fatalf("Failed to read request %s #%d: %v", creator.Name, nonce, err)
	}
	return req
}
