// Package escrow implements the time-boxed asset-custody escrow: deposits
// of the native asset locked for a beneficiary, swapped into a destination
// token, then released to the beneficiary at any time or back to the
// creator once the withdrawal window has elapsed.
package escrow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LeJamon/goAssetLock/internal/core/bank"
	"github.com/LeJamon/goAssetLock/internal/core/ledger/keylet"
	"github.com/LeJamon/goAssetLock/internal/core/state"
	"github.com/LeJamon/goAssetLock/internal/core/types"
	crypto "github.com/LeJamon/goAssetLock/internal/crypto/common"
	"github.com/LeJamon/goAssetLock/internal/logging"
)

// DefaultWithdrawalWindow is how long after a swap the beneficiary has the
// proceeds to itself.
const DefaultWithdrawalWindow = 2 * time.Hour

// Clock supplies the current time. It must be monotonic.
type Clock interface {
	Now() time.Time
}

// SwapOracle converts native value held by payer into token. Both legs of
// the swap are applied to v. It must fail rather than return less than
// minOut.
type SwapOracle interface {
	Swap(v state.View, payer types.AccountID, amountIn, minOut types.Amount, token types.Token) (types.Amount, error)
}

// Call is the envelope of one ledger call.
type Call struct {
	Caller types.AccountID
	// Value is the native amount attached to the call. Only CreateDeposit
	// accepts one.
	Value types.Amount
	// Sequence, when non-zero, must equal the caller's next call sequence
	// and is consumed if the call succeeds.
	Sequence uint32
}

// VaultAccount derives the escrow's holding account from seed.
func VaultAccount(seed string) types.AccountID {
	h := crypto.Sha512Half([]byte("assetlock.vault"), []byte(seed))
	var id types.AccountID
	copy(id[:], h[:types.AccountIDSize])
	return id
}

// Ledger holds every request and enforces the custody state machine.
// Mutating calls are serialized; each runs on its own state table and
// commits all of its effects in one batch or none of them.
type Ledger struct {
	mu sync.RWMutex

	base   *state.Base
	bank   *bank.Bank
	oracle SwapOracle
	clock  Clock

	vault  types.AccountID
	window time.Duration
	logger logging.Logger

	events *eventLog
	sinkMu sync.RWMutex

	// pubMu is taken before mu is released, so sinks see events in commit
	// order without blocking the next call.
	pubMu sync.Mutex
	sinks  []Sink
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithWithdrawalWindow overrides DefaultWithdrawalWindow.
func WithWithdrawalWindow(d time.Duration) Option {
	return func(l *Ledger) {
		l.window = d
	}
}

// WithVault sets the holding account.
func WithVault(id types.AccountID) Option {
	return func(l *Ledger) {
		l.vault = id
	}
}

// WithLogger sets the logger for the ledger
func WithLogger(logger logging.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithSink registers an event sink.
func WithSink(s Sink) Option {
	return func(l *Ledger) {
		l.sinks = append(l.sinks, s)
	}
}

// WithEventSeq starts event numbering after seq, so a restarted node
// continues the sequence of a persisted journal.
func WithEventSeq(seq uint64) Option {
	return func(l *Ledger) {
		l.events.seq = seq
	}
}

// New creates a ledger over base.
func New(base *state.Base, b *bank.Bank, oracle SwapOracle, clock Clock, opts ...Option) *Ledger {
	l := &Ledger{
		base:   base,
		bank:   b,
		oracle: oracle,
		clock:  clock,
		vault:  VaultAccount(""),
		window: DefaultWithdrawalWindow,
		logger: logging.Nop{},
		events: &eventLog{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Vault returns the escrow's holding account.
func (l *Ledger) Vault() types.AccountID {
	return l.vault
}

// WithdrawalWindow returns the configured window.
func (l *Ledger) WithdrawalWindow() time.Duration {
	return l.window
}

// AddSink registers an event sink on a running ledger.
func (l *Ledger) AddSink(s Sink) {
	l.sinkMu.Lock()
	defer l.sinkMu.Unlock()
	l.sinks = append(l.sinks, s)
}

// Events returns the logged events matching f in sequence order.
func (l *Ledger) Events(f Filter) []Event {
	return l.events.query(f)
}

// LastEventSeq returns the sequence of the newest event.
func (l *Ledger) LastEventSeq() uint64 {
	return l.events.lastSeq()
}

func (l *Ledger) now() types.LedgerTime {
	return types.ToLedgerTime(l.clock.Now())
}

// apply runs fn on a fresh table and commits it if fn succeeds. Events
// returned by fn are logged and published only after the commit, outside
// the ledger lock.
func (l *Ledger) apply(ctx context.Context, op string, call Call, fn func(tbl *state.Table, now types.LedgerTime) ([]Event, error)) error {
	l.mu.Lock()
	events, err := l.applyLocked(ctx, op, call, fn)
	if err != nil {
		l.mu.Unlock()
		return err
	}

	if len(events) == 0 {
		l.mu.Unlock()
		return nil
	}
	l.pubMu.Lock()
	l.mu.Unlock()
	defer l.pubMu.Unlock()
	l.publish(ctx, events)
	return nil
}

func (l *Ledger) applyLocked(ctx context.Context, op string, call Call, fn func(tbl *state.Table, now types.LedgerTime) ([]Event, error)) ([]Event, error) {

	now := l.now()
	tbl := state.NewTable(ctx, l.base)

	if err := l.consumeSequence(tbl, call); err != nil {
		tbl.Discard()
		l.logger.Debug("call rejected", "op", op, "caller", call.Caller, "result", ResultOf(err), "err", err)
		return nil, err
	}

	events, err := fn(tbl, now)
	if err != nil {
		tbl.Discard()
		l.logger.Debug("call rejected", "op", op, "caller", call.Caller, "result", ResultOf(err), "err", err)
		return nil, err
	}

	changes, err := tbl.Apply()
	if err != nil {
		l.logger.Error("commit failed", "op", op, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	l.logger.Debug("call applied", "op", op, "caller", call.Caller, "changes", len(changes))

	return l.events.append(events, now), nil
}

func (l *Ledger) publish(ctx context.Context, events []Event) {
	l.sinkMu.RLock()
	sinks := l.sinks
	l.sinkMu.RUnlock()

	for _, ev := range events {
		for _, s := range sinks {
			if err := s.Publish(ctx, ev); err != nil {
				l.logger.Warn("event sink failed", "seq", ev.Seq, "kind", ev.Kind, "err", err)
			}
		}
	}
}

func readCounter(v state.Reader, k keylet.Keylet) (uint64, bool, error) {
	data, err := v.Read(k)
	if err != nil {
		return 0, false, err
	}
	if data == nil {
		return 1, false, nil
	}
	var c counter
	if err := state.Decode(data, &c); err != nil {
		return 0, false, err
	}
	return c.Next, true, nil
}

func writeCounter(v state.View, k keylet.Keylet, next uint64, exists bool) error {
	data, err := state.Encode(counter{Next: next})
	if err != nil {
		return err
	}
	if exists {
		return v.Update(k, data)
	}
	return v.Insert(k, data)
}

func (l *Ledger) consumeSequence(tbl *state.Table, call Call) error {
	if call.Sequence == 0 {
		return nil
	}
	k := keylet.Sequence(call.Caller)
	next, exists, err := readCounter(tbl, k)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	switch {
	case uint64(call.Sequence) < next:
		return fmt.Errorf("%w: got %d, next is %d", ErrPastSequence, call.Sequence, next)
	case uint64(call.Sequence) > next:
		return fmt.Errorf("%w: got %d, next is %d", ErrFutureSequence, call.Sequence, next)
	}
	if err := writeCounter(tbl, k, next+1, exists); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}

func loadRequest(v state.Reader, creator types.AccountID, nonce uint64) (*Request, error) {
	data, err := v.Read(keylet.Request(creator, nonce))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s #%d", ErrRequestNotFound, creator, nonce)
	}
	var req Request
	if err := state.Decode(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return &req, nil
}

func storeRequest(v state.View, req *Request, insert bool) error {
	data, err := state.Encode(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	k := keylet.Request(req.Creator, req.Nonce)
	if insert {
		err = v.Insert(k, data)
	} else {
		err = v.Update(k, data)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}
