package escrow

import (
	"context"
	"sync"

	"github.com/LeJamon/goAssetLock/internal/core/types"
)

// EventKind names an escrow event.
type EventKind string

const (
	EventDeposited        EventKind = "Deposited"
	EventSwapped          EventKind = "Swapped"
	EventUnlockerWithdrew EventKind = "UnlockerWithdrew"
	EventCreatorWithdrew  EventKind = "CreatorWithdrew"
)

// Valid reports whether k is a known kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventDeposited, EventSwapped, EventUnlockerWithdrew, EventCreatorWithdrew:
		return true
	}
	return false
}

// Event is one entry of the append-only escrow log. Seq, LedgerTime,
// Creator and Nonce are set on every event; the party fields depend on
// Kind:
//
//	Deposited         Depositor, Beneficiary, Token
//	Swapped           Caller, Recipient, Token, Amount
//	UnlockerWithdrew  Beneficiary, Amount
//	CreatorWithdrew   Owner, Amount
type Event struct {
	Seq        uint64           `json:"seq"`
	Kind       EventKind        `json:"kind"`
	LedgerTime types.LedgerTime `json:"ledger_time"`
	Creator    types.AccountID  `json:"creator"`
	Nonce      uint64           `json:"nonce"`

	Depositor   types.AccountID `json:"depositor,omitzero"`
	Beneficiary types.AccountID `json:"beneficiary,omitzero"`
	Caller      types.AccountID `json:"caller,omitzero"`
	Recipient   types.AccountID `json:"recipient,omitzero"`
	Owner       types.AccountID `json:"owner,omitzero"`
	Token       types.Token     `json:"token,omitzero"`
	Amount      types.Amount    `json:"amount,omitzero"`
}

// Sender is the depositor, caller or owner of the event.
func (e Event) Sender() types.AccountID {
	switch e.Kind {
	case EventDeposited:
		return e.Depositor
	case EventSwapped:
		return e.Caller
	case EventCreatorWithdrew:
		return e.Owner
	}
	return types.ZeroAccount
}

// Receiver is the beneficiary or recipient of the event.
func (e Event) Receiver() types.AccountID {
	switch e.Kind {
	case EventDeposited, EventUnlockerWithdrew:
		return e.Beneficiary
	case EventSwapped:
		return e.Recipient
	}
	return types.ZeroAccount
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	Kinds    []EventKind
	Sender   types.AccountID // depositor, caller or owner
	Receiver types.AccountID // beneficiary or recipient
	Creator  types.AccountID
	Token    types.Token
	AfterSeq uint64
	Limit    int
}

// Match reports whether e passes every set criterion.
func (f Filter) Match(e Event) bool {
	if e.Seq <= f.AfterSeq {
		return false
	}
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if k == e.Kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.Sender.IsZero() && e.Sender() != f.Sender {
		return false
	}
	if !f.Receiver.IsZero() && e.Receiver() != f.Receiver {
		return false
	}
	if !f.Creator.IsZero() && e.Creator != f.Creator {
		return false
	}
	if !f.Token.IsZero() && e.Token != f.Token {
		return false
	}
	return true
}

// Sink receives events after the call that produced them has committed.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Publish(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// eventLog is the in-memory append-only event log.
type eventLog struct {
	mu     sync.RWMutex
	events []Event
	seq    uint64
}

func (l *eventLog) append(evs []Event, now types.LedgerTime) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Event, len(evs))
	for i, ev := range evs {
		l.seq++
		ev.Seq = l.seq
		ev.LedgerTime = now
		l.events = append(l.events, ev)
		out[i] = ev
	}
	return out
}

func (l *eventLog) query(f Filter) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Event
	for _, ev := range l.events {
		if !f.Match(ev) {
			continue
		}
		out = append(out, ev)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

func (l *eventLog) lastSeq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}
