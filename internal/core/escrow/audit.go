package escrow

import (
	"context"
	"fmt"
	"sort"

	"github.com/LeJamon/goAssetLock/internal/core/ledger/keylet"
	"github.com/LeJamon/goAssetLock/internal/core/state"
	"github.com/LeJamon/goAssetLock/internal/core/types"
)

// Holding compares what the requests say the vault holds of one asset
// with what it actually holds.
type Holding struct {
	Asset    types.Token  `json:"asset"`
	Expected types.Amount `json:"expected"`
	Held     types.Amount `json:"held"`
}

// Balanced reports whether the two sides agree.
func (h Holding) Balanced() bool {
	return h.Expected == h.Held
}

// AuditReport is the outcome of a conservation audit.
type AuditReport struct {
	Requests  int       `json:"requests"`
	Created   int       `json:"created"`
	Swapped   int       `json:"swapped"`
	Withdrawn int       `json:"withdrawn"`
	Holdings  []Holding `json:"holdings"`
}

// Balanced reports whether every holding matches.
func (r AuditReport) Balanced() bool {
	for _, h := range r.Holdings {
		if !h.Balanced() {
			return false
		}
	}
	return true
}

// Audit checks conservation over all stored requests: the vault's native
// balance must equal the sum of locked values, and its balance of each
// token the sum of destination values for that token. A mismatch returns
// the report together with ErrConservation.
func (l *Ledger) Audit(ctx context.Context) (*AuditReport, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	report := &AuditReport{}
	expected := map[types.Token]types.Amount{types.Native: 0}

	var decodeErr error
	err := l.base.ForEach(ctx, keylet.TypeRequest, func(_ keylet.Keylet, data []byte) bool {
		var req Request
		if err := state.Decode(data, &req); err != nil {
			decodeErr = err
			return false
		}

		report.Requests++
		switch req.Status() {
		case StatusCreated:
			report.Created++
		case StatusSwapped:
			report.Swapped++
		case StatusWithdrawn:
			report.Withdrawn++
		}

		if sum, err := expected[types.Native].Add(req.LockedValue); err == nil {
			expected[types.Native] = sum
		} else {
			decodeErr = err
			return false
		}
		if sum, err := expected[req.Token].Add(req.DestinationTokenValue); err == nil {
			expected[req.Token] = sum
		} else {
			decodeErr = err
			return false
		}
		return true
	})
	if err == nil {
		err = decodeErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	r := l.base.Reader(ctx)
	for asset, want := range expected {
		held, err := l.bank.BalanceIn(r, l.vault, asset)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		report.Holdings = append(report.Holdings, Holding{Asset: asset, Expected: want, Held: held})
	}
	sort.Slice(report.Holdings, func(i, j int) bool {
		return report.Holdings[i].Asset.String() < report.Holdings[j].Asset.String()
	})

	for _, h := range report.Holdings {
		if !h.Balanced() {
			l.logger.Error("conservation audit failed", "asset", h.Asset, "expected", h.Expected, "held", h.Held)
			return report, fmt.Errorf("%w: %s expected %s, vault holds %s", ErrConservation, h.Asset, h.Expected, h.Held)
		}
	}
	return report, nil
}
