package escrow

import (
	"context"
	"fmt"

	"github.com/LeJamon/goAssetLock/internal/core/state"
	"github.com/LeJamon/goAssetLock/internal/core/types"
)

// Withdraw releases the swapped proceeds of request (creator, nonce) to the
// caller. The unlocker may withdraw any time after the swap; the creator
// only once the unlock time is reached. Anyone else is told to wait.
func (l *Ledger) Withdraw(ctx context.Context, call Call, creator types.AccountID, nonce uint64) (types.Amount, error) {
	if call.Value != 0 {
		return 0, fmt.Errorf("%w: withdraw takes no attached value", ErrInvalidAmount)
	}

	var (
		amount types.Amount
		kind   EventKind
	)
	err := l.apply(ctx, "withdraw", call, func(tbl *state.Table, now types.LedgerTime) ([]Event, error) {
		req, err := loadRequest(tbl, creator, nonce)
		if err != nil {
			return nil, err
		}

		ev := Event{Creator: req.Creator, Nonce: req.Nonce}
		switch call.Caller {
		case req.Unlocker:
			if req.LockedValue > 0 {
				return nil, ErrNotSwapped
			}
			if req.DestinationTokenValue == 0 {
				return nil, ErrAlreadyWithdrawn
			}
			ev.Kind = EventUnlockerWithdrew
			ev.Beneficiary = call.Caller

		case req.Creator:
			if req.LockedValue > 0 {
				return nil, ErrNotSwapped
			}
			if now < req.UnlockTime {
				return nil, fmt.Errorf("%w: unlocks at %d, now %d", ErrTimeoutNotReached, req.UnlockTime, now)
			}
			if req.DestinationTokenValue == 0 {
				return nil, ErrAlreadyWithdrawn
			}
			ev.Kind = EventCreatorWithdrew
			ev.Owner = call.Caller

		default:
			return nil, ErrTimeoutNotReached
		}

		// zero the request before the transfer out
		amount = req.DestinationTokenValue
		req.DestinationTokenValue = 0
		if err := storeRequest(tbl, req, false); err != nil {
			return nil, err
		}

		if err := l.bank.Transfer(tbl, l.vault, call.Caller, req.Token, amount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}

		ev.Amount = amount
		kind = ev.Kind
		return []Event{ev}, nil
	})
	if err != nil {
		return 0, err
	}

	l.logger.Info("request withdrawn", "creator", creator, "nonce", nonce, "kind", kind, "to", call.Caller, "amount", amount)
	return amount, nil
}
