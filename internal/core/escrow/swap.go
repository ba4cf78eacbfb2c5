package escrow

import (
	"context"
	"fmt"

	"github.com/LeJamon/goAssetLock/internal/core/state"
	"github.com/LeJamon/goAssetLock/internal/core/types"
)

// InitiateSwap converts the locked native value of request (creator, nonce)
// into its destination token, requiring at least minOut. A zero creator
// means the caller. Only the creator may swap.
func (l *Ledger) InitiateSwap(ctx context.Context, call Call, creator types.AccountID, nonce uint64, minOut types.Amount) (types.Amount, error) {
	if call.Value != 0 {
		return 0, fmt.Errorf("%w: swap takes no attached value", ErrInvalidAmount)
	}
	if creator.IsZero() {
		creator = call.Caller
	}

	var out types.Amount
	err := l.apply(ctx, "initiate_swap", call, func(tbl *state.Table, now types.LedgerTime) ([]Event, error) {
		req, err := loadRequest(tbl, creator, nonce)
		if err != nil {
			return nil, err
		}
		if call.Caller != req.Creator {
			return nil, ErrUnauthorized
		}
		if req.LockedValue == 0 {
			return nil, ErrAlreadySwapped
		}

		// effects first: the request is marked swapped before the venue
		// sees the value
		locked := req.LockedValue
		req.LockedValue = 0
		req.UnlockTime = now.Add(l.window)
		if err := storeRequest(tbl, req, false); err != nil {
			return nil, err
		}

		got, err := l.oracle.Swap(tbl, l.vault, locked, minOut, req.Token)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSlippageExceeded, err)
		}
		if got == 0 || got < minOut {
			return nil, fmt.Errorf("%w: got %s, want at least %s", ErrSlippageExceeded, got, minOut)
		}

		req.DestinationTokenValue = got
		if err := storeRequest(tbl, req, false); err != nil {
			return nil, err
		}

		out = got
		return []Event{{
			Kind:      EventSwapped,
			Creator:   req.Creator,
			Nonce:     req.Nonce,
			Caller:    call.Caller,
			Recipient: req.Unlocker,
			Token:     req.Token,
			Amount:    got,
		}}, nil
	})
	if err != nil {
		return 0, err
	}

	l.logger.Info("request swapped", "creator", creator, "nonce", nonce, "amount", out)
	return out, nil
}
