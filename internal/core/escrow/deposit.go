package escrow

import (
	"context"
	"fmt"

	"github.com/LeJamon/goAssetLock/internal/core/ledger/keylet"
	"github.com/LeJamon/goAssetLock/internal/core/state"
	"github.com/LeJamon/goAssetLock/internal/core/types"
)

// CreateDeposit locks call.Value of the native asset for beneficiary and
// returns the nonce of the new request. The caller becomes the creator.
func (l *Ledger) CreateDeposit(ctx context.Context, call Call, token types.Token, beneficiary types.AccountID) (uint64, error) {
	if call.Value == 0 {
		return 0, ErrInvalidAmount
	}
	if beneficiary.IsZero() {
		return 0, ErrInvalidBeneficiary
	}
	if err := token.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var nonce uint64
	err := l.apply(ctx, "create_deposit", call, func(tbl *state.Table, now types.LedgerTime) ([]Event, error) {
		k := keylet.Nonce(call.Caller)
		next, exists, err := readCounter(tbl, k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		if err := writeCounter(tbl, k, next+1, exists); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}

		req := &Request{
			Creator:     call.Caller,
			Nonce:       next,
			Unlocker:    beneficiary,
			Token:       token,
			LockedValue: call.Value,
			CreatedAt:   now,
		}
		if err := storeRequest(tbl, req, true); err != nil {
			return nil, err
		}

		if err := l.bank.Transfer(tbl, call.Caller, l.vault, types.Native, call.Value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}

		nonce = next
		return []Event{{
			Kind:        EventDeposited,
			Creator:     call.Caller,
			Nonce:       next,
			Depositor:   call.Caller,
			Beneficiary: beneficiary,
			Token:       token,
		}}, nil
	})
	if err != nil {
		return 0, err
	}

	l.logger.Info("deposit created", "creator", call.Caller, "nonce", nonce, "beneficiary", beneficiary, "token", token, "value", call.Value)
	return nonce, nil
}
