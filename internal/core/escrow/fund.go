package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/LeJamon/goAssetLock/internal/core/state"
	"github.com/LeJamon/goAssetLock/internal/core/types"
)

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Fund credits holder with amount of asset that did not exist before.
// Standalone nodes use it to seed accounts. The vault cannot be funded,
// since that would break conservation.
func (l *Ledger) Fund(ctx context.Context, holder types.AccountID, asset types.Token, amount types.Amount) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if holder.IsZero() {
		return ErrInvalidBeneficiary
	}
	if !asset.IsNative() {
		if err := asset.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	if holder == l.vault {
		return fmt.Errorf("%w: the vault cannot be funded", ErrUnauthorized)
	}

	err := l.apply(ctx, "fund", Call{Caller: holder}, func(tbl *state.Table, _ types.LedgerTime) ([]Event, error) {
		if err := l.bank.Credit(tbl, holder, asset, amount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	l.logger.Info("account funded", "holder", holder, "asset", asset, "amount", amount)
	return nil
}
