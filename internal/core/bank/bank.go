// Package bank keeps per-holder balances of the native asset and of issued
// tokens in ledger state and moves value between holders.
package bank

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goAssetLock/internal/core/ledger/keylet"
	"github.com/LeJamon/goAssetLock/internal/core/state"
	"github.com/LeJamon/goAssetLock/internal/core/types"
)

var (
	// ErrTransferFailed wraps every reason a transfer could not happen.
	ErrTransferFailed = errors.New("transfer failed")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrZeroAmount        = errors.New("zero amount")
	ErrInvalidAsset      = errors.New("invalid asset")
)

// balance is the stored form of one (holder, asset) balance.
type balance struct {
	Holder types.AccountID `codec:"h"`
	Asset  types.Token     `codec:"a"`
	Value  types.Amount    `codec:"v"`
}

// Bank reads and moves balances. Transfers run on the caller's view so
// they commit or roll back together with the rest of the call.
type Bank struct {
	base *state.Base
}

func New(base *state.Base) *Bank {
	return &Bank{base: base}
}

func checkAsset(asset types.Token) error {
	if asset.IsNative() {
		return nil
	}
	if err := asset.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	return nil
}

// BalanceIn returns holder's balance of asset as seen by v.
func (b *Bank) BalanceIn(v state.Reader, holder types.AccountID, asset types.Token) (types.Amount, error) {
	data, err := v.Read(keylet.Balance(holder, asset))
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	var rec balance
	if err := state.Decode(data, &rec); err != nil {
		return 0, err
	}
	return rec.Value, nil
}

// Balance returns holder's committed balance of asset.
func (b *Bank) Balance(ctx context.Context, holder types.AccountID, asset types.Token) (types.Amount, error) {
	return b.BalanceIn(b.base.Reader(ctx), holder, asset)
}

func (b *Bank) set(v state.View, holder types.AccountID, asset types.Token, value types.Amount) error {
	k := keylet.Balance(holder, asset)
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}

	if value == 0 {
		if exists {
			return v.Erase(k)
		}
		return nil
	}

	data, err := state.Encode(balance{Holder: holder, Asset: asset, Value: value})
	if err != nil {
		return err
	}
	if exists {
		return v.Update(k, data)
	}
	return v.Insert(k, data)
}

// Credit adds amount to holder's balance.
func (b *Bank) Credit(v state.View, holder types.AccountID, asset types.Token, amount types.Amount) error {
	if err := checkAsset(asset); err != nil {
		return err
	}
	cur, err := b.BalanceIn(v, holder, asset)
	if err != nil {
		return err
	}
	next, err := cur.Add(amount)
	if err != nil {
		return err
	}
	return b.set(v, holder, asset, next)
}

// Debit removes amount from holder's balance.
func (b *Bank) Debit(v state.View, holder types.AccountID, asset types.Token, amount types.Amount) error {
	if err := checkAsset(asset); err != nil {
		return err
	}
	cur, err := b.BalanceIn(v, holder, asset)
	if err != nil {
		return err
	}
	if cur < amount {
		return fmt.Errorf("%w: %s holds %s %s, needs %s", ErrInsufficientFunds, holder, cur, asset, amount)
	}
	return b.set(v, holder, asset, cur-amount)
}

// Transfer moves amount of asset from one holder to another inside v.
// Any failure is reported as ErrTransferFailed and leaves v untouched.
func (b *Bank) Transfer(v state.View, from, to types.AccountID, asset types.Token, amount types.Amount) error {
	if amount == 0 {
		return fmt.Errorf("%w: %w", ErrTransferFailed, ErrZeroAmount)
	}
	if from == to {
		cur, err := b.BalanceIn(v, from, asset)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		if cur < amount {
			return fmt.Errorf("%w: %w", ErrTransferFailed, ErrInsufficientFunds)
		}
		return nil
	}

	// check the credit side first so a failed credit never follows a debit
	toBal, err := b.BalanceIn(v, to, asset)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if _, err := toBal.Add(amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	if err := b.Debit(v, from, asset, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if err := b.Credit(v, to, asset, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return nil
}

// Fund credits holder out of thin air and commits immediately. It is the
// genesis and faucet path; regular value movement uses Transfer.
func (b *Bank) Fund(ctx context.Context, holder types.AccountID, asset types.Token, amount types.Amount) error {
	tbl := state.NewTable(ctx, b.base)
	if err := b.Credit(tbl, holder, asset, amount); err != nil {
		return err
	}
	_, err := tbl.Apply()
	return err
}
