package bank

import (
	"context"
	"testing"

	"github.com/LeJamon/goAssetLock/internal/core/state"
	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/LeJamon/goAssetLock/internal/storage/database/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice  = types.AccountID{0x0A}
	bob    = types.AccountID{0x0B}
	issuer = types.AccountID{0x1F}
	usd    = types.Token{Currency: "USD", Issuer: issuer}
)

func newBank(t *testing.T) (*Bank, *state.Base) {
	t.Helper()
	base, err := state.NewBase(memory.NewDB(), 0)
	require.NoError(t, err)
	return New(base), base
}

func TestFundAndBalance(t *testing.T) {
	b, _ := newBank(t)
	ctx := context.Background()

	require.NoError(t, b.Fund(ctx, alice, types.Native, types.Units(10)))
	require.NoError(t, b.Fund(ctx, alice, types.Native, types.Units(5)))

	bal, err := b.Balance(ctx, alice, types.Native)
	require.NoError(t, err)
	assert.Equal(t, types.Units(15), bal)

	bal, err = b.Balance(ctx, bob, types.Native)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(0), bal)
}

func TestTransfer(t *testing.T) {
	b, base := newBank(t)
	ctx := context.Background()
	require.NoError(t, b.Fund(ctx, alice, usd, 100))

	tbl := state.NewTable(ctx, base)
	require.NoError(t, b.Transfer(tbl, alice, bob, usd, 40))
	_, err := tbl.Apply()
	require.NoError(t, err)

	bal, err := b.Balance(ctx, alice, usd)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(60), bal)

	bal, err = b.Balance(ctx, bob, usd)
	require.NoError(t, err)
	assert.Equal(t, types.Amount(40), bal)
}

func TestTransferInsufficient(t *testing.T) {
	b, base := newBank(t)
	ctx := context.Background()
	require.NoError(t, b.Fund(ctx, alice, types.Native, 10))

	tbl := state.NewTable(ctx, base)
	err := b.Transfer(tbl, alice, bob, types.Native, 11)
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Empty(t, tbl.Changes())
}

func TestTransferZero(t *testing.T) {
	b, base := newBank(t)
	tbl := state.NewTable(context.Background(), base)

	err := b.Transfer(tbl, alice, bob, types.Native, 0)
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.ErrorIs(t, err, ErrZeroAmount)
}

func TestTransferInvalidAsset(t *testing.T) {
	b, base := newBank(t)
	tbl := state.NewTable(context.Background(), base)

	err := b.Transfer(tbl, alice, bob, types.Token{Currency: "US"}, 1)
	assert.ErrorIs(t, err, ErrTransferFailed)
}

func TestTransferDrainsBalance(t *testing.T) {
	b, base := newBank(t)
	ctx := context.Background()
	require.NoError(t, b.Fund(ctx, alice, usd, 5))

	tbl := state.NewTable(ctx, base)
	require.NoError(t, b.Transfer(tbl, alice, bob, usd, 5))
	changes, err := tbl.Apply()
	require.NoError(t, err)

	var erased int
	for _, c := range changes {
		if c.Action == state.ActionErase {
			erased++
		}
	}
	assert.Equal(t, 1, erased)

	bal, err := b.Balance(ctx, alice, usd)
	require.NoError(t, err)
	assert.Zero(t, bal)
}

func TestTransferToSelf(t *testing.T) {
	b, base := newBank(t)
	ctx := context.Background()
	require.NoError(t, b.Fund(ctx, alice, usd, 5))

	tbl := state.NewTable(ctx, base)
	require.NoError(t, b.Transfer(tbl, alice, alice, usd, 5))
	assert.ErrorIs(t, b.Transfer(tbl, alice, alice, usd, 6), ErrInsufficientFunds)
}
