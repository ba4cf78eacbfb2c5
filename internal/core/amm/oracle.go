package amm

import (
	"fmt"

	"github.com/LeJamon/goAssetLock/internal/core/bank"
	"github.com/LeJamon/goAssetLock/internal/core/state"
	"github.com/LeJamon/goAssetLock/internal/core/types"
)

// Oracle swaps native value for tokens against the pools held in state.
type Oracle struct {
	bank *bank.Bank
}

func NewOracle(b *bank.Bank) *Oracle {
	return &Oracle{bank: b}
}

// Quote returns the token amount a swap of amountIn would yield now.
func (o *Oracle) Quote(v state.Reader, token types.Token, amountIn types.Amount) (types.Amount, error) {
	p, err := Load(v, token)
	if err != nil {
		return 0, err
	}
	nr, tr, err := p.Reserves(v, o.bank)
	if err != nil {
		return 0, err
	}
	if nr == 0 || tr == 0 {
		return 0, ErrEmptyPool
	}
	return SwapOut(nr, tr, amountIn, p.TradingFee), nil
}

// Swap sells amountIn native from payer into the token pool and credits
// payer with the output. It fails with ErrSlippage when the output is zero
// or below minOut. Both legs run on v.
func (o *Oracle) Swap(v state.View, payer types.AccountID, amountIn, minOut types.Amount, token types.Token) (types.Amount, error) {
	if amountIn == 0 {
		return 0, ErrZeroInput
	}
	p, err := Load(v, token)
	if err != nil {
		return 0, err
	}
	out, err := o.Quote(v, token, amountIn)
	if err != nil {
		return 0, err
	}
	if out == 0 || out < minOut {
		return 0, fmt.Errorf("%w: got %s, want at least %s", ErrSlippage, out, minOut)
	}

	if err := o.bank.Transfer(v, payer, p.Account, types.Native, amountIn); err != nil {
		return 0, err
	}
	if err := o.bank.Transfer(v, p.Account, payer, token, out); err != nil {
		return 0, err
	}
	return out, nil
}
