// Package amm implements the constant-product swap venue the escrow
// converts locked native value through.
package amm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/LeJamon/goAssetLock/internal/core/bank"
	"github.com/LeJamon/goAssetLock/internal/core/ledger/keylet"
	"github.com/LeJamon/goAssetLock/internal/core/state"
	"github.com/LeJamon/goAssetLock/internal/core/types"
)

// TradingFeeThreshold is the maximum trading fee (1000 = 1%).
const TradingFeeThreshold uint16 = 1000

// feeScale is the denominator of the trading fee.
const feeScale = 100000

var (
	ErrPoolNotFound = errors.New("pool not found")
	ErrPoolExists   = errors.New("pool already exists")
	ErrInvalidFee   = errors.New("trading fee above threshold")
	ErrEmptyPool    = errors.New("pool has no liquidity")
	ErrZeroInput    = errors.New("zero swap input")
	ErrSlippage     = errors.New("output below minimum")
)

// Pool trades the native asset against one token. Reserves are the bank
// balances of the pool's own account.
type Pool struct {
	Token      types.Token     `codec:"t" json:"token"`
	Account    types.AccountID `codec:"a" json:"account"`
	TradingFee uint16          `codec:"f" json:"trading_fee"`
}

// AccountFor derives the pool pseudo-account from the pool keylet: the
// first 20 bytes of the keylet hash.
func AccountFor(token types.Token) types.AccountID {
	k := keylet.Pool(token)
	var id types.AccountID
	copy(id[:], k.Key[:types.AccountIDSize])
	return id
}

// Load reads the pool for token.
func Load(v state.Reader, token types.Token) (*Pool, error) {
	data, err := v.Read(keylet.Pool(token))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, token)
	}
	var p Pool
	if err := state.Decode(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create opens a pool for token seeded with the given reserves. The
// reserves are minted into the pool account, the way a genesis ledger
// seeds liquidity.
func Create(v state.View, b *bank.Bank, token types.Token, nativeReserve, tokenReserve types.Amount, fee uint16) (*Pool, error) {
	if err := token.Validate(); err != nil {
		return nil, err
	}
	if fee > TradingFeeThreshold {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFee, fee)
	}
	if nativeReserve == 0 || tokenReserve == 0 {
		return nil, ErrEmptyPool
	}

	k := keylet.Pool(token)
	exists, err := v.Exists(k)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrPoolExists, token)
	}

	p := &Pool{Token: token, Account: AccountFor(token), TradingFee: fee}
	data, err := state.Encode(p)
	if err != nil {
		return nil, err
	}
	if err := v.Insert(k, data); err != nil {
		return nil, err
	}
	if err := b.Credit(v, p.Account, types.Native, nativeReserve); err != nil {
		return nil, err
	}
	if err := b.Credit(v, p.Account, token, tokenReserve); err != nil {
		return nil, err
	}
	return p, nil
}

// Bootstrap creates the pool and commits it unless it already exists.
func Bootstrap(ctx context.Context, base *state.Base, b *bank.Bank, token types.Token, nativeReserve, tokenReserve types.Amount, fee uint16) (*Pool, error) {
	tbl := state.NewTable(ctx, base)
	p, err := Create(tbl, b, token, nativeReserve, tokenReserve, fee)
	if errors.Is(err, ErrPoolExists) {
		return Load(base.Reader(ctx), token)
	}
	if err != nil {
		return nil, err
	}
	if _, err := tbl.Apply(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reserves returns the pool's native and token balances.
func (p *Pool) Reserves(v state.Reader, b *bank.Bank) (native, token types.Amount, err error) {
	native, err = b.BalanceIn(v, p.Account, types.Native)
	if err != nil {
		return 0, 0, err
	}
	token, err = b.BalanceIn(v, p.Account, p.Token)
	if err != nil {
		return 0, 0, err
	}
	return native, token, nil
}

// SwapOut returns the token output for amountIn native on a pool with the
// given reserves. The fee is taken from the input:
// out = T * a(1-f) / (N + a(1-f)).
func SwapOut(nativeReserve, tokenReserve, amountIn types.Amount, fee uint16) types.Amount {
	if nativeReserve == 0 || tokenReserve == 0 || amountIn == 0 {
		return 0
	}

	in := new(big.Int).SetUint64(uint64(amountIn))
	in.Mul(in, big.NewInt(int64(feeScale-int(fee))))

	num := new(big.Int).Mul(in, new(big.Int).SetUint64(uint64(tokenReserve)))

	den := new(big.Int).SetUint64(uint64(nativeReserve))
	den.Mul(den, big.NewInt(feeScale))
	den.Add(den, in)

	return types.Amount(num.Quo(num, den).Uint64())
}
