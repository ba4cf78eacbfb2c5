package escrow

import (
	"context"
	"fmt"

	"github.com/LeJamon/goAssetLock/internal/core/ledger/keylet"
	"github.com/LeJamon/goAssetLock/internal/core/types"
)

// RequestOf returns the request (creator, nonce) as committed, including
// zeroed values of finished requests.
func (l *Ledger) RequestOf(ctx context.Context, creator types.AccountID, nonce uint64) (Request, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	req, err := loadRequest(l.base.Reader(ctx), creator, nonce)
	if err != nil {
		return Request{}, err
	}
	return *req, nil
}

// NextNonce returns the nonce creator's next deposit will receive.
func (l *Ledger) NextNonce(ctx context.Context, creator types.AccountID) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	next, _, err := readCounter(l.base.Reader(ctx), keylet.Nonce(creator))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return next, nil
}

// NextSequence returns the call sequence account must use next.
func (l *Ledger) NextSequence(ctx context.Context, account types.AccountID) (uint32, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	next, _, err := readCounter(l.base.Reader(ctx), keylet.Sequence(account))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return uint32(next), nil
}

// RequestsOf returns every request of creator in nonce order.
func (l *Ledger) RequestsOf(ctx context.Context, creator types.AccountID) ([]Request, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r := l.base.Reader(ctx)
	next, _, err := readCounter(r, keylet.Nonce(creator))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	out := make([]Request, 0, next-1)
	for nonce := uint64(1); nonce < next; nonce++ {
		req, err := loadRequest(r, creator, nonce)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, nil
}

// Balance returns holder's committed balance of asset.
func (l *Ledger) Balance(ctx context.Context, holder types.AccountID, asset types.Token) (types.Amount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bank.Balance(ctx, holder, asset)
}

// LedgerTime returns the ledger's current time.
func (l *Ledger) LedgerTime() types.LedgerTime {
	return l.now()
}
