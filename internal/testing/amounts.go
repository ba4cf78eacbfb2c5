package testing

import "github.com/LeJamon/goAssetLock/internal/core/types"

// XRP converts whole native units to drops.
// For example, XRP(100) returns 100,000,000 drops.
func XRP(n uint64) types.Amount {
	return types.Units(n)
}

// Drops returns the drop amount unchanged.
// This is a convenience function for clarity when specifying amounts in drops.
func Drops(n uint64) types.Amount {
	return types.Amount(n)
}

// IssuedToken returns the token currency issued by acc.
func IssuedToken(acc *Account, currency string) types.Token {
	return types.Token{Currency: currency, Issuer: acc.ID}
}
