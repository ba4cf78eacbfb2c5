package types

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Amount is a quantity of an asset in its smallest unit. The native asset
// is counted in drops.
type Amount uint64

// DropsPerUnit is the number of drops in one whole unit of the native asset.
const DropsPerUnit Amount = 1_000_000

// ErrAmountOverflow is returned when an addition would wrap.
var ErrAmountOverflow = errors.New("amount overflow")

// ErrAmountUnderflow is returned when a subtraction would go below zero.
var ErrAmountUnderflow = errors.New("amount underflow")

// Units converts whole native units into drops.
func Units(n uint64) Amount {
	return Amount(n) * DropsPerUnit
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a == 0
}

// Add returns a+b or ErrAmountOverflow.
func (a Amount) Add(b Amount) (Amount, error) {
	if b > math.MaxUint64-a {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

// Sub returns a-b or ErrAmountUnderflow.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b > a {
		return 0, ErrAmountUnderflow
	}
	return a - b, nil
}

// String returns the decimal representation in base units.
func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// MarshalText encodes the amount as a decimal string so that JSON clients
// never lose precision above 2^53.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a decimal string.
func (a *Amount) UnmarshalText(text []byte) error {
	v, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseAmount parses a non-negative decimal integer.
func ParseAmount(s string) (Amount, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount(v), nil
}
