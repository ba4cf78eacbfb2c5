package types

import (
	"errors"
	"fmt"
	"strings"
)

// NativeCurrency is the currency code reserved for the native asset.
const NativeCurrency = "XRP"

// ErrInvalidToken is returned when a token identifier is malformed.
var ErrInvalidToken = errors.New("invalid token")

// Token identifies a fungible token: a currency code issued by an account.
type Token struct {
	Currency string    `json:"currency" codec:"c"`
	Issuer   AccountID `json:"issuer" codec:"i"`
}

// Native is the asset identifier of the native ledger asset.
var Native = Token{Currency: NativeCurrency}

// IsZero reports whether the token is the zero identifier.
func (t Token) IsZero() bool {
	return t.Currency == "" && t.Issuer.IsZero()
}

// IsNative reports whether the identifier names the native asset.
func (t Token) IsNative() bool {
	return t.Currency == NativeCurrency && t.Issuer.IsZero()
}

// Validate checks that t names a destination token: a 3-char code other
// than the native one, issued by a non-zero account.
func (t Token) Validate() error {
	if t.IsZero() {
		return fmt.Errorf("%w: zero token", ErrInvalidToken)
	}
	if strings.EqualFold(t.Currency, NativeCurrency) {
		return fmt.Errorf("%w: native currency is not a token", ErrInvalidToken)
	}
	if len(t.Currency) != 3 {
		return fmt.Errorf("%w: currency %q must be 3 characters", ErrInvalidToken, t.Currency)
	}
	if t.Issuer.IsZero() {
		return fmt.Errorf("%w: issuer required", ErrInvalidToken)
	}
	return nil
}

// Bytes returns the fixed 23-byte key form: 3-byte currency, 20-byte issuer.
func (t Token) Bytes() []byte {
	b := make([]byte, 3+AccountIDSize)
	copy(b[:3], t.Currency)
	copy(b[3:], t.Issuer[:])
	return b
}

// String renders "CUR/rIssuer", or "XRP" for the native asset.
func (t Token) String() string {
	if t.IsNative() {
		return NativeCurrency
	}
	return t.Currency + "/" + t.Issuer.Address()
}

// ParseToken parses "CUR/issuer" or "XRP".
func ParseToken(s string) (Token, error) {
	s = strings.TrimSpace(s)
	if s == NativeCurrency {
		return Native, nil
	}
	cur, issuer, ok := strings.Cut(s, "/")
	if !ok {
		return Token{}, fmt.Errorf("%w: %q, want CUR/issuer", ErrInvalidToken, s)
	}
	id, err := ParseAccountID(issuer)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Token{Currency: cur, Issuer: id}, nil
}
