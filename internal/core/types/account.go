package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	addresscodec "github.com/Peersyst/xrpl-go/address-codec"
)

// AccountIDSize is the size of an account identifier in bytes.
const AccountIDSize = 20

// ErrInvalidAddress is returned when a string cannot be decoded into an AccountID.
var ErrInvalidAddress = errors.New("invalid account address")

// AccountID identifies a ledger party. It is RIPEMD160(SHA256(publicKey)).
// The zero value is the zero identity and never owns anything.
type AccountID [AccountIDSize]byte

// ZeroAccount is the zero identity.
var ZeroAccount AccountID

// IsZero reports whether the account is the zero identity.
func (a AccountID) IsZero() bool {
	return a == ZeroAccount
}

// Address returns the classic base58 "r..." address for the account.
func (a AccountID) Address() string {
	addr, err := addresscodec.EncodeAccountIDToClassicAddress(a[:])
	if err != nil {
		// 20-byte payloads always encode
		return hex.EncodeToString(a[:])
	}
	return addr
}

// String implements fmt.Stringer.
func (a AccountID) String() string {
	return a.Address()
}

// Hex returns the upper-case hex encoding of the raw account id.
func (a AccountID) Hex() string {
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

// MarshalText renders the account as a classic address.
func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.Address()), nil
}

// UnmarshalText accepts a classic address or a 40-char hex account id.
func (a *AccountID) UnmarshalText(text []byte) error {
	id, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// ParseAccountID decodes a classic address or a 40-char hex account id.
// The empty string decodes to the zero identity.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	s = strings.TrimSpace(s)
	if s == "" {
		return id, nil
	}

	if len(s) == AccountIDSize*2 {
		if raw, err := hex.DecodeString(s); err == nil {
			copy(id[:], raw)
			return id, nil
		}
	}

	_, raw, err := addresscodec.DecodeClassicAddressToAccountID(s)
	if err != nil {
		return id, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, s, err)
	}
	if len(raw) != AccountIDSize {
		return id, fmt.Errorf("%w: %s: decoded %d bytes", ErrInvalidAddress, s, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// MustParseAccountID is ParseAccountID for constants and tests.
func MustParseAccountID(s string) AccountID {
	id, err := ParseAccountID(s)
	if err != nil {
		panic(err)
	}
	return id
}
