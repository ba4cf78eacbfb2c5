package keylet

import (
	"encoding/binary"

	"github.com/LeJamon/goAssetLock/internal/core/types"
	crypto "github.com/LeJamon/goAssetLock/internal/crypto/common"
)

// Type identifies the kind of state entry a keylet addresses.
// It is also the first byte of the storage key, so every entry type lives
// in its own contiguous key range.
type Type byte

const (
	TypeRequest  Type = 'u' // Escrow request
	TypeNonce    Type = 'n' // Per-creator nonce counter
	TypeBalance  Type = 'b' // Holder balance of one asset
	TypePool     Type = 'A' // Swap pool
	TypeSequence Type = 's' // Per-account call sequence
)

// String returns a readable entry type name.
func (t Type) String() string {
	switch t {
	case TypeRequest:
		return "Request"
	case TypeNonce:
		return "NonceCounter"
	case TypeBalance:
		return "Balance"
	case TypePool:
		return "Pool"
	case TypeSequence:
		return "Sequence"
	default:
		return "Unknown"
	}
}

// KeySize is the size of a storage key: one type byte and a 256-bit hash.
const KeySize = 33

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type Type
	Key  [32]byte
}

// Bytes returns the storage key: the type byte followed by the hash.
func (k Keylet) Bytes() []byte {
	b := make([]byte, KeySize)
	b[0] = byte(k.Type)
	copy(b[1:], k.Key[:])
	return b
}

// FromBytes rebuilds a keylet from a storage key.
func FromBytes(b []byte) (Keylet, bool) {
	if len(b) != KeySize {
		return Keylet{}, false
	}
	k := Keylet{Type: Type(b[0])}
	copy(k.Key[:], b[1:])
	return k, true
}

// Range returns the [start, end] storage key bounds covering every entry of t.
func Range(t Type) (start, end []byte) {
	start = make([]byte, KeySize)
	start[0] = byte(t)
	end = make([]byte, KeySize)
	end[0] = byte(t)
	for i := 1; i < KeySize; i++ {
		end[i] = 0xFF
	}
	return start, end
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space Type, data ...[]byte) [32]byte {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, uint16(space))

	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, data...)

	return crypto.Sha512Half(inputs...)
}

// Request returns the keylet for the escrow request (creator, nonce).
func Request(creator types.AccountID, nonce uint64) Keylet {
	nonceBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBytes, nonce)
	return Keylet{
		Type: TypeRequest,
		Key:  indexHash(TypeRequest, creator[:], nonceBytes),
	}
}

// Nonce returns the keylet for a creator's nonce counter.
func Nonce(creator types.AccountID) Keylet {
	return Keylet{
		Type: TypeNonce,
		Key:  indexHash(TypeNonce, creator[:]),
	}
}

// Balance returns the keylet for holder's balance of asset.
func Balance(holder types.AccountID, asset types.Token) Keylet {
	return Keylet{
		Type: TypeBalance,
		Key:  indexHash(TypeBalance, holder[:], asset.Bytes()),
	}
}

// Pool returns the keylet for the swap pool trading the native asset
// against token.
func Pool(token types.Token) Keylet {
	return Keylet{
		Type: TypePool,
		Key:  indexHash(TypePool, token.Bytes()),
	}
}

// Sequence returns the keylet for an account's call sequence.
func Sequence(account types.AccountID) Keylet {
	return Keylet{
		Type: TypeSequence,
		Key:  indexHash(TypeSequence, account[:]),
	}
}
