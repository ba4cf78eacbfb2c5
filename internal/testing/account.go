package testing

import (
	"crypto/sha512"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/LeJamon/goAssetLock/internal/crypto"
)

// Account represents a test account with keypair and address information.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// Seed is the seed bytes used to derive the keypair.
	Seed []byte

	// Keys is the secp256k1 keypair derived from Seed.
	Keys *crypto.KeyPair

	// ID is the 20-byte account ID derived from the public key.
	ID types.AccountID

	// Address is the classic address of ID.
	Address string
}

// NewAccount creates a new test account with a deterministic keypair derived from the name.
// Using the same name will always produce the same account, making tests reproducible.
func NewAccount(name string) *Account {
	hash := sha512.Sum512([]byte(name))
	seed := hash[:crypto.SeedSize]

	keys := crypto.KeyPairFromSeed(seed)
	id := keys.AccountID()
	return &Account{
		Name:    name,
		Seed:    seed,
		Keys:    keys,
		ID:      id,
		Address: id.Address(),
	}
}

// Call returns a call envelope from this account with no attached value.
func (a *Account) Call() escrow.Call {
	return escrow.Call{Caller: a.ID}
}

// Pay returns a call envelope from this account carrying value.
func (a *Account) Pay(value types.Amount) escrow.Call {
	return escrow.Call{Caller: a.ID, Value: value}
}

// String returns the account name for debugging.
func (a *Account) String() string {
	return a.Name
}
