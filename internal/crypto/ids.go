package crypto

import (
	"crypto/sha256"

	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/decred/dcrd/crypto/ripemd160"
)

// CalcAccountID computes the account ID from a public key.
// The account ID is a 160-bit identifier computed as RIPEMD160(SHA256(publicKey)).
//
// The entire public key including any prefix is hashed, so the same
// computation serves every key encoding a caller may present.
func CalcAccountID(publicKey []byte) types.AccountID {
	sha256Hash := sha256.Sum256(publicKey)

	ripemd160Hasher := ripemd160.New()
	ripemd160Hasher.Write(sha256Hash[:])
	ripemd160Hash := ripemd160Hasher.Sum(nil)

	var result types.AccountID
	copy(result[:], ripemd160Hash)
	return result
}
