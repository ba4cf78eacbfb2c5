package crypto

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/LeJamon/goAssetLock/internal/core/types"
	common "github.com/LeJamon/goAssetLock/internal/crypto/common"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

var (
	// ErrInvalidPrivateKey is returned for malformed private key material.
	ErrInvalidPrivateKey = errors.New("invalid private key format")
	// ErrInvalidPublicKey is returned for malformed public keys.
	ErrInvalidPublicKey = errors.New("invalid public key format")
	// ErrInvalidSignature is returned when a signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrNonCanonicalSignature is returned for malleable (high-S) signatures.
	ErrNonCanonicalSignature = errors.New("signature is not fully canonical")
)

// KeyPair is a secp256k1 signing key and the account it controls.
type KeyPair struct {
	privateKey *btcec.PrivateKey
	publicKey  *btcec.PublicKey
}

// GenerateKeyPair creates a key pair from a random seed.
func GenerateKeyPair() (*KeyPair, error) {
	seed, err := RandomSeed()
	if err != nil {
		return nil, err
	}
	return KeyPairFromSeed(seed), nil
}

// KeyPairFromSeed deterministically derives a key pair from seed bytes.
// The private key is sha512Half(seed || counter) for the first counter that
// yields a scalar inside the curve order.
func KeyPairFromSeed(seed []byte) *KeyPair {
	counter := make([]byte, 4)
	for i := uint32(0); ; i++ {
		binary.BigEndian.PutUint32(counter, i)
		candidate := common.Sha512Half(seed, counter)

		var scalar btcec.ModNScalar
		if overflow := scalar.SetByteSlice(candidate[:]); overflow || scalar.IsZero() {
			continue
		}
		privateKey, publicKey := btcec.PrivKeyFromBytes(candidate[:])
		return &KeyPair{privateKey: privateKey, publicKey: publicKey}
	}
}

// KeyPairFromHex parses a 32-byte hex private key, optionally carrying the
// 0x00 secp256k1 prefix.
func KeyPairFromHex(privateKeyHex string) (*KeyPair, error) {
	privateKeyHex = strings.TrimSpace(privateKeyHex)
	if len(privateKeyHex) == 66 && strings.HasPrefix(privateKeyHex, "00") {
		privateKeyHex = privateKeyHex[2:]
	}
	if len(privateKeyHex) != 64 {
		return nil, ErrInvalidPrivateKey
	}

	raw, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	privateKey, publicKey := btcec.PrivKeyFromBytes(raw)
	return &KeyPair{privateKey: privateKey, publicKey: publicKey}, nil
}

// PublicKey returns the 33-byte compressed public key.
func (k *KeyPair) PublicKey() []byte {
	return k.publicKey.SerializeCompressed()
}

// PublicKeyHex returns the upper-case hex compressed public key.
func (k *KeyPair) PublicKeyHex() string {
	return strings.ToUpper(hex.EncodeToString(k.PublicKey()))
}

// PrivateKeyHex returns the upper-case hex private key with the 0x00 prefix.
func (k *KeyPair) PrivateKeyHex() string {
	return "00" + strings.ToUpper(hex.EncodeToString(k.privateKey.Serialize()))
}

// AccountID returns the account controlled by this key pair.
func (k *KeyPair) AccountID() types.AccountID {
	return CalcAccountID(k.PublicKey())
}

// Sign signs sha512Half(message) and returns a fully canonical DER signature.
func (k *KeyPair) Sign(message []byte) []byte {
	hash := common.Sha512Half(message)
	sig := ecdsa.Sign(k.privateKey, hash[:]).Serialize()
	return MakeSignatureCanonical(sig)
}

// Verify checks a DER signature over sha512Half(message) made by publicKey.
// Only fully canonical signatures are accepted.
func Verify(publicKey, message, signature []byte) error {
	pub, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	switch ECDSACanonicality(signature) {
	case CanonicityNone:
		return ErrInvalidSignature
	case CanonicityCanonical:
		return ErrNonCanonicalSignature
	}

	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	hash := common.Sha512Half(message)
	if !sig.Verify(hash[:], pub) {
		return ErrInvalidSignature
	}
	return nil
}
