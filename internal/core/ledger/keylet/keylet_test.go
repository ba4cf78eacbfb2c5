package keylet

import (
	"bytes"
	"testing"

	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestKeyletDistinct(t *testing.T) {
	alice := types.AccountID{1}
	bob := types.AccountID{2}

	assert.Equal(t, Request(alice, 1), Request(alice, 1))
	assert.NotEqual(t, Request(alice, 1), Request(alice, 2))
	assert.NotEqual(t, Request(alice, 1), Request(bob, 1))
	assert.NotEqual(t, Request(alice, 1).Key, Nonce(alice).Key)
}

func TestBalanceKeyletPerAsset(t *testing.T) {
	holder := types.AccountID{7}
	dai := types.Token{Currency: "DAI", Issuer: types.AccountID{9}}

	assert.NotEqual(t, Balance(holder, types.Native), Balance(holder, dai))
	assert.Equal(t, TypeBalance, Balance(holder, dai).Type)
}

func TestBytesRoundTrip(t *testing.T) {
	k := Request(types.AccountID{3}, 42)
	raw := k.Bytes()
	require.Len(t, raw, KeySize)
	assert.Equal(t, byte(TypeRequest), raw[0])

	back, ok := FromBytes(raw)
	require.True(t, ok)
	assert.Equal(t, k, back)

	_, ok = FromBytes(raw[:10])
	assert.False(t, ok)
}

func TestRangeCoversType(t *testing.T) {
	start, end := Range(TypeRequest)
	key := Request(types.AccountID{5}, 1).Bytes()

	assert.True(t, bytes.Compare(start, key) <= 0)
	assert.True(t, bytes.Compare(key, end) <= 0)

	other := Nonce(types.AccountID{5}).Bytes()
	assert.False(t, bytes.Compare(start, other) <= 0 && bytes.Compare(other, end) <= 0)
}
