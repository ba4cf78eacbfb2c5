package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genesisAddress = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
const genesisHex = "B5F762798A53D543A014CAF8B297CFF8F2F937E8"

func TestParseAccountID(t *testing.T) {
	fromAddr, err := ParseAccountID(genesisAddress)
	require.NoError(t, err)
	assert.Equal(t, genesisHex, fromAddr.Hex())

	fromHex, err := ParseAccountID(genesisHex)
	require.NoError(t, err)
	assert.Equal(t, fromAddr, fromHex)
	assert.Equal(t, genesisAddress, fromHex.Address())

	zero, err := ParseAccountID("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseAccountID("not-an-address")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAccountIDText(t *testing.T) {
	id := MustParseAccountID(genesisAddress)
	text, err := id.MarshalText()
	require.NoError(t, err)

	var back AccountID
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, id, back)
}

func TestAmountArithmetic(t *testing.T) {
	sum, err := Amount(2).Add(3)
	require.NoError(t, err)
	assert.Equal(t, Amount(5), sum)

	_, err = Amount(math.MaxUint64).Add(1)
	assert.ErrorIs(t, err, ErrAmountOverflow)

	_, err = Amount(1).Sub(2)
	assert.ErrorIs(t, err, ErrAmountUnderflow)

	assert.Equal(t, Amount(6_000_000), Units(6))

	parsed, err := ParseAmount("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, Amount(math.MaxUint64), parsed)

	_, err = ParseAmount("-1")
	assert.Error(t, err)
}

func TestTokenValidate(t *testing.T) {
	issuer := MustParseAccountID(genesisAddress)

	assert.NoError(t, Token{Currency: "DAI", Issuer: issuer}.Validate())
	assert.ErrorIs(t, Token{}.Validate(), ErrInvalidToken)
	assert.ErrorIs(t, Native.Validate(), ErrInvalidToken)
	assert.ErrorIs(t, Token{Currency: "DAI"}.Validate(), ErrInvalidToken)
	assert.ErrorIs(t, Token{Currency: "DAIX", Issuer: issuer}.Validate(), ErrInvalidToken)
}

func TestParseToken(t *testing.T) {
	issuer := MustParseAccountID(genesisAddress)
	dai := Token{Currency: "DAI", Issuer: issuer}

	parsed, err := ParseToken(dai.String())
	require.NoError(t, err)
	assert.Equal(t, dai, parsed)

	native, err := ParseToken("XRP")
	require.NoError(t, err)
	assert.True(t, native.IsNative())

	_, err = ParseToken("DAI")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLedgerTime(t *testing.T) {
	when := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	lt := ToLedgerTime(when)
	assert.True(t, lt.IsSet())
	assert.Equal(t, when, lt.Time())
	assert.Equal(t, when.Add(2*time.Hour), lt.Add(2*time.Hour).Time())

	assert.False(t, ToLedgerTime(time.Unix(0, 0)).IsSet())
}
