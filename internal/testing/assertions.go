package testing

import (
	"testing"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/stretchr/testify/require"
)

// RequireBalance asserts that an account has the expected native balance in drops.
func RequireBalance(t *testing.T, env *TestEnv, acc *Account, expected types.Amount) {
	t.Helper()
	actual := env.Balance(acc)
	require.Equal(t, expected, actual,
		"Account %s balance mismatch: expected %s drops, got %s drops",
		acc.Name, expected, actual)
}

// RequireTokenBalance asserts acc's balance of token.
func RequireTokenBalance(t *testing.T, env *TestEnv, acc *Account, token types.Token, expected types.Amount) {
	t.Helper()
	actual := env.TokenBalance(acc, token)
	require.Equal(t, expected, actual,
		"Account %s %s balance mismatch: expected %s, got %s",
		acc.Name, token, expected, actual)
}

// RequireStatus asserts the lifecycle state of a request.
func RequireStatus(t *testing.T, env *TestEnv, creator *Account, nonce uint64, expected escrow.Status) {
	t.Helper()
	req := env.Request(creator, nonce)
	require.Equal(t, expected, req.Status(),
		"Request %s #%d status mismatch", creator.Name, nonce)
}

// RequireExclusiveValue asserts that exactly one value field of a live
// request is set and that both are zero once withdrawn.
func RequireExclusiveValue(t *testing.T, req escrow.Request) {
	t.Helper()
	switch req.Status() {
	case escrow.StatusCreated:
		require.NotZero(t, req.LockedValue)
		require.Zero(t, req.DestinationTokenValue)
	case escrow.StatusSwapped:
		require.Zero(t, req.LockedValue)
		require.NotZero(t, req.DestinationTokenValue)
	case escrow.StatusWithdrawn:
		require.Zero(t, req.LockedValue)
		require.Zero(t, req.DestinationTokenValue)
	}
}

// RequireConserved runs the escrow audit and fails on any imbalance.
func RequireConserved(t *testing.T, env *TestEnv) *escrow.AuditReport {
	t.Helper()
	report, err := env.Ledger().Audit(env.Context())
	require.NoError(t, err)
	require.True(t, report.Balanced())
	return report
}

// RequireLastEvent asserts the kind of the newest event and returns it.
func RequireLastEvent(t *testing.T, env *TestEnv, kind escrow.EventKind) escrow.Event {
	t.Helper()
	events := env.Ledger().Events(escrow.Filter{})
	require.NotEmpty(t, events, "no events logged")
	last := events[len(events)-1]
	require.Equal(t, kind, last.Kind)
	return last
}
