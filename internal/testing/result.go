package testing

import (
	"testing"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/core/result"
	"github.com/stretchr/testify/require"
)

// RequireSuccess asserts that a call returned tesSUCCESS.
func RequireSuccess(t *testing.T, err error) {
	t.Helper()
	require.NoError(t, err, "expected tesSUCCESS, got %s", escrow.ResultOf(err))
}

// RequireResult asserts that a call failed with want.
func RequireResult(t *testing.T, err error, want result.Result) {
	t.Helper()
	require.Error(t, err, "expected %s, got tesSUCCESS", want)
	got := escrow.ResultOf(err)
	require.Equal(t, want, got, "expected %s, got %s (%v)", want, got, err)
}
