// Package testing provides test infrastructure for escrow ledger testing.
//
// # Overview
//
// The testing package provides:
//   - TestEnv: an in-memory ledger with a bank, a USD pool and a manual clock
//   - Account: deterministic test accounts with secp256k1 keypairs
//   - Amount helpers: functions for native and issued amounts
//   - Assertions: helpers for balances, request states, results and audits
//
// # Basic Usage
//
//	func TestUnlock(t *testing.T) {
//	    env := testing.NewTestEnv(t)
//
//	    alice := env.Account("alice")
//	    bob := env.Account("bob")
//	    env.Fund(alice)
//
//	    nonce, err := env.Deposit(alice, bob, testing.XRP(6), env.USD())
//	    testing.RequireSuccess(t, err)
//
//	    _, err = env.Swap(alice, nonce, 1)
//	    testing.RequireSuccess(t, err)
//
//	    _, err = env.Withdraw(alice, alice, nonce)
//	    testing.RequireResult(t, err, result.TecTOO_SOON)
//	}
//
// # Clock Control
//
// The test environment uses a ManualClock that can be controlled:
//
//	env.AdvanceTime(2 * time.Hour)
//	env.SetTime(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
//	env.Now()
package testing
