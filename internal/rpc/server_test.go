package rpc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/core/result"
	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/LeJamon/goAssetLock/internal/rpc"
	jtx "github.com/LeJamon/goAssetLock/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	env    *jtx.TestEnv
	server *rpc.Server
	http   *httptest.Server
	client *rpc.Client
	alice  *jtx.Account
	bob    *jtx.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := jtx.NewTestEnv(t)
	server := rpc.NewServer(env.Ledger(), rpc.WithVersion("test"))
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		server.Hub().Close()
		ts.Close()
	})

	f := &fixture{
		env:    env,
		server: server,
		http:   ts,
		client: rpc.NewClient(ts.URL),
		alice:  env.Account("alice"),
		bob:    env.Account("bob"),
	}
	env.Fund(f.alice, f.bob)
	return f
}

func postRaw(t *testing.T, url, body string) map[string]interface{} {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out struct {
		Result map[string]interface{} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	return out.Result
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func TestServer_ServerInfo(t *testing.T) {
	f := newFixture(t)

	info, err := f.client.ServerInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", info.ServerVersion)
	assert.Equal(t, f.env.Ledger().Vault(), info.Vault)
	assert.Equal(t, int64(escrow.DefaultWithdrawalWindow.Seconds()), info.WithdrawalWindow)
	assert.Equal(t, f.env.LedgerTime(), info.LedgerTime)
}

func TestServer_GetDefaultsToServerInfo(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.http.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Result struct {
			Status string                 `json:"status"`
			Info   map[string]interface{} `json:"info"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "success", out.Result.Status)
	assert.Equal(t, "test", out.Result.Info["server_version"])
}

func TestServer_Options(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodOptions, f.http.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_RequestErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		body  string
		error string
	}{
		{"invalid json", `{`, "jsonInvalid"},
		{"missing method", `{"params":[{}]}`, "missingCommand"},
		{"unknown method", `{"method":"ledger_accept"}`, "unknownCmd"},
		{"missing account", `{"method":"account_info","params":[{}]}`, "invalidParams"},
		{"malformed account", `{"method":"account_info","params":[{"account":"nope"}]}`, "actMalformed"},
		{"bad kind", `{"method":"escrow_events","params":[{"kinds":["Burned"]}]}`, "invalidParams"},
		{"missing tx_json", `{"method":"create_deposit","params":[{}]}`, "invalidParams"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := postRaw(t, f.http.URL, tt.body)
			assert.Equal(t, "error", res["status"])
			assert.Equal(t, tt.error, res["error"])
		})
	}
}

func TestServer_ErrorEchoesRequest(t *testing.T) {
	f := newFixture(t)

	res := postRaw(t, f.http.URL, `{"method":"request_info","params":[{"creator":"`+f.alice.Address+`","nonce":9}]}`)
	assert.Equal(t, "objectNotFound", res["error"])
	req, ok := res["request"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "request_info", req["command"])
}

func TestServer_Registry(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []string{
		"account_info", "account_requests", "balance", "create_deposit", "escrow_audit",
		"escrow_events", "fund", "initiate_swap", "request_info", "server_info", "withdraw",
	}, f.server.Registry().List())
}

// ---------------------------------------------------------------------------
// Calls through the client
// ---------------------------------------------------------------------------

func TestClient_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	usd := f.env.USD()

	nonce, err := f.client.CreateDeposit(ctx, f.alice.Keys, jtx.XRP(6), usd, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	req, err := f.client.Request(ctx, f.alice.ID, nonce)
	require.NoError(t, err)
	assert.Equal(t, escrow.StatusCreated, req.Status())
	assert.Equal(t, jtx.XRP(6), req.LockedValue)
	assert.Equal(t, f.bob.ID, req.Unlocker)
	assert.Equal(t, usd, req.Token)

	out, err := f.client.InitiateSwap(ctx, f.alice.Keys, types.AccountID{}, nonce, 1)
	require.NoError(t, err)
	require.NotZero(t, out)

	got, err := f.client.Withdraw(ctx, f.bob.Keys, f.alice.ID, nonce)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	bal, err := f.client.Balance(ctx, f.bob.ID, usd)
	require.NoError(t, err)
	assert.Equal(t, out, bal)

	reqs, err := f.client.Requests(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, escrow.StatusWithdrawn, reqs[0].Status())

	info, err := f.client.AccountInfo(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), info.NextSequence)
	assert.Equal(t, uint64(2), info.NextNonce)
	assert.Equal(t, jtx.XRP(jtx.DefaultFunding)-jtx.XRP(6), info.Balance)

	events, err := f.client.Events(ctx, rpc.EventsParams{Creator: f.alice.Address})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, escrow.EventDeposited, events[0].Kind)
	assert.Equal(t, escrow.EventSwapped, events[1].Kind)
	assert.Equal(t, escrow.EventUnlockerWithdrew, events[2].Kind)

	report, balanced, err := f.client.Audit(ctx)
	require.NoError(t, err)
	assert.True(t, balanced)
	assert.Equal(t, 1, report.Withdrawn)
}

func TestClient_CreatorBeforeTimeout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	nonce, err := f.client.CreateDeposit(ctx, f.alice.Keys, jtx.XRP(6), f.env.USD(), f.bob.ID)
	require.NoError(t, err)
	_, err = f.client.InitiateSwap(ctx, f.alice.Keys, f.alice.ID, nonce, 1)
	require.NoError(t, err)

	_, err = f.client.Withdraw(ctx, f.alice.Keys, f.alice.ID, nonce)
	require.Error(t, err)
	assert.True(t, errors.Is(err, escrow.ErrTimeoutNotReached))
	assert.True(t, rpc.IsResult(err, result.TecTOO_SOON))
	assert.Contains(t, err.Error(), "Wait until timeout!")

	f.env.AdvanceTime(escrow.DefaultWithdrawalWindow)
	_, err = f.client.Withdraw(ctx, f.alice.Keys, f.alice.ID, nonce)
	require.NoError(t, err)
}

func TestClient_RejectedCallKeepsSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.client.InitiateSwap(ctx, f.alice.Keys, f.alice.ID, 7, 1)
	require.ErrorIs(t, err, escrow.ErrRequestNotFound)

	info, err := f.client.AccountInfo(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), info.NextSequence)
}

// ---------------------------------------------------------------------------
// Signed envelopes
// ---------------------------------------------------------------------------

func submitSigned(t *testing.T, f *fixture, method string, sp *rpc.SignedParams) *rpc.SubmitResult {
	t.Helper()
	var out rpc.SubmitResult
	require.NoError(t, f.client.Call(context.Background(), method, sp, &out))
	return &out
}

func depositTx(f *fixture, seq uint32) rpc.DepositTx {
	return rpc.DepositTx{
		TxCommon:    rpc.TxCommon{Account: f.alice.Address, Sequence: seq},
		Amount:      jtx.XRP(1),
		Token:       f.env.USD().String(),
		Beneficiary: f.bob.Address,
	}
}

func TestEnvelope_Rejections(t *testing.T) {
	f := newFixture(t)

	t.Run("wrong key", func(t *testing.T) {
		sp, err := rpc.Sign(f.bob.Keys, rpc.MethodCreateDeposit, depositTx(f, 1))
		require.NoError(t, err)
		out := submitSigned(t, f, rpc.MethodCreateDeposit, sp)
		assert.Equal(t, result.TefBAD_SIGNATURE, out.Result())
		assert.False(t, out.Applied)
	})

	t.Run("tampered tx_json", func(t *testing.T) {
		sp, err := rpc.Sign(f.alice.Keys, rpc.MethodCreateDeposit, depositTx(f, 1))
		require.NoError(t, err)
		sp.TxJSON = bytes.Replace(sp.TxJSON, []byte(`"1000000"`), []byte(`"9000000"`), 1)
		out := submitSigned(t, f, rpc.MethodCreateDeposit, sp)
		assert.Equal(t, result.TemBAD_SIGNATURE, out.Result())
	})

	t.Run("signed for another method", func(t *testing.T) {
		sp, err := rpc.Sign(f.alice.Keys, rpc.MethodWithdraw, depositTx(f, 1))
		require.NoError(t, err)
		out := submitSigned(t, f, rpc.MethodCreateDeposit, sp)
		assert.Equal(t, result.TemBAD_SIGNATURE, out.Result())
	})

	t.Run("bad public key", func(t *testing.T) {
		sp, err := rpc.Sign(f.alice.Keys, rpc.MethodCreateDeposit, depositTx(f, 1))
		require.NoError(t, err)
		sp.SigningPubKey = "02" + sp.SigningPubKey[4:]
		out := submitSigned(t, f, rpc.MethodCreateDeposit, sp)
		assert.Equal(t, result.TelBAD_PUBLIC_KEY, out.Result())
	})

	t.Run("zero sequence", func(t *testing.T) {
		sp, err := rpc.Sign(f.alice.Keys, rpc.MethodCreateDeposit, depositTx(f, 0))
		require.NoError(t, err)
		out := submitSigned(t, f, rpc.MethodCreateDeposit, sp)
		assert.Equal(t, result.TemBAD_SEQUENCE, out.Result())
	})

	t.Run("future sequence", func(t *testing.T) {
		sp, err := rpc.Sign(f.alice.Keys, rpc.MethodCreateDeposit, depositTx(f, 5))
		require.NoError(t, err)
		out := submitSigned(t, f, rpc.MethodCreateDeposit, sp)
		assert.Equal(t, result.TerPRE_SEQ, out.Result())
	})

	// nothing above was applied
	nonce, err := f.env.Ledger().NextNonce(context.Background(), f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)
}

func TestEnvelope_Replay(t *testing.T) {
	f := newFixture(t)

	sp, err := rpc.Sign(f.alice.Keys, rpc.MethodCreateDeposit, depositTx(f, 1))
	require.NoError(t, err)

	first := submitSigned(t, f, rpc.MethodCreateDeposit, sp)
	require.Equal(t, result.TesSUCCESS, first.Result(), first.EngineResultDetail)
	assert.True(t, first.Applied)
	assert.Equal(t, uint64(1), first.Nonce)

	again := submitSigned(t, f, rpc.MethodCreateDeposit, sp)
	assert.Equal(t, result.TefPAST_SEQ, again.Result())
	assert.Equal(t, "tefPAST_SEQ", again.EngineResult)

	jtx.RequireBalance(t, f.env, f.alice, jtx.XRP(jtx.DefaultFunding)-jtx.XRP(1))
}

func TestEnvelope_EscrowResultCodes(t *testing.T) {
	f := newFixture(t)

	tx := depositTx(f, 1)
	tx.Token = "EUR"
	sp, err := rpc.Sign(f.alice.Keys, rpc.MethodCreateDeposit, tx)
	require.NoError(t, err)
	out := submitSigned(t, f, rpc.MethodCreateDeposit, sp)
	assert.Equal(t, result.TemBAD_CURRENCY, out.Result())

	tx = depositTx(f, 1)
	tx.Beneficiary = ""
	sp, err = rpc.Sign(f.alice.Keys, rpc.MethodCreateDeposit, tx)
	require.NoError(t, err)
	out = submitSigned(t, f, rpc.MethodCreateDeposit, sp)
	assert.Equal(t, result.TemDST_NEEDED, out.Result())

	tx = depositTx(f, 1)
	tx.Amount = 0
	sp, err = rpc.Sign(f.alice.Keys, rpc.MethodCreateDeposit, tx)
	require.NoError(t, err)
	out = submitSigned(t, f, rpc.MethodCreateDeposit, sp)
	assert.Equal(t, result.TemBAD_AMOUNT, out.Result())
}

// ---------------------------------------------------------------------------
// Event history and stream
// ---------------------------------------------------------------------------

type staticStore []escrow.Event

func (s staticStore) List(_ context.Context, f escrow.Filter) ([]escrow.Event, error) {
	var out []escrow.Event
	for _, ev := range s {
		if f.Match(ev) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func TestServer_EventsFromStore(t *testing.T) {
	env := jtx.NewTestEnv(t)
	store := staticStore{
		{Seq: 1, Kind: escrow.EventDeposited, Creator: env.Account("carol").ID, Nonce: 1},
	}
	server := rpc.NewServer(env.Ledger(), rpc.WithEventStore(store))
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	events, err := rpc.NewClient(ts.URL).Events(context.Background(), rpc.EventsParams{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, env.Account("carol").ID, events[0].Creator)
}

func TestHub_Stream(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := f.client.Subscribe(ctx, rpc.EventsParams{
		Kinds:   []string{string(escrow.EventSwapped)},
		Creator: f.alice.Address,
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.server.Hub().Subscribers() == 1 },
		5*time.Second, 10*time.Millisecond)

	nonce, err := f.env.Deposit(f.alice, f.bob, jtx.XRP(6), f.env.USD())
	jtx.RequireSuccess(t, err)
	out, err := f.env.Swap(f.alice, nonce, 1)
	jtx.RequireSuccess(t, err)

	select {
	case ev, ok := <-stream:
		require.True(t, ok)
		assert.Equal(t, escrow.EventSwapped, ev.Kind)
		assert.Equal(t, f.alice.ID, ev.Caller)
		assert.Equal(t, out, ev.Amount)
		assert.Equal(t, uint64(2), ev.Seq)
	case <-ctx.Done():
		t.Fatal("no event received")
	}

	cancel()
	require.Eventually(t, func() bool { return f.server.Hub().Subscribers() == 0 },
		5*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsBadFilter(t *testing.T) {
	f := newFixture(t)
	_, err := f.client.Subscribe(context.Background(), rpc.EventsParams{Kinds: []string{"Burned"}})
	assert.Error(t, err)
}

func TestServer_FundRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carol := f.env.Account("carol")

	_, err := f.client.Fund(ctx, carol.ID, types.Native, jtx.XRP(10))
	var rpcErr *rpc.RpcError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "commandUntrusted", rpcErr.ErrorString)

	server := rpc.NewServer(f.env.Ledger(), rpc.WithAdmin("127.0.0.1"))
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()
	admin := rpc.NewClient(ts.URL)

	bal, err := admin.Fund(ctx, carol.ID, types.Native, jtx.XRP(10))
	require.NoError(t, err)
	assert.Equal(t, jtx.XRP(10), bal)

	_, err = admin.Fund(ctx, f.env.Ledger().Vault(), types.Native, 1)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)
}

func fundRequest(t *testing.T, server *rpc.Server, remote string, header map[string]string, account *jtx.Account) map[string]interface{} {
	t.Helper()
	body := `{"method":"fund","params":[{"account":"` + account.Address + `","token":"XRP","amount":"999000000000"}]}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.RemoteAddr = remote
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Result map[string]interface{} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Result
}

func TestServer_AdminIgnoresForwardingHeaders(t *testing.T) {
	f := newFixture(t)
	mallory := f.env.Account("mallory")
	server := rpc.NewServer(f.env.Ledger(), rpc.WithAdmin("10.0.0.1"))

	for _, header := range []map[string]string{
		{"X-Forwarded-For": "10.0.0.1"},
		{"X-Real-IP": "10.0.0.1"},
	} {
		res := fundRequest(t, server, "203.0.113.9:4444", header, mallory)
		assert.Equal(t, "error", res["status"])
		assert.Equal(t, "commandUntrusted", res["error"])
	}
	assert.Zero(t, f.env.Balance(mallory))

	res := fundRequest(t, server, "10.0.0.1:4444", nil, mallory)
	assert.Equal(t, "success", res["status"])
	assert.Equal(t, jtx.Drops(999000000000), f.env.Balance(mallory))
}

func TestServer_AdminIPv6(t *testing.T) {
	f := newFixture(t)
	carol := f.env.Account("carol")
	server := rpc.NewServer(f.env.Ledger(), rpc.WithAdmin("::1"))

	res := fundRequest(t, server, "[::1]:5005", nil, carol)
	assert.Equal(t, "success", res["status"])
}

func TestServer_TrustedProxy(t *testing.T) {
	f := newFixture(t)
	carol := f.env.Account("carol")
	server := rpc.NewServer(f.env.Ledger(),
		rpc.WithAdmin("10.0.0.1"),
		rpc.WithTrustedProxies("192.168.1.1"),
	)

	// only the entry appended by the proxy counts
	res := fundRequest(t, server, "203.0.113.9:4444", map[string]string{"X-Forwarded-For": "10.0.0.1"}, carol)
	assert.Equal(t, "commandUntrusted", res["error"])
	res = fundRequest(t, server, "192.168.1.1:4444", map[string]string{"X-Forwarded-For": "10.0.0.1, 203.0.113.9"}, carol)
	assert.Equal(t, "commandUntrusted", res["error"])

	res = fundRequest(t, server, "192.168.1.1:4444", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, carol)
	assert.Equal(t, "success", res["status"])
}
