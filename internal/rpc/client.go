package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/core/result"
	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/LeJamon/goAssetLock/internal/crypto"
	"github.com/gorilla/websocket"
)

// Client calls a remote escrow server.
type Client struct {
	url  string
	http *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		url:  strings.TrimRight(baseURL, "/"),
		http: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CallError is a call the server rejected with a non-success engine
// result. It unwraps to the matching escrow sentinel when there is one.
type CallError struct {
	Result result.Result
	Detail string
}

func (e *CallError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Result, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Result, e.Result.Message())
}

func (e *CallError) Unwrap() error {
	return escrow.ErrorFor(e.Result)
}

// Call invokes method with params and decodes the result object into out.
// RPC-level failures are returned as *RpcError.
func (c *Client) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	req := map[string]interface{}{"method": method}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: http status %d", method, resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}

	var status struct {
		Status       string `json:"status"`
		Error        string `json:"error"`
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(envelope.Result, &status); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	if status.Status != "success" {
		return NewRpcError(status.ErrorCode, status.Error, status.ErrorMessage)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}

// ServerInfo is the info object of server_info.
type ServerInfo struct {
	ServerVersion    string           `json:"server_version"`
	Uptime           int64            `json:"uptime"`
	Vault            types.AccountID  `json:"vault"`
	WithdrawalWindow int64            `json:"withdrawal_window"`
	LedgerTime       types.LedgerTime `json:"ledger_time"`
	LastEventSeq     uint64           `json:"last_event_seq"`
	Subscribers      int              `json:"subscribers"`
}

func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	var out struct {
		Info ServerInfo `json:"info"`
	}
	if err := c.Call(ctx, MethodServerInfo, nil, &out); err != nil {
		return nil, err
	}
	return &out.Info, nil
}

// AccountInfo is the result of account_info.
type AccountInfo struct {
	Account      types.AccountID `json:"account"`
	NextSequence uint32          `json:"next_sequence"`
	NextNonce    uint64          `json:"next_nonce"`
	Balance      types.Amount    `json:"balance"`
}

func (c *Client) AccountInfo(ctx context.Context, account types.AccountID) (*AccountInfo, error) {
	var out AccountInfo
	if err := c.Call(ctx, MethodAccountInfo, accountParams{Account: account.Address()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balance returns account's balance of asset.
func (c *Client) Balance(ctx context.Context, account types.AccountID, asset types.Token) (types.Amount, error) {
	var out struct {
		Balance types.Amount `json:"balance"`
	}
	p := accountParams{Account: account.Address(), Token: asset.String()}
	if err := c.Call(ctx, MethodBalance, p, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// Request returns request (creator, nonce).
func (c *Client) Request(ctx context.Context, creator types.AccountID, nonce uint64) (*escrow.Request, error) {
	var out struct {
		Request escrow.Request `json:"request"`
	}
	if err := c.Call(ctx, MethodRequestInfo, requestParams{Creator: creator.Address(), Nonce: nonce}, &out); err != nil {
		return nil, err
	}
	return &out.Request, nil
}

// Requests returns every request of creator.
func (c *Client) Requests(ctx context.Context, creator types.AccountID) ([]escrow.Request, error) {
	var out struct {
		Requests []escrow.Request `json:"requests"`
	}
	if err := c.Call(ctx, MethodAccountRequests, accountParams{Account: creator.Address()}, &out); err != nil {
		return nil, err
	}
	return out.Requests, nil
}

// Events returns logged events selected by p.
func (c *Client) Events(ctx context.Context, p EventsParams) ([]escrow.Event, error) {
	var out struct {
		Events []escrow.Event `json:"events"`
	}
	if err := c.Call(ctx, MethodEscrowEvents, p, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// Audit runs the server's conservation audit.
func (c *Client) Audit(ctx context.Context) (*escrow.AuditReport, bool, error) {
	var out struct {
		Audit    *escrow.AuditReport `json:"audit"`
		Balanced bool                `json:"balanced"`
	}
	if err := c.Call(ctx, MethodEscrowAudit, nil, &out); err != nil {
		return nil, false, err
	}
	return out.Audit, out.Balanced, nil
}

// Fund credits account through the admin fund method.
func (c *Client) Fund(ctx context.Context, account types.AccountID, asset types.Token, amount types.Amount) (types.Amount, error) {
	p := fundParams{Account: account.Address(), Token: asset.String(), Amount: amount}
	var out SubmitResult
	if err := c.Call(ctx, MethodFund, p, &out); err != nil {
		return 0, err
	}
	if !out.Result().IsSuccess() {
		return 0, &CallError{Result: out.Result(), Detail: out.EngineResultDetail}
	}
	return out.Balance, nil
}

// SubmitResult is the reply of a mutating call.
type SubmitResult struct {
	EngineResult        string       `json:"engine_result"`
	EngineResultCode    int          `json:"engine_result_code"`
	EngineResultMessage string       `json:"engine_result_message"`
	EngineResultDetail  string       `json:"engine_result_detail,omitempty"`
	Applied             bool         `json:"applied"`
	Nonce               uint64       `json:"nonce,omitempty"`
	Amount              types.Amount `json:"amount,omitempty"`
	DestinationValue    types.Amount `json:"destination_token_value,omitempty"`
	Balance             types.Amount `json:"balance,omitempty"`
}

// Result returns the engine result code.
func (r *SubmitResult) Result() result.Result {
	return result.Result(r.EngineResultCode)
}

// Submit signs tx for method with keys and sends it. A non-success
// engine result is returned as a *CallError alongside the reply.
func (c *Client) Submit(ctx context.Context, keys *crypto.KeyPair, method string, tx interface{}) (*SubmitResult, error) {
	sp, err := Sign(keys, method, tx)
	if err != nil {
		return nil, err
	}
	var out SubmitResult
	if err := c.Call(ctx, method, sp, &out); err != nil {
		return nil, err
	}
	if !out.Result().IsSuccess() {
		return &out, &CallError{Result: out.Result(), Detail: out.EngineResultDetail}
	}
	return &out, nil
}

func (c *Client) nextCommon(ctx context.Context, keys *crypto.KeyPair) (TxCommon, error) {
	info, err := c.AccountInfo(ctx, keys.AccountID())
	if err != nil {
		return TxCommon{}, err
	}
	return TxCommon{Account: keys.AccountID().Address(), Sequence: info.NextSequence}, nil
}

// CreateDeposit locks value for beneficiary and returns the new nonce.
func (c *Client) CreateDeposit(ctx context.Context, keys *crypto.KeyPair, value types.Amount, token types.Token, beneficiary types.AccountID) (uint64, error) {
	common, err := c.nextCommon(ctx, keys)
	if err != nil {
		return 0, err
	}
	out, err := c.Submit(ctx, keys, MethodCreateDeposit, DepositTx{
		TxCommon:    common,
		Amount:      value,
		Token:       token.String(),
		Beneficiary: beneficiary.Address(),
	})
	if err != nil {
		return 0, err
	}
	return out.Nonce, nil
}

// InitiateSwap swaps request (creator, nonce). A zero creator means the
// signing account.
func (c *Client) InitiateSwap(ctx context.Context, keys *crypto.KeyPair, creator types.AccountID, nonce uint64, minOut types.Amount) (types.Amount, error) {
	common, err := c.nextCommon(ctx, keys)
	if err != nil {
		return 0, err
	}
	tx := SwapTx{TxCommon: common, Nonce: nonce, MinOut: minOut}
	if !creator.IsZero() {
		tx.Creator = creator.Address()
	}
	out, err := c.Submit(ctx, keys, MethodInitiateSwap, tx)
	if err != nil {
		return 0, err
	}
	return out.DestinationValue, nil
}

// Withdraw releases the proceeds of request (creator, nonce).
func (c *Client) Withdraw(ctx context.Context, keys *crypto.KeyPair, creator types.AccountID, nonce uint64) (types.Amount, error) {
	common, err := c.nextCommon(ctx, keys)
	if err != nil {
		return 0, err
	}
	out, err := c.Submit(ctx, keys, MethodWithdraw, WithdrawTx{
		TxCommon: common,
		Creator:  creator.Address(),
		Nonce:    nonce,
	})
	if err != nil {
		return 0, err
	}
	return out.Amount, nil
}

// Subscribe opens the live event stream. The channel is closed when ctx
// ends or the connection drops.
func (c *Client) Subscribe(ctx context.Context, p EventsParams) (<-chan escrow.Event, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = streamQuery(p).Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan escrow.Event)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			var msg StreamMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case out <- msg.Event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// IsResult reports whether err is a call rejected with r.
func IsResult(err error, r result.Result) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Result == r
}
