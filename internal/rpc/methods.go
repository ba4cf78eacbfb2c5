package rpc

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/core/result"
	"github.com/LeJamon/goAssetLock/internal/core/types"
)

// Method names.
const (
	MethodServerInfo      = "server_info"
	MethodAccountInfo     = "account_info"
	MethodCreateDeposit   = "create_deposit"
	MethodInitiateSwap    = "initiate_swap"
	MethodWithdraw        = "withdraw"
	MethodRequestInfo     = "request_info"
	MethodAccountRequests = "account_requests"
	MethodEscrowEvents    = "escrow_events"
	MethodEscrowAudit     = "escrow_audit"
	MethodBalance         = "balance"
	MethodFund            = "fund"
)

func (s *Server) registerAllMethods() {
	s.registry.Register(MethodServerInfo, HandlerFunc(s.serverInfo))
	s.registry.Register(MethodAccountInfo, HandlerFunc(s.accountInfo))
	s.registry.Register(MethodCreateDeposit, HandlerFunc(s.createDeposit))
	s.registry.Register(MethodInitiateSwap, HandlerFunc(s.initiateSwap))
	s.registry.Register(MethodWithdraw, HandlerFunc(s.withdraw))
	s.registry.Register(MethodRequestInfo, HandlerFunc(s.requestInfo))
	s.registry.Register(MethodAccountRequests, HandlerFunc(s.accountRequests))
	s.registry.Register(MethodEscrowEvents, HandlerFunc(s.escrowEvents))
	s.registry.Register(MethodEscrowAudit, HandlerFunc(s.escrowAudit))
	s.registry.Register(MethodBalance, HandlerFunc(s.balance))
	s.registry.Register(MethodFund, AdminFunc(s.fund))
}

func decodeParams(params json.RawMessage, v interface{}) *RpcError {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	return nil
}

func requireAccount(field, value string) (types.AccountID, *RpcError) {
	if value == "" {
		return types.AccountID{}, RpcErrorMissingField(field)
	}
	id, err := types.ParseAccountID(value)
	if err != nil {
		return types.AccountID{}, RpcErrorActMalformed("Account malformed: " + value)
	}
	return id, nil
}

func optionalAccount(field, value string) (types.AccountID, *RpcError) {
	if value == "" {
		return types.AccountID{}, nil
	}
	id, err := types.ParseAccountID(value)
	if err != nil {
		return types.AccountID{}, RpcErrorInvalidField(field)
	}
	return id, nil
}

// engineResult builds the reply of a mutating call. Rejected calls still
// succeed at the RPC level, as a submit does.
func engineResult(sp *SignedParams, r result.Result, err error, applied map[string]interface{}) map[string]interface{} {
	resp := map[string]interface{}{
		"engine_result":         r.String(),
		"engine_result_code":    int(r),
		"engine_result_message": r.Message(),
		"applied":               r.IsSuccess(),
	}
	if sp != nil {
		resp["tx_json"] = sp.TxJSON
	}
	if r.IsSuccess() {
		for k, v := range applied {
			resp[k] = v
		}
	} else if err != nil {
		resp["engine_result_detail"] = err.Error()
	}
	return resp
}

func (s *Server) serverInfo(ctx *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	return map[string]interface{}{
		"info": map[string]interface{}{
			"server_version":    s.version,
			"uptime":            int64(time.Since(s.started).Seconds()),
			"vault":             s.ledger.Vault().Address(),
			"withdrawal_window": int64(s.ledger.WithdrawalWindow().Seconds()),
			"ledger_time":       s.ledger.LedgerTime(),
			"last_event_seq":    s.ledger.LastEventSeq(),
			"subscribers":       s.hub.Subscribers(),
		},
	}, nil
}

type accountParams struct {
	Account string `json:"account"`
	Token   string `json:"token,omitempty"`
}

func (s *Server) accountInfo(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p accountParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	account, rpcErr := requireAccount("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}

	seq, err := s.ledger.NextSequence(ctx.Context, account)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	nonce, err := s.ledger.NextNonce(ctx.Context, account)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	bal, err := s.ledger.Balance(ctx.Context, account, types.Native)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	return map[string]interface{}{
		"account":       account.Address(),
		"next_sequence": seq,
		"next_nonce":    nonce,
		"balance":       bal,
	}, nil
}

func (s *Server) balance(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p accountParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	account, rpcErr := requireAccount("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	asset := types.Native
	if p.Token != "" {
		t, err := types.ParseToken(p.Token)
		if err != nil {
			return nil, RpcErrorInvalidField("token")
		}
		asset = t
	}

	bal, err := s.ledger.Balance(ctx.Context, account, asset)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	return map[string]interface{}{
		"account": account.Address(),
		"token":   asset.String(),
		"balance": bal,
	}, nil
}

func (s *Server) createDeposit(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var tx DepositTx
	sp, call, rpcErr, envErr := verify(MethodCreateDeposit, params, &tx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if envErr != nil {
		return engineResult(sp, envErr.result, envErr, nil), nil
	}

	token, err := types.ParseToken(tx.Token)
	if err != nil {
		return engineResult(sp, result.TemBAD_CURRENCY, err, nil), nil
	}
	beneficiary, err := types.ParseAccountID(tx.Beneficiary)
	if err != nil {
		return engineResult(sp, result.TemMALFORMED, err, nil), nil
	}
	call.Value = tx.Amount

	nonce, err := s.ledger.CreateDeposit(ctx.Context, call, token, beneficiary)
	return engineResult(sp, escrow.ResultOf(err), err, map[string]interface{}{
		"nonce": nonce,
	}), nil
}

func (s *Server) initiateSwap(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var tx SwapTx
	sp, call, rpcErr, envErr := verify(MethodInitiateSwap, params, &tx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if envErr != nil {
		return engineResult(sp, envErr.result, envErr, nil), nil
	}

	creator, err := types.ParseAccountID(tx.Creator)
	if err != nil {
		return engineResult(sp, result.TemMALFORMED, err, nil), nil
	}

	out, err := s.ledger.InitiateSwap(ctx.Context, call, creator, tx.Nonce, tx.MinOut)
	return engineResult(sp, escrow.ResultOf(err), err, map[string]interface{}{
		"destination_token_value": out,
	}), nil
}

func (s *Server) withdraw(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var tx WithdrawTx
	sp, call, rpcErr, envErr := verify(MethodWithdraw, params, &tx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if envErr != nil {
		return engineResult(sp, envErr.result, envErr, nil), nil
	}

	creator, err := types.ParseAccountID(tx.Creator)
	if err != nil {
		return engineResult(sp, result.TemMALFORMED, err, nil), nil
	}

	amount, err := s.ledger.Withdraw(ctx.Context, call, creator, tx.Nonce)
	return engineResult(sp, escrow.ResultOf(err), err, map[string]interface{}{
		"amount": amount,
	}), nil
}

type requestParams struct {
	Creator string `json:"creator"`
	Nonce   uint64 `json:"nonce"`
}

func (s *Server) requestInfo(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p requestParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	creator, rpcErr := requireAccount("creator", p.Creator)
	if rpcErr != nil {
		return nil, rpcErr
	}

	req, err := s.ledger.RequestOf(ctx.Context, creator, p.Nonce)
	switch {
	case errors.Is(err, escrow.ErrRequestNotFound):
		return nil, RpcErrorObjectNotFound(err.Error())
	case err != nil:
		return nil, RpcErrorInternal(err.Error())
	}
	return map[string]interface{}{
		"request":       req,
		"request_state": req.Status().String(),
	}, nil
}

func (s *Server) accountRequests(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p accountParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	account, rpcErr := requireAccount("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}

	reqs, err := s.ledger.RequestsOf(ctx.Context, account)
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	return map[string]interface{}{
		"account":    account.Address(),
		"requests":   reqs,
		"next_nonce": uint64(len(reqs)) + 1,
	}, nil
}

// EventsParams selects events for escrow_events and the websocket stream.
type EventsParams struct {
	Kinds    []string `json:"kinds,omitempty"`
	Sender   string   `json:"sender,omitempty"`
	Receiver string   `json:"receiver,omitempty"`
	Creator  string   `json:"creator,omitempty"`
	Token    string   `json:"token,omitempty"`
	AfterSeq uint64   `json:"after_seq,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// MaxEventsLimit caps one escrow_events page.
const MaxEventsLimit = 1000

// Filter converts p to an escrow.Filter.
func (p EventsParams) Filter() (escrow.Filter, *RpcError) {
	f := escrow.Filter{AfterSeq: p.AfterSeq, Limit: p.Limit}
	for _, k := range p.Kinds {
		kind := escrow.EventKind(k)
		if !kind.Valid() {
			return f, RpcErrorInvalidField("kinds")
		}
		f.Kinds = append(f.Kinds, kind)
	}

	var rpcErr *RpcError
	if f.Sender, rpcErr = optionalAccount("sender", p.Sender); rpcErr != nil {
		return f, rpcErr
	}
	if f.Receiver, rpcErr = optionalAccount("receiver", p.Receiver); rpcErr != nil {
		return f, rpcErr
	}
	if f.Creator, rpcErr = optionalAccount("creator", p.Creator); rpcErr != nil {
		return f, rpcErr
	}
	if p.Token != "" {
		t, err := types.ParseToken(p.Token)
		if err != nil {
			return f, RpcErrorInvalidField("token")
		}
		f.Token = t
	}
	if f.Limit < 0 {
		return f, RpcErrorInvalidField("limit")
	}
	return f, nil
}

func (s *Server) escrowEvents(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p EventsParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	f, rpcErr := p.Filter()
	if rpcErr != nil {
		return nil, rpcErr
	}
	if f.Limit == 0 || f.Limit > MaxEventsLimit {
		f.Limit = MaxEventsLimit
	}

	var events []escrow.Event
	if s.events != nil {
		var err error
		events, err = s.events.List(ctx.Context, f)
		if err != nil {
			return nil, RpcErrorInternal(err.Error())
		}
	} else {
		events = s.ledger.Events(f)
	}
	if events == nil {
		events = []escrow.Event{}
	}

	return map[string]interface{}{
		"events":   events,
		"last_seq": s.ledger.LastEventSeq(),
	}, nil
}

func (s *Server) escrowAudit(ctx *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	report, err := s.ledger.Audit(ctx.Context)
	if err != nil && !errors.Is(err, escrow.ErrConservation) {
		return nil, RpcErrorInternal(err.Error())
	}
	return map[string]interface{}{
		"audit":         report,
		"balanced":      err == nil,
		"engine_result": escrow.ResultOf(err).String(),
	}, nil
}

type fundParams struct {
	Account string       `json:"account"`
	Token   string       `json:"token,omitempty"`
	Amount  types.Amount `json:"amount"`
}

func (s *Server) fund(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p fundParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	account, rpcErr := requireAccount("account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	asset := types.Native
	if p.Token != "" {
		t, err := types.ParseToken(p.Token)
		if err != nil {
			return nil, RpcErrorInvalidField("token")
		}
		asset = t
	}

	err := s.ledger.Fund(ctx.Context, account, asset, p.Amount)
	resp := engineResult(nil, escrow.ResultOf(err), err, nil)
	if err == nil {
		bal, berr := s.ledger.Balance(ctx.Context, account, asset)
		if berr != nil {
			return nil, RpcErrorInternal(berr.Error())
		}
		resp["balance"] = bal
	}
	return resp, nil
}
