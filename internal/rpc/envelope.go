package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/core/result"
	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/LeJamon/goAssetLock/internal/crypto"
)

// SignedParams is the params object of every mutating method. Signature
// is a DER signature over SigningMessage(method, tx_json) by
// SigningPubKey, whose account must be tx_json.Account.
type SignedParams struct {
	TxJSON        json.RawMessage `json:"tx_json"`
	SigningPubKey string          `json:"signing_pub_key"`
	Signature     string          `json:"signature"`
}

// TxCommon holds the fields shared by every call.
type TxCommon struct {
	Account  string `json:"Account"`
	Sequence uint32 `json:"Sequence"`
}

// DepositTx is the tx_json of create_deposit.
type DepositTx struct {
	TxCommon
	Amount      types.Amount `json:"Amount"`
	Token       string       `json:"Token"`
	Beneficiary string       `json:"Beneficiary"`
}

// SwapTx is the tx_json of initiate_swap. An empty Creator means Account.
type SwapTx struct {
	TxCommon
	Creator string       `json:"Creator,omitempty"`
	Nonce   uint64       `json:"Nonce"`
	MinOut  types.Amount `json:"MinOut"`
}

// WithdrawTx is the tx_json of withdraw.
type WithdrawTx struct {
	TxCommon
	Creator string `json:"Creator"`
	Nonce   uint64 `json:"Nonce"`
}

// SigningMessage is the byte string a call signature commits to: the
// method name, a zero byte, then the raw tx_json.
func SigningMessage(method string, txJSON []byte) []byte {
	msg := make([]byte, 0, len(method)+1+len(txJSON))
	msg = append(msg, method...)
	msg = append(msg, 0)
	return append(msg, txJSON...)
}

// Sign builds the signed params of method for tx.
func Sign(keys *crypto.KeyPair, method string, tx interface{}) (*SignedParams, error) {
	raw, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}
	sig := keys.Sign(SigningMessage(method, raw))
	return &SignedParams{
		TxJSON:        raw,
		SigningPubKey: keys.PublicKeyHex(),
		Signature:     strings.ToUpper(hex.EncodeToString(sig)),
	}, nil
}

// envelopeError is a rejected envelope. It carries an engine result so the
// reply looks like any other failed call.
type envelopeError struct {
	result result.Result
	detail string
}

func (e *envelopeError) Error() string { return e.detail }

func reject(r result.Result, detail string) *envelopeError {
	return &envelopeError{result: r, detail: detail}
}

// verify checks the envelope of method and decodes its tx_json into tx.
// It returns the call to run, an RPC error for unusable params, or an
// envelope error for a well-formed but invalid call.
func verify(method string, params json.RawMessage, tx interface{}) (*SignedParams, escrow.Call, *RpcError, *envelopeError) {
	var call escrow.Call

	var sp SignedParams
	if len(params) == 0 {
		return nil, call, RpcErrorMissingField("tx_json"), nil
	}
	if err := json.Unmarshal(params, &sp); err != nil {
		return nil, call, RpcErrorInvalidParams("Invalid parameters: " + err.Error()), nil
	}
	if len(sp.TxJSON) == 0 {
		return nil, call, RpcErrorMissingField("tx_json"), nil
	}
	if sp.SigningPubKey == "" {
		return nil, call, RpcErrorMissingField("signing_pub_key"), nil
	}
	if sp.Signature == "" {
		return nil, call, RpcErrorMissingField("signature"), nil
	}

	pub, err := hex.DecodeString(sp.SigningPubKey)
	if err != nil {
		return &sp, call, nil, reject(result.TelBAD_PUBLIC_KEY, "signing_pub_key is not hex")
	}
	sig, err := hex.DecodeString(sp.Signature)
	if err != nil {
		return &sp, call, nil, reject(result.TemBAD_SIGNATURE, "signature is not hex")
	}
	if err := crypto.Verify(pub, SigningMessage(method, sp.TxJSON), sig); err != nil {
		if errors.Is(err, crypto.ErrInvalidPublicKey) {
			return &sp, call, nil, reject(result.TelBAD_PUBLIC_KEY, err.Error())
		}
		return &sp, call, nil, reject(result.TemBAD_SIGNATURE, err.Error())
	}

	if err := json.Unmarshal(sp.TxJSON, tx); err != nil {
		return &sp, call, nil, reject(result.TemMALFORMED, err.Error())
	}
	var common TxCommon
	if err := json.Unmarshal(sp.TxJSON, &common); err != nil {
		return &sp, call, nil, reject(result.TemMALFORMED, err.Error())
	}
	if common.Account == "" {
		return &sp, call, nil, reject(result.TemINVALID, "missing Account")
	}
	account, err := types.ParseAccountID(common.Account)
	if err != nil {
		return &sp, call, nil, reject(result.TemMALFORMED, err.Error())
	}
	if account != crypto.CalcAccountID(pub) {
		return &sp, call, nil, reject(result.TefBAD_SIGNATURE, "signing key does not control Account")
	}
	if common.Sequence == 0 {
		return &sp, call, nil, reject(result.TemBAD_SEQUENCE, "Sequence must be non-zero")
	}

	call.Caller = account
	call.Sequence = common.Sequence
	return &sp, call, nil, nil
}
