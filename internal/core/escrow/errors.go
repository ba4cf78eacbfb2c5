package escrow

import (
	"errors"

	"github.com/LeJamon/goAssetLock/internal/core/result"
)

// Error is an escrow failure carrying its result code. Sentinels are
// compared with errors.Is; wrapped variants add detail.
type Error struct {
	Result result.Result
	msg    string
}

func (e *Error) Error() string {
	return e.msg
}

func newError(r result.Result, msg string) *Error {
	return &Error{Result: r, msg: msg}
}

var (
	ErrInvalidAmount      = newError(result.TemBAD_AMOUNT, "invalid amount")
	ErrInvalidBeneficiary = newError(result.TemDST_NEEDED, "invalid beneficiary")
	ErrInvalidToken       = newError(result.TemBAD_CURRENCY, "invalid token")
	ErrRequestNotFound    = newError(result.TecNO_ENTRY, "request not found")
	ErrAlreadySwapped     = newError(result.TecDUPLICATE, "already swapped")
	ErrNotSwapped         = newError(result.TecNO_TARGET, "not swapped")
	ErrSlippageExceeded   = newError(result.TecPATH_PARTIAL, "slippage exceeded")
	ErrUnauthorized       = newError(result.TecNO_PERMISSION, "unauthorized")
	ErrTimeoutNotReached  = newError(result.TecTOO_SOON, "Wait until timeout!")
	ErrAlreadyWithdrawn   = newError(result.TecALREADY_WITHDRAWN, "already withdrawn")
	ErrTransferFailed     = newError(result.TecUNFUNDED, "transfer failed")
	ErrConservation       = newError(result.TefINVARIANT_FAILED, "conservation invariant violated")
	ErrPastSequence       = newError(result.TefPAST_SEQ, "sequence already used")
	ErrFutureSequence     = newError(result.TerPRE_SEQ, "sequence ahead of account")
	ErrInternal           = newError(result.TefINTERNAL, "internal error")
)

// ResultOf maps err to its result code: tesSUCCESS for nil, the carried
// code for escrow errors, tefINTERNAL for anything else.
func ResultOf(err error) result.Result {
	if err == nil {
		return result.TesSUCCESS
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Result
	}
	return result.TefINTERNAL
}

var byResult = func() map[result.Result]*Error {
	m := make(map[result.Result]*Error)
	for _, e := range []*Error{
		ErrInvalidAmount, ErrInvalidBeneficiary, ErrInvalidToken,
		ErrRequestNotFound, ErrAlreadySwapped, ErrNotSwapped,
		ErrSlippageExceeded, ErrUnauthorized, ErrTimeoutNotReached,
		ErrAlreadyWithdrawn, ErrTransferFailed, ErrConservation,
		ErrPastSequence, ErrFutureSequence, ErrInternal,
	} {
		m[e.Result] = e
	}
	return m
}()

// ErrorFor returns the sentinel carrying r, or nil if none does.
func ErrorFor(r result.Result) error {
	if e, ok := byResult[r]; ok {
		return e
	}
	return nil
}
