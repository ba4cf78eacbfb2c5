// Package result defines the result codes every ledger call reports.
package result

import "fmt"

// Result represents a call result code
type Result int

// Result codes are organized by category, following the tes/tec/tef/tel/
// tem/ter families of the XRP Ledger.
const (
	// tesSUCCESS (0)
	TesSUCCESS Result = 0

	// tec codes (100-199): the call was rejected by ledger rules
	TecPATH_PARTIAL      Result = 101
	TecUNFUNDED          Result = 129
	TecNO_TARGET         Result = 138
	TecNO_PERMISSION     Result = 139
	TecNO_ENTRY          Result = 140
	TecDUPLICATE         Result = 149
	TecTOO_SOON          Result = 152
	TecALREADY_WITHDRAWN Result = 174

	// tef codes (-199 to -100): the call could not be applied
	TefINTERNAL         Result = -192
	TefPAST_SEQ         Result = -190
	TefBAD_SIGNATURE    Result = -186
	TefINVARIANT_FAILED Result = -182

	// tel codes (-399 to -300): local error, never applied
	TelBAD_PUBLIC_KEY Result = -396

	// tem codes (-299 to -200): malformed call
	TemMALFORMED     Result = -299
	TemBAD_AMOUNT    Result = -298
	TemBAD_CURRENCY  Result = -297
	TemBAD_SEQUENCE  Result = -283
	TemBAD_SIGNATURE Result = -282
	TemDST_NEEDED    Result = -278
	TemINVALID       Result = -277

	// ter codes (-99 to -1): retry later
	TerPRE_SEQ Result = -92
)

var names = map[Result]string{
	TesSUCCESS:           "tesSUCCESS",
	TecPATH_PARTIAL:      "tecPATH_PARTIAL",
	TecUNFUNDED:          "tecUNFUNDED",
	TecNO_TARGET:         "tecNO_TARGET",
	TecNO_PERMISSION:     "tecNO_PERMISSION",
	TecNO_ENTRY:          "tecNO_ENTRY",
	TecDUPLICATE:         "tecDUPLICATE",
	TecTOO_SOON:          "tecTOO_SOON",
	TecALREADY_WITHDRAWN: "tecALREADY_WITHDRAWN",
	TefINTERNAL:          "tefINTERNAL",
	TefPAST_SEQ:          "tefPAST_SEQ",
	TefBAD_SIGNATURE:     "tefBAD_SIGNATURE",
	TefINVARIANT_FAILED:  "tefINVARIANT_FAILED",
	TelBAD_PUBLIC_KEY:    "telBAD_PUBLIC_KEY",
	TemMALFORMED:         "temMALFORMED",
	TemBAD_AMOUNT:        "temBAD_AMOUNT",
	TemBAD_CURRENCY:      "temBAD_CURRENCY",
	TemBAD_SEQUENCE:      "temBAD_SEQUENCE",
	TemBAD_SIGNATURE:     "temBAD_SIGNATURE",
	TemDST_NEEDED:        "temDST_NEEDED",
	TemINVALID:           "temINVALID",
	TerPRE_SEQ:           "terPRE_SEQ",
}

var byName = func() map[string]Result {
	m := make(map[string]Result, len(names))
	for r, n := range names {
		m[n] = r
	}
	return m
}()

// String returns the token form of the result, e.g. "tecTOO_SOON".
func (r Result) String() string {
	if n, ok := names[r]; ok {
		return n
	}
	return fmt.Sprintf("Unknown(%d)", r)
}

// Parse looks a result up by its token.
func Parse(token string) (Result, bool) {
	r, ok := byName[token]
	return r, ok
}

// IsSuccess returns true if the result indicates success
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec code
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTef returns true if this is a tef (failure) code
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTel returns true if this is a tel (local error) code
func (r Result) IsTel() bool {
	return r >= -399 && r <= -300
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// IsTer returns true if this is a ter (retry) code
func (r Result) IsTer() bool {
	return r >= -99 && r <= -1
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The call was applied."
	case TecPATH_PARTIAL:
		return "Swap output below the requested minimum."
	case TecUNFUNDED:
		return "Insufficient balance to complete the transfer."
	case TecNO_TARGET:
		return "Request has not been swapped yet."
	case TecNO_PERMISSION:
		return "Caller is not the request creator."
	case TecNO_ENTRY:
		return "No request for this creator and nonce."
	case TecDUPLICATE:
		return "Request has already been swapped."
	case TecTOO_SOON:
		return "Wait until timeout!"
	case TecALREADY_WITHDRAWN:
		return "Request proceeds have already been withdrawn."
	case TefINTERNAL:
		return "Internal error."
	case TefPAST_SEQ:
		return "Sequence number has already passed."
	case TefBAD_SIGNATURE:
		return "Invalid signature."
	case TefINVARIANT_FAILED:
		return "Held balances do not match stored requests."
	case TelBAD_PUBLIC_KEY:
		return "Public key is not valid."
	case TemBAD_AMOUNT:
		return "Can only send positive amounts."
	case TemBAD_CURRENCY:
		return "Malformed destination token."
	case TemBAD_SEQUENCE:
		return "Sequence number must be non-zero."
	case TemDST_NEEDED:
		return "Beneficiary is required."
	case TemINVALID:
		return "The call is ill-formed."
	case TemMALFORMED:
		return "Malformed call."
	case TerPRE_SEQ:
		return "Missing/inapplicable prior call."
	default:
		return r.String()
	}
}
