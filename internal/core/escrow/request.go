package escrow

import (
	"fmt"

	"github.com/LeJamon/goAssetLock/internal/core/types"
)

// Status is the lifecycle state of a request, derived from its fields.
type Status int

const (
	StatusCreated Status = iota
	StatusSwapped
	StatusWithdrawn
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusSwapped:
		return "swapped"
	case StatusWithdrawn:
		return "withdrawn"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Request is one deposit, keyed by (Creator, Nonce). Requests are never
// deleted; a finished request keeps its identity with zeroed values.
type Request struct {
	Creator               types.AccountID  `codec:"c" json:"creator"`
	Nonce                 uint64           `codec:"n" json:"nonce"`
	Unlocker              types.AccountID  `codec:"u" json:"unlocker"`
	Token                 types.Token      `codec:"t" json:"token"`
	UnlockTime            types.LedgerTime `codec:"ut" json:"unlock_time"`
	LockedValue           types.Amount     `codec:"lv" json:"locked_value"`
	DestinationTokenValue types.Amount     `codec:"dv" json:"destination_token_value"`
	CreatedAt             types.LedgerTime `codec:"ca" json:"created_at"`
}

// Status derives the lifecycle state. Exactly one of LockedValue and
// DestinationTokenValue is non-zero before withdrawal.
func (r Request) Status() Status {
	switch {
	case r.LockedValue > 0:
		return StatusCreated
	case r.DestinationTokenValue > 0:
		return StatusSwapped
	default:
		return StatusWithdrawn
	}
}

// counter is the stored per-account next value (nonce or call sequence).
type counter struct {
	Next uint64 `codec:"n"`
}
