package types

import "time"

// LedgerEpoch is January 1, 2000 00:00:00 UTC in Unix time.
const LedgerEpoch int64 = 946684800

// LedgerTime is seconds since LedgerEpoch. Zero means "unset".
type LedgerTime uint32

// ToLedgerTime converts a wall-clock time to ledger time.
// Times before the epoch clamp to zero.
func ToLedgerTime(t time.Time) LedgerTime {
	unix := t.Unix()
	if unix < LedgerEpoch {
		return 0
	}
	return LedgerTime(unix - LedgerEpoch)
}

// Time converts ledger time back to a UTC time.Time.
func (lt LedgerTime) Time() time.Time {
	return time.Unix(int64(lt)+LedgerEpoch, 0).UTC()
}

// IsSet reports whether the time has been assigned.
func (lt LedgerTime) IsSet() bool {
	return lt != 0
}

// Add returns lt advanced by d, truncated to whole seconds.
func (lt LedgerTime) Add(d time.Duration) LedgerTime {
	return lt + LedgerTime(d/time.Second)
}
