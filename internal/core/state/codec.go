package state

import (
	"fmt"

	"github.com/ugorji/go/codec"
)

// WriteExt selects the bin and str8 formats so byte arrays round-trip as
// binary.
var msgpack = &codec.MsgpackHandle{WriteExt: true}

// Encode serializes a ledger record with msgpack.
func Encode(v any) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, msgpack).Encode(v); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return out, nil
}

// Decode parses a msgpack ledger record into v.
func Decode(data []byte, v any) error {
	if err := codec.NewDecoderBytes(data, msgpack).Decode(v); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
