package export

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// WriteMsgpack encodes v as MessagePack. Field names follow the json tags so
// the binary and JSON exports share one schema.
func WriteMsgpack(w io.Writer, v any) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode msgpack: %w", err)
	}
	return nil
}

// ReadMsgpack decodes a value written by WriteMsgpack into v
func ReadMsgpack(r io.Reader, v any) error {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode msgpack: %w", err)
	}
	return nil
}
