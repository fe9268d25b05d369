package cache

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// Stored payloads carry a one-byte header so readers can tell compressed from raw
// values regardless of the writer's setting.
const (
	headerRaw    byte = 0x00
	headerSnappy byte = 0x01
)

// minCompressSize is the payload size below which compression is skipped
const minCompressSize = 256

var errBadPayload = errors.New("cache payload has unknown header")

// encodePayload frames value, snappy-compressing it when enabled and worthwhile
func encodePayload(value []byte, compress bool) []byte {
	if compress && len(value) >= minCompressSize {
		out := make([]byte, 1, 1+snappy.MaxEncodedLen(len(value)))
		out[0] = headerSnappy
		return append(out, snappy.Encode(nil, value)...)
	}
	out := make([]byte, 1+len(value))
	out[0] = headerRaw
	copy(out[1:], value)
	return out
}

// decodePayload reverses encodePayload
func decodePayload(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errBadPayload
	}
	switch data[0] {
	case headerRaw:
		return data[1:], nil
	case headerSnappy:
		decoded, err := snappy.Decode(nil, data[1:])
		if err != nil {
			return nil, fmt.Errorf("snappy decompress failed: %w", err)
		}
		return decoded, nil
	default:
		return nil, errBadPayload
	}
}
