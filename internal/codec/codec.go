package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortBuffer is returned when the input ends before a length-prefixed
// section it declared can be read in full.
var ErrShortBuffer = errors.New("codec: short buffer")

// ErrUnknownTag is returned when the leading tag byte doesn't match any
// known OpType.
var ErrUnknownTag = errors.New("codec: unknown operation tag")

// ErrMissingValue is returned when a PUT/UPDATE entry has no value
// section.
var ErrMissingValue = errors.New("codec: PUT/UPDATE entry missing value section")

// Encode serializes op to the wire layout described in spec §3/§4.1:
// a one-byte tag, a 4-byte little-endian key length + key bytes, and
// for PUT/UPDATE a 4-byte little-endian value length + value bytes.
func Encode(op Operation) []byte {
	size := 1 + 4 + len(op.Key)
	if op.HasValue() {
		size += 4 + len(op.Value)
	}
	buf := make([]byte, size)

	buf[0] = byte(op.Type)
	off := 1
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(op.Key)))
	off += 4
	off += copy(buf[off:], op.Key)

	if op.HasValue() {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(op.Value)))
		off += 4
		copy(buf[off:], op.Value)
	}

	return buf
}

// Decode parses a byte string produced by Encode. It rejects a short
// buffer, an unknown tag, a length prefix that would overflow the
// remaining bytes, and a PUT/UPDATE entry with no value section.
func Decode(b []byte) (Operation, error) {
	if len(b) < 1 {
		return Operation{}, ErrShortBuffer
	}

	tag := OpType(b[0])
	if tag != OpPut && tag != OpUpdate && tag != OpDelete {
		return Operation{}, fmt.Errorf("%w: %d", ErrUnknownTag, b[0])
	}

	rest := b[1:]
	key, rest, err := readLengthPrefixed(rest)
	if err != nil {
		return Operation{}, err
	}

	op := Operation{Type: tag, Key: key}
	if op.HasValue() {
		if len(rest) == 0 {
			return Operation{}, ErrMissingValue
		}
		value, _, err := readLengthPrefixed(rest)
		if err != nil {
			return Operation{}, err
		}
		op.Value = value
	}

	return op, nil
}

func readLengthPrefixed(b []byte) (section, remainder []byte, err error) {
	if len(b) < 4 {
		return nil, nil, ErrShortBuffer
	}
	n := binary.LittleEndian.Uint32(b[:4])
	b = b[4:]
	if uint64(n) > uint64(len(b)) {
		return nil, nil, ErrShortBuffer
	}
	return b[:n], b[n:], nil
}
