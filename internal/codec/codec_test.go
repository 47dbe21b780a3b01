package codec

import (
	"bytes"
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := []Operation{
		NewPut([]byte("apple"), []byte("An apple a day")),
		NewUpdate([]byte("k"), []byte("v")),
		NewDelete([]byte("k")),
		NewPut([]byte("k"), []byte("")), // empty value is still present
	}

	for _, op := range cases {
		encoded := Encode(op)
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("decode(%v): %v", op, err)
		}
		if decoded.Type != op.Type || !bytes.Equal(decoded.Key, op.Key) || !bytes.Equal(decoded.Value, op.Value) {
			t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, op)
		}
	}
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	cases := [][]byte{
		{},
		{byte(OpPut)},
		{byte(OpPut), 5, 0, 0, 0}, // declares 5-byte key, none present
		{byte(OpPut), 1, 0, 0, 0, 'k'}, // key ok, but value length prefix missing
	}

	for _, b := range cases {
		if _, err := Decode(b); err == nil {
			t.Fatalf("expected decode error for %v", b)
		}
	}
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	if _, err := Decode([]byte{0xFF, 0, 0, 0, 0}); !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag, got %v", err)
	}
}

func TestDecodeRejectsMissingValue(t *testing.T) {
	// PUT with a key but no value section at all.
	b := append([]byte{byte(OpPut), 1, 0, 0, 0, 'k'})
	if _, err := Decode(b); err != ErrMissingValue {
		t.Fatalf("expected ErrMissingValue, got %v", err)
	}
}

func TestDeleteHasNoValueSection(t *testing.T) {
	op := NewDelete([]byte("gone"))
	encoded := Encode(op)
	// tag(1) + len(4) + key(4) = 9 bytes, no value section
	if len(encoded) != 1+4+4 {
		t.Fatalf("expected 9-byte encoding for DELETE, got %d", len(encoded))
	}
}
