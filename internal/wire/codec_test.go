package wire

import (
	"bytes"
	"testing"
)

func TestCodecRoundTripsGetRequest(t *testing.T) {
	var c Codec
	want := &GetRequest{Key: []byte("apple")}

	data, err := c.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got := new(GetRequest)
	if err := c.Unmarshal(data, got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !bytes.Equal(got.Key, want.Key) {
		t.Fatalf("round trip = %q, want %q", got.Key, want.Key)
	}
}

func TestCodecRoundTripsMutationResponse(t *testing.T) {
	var c Codec
	want := &MutationResponse{EngineRC: 0, RaftRC: -3, RaftMsg: "not leader"}

	data, err := c.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got := new(MutationResponse)
	if err := c.Unmarshal(data, got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}
}

func TestCodecName(t *testing.T) {
	var c Codec
	if c.Name() != CodecName {
		t.Fatalf("Name() = %q, want %q", c.Name(), CodecName)
	}
}
