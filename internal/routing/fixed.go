package routing

import "fmt"

// Fixed always routes according to a caller-supplied key->server map,
// panicking if the key is absent (spec §4.4). Used to pin reads to one
// peer when an application needs read-your-writes beyond what the
// other policies guarantee (spec §7).
type Fixed struct {
	assignments map[string]int32
}

func NewFixed(assignments map[string]int32) *Fixed {
	return &Fixed{assignments: assignments}
}

func (p *Fixed) NextServer(key []byte) int32 {
	id, ok := p.assignments[string(key)]
	if !ok {
		panic(fmt.Sprintf("routing: fixed policy has no assignment for key %q", key))
	}
	return id
}
