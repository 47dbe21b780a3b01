package routing

import "sync/atomic"

// RoundRobin returns peers[counter mod N] and then increments. The
// counter is process-local and starts at 0 (spec §4.4); §5 calls out
// that round-robin's counter needs internal synchronization, so it's
// an atomic rather than a plain field.
type RoundRobin struct {
	peers   Peers
	counter uint64
}

func NewRoundRobin(peers Peers) *RoundRobin {
	return &RoundRobin{peers: append(Peers(nil), peers...)}
}

func (p *RoundRobin) NextServer(_ []byte) int32 {
	n := atomic.AddUint64(&p.counter, 1) - 1
	return p.peers[n%uint64(len(p.peers))]
}
