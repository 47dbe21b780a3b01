package routing

import (
	"math/rand"
	"sync"
)

// RandomToken draws a uniform 32-bit token from a per-policy seeded
// PRNG and routes via the same ring mapping as Hash (spec §4.4). Each
// policy instance keeps its own *rand.Rand (grounded on
// cuemby-warren/pkg/dns/resolver.go's per-Resolver *rand.Rand) rather
// than sharing math/rand's global source, per §9's "global random seed"
// redesign note.
type RandomToken struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	ring *ring
}

func NewRandomToken(peers Peers, numTokens int, seed int64) *RandomToken {
	return &RandomToken{rnd: rand.New(rand.NewSource(seed)), ring: newRing(peers, numTokens)}
}

func (p *RandomToken) NextServer(_ []byte) int32 {
	p.mu.Lock()
	token := p.rnd.Uint32()
	p.mu.Unlock()
	return p.ring.owner(token)
}

// RandomUniform draws a uniform index in [0, N) per call.
type RandomUniform struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	peers Peers
}

func NewRandomUniform(peers Peers, seed int64) *RandomUniform {
	return &RandomUniform{rnd: rand.New(rand.NewSource(seed)), peers: append(Peers(nil), peers...)}
}

func (p *RandomUniform) NextServer(_ []byte) int32 {
	p.mu.Lock()
	n := p.rnd.Intn(len(p.peers))
	p.mu.Unlock()
	return p.peers[n]
}
