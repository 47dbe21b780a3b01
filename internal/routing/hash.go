package routing

// Hash routes a key to the peer owning the first ring position at or
// after MurmurHash3_x86_32(key, 0x499602D2) (spec §4.4).
type Hash struct {
	ring *ring
}

// NewHash builds a hash policy over peers with numTokens virtual nodes
// per peer; higher numTokens converges the load balance closer to 1/N
// (spec §8's read-balance property, numTokens >= 64).
func NewHash(peers Peers, numTokens int) *Hash {
	return &Hash{ring: newRing(peers, numTokens)}
}

func (p *Hash) NextServer(key []byte) int32 {
	return p.ring.owner(murmur3_32(key, hashSeed))
}
