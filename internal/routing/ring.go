package routing

import "sort"

// ring is the token ring shared by the hash and random-token policies:
// N*numTokens positions evenly spaced across [1, 2^32-1], each owned by
// one peer (spec §4.4).
type ring struct {
	positions []uint32
	owners    []int32
}

func newRing(peers Peers, numTokens int) *ring {
	total := len(peers) * numTokens
	positions := make([]uint32, total)
	owners := make([]int32, total)

	step := uint32(0xFFFFFFFF) / uint32(total)
	for i := 0; i < total; i++ {
		positions[i] = 1 + uint32(i)*step
		owners[i] = peers[i%len(peers)]
	}

	return &ring{positions: positions, owners: owners}
}

// owner returns the peer mapped to the first ring position >= hash,
// wrapping to the first position if hash exceeds every position on the
// ring. Equal hashes land at the lower ring index (spec §4.4), which
// sort.Search already gives: it returns the smallest index satisfying
// positions[i] >= hash.
func (r *ring) owner(hash uint32) int32 {
	i := sort.Search(len(r.positions), func(i int) bool { return r.positions[i] >= hash })
	if i == len(r.positions) {
		i = 0
	}
	return r.owners[i]
}
