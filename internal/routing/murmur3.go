package routing

// murmur3_32 is MurmurHash3 x86_32, the exact variant and constants
// the spec mandates for the hash policy (spec §4.4: "MurmurHash3
// x86_32 with fixed seed 0x499602D2"). No repo in the example pack
// imports a murmur3 library (badger and raft both pull in xxhash/fnv
// variants instead), and the spec pins an exact bit-level algorithm —
// an external dependency would still need the same byte-for-byte
// verification this inline version gets, so it's hand-rolled rather
// than imported (see DESIGN.md).
func murmur3_32(data []byte, seed uint32) uint32 {
	const (
		c1 = 0xcc9e2d51
		c2 = 0x1b873593
	)

	h := seed
	nblocks := len(data) / 4

	for i := 0; i < nblocks; i++ {
		k := uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24

		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2

		h ^= k
		h = (h << 13) | (h >> 19)
		h = h*5 + 0xe6546b64
	}

	var k uint32
	tail := data[nblocks*4:]
	switch len(tail) {
	case 3:
		k ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		k ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		k ^= uint32(tail[0])
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2
		h ^= k
	}

	h ^= uint32(len(data))

	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16

	return h
}

// hashSeed is the fixed seed the spec mandates for the hash policy.
const hashSeed uint32 = 0x499602D2
