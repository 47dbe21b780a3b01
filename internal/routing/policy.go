// Package routing implements the read-routing policy (spec §4.4, C4):
// given a key, pick which server id to send a Get request to. Every
// variant is non-blocking and performs no I/O.
package routing

// Policy is the common interface every read-routing variant satisfies.
type Policy interface {
	// NextServer returns the server id to route key to.
	NextServer(key []byte) int32
}

// Peers is the ordered set of server ids a policy is constructed over.
// Order matters for round-robin; it's otherwise just the member set.
type Peers []int32
