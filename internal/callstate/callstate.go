// Package callstate is the Go-native re-expression of the RPC call
// state machine (spec §4.5, C5, and §9's redesign notes): rather than
// raw-pointer-tagged, virtually-dispatched call objects, every
// in-flight RPC is an entry in an Arena addressed by a plain uint64
// handle, cycling through the same four phases the spec names.
package callstate

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// Phase is one of the four states spec §4.5 names.
type Phase int

const (
	Create Phase = iota
	Process
	Finish
	Cleanup
)

func (p Phase) String() string {
	switch p {
	case Create:
		return "create"
	case Process:
		return "process"
	case Finish:
		return "finish"
	case Cleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// Kind identifies which RPC method a Call belongs to, standing in for
// the spec's "tagged enum per RPC kind" (§9).
type Kind int

const (
	KindPing Kind = iota
	KindGetServerID
	KindGetLeaderID
	KindGetClusterEndpoints
	KindGet
	KindPut
	KindUpdate
	KindDelete
	KindDumpCache
	KindClearCache
	KindJoin
)

// Call is one pending-RPC object: a decoded request, its phase, and —
// for mutations — the result it's waiting on. HandleRequest functions
// live in internal/server, not here; this package only owns the phase
// machinery and the arena.
type Call struct {
	Handle uint64
	Kind   Kind
	phase  Phase
	mu     sync.Mutex
	result interface{}
	ready  chan struct{}
}

// Phase returns the call's current phase.
func (c *Call) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Advance transitions the call to the next phase. It does not validate
// that the transition follows Create->Process->Finish->Cleanup order;
// callers (internal/server's RPC handlers, and its completion-queue
// workers for the Finish step of async mutations) are trusted to drive
// transitions in order.
func (c *Call) Advance(next Phase) {
	c.mu.Lock()
	c.phase = next
	c.mu.Unlock()
}

// SetResult stores the value a call's async work produced, ready for a
// completion-queue worker to wake the goroutine blocked in Wait.
func (c *Call) SetResult(v interface{}) {
	c.mu.Lock()
	c.result = v
	c.mu.Unlock()
}

// Wake signals that the call has reached Finish and its waiter may
// collect the result; it must be called exactly once per call.
func (c *Call) Wake() {
	close(c.ready)
}

// Wait blocks until Wake is called, then returns the stored result —
// this is the RPC handler's goroutine parking on the completion-queue
// worker that will eventually wake it (spec §4.5's Finish phase).
func (c *Call) Wait() interface{} {
	<-c.ready
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Arena owns every in-flight Call, addressed by a handle minted from a
// truncated UUID rather than the source's raw object pointer (spec §9:
// "arena of pending RPCs indexed by a u64 handle ... preserves the O(1)
// tag-to-object lookup without unsafe casts").
type Arena struct {
	calls sync.Map // uint64 -> *Call
}

// NewArena builds an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Register mints a fresh handle for kind, stores call under it in the
// Create phase, and returns the handle to use as the completion-queue
// tag.
func (a *Arena) Register(kind Kind) (uint64, *Call) {
	handle := newHandle()
	call := &Call{Handle: handle, Kind: kind, phase: Create, ready: make(chan struct{})}
	a.calls.Store(handle, call)
	return handle, call
}

// Lookup resolves a completion-queue tag back to its Call in O(1).
func (a *Arena) Lookup(handle uint64) (*Call, bool) {
	v, ok := a.calls.Load(handle)
	if !ok {
		return nil, false
	}
	return v.(*Call), true
}

// Release reclaims handle's slot; called exactly once, from Cleanup.
func (a *Arena) Release(handle uint64) {
	a.calls.Delete(handle)
}

// newHandle mints a handle from a fresh UUID truncated to uint64,
// matching the redesign note's "u64 handle" while drawing on a real
// ID-generation dependency already in the pack (github.com/google/uuid,
// via cuemby-warren) instead of hand-rolling a counter or random source.
func newHandle() uint64 {
	id := uuid.New()
	b := id[:]
	return binary.BigEndian.Uint64(b[:8])
}
