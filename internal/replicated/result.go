// Package replicated holds the small shared result types that cross the
// boundary between the replica facade, the state machine adapter, and
// the RPC call state machine, so none of those packages needs to import
// the others just for a struct definition.
package replicated

// Raft result codes a client-visible reply surfaces in RaftRC, mirroring
// spec §6's "Raft collaborator contract". 0 means accepted; the rest are
// the handful of codes the client driver's retry loop inspects by value.
const (
	RaftOK                 int32 = 0
	RaftNotLeader          int32 = -3
	RaftRequestCancelled   int32 = -1
	RaftCommitUncertain    int32 = 999
)

// Result is the record every append_log resolves to exactly once:
// {engine_rc, raft_rc, raft_msg} from spec §3. An operation is accepted
// iff RaftRC == RaftOK; it is a success iff accepted and EngineRC == 0.
type Result struct {
	EngineRC int32
	RaftRC   int32
	RaftMsg  string
}

// Accepted reports whether Raft committed the entry at all.
func (r Result) Accepted() bool { return r.RaftRC == RaftOK }

// Success reports whether the entry was both committed and applied
// cleanly by the engine.
func (r Result) Success() bool { return r.Accepted() && r.EngineRC == 0 }
