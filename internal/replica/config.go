package replica

import "time"

// ReturnMethod selects how AppendLog's handle is meant to be consumed,
// fixed for the lifetime of a Replica (spec §4.3: "mixing modes within
// a live replica is forbidden").
type ReturnMethod int

const (
	Blocking ReturnMethod = iota
	AsyncCallback
)

// Config is the subset of the node's full configuration (SPEC_FULL.md
// ambient §6 enumerated list) that the replica facade and its
// hashicorp/raft wiring need.
type Config struct {
	ServerID       int32
	RaftAddr       string
	ClientEndpoint string
	DataDir        string

	HeartbeatIntervalMs    int
	ElectionTimeoutLowerMs int
	ElectionTimeoutUpperMs int

	// SnapshotDistance is entries between snapshots; 0 disables
	// snapshotting entirely (spec §6).
	SnapshotDistance uint64

	ReturnMethod ReturnMethod

	// Bootstrap is true only for the first server of a brand-new
	// cluster; every other peer joins via the join-RPC's add_server
	// path instead.
	Bootstrap bool
}

func (c Config) heartbeatTimeout() time.Duration {
	if c.HeartbeatIntervalMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.HeartbeatIntervalMs) * time.Millisecond
}

// electionTimeout maps the spec's lower/upper election-timeout pair
// onto hashicorp/raft's single ElectionTimeout knob by taking the
// upper bound: Raft randomizes the actual wait between 1x and 2x this
// value internally, so the upper bound is the closer fit of the two.
func (c Config) electionTimeout() time.Duration {
	if c.ElectionTimeoutUpperMs <= 0 {
		return 400 * time.Millisecond
	}
	return time.Duration(c.ElectionTimeoutUpperMs) * time.Millisecond
}

// leaderLeaseTimeout takes the lower election-timeout bound, capped at
// the heartbeat timeout: hashicorp/raft rejects a configuration whose
// lease timeout exceeds its heartbeat timeout.
func (c Config) leaderLeaseTimeout() time.Duration {
	lease := 200 * time.Millisecond
	if c.ElectionTimeoutLowerMs > 0 {
		lease = time.Duration(c.ElectionTimeoutLowerMs) * time.Millisecond
	}
	if hb := c.heartbeatTimeout(); lease > hb {
		return hb
	}
	return lease
}
