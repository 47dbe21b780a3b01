// Package fsm is the state machine adapter (spec §4.2, C2): it applies
// committed log entries to the embedded engine and is reentrant from any
// Raft apply thread, matching github.com/hashicorp/raft's raft.FSM
// contract (grounded on cuemby-warren/poc/raft/fsm.go).
package fsm

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/hashicorp/raft"

	"replikv/internal/codec"
	"replikv/internal/engine"
	"replikv/internal/logging"
	"replikv/internal/replicated"
)

// membershipTag marks a log entry as internal cluster metadata (a
// server's client-facing endpoint) rather than a client mutation. It
// can never collide with codec.OpType's {0,1,2} tag space because it's
// checked before codec.Decode ever sees the buffer.
const membershipTag = 0xFE

// Endpoint is the client-facing address advertised for one server id,
// replicated through the log since hashicorp/raft's own Configuration
// has no room for it (see DESIGN.md, internal/replica).
type Endpoint struct {
	ServerID       int32
	ClientEndpoint string
}

// StateMachine implements raft.FSM against a single engine.Engine.
type StateMachine struct {
	eng engine.Engine
	log logging.Logger

	// endpoints is written from Apply/Restore (Raft's apply goroutine)
	// and read from Endpoints (any RPC-handling goroutine calling
	// Replica.GetAllServers), so it's guarded by endpointsMu rather than
	// relying on Raft's single-apply-goroutine guarantee, which only
	// serializes writers against each other, not against readers.
	endpointsMu sync.RWMutex
	endpoints   map[int32]string
}

// New builds a state machine adapter over eng.
func New(eng engine.Engine, log logging.Logger) *StateMachine {
	eng.RegisterThread()
	return &StateMachine{
		eng:       eng,
		log:       log,
		endpoints: make(map[int32]string),
	}
}

// Apply decodes a committed entry and dispatches it to the engine. A
// decode failure is fatal: the log is corrupt and Raft's contract
// guarantees committed entries are well-formed, so spec §4.2 calls for
// aborting the process rather than limping on.
func (s *StateMachine) Apply(entry *raft.Log) interface{} {
	data := entry.Data
	if len(data) > 0 && data[0] == membershipTag {
		s.applyMembership(data[1:])
		return replicated.Result{RaftRC: replicated.RaftOK}
	}

	op, err := codec.Decode(data)
	if err != nil {
		s.log.Fatal("corrupt log entry at index %d: %v", entry.Index, err)
		panic(err) // unreachable if Fatal exits, kept for non-exiting loggers in tests
	}

	var rc int32
	switch op.Type {
	case codec.OpPut:
		rc = s.eng.Insert(op.Key, op.Value)
	case codec.OpUpdate:
		rc = s.eng.Update(op.Key, op.Value)
	case codec.OpDelete:
		rc = s.eng.Delete(op.Key)
	}

	return replicated.Result{EngineRC: rc, RaftRC: replicated.RaftOK}
}

func (s *StateMachine) applyMembership(b []byte) {
	var ep Endpoint
	if err := json.Unmarshal(b, &ep); err != nil {
		s.log.Error("corrupt membership entry: %v", err)
		return
	}
	s.endpointsMu.Lock()
	s.endpoints[ep.ServerID] = ep.ClientEndpoint
	s.endpointsMu.Unlock()
}

// Engine exposes the underlying engine for the replica facade's
// synchronous read path (spec §4.2: reads bypass Apply entirely).
func (s *StateMachine) Engine() engine.Engine { return s.eng }

// Endpoints returns a snapshot of the replicated server_id -> client
// endpoint map, safe to call concurrently with Apply/Restore.
func (s *StateMachine) Endpoints() map[int32]string {
	s.endpointsMu.RLock()
	defer s.endpointsMu.RUnlock()
	out := make(map[int32]string, len(s.endpoints))
	for k, v := range s.endpoints {
		out[k] = v
	}
	return out
}

// EncodeMembership produces the log payload AddServer replicates
// alongside the Raft voter-configuration change.
func EncodeMembership(ep Endpoint) ([]byte, error) {
	b, err := json.Marshal(ep)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(b)+1)
	out = append(out, membershipTag)
	out = append(out, b...)
	return out, nil
}

// Snapshot captures a point-in-time copy of the engine for Raft's own
// snapshotting, streamed through engine.Engine's Backup/Restore rather
// than a bespoke serialization (spec names the snapshot_distance knob
// but not a mechanism).
func (s *StateMachine) Snapshot() (raft.FSMSnapshot, error) {
	endpoints := s.Endpoints()
	return &fsmSnapshot{eng: s.eng, endpoints: endpoints}, nil
}

// Restore replaces the engine's contents from a snapshot stream
// produced by fsmSnapshot.Persist.
func (s *StateMachine) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	header, body, err := readSnapshotHeader(rc)
	if err != nil {
		return err
	}

	if err := s.eng.Restore(nil, body); err != nil {
		return err
	}

	s.endpointsMu.Lock()
	s.endpoints = header.Endpoints
	s.endpointsMu.Unlock()
	return nil
}

type snapshotHeader struct {
	Endpoints map[int32]string `json:"endpoints"`
}
