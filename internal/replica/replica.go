// Package replica is the replica facade (spec §4.3, C3): the only part
// of replikv that talks to the Raft collaborator directly. Wiring is
// grounded on cuemby-warren/poc/raft/main.go (raft.NewRaft,
// raft.NewTCPTransport, raft.NewFileSnapshotStore,
// raftboltdb.NewBoltStore), generalized from that POC's single-file
// bootstrap-only setup into a long-lived facade that also handles
// membership changes and both append_log return modes.
package replica

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"

	"replikv/internal/codec"
	"replikv/internal/engine"
	"replikv/internal/fsm"
	"replikv/internal/logging"
	"replikv/internal/replicated"
)

// Replica wraps a single peer's *raft.Raft instance together with the
// state machine adapter it drives.
type Replica struct {
	cfg       Config
	raft      *raft.Raft
	fsm       *fsm.StateMachine
	transport *raft.NetworkTransport
	log       logging.Logger
}

// New opens (or creates) the on-disk Raft log/stable/snapshot stores
// under cfg.DataDir, builds the state machine adapter over eng, and
// starts Raft. If cfg.Bootstrap is set, the replica bootstraps a
// single-voter cluster consisting of just itself; otherwise it starts
// as an un-bootstrapped peer awaiting a Join call from an existing
// leader.
func New(cfg Config, eng engine.Engine, log logging.Logger) (*Replica, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("replica: create data dir: %w", err)
	}

	raftConfig := raft.DefaultConfig()
	raftConfig.LocalID = raft.ServerID(serverIDString(cfg.ServerID))
	raftConfig.HeartbeatTimeout = cfg.heartbeatTimeout()
	raftConfig.ElectionTimeout = cfg.electionTimeout()
	raftConfig.LeaderLeaseTimeout = cfg.leaderLeaseTimeout()
	if cfg.SnapshotDistance > 0 {
		raftConfig.SnapshotThreshold = cfg.SnapshotDistance
	} else {
		raftConfig.SnapshotThreshold = math.MaxUint64
	}

	addr, err := net.ResolveTCPAddr("tcp", cfg.RaftAddr)
	if err != nil {
		return nil, fmt.Errorf("replica: resolve raft addr: %w", err)
	}
	transport, err := raft.NewTCPTransport(cfg.RaftAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("replica: build transport: %w", err)
	}

	snapshots, err := raft.NewFileSnapshotStore(cfg.DataDir, 3, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("replica: build snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-log.db"))
	if err != nil {
		return nil, fmt.Errorf("replica: build log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-stable.db"))
	if err != nil {
		return nil, fmt.Errorf("replica: build stable store: %w", err)
	}

	sm := fsm.New(eng, log.WithComponent("fsm"))

	r, err := raft.NewRaft(raftConfig, sm, logStore, stableStore, snapshots, transport)
	if err != nil {
		return nil, fmt.Errorf("replica: start raft: %w", err)
	}

	rep := &Replica{cfg: cfg, raft: r, fsm: sm, transport: transport, log: log.WithComponent("replica")}

	if cfg.Bootstrap {
		configuration := raft.Configuration{
			Servers: []raft.Server{
				{ID: raftConfig.LocalID, Address: transport.LocalAddr()},
			},
		}
		if err := r.BootstrapCluster(configuration).Error(); err != nil && !errors.Is(err, raft.ErrCantBootstrap) {
			return nil, fmt.Errorf("replica: bootstrap: %w", err)
		}
		payload, err := fsm.EncodeMembership(fsm.Endpoint{ServerID: cfg.ServerID, ClientEndpoint: cfg.ClientEndpoint})
		if err != nil {
			return nil, fmt.Errorf("replica: encode self membership: %w", err)
		}
		// Best-effort: this only succeeds once the single-voter
		// cluster has elected itself leader, which for a fresh
		// bootstrap happens almost immediately. A later Join still
		// replicates this entry if it's missed, since AddServer
		// always emits it too.
		go func() {
			for i := 0; i < 50; i++ {
				if r.State() == raft.Leader {
					r.Apply(payload, 5*time.Second)
					return
				}
				time.Sleep(100 * time.Millisecond)
			}
		}()
	}

	return rep, nil
}

func serverIDString(id int32) string {
	return fmt.Sprintf("%d", id)
}

// ResultHandle is the value append_log resolves to exactly once,
// wrapping hashicorp/raft's own ApplyFuture. Both access patterns the
// spec requires are exposed: Await for blocking callers, OnReady for
// callback-mode callers; which one a given server actually calls is
// determined once by the owning Replica's Config.ReturnMethod, not by
// the handle itself.
type ResultHandle struct {
	future raft.ApplyFuture
}

// Await blocks until the entry is committed (or rejected) and returns
// the resolved result exactly once per logical call; hashicorp/raft's
// ApplyFuture.Error/Response are themselves idempotent, so repeated
// calls to Await are harmless but only the first matters.
func (h *ResultHandle) Await() replicated.Result {
	if err := h.future.Error(); err != nil {
		return mapApplyError(err)
	}
	resp := h.future.Response()
	if result, ok := resp.(replicated.Result); ok {
		return result
	}
	return replicated.Result{RaftRC: replicated.RaftCommitUncertain, RaftMsg: "apply returned unexpected response type"}
}

// OnReady registers a one-shot callback invoked on a goroutine once the
// entry is resolved, matching the RPC call state machine's "commit
// callback" phase (spec §4.5). The callback must not block.
func (h *ResultHandle) OnReady(cb func(replicated.Result)) {
	go func() { cb(h.Await()) }()
}

func mapApplyError(err error) replicated.Result {
	switch {
	case errors.Is(err, raft.ErrNotLeader), errors.Is(err, raft.ErrLeadershipLost):
		return replicated.Result{RaftRC: replicated.RaftNotLeader, RaftMsg: err.Error()}
	case errors.Is(err, raft.ErrRaftShutdown), errors.Is(err, raft.ErrLeadershipTransferInProgress):
		return replicated.Result{RaftRC: replicated.RaftRequestCancelled, RaftMsg: err.Error()}
	default:
		return replicated.Result{RaftRC: replicated.RaftCommitUncertain, RaftMsg: err.Error()}
	}
}

// AppendLog serializes op and submits it to Raft, returning a handle
// that resolves exactly once. It never retries; the client driver owns
// retry semantics (spec §4.3, §4.7).
func (r *Replica) AppendLog(op codec.Operation, timeout time.Duration) *ResultHandle {
	return &ResultHandle{future: r.raft.Apply(codec.Encode(op), timeout)}
}

// Read performs a synchronous local lookup against the engine,
// bypassing Raft entirely (spec §4.2, §4.3).
func (r *Replica) Read(key []byte) ([]byte, int32) {
	return r.fsm.Engine().Lookup(key)
}

// ServerID returns this peer's own configured id.
func (r *Replica) ServerID() int32 { return r.cfg.ServerID }

// Backup streams the local engine's contents to a file under dir,
// backing the DumpCache administrative RPC (spec §9 Open Questions:
// implemented rather than left as a stub — see DESIGN.md).
func (r *Replica) Backup(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("replikv-%s.bak", serverIDString(r.cfg.ServerID)))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.fsm.Engine().Backup(nil, f)
}

// Reset drops the local engine's contents, backing the ClearCache
// administrative RPC.
func (r *Replica) Reset() error {
	return r.fsm.Engine().Reset()
}

// AddServer initiates a Raft membership change and replicates the new
// peer's client-facing endpoint alongside it, since hashicorp/raft's
// own Configuration has no room for that metadata (see DESIGN.md).
// Idempotent: AddVoter is a no-op if id is already a voter at address.
func (r *Replica) AddServer(id int32, raftEndpoint, clientEndpoint string) (int32, string) {
	future := r.raft.AddVoter(raft.ServerID(serverIDString(id)), raft.ServerAddress(raftEndpoint), 0, 10*time.Second)
	if err := future.Error(); err != nil {
		result := mapApplyError(err)
		return result.RaftRC, err.Error()
	}

	payload, err := fsm.EncodeMembership(fsm.Endpoint{ServerID: id, ClientEndpoint: clientEndpoint})
	if err != nil {
		return replicated.RaftCommitUncertain, err.Error()
	}
	if err := r.raft.Apply(payload, 10*time.Second).Error(); err != nil {
		result := mapApplyError(err)
		return result.RaftRC, err.Error()
	}

	return replicated.RaftOK, ""
}

// GetLeader returns the current leader's server id, or -1 if there is
// no live leader.
func (r *Replica) GetLeader() int32 {
	_, id := r.raft.LeaderWithID()
	if id == "" {
		return -1
	}
	return parseServerID(string(id))
}

// Server is one entry of GetAllServers' result.
type Server struct {
	ID             int32
	ClientEndpoint string
}

// GetAllServers returns the current Raft membership paired with each
// peer's advertised client endpoint (spec §4.3's "aux" field, carried
// via the FSM's replicated endpoint map rather than Raft's own
// Configuration — see DESIGN.md).
func (r *Replica) GetAllServers() ([]Server, error) {
	future := r.raft.GetConfiguration()
	if err := future.Error(); err != nil {
		return nil, err
	}
	endpoints := r.fsm.Endpoints()

	servers := make([]Server, 0, len(future.Configuration().Servers))
	for _, s := range future.Configuration().Servers {
		id := parseServerID(string(s.ID))
		servers = append(servers, Server{ID: id, ClientEndpoint: endpoints[id]})
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].ID < servers[j].ID })
	return servers, nil
}

// RegisterThread / DeregisterThread satisfy spec §4.3's thread
// registration discipline for any goroutine that will call Read.
func (r *Replica) RegisterThread()   { r.fsm.Engine().RegisterThread() }
func (r *Replica) DeregisterThread() { r.fsm.Engine().DeregisterThread() }

// Shutdown stops Raft and closes the transport, bounded by timeout
// (spec §4.6's server-orchestrator shutdown sequence calls this last).
func (r *Replica) Shutdown(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- r.raft.Shutdown().Error() }()

	select {
	case err := <-done:
		r.transport.Close()
		return err
	case <-time.After(timeout):
		r.transport.Close()
		return fmt.Errorf("replica: shutdown timed out after %s", timeout)
	}
}

func parseServerID(s string) int32 {
	var id int32
	_, err := fmt.Sscanf(s, "%d", &id)
	if err != nil {
		return -1
	}
	return id
}
