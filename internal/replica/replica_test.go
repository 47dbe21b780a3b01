package replica

import (
	"testing"
	"time"

	"replikv/internal/codec"
	"replikv/internal/engine"
	"replikv/internal/logging"
)

func newTestReplica(t *testing.T, id int32, raftAddr string) *Replica {
	t.Helper()
	eng, err := engine.NewBadgerEngine(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerEngine: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	cfg := Config{
		ServerID:       id,
		RaftAddr:       raftAddr,
		ClientEndpoint: "127.0.0.1:0",
		DataDir:        t.TempDir(),
		Bootstrap:      true,
	}
	rep, err := New(cfg, eng, logging.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { rep.Shutdown(5 * time.Second) })
	return rep
}

func waitForLeader(t *testing.T, rep *Replica) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if rep.GetLeader() != -1 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("no leader elected within deadline")
}

func TestSingleNodeAppendAndRead(t *testing.T) {
	rep := newTestReplica(t, 1, "127.0.0.1:17001")
	waitForLeader(t, rep)

	handle := rep.AppendLog(codec.NewPut([]byte("apple"), []byte("An apple a day")), 2*time.Second)
	result := handle.Await()
	if !result.Success() {
		t.Fatalf("AppendLog result = %#v, want success", result)
	}

	value, rc := rep.Read([]byte("apple"))
	if rc != engine.RCOk || string(value) != "An apple a day" {
		t.Fatalf("Read = (%q, %d)", value, rc)
	}
}

func TestGetLeaderReturnsSelfOnSingleNode(t *testing.T) {
	rep := newTestReplica(t, 7, "127.0.0.1:17002")
	waitForLeader(t, rep)

	if got := rep.GetLeader(); got != 7 {
		t.Fatalf("GetLeader() = %d, want 7", got)
	}
}
