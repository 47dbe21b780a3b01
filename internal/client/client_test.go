package client

import (
	"context"
	"testing"
	"time"

	"replikv/internal/engine"
	"replikv/internal/logging"
	"replikv/internal/replica"
	"replikv/internal/server"
)

func startTestServer(t *testing.T, id int32, raftAddr, clientAddr, joinAddr string) {
	t.Helper()
	eng, err := engine.NewBadgerEngine(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerEngine: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	repCfg := replica.Config{
		ServerID:       id,
		RaftAddr:       raftAddr,
		ClientEndpoint: clientAddr,
		DataDir:        t.TempDir(),
		Bootstrap:      true,
	}
	rep, err := replica.New(repCfg, eng, logging.Nop())
	if err != nil {
		t.Fatalf("replica.New: %v", err)
	}

	srv := server.New(server.Config{ClientAddr: clientAddr, JoinAddr: joinAddr}, rep, logging.Nop())
	go srv.Run()
	t.Cleanup(func() { srv.Shutdown(context.Background(), 5*time.Second) })

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if rep.GetLeader() != -1 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("no leader elected within deadline")
}

func TestDriverConstructionAndPutGet(t *testing.T) {
	startTestServer(t, 1, "127.0.0.1:19001", "127.0.0.1:19011", "127.0.0.1:19021")

	d, err := New(Config{Host: "127.0.0.1", Port: 19011, Timeout: 5 * time.Second, MaxRetries: 10}, logging.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if _, ok := d.peers[1]; !ok {
		t.Fatalf("driver did not connect to peer 1, peers = %v", d.peers)
	}
	if got := d.currentLeader(); got != 1 {
		t.Fatalf("currentLeader() = %d, want 1", got)
	}

	result, err := d.Put([]byte("apple"), []byte("a day"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !result.Success() {
		t.Fatalf("Put result = %+v, want success", result)
	}

	value, rc, err := d.GetFrom(1, []byte("apple"))
	if err != nil {
		t.Fatalf("GetFrom: %v", err)
	}
	if rc != engine.RCOk || string(value) != "a day" {
		t.Fatalf("GetFrom = (%q, %d), want (\"a day\", 0)", value, rc)
	}
}

func TestDriverRejectsUnreachableSeed(t *testing.T) {
	_, err := New(Config{Host: "127.0.0.1", Port: 1, Timeout: 200 * time.Millisecond, MaxRetries: 1}, logging.Nop())
	if err == nil {
		t.Fatalf("New against an unreachable seed succeeded, want error")
	}
}
