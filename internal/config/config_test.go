package config

import (
	"os"
	"path/filepath"
	"testing"

	"replikv/internal/replica"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replikv.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server_id: 1
raft_addr: 127.0.0.1:9001
client_addr: 127.0.0.1:9011
join_addr: 127.0.0.1:9021
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HeartbeatIntervalMs != 100 || cfg.ElectionTimeoutUpperMs != 400 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.ReturnMethod != "blocking" {
		t.Fatalf("ReturnMethod = %q, want blocking", cfg.ReturnMethod)
	}
}

func TestLoadRejectsMissingServerID(t *testing.T) {
	path := writeConfig(t, `
raft_addr: 127.0.0.1:9001
client_addr: 127.0.0.1:9011
join_addr: 127.0.0.1:9021
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("Load succeeded with no server_id, want error")
	}
}

func TestReplicaConfigMapsReturnMethod(t *testing.T) {
	path := writeConfig(t, `
server_id: 2
raft_addr: 127.0.0.1:9002
client_addr: 127.0.0.1:9012
join_addr: 127.0.0.1:9022
return_method: async_callback
snapshot_distance: 5000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rc := cfg.ReplicaConfig()
	if rc.ServerID != 2 || rc.SnapshotDistance != 5000 || rc.ReturnMethod != replica.AsyncCallback {
		t.Fatalf("ReplicaConfig() = %+v", rc)
	}
}
