package server

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"replikv/internal/engine"
	"replikv/internal/logging"
	"replikv/internal/replica"
	"replikv/internal/wire"
)

func newTestServer(t *testing.T, id int32, raftAddr, clientAddr, joinAddr string, returnMethod replica.ReturnMethod) *Server {
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

	srv := New(Config{ClientAddr: clientAddr, JoinAddr: joinAddr, ReturnMethod: returnMethod}, rep, logging.Nop())
	go srv.Run()
	t.Cleanup(func() { srv.Shutdown(context.Background(), 5*time.Second) })

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if rep.GetLeader() != -1 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	return srv
}

func dialConn(t *testing.T, addr string) *grpc.ClientConn {
	t.Helper()
	var conn *grpc.ClientConn
	var err error
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		conn, err = grpc.DialContext(ctx, addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultCallOptions(grpc.ForceCodec(wire.Codec{})),
			grpc.WithBlock())
		cancel()
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func dialClient(t *testing.T, addr string) wire.ClientServiceClient {
	t.Helper()
	return wire.NewClientServiceClient(dialConn(t, addr))
}

func dialJoinClient(t *testing.T, addr string) wire.JoinServiceClient {
	t.Helper()
	return wire.NewJoinServiceClient(dialConn(t, addr))
}

func TestPutThenGetOverGRPC(t *testing.T) {
	newTestServer(t, 1, "127.0.0.1:18001", "127.0.0.1:18011", "127.0.0.1:18021", replica.Blocking)
	client := dialClient(t, "127.0.0.1:18011")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	putResp, err := client.Put(ctx, &wire.PutRequest{Key: []byte("apple"), Value: []byte("a day")})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if putResp.RaftRC != 0 || putResp.EngineRC != 0 {
		t.Fatalf("Put response = %+v, want success", putResp)
	}

	getResp, err := client.Get(ctx, &wire.GetRequest{Key: []byte("apple")})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !getResp.Found || string(getResp.Value) != "a day" {
		t.Fatalf("Get response = %+v, want found=true value=%q", getResp, "a day")
	}
}

func TestPingAndGetServerID(t *testing.T) {
	newTestServer(t, 9, "127.0.0.1:18002", "127.0.0.1:18012", "127.0.0.1:18022", replica.Blocking)
	client := dialClient(t, "127.0.0.1:18012")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pingResp, err := client.Ping(ctx, &wire.PingRequest{})
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pingResp.Message != "pong" {
		t.Fatalf("Ping response = %+v, want message=pong", pingResp)
	}

	idResp, err := client.GetServerID(ctx, &wire.GetServerIDRequest{})
	if err != nil {
		t.Fatalf("GetServerID: %v", err)
	}
	if idResp.ServerID != 9 {
		t.Fatalf("GetServerID() = %d, want 9", idResp.ServerID)
	}
}

func TestPutOverGRPCInAsyncCallbackMode(t *testing.T) {
	newTestServer(t, 2, "127.0.0.1:18003", "127.0.0.1:18013", "127.0.0.1:18023", replica.AsyncCallback)
	client := dialClient(t, "127.0.0.1:18013")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	putResp, err := client.Put(ctx, &wire.PutRequest{Key: []byte("banana"), Value: []byte("split")})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if putResp.RaftRC != 0 || putResp.EngineRC != 0 {
		t.Fatalf("Put response = %+v, want success", putResp)
	}

	getResp, err := client.Get(ctx, &wire.GetRequest{Key: []byte("banana")})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !getResp.Found || string(getResp.Value) != "split" {
		t.Fatalf("Get response = %+v, want found=true value=%q", getResp, "split")
	}
}

// newUnbootstrappedTestServer starts a peer that does not bootstrap its
// own single-voter cluster, matching spec §4.3's "awaiting a Join call
// from an existing leader" description of a fresh follower.
func newUnbootstrappedTestServer(t *testing.T, id int32, raftAddr, clientAddr, joinAddr string) *Server {
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
	}
	rep, err := replica.New(repCfg, eng, logging.Nop())
	if err != nil {
		t.Fatalf("replica.New: %v", err)
	}

	srv := New(Config{ClientAddr: clientAddr, JoinAddr: joinAddr}, rep, logging.Nop())
	go srv.Run()
	t.Cleanup(func() { srv.Shutdown(context.Background(), 5*time.Second) })
	return srv
}

// TestJoinRPCAddsFollowerAndReplicatesWrites drives a two-node version
// of spec §8 scenario #2 through the actual join-port RPC rather
// than calling replica.AddServer directly, so the Join handler
// (internal/server/server.go's joinHandlers.Join) and its gRPC service
// registration are exercised, not just the facade method underneath.
func TestJoinRPCAddsFollowerAndReplicatesWrites(t *testing.T) {
	leaderSrv := newTestServer(t, 1, "127.0.0.1:18004", "127.0.0.1:18014", "127.0.0.1:18024", replica.Blocking)

	newUnbootstrappedTestServer(t, 2, "127.0.0.1:18005", "127.0.0.1:18015", "127.0.0.1:18025")

	joinClient := dialJoinClient(t, "127.0.0.1:18024")
	joinCtx, joinCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer joinCancel()
	joinResp, err := joinClient.Join(joinCtx, &wire.JoinRequest{
		ServerID:       2,
		RaftEndpoint:   "127.0.0.1:18005",
		ClientEndpoint: "127.0.0.1:18015",
	})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joinResp.RC != 0 {
		t.Fatalf("Join response = %+v, want RC=0", joinResp)
	}

	leaderClient := dialClient(t, "127.0.0.1:18014")
	putCtx, putCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer putCancel()
	putResp, err := leaderClient.Put(putCtx, &wire.PutRequest{Key: []byte("k"), Value: []byte("v")})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if putResp.RaftRC != 0 || putResp.EngineRC != 0 {
		t.Fatalf("Put response = %+v, want success", putResp)
	}

	followerClient := dialClient(t, "127.0.0.1:18015")
	deadline := time.Now().Add(5 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		getResp, err := followerClient.Get(ctx, &wire.GetRequest{Key: []byte("k")})
		cancel()
		if err == nil && getResp.Found && string(getResp.Value) == "v" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("follower never observed replicated write (last resp=%+v, err=%v)", getResp, err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	endpointsResp, err := leaderClient.GetClusterEndpoints(context.Background(), &wire.GetClusterEndpointsRequest{})
	if err != nil {
		t.Fatalf("GetClusterEndpoints: %v", err)
	}
	found := false
	for _, ep := range endpointsResp.Endpoints {
		if ep.ServerID == 2 && ep.ClientEndpoint == "127.0.0.1:18015" {
			found = true
		}
	}
	if !found {
		t.Fatalf("GetClusterEndpoints() = %+v, want an entry for server 2 at 127.0.0.1:18015", endpointsResp.Endpoints)
	}
}
