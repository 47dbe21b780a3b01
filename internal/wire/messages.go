// Package wire defines the RPC request/response payloads for both
// listening ports (spec §6) and a grpc codec to carry them, grounded on
// shashank0302-GoDatabase/internal/rpc's service shape and
// internal/network/protocol.go's length-prefixed field-ordering
// discipline — field order below matches spec §6's table exactly, even
// though the bytes on the wire are gob-encoded rather than raw binary
// (see DESIGN.md for why protobuf itself was dropped).
package wire

// PingRequest/PingResponse — client port.
type PingRequest struct{}
type PingResponse struct {
	Message string
}

type GetServerIDRequest struct{}
type GetServerIDResponse struct {
	ServerID int32
}

type GetLeaderIDRequest struct{}
type GetLeaderIDResponse struct {
	LeaderID int32
}

type GetClusterEndpointsRequest struct{}
type ClusterEndpoint struct {
	ServerID       int32
	ClientEndpoint string
}
type GetClusterEndpointsResponse struct {
	Endpoints []ClusterEndpoint
}

type GetRequest struct {
	Key []byte
}
type GetResponse struct {
	Value    []byte
	Found    bool
	EngineRC int32
}

type PutRequest struct {
	Key   []byte
	Value []byte
}
type UpdateRequest struct {
	Key   []byte
	Value []byte
}
type DeleteRequest struct {
	Key []byte
}

// MutationResponse is shared by Put/Update/Delete (spec §6: "same as
// Put").
type MutationResponse struct {
	EngineRC int32
	RaftRC   int32
	RaftMsg  string
}

type DumpCacheRequest struct {
	Directory string
}
type DumpCacheResponse struct {
	Ok bool
}

type ClearCacheRequest struct{}
type ClearCacheResponse struct {
	Ok bool
}

// JoinRequest/JoinResponse — join port.
type JoinRequest struct {
	ServerID       int32
	RaftEndpoint   string
	ClientEndpoint string
}
type JoinResponse struct {
	RC      int32
	Message string
}
