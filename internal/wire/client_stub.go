package wire

import (
	"context"

	"google.golang.org/grpc"
)

// ClientServiceClient is the client-side stub for the client-facing
// RPC surface, hand-written the way protoc-gen-go-grpc would generate
// it, calling grpc.ClientConn.Invoke directly against the method names
// ClientServiceDesc registers on the server side.
type ClientServiceClient struct {
	conn *grpc.ClientConn
}

func NewClientServiceClient(conn *grpc.ClientConn) ClientServiceClient {
	return ClientServiceClient{conn: conn}
}

func (c ClientServiceClient) Ping(ctx context.Context, in *PingRequest) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.conn.Invoke(ctx, "/replikv.ClientService/Ping", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c ClientServiceClient) GetServerID(ctx context.Context, in *GetServerIDRequest) (*GetServerIDResponse, error) {
	out := new(GetServerIDResponse)
	if err := c.conn.Invoke(ctx, "/replikv.ClientService/GetServerId", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c ClientServiceClient) GetLeaderID(ctx context.Context, in *GetLeaderIDRequest) (*GetLeaderIDResponse, error) {
	out := new(GetLeaderIDResponse)
	if err := c.conn.Invoke(ctx, "/replikv.ClientService/GetLeaderId", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c ClientServiceClient) GetClusterEndpoints(ctx context.Context, in *GetClusterEndpointsRequest) (*GetClusterEndpointsResponse, error) {
	out := new(GetClusterEndpointsResponse)
	if err := c.conn.Invoke(ctx, "/replikv.ClientService/GetClusterEndpoints", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c ClientServiceClient) Get(ctx context.Context, in *GetRequest) (*GetResponse, error) {
	out := new(GetResponse)
	if err := c.conn.Invoke(ctx, "/replikv.ClientService/Get", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c ClientServiceClient) Put(ctx context.Context, in *PutRequest) (*MutationResponse, error) {
	out := new(MutationResponse)
	if err := c.conn.Invoke(ctx, "/replikv.ClientService/Put", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c ClientServiceClient) Update(ctx context.Context, in *UpdateRequest) (*MutationResponse, error) {
	out := new(MutationResponse)
	if err := c.conn.Invoke(ctx, "/replikv.ClientService/Update", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c ClientServiceClient) Delete(ctx context.Context, in *DeleteRequest) (*MutationResponse, error) {
	out := new(MutationResponse)
	if err := c.conn.Invoke(ctx, "/replikv.ClientService/Delete", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c ClientServiceClient) DumpCache(ctx context.Context, in *DumpCacheRequest) (*DumpCacheResponse, error) {
	out := new(DumpCacheResponse)
	if err := c.conn.Invoke(ctx, "/replikv.ClientService/DumpCache", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c ClientServiceClient) ClearCache(ctx context.Context, in *ClearCacheRequest) (*ClearCacheResponse, error) {
	out := new(ClearCacheResponse)
	if err := c.conn.Invoke(ctx, "/replikv.ClientService/ClearCache", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// JoinServiceClient is the client-side stub for the join-port service.
type JoinServiceClient struct {
	conn *grpc.ClientConn
}

func NewJoinServiceClient(conn *grpc.ClientConn) JoinServiceClient {
	return JoinServiceClient{conn: conn}
}

func (c JoinServiceClient) Join(ctx context.Context, in *JoinRequest) (*JoinResponse, error) {
	out := new(JoinResponse)
	if err := c.conn.Invoke(ctx, "/replikv.JoinService/Join", in, out); err != nil {
		return nil, err
	}
	return out, nil
}
