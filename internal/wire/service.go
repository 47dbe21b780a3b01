package wire

import (
	"context"

	"google.golang.org/grpc"
)

// ClientServiceServer is implemented by internal/server's per-RPC
// handlers and registered against the client-facing listener (spec §6,
// "RPC surface - client port"). Hand-written in place of the
// protoc-gen-go-grpc output the teacher's internal/rpc/proto would
// have generated (see DESIGN.md).
type ClientServiceServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	GetServerID(context.Context, *GetServerIDRequest) (*GetServerIDResponse, error)
	GetLeaderID(context.Context, *GetLeaderIDRequest) (*GetLeaderIDResponse, error)
	GetClusterEndpoints(context.Context, *GetClusterEndpointsRequest) (*GetClusterEndpointsResponse, error)
	Get(context.Context, *GetRequest) (*GetResponse, error)
	Put(context.Context, *PutRequest) (*MutationResponse, error)
	Update(context.Context, *UpdateRequest) (*MutationResponse, error)
	Delete(context.Context, *DeleteRequest) (*MutationResponse, error)
	DumpCache(context.Context, *DumpCacheRequest) (*DumpCacheResponse, error)
	ClearCache(context.Context, *ClearCacheRequest) (*ClearCacheResponse, error)
}

// JoinServiceServer is registered against the separate join-port
// listener (spec §4.6, §6).
type JoinServiceServer interface {
	Join(context.Context, *JoinRequest) (*JoinResponse, error)
}

func clientServiceHandler(method string, newReq func() interface{}, call func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/replikv.ClientService/" + method}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv, ctx, req)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ClientServiceDesc is the hand-written grpc.ServiceDesc for the
// client-facing RPC surface, in place of the generated descriptor a
// protoc-gen-go-grpc run would normally produce.
var ClientServiceDesc = grpc.ServiceDesc{
	ServiceName: "replikv.ClientService",
	HandlerType: (*ClientServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		clientServiceHandler("Ping", func() interface{} { return new(PingRequest) }, func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(ClientServiceServer).Ping(ctx, req.(*PingRequest))
		}),
		clientServiceHandler("GetServerId", func() interface{} { return new(GetServerIDRequest) }, func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(ClientServiceServer).GetServerID(ctx, req.(*GetServerIDRequest))
		}),
		clientServiceHandler("GetLeaderId", func() interface{} { return new(GetLeaderIDRequest) }, func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(ClientServiceServer).GetLeaderID(ctx, req.(*GetLeaderIDRequest))
		}),
		clientServiceHandler("GetClusterEndpoints", func() interface{} { return new(GetClusterEndpointsRequest) }, func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(ClientServiceServer).GetClusterEndpoints(ctx, req.(*GetClusterEndpointsRequest))
		}),
		clientServiceHandler("Get", func() interface{} { return new(GetRequest) }, func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(ClientServiceServer).Get(ctx, req.(*GetRequest))
		}),
		clientServiceHandler("Put", func() interface{} { return new(PutRequest) }, func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(ClientServiceServer).Put(ctx, req.(*PutRequest))
		}),
		clientServiceHandler("Update", func() interface{} { return new(UpdateRequest) }, func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(ClientServiceServer).Update(ctx, req.(*UpdateRequest))
		}),
		clientServiceHandler("Delete", func() interface{} { return new(DeleteRequest) }, func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(ClientServiceServer).Delete(ctx, req.(*DeleteRequest))
		}),
		clientServiceHandler("DumpCache", func() interface{} { return new(DumpCacheRequest) }, func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(ClientServiceServer).DumpCache(ctx, req.(*DumpCacheRequest))
		}),
		clientServiceHandler("ClearCache", func() interface{} { return new(ClearCacheRequest) }, func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
			return srv.(ClientServiceServer).ClearCache(ctx, req.(*ClearCacheRequest))
		}),
	},
	Metadata: "replikv/client_service.proto",
}

// JoinServiceDesc is the join-port counterpart of ClientServiceDesc.
var JoinServiceDesc = grpc.ServiceDesc{
	ServiceName: "replikv.JoinService",
	HandlerType: (*JoinServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Join",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(JoinRequest)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(JoinServiceServer).Join(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/replikv.JoinService/Join"}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(JoinServiceServer).Join(ctx, req.(*JoinRequest))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
	},
	Metadata: "replikv/join_service.proto",
}
