package grpc

// proto.go defines the gRPC server interface for fraudscope/scoring/v1/scoring.proto.
// Messages travel as JSON via the codec in json_codec.go.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "fraudscope.scoring.v1.ScoringService"

// ScoreTransactionMethod is the full method path clients invoke.
const ScoreTransactionMethod = "/" + ServiceName + "/ScoreTransaction"

// ScoringServiceServer is the server API for ScoringService.
type ScoringServiceServer interface {
	ScoreTransaction(context.Context, *ScoreTransactionRequest) (*ScoreTransactionResponse, error)
	mustEmbedUnimplementedScoringServiceServer()
}

// UnimplementedScoringServiceServer provides forward-compatible default implementations.
type UnimplementedScoringServiceServer struct{}

func (UnimplementedScoringServiceServer) ScoreTransaction(context.Context, *ScoreTransactionRequest) (*ScoreTransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ScoreTransaction not implemented")
}
func (UnimplementedScoringServiceServer) mustEmbedUnimplementedScoringServiceServer() {}

// RegisterScoringServiceServer registers the ScoringServiceServer with the gRPC server.
func RegisterScoringServiceServer(s grpclib.ServiceRegistrar, srv ScoringServiceServer) {
	s.RegisterService(&_ScoringService_serviceDesc, srv)
}

var _ScoringService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScoringServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "ScoreTransaction", Handler: _ScoringService_ScoreTransaction_Handler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "fraudscope/scoring/v1/scoring.proto",
}

func _ScoringService_ScoreTransaction_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(ScoreTransactionRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoringServiceServer).ScoreTransaction(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: ScoreTransactionMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ScoringServiceServer).ScoreTransaction(ctx, req.(*ScoreTransactionRequest))
	}
	return interceptor(ctx, req, info, handler)
}
