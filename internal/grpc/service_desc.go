package grpc

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName       = "campaign.v1.CampaignAnalyzer"
	AnalyzeFullMethod = "/" + ServiceName + "/Analyze"
)

// CampaignAnalyzerServer is the server API for the CampaignAnalyzer service.
// Messages are google.protobuf.Struct so the service needs no generated code.
type CampaignAnalyzerServer interface {
	Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func analyzeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CampaignAnalyzerServer).Analyze(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: AnalyzeFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CampaignAnalyzerServer).Analyze(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var CampaignAnalyzerServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CampaignAnalyzerServer)(nil),
	Methods: []grpclib.MethodDesc{
		{
			MethodName: "Analyze",
			Handler:    analyzeHandler,
		},
	},
	Streams: []grpclib.StreamDesc{},
}

func RegisterCampaignAnalyzerServer(s grpclib.ServiceRegistrar, srv CampaignAnalyzerServer) {
	s.RegisterService(&CampaignAnalyzerServiceDesc, srv)
}

// CampaignAnalyzerClient calls the CampaignAnalyzer service over cc.
type CampaignAnalyzerClient struct {
	cc grpclib.ClientConnInterface
}

func NewCampaignAnalyzerClient(cc grpclib.ClientConnInterface) *CampaignAnalyzerClient {
	return &CampaignAnalyzerClient{cc: cc}
}

func (c *CampaignAnalyzerClient) Analyze(ctx context.Context, in *structpb.Struct, opts ...grpclib.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AnalyzeFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
