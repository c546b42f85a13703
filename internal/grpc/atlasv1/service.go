// Package atlasv1 declares the atlas.v1.ClusterAtlas gRPC service. Requests and responses are
// google.protobuf.Struct values whose fields are documented on each method.
package atlasv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "atlas.v1.ClusterAtlas"

// Full method names.
const (
	ClusterAtlas_ClusterShare_FullMethodName       = "/atlas.v1.ClusterAtlas/ClusterShare"
	ClusterAtlas_DominantCluster_FullMethodName    = "/atlas.v1.ClusterAtlas/DominantCluster"
	ClusterAtlas_RegionDistribution_FullMethodName = "/atlas.v1.ClusterAtlas/RegionDistribution"
	ClusterAtlas_ListRegions_FullMethodName        = "/atlas.v1.ClusterAtlas/ListRegions"
	ClusterAtlas_ListProfiles_FullMethodName       = "/atlas.v1.ClusterAtlas/ListProfiles"
	ClusterAtlas_HealthCheck_FullMethodName        = "/atlas.v1.ClusterAtlas/HealthCheck"
)

// ClusterAtlasServer is the server API for the ClusterAtlas service.
type ClusterAtlasServer interface {
	// ClusterShare takes {cluster_id?: number} and returns
	// {cluster_id, cluster_label, regions: [{code, name, value}]}.
	ClusterShare(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// DominantCluster returns {regions: [{code, name, value, label}]}.
	DominantCluster(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// RegionDistribution takes {region: string} and returns
	// {region: {code, name}, total, shares: [{cluster_id, label, percentage}]}.
	RegionDistribution(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListRegions returns {regions: [{code, name}]}.
	ListRegions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListProfiles returns {columns, rows, clusters: [{id, name, description, size}]}.
	ListProfiles(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// HealthCheck returns {status, cases, features, loaded_at}.
	HealthCheck(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedClusterAtlasServer can be embedded to have forward compatible implementations.
type UnimplementedClusterAtlasServer struct{}

func (UnimplementedClusterAtlasServer) ClusterShare(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ClusterShare not implemented")
}
func (UnimplementedClusterAtlasServer) DominantCluster(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method DominantCluster not implemented")
}
func (UnimplementedClusterAtlasServer) RegionDistribution(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RegionDistribution not implemented")
}
func (UnimplementedClusterAtlasServer) ListRegions(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListRegions not implemented")
}
func (UnimplementedClusterAtlasServer) ListProfiles(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListProfiles not implemented")
}
func (UnimplementedClusterAtlasServer) HealthCheck(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method HealthCheck not implemented")
}

// RegisterClusterAtlasServer registers srv on s.
func RegisterClusterAtlasServer(s grpc.ServiceRegistrar, srv ClusterAtlasServer) {
	s.RegisterService(&ClusterAtlas_ServiceDesc, srv)
}

type unaryMethod func(srv ClusterAtlasServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ClusterAtlasServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ClusterAtlasServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ClusterAtlas_ServiceDesc is the grpc.ServiceDesc for the ClusterAtlas service.
var ClusterAtlas_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ClusterAtlasServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ClusterShare",
			Handler: unaryHandler(ClusterAtlas_ClusterShare_FullMethodName, func(s ClusterAtlasServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.ClusterShare(ctx, in)
			}),
		},
		{
			MethodName: "DominantCluster",
			Handler: unaryHandler(ClusterAtlas_DominantCluster_FullMethodName, func(s ClusterAtlasServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.DominantCluster(ctx, in)
			}),
		},
		{
			MethodName: "RegionDistribution",
			Handler: unaryHandler(ClusterAtlas_RegionDistribution_FullMethodName, func(s ClusterAtlasServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.RegionDistribution(ctx, in)
			}),
		},
		{
			MethodName: "ListRegions",
			Handler: unaryHandler(ClusterAtlas_ListRegions_FullMethodName, func(s ClusterAtlasServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.ListRegions(ctx, in)
			}),
		},
		{
			MethodName: "ListProfiles",
			Handler: unaryHandler(ClusterAtlas_ListProfiles_FullMethodName, func(s ClusterAtlasServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.ListProfiles(ctx, in)
			}),
		},
		{
			MethodName: "HealthCheck",
			Handler: unaryHandler(ClusterAtlas_HealthCheck_FullMethodName, func(s ClusterAtlasServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.HealthCheck(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "atlas/v1/atlas.proto",
}

// ClusterAtlasClient is the client API for the ClusterAtlas service.
type ClusterAtlasClient interface {
	ClusterShare(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	DominantCluster(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RegionDistribution(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListRegions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListProfiles(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	HealthCheck(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type clusterAtlasClient struct {
	cc grpc.ClientConnInterface
}

// NewClusterAtlasClient wraps a connection.
func NewClusterAtlasClient(cc grpc.ClientConnInterface) ClusterAtlasClient {
	return &clusterAtlasClient{cc: cc}
}

func (c *clusterAtlasClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAtlasClient) ClusterShare(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ClusterAtlas_ClusterShare_FullMethodName, in, opts)
}

func (c *clusterAtlasClient) DominantCluster(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ClusterAtlas_DominantCluster_FullMethodName, in, opts)
}

func (c *clusterAtlasClient) RegionDistribution(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ClusterAtlas_RegionDistribution_FullMethodName, in, opts)
}

func (c *clusterAtlasClient) ListRegions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ClusterAtlas_ListRegions_FullMethodName, in, opts)
}

func (c *clusterAtlasClient) ListProfiles(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ClusterAtlas_ListProfiles_FullMethodName, in, opts)
}

func (c *clusterAtlasClient) HealthCheck(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ClusterAtlas_HealthCheck_FullMethodName, in, opts)
}
