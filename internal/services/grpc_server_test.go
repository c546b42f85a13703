package services

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/cluster-atlas/internal/api"
	"github.com/miradorstack/cluster-atlas/internal/config"
	atlasv1 "github.com/miradorstack/cluster-atlas/internal/grpc/atlasv1"
)

func TestClusterAtlasOverGRPC(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	loader := &loaderStub{ds: testDataset(t)}
	svc := NewAtlasService(nil, loader, Options{RegionColumn: "ent_resid", ClusterColumn: "cluster", HighlightCluster: 2})
	server := api.NewServerWithListener(config.ServerConfig{GracefulTimeout: time.Second}, lis, svc)
	svc.OnReadyChange(server.SetReady)

	go func() { _ = server.Start() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health := healthpb.NewHealthClient(conn)
	resp, err := health.Check(ctx, &healthpb.HealthCheckRequest{Service: atlasv1.ServiceName})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING before load, got %v %v", resp, err)
	}

	if _, err := svc.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	resp, err = health.Check(ctx, &healthpb.HealthCheckRequest{Service: atlasv1.ServiceName})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING after load, got %v %v", resp, err)
	}

	client := atlasv1.NewClusterAtlasClient(conn)
	req, _ := structpb.NewStruct(map[string]any{"cluster_id": 0})
	share, err := client.ClusterShare(ctx, req)
	if err != nil {
		t.Fatalf("cluster share: %v", err)
	}
	regions := share.Fields["regions"].GetListValue().GetValues()
	if len(regions) != 2 || regions[0].GetStructValue().Fields["code"].GetStringValue() != "01" {
		t.Fatalf("unexpected share response %v", share)
	}

	distReq, _ := structpb.NewStruct(map[string]any{"region": "01"})
	dist, err := client.RegionDistribution(ctx, distReq)
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if dist.Fields["total"].GetNumberValue() != 3 {
		t.Fatalf("unexpected distribution %v", dist)
	}

	hc, err := client.HealthCheck(ctx, &structpb.Struct{})
	if err != nil || hc.Fields["status"].GetStringValue() != "SERVING" {
		t.Fatalf("unexpected health %v %v", hc, err)
	}
}
