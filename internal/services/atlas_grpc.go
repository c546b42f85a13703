package services

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/cluster-atlas/internal/api"
	"github.com/miradorstack/cluster-atlas/internal/engine"
	"github.com/miradorstack/cluster-atlas/internal/utils"
)

// ClusterShare implements the gRPC ClusterAtlas service.
func (s *AtlasService) ClusterShare(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	domainReq, err := api.FromProtoShareRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := s.Shares(ctx, domainReq)
	if err != nil {
		return nil, s.statusError("cluster share", err)
	}
	return s.encode(api.ToProtoShareResult(res))
}

// DominantCluster implements the gRPC ClusterAtlas service.
func (s *AtlasService) DominantCluster(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.Dominant(ctx)
	if err != nil {
		return nil, s.statusError("dominant cluster", err)
	}
	return s.encode(api.ToProtoDominantResult(res))
}

// RegionDistribution implements the gRPC ClusterAtlas service.
func (s *AtlasService) RegionDistribution(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	code, err := api.FromProtoDistributionRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := s.Distribution(ctx, code)
	if err != nil {
		return nil, s.statusError("region distribution", err)
	}
	return s.encode(api.ToProtoDistributionResult(res))
}

// ListRegions implements the gRPC ClusterAtlas service.
func (s *AtlasService) ListRegions(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	regions, err := s.Regions(ctx)
	if err != nil {
		return nil, s.statusError("list regions", err)
	}
	return s.encode(api.ToProtoRegions(regions))
}

// ListProfiles implements the gRPC ClusterAtlas service.
func (s *AtlasService) ListProfiles(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	table, clusters, err := s.Profiles(ctx)
	if err != nil {
		return nil, s.statusError("list profiles", err)
	}
	return s.encode(api.ToProtoProfiles(table, clusters))
}

// HealthCheck reports SERVING once a dataset is loaded.
func (s *AtlasService) HealthCheck(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	state := "NOT_SERVING"
	if s.Ready() {
		state = "SERVING"
	}
	return s.encode(api.ToProtoHealth(state, s.Info()))
}

func (s *AtlasService) encode(out *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		s.logger.Error("encode response failed", slog.Any("error", err))
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// statusError maps domain errors onto gRPC codes.
func (s *AtlasService) statusError(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotReady):
		return status.Error(codes.Unavailable, "dataset not loaded yet")
	case errors.Is(err, ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, engine.ErrMissingColumn), errors.Is(err, engine.ErrInvalidCluster):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Error(op+" failed", slog.Any("error", err))
	return status.Error(codes.Internal, utils.UserMessage(err))
}
