package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/miradorstack/cluster-atlas/internal/cache"
	"github.com/miradorstack/cluster-atlas/internal/metrics"
	memcache "github.com/miradorstack/cluster-atlas/pkg/cache"
)

// ArtifactStore memoizes artifact bytes. Lookups go memory, then the shared cache (remote refs
// only), then the fetcher; concurrent loads of the same reference share one fetch.
type ArtifactStore struct {
	fetcher   Fetcher
	shared    cache.Provider
	memory    *memcache.TTLCache[[]byte]
	group     singleflight.Group
	prefix    string
	memoryTTL time.Duration
	sharedTTL time.Duration
	logger    *slog.Logger
}

// StoreOptions tunes memoization.
type StoreOptions struct {
	// Prefix namespaces shared cache keys.
	Prefix string
	// MemoryTTL bounds in-process memoization; zero keeps entries until invalidated.
	MemoryTTL time.Duration
	// SharedTTL bounds shared cache entries.
	SharedTTL time.Duration
}

// NewArtifactStore wires a fetcher to the memo layers. A nil provider disables the shared layer.
func NewArtifactStore(fetcher Fetcher, provider cache.Provider, opts StoreOptions, logger *slog.Logger) *ArtifactStore {
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactStore{
		fetcher:   fetcher,
		shared:    provider,
		memory:    memcache.NewTTLCache[[]byte](),
		prefix:    opts.Prefix,
		memoryTTL: opts.MemoryTTL,
		sharedTTL: opts.SharedTTL,
		logger:    logger,
	}
}

// Bytes returns the artifact content for ref. artifact names the artifact kind for metrics.
func (s *ArtifactStore) Bytes(ctx context.Context, artifact string, ref Ref) ([]byte, error) {
	if data, ok := s.memory.Get(ref.Raw); ok {
		metrics.ObserveCache("memory", true)
		return data, nil
	}
	metrics.ObserveCache("memory", false)

	v, err, _ := s.group.Do(ref.Raw, func() (any, error) {
		return s.load(ctx, artifact, ref)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate drops ref from every memo layer.
func (s *ArtifactStore) Invalidate(ctx context.Context, ref Ref) {
	s.memory.Delete(ref.Raw)
	if ref.Local() {
		return
	}
	if err := s.shared.Del(ctx, s.sharedKey(ref)); err != nil {
		s.logger.Warn("artifact cache invalidation failed", slog.String("ref", ref.Raw), slog.Any("error", err))
	}
}

// Purge drops every in-process entry; shared entries expire on their own TTL.
func (s *ArtifactStore) Purge() {
	s.memory.Purge()
}

func (s *ArtifactStore) load(ctx context.Context, artifact string, ref Ref) ([]byte, error) {
	key := s.sharedKey(ref)
	if !ref.Local() {
		data, err := s.shared.Get(ctx, key)
		switch {
		case err == nil:
			metrics.ObserveCache("redis", true)
			s.memory.Set(ref.Raw, data, s.memoryTTL)
			return data, nil
		case errors.Is(err, cache.ErrCacheMiss):
			metrics.ObserveCache("redis", false)
		default:
			s.logger.Warn("artifact cache read failed", slog.String("ref", ref.Raw), slog.Any("error", err))
		}
	}

	start := time.Now()
	data, err := s.fetcher.Fetch(ctx, ref)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.ObserveArtifactLoad(artifact, string(ref.Scheme), time.Since(start), outcome)
	if err != nil {
		return nil, err
	}

	s.memory.Set(ref.Raw, data, s.memoryTTL)
	if !ref.Local() {
		if err := s.shared.Set(ctx, key, data, s.sharedTTL); err != nil {
			s.logger.Warn("artifact cache write failed", slog.String("ref", ref.Raw), slog.Any("error", err))
		}
	}
	return data, nil
}

func (s *ArtifactStore) sharedKey(ref Ref) string {
	sum := sha256.Sum256([]byte(ref.Raw))
	return cache.Key(s.prefix, "artifact", hex.EncodeToString(sum[:16]))
}
