package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when an artifact does not exist at its reference.
var ErrNotFound = errors.New("artifact not found")

// Fetcher retrieves the raw bytes of an artifact.
type Fetcher interface {
	Fetch(ctx context.Context, ref Ref) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, ref Ref) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, ref Ref) ([]byte, error) { return f(ctx, ref) }

// Router dispatches a reference to the fetcher registered for its scheme.
type Router struct {
	fetchers map[Scheme]Fetcher
}

// NewRouter registers the local filesystem fetcher; add remote fetchers with Handle.
func NewRouter() *Router {
	return &Router{fetchers: map[Scheme]Fetcher{SchemeFile: FileFetcher{}}}
}

// Handle registers f for scheme, replacing any previous fetcher.
func (r *Router) Handle(scheme Scheme, f Fetcher) *Router {
	r.fetchers[scheme] = f
	return r
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, ref Ref) ([]byte, error) {
	f, ok := r.fetchers[ref.Scheme]
	if !ok || f == nil {
		return nil, fmt.Errorf("no fetcher configured for %s references (%s)", ref.Scheme, ref.Raw)
	}
	return f.Fetch(ctx, ref)
}

// FileFetcher reads artifacts from the local filesystem.
type FileFetcher struct{}

// Fetch implements Fetcher.
func (FileFetcher) Fetch(ctx context.Context, ref Ref) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ref.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref.Path)
	}
	return data, err
}

func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("artifact exceeds %d bytes", max)
	}
	return data, nil
}
