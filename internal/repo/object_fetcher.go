package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStoreConfig holds connection parameters for an S3-compatible store.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	MaxBytes  int64
}

// ObjectFetcher reads s3:// artifacts through minio-go.
type ObjectFetcher struct {
	client   *minio.Client
	maxBytes int64
}

// NewObjectFetcher constructs a fetcher for the configured endpoint.
func NewObjectFetcher(cfg ObjectStoreConfig) (*ObjectFetcher, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("object store endpoint is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}
	return &ObjectFetcher{client: client, maxBytes: cfg.MaxBytes}, nil
}

// Fetch implements Fetcher for s3 references.
func (f *ObjectFetcher) Fetch(ctx context.Context, ref Ref) ([]byte, error) {
	if ref.Scheme != SchemeS3 {
		return nil, fmt.Errorf("object fetcher cannot handle %s references", ref.Scheme)
	}
	obj, err := f.client.GetObject(ctx, ref.Bucket, ref.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, objectError(ref, err)
	}
	defer obj.Close()

	data, err := readLimited(obj, f.maxBytes)
	if err != nil {
		return nil, objectError(ref, err)
	}
	return data, nil
}

func objectError(ref Ref, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrNotFound, ref.Raw)
	}
	return fmt.Errorf("get object %s/%s: %w", ref.Bucket, ref.Key, err)
}
