package archive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
	"google.golang.org/api/option"
)

type objectWriter interface {
	NewWriter(ctx context.Context, name string, contentType string) io.WriteCloser
}

type bucketWriter struct {
	bucket *storage.BucketHandle
}

func (b bucketWriter) NewWriter(ctx context.Context, name string, contentType string) io.WriteCloser {
	w := b.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "no-cache"
	return w
}

type GCSArchive struct {
	client *storage.Client
	bucket string
	prefix string
	writer objectWriter
}

var _ ports.RoundArchive = (*GCSArchive)(nil)

// NewGCSArchive uploads rounds to gs://bucket/prefix/. Credentials come
// from the environment unless opts override them.
func NewGCSArchive(ctx context.Context, bucket string, prefix string, opts ...option.ClientOption) (*GCSArchive, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	return &GCSArchive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		writer: bucketWriter{bucket: client.Bucket(bucket)},
	}, nil
}

func (a *GCSArchive) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

func (a *GCSArchive) Archive(ctx context.Context, round domain.Round) error {
	dir, items, err := objects(round)
	if err != nil {
		return err
	}

	for _, item := range items {
		name := path.Join(a.prefix, dir, item.Name)
		if err := a.upload(ctx, name, item); err != nil {
			return err
		}
	}
	return nil
}

func (a *GCSArchive) upload(ctx context.Context, name string, item object) error {
	w := a.writer.NewWriter(ctx, name, item.ContentType)
	if _, err := w.Write(item.Data); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload gs://%s/%s: %w", a.bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish upload gs://%s/%s: %w", a.bucket, name, err)
	}
	return nil
}
