package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/aloratech/coachcraft-backend/internal/apperr"
	"github.com/aloratech/coachcraft-backend/internal/logger"
)

// GCSStore keeps blobs in a single GCS bucket, with the same relative-path
// contract as LocalStore (object key == relative path).
type GCSStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewGCSStore(log *logger.Logger) (*GCSStore, error) {
	serviceLog := log.With("service", "GCSBlobStore")
	bucket := strings.TrimSpace(os.Getenv("BLOB_GCS_BUCKET_NAME"))
	if bucket == "" {
		return nil, fmt.Errorf("missing env var BLOB_GCS_BUCKET_NAME")
	}

	ctx := context.Background()
	var client *storage.Client
	var err error
	if saPath := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); saPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(storage.ScopeReadWrite))
	} else {
		client, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info("GCS blob store initialized", "bucket", bucket)
	return &GCSStore{log: serviceLog, client: client, bucket: bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, folder, baseName, contentType string, data []byte) (string, error) {
	rel := folder + "/" + objectName(baseName, contentType)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(rel).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", &apperr.BlobWriteFault{Path: rel, Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &apperr.BlobWriteFault{Path: rel, Err: err}
	}
	return rel, nil
}

func (s *GCSStore) DeleteAll(ctx context.Context, paths []string) bool {
	allSucceeded := true
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		dctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := s.client.Bucket(s.bucket).Object(p).Delete(dctx)
		cancel()
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			s.log.Warn("Blob delete failed", "path", p, "error", err)
			allSucceeded = false
		}
	}
	return allSucceeded
}

func (s *GCSStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
