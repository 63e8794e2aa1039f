package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aloratech/coachcraft-backend/internal/apperr"
	"github.com/aloratech/coachcraft-backend/internal/logger"
)

// LocalStore keeps blobs on the local filesystem under a single root
// directory. Paths handed back to callers are relative to that root.
type LocalStore struct {
	log  *logger.Logger
	root string
}

func NewLocalStore(log *logger.Logger, root string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local blob store root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &LocalStore{
		log:  log.With("service", "LocalBlobStore"),
		root: root,
	}, nil
}

func (s *LocalStore) Put(ctx context.Context, folder, baseName, contentType string, data []byte) (string, error) {
	rel := filepath.ToSlash(filepath.Join(folder, objectName(baseName, contentType)))
	abs, err := s.resolve(rel)
	if err != nil {
		return "", &apperr.BlobWriteFault{Path: rel, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", &apperr.BlobWriteFault{Path: rel, Err: err}
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", &apperr.BlobWriteFault{Path: rel, Err: err}
	}
	s.log.Debug("Blob written", "path", rel, "bytes", len(data))
	return rel, nil
}

func (s *LocalStore) DeleteAll(ctx context.Context, paths []string) bool {
	allSucceeded := true
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		abs, err := s.resolve(p)
		if err != nil {
			s.log.Warn("Blob delete skipped: bad path", "path", p, "error", err)
			allSucceeded = false
			continue
		}
		if err := os.Remove(abs); err != nil {
			if os.IsNotExist(err) {
				// Already gone counts as deleted.
				continue
			}
			s.log.Warn("Blob delete failed", "path", p, "error", err)
			allSucceeded = false
		}
	}
	return allSucceeded
}

func (s *LocalStore) Exists(ctx context.Context, path string) (bool, error) {
	abs, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// resolve rejects paths that would escape the store root.
func (s *LocalStore) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("path escapes blob root: %q", rel)
	}
	return filepath.Join(s.root, clean), nil
}
