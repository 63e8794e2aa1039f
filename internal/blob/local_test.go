package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aloratech/coachcraft-backend/internal/apperr"
	"github.com/aloratech/coachcraft-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestLocalStorePutAndExists(t *testing.T) {
	s, err := NewLocalStore(testLogger(t), t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	path, err := s.Put(ctx, FolderIntroThumbnails, "My Thumb!.PNG", "image/png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(path, FolderIntroThumbnails+"/") {
		t.Fatalf("path not folder-namespaced: %q", path)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Fatalf("extension not derived from content type: %q", path)
	}
	if strings.Contains(path, "!") || strings.Contains(path, " ") {
		t.Fatalf("base name not sanitized: %q", path)
	}

	ok, err := s.Exists(ctx, path)
	if err != nil || !ok {
		t.Fatalf("Exists after Put: ok=%v err=%v", ok, err)
	}
}

func TestLocalStorePutUnknownContentType(t *testing.T) {
	s, err := NewLocalStore(testLogger(t), t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	path, err := s.Put(context.Background(), FolderCurriculumThumbnails, "thumb", "application/octet-stream", []byte("x"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasSuffix(path, ".bin") {
		t.Fatalf("unknown content type should fall back to .bin, got %q", path)
	}
}

func TestLocalStorePutWriteFault(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(testLogger(t), root)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	// A file standing where the destination folder should be makes MkdirAll fail.
	if err := os.WriteFile(filepath.Join(root, FolderIntroThumbnails), []byte("in the way"), 0o644); err != nil {
		t.Fatalf("plant blocker: %v", err)
	}
	_, err = s.Put(context.Background(), FolderIntroThumbnails, "thumb", "image/png", []byte("x"))
	if err == nil {
		t.Fatal("expected write fault")
	}
	var wf *apperr.BlobWriteFault
	if !errors.As(err, &wf) {
		t.Fatalf("expected *apperr.BlobWriteFault, got %T: %v", err, err)
	}
}

func TestLocalStoreDeleteAll(t *testing.T) {
	s, err := NewLocalStore(testLogger(t), t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	p1, err := s.Put(ctx, FolderIntroThumbnails, "a", "image/png", []byte("a"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	p2, err := s.Put(ctx, FolderCurriculumThumbnails, "b", "image/jpeg", []byte("b"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A missing path is already-deleted, not a failure, and must not stop
	// the remaining deletions.
	if ok := s.DeleteAll(ctx, []string{"intro-thumbnails/never-existed.png", p1, "", p2}); !ok {
		t.Fatal("DeleteAll should succeed with missing paths treated as deleted")
	}
	for _, p := range []string{p1, p2} {
		if ok, _ := s.Exists(ctx, p); ok {
			t.Fatalf("path %q still exists after DeleteAll", p)
		}
	}
}

func TestLocalStoreRejectsEscapingPaths(t *testing.T) {
	s, err := NewLocalStore(testLogger(t), t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if _, err := s.Exists(context.Background(), "../outside"); err == nil {
		t.Fatal("expected error for path escaping the root")
	}
	if ok := s.DeleteAll(context.Background(), []string{"../../etc/passwd"}); ok {
		t.Fatal("DeleteAll must report failure for escaping paths")
	}
}
