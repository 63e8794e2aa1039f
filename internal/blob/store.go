package blob

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Folder namespaces inside the store, one per content kind.
const (
	FolderIntroThumbnails      = "intro-thumbnails"
	FolderCurriculumThumbnails = "curriculum-thumbnails"
)

// Store persists binary blobs addressed by relative, folder-namespaced
// string paths. The DB stores those paths as opaque columns; referential
// integrity between a row and its blob is the orchestrator's problem, not
// the store's. Once Put returns the blob is durably visible, and DeleteAll
// has no undo.
type Store interface {
	// Put writes data under folder and returns the relative path to record
	// in the DB. The name is derived from a timestamp, the sanitized base
	// name and an extension matching the content type. Fails with a
	// *apperr.BlobWriteFault when the destination cannot be written.
	Put(ctx context.Context, folder, baseName, contentType string, data []byte) (string, error)
	// DeleteAll best-effort deletes each path independently. A missing file
	// counts as already deleted; any other error is logged and flips the
	// aggregate result to false without aborting the remaining deletions.
	DeleteAll(ctx context.Context, paths []string) bool
	// Exists reports whether a previously returned path still resolves.
	Exists(ctx context.Context, path string) (bool, error)
}

var baseNameSanitizer = regexp.MustCompile(`[^a-z0-9._-]+`)

var extByContentType = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// objectName derives a collision-resistant file name: nanosecond timestamp,
// sanitized base name, extension from the content type.
func objectName(baseName, contentType string) string {
	base := strings.ToLower(strings.TrimSpace(baseName))
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	base = baseNameSanitizer.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "blob"
	}
	ext, ok := extByContentType[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		ext = ".bin"
	}
	return fmt.Sprintf("%d_%s%s", time.Now().UTC().UnixNano(), base, ext)
}
