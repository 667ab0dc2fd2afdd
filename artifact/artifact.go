// Package artifact manages the transient files a request creates: uploaded inputs,
// generated outputs and scratch directories. Every artifact lives under one of two
// managed directories and is addressed only by its generated identifier.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Kind is the declared content kind of an artifact.
type Kind string

const (
	KindDocument Kind = "document"
	KindImage    Kind = "image"
	KindArchive  Kind = "archive"
)

// ContentType returns the MIME type served for the kind.
func (k Kind) ContentType() string {
	switch k {
	case KindDocument:
		return "application/pdf"
	case KindArchive:
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// Artifact is a file owned by a single request until released.
type Artifact struct {
	ID           string
	Path         string
	Kind         Kind
	OriginalName string
	ContentType  string
	Size         int64
	Created      time.Time

	released atomic.Bool
}

// Released reports whether Release already ran for the artifact.
func (a *Artifact) Released() bool { return a.released.Load() }

func (a *Artifact) String() string {
	return fmt.Sprintf("%s(%s)", a.ID, a.Kind)
}

// ArtifactError reports a failure to delete an artifact. It is logged, never returned
// to clients.
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact cleanup %s: %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// newID returns "<unix millis>-<12 hex chars>", unique across concurrent requests.
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

// SanitizeFilename removes path traversal attempts and dangerous characters
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")

	filename = filepath.Base(filename)
	filename = strings.TrimSpace(filename)

	if filename == "" || filename == "." {
		filename = "document"
	}

	return filename
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, DefaultDirPermissions)
}
