package artifact

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// Options configures a Manager.
type Options struct {
	UploadDir string // uploaded inputs
	TempDir   string // generated outputs and scratch directories
	Logger    *logrus.Logger
	Now       func() time.Time
}

// Manager creates and releases artifacts. It keeps no per-request state: uniqueness of
// generated names is what keeps concurrent requests apart.
type Manager struct {
	uploadDir string
	tempDir   string
	logger    *logrus.Logger
	now       func() time.Time
}

// NewManager creates the managed directories if needed.
func NewManager(opts Options) (*Manager, error) {
	if opts.UploadDir == "" || opts.TempDir == "" {
		return nil, errors.New("artifact: upload and temp directories are required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Manager{logger: opts.Logger, now: opts.Now}
	for _, d := range []struct {
		dst *string
		src string
	}{{&m.uploadDir, opts.UploadDir}, {&m.tempDir, opts.TempDir}} {
		abs, err := filepath.Abs(d.src)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", d.src, err)
		}
		if err := ensureDir(abs); err != nil {
			return nil, fmt.Errorf("create %s: %w", abs, err)
		}
		*d.dst = abs
	}
	return m, nil
}

// Dirs returns the managed directories.
func (m *Manager) Dirs() []string {
	return []string{m.uploadDir, m.tempDir}
}

// Acquire stores an upload as a new artifact in the upload directory.
func (m *Manager) Acquire(r io.Reader, originalName string, kind Kind) (*Artifact, error) {
	originalName = SanitizeFilename(originalName)
	a, f, err := m.create(m.uploadDir, kind, extension(originalName))
	if err != nil {
		return nil, err
	}
	a.OriginalName = originalName

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		m.ReleaseAll(a)
		return nil, fmt.Errorf("save upload %s: %w", originalName, err)
	}
	a.Size = n

	m.logger.WithFields(logrus.Fields{
		"artifact": a.ID,
		"name":     originalName,
		"size":     humanize.Bytes(uint64(n)),
	}).Debug("Upload stored")
	return a, nil
}

// Write stores generated output as a new artifact in the temp directory.
func (m *Manager) Write(kind Kind, ext string, data []byte) (*Artifact, error) {
	a, f, err := m.create(m.tempDir, kind, ext)
	if err != nil {
		return nil, err
	}

	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		m.ReleaseAll(a)
		return nil, fmt.Errorf("write output: %w", err)
	}
	a.Size = int64(len(data))
	return a, nil
}

// ScratchDir creates a work directory inside the temp directory. The caller removes it
// with RemoveScratch; the sweep catches anything left behind.
func (m *Manager) ScratchDir(prefix string) (string, error) {
	dir := filepath.Join(m.tempDir, prefix+"-"+newID(m.now()))
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}

// RemoveScratch deletes a directory created by ScratchDir, logging failures.
func (m *Manager) RemoveScratch(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		m.logger.WithError(&ArtifactError{Path: dir, Err: err}).Warn("Failed to remove scratch directory")
	}
}

// Release deletes the artifact's file. It is idempotent, and a file that is already
// gone (e.g. removed by the sweep) is not an error.
func (m *Manager) Release(a *Artifact) error {
	if a == nil || a.released.Swap(true) {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &ArtifactError{Path: a.Path, Err: err}
	}
	m.logger.WithField("artifact", a.ID).Debug("Artifact released")
	return nil
}

// ReleaseAll releases every artifact, logging failures instead of returning them so
// they never mask the primary result of a request.
func (m *Manager) ReleaseAll(artifacts ...*Artifact) {
	for _, a := range artifacts {
		if err := m.Release(a); err != nil {
			m.logger.WithError(err).WithField("artifact", a.ID).Warn("Failed to release artifact")
		}
	}
}

func (m *Manager) create(dir string, kind Kind, ext string) (*Artifact, *os.File, error) {
	if err := ensureDir(dir); err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", dir, err)
	}

	now := m.now()
	id := newID(now)
	path := filepath.Join(dir, id+ext)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, DefaultFilePermissions)
	if err != nil {
		return nil, nil, fmt.Errorf("create artifact: %w", err)
	}

	return &Artifact{
		ID:          id,
		Path:        path,
		Kind:        kind,
		ContentType: kind.ContentType(),
		Created:     now,
	}, f, nil
}

// extension keeps a short lowercase extension from a client file name.
func extension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 6 || strings.ContainsAny(ext, " \t") {
		return ""
	}
	return ext
}
