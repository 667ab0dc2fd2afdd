package artifact

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweep removes entries of dirs whose modification time is older than maxAge and
// returns how many were removed. Entries that vanish between listing and removal were
// already released by their request and are skipped silently. Directories (scratch
// space) are removed recursively.
func (m *Manager) Sweep(dirs []string, maxAge time.Duration) (int, error) {
	cutoff := m.now().Add(-maxAge)
	removed := 0
	var errs []error

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = append(errs, err)
			continue
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			info, err := os.Lstat(path)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					errs = append(errs, &ArtifactError{Path: path, Err: err})
				}
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}

			if info.IsDir() {
				err = os.RemoveAll(path)
			} else {
				err = os.Remove(path)
			}
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					errs = append(errs, &ArtifactError{Path: path, Err: err})
				}
				continue
			}

			removed++
			m.logger.WithField("path", path).Info("Cleaned up old file")
		}
	}

	return removed, errors.Join(errs...)
}

// RunSweeper sweeps the managed directories once and then every interval until ctx is
// cancelled. It never blocks request handling: it only looks at the filesystem.
func (m *Manager) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if maxAge <= 0 {
		maxAge = DefaultRetention
	}

	sweep := func() {
		removed, err := m.Sweep(m.Dirs(), maxAge)
		entry := m.logger.WithFields(logrus.Fields{"removed": removed, "retention": maxAge.String()})
		if err != nil {
			entry.WithError(err).Warn("Artifact sweep finished with errors")
			return
		}
		entry.Debug("Artifact sweep finished")
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
