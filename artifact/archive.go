package artifact

import (
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/zip"
)

// ArchiveEntry is one file placed in an output archive.
type ArchiveEntry struct {
	Name string
	Data []byte
}

// WriteArchive packages entries into a ZIP artifact in the temp directory. Duplicate
// entry names get a numeric suffix.
func (m *Manager) WriteArchive(entries []ArchiveEntry) (*Artifact, error) {
	a, f, err := m.create(m.tempDir, KindArchive, ".zip")
	if err != nil {
		return nil, err
	}

	zw := zip.NewWriter(f)
	err = writeEntries(zw, entries, m.now())
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		m.ReleaseAll(a)
		return nil, fmt.Errorf("write archive: %w", err)
	}

	if info, err := os.Stat(a.Path); err == nil {
		a.Size = info.Size()
	}
	return a, nil
}

func writeEntries(zw *zip.Writer, entries []ArchiveEntry, modified time.Time) error {
	used := make(map[string]int)
	for _, e := range entries {
		name := SanitizeFilename(e.Name)
		if n := used[name]; n > 0 {
			name = fmt.Sprintf("%d_%s", n, name)
		}
		used[SanitizeFilename(e.Name)]++

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return err
		}
		if _, err := w.Write(e.Data); err != nil {
			return err
		}
	}
	return nil
}
