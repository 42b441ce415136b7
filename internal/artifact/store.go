package artifact

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"bsiwatch/internal/model"
)

// Store writes snapshot artifacts as pretty-printed JSON files. Writing is
// skipped when the rendered content matches what is already on disk, so an
// unchanged scrape leaves no dirty file behind.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Write renders the snapshot into its artifact file and reports the file path
// and whether the content changed.
func (s *Store) Write(snapshot *model.Snapshot) (string, bool, error) {
	data, err := snapshot.MarshalGroups()
	if err != nil {
		return "", false, fmt.Errorf("marshal %s groups: %w", snapshot.Source, err)
	}

	path := filepath.Join(s.dir, snapshot.Filename())
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return path, false, nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", false, err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", false, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", false, err
	}
	return path, true, nil
}
