package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/riskzones-cli/internal/grid"
)

// PathFor returns the snapshot file next to a run config: the config path
// with its extension replaced by ".cache".
func PathFor(configPath string) string {
	return strings.TrimSuffix(configPath, filepath.Ext(configPath)) + ".cache"
}

// FileStore keeps a snapshot as a JSON array of zone records.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(_ context.Context) ([]grid.Zone, bool, error) {
	recs, ok, err := s.read()
	if err != nil || !ok {
		return nil, ok, err
	}
	zones := make([]grid.Zone, len(recs))
	for i, r := range recs {
		zones[i] = r.zone()
	}
	return zones, true, nil
}

func (s *FileStore) read() ([]record, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "snapshot: read %s", s.path)
	}

	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, false, corrupted("snapshot: decode %s: %v", s.path, err)
	}
	return recs, true, nil
}

func (s *FileStore) Save(_ context.Context, _ string, zones []grid.Zone) error {
	recs := make([]record, len(zones))
	for i, z := range zones {
		recs[i] = toRecord(z)
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return eris.Wrap(err, "snapshot: encode")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "snapshot: write %s", tmp)
	}
	return eris.Wrapf(os.Rename(tmp, s.path), "snapshot: rename %s", tmp)
}

func (s *FileStore) Info(_ context.Context) (*Info, bool, error) {
	st, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "snapshot: stat %s", s.path)
	}
	recs, _, err := s.read()
	if err != nil {
		return nil, false, err
	}
	return &Info{Key: s.path, Zones: len(recs), CreatedAt: st.ModTime().UTC()}, true, nil
}

// Delete removes the snapshot file. A missing file is not an error.
func (s *FileStore) Delete(_ context.Context) error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return eris.Wrapf(err, "snapshot: delete %s", s.path)
}

func (s *FileStore) Close() error { return nil }
