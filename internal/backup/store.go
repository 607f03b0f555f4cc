package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Snapshot is the envelope persisted for one pre-change capture. State holds
// whatever the resource reader returned for the operation's target and is
// the payload an undo pushes back.
type Snapshot struct {
	Operation  string         `json:"operation"`
	Client     string         `json:"client"`
	CapturedAt time.Time      `json:"captured_at"`
	Args       map[string]any `json:"args"`
	State      map[string]any `json:"state"`
}

// FileStore persists snapshots as JSON files under
// <root>/<client>/backups/backup_<operation>_<timestamp>.json. Backups must
// stay retrievable by the exact path handed back from Save.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Save writes the snapshot and returns its path.
func (s *FileStore) Save(snap Snapshot) (string, error) {
	dir := filepath.Join(s.root, snap.Client, "backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	stamp := snap.CapturedAt.Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("backup_%s_%s.json", snap.Operation, stamp))
	for n := 1; exists(path); n++ {
		path = filepath.Join(dir, fmt.Sprintf("backup_%s_%s_%d.json", snap.Operation, stamp, n))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// Load reads a snapshot back from the path Save returned.
func (s *FileStore) Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snap, nil
}

// Exists reports whether the snapshot file is still on disk.
func (s *FileStore) Exists(path string) bool {
	return exists(path)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
