package poll

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the poll state in a JSON file. Saves are atomic via a
// temporary file and rename.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore builds a store writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state file. A missing file yields a zero state. A corrupted
// file is set aside with a .broken suffix and also yields a zero state, so a
// damaged file never wedges the polling loop.
func (s *FileStore) Load(ctx context.Context) (PollState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return PollState{}, nil
		}
		return PollState{}, fmt.Errorf("read poll state file: %w", err)
	}

	var state PollState
	if err := json.Unmarshal(data, &state); err != nil {
		_ = os.WriteFile(s.path+".broken", data, 0o644)
		return PollState{}, nil
	}

	return state, nil
}

// Save writes the state atomically.
func (s *FileStore) Save(ctx context.Context, state PollState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal poll state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create poll state directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp poll state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp poll state file: %w", err)
	}

	return nil
}

// HealthCheck verifies the state directory is reachable.
func (s *FileStore) HealthCheck(ctx context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("poll state directory: %w", err)
	}

	return nil
}
