package db

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/jonathan/kredible/internal/schemas"
	"github.com/jonathan/kredible/internal/types"
)

// Mirror is a JSON file holding the full set of in-memory records. It is a
// development convenience, not a durability guarantee: concurrent writers in
// separate processes are serialized by a sidecar lock file, and each write
// replaces the file atomically.
type Mirror struct {
	path string
	lock *flock.Flock
}

// NewMirror returns a mirror backed by path. The lock file lives next to it.
func NewMirror(path string) *Mirror {
	return &Mirror{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the mirror file location.
func (m *Mirror) Path() string { return m.path }

// Load reads and schema-checks the mirror. A missing file yields no records.
func (m *Mirror) Load() ([]*types.RecruiterRequest, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	if err := schemas.ValidateRecruiterRequests(data); err != nil {
		return nil, fmt.Errorf("mirror failed schema check: %w", err)
	}

	var records []*types.RecruiterRequest
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode mirror: %w", err)
	}
	return records, nil
}

// Write replaces the mirror contents with records.
func (m *Mirror) Write(records []*types.RecruiterRequest) error {
	if records == nil {
		records = []*types.RecruiterRequest{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode mirror: %w", err)
	}

	if err := m.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock mirror: %w", err)
	}
	defer func() { _ = m.lock.Unlock() }()

	tmp, err := os.CreateTemp(filepath.Dir(m.path), filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		return fmt.Errorf("failed to replace mirror: %w", err)
	}
	return nil
}
