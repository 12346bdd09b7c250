package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
)

const stateFileMode fs.FileMode = 0o600

// FileStore persists the session record as a JSON file. Writes go to a
// temporary file that is renamed over the target, so readers never observe a
// partially written record.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The parent directory is
// created on first write.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("state file path is required")
	}
	return &FileStore{path: path}, nil
}

// DefaultPath returns the per-user state file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "cutdesk", "state.json"), nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Get(_ context.Context) (domainauth.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStore) Set(_ context.Context, st domainauth.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(st)
}

func (f *FileStore) Update(_ context.Context, fn func(*domainauth.State) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, err := f.read()
	if err != nil {
		return err
	}
	if err = fn(&st); err != nil {
		return err
	}
	return f.write(st)
}

func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}

func (f *FileStore) read() (domainauth.State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domainauth.State{}, nil
		}
		return domainauth.State{}, fmt.Errorf("read state file: %w", err)
	}
	if len(data) == 0 {
		return domainauth.State{}, nil
	}
	var st domainauth.State
	if err = json.Unmarshal(data, &st); err != nil {
		return domainauth.State{}, fmt.Errorf("decode state file: %w", err)
	}
	return st, nil
}

func (f *FileStore) write(st domainauth.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err = tmp.Chmod(stateFileMode); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp state file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err = os.Rename(tmpName, f.path); err != nil {
		cleanup()
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
