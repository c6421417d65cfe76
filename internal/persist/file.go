package persist

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"restomanager/client/internal/state"
)

const (
	snapshotFile = "appdata.json"
	keyringFile  = "session.json"
)

// FileSnapshots keeps the snapshot as one JSON blob on disk, the
// device-storage equivalent for a headless client. Writes go through a
// temp file and rename so a crash never leaves a torn blob.
type FileSnapshots struct {
	mu   sync.Mutex
	path string
}

func NewFileSnapshots(dir string) (*FileSnapshots, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileSnapshots{path: filepath.Join(dir, snapshotFile)}, nil
}

func (f *FileSnapshots) Save(_ context.Context, snap state.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileSnapshots) Load(_ context.Context) (state.Snapshot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	payload, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return state.Snapshot{}, false, nil
	}
	if err != nil {
		return state.Snapshot{}, false, err
	}

	var snap state.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return state.Snapshot{}, false, err
	}
	return snap, true, nil
}

// FileKeyring stores the session token and cached profile in a single
// JSON map next to the snapshot blob.
type FileKeyring struct {
	mu   sync.Mutex
	path string
}

func NewFileKeyring(dir string) (*FileKeyring, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileKeyring{path: filepath.Join(dir, keyringFile)}, nil
}

func (k *FileKeyring) Get(_ context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	values, err := k.read()
	if err != nil {
		return "", false, err
	}
	val, ok := values[key]
	return val, ok, nil
}

func (k *FileKeyring) Set(_ context.Context, key string, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	values, err := k.read()
	if err != nil {
		return err
	}
	values[key] = value
	return k.write(values)
}

func (k *FileKeyring) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	values, err := k.read()
	if err != nil {
		return err
	}
	delete(values, key)
	return k.write(values)
}

func (k *FileKeyring) read() (map[string]string, error) {
	payload, err := os.ReadFile(k.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	if err := json.Unmarshal(payload, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (k *FileKeyring) write(values map[string]string) error {
	payload, err := json.Marshal(values)
	if err != nil {
		return err
	}
	tmp := k.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, k.path)
}

// MemoryKeyring is for tests.
type MemoryKeyring struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryKeyring() *MemoryKeyring {
	return &MemoryKeyring{values: make(map[string]string)}
}

func (k *MemoryKeyring) Get(_ context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	val, ok := k.values[key]
	return val, ok, nil
}

func (k *MemoryKeyring) Set(_ context.Context, key string, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.values[key] = value
	return nil
}

func (k *MemoryKeyring) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.values, key)
	return nil
}
