package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/natefinch/atomic"
)

// Slot is a single named key-value cell holding the serialized journal.
// Load returns nil data and nil error when nothing was ever saved.
type Slot interface {
	Name() string
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

const filePerms = 0o600

// FileSlot stores the slot as <dir>/<name>.json, replaced atomically on save
type FileSlot struct {
	dir  string
	name string
}

// NewFileSlot returns a slot backed by a file in dir
func NewFileSlot(dir, name string) *FileSlot {
	return &FileSlot{dir: dir, name: name}
}

func (f *FileSlot) Name() string { return f.name }

// Path is the file backing the slot
func (f *FileSlot) Path() string {
	return filepath.Join(f.dir, f.name+".json")
}

func (f *FileSlot) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot file: %w", err)
	}
	return data, nil
}

func (f *FileSlot) Save(_ context.Context, data []byte) error {
	if err := os.MkdirAll(f.dir, 0o750); err != nil {
		return fmt.Errorf("create slot dir: %w", err)
	}

	path := f.Path()
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write slot file: %w", err)
	}

	// atomic.WriteFile doesn't set permissions for new files
	if err := os.Chmod(path, filePerms); err != nil {
		return fmt.Errorf("set slot file permissions: %w", err)
	}
	return nil
}

func (f *FileSlot) Close() error { return nil }

// MemorySlot keeps the slot in process memory.
// SetSaveErr makes every later Save fail until cleared.
type MemorySlot struct {
	mu      sync.Mutex
	name    string
	data    []byte
	saveErr error
}

// NewMemorySlot returns an empty in-memory slot, optionally pre-filled
func NewMemorySlot(name string, initial []byte) *MemorySlot {
	return &MemorySlot{name: name, data: slices.Clone(initial)}
}

func (m *MemorySlot) Name() string { return m.name }

func (m *MemorySlot) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.data), nil
}

func (m *MemorySlot) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = slices.Clone(data)
	return nil
}

// SetSaveErr changes the injected save failure
func (m *MemorySlot) SetSaveErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func (m *MemorySlot) Close() error { return nil }
