package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileKV stores each entry as one JSON file under a directory.
// It is safe for concurrent use.
type FileKV struct {
	mu  sync.Mutex
	dir string
}

// NewFileKV creates the directory if needed and returns a ready store.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("filekv: create dir %q: %w", dir, err)
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) string {
	// Keys carry colons ("matchbuffer:B1"); flatten them for the filesystem.
	name := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(key)
	return filepath.Join(f.dir, name+".json")
}

func (f *FileKV) Load(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (f *FileKV) Store(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := f.path(key)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, value, 0644); err != nil {
		return fmt.Errorf("filekv: write %q: %w", key, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("filekv: rename %q: %w", key, err)
	}
	return nil
}

func (f *FileKV) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filekv: delete %q: %w", key, err)
	}
	return nil
}
