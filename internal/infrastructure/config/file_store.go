package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// FileStore persists prefixed AI settings in a YAML document, by default
// ~/.shai-mongo/config.yaml.
type FileStore struct {
	path   string
	prefix string

	mu     sync.Mutex
	loaded bool
	values map[string]interface{}
}

// NewFileStore builds a store for path. Keys are namespaced with domain.ConfigKeyPrefix.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		prefix: domain.ConfigKeyPrefix,
	}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get implements ports.KeyValueStore.
func (f *FileStore) Get(_ context.Context, key string) (interface{}, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return nil, false, err
	}
	value, ok := f.values[f.prefix+key]
	return value, ok, nil
}

// Set implements ports.KeyValueStore. The whole document is rewritten.
func (f *FileStore) Set(ctx context.Context, key string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return err
	}
	next := make(map[string]interface{}, len(f.values)+1)
	for k, v := range f.values {
		next[k] = v
	}
	next[f.prefix+key] = value
	if err := f.write(next); err != nil {
		return err
	}
	f.values = next
	return nil
}

// Entries returns every stored key without its prefix.
func (f *FileStore) Entries() (map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	for k, v := range f.values {
		if len(k) > len(f.prefix) && k[:len(f.prefix)] == f.prefix {
			out[k[len(f.prefix):]] = v
		}
	}
	return out, nil
}

func (f *FileStore) load() error {
	if f.loaded {
		return nil
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.values = map[string]interface{}{}
			f.loaded = true
			return nil
		}
		return err
	}
	values := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return err
	}
	f.values = values
	f.loaded = true
	return nil
}

func (f *FileStore) write(values map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	raw, err := yaml.Marshal(values)
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, domain.SecureFilePermissions); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

var _ ports.KeyValueStore = (*FileStore)(nil)
