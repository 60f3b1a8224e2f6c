package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
)

const stateFile = "storage.json"

// FileStore persists values as one JSON document in a directory. Values must
// be valid JSON. Every write replaces the file through a rename, so readers
// never see a partial commit.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore opens (creating if needed) the store under dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, stateFile)}, nil
}

// Path returns the backing file.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return nil, err
	}
	return pick(data, keys), nil
}

func (f *FileStore) Set(ctx context.Context, items map[string][]byte) error {
	return f.update(ctx, func(data map[string][]byte) {
		for k, v := range items {
			data[k] = clone(v)
		}
	})
}

func (f *FileStore) Remove(ctx context.Context, keys ...string) error {
	return f.update(ctx, func(data map[string][]byte) {
		for _, k := range keys {
			delete(data, k)
		}
	})
}

func (f *FileStore) update(ctx context.Context, mutate func(map[string][]byte)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	mutate(data)
	return f.save(data)
}

// load reads the document. Values are kept as raw JSON.
func (f *FileStore) load() (map[string][]byte, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string][]byte), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read storage: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode storage: %w", err)
	}
	data := make(map[string][]byte, len(doc))
	for k, v := range doc {
		data[k] = []byte(v)
	}
	return data, nil
}

func (f *FileStore) save(data map[string][]byte) error {
	doc := make(map[string]json.RawMessage, len(data))
	for k, v := range data {
		doc[k] = json.RawMessage(v)
	}
	out, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".storage-*.json")
	if err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("commit storage: %w", err)
	}
	return nil
}
