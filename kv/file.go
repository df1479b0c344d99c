package kv

import (
	"context"
	"fmt"
	"sync"

	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/vidtune-cli/vidtune/filesystem"
)

// File keeps every item in one JSON document written through gache.
type File struct {
	mu     sync.Mutex
	cacher *gache.Cache[map[string]string]
}

// NewFile returns a store backed by the document at path.
func NewFile(path string) *File {
	return &File{
		cacher: gache.New[map[string]string](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

func (f *File) load() (map[string]string, error) {
	items, expired, err := f.cacher.Get()
	if err != nil {
		return nil, fmt.Errorf("read positions document: %w", err)
	}
	if expired || items == nil {
		return make(map[string]string), nil
	}
	return items, nil
}

func (f *File) GetItem(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := items[key]
	return v, ok, nil
}

func (f *File) SetItem(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}
	items[key] = value
	return f.cacher.Set(items)
}

func (f *File) RemoveItem(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return f.cacher.Set(items)
}

func (f *File) Keys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return nil, err
	}
	return lo.Keys(items), nil
}

func (f *File) Close() error { return nil }
