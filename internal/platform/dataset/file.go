package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// File writes one JSON file per item under <storage>/datasets/<name>/, named
// 000000001.json, 000000002.json, ... in push order.
type File struct {
	dir string

	mu   sync.Mutex
	next int
}

// OpenFile opens the dataset directory. With purge set, items from previous
// runs are removed first; otherwise numbering continues after them.
func OpenFile(storageDir, name string, purge bool) (*File, error) {
	dir := filepath.Join(storageDir, "datasets", name)
	if purge {
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("purge dataset %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dataset %s: %w", dir, err)
	}
	last, err := lastIndex(dir)
	if err != nil {
		return nil, err
	}
	return &File{dir: dir, next: last + 1}, nil
}

func lastIndex(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dataset %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return 0, nil
	}
	sort.Strings(names)
	var n int
	if _, err := fmt.Sscanf(names[len(names)-1], "%09d.json", &n); err != nil {
		return 0, fmt.Errorf("unexpected dataset file %s: %w", names[len(names)-1], err)
	}
	return n, nil
}

// Dir is the dataset directory.
func (f *File) Dir() string { return f.dir }

func (f *File) Push(ctx context.Context, items ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := json.MarshalIndent(item, "", "  ")
		if err != nil {
			return fmt.Errorf("encode item %d: %w", f.next, err)
		}
		path := filepath.Join(f.dir, fmt.Sprintf("%09d.json", f.next))
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", tmp, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			return fmt.Errorf("rename %s: %w", tmp, err)
		}
		f.next++
	}
	return nil
}

func (f *File) Close() error { return nil }
