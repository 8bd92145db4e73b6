package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DirName is the directory created under the base path for board files.
const DirName = ".taskboard"

// FileBackend stores each key in its own file under <base>/.taskboard/.
type FileBackend struct {
	basePath string
}

// NewFileBackend creates a FileBackend rooted at basePath.
// The base path is usually the working directory or the user's home.
func NewFileBackend(basePath string) *FileBackend {
	return &FileBackend{basePath: basePath}
}

// Dir returns the directory holding the board files.
func (f *FileBackend) Dir() string {
	return filepath.Join(f.basePath, DirName)
}

// fileName maps a key to its file name.
func fileName(key string) string {
	if key == KeyTasks {
		return "tasks.json"
	}
	return key
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.Dir(), fileName(key))
}

// Read returns the content of the key's file.
func (f *FileBackend) Read(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", fileName(key), err)
	}
	return string(data), true, nil
}

// Write replaces each key's file via a temp file and rename so a crash never
// leaves a half-written value behind.
func (f *FileBackend) Write(ctx context.Context, values map[string]string) error {
	if err := os.MkdirAll(f.Dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create board directory: %w", err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	// tasks before taskCounter
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFileAtomic(f.path(key), []byte(values[key])); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op for files.
func (f *FileBackend) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
