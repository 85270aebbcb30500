package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/logpress/logpress/internal/errors"
)

// LocalStore implements ObjectStore on the local filesystem. Writes go to
// a temp file in the same directory and publish with an atomic rename, so
// a crashed write never leaves a readable partial container.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errors.NewStorageError(errors.CodePutFailed, "create storage directory", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Put writes data under name via temp file and rename.
func (l *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest := l.fullPath(name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.NewStorageError(errors.CodePutFailed, "create parent directory for "+name, err)
	}
	tmp := dest + ".tmp." + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.NewStorageError(errors.CodePutFailed, "write temp object for "+name, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return errors.NewStorageError(errors.CodePutFailed, "publish object "+name, err)
	}
	return nil
}

// Get reads an object's bytes.
func (l *LocalStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.fullPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewStorageError(errors.CodeObjectNotFound, "object "+name+" not found", err)
		}
		return nil, errors.NewStorageError(errors.CodeGetFailed, "read object "+name, err)
	}
	return data, nil
}

// Exists checks for an object without reading it.
func (l *LocalStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(l.fullPath(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.NewStorageError(errors.CodeGetFailed, "stat object "+name, err)
}

// Delete removes an object; missing objects are fine.
func (l *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(l.fullPath(name)); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(errors.CodeGetFailed, "delete object "+name, err)
	}
	return nil
}

// List walks the base directory and returns names under prefix.
func (l *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var names []string
	err := filepath.WalkDir(l.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) && !strings.Contains(name, ".tmp.") {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewStorageError(errors.CodeGetFailed, "list objects under "+prefix, err)
	}
	return names, nil
}

func (l *LocalStore) fullPath(name string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(name))
}
