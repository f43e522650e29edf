package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// OpenFile opens an existing container file for reading.
func OpenFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageIO, path, err)
	}
	return f, nil
}

// CreateFile creates (or truncates) a container file, creating its directory first.
func CreateFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, FileMode0755); err != nil {
			return nil, fmt.Errorf("%w: create dir %s: %v", ErrStorageIO, dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FileMode0644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrStorageIO, path, err)
	}
	return f, nil
}

// CloseFile closes f and folds a close failure into *errp.
// A close failure never hides an earlier error.
func CloseFile(f *os.File, errp *error) {
	if cerr := f.Close(); cerr != nil {
		slog.Debug("storage: close failed", "file", f.Name(), "err", cerr)
		*errp = errors.Join(*errp, fmt.Errorf("%w: close %s: %v", ErrStorageIO, f.Name(), cerr))
	}
}
