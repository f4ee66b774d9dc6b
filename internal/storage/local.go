// Package storage stores uploaded file binaries on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxFilenameLen = 255

// ErrTooLarge is returned when an upload exceeds the configured size limit.
var ErrTooLarge = errors.New("file size exceeds limit")

// Local stores blobs under a base directory, one file per id.
type Local struct {
	dir     string
	maxSize int64
}

// NewLocal creates the base directory if needed.
func NewLocal(dir string, maxSize int64) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Local{dir: dir, maxSize: maxSize}, nil
}

// SanitizeFilename reduces a client-supplied filename to a safe base name.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) || strings.Contains(name, "..") {
		name = "file"
	}
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	return name
}

// Save writes the blob and returns its storage path and byte count. The
// stored name is the file id plus the original extension; the original name
// lives in the database only.
func (l *Local) Save(id, originalName string, r io.Reader) (string, int64, error) {
	stored := id + strings.ToLower(filepath.Ext(SanitizeFilename(originalName)))
	path := filepath.Join(l.dir, stored)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, l.maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > l.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}

	return path, n, nil
}

// Open opens a stored blob for reading.
func (l *Local) Open(storedPath string) (io.ReadCloser, error) {
	// Stored paths come from the database, but refuse anything that escaped
	// the base directory.
	abs, err := filepath.Abs(storedPath)
	if err != nil {
		return nil, err
	}
	base, err := filepath.Abs(l.dir)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return nil, errors.New("invalid storage path")
	}
	return os.Open(abs)
}

// Remove deletes a stored blob.
func (l *Local) Remove(storedPath string) error {
	return os.Remove(storedPath)
}

// NewID returns a fresh file id.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
