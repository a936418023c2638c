package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File stores each key as a file under a per-profile directory.
type File struct {
	dir           string
	maxValueBytes int
}

// NewFile creates the profile directory under root if needed.
func NewFile(root, profile string, maxValueBytes int) (*File, error) {
	if profile == "" {
		profile = "default"
	}
	dir := filepath.Join(root, profile)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &File{dir: dir, maxValueBytes: maxValueBytes}, nil
}

func (f *File) ReadRaw(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	b, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(b), true, nil
}

// WriteRaw replaces the value atomically via a temp file and rename.
func (f *File) WriteRaw(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := checkSize(value, f.maxValueBytes); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}

func (f *File) EraseRaw(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Ping reports whether the profile directory is still usable.
func (f *File) Ping() error {
	_, err := os.Stat(f.dir)
	return err
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key)
}
