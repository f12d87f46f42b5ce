package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AtDexters-Lab/nexus-ftp/internal/protocol"
)

// Dir is a flat directory of shareable files.
type Dir struct {
	root string
}

// New returns a store rooted at dir. The directory is created if missing.
func New(dir string) (*Dir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", protocol.ErrStorage, dir, err)
	}
	return &Dir{root: dir}, nil
}

// Root is the directory backing the store.
func (d *Dir) Root() string { return d.root }

// ValidateName rejects names that are empty or could resolve outside the store.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", protocol.ErrInvalidFilename, name)
	case strings.ContainsAny(name, `/\`+"\x00"):
		return fmt.Errorf("%w: %q contains a path separator", protocol.ErrInvalidFilename, name)
	}
	return nil
}

func (d *Dir) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(d.root, name), nil
}

// List returns the names of the regular files in the store, sorted.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %w", protocol.ErrStorage, d.root, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether name is a regular file in the store.
func (d *Dir) Exists(name string) (bool, error) {
	p, err := d.path(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", protocol.ErrStorage, err)
	}
	return info.Mode().IsRegular(), nil
}

// Open opens name for reading.
func (d *Dir) Open(name string) (io.ReadCloser, os.FileInfo, error) {
	p, err := d.path(name)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", protocol.ErrStorage, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %w", protocol.ErrStorage, err)
	}
	return f, info, nil
}

// Create truncates or creates name, leaving an empty file ready for writing.
func (d *Dir) Create(name string) (io.WriteCloser, error) {
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", protocol.ErrStorage, err)
	}
	return f, nil
}
