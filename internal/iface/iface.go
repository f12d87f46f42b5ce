package iface

import (
	"io"
	"os"
)

// FileStore is the shared-files directory a peer serves from and saves into.
type FileStore interface {
	// List returns the names of the shareable files, sorted.
	List() ([]string, error)
	// Exists reports whether name is a regular file in the store.
	Exists(name string) (bool, error)
	// Open opens name for reading along with its file info.
	Open(name string) (io.ReadCloser, os.FileInfo, error)
	// Create truncates or creates name for writing.
	Create(name string) (io.WriteCloser, error)
}
