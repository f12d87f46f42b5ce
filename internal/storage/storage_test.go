package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/AtDexters-Lab/nexus-ftp/internal/iface"
	"github.com/AtDexters-Lab/nexus-ftp/internal/protocol"
	"github.com/stretchr/testify/require"
)

var _ iface.FileStore = (*Dir)(nil)

func TestListSkipsDirectoriesAndSorts(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

	d, err := New(root)
	require.NoError(t, err)

	names, err := d.List()
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestNewCreatesMissingDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "files")
	d, err := New(root)
	require.NoError(t, err)

	names, err := d.List()
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestValidateNameRejectsTraversal(t *testing.T) {
	for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b", `a\b`, "nul\x00"} {
		require.ErrorIs(t, ValidateName(name), protocol.ErrInvalidFilename, "%q", name)
	}
	require.NoError(t, ValidateName("report.txt"))
	require.NoError(t, ValidateName("..hidden"))
}

func TestExists(t *testing.T) {
	d, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(d.Root(), "here.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(d.Root(), "dir"), 0o755))

	ok, err := d.Exists("here.txt")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = d.Exists("missing.txt")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = d.Exists("dir")
	require.NoError(t, err)
	require.False(t, ok, "directories are not shareable files")

	_, err = d.Exists("../here.txt")
	require.ErrorIs(t, err, protocol.ErrInvalidFilename)
}

func TestCreateTruncatesExisting(t *testing.T) {
	d, err := New(t.TempDir())
	require.NoError(t, err)
	p := filepath.Join(d.Root(), "stale.bin")
	require.NoError(t, os.WriteFile(p, []byte("old contents"), 0o644))

	w, err := d.Create("stale.bin")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestCreateFailureIsStorageError(t *testing.T) {
	d, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(d.Root(), "taken"), 0o755))

	_, err = d.Create("taken")
	require.ErrorIs(t, err, protocol.ErrStorage)
}

func TestOpenReturnsSize(t *testing.T) {
	d, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(d.Root(), "r.txt"), []byte("seventeen bytes!!"), 0o644))

	rc, info, err := d.Open("r.txt")
	require.NoError(t, err)
	defer rc.Close()
	require.EqualValues(t, 17, info.Size())

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "seventeen bytes!!", string(data))
}
