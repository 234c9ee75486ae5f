package archive

import (
	"io"
	"os"
	"path/filepath"
)

// DirFileSystem is a FileSystem backed by a plain directory on disk —
// the development/testing implementation of the abstraction described in
// §6.3. A ZIP-backed FileSystem is an external collaborator's job; swapping
// one in requires no change to Writer/Reader.
type DirFileSystem struct {
	root string
}

// NewDirFileSystem returns a FileSystem rooted at dir. The directory must
// already exist.
func NewDirFileSystem(dir string) *DirFileSystem {
	return &DirFileSystem{root: dir}
}

func (d *DirFileSystem) Create(name string) (io.WriteCloser, error) {
	return os.Create(filepath.Join(d.root, name))
}

func (d *DirFileSystem) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.root, name))
}
