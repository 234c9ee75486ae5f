package archive

import (
	"bytes"
	"errors"
	"io"
)

// memFileSystem is an in-memory FileSystem for tests, avoiding any disk
// I/O while still exercising the same Writer/Reader code path a
// DirFileSystem would.
type memFileSystem struct {
	files map[string][]byte
}

func newMemFileSystem() *memFileSystem {
	return &memFileSystem{files: map[string][]byte{}}
}

type memWriteCloser struct {
	buf  bytes.Buffer
	fs   *memFileSystem
	name string
}

func (w *memWriteCloser) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *memWriteCloser) Close() error {
	w.fs.files[w.name] = w.buf.Bytes()
	return nil
}

func (m *memFileSystem) Create(name string) (io.WriteCloser, error) {
	return &memWriteCloser{fs: m, name: name}, nil
}

func (m *memFileSystem) Open(name string) (io.ReadCloser, error) {
	b, ok := m.files[name]
	if !ok {
		return nil, errors.New("memFileSystem: no such file " + name)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}
