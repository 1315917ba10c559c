package filesystem

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

// FS opens files by host path. Unlike fs.FS, names may be absolute or
// relative to the working directory.
type FS interface {
	Open(name string) (fs.File, error)
}

// File is an open file that also supports random access.
type File interface {
	fs.File
	io.ReaderAt
}

type memFile struct {
	*bytes.Reader
	info fs.FileInfo
}

type wrapFS struct {
	fsys fs.FS
}

// FromFS adapts an fs.FS so host paths can be used against it: a leading
// slash is dropped and the name is cleaned.
func FromFS(fsys fs.FS) FS {
	return wrapFS{fsys}
}

func (w wrapFS) Open(name string) (fs.File, error) {
	name = strings.TrimPrefix(path.Clean(filepath.ToSlash(name)), "/")
	if name == "" {
		name = "."
	}
	return w.fsys.Open(name)
}

// OpenFile opens name for random access, buffering the content when the
// underlying file cannot seek.
func OpenFile(f FS, name string) (File, error) {
	file, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	if ra, ok := file.(File); ok {
		return ra, nil
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &memFile{bytes.NewReader(data), info}, nil
}

func ReadFile(f FS, name string) ([]byte, error) {
	file, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (f *memFile) Stat() (fs.FileInfo, error) {
	return f.info, nil
}

func (f *memFile) Close() error {
	return nil
}
