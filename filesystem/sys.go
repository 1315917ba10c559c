package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
)

type sysFS struct{}

type sysDirFS string

// Sys opens host paths directly.
func Sys() FS {
	return sysFS{}
}

// SysDirFS opens every path, absolute or not, below dir. It is used to see a
// process's files through its /proc/<pid>/root.
func SysDirFS(dir string) FS {
	return sysDirFS(dir)
}

func (sysFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

func (d sysDirFS) Open(name string) (fs.File, error) {
	return os.Open(d.join(name))
}

func (d sysDirFS) join(name string) string {
	return filepath.Join(string(d), name)
}
