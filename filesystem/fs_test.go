package filesystem

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestFromFSAbsolutePath(t *testing.T) {
	t.Parallel()

	fsys := FromFS(fstest.MapFS{
		"nacl/app.nmf": {Data: []byte("{}")},
	})

	data, err := ReadFile(fsys, "/nacl/../nacl/app.nmf")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("expected {}, got %q", data)
	}
}

func TestOpenFileRandomAccess(t *testing.T) {
	t.Parallel()

	fsys := FromFS(fstest.MapFS{
		"blob": {Data: []byte("0123456789")},
	})

	file, err := OpenFile(fsys, "blob")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer file.Close()

	buf := make([]byte, 3)
	if _, err := file.ReadAt(buf, 4); err != nil && err != io.EOF {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "456" {
		t.Errorf("expected 456, got %q", buf)
	}
}

func TestSysDirFS(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "lib", "libc.so"), []byte("elf"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := ReadFile(SysDirFS(root), "/lib/libc.so")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "elf" {
		t.Errorf("expected elf, got %q", data)
	}
}
