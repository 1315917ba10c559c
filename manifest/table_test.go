package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/wnxd/nacldbg/filesystem"
)

const wellFormed = `{"program":{"x86-64":{"url":"/a/b/nexe"}}, "files":{"libc.so":{"x86-64":{"url":"/a/b/libc.so"}}}}`

func newTestTable(t *testing.T, files map[string]string, opts ...Option) *Table {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, data := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return NewTable(append([]Option{WithFS(filesystem.FromFS(fsys))}, opts...)...)
}

func TestLoadWellFormed(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, map[string]string{"m/app.nmf": wellFormed})
	if err := table.Load("/m/app.nmf"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if p, ok := table.Program(); !ok || p != "/a/b/nexe" {
		t.Errorf("expected program /a/b/nexe, got %q (%v)", p, ok)
	}
	if p, ok := table.Lookup("libc.so"); !ok || p != "/a/b/libc.so" {
		t.Errorf("expected libc.so -> /a/b/libc.so, got %q (%v)", p, ok)
	}
	if p, ok := table.Lookup("nexe"); !ok || p != "/a/b/nexe" {
		t.Errorf("expected basename alias nexe -> /a/b/nexe, got %q (%v)", p, ok)
	}
	if _, ok := table.IRT(); ok {
		t.Error("expected no IRT from a manifest")
	}
}

func TestLookupStripsLibPrefix(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, map[string]string{"app.nmf": wellFormed})
	if err := table.Load("app.nmf"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, name := range []string{"libc.so", "/lib/libc.so", "/lib/missing.so", "missing.so"} {
		got, gotOK := table.Lookup(name)
		want, wantOK := table.Lookup(filepath.Base(name))
		if got != want || gotOK != wantOK {
			t.Errorf("Lookup(%q) = %q, %v; expected %q, %v", name, got, gotOK, want, wantOK)
		}
	}
	if got := table.Resolve("/lib/libm.so"); got != "libm.so" {
		t.Errorf("expected passthrough libm.so, got %q", got)
	}
	if got := table.Resolve("/lib/libc.so"); got != "/a/b/libc.so" {
		t.Errorf("expected /a/b/libc.so, got %q", got)
	}
}

func TestLoadRelativeURLs(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, map[string]string{
		"out/app.nmf": `{"program":{"x86-64":{"url":"runnable-ld.so"}},"files":{"main.nexe":{"x86-64":{"url":"bin/main.nexe"}}}}`,
	})
	if err := table.Load("out/app.nmf"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if p, _ := table.Program(); p != filepath.Join("out", "runnable-ld.so") {
		t.Errorf("expected out/runnable-ld.so, got %q", p)
	}
	if p, _ := table.Lookup("main.nexe"); p != filepath.Join("out", "bin", "main.nexe") {
		t.Errorf("expected out/bin/main.nexe, got %q", p)
	}
	if p, _ := table.Lookup("runnable-ld.so"); p != filepath.Join("out", "runnable-ld.so") {
		t.Errorf("expected alias to resolved program, got %q", p)
	}
}

func TestLoadFailureKeepsTable(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, map[string]string{
		"good.nmf":  wellFormed,
		"deep.nmf":  `{"program":{"x86-64":{"url":{"deeper":{"still":"x"}}}}}`,
		"long.nmf":  `{"program":{"x86-64":{"url":"` + strings.Repeat("x", MaxStringLength+1) + `"}}}`,
		"empty.nmf": `{}`,
	})
	if err := table.Load("good.nmf"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	table.SetIRT("/a/b/irt.nexe")
	if err := table.Load("good.nmf"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := table.Entries()

	for _, name := range []string{"deep.nmf", "long.nmf", "empty.nmf"} {
		err := table.Load(name)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
	if err := table.Load("missing.nmf"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not exist error, got %v", err)
	}

	if p, _ := table.Program(); p != "/a/b/nexe" {
		t.Errorf("expected program to survive failed loads, got %q", p)
	}
	if p, _ := table.IRT(); p != "/a/b/irt.nexe" {
		t.Errorf("expected IRT to survive, got %q", p)
	}
	after := table.Entries()
	if len(after) != len(before) {
		t.Fatalf("expected %d entries, got %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("entry %d: expected %v, got %v", i, before[i], after[i])
		}
	}
}

func TestDuplicates(t *testing.T) {
	t.Parallel()

	dup := `{"files":{
		"libc.so":{"x86-64":{"url":"/first/libc.so"}},
		"libc.so":{"x86-64":{"url":"/second/libc.so"}}
	}}`

	lenient := newTestTable(t, map[string]string{"dup.nmf": dup})
	if err := lenient.Load("dup.nmf"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p, _ := lenient.Lookup("libc.so"); p != "/first/libc.so" {
		t.Errorf("expected first entry to win, got %q", p)
	}

	strict := newTestTable(t, map[string]string{"good.nmf": wellFormed, "dup.nmf": dup}, WithStrictDuplicates())
	if err := strict.Load("good.nmf"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	err := strict.Load("dup.nmf")
	var dupErr *DuplicateEntryError
	if !errors.As(err, &dupErr) || dupErr.Name != "libc.so" {
		t.Fatalf("expected DuplicateEntryError for libc.so, got %v", err)
	}
	if p, _ := strict.Lookup("libc.so"); p != "/a/b/libc.so" {
		t.Errorf("expected table unchanged after rejected load, got %q", p)
	}
}

func TestStrictAllowsProgramAlias(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, map[string]string{
		"app.nmf": `{"program":{"x86-64":{"url":"/p/main.nexe"}},"files":{"main.nexe":{"x86-64":{"url":"/f/main.nexe"}}}}`,
	}, WithStrictDuplicates())
	if err := table.Load("app.nmf"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p, _ := table.Lookup("main.nexe"); p != "/p/main.nexe" {
		t.Errorf("expected program alias registered first to win, got %q", p)
	}
}

func TestDirectSelection(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, map[string]string{"app.nmf": wellFormed})
	if err := table.Load("app.nmf"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	table.SetProgram("/other/prog.nexe")
	if p, _ := table.Program(); p != "/other/prog.nexe" {
		t.Errorf("expected /other/prog.nexe, got %q", p)
	}
	if _, ok := table.Lookup("libc.so"); ok {
		t.Error("expected SetProgram to drop parsed entries")
	}

	table.SetIRT("/other/irt.nexe")
	if p, _ := table.Program(); p != "/other/prog.nexe" {
		t.Errorf("expected SetIRT to keep program, got %q", p)
	}

	table.Reset()
	if _, ok := table.Program(); ok {
		t.Error("expected Reset to clear program")
	}
	if _, ok := table.IRT(); ok {
		t.Error("expected Reset to clear IRT")
	}
}
