package manifest

import (
	"errors"
	"strings"
	"testing"
)

type event struct {
	name, url string
}

type recorder struct {
	program []string
	files   []event
}

func (r *recorder) ProgramURL(url string) error {
	r.program = append(r.program, url)
	return nil
}

func (r *recorder) FileURL(name, url string) error {
	r.files = append(r.files, event{name, url})
	return nil
}

func TestParseEvents(t *testing.T) {
	t.Parallel()

	input := `{
	"program": {"x86-64": {"url": "runnable-ld.so"}, "x86-32": {"url": "ignored"}},
	"files": {
		"main.nexe": {"x86-64": {"url": "main.nexe"}},
		"libc.so": {"x86-64": {"url": "lib64/libc.so"}, "arm": {"url": "libarm/libc.so"}}
	},
	"extra": "forward compatible"
}`
	var r recorder
	if err := Parse(strings.NewReader(input), &r); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(r.program) != 1 || r.program[0] != "runnable-ld.so" {
		t.Errorf("expected program [runnable-ld.so], got %v", r.program)
	}
	want := []event{{"main.nexe", "main.nexe"}, {"libc.so", "lib64/libc.so"}}
	if len(r.files) != len(want) {
		t.Fatalf("expected %d file events, got %v", len(want), r.files)
	}
	for i := range want {
		if r.files[i] != want[i] {
			t.Errorf("file event %d: expected %v, got %v", i, want[i], r.files[i])
		}
	}
}

func TestParseTopLevelString(t *testing.T) {
	t.Parallel()

	var r recorder
	if err := Parse(strings.NewReader(` "just a string" `), &r); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(r.program) != 0 || len(r.files) != 0 {
		t.Errorf("expected no events, got %+v", r)
	}
}

func TestParseCRLF(t *testing.T) {
	t.Parallel()

	var r recorder
	input := "{\r\n\"program\":\r\n{\"x86-64\":{\"url\":\"a\"}}\r\n}\r\n"
	if err := Parse(strings.NewReader(input), &r); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(r.program) != 1 {
		t.Errorf("expected one program event, got %v", r.program)
	}
}

func TestParseEscapes(t *testing.T) {
	t.Parallel()

	var r recorder
	input := `{"program":{"x86-64":{"url":"a\/b\\c\"d"}}}`
	if err := Parse(strings.NewReader(input), &r); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(r.program) != 1 || r.program[0] != `a/b\c"d` {
		t.Errorf(`expected a/b\c"d, got %v`, r.program)
	}
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"only whitespace", " \n\t"},
		{"empty object", "{}"},
		{"number", `{"a": 1}`},
		{"boolean", `{"a": true}`},
		{"null", `{"a": null}`},
		{"array", `{"a": ["x"]}`},
		{"bare key", `{a: "x"}`},
		{"missing colon", `{"a" "x"}`},
		{"missing comma", `{"a": "x" "b": "y"}`},
		{"trailing comma", `{"a": "x",}`},
		{"unterminated object", `{"a": "x"`},
		{"unterminated string", `{"a": "x`},
		{"newline in string", "{\"a\": \"x\ny\"}"},
		{"unknown escape", `{"a": "\n"}`},
		{"trailing garbage", `{"a": "x"} {}`},
		{"too deep", `{"a":{"b":{"c":{"d":{"e":"x"}}}}}`},
		{"string too long", `{"a": "` + strings.Repeat("x", MaxStringLength+1) + `"}`},
		{"key too long", `{"` + strings.Repeat("k", MaxStringLength+1) + `": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var r recorder
			err := Parse(strings.NewReader(tt.input), &r)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			var syntax *SyntaxError
			if !errors.As(err, &syntax) {
				t.Errorf("expected *SyntaxError, got %T", err)
			}
		})
	}
}

func TestParseLimitsInclusive(t *testing.T) {
	t.Parallel()

	var r recorder
	deepest := `{"files":{"n":{"x86-64":{"url":"` + strings.Repeat("x", MaxStringLength) + `"}}}}`
	if err := Parse(strings.NewReader(deepest), &r); err != nil {
		t.Fatalf("expected maximum depth and length to parse, got %v", err)
	}
	if len(r.files) != 1 || len(r.files[0].url) != MaxStringLength {
		t.Errorf("expected one file event with a %d byte url, got %+v", MaxStringLength, r.files)
	}
}

type failingHandler struct{ err error }

func (h failingHandler) ProgramURL(string) error       { return h.err }
func (h failingHandler) FileURL(string, string) error { return h.err }

func TestParseHandlerError(t *testing.T) {
	t.Parallel()

	stop := errors.New("stop")
	err := Parse(strings.NewReader(`{"program":{"x86-64":{"url":"a"}}}`), failingHandler{stop})
	if !errors.Is(err, stop) {
		t.Errorf("expected handler error, got %v", err)
	}
}
