package manifest

import (
	"bufio"
	"io"
	"strings"
)

const (
	// MaxDepth bounds the number of member names open at once.
	MaxDepth = 4
	// MaxStringLength bounds every string literal, in bytes.
	MaxStringLength = 256
)

const targetArch = "x86-64"

// Handler receives the events of one parse. An error returned by a handler
// aborts the parse and is returned unchanged.
type Handler interface {
	ProgramURL(url string) error
	FileURL(name, url string) error
}

type parser struct {
	r     *bufio.Reader
	off   int64
	names []string
	h     Handler
}

// Parse reads exactly one manifest value from r. Only objects with string
// keys and string leaves are accepted.
func Parse(r io.Reader, h Handler) error {
	p := &parser{r: bufio.NewReader(r), names: make([]string, 0, MaxDepth), h: h}
	if err := p.value(); err != nil {
		return err
	}
	c, err := p.skipSpace()
	if err == io.EOF {
		return nil
	} else if err != nil {
		return err
	}
	return p.errorf("unexpected %q after value", c)
}

func (p *parser) next() (byte, error) {
	c, err := p.r.ReadByte()
	if err != nil {
		return 0, err
	}
	p.off++
	return c, nil
}

func (p *parser) skipSpace() (byte, error) {
	for {
		c, err := p.next()
		if err != nil {
			return 0, err
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c, nil
	}
}

// token returns the next structural character, treating end of input as
// malformed.
func (p *parser) token() (byte, error) {
	c, err := p.skipSpace()
	if err == io.EOF {
		return 0, p.errorf("unexpected end of input")
	}
	return c, err
}

func (p *parser) value() error {
	c, err := p.token()
	if err != nil {
		return err
	}
	switch c {
	case '{':
		return p.object()
	case '"':
		s, err := p.str()
		if err != nil {
			return err
		}
		return p.emit(s)
	}
	return p.errorf("unexpected %q, expected object or string", c)
}

func (p *parser) object() error {
	for {
		c, err := p.token()
		if err != nil {
			return err
		} else if c != '"' {
			return p.errorf("unexpected %q, expected member name", c)
		}
		name, err := p.str()
		if err != nil {
			return err
		}
		if len(p.names) == MaxDepth {
			return p.errorf("nesting deeper than %d", MaxDepth)
		}
		p.names = append(p.names, name)
		if c, err = p.token(); err != nil {
			return err
		} else if c != ':' {
			return p.errorf("unexpected %q, expected ':'", c)
		}
		if err = p.value(); err != nil {
			return err
		}
		p.names = p.names[:len(p.names)-1]
		if c, err = p.token(); err != nil {
			return err
		}
		switch c {
		case ',':
		case '}':
			return nil
		default:
			return p.errorf("unexpected %q, expected ',' or '}'", c)
		}
	}
}

// str reads a string literal whose opening quote was already consumed.
func (p *parser) str() (string, error) {
	var sb strings.Builder
	for {
		c, err := p.next()
		if err == io.EOF {
			return "", p.errorf("unterminated string")
		} else if err != nil {
			return "", err
		}
		switch c {
		case '"':
			return sb.String(), nil
		case '\n':
			return "", p.errorf("newline in string")
		case '\\':
			if c, err = p.next(); err == io.EOF {
				return "", p.errorf("unterminated string")
			} else if err != nil {
				return "", err
			}
			switch c {
			case '"', '\\', '/':
			default:
				return "", p.errorf("unsupported escape \\%c", c)
			}
		}
		if sb.Len() == MaxStringLength {
			return "", p.errorf("string longer than %d bytes", MaxStringLength)
		}
		sb.WriteByte(c)
	}
}

func (p *parser) emit(value string) error {
	names := p.names
	switch {
	case len(names) == 3 && names[0] == "program" && names[1] == targetArch && names[2] == "url":
		return p.h.ProgramURL(value)
	case len(names) == 4 && names[0] == "files" && names[2] == targetArch && names[3] == "url":
		return p.h.FileURL(names[1], value)
	}
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return newSyntaxError(p.off, format, args...)
}
