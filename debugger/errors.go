package debugger

import (
	"errors"
)

var (
	ErrModuleNotFound   = errors.New("module not found")
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrProcessNotExists = errors.New("process does not exist")
)
