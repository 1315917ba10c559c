package encoding

import "errors"

var (
	ErrFieldSize    = errors.New("field size unsupported")
	ErrFieldOverlap = errors.New("field overlap")
	ErrFieldMissing = errors.New("field missing in destination")
	ErrFieldType    = errors.New("field type unsupported")
	ErrDestination  = errors.New("destination must be a pointer to struct")
)
