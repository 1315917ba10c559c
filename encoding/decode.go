package encoding

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/modern-go/reflect2"
)

// Decode reads the members described by layout from stream, which must be
// positioned at the start of the structure, and stores each of them into
// the field of the same name of the struct val points to.
func Decode(stream Stream, layout Layout, val any) error {
	bs := stream.BlockSize()
	if err := layout.validate(bs); err != nil {
		return err
	}
	if reflect2.IsNil(val) {
		return ErrDestination
	}
	typ := reflect2.TypeOf(val)
	if typ.Kind() != reflect.Ptr {
		return ErrDestination
	}
	ptrType, ok := typ.(reflect2.PtrType)
	if !ok || ptrType.Elem().Kind() != reflect.Struct {
		return ErrDestination
	}
	structType, ok := ptrType.Elem().(reflect2.StructType)
	if !ok {
		return ErrDestination
	}
	obj := reflect2.PtrOf(val)
	var pos uint64
	for _, f := range layout.sorted() {
		field := structType.FieldByName(f.Name)
		if field == nil {
			return fmt.Errorf("%s.%s: %w", layout.Name, f.Name, ErrFieldMissing)
		}
		size := layout.fieldSize(f, bs)
		if err := stream.Skip(int(f.Offset - pos)); err != nil {
			return err
		}
		var buf [8]byte
		if _, err := stream.Read(buf[:size]); err != nil {
			return fmt.Errorf("%s.%s: %w", layout.Name, f.Name, err)
		}
		pos = f.Offset + uint64(size)
		if err := assign(field, obj, binary.LittleEndian.Uint64(buf[:]), size); err != nil {
			return fmt.Errorf("%s.%s: %w", layout.Name, f.Name, err)
		}
	}
	return nil
}

func assign(field reflect2.StructField, obj unsafe.Pointer, v uint64, size int) error {
	typ := field.Type()
	if int(typ.Type1().Size()) < size {
		return ErrFieldType
	}
	switch typ.Kind() {
	case reflect.Uint8:
		x := uint8(v)
		field.UnsafeSet(obj, unsafe.Pointer(&x))
	case reflect.Uint16:
		x := uint16(v)
		field.UnsafeSet(obj, unsafe.Pointer(&x))
	case reflect.Uint32:
		x := uint32(v)
		field.UnsafeSet(obj, unsafe.Pointer(&x))
	case reflect.Uint64:
		field.UnsafeSet(obj, unsafe.Pointer(&v))
	case reflect.Uint:
		x := uint(v)
		field.UnsafeSet(obj, unsafe.Pointer(&x))
	case reflect.Uintptr:
		x := uintptr(v)
		field.UnsafeSet(obj, unsafe.Pointer(&x))
	default:
		return ErrFieldType
	}
	return nil
}
