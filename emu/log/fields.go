package log

import (
	"fmt"
	"strconv"
)

type FieldType uint8

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeBool
	FieldTypeString
	FieldTypeInt
	FieldTypeUint
	FieldTypeHex8
	FieldTypeHex32
	FieldTypeError
	FieldTypeStringer
)

// hexDigits is the zero-padded width of each hex field type. Bus addresses
// and data words are always shown at full width so that trace columns line up.
var hexDigits = [...]int{
	FieldTypeHex8:  2,
	FieldTypeHex32: 8,
}

// ZField is a single key/value pair of an EntryZ. Payload holds the integer
// value of the numeric and boolean types; Ref holds the error or Stringer.
type ZField struct {
	Type    FieldType
	Key     string
	Str     string
	Payload uint64
	Ref     any
}

func (f *ZField) Value() string {
	switch f.Type {
	case FieldTypeBool:
		return strconv.FormatBool(f.Payload != 0)
	case FieldTypeString:
		return f.Str
	case FieldTypeInt:
		return strconv.FormatInt(int64(f.Payload), 10)
	case FieldTypeUint:
		return strconv.FormatUint(f.Payload, 10)
	case FieldTypeHex8, FieldTypeHex32:
		return fmt.Sprintf("%0*x", hexDigits[f.Type], f.Payload)
	case FieldTypeError:
		if f.Ref == nil {
			return "<nil>"
		}
		return f.Ref.(error).Error()
	case FieldTypeStringer:
		if f.Ref == nil {
			return "<nil>"
		}
		return f.Ref.(fmt.Stringer).String()
	}
	return ""
}
