// types.go - Datentypen fuer Tensoren
// Dieses Modul definiert DType und die Zuordnung von Go-Typen zu DTypes.
package ml

import (
	"github.com/x448/float16"
)

// DType represents the data type of tensor elements.
type DType int

const (
	DTypeOther DType = iota
	DTypeF32
	DTypeF16
	DTypeI32
	DTypeI64
	DTypeU32
)

// Size returns the number of bytes one element occupies.
func (t DType) Size() int {
	switch t {
	case DTypeF32, DTypeI32, DTypeU32:
		return 4
	case DTypeF16:
		return 2
	case DTypeI64:
		return 8
	default:
		return 0
	}
}

func (t DType) String() string {
	switch t {
	case DTypeF32:
		return "f32"
	case DTypeF16:
		return "f16"
	case DTypeI32:
		return "i32"
	case DTypeI64:
		return "i64"
	case DTypeU32:
		return "u32"
	default:
		return "other"
	}
}

// Number is the set of element types tensors can be created for.
type Number interface {
	float32 | float16.Float16 | int32 | int64 | uint32
}

// DTypeOf maps a Go element type to its DType.
func DTypeOf[T Number]() DType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return DTypeF32
	case float16.Float16:
		return DTypeF16
	case int32:
		return DTypeI32
	case int64:
		return DTypeI64
	case uint32:
		return DTypeU32
	}
	return DTypeOther
}
