// tensor.go - Tensor-Interface und Host-Implementierung
// Dieses Modul definiert die geraete-gebundenen Puffer, die Backends besitzen
// und die Registries referenzieren.
package ml

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/x448/float16"
)

// Tensor is a shape-checked buffer bound to one device.
type Tensor interface {
	Device() DeviceID
	DType() DType

	Shape() []int
	Dim(n int) int

	// Elems is the number of elements described by the shape
	Elems() int

	// Size is the number of bytes the tensor occupies when allocated
	Size() uint64

	// Allocated reports whether backing memory exists. Tensors created
	// while only measuring memory carry a shape but no data.
	Allocated() bool
	Bytes() []byte
}

// Allocator creates tensors on a single device.
type Allocator interface {
	Alloc(dtype DType, shape ...int) (Tensor, error)
}

type hostTensor struct {
	device DeviceID
	dtype  DType
	shape  []int
	data   []byte
}

// NewTensor returns a tensor descriptor without backing memory.
func NewTensor(device DeviceID, dtype DType, shape ...int) Tensor {
	return &hostTensor{device: device, dtype: dtype, shape: slices.Clone(shape)}
}

func (t *hostTensor) Device() DeviceID { return t.device }
func (t *hostTensor) DType() DType     { return t.dtype }
func (t *hostTensor) Shape() []int     { return slices.Clone(t.shape) }
func (t *hostTensor) Allocated() bool  { return t.data != nil }
func (t *hostTensor) Bytes() []byte    { return t.data }

func (t *hostTensor) Dim(n int) int {
	if n < 0 || n >= len(t.shape) {
		return 1
	}
	return t.shape[n]
}

func (t *hostTensor) Elems() int {
	n := 1
	for _, d := range t.shape {
		n *= d
	}
	return n
}

func (t *hostTensor) Size() uint64 {
	return uint64(t.Elems()) * uint64(t.dtype.Size())
}

func (t *hostTensor) String() string {
	return fmt.Sprintf("%s%v@%s", t.dtype, t.shape, t.device)
}

// Fill sets every element of an allocated floating point tensor to v.
// Unallocated tensors are left untouched.
func Fill(t Tensor, v float32) error {
	data := t.Bytes()
	if data == nil {
		return nil
	}

	switch t.DType() {
	case DTypeF32:
		bits := math.Float32bits(v)
		for i := 0; i+4 <= len(data); i += 4 {
			binary.LittleEndian.PutUint32(data[i:], bits)
		}
	case DTypeF16:
		bits := float16.Fromfloat32(v).Bits()
		for i := 0; i+2 <= len(data); i += 2 {
			binary.LittleEndian.PutUint16(data[i:], bits)
		}
	default:
		return fmt.Errorf("fill: unsupported dtype %s", t.DType())
	}
	return nil
}

// Float32At decodes element i of a floating point tensor.
func Float32At(t Tensor, i int) (float32, error) {
	data := t.Bytes()
	if data == nil {
		return 0, fmt.Errorf("tensor not allocated")
	}

	switch t.DType() {
	case DTypeF32:
		return math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])), nil
	case DTypeF16:
		return float16.Frombits(binary.LittleEndian.Uint16(data[i*2:])).Float32(), nil
	default:
		return 0, fmt.Errorf("unsupported dtype %s", t.DType())
	}
}
