package ml

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestDTypeOf(t *testing.T) {
	assert.Equal(t, DTypeF32, DTypeOf[float32]())
	assert.Equal(t, DTypeF16, DTypeOf[float16.Float16]())
	assert.Equal(t, DTypeI64, DTypeOf[int64]())
	assert.Equal(t, DTypeU32, DTypeOf[uint32]())
	assert.Equal(t, 2, DTypeF16.Size())
	assert.Equal(t, 8, DTypeI64.Size())
}

func TestHostAllocatorMeasureOnly(t *testing.T) {
	a := NewHostAllocator(DeviceID{ID: "0", Library: "cpu"}, false, nil)
	tt, err := a.Alloc(DTypeF32, 4, 8)
	require.NoError(t, err)

	assert.False(t, tt.Allocated())
	assert.Equal(t, []int{4, 8}, tt.Shape())
	assert.Equal(t, uint64(128), tt.Size())
	assert.Equal(t, 8, tt.Dim(1))
	assert.Equal(t, 1, tt.Dim(5))
	assert.NoError(t, Fill(tt, 1))
}

func TestHostAllocatorBudget(t *testing.T) {
	budget := NewBudget(64)
	a := NewHostAllocator(DeviceID{ID: "0"}, true, budget)

	first, err := a.Alloc(DTypeF32, 8)
	require.NoError(t, err)
	assert.True(t, first.Allocated())

	_, err = a.Alloc(DTypeF32, 16)
	var noMem ErrNoMem
	require.True(t, errors.As(err, &noMem))
	assert.Equal(t, uint64(64), noMem.Requested)

	a.Free(first)
	_, err = a.Alloc(DTypeF32, 16)
	assert.NoError(t, err)
}

func TestFill(t *testing.T) {
	a := NewHostAllocator(DeviceID{ID: "0"}, true, nil)
	for _, dt := range []DType{DTypeF32, DTypeF16} {
		tt, err := a.Alloc(dt, 3)
		require.NoError(t, err)
		require.NoError(t, Fill(tt, 0.5))
		for i := range 3 {
			v, err := Float32At(tt, i)
			require.NoError(t, err)
			assert.Equal(t, float32(0.5), v, dt.String())
		}
	}

	ints, err := a.Alloc(DTypeI64, 2)
	require.NoError(t, err)
	assert.Error(t, Fill(ints, 1))
}

func TestBackendMemoryAppend(t *testing.T) {
	var m BackendMemory
	m.Append(BackendMemory{Devices: []DeviceMemory{
		{DeviceID: DeviceID{ID: "0"}, Name: "dev0", Weights: []uint64{100}, OptimizerState: []uint64{200}, Outputs: []uint64{10}},
		{DeviceID: DeviceID{ID: "1"}, Name: "dev1", Weights: []uint64{100}, OptimizerState: []uint64{200}, Outputs: []uint64{10}},
	}})
	m.Append(BackendMemory{Devices: []DeviceMemory{
		{DeviceID: DeviceID{ID: "0"}, Name: "dev0", Weights: []uint64{1}, OptimizerState: []uint64{0}, Outputs: []uint64{2}},
		{DeviceID: DeviceID{ID: "1"}, Name: "dev1", Weights: []uint64{1}, OptimizerState: []uint64{0}, Outputs: []uint64{2}},
	}})

	require.Len(t, m.Devices, 2)
	assert.Equal(t, []uint64{100, 1}, m.Devices[0].Weights)
	assert.Equal(t, "dev1", m.Devices[1].Name)
	assert.Equal(t, uint64(313), m.Devices[0].Size())
	assert.Equal(t, uint64(626), m.Total())
}
