// allocator.go - Host-Allokator mit optionalem Byte-Budget
// Dieses Modul stellt den Allokator bereit, den discover pro Geraet vergibt.
package ml

import (
	"fmt"

	"golang.org/x/sync/semaphore"
)

// HostAllocator creates tensors for one device in host memory.
//
// When alloc is false tensors only carry a shape, which is enough to size
// tables and wire registries without touching memory.
type HostAllocator struct {
	device DeviceID
	alloc  bool

	// budget is shared between all allocators of a resource manager
	budget *semaphore.Weighted
}

// NewHostAllocator returns an allocator for device. A nil budget means
// allocations are unbounded.
func NewHostAllocator(device DeviceID, alloc bool, budget *semaphore.Weighted) *HostAllocator {
	return &HostAllocator{device: device, alloc: alloc, budget: budget}
}

// NewBudget returns a byte budget for NewHostAllocator, or nil when limit is 0.
func NewBudget(limit uint64) *semaphore.Weighted {
	if limit == 0 {
		return nil
	}
	return semaphore.NewWeighted(int64(limit))
}

func (a *HostAllocator) Alloc(dtype DType, shape ...int) (Tensor, error) {
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("alloc: negative dimension in shape %v", shape)
		}
	}

	t := &hostTensor{device: a.device, dtype: dtype, shape: append([]int(nil), shape...)}
	if !a.alloc {
		return t, nil
	}

	size := t.Size()
	if a.budget != nil && !a.budget.TryAcquire(int64(size)) {
		return nil, ErrNoMem{Device: a.device, Requested: size}
	}

	t.data = make([]byte, size)
	return t, nil
}

// Free returns the memory of t to the budget.
func (a *HostAllocator) Free(t Tensor) {
	ht, ok := t.(*hostTensor)
	if !ok || ht.data == nil {
		return
	}

	if a.budget != nil {
		a.budget.Release(int64(len(ht.data)))
	}
	ht.data = nil
}

// ErrNoMem is returned when an allocation exceeds the host budget.
type ErrNoMem struct {
	Device    DeviceID
	Requested uint64
}

func (e ErrNoMem) Error() string {
	return fmt.Sprintf("insufficient memory on %s - requested %d bytes", e.Device, e.Requested)
}
