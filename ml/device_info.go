// device_info.go
// Dieses Modul enthaelt die DeviceID- und DeviceInfo-Strukturen fuer die
// lokale Geraete-Identitaet, die der Resource-Manager in fester Reihenfolge liefert.

package ml

import (
	"fmt"
	"strconv"
)

// Minimal unique device identification
type DeviceID struct {
	// ID is an identifier for the device. It is only unique for other
	// devices using the same Library.
	ID string `json:"id"`

	// Library identifies which library is used for the device (e.g. CUDA, cpu)
	Library string `json:"backend,omitempty"`
}

func (d DeviceID) String() string {
	if d.Library == "" {
		return d.ID
	}
	return d.Library + ":" + d.ID
}

type DeviceInfo struct {
	DeviceID

	// Index is the position of the device in resource-manager order.
	Index int `json:"index"`

	// Name is the name of the device as labeled by the backend.
	Name string `json:"name"`

	// Description is the longer user-friendly identification of the device
	Description string `json:"description,omitempty"`

	// TotalMemory is the total amount of memory the device can use for tables
	TotalMemory uint64 `json:"total_memory,omitempty"`

	// FreeMemory is the amount of memory currently available on the device
	FreeMemory uint64 `json:"free_memory,omitempty"`

	// ComputeMajor is the major version of capabilities of the device
	// if unsupported by the backend, -1 will be returned
	ComputeMajor int `json:"compute_major,omitempty"`

	// ComputeMinor is the minor version of capabilities of the device
	// if unsupported by the backend, -1 will be returned
	ComputeMinor int `json:"compute_minor,omitempty"`
}

func (d DeviceInfo) Compute() string {
	return strconv.Itoa(d.ComputeMajor) + "." + strconv.Itoa(d.ComputeMinor)
}

func (d DeviceInfo) String() string {
	return fmt.Sprintf("%d(%s)", d.Index, d.DeviceID)
}

// ResourceManager enumerates the local devices a model is built for.
// Devices are always visited in index order.
type ResourceManager interface {
	LocalDeviceCount() int
	LocalDevice(i int) DeviceInfo

	// Allocator returns the tensor allocator for device i
	Allocator(i int) Allocator
}

// Devices returns all local devices of r in index order.
func Devices(r ResourceManager) []DeviceInfo {
	n := r.LocalDeviceCount()
	devs := make([]DeviceInfo, n)
	for i := range n {
		devs[i] = r.LocalDevice(i)
	}
	return devs
}
