// Modul: devices.go
// Beschreibung: Lokale Geraete-Erkennung und Resource-Manager.
// Enthaelt Devices-Funktion und die Resources-Implementierung von ml.ResourceManager.

package discover

import (
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"github.com/ollama/embedforge/envconfig"
	"github.com/ollama/embedforge/ml"
)

// Devices enumerates the local devices the model is built for.
//
// EMBEDFORGE_VISIBLE_DEVICES takes precedence; otherwise
// EMBEDFORGE_NUM_DEVICES numbered devices are reported.
func Devices() []ml.DeviceInfo {
	ids := envconfig.VisibleDevices()
	if len(ids) == 0 {
		n := int(envconfig.NumDevices())
		if n == 0 {
			slog.Warn("EMBEDFORGE_NUM_DEVICES is 0, using a single device")
			n = 1
		}
		for i := range n {
			ids = append(ids, strconv.Itoa(i))
		}
	}

	devs := make([]ml.DeviceInfo, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			slog.Warn("skipping duplicate device id", "id", id)
			continue
		}
		seen[id] = struct{}{}

		devs = append(devs, ml.DeviceInfo{
			DeviceID:     ml.DeviceID{ID: id, Library: "cpu"},
			Index:        len(devs),
			Name:         "dev" + id,
			Description:  fmt.Sprintf("host device %s (%s/%s)", id, runtime.GOOS, runtime.GOARCH),
			ComputeMajor: -1,
			ComputeMinor: -1,
		})
	}

	slog.Debug("discovered devices", "count", len(devs))
	return devs
}

// Resources implements ml.ResourceManager over a fixed device list.
type Resources struct {
	devices    []ml.DeviceInfo
	allocators []*ml.HostAllocator
}

// NewResources returns a resource manager for devs. When allocMemory is
// false tensors are only measured. limit bounds the bytes allocated across
// all devices (0 = unbounded).
func NewResources(devs []ml.DeviceInfo, allocMemory bool, limit uint64) *Resources {
	budget := ml.NewBudget(limit)

	r := &Resources{devices: make([]ml.DeviceInfo, len(devs))}
	for i, d := range devs {
		d.Index = i
		r.devices[i] = d
		r.allocators = append(r.allocators, ml.NewHostAllocator(d.DeviceID, allocMemory, budget))
	}
	return r
}

// FromEnvironment builds Resources from the envconfig settings.
func FromEnvironment() *Resources {
	return NewResources(Devices(), envconfig.AllocMemory(), envconfig.HostMemoryLimit())
}

func (r *Resources) LocalDeviceCount() int { return len(r.devices) }

func (r *Resources) LocalDevice(i int) ml.DeviceInfo { return r.devices[i] }

func (r *Resources) Allocator(i int) ml.Allocator { return r.allocators[i] }
