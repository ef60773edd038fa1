// device_memory.go
// Dieses Modul enthaelt die Speicher-bezogenen Typen fuer die Bilanz der
// Embedding-Tabellen pro Geraet (Gewichte, Optimizer-Zustand, Ausgaben).

package ml

import (
	"context"
	"log/slog"
	"slices"

	"github.com/ollama/embedforge/format"
)

// DeviceMemory provides a breakdown of the memory needed per device.
// Each slice holds one entry per embedding table in declaration order.
type DeviceMemory struct {
	DeviceID

	// Name is the name of the device as labeled by the backend.
	Name string `json:"name"`

	// Weights is the per-table memory needed for keys and embedding vectors.
	Weights []uint64 `json:"weights"`

	// OptimizerState is the per-table memory needed for optimizer slots.
	OptimizerState []uint64 `json:"optimizer_state"`

	// Outputs is the per-table memory of the train and evaluate outputs.
	Outputs []uint64 `json:"outputs"`
}

func sumMemory(mem []uint64) uint64 {
	var sum uint64

	for _, m := range mem {
		sum += m
	}

	return sum
}

// Size returns the total size of the memory required by this device
func (m DeviceMemory) Size() uint64 {
	return sumMemory(m.Weights) + sumMemory(m.OptimizerState) + sumMemory(m.Outputs)
}

func memoryPresent(mem []uint64) bool {
	return slices.ContainsFunc(mem, func(m uint64) bool { return m != 0 })
}

func (m DeviceMemory) LogValue() slog.Value {
	var attrs []slog.Attr
	if memoryPresent(m.Weights) {
		attrs = append(attrs, slog.Any("Weights", m.Weights))
	}

	if memoryPresent(m.OptimizerState) {
		attrs = append(attrs, slog.Any("OptimizerState", m.OptimizerState))
	}

	if memoryPresent(m.Outputs) {
		attrs = append(attrs, slog.Any("Outputs", m.Outputs))
	}

	if len(attrs) > 0 && m.ID != "" {
		attrs = append([]slog.Attr{slog.String("ID", m.ID)}, attrs...)
	}

	return slog.GroupValue(attrs...)
}

// BackendMemory is the memory required by one or more embedding tables on
// every local device, indexed like the resource manager.
type BackendMemory struct {
	Devices []DeviceMemory `json:"devices"`
}

// Append adds the per-table entries of o to m, device by device.
func (m *BackendMemory) Append(o BackendMemory) {
	if len(m.Devices) < len(o.Devices) {
		grown := make([]DeviceMemory, len(o.Devices))
		copy(grown, m.Devices)
		for i := len(m.Devices); i < len(o.Devices); i++ {
			grown[i].DeviceID = o.Devices[i].DeviceID
			grown[i].Name = o.Devices[i].Name
		}
		m.Devices = grown
	}

	for i, d := range o.Devices {
		m.Devices[i].Weights = append(m.Devices[i].Weights, d.Weights...)
		m.Devices[i].OptimizerState = append(m.Devices[i].OptimizerState, d.OptimizerState...)
		m.Devices[i].Outputs = append(m.Devices[i].Outputs, d.Outputs...)
	}
}

// Total returns the sum over all devices.
func (m BackendMemory) Total() uint64 {
	var total uint64
	for _, d := range m.Devices {
		total += d.Size()
	}
	return total
}

func (m BackendMemory) LogValue() slog.Value {
	var attrs []slog.Attr
	for _, d := range m.Devices {
		attrs = append(attrs, slog.Any(d.Name, d))
	}

	return slog.GroupValue(attrs...)
}

// Log prints a high level summary of the memory
func (m BackendMemory) Log(level slog.Level) {
	var total uint64

	for _, d := range m.Devices {
		if sum := sumMemory(d.Weights); sum > 0 {
			slog.Log(context.TODO(), level, "embedding weights", "device", d.Name, "size", format.HumanBytes2(sum))
			total += sum
		}
	}

	for _, d := range m.Devices {
		if sum := sumMemory(d.OptimizerState); sum > 0 {
			slog.Log(context.TODO(), level, "optimizer state", "device", d.Name, "size", format.HumanBytes2(sum))
			total += sum
		}
	}

	for _, d := range m.Devices {
		if sum := sumMemory(d.Outputs); sum > 0 {
			slog.Log(context.TODO(), level, "embedding outputs", "device", d.Name, "size", format.HumanBytes2(sum))
			total += sum
		}
	}

	slog.Log(context.TODO(), level, "total memory", "size", format.HumanBytes2(total))
}
