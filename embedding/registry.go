// registry.go - Geordnete Tensor-Listen pro Geraet
// Waehrend des Aufbaus wird nur angehaengt, danach eingefroren und nur noch
// gelesen.
package embedding

import (
	"context"
	"errors"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ollama/embedforge/ml"
)

var (
	ErrRegistryFrozen    = errors.New("registry is frozen")
	ErrRegistryNotFrozen = errors.New("registry is not frozen")
)

// TensorEntry is a named output tensor visible to downstream layers.
type TensorEntry struct {
	Name   string
	Tensor ml.Tensor
}

// Registry holds one ordered entry list per local device.
type Registry struct {
	mu      sync.RWMutex
	devices [][]TensorEntry
	frozen  bool
}

func NewRegistry(devices int) *Registry {
	return &Registry{devices: make([][]TensorEntry, devices)}
}

// Append adds an entry to the list of device i.
func (r *Registry) Append(i int, e TensorEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	r.devices[i] = append(r.devices[i], e)
	return nil
}

// Freeze ends the build phase. It is safe to call more than once.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Len returns the number of devices.
func (r *Registry) Len() int {
	return len(r.devices)
}

// Device returns a copy of the entries of device i.
func (r *Registry) Device(i int) []TensorEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.devices[i])
}

// Names returns the entry names of device i in order.
func (r *Registry) Names(i int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.devices[i]))
	for j, e := range r.devices[i] {
		names[j] = e.Name
	}
	return names
}

// ForEachDevice calls fn once per device with a copy of its entries, at most
// limit at a time (no limit when limit <= 0). The registry must be frozen. The first error cancels ctx
// for the remaining calls and is returned.
func (r *Registry) ForEachDevice(ctx context.Context, limit int, fn func(ctx context.Context, i int, entries []TensorEntry) error) error {
	if !r.Frozen() {
		return ErrRegistryNotFrozen
	}

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i := range r.devices {
		entries := slices.Clone(r.devices[i])
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i, entries)
		})
	}
	return g.Wait()
}
