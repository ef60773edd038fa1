// manager.go - Referenz-Implementierung des Puffer-Managers
// Allokiert pro Geraet je einen gruppierten und einen netzwerkweisen Puffer.
package exchange

import (
	"fmt"

	"github.com/ollama/embedforge/ml"
)

const (
	GroupedName = "grouped"
	NetworkName = "network"
)

type buffers struct {
	name    string
	tensors []ml.Tensor
}

func (b *buffers) Name() string                   { return b.name }
func (b *buffers) EmbedWgradBuffers() []ml.Tensor { return b.tensors }

// Manager owns one grouped and one per-network buffer per local device.
type Manager struct {
	grouped *buffers
	network *buffers
}

// NewManager allocates wgrad buffers of elems elements each through the
// device allocators of r.
func NewManager(r ml.ResourceManager, dtype ml.DType, elems int) (*Manager, error) {
	if elems <= 0 {
		return nil, fmt.Errorf("exchange: invalid buffer size %d", elems)
	}

	m := &Manager{
		grouped: &buffers{name: GroupedName},
		network: &buffers{name: NetworkName},
	}

	for i := range r.LocalDeviceCount() {
		alloc := r.Allocator(i)

		g, err := alloc.Alloc(dtype, elems)
		if err != nil {
			return nil, fmt.Errorf("exchange: grouped buffer on device %d: %w", i, err)
		}
		n, err := alloc.Alloc(dtype, elems)
		if err != nil {
			return nil, fmt.Errorf("exchange: network buffer on device %d: %w", i, err)
		}

		m.grouped.tensors = append(m.grouped.tensors, g)
		m.network.tensors = append(m.network.tensors, n)
	}

	return m, nil
}

func (m *Manager) Grouped() Accessor { return m.grouped }
func (m *Manager) Network() Accessor { return m.network }
