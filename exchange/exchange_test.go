package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollama/embedforge/discover"
	"github.com/ollama/embedforge/ml"
)

type recordingExchange struct {
	reads []string
}

func (r *recordingExchange) Grouped() Accessor {
	r.reads = append(r.reads, GroupedName)
	return &buffers{name: GroupedName}
}

func (r *recordingExchange) Network() Accessor {
	r.reads = append(r.reads, NetworkName)
	return &buffers{name: NetworkName}
}

func TestSelect(t *testing.T) {
	for _, grouped := range []bool{true, false} {
		x := &recordingExchange{}
		a, err := Select(x, grouped)
		require.NoError(t, err)

		want := NetworkName
		if grouped {
			want = GroupedName
		}
		assert.Equal(t, want, a.Name())
		assert.Equal(t, []string{want}, x.reads, "nur ein Accessor darf gelesen werden")
	}
}

func TestSelectNil(t *testing.T) {
	_, err := Select(nil, true)
	assert.ErrorIs(t, err, ErrNoExchange)
}

func TestManager(t *testing.T) {
	devs := []ml.DeviceInfo{{DeviceID: ml.DeviceID{ID: "0"}}, {DeviceID: ml.DeviceID{ID: "1"}}}
	m, err := NewManager(discover.NewResources(devs, false, 0), ml.DTypeF16, 128)
	require.NoError(t, err)

	g := m.Grouped().EmbedWgradBuffers()
	n := m.Network().EmbedWgradBuffers()
	require.Len(t, g, 2)
	require.Len(t, n, 2)
	assert.Equal(t, "1", g[1].Device().ID)
	assert.NotSame(t, g[0], n[0])
	assert.Equal(t, uint64(256), n[0].Size())

	_, err = NewManager(discover.NewResources(devs, false, 0), ml.DTypeF32, 0)
	assert.Error(t, err)
}
