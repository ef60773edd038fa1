package discover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollama/embedforge/ml"
)

func TestDevicesFromCount(t *testing.T) {
	t.Setenv("EMBEDFORGE_VISIBLE_DEVICES", "")
	t.Setenv("EMBEDFORGE_NUM_DEVICES", "3")

	devs := Devices()
	require.Len(t, devs, 3)
	for i, d := range devs {
		assert.Equal(t, i, d.Index)
		assert.Equal(t, "cpu", d.Library)
	}
	assert.Equal(t, "2", devs[2].ID)
}

func TestDevicesVisibleWins(t *testing.T) {
	t.Setenv("EMBEDFORGE_VISIBLE_DEVICES", "4,7,4")
	t.Setenv("EMBEDFORGE_NUM_DEVICES", "8")

	devs := Devices()
	require.Len(t, devs, 2)
	assert.Equal(t, "4", devs[0].ID)
	assert.Equal(t, "7", devs[1].ID)
	assert.Equal(t, 1, devs[1].Index)
}

func TestDevicesZeroCount(t *testing.T) {
	t.Setenv("EMBEDFORGE_VISIBLE_DEVICES", "")
	t.Setenv("EMBEDFORGE_NUM_DEVICES", "0")

	assert.Len(t, Devices(), 1)
}

func TestResources(t *testing.T) {
	devs := []ml.DeviceInfo{
		{DeviceID: ml.DeviceID{ID: "a"}, Index: 5},
		{DeviceID: ml.DeviceID{ID: "b"}, Index: 9},
	}
	r := NewResources(devs, false, 0)

	require.Equal(t, 2, r.LocalDeviceCount())
	assert.Equal(t, 1, r.LocalDevice(1).Index)

	tt, err := r.Allocator(1).Alloc(ml.DTypeF32, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, "b", tt.Device().ID)
	assert.False(t, tt.Allocated())

	assert.Equal(t, []string{"a", "b"}, []string{ml.Devices(r)[0].ID, ml.Devices(r)[1].ID})
}
