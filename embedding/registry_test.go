package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollama/embedforge/ml"
	"github.com/ollama/embedforge/optimizer"
)

func TestRegistryFreeze(t *testing.T) {
	r := NewRegistry(2)
	tensor := ml.NewTensor(ml.DeviceID{ID: "0"}, ml.DTypeF32, 1)

	require.NoError(t, r.Append(0, TensorEntry{Name: "a", Tensor: tensor}))
	assert.False(t, r.Frozen())

	r.Freeze()
	r.Freeze()
	assert.True(t, r.Frozen())
	assert.ErrorIs(t, r.Append(0, TensorEntry{Name: "b", Tensor: tensor}), ErrRegistryFrozen)
	assert.Equal(t, []string{"a"}, r.Names(0))
	assert.Empty(t, r.Names(1))
}

func TestRegistryDeviceIsCopy(t *testing.T) {
	r := NewRegistry(1)
	require.NoError(t, r.Append(0, TensorEntry{Name: "a"}))

	entries := r.Device(0)
	entries[0].Name = "changed"
	assert.Equal(t, []string{"a"}, r.Names(0))
}

func TestRegistryForEachDevice(t *testing.T) {
	r := NewRegistry(4)
	for i := range 4 {
		require.NoError(t, r.Append(i, TensorEntry{Name: "a"}))
		require.NoError(t, r.Append(i, TensorEntry{Name: "b"}))
	}

	err := r.ForEachDevice(context.Background(), 0, func(context.Context, int, []TensorEntry) error { return nil })
	require.ErrorIs(t, err, ErrRegistryNotFrozen)

	r.Freeze()

	var visited, entries atomic.Int64
	err = r.ForEachDevice(context.Background(), 2, func(_ context.Context, i int, e []TensorEntry) error {
		visited.Add(1)
		entries.Add(int64(len(e)))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), visited.Load())
	assert.Equal(t, int64(8), entries.Load())

	boom := errors.New("boom")
	err = r.ForEachDevice(context.Background(), 0, func(_ context.Context, i int, _ []TensorEntry) error {
		if i == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)

	// Verbraucher duerfen ihre Kopie veraendern, das Registry bleibt gleich
	err = r.ForEachDevice(context.Background(), 0, func(_ context.Context, _ int, e []TensorEntry) error {
		e[0].Name = "overwritten"
		return nil
	})
	require.NoError(t, err)
	for i := range 4 {
		assert.Equal(t, []string{"a", "b"}, r.Names(i))
	}
}

// stubBackend returns fixed outputs.
type stubBackend struct {
	train, eval []ml.Tensor
}

func (s *stubBackend) Kind() Kind                  { return DistributedHash }
func (s *stubBackend) Name() string                { return "stub" }
func (s *stubBackend) TrainOutputs() []ml.Tensor   { return s.train }
func (s *stubBackend) EvalOutputs() []ml.Tensor    { return s.eval }
func (s *stubBackend) Memory() ml.BackendMemory    { return ml.BackendMemory{} }
func (s *stubBackend) Optimizer() optimizer.Params { return optimizer.DefaultParams() }

func TestBind(t *testing.T) {
	r := newTestResources(2, false)
	on := func(i int) ml.Tensor { return ml.NewTensor(r.LocalDevice(i).DeviceID, ml.DTypeF32, 4, 8) }

	cases := []struct {
		name string
		b    Backend
		err  error
	}{
		{"ok", &stubBackend{train: []ml.Tensor{on(0), on(1)}, eval: []ml.Tensor{on(0), on(1)}}, nil},
		{"too few outputs", &stubBackend{train: []ml.Tensor{on(0)}, eval: []ml.Tensor{on(0), on(1)}}, ErrNotFinalized},
		{"nil output", &stubBackend{train: []ml.Tensor{on(0), on(1)}, eval: []ml.Tensor{on(0), nil}}, ErrNotFinalized},
		{"wrong device", &stubBackend{train: []ml.Tensor{on(0), on(0)}, eval: []ml.Tensor{on(0), on(1)}}, nil},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			train, eval := NewRegistry(2), NewRegistry(2)
			err := Bind(tt.b, "top", r, train, eval)

			if tt.name == "ok" {
				require.NoError(t, err)
				for i := range 2 {
					assert.Equal(t, []string{"top"}, train.Names(i))
					assert.Equal(t, []string{"top"}, eval.Names(i))
				}
				return
			}

			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
			for i := range 2 {
				assert.Empty(t, train.Names(i), "Registry darf nach Fehler nicht veraendert sein")
				assert.Empty(t, eval.Names(i))
			}
		})
	}
}

func TestBindFrozenRegistry(t *testing.T) {
	r := newTestResources(1, false)
	out := ml.NewTensor(r.LocalDevice(0).DeviceID, ml.DTypeF32, 1)
	b := &stubBackend{train: []ml.Tensor{out}, eval: []ml.Tensor{out}}

	train, eval := NewRegistry(1), NewRegistry(1)
	eval.Freeze()

	require.ErrorIs(t, Bind(b, "top", r, train, eval), ErrRegistryFrozen)
	assert.Empty(t, train.Names(0))
}
