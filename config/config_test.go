package config

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollama/embedforge/types/errtypes"
)

func TestBlockAccessors(t *testing.T) {
	b := Block{
		"name":   "x",
		"flag":   true,
		"count":  3,
		"ratio":  0.25,
		"sizes":  []any{1, 2.0, 3},
		"nested": map[string]any{"k": "v"},
	}

	s, err := b.String("name")
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	f, err := b.Bool("flag")
	require.NoError(t, err)
	assert.True(t, f)

	n, err := b.Uint("count")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	r, err := b.Float32("ratio")
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), r)

	sizes, err := b.Uints("sizes")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, sizes)

	nested, err := b.Block("nested")
	require.NoError(t, err)
	assert.True(t, nested.Has("k"))
}

func TestBlockMissingAndMistyped(t *testing.T) {
	b := Block{"count": "drei", "neg": -1, "frac": 1.5}

	_, err := b.String("name")
	require.ErrorIs(t, err, errtypes.ErrInvalidConfiguration)
	assert.Equal(t, "name", errtypes.Field(err))

	_, err = b.Uint("count")
	assert.ErrorIs(t, err, errtypes.ErrInvalidConfiguration)

	_, err = b.Uint("neg")
	assert.ErrorIs(t, err, errtypes.ErrInvalidConfiguration)

	_, err = b.Int("frac")
	assert.ErrorIs(t, err, errtypes.ErrInvalidConfiguration)

	def, err := b.UintOr("absent", 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), def)

	_, err = b.UintOr("count", 7)
	assert.Error(t, err, "present but mistyped soft keys still fail")
}

func TestBlockUintsBadElement(t *testing.T) {
	_, err := Block{"s": []any{1, "x"}}.Uints("s")
	require.Error(t, err)
	assert.Equal(t, "s[1]", errtypes.Field(err))
}

const modelJSON = `{
  "solver": {"batchsize": 1024, "lr": 0.01, "grouped_all_reduce": true, "key_type": "uint32"},
  "optimizer": {"type": "SGD", "update_type": "Local", "sgd_hparam": {"atomic_update": true}},
  "sparse_inputs": [{"top": "data1", "slot_num": 26, "max_feature_num_per_sample": 26}],
  "embeddings": [{"bottom": "data1", "top": "sparse_embedding1", "type": "DistributedSlotSparseEmbeddingHash", "ignored": 1}]
}`

func TestLoad(t *testing.T) {
	m, err := Load(strings.NewReader(modelJSON))
	require.NoError(t, err)

	want := Solver{
		BatchSize:               1024,
		BatchSizeEval:           1024,
		LearningRate:            0.01,
		WarmupSteps:             1,
		DecaySteps:              1,
		DecayPower:              2,
		GroupedAllReduce:        true,
		NumIterationsStatistics: 20,
		KeyType:                 "uint32",
		ValueType:               "f32",
	}
	if diff := cmp.Diff(want, m.Solver); diff != "" {
		t.Errorf("Solver mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, m.Inputs, 1)
	assert.Equal(t, Input{Name: "data1", SlotNum: 26, MaxFeatureNumPerSample: 26}, m.Inputs[0])
	require.Len(t, m.Embeddings, 1)
	assert.NotNil(t, m.Optimizer)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"kein solver":       `{"sparse_inputs": [], "embeddings": []}`,
		"kein batchsize":    `{"solver": {}, "sparse_inputs": [], "embeddings": []}`,
		"slot_num null":     `{"solver": {"batchsize": 1}, "sparse_inputs": [{"top": "d", "slot_num": 0}], "embeddings": []}`,
		"zu wenig features": `{"solver": {"batchsize": 1}, "sparse_inputs": [{"top": "d", "slot_num": 4, "max_feature_num_per_sample": 2}], "embeddings": []}`,
		"keine embeddings":  `{"solver": {"batchsize": 1}, "sparse_inputs": []}`,
	}

	for name, js := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(js))
			assert.ErrorIs(t, err, errtypes.ErrInvalidConfiguration)
		})
	}

	_, err := Load(strings.NewReader("{"))
	assert.Error(t, err)
}
