package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollama/embedforge/embedding"
	"github.com/ollama/embedforge/server"
	"github.com/ollama/embedforge/trainer"
)

const testModel = `{
	"solver": {"batchsize": 8, "batchsize_eval": 4},
	"sparse_inputs": [{"top": "data1", "slot_num": 2, "max_feature_num_per_sample": 4}],
	"embeddings": [
		{
			"type": "DistributedSlotSparseEmbeddingHash",
			"bottom": "data1",
			"top": "sparse_embedding1",
			"sparse_embedding_hparam": {"workspace_size_per_gpu_in_mb": 4, "embedding_vec_size": 48, "combiner": "sum"}
		},
		{
			"type": "HybridSparseEmbedding",
			"bottom": "data1",
			"top": "sparse_embedding2",
			"sparse_embedding_hparam": {"slot_size_array": [10, 20], "embedding_vec_size": 32, "combiner": "mean"}
		}
	]
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	c := NewCLI()
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)
	err := c.ExecuteContext(context.Background())
	return out.String(), err
}

func writeModel(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(testModel), 0o644))
	return path
}

func TestBuildJSON(t *testing.T) {
	t.Setenv("EMBEDFORGE_NUM_DEVICES", "2")

	out, err := run(t, "build", "-f", writeModel(t), "--format", "json")
	require.NoError(t, err)

	var plan trainer.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	require.Len(t, plan.Tables, 2)
	assert.Equal(t, embedding.DistributedHash, plan.Tables[0].Kind)
	assert.Equal(t, embedding.Hybrid, plan.Tables[1].Kind)
	require.Len(t, plan.Train, 2)
	assert.Equal(t, "sparse_embedding2", plan.Train[1][1].Name)
	assert.Len(t, plan.Tables[0].Advisories, 1)
}

func TestBuildHalfPrecision(t *testing.T) {
	t.Setenv("EMBEDFORGE_NUM_DEVICES", "2")
	t.Setenv("EMBEDFORGE_VALUE_TYPE", "f16")

	out, err := run(t, "build", "-f", writeModel(t), "--format", "json")
	require.NoError(t, err)

	var plan trainer.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, "f16", plan.ValueType)
	require.Len(t, plan.Tables, 2)
	assert.Equal(t, embedding.Hybrid, plan.Tables[1].Kind)
}

func TestBuildTable(t *testing.T) {
	t.Setenv("EMBEDFORGE_NUM_DEVICES", "1")

	out, err := run(t, "build", "-f", writeModel(t), "--format", "table")
	require.NoError(t, err)

	for _, want := range []string{"NAME", "sparse_embedding1", "DistributedHash", "Hybrid", "WEIGHTS", "warning: sparse_embedding1"} {
		assert.Contains(t, out, want)
	}
}

func TestBuildErrors(t *testing.T) {
	_, err := run(t, "build", "-f", writeModel(t), "--format", "yaml")
	require.ErrorContains(t, err, "unknown format")

	_, err = run(t, "build", "-f", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestShow(t *testing.T) {
	plan := trainer.Plan{
		ID:     "plan-1",
		Tables: []trainer.TablePlan{{Name: "sparse_embedding1", Kind: embedding.LocalizedOneHot, VectorSize: 16}},
	}

	ts := httptest.NewServer(server.New(nil, plan).GenerateRoutes())
	defer ts.Close()
	t.Setenv("EMBEDFORGE_HOST", ts.URL)

	out, err := run(t, "show", "--format", "json")
	require.NoError(t, err)
	var got trainer.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "plan-1", got.ID)
	require.Len(t, got.Tables, 1)
	assert.Equal(t, embedding.LocalizedOneHot, got.Tables[0].Kind)

	out, err = run(t, "show", "sparse_embedding1")
	require.NoError(t, err)
	assert.Contains(t, out, `"embedding_vec_size": 16`)

	_, err = run(t, "show", "nope")
	require.ErrorContains(t, err, `embedding "nope" not found`)
}

func TestEnv(t *testing.T) {
	t.Setenv("EMBEDFORGE_KEY_TYPE", "uint32")

	out, err := run(t, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "EMBEDFORGE_NUM_DEVICES")
	assert.Contains(t, out, "uint32")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "embedforge version is")
}
