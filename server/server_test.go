package server

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollama/embedforge/api"
	"github.com/ollama/embedforge/embedding"
	"github.com/ollama/embedforge/ml"
	"github.com/ollama/embedforge/trainer"
)

func testPlan() trainer.Plan {
	devs := []ml.DeviceInfo{
		{DeviceID: ml.DeviceID{ID: "0", Library: "cpu"}, Index: 0, Name: "dev0"},
		{DeviceID: ml.DeviceID{ID: "1", Library: "cpu"}, Index: 1, Name: "dev1"},
	}

	entries := func(rows int) [][]trainer.EntryPlan {
		var out [][]trainer.EntryPlan
		for _, d := range devs {
			out = append(out, []trainer.EntryPlan{
				{Name: "sparse_embedding1", Device: d.DeviceID.String(), DType: "f32", Shape: []int{rows, 3, 64}},
				{Name: "sparse_embedding2", Device: d.DeviceID.String(), DType: "f32", Shape: []int{rows, 384}},
			})
		}
		return out
	}

	return trainer.Plan{
		ID:        "plan-1",
		KeyType:   "i64",
		ValueType: "f32",
		Devices:   devs,
		Tables: []trainer.TablePlan{
			{Name: "sparse_embedding1", Kind: embedding.DistributedHash, VectorSize: 64},
			{Name: "sparse_embedding2", Kind: embedding.Hybrid, VectorSize: 128},
		},
		Train: entries(4),
		Eval:  entries(2),
		Memory: ml.BackendMemory{Devices: []ml.DeviceMemory{
			{DeviceID: devs[0].DeviceID, Name: "dev0", Weights: []uint64{1024, 2048}, OptimizerState: []uint64{0, 0}, Outputs: []uint64{64, 64}},
			{DeviceID: devs[1].DeviceID, Name: "dev1", Weights: []uint64{1024, 2048}, OptimizerState: []uint64{0, 0}, Outputs: []uint64{64, 64}},
		}},
	}
}

func request(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	h.ServeHTTP(w, r)
	return w
}

func TestRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(nil, testPlan()).GenerateRoutes()

	w := request(t, h, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "embedforge is running", w.Body.String())

	w = request(t, h, "/api/version")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "version")

	w = request(t, h, "/api/tables")
	require.Equal(t, http.StatusOK, w.Code)
	var tables struct {
		ID     string `json:"id"`
		Tables []struct {
			Name string         `json:"name"`
			Kind embedding.Kind `json:"type"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tables))
	assert.Equal(t, "plan-1", tables.ID)
	require.Len(t, tables.Tables, 2)
	assert.Equal(t, embedding.Hybrid, tables.Tables[1].Kind)

	w = request(t, h, "/api/tables/sparse_embedding2")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"Hybrid"`)

	w = request(t, h, "/api/tables/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(t, h, "/api/devices")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"dev1"`)
}

func TestRegistryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(nil, testPlan()).GenerateRoutes()

	cases := []struct {
		target string
		code   int
		rows   int
	}{
		{"/api/registry/0", http.StatusOK, 4},
		{"/api/registry/1?phase=eval", http.StatusOK, 2},
		{"/api/registry/1?phase=train", http.StatusOK, 4},
		{"/api/registry/2", http.StatusNotFound, 0},
		{"/api/registry/x", http.StatusBadRequest, 0},
		{"/api/registry/0?phase=predict", http.StatusBadRequest, 0},
	}

	for _, tt := range cases {
		t.Run(tt.target, func(t *testing.T) {
			w := request(t, h, tt.target)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.code != http.StatusOK {
				return
			}

			var resp struct {
				Entries []trainer.EntryPlan `json:"entries"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Len(t, resp.Entries, 2)
			assert.Equal(t, "sparse_embedding1", resp.Entries[0].Name)
			assert.Equal(t, tt.rows, resp.Entries[0].Shape[0])
		})
	}
}

func TestMemoryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(nil, testPlan()).GenerateRoutes()

	w := request(t, h, "/api/memory")
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.MemoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(2*(1024+2048+128)), resp.Total)
	assert.Len(t, resp.Devices, 2)
	assert.NotEmpty(t, resp.Human)
}

func TestLoopbackOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)

	loopback := New(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 11500}, testPlan()).GenerateRoutes()
	public := New(&net.TCPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 11500}, testPlan()).GenerateRoutes()

	cases := []struct {
		host     string
		loopback int
	}{
		{"localhost:11500", http.StatusOK},
		{"127.0.0.1:11500", http.StatusOK},
		{"[::1]:11500", http.StatusOK},
		{"dev.localhost", http.StatusOK},
		{"box.internal", http.StatusForbidden},
		{"10.0.0.5:11500", http.StatusForbidden},
		{"example.com", http.StatusForbidden},
	}

	for _, tt := range cases {
		t.Run(tt.host, func(t *testing.T) {
			for _, c := range []struct {
				h    http.Handler
				want int
			}{{loopback, tt.loopback}, {public, http.StatusOK}} {
				w := httptest.NewRecorder()
				r := httptest.NewRequest(http.MethodGet, "/api/version", nil)
				r.Host = tt.host
				c.h.ServeHTTP(w, r)
				assert.Equal(t, c.want, w.Code)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("EMBEDFORGE_ORIGINS", "https://dash.example")
	h := New(nil, testPlan()).GenerateRoutes()

	cases := []struct {
		origin string
		code   int
		allow  string
	}{
		{"https://dash.example", http.StatusOK, "https://dash.example"},
		{"http://localhost:3000", http.StatusOK, "http://localhost:3000"},
		{"https://evil.example", http.StatusForbidden, ""},
	}

	for _, tt := range cases {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
		r.Header.Set("Origin", tt.origin)
		h.ServeHTTP(w, r)
		assert.Equal(t, tt.code, w.Code, tt.origin)
		assert.Equal(t, tt.allow, w.Header().Get("Access-Control-Allow-Origin"), tt.origin)
	}
}
