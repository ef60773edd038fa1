package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollama/embedforge/trainer"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	base, err := url.Parse(ts.URL)
	require.NoError(t, err)
	return NewClient(base, ts.Client())
}

func TestClientFromEnvironment(t *testing.T) {
	t.Setenv("EMBEDFORGE_HOST", "10.0.0.1:9000")

	c, err := ClientFromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:9000", c.base.String())
}

func TestClientRegistry(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/registry/1", r.URL.Path)
		assert.Equal(t, "eval", r.URL.Query().Get("phase"))
		assert.Contains(t, r.Header.Get("User-Agent"), "embedforge/")

		json.NewEncoder(w).Encode(RegistryResponse{
			Phase:   "eval",
			Entries: []trainer.EntryPlan{{Name: "sparse_embedding1", Shape: []int{2, 3, 64}}},
		})
	})

	resp, err := c.Registry(context.Background(), 1, "eval")
	require.NoError(t, err)
	assert.Equal(t, "eval", resp.Phase)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, []int{2, 3, 64}, resp.Entries[0].Shape)
}

func TestClientTableEscapesName(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tables/a b", r.URL.Path)
		json.NewEncoder(w).Encode(trainer.TablePlan{Name: "a b", VectorSize: 16})
	})

	table, err := c.Table(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, 16, table.VectorSize)
}

func TestClientStatusError(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"json", `{"error":"embedding \"x\" not found"}`, `404 Not Found: embedding "x" not found`},
		{"plain", "kaputt", "404 Not Found: kaputt"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(tt.body))
			})

			_, err := c.Table(context.Background(), "x")
			var se StatusError
			require.True(t, errors.As(err, &se), "StatusError erwartet, bekommen %v", err)
			assert.Equal(t, http.StatusNotFound, se.StatusCode)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}
