// Package api - Client fuer den embedforge Inspektions-Server.
// Die Methoden von [Client] entsprechen den Routen aus dem server-Paket;
// der Befehl "embedforge show" verwendet diesen Client.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strconv"

	"github.com/ollama/embedforge/envconfig"
	"github.com/ollama/embedforge/trainer"
	"github.com/ollama/embedforge/version"
)

// Client encapsulates client state for interacting with a running
// "embedforge serve". Use [ClientFromEnvironment] to create new Clients.
type Client struct {
	base *url.URL
	http *http.Client
}

func checkError(resp *http.Response, body []byte) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	apiError := StatusError{StatusCode: resp.StatusCode, Status: resp.Status}

	err := json.Unmarshal(body, &apiError)
	if err != nil {
		// Use the full body as the message if we fail to decode a response.
		apiError.ErrorMessage = string(body)
	}

	return apiError
}

// ClientFromEnvironment creates a new [Client] using EMBEDFORGE_HOST, which
// points to the host and port the inspection server listens on:
//
//	<scheme>://<host>:<port>
func ClientFromEnvironment() (*Client, error) {
	return &Client{
		base: envconfig.Host(),
		http: http.DefaultClient,
	}, nil
}

func NewClient(base *url.URL, http *http.Client) *Client {
	return &Client{
		base: base,
		http: http,
	}
}

func (c *Client) do(ctx context.Context, path string, query url.Values, respData any) error {
	requestURL := c.base.JoinPath(path)
	if len(query) > 0 {
		requestURL.RawQuery = query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL.String(), nil)
	if err != nil {
		return err
	}

	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", fmt.Sprintf("embedforge/%s (%s %s) Go/%s", version.Version, runtime.GOARCH, runtime.GOOS, runtime.Version()))

	respObj, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer respObj.Body.Close()

	respBody, err := io.ReadAll(respObj.Body)
	if err != nil {
		return err
	}

	if err := checkError(respObj, respBody); err != nil {
		return err
	}

	if len(respBody) > 0 && respData != nil {
		if err := json.Unmarshal(respBody, respData); err != nil {
			return err
		}
	}
	return nil
}

// ===== API-Methoden =====

// Version returns the version of the server.
func (c *Client) Version(ctx context.Context) (string, error) {
	var v VersionResponse
	if err := c.do(ctx, "/api/version", nil, &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

// Plan fetches the complete plan served by the server.
func (c *Client) Plan(ctx context.Context) (trainer.Plan, error) {
	var p trainer.Plan
	if err := c.do(ctx, "/api/plan", nil, &p); err != nil {
		return trainer.Plan{}, err
	}
	return p, nil
}

func (c *Client) Tables(ctx context.Context) (*TablesResponse, error) {
	var resp TablesResponse
	if err := c.do(ctx, "/api/tables", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Table fetches a single table by its top name.
func (c *Client) Table(ctx context.Context, name string) (*trainer.TablePlan, error) {
	var t trainer.TablePlan
	if err := c.do(ctx, "/api/tables/"+url.PathEscape(name), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Devices(ctx context.Context) (*DevicesResponse, error) {
	var resp DevicesResponse
	if err := c.do(ctx, "/api/devices", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Registry fetches the registry of device i. phase is "train" or "eval";
// empty means train.
func (c *Client) Registry(ctx context.Context, i int, phase string) (*RegistryResponse, error) {
	var query url.Values
	if phase != "" {
		query = url.Values{"phase": {phase}}
	}

	var resp RegistryResponse
	if err := c.do(ctx, "/api/registry/"+strconv.Itoa(i), query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Memory(ctx context.Context) (*MemoryResponse, error) {
	var resp MemoryResponse
	if err := c.do(ctx, "/api/memory", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
