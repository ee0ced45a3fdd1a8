package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/leapstack-labs/queryconsole/pkg/core"
)

// Path is where the server is mounted.
const Path = "/json-rpc"

// Client calls a remote console backend.
type Client struct {
	endpoint string
	http     *http.Client
	nextID   atomic.Int64
}

// NewClient creates a client for the console at baseURL. A baseURL that
// does not already end in the JSON-RPC path gets it appended.
// If httpClient is nil, http.DefaultClient is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(endpoint, Path) {
		endpoint += Path
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Call invokes method and decodes its result into result (which may be nil).
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	req := Request{
		JSONRPC: Version,
		Method:  method,
		ID:      json.RawMessage(strconv.FormatInt(c.nextID.Add(1), 10)),
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to encode params: %w", err)
		}
		req.Params = raw
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s failed: unexpected status %s", method, httpResp.Status)
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// GetInfo fetches the persistence unit catalog.
func (c *Client) GetInfo(ctx context.Context) (*core.DevInfo, error) {
	var info core.DevInfo
	if err := c.Call(ctx, MethodGetInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ExecuteQuery runs one page of a query remotely. Query failures arrive as
// error data sets; the error return covers transport and protocol failures.
func (c *Client) ExecuteQuery(ctx context.Context, req core.QueryRequest) (*core.DataSet, error) {
	var ds core.DataSet
	if err := c.Call(ctx, MethodExecuteQuery, req, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// UpdateProperty sets a backend-held property.
func (c *Client) UpdateProperty(ctx context.Context, name, value string) error {
	return c.Call(ctx, MethodUpdateProperty, UpdatePropertyParams{Name: name, Value: value}, nil)
}

// AllowQueries reports whether the backend starts consoles with queries enabled.
func (c *Client) AllowQueries(ctx context.Context) (bool, error) {
	var allowed bool
	err := c.Call(ctx, MethodGetAllowQueries, nil, &allowed)
	return allowed, err
}
