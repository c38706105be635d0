package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxResponseBytes = 4 << 20

// HTTPClient invokes a remote executor service over HTTP.
//
// The service exposes POST {endpoint}/run accepting a RunRequest and
// returning a RunResult, both JSON. Transport failures and non-2xx
// responses are infrastructure errors; context deadline errors pass
// through untouched so the judge can classify them.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient constructs an executor client for the given endpoint.
// The http.Client's own timeout is left unset; per-run deadlines come
// from the caller's context.
func NewHTTPClient(endpoint string) (*HTTPClient, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("executor endpoint is required")
	}
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{},
	}, nil
}

// Run executes one test case on the remote executor.
func (c *HTTPClient) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return RunResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/run", bytes.NewReader(body))
	if err != nil {
		return RunResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return RunResult{}, ctxErr
		}
		return RunResult{}, fmt.Errorf("executor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RunResult{}, fmt.Errorf("executor returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return RunResult{}, fmt.Errorf("executor response read failed: %w", err)
	}

	var result RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return RunResult{}, fmt.Errorf("executor response decode failed: %w", err)
	}
	return result, nil
}
