// Package executor holds the HTTP clients for the remote collaborators:
// the step executor that interprets node graphs and the media endpoint
// that stores uploaded files.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/appforge/canvasflow/model"
)

// StepExecutor runs a whole node graph remotely in one call.
type StepExecutor interface {
	Submit(ctx context.Context, req model.ExecutorRequest) (*model.ExecutorResponse, error)
}

// Client is the HTTP StepExecutor. A non-2xx response is an error; the
// engine treats it as fatal for the invocation and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ StepExecutor = new(Client)

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *Client) Submit(ctx context.Context, req model.ExecutorRequest) (*model.ExecutorResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("step executor returned status %d", resp.StatusCode)
	}
	var out model.ExecutorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding executor response: %w", err)
	}
	return &out, nil
}
