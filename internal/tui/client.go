package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fentz26/taskmaster/internal/controlplane"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to a running TaskMaster daemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// ListTasks fetches every task.
func (c *Client) ListTasks() ([]controlplane.TaskView, error) {
	var views []controlplane.TaskView
	if err := c.do(context.Background(), http.MethodGet, "/tasks", &views); err != nil {
		return nil, err
	}
	return views, nil
}

// SearchTasks fetches tasks whose name contains q.
func (c *Client) SearchTasks(q string) ([]controlplane.TaskView, error) {
	var views []controlplane.TaskView
	if err := c.do(context.Background(), http.MethodGet, "/tasks/search?q="+url.QueryEscape(q), &views); err != nil {
		return nil, err
	}
	return views, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(id string) error {
	return c.do(context.Background(), http.MethodDelete, "/tasks/"+url.PathEscape(id), nil)
}

// Process asks the daemon to run a pass now.
func (c *Client) Process(ctx context.Context) (*controlplane.PassReport, error) {
	var report controlplane.PassReport
	if err := c.do(ctx, http.MethodPost, "/process", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// CheckHealth checks if the daemon is healthy
func (c *Client) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var health controlplane.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false, err
	}

	return health.OK, nil
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("API error: %s", apiErr.Error)
		}
		return fmt.Errorf("API error: %s", string(body))
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
