package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"staybook/pkg/middleware"
)

// Caller is the identity forwarded by the gateway in front of the service.
type Caller struct {
	Email string
	Name  string
	Role  middleware.Role
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type Response struct {
	*http.Response
	Body []byte
}

// DecodeData unwraps the {"data": ...} envelope into target.
func (r *Response) DecodeData(t *testing.T, target any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: target}
	if err := json.Unmarshal(r.Body, &envelope); err != nil {
		t.Fatalf("failed to decode response %s: %v", string(r.Body), err)
	}
}

func (c *Client) GET(t *testing.T, path string, caller Caller) *Response {
	t.Helper()
	return c.request(t, http.MethodGet, path, nil, caller)
}

func (c *Client) POST(t *testing.T, path string, body any, caller Caller) *Response {
	t.Helper()
	return c.request(t, http.MethodPost, path, body, caller)
}

func (c *Client) PUT(t *testing.T, path string, body any, caller Caller) *Response {
	t.Helper()
	return c.request(t, http.MethodPut, path, body, caller)
}

func (c *Client) request(t *testing.T, method, path string, body any, caller Caller) *Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller.Email != "" {
		req.Header.Set(middleware.HeaderUserEmail, caller.Email)
		req.Header.Set(middleware.HeaderUserName, caller.Name)
		req.Header.Set(middleware.HeaderUserRole, string(caller.Role))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	return &Response{Response: resp, Body: respBody}
}

// WaitForHealthy polls the health endpoint until the service answers.
func (c *Client) WaitForHealthy(t *testing.T, maxWait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		resp, err := c.HTTPClient.Get(c.BaseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		<-ticker.C
	}

	t.Fatalf("service did not become healthy within %v", maxWait)
}

func AssertStatusCode(t *testing.T, resp *Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, resp.StatusCode, string(resp.Body))
	}
}
