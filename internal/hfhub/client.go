// Package hfhub verifies Hugging Face Hub credentials.
package hfhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the public Hub.
const DefaultEndpoint = "https://huggingface.co"

// ErrEmptyToken is returned by Login when no token is supplied.
var ErrEmptyToken = errors.New("hf token is empty")

// Client authenticates tokens against the Hub whoami endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New returns a Client for endpoint (DefaultEndpoint when blank). A nil
// httpClient gets a 15s timeout client.
func New(endpoint string, httpClient *http.Client) *Client {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

type whoamiResponse struct {
	Name string `json:"name"`
	Auth struct {
		AccessToken struct {
			DisplayName string `json:"displayName"`
			Role        string `json:"role"`
		} `json:"accessToken"`
	} `json:"auth"`
}

// Login checks token and returns the account name it belongs to.
func (c *Client) Login(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyToken
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/whoami-v2", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("hf whoami: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := strings.TrimSpace(string(b))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("hf whoami failed with status %d: %s", resp.StatusCode, msg)
	}
	var out whoamiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode whoami response: %w", err)
	}
	return out.Name, nil
}
