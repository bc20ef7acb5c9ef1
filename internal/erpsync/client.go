// Package erpsync triggers the job that copies the ERP product catalog into
// the storefront database.
package erpsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrSyncUnavailable wraps every failure to reach or complete the sync job.
var ErrSyncUnavailable = errors.New("error de conexión")

// Credentials are forwarded to the sync job, which talks to the ERP.
type Credentials struct {
	Host     string `json:"host"`
	DB       string `json:"db"`
	Username string `json:"user"`
	APIKey   string `json:"api_key"`
}

type Client struct {
	url    string
	creds  Credentials
	client *http.Client
}

func NewClient(url string, creds Credentials, client *http.Client) *Client {
	return &Client{
		url:    url,
		creds:  creds,
		client: client,
	}
}

type syncResult struct {
	Count int `json:"count"`
}

// Trigger runs one sync and returns the number of products it reported.
// It is not retried.
func (c *Client) Trigger(ctx context.Context) (int, error) {
	if c.url == "" {
		return 0, fmt.Errorf("%w: sync url not configured", ErrSyncUnavailable)
	}

	data, err := json.Marshal(c.creds)
	if err != nil {
		return 0, fmt.Errorf("marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: sync job returned status %d", ErrSyncUnavailable, resp.StatusCode)
	}

	var result syncResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("%w: decode sync result: %v", ErrSyncUnavailable, err)
	}

	return result.Count, nil
}
