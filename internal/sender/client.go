// Package sender registers outgoing emails with the tracking API, injects
// tracking resources into their bodies and submits them for delivery.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/open-tracker/internal/tracker"
)

// Client calls the tracking API's registration endpoint
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a registration client for the given tracking API base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type registerPayload struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Register registers an email before sending and returns the tracking URLs
// to embed in its body.
func (c *Client) Register(ctx context.Context, recipient, subject string) (*tracker.RegisterResult, error) {
	body, err := json.Marshal(registerPayload{Recipient: recipient, Subject: subject})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/register", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("register request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var eb errorBody
		if json.NewDecoder(resp.Body).Decode(&eb) == nil && eb.Error != "" {
			return nil, fmt.Errorf("register failed (%d): %s", resp.StatusCode, eb.Error)
		}
		return nil, fmt.Errorf("register failed: status %d", resp.StatusCode)
	}

	var res tracker.RegisterResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode register response: %w", err)
	}
	return &res, nil
}
