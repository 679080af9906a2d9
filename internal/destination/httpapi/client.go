// Package httpapi publishes posts through a social publishing gateway that
// exposes one JSON endpoint per destination.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"autoshare/internal/domain"
	"autoshare/internal/fanout"
)

type Config struct {
	BaseURL string
	APIKey  string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func New(httpClient *http.Client, cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     logger.With("component", "destination"),
	}
}

type postRequest struct {
	Caption  string `json:"caption"`
	MediaURL string `json:"media_url,omitempty"`
	Profile  string `json:"profile,omitempty"`
}

type postResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Publish posts content to dest on behalf of the profile named by authRef.
func (c *Client) Publish(ctx context.Context, dest domain.Destination, content fanout.Content, authRef string) (fanout.Result, error) {
	body, err := json.Marshal(postRequest{
		Caption:  content.Caption,
		MediaURL: content.MediaURL,
		Profile:  authRef,
	})
	if err != nil {
		return fanout.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/destinations/%s/posts", c.baseURL, url.PathEscape(dest.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fanout.Result{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fanout.Result{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fanout.Result{}, fmt.Errorf("read response: %w", err)
	}

	var parsed postResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil && resp.StatusCode < 300 {
			return fanout.Result{}, fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := parsed.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return fanout.Result{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}

	c.logger.Debug("post created", "destination", dest, "external_ref", parsed.ID)

	return fanout.Result{ExternalRef: parsed.ID, ExternalURL: parsed.URL}, nil
}
