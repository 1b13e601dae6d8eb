// Package viaf wraps the VIAF AutoSuggest API used to attach name
// authority identifiers to people during import.
package viaf

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// NameTypePersonal is the suggestion nametype for personal names.
const NameTypePersonal = "personal"

// Client is a minimal VIAF API client.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds the VIAF client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a VIAF client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

// Suggestion is one AutoSuggest result.
type Suggestion struct {
	Term     string `json:"term"`
	ViafID   string `json:"viafid"`
	NameType string `json:"nametype"`
}

type suggestResponse struct {
	Result []Suggestion `json:"result"`
}

// Suggest queries AutoSuggest. An empty result is not an error.
func (c *Client) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	u := fmt.Sprintf("%s/viaf/AutoSuggest?query=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build viaf request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("viaf suggest: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("viaf suggest: unexpected status %d", resp.StatusCode)
	}

	var parsed suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode viaf response: %w", err)
	}
	return parsed.Result, nil
}

// URIFromID returns the canonical VIAF URI for an identifier.
func URIFromID(viafID string) string {
	return fmt.Sprintf("https://viaf.org/viaf/%s/", viafID)
}
