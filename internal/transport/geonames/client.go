// Package geonames wraps the GeoNames search API used to resolve
// publication place names during import.
package geonames

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Client is a minimal GeoNames API client.
type Client struct {
	baseURL  string
	username string
	http     *http.Client
	logger   *zap.Logger
}

// Config holds the GeoNames client settings.
type Config struct {
	BaseURL  string
	Username string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewClient creates a GeoNames client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		username: cfg.Username,
		http:     &http.Client{Timeout: timeout},
		logger:   cfg.Logger,
	}
}

// Place is one searchJSON result. Coordinates arrive as strings.
type Place struct {
	GeoNameID int64  `json:"geonameId"`
	Name      string `json:"name"`
	Lat       string `json:"lat"`
	Lng       string `json:"lng"`
}

// Latitude parses the latitude, zero when absent or malformed.
func (p *Place) Latitude() float64 {
	v, _ := strconv.ParseFloat(p.Lat, 64)
	return v
}

// Longitude parses the longitude, zero when absent or malformed.
func (p *Place) Longitude() float64 {
	v, _ := strconv.ParseFloat(p.Lng, 64)
	return v
}

type searchResponse struct {
	Geonames []Place `json:"geonames"`
}

// Search queries searchJSON by name. maxRows of 0 leaves the row limit
// to the API default.
func (c *Client) Search(ctx context.Context, name string, maxRows int) ([]Place, error) {
	params := url.Values{}
	params.Set("username", c.username)
	params.Set("name", name)
	if maxRows > 0 {
		params.Set("maxRows", strconv.Itoa(maxRows))
	}

	u := fmt.Sprintf("%s/searchJSON?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build geonames request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geonames search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geonames search: unexpected status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode geonames response: %w", err)
	}
	return parsed.Geonames, nil
}

// URIFromID returns the canonical GeoNames URI for an identifier.
func URIFromID(geonamesID int64) string {
	return fmt.Sprintf("http://sws.geonames.org/%d/", geonamesID)
}
