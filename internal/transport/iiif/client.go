// Package iiif fetches and parses IIIF Presentation manifests and
// collections for the digital edition import.
package iiif

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// Client fetches IIIF Presentation 2.x documents.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

// Config holds the IIIF client settings.
type Config struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates an IIIF client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		logger: cfg.Logger,
	}
}

// Bundle is one parsed manifest with its canvases in reading order.
type Bundle struct {
	Edition  *domain.DigitalEdition
	Canvases []*domain.Canvas
}

// Fetch retrieves the document at uri and returns one bundle per
// manifest. A collection document expands to each of its manifests.
func (c *Client) Fetch(ctx context.Context, uri string) ([]Bundle, error) {
	doc, err := c.get(ctx, uri)
	if err != nil {
		return nil, err
	}

	if doc.isCollection() {
		bundles := make([]Bundle, 0, len(doc.Manifests))
		for _, ref := range doc.Manifests {
			m, err := c.get(ctx, ref.ID)
			if err != nil {
				return nil, fmt.Errorf("manifest %s: %w", ref.ID, err)
			}
			bundles = append(bundles, m.bundle())
		}
		return bundles, nil
	}
	return []Bundle{doc.bundle()}, nil
}

func (c *Client) get(ctx context.Context, uri string) (*document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build iiif request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", uri, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", uri, resp.StatusCode)
	}

	var doc document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", uri, err)
	}
	return &doc, nil
}

// document covers the subset of IIIF Presentation 2.x consumed here,
// for both collections and manifests.
type document struct {
	ID        string          `json:"@id"`
	Type      string          `json:"@type"`
	Label     label           `json:"label"`
	Metadata  []metadataEntry `json:"metadata"`
	Manifests []manifestRef   `json:"manifests"`
	Sequences []sequence      `json:"sequences"`
}

type manifestRef struct {
	ID string `json:"@id"`
}

type sequence struct {
	Canvases []canvas `json:"canvases"`
}

type canvas struct {
	ID     string  `json:"@id"`
	Label  label   `json:"label"`
	Images []image `json:"images"`
}

type image struct {
	Resource struct {
		Service struct {
			ID string `json:"@id"`
		} `json:"service"`
	} `json:"resource"`
}

type metadataEntry struct {
	Label string `json:"label"`
	Value values `json:"value"`
}

func (d *document) isCollection() bool {
	return strings.HasSuffix(d.Type, "Collection") || len(d.Manifests) > 0
}

func (d *document) bundle() Bundle {
	ed := &domain.DigitalEdition{
		URI:      d.ID,
		ShortID:  shortID(d.ID),
		Label:    string(d.Label),
		Metadata: make(map[string][]string, len(d.Metadata)),
	}
	for _, m := range d.Metadata {
		ed.Metadata[m.Label] = append(ed.Metadata[m.Label], m.Value...)
	}

	var canvases []*domain.Canvas
	for _, seq := range d.Sequences {
		for i, cv := range seq.Canvases {
			out := &domain.Canvas{
				URI:         cv.ID,
				ShortID:     shortID(cv.ID),
				Label:       string(cv.Label),
				ManifestURI: d.ID,
				Order:       i,
			}
			if len(cv.Images) > 0 {
				out.ImageURI = cv.Images[0].Resource.Service.ID
			}
			canvases = append(canvases, out)
		}
		break // first sequence carries the reading order
	}
	return Bundle{Edition: ed, Canvases: canvases}
}

// shortID takes the last meaningful path segment of a IIIF URI,
// skipping a trailing /manifest.
func shortID(uri string) string {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(uri, "/"), "/manifest")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// label is a IIIF label that may arrive as a string or a list.
type label string

func (l *label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = label(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil && len(list) > 0 {
		*l = label(list[0])
		return nil
	}
	return nil // ignore language maps and other 3.x shapes
}

// values is a IIIF metadata value that may arrive as a string or list.
type values []string

func (v *values) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = values{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = values(list)
		return nil
	}
	return nil
}
