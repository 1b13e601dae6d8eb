package domain

import "fmt"

// DigitalEdition is a cached IIIF manifest for a digitized book.
type DigitalEdition struct {
	URI      string
	ShortID  string
	Label    string
	Metadata map[string][]string
}

// Canvas is a single digitized page image within a digital edition.
type Canvas struct {
	URI         string
	ShortID     string
	Label       string
	ManifestURI string
	Order       int
	ImageURI    string // IIIF image service base URI
}

// Thumbnail returns a IIIF Image API URL for a small rendition of the
// full canvas, constrained to the given width.
func (c *Canvas) Thumbnail(width int) string {
	if c.ImageURI == "" {
		return ""
	}
	return fmt.Sprintf("%s/full/%d,/0/default.jpg", c.ImageURI, width)
}

// RegionThumbnail returns a IIIF Image API URL for a percent-based
// region of the canvas (used for annotation highlight previews).
func (c *Canvas) RegionThumbnail(x, y, w, h float64, width int) string {
	if c.ImageURI == "" {
		return ""
	}
	return fmt.Sprintf("%s/pct:%g,%g,%g,%g/%d,/0/default.jpg", c.ImageURI, x, y, w, h, width)
}
