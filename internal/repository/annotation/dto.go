package annotation

import (
	"time"

	"github.com/winthrop-cdh/catalog/internal/domain"
)

// annotationDoc is the JSON document stored per annotation.
type annotationDoc struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Quote     string         `json:"quote,omitempty"`
	URI       string         `json:"uri"`
	CanvasURI string         `json:"canvas_uri,omitempty"`
	AuthorID  int64          `json:"author_id,omitempty"`
	ExtraData map[string]any `json:"extra_data,omitempty"`
	Created   time.Time      `json:"created"`
	Updated   time.Time      `json:"updated"`
}

func docFromAnnotation(a *domain.Annotation) *annotationDoc {
	return &annotationDoc{
		ID:        a.ID,
		Text:      a.Text,
		Quote:     a.Quote,
		URI:       a.URI,
		CanvasURI: a.CanvasURI,
		AuthorID:  a.AuthorID,
		ExtraData: a.ExtraData,
		Created:   a.Created,
		Updated:   a.Updated,
	}
}

func (d *annotationDoc) toAnnotation() *domain.Annotation {
	return &domain.Annotation{
		ID:        d.ID,
		Text:      d.Text,
		Quote:     d.Quote,
		URI:       d.URI,
		CanvasURI: d.CanvasURI,
		AuthorID:  d.AuthorID,
		ExtraData: d.ExtraData,
		Created:   d.Created,
		Updated:   d.Updated,
	}
}
