package domain

import "time"

// Annotation is a free-text note anchored to a region of a digitized
// page image.
type Annotation struct {
	ID        string // uuid
	Text      string
	Quote     string // anchor text transcribed from the page
	URI       string // target page (canvas) URI
	CanvasURI string // resolved canvas; kept consistent with URI on save
	AuthorID  int64  // 0 = unattributed
	ExtraData map[string]any
	Created   time.Time
	Updated   time.Time
}

// IndexID returns the stable search index identifier for the annotation.
func (a *Annotation) IndexID() string {
	return string(KindAnnotation) + ":" + a.ID
}

// TargetURI returns the canvas the annotation is anchored to, falling
// back to the raw target when no canvas has been resolved yet.
func (a *Annotation) TargetURI() string {
	if a.CanvasURI != "" {
		return a.CanvasURI
	}
	return a.URI
}

// ImageSelection is the percent-based page region an annotation anchors to.
type ImageSelection struct {
	X float64
	Y float64
	W float64
	H float64
}

// Tag is a controlled-vocabulary label for annotation characteristics.
type Tag struct {
	ID    int64
	Name  string
	Notes string
}

// AnnotationTag links an annotation to a vocabulary tag.
// Natural key: (annotation, tag).
type AnnotationTag struct {
	AnnotationID string
	TagID        int64
	Notes        string
}

// AnnotationLanguage links an annotation to a language, flagged for
// whether the annotation itself or its anchor text is in that language.
// Natural key: (annotation, language, flags).
type AnnotationLanguage struct {
	AnnotationID     string
	LanguageID       int64
	IsAnnotationLang bool
	IsAnchorLang     bool
	Notes            string
}

// AnnotationSubject links an annotation to a subject.
// Natural key: (annotation, subject).
type AnnotationSubject struct {
	AnnotationID string
	SubjectID    int64
	IsPrimary    bool
	Notes        string
}
