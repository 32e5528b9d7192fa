// Package content holds the immutable unit of analysis and the normalizer that produces it.
package content

import (
	"time"
)

// Kind is the submission kind
type Kind string

// Kinds
const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool { return k == KindText || k == KindImage }

// Item is a normalized submission. Never mutated after Normalizer returns it
type Item struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Text         string    `json:"text,omitempty"`
	Image        *Image    `json:"image,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
	SourceHandle string    `json:"source_handle,omitempty"`
}

// Image describes an image submission
type Image struct {
	SHA256  string `json:"sha256"`
	Format  string `json:"format"`
	Size    int    `json:"size"`
	Overlay string `json:"overlay,omitempty"`
	// OverlayPartial is set when the OCR capability failed and overlay text may be missing
	OverlayPartial bool `json:"overlay_partial,omitempty"`

	Data []byte `json:"-"`
}

// AnalyzableText is the text the extractor reads: the body for text, the overlay for images
func (it Item) AnalyzableText() string {
	if it.Kind == KindImage && it.Image != nil {
		return it.Image.Overlay
	}
	return it.Text
}
