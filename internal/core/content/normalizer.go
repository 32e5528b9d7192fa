package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"satyanetra/internal/core/normalize"
	perr "satyanetra/internal/platform/errors"
	"satyanetra/internal/platform/logger"
)

// Default size limits
const (
	DefaultMaxTextBytes  = 20000
	DefaultMaxImageBytes = 10 << 20
)

// formats maps sniffed MIME types to the format names we accept
var formats = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// OCR extracts overlay text from an image
type OCR interface {
	Extract(ctx context.Context, data []byte, format string) (string, error)
}

// Limits bounds accepted payloads
type Limits struct {
	MaxTextBytes  int
	MaxImageBytes int
}

// Normalizer turns raw submissions into Items
type Normalizer struct {
	limits Limits
	ocr    OCR
	now    func() time.Time
	newID  func() string
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithOCR sets the overlay text capability
func WithOCR(o OCR) Option { return func(n *Normalizer) { n.ocr = o } }

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option { return func(n *Normalizer) { n.now = now } }

// WithIDs overrides id generation
func WithIDs(fn func() string) Option { return func(n *Normalizer) { n.newID = fn } }

// NewNormalizer builds a Normalizer; zero limits take the defaults
func NewNormalizer(l Limits, opts ...Option) *Normalizer {
	if l.MaxTextBytes <= 0 {
		l.MaxTextBytes = DefaultMaxTextBytes
	}
	if l.MaxImageBytes <= 0 {
		l.MaxImageBytes = DefaultMaxImageBytes
	}
	n := &Normalizer{
		limits: l,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Limits returns the effective limits
func (n *Normalizer) Limits() Limits { return n.limits }

// Text validates and canonicalizes a text submission
func (n *Normalizer) Text(raw, handle string) (Item, error) {
	if len(raw) > n.limits.MaxTextBytes {
		return Item{}, perr.WithField(perr.InvalidArgf("text exceeds %d bytes", n.limits.MaxTextBytes), "text")
	}
	text := normalize.Canonical(raw)
	if text == "" {
		return Item{}, perr.WithField(perr.InvalidArgf("text is empty"), "text")
	}
	return Item{
		ID:           n.newID(),
		Kind:         KindText,
		Text:         text,
		SubmittedAt:  n.now().UTC(),
		SourceHandle: strings.TrimSpace(handle),
	}, nil
}

// Image validates an image submission and resolves its overlay text.
// The format is sniffed from the bytes; declared is only checked for agreement when set.
func (n *Normalizer) Image(ctx context.Context, data []byte, overlay, declared, handle string) (Item, error) {
	if len(data) == 0 {
		return Item{}, perr.WithField(perr.InvalidArgf("image is empty"), "image")
	}
	if len(data) > n.limits.MaxImageBytes {
		return Item{}, perr.WithField(perr.InvalidArgf("image exceeds %d bytes", n.limits.MaxImageBytes), "image")
	}
	mime := http.DetectContentType(data)
	format, ok := formats[mime]
	if !ok {
		return Item{}, perr.WithField(perr.InvalidArgf("unsupported image format %q", mime), "image")
	}
	if declared != "" {
		d := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(declared)), "image/")
		if d == "jpg" {
			d = "jpeg"
		}
		if d != format {
			return Item{}, perr.WithField(perr.InvalidArgf("declared type %q does not match %s content", declared, format), "content_type")
		}
	}

	sum := sha256.Sum256(data)
	img := &Image{
		SHA256:  hex.EncodeToString(sum[:]),
		Format:  format,
		Size:    len(data),
		Overlay: normalize.Canonical(overlay),
		Data:    data,
	}
	if img.Overlay == "" && n.ocr != nil {
		text, err := n.ocr.Extract(ctx, data, format)
		if err != nil {
			logger.C(ctx).Warn().Err(err).Str("sha256", img.SHA256).Msg("ocr failed; continuing without overlay text")
			img.OverlayPartial = true
		} else {
			img.Overlay = normalize.Canonical(text)
		}
	}

	return Item{
		ID:           n.newID(),
		Kind:         KindImage,
		Image:        img,
		SubmittedAt:  n.now().UTC(),
		SourceHandle: strings.TrimSpace(handle),
	}, nil
}
