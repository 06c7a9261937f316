package loader

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aihub/aiservice/internal/document"
	"aihub/aiservice/internal/httpclient"
)

const (
	SourceTypeUpload = "upload"
	SourceTypeURL    = "url"
)

// FileHandler parses one local file into ordered segments.
type FileHandler func(ctx context.Context, path string) ([]document.Segment, error)

type Loader struct {
	uploadDir string
	handlers  map[string]FileHandler
	client    *http.Client
	userAgent string
}

type Option func(*Loader)

func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithHandler registers (or replaces) the parser for a lowercase extension such as ".csv".
func WithHandler(ext string, h FileHandler) Option {
	return func(l *Loader) { l.handlers[ext] = h }
}

func New(uploadDir string, timeout time.Duration, opts ...Option) *Loader {
	l := &Loader{
		uploadDir: uploadDir,
		client:    httpclient.NewPooledClient(timeout),
		userAgent: "aiservice-loader/1.0",
		handlers: map[string]FileHandler{
			".pdf": loadPDF,
			".txt": loadPlainText,
			".md":  loadPlainText,
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load dispatches on the source type and returns the document's segments.
func (l *Loader) Load(ctx context.Context, sourceType, location string) ([]document.Segment, error) {
	switch sourceType {
	case SourceTypeUpload:
		return l.loadUpload(ctx, location)
	case SourceTypeURL:
		return l.loadURL(ctx, location)
	default:
		return nil, document.UnsupportedTypeError("loader.load", fmt.Sprintf("Unsupported source type: %s", sourceType))
	}
}
