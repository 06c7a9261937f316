package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"

	"aihub/aiservice/internal/document"
)

func (l *Loader) loadUpload(ctx context.Context, location string) ([]document.Segment, error) {
	path, err := l.resolveUpload(location)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, document.NotFoundError("loader.upload", fmt.Sprintf("The file %s does not exist.", path))
		}
		return nil, document.LoadError("loader.upload", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	handler, ok := l.handlers[ext]
	if !ok {
		return nil, document.UnsupportedTypeError("loader.upload", fmt.Sprintf("Unsupported file type: %s", ext))
	}

	slog.DebugContext(ctx, "loading upload", "path", path, "ext", ext)
	segments, err := handler(ctx, path)
	if err != nil {
		return nil, document.LoadError("loader.upload", err)
	}
	return segments, nil
}

// resolveUpload maps a location onto the upload directory and refuses paths that
// escape it.
func (l *Loader) resolveUpload(location string) (string, error) {
	if strings.TrimSpace(location) == "" {
		return "", document.ValidationError("loader.upload", "source location is required")
	}
	base, err := filepath.Abs(l.uploadDir)
	if err != nil {
		return "", document.LoadError("loader.upload", err)
	}

	path := location
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", document.ValidationError("loader.upload", fmt.Sprintf("path %s is outside the upload directory", location))
	}
	return path, nil
}

func loadPlainText(_ context.Context, path string) ([]document.Segment, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is confined to the upload directory
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []document.Segment{{
		Text: string(data),
		Metadata: map[string]interface{}{
			document.KeySource: filepath.Base(path),
			document.KeyPage:   1,
		},
	}}, nil
}

// loadPDF emits one segment per page that has extractable text.
func loadPDF(ctx context.Context, path string) ([]document.Segment, error) {
	f, err := os.Open(path) // #nosec G304 -- path is confined to the upload directory
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	name := filepath.Base(path)
	var segments []document.Segment
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			slog.WarnContext(ctx, "failed to extract pdf page", "path", name, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		segments = append(segments, document.Segment{
			Text: content,
			Metadata: map[string]interface{}{
				document.KeySource: name,
				document.KeyPage:   i,
			},
		})
	}
	return segments, nil
}
