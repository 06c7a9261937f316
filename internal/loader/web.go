package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"aihub/aiservice/internal/document"
)

const maxPageBytes = 10 << 20

func (l *Loader) loadURL(ctx context.Context, location string) ([]document.Segment, error) {
	u, err := url.Parse(location)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, document.LoadError("loader.url", fmt.Errorf("invalid url %q", location))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, document.LoadError("loader.url", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, document.LoadError("loader.url", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, document.LoadError("loader.url", fmt.Errorf("fetch %s: status %d", location, resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, document.LoadError("loader.url", fmt.Errorf("parse %s: %w", location, err))
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	lang, _ := doc.Find("html").Attr("lang")

	text := ExtractText(doc)
	if text == "" {
		return nil, nil
	}

	meta := map[string]interface{}{document.KeySource: location}
	if title != "" {
		meta[document.KeyTitle] = title
	}
	if lang != "" {
		meta[document.KeyLanguage] = lang
	}
	return []document.Segment{{Text: text, Metadata: meta}}, nil
}

// ExtractText strips non-content elements and returns the readable text with one
// block element per paragraph.
func ExtractText(doc *goquery.Document) string {
	doc.Find("head, script, style, noscript, template, nav, header, footer, aside, iframe, svg, form").Remove()

	var blocks []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td").Each(func(_ int, s *goquery.Selection) {
		// nested blocks are visited on their own
		if s.Find("p, li, pre, blockquote").Length() > 0 {
			return
		}
		if t := normalizeWhitespace(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})

	if len(blocks) == 0 {
		return normalizeWhitespace(doc.Find("body").Text())
	}
	return strings.Join(blocks, "\n\n")
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
