package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
)

const (
	maxPageBytes   = 5 << 20
	maxSpeechRunes = 5000
)

// Reader extracts the readable text of an article page, used as input for
// text-to-speech playback.
type Reader struct {
	httpClient *http.Client
	userAgent  string
}

func NewReader(httpClient *http.Client, userAgent string) *Reader {
	return &Reader{httpClient: httpClient, userAgent: userAgent}
}

func (r *Reader) Run(ctx context.Context, rawURL string) (*Document, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") || pageURL.Host == "" {
		return nil, ErrInvalidURL
	}

	body, err := fetch(ctx, r.httpClient, pageURL.String(), r.userAgent, "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return extract(data, pageURL)
}

func extract(data []byte, pageURL *url.URL) (*Document, error) {
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoContent, err)
	}

	var textBuf strings.Builder
	if err := article.RenderText(&textBuf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoContent, err)
	}

	text := speechText(textBuf.String())
	if text == "" {
		return nil, ErrNoContent
	}

	doc := &Document{
		URL:   pageURL.String(),
		Title: pageTitle(data),
		Text:  text,
	}

	slog.Debug("Content extracted successfully", "url", doc.URL, "title", doc.Title, "text_length", len(doc.Text))
	return doc, nil
}

func pageTitle(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	ogTitle, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
	return strings.TrimSpace(cmp.Or(ogTitle, doc.Find("title").First().Text()))
}

// speechText keeps non-empty lines with collapsed whitespace and caps the
// length.
func speechText(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return truncate(strings.Join(lines, "\n"), maxSpeechRunes)
}
