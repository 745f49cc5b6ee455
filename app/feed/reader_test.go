package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articlePage = `<!DOCTYPE html>
<html>
<head>
  <title>Fallback title</title>
  <meta property="og:title" content="Startup Raises Seed Round">
</head>
<body>
  <nav><a href="/">Home</a> <a href="/about">About</a></nav>
  <article>
    <h1>Startup Raises Seed Round</h1>
    <p>A small team building tools for farmers has raised a seed round from a group of regional investors, the company said on Monday.</p>
    <p>The founders plan to use the money to hire engineers and expand to three new districts before the end of the year, according to the announcement.</p>
    <p>Investors said they were drawn by the company's early traction with cooperatives and its focus on offline-first mobile software for rural areas.</p>
  </article>
  <footer>Copyright</footer>
</body>
</html>`

func TestReaderExtractsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articlePage))
	}))
	defer server.Close()

	doc, err := NewReader(http.DefaultClient, "IntelliNews/test").Run(context.Background(), server.URL+"/story")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if doc.Title != "Startup Raises Seed Round" {
		t.Errorf("Expected og:title, got '%s'", doc.Title)
	}
	if !strings.Contains(doc.Text, "seed round from a group of regional investors") {
		t.Errorf("Expected article text, got '%s'", doc.Text)
	}
	if strings.Contains(doc.Text, "\n\n") {
		t.Error("Expected blank lines to be collapsed")
	}
}

func TestReaderRejectsInvalidURL(t *testing.T) {
	reader := NewReader(http.DefaultClient, "IntelliNews/test")

	for _, rawURL := range []string{"", "ftp://example.com/file", "/relative/path", "https://"} {
		if _, err := reader.Run(context.Background(), rawURL); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Expected ErrInvalidURL for %q, got %v", rawURL, err)
		}
	}
}

func TestReaderUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewReader(http.DefaultClient, "IntelliNews/test").Run(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Errorf("Expected FetchError, got %v", err)
	}
}

func TestSpeechText(t *testing.T) {
	got := speechText("  First   line \n\n\n second line\t\n")
	if got != "First line\nsecond line" {
		t.Errorf("Expected collapsed text, got %q", got)
	}
}
