package feed

import (
	"cmp"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

const maxSummaryRunes = 400

type Parser struct {
	gofeedParser *gofeed.Parser
	policy       *bluemonday.Policy
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		policy:       bluemonday.StrictPolicy(),
	}
}

// Run parses an RSS, Atom or JSON feed into plain-text items.
func (p *Parser) Run(r io.Reader) ([]Item, error) {
	parsed, err := p.gofeedParser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item))
	}
	return items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	guid := cmp.Or(item.GUID, item.Link, item.Title)

	normalized := Item{
		ID:         uuid.NewSHA1(uuid.NameSpaceURL, []byte(guid)).String(),
		GUID:       guid,
		Title:      strings.TrimSpace(p.plainText(item.Title)),
		Link:       item.Link,
		Content:    item.Content,
		Summary:    truncate(p.plainText(cmp.Or(item.Description, item.Content)), maxSummaryRunes),
		ImageURL:   p.imageURL(item),
		Authors:    extractAuthors(item),
		Categories: item.Categories,
	}

	switch {
	case item.PublishedParsed != nil:
		normalized.PublishedAt = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		normalized.PublishedAt = *item.UpdatedParsed
	}

	return normalized
}

// plainText strips markup and collapses whitespace.
func (p *Parser) plainText(value string) string {
	text := html.UnescapeString(p.policy.Sanitize(value))
	return strings.Join(strings.Fields(text), " ")
}

// imageURL prefers the feed's own image fields and falls back to the first
// <img> of the item's HTML.
func (p *Parser) imageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}
	for _, markup := range []string{item.Content, item.Description} {
		if !strings.Contains(markup, "<img") {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
		if err != nil {
			continue
		}
		if src, ok := doc.Find("img[src]").First().Attr("src"); ok && src != "" {
			return src
		}
	}
	return ""
}

func extractAuthors(item *gofeed.Item) []string {
	var authors []string
	for _, author := range item.Authors {
		if author == nil {
			continue
		}
		if name := cmp.Or(strings.TrimSpace(author.Name), strings.TrimSpace(author.Email)); name != "" {
			authors = append(authors, name)
		}
	}
	if len(authors) == 0 && item.Author != nil {
		if name := cmp.Or(strings.TrimSpace(item.Author.Name), strings.TrimSpace(item.Author.Email)); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
