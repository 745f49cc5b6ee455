package feed

import (
	"time"
)

type Item struct {
	ID          string
	GUID        string
	Title       string
	Link        string
	Summary     string
	Content     string
	ImageURL    string
	PublishedAt time.Time
	Authors     []string
	Categories  []string
}

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Title    string         `yaml:"title"`
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled  bool `yaml:"enabled"`
	MaxItems int  `yaml:"max_items"`
	Timeout  int  `yaml:"timeout"` // seconds
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// Document is the readable text of a web page.
type Document struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}
