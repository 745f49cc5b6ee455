package feed

import (
	"fmt"
	"log/slog"
	"strings"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops the items rejected by the feed's filters and keeps the order of
// the rest.
func (f *Filterer) Run(items []Item, feedConfig *Config) []Item {
	if len(feedConfig.Filters) == 0 {
		return items
	}

	kept := make([]Item, 0, len(items))
	for _, item := range items {
		if reason := f.FilterReason(item, feedConfig.Filters); reason != "" {
			slog.Debug("Item filtered", "feed", feedConfig.Name, "title", item.Title, "reason", reason)
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// FilterReason explains why an item is rejected, or returns "" when it passes.
// Excludes win over includes.
func (f *Filterer) FilterReason(item Item, filters []ConfigFilter) string {
	for _, filter := range filters {
		value := fieldValue(item, filter.Field)

		for _, exclude := range filter.Excludes {
			if matches(value, exclude) {
				return fmt.Sprintf("excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) == 0 {
			continue
		}
		matched := false
		for _, include := range filter.Includes {
			if matches(value, include) {
				matched = true
				break
			}
		}
		if !matched {
			return fmt.Sprintf("excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
		}
	}

	return ""
}

func matches(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func fieldValue(item Item, field string) string {
	switch field {
	case "title":
		return item.Title
	case "summary":
		return item.Summary
	case "content":
		return item.Content
	case "authors":
		return strings.Join(item.Authors, " ")
	case "link":
		return item.Link
	case "categories":
		return strings.Join(item.Categories, " ")
	default:
		return ""
	}
}
