// Package news holds the uniform content model every upstream response is
// reshaped into before it reaches a feed.
package news

import "time"

type ItemKind string

const (
	KindNews ItemKind = "NEWS"
	KindQuiz ItemKind = "QUIZ"
)

type Article struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	SourceURL     string    `json:"sourceUrl,omitempty"`
	Author        string    `json:"author,omitempty"`
	PublishedAt   time.Time `json:"publishedAt"`
	Category      string    `json:"category,omitempty"`
	LikeCount     *int      `json:"likeCount,omitempty"`
	BookmarkCount *int      `json:"bookmarkCount,omitempty"`
	ViewCount     *int      `json:"viewCount,omitempty"`
}

type QuizOption struct {
	Text           string `json:"text"`
	SelectionCount int    `json:"selectionCount"`
}

type RelatedLink struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type QuizItem struct {
	ID                 string       `json:"id"`
	PromptText         string       `json:"promptText"`
	Options            []QuizOption `json:"options"`
	CorrectOptionIndex int          `json:"correctOptionIndex"`
	ViewCount          int          `json:"viewCount"`
	LikeCount          int          `json:"likeCount"`
	RelatedLink        *RelatedLink `json:"relatedLink,omitempty"`

	selected *int
}

// FeedItem is a tagged variant: exactly one of Article or Quiz is set, as
// indicated by Kind.
type FeedItem struct {
	Kind    ItemKind  `json:"type"`
	ID      string    `json:"id"`
	Article *Article  `json:"article,omitempty"`
	Quiz    *QuizItem `json:"quiz,omitempty"`
}

func NewsItem(a Article) FeedItem {
	return FeedItem{Kind: KindNews, ID: a.ID, Article: &a}
}

func QuizFeedItem(q QuizItem) FeedItem {
	return FeedItem{Kind: KindQuiz, ID: q.ID, Quiz: &q}
}

type TrendingTopic struct {
	Tag   string `json:"tag"`
	Label string `json:"label"`
}

// FeedPage is the normalised envelope returned for every paginated route.
// NextCursor is empty when the upstream did not issue one.
type FeedPage struct {
	Items      []FeedItem `json:"data"`
	NextCursor string     `json:"nextCursor,omitempty"`
	HasMore    bool       `json:"hasNextPage"`
	Status     string     `json:"status"`
}

const StatusSuccess = "success"

// Articles returns the article payloads of every NEWS item in order.
func (p FeedPage) Articles() []Article {
	articles := make([]Article, 0, len(p.Items))
	for _, item := range p.Items {
		if item.Kind == KindNews && item.Article != nil {
			articles = append(articles, *item.Article)
		}
	}
	return articles
}
