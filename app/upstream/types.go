package upstream

import (
	"encoding/json"
	"time"

	"github.com/lysyi3m/intellinews/app/news"
)

type Route string

const (
	RouteTopStories     Route = "top-stories"
	RouteTopicSearch    Route = "topic-search"
	RouteTrendingTopics Route = "trending-topics"
	RouteArticles       Route = "articles"
	RouteStartup        Route = "startup"
)

type inshortsEnvelope[T any] struct {
	Data T `json:"data"`
}

type inshortsNews struct {
	HashID  string `json:"hash_id"`
	NewsObj struct {
		Title        string `json:"title"`
		Content      string `json:"content"`
		ImageURL     string `json:"image_url"`
		SourceURL    string `json:"source_url"`
		AuthorName   string `json:"author_name"`
		CreatedAt    int64  `json:"created_at"`
		ShortenedURL string `json:"shortened_url"`
		Category     string `json:"category"`
	} `json:"news_obj"`
}

type inshortsNewsList struct {
	NewsList  []inshortsNews `json:"news_list"`
	MinNewsID string         `json:"min_news_id"`
}

type inshortsTrending struct {
	TrendingTags []news.TrendingTopic `json:"trending_tags"`
}

type medialEnvelope struct {
	Data        []medialItem `json:"data"`
	NextSegment string       `json:"nextSegment"`
}

type medialItem struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type medialSource struct {
	Name         string `json:"name"`
	DisplayImage string `json:"displayImage"`
}

type medialArticle struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Slug           string       `json:"slug"`
	ImageURL       string       `json:"imageUrl"`
	SourceURL      string       `json:"sourceUrl"`
	PublishedAt    string       `json:"publishedAt"`
	Source         medialSource `json:"source"`
	BookmarksCount int          `json:"bookmarksCount"`
	LikesCount     int          `json:"likesCount"`
	ViewCount      int          `json:"viewCount"`
}

type startupNews struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	CuratedText string       `json:"curatedText"`
	ImageURL    string       `json:"imageUrl"`
	SourceURL   string       `json:"sourceUrl"`
	PublishedAt string       `json:"publishedAt"`
	Source      medialSource `json:"source"`
	LikesCount  int          `json:"likesCount"`
	ViewCount   int          `json:"viewCount"`
}

type startupQuiz struct {
	PromptText string            `json:"promptText"`
	Options    []news.QuizOption `json:"options"`
	Pick       int               `json:"pick"`
	ViewCount  int               `json:"viewCount"`
	LikesCount int               `json:"likesCount"`
	Link       *struct {
		URL      string `json:"url"`
		ImageURL string `json:"imageUrl"`
		Title    string `json:"title"`
	} `json:"link"`
}

func (n inshortsNews) toArticle() news.Article {
	obj := n.NewsObj
	article := news.Article{
		ID:        n.HashID,
		Title:     obj.Title,
		Summary:   obj.Content,
		ImageURL:  obj.ImageURL,
		SourceURL: obj.SourceURL,
		Author:    obj.AuthorName,
		Category:  obj.Category,
	}
	if article.SourceURL == "" {
		article.SourceURL = obj.ShortenedURL
	}
	if obj.CreatedAt > 0 {
		article.PublishedAt = time.UnixMilli(obj.CreatedAt)
	}
	return article
}

func (a medialArticle) toArticle(id string) news.Article {
	bookmarks, likes, views := a.BookmarksCount, a.LikesCount, a.ViewCount
	return news.Article{
		ID:            firstNonEmpty(a.ID, id),
		Title:         a.Title,
		ImageURL:      a.ImageURL,
		SourceURL:     a.SourceURL,
		Author:        a.Source.Name,
		PublishedAt:   parseTimestamp(a.PublishedAt),
		LikeCount:     &likes,
		BookmarkCount: &bookmarks,
		ViewCount:     &views,
	}
}

func (s startupNews) toArticle(id string) news.Article {
	likes, views := s.LikesCount, s.ViewCount
	return news.Article{
		ID:          firstNonEmpty(s.ID, id),
		Title:       s.Title,
		Summary:     s.CuratedText,
		ImageURL:    s.ImageURL,
		SourceURL:   s.SourceURL,
		Author:      s.Source.Name,
		PublishedAt: parseTimestamp(s.PublishedAt),
		LikeCount:   &likes,
		ViewCount:   &views,
	}
}

func (q startupQuiz) toQuiz(id string) news.QuizItem {
	quiz := news.QuizItem{
		ID:                 id,
		PromptText:         q.PromptText,
		Options:            q.Options,
		CorrectOptionIndex: q.Pick - 1,
		ViewCount:          q.ViewCount,
		LikeCount:          q.LikesCount,
	}
	if q.Link != nil && q.Link.URL != "" {
		quiz.RelatedLink = &news.RelatedLink{URL: q.Link.URL, Title: q.Link.Title, ImageURL: q.Link.ImageURL}
	}
	return quiz
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
