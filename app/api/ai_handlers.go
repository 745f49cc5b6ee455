package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/intellinews/app/genai"
	"github.com/lysyi3m/intellinews/app/news"
)

func (h *Handler) PostTopicNews(c *gin.Context) {
	var req topicNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	articles, err := h.generator.GenerateTopicNews(c.Request.Context(), genai.TopicNewsInput{
		Topic:    req.Topic,
		Count:    req.NumberOfArticles,
		Language: news.ParseLanguage(req.Language),
	})
	if err != nil {
		slog.Warn("Topic news generation failed", "topic", req.Topic, "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": h.rewriteArticles(articles),
		"status":   news.StatusSuccess,
	})
}

func (h *Handler) PostSuggestedNews(c *gin.Context) {
	var req suggestedNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	articles, err := h.generator.GenerateSuggestedNews(c.Request.Context(), genai.SuggestedNewsInput{
		ReadingHistory: req.ReadingHistory,
		Count:          req.NumberOfArticles,
		Language:       news.ParseLanguage(req.Language),
	})
	if err != nil {
		slog.Warn("Suggested news generation failed", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": h.rewriteArticles(articles),
		"status":   news.StatusSuccess,
	})
}

func (h *Handler) PostSuggestedTopics(c *gin.Context) {
	var req suggestedTopicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	topics, err := h.generator.SuggestTopics(c.Request.Context(), genai.TopicsInput{
		ReadingHistory: req.ReadingHistory,
		Count:          req.NumberOfTopics,
		Language:       news.ParseLanguage(req.Language),
	})
	if err != nil {
		slog.Warn("Topic suggestion failed", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"topics": topics,
		"status": news.StatusSuccess,
	})
}

func (h *Handler) rewriteArticles(articles []news.Article) []news.Article {
	out := make([]news.Article, 0, len(articles))
	for _, article := range articles {
		if h.siteName != "" && article.SourceURL != "" {
			article.SourceURL = news.RewriteSourceURL(article.SourceURL, h.siteName)
		}
		out = append(out, article)
	}
	return out
}
