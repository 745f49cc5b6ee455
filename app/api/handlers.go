package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/intellinews/app/cfg"
	"github.com/lysyi3m/intellinews/app/news"
	"github.com/lysyi3m/intellinews/app/tasks"
	"github.com/lysyi3m/intellinews/app/upstream"
)

func NewHandler(proxy NewsProxyInterface, generator GeneratorInterface, feeds FeedSourceInterface,
	reader ReaderInterface, scheduler tasks.TaskSchedulerInterface, siteName string) *Handler {
	return &Handler{
		proxy:     proxy,
		generator: generator,
		feeds:     feeds,
		reader:    reader,
		scheduler: scheduler,
		siteName:  siteName,
	}
}

func (h *Handler) GetTopStories(c *gin.Context) {
	lang := news.ParseLanguage(c.Query("lang"))

	page, err := h.proxy.TopStories(c.Request.Context(), lang, c.Query("cursor"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.rewritePage(page))
}

func (h *Handler) GetTopicSearch(c *gin.Context) {
	tag := c.Param("tag")
	lang := news.ParseLanguage(c.Query("lang"))

	pageNumber, err := parsePage(c.Query("page"))
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.proxy.TopicSearch(c.Request.Context(), lang, tag, pageNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.rewritePage(page))
}

func (h *Handler) GetTrendingTopics(c *gin.Context) {
	lang := news.ParseLanguage(c.Query("lang"))

	topics, err := h.proxy.TrendingTopics(c.Request.Context(), lang)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"topics": topics,
		"status": news.StatusSuccess,
	})
}

func (h *Handler) GetArticles(c *gin.Context) {
	page, err := h.proxy.Articles(c.Request.Context(), c.Query("cursor"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.rewritePage(page))
}

func (h *Handler) GetStartup(c *gin.Context) {
	page, err := h.proxy.Startup(c.Request.Context(), c.Query("cursor"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.rewritePage(page))
}

func (h *Handler) GetReader(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	doc, err := h.reader.Run(c.Request.Context(), rawURL)
	if err != nil {
		slog.Error("Reader extraction failed", "url", rawURL, "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":    doc.URL,
		"title":  doc.Title,
		"text":   doc.Text,
		"status": news.StatusSuccess,
	})
}

func (h *Handler) ListFeeds(c *gin.Context) {
	configs := h.feeds.Feeds()

	feeds := make([]feedResponse, 0, len(configs))
	for _, feedConfig := range configs {
		feeds = append(feeds, feedResponse{
			Name:     feedConfig.Name,
			Title:    feedConfig.Title,
			URL:      feedConfig.URL,
			Enabled:  feedConfig.Settings.Enabled,
			MaxItems: feedConfig.Settings.MaxItems,
			Timeout:  (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
			Filters:  len(feedConfig.Filters),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("name")

	pageNumber, err := parsePage(c.Query("page"))
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.feeds.Page(c.Request.Context(), name, pageNumber)
	if err != nil {
		slog.Error("Feed page failed", "feed", name, "page", pageNumber, "error", err)
		respondError(c, err)
		return
	}

	c.Header("X-Feed-Name", name)
	c.Header("X-Feed-Items", strconv.Itoa(len(page.Items)))
	c.JSON(http.StatusOK, h.rewritePage(page))
}

func (h *Handler) ReloadFeed(c *gin.Context) {
	name := c.Param("name")

	task := tasks.NewReloadFeedTask(name, h.feeds)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing reload task", "feed", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue reload task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Configuration reload enqueued",
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   cfg.GetVersion(),
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"feeds":     len(h.feeds.Feeds()),
	})
}

// rewritePage tags every outbound article link with the site's referral
// parameters.
func (h *Handler) rewritePage(page news.FeedPage) news.FeedPage {
	if page.Status == "" {
		page.Status = news.StatusSuccess
	}
	if page.Items == nil {
		page.Items = []news.FeedItem{}
	}
	if h.siteName == "" {
		return page
	}

	for i, item := range page.Items {
		if item.Article == nil || item.Article.SourceURL == "" {
			continue
		}
		article := *item.Article
		article.SourceURL = news.RewriteSourceURL(article.SourceURL, h.siteName)
		page.Items[i].Article = &article
	}
	return page
}

func parsePage(value string) (int, error) {
	if value == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(value)
	if err != nil || page < 1 {
		return 0, upstream.ErrInvalidPage
	}
	return page, nil
}
