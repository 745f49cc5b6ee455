package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lysyi3m/intellinews/app/secret"
)

type ServerOptions struct {
	// Verifier enables the X-API-Secret check on /api routes when set.
	Verifier    VerifierInterface
	RateLimiter *RateLimiter
	Now         func() time.Time
}

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, opts ServerOptions) *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health", "/metrics"},
	}))

	r.Use(gin.Recovery())
	r.Use(metricsMiddleware())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", strings.Join([]string{
			"Origin", "Content-Type", "Accept", secret.HeaderName, secret.LegacyHeaderName,
		}, ", "))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, opts)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, opts ServerOptions) {
	r.GET("/health", handler.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if opts.Verifier != nil {
		now := opts.Now
		if now == nil {
			now = time.Now
		}
		api.Use(secretMiddleware(opts.Verifier, now))
		slog.Info("API secret header required", "header", secret.HeaderName)
	} else {
		slog.Warn("API secret header disabled (API_SECRET_KEY not set)")
	}

	{
		api.GET("/news/top-stories", handler.GetTopStories)
		api.GET("/news/topic-search/:tag", handler.GetTopicSearch)
		api.GET("/news/trending-topics", handler.GetTrendingTopics)
		api.GET("/articles", handler.GetArticles)
		api.GET("/startup", handler.GetStartup)
		api.GET("/reader", handler.GetReader)

		api.GET("/feeds", handler.ListFeeds)
		api.GET("/feeds/:name", handler.GetFeed)
		api.POST("/feeds/:name/reload", handler.ReloadFeed)
	}

	ai := api.Group("/ai")
	if opts.RateLimiter != nil {
		ai.Use(opts.RateLimiter.Middleware())
	}
	{
		ai.POST("/topic-news", handler.PostTopicNews)
		ai.POST("/suggested-news", handler.PostSuggestedNews)
		ai.POST("/suggested-topics", handler.PostSuggestedTopics)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}
