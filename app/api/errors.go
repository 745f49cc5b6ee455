package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/intellinews/app/feed"
	"github.com/lysyi3m/intellinews/app/genai"
	"github.com/lysyi3m/intellinews/app/upstream"
)

// respondError maps a domain error onto a status code and a JSON body.
func respondError(c *gin.Context, err error) {
	var (
		configErr   *upstream.ConfigurationError
		upstreamErr *upstream.UpstreamError
		fetchErr    *feed.FetchError
		genErr      *genai.GenerationError
	)

	switch {
	case errors.As(err, &configErr):
		slog.Error("Server configuration error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
	case errors.As(err, &upstreamErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch data from the upstream provider"})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &genErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":    "Content generation failed",
			"flow":     genErr.Flow,
			"attempts": genErr.Attempts,
		})
	case errors.Is(err, upstream.ErrInvalidPage),
		errors.Is(err, upstream.ErrInvalidCursor),
		errors.Is(err, genai.ErrInvalidInput),
		errors.Is(err, feed.ErrInvalidURL),
		errors.Is(err, feed.ErrInvalidPage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, feed.ErrFeedNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
	case errors.Is(err, feed.ErrFeedDisabled):
		c.JSON(http.StatusConflict, gin.H{"error": "Feed is disabled"})
	case errors.Is(err, feed.ErrNoContent):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timed out"})
	default:
		slog.Error("Unhandled request error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
