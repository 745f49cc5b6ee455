package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/lysyi3m/intellinews/app/api"
	"github.com/lysyi3m/intellinews/app/cfg"
	"github.com/lysyi3m/intellinews/app/feed"
	"github.com/lysyi3m/intellinews/app/genai"
	"github.com/lysyi3m/intellinews/app/secret"
	"github.com/lysyi3m/intellinews/app/tasks"
	"github.com/lysyi3m/intellinews/app/upstream"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting IntelliNews server", "version", appCfg.Version)

	if err := run(appCfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("IntelliNews server shutdown complete")
}

func run(appCfg *cfg.Cfg) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	upstreamClient := &http.Client{Timeout: appCfg.UpstreamTimeoutDuration()}

	proxy := upstream.NewProxy(upstream.Options{
		HTTPClient:        upstreamClient,
		InshortsURL:       appCfg.InshortsURL,
		MedialArticlesURL: appCfg.MedialArticlesURL,
		MedialStartupURL:  appCfg.MedialStartupURL,
		MedialAccessToken: appCfg.MedialAccessToken,
		UserAgent:         appCfg.UserAgent,
	})

	generator, closeCache, err := newGenerator(ctx, appCfg)
	if err != nil {
		return err
	}
	defer closeCache()

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load feed configurations: %w", err)
	}
	slog.Info("Feed configurations loaded", "dir", appCfg.FeedsDir, "count", configCache.GetConfigCount())

	feedSource := feed.NewSource(configCache, upstreamClient, feed.NewParser(), feed.NewFilterer(), appCfg.UserAgent)
	reader := feed.NewReader(upstreamClient, appCfg.UserAgent)

	scheduler := tasks.NewScheduler(appCfg.WorkerCount, appCfg.QueueSize)
	scheduler.Start()
	defer scheduler.Stop()

	serverOpts := api.ServerOptions{}
	if appCfg.SecretEnabled() {
		codec, err := secret.NewCodec(appCfg.APISecret, appCfg.EncryptionKey, time.Duration(appCfg.SecretMaxSkew)*time.Millisecond)
		if err != nil {
			return fmt.Errorf("invalid api secret configuration: %w", err)
		}
		serverOpts.Verifier = codec
	}
	if appCfg.AIRateLimit > 0 {
		limiter := api.NewRateLimiter(rate.Limit(appCfg.AIRateLimit), appCfg.AIRateBurst)
		go limiter.Cleanup(ctx, 3*time.Minute, 5*time.Minute)
		serverOpts.RateLimiter = limiter
	}

	handler := api.NewHandler(proxy, generator, feedSource, reader, scheduler, appCfg.SiteName)
	server := api.NewServer(handler, serverOpts)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}

// newGenerator wires the configured provider and generation cache. The
// returned function releases the cache connection.
func newGenerator(ctx context.Context, appCfg *cfg.Cfg) (*genai.Generator, func(), error) {
	provider, err := genai.NewProvider(genai.ProviderOptions{
		Name:          appCfg.AIProvider,
		Model:         appCfg.AIModel,
		APIKey:        appCfg.AIAPIKey,
		BaseURL:       appCfg.AIBaseURL,
		MaxConcurrent: appCfg.AIMaxConcurrent,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create generation provider: %w", err)
	}
	slog.Info("Generation provider configured", "provider", appCfg.AIProvider, "model", appCfg.AIModel)

	closeCache := func() {}
	var cache genai.Cache
	ttl := time.Duration(appCfg.AICacheTTL) * time.Second

	switch {
	case ttl == 0:
		slog.Info("Generation cache disabled")
	case appCfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: appCfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", appCfg.RedisAddr, err)
		}
		cache = genai.NewRedisCache(client, ttl)
		closeCache = func() {
			if err := client.Close(); err != nil {
				slog.Error("Failed to close redis client", "error", err)
			}
		}
		slog.Info("Generation cache backed by redis", "addr", appCfg.RedisAddr, "ttl", ttl)
	default:
		cache = genai.NewMemoryCache(appCfg.AICacheSize, ttl)
		slog.Info("Generation cache in memory", "size", appCfg.AICacheSize, "ttl", ttl)
	}

	return genai.NewGenerator(provider, genai.Options{Cache: cache}), closeCache, nil
}
