// Command subshift runs the account migration service: an HTTP API that
// moves subreddit subscriptions and saved posts between Reddit accounts.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/subshift/subshift/internal/web"
	"github.com/subshift/subshift/pkg/cache"
	"github.com/subshift/subshift/pkg/logging"
	"github.com/subshift/subshift/pkg/migrate"
	"github.com/subshift/subshift/pkg/ratelimit"
	"github.com/subshift/subshift/pkg/reddit"
)

func main() {
	// Configuration from environment
	port := getEnv("PORT", "8080")
	userAgent := getEnv("USER_AGENT", "subshift/1.0 (account migration)")
	redisURL := getEnv("REDIS_URL", "")
	chunkSize := getEnvInt("CHUNK_SIZE", 0)
	concurrency := getEnvInt("CONCURRENCY", 0)
	waveInterval := getEnvDuration("WAVE_INTERVAL", 0)

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") == "true",
	})
	logger := logging.NewLogger("main")

	// Optional listing cache
	var cacheManager *cache.Manager
	if redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("redis_url", redisURL).Msg("Failed to connect to Redis")
		}
		cacheManager = cache.NewManager(redisClient, getEnvDuration("CACHE_TTL", 0))
		logger.Info().Str("redis_url", redisURL).Msg("Listing cache enabled")
	}

	tracker := ratelimit.NewTracker(logging.NewLogger("ratelimit"))

	clientCfg := reddit.DefaultConfig(userAgent)
	clientCfg.Tracker = tracker
	redditClient, err := reddit.New(clientCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Reddit client")
	}

	orchestratorCfg := migrate.DefaultConfig()
	if chunkSize > 0 {
		orchestratorCfg.ChunkSize = chunkSize
	}
	if concurrency > 0 {
		orchestratorCfg.Concurrency = concurrency
	}
	if waveInterval > 0 {
		orchestratorCfg.WaveInterval = waveInterval
	}
	orchestrator := migrate.New(redditClient, orchestratorCfg, log.Logger)

	server := web.New(":"+port, orchestrator, redditClient, cacheManager, log.Logger)

	go func() {
		// ListenAndServe reports ErrServerClosed during a graceful
		// shutdown; only unexpected failures are fatal.
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down")
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
