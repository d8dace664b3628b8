package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pricetrawl/config"
	"pricetrawl/internal/api"
	"pricetrawl/logger"
	"pricetrawl/services/cache"
	"pricetrawl/services/publisher"
	"pricetrawl/services/scheduler"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.ForServer()

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Msg("Starting pricetrawl server")

	// Host cooldown tracking is optional
	var cooldown *cache.Cooldown
	if cfg.MemcacheAddr != "" {
		cooldown = cache.NewCooldown(cache.NewMemcache(cfg.MemcacheAddr), cfg.HostCooldown)
		log.Info().Str("addr", cfg.MemcacheAddr).Msg("Host cooldown cache enabled")
	}

	// Batch publishing is optional
	var pub publisher.Publisher
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLen)
		defer redisPublisher.Close()
		pub = redisPublisher
		log.Info().
			Str("addr", cfg.RedisAddr).
			Str("stream", cfg.RedisStream).
			Msg("Batch publishing enabled")
	}

	// Scheduled reports are optional; a bad report configuration should not
	// keep the API from serving.
	if cfg.EnableScheduler {
		sched, err := scheduler.New(cfg, cooldown)
		if err != nil {
			log.Warn().Err(err).Msg("Report scheduler disabled")
		} else {
			sched.Start()
			defer sched.Stop()
		}
	}

	handlers := api.NewHandlers(cooldown, pub, cfg.FetchTimeout)
	router := api.NewRouter(handlers)

	port := cfg.Port
	if port == 0 {
		port = findFreePort(5000, 5050)
	}
	if port == 0 {
		log.Fatal().Msg("No free port in 5000-5050. Set PORT to a free port.")
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
		// Scrape batches can legitimately run for minutes, so only reads
		// and idle connections are bounded.
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Int("port", port).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Server stopped")
}

// findFreePort probes for a bindable TCP port in [start, end], returning 0
// when every port is taken.
func findFreePort(start, end int) int {
	for p := start; p <= end; p++ {
		l, err := net.Listen("tcp", ":"+strconv.Itoa(p))
		if err != nil {
			continue
		}
		l.Close()
		return p
	}
	return 0
}
