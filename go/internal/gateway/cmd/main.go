package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/auction/store"
	"github.com/mcdev12/gavel/go/internal/dbconfig"
	"github.com/mcdev12/gavel/go/internal/engine"
	"github.com/mcdev12/gavel/go/internal/events"
	"github.com/mcdev12/gavel/go/internal/gateway"
	"github.com/mcdev12/gavel/go/internal/session"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := loadConfig(getEnv("CONFIG_PATH", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	port := getEnv("GATEWAY_PORT", cfg.Gateway.Port)
	natsURL := getEnv("NATS_URL", "nats://localhost:4222")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	dbCfg := dbconfig.NewConfigFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres: the auction document store.
	pool, err := pgxpool.New(ctx, dbCfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create database pool")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	auctionStore, err := store.NewPostgresStore(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auction store")
	}

	// Redis: bidder sessions.
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   getEnvAsInt("REDIS_DB", 0),
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping redis")
	}
	sessions := session.NewRedisStore(redisClient, cfg.Gateway.SessionTTL)

	// NATS JetStream: domain event archival.
	eventsCfg := events.DefaultJetStreamConfig()
	eventsCfg.URL = natsURL
	eventsCfg.StreamName = cfg.Events.StreamName
	eventsCfg.SubjectPrefix = cfg.Events.SubjectPrefix
	eventsCfg.MaxAge = cfg.Events.MaxAge
	publisher, err := events.NewJetStreamPublisher(ctx, eventsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect event publisher")
	}
	defer publisher.Close()

	log.Info().
		Str("database", dbCfg.Database).
		Str("nats_url", natsURL).
		Str("redis_addr", redisAddr).
		Str("port", port).
		Msg("starting auction gateway")

	// Engine: one actor per live auction.
	eng := engine.NewManager(auctionStore, clockwork.NewRealClock(), publisher)
	defer eng.Shutdown()

	// Gateway: WebSocket pools and the REST setup surface.
	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	svc := gateway.NewService(cm, eng, sessions)

	router := mux.NewRouter()
	svc.RegisterRoutes(router)

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.Gateway.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if len(corsOptions.AllowedOrigins) == 0 {
		corsOptions.AllowedOrigins = []string{"*"}
		corsOptions.AllowCredentials = false
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      cors.New(corsOptions).Handler(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cm.CloseAll(shutdownCtx)
	cancel()

	log.Info().Msg("auction gateway shutdown complete")
}
