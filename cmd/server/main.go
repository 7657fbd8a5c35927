package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/opinionmap/opinionmap/internal/api/http"
	"github.com/opinionmap/opinionmap/internal/application/conversation"
	"github.com/opinionmap/opinionmap/internal/config"
	"github.com/opinionmap/opinionmap/internal/infrastructure/memory"
	"github.com/opinionmap/opinionmap/internal/infrastructure/postgres"
	"github.com/opinionmap/opinionmap/internal/infrastructure/sse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := zerolog.New(os.Stdout).Level(cfg.Level()).With().Timestamp().Logger()

	defaults, err := cfg.ConversationDefaults()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()

	// repositories
	var repos conversation.Repositories
	switch cfg.Storage {
	case config.StorageMemory:
		convRepo := memory.NewConversationRepository()
		repos = conversation.Repositories{
			Conversations: convRepo,
			Snapshots:     convRepo,
			Votes:         memory.NewVoteRepository(),
			Statements:    memory.NewStatementRepository(),
		}
		logger.Warn().Msg("using in-memory storage, data is lost on exit")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			log.Fatalf("db error: %v", err)
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migration error: %v", err)
		}
		convRepo := postgres.NewConversationRepository(pool)
		repos = conversation.Repositories{
			Conversations: convRepo,
			Snapshots:     convRepo,
			Votes:         postgres.NewVoteRepository(pool),
			Statements:    postgres.NewStatementRepository(pool),
		}
	}

	// infrastructure
	sseHub := sse.NewHub(logger)

	// services
	conversationSvc := conversation.NewService(repos, sseHub, logger, conversation.WithVoteLimits(cfg.VoteLimits()))

	// API server
	apiServer := httpapi.NewServer(conversationSvc, sseHub, defaults, cfg.RequestTimeout, logger)

	httpServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("storage", cfg.Storage).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	// Closing client channels ends open streams so Shutdown can drain.
	sseHub.Stop()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
