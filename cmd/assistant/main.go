// cmd/assistant/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ledger-assistant/internal/chat"
	"ledger-assistant/internal/chat/classifier"
	"ledger-assistant/internal/chat/executor"
	"ledger-assistant/internal/chat/queryengine"
	"ledger-assistant/internal/chat/ratelimit"
	"ledger-assistant/internal/chat/responder"
	"ledger-assistant/internal/common/config"
	"ledger-assistant/internal/common/database"
	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/common/observability"
	"ledger-assistant/internal/llm"
	"ledger-assistant/internal/server"
	"ledger-assistant/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("Starting ledger assistant...", map[string]interface{}{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
	})

	// --- Infrastructure ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		log.Error("Failed to connect to PostgreSQL", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer pg.Close()

	redisClient, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		log.Error("Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer redisClient.Close()

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	// --- Stores and collaborators ---
	llmClient := llm.NewOpenAIClient(cfg.LLM)
	ledgerStore := store.NewPostgresLedgerStore(pg.GetDB(), log)
	conversationStore := store.NewPostgresConversationStore(pg.GetDB(), log)
	usageTracker := store.NewRedisUsageTracker(redisClient.GetClient(), log, cfg.RateLimit.UsageTTLDays)

	limiter := ratelimit.New(
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		cfg.RateLimit.MaxRequests,
	)

	// --- Pipeline ---
	service := chat.NewService(chat.Deps{
		Actions:       classifier.NewActionClassifier(llmClient, log),
		Queries:       classifier.NewQueryClassifier(llmClient, log),
		Engine:        queryengine.New(ledgerStore, log),
		Executor:      executor.New(ledgerStore, log),
		Responder:     responder.New(llmClient, log),
		Limiter:       limiter,
		Conversations: conversationStore,
		Usage:         usageTracker,
		Observability: obs,
		Logger:        log,
	})

	srv := server.New(service, log, promhttp.Handler())

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"port": cfg.Server.Port})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutdown signal received, stopping server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Ledger assistant stopped", nil)
}
