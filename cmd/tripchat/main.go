// Command tripchat runs the collaborative travel-planning chatroom server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tripwise/tripchat/pkg/api"
	"github.com/tripwise/tripchat/pkg/billing"
	"github.com/tripwise/tripchat/pkg/chatroom"
	"github.com/tripwise/tripchat/pkg/config"
	"github.com/tripwise/tripchat/pkg/llm"
	"github.com/tripwise/tripchat/pkg/orchestrator"
	"github.com/tripwise/tripchat/pkg/session"
	"github.com/tripwise/tripchat/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
	gin.SetMode(gin.ReleaseMode)

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	var gateway llm.Gateway = llm.Disabled
	if cfg.LLMConfigured() {
		openaiGW, err := llm.NewOpenAIGateway(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return fmt.Errorf("failed to build LLM gateway: %w", err)
		}
		gateway = openaiGW
		slog.Info("LLM gateway ready", "model", cfg.OpenAIModel)
	} else {
		slog.Warn("OPENAI_API_KEY is not set; chat requests will receive configuration errors")
	}

	registry := chatroom.NewRegistry()
	bus := chatroom.NewBus(registry, cfg.RingSize, cfg.ReplayCount)
	sessions := session.NewStore()

	orch := orchestrator.New(orchestrator.Options{
		Gateway:         gateway,
		Sessions:        sessions,
		Registry:        registry,
		Storage:         store,
		Billing:         billing.NewAssistant(gateway, store),
		SessionID:       cfg.SessionID,
		MaxContextChars: cfg.MaxContextChars,
	})

	server := api.NewServer(orch, registry, bus, store, cfg.LLMConfigured())
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr, "session_id", cfg.SessionID)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
