package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tatianab/ghg-game/internal/config"
	"github.com/tatianab/ghg-game/internal/logger"
	"github.com/tatianab/ghg-game/internal/narrator"
	"github.com/tatianab/ghg-game/internal/simserver"
	"github.com/tatianab/ghg-game/internal/simulator"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Setup(cfg.Logger(), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var story narrator.Narrator = narrator.NewTemplate()
	if cfg.GeminiAPIKey != "" {
		gemini, err := narrator.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Error("failed to create Gemini narrator", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		story = &narrator.Fallback{Primary: gemini, Secondary: story, Log: log}
		log.Info("using Gemini narrator", "model", cfg.GeminiModel)
	}

	model := simulator.Model{StartYear: cfg.StartYear, FinalYear: cfg.FinalYear, InitialGHG: cfg.InitialGHG}
	registry, err := simulator.NewRegistry(model, story, cfg.MaxSessions, log)
	if err != nil {
		log.Error("failed to create session registry", "error", err)
		os.Exit(1)
	}

	srv := simserver.NewServer(cfg.Port, simserver.NewRouter(registry))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	}
}
