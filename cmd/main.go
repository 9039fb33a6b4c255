package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bloxcoop/relay/internal/config"
	"github.com/bloxcoop/relay/internal/observability"
	"github.com/bloxcoop/relay/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("creating server", zap.Error(err))
	}

	if err := srv.Start(); err != nil {
		logger.Fatal("starting server", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := srv.Stop(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
