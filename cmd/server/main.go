package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/config"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/server"
)

func main() {
	catalogPath := flag.String("catalog", "", "Catalog file path (overrides CATALOG_PATH)")
	port := flag.String("port", "", "Listen port (overrides PORT)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *catalogPath != "" {
		cfg.Catalog.Path = *catalogPath
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	srv, err := server.New(cfg, logger, server.Options{})
	if err != nil {
		logger.Fatal("assembly failed", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	case err := <-errChan:
		logger.Fatal("server error", zap.Error(err))
	}
}
