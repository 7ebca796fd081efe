package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/config"
	"github.com/garyjia/classwallet-submitter/internal/container"
	httpserver "github.com/garyjia/classwallet-submitter/internal/interfaces/http"
	"github.com/garyjia/classwallet-submitter/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	sink, err := utils.NewLogSink(utils.LoggerConfig{
		Level:         cfg.Logger.Level,
		OutputPath:    cfg.Logger.OutputPath,
		Format:        cfg.Logger.Format,
		AutomationDir: cfg.Logger.AutomationDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer sink.Close()
	logger := sink.Logger

	logger.Info("Starting ClassWallet submitter",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("auto_submit", cfg.Automation.AutoSubmit),
		zap.Bool("headless", cfg.Browser.Headless))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database, history, notification and submitter
	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer c.Close()

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ExportDir:    cfg.History.ExportDir,
	}, c.Submitter(), c.History(), logger)

	// Blocks until SIGINT/SIGTERM; an open review browser is released first
	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server exited with error", zap.Error(err))
		return
	}

	logger.Info("Server exited successfully")
}
