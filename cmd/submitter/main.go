package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/config"
	"github.com/garyjia/classwallet-submitter/internal/container"
	"github.com/garyjia/classwallet-submitter/pkg/utils"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "submitter",
	Short: "File ClassWallet reimbursements and direct payments from a browser session",
	Long: `submitter drives a Chrome session through the ClassWallet portal to file
Reimbursement and Direct Pay requests, records each submission in the local
history and reports monthly totals.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the config file")

	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHistoryCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is a started container plus the log sink that must outlive it
type app struct {
	cfg       *config.Config
	sink      *utils.LogSink
	container *container.Container
	logger    *zap.Logger
}

// bootstrap loads configuration, lets the caller adjust it, then starts
// the container.
func bootstrap(ctx context.Context, adjust func(*config.Config)) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if adjust != nil {
		adjust(cfg)
	}

	sink, err := utils.NewLogSink(utils.LoggerConfig{
		Level:         cfg.Logger.Level,
		OutputPath:    cfg.Logger.OutputPath,
		Format:        cfg.Logger.Format,
		AutomationDir: cfg.Logger.AutomationDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	c, err := container.NewContainer(cfg, sink.Logger)
	if err != nil {
		sink.Close()
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		sink.Close()
		return nil, err
	}

	return &app{cfg: cfg, sink: sink, container: c, logger: sink.Logger}, nil
}

func (a *app) Close() {
	if err := a.container.Close(); err != nil {
		a.logger.Warn("Container close failed", zap.Error(err))
	}
	_ = a.sink.Close()
}
