package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ESDMMonitor/internal/app"
	"ESDMMonitor/internal/config"
	"ESDMMonitor/internal/logging"
	"ESDMMonitor/internal/usecase"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "esdmmonitor",
		Short:         "Watch ESDM press releases for keywords and alert DingTalk",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults to $ESDM_MONITOR_CONFIG")

	rootCmd.AddCommand(onceCmd())
	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Check the listing once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(func(ctx context.Context, application *app.Application) error {
				_, err := application.RunOnce(ctx)
				if errors.Is(err, usecase.ErrListingUnavailable) {
					// already logged; the next invocation will retry
					return nil
				}
				return err
			})
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run immediately, then on the configured schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(func(ctx context.Context, application *app.Application) error {
				return application.Serve(ctx)
			})
		},
	}
}

func withApplication(fn func(context.Context, *app.Application) error) error {
	_ = godotenv.Load()

	cfg := config.Load(cfgFile)
	logger, logCloser := logging.FromConfig(cfg.Logging)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer application.Close()

	if err := fn(ctx, application); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}
