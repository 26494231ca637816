package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/duetask/internal/app"
	"github.com/nhle/duetask/internal/logger"
	"github.com/nhle/duetask/internal/model"
)

var Version = "dev"

var (
	configPath string
	cfg        *model.AppConfig
	logCloser  io.Closer
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "duetask",
		Short:         "Keeps due-date reminders for a shared todo list in sync",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded

			closer, err := logger.Init(logger.Config{
				Level:  cfg.Log.Level,
				Pretty: cfg.Log.Pretty,
				File:   cfg.Log.File,
			})
			if err != nil {
				return err
			}
			logCloser = closer
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				_ = logCloser.Close()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "path to config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(pendingCmd())
	rootCmd.AddCommand(credentialCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp builds the application from the loaded config.
func openApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("starting duetask: %w", err)
	}
	return a, nil
}
