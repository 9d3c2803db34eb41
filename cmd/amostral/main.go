package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"instituto-amostral/internal/app"
	"instituto-amostral/internal/config"
	"instituto-amostral/internal/logging"
)

// cli carries the state shared by every command.
type cli struct {
	configPath string
	envPath    string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:           "amostral",
		Short:         "Electoral survey sizing and sampling plans",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "amostral.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&c.envPath, "env", ".env", "environment file")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(c.serveCmd())
	rootCmd.AddCommand(c.sizeCmd())
	rootCmd.AddCommand(c.planCmd())
	rootCmd.AddCommand(c.datasetCmd())
	rootCmd.AddCommand(c.ufsCmd())
	rootCmd.AddCommand(c.municipalitiesCmd())
	return rootCmd
}

func (c *cli) init() error {
	if err := config.LoadDotEnv(c.envPath); err != nil {
		return err
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, c.verbose)
	if err != nil {
		return err
	}
	c.cfg, c.logger = cfg, logger
	return nil
}

func (c *cli) app() (*app.App, error) {
	return app.New(c.cfg, c.logger)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
