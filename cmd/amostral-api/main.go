// @title           Instituto Amostral API
// @version         1.0
// @description     Sample sizing and stratified sampling plans for municipal electoral surveys.
// @BasePath        /api/v1
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"instituto-amostral/internal/api"
	"instituto-amostral/internal/app"
	"instituto-amostral/internal/config"
	"instituto-amostral/internal/logging"
)

func main() {
	configPath := flag.String("config", "amostral.yaml", "configuration file")
	envPath := flag.String("env", ".env", "environment file")
	flag.Parse()

	if err := run(*configPath, *envPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, envPath string) error {
	if err := config.LoadDotEnv(envPath); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	if err := a.OpenStore(); err != nil {
		logger.Warn("running without a database, jobs and plan history are disabled", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return api.Serve(ctx, a)
}
