package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"finledger/internal/cli"
	"finledger/internal/config"
	applog "finledger/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(config.Log{Level: "info", Format: applog.FormatText})
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := cli.InitApp(ctx, logger, cfg)

	err := cli.NewRunner(a, logger).Run(ctx, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "finledger: %v\n", err)
	}
	stop()
	os.Exit(cli.ExitCode(err))
}
