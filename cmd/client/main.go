package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/ragdesk/internal/buildinfo"
	"github.com/dmitrijs2005/ragdesk/internal/client/cli"
	"github.com/dmitrijs2005/ragdesk/internal/client/config"
	"github.com/dmitrijs2005/ragdesk/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log, err := logging.NewTextLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	app.Run(ctx)
	return nil
}
