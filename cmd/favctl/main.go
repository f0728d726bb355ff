package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/worldscope/countries-api/internal/client/cli"
	"github.com/worldscope/countries-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{Service: "favctl", Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg, os.Stdin, os.Stdout, log)
	app.Run(ctx)
}
