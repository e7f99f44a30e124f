package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/bidmarket/internal/buildinfo"
	"github.com/dmitrijs2005/bidmarket/internal/client/cli"
	"github.com/dmitrijs2005/bidmarket/internal/client/config"
	"github.com/dmitrijs2005/bidmarket/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	logger := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn(ctx, "shutdown", "error", err)
		}
	}()

	app.Run(ctx)

}
