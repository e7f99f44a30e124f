package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/bidmarket/internal/buildinfo"
	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/dmitrijs2005/bidmarket/internal/server"
	"github.com/dmitrijs2005/bidmarket/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn(ctx, "shutdown", "error", err)
		}
	}()

	app.Run(ctx)

}
