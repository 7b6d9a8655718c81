package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/selfkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/selfkeeper/internal/logging"
	"github.com/dmitrijs2005/selfkeeper/internal/server"
	"github.com/dmitrijs2005/selfkeeper/internal/server/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	ctx := context.Background()
	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
