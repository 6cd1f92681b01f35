package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/avifconv/internal/client/cli"
	"github.com/dmitrijs2005/avifconv/internal/client/config"
	"github.com/dmitrijs2005/avifconv/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := logging.New(os.Stderr, false, logging.ParseLevel(cfg.LogLevel))
	app, err := cli.NewApp(cfg, logger)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
