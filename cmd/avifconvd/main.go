package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/avifconv/internal/logging"
	"github.com/dmitrijs2005/avifconv/internal/server"
	"github.com/dmitrijs2005/avifconv/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(os.Stdout, true, logging.ParseLevel(cfg.LogLevel))
	app, err := server.NewApp(cfg, logger)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
