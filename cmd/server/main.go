package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/nulldatamap/xthevent/internal/server"
	"github.com/nulldatamap/xthevent/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if errors.Is(err, flag.ErrHelp) {
		config.Usage(os.Stdout, filepath.Base(os.Args[0]))
		return
	}
	if err != nil {
		log.Printf("%v", err)
		config.Usage(os.Stderr, filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	app.Run(ctx)

}
