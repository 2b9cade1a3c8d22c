package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/marsha-uploader/internal/buildinfo"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/cli"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/config"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		buildinfo.PrintBuildData(os.Stdout)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	runErr := app.Run(ctx, os.Args[1:])
	if err := app.Close(context.Background()); err != nil {
		log.Printf("close: %v", err)
	}

	if runErr != nil {
		if !errors.Is(runErr, cli.ErrUsage) {
			log.Printf("%v", runErr)
		}
		os.Exit(1)
	}
}
