package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/canalvip/vipbot/internal/app"
	"github.com/canalvip/vipbot/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	migrateOnly := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg, errLoad := config.Load(*configPath)
	if errLoad != nil {
		log.Fatal(errLoad)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrateOnly {
		if errMigrate := app.Migrate(cfg); errMigrate != nil {
			log.Fatal(errMigrate)
		}
		return
	}

	if errRun := app.Run(ctx, cfg); errRun != nil && !errors.Is(errRun, context.Canceled) {
		log.Fatal(errRun)
	}
}
