package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/MKhiriev/vaultwire/internal/config"
	myHTTP "github.com/MKhiriev/vaultwire/internal/handler/http"
	"github.com/MKhiriev/vaultwire/internal/logger"
	"github.com/MKhiriev/vaultwire/internal/server"
	"github.com/MKhiriev/vaultwire/internal/service"
	"github.com/MKhiriev/vaultwire/internal/store"
	"github.com/MKhiriev/vaultwire/internal/workers"
	"github.com/MKhiriev/vaultwire/migrations"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	// локальная разработка: подхватываем .env, в проде его нет
	_ = godotenv.Load()

	log := logger.NewLogger("vaultwire-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	secret, err := cfg.App.MasterSecret()
	if err != nil {
		log.Fatal().Err(err).Msg("error parsing master secret")
	}

	ctx := context.Background()

	db, err := store.NewConnectPostgres(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}

	if err := migrations.Migrate(db.DB); err != nil {
		log.Fatal().Err(err).Msg("error running migrations")
	}

	storages := store.NewStorages(db, log)
	services := service.NewServices(storages, cfg.App, secret, log)
	handler := myHTTP.NewHandler(services, cfg.App, log)

	srv, err := server.NewServer(handler.Init(), cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	jobs := workers.NewWorkers(storages, log)
	jobs.ExpirySweeper.Start(ctx, cfg.Workers.SweepInterval)
	defer jobs.ExpirySweeper.Stop()

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
