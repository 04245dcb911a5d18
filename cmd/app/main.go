package main

import (
	"context"
	"os"
	"os/signal"
	"rental/config"
	"rental/di"
	"rental/helper"
	"rental/shared/logger"
	"syscall"

	"github.com/rs/zerolog/log"
)

// @title Vehicle Rental Scheduling API
// @version 1.0
// @description Reservation scheduling for vehicle units: bookings, payments, admin blocks and availability.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	cfg := config.Get()

	logger.Configure(cfg)

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := di.InitializeApp()

	if err := app.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Service stopped unexpectedly")
	}

	log.Info().Msg("Service stopped.")
}
