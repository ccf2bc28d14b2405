package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equity_valuation/pkg/api"
	"equity_valuation/pkg/core/config"
	"equity_valuation/pkg/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML configuration file")
	pretty := flag.Bool("pretty", false, "human-readable console logs")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logger.New(logger.Config{Level: "info", Pretty: *pretty})
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.Server.LogLevel, Pretty: *pretty})
	log.Info().
		Float64("risk_free_rate", cfg.Market.RiskFreeRate).
		Float64("market_return", cfg.Market.MarketReturn).
		Float64("default_tax_rate", cfg.Defaults.TaxRate).
		Msg("Starting valuation API")

	srv := api.NewServer(cfg, log)

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
