package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StreamRank/internal/config"
	"StreamRank/internal/engine/manager"
	"StreamRank/internal/ingest"
	"StreamRank/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the config file")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Msg("starting sr-engine")

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Initialize the manager with all configured tasks and writers
	mgr, err := manager.NewManager(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create manager")
	}
	mgr.Start()

	// 3. Subscribe to the observation stream
	subscriber, err := ingest.NewSubscriber(cfg.Ingest)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create subscriber")
	}
	input := mgr.InputChannel()
	if err := subscriber.Start(func(ev model.Event) {
		input <- &ev
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe")
	}

	// 4. Serve the query API
	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: newRouter(mgr),
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("API server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Str("addr", server.Addr).Msg("API server failed")
		}
	}()

	// 5. Wait for a shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("API server forced to shut down")
	}

	subscriber.Close()
	mgr.Stop()
	log.Info().Msg("shutdown complete")
}
