package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StreamRank/internal/config"
	"StreamRank/internal/ingest"
	"StreamRank/internal/model"
	"StreamRank/pkg/pcap"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the config file")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Msg("starting sr-probe")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	keyBy := cfg.Probe.KeyBy
	if keyBy == "" {
		keyBy = "src_ip"
	}

	var reader *pcap.Reader
	switch {
	case cfg.Probe.PcapFile != "":
		reader, err = pcap.NewFileReader(cfg.Probe.PcapFile, keyBy)
		log.Info().Str("file", cfg.Probe.PcapFile).Str("key_by", keyBy).Msg("replaying capture file")
	case cfg.Probe.Interface != "":
		reader, err = pcap.NewLiveReader(cfg.Probe.Interface, keyBy)
		log.Info().Str("interface", cfg.Probe.Interface).Str("key_by", keyBy).Msg("capturing live")
	default:
		log.Fatal().Msg("probe requires either pcap_file or interface in config")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open capture")
	}
	defer reader.Close()

	publisher, err := ingest.NewPublisher(cfg.Ingest)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create publisher")
	}
	defer publisher.Close()

	eventChannel := make(chan *model.Event, 10000)
	go func() {
		reader.ReadEvents(eventChannel)
		close(eventChannel)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	published := 0
	for {
		select {
		case ev, ok := <-eventChannel:
			if !ok {
				log.Info().Int("events", published).Msg("capture exhausted")
				return
			}
			if err := publisher.Publish(ev); err != nil {
				log.Warn().Err(err).Msg("failed to publish event")
				continue
			}
			published++
		case <-sigChan:
			log.Info().Int("events", published).Msg("shutdown signal received")
			return
		}
	}
}
