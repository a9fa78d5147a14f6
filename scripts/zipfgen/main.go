// zipfgen publishes a synthetic Zipf-distributed key stream to NATS, for
// end-to-end runs and capacity-planner calibration.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"StreamRank/internal/config"
	"StreamRank/internal/ingest"
	"StreamRank/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	natsURL := flag.String("nats", "nats://127.0.0.1:4222", "NATS server URL")
	subject := flag.String("subject", "streamrank.events", "NATS subject")
	count := flag.Int("n", 1_000_000, "number of events to publish")
	s := flag.Float64("s", 1.2, "Zipf skew (s > 1)")
	imax := flag.Uint64("imax", 1_000_000, "number of distinct keys")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	publisher, err := ingest.NewPublisher(config.IngestConfig{NATSURL: *natsURL, Subject: *subject})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create publisher")
	}
	defer publisher.Close()

	rng := rand.New(rand.NewSource(*seed))
	zipf := rand.NewZipf(rng, *s, 1, *imax)
	if zipf == nil {
		log.Fatal().Float64("s", *s).Msg("invalid Zipf parameters")
	}

	start := time.Now()
	for i := 0; i < *count; i++ {
		ev := &model.Event{
			Timestamp: time.Now(),
			Key:       fmt.Sprintf("key-%d", zipf.Uint64()),
			Weight:    1,
		}
		if err := publisher.Publish(ev); err != nil {
			log.Fatal().Err(err).Int("published", i).Msg("failed to publish event")
		}
	}

	log.Info().
		Int("events", *count).
		Dur("elapsed", time.Since(start)).
		Msg("done")
}
