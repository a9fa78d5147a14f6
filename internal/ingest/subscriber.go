package ingest

import (
	"encoding/json"

	"StreamRank/internal/config"
	"StreamRank/internal/model"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// EventHandler is a function that processes a received Event.
type EventHandler func(ev model.Event)

// Subscriber is responsible for subscribing to a NATS subject and
// processing observation events.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(cfg config.IngestConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Info().Str("url", cfg.NATSURL).Msg("connected to NATS server")
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// Start subscribes to the configured subject and processes messages with
// the provided handler.
func (s *Subscriber) Start(handler EventHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		var ev model.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Warn().Err(err).Msg("error unmarshalling event")
			return
		}
		handler(ev)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Info().Str("subject", s.subject).Msg("subscribed, waiting for events")
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Info().Msg("NATS connection closed")
	}
}
