// Package ingest moves observation events between producers and the
// engine over NATS, encoded as JSON.
package ingest

import (
	"encoding/json"

	"StreamRank/internal/config"
	"StreamRank/internal/model"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Publisher is responsible for publishing observation events to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.IngestConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Info().Str("url", cfg.NATSURL).Msg("connected to NATS server")
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Publish serializes an Event to JSON and publishes it to the configured subject.
func (p *Publisher) Publish(ev *model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Info().Msg("NATS connection drained and closed")
	}
}
