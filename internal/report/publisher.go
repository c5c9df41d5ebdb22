package report

import (
	"encoding/json"
	"fmt"
	"log"

	"NFAForge/internal/config"
	"NFAForge/internal/model"

	"github.com/nats-io/nats.go"
)

// Publisher streams sweep results to a NATS subject as JSON, one message per
// row, so long-running sweeps can be watched live. It implements the
// model.ResultWriter interface.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Write serializes a sweep result to JSON and publishes it.
func (p *Publisher) Write(result model.SweepResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() error {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
	return nil
}
