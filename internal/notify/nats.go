/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package notify publishes finished ingestion reports to NATS so catalog
// consumers can pick up new tracks without polling the index.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/moosic/internal/ingest"
)

// Config contains NATS connection configuration.
type Config struct {
	URL     string
	Subject string
	Timeout time.Duration
}

// DefaultConfig returns default NATS configuration.
func DefaultConfig() Config {
	return Config{
		URL:     nats.DefaultURL,
		Subject: "moosic.ingest.completed",
		Timeout: 5 * time.Second,
	}
}

// publisher is the part of *nats.Conn the notifier uses.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// Notifier publishes one message per finished run.
type Notifier struct {
	conn    publisher
	subject string
	timeout time.Duration
	nodeID  string
	logger  zerolog.Logger
}

// Connect dials NATS.
func Connect(cfg Config, logger zerolog.Logger) (*Notifier, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("moosic"),
		nats.Timeout(cfg.Timeout),
		nats.MaxReconnects(3),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	return newNotifier(conn, cfg, logger), nil
}

func newNotifier(conn publisher, cfg Config, logger zerolog.Logger) *Notifier {
	if cfg.Subject == "" {
		cfg.Subject = DefaultConfig().Subject
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Notifier{
		conn:    conn,
		subject: cfg.Subject,
		timeout: cfg.Timeout,
		nodeID:  nodeID(),
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// Message is the payload published for a run.
type Message struct {
	MessageID string         `json:"message_id"`
	NodeID    string         `json:"node_id"`
	Timestamp time.Time      `json:"timestamp"`
	OK        bool           `json:"ok"`
	Report    *ingest.Report `json:"report"`
}

// Publish sends the report and waits for the server to acknowledge the flush.
func (n *Notifier) Publish(r *ingest.Report) error {
	msg := Message{
		MessageID: uuid.NewString(),
		NodeID:    n.nodeID,
		Timestamp: time.Now().UTC(),
		OK:        r.OK(),
		Report:    r,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal run message: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", n.subject, err)
	}
	if err := n.conn.FlushTimeout(n.timeout); err != nil {
		return fmt.Errorf("flush %s: %w", n.subject, err)
	}
	n.logger.Debug().Str("subject", n.subject).Str("run_id", r.RunID).Msg("run report published")
	return nil
}

// Close closes the NATS connection.
func (n *Notifier) Close() {
	n.conn.Close()
}

func nodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return host
}
