package pubsub

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
)

// NATSPubSub shares events between instances through a remote NATS JetStream server
type NATSPubSub struct {
	stream
}

// NewNATSPubSub connects to NATS and ensures the event stream exists
func NewNATSPubSub(natsURL, subject string) (*NATSPubSub, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("fighter-matchup"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := ensureStream(js, DefaultStreamName, subject, nats.FileStorage, 24*time.Hour); err != nil {
		nc.Close()
		return nil, err
	}

	ps := &NATSPubSub{stream: stream{nc: nc, js: js, subject: subject}}
	if err := ps.listen(); err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("Connected to NATS JetStream", "url", natsURL, "subject", subject)
	return ps, nil
}

// Close drains local subscribers and closes the connection
func (p *NATSPubSub) Close() {
	p.close()
}
