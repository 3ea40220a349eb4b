package pubsub

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/metrics"
)

// DefaultStreamName is the JetStream stream holding matchup events
const DefaultStreamName = "MATCHUP_EVENTS"

const jetStreamBuffer = 100

// stream is a JetStream subject whose deliveries are fanned out to local
// channels. Both the remote and the embedded broker are built on it.
type stream struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	sub     *nats.Subscription
	subject string
	subs    subscriberSet
}

// ensureStream creates the stream if it does not exist yet
func ensureStream(js nats.JetStreamContext, name, subject string, storage nats.StorageType, maxAge time.Duration) error {
	if _, err := js.StreamInfo(name); err == nil {
		return nil
	}
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: []string{subject},
		Storage:  storage,
		MaxAge:   maxAge,
	})
	if err != nil {
		return fmt.Errorf("failed to create JetStream stream: %w", err)
	}
	logger.Info("JetStream stream created", "stream", name, "subject", subject)
	return nil
}

// listen starts an ephemeral consumer that delivers new messages only, so
// every instance sees every event published after it starts
func (s *stream) listen() error {
	sub, err := s.js.Subscribe(s.subject, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("Failed to unmarshal event from JetStream", "error", err)
			msg.Term()
			return
		}
		s.subs.send(event)
		msg.Ack()
	}, nats.ManualAck(), nats.DeliverNew())
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.subject, err)
	}
	s.sub = sub
	logger.Debug("Subscribed to JetStream", "subject", s.subject)
	return nil
}

// Publish writes an event to the stream
func (s *stream) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		metrics.EventPublishErrors.Inc()
		logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return
	}
	if _, err := s.js.Publish(s.subject, data); err != nil {
		metrics.EventPublishErrors.Inc()
		logger.Error("Failed to publish to NATS", "error", err, "subject", s.subject, "event_type", event.Type)
		return
	}
	logger.Debug("Published event to NATS", "event_type", event.Type, "subject", s.subject)
}

// Subscribe creates a subscription channel for events
func (s *stream) Subscribe() chan Event {
	return s.subs.add(jetStreamBuffer)
}

// Unsubscribe removes a subscription channel
func (s *stream) Unsubscribe(ch chan Event) {
	s.subs.remove(ch)
}

// SubscriberCount returns the number of active local subscribers
func (s *stream) SubscriberCount() int {
	return s.subs.count()
}

// Ping round-trips to the server, for health checks
func (s *stream) Ping(ctx context.Context) error {
	if s.nc == nil || !s.nc.IsConnected() {
		return fmt.Errorf("nats connection is %v", s.status())
	}
	return s.nc.FlushWithContext(ctx)
}

func (s *stream) status() nats.Status {
	if s.nc == nil {
		return nats.CLOSED
	}
	return s.nc.Status()
}

func (s *stream) close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	s.subs.closeAll()
	if s.nc != nil {
		s.nc.Close()
	}
}
