// Package pubsub fans matchup activity events out to live feed clients,
// optionally through a NATS JetStream subject shared by every instance.
package pubsub

import (
	"sync"
	"time"

	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/metrics"
)

// Event types
const (
	EventMatchupResolved = "matchup:resolved"
	EventMatchupPromoted = "matchup:promoted"
	EventOpponents       = "matchup:opponents"
	EventBatch           = "matchup:batch"
	EventPools           = "matchup:pools"
)

const subscriberBuffer = 10

// Event represents a pubsub event
type Event struct {
	Type    string         `json:"type"`
	Time    time.Time      `json:"time"`
	Payload map[string]any `json:"payload,omitempty"`
}

// NewEvent stamps an event with the current time
func NewEvent(typ string, payload map[string]any) Event {
	return Event{Type: typ, Time: time.Now().UTC(), Payload: payload}
}

// Upstream is a broker that rebroadcasts published events to every instance
type Upstream interface {
	Publish(Event)
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// PubSub delivers events to in-process subscribers such as SSE clients
type PubSub struct {
	subs     subscriberSet
	upstream Upstream
}

// New creates a PubSub that only delivers locally
func New() *PubSub {
	return &PubSub{}
}

// NewWithUpstream creates a PubSub bridged to a broker. Publish goes to the
// broker; whatever the broker delivers is forwarded to local subscribers.
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := &PubSub{upstream: upstream}

	ch := upstream.Subscribe()
	go func() {
		for event := range ch {
			ps.subs.send(event)
		}
		logger.Debug("PubSub: upstream channel closed")
	}()

	return ps
}

// Subscribe adds a new subscriber and returns a channel for receiving events
func (ps *PubSub) Subscribe() chan Event {
	return ps.subs.add(subscriberBuffer)
}

// Unsubscribe removes a subscriber and closes its channel
func (ps *PubSub) Unsubscribe(ch chan Event) {
	ps.subs.remove(ch)
}

// SubscriberCount returns the number of local subscribers
func (ps *PubSub) SubscriberCount() int {
	return ps.subs.count()
}

// Publish sends an event to every subscriber, through the upstream when set
func (ps *PubSub) Publish(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	metrics.EventsPublished.WithLabelValues(event.Type).Inc()

	if ps.upstream != nil {
		ps.upstream.Publish(event)
		return
	}
	ps.subs.send(event)
}

// subscriberSet is a list of buffered channels safe for concurrent use
type subscriberSet struct {
	mu   sync.RWMutex
	subs []chan Event
}

func (s *subscriberSet) add(buffer int) chan Event {
	ch := make(chan Event, buffer)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	n := len(s.subs)
	s.mu.Unlock()
	logger.Debug("PubSub: subscriber added", "total_subscribers", n)
	return ch
}

func (s *subscriberSet) remove(ch chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub == ch {
			close(ch)
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *subscriberSet) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// send delivers to every subscriber without blocking. Full channels are
// skipped; the read lock keeps remove from closing a channel mid-send.
func (s *subscriberSet) send(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- event:
		default:
			logger.Debug("PubSub: skipping slow subscriber", "type", event.Type)
		}
	}
}

func (s *subscriberSet) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}
