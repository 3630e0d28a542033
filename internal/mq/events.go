package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/cinescope/apiserver/internal/metrics"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// AttrEvent is the message attribute carrying the event type.
const AttrEvent = "event"

// Envelope is the JSON body of every published domain event.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Publisher emits domain events on a single channel.
type Publisher struct {
	mq      *MQ
	channel string
	now     func() time.Time
}

func NewPublisher(m *MQ, channel string) *Publisher {
	return &Publisher{mq: m, channel: channel, now: time.Now}
}

// Publish wraps payload in an Envelope and sends it.
func (p *Publisher) Publish(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	body, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       event,
		OccurredAt: p.now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", event, err)
	}

	if _, err := p.mq.Publish(ctx, p.channel, body, map[string]string{AttrEvent: event}); err != nil {
		metrics.EventsPublished.WithLabelValues(event, "error").Inc()
		return fmt.Errorf("publish %s: %w", event, err)
	}
	metrics.EventsPublished.WithLabelValues(event, "success").Inc()
	return nil
}

// Tail decodes every event on channel and passes it to fn until ctx ends.
// Malformed messages are acknowledged and skipped.
func Tail(ctx context.Context, m *MQ, channel string, fn func(Envelope) error) error {
	return m.Subscribe(ctx, channel, func(ctx context.Context, msg Message) error {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			return nil
		}
		return fn(env)
	})
}
