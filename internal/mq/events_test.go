package mq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cinescope/apiserver/config"
	"github.com/goccy/go-json"
)

type published struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type memBackend struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (m *memBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.messages = append(m.messages, published{channel: channel, data: data, attrs: attrs})
	return "id", nil
}

func (m *memBackend) Subscribe(ctx context.Context, _ string, handler Handler) error {
	m.mu.Lock()
	msgs := append([]published(nil), m.messages...)
	m.mu.Unlock()
	for _, msg := range msgs {
		if err := handler(ctx, Message{Data: msg.data, Attributes: msg.attrs}); err != nil {
			return err
		}
	}
	return nil
}

func (m *memBackend) Close() error { return nil }

func TestPublisherWrapsEnvelope(t *testing.T) {
	backend := &memBackend{}
	p := NewPublisher(New(backend), "events")
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	if err := p.Publish(context.Background(), "review.created", map[string]string{"id": "r1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(backend.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(backend.messages))
	}
	msg := backend.messages[0]
	if msg.channel != "events" || msg.attrs[AttrEvent] != "review.created" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	var env Envelope
	if err := json.Unmarshal(msg.data, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != "review.created" || env.ID == "" || !env.OccurredAt.Equal(p.now()) {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if string(env.Data) != `{"id":"r1"}` {
		t.Fatalf("unexpected data: %s", env.Data)
	}
}

func TestPublisherReportsBackendError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewPublisher(New(&memBackend{err: boom}), "events")
	if err := p.Publish(context.Background(), "user.registered", struct{}{}); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestTailSkipsMalformedMessages(t *testing.T) {
	backend := &memBackend{}
	m := New(backend)
	p := NewPublisher(m, "events")
	backend.messages = append(backend.messages, published{channel: "events", data: []byte("not json")})
	if err := p.Publish(context.Background(), "user.registered", map[string]string{"id": "u1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var got []string
	err := Tail(context.Background(), m, "events", func(env Envelope) error {
		got = append(got, env.Type)
		return nil
	})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(got) != 1 || got[0] != "user.registered" {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestOpenDisabled(t *testing.T) {
	m, err := Open(context.Background(), configWithBackend(""))
	if err != nil || m != nil {
		t.Fatalf("expected nil mq, got %v %v", m, err)
	}
	if _, err := Open(context.Background(), configWithBackend("kafka")); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func configWithBackend(backend string) config.MQConfig {
	return config.MQConfig{Backend: backend}
}
