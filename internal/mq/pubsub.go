package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/cinescope/apiserver/config"
	"github.com/cinescope/apiserver/internal/logging"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// minSubscriptionTTL is the shortest expiration Pub/Sub accepts.
const minSubscriptionTTL = 24 * time.Hour

// PubSubClient publishes to topics named after the channel. Each subscriber
// gets its own subscription, deleted when Subscribe returns and expired by
// Pub/Sub if the process dies first.
type PubSubClient struct {
	client *pubsub.Client
	ttl    time.Duration

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubClient constructs a Pub/Sub client from config.
func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	ttl := cfg.SubscriptionTTL
	if ttl < minSubscriptionTTL {
		ttl = minSubscriptionTTL
	}

	return &PubSubClient{
		client: client,
		ttl:    ttl,
		topics: map[string]*pubsub.Topic{},
	}, nil
}

// Publish sends a message to the named topic and waits for the server id.
func (p *PubSubClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("pubsub channel is required")
	}

	topic, err := p.topic(ctx, channel)
	if err != nil {
		return "", err
	}
	result := topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	return result.Get(ctx)
}

// Subscribe receives every message published to channel after the call
// until ctx ends.
func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("pubsub channel is required")
	}

	topic, err := p.topic(ctx, channel)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s-tail-%s", channel, uuid.NewString()[:8])
	sub, err := p.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
		Topic:            topic,
		AckDeadline:      20 * time.Second,
		ExpirationPolicy: p.ttl,
	})
	if err != nil {
		return fmt.Errorf("create subscription %s: %w", name, err)
	}
	defer func() {
		cleanup, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sub.Delete(cleanup); err != nil {
			logging.Warn().Err(err).Str("subscription", name).Msg("delete subscription")
		}
	}()

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		message := Message{
			ID:         msg.ID,
			Data:       msg.Data,
			Attributes: msg.Attributes,
		}
		if err := handler(ctx, message); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("message_id", msg.ID).Msg("event handler failed")
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close flushes pending publishes and closes the client.
func (p *PubSubClient) Close() error {
	p.mu.Lock()
	for _, topic := range p.topics {
		topic.Stop()
	}
	p.topics = map[string]*pubsub.Topic{}
	p.mu.Unlock()
	return p.client.Close()
}

// topic returns the cached handle for name, creating the topic on first use.
func (p *PubSubClient) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if topic, ok := p.topics[name]; ok {
		return topic, nil
	}

	topic := p.client.Topic(name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", name, err)
	}
	if !exists {
		if topic, err = p.client.CreateTopic(ctx, name); err != nil {
			return nil, fmt.Errorf("create topic %s: %w", name, err)
		}
	}
	p.topics[name] = topic
	return topic, nil
}
