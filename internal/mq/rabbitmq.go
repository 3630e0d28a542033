package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cinescope/apiserver/config"
	"github.com/cinescope/apiserver/internal/logging"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQClient publishes to fanout exchanges named after the channel. Each
// subscriber binds its own exclusive queue, so every subscriber sees every
// message published while it is connected.
type RabbitMQClient struct {
	conn     *amqp.Connection
	durable  bool
	prefetch int

	pubMu    sync.Mutex
	pub      *amqp.Channel
	declared map[string]bool
}

// NewRabbitMQClient dials the broker and opens the publishing channel.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	pub, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQClient{
		conn:     conn,
		durable:  cfg.Durable,
		prefetch: cfg.PrefetchCount,
		pub:      pub,
		declared: map[string]bool{},
	}, nil
}

// Publish sends a message to the exchange named channel.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq channel is required")
	}

	headers := amqp.Table{}
	for key, value := range attrs {
		headers[key] = value
	}
	msg := amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		MessageId:   uuid.NewString(),
		Type:        attrs[AttrEvent],
		Headers:     headers,
		Body:        data,
	}
	if r.durable {
		msg.DeliveryMode = amqp.Persistent
	}

	// amqp channels are not safe for concurrent publishing.
	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	if !r.declared[channel] {
		if err := r.declareExchange(r.pub, channel); err != nil {
			return "", err
		}
		r.declared[channel] = true
	}
	if err := r.pub.PublishWithContext(ctx, channel, "", false, false, msg); err != nil {
		return "", err
	}
	return msg.MessageId, nil
}

// Subscribe binds a private queue to the channel's exchange and consumes it
// until ctx ends. The queue is removed when the subscriber goes away.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if r.prefetch > 0 {
		if err := ch.Qos(r.prefetch, 0, false); err != nil {
			return err
		}
	}
	if err := r.declareExchange(ch, channel); err != nil {
		return err
	}

	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare subscriber queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", channel, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", queue.Name, channel, err)
	}

	consumerTag := "cinescope-" + uuid.NewString()
	deliveries, err := ch.Consume(queue.Name, consumerTag, false, true, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = ch.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			message := Message{
				ID:         delivery.MessageId,
				Data:       delivery.Body,
				Attributes: headersToAttributes(delivery.Headers),
			}
			if err := handler(ctx, message); err != nil {
				// The queue only feeds this subscriber, so a requeue would redeliver forever.
				logging.Ctx(ctx).Warn().Err(err).Str("message_id", delivery.MessageId).Msg("dropping event after handler error")
				_ = delivery.Nack(false, false)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes the publishing channel and the connection.
func (r *RabbitMQClient) Close() error {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	if r.pub != nil {
		_ = r.pub.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) declareExchange(ch *amqp.Channel, name string) error {
	if err := ch.ExchangeDeclare(name, amqp.ExchangeFanout, r.durable, !r.durable, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	return nil
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}
