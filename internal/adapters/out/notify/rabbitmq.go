package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/tracing"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultConfirmTimeout = 5 * time.Second
	confirmBuffer         = 64
)

var (
	ErrPublishNacked = errors.New("broker refused the message")
	ErrChannelClosed = errors.New("amqp channel closed")
)

// Publisher publishes one message and waits for the broker's verdict.
type Publisher interface {
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error
}

// confirmChannel is the part of *amqp.Channel the client publishes through.
type confirmChannel interface {
	GetNextPublishSeqNo() uint64
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPClient is a confirm-mode channel. Publishes are serialized and each
// waits for the confirmation carrying its own delivery tag. Confirmations
// for earlier publishes that already gave up waiting are discarded.
type AMQPClient struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	pub  confirmChannel
	acks <-chan amqp.Confirmation
	mu   sync.Mutex
}

// DialAMQP connects, enables publisher confirms and declares exchange as a
// durable topic exchange.
func DialAMQP(url, exchange string) (*AMQPClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err = ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	if err = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer))

	client := newAMQPClient(ch, acks)
	client.conn, client.ch = conn, ch
	return client, nil
}

func newAMQPClient(pub confirmChannel, acks <-chan amqp.Confirmation) *AMQPClient {
	return &AMQPClient{pub: pub, acks: acks}
}

func (c *AMQPClient) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tag := c.pub.GetNextPublishSeqNo()
	if err := c.pub.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		return err
	}

	for {
		select {
		case conf, ok := <-c.acks:
			if !ok {
				return ErrChannelClosed
			}
			if conf.DeliveryTag < tag {
				continue
			}
			if !conf.Ack {
				return ErrPublishNacked
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *AMQPClient) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// RabbitNotifier publishes each message to a topic exchange under
// "notify.<kind>". A nack or a confirmation that does not arrive within the
// confirm timeout is a delivery failure.
type RabbitNotifier struct {
	publisher      Publisher
	exchange       string
	confirmTimeout time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

var _ ports.Notifier = (*RabbitNotifier)(nil)

func NewRabbitNotifier(publisher Publisher, exchange string, confirmTimeout time.Duration, logger *slog.Logger) (*RabbitNotifier, error) {
	if publisher == nil {
		return nil, errs.NewValueIsRequiredError("publisher")
	}
	if exchange == "" {
		return nil, errs.NewValueIsRequiredError("exchange")
	}
	if confirmTimeout <= 0 {
		confirmTimeout = defaultConfirmTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RabbitNotifier{
		publisher:      publisher,
		exchange:       exchange,
		confirmTimeout: confirmTimeout,
		now:            time.Now,
		logger:         logger.With("component", "rabbit_notifier"),
	}, nil
}

func (n *RabbitNotifier) Send(ctx context.Context, msg ports.Message) error {
	if err := msg.Recipient.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrNotificationFailed, err)
	}

	now := n.now()
	body, err := json.Marshal(newEnvelope(msg, now))
	if err != nil {
		return fmt.Errorf("%w: encode message: %w", ports.ErrNotificationFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.confirmTimeout)
	defer cancel()

	key := RoutingKey(msg.Kind)
	err = n.publisher.Publish(ctx, n.exchange, key, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    now,
		Headers:      tracing.InjectAMQPHeaders(ctx),
		Body:         body,
	})
	if err != nil {
		n.logger.WarnContext(ctx, "Publish failed",
			"routing_key", key, "recipient_id", msg.Recipient, "order_id", msg.OrderID, "error", err)
		return fmt.Errorf("%w: %w", ports.ErrNotificationFailed, err)
	}

	n.logger.DebugContext(ctx, "Message published", "routing_key", key, "recipient_id", msg.Recipient)
	return nil
}

func RoutingKey(kind ports.MessageKind) string {
	return "notify." + string(kind)
}
