// Package kafka consumes courier button presses relayed by the chat gateway.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"dispatch/internal/core/application/amendments"
	"dispatch/internal/core/application/dispatch"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/tracing"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/attribute"
)

var ErrMalformedAction = errors.New("malformed courier action")

type CourierActionHandler interface {
	Handle(ctx context.Context, cmd commands.CourierActionCommand) (*order.Order, error)
}

// actionEvent is the record value. A missing event_id gets a fresh one.
type actionEvent struct {
	EventID   string `json:"event_id,omitempty"`
	Kind      string `json:"kind"`
	OrderID   int64  `json:"order_id"`
	CourierID int64  `json:"courier_id"`
}

type Config struct {
	Brokers       []string
	ConsumerGroup string
	Topic         string
}

type Consumer struct {
	client  *kgo.Client
	handler CourierActionHandler
	logger  *slog.Logger
}

func NewConsumer(cfg Config, handler CourierActionHandler, logger *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = "dispatch"
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return newConsumer(client, handler, logger), nil
}

func newConsumer(client *kgo.Client, handler CourierActionHandler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		client:  client,
		handler: handler,
		logger:  logger.With("component", "kafka_consumer"),
	}
}

// Run polls until ctx is cancelled or the client is closed. Handler
// failures are logged and the record is skipped; actions are not retried.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.InfoContext(ctx, "Consuming courier actions")
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "Fetch failed", "topic", topic, "partition", partition, "error", err)
		})

		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			if err := c.HandleRecord(ctx, record); err != nil {
				c.logger.ErrorContext(ctx, "Courier action failed",
					"topic", record.Topic, "offset", record.Offset, "error", err)
			}
		}
	}
}

// HandleRecord decodes one record and routes it. Stale presses (a second
// tap, a late tap after redirection) are logged and swallowed.
func (c *Consumer) HandleRecord(ctx context.Context, record *kgo.Record) (err error) {
	ctx, span := tracing.StartLinked(ctx, "kafka.courier_action",
		tracing.LinksFromKafkaHeaders(ctx, record.Headers),
		attribute.String("messaging.destination", record.Topic),
		attribute.Int64("messaging.kafka.offset", record.Offset),
	)
	defer func() { tracing.End(span, err) }()

	cmd, err := decode(record.Value)
	if err != nil {
		return err
	}
	span.SetAttributes(
		attribute.String("action.kind", string(cmd.Kind())),
		attribute.Int64("order.id", cmd.OrderID().Int64()),
	)

	if _, err = c.handler.Handle(ctx, cmd); err != nil {
		if isStale(err) {
			c.logger.InfoContext(ctx, "Ignoring stale courier action",
				"event_id", cmd.EventID(), "kind", cmd.Kind(), "order_id", cmd.OrderID(), "reason", err)
			return nil
		}
		return fmt.Errorf("handle %s for order %d: %w", cmd.Kind(), cmd.OrderID(), err)
	}
	return nil
}

func (c *Consumer) Close() {
	c.client.Close()
}

func decode(value []byte) (commands.CourierActionCommand, error) {
	var event actionEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return commands.CourierActionCommand{}, fmt.Errorf("%w: %w", ErrMalformedAction, err)
	}

	eventID := kernel.NewEventID()
	if event.EventID != "" {
		var err error
		if eventID, err = kernel.EventIDFromString(event.EventID); err != nil {
			return commands.CourierActionCommand{}, fmt.Errorf("%w: %w", ErrMalformedAction, err)
		}
	}

	cmd, err := commands.NewCourierActionCommand(eventID, ports.ActionKind(event.Kind),
		kernel.OrderID(event.OrderID), kernel.ParticipantID(event.CourierID))
	if err != nil {
		return commands.CourierActionCommand{}, fmt.Errorf("%w: %w", ErrMalformedAction, err)
	}
	return cmd, nil
}

func isStale(err error) bool {
	return errors.Is(err, dispatch.ErrStaleAction) ||
		errors.Is(err, amendments.ErrNoPendingAmendment)
}
