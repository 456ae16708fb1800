package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, msg).Error(0)
}

func assignment(t *testing.T) ports.Message {
	t.Helper()
	o, err := order.NewOrder(12, 100, "Pizzeria", "13:00",
		[]kernel.Distance{kernel.Near, kernel.Far}, 15, 7, time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return ports.Message{
		Recipient: 7,
		Kind:      ports.MessageAssignment,
		OrderID:   12,
		Order:     o,
		Actions: []ports.Action{
			{Kind: ports.ActionAccept, OrderID: 12},
			{Kind: ports.ActionDecline, OrderID: 12},
		},
	}
}

func TestRabbitNotifier_Send(t *testing.T) {
	publisher := new(MockPublisher)
	var published amqp.Publishing
	publisher.On("Publish", mock.Anything, "dispatch", "notify.assignment", mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(3).(amqp.Publishing)
		}).
		Return(nil).Once()

	n, err := notify.NewRabbitNotifier(publisher, "dispatch", time.Second, nil)
	require.NoError(t, err)

	require.NoError(t, n.Send(t.Context(), assignment(t)))

	assert.Equal(t, "application/json", published.ContentType)
	assert.Equal(t, amqp.Persistent, published.DeliveryMode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(published.Body, &body))
	assert.InDelta(t, 7, body["recipient_id"], 0)
	assert.Equal(t, "assignment", body["kind"])
	assert.InDelta(t, 12, body["order_id"], 0)

	payload := body["order"].(map[string]any)
	assert.Equal(t, []any{"near", "far"}, payload["distances"])
	assert.Equal(t, "pending", payload["status"])
	assert.InDelta(t, 7, payload["courier_id"], 0)

	actions := body["actions"].([]any)
	require.Len(t, actions, 2)
	assert.Equal(t, "accept", actions[0].(map[string]any)["kind"])
	publisher.AssertExpectations(t)
}

func TestRabbitNotifier_SendFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"nack", notify.ErrPublishNacked},
		{"confirm timeout", context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := new(MockPublisher)
			publisher.On("Publish", mock.Anything, "dispatch", "notify.assignment", mock.Anything).Return(tt.err).Once()

			n, err := notify.NewRabbitNotifier(publisher, "dispatch", time.Second, nil)
			require.NoError(t, err)

			err = n.Send(t.Context(), assignment(t))

			require.ErrorIs(t, err, ports.ErrNotificationFailed)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRabbitNotifier_RejectsMissingRecipient(t *testing.T) {
	publisher := new(MockPublisher)
	n, err := notify.NewRabbitNotifier(publisher, "dispatch", 0, nil)
	require.NoError(t, err)

	err = n.Send(t.Context(), ports.Message{Kind: ports.MessageEscalation})

	require.ErrorIs(t, err, ports.ErrNotificationFailed)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNewRabbitNotifier_Validation(t *testing.T) {
	_, err := notify.NewRabbitNotifier(nil, "dispatch", 0, nil)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = notify.NewRabbitNotifier(new(MockPublisher), "", 0, nil)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestLogNotifier_Send(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	n := notify.NewLogNotifier(logger)

	require.NoError(t, n.Send(t.Context(), assignment(t)))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Notification", record["msg"])
	assert.Equal(t, "log_notifier", record["component"])
	assert.Equal(t, "assignment", record["kind"])
	assert.Equal(t, []any{"accept", "decline"}, record["actions"])
}
