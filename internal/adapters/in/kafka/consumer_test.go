package kafka

import (
	"context"
	"fmt"
	"testing"

	"dispatch/internal/core/application/amendments"
	"dispatch/internal/core/application/dispatch"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type MockHandler struct{ mock.Mock }

func (m *MockHandler) Handle(ctx context.Context, cmd commands.CourierActionCommand) (*order.Order, error) {
	args := m.Called(ctx, cmd)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func record(value string) *kgo.Record {
	return &kgo.Record{
		Topic: "courier-actions",
		Value: []byte(value),
		Headers: []kgo.RecordHeader{{
			Key:   "traceparent",
			Value: []byte("00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"),
		}},
	}
}

func TestHandleRecord_Routes(t *testing.T) {
	handler := &MockHandler{}
	eventID := kernel.NewEventID()
	handler.
		On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.CourierActionCommand) bool {
			return cmd.EventID() == eventID && cmd.Kind() == ports.ActionAccept &&
				cmd.OrderID() == 1 && cmd.Courier() == 7
		})).
		Return(nil, nil).
		Once()
	c := newConsumer(nil, handler, nil)

	err := c.HandleRecord(t.Context(),
		record(fmt.Sprintf(`{"event_id":%q,"kind":"accept","order_id":1,"courier_id":7}`, eventID.String())))

	require.NoError(t, err)
	handler.AssertExpectations(t)
}

func TestHandleRecord_AssignsEventID(t *testing.T) {
	handler := &MockHandler{}
	handler.
		On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.CourierActionCommand) bool {
			return cmd.EventID().String() != "" && cmd.Kind() == ports.ActionDelivered
		})).
		Return(nil, nil).
		Once()
	c := newConsumer(nil, handler, nil)

	require.NoError(t, c.HandleRecord(t.Context(), record(`{"kind":"delivered","order_id":2,"courier_id":7}`)))
	handler.AssertExpectations(t)
}

func TestHandleRecord_StaleIsSwallowed(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"stale", fmt.Errorf("order 1: %w", dispatch.ErrStaleAction)},
		{"no amendment", amendments.ErrNoPendingAmendment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &MockHandler{}
			handler.On("Handle", mock.Anything, mock.Anything).Return(nil, tt.err).Once()
			c := newConsumer(nil, handler, nil)

			assert.NoError(t, c.HandleRecord(t.Context(), record(`{"kind":"decline","order_id":1,"courier_id":7}`)))
		})
	}
}

func TestHandleRecord_Failures(t *testing.T) {
	handler := &MockHandler{}
	handler.On("Handle", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()
	c := newConsumer(nil, handler, nil)

	err := c.HandleRecord(t.Context(), record(`{"kind":"confirm","order_id":1,"courier_id":7}`))
	require.ErrorIs(t, err, assert.AnError)

	for _, value := range []string{
		`not json`,
		`{"kind":"wave","order_id":1,"courier_id":7}`,
		`{"event_id":"x","kind":"accept","order_id":1,"courier_id":7}`,
		`{"kind":"accept","order_id":0,"courier_id":7}`,
	} {
		assert.ErrorIs(t, c.HandleRecord(t.Context(), record(value)), ErrMalformedAction, value)
	}
	handler.AssertExpectations(t)
}

func TestNewConsumer_RequiresConfig(t *testing.T) {
	_, err := NewConsumer(Config{Topic: "t"}, &MockHandler{}, nil)
	require.Error(t, err)

	_, err = NewConsumer(Config{Brokers: []string{"localhost:9092"}}, &MockHandler{}, nil)
	require.Error(t, err)
}
