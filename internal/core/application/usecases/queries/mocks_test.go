package queries_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderReader struct{ mock.Mock }

func (m *MockOrderReader) FindByID(ctx context.Context, id kernel.OrderID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderReader) FindLastAcceptedFor(ctx context.Context, requester kernel.ParticipantID) (*order.Order, error) {
	args := m.Called(ctx, requester)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderReader) List(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	o, _ := args.Get(0).([]*order.Order)
	return o, args.Error(1)
}

type MockCourierNames struct{ mock.Mock }

func (m *MockCourierNames) WorkerDisplayName(ctx context.Context, id kernel.ParticipantID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

var day = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func restore(
	t *testing.T,
	id kernel.OrderID,
	requester kernel.ParticipantID,
	status order.Status,
	courier kernel.ParticipantID,
	createdAt time.Time,
	distances ...kernel.Distance,
) *order.Order {
	t.Helper()
	var c *kernel.ParticipantID
	if courier != 0 {
		c = &courier
	}
	price, err := kernel.DefaultTariff().PriceOf(distances)
	require.NoError(t, err)
	o, err := order.RestoreOrder(id, requester, "Pizzeria", "13:00", distances, price, status, createdAt, c)
	require.NoError(t, err)
	return o
}
