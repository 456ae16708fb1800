package order_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC)

func newPendingOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(
		1, 100, "Pizzeria", "13:00",
		[]kernel.Distance{kernel.Near, kernel.Far},
		13, 7, createdAt,
	)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("should create pending order assigned to courier", func(t *testing.T) {
		o := newPendingOrder(t)

		require.NoError(t, o.Validate())
		assert.Equal(t, kernel.OrderID(1), o.ID())
		assert.Equal(t, kernel.ParticipantID(100), o.Requester())
		assert.Equal(t, "Pizzeria", o.Origin())
		assert.Equal(t, "13:00", o.TimeWindow())
		assert.Equal(t, 2, o.Packages())
		assert.Equal(t, []kernel.Distance{kernel.Near, kernel.Far}, o.Distances())
		assert.Equal(t, 13, o.Price())
		assert.Equal(t, order.Pending, o.Status())
		assert.Equal(t, createdAt, o.CreatedAt())
		require.NotNil(t, o.Courier())
		assert.True(t, o.IsAssignedTo(7))
	})

	t.Run("should collect every validation error", func(t *testing.T) {
		o, err := order.NewOrder(0, 0, " ", "", nil, -1, 0, time.Time{})

		require.Error(t, err)
		assert.Nil(t, o)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "order id")
		assert.Contains(t, err.Error(), "origin")
		assert.Contains(t, err.Error(), "time window")
		assert.Contains(t, err.Error(), "distances")
		assert.Contains(t, err.Error(), "price")
		assert.Contains(t, err.Error(), "created at")
	})

	t.Run("should not share the caller's distance slice", func(t *testing.T) {
		ds := []kernel.Distance{kernel.Near}
		o, err := order.NewOrder(1, 100, "A", "B", ds, 7, 7, createdAt)
		require.NoError(t, err)

		ds[0] = kernel.Far
		assert.Equal(t, []kernel.Distance{kernel.Near}, o.Distances())
	})
}

func TestRestoreOrder(t *testing.T) {
	courier := kernel.ParticipantID(7)

	t.Run("should restore declined order without courier", func(t *testing.T) {
		o, err := order.RestoreOrder(3, 100, "A", "B", []kernel.Distance{kernel.Far}, 8, order.Declined, createdAt, nil)

		require.NoError(t, err)
		assert.Equal(t, order.Declined, o.Status())
		assert.Nil(t, o.Courier())
	})

	t.Run("should reject accepted order without courier", func(t *testing.T) {
		_, err := order.RestoreOrder(3, 100, "A", "B", []kernel.Distance{kernel.Far}, 8, order.Accepted, createdAt, nil)

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should reject declined order with courier", func(t *testing.T) {
		_, err := order.RestoreOrder(
			3, 100, "A", "B", []kernel.Distance{kernel.Far}, 8, order.Declined, createdAt, &courier,
		)

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should reject unknown status", func(t *testing.T) {
		_, err := order.RestoreOrder(
			3, 100, "A", "B", []kernel.Distance{kernel.Far}, 8, order.Unknown, createdAt, &courier,
		)

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestOrder_ZeroValue(t *testing.T) {
	var o *order.Order
	assert.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
	assert.ErrorIs(t, (&order.Order{}).Validate(), order.ErrOrderIsNotConstructed)
}

func TestOrder_TransitionTo(t *testing.T) {
	t.Run("accept keeps the assigned courier", func(t *testing.T) {
		o := newPendingOrder(t)

		require.NoError(t, o.TransitionTo(order.Accepted, nil))

		assert.Equal(t, order.Accepted, o.Status())
		assert.True(t, o.IsAssignedTo(7))
	})

	t.Run("decline clears the courier and redirect assigns a new one", func(t *testing.T) {
		o := newPendingOrder(t)
		next := kernel.ParticipantID(8)

		require.NoError(t, o.TransitionTo(order.Declined, nil))
		assert.Nil(t, o.Courier())

		require.NoError(t, o.TransitionTo(order.Pending, &next))
		assert.Equal(t, order.Pending, o.Status())
		assert.True(t, o.IsAssignedTo(8))
	})

	t.Run("redirect without courier is rejected", func(t *testing.T) {
		o := newPendingOrder(t)
		require.NoError(t, o.TransitionTo(order.Declined, nil))

		err := o.TransitionTo(order.Pending, nil)

		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Equal(t, order.Declined, o.Status())
	})

	t.Run("delivered is terminal", func(t *testing.T) {
		o := newPendingOrder(t)
		require.NoError(t, o.TransitionTo(order.Accepted, nil))
		require.NoError(t, o.TransitionTo(order.Delivered, nil))

		for _, next := range []order.Status{order.Pending, order.Accepted, order.Declined, order.Delivered} {
			assert.ErrorIs(t, o.TransitionTo(next, nil), order.ErrTransitionNotAllowed)
		}
		assert.Equal(t, order.Delivered, o.Status())
		assert.True(t, o.IsAssignedTo(7))
	})

	t.Run("pending cannot jump to delivered", func(t *testing.T) {
		o := newPendingOrder(t)

		err := o.TransitionTo(order.Delivered, nil)

		assert.ErrorIs(t, err, order.ErrTransitionNotAllowed)
		assert.Contains(t, err.Error(), "pending -> delivered")
	})
}

func TestOrder_Amend(t *testing.T) {
	t.Run("should extend distances and price", func(t *testing.T) {
		o := newPendingOrder(t)

		require.NoError(t, o.Amend([]kernel.Distance{kernel.Near, kernel.Far}, 13))

		assert.Equal(t, 4, o.Packages())
		assert.Equal(t, []kernel.Distance{kernel.Near, kernel.Far, kernel.Near, kernel.Far}, o.Distances())
		assert.Equal(t, 26, o.Price())
	})

	t.Run("should reject empty amendment", func(t *testing.T) {
		o := newPendingOrder(t)

		assert.ErrorIs(t, o.Amend(nil, 0), errs.ErrValueIsRequired)
		assert.Equal(t, 2, o.Packages())
	})
}

func TestOrder_SetAmounts(t *testing.T) {
	o := newPendingOrder(t)

	err := o.SetAmounts(3, []kernel.Distance{kernel.Near}, 7)
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)

	require.NoError(t, o.SetAmounts(1, []kernel.Distance{kernel.Far}, 8))
	assert.Equal(t, 1, o.Packages())
	assert.Equal(t, 8, o.Price())
}

func TestOrder_Clone(t *testing.T) {
	o := newPendingOrder(t)
	c := o.Clone()

	require.NoError(t, c.TransitionTo(order.Declined, nil))
	require.NoError(t, c.Amend([]kernel.Distance{kernel.Near}, 5))

	assert.Equal(t, order.Pending, o.Status())
	assert.True(t, o.IsAssignedTo(7))
	assert.Equal(t, 2, o.Packages())
}
