package filestore_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dispatch/internal/adapters/out/filestore"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moscow(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	return loc
}

func newLedgerFile(t *testing.T) (*filestore.LedgerFile, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.txt")
	f, err := filestore.NewLedgerFile(path, moscow(t))
	require.NoError(t, err)
	return f, path
}

func pendingOrder(t *testing.T, id kernel.OrderID, requester kernel.ParticipantID, at time.Time) *order.Order {
	t.Helper()
	o, err := order.NewOrder(id, requester, "Pizzeria", "13:30",
		[]kernel.Distance{kernel.Near, kernel.Far}, 15, 7, at)
	require.NoError(t, err)
	return o
}

func TestLedgerFile_WritesFixedFieldOrder(t *testing.T) {
	f, path := newLedgerFile(t)
	at := time.Date(2025, 3, 14, 9, 5, 7, 0, time.UTC) // 12:05:07 in Moscow

	require.NoError(t, f.Add(t.Context(), pendingOrder(t, 17, 100, at)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "17|100|Pizzeria|13:30|2|near,far|15|pending|2025-03-14|12:05:07|7\n", string(data))
}

func TestLedgerFile_RefusesReservedCharacters(t *testing.T) {
	ctx := t.Context()
	f, path := newLedgerFile(t)
	at := time.Date(2025, 3, 14, 12, 0, 0, 0, moscow(t))
	require.NoError(t, f.Add(ctx, pendingOrder(t, 1, 100, at)))

	for i, origin := range []string{"Pizza|Pasta", `Cafe "Luna"`, "Lenina\n5"} {
		o, err := order.NewOrder(kernel.OrderID(i+2), 100, origin, "13:30",
			[]kernel.Distance{kernel.Near}, 7, 7, at)
		require.NoError(t, err)
		assert.ErrorIs(t, f.Add(ctx, o), errs.ErrValueIsInvalid, origin)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
	orders, err := f.List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestLedgerFile_KeepsLeadingSpaceUnquoted(t *testing.T) {
	ctx := t.Context()
	f, path := newLedgerFile(t)
	at := time.Date(2025, 3, 14, 12, 0, 0, 0, moscow(t))
	o, err := order.NewOrder(1, 100, " Pizzeria", "13:30", []kernel.Distance{kernel.Near}, 7, 7, at)
	require.NoError(t, err)
	require.NoError(t, f.Add(ctx, o))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "|100| Pizzeria|13:30|")
	got, err := f.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, " Pizzeria", got.Origin())
}

func TestLedgerFile_RoundTrip(t *testing.T) {
	ctx := t.Context()
	f, _ := newLedgerFile(t)
	at := time.Date(2025, 3, 14, 12, 0, 0, 0, moscow(t))
	o := pendingOrder(t, 1, 100, at)
	require.NoError(t, f.Add(ctx, o))

	require.NoError(t, o.TransitionTo(order.Declined, nil))
	require.NoError(t, f.Update(ctx, o))

	got, err := f.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, order.Declined, got.Status())
	assert.Nil(t, got.Courier())
	assert.Equal(t, []kernel.Distance{kernel.Near, kernel.Far}, got.Distances())
	assert.True(t, at.Equal(got.CreatedAt()))
}

func TestLedgerFile_Errors(t *testing.T) {
	ctx := t.Context()
	f, _ := newLedgerFile(t)
	o := pendingOrder(t, 1, 100, time.Now())
	require.NoError(t, f.Add(ctx, o))

	assert.ErrorIs(t, f.Add(ctx, o), errs.ErrObjectAlreadyExists)

	_, err := f.Get(ctx, 2)
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)

	assert.ErrorIs(t, f.Update(ctx, pendingOrder(t, 2, 100, time.Now())), errs.ErrObjectNotFound)
	assert.ErrorIs(t, f.Remove(ctx, 2), errs.ErrObjectNotFound)
}

func TestLedgerFile_GetLastInStatusFor(t *testing.T) {
	ctx := t.Context()
	f, _ := newLedgerFile(t)
	base := time.Date(2025, 3, 14, 10, 0, 0, 0, moscow(t))

	for i, requester := range []kernel.ParticipantID{100, 100, 200, 100} {
		o := pendingOrder(t, kernel.OrderID(i+1), requester, base.Add(time.Duration(i)*time.Minute))
		if i != 3 {
			require.NoError(t, o.TransitionTo(order.Accepted, nil))
		}
		require.NoError(t, f.Add(ctx, o))
	}

	got, err := f.GetLastInStatusFor(ctx, 100, order.Accepted)
	require.NoError(t, err)
	assert.Equal(t, kernel.OrderID(2), got.ID())

	_, err = f.GetLastInStatusFor(ctx, 300, order.Accepted)
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestLedgerFile_RemoveAndReset(t *testing.T) {
	ctx := t.Context()
	f, _ := newLedgerFile(t)
	for id := kernel.OrderID(3); id >= 1; id-- {
		require.NoError(t, f.Add(ctx, pendingOrder(t, id, 100, time.Now())))
	}

	require.NoError(t, f.Remove(ctx, 2))
	all, err := f.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, kernel.OrderID(1), all[0].ID())
	assert.Equal(t, kernel.OrderID(3), all[1].ID())

	require.NoError(t, f.RemoveAll(ctx))
	all, err = f.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLedgerFile_ReadsLegacyLines(t *testing.T) {
	f, path := newLedgerFile(t)
	legacy := strings.Join([]string{
		"Заказ #5|100|Шаурма|14:00|2|Ближнее, Дальнее|15|accepted|2025-03-14|11:00:00|7",
		"Заказ #6|100|Шаурма|15:00|1|Дальнее|8|declined|2025-03-14|11:30:00|7",
		"Заказ #7|100|Шаурма|16:00|1|Ближнее|7|declined|2025-03-14|12:00:00",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	all, err := f.List(t.Context())

	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, kernel.OrderID(5), all[0].ID())
	assert.Equal(t, []kernel.Distance{kernel.Near, kernel.Far}, all[0].Distances())
	assert.Nil(t, all[1].Courier(), "declined orders carry no courier")
	assert.Equal(t, order.Declined, all[1].Status())
	assert.Equal(t, kernel.OrderID(7), all[2].ID())
	assert.Nil(t, all[2].Courier())
}

func TestLedgerFile_RejectsMalformedRecords(t *testing.T) {
	tests := map[string]string{
		"pending without courier": "7|100|A|16:00|1|near|7|pending|2025-03-14|12:00:00|None\n",
		"packages mismatch":       "7|100|A|16:00|3|near|7|declined|2025-03-14|12:00:00|None\n",
		"unknown status":          "7|100|A|16:00|1|near|7|lost|2025-03-14|12:00:00|None\n",
		"too few fields":          "7|100|A|16:00|1|near\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			f, path := newLedgerFile(t)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			_, err := f.List(t.Context())

			assert.ErrorIs(t, err, filestore.ErrMalformedRecord)
		})
	}
}
