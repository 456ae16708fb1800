package dispatch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"dispatch/internal/adapters/out/filestore"
	"dispatch/internal/core/application/dispatch"
	"dispatch/internal/core/application/ledger"
	"dispatch/internal/core/application/rotationqueue"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/require"
)

const (
	requesterID kernel.ParticipantID = 100
	adminID     kernel.ParticipantID = 500
	blockedID   kernel.ParticipantID = 99
	strangerID  kernel.ParticipantID = 77
)

const rosterYAML = `
couriers:
  - {id: 1, name: Anna}
  - {id: 2, name: Boris}
  - {id: 3, name: Vera}
  - {id: 99, name: Blocked}
requesters:
  - {id: 100, tariff: 5/8}
blocked: [99]
`

var errUnreachable = errors.New("recipient unreachable")

type recordingNotifier struct {
	mu   sync.Mutex
	sent []ports.Message
	fail map[kernel.ParticipantID]bool
}

func (n *recordingNotifier) Send(_ context.Context, msg ports.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	if n.fail[msg.Recipient] {
		return errUnreachable
	}
	return nil
}

func (n *recordingNotifier) failFor(ids ...kernel.ParticipantID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, id := range ids {
		n.fail[id] = true
	}
}

func (n *recordingNotifier) ofKind(kind ports.MessageKind) []ports.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []ports.Message
	for _, m := range n.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

type harness struct {
	coord    *dispatch.Coordinator
	ledger   *ledger.Ledger
	queue    *rotationqueue.RotationQueue
	roster   *filestore.RosterFile
	notifier *recordingNotifier
	dir      string
}

func newHarness(t *testing.T, timeout time.Duration, onShift ...kernel.ParticipantID) *harness {
	t.Helper()
	return openHarness(t, t.TempDir(), timeout, onShift...)
}

func openHarness(t *testing.T, dir string, timeout time.Duration, onShift ...kernel.ParticipantID) *harness {
	t.Helper()
	ctx := t.Context()

	rosterPath := filepath.Join(dir, "roster.yaml")
	if _, err := os.Stat(rosterPath); os.IsNotExist(err) {
		require.NoError(t, os.WriteFile(rosterPath, []byte(rosterYAML), 0o600))
	}
	roster, err := filestore.NewRosterFile(rosterPath)
	require.NoError(t, err)

	ledgerFile, err := filestore.NewLedgerFile(filepath.Join(dir, "orders.txt"), time.UTC)
	require.NoError(t, err)
	l, err := ledger.New(ledgerFile, nil)
	require.NoError(t, err)

	state, err := filestore.NewStateFile(filepath.Join(dir, "state.yaml"))
	require.NoError(t, err)
	queue, err := rotationqueue.New(ctx, state, nil)
	require.NoError(t, err)

	notifier := &recordingNotifier{fail: map[kernel.ParticipantID]bool{}}
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	coord, err := dispatch.New(l, queue, state, roster, notifier, dispatch.Config{
		AcceptTimeout: timeout,
		AdminID:       adminID,
		Now:           func() time.Time { return now },
	}, nil)
	require.NoError(t, err)
	t.Cleanup(coord.Stop)

	for _, id := range onShift {
		require.NoError(t, coord.StartShift(ctx, id))
	}

	return &harness{coord: coord, ledger: l, queue: queue, roster: roster, notifier: notifier, dir: dir}
}

func (h *harness) submit(t *testing.T, distances ...kernel.Distance) (*order.Order, error) {
	t.Helper()
	if len(distances) == 0 {
		distances = []kernel.Distance{kernel.Near}
	}
	cmd, err := commands.NewCreateOrderCommand(requesterID, "Pizzeria", "13:00", len(distances), distances)
	require.NoError(t, err)
	return h.coord.Dispatch(t.Context(), cmd)
}

func (h *harness) stored(t *testing.T, id kernel.OrderID) *order.Order {
	t.Helper()
	o, err := h.ledger.FindByID(t.Context(), id)
	require.NoError(t, err)
	return o
}
