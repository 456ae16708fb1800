package dispatch

import (
	"context"

	"dispatch/internal/core/domain/model/order"
)

// RecoverPending re-arms acceptance timers for orders left pending by a
// previous run. Each gets a full timeout from now; orders whose timer is
// already running are left alone. Returns the number of timers armed.
func (c *Coordinator) RecoverPending(ctx context.Context) (int, error) {
	orders, err := c.ledger.List(ctx)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, o := range orders {
		if o.Status() != order.Pending || c.timers.Armed(o.ID()) {
			continue
		}
		id, courier := o.ID(), *o.Courier()
		c.timers.Start(id, c.timeout, func() {
			c.onTimeout(id, courier)
		})
		recovered++
	}
	if recovered > 0 {
		c.logger.InfoContext(ctx, "Re-armed acceptance timers", "orders", recovered)
	}
	return recovered, nil
}

// Rollover closes the business day: timers are disarmed, redirection history
// is dropped and the ledger is emptied. Order ids keep counting.
func (c *Coordinator) Rollover(ctx context.Context) error {
	c.timers.StopAll()

	c.triedMu.Lock()
	clear(c.tried)
	c.triedMu.Unlock()

	return c.ledger.ResetAll(ctx)
}

// Stop disarms every timer. Pending orders stay pending in the ledger.
func (c *Coordinator) Stop() {
	if n := c.timers.Len(); n > 0 {
		c.logger.Info("Disarming acceptance timers", "timers", n)
	}
	c.timers.StopAll()
}
