package notify

import (
	"context"
	"log/slog"

	"dispatch/internal/core/ports"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier writes messages to the log and never fails. Used when no
// broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "log_notifier")}
}

func (n *LogNotifier) Send(ctx context.Context, msg ports.Message) error {
	actions := make([]string, len(msg.Actions))
	for i, a := range msg.Actions {
		actions[i] = string(a.Kind)
	}
	n.logger.InfoContext(ctx, "Notification",
		"recipient_id", msg.Recipient,
		"kind", msg.Kind,
		"order_id", msg.OrderID,
		"attributes", msg.Attributes,
		"actions", actions,
	)
	return nil
}
