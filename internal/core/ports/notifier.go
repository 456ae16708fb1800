package ports

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// ErrNotificationFailed wraps every delivery failure reported by a Notifier.
var ErrNotificationFailed = errors.New("notification failed")

// MessageKind tells the rendering side which template a message uses. The
// dispatch core never depends on message text.
type MessageKind string

const (
	MessageAssignment         MessageKind = "assignment"
	MessageAccepted           MessageKind = "accepted"
	MessageDelivered          MessageKind = "delivered"
	MessageCancelled          MessageKind = "cancelled"
	MessageAmendmentProposed  MessageKind = "amendment_proposed"
	MessageAmendmentConfirmed MessageKind = "amendment_confirmed"
	MessageAmendmentRejected  MessageKind = "amendment_rejected"
	MessageEscalation         MessageKind = "escalation"
	MessageDailySummary       MessageKind = "daily_summary"
	MessageDeactivated        MessageKind = "deactivated"
)

// ActionKind enumerates the choices a participant can send back.
type ActionKind string

const (
	ActionAccept    ActionKind = "accept"
	ActionDecline   ActionKind = "decline"
	ActionDelivered ActionKind = "delivered"
	ActionConfirm   ActionKind = "confirm"
	ActionCancel    ActionKind = "cancel"
)

func (k ActionKind) IsValid() bool {
	switch k {
	case ActionAccept, ActionDecline, ActionDelivered, ActionConfirm, ActionCancel:
		return true
	}
	return false
}

// Action is one choice offered with a message.
type Action struct {
	Kind    ActionKind     `json:"kind"`
	OrderID kernel.OrderID `json:"order_id"`
}

// Message is what the core hands to a Notifier.
type Message struct {
	Recipient  kernel.ParticipantID
	Kind       MessageKind
	OrderID    kernel.OrderID
	Order      *order.Order
	Attributes map[string]string
	Actions    []Action
}

// Notifier delivers messages to participants. A non-nil error means the
// recipient did not get the message.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
