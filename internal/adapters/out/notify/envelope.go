// Package notify delivers outbound messages to participants: over RabbitMQ
// for the chat gateway, or into the log when no broker is configured.
package notify

import (
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// envelope is the wire form of ports.Message consumed by the chat gateway.
type envelope struct {
	Recipient  int64             `json:"recipient_id"`
	Kind       ports.MessageKind `json:"kind"`
	OrderID    int64             `json:"order_id,omitempty"`
	Order      *orderPayload     `json:"order,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Actions    []ports.Action    `json:"actions,omitempty"`
	SentAt     time.Time         `json:"sent_at"`
}

type orderPayload struct {
	ID         int64     `json:"id"`
	Requester  int64     `json:"requester_id"`
	Origin     string    `json:"origin"`
	TimeWindow string    `json:"time_window"`
	Packages   int       `json:"packages"`
	Distances  []string  `json:"distances"`
	Price      int       `json:"price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	Courier    *int64    `json:"courier_id,omitempty"`
}

func newEnvelope(msg ports.Message, now time.Time) envelope {
	return envelope{
		Recipient:  msg.Recipient.Int64(),
		Kind:       msg.Kind,
		OrderID:    msg.OrderID.Int64(),
		Order:      newOrderPayload(msg.Order),
		Attributes: msg.Attributes,
		Actions:    msg.Actions,
		SentAt:     now,
	}
}

func newOrderPayload(o *order.Order) *orderPayload {
	if o == nil {
		return nil
	}

	distances := o.Distances()
	names := make([]string, len(distances))
	for i, d := range distances {
		names[i] = d.String()
	}

	var courier *int64
	if c := o.Courier(); c != nil {
		id := c.Int64()
		courier = &id
	}

	return &orderPayload{
		ID:         o.ID().Int64(),
		Requester:  o.Requester().Int64(),
		Origin:     o.Origin(),
		TimeWindow: o.TimeWindow(),
		Packages:   o.Packages(),
		Distances:  names,
		Price:      o.Price(),
		Status:     o.Status().String(),
		CreatedAt:  o.CreatedAt(),
		Courier:    courier,
	}
}
