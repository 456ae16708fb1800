// Package orderrepo stores the order ledger in PostgreSQL through GORM.
package orderrepo

import (
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/lib/pq"
)

// OrderDTO is one ledger row. Distances are kept as a text array of tier
// names in package order.
type OrderDTO struct {
	ID          int64 `gorm:"primaryKey;autoIncrement:false"`
	RequesterID int64 `gorm:"index:idx_orders_requester_status,priority:1;not null"`
	Origin      string
	TimeWindow  string
	Packages    int
	Distances   pq.StringArray `gorm:"type:text[]"`
	Price       int
	Status      int    `gorm:"index:idx_orders_requester_status,priority:2"`
	CourierID   *int64 `gorm:"index"`
	CreatedAt   time.Time
}

func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	var courierID *int64
	if c := o.Courier(); c != nil {
		raw := c.Int64()
		courierID = &raw
	}

	distances := o.Distances()
	names := make(pq.StringArray, len(distances))
	for i, d := range distances {
		names[i] = d.String()
	}

	return OrderDTO{
		ID:          o.ID().Int64(),
		RequesterID: o.Requester().Int64(),
		Origin:      o.Origin(),
		TimeWindow:  o.TimeWindow(),
		Packages:    o.Packages(),
		Distances:   names,
		Price:       o.Price(),
		Status:      int(o.Status()),
		CourierID:   courierID,
		CreatedAt:   o.CreatedAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	distances := make([]kernel.Distance, len(dto.Distances))
	for i, name := range dto.Distances {
		d, err := kernel.ParseDistance(name)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", dto.ID, err)
		}
		distances[i] = d
	}
	if dto.Packages != len(distances) {
		return nil, fmt.Errorf("order %d: %d packages but %d distances", dto.ID, dto.Packages, len(distances))
	}

	var courier *kernel.ParticipantID
	if dto.CourierID != nil {
		c := kernel.ParticipantID(*dto.CourierID)
		courier = &c
	}

	return order.RestoreOrder(
		kernel.OrderID(dto.ID),
		kernel.ParticipantID(dto.RequesterID),
		dto.Origin,
		dto.TimeWindow,
		distances,
		dto.Price,
		order.Status(dto.Status),
		dto.CreatedAt,
		courier,
	)
}
