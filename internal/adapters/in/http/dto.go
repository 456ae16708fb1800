package http

import (
	"time"

	"dispatch/internal/core/application/dispatch"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/amendment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type NewOrder struct {
	RequesterID int64    `json:"requester_id"`
	Origin      string   `json:"origin"`
	TimeWindow  string   `json:"time_window"`
	Packages    int      `json:"packages"`
	Distances   []string `json:"distances"`
}

type NewAmendment struct {
	RequesterID int64    `json:"requester_id"`
	Packages    int      `json:"packages"`
	Distances   []string `json:"distances"`
}

type CourierAction struct {
	EventID   string `json:"event_id,omitempty"`
	Kind      string `json:"kind"`
	OrderID   int64  `json:"order_id"`
	CourierID int64  `json:"courier_id"`
}

type Order struct {
	ID          int64     `json:"id"`
	RequesterID int64     `json:"requester_id"`
	Origin      string    `json:"origin"`
	TimeWindow  string    `json:"time_window"`
	Packages    int       `json:"packages"`
	Distances   []string  `json:"distances"`
	Price       int       `json:"price"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	CourierID   *int64    `json:"courier_id,omitempty"`
}

type Amendment struct {
	OrderID        int64    `json:"order_id"`
	AddedPackages  int      `json:"added_packages"`
	AddedDistances []string `json:"added_distances"`
	AddedPrice     int      `json:"added_price"`
}

type RemovalReport struct {
	Cancelled  []int64 `json:"cancelled"`
	Redirected []int64 `json:"redirected"`
	Stranded   []int64 `json:"stranded"`
}

type Shift struct {
	CourierID int64 `json:"courier_id"`
	OnShift   bool  `json:"on_shift"`
}

type Report struct {
	From              time.Time         `json:"from"`
	To                time.Time         `json:"to"`
	TotalPackages     int               `json:"total_packages"`
	TotalPrice        int               `json:"total_price"`
	DeliveredPackages int               `json:"delivered_packages"`
	PackagesByStatus  map[string]int    `json:"packages_by_status"`
	Requesters        []RequesterTotals `json:"requesters"`
	Couriers          []CourierTotals   `json:"couriers"`
}

type RequesterTotals struct {
	RequesterID       int64 `json:"requester_id"`
	Packages          int   `json:"packages"`
	Price             int   `json:"price"`
	DeliveredPackages int   `json:"delivered_packages"`
}

type CourierTotals struct {
	CourierID int64  `json:"courier_id"`
	Name      string `json:"name"`
	Packages  int    `json:"packages"`
	Price     int    `json:"price"`
}

func parseDistances(names []string) ([]kernel.Distance, error) {
	out := make([]kernel.Distance, len(names))
	for i, name := range names {
		d, err := kernel.ParseDistance(name)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func distanceNames(ds []kernel.Distance) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

func courierRef(c *kernel.ParticipantID) *int64 {
	if c == nil {
		return nil
	}
	id := c.Int64()
	return &id
}

func orderFromDomain(o *order.Order) Order {
	return Order{
		ID:          o.ID().Int64(),
		RequesterID: o.Requester().Int64(),
		Origin:      o.Origin(),
		TimeWindow:  o.TimeWindow(),
		Packages:    o.Packages(),
		Distances:   distanceNames(o.Distances()),
		Price:       o.Price(),
		Status:      o.Status().String(),
		CreatedAt:   o.CreatedAt(),
		CourierID:   courierRef(o.Courier()),
	}
}

func orderFromView(v queries.OrderView) Order {
	return Order{
		ID:          v.ID.Int64(),
		RequesterID: v.Requester.Int64(),
		Origin:      v.Origin,
		TimeWindow:  v.TimeWindow,
		Packages:    v.Packages,
		Distances:   distanceNames(v.Distances),
		Price:       v.Price,
		Status:      v.Status.String(),
		CreatedAt:   v.CreatedAt,
		CourierID:   courierRef(v.Courier),
	}
}

func amendmentFromDomain(a amendment.Amendment) Amendment {
	return Amendment{
		OrderID:        a.OrderID().Int64(),
		AddedPackages:  a.AddedPackages(),
		AddedDistances: distanceNames(a.AddedDistances()),
		AddedPrice:     a.AddedPrice(),
	}
}

func removalFromDomain(r dispatch.RemovalReport) RemovalReport {
	out := RemovalReport{Cancelled: []int64{}, Redirected: []int64{}, Stranded: []int64{}}
	for _, id := range r.Cancelled {
		out.Cancelled = append(out.Cancelled, id.Int64())
	}
	for _, id := range r.Redirected {
		out.Redirected = append(out.Redirected, id.Int64())
	}
	for _, id := range r.Stranded {
		out.Stranded = append(out.Stranded, id.Int64())
	}
	return out
}

func reportFromQuery(q queries.GetReportQuery, r queries.Report) Report {
	out := Report{
		From:              q.From(),
		To:                q.To(),
		TotalPackages:     r.TotalPackages,
		TotalPrice:        r.TotalPrice,
		DeliveredPackages: r.DeliveredPackages,
		PackagesByStatus:  make(map[string]int, len(r.PackagesByStatus)),
		Requesters:        make([]RequesterTotals, 0, len(r.Requesters)),
		Couriers:          make([]CourierTotals, 0, len(r.Couriers)),
	}
	for status, n := range r.PackagesByStatus {
		out.PackagesByStatus[status.String()] = n
	}
	for _, rt := range r.Requesters {
		out.Requesters = append(out.Requesters, RequesterTotals{
			RequesterID:       rt.Requester.Int64(),
			Packages:          rt.Packages,
			Price:             rt.Price,
			DeliveredPackages: rt.DeliveredPackages,
		})
	}
	for _, ct := range r.Couriers {
		out.Couriers = append(out.Couriers, CourierTotals{
			CourierID: ct.Courier.Int64(),
			Name:      ct.Name,
			Packages:  ct.Packages,
			Price:     ct.Price,
		})
	}
	return out
}
