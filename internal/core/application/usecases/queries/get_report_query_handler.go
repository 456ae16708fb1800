package queries

import (
	"cmp"
	"context"
	"slices"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

// CourierNames resolves display names for the per-courier section.
type CourierNames interface {
	WorkerDisplayName(ctx context.Context, id kernel.ParticipantID) (string, error)
}

// Report counts packages, not orders. Price sums every order in range
// regardless of status.
type Report struct {
	TotalPackages     int
	TotalPrice        int
	DeliveredPackages int
	PackagesByStatus  map[order.Status]int
	Requesters        []RequesterTotals
	Couriers          []CourierTotals
}

type RequesterTotals struct {
	Requester         kernel.ParticipantID
	Packages          int
	Price             int
	DeliveredPackages int
}

type CourierTotals struct {
	Courier  kernel.ParticipantID
	Name     string
	Packages int
	Price    int
}

type GetReportQueryHandler struct {
	reader OrderReader
	names  CourierNames
}

func NewGetReportQueryHandler(reader OrderReader, names CourierNames) (GetReportQueryHandler, error) {
	if reader == nil {
		return GetReportQueryHandler{}, errs.NewValueIsRequiredError("order reader")
	}
	if names == nil {
		return GetReportQueryHandler{}, errs.NewValueIsRequiredError("courier names")
	}
	return GetReportQueryHandler{reader: reader, names: names}, nil
}

// Handle aggregates the ledger. Requesters and couriers are sorted by id.
func (h GetReportQueryHandler) Handle(ctx context.Context, query GetReportQuery) (Report, error) {
	if err := query.Validate(); err != nil {
		return Report{}, err
	}

	orders, err := h.reader.List(ctx)
	if err != nil {
		return Report{}, err
	}

	only, filtered := query.Requester()
	report := Report{PackagesByStatus: make(map[order.Status]int)}
	requesters := make(map[kernel.ParticipantID]*RequesterTotals)
	couriers := make(map[kernel.ParticipantID]*CourierTotals)

	for _, o := range orders {
		created := o.CreatedAt()
		if created.Before(query.From()) || created.After(query.To()) {
			continue
		}
		if filtered && o.Requester() != only {
			continue
		}

		packages, price := o.Packages(), o.Price()
		delivered := 0
		if o.Status() == order.Delivered {
			delivered = packages
		}

		report.TotalPackages += packages
		report.TotalPrice += price
		report.DeliveredPackages += delivered
		report.PackagesByStatus[o.Status()] += packages

		rt, ok := requesters[o.Requester()]
		if !ok {
			rt = &RequesterTotals{Requester: o.Requester()}
			requesters[o.Requester()] = rt
		}
		rt.Packages += packages
		rt.Price += price
		rt.DeliveredPackages += delivered

		if c := o.Courier(); c != nil {
			ct, ok := couriers[*c]
			if !ok {
				ct = &CourierTotals{Courier: *c}
				couriers[*c] = ct
			}
			ct.Packages += packages
			ct.Price += price
		}
	}

	for _, rt := range requesters {
		report.Requesters = append(report.Requesters, *rt)
	}
	slices.SortFunc(report.Requesters, func(a, b RequesterTotals) int {
		return cmp.Compare(a.Requester, b.Requester)
	})

	for _, ct := range couriers {
		name, err := h.names.WorkerDisplayName(ctx, ct.Courier)
		if err != nil {
			name = ct.Courier.String()
		}
		ct.Name = name
		report.Couriers = append(report.Couriers, *ct)
	}
	slices.SortFunc(report.Couriers, func(a, b CourierTotals) int {
		return cmp.Compare(a.Courier, b.Courier)
	})

	return report, nil
}
