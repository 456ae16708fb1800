package queries

import (
	"context"

	"dispatch/internal/pkg/errs"
)

type GetLastAcceptedOrderQueryHandler struct {
	reader OrderReader
}

func NewGetLastAcceptedOrderQueryHandler(reader OrderReader) (GetLastAcceptedOrderQueryHandler, error) {
	if reader == nil {
		return GetLastAcceptedOrderQueryHandler{}, errs.NewValueIsRequiredError("order reader")
	}
	return GetLastAcceptedOrderQueryHandler{reader: reader}, nil
}

func (h GetLastAcceptedOrderQueryHandler) Handle(ctx context.Context, query GetLastAcceptedOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}
	o, err := h.reader.FindLastAcceptedFor(ctx, query.Requester())
	if err != nil {
		return OrderView{}, err
	}
	return newOrderView(o), nil
}
