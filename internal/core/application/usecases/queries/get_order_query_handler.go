package queries

import (
	"context"

	"dispatch/internal/pkg/errs"
)

type GetOrderQueryHandler struct {
	reader OrderReader
}

func NewGetOrderQueryHandler(reader OrderReader) (GetOrderQueryHandler, error) {
	if reader == nil {
		return GetOrderQueryHandler{}, errs.NewValueIsRequiredError("order reader")
	}
	return GetOrderQueryHandler{reader: reader}, nil
}

// Handle returns errs.ErrObjectNotFound for an unknown id.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}
	o, err := h.reader.FindByID(ctx, query.ID())
	if err != nil {
		return OrderView{}, err
	}
	return newOrderView(o), nil
}
