package filestore

import (
	"bytes"
	"cmp"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

const (
	ledgerFields = 11
	noCourier    = "None"
	dateLayout   = "2006-01-02"
	clockLayout  = "15:04:05"

	// Free-text fields are written unquoted and may not hold these.
	reservedChars = "|\"\r\n"
)

var _ ports.OrderRepository = (*LedgerFile)(nil)

// ErrMalformedRecord is returned when a ledger line cannot be decoded.
var ErrMalformedRecord = errors.New("malformed ledger record")

// LedgerFile stores orders as
//
//	id|requester|origin|time|packages|near,far|price|status|YYYY-MM-DD|HH:MM:SS|courier
//
// with "None" in the courier field for unassigned orders. Reporting tools
// read the same file, so the field order is fixed and fields are never
// quoted: an order whose origin or time window holds '|', '"' or a line
// break is refused with errs.ErrValueIsInvalid. The file is re-read on
// every call and rewritten in full on every change; callers serialize access.
type LedgerFile struct {
	path string
	loc  *time.Location
}

// NewLedgerFile creates a ledger bound to path. Creation date and time are
// written and read in loc.
func NewLedgerFile(path string, loc *time.Location) (*LedgerFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errs.NewValueIsRequiredError("ledger path")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerFile{path: path, loc: loc}, nil
}

func (f *LedgerFile) Add(_ context.Context, aggregate *order.Order) error {
	orders, err := f.load()
	if err != nil {
		return err
	}
	if slices.ContainsFunc(orders, func(o *order.Order) bool { return o.ID() == aggregate.ID() }) {
		return errs.NewObjectAlreadyExistsError("order", aggregate.ID())
	}
	return f.store(append(orders, aggregate))
}

func (f *LedgerFile) Update(_ context.Context, aggregate *order.Order) error {
	orders, err := f.load()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(orders, func(o *order.Order) bool { return o.ID() == aggregate.ID() })
	if i < 0 {
		return errs.NewObjectNotFoundError("order", aggregate.ID())
	}
	orders[i] = aggregate
	return f.store(orders)
}

func (f *LedgerFile) Get(_ context.Context, id kernel.OrderID) (*order.Order, error) {
	orders, err := f.load()
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.ID() == id {
			return o, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("order", id)
}

func (f *LedgerFile) GetLastInStatusFor(
	_ context.Context,
	requester kernel.ParticipantID,
	status order.Status,
) (*order.Order, error) {
	orders, err := f.load()
	if err != nil {
		return nil, err
	}

	var last *order.Order
	for _, o := range orders {
		if o.Requester() != requester || o.Status() != status {
			continue
		}
		if last == nil || o.CreatedAt().After(last.CreatedAt()) ||
			(o.CreatedAt().Equal(last.CreatedAt()) && o.ID() > last.ID()) {
			last = o
		}
	}
	if last == nil {
		return nil, errs.NewObjectNotFoundError("order", fmt.Sprintf("last %s of %s", status, requester))
	}
	return last, nil
}

func (f *LedgerFile) List(_ context.Context) ([]*order.Order, error) {
	orders, err := f.load()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(orders, func(a, b *order.Order) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return orders, nil
}

func (f *LedgerFile) Remove(_ context.Context, id kernel.OrderID) error {
	orders, err := f.load()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(orders, func(o *order.Order) bool { return o.ID() == id })
	if i < 0 {
		return errs.NewObjectNotFoundError("order", id)
	}
	return f.store(slices.Delete(orders, i, i+1))
}

func (f *LedgerFile) RemoveAll(_ context.Context) error {
	return f.store(nil)
}

func (f *LedgerFile) load() ([]*order.Order, error) {
	data, err := readFileIfExists(f.path)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = '|'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var orders []*order.Order
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		o, err := f.decode(rec)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("%w at line %d: %w", ErrMalformedRecord, line, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (f *LedgerFile) store(orders []*order.Order) error {
	var buf bytes.Buffer
	for _, o := range orders {
		rec, err := f.encode(o)
		if err != nil {
			return fmt.Errorf("encode order %s: %w", o.ID(), err)
		}
		buf.WriteString(strings.Join(rec, "|"))
		buf.WriteByte('\n')
	}
	return writeFileAtomic(f.path, buf.Bytes())
}

func (f *LedgerFile) encode(o *order.Order) ([]string, error) {
	if err := errors.Join(
		plainField("origin", o.Origin()),
		plainField("time window", o.TimeWindow()),
	); err != nil {
		return nil, err
	}
	courier := noCourier
	if c := o.Courier(); c != nil {
		courier = c.String()
	}
	created := o.CreatedAt().In(f.loc)
	return []string{
		o.ID().String(),
		o.Requester().String(),
		o.Origin(),
		o.TimeWindow(),
		strconv.Itoa(o.Packages()),
		kernel.JoinDistances(o.Distances()),
		strconv.Itoa(o.Price()),
		o.Status().String(),
		created.Format(dateLayout),
		created.Format(clockLayout),
		courier,
	}, nil
}

func plainField(name, value string) error {
	if strings.ContainsAny(value, reservedChars) {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%q holds one of %q", value, reservedChars))
	}
	return nil
}

func (f *LedgerFile) decode(rec []string) (*order.Order, error) {
	if len(rec) < ledgerFields-1 || len(rec) > ledgerFields {
		return nil, fmt.Errorf("expected %d fields, got %d", ledgerFields, len(rec))
	}
	// Records written before assignment tracking may lack the courier field.
	for len(rec) < ledgerFields {
		rec = append(rec, noCourier)
	}

	id, err := kernel.ParseOrderID(legacyOrderID(rec[0]))
	if err != nil {
		return nil, err
	}
	requester, err := kernel.ParseParticipantID(rec[1])
	if err != nil {
		return nil, err
	}
	packages, err := strconv.Atoi(strings.TrimSpace(rec[4]))
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("packages", err)
	}
	distances, err := kernel.ParseDistances(rec[5])
	if err != nil {
		return nil, err
	}
	if packages != len(distances) {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"packages",
			fmt.Errorf("%d packages do not match %d distances", packages, len(distances)),
		)
	}
	price, err := strconv.Atoi(strings.TrimSpace(rec[6]))
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("price", err)
	}
	status, err := order.ParseStatus(rec[7])
	if err != nil {
		return nil, err
	}
	createdAt, err := time.ParseInLocation(dateLayout+" "+clockLayout, rec[8]+" "+rec[9], f.loc)
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("created at", err)
	}

	var courier *kernel.ParticipantID
	if c := strings.TrimSpace(rec[10]); c != "" && c != noCourier {
		parsed, err := kernel.ParseParticipantID(c)
		if err != nil {
			return nil, err
		}
		courier = &parsed
	}
	// Old files kept the courier of declined orders.
	if status == order.Declined {
		courier = nil
	}

	return order.RestoreOrder(id, requester, rec[2], rec[3], distances, price, status, createdAt, courier)
}

// legacyOrderID strips display prefixes such as "Order #17".
func legacyOrderID(s string) string {
	if i := strings.LastIndex(s, "#"); i >= 0 {
		return s[i+1:]
	}
	return s
}
