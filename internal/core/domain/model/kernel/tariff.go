package kernel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrTariffIsNotConstructed = errors.New("Tariff must be created via NewTariff or ParseTariff")

// Tariff holds a requester's per-package rates for near and far deliveries.
type Tariff struct {
	near  int
	far   int
	guard guard.ConstructorGuard
}

func NewTariff(near, far int) (Tariff, error) {
	if err := errors.Join(validateRate("near rate", near), validateRate("far rate", far)); err != nil {
		return Tariff{}, err
	}
	return Tariff{near: near, far: far, guard: guard.NewConstructorGuard()}, nil
}

// ParseTariff reads the "near/far" notation, e.g. "5/8".
func ParseTariff(s string) (Tariff, error) {
	nearStr, farStr, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Tariff{}, errs.NewValueIsInvalidErrorWithCause("tariff", fmt.Errorf("%q is not in near/far form", s))
	}
	near, err := strconv.Atoi(strings.TrimSpace(nearStr))
	if err != nil {
		return Tariff{}, errs.NewValueIsInvalidErrorWithCause("tariff", err)
	}
	far, err := strconv.Atoi(strings.TrimSpace(farStr))
	if err != nil {
		return Tariff{}, errs.NewValueIsInvalidErrorWithCause("tariff", err)
	}
	return NewTariff(near, far)
}

// DefaultTariff applies to requesters without a registered tariff.
func DefaultTariff() Tariff {
	return Tariff{near: 7, far: 8, guard: guard.NewConstructorGuard()}
}

func (t Tariff) Validate() error {
	return t.guard.Validate(ErrTariffIsNotConstructed)
}

func (t Tariff) Near() int {
	return t.near
}

func (t Tariff) Far() int {
	return t.far
}

func (t Tariff) Rate(d Distance) (int, error) {
	switch d {
	case Near:
		return t.near, nil
	case Far:
		return t.far, nil
	default:
		return 0, d.Validate()
	}
}

// PriceOf sums the rate of every tier in ds.
func (t Tariff) PriceOf(ds []Distance) (int, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	total := 0
	for _, d := range ds {
		rate, err := t.Rate(d)
		if err != nil {
			return 0, err
		}
		total += rate
	}
	return total, nil
}

func (t Tariff) String() string {
	return fmt.Sprintf("%d/%d", t.near, t.far)
}

func validateRate(name string, rate int) error {
	if rate <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%d is not greater than 0", rate))
	}
	return nil
}
