package kernel

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// Distance is the tariff tier of a single package.
type Distance int

const (
	UnknownDistance Distance = iota
	Near
	Far
)

// distanceAliases also covers the labels written by the legacy chat bot,
// so old ledger files stay readable.
var distanceAliases = map[string]Distance{
	"near":    Near,
	"far":     Far,
	"ближнее": Near,
	"дальнее": Far,
}

func ParseDistance(s string) (Distance, error) {
	if d, ok := distanceAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return UnknownDistance, errs.NewValueIsInvalidErrorWithCause(
		"distance",
		fmt.Errorf("%q is not a distance tier", s),
	)
}

// ParseDistances reads a comma-separated tier list such as "near, far,far".
func ParseDistances(s string) ([]Distance, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errs.NewValueIsRequiredError("distances")
	}
	parts := strings.Split(s, ",")
	out := make([]Distance, 0, len(parts))
	for _, p := range parts {
		d, err := ParseDistance(p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// JoinDistances is the inverse of ParseDistances.
func JoinDistances(ds []Distance) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	return strings.Join(parts, ",")
}

func (d Distance) Validate() error {
	if d != Near && d != Far {
		return errs.NewValueIsInvalidErrorWithCause("distance", fmt.Errorf("%d is not a distance tier", int(d)))
	}
	return nil
}

func (d Distance) String() string {
	switch d {
	case Near:
		return "near"
	case Far:
		return "far"
	default:
		return "unknown"
	}
}

func (d Distance) MarshalText() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return []byte(d.String()), nil
}

func (d *Distance) UnmarshalText(text []byte) error {
	parsed, err := ParseDistance(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
