package response

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindSpline      Kind = "spline"
	KindTanh        Kind = "tanh"
	KindIvlev       Kind = "ivlev"
	KindHolling     Kind = "holling"
	KindCombination Kind = "combination"
)

func Kinds() []Kind {
	return []Kind{KindSpline, KindTanh, KindIvlev, KindHolling, KindCombination}
}

// New builds a response function. Kind matching is case-insensitive;
// spline settings are ignored by the analytic families.
func New(kind Kind, s SplineSettings) (Function, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindSpline:
		return NewSpline(s)
	case KindTanh:
		return NewTanh(), nil
	case KindIvlev:
		return NewIvlev(), nil
	case KindHolling:
		return NewHolling(), nil
	case KindCombination:
		return NewCombination(), nil
	default:
		return nil, fmt.Errorf("response: unknown function type %q", kind)
	}
}
