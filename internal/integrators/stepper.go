package integrators

import (
	"fmt"

	"github.com/san-kum/chemosim/internal/dynamo"
)

// Stepper advances a state by one explicit step. Implementations never mutate x.
type Stepper interface {
	Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State
	Order() int
	Name() string
}

type Kind string

const (
	KindEuler    Kind = "euler"
	KindMidpoint Kind = "midpoint"
	KindHeun     Kind = "heun"
	KindRK4      Kind = "rk4"
)

// Kinds lists the supported steppers in increasing order of accuracy.
func Kinds() []Kind {
	return []Kind{KindEuler, KindMidpoint, KindHeun, KindRK4}
}

// New returns a fresh stepper. Steppers with scratch buffers are not safe for
// concurrent use, so every driver should own its own instance.
func New(kind Kind) (Stepper, error) {
	switch kind {
	case KindEuler:
		return NewEuler(), nil
	case KindMidpoint:
		return NewMidpoint(), nil
	case KindHeun:
		return NewHeun(), nil
	case KindRK4:
		return NewRK4(), nil
	default:
		return nil, fmt.Errorf("integrators: unknown stepper %q", kind)
	}
}
