package experiment

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/san-kum/chemosim/internal/integrators"
	"github.com/san-kum/chemosim/internal/proposal"
	"github.com/san-kum/chemosim/internal/response"
)

type ProposalFactory func(s proposal.Settings, fn response.Function, src rand.Source) (proposal.Generator, error)

// Registry maps configuration names to constructors.
type Registry struct {
	responses map[string]func(response.SplineSettings) (response.Function, error)
	steppers  map[string]func() integrators.Stepper
	proposals map[string]ProposalFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		responses: make(map[string]func(response.SplineSettings) (response.Function, error)),
		steppers:  make(map[string]func() integrators.Stepper),
		proposals: make(map[string]ProposalFactory),
	}

	for _, kind := range response.Kinds() {
		r.responses[string(kind)] = func(s response.SplineSettings) (response.Function, error) {
			return response.New(kind, s)
		}
	}

	r.steppers["euler"] = func() integrators.Stepper { return integrators.NewEuler() }
	r.steppers["midpoint"] = func() integrators.Stepper { return integrators.NewMidpoint() }
	r.steppers["heun"] = func() integrators.Stepper { return integrators.NewHeun() }
	r.steppers["rk4"] = func() integrators.Stepper { return integrators.NewRK4() }

	r.proposals[""] = proposal.New
	r.proposals[string(proposal.KindLogNormal)] = proposal.New
	r.proposals[string(proposal.KindSpline)] = proposal.New
	r.proposals["multiparam"] = proposal.New

	return r
}

func (r *Registry) GetResponse(name string, s response.SplineSettings) (response.Function, error) {
	fn, ok := r.responses[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown response function: %s", name)
	}
	return fn(s)
}

func (r *Registry) GetStepper(name string) (integrators.Stepper, error) {
	fn, ok := r.steppers[name]
	if !ok {
		return nil, fmt.Errorf("unknown stepper: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetProposal(s proposal.Settings, fn response.Function, src rand.Source) (proposal.Generator, error) {
	factory, ok := r.proposals[strings.ToLower(string(s.Type))]
	if !ok {
		return nil, fmt.Errorf("unknown proposal generator: %s", s.Type)
	}
	return factory(s, fn, src)
}

func (r *Registry) ListResponses() []string { return slices.Sorted(maps.Keys(r.responses)) }

func (r *Registry) ListSteppers() []string { return slices.Sorted(maps.Keys(r.steppers)) }

func (r *Registry) ListProposals() []string {
	names := slices.Sorted(maps.Keys(r.proposals))
	return slices.DeleteFunc(names, func(n string) bool { return n == "" })
}
