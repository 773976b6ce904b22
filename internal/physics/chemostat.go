package physics

import (
	"github.com/san-kum/chemosim/internal/dynamo"
	"github.com/san-kum/chemosim/internal/response"
)

// Chemostat is the nutrient (x), prey (y), predator (z) model with a Monod
// prey uptake f(x) = vMax*x/(k+x) and a pluggable predator response g(y).
type Chemostat struct {
	D    float64
	Xin  float64
	E1   float64
	E2   float64
	VMax float64
	K    float64
	G    response.Function
}

func NewChemostat(g response.Function, dilution float64) *Chemostat {
	return &Chemostat{
		D:    dilution,
		Xin:  130.0,
		E1:   0.3,
		E2:   1.2,
		VMax: 1.6,
		K:    16.0,
		G:    g,
	}
}

func (c *Chemostat) StateDim() int { return 3 }

func (c *Chemostat) Uptake(x float64) float64 { return c.VMax * x / (c.K + x) }

// Derive calculates the chemostat derivatives. The model is autonomous.
func (c *Chemostat) Derive(s dynamo.State, _ float64) dynamo.State {
	x, y, z := s[0], s[1], s[2]
	fx := c.Uptake(x)
	gy := c.G.Eval(y)
	return dynamo.State{
		c.D*(c.Xin-x) - fx*y,
		c.E1*fx*y - gy*z - c.D*y,
		c.E2*gy*z - c.D*z,
	}
}

func (c *Chemostat) DefaultState() dynamo.State { return dynamo.State{40.0, 10.0, 40.0} }

func (c *Chemostat) GetParams() map[string]float64 {
	return map[string]float64{"D": c.D, "Xin": c.Xin, "e1": c.E1, "e2": c.E2, "vMax": c.VMax, "k": c.K}
}

func (c *Chemostat) SetParam(n string, v float64) {
	switch n {
	case "D":
		c.D = v
	case "Xin":
		c.Xin = v
	case "e1":
		c.E1 = v
	case "e2":
		c.E2 = v
	case "vMax":
		c.VMax = v
	case "k":
		c.K = v
	}
}
