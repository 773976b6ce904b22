// Package physics provides the chemostat right-hand side.
//
// [Chemostat] implements [dynamo.System] for nutrient x, prey y and
// predator z:
//
//	x' = D(Xin - x) - f(x) y
//	y' = e1 f(x) y - g(y) z - D y
//	z' = e2 g(y) z - D z
//
// with the Monod uptake f(x) = vMax x / (k + x) and a pluggable predator
// response g from package response.
//
// Parameters can be read and adjusted by name through GetParams and SetParam.
package physics
