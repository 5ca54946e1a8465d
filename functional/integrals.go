// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package functional

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/ConduitDan/morpho/field"
	"github.com/ConduitDan/morpho/mesh"
	"github.com/ConduitDan/morpho/selection"
)

// IntegrandFn is a user integrand evaluated at a point x with any number of
// interpolated field quantities
type IntegrandFn func(x []float64, q ...[]float64) (float64, error)

// tangentVec holds the unit tangent of the line element currently being
// integrated
var tangentVec []float64

// Tangent returns the unit tangent of the current line element. It is only
// valid inside a LineIntegral integrand.
func Tangent() []float64 {
	return tangentVec
}

// quadrature rules; weights sum to one so the result is the average over
// the element and the caller multiplies by the element size

// 3-point Gauss rule on a line, degree 5
var lineQuad = []struct{ t, w float64 }{
	{0.5 * (1 - math.Sqrt(3.0/5.0)), 5.0 / 18.0},
	{0.5, 4.0 / 9.0},
	{0.5 * (1 + math.Sqrt(3.0/5.0)), 5.0 / 18.0},
}

// 3-point interior rule on a triangle, degree 2
var triQuad = []struct {
	λ [3]float64
	w float64
}{
	{[3]float64{2.0 / 3.0, 1.0 / 6.0, 1.0 / 6.0}, 1.0 / 3.0},
	{[3]float64{1.0 / 6.0, 2.0 / 3.0, 1.0 / 6.0}, 1.0 / 3.0},
	{[3]float64{1.0 / 6.0, 1.0 / 6.0, 2.0 / 3.0}, 1.0 / 3.0},
}

// interpolate evaluates the barycentric interpolant of per-vertex values
func interpolate(vals [][]float64, λ []float64) []float64 {
	out := make([]float64, len(vals[0]))
	for i, v := range vals {
		for c := range out {
			out[c] += λ[i] * v[c]
		}
	}
	return out
}

// integralRef holds the shared machinery of line and area integrals
type integralRef struct {
	Fn     IntegrandFn
	Fields []*field.Field
}

// fieldValues collects the vertex values of every attached field
func (o *integralRef) fieldValues(vids []int) ([][][]float64, error) {
	vals := make([][][]float64, len(o.Fields))
	for k, f := range o.Fields {
		vals[k] = make([][]float64, len(vids))
		for i, v := range vids {
			var err error
			if vals[k][i], err = f.GetList(mesh.GradeVertex, v, 0); err != nil {
				return nil, err
			}
		}
	}
	return vals, nil
}

// quadrature evaluates the user integrand at barycentric points λs with
// weights w over the element with vertex positions x
func (o *integralRef) quadrature(x [][]float64, vids []int, λs [][]float64, w []float64) (float64, error) {
	if o.Fn == nil {
		return 0, chk.Err("integral requires a callable integrand")
	}
	fvals, err := o.fieldValues(vids)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	q := make([][]float64, len(o.Fields))
	for n, λ := range λs {
		xp := interpolate(x, λ)
		for k := range o.Fields {
			q[k] = interpolate(fvals[k], λ)
		}
		f, err := o.Fn(xp, q...)
		if err != nil {
			return 0, err
		}
		sum += w[n] * f
	}
	return sum, nil
}

/* LineIntegral ----------------------------------------------------------- */

// LineIntegral integrates a user function over line elements by Gaussian
// quadrature, interpolating any attached fields to the quadrature points
type LineIntegral struct {
	integralRef
}

// NewLineIntegral creates a line integral of fn with optional fields
func NewLineIntegral(fn IntegrandFn, fields ...*field.Field) *LineIntegral {
	return &LineIntegral{integralRef{Fn: fn, Fields: fields}}
}

func (o *LineIntegral) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	size, err := ElementSize(m, mesh.GradeLine, id, vids)
	if err != nil {
		return 0, err
	}
	x := vertexCoords(m, vids)

	// expose the unit tangent for the duration of the call
	tang := make([]float64, m.Ndim)
	vecsub(x[1], x[0], tang)
	if tn := vecnorm(tang); tn > eps {
		vecscale(1/tn, tang, tang)
	}
	tangentVec = tang
	defer func() { tangentVec = nil }()

	λs := make([][]float64, len(lineQuad))
	w := make([]float64, len(lineQuad))
	for n, p := range lineQuad {
		λs[n] = []float64{1 - p.t, p.t}
		w[n] = p.w
	}
	sum, err := o.quadrature(x, vids, λs, w)
	if err != nil {
		return 0, err
	}
	return sum * size, nil
}

func (o *LineIntegral) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	info := MapInfo{Grade: mesh.GradeLine, Sel: sel, Integrand: o.integrand}
	if len(o.Fields) > 0 {
		info.Fld = o.Fields[0]
	}
	return info, nil
}

func (o *LineIntegral) Grade(m *mesh.Mesh) int { return mesh.GradeLine }

// Field returns the first attached field, if any
func (o *LineIntegral) Field() *field.Field {
	if len(o.Fields) > 0 {
		return o.Fields[0]
	}
	return nil
}

func (o *LineIntegral) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *LineIntegral) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *LineIntegral) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

func (o *LineIntegral) FieldGradient(m *mesh.Mesh, sel *selection.Selection) (*field.Field, error) {
	return evalFieldGradient(o, m, sel)
}

// Rebind follows replaced objects after refinement
func (o *LineIntegral) Rebind(dict map[any]any) {
	for k, f := range o.Fields {
		if nf, ok := dict[f].(*field.Field); ok {
			o.Fields[k] = nf
		}
	}
}

/* AreaIntegral ----------------------------------------------------------- */

// AreaIntegral integrates a user function over triangle elements by
// barycentric quadrature, interpolating any attached fields
type AreaIntegral struct {
	integralRef
}

// NewAreaIntegral creates an area integral of fn with optional fields
func NewAreaIntegral(fn IntegrandFn, fields ...*field.Field) *AreaIntegral {
	return &AreaIntegral{integralRef{Fn: fn, Fields: fields}}
}

func (o *AreaIntegral) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	size, err := ElementSize(m, mesh.GradeArea, id, vids)
	if err != nil {
		return 0, err
	}
	x := vertexCoords(m, vids)
	λs := make([][]float64, len(triQuad))
	w := make([]float64, len(triQuad))
	for n, p := range triQuad {
		λs[n] = []float64{p.λ[0], p.λ[1], p.λ[2]}
		w[n] = p.w
	}
	sum, err := o.quadrature(x, vids, λs, w)
	if err != nil {
		return 0, err
	}
	return sum * size, nil
}

func (o *AreaIntegral) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	info := MapInfo{Grade: mesh.GradeArea, Sel: sel, Integrand: o.integrand}
	if len(o.Fields) > 0 {
		info.Fld = o.Fields[0]
	}
	return info, nil
}

func (o *AreaIntegral) Grade(m *mesh.Mesh) int { return mesh.GradeArea }

// Field returns the first attached field, if any
func (o *AreaIntegral) Field() *field.Field {
	if len(o.Fields) > 0 {
		return o.Fields[0]
	}
	return nil
}

func (o *AreaIntegral) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *AreaIntegral) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *AreaIntegral) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

func (o *AreaIntegral) FieldGradient(m *mesh.Mesh, sel *selection.Selection) (*field.Field, error) {
	return evalFieldGradient(o, m, sel)
}

// Rebind follows replaced objects after refinement
func (o *AreaIntegral) Rebind(dict map[any]any) {
	for k, f := range o.Fields {
		if nf, ok := dict[f].(*field.Field); ok {
			o.Fields[k] = nf
		}
	}
}
