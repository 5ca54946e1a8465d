// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package functional

import (
	"github.com/cpmech/gosl/chk"

	"github.com/ConduitDan/morpho/field"
	"github.com/ConduitDan/morpho/mesh"
	"github.com/ConduitDan/morpho/selection"
)

// computePerpendicular computes t = (s1 − (s1·s2)/(s2·s2)·s2)/|t|², the
// vector perpendicular to s2 in the (s1,s2) plane scaled so that t·s1 = 1
func computePerpendicular(s1, s2, out []float64) error {
	s1s2 := vecdot(s1, s2)
	s2s2 := vecdot(s2, s2)
	if s2s2 < eps {
		return chk.Err("triangle side of zero weight")
	}
	tmp := make([]float64, len(out))
	vecscale(s1s2/s2s2, s2, tmp)
	vecsub(s1, tmp, out)
	sout := vecnorm(out)
	if sout < eps {
		return chk.Err("triangle side of zero weight")
	}
	vecscale(1/(sout*sout), out, out)
	return nil
}

// evaluateFieldGradient computes the gradient of a vertex field over a
// triangle. The result has psize·ndim entries with out[i·ndim+k] = ∂f_i/∂x_k.
func evaluateFieldGradient(m *mesh.Mesh, fld *field.Field, vids []int) ([]float64, error) {
	nv := len(vids)
	f := make([][]float64, nv)
	x := make([][]float64, nv)
	for i, v := range vids {
		var err error
		if f[i], err = fld.GetList(mesh.GradeVertex, v, 0); err != nil {
			return nil, err
		}
		x[i] = m.Vertex(v)
	}

	s := [3][]float64{make([]float64, m.Ndim), make([]float64, m.Ndim), make([]float64, m.Ndim)}
	t := [3][]float64{make([]float64, m.Ndim), make([]float64, m.Ndim), make([]float64, m.Ndim)}
	vecsub(x[1], x[0], s[0])
	vecsub(x[2], x[1], s[1])
	vecsub(x[0], x[2], s[2])
	if err := computePerpendicular(s[2], s[1], t[0]); err != nil {
		return nil, err
	}
	if err := computePerpendicular(s[0], s[2], t[1]); err != nil {
		return nil, err
	}
	if err := computePerpendicular(s[1], s[0], t[2]); err != nil {
		return nil, err
	}

	out := make([]float64, fld.Psize*m.Ndim)
	for j := 0; j < nv; j++ {
		for i := 0; i < fld.Psize; i++ {
			vecaddscale(out[i*m.Ndim:(i+1)*m.Ndim], f[j][i], t[j], out[i*m.Ndim:(i+1)*m.Ndim])
		}
	}
	return out, nil
}

/* GradSq ----------------------------------------------------------------- */

// GradSq measures ∫‖∇φ‖² of a vertex field over triangle elements
type GradSq struct {
	Fld *field.Field
}

func (o *GradSq) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	size, err := ElementSize(m, mesh.GradeArea, id, vids)
	if err != nil {
		return 0, err
	}
	grad, err := evaluateFieldGradient(m, o.Fld, vids)
	if err != nil {
		return 0, err
	}
	nrm := vecnorm(grad)
	return nrm * nrm * size, nil
}

func (o *GradSq) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	if o.Fld == nil {
		return MapInfo{}, chk.Err("GradSq requires a field")
	}
	return MapInfo{Grade: mesh.GradeArea, Sel: sel, Fld: o.Fld, Integrand: o.integrand, Sym: SymmetryAdd}, nil
}

func (o *GradSq) Grade(m *mesh.Mesh) int { return mesh.GradeArea }

func (o *GradSq) Field() *field.Field { return o.Fld }

func (o *GradSq) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *GradSq) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *GradSq) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

func (o *GradSq) FieldGradient(m *mesh.Mesh, sel *selection.Selection) (*field.Field, error) {
	return evalFieldGradient(o, m, sel)
}

// Rebind follows replaced objects after refinement
func (o *GradSq) Rebind(dict map[any]any) {
	if f, ok := dict[o.Fld].(*field.Field); ok {
		o.Fld = f
	}
}

/* NormSq ----------------------------------------------------------------- */

// NormSq measures Σ‖φᵢ‖² of a vertex field
type NormSq struct {
	Fld *field.Field
}

func (o *NormSq) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	v, err := o.Fld.GetList(mesh.GradeVertex, id, 0)
	if err != nil {
		return 0, err
	}
	return vecdot(v, v), nil
}

func (o *NormSq) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	if o.Fld == nil {
		return MapInfo{}, chk.Err("NormSq requires a field")
	}
	return MapInfo{Grade: mesh.GradeVertex, Sel: sel, Fld: o.Fld, Integrand: o.integrand}, nil
}

func (o *NormSq) Grade(m *mesh.Mesh) int { return mesh.GradeVertex }

func (o *NormSq) Field() *field.Field { return o.Fld }

func (o *NormSq) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *NormSq) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *NormSq) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

func (o *NormSq) FieldGradient(m *mesh.Mesh, sel *selection.Selection) (*field.Field, error) {
	return evalFieldGradient(o, m, sel)
}

// Rebind follows replaced objects after refinement
func (o *NormSq) Rebind(dict map[any]any) {
	if f, ok := dict[o.Fld].(*field.Field); ok {
		o.Fld = f
	}
}

/* Nematic ---------------------------------------------------------------- */

// Nematic measures the Frank elastic energy of a unit director field on
// triangles:
//   ½k₁(∇·n)² + ½k₂(n·∇×n + q)² + ½k₃|n×(∇×n)|²
// The cholesteric pitch term is included only when HasPitch is set.
type Nematic struct {
	Director *field.Field
	KSplay   float64
	KTwist   float64
	KBend    float64
	Pitch    float64
	HasPitch bool
}

// NewNematic creates a Nematic energy with unit elastic constants
func NewNematic(director *field.Field) *Nematic {
	return &Nematic{Director: director, KSplay: 1, KTwist: 1, KBend: 1}
}

// bcint integrates the product of two linear functions with vertex values
// f and g over the unit triangle (barycentric closed form)
func bcint(f, g []float64) float64 {
	return (f[0]*(2*g[0]+g[1]+g[2]) + f[1]*(g[0]+2*g[1]+g[2]) + f[2]*(g[0]+g[1]+2*g[2])) / 12
}

// bcint1 integrates a linear function with vertex values f
func bcint1(f []float64) float64 {
	return (f[0] + f[1] + f[2]) / 3
}

// directorTranspose collects the per-component vertex value lists of a
// 3-component vertex field over a triangle
func directorTranspose(fld *field.Field, vids []int) (nnt [3][]float64, err error) {
	for c := 0; c < 3; c++ {
		nnt[c] = make([]float64, len(vids))
	}
	for i, v := range vids {
		nn, err := fld.GetList(mesh.GradeVertex, v, 0)
		if err != nil {
			return nnt, err
		}
		for c := 0; c < 3; c++ {
			nnt[c][i] = nn[c]
		}
	}
	return
}

func (o *Nematic) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	if m.Ndim != 3 || o.Director.Psize != 3 {
		return 0, chk.Err("Nematic requires a 3-component director on a 3-dimensional mesh")
	}
	size, err := ElementSize(m, mesh.GradeArea, id, vids)
	if err != nil {
		return 0, err
	}
	gradnn, err := evaluateFieldGradient(m, o.Director, vids)
	if err != nil {
		return 0, err
	}

	// gradnn[i*3+k] = ∂n_i/∂x_k
	divnn := gradnn[0] + gradnn[4] + gradnn[8]
	curlnn := []float64{
		gradnn[7] - gradnn[5], // nz,y − ny,z
		gradnn[2] - gradnn[6], // nx,z − nz,x
		gradnn[3] - gradnn[1], // ny,x − nx,y
	}

	// coefficients multiplying the integrals of nx², ny², nz², nx·ny,
	// ny·nz and nz·nx over the element
	ctwst := []float64{
		curlnn[0] * curlnn[0], curlnn[1] * curlnn[1], curlnn[2] * curlnn[2],
		2 * curlnn[0] * curlnn[1], 2 * curlnn[1] * curlnn[2], 2 * curlnn[2] * curlnn[0],
	}
	cbnd := []float64{
		ctwst[1] + ctwst[2], ctwst[0] + ctwst[2], ctwst[0] + ctwst[1],
		-ctwst[3], -ctwst[4], -ctwst[5],
	}

	nnt, err := directorTranspose(o.Director, vids)
	if err != nil {
		return 0, err
	}
	integrals := []float64{
		bcint(nnt[0], nnt[0]), bcint(nnt[1], nnt[1]), bcint(nnt[2], nnt[2]),
		bcint(nnt[0], nnt[1]), bcint(nnt[1], nnt[2]), bcint(nnt[2], nnt[0]),
	}

	splay := 0.5 * o.KSplay * size * divnn * divnn
	twist, bend := 0.0, 0.0
	for i := 0; i < 6; i++ {
		twist += ctwst[i] * integrals[i]
		bend += cbnd[i] * integrals[i]
	}
	twist *= 0.5 * o.KTwist * size
	bend *= 0.5 * o.KBend * size

	chol := 0.0
	if o.HasPitch {
		for i := 0; i < 3; i++ {
			chol += 2 * curlnn[i] * bcint1(nnt[i]) * o.Pitch
		}
		chol += o.Pitch * o.Pitch
		chol *= 0.5 * o.KTwist * size
	}

	return splay + twist + bend + chol, nil
}

func (o *Nematic) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	if o.Director == nil {
		return MapInfo{}, chk.Err("Nematic requires a director field")
	}
	return MapInfo{Grade: mesh.GradeArea, Sel: sel, Fld: o.Director, Integrand: o.integrand}, nil
}

func (o *Nematic) Grade(m *mesh.Mesh) int { return mesh.GradeArea }

func (o *Nematic) Field() *field.Field { return o.Director }

func (o *Nematic) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *Nematic) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *Nematic) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

func (o *Nematic) FieldGradient(m *mesh.Mesh, sel *selection.Selection) (*field.Field, error) {
	return evalFieldGradient(o, m, sel)
}

// Rebind follows replaced objects after refinement
func (o *Nematic) Rebind(dict map[any]any) {
	if f, ok := dict[o.Director].(*field.Field); ok {
		o.Director = f
	}
}

/* NematicElectric -------------------------------------------------------- */

// NematicElectric measures ∫(n·E)² on triangles, with E = ∇φ derived from a
// potential field or supplied as a constant vector
type NematicElectric struct {
	Director  *field.Field
	Potential *field.Field // electric potential; E = ∇φ per element
	E         []float64    // constant field used when Potential is nil
}

func (o *NematicElectric) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	if m.Ndim != 3 || o.Director.Psize != 3 {
		return 0, chk.Err("NematicElectric requires a 3-component director on a 3-dimensional mesh")
	}
	size, err := ElementSize(m, mesh.GradeArea, id, vids)
	if err != nil {
		return 0, err
	}
	var ee []float64
	if o.Potential != nil {
		if ee, err = evaluateFieldGradient(m, o.Potential, vids); err != nil {
			return 0, err
		}
	} else if len(o.E) == 3 {
		ee = o.E
	} else {
		return 0, chk.Err("NematicElectric requires a potential field or a constant electric field")
	}

	nnt, err := directorTranspose(o.Director, vids)
	if err != nil {
		return 0, err
	}
	total := ee[0]*ee[0]*bcint(nnt[0], nnt[0]) +
		ee[1]*ee[1]*bcint(nnt[1], nnt[1]) +
		ee[2]*ee[2]*bcint(nnt[2], nnt[2]) +
		2*ee[0]*ee[1]*bcint(nnt[0], nnt[1]) +
		2*ee[1]*ee[2]*bcint(nnt[1], nnt[2]) +
		2*ee[2]*ee[0]*bcint(nnt[2], nnt[0])
	return size * total, nil
}

func (o *NematicElectric) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	if o.Director == nil {
		return MapInfo{}, chk.Err("NematicElectric requires a director field")
	}
	return MapInfo{Grade: mesh.GradeArea, Sel: sel, Fld: o.Director, Integrand: o.integrand}, nil
}

func (o *NematicElectric) Grade(m *mesh.Mesh) int { return mesh.GradeArea }

func (o *NematicElectric) Field() *field.Field { return o.Director }

func (o *NematicElectric) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *NematicElectric) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *NematicElectric) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

func (o *NematicElectric) FieldGradient(m *mesh.Mesh, sel *selection.Selection) (*field.Field, error) {
	return evalFieldGradient(o, m, sel)
}

// Rebind follows replaced objects after refinement
func (o *NematicElectric) Rebind(dict map[any]any) {
	if f, ok := dict[o.Director].(*field.Field); ok {
		o.Director = f
	}
	if o.Potential != nil {
		if f, ok := dict[o.Potential].(*field.Field); ok {
			o.Potential = f
		}
	}
}
