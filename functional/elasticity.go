// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package functional

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"

	"github.com/ConduitDan/morpho/mesh"
	"github.com/ConduitDan/morpho/selection"
)

/* LinearElasticity ------------------------------------------------------- */

// LinearElasticity measures the linear elastic energy of the deformation
// from a reference mesh:
//   w·(μ·tr(C²) + ½λ·tr(C)²),  C = ½(G_def·G_ref⁻¹ − I)
// with G the Gram matrix of the element side vectors and w the reference
// element size. The Lamé coefficients derive from the Poisson ratio.
type LinearElasticity struct {
	RefMesh *mesh.Mesh
	Poisson float64
	Grd     int // grade to act on; 0 selects the reference maxgrade
}

// NewLinearElasticity creates the energy with Poisson ratio 0.3
func NewLinearElasticity(ref *mesh.Mesh) *LinearElasticity {
	return &LinearElasticity{RefMesh: ref, Poisson: 0.3}
}

// calculateGram fills gram with the inner products of the element side
// vectors u_i = x_i − x_0
func calculateGram(vert [][]float64, vids []int, gram [][]float64) {
	ndim := len(vert)
	gdim := len(vids) - 1
	s := make([][]float64, gdim)
	for j := 1; j < len(vids); j++ {
		s[j-1] = make([]float64, ndim)
		for k := 0; k < ndim; k++ {
			s[j-1][k] = vert[k][vids[j]] - vert[k][vids[0]]
		}
	}
	for i := 0; i < gdim; i++ {
		for j := 0; j < gdim; j++ {
			gram[i][j] = vecdot(s[i], s[j])
		}
	}
}

func (o *LinearElasticity) lame() (μ, λ float64) {
	ν := o.Poisson
	μ = 0.5 / (1 + ν)
	λ = ν / (1 + ν) / (1 - 2*ν)
	return
}

func (o *LinearElasticity) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	gdim := len(vids) - 1
	gramref := la.MatAlloc(gdim, gdim)
	gramdef := la.MatAlloc(gdim, gdim)
	q := la.MatAlloc(gdim, gdim)
	r := la.MatAlloc(gdim, gdim)

	calculateGram(o.RefMesh.Vert, vids, gramref)
	calculateGram(m.Vert, vids, gramdef)

	_, err := la.MatInv(q, gramref, 1e-14)
	if err != nil {
		return 0, chk.Err("singular reference Gram matrix on element %d: %v", id, err)
	}
	la.MatMul(r, 1, gramdef, q)

	// cg = ½(r − 1)
	cg := la.MatAlloc(gdim, gdim)
	for i := 0; i < gdim; i++ {
		for j := 0; j < gdim; j++ {
			cg[i][j] = 0.5 * r[i][j]
		}
		cg[i][i] -= 0.5
	}

	trcg := 0.0
	for i := 0; i < gdim; i++ {
		trcg += cg[i][i]
	}
	la.MatMul(r, 1, cg, cg)
	trcgcg := 0.0
	for i := 0; i < gdim; i++ {
		trcgcg += r[i][i]
	}

	weight, err := ElementSize(o.RefMesh, o.grade(m), id, vids)
	if err != nil {
		return 0, err
	}
	μ, λ := o.lame()
	return weight * (μ*trcgcg + 0.5*λ*trcg*trcg), nil
}

func (o *LinearElasticity) grade(m *mesh.Mesh) int {
	if o.Grd > 0 {
		return o.Grd
	}
	return o.RefMesh.MaxGrade()
}

func (o *LinearElasticity) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	if o.RefMesh == nil {
		return MapInfo{}, chk.Err("LinearElasticity requires a reference mesh")
	}
	return MapInfo{Grade: o.grade(m), Sel: sel, Integrand: o.integrand, Sym: SymmetryAdd}, nil
}

func (o *LinearElasticity) Grade(m *mesh.Mesh) int { return o.grade(m) }

func (o *LinearElasticity) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *LinearElasticity) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *LinearElasticity) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

// Rebind follows replaced objects after refinement
func (o *LinearElasticity) Rebind(dict map[any]any) {
	if r, ok := dict[o.RefMesh].(*mesh.Mesh); ok {
		o.RefMesh = r
	}
}

/* EquiElement ------------------------------------------------------------ */

// EquiElement penalizes the variance of the sizes of the elements incident
// on each vertex, Σᵢ(1 − sᵢ/s̄)², optionally weighting each element
type EquiElement struct {
	Grd    int       // grade to act on; 0 selects maxgrade
	Weight []float64 // optional per-element weights
}

func (o *EquiElement) grade(m *mesh.Mesh) int {
	if o.Grd > 0 && o.Grd <= m.MaxGrade() {
		return o.Grd
	}
	return m.MaxGrade()
}

func (o *EquiElement) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	g := o.grade(m)
	vtoel, err := m.Connectivity(g, mesh.GradeVertex)
	if err != nil {
		return 0, err
	}
	conn, err := vtoel.RowIndices(id)
	if err != nil {
		return 0, err
	}
	if len(conn) <= 1 {
		return 0, nil
	}

	size := make([]float64, len(conn))
	mean := 0.0
	for i, e := range conn {
		evids, err := m.ElementVertices(g, e)
		if err != nil {
			return 0, err
		}
		if size[i], err = ElementSize(m, g, e, evids); err != nil {
			return 0, err
		}
		mean += size[i]
	}
	mean /= float64(len(conn))
	if math.Abs(mean) < eps {
		return 0, chk.Err("zero mean element size at vertex %d", id)
	}

	total := 0.0
	wmeanGlobal := 0.0
	for _, w := range o.Weight {
		wmeanGlobal += w
	}
	if len(o.Weight) > 0 {
		wmeanGlobal /= float64(len(o.Weight))
	}
	if len(o.Weight) == 0 || math.Abs(wmeanGlobal) < eps {
		for i := range conn {
			t := 1.0 - size[i]/mean
			total += t * t
		}
	} else {
		wmean := 0.0
		weight := make([]float64, len(conn))
		for i, e := range conn {
			weight[i] = 1.0
			if e < len(o.Weight) {
				weight[i] = o.Weight[e]
			}
			wmean += weight[i]
		}
		wmean /= float64(len(conn))
		if math.Abs(wmean) < eps {
			wmean = 1.0
		}
		for i := range conn {
			t := 1.0 - weight[i]*size[i]/mean/wmean
			total += t * t
		}
	}
	return total, nil
}

func (o *EquiElement) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	g := o.grade(m)
	if _, err := m.Connectivity(g, mesh.GradeVertex); err != nil {
		return MapInfo{}, err
	}
	if _, err := m.Connectivity(0, g); err != nil {
		return MapInfo{}, err
	}
	return MapInfo{Grade: mesh.GradeVertex, Sel: sel, Integrand: o.integrand, Sym: SymmetryAdd}, nil
}

func (o *EquiElement) Grade(m *mesh.Mesh) int { return mesh.GradeVertex }

func (o *EquiElement) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *EquiElement) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *EquiElement) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

/* ScalarPotential -------------------------------------------------------- */

// ScalarPotential evaluates a user potential at every vertex. An analytic
// gradient closure may be supplied; otherwise central differences are used.
type ScalarPotential struct {
	Fn     func(x []float64) (float64, error)
	GradFn func(x []float64) ([]float64, error)
}

func (o *ScalarPotential) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	return o.Fn(m.Vertex(id))
}

func (o *ScalarPotential) gradient(m *mesh.Mesh, id int, vids []int, frc [][]float64) error {
	g, err := o.GradFn(m.Vertex(id))
	if err != nil {
		return err
	}
	if len(g) != m.Ndim {
		return chk.Err("potential gradient has %d components; mesh dimension is %d", len(g), m.Ndim)
	}
	addToCol(frc, id, 1.0, g)
	return nil
}

func (o *ScalarPotential) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	if o.Fn == nil {
		return MapInfo{}, chk.Err("ScalarPotential requires a callable potential")
	}
	info := MapInfo{Grade: mesh.GradeVertex, Sel: sel, Integrand: o.integrand}
	if o.GradFn != nil {
		info.Grad = o.gradient
	}
	return info, nil
}

func (o *ScalarPotential) Grade(m *mesh.Mesh) int { return mesh.GradeVertex }

func (o *ScalarPotential) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *ScalarPotential) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *ScalarPotential) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}
