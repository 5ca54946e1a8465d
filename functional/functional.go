// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package functional implements energy functionals over mesh elements and
// the evaluator that maps their integrands and gradients across a mesh
package functional

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"

	"github.com/ConduitDan/morpho/field"
	"github.com/ConduitDan/morpho/mesh"
	"github.com/ConduitDan/morpho/selection"
)

// numerical constants
const (
	eps     = 1e-16 // zero test for degenerate geometry
	epsDiff = 1e-10 // finite-difference step
)

// Symmetry controls how forces on identified vertices are combined after
// gradient assembly
type Symmetry int

const (
	SymmetryNone Symmetry = iota
	SymmetryAdd           // identified pairs receive the sum of both forces
)

// Integrand evaluates one element. id is the element id in the native grade
// and vids its vertex indices.
type Integrand func(m *mesh.Mesh, id int, vids []int) (float64, error)

// Gradient accumulates the analytic position gradient of one element into
// the force matrix frc [ndim][nverts]
type Gradient func(m *mesh.Mesh, id int, vids []int, frc [][]float64) error

// Dependencies returns vertices outside element id whose motion changes the
// integrand of id
type Dependencies func(m *mesh.Mesh, id int) ([]int, error)

// MapInfo is the capability table a functional hands to the evaluator
type MapInfo struct {
	Grade     int                  // native grade
	Sel       *selection.Selection // restricts evaluation, may be nil
	Fld       *field.Field         // field for numerical field gradients
	Integrand Integrand            // per-element value
	Grad      Gradient             // analytic gradient; nil means numerical
	Deps      Dependencies         // remote vertices, may be nil
	Sym       Symmetry             // symmetry behavior
}

// Functional is the uniform protocol all energies and constraints satisfy
type Functional interface {
	Grade(m *mesh.Mesh) int
	Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error)
	Total(m *mesh.Mesh, sel *selection.Selection) (float64, error)
	Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error)
}

// FieldFunctional is satisfied by functionals that consume a field and can
// differentiate with respect to its components
type FieldFunctional interface {
	Functional
	Field() *field.Field
	FieldGradient(m *mesh.Mesh, sel *selection.Selection) (*field.Field, error)
}

// preparer is implemented by every functional in this package
type preparer interface {
	prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error)
}

// evaluation entry points shared by the concrete functionals

func evalIntegrand(f preparer, m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	info, err := f.prepare(m, sel)
	if err != nil {
		return nil, err
	}
	return MapIntegrand(m, &info)
}

func evalTotal(f preparer, m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	info, err := f.prepare(m, sel)
	if err != nil {
		return 0, err
	}
	return SumIntegrand(m, &info)
}

func evalGradient(f preparer, m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	info, err := f.prepare(m, sel)
	if err != nil {
		return nil, err
	}
	if info.Grad != nil {
		return MapGradient(m, &info)
	}
	return MapNumericalGradient(m, &info)
}

func evalFieldGradient(f preparer, m *mesh.Mesh, sel *selection.Selection) (*field.Field, error) {
	info, err := f.prepare(m, sel)
	if err != nil {
		return nil, err
	}
	return MapNumericalFieldGradient(m, &info)
}

/* evaluator ------------------------------------------------------------- */

// countElements returns the number of elements of grade g and the
// connectivity used to fetch their vertex lists (nil for vertices)
func countElements(m *mesh.Mesh, g int) (n int, conn elemTable, err error) {
	if g == mesh.GradeVertex {
		return m.NumVerts(), nil, nil
	}
	c, err := m.Connectivity(0, g)
	if err != nil || c == nil {
		return 0, nil, chk.Err("mesh has no elements of grade %d", g)
	}
	return c.Ncols, c, nil
}

// elemTable abstracts vertex lookup for a grade
type elemTable interface {
	RowIndices(col int) ([]int, error)
}

// vertexList returns the vertices of element id
func vertexList(conn elemTable, id int) ([]int, error) {
	if conn == nil {
		return []int{id}, nil
	}
	return conn.RowIndices(id)
}

// imageList returns the set of ids of image elements of grade g: targets of
// the symmetry relation C(g,g) that are skipped during integration
func imageList(m *mesh.Mesh, g int) map[int]bool {
	conn, err := m.Connectivity(g, g)
	if err != nil || conn == nil {
		return nil
	}
	imgs := make(map[int]bool)
	conn.Loop(func(i, j int, val float64) {
		imgs[j] = true
	})
	return imgs
}

// elementIDs returns the ids to visit: the selection's sorted id list for
// the grade, or all of [0,n)
func elementIDs(sel *selection.Selection, g, n int) []int {
	if sel != nil {
		return sel.IDs(g)
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// SumIntegrand sums the integrand over the mesh with Kahan compensation,
// skipping image elements
func SumIntegrand(m *mesh.Mesh, info *MapInfo) (float64, error) {
	n, conn, err := countElements(m, info.Grade)
	if err != nil {
		return 0, err
	}
	imgs := imageList(m, info.Grade)
	var sum, c float64
	for _, id := range elementIDs(info.Sel, info.Grade, n) {
		if imgs[id] {
			continue
		}
		vids, err := vertexList(conn, id)
		if err != nil {
			return 0, err
		}
		r, err := info.Integrand(m, id, vids)
		if err != nil {
			return 0, err
		}
		y := r - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum, nil
}

// MapIntegrand evaluates the integrand per element, returning one value per
// element of the native grade; unvisited elements keep zero
func MapIntegrand(m *mesh.Mesh, info *MapInfo) ([]float64, error) {
	n, conn, err := countElements(m, info.Grade)
	if err != nil {
		return nil, err
	}
	imgs := imageList(m, info.Grade)
	out := make([]float64, n)
	for _, id := range elementIDs(info.Sel, info.Grade, n) {
		if imgs[id] {
			continue
		}
		vids, err := vertexList(conn, id)
		if err != nil {
			return nil, err
		}
		out[id], err = info.Integrand(m, id, vids)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MapGradient assembles the analytic gradient over all elements into a
// ndim × nverts force matrix
func MapGradient(m *mesh.Mesh, info *MapInfo) ([][]float64, error) {
	n, conn, err := countElements(m, info.Grade)
	if err != nil {
		return nil, err
	}
	frc := la.MatAlloc(m.Ndim, m.NumVerts())
	for _, id := range elementIDs(info.Sel, info.Grade, n) {
		vids, err := vertexList(conn, id)
		if err != nil {
			return nil, err
		}
		if err = info.Grad(m, id, vids, frc); err != nil {
			return nil, err
		}
	}
	if info.Sym == SymmetryAdd {
		symmetrySumForces(m, frc)
	}
	return frc, nil
}

// numericalGradient accumulates central-difference derivatives of element
// id with respect to the coordinates of its own vertices
func numericalGradient(m *mesh.Mesh, info *MapInfo, id int, vids []int, frc [][]float64) error {
	for _, v := range vids {
		for k := 0; k < m.Ndim; k++ {
			x0 := m.Vert[k][v]
			m.Vert[k][v] = x0 + epsDiff
			fp, err := info.Integrand(m, id, vids)
			if err != nil {
				m.Vert[k][v] = x0
				return err
			}
			m.Vert[k][v] = x0 - epsDiff
			fm, err := info.Integrand(m, id, vids)
			m.Vert[k][v] = x0
			if err != nil {
				return err
			}
			frc[k][v] += (fp - fm) / (2 * epsDiff)
		}
	}
	return nil
}

// numericalRemoteGradient accumulates the derivative of element id with
// respect to the coordinates of a vertex outside the element
func numericalRemoteGradient(m *mesh.Mesh, info *MapInfo, remote, id int, vids []int, frc [][]float64) error {
	for k := 0; k < m.Ndim; k++ {
		x0 := m.Vert[k][remote]
		m.Vert[k][remote] = x0 + epsDiff
		fp, err := info.Integrand(m, id, vids)
		if err != nil {
			m.Vert[k][remote] = x0
			return err
		}
		m.Vert[k][remote] = x0 - epsDiff
		fm, err := info.Integrand(m, id, vids)
		m.Vert[k][remote] = x0
		if err != nil {
			return err
		}
		frc[k][remote] += (fp - fm) / (2 * epsDiff)
	}
	return nil
}

// MapNumericalGradient assembles the gradient by central differences,
// expanding over dependency vertices when the functional declares them
func MapNumericalGradient(m *mesh.Mesh, info *MapInfo) ([][]float64, error) {
	n, conn, err := countElements(m, info.Grade)
	if err != nil {
		return nil, err
	}
	imgs := imageList(m, info.Grade)
	frc := la.MatAlloc(m.Ndim, m.NumVerts())
	for _, id := range elementIDs(info.Sel, info.Grade, n) {
		if imgs[id] {
			continue
		}
		vids, err := vertexList(conn, id)
		if err != nil {
			return nil, err
		}
		if err = numericalGradient(m, info, id, vids, frc); err != nil {
			return nil, err
		}
		if info.Deps == nil {
			continue
		}
		deps, err := info.Deps(m, id)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			if containsVertex(vids, d) {
				continue
			}
			if err = numericalRemoteGradient(m, info, d, id, vids, frc); err != nil {
				return nil, err
			}
		}
	}
	if info.Sym == SymmetryAdd {
		symmetrySumForces(m, frc)
	}
	return frc, nil
}

// MapNumericalFieldGradient differentiates the integrand with respect to
// the components of info.Fld by central differences, returning a field of
// the same shape
func MapNumericalFieldGradient(m *mesh.Mesh, info *MapInfo) (*field.Field, error) {
	fld := info.Fld
	if fld == nil {
		return nil, chk.Err("functional has no field to differentiate")
	}
	_, conn, err := countElements(m, info.Grade)
	if err != nil {
		return nil, err
	}
	grad := fld.Clone()
	grad.Zero()

	for g := 0; g < mesh.NGrades; g++ {
		if fld.Dof[g] == 0 {
			continue
		}
		ng, err := m.Count(g)
		if err != nil {
			return nil, err
		}
		// elements of the native grade that depend on each grade-g element
		var touch elemTable
		if !(info.Grade == g && conn == nil) {
			t, err := m.Connectivity(info.Grade, g)
			if err != nil {
				return nil, err
			}
			if t != nil {
				touch = t
			}
		}
		for id := 0; id < ng; id++ {
			elems := []int{id}
			if touch != nil {
				elems, err = touch.RowIndices(id)
				if err != nil {
					return nil, err
				}
			}
			for _, e := range elems {
				if info.Sel != nil && !info.Sel.IsSelected(info.Grade, e) {
					continue
				}
				vids, err := vertexList(conn, e)
				if err != nil {
					return nil, err
				}
				for j := 0; j < fld.Dof[g]; j++ {
					it := fld.Offset[g] + id*fld.Dof[g] + j
					for c := 0; c < fld.Psize; c++ {
						f0 := fld.Data[c][it]
						fld.Data[c][it] = f0 + epsDiff
						fr, err := info.Integrand(m, e, vids)
						if err != nil {
							fld.Data[c][it] = f0
							return nil, err
						}
						fld.Data[c][it] = f0 - epsDiff
						fl, err := info.Integrand(m, e, vids)
						fld.Data[c][it] = f0
						if err != nil {
							return nil, err
						}
						grad.Data[c][it] += (fr - fl) / (2 * epsDiff)
					}
				}
			}
		}
	}
	return grad, nil
}

// symmetrySumForces writes the summed force of each identified vertex pair
// to both entries
func symmetrySumForces(m *mesh.Mesh, frc [][]float64) {
	s := m.Symmetry()
	if s == nil {
		return
	}
	s.Loop(func(i, j int, val float64) {
		for k := 0; k < m.Ndim; k++ {
			sum := frc[k][i] + frc[k][j]
			frc[k][i] = sum
			frc[k][j] = sum
		}
	})
}

func containsVertex(vids []int, id int) bool {
	for _, v := range vids {
		if v == id {
			return true
		}
	}
	return false
}

/* small vector helpers --------------------------------------------------- */

func vecsub(a, b, out []float64) {
	for i := range out {
		out[i] = a[i] - b[i]
	}
}

func vecadd(a, b, out []float64) {
	for i := range out {
		out[i] = a[i] + b[i]
	}
}

func vecaddscale(a []float64, λ float64, b, out []float64) {
	for i := range out {
		out[i] = a[i] + λ*b[i]
	}
}

func vecscale(λ float64, a, out []float64) {
	for i := range out {
		out[i] = λ * a[i]
	}
}

func veccross(a, b, out []float64) {
	out[0] = a[1]*b[2] - a[2]*b[1]
	out[1] = a[2]*b[0] - a[0]*b[2]
	out[2] = a[0]*b[1] - a[1]*b[0]
}

func vecdot(a, b []float64) (res float64) {
	for i := range a {
		res += a[i] * b[i]
	}
	return
}

func vecnorm(a []float64) float64 {
	return math.Sqrt(vecdot(a, a))
}

// addToCol accumulates frc[:][id] += λ·v
func addToCol(frc [][]float64, id int, λ float64, v []float64) {
	for k := range frc {
		frc[k][id] += λ * v[k]
	}
}

// vertexCoords fetches the coordinates of each vertex in vids
func vertexCoords(m *mesh.Mesh, vids []int) [][]float64 {
	x := make([][]float64, len(vids))
	for n, v := range vids {
		x[n] = m.Vertex(v)
	}
	return x
}

// ElementSize returns the length, area or volume of element id of grade g
func ElementSize(m *mesh.Mesh, g, id int, vids []int) (float64, error) {
	switch g {
	case mesh.GradeLine:
		return lengthIntegrand(m, id, vids)
	case mesh.GradeArea:
		return areaIntegrand(m, id, vids)
	case mesh.GradeVolume:
		return volumeIntegrand(m, id, vids)
	}
	return 0, chk.Err("no element size for grade %d", g)
}
