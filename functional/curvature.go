// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package functional

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/utl"

	"github.com/ConduitDan/morpho/mesh"
	"github.com/ConduitDan/morpho/selection"
)

/* LineCurvatureSq -------------------------------------------------------- */

// LineCurvatureSq measures the integrated squared curvature of a curve,
// computed per vertex from the turning angle of the two adjacent edges.
// IntegrandOnly divides once more by the element length, yielding the bare
// squared curvature.
type LineCurvatureSq struct {
	IntegrandOnly bool
}

func (o *LineCurvatureSq) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	nbrs, err := m.FindNeighbors(mesh.GradeVertex, id, mesh.GradeLine)
	if err != nil {
		return 0, err
	}
	if len(nbrs) != 2 {
		return 0, nil
	}
	syn := m.Synonyms(mesh.GradeVertex, id)
	s := [2][]float64{make([]float64, m.Ndim), make([]float64, m.Ndim)}
	sgn := -1.0
	for i, nb := range nbrs {
		entries, err := m.ElementVertices(mesh.GradeLine, nb)
		if err != nil {
			return 0, err
		}
		x0, x1 := m.Vertex(entries[0]), m.Vertex(entries[1])
		vecsub(x0, x1, s[i])
		if !(entries[0] == id || containsVertex(syn, entries[0])) {
			sgn *= -1
		}
	}
	n0 := vecnorm(s[0])
	n1 := vecnorm(s[1])
	if n0 < eps || n1 < eps {
		return 0, chk.Err("degenerate edge at vertex %d", id)
	}
	u := sgn * vecdot(s[0], s[1]) / n0 / n1
	ll := 0.5 * (n0 + n1)
	if u < 1 {
		u = math.Acos(u)
	} else {
		u = 0
	}
	result := u * u / ll
	if o.IntegrandOnly {
		result /= ll
	}
	return result, nil
}

// dependencies returns the far endpoints of the edges adjacent to vertex id
func (o *LineCurvatureSq) dependencies(m *mesh.Mesh, id int) (out []int, err error) {
	nbrs, err := m.FindNeighbors(mesh.GradeVertex, id, mesh.GradeLine)
	if err != nil {
		return nil, err
	}
	for _, nb := range nbrs {
		entries, err := m.ElementVertices(mesh.GradeLine, nb)
		if err != nil {
			return nil, err
		}
		for _, v := range entries {
			if v != id {
				out = append(out, v)
			}
		}
	}
	return utl.IntUnique(out), nil
}

func (o *LineCurvatureSq) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	if _, err := m.Connectivity(0, mesh.GradeLine); err != nil {
		return MapInfo{}, err
	}
	return MapInfo{Grade: mesh.GradeVertex, Sel: sel, Integrand: o.integrand, Deps: o.dependencies, Sym: SymmetryAdd}, nil
}

func (o *LineCurvatureSq) Grade(m *mesh.Mesh) int { return mesh.GradeVertex }

func (o *LineCurvatureSq) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *LineCurvatureSq) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *LineCurvatureSq) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

/* LineTorsionSq ---------------------------------------------------------- */

// LineTorsionSq measures the integrated squared torsion of a curve, computed
// per edge from three consecutive segments assembled in canonical order
type LineTorsionSq struct{}

func (o *LineTorsionSq) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	nbrs, err := m.FindNeighbors(mesh.GradeLine, id, mesh.GradeLine)
	if err != nil {
		return 0, err
	}
	if len(nbrs) < 2 {
		return 0, nil
	}

	// ordered vertex list:     v the element
	//              0 --- 1/2 --- 3/4 --- 5
	// where 1/2 and 3/4 may carry different indices due to symmetries
	var vlist [6]int
	var vtype [6]int
	for i := range vtype {
		vtype[i] = -1
	}
	vlist[2], vlist[3] = vids[0], vids[1]
	for i := 0; i < 2; i++ {
		entries, err := m.ElementVertices(mesh.GradeLine, nbrs[i])
		if err != nil {
			return 0, err
		}
		for j, v := range entries {
			vlist[4*i+j] = v
		}
	}

	// classify each slot against the element's vertices and their synonyms
	for i := 0; i < 2; i++ {
		syn := m.Synonyms(mesh.GradeVertex, vids[i])
		for j := 0; j < 6; j++ {
			if vlist[j] == vids[i] || containsVertex(syn, vlist[j]) {
				vtype[j] = i
			}
		}
	}
	if vtype[0] == 1 || vtype[1] == 1 { // first segment must join the first vertex
		vlist[0], vlist[4] = vlist[4], vlist[0]
		vlist[1], vlist[5] = vlist[5], vlist[1]
		vtype[0], vtype[4] = vtype[4], vtype[0]
		vtype[1], vtype[5] = vtype[5], vtype[1]
	}
	if vtype[1] == -1 {
		vlist[0], vlist[1] = vlist[1], vlist[0]
		vtype[0], vtype[1] = vtype[1], vtype[0]
	}
	if vtype[4] == -1 {
		vlist[4], vlist[5] = vlist[5], vlist[4]
		vtype[4], vtype[5] = vtype[5], vtype[4]
	}

	var x [6][]float64
	for i := 0; i < 6; i++ {
		x[i] = pad3(m.Vertex(vlist[i]))
	}
	a := make([]float64, 3)
	b := make([]float64, 3)
	c := make([]float64, 3)
	crossAB := make([]float64, 3)
	crossBC := make([]float64, 3)
	vecsub(x[1], x[0], a)
	vecsub(x[3], x[2], b)
	vecsub(x[5], x[4], c)
	veccross(a, b, crossAB)
	veccross(b, c, crossBC)
	normB := vecnorm(b)
	normAB := vecnorm(crossAB)
	normBC := vecnorm(crossBC)
	if normB < eps {
		return 0, chk.Err("degenerate edge element %d", id)
	}
	s := vecdot(a, crossBC) * normB
	if normAB > eps {
		s /= normAB
	}
	if normBC > eps {
		s /= normBC
	}
	s = math.Asin(s)
	return s * s / normB, nil
}

// dependencies returns the vertices of the edges adjacent to edge id
func (o *LineTorsionSq) dependencies(m *mesh.Mesh, id int) (out []int, err error) {
	nbrs, err := m.FindNeighbors(mesh.GradeLine, id, mesh.GradeLine)
	if err != nil {
		return nil, err
	}
	for _, nb := range nbrs {
		entries, err := m.ElementVertices(mesh.GradeLine, nb)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return utl.IntUnique(out), nil
}

func (o *LineTorsionSq) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	if _, err := m.Connectivity(0, mesh.GradeLine); err != nil {
		return MapInfo{}, err
	}
	return MapInfo{Grade: mesh.GradeLine, Sel: sel, Integrand: o.integrand, Deps: o.dependencies, Sym: SymmetryAdd}, nil
}

func (o *LineTorsionSq) Grade(m *mesh.Mesh) int { return mesh.GradeLine }

func (o *LineTorsionSq) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *LineTorsionSq) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *LineTorsionSq) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

/* MeanCurvatureSq -------------------------------------------------------- */

// MeanCurvatureSq measures the integrated squared mean curvature of a
// triangulated surface, computed per vertex from the cotangent force of the
// incident triangles
type MeanCurvatureSq struct {
	IntegrandOnly bool
}

// orderVertices moves the vertex matching id or one of its synonyms to the
// front of vids
func orderVertices(syn []int, id int, vids []int) bool {
	posn := -1
	for i, v := range vids {
		if v == id || containsVertex(syn, v) {
			posn = i
			break
		}
	}
	if posn < 0 {
		return false
	}
	if posn > 0 {
		vids[0], vids[posn] = vids[posn], vids[0]
	}
	return true
}

func (o *MeanCurvatureSq) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	nbrs, err := m.FindNeighbors(mesh.GradeVertex, id, mesh.GradeArea)
	if err != nil {
		return 0, err
	}
	syn := m.Synonyms(mesh.GradeVertex, id)
	frc := make([]float64, 3)
	s0 := make([]float64, 3)
	s1 := make([]float64, 3)
	s01 := make([]float64, 3)
	s101 := make([]float64, 3)
	areasum := 0.0
	for _, nb := range nbrs {
		tv, err := m.ElementVertices(mesh.GradeArea, nb)
		if err != nil {
			return 0, err
		}
		tri := []int{tv[0], tv[1], tv[2]}
		if !orderVertices(syn, id, tri) {
			return 0, chk.Err("vertex %d missing from incident triangle %d", id, nb)
		}
		x0 := pad3(m.Vertex(tri[0]))
		x1 := pad3(m.Vertex(tri[1]))
		x2 := pad3(m.Vertex(tri[2]))
		vecsub(x1, x0, s0)
		vecsub(x2, x1, s1)
		veccross(s0, s1, s01)
		norm := vecnorm(s01)
		if norm < eps {
			return 0, chk.Err("degenerate triangle %d at vertex %d", nb, id)
		}
		areasum += norm / 2
		veccross(s1, s01, s101)
		vecaddscale(frc, 0.5/norm, s101, frc)
	}
	if areasum < eps {
		return 0, nil
	}
	out := vecdot(frc, frc) / (areasum / 3.0) / 4.0
	if o.IntegrandOnly {
		out /= areasum / 3.0
	}
	return out, nil
}

// areaDependencies returns the vertices of the triangles incident on vertex
// id, excluding id itself
func areaDependencies(m *mesh.Mesh, id int) (out []int, err error) {
	nbrs, err := m.FindNeighbors(mesh.GradeVertex, id, mesh.GradeArea)
	if err != nil {
		return nil, err
	}
	for _, nb := range nbrs {
		tv, err := m.ElementVertices(mesh.GradeArea, nb)
		if err != nil {
			return nil, err
		}
		for _, v := range tv {
			if v != id {
				out = append(out, v)
			}
		}
	}
	return utl.IntUnique(out), nil
}

func (o *MeanCurvatureSq) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	if _, err := m.Connectivity(0, mesh.GradeArea); err != nil {
		return MapInfo{}, err
	}
	return MapInfo{Grade: mesh.GradeVertex, Sel: sel, Integrand: o.integrand, Deps: areaDependencies, Sym: SymmetryAdd}, nil
}

func (o *MeanCurvatureSq) Grade(m *mesh.Mesh) int { return mesh.GradeVertex }

func (o *MeanCurvatureSq) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *MeanCurvatureSq) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *MeanCurvatureSq) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

/* GaussCurvature --------------------------------------------------------- */

// GaussCurvature measures the integrated Gaussian curvature per vertex as
// the angle deficit 2π − Σθ of the incident triangles
type GaussCurvature struct {
	IntegrandOnly bool
}

func (o *GaussCurvature) integrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	nbrs, err := m.FindNeighbors(mesh.GradeVertex, id, mesh.GradeArea)
	if err != nil {
		return 0, err
	}
	syn := m.Synonyms(mesh.GradeVertex, id)
	s0 := make([]float64, 3)
	s1 := make([]float64, 3)
	s01 := make([]float64, 3)
	anglesum, areasum := 0.0, 0.0
	for _, nb := range nbrs {
		tv, err := m.ElementVertices(mesh.GradeArea, nb)
		if err != nil {
			return 0, err
		}
		tri := []int{tv[0], tv[1], tv[2]}
		if !orderVertices(syn, id, tri) {
			return 0, chk.Err("vertex %d missing from incident triangle %d", id, nb)
		}
		x0 := pad3(m.Vertex(tri[0]))
		x1 := pad3(m.Vertex(tri[1]))
		x2 := pad3(m.Vertex(tri[2]))
		vecsub(x1, x0, s0)
		vecsub(x2, x0, s1)
		veccross(s0, s1, s01)
		area := vecnorm(s01)
		anglesum += math.Atan2(area, vecdot(s0, s1))
		areasum += area / 2
	}
	out := 2*math.Pi - anglesum
	if o.IntegrandOnly {
		if areasum < eps {
			return 0, chk.Err("zero incident area at vertex %d", id)
		}
		out /= areasum / 3.0
	}
	return out, nil
}

func (o *GaussCurvature) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	if _, err := m.Connectivity(0, mesh.GradeArea); err != nil {
		return MapInfo{}, err
	}
	return MapInfo{Grade: mesh.GradeVertex, Sel: sel, Integrand: o.integrand, Deps: areaDependencies, Sym: SymmetryAdd}, nil
}

func (o *GaussCurvature) Grade(m *mesh.Mesh) int { return mesh.GradeVertex }

func (o *GaussCurvature) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *GaussCurvature) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *GaussCurvature) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}
