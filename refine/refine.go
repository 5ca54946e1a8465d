// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package refine implements edge-midpoint refinement of simplicial meshes,
// carrying fields and selections across through a refinement map
package refine

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/gm"
	"github.com/cpmech/gosl/la"

	"github.com/ConduitDan/morpho/field"
	"github.com/ConduitDan/morpho/mesh"
	"github.com/ConduitDan/morpho/selection"
	"github.com/ConduitDan/morpho/sparse"
)

// coincidence tolerance for midpoint de-duplication
const tolCoincide = 1e-12

// parents records the pre-refinement ancestry of one new element
type parents struct {
	grade int   // grade of the parent elements
	ids   []int // parent element ids in the old mesh
}

// Map relates each element of the refined mesh to its parents and carries
// the dictionary of replaced objects for Problem.Update
type Map struct {
	Old  *mesh.Mesh
	New  *mesh.Mesh
	Dict map[any]any // old object → refined object

	par [mesh.NGrades]map[int]parents
}

// Refiner refines a mesh together with its dependent fields and selections
type Refiner struct {
	Msh        *mesh.Mesh
	Fields     []*field.Field
	Selections []*selection.Selection
	Sel        *selection.Selection // optional: restricts which elements split
}

// New creates a refiner for mesh m and its dependents
func New(m *mesh.Mesh, fields []*field.Field, sels []*selection.Selection) *Refiner {
	return &Refiner{Msh: m, Fields: fields, Selections: sels}
}

// vertexBins de-duplicates created midpoints by coordinate
type vertexBins struct {
	bins   *gm.Bins
	coords [][]float64 // created midpoints by id
	offset int         // first midpoint id
}

func newVertexBins(m *mesh.Mesh, offset int) *vertexBins {
	o := &vertexBins{offset: offset}
	if m.Ndim == 2 || m.Ndim == 3 {
		xi := make([]float64, m.Ndim)
		xf := make([]float64, m.Ndim)
		for k := 0; k < m.Ndim; k++ {
			xi[k], xf[k] = m.Vert[k][0], m.Vert[k][0]
			for _, x := range m.Vert[k] {
				xi[k] = math.Min(xi[k], x)
				xf[k] = math.Max(xf[k], x)
			}
			pad := 1e-3 * (xf[k] - xi[k] + 1)
			xi[k] -= pad
			xf[k] += pad
		}
		var bins gm.Bins
		if err := bins.Init(xi, xf, 20); err == nil {
			o.bins = &bins
		}
	}
	return o
}

// find returns the id of a previously created midpoint coincident with x,
// or -1
func (o *vertexBins) find(x []float64) int {
	check := func(id int) bool {
		c := o.coords[id-o.offset]
		d := 0.0
		for k := range x {
			d += (x[k] - c[k]) * (x[k] - c[k])
		}
		return d < tolCoincide*tolCoincide
	}
	if o.bins != nil {
		if id := o.bins.Find(x); id >= 0 && check(id) {
			return id
		}
		return -1
	}
	for n := range o.coords {
		if check(n + o.offset) {
			return n + o.offset
		}
	}
	return -1
}

func (o *vertexBins) add(x []float64, id int) {
	o.coords = append(o.coords, x)
	if o.bins != nil {
		o.bins.Append(x, id)
	}
}

// Refine builds the refined mesh and the refinement map, and regenerates
// every dependent field and selection. The returned map's Dict relates each
// input object to its refined counterpart.
func (o *Refiner) Refine() (*Map, error) {
	m := o.Msh
	if m.MaxGrade() < 1 {
		return nil, chk.Err("mesh has no elements to refine")
	}
	if m.HasGrade(mesh.GradeVolume) {
		return nil, chk.Err("refinement of volume elements is not supported")
	}

	res := &Map{Old: m, Dict: make(map[any]any)}
	for g := 0; g < mesh.NGrades; g++ {
		res.par[g] = make(map[int]parents)
	}

	// seed the new vertex table with the original vertices
	nv := m.NumVerts()
	coords := make([][]float64, nv)
	for id := 0; id < nv; id++ {
		coords[id] = m.Vertex(id)
		res.par[0][id] = parents{0, []int{id}}
	}

	conn01, err := m.Connectivity(0, mesh.GradeLine)
	if err != nil {
		return nil, err
	}
	nedges := conn01.Ncols

	// which edges split
	split := make([]bool, nedges)
	for e := 0; e < nedges; e++ {
		split[e] = o.splits(e)
	}

	// create midpoint vertices with coincidence detection
	bins := newVertexBins(m, nv)
	emid := make([]int, nedges)
	for e := 0; e < nedges; e++ {
		emid[e] = -1
		if !split[e] {
			continue
		}
		vids, err := conn01.RowIndices(e)
		if err != nil {
			return nil, err
		}
		a, b := vids[0], vids[1]
		mid := make([]float64, m.Ndim)
		for k := 0; k < m.Ndim; k++ {
			mid[k] = 0.5 * (m.Vert[k][a] + m.Vert[k][b])
		}
		if id := bins.find(mid); id >= 0 {
			emid[e] = id
			continue
		}
		id := len(coords)
		coords = append(coords, mid)
		bins.add(mid, id)
		res.par[0][id] = parents{0, []int{a, b}}
		emid[e] = id
	}

	// split edges
	var edges [][]int
	addEdge := func(a, b int, par parents) {
		res.par[1][len(edges)] = par
		edges = append(edges, []int{a, b})
	}
	for e := 0; e < nedges; e++ {
		vids, err := conn01.RowIndices(e)
		if err != nil {
			return nil, err
		}
		a, b := vids[0], vids[1]
		if split[e] {
			addEdge(a, emid[e], parents{1, []int{e}})
			addEdge(emid[e], b, parents{1, []int{e}})
		} else {
			addEdge(a, b, parents{1, []int{e}})
		}
	}

	// split faces
	var faces [][]int
	if m.HasGrade(mesh.GradeArea) {
		conn02, err := m.Connectivity(0, mesh.GradeArea)
		if err != nil {
			return nil, err
		}
		lookup, err := edgeLookup(conn01)
		if err != nil {
			return nil, err
		}
		addFace := func(f int, tri []int) {
			res.par[2][len(faces)] = parents{2, []int{f}}
			faces = append(faces, tri)
		}
		addInterior := func(f, a, b int) {
			addEdge(a, b, parents{2, []int{f}})
		}
		for f := 0; f < conn02.Ncols; f++ {
			tv, err := conn02.RowIndices(f)
			if err != nil {
				return nil, err
			}
			v0, v1, v2 := tv[0], tv[1], tv[2]
			e01 := lookup[edgeKey(v0, v1)]
			e12 := lookup[edgeKey(v1, v2)]
			e20 := lookup[edgeKey(v2, v0)]
			m01, m12, m20 := emid[e01], emid[e12], emid[e20]
			nref := 0
			for _, mm := range []int{m01, m12, m20} {
				if mm >= 0 {
					nref++
				}
			}
			switch nref {
			case 0:
				addFace(f, []int{v0, v1, v2})
			case 1:
				// rotate so the refined edge joins a and b
				a, b, c, ab := v0, v1, v2, m01
				if m12 >= 0 {
					a, b, c, ab = v1, v2, v0, m12
				} else if m20 >= 0 {
					a, b, c, ab = v2, v0, v1, m20
				}
				addFace(f, []int{a, ab, c})
				addFace(f, []int{ab, b, c})
				addInterior(f, ab, c)
			case 2:
				// rotate so b is shared by the two refined edges
				a, b, c := v0, v1, v2
				xid, yid := m01, m12
				if m01 < 0 { // refined: e12, e20; shared vertex v2
					a, b, c = v1, v2, v0
					xid, yid = m12, m20
				} else if m12 < 0 { // refined: e20, e01; shared vertex v0
					a, b, c = v2, v0, v1
					xid, yid = m20, m01
				}
				addFace(f, []int{xid, b, yid})
				addFace(f, []int{a, xid, yid})
				addFace(f, []int{a, yid, c})
				addInterior(f, xid, yid)
				addInterior(f, a, yid)
			case 3:
				addFace(f, []int{v0, m01, m20})
				addFace(f, []int{v1, m12, m01})
				addFace(f, []int{v2, m20, m12})
				addFace(f, []int{m01, m12, m20})
				addInterior(f, m01, m12)
				addInterior(f, m12, m20)
				addInterior(f, m20, m01)
			}
		}
	}

	// assemble the refined mesh
	vert := la.MatAlloc(m.Ndim, len(coords))
	for id, x := range coords {
		for k := 0; k < m.Ndim; k++ {
			vert[k][id] = x[k]
		}
	}
	nm := mesh.New(vert)
	nm.AddElements(mesh.GradeLine, edges)
	if len(faces) > 0 {
		nm.AddElements(mesh.GradeArea, faces)
	}
	res.New = nm
	res.Dict[m] = nm

	// carry dependents across
	for _, f := range o.Fields {
		nf, err := res.RefineField(f)
		if err != nil {
			return nil, err
		}
		res.Dict[f] = nf
	}
	for _, s := range o.Selections {
		ns, err := res.RefineSelection(s)
		if err != nil {
			return nil, err
		}
		res.Dict[s] = ns
	}
	return res, nil
}

// splits reports whether edge e should be refined
func (o *Refiner) splits(e int) bool {
	if o.Sel == nil {
		return true
	}
	if o.Sel.IsSelected(mesh.GradeLine, e) {
		return true
	}
	// edges of selected faces split as well so that patterns stay conforming
	if o.Msh.HasGrade(mesh.GradeArea) {
		nbrs, err := o.Msh.FindNeighbors(mesh.GradeLine, e, mesh.GradeArea)
		if err != nil {
			return false
		}
		conn01, err := o.Msh.Connectivity(0, mesh.GradeLine)
		if err != nil {
			return false
		}
		evids, err := conn01.RowIndices(e)
		if err != nil {
			return false
		}
		for _, f := range nbrs {
			if !o.Sel.IsSelected(mesh.GradeArea, f) {
				continue
			}
			fvids, err := o.Msh.ElementVertices(mesh.GradeArea, f)
			if err != nil {
				continue
			}
			if containsAll(fvids, evids) {
				return true
			}
		}
	}
	return false
}

func containsAll(set, sub []int) bool {
	for _, s := range sub {
		found := false
		for _, v := range set {
			if v == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// edgeLookup maps vertex pairs to edge ids
func edgeLookup(conn01 *sparse.Matrix) (map[[2]int]int, error) {
	lookup := make(map[[2]int]int)
	for e := 0; e < conn01.Ncols; e++ {
		vids, err := conn01.RowIndices(e)
		if err != nil {
			return nil, err
		}
		lookup[edgeKey(vids[0], vids[1])] = e
	}
	return lookup, nil
}

// RefineField carries a field to the refined mesh: each new item is the
// mean of its parents' items. Items on elements whose parents live at a
// different grade (new interior edges) are zeroed.
func (o *Map) RefineField(f *field.Field) (*field.Field, error) {
	if f.Msh != o.Old {
		return nil, chk.Err("field is not attached to the refined mesh")
	}
	dof := []int{f.Dof[0], f.Dof[1], f.Dof[2], f.Dof[3]}
	nf := field.New(o.New, f.Prows, f.Pcols, dof)
	for g := 0; g < mesh.NGrades; g++ {
		if f.Dof[g] == 0 {
			continue
		}
		n, err := o.New.Count(g)
		if err != nil {
			return nil, err
		}
		for id := 0; id < n; id++ {
			p, ok := o.par[g][id]
			if !ok || p.grade != g {
				continue
			}
			for j := 0; j < f.Dof[g]; j++ {
				acc := make([]float64, f.Psize)
				for _, pid := range p.ids {
					v, err := f.GetList(g, pid, j)
					if err != nil {
						return nil, err
					}
					for c := range acc {
						acc[c] += v[c]
					}
				}
				for c := range acc {
					acc[c] /= float64(len(p.ids))
				}
				if err := nf.SetList(g, id, j, acc); err != nil {
					return nil, err
				}
			}
		}
	}
	return nf, nil
}

// RefineSelection carries a selection to the refined mesh: a new element is
// selected iff all of its parents are selected
func (o *Map) RefineSelection(s *selection.Selection) (*selection.Selection, error) {
	ns := selection.New(o.New)
	for g := 0; g < mesh.NGrades; g++ {
		if !o.New.HasGrade(g) {
			continue
		}
		n, err := o.New.Count(g)
		if err != nil {
			return nil, err
		}
		for id := 0; id < n; id++ {
			p, ok := o.par[g][id]
			if !ok {
				continue
			}
			all := true
			for _, pid := range p.ids {
				if !s.IsSelected(p.grade, pid) {
					all = false
					break
				}
			}
			if all && len(p.ids) > 0 {
				ns.Select(g, id)
			}
		}
	}
	return ns, nil
}
