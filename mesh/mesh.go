// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mesh implements simplicial complexes with graded elements and
// cached connectivity matrices
package mesh

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"

	"github.com/ConduitDan/morpho/sparse"
)

// grades
const (
	GradeVertex = 0 // points
	GradeLine   = 1 // line segments
	GradeArea   = 2 // triangles
	GradeVolume = 3 // tetrahedra
	NGrades     = 4
)

// Mesh holds a simplicial complex: a vertex position table and, per grade,
// connectivity matrices C(g1,g2) whose columns are elements of grade g2 and
// whose rows mark incident elements of grade g1. C(0,0), when present,
// encodes symmetry identifications: an entry (i,j) makes vertex j an image
// of vertex i.
type Mesh struct {
	Ndim int         // space dimension
	Vert [][]float64 // [ndim][nverts] vertex coordinates

	conn [NGrades][NGrades]*sparse.Matrix // connectivity cache; conn[0][g] is primary
}

// New creates a mesh from a vertex coordinate matrix [ndim][nverts]
func New(vert [][]float64) *Mesh {
	if len(vert) < 1 {
		chk.Panic("vertex matrix must have at least one row")
	}
	return &Mesh{Ndim: len(vert), Vert: vert}
}

// NewFromCoords creates a mesh from a flat coordinate list [x0,y0,z0, x1,…]
func NewFromCoords(ndim int, coords []float64) *Mesh {
	if ndim < 1 || len(coords)%ndim != 0 {
		chk.Panic("coordinate list of %d entries is incompatible with ndim=%d", len(coords), ndim)
	}
	nv := len(coords) / ndim
	vert := la.MatAlloc(ndim, nv)
	for i := 0; i < nv; i++ {
		for k := 0; k < ndim; k++ {
			vert[k][i] = coords[i*ndim+k]
		}
	}
	return New(vert)
}

// VertexMatrix returns the ndim × nverts coordinate matrix
func (o *Mesh) VertexMatrix() [][]float64 {
	return o.Vert
}

// NumVerts returns the number of vertices
func (o *Mesh) NumVerts() int {
	return len(o.Vert[0])
}

// Vertex returns a copy of the coordinates of one vertex
func (o *Mesh) Vertex(id int) []float64 {
	x := make([]float64, o.Ndim)
	for k := 0; k < o.Ndim; k++ {
		x[k] = o.Vert[k][id]
	}
	return x
}

// SetVertex sets the coordinates of one vertex
func (o *Mesh) SetVertex(id int, x []float64) {
	for k := 0; k < o.Ndim; k++ {
		o.Vert[k][id] = x[k]
	}
}

// AddGrade stores the primary connectivity C(0,g) for grade g. Columns are
// elements; each column must carry the vertex indices of one element.
// Derived connectivities are invalidated.
func (o *Mesh) AddGrade(g int, conn *sparse.Matrix) {
	if g < 0 || g >= NGrades {
		chk.Panic("grade %d out of range", g)
	}
	o.conn[0][g] = conn
	o.ResetConnectivity()
}

// AddElements stores grade-g elements given as vertex index lists
func (o *Mesh) AddElements(g int, elements [][]int) {
	conn := sparse.New(o.NumVerts(), len(elements))
	for j, vids := range elements {
		if len(vids) != g+1 {
			chk.Panic("element %d of grade %d has %d vertices; need %d", j, g, len(vids), g+1)
		}
		for _, i := range vids {
			conn.Set(i, j, 1)
		}
	}
	o.AddGrade(g, conn)
}

// AddSymmetry records vertex identifications: each pair makes pair[1] an
// image of pair[0]
func (o *Mesh) AddSymmetry(pairs [][2]int) {
	s := sparse.New(o.NumVerts(), o.NumVerts())
	for _, p := range pairs {
		s.Set(p[0], p[1], 1)
	}
	o.conn[0][0] = s
}

// ResetConnectivity discards all derived connectivity matrices, keeping the
// primary C(0,g) tables and the symmetry relation C(0,0)
func (o *Mesh) ResetConnectivity() {
	for g1 := 1; g1 < NGrades; g1++ {
		for g2 := 0; g2 < NGrades; g2++ {
			o.conn[g1][g2] = nil
		}
	}
}

// MaxGrade returns the highest grade with elements present
func (o *Mesh) MaxGrade() int {
	for g := NGrades - 1; g > 0; g-- {
		if o.conn[0][g] != nil {
			return g
		}
	}
	return 0
}

// HasGrade reports whether elements of grade g are present
func (o *Mesh) HasGrade(g int) bool {
	if g == 0 {
		return true
	}
	return g > 0 && g < NGrades && o.conn[0][g] != nil
}

// Count returns the number of elements of grade g
func (o *Mesh) Count(g int) (int, error) {
	if g == GradeVertex {
		return o.NumVerts(), nil
	}
	if g < 0 || g >= NGrades || o.conn[0][g] == nil {
		return 0, chk.Err("mesh has no elements of grade %d", g)
	}
	return o.conn[0][g].Ncols, nil
}

// Symmetry returns the vertex identification relation C(0,0), or nil
func (o *Mesh) Symmetry() *sparse.Matrix {
	return o.conn[0][0]
}

// Connectivity returns C(g1,g2), deriving and caching it from the primary
// tables when necessary
func (o *Mesh) Connectivity(g1, g2 int) (*sparse.Matrix, error) {
	if g1 < 0 || g1 >= NGrades || g2 < 0 || g2 >= NGrades {
		return nil, chk.Err("grades (%d,%d) out of range", g1, g2)
	}
	if o.conn[g1][g2] != nil {
		return o.conn[g1][g2], nil
	}

	// symmetry relation is never derived
	if g1 == 0 && g2 == 0 {
		return nil, nil
	}

	// edges may be derived from faces
	if g1 == 0 && g2 == GradeLine && o.conn[0][GradeLine] == nil {
		if err := o.deriveEdges(); err != nil {
			return nil, err
		}
		return o.conn[0][GradeLine], nil
	}

	if g1 == 0 {
		if o.conn[0][g2] == nil {
			return nil, chk.Err("mesh has no elements of grade %d", g2)
		}
		return o.conn[0][g2], nil
	}

	// transpose of a primary table
	if g2 == 0 {
		c, err := o.Connectivity(0, g1)
		if err != nil {
			return nil, err
		}
		o.conn[g1][0] = c.Transpose()
		return o.conn[g1][0], nil
	}

	// same positive grade: only the stored relation (symmetry images)
	if g1 == g2 {
		return o.conn[g1][g2], nil
	}

	// mixed grades: elements of grade g2 incident on elements of grade g1
	// share all min(g1,g2)+1 vertices of the lower-grade element
	lo, hi := g1, g2
	if lo > hi {
		lo, hi = hi, lo
	}
	clo, err := o.Connectivity(0, lo)
	if err != nil {
		return nil, err
	}
	chi, err := o.Connectivity(0, hi)
	if err != nil {
		return nil, err
	}
	prod, err := sparse.Mul(clo.Transpose(), chi)
	if err != nil {
		return nil, err
	}
	inc := sparse.New(prod.Nrows, prod.Ncols)
	prod.Loop(func(i, j int, val float64) {
		if int(val) == lo+1 {
			inc.Set(i, j, 1)
		}
	})
	if g1 < g2 {
		o.conn[g1][g2] = inc
		o.conn[g2][g1] = inc.Transpose()
	} else {
		o.conn[g2][g1] = inc
		o.conn[g1][g2] = inc.Transpose()
	}
	return o.conn[g1][g2], nil
}

// deriveEdges builds grade-1 elements from the unique sides of grade-2 faces
func (o *Mesh) deriveEdges() error {
	faces := o.conn[0][GradeArea]
	if faces == nil {
		return chk.Err("mesh has neither edges nor faces to derive them from")
	}
	type edge struct{ a, b int }
	seen := make(map[edge]bool)
	var elements [][]int
	for j := 0; j < faces.Ncols; j++ {
		vids, err := faces.RowIndices(j)
		if err != nil {
			return err
		}
		for n := 0; n < len(vids); n++ {
			a, b := vids[n], vids[(n+1)%len(vids)]
			if a > b {
				a, b = b, a
			}
			if seen[edge{a, b}] {
				continue
			}
			seen[edge{a, b}] = true
			elements = append(elements, []int{a, b})
		}
	}
	conn := sparse.New(o.NumVerts(), len(elements))
	for j, vids := range elements {
		for _, i := range vids {
			conn.Set(i, j, 1)
		}
	}
	o.conn[0][GradeLine] = conn
	return nil
}

// ElementVertices returns the vertex indices of element id of grade g,
// sorted ascending
func (o *Mesh) ElementVertices(g, id int) ([]int, error) {
	if g == GradeVertex {
		return []int{id}, nil
	}
	c, err := o.Connectivity(0, g)
	if err != nil {
		return nil, err
	}
	if id < 0 || id >= c.Ncols {
		return nil, chk.Err("element %d out of range for grade %d", id, g)
	}
	return c.RowIndices(id)
}

// Synonyms returns the vertices identified with vertex id through the
// symmetry relation C(0,0), excluding id itself
func (o *Mesh) Synonyms(g, id int) (ids []int) {
	if g != GradeVertex {
		return
	}
	s := o.conn[0][0]
	if s == nil {
		return
	}
	s.Loop(func(i, j int, val float64) {
		if i == id && j != id {
			ids = append(ids, j)
		}
		if j == id && i != id {
			ids = append(ids, i)
		}
	})
	return utl.IntUnique(ids)
}

// FindNeighbors returns the elements of grade gr incident on element id of
// grade g through shared vertices. For g == gr the element itself is
// excluded. Symmetry images of the element's vertices are included in the
// incidence test.
func (o *Mesh) FindNeighbors(g, id, gr int) ([]int, error) {
	vids, err := o.ElementVertices(g, id)
	if err != nil {
		return nil, err
	}
	verts := make([]int, 0, 2*len(vids))
	for _, v := range vids {
		verts = append(verts, v)
		verts = append(verts, o.Synonyms(GradeVertex, v)...)
	}
	c, err := o.Connectivity(0, gr)
	if err != nil {
		return nil, err
	}
	var nbrs []int
	for _, v := range utl.IntUnique(verts) {
		cols, err := c.ColIndices(v)
		if err != nil {
			return nil, err
		}
		for _, e := range cols {
			if g == gr && e == id {
				continue
			}
			nbrs = append(nbrs, e)
		}
	}
	return utl.IntUnique(nbrs), nil
}
