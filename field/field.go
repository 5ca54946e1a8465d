// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package field implements numerical data attached to mesh elements
package field

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"

	"github.com/ConduitDan/morpho/mesh"
)

// Field holds per-element data on a mesh. Each grade g carries Dof[g] items
// per element; every item is a copy of the prototype, a Prows × Pcols value
// with Psize = Prows·Pcols components. Storage is a dense Psize × nitems
// matrix whose columns are items, ordered by grade then element then item
// index; Offset[g] is the column of the first grade-g item.
type Field struct {
	Msh    *mesh.Mesh  // mesh the field lives on
	Prows  int         // prototype rows
	Pcols  int         // prototype columns
	Psize  int         // components per item
	Dof    [4]int      // items per element of each grade
	Offset [4]int      // first item column per grade
	Nitems int         // total number of items
	Data   [][]float64 // [psize][nitems] component storage
}

// New creates a field on mesh m with the given prototype shape and items
// per grade. A nil dof slice defaults to one item per vertex.
func New(m *mesh.Mesh, prows, pcols int, dof []int) *Field {
	if prows < 1 || pcols < 1 {
		chk.Panic("field prototype shape %d × %d is invalid", prows, pcols)
	}
	var o Field
	o.Msh = m
	o.Prows, o.Pcols = prows, pcols
	o.Psize = prows * pcols
	if dof == nil {
		o.Dof[mesh.GradeVertex] = 1
	} else {
		for g := 0; g < len(dof) && g < 4; g++ {
			o.Dof[g] = dof[g]
		}
	}
	for g := 0; g < 4; g++ {
		o.Offset[g] = o.Nitems
		if o.Dof[g] == 0 {
			continue
		}
		n, err := m.Count(g)
		if err != nil {
			chk.Panic("cannot create field: %v", err)
		}
		o.Nitems += n * o.Dof[g]
	}
	o.Data = la.MatAlloc(o.Psize, o.Nitems)
	return &o
}

// NewScalar creates a scalar field with one value per vertex
func NewScalar(m *mesh.Mesh) *Field {
	return New(m, 1, 1, nil)
}

// NewVector creates a vector field of dimension dim with one item per vertex
func NewVector(m *mesh.Mesh, dim int) *Field {
	return New(m, dim, 1, nil)
}

// Shape returns the items-per-element counts for all grades
func (o *Field) Shape() [4]int {
	return o.Dof
}

// item returns the column index of item (g, el, indx)
func (o *Field) item(g, el, indx int) (int, error) {
	if g < 0 || g >= 4 || o.Dof[g] == 0 {
		return 0, chk.Err("field carries no data on grade %d", g)
	}
	if indx < 0 || indx >= o.Dof[g] {
		return 0, chk.Err("item index %d out of range [0,%d)", indx, o.Dof[g])
	}
	it := o.Offset[g] + el*o.Dof[g] + indx
	if el < 0 || it >= o.Nitems {
		return 0, chk.Err("element %d out of range for grade %d", el, g)
	}
	return it, nil
}

// Get returns component comp of item (g, el, indx)
func (o *Field) Get(g, el, indx, comp int) (float64, error) {
	it, err := o.item(g, el, indx)
	if err != nil {
		return 0, err
	}
	if comp < 0 || comp >= o.Psize {
		return 0, chk.Err("component %d out of range [0,%d)", comp, o.Psize)
	}
	return o.Data[comp][it], nil
}

// Set assigns component comp of item (g, el, indx)
func (o *Field) Set(g, el, indx, comp int, val float64) error {
	it, err := o.item(g, el, indx)
	if err != nil {
		return err
	}
	if comp < 0 || comp >= o.Psize {
		return chk.Err("component %d out of range [0,%d)", comp, o.Psize)
	}
	o.Data[comp][it] = val
	return nil
}

// GetList returns a copy of all components of item (g, el, indx)
func (o *Field) GetList(g, el, indx int) ([]float64, error) {
	it, err := o.item(g, el, indx)
	if err != nil {
		return nil, err
	}
	v := make([]float64, o.Psize)
	for c := 0; c < o.Psize; c++ {
		v[c] = o.Data[c][it]
	}
	return v, nil
}

// SetList assigns all components of item (g, el, indx)
func (o *Field) SetList(g, el, indx int, vals []float64) error {
	it, err := o.item(g, el, indx)
	if err != nil {
		return err
	}
	if len(vals) != o.Psize {
		return chk.Err("value has %d components; item has %d", len(vals), o.Psize)
	}
	for c := 0; c < o.Psize; c++ {
		o.Data[c][it] = vals[c]
	}
	return nil
}

// Len returns the total number of scalar components stored
func (o *Field) Len() int {
	return o.Psize * o.Nitems
}

// Enumerate returns the n-th stored component in linear order
func (o *Field) Enumerate(n int) (float64, error) {
	if n < 0 || n >= o.Len() {
		return 0, chk.Err("linear index %d out of range [0,%d)", n, o.Len())
	}
	return o.Data[n%o.Psize][n/o.Psize], nil
}

// compatible checks that b has the same layout as o
func (o *Field) compatible(b *Field) error {
	if b.Psize != o.Psize || b.Nitems != o.Nitems || b.Dof != o.Dof {
		return chk.Err("fields have incompatible shape")
	}
	return nil
}

// Clone returns a deep copy of the field
func (o *Field) Clone() *Field {
	r := *o
	r.Data = la.MatClone(o.Data)
	return &r
}

// Zero clears all components
func (o *Field) Zero() {
	la.MatFill(o.Data, 0)
}

// Add computes a new field o + b
func (o *Field) Add(b *Field) (*Field, error) {
	if err := o.compatible(b); err != nil {
		return nil, err
	}
	r := o.Clone()
	for c := 0; c < o.Psize; c++ {
		for i := 0; i < o.Nitems; i++ {
			r.Data[c][i] += b.Data[c][i]
		}
	}
	return r, nil
}

// Sub computes a new field o - b
func (o *Field) Sub(b *Field) (*Field, error) {
	if err := o.compatible(b); err != nil {
		return nil, err
	}
	r := o.Clone()
	for c := 0; c < o.Psize; c++ {
		for i := 0; i < o.Nitems; i++ {
			r.Data[c][i] -= b.Data[c][i]
		}
	}
	return r, nil
}

// Scale multiplies all components in place
func (o *Field) Scale(λ float64) {
	for c := 0; c < o.Psize; c++ {
		for i := 0; i < o.Nitems; i++ {
			o.Data[c][i] *= λ
		}
	}
}

// Accumulate computes o ← o + λ·b in place
func (o *Field) Accumulate(λ float64, b *Field) error {
	if err := o.compatible(b); err != nil {
		return err
	}
	for c := 0; c < o.Psize; c++ {
		for i := 0; i < o.Nitems; i++ {
			o.Data[c][i] += λ * b.Data[c][i]
		}
	}
	return nil
}

// Op applies fn to every item across o and any number of co-indexed extra
// fields, writing the result into a new field of the same layout as o. The
// function receives one component slice per field and must return a slice
// of o.Psize components.
func (o *Field) Op(fn func(items ...[]float64) ([]float64, error), extra ...*Field) (*Field, error) {
	for _, b := range extra {
		if b.Nitems != o.Nitems || b.Dof != o.Dof {
			return nil, chk.Err("fields have incompatible shape")
		}
	}
	r := o.Clone()
	items := make([][]float64, 1+len(extra))
	for i := 0; i < o.Nitems; i++ {
		items[0] = colOf(o.Data, o.Psize, i)
		for n, b := range extra {
			items[n+1] = colOf(b.Data, b.Psize, i)
		}
		v, err := fn(items...)
		if err != nil {
			return nil, err
		}
		if len(v) != o.Psize {
			return nil, chk.Err("op function returned %d components; field items have %d", len(v), o.Psize)
		}
		for c := 0; c < o.Psize; c++ {
			r.Data[c][i] = v[c]
		}
	}
	return r, nil
}

// colOf copies column i of a component matrix
func colOf(data [][]float64, psize, i int) []float64 {
	v := make([]float64, psize)
	for c := 0; c < psize; c++ {
		v[c] = data[c][i]
	}
	return v
}
