// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sparse implements sparse matrices in two formats: an editable
// dictionary-of-keys (DOK) store and a column-compressed (CCS) form that is
// derived on demand and cached until the DOK changes.
package sparse

import (
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// key identifies one entry
type key struct {
	i, j int // row and column
}

// Matrix holds a sparse matrix. Entries are edited through the DOK store;
// the CCS form is rebuilt lazily by Ccs and invalidated by Set and Remove.
type Matrix struct {
	Nrows int // number of rows
	Ncols int // number of columns

	dok  map[key]float64 // editable store
	keys []key           // insertion order of dok keys
	ccs  *Ccs            // cached compressed form; nil when stale
}

// Ccs holds the column-compressed form: for column j the row indices are
// Rind[Cptr[j]:Cptr[j+1]], sorted ascending, with matching values in Vals.
type Ccs struct {
	Nrows int       // number of rows
	Ncols int       // number of columns
	Cptr  []int     // [ncols+1] column pointers
	Rind  []int     // [nnz] row indices, sorted within each column
	Vals  []float64 // [nnz] values
}

// New returns an empty nrows × ncols sparse matrix
func New(nrows, ncols int) *Matrix {
	if nrows < 0 || ncols < 0 {
		chk.Panic("sparse matrix dimensions must be non-negative: %d × %d", nrows, ncols)
	}
	return &Matrix{
		Nrows: nrows,
		Ncols: ncols,
		dok:   make(map[key]float64),
	}
}

// Set stores entry (i,j). Storing overwrites a previous value at the same
// position without changing its insertion rank.
func (o *Matrix) Set(i, j int, val float64) {
	k := key{i, j}
	if _, ok := o.dok[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.dok[k] = val
	o.ccs = nil
}

// Get returns entry (i,j); missing entries are zero
func (o *Matrix) Get(i, j int) float64 {
	return o.dok[key{i, j}]
}

// Has reports whether entry (i,j) is stored
func (o *Matrix) Has(i, j int) bool {
	_, ok := o.dok[key{i, j}]
	return ok
}

// Remove deletes entry (i,j) if present
func (o *Matrix) Remove(i, j int) {
	k := key{i, j}
	if _, ok := o.dok[k]; !ok {
		return
	}
	delete(o.dok, k)
	for n, kk := range o.keys {
		if kk == k {
			o.keys = append(o.keys[:n], o.keys[n+1:]...)
			break
		}
	}
	o.ccs = nil
}

// Count returns the number of stored entries
func (o *Matrix) Count() int {
	return len(o.dok)
}

// Enumerate returns the n-th stored entry in insertion order
func (o *Matrix) Enumerate(n int) (i, j int, val float64, err error) {
	if n < 0 || n >= len(o.keys) {
		err = chk.Err("entry index %d out of range [0,%d)", n, len(o.keys))
		return
	}
	k := o.keys[n]
	return k.i, k.j, o.dok[k], nil
}

// Loop calls fn for each stored entry in insertion order
func (o *Matrix) Loop(fn func(i, j int, val float64)) {
	for _, k := range o.keys {
		fn(k.i, k.j, o.dok[k])
	}
}

// Clone returns a deep copy, preserving insertion order
func (o *Matrix) Clone() *Matrix {
	r := New(o.Nrows, o.Ncols)
	for _, k := range o.keys {
		r.keys = append(r.keys, k)
		r.dok[k] = o.dok[k]
	}
	return r
}

// Ccs returns the column-compressed form, rebuilding it if stale.
// The conversion is deterministic: row indices are sorted ascending
// within each column.
func (o *Matrix) Ccs() *Ccs {
	if o.ccs != nil {
		return o.ccs
	}
	nnz := len(o.keys)
	c := &Ccs{
		Nrows: o.Nrows,
		Ncols: o.Ncols,
		Cptr:  make([]int, o.Ncols+1),
		Rind:  make([]int, nnz),
		Vals:  make([]float64, nnz),
	}
	for _, k := range o.keys {
		c.Cptr[k.j+1]++
	}
	for j := 0; j < o.Ncols; j++ {
		c.Cptr[j+1] += c.Cptr[j]
	}
	pos := make([]int, o.Ncols)
	for _, k := range o.keys {
		p := c.Cptr[k.j] + pos[k.j]
		c.Rind[p] = k.i
		c.Vals[p] = o.dok[k]
		pos[k.j]++
	}
	for j := 0; j < o.Ncols; j++ {
		lo, hi := c.Cptr[j], c.Cptr[j+1]
		sub := indexSorter{c.Rind[lo:hi], c.Vals[lo:hi]}
		sort.Sort(sub)
	}
	o.ccs = c
	return c
}

// indexSorter sorts a column's row indices, carrying values along
type indexSorter struct {
	rind []int
	vals []float64
}

func (s indexSorter) Len() int           { return len(s.rind) }
func (s indexSorter) Less(a, b int) bool { return s.rind[a] < s.rind[b] }
func (s indexSorter) Swap(a, b int) {
	s.rind[a], s.rind[b] = s.rind[b], s.rind[a]
	s.vals[a], s.vals[b] = s.vals[b], s.vals[a]
}

// RowIndices returns the row indices stored in column j, sorted ascending.
// The returned slice aliases the CCS buffers and must not be modified.
func (o *Matrix) RowIndices(j int) ([]int, error) {
	if j < 0 || j >= o.Ncols {
		return nil, chk.Err("column %d out of range [0,%d)", j, o.Ncols)
	}
	c := o.Ccs()
	return c.Rind[c.Cptr[j]:c.Cptr[j+1]], nil
}

// ColIndices returns the column indices of entries stored in row i
func (o *Matrix) ColIndices(i int) (cols []int, err error) {
	if i < 0 || i >= o.Nrows {
		return nil, chk.Err("row %d out of range [0,%d)", i, o.Nrows)
	}
	c := o.Ccs()
	for j := 0; j < c.Ncols; j++ {
		for p := c.Cptr[j]; p < c.Cptr[j+1]; p++ {
			if c.Rind[p] == i {
				cols = append(cols, j)
				break
			}
		}
	}
	return
}

// Transpose returns a new matrix with rows and columns swapped
func (o *Matrix) Transpose() *Matrix {
	r := New(o.Ncols, o.Nrows)
	for _, k := range o.keys {
		r.Set(k.j, k.i, o.dok[k])
	}
	return r
}

// Add returns α·a + β·b in a new matrix
func Add(α float64, a *Matrix, β float64, b *Matrix) (*Matrix, error) {
	if a.Nrows != b.Nrows || a.Ncols != b.Ncols {
		return nil, chk.Err("incompatible dimensions in sparse addition: %d×%d and %d×%d", a.Nrows, a.Ncols, b.Nrows, b.Ncols)
	}
	r := New(a.Nrows, a.Ncols)
	for _, k := range a.keys {
		r.Set(k.i, k.j, α*a.dok[k])
	}
	for _, k := range b.keys {
		r.Set(k.i, k.j, r.Get(k.i, k.j)+β*b.dok[k])
	}
	return r, nil
}

// Mul returns a·b in a new matrix
func Mul(a, b *Matrix) (*Matrix, error) {
	if a.Ncols != b.Nrows {
		return nil, chk.Err("incompatible dimensions in sparse multiplication: %d×%d and %d×%d", a.Nrows, a.Ncols, b.Nrows, b.Ncols)
	}
	r := New(a.Nrows, b.Ncols)
	ac, bc := a.Ccs(), b.Ccs()
	for j := 0; j < bc.Ncols; j++ {
		for p := bc.Cptr[j]; p < bc.Cptr[j+1]; p++ {
			kk := bc.Rind[p] // column of a
			bv := bc.Vals[p]
			for q := ac.Cptr[kk]; q < ac.Cptr[kk+1]; q++ {
				i := ac.Rind[q]
				r.Set(i, j, r.Get(i, j)+ac.Vals[q]*bv)
			}
		}
	}
	return r, nil
}

// ToDense returns a dense copy of the matrix
func (o *Matrix) ToDense() [][]float64 {
	d := la.MatAlloc(o.Nrows, o.Ncols)
	for _, k := range o.keys {
		d[k.i][k.j] = o.dok[k]
	}
	return d
}

// SolveDense solves a·x = b for a dense right-hand side. The system must be
// square; singular systems are reported as errors.
func (o *Matrix) SolveDense(b []float64) (x []float64, err error) {
	if o.Nrows != o.Ncols {
		return nil, chk.Err("sparse solve requires a square system; got %d×%d", o.Nrows, o.Ncols)
	}
	if len(b) != o.Nrows {
		return nil, chk.Err("right-hand side has %d entries; need %d", len(b), o.Nrows)
	}
	a := o.ToDense()
	ai := la.MatAlloc(o.Nrows, o.Ncols)
	err = la.MatInvG(ai, a, 1e-14)
	if err != nil {
		return nil, chk.Err("singular system in sparse solve: %v", err)
	}
	x = make([]float64, o.Nrows)
	la.MatVecMul(x, 1, ai, b)
	return
}
