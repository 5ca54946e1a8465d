// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package selection implements per-grade subsets of mesh elements
package selection

import (
	"sort"

	"github.com/cpmech/gosl/chk"

	"github.com/ConduitDan/morpho/mesh"
)

// Selection holds a subset of mesh elements per grade
type Selection struct {
	Msh *mesh.Mesh           // mesh the selection refers to
	sel [mesh.NGrades]map[int]bool // selected element ids per grade
}

// New creates an empty selection on mesh m
func New(m *mesh.Mesh) *Selection {
	var o Selection
	o.Msh = m
	for g := 0; g < mesh.NGrades; g++ {
		o.sel[g] = make(map[int]bool)
	}
	return &o
}

// All creates a selection containing every element of every present grade
func All(m *mesh.Mesh) *Selection {
	o := New(m)
	for g := 0; g < mesh.NGrades; g++ {
		if !m.HasGrade(g) {
			continue
		}
		n, _ := m.Count(g)
		for id := 0; id < n; id++ {
			o.sel[g][id] = true
		}
	}
	return o
}

// Boundary creates a selection of the elements on the topological boundary:
// elements of grade maxgrade−1 incident on exactly one maxgrade element,
// together with their vertices
func Boundary(m *mesh.Mesh) (*Selection, error) {
	mg := m.MaxGrade()
	if mg < 1 {
		return nil, chk.Err("mesh has no boundary elements")
	}
	gb := mg - 1
	conn, err := m.Connectivity(mg, gb)
	if err != nil {
		return nil, err
	}
	o := New(m)
	n, err := m.Count(gb)
	if err != nil {
		return nil, err
	}
	found := false
	for id := 0; id < n; id++ {
		parents, err := conn.RowIndices(id)
		if err != nil {
			return nil, err
		}
		if len(parents) == 1 {
			o.sel[gb][id] = true
			found = true
			if gb > 0 {
				vids, err := m.ElementVertices(gb, id)
				if err != nil {
					return nil, err
				}
				for _, v := range vids {
					o.sel[0][v] = true
				}
			}
		}
	}
	if !found {
		return nil, chk.Err("mesh has no boundary elements")
	}
	return o, nil
}

// Select adds element id of grade g
func (o *Selection) Select(g, id int) {
	o.sel[g][id] = true
}

// Deselect removes element id of grade g
func (o *Selection) Deselect(g, id int) {
	delete(o.sel[g], id)
}

// IsSelected reports whether element id of grade g is selected
func (o *Selection) IsSelected(g, id int) bool {
	if g < 0 || g >= mesh.NGrades {
		return false
	}
	return o.sel[g][id]
}

// Count returns the number of selected elements of grade g
func (o *Selection) Count(g int) int {
	return len(o.sel[g])
}

// IDs returns the selected element ids of grade g, sorted ascending
func (o *Selection) IDs(g int) []int {
	ids := make([]int, 0, len(o.sel[g]))
	for id := range o.sel[g] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Union returns the elementwise union with b
func (o *Selection) Union(b *Selection) *Selection {
	r := New(o.Msh)
	for g := 0; g < mesh.NGrades; g++ {
		for id := range o.sel[g] {
			r.sel[g][id] = true
		}
		for id := range b.sel[g] {
			r.sel[g][id] = true
		}
	}
	return r
}

// Intersection returns the elementwise intersection with b
func (o *Selection) Intersection(b *Selection) *Selection {
	r := New(o.Msh)
	for g := 0; g < mesh.NGrades; g++ {
		for id := range o.sel[g] {
			if b.sel[g][id] {
				r.sel[g][id] = true
			}
		}
	}
	return r
}

// Difference returns the elements of o not in b
func (o *Selection) Difference(b *Selection) *Selection {
	r := New(o.Msh)
	for g := 0; g < mesh.NGrades; g++ {
		for id := range o.sel[g] {
			if !b.sel[g][id] {
				r.sel[g][id] = true
			}
		}
	}
	return r
}

// Complement returns the unselected elements of every present grade
func (o *Selection) Complement() *Selection {
	r := New(o.Msh)
	for g := 0; g < mesh.NGrades; g++ {
		if !o.Msh.HasGrade(g) {
			continue
		}
		n, err := o.Msh.Count(g)
		if err != nil {
			continue
		}
		for id := 0; id < n; id++ {
			if !o.sel[g][id] {
				r.sel[g][id] = true
			}
		}
	}
	return r
}

// AddGrade selects elements of grade g based on the selected vertices:
// an element joins the selection when all of its vertices are selected, or,
// with partials, when at least one is
func (o *Selection) AddGrade(g int, partials bool) error {
	if g < 1 || g >= mesh.NGrades {
		return chk.Err("grade %d out of range for addgrade", g)
	}
	n, err := o.Msh.Count(g)
	if err != nil {
		return err
	}
	for id := 0; id < n; id++ {
		vids, err := o.Msh.ElementVertices(g, id)
		if err != nil {
			return err
		}
		nsel := 0
		for _, v := range vids {
			if o.sel[0][v] {
				nsel++
			}
		}
		if nsel == len(vids) || (partials && nsel > 0) {
			o.sel[g][id] = true
		}
	}
	return nil
}

// RemoveGrade deselects all elements of grade g
func (o *Selection) RemoveGrade(g int) {
	if g < 0 || g >= mesh.NGrades {
		return
	}
	o.sel[g] = make(map[int]bool)
}
