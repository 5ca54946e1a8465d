// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package selection

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/ConduitDan/morpho/mesh"
)

func squareMesh() *mesh.Mesh {
	m := mesh.NewFromCoords(2, []float64{
		0, 0,
		1, 0,
		0, 1,
		1, 1,
	})
	m.AddElements(mesh.GradeArea, [][]int{{0, 1, 2}, {1, 3, 2}})
	return m
}

func Test_selection01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("selection01. membership and set algebra")

	m := squareMesh()
	a := New(m)
	a.Select(0, 0)
	a.Select(0, 1)
	b := New(m)
	b.Select(0, 1)
	b.Select(0, 2)

	chk.Ints(tst, "union", a.Union(b).IDs(0), []int{0, 1, 2})
	chk.Ints(tst, "intersection", a.Intersection(b).IDs(0), []int{1})
	chk.Ints(tst, "difference", a.Difference(b).IDs(0), []int{0})
	chk.Ints(tst, "complement", a.Complement().IDs(0), []int{2, 3})

	if a.IsSelected(0, 2) {
		tst.Errorf("vertex 2 must not be selected\n")
	}
}

func Test_selection02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("selection02. addgrade with and without partials")

	m := squareMesh()
	s := New(m)
	s.Select(0, 0)
	s.Select(0, 1)
	s.Select(0, 2)

	// face 0 = {0,1,2} fully selected; face 1 = {1,3,2} only partially
	if err := s.AddGrade(mesh.GradeArea, false); err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Ints(tst, "full faces", s.IDs(mesh.GradeArea), []int{0})

	p := New(m)
	p.Select(0, 3)
	if err := p.AddGrade(mesh.GradeArea, true); err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Ints(tst, "partial faces", p.IDs(mesh.GradeArea), []int{1})

	s.RemoveGrade(mesh.GradeArea)
	chk.IntAssert(s.Count(mesh.GradeArea), 0)
}

func Test_selection03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("selection03. boundary")

	m := squareMesh()
	b, err := Boundary(m)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	// the diagonal edge {1,2} is interior; the other four edges bound
	chk.IntAssert(b.Count(mesh.GradeLine), 4)
	for _, e := range b.IDs(mesh.GradeLine) {
		vids, err := m.ElementVertices(mesh.GradeLine, e)
		if err != nil {
			tst.Errorf("test failed: %v\n", err)
			return
		}
		if vids[0] == 1 && vids[1] == 2 {
			tst.Errorf("interior edge selected as boundary\n")
		}
	}
	chk.IntAssert(b.Count(mesh.GradeVertex), 4)
}
