// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refine

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/ConduitDan/morpho/field"
	"github.com/ConduitDan/morpho/functional"
	"github.com/ConduitDan/morpho/mesh"
	"github.com/ConduitDan/morpho/opt"
	"github.com/ConduitDan/morpho/selection"
)

// square builds the unit square split into two triangles
func square() *mesh.Mesh {
	m := mesh.NewFromCoords(2, []float64{
		0, 0,
		1, 0,
		0, 1,
		1, 1,
	})
	m.AddElements(mesh.GradeArea, [][]int{{0, 1, 2}, {1, 3, 2}})
	return m
}

func Test_refine01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("refine01. counts and measures after one refinement")

	m := square()
	area0, err := new(functional.Area).Total(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	r := New(m, nil, nil)
	res, err := r.Refine()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	nm := res.New

	// V' = V + E, E' = 2E + 3F, F' = 4F
	chk.IntAssert(nm.NumVerts(), 4+5)
	ne, err := nm.Count(mesh.GradeLine)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.IntAssert(ne, 2*5+3*2)
	nf, err := nm.Count(mesh.GradeArea)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.IntAssert(nf, 4*2)

	// the refinement preserves the total area
	area1, err := new(functional.Area).Total(nm, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "area", 1e-10, area1, area0)
}

func Test_refine02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("refine02. field values carry across")

	m := square()
	cst := field.NewScalar(m)
	lin := field.NewScalar(m)
	for id := 0; id < 4; id++ {
		cst.Set(mesh.GradeVertex, id, 0, 0, 7)
		lin.Set(mesh.GradeVertex, id, 0, 0, m.Vert[0][id]) // φ = x
	}

	r := New(m, []*field.Field{cst, lin}, nil)
	res, err := r.Refine()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	ncst := res.Dict[cst].(*field.Field)
	nlin := res.Dict[lin].(*field.Field)
	nm := res.New

	for id := 0; id < nm.NumVerts(); id++ {
		v, err := ncst.Get(mesh.GradeVertex, id, 0, 0)
		if err != nil {
			tst.Errorf("test failed: %v\n", err)
			return
		}
		chk.Scalar(tst, "constant field", 1e-15, v, 7)

		// a linear field refines to its interpolant
		v, err = nlin.Get(mesh.GradeVertex, id, 0, 0)
		if err != nil {
			tst.Errorf("test failed: %v\n", err)
			return
		}
		chk.Scalar(tst, "linear field", 1e-15, v, nm.Vert[0][id])
	}
}

func Test_refine03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("refine03. selections carry across")

	m := square()
	sel := selection.New(m)
	sel.Select(mesh.GradeArea, 0)
	for _, v := range []int{0, 1, 2} {
		sel.Select(mesh.GradeVertex, v)
	}

	r := New(m, nil, []*selection.Selection{sel})
	res, err := r.Refine()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	ns := res.Dict[sel].(*selection.Selection)

	// the four children of face 0 are selected, the others are not
	chk.IntAssert(ns.Count(mesh.GradeArea), 4)

	// original vertices keep their selection; midpoints of selected pairs join
	if !ns.IsSelected(mesh.GradeVertex, 0) || !ns.IsSelected(mesh.GradeVertex, 1) {
		tst.Errorf("carried vertex selection missing\n")
	}
	if ns.IsSelected(mesh.GradeVertex, 3) {
		tst.Errorf("unselected vertex became selected\n")
	}
}

func Test_refine04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("refine04. edge split halves a polyline segment")

	m := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		1, 0, 0,
		2, 0, 0,
	})
	m.AddElements(mesh.GradeLine, [][]int{{0, 1}, {1, 2}})
	len0, err := new(functional.Length).Total(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	res, err := New(m, nil, nil).Refine()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	nm := res.New
	chk.IntAssert(nm.NumVerts(), 5)
	ne, err := nm.Count(mesh.GradeLine)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.IntAssert(ne, 4)

	len1, err := new(functional.Length).Total(nm, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "length", 1e-10, len1, len0)
}

func Test_refine05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("refine05. problems rebind to the refined objects")

	m := square()
	p := opt.NewProblem(m)
	p.AddEnergy(new(functional.Area), nil, 1)
	c, err := p.AddConstraint(new(functional.Area), nil, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	res, err := New(m, nil, nil).Refine()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	p.Update(res.Dict)

	if p.Msh != res.New {
		tst.Errorf("problem still bound to the old mesh\n")
	}
	s := opt.NewShapeOptimizer(p)
	s.Quiet = true
	e, err := s.TotalEnergy()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	// the refined mesh carries the same area, so the conserved target holds
	chk.Scalar(tst, "energy after rebind", 1e-10, e, 1.0)
	chk.Scalar(tst, "conserved target", 1e-10, c.Target, 1.0)
}
