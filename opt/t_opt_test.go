// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/ConduitDan/morpho/field"
	"github.com/ConduitDan/morpho/functional"
	"github.com/ConduitDan/morpho/mesh"
)

func Test_brent01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("brent01. quadratic and quartic minima")

	fn := func(s float64) (float64, error) { return (s - 0.3) * (s - 0.3), nil }
	x, f, err := brent(fn, 0, 0.2, 1, 1e-8, 100)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "quadratic x", 1e-6, x, 0.3)
	chk.Scalar(tst, "quadratic f", 1e-10, f, 0)

	fn = func(s float64) (float64, error) {
		d := s - 1.5
		return d*d*d*d + 2, nil
	}
	x, f, err = brent(fn, 0, 1, 4, 1e-8, 200)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "quartic x", 1e-2, x, 1.5)
	chk.Scalar(tst, "quartic f", 1e-7, f, 2)
}

func Test_opt01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("opt01. equielement relaxation centers the middle vertex")

	m := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		0.3, 0, 0,
		1, 0, 0,
	})
	m.AddElements(mesh.GradeLine, [][]int{{0, 1}, {1, 2}})

	p := NewProblem(m)
	p.AddEnergy(new(functional.EquiElement), nil, 1)

	s := NewShapeOptimizer(p)
	s.Quiet = true
	if err := s.Relax(20); err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	e, err := s.TotalEnergy()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	if e > 1e-8 {
		tst.Errorf("relaxation did not converge: E = %g\n", e)
	}
	chk.Scalar(tst, "middle vertex", 1e-4, m.Vert[0][1], 0.5)
}

func Test_opt02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("opt02. length descent conserves the enclosed area")

	// a regular pentagon on the unit circle
	n := 5
	coords := make([]float64, 0, 3*n)
	elements := make([][]int, n)
	for i := 0; i < n; i++ {
		φ := 2 * math.Pi * float64(i) / float64(n)
		coords = append(coords, math.Cos(φ), math.Sin(φ), 0)
		elements[i] = []int{i, (i + 1) % n}
	}
	m := mesh.NewFromCoords(3, coords)
	m.AddElements(mesh.GradeLine, elements)

	p := NewProblem(m)
	p.AddEnergy(new(functional.Length), nil, 1)
	c, err := p.AddConstraint(new(functional.AreaEnclosed), nil, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	s := NewShapeOptimizer(p)
	s.Quiet = true
	s.StepSize = 0.05
	if err := s.Relax(5); err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	area, err := new(functional.AreaEnclosed).Total(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "conserved area", 1e-8, area, c.Target)
}

func Test_opt03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("opt03. conjugate gradients on a quadratic potential")

	m := mesh.NewFromCoords(3, []float64{1, 1, 0})

	p := NewProblem(m)
	p.AddEnergy(&functional.ScalarPotential{
		Fn: func(x []float64) (float64, error) {
			return x[0]*x[0] + x[1]*x[1] + x[2]*x[2], nil
		},
		GradFn: func(x []float64) ([]float64, error) {
			return []float64{2 * x[0], 2 * x[1], 2 * x[2]}, nil
		},
	}, nil, 1)

	s := NewShapeOptimizer(p)
	s.Quiet = true
	if err := s.ConjugateGradient(10); err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	e, err := s.TotalEnergy()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	if e > 1e-8 {
		tst.Errorf("conjugate gradients did not converge: E = %g\n", e)
	}
}

func Test_opt04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("opt04. local constraint keeps vertices on the circle")

	m := mesh.NewFromCoords(3, []float64{
		1, 0, 0,
		0, 1, 0,
	})
	m.AddElements(mesh.GradeLine, [][]int{{0, 1}})

	p := NewProblem(m)
	p.AddEnergy(new(functional.Length), nil, 1)
	p.AddLocalConstraint(&functional.ScalarPotential{
		Fn: func(x []float64) (float64, error) {
			return x[0]*x[0] + x[1]*x[1] + x[2]*x[2] - 1, nil
		},
		GradFn: func(x []float64) ([]float64, error) {
			return []float64{2 * x[0], 2 * x[1], 2 * x[2]}, nil
		},
	}, nil, nil, false)

	s := NewShapeOptimizer(p)
	s.Quiet = true
	s.StepSize = 0.05
	if err := s.Relax(5); err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}

	// both vertices remain on the unit circle while the edge shortens
	for id := 0; id < 2; id++ {
		r := math.Sqrt(m.Vert[0][id]*m.Vert[0][id] + m.Vert[1][id]*m.Vert[1][id] + m.Vert[2][id]*m.Vert[2][id])
		chk.Scalar(tst, "radius", 1e-6, r, 1)
	}
	l, err := new(functional.Length).Total(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	if l >= math.Sqrt2 {
		tst.Errorf("edge did not shorten: L = %g\n", l)
	}
}

func Test_opt05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("opt05. fixed vertices stay put during line search")

	m := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		0.3, 0, 0,
		1, 0, 0,
	})
	m.AddElements(mesh.GradeLine, [][]int{{0, 1}, {1, 2}})

	p := NewProblem(m)
	p.AddEnergy(new(functional.Length), nil, 1)

	s := NewShapeOptimizer(p)
	s.Quiet = true
	s.FixIDs([]int{0, 2})
	if err := s.Linesearch(5); err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "fixed x0", 1e-15, m.Vert[0][0], 0)
	chk.Scalar(tst, "fixed x2", 1e-15, m.Vert[0][2], 1)
	// total length of the pinned polyline cannot drop below 1
	l, err := new(functional.Length).Total(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "length", 1e-6, l, 1)
}

func Test_opt06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("opt06. field optimizer rotates the director away from E")

	m := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	})
	m.AddElements(mesh.GradeArea, [][]int{{0, 1, 2}})

	n := field.NewVector(m, 3)
	s := 1 / math.Sqrt(2)
	for id := 0; id < 3; id++ {
		n.SetList(mesh.GradeVertex, id, 0, []float64{s, s, 0})
	}

	p := NewProblem(m)
	p.AddField(n)
	p.AddEnergy(&functional.NematicElectric{Director: n, E: []float64{1, 0, 0}}, nil, 1)
	lc := p.AddLocalConstraint(&functional.NormSq{Fld: n}, nil, n, false)
	lc.SetTarget(1)

	fo := NewFieldOptimizer(p, n)
	fo.Quiet = true
	fo.StepSize = 0.05
	e0, err := fo.TotalEnergy()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	if err := fo.Relax(5); err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	e1, err := fo.TotalEnergy()
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	if e1 >= e0 {
		tst.Errorf("field energy did not decrease: %g → %g\n", e0, e1)
	}

	// the unit-length constraint holds at every vertex
	for id := 0; id < 3; id++ {
		v, err := n.GetList(mesh.GradeVertex, id, 0)
		if err != nil {
			tst.Errorf("test failed: %v\n", err)
			return
		}
		chk.Scalar(tst, "director norm", 1e-6, v[0]*v[0]+v[1]*v[1]+v[2]*v[2], 1)
	}
}
