// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package functional

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/ConduitDan/morpho/mesh"
)

// unitTriangle builds the triangle (0,0,0) (1,0,0) (0,1,0)
func unitTriangle() *mesh.Mesh {
	m := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	})
	m.AddElements(mesh.GradeArea, [][]int{{0, 1, 2}})
	return m
}

func Test_geom01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("geom01. area of the unit triangle")

	m := unitTriangle()
	a := new(Area)

	total, err := a.Total(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "total", 1e-15, total, 0.5)

	vals, err := a.Integrand(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Vector(tst, "integrand", 1e-15, vals, []float64{0.5})

	// translation invariance: force columns sum to zero
	frc, err := a.Gradient(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	for k := 0; k < m.Ndim; k++ {
		sum := 0.0
		for j := 0; j < m.NumVerts(); j++ {
			sum += frc[k][j]
		}
		chk.Scalar(tst, "force balance", 1e-14, sum, 0)
	}
}

func Test_geom02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("geom02. length, enclosed area and volume totals")

	// polyline of lengths 0.3 and 0.7
	lm := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		0.3, 0, 0,
		1, 0, 0,
	})
	lm.AddElements(mesh.GradeLine, [][]int{{0, 1}, {1, 2}})
	total, err := new(Length).Total(lm, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "length", 1e-15, total, 1.0)

	// unit square loop centered on the origin
	sm := mesh.NewFromCoords(3, []float64{
		0.5, -0.5, 0,
		0.5, 0.5, 0,
		-0.5, 0.5, 0,
		-0.5, -0.5, 0,
	})
	sm.AddElements(mesh.GradeLine, [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}})
	total, err = new(AreaEnclosed).Total(sm, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "enclosed area", 1e-14, total, 1.0)

	// unit tetrahedron
	tm := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	tm.AddElements(mesh.GradeVolume, [][]int{{0, 1, 2, 3}})
	total, err = new(Volume).Total(tm, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "volume", 1e-15, total, 1.0/6.0)
}

func Test_geom03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("geom03. analytic against numerical gradients")

	// a skewed triangle keeps the comparison generic
	m := mesh.NewFromCoords(3, []float64{
		0.1, 0.2, 0.05,
		1.1, -0.1, 0.3,
		0.2, 0.9, -0.2,
	})
	m.AddElements(mesh.GradeArea, [][]int{{0, 1, 2}})

	a := new(Area)
	info, err := a.prepare(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	ana, err := MapGradient(m, &info)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	info.Grad = nil
	num, err := MapNumericalGradient(m, &info)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Matrix(tst, "area gradient", 1e-5, ana, num)
}

func Test_geom04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("geom04. element order does not change the total")

	m1 := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		0.3, 0, 0,
		0.55, 0.1, 0,
		1.1, -0.2, 0.4,
	})
	m1.AddElements(mesh.GradeLine, [][]int{{0, 1}, {1, 2}, {2, 3}})
	m2 := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		0.3, 0, 0,
		0.55, 0.1, 0,
		1.1, -0.2, 0.4,
	})
	m2.AddElements(mesh.GradeLine, [][]int{{2, 3}, {0, 1}, {1, 2}})

	t1, err := new(Length).Total(m1, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	t2, err := new(Length).Total(m2, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "order independence", 1e-12*math.Abs(t1), t1, t2)
}

func Test_geom05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("geom05. symmetry images share forces")

	m := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		1, 0, 0,
		2, 0, 0,
	})
	m.AddElements(mesh.GradeLine, [][]int{{0, 1}, {1, 2}})
	m.AddSymmetry([][2]int{{0, 2}})

	frc, err := new(Length).Gradient(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	for k := 0; k < m.Ndim; k++ {
		chk.Scalar(tst, "identified pair", 1e-15, frc[k][0], frc[k][2])
	}
}
