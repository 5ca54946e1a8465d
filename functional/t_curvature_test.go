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

func Test_curv01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("curv01. line curvature of a right-angle path")

	m := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
	})
	m.AddElements(mesh.GradeLine, [][]int{{0, 1}, {1, 2}})

	f := new(LineCurvatureSq)
	vals, err := f.Integrand(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	θ := math.Pi / 2
	chk.Vector(tst, "integrand", 1e-12, vals, []float64{0, θ * θ, 0})

	total, err := f.Total(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "total", 1e-12, total, θ*θ)

	// the numerical gradient must flow to the endpoint vertices as well
	frc, err := f.Gradient(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	nrm0 := math.Abs(frc[0][0]) + math.Abs(frc[1][0]) + math.Abs(frc[2][0])
	if nrm0 < 1e-8 {
		tst.Errorf("dependency gradient missing at endpoint\n")
	}
}

func Test_curv02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("curv02. torsion of a Z-shaped path")

	m := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		1, 1, 1,
	})
	m.AddElements(mesh.GradeLine, [][]int{{0, 1}, {1, 2}, {2, 3}})

	f := new(LineTorsionSq)
	vals, err := f.Integrand(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	θ := math.Pi / 2
	chk.Vector(tst, "integrand", 1e-12, vals, []float64{0, θ * θ, 0})
}

func Test_curv03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("curv03. mean curvature vanishes on a flat patch")

	m := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
		0.5, 0.5, 0,
	})
	m.AddElements(mesh.GradeArea, [][]int{{0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}})

	vals, err := new(MeanCurvatureSq).Integrand(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "interior vertex", 1e-12, vals[4], 0)
}

func Test_curv04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("curv04. Gauss curvature of a closed surface is 4π")

	m := mesh.NewFromCoords(3, []float64{
		1, 1, 1,
		1, -1, -1,
		-1, 1, -1,
		-1, -1, 1,
	})
	m.AddElements(mesh.GradeArea, [][]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}})

	total, err := new(GaussCurvature).Total(m, nil)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "angle deficit", 1e-12, total, 4*math.Pi)
}
