// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package functional

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/ConduitDan/morpho/mesh"
	"github.com/ConduitDan/morpho/selection"
)

/* Length ----------------------------------------------------------------- */

// Length measures the total length of line elements
type Length struct{}

func lengthIntegrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	x := vertexCoords(m, vids)
	s0 := make([]float64, m.Ndim)
	vecsub(x[1], x[0], s0)
	return vecnorm(s0), nil
}

func lengthGradient(m *mesh.Mesh, id int, vids []int, frc [][]float64) error {
	x := vertexCoords(m, vids)
	s0 := make([]float64, m.Ndim)
	vecsub(x[1], x[0], s0)
	norm := vecnorm(s0)
	if norm < eps {
		return chk.Err("degenerate line element %d", id)
	}
	addToCol(frc, vids[0], -1.0/norm, s0)
	addToCol(frc, vids[1], 1.0/norm, s0)
	return nil
}

func (o *Length) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	return MapInfo{Grade: mesh.GradeLine, Sel: sel, Integrand: lengthIntegrand, Grad: lengthGradient, Sym: SymmetryAdd}, nil
}

func (o *Length) Grade(m *mesh.Mesh) int { return mesh.GradeLine }

func (o *Length) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *Length) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *Length) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

/* AreaEnclosed ----------------------------------------------------------- */

// AreaEnclosed measures the area enclosed by a loop of line elements
type AreaEnclosed struct{}

func areaenclosedIntegrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	x := vertexCoords(m, vids)
	cx := make([]float64, 3)
	veccross(pad3(x[0]), pad3(x[1]), cx)
	return 0.5 * vecnorm(cx), nil
}

func areaenclosedGradient(m *mesh.Mesh, id int, vids []int, frc [][]float64) error {
	x := vertexCoords(m, vids)
	cx := make([]float64, 3)
	s := make([]float64, 3)
	veccross(pad3(x[0]), pad3(x[1]), cx)
	norm := vecnorm(cx)
	if norm < eps {
		return chk.Err("degenerate loop element %d", id)
	}
	veccross(pad3(x[1]), cx, s)
	addToCol(frc, vids[0], 0.5/norm, s[:m.Ndim])
	veccross(cx, pad3(x[0]), s)
	addToCol(frc, vids[1], 0.5/norm, s[:m.Ndim])
	return nil
}

func (o *AreaEnclosed) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	return MapInfo{Grade: mesh.GradeLine, Sel: sel, Integrand: areaenclosedIntegrand, Grad: areaenclosedGradient, Sym: SymmetryAdd}, nil
}

func (o *AreaEnclosed) Grade(m *mesh.Mesh) int { return mesh.GradeLine }

func (o *AreaEnclosed) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *AreaEnclosed) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *AreaEnclosed) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

/* Area ------------------------------------------------------------------- */

// Area measures the total area of triangle elements
type Area struct{}

func areaIntegrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	x := vertexCoords(m, vids)
	s0 := make([]float64, 3)
	s1 := make([]float64, 3)
	cx := make([]float64, 3)
	vecsub(pad3(x[1]), pad3(x[0]), s0)
	vecsub(pad3(x[2]), pad3(x[1]), s1)
	veccross(s0, s1, cx)
	return 0.5 * vecnorm(cx), nil
}

func areaGradient(m *mesh.Mesh, id int, vids []int, frc [][]float64) error {
	x := vertexCoords(m, vids)
	s0 := make([]float64, 3)
	s1 := make([]float64, 3)
	s01 := make([]float64, 3)
	s010 := make([]float64, 3)
	s011 := make([]float64, 3)
	vecsub(pad3(x[1]), pad3(x[0]), s0)
	vecsub(pad3(x[2]), pad3(x[1]), s1)
	veccross(s0, s1, s01)
	norm := vecnorm(s01)
	if norm < eps {
		return chk.Err("degenerate triangle element %d", id)
	}
	veccross(s01, s0, s010)
	veccross(s01, s1, s011)
	addToCol(frc, vids[0], 0.5/norm, s011[:m.Ndim])
	addToCol(frc, vids[2], 0.5/norm, s010[:m.Ndim])
	vecadd(s010, s011, s0)
	addToCol(frc, vids[1], -0.5/norm, s0[:m.Ndim])
	return nil
}

func (o *Area) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	return MapInfo{Grade: mesh.GradeArea, Sel: sel, Integrand: areaIntegrand, Grad: areaGradient, Sym: SymmetryAdd}, nil
}

func (o *Area) Grade(m *mesh.Mesh) int { return mesh.GradeArea }

func (o *Area) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *Area) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *Area) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

/* VolumeEnclosed --------------------------------------------------------- */

// VolumeEnclosed measures the volume enclosed by a surface of triangles
type VolumeEnclosed struct{}

func volumeenclosedIntegrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	x := vertexCoords(m, vids)
	cx := make([]float64, 3)
	veccross(pad3(x[0]), pad3(x[1]), cx)
	return math.Abs(vecdot(cx, pad3(x[2]))) / 6.0, nil
}

func volumeenclosedGradient(m *mesh.Mesh, id int, vids []int, frc [][]float64) error {
	x := vertexCoords(m, vids)
	cx := make([]float64, 3)
	veccross(pad3(x[0]), pad3(x[1]), cx)
	dot := vecdot(cx, pad3(x[2]))
	if math.Abs(dot) < eps {
		return chk.Err("degenerate surface element %d", id)
	}
	sgn := dot / math.Abs(dot)
	addToCol(frc, vids[2], sgn/6.0, cx[:m.Ndim])
	veccross(pad3(x[1]), pad3(x[2]), cx)
	addToCol(frc, vids[0], sgn/6.0, cx[:m.Ndim])
	veccross(pad3(x[2]), pad3(x[0]), cx)
	addToCol(frc, vids[1], sgn/6.0, cx[:m.Ndim])
	return nil
}

func (o *VolumeEnclosed) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	return MapInfo{Grade: mesh.GradeArea, Sel: sel, Integrand: volumeenclosedIntegrand, Grad: volumeenclosedGradient, Sym: SymmetryAdd}, nil
}

func (o *VolumeEnclosed) Grade(m *mesh.Mesh) int { return mesh.GradeArea }

func (o *VolumeEnclosed) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *VolumeEnclosed) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *VolumeEnclosed) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

/* Volume ----------------------------------------------------------------- */

// Volume measures the total volume of tetrahedral elements
type Volume struct{}

func volumeIntegrand(m *mesh.Mesh, id int, vids []int) (float64, error) {
	x := vertexCoords(m, vids)
	s10 := make([]float64, 3)
	s20 := make([]float64, 3)
	s30 := make([]float64, 3)
	cx := make([]float64, 3)
	vecsub(pad3(x[1]), pad3(x[0]), s10)
	vecsub(pad3(x[2]), pad3(x[0]), s20)
	vecsub(pad3(x[3]), pad3(x[0]), s30)
	veccross(s20, s30, cx)
	return math.Abs(vecdot(s10, cx)) / 6.0, nil
}

func volumeGradient(m *mesh.Mesh, id int, vids []int, frc [][]float64) error {
	x := vertexCoords(m, vids)
	s10 := make([]float64, 3)
	s20 := make([]float64, 3)
	s30 := make([]float64, 3)
	s31 := make([]float64, 3)
	s21 := make([]float64, 3)
	cx := make([]float64, 3)
	vecsub(pad3(x[1]), pad3(x[0]), s10)
	vecsub(pad3(x[2]), pad3(x[0]), s20)
	vecsub(pad3(x[3]), pad3(x[0]), s30)
	vecsub(pad3(x[3]), pad3(x[1]), s31)
	vecsub(pad3(x[2]), pad3(x[1]), s21)
	veccross(s20, s30, cx)
	uu := 1.0
	if vecdot(s10, cx) < 0 {
		uu = -1.0
	}
	addToCol(frc, vids[1], uu/6.0, cx[:m.Ndim])
	veccross(s31, s21, cx)
	addToCol(frc, vids[0], uu/6.0, cx[:m.Ndim])
	veccross(s30, s10, cx)
	addToCol(frc, vids[2], uu/6.0, cx[:m.Ndim])
	veccross(s10, s20, cx)
	addToCol(frc, vids[3], uu/6.0, cx[:m.Ndim])
	return nil
}

func (o *Volume) prepare(m *mesh.Mesh, sel *selection.Selection) (MapInfo, error) {
	return MapInfo{Grade: mesh.GradeVolume, Sel: sel, Integrand: volumeIntegrand, Grad: volumeGradient, Sym: SymmetryAdd}, nil
}

func (o *Volume) Grade(m *mesh.Mesh) int { return mesh.GradeVolume }

func (o *Volume) Integrand(m *mesh.Mesh, sel *selection.Selection) ([]float64, error) {
	return evalIntegrand(o, m, sel)
}

func (o *Volume) Total(m *mesh.Mesh, sel *selection.Selection) (float64, error) {
	return evalTotal(o, m, sel)
}

func (o *Volume) Gradient(m *mesh.Mesh, sel *selection.Selection) ([][]float64, error) {
	return evalGradient(o, m, sel)
}

// pad3 extends a coordinate vector to three components for cross products
func pad3(x []float64) []float64 {
	if len(x) >= 3 {
		return x
	}
	v := make([]float64, 3)
	copy(v, x)
	return v
}
