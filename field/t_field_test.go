// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/ConduitDan/morpho/mesh"
)

func testMesh() *mesh.Mesh {
	m := mesh.NewFromCoords(3, []float64{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	})
	m.AddElements(mesh.GradeArea, [][]int{{0, 1, 2}})
	return m
}

func Test_field01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("field01. access and layout")

	m := testMesh()
	f := NewVector(m, 3)
	chk.IntAssert(f.Nitems, 3)
	chk.IntAssert(f.Psize, 3)

	if err := f.SetList(mesh.GradeVertex, 1, 0, []float64{1, 2, 3}); err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	v, err := f.GetList(mesh.GradeVertex, 1, 0)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Vector(tst, "item", 1e-17, v, []float64{1, 2, 3})

	x, err := f.Get(mesh.GradeVertex, 1, 0, 2)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "component", 1e-17, x, 3)

	// out-of-range access is an error
	if _, err := f.Get(mesh.GradeVertex, 5, 0, 0); err == nil {
		tst.Errorf("expected out-of-range error\n")
	}
	if _, err := f.GetList(mesh.GradeLine, 0, 0); err == nil {
		tst.Errorf("expected missing grade error\n")
	}
}

func Test_field02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("field02. arithmetic and accumulate")

	m := testMesh()
	a := NewScalar(m)
	b := NewScalar(m)
	for id := 0; id < 3; id++ {
		a.Set(mesh.GradeVertex, id, 0, 0, float64(id))
		b.Set(mesh.GradeVertex, id, 0, 0, 10)
	}

	c, err := a.Add(b)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Vector(tst, "a+b", 1e-17, c.Data[0], []float64{10, 11, 12})

	d, err := c.Sub(a)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Vector(tst, "c-a", 1e-17, d.Data[0], []float64{10, 10, 10})

	if err := a.Accumulate(2, b); err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Vector(tst, "a+2b", 1e-17, a.Data[0], []float64{20, 21, 22})

	e := a.Clone()
	e.Zero()
	chk.Vector(tst, "zeroed", 1e-17, e.Data[0], []float64{0, 0, 0})
	chk.Vector(tst, "original untouched", 1e-17, a.Data[0], []float64{20, 21, 22})
}

func Test_field03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("field03. op over co-indexed fields")

	m := testMesh()
	a := NewScalar(m)
	b := NewScalar(m)
	for id := 0; id < 3; id++ {
		a.Set(mesh.GradeVertex, id, 0, 0, float64(id+1))
		b.Set(mesh.GradeVertex, id, 0, 0, float64(10*id))
	}

	r, err := a.Op(func(items ...[]float64) ([]float64, error) {
		return []float64{items[0][0] * items[1][0]}, nil
	}, b)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Vector(tst, "a·b", 1e-17, r.Data[0], []float64{0, 20, 60})
}
