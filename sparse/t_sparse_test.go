// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_sparse01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sparse01. DOK editing and CCS conversion")

	a := New(3, 3)
	a.Set(2, 0, 1)
	a.Set(0, 0, 2)
	a.Set(1, 2, 3)
	a.Set(0, 2, 4)

	chk.IntAssert(a.Count(), 4)
	chk.Scalar(tst, "a20", 1e-17, a.Get(2, 0), 1)
	chk.Scalar(tst, "a11", 1e-17, a.Get(1, 1), 0)

	// ccs columns are sorted ascending by row index
	rows, err := a.RowIndices(0)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Ints(tst, "col0 rows", rows, []int{0, 2})
	rows, err = a.RowIndices(2)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Ints(tst, "col2 rows", rows, []int{0, 1})

	cols, err := a.ColIndices(0)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Ints(tst, "row0 cols", cols, []int{0, 2})

	// insertion order is preserved by Loop
	var order []int
	a.Loop(func(i, j int, val float64) { order = append(order, i) })
	chk.Ints(tst, "insertion order", order, []int{2, 0, 1, 0})

	// editing invalidates the ccs form
	a.Set(1, 0, 5)
	rows, err = a.RowIndices(0)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Ints(tst, "col0 rows after edit", rows, []int{0, 1, 2})
}

func Test_sparse02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sparse02. add, mul and transpose")

	a := New(2, 2)
	a.Set(0, 0, 1)
	a.Set(0, 1, 2)
	a.Set(1, 1, 3)

	b := New(2, 2)
	b.Set(0, 0, 4)
	b.Set(1, 0, 5)

	c, err := Add(1, a, 2, b)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Matrix(tst, "a+2b", 1e-15, c.ToDense(), [][]float64{
		{9, 2},
		{10, 3},
	})

	d, err := Mul(a, b)
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Matrix(tst, "a·b", 1e-15, d.ToDense(), [][]float64{
		{14, 0},
		{15, 0},
	})

	at := a.Transpose()
	chk.Matrix(tst, "aᵀ", 1e-15, at.ToDense(), [][]float64{
		{1, 0},
		{2, 3},
	})

	// results must not alias their operands
	a.Set(0, 0, 100)
	chk.Scalar(tst, "c unchanged", 1e-15, c.Get(0, 0), 9)
}

func Test_sparse03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sparse03. dense solve")

	a := New(2, 2)
	a.Set(0, 0, 2)
	a.Set(0, 1, 1)
	a.Set(1, 0, 1)
	a.Set(1, 1, 3)

	x, err := a.SolveDense([]float64{5, 10})
	if err != nil {
		tst.Errorf("test failed: %v\n", err)
		return
	}
	chk.Vector(tst, "x", 1e-13, x, []float64{1, 3})

	// singular systems are reported
	s := New(2, 2)
	s.Set(0, 0, 1)
	s.Set(1, 0, 1)
	if _, err := s.SolveDense([]float64{1, 1}); err == nil {
		tst.Errorf("expected singular system error\n")
	}
}
