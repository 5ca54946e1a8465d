// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"math"
)

// Brent minimizer constants
const (
	cgold = 0.3819660 // golden section fraction
	zeps  = 1e-10     // protects the convergence test near zero
)

// brent minimizes fn over the bracket (a, x, b) with a < x < b and
// fn(x) < fn(a), fn(x) < fn(b), by golden-section search with parabolic
// interpolation. It returns the abscissa and value of the minimum found
// within maxit iterations.
func brent(fn func(float64) (float64, error), ax, bx, cx, tol float64, maxit int) (xmin, fmin float64, err error) {
	a := math.Min(ax, cx)
	b := math.Max(ax, cx)
	x, w, v := bx, bx, bx
	fx, err := fn(x)
	if err != nil {
		return 0, 0, err
	}
	fw, fv := fx, fx
	var d, e float64 // step and the step before last

	for it := 0; it < maxit; it++ {
		xm := 0.5 * (a + b)
		tol1 := tol*math.Abs(x) + zeps
		tol2 := 2 * tol1
		if math.Abs(x-xm) <= tol2-0.5*(b-a) {
			return x, fx, nil
		}

		useGolden := true
		if math.Abs(e) > tol1 {
			// fit a parabola through (v,fv), (w,fw), (x,fx)
			r := (x - w) * (fx - fv)
			q := (x - v) * (fx - fw)
			p := (x-v)*q - (x-w)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			}
			q = math.Abs(q)
			eprev := e
			e = d
			if math.Abs(p) < math.Abs(0.5*q*eprev) && p > q*(a-x) && p < q*(b-x) {
				d = p / q
				u := x + d
				if u-a < tol2 || b-u < tol2 {
					d = math.Copysign(tol1, xm-x)
				}
				useGolden = false
			}
		}
		if useGolden {
			if x >= xm {
				e = a - x
			} else {
				e = b - x
			}
			d = cgold * e
		}

		var u float64
		if math.Abs(d) >= tol1 {
			u = x + d
		} else {
			u = x + math.Copysign(tol1, d)
		}
		fu, err := fn(u)
		if err != nil {
			return 0, 0, err
		}
		if fu <= fx {
			if u >= x {
				a = x
			} else {
				b = x
			}
			v, w, x = w, x, u
			fv, fw, fx = fw, fx, fu
		} else {
			if u < x {
				a = u
			} else {
				b = u
			}
			if fu <= fw || w == x {
				v, w = w, u
				fv, fw = fw, fu
			} else if fu <= fv || v == x || v == w {
				v, fv = u, fu
			}
		}
	}
	// the iteration cap is a soft limit: report the best point found
	return x, fx, nil
}
