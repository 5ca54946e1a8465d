// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"

	"github.com/ConduitDan/morpho/field"
	"github.com/ConduitDan/morpho/functional"
	"github.com/ConduitDan/morpho/mesh"
	"github.com/ConduitDan/morpho/selection"
)

// adapter presents a target (vertex matrix or field data) and the matching
// gradient flavor to the shared optimizer core. Both targets are live
// matrices whose columns are the pointwise degrees of freedom.
type adapter interface {
	target() [][]float64
	force() ([][]float64, error)                 // Σ prefactor·gradient over energies
	grad(e *Entry, sel *selection.Selection) ([][]float64, error)
	integrand(e *Entry, sel *selection.Selection) ([]float64, error)
	total(e *Entry) (float64, error)
	totalEnergy() (float64, error)
	constraints() []*Entry
	localConstraints() []*Entry
}

// Optimizer implements constraint-projected gradient descent with fixed
// steps, line search and conjugate gradients over an abstract target
type Optimizer struct {

	// parameters
	StepSize           float64 // initial step size
	StepLimit          float64 // clamp applied after line search
	Etol               float64 // relative energy tolerance
	Ctol               float64 // constraint residual tolerance
	LinminTol          float64 // line minimizer tolerance
	LinminMax          int     // line minimizer iteration limit
	MaxConstraintSteps int     // reprojection iteration limit
	MaxBracketSteps    int     // bracket expansion limit
	Quiet              bool    // suppress progress reporting

	// results
	Energy []float64 // energy history

	// internal
	prob  *Problem
	tgt   adapter
	fixed map[int]bool // target columns excluded from motion
}

// initDefaults sets the default parameters
func (o *Optimizer) initDefaults(p *Problem, tgt adapter) {
	o.prob = p
	o.tgt = tgt
	o.StepSize = 0.1
	o.StepLimit = 0.5
	o.Etol = 1e-8
	o.Ctol = 1e-10
	o.LinminTol = 0.001
	o.LinminMax = 10
	o.MaxConstraintSteps = 20
	o.MaxBracketSteps = 10
	o.fixed = make(map[int]bool)
}

// TotalEnergy returns the current value of the problem's energies
func (o *Optimizer) TotalEnergy() (float64, error) {
	return o.tgt.totalEnergy()
}

// zeroFixed clears the force on fixed columns
func (o *Optimizer) zeroFixed(frc [][]float64) {
	for id := range o.fixed {
		for k := range frc {
			frc[k][id] = 0
		}
	}
}

// TotalForce assembles the raw force: the prefactor-weighted sum of the
// energy gradients with fixed columns zeroed
func (o *Optimizer) TotalForce() ([][]float64, error) {
	frc, err := o.tgt.force()
	if err != nil {
		return nil, err
	}
	o.zeroFixed(frc)
	return frc, nil
}

// initLocalConstraints builds the active set of every local constraint.
// Onesided constraints are active only where the integrand lies below the
// target.
func (o *Optimizer) initLocalConstraints() error {
	for _, lc := range o.tgt.localConstraints() {
		if !lc.Onesided {
			lc.active = lc.Sel
			continue
		}
		vals, err := o.tgt.integrand(lc, lc.Sel)
		if err != nil {
			return err
		}
		g := lc.Func.Grade(o.prob.Msh)
		act := selection.New(o.prob.Msh)
		for id, v := range vals {
			if lc.Sel != nil && !lc.Sel.IsSelected(g, id) {
				continue
			}
			if v-lc.Target < o.Ctol {
				act.Select(g, id)
			}
		}
		lc.active = act
	}
	return nil
}

// subtractLocalConstraints removes from frc the component along each local
// constraint gradient, column by column (a pointwise Gram–Schmidt)
func (o *Optimizer) subtractLocalConstraints(frc [][]float64) error {
	for _, lc := range o.tgt.localConstraints() {
		g, err := o.tgt.grad(lc, lc.active)
		if err != nil {
			return err
		}
		ncols := len(frc[0])
		for v := 0; v < ncols; v++ {
			gg := 0.0
			fg := 0.0
			for k := range frc {
				gg += g[k][v] * g[k][v]
				fg += frc[k][v] * g[k][v]
			}
			if gg < o.Ctol {
				continue
			}
			λ := fg / gg
			for k := range frc {
				frc[k][v] -= λ * g[k][v]
			}
		}
	}
	return nil
}

// subtractConstraints removes from frc the component along each global
// constraint gradient. Gram–Schmidt against multiple constraints is not
// performed; see reprojectConstraints for the coupled solve.
func (o *Optimizer) subtractConstraints(frc [][]float64) error {
	for _, c := range o.tgt.constraints() {
		g, err := o.tgt.grad(c, c.Sel)
		if err != nil {
			return err
		}
		if err = o.subtractLocalConstraints(g); err != nil {
			return err
		}
		o.zeroFixed(g)
		gg := matInner(g, g)
		if gg < o.Ctol {
			continue
		}
		λ := matInner(frc, g) / gg
		matAccum(frc, -λ, g)
	}
	return nil
}

// TotalForceWithConstraints assembles the force projected onto the
// constraint manifold's tangent space
func (o *Optimizer) TotalForceWithConstraints() ([][]float64, error) {
	frc, err := o.TotalForce()
	if err != nil {
		return nil, err
	}
	if err = o.initLocalConstraints(); err != nil {
		return nil, err
	}
	if err = o.subtractLocalConstraints(frc); err != nil {
		return nil, err
	}
	if err = o.subtractConstraints(frc); err != nil {
		return nil, err
	}
	o.zeroFixed(frc)
	return frc, nil
}

// advance moves the target by −h·frc without reprojection
func (o *Optimizer) advance(h float64, frc [][]float64) {
	t := o.tgt.target()
	for k := range t {
		for j := range t[k] {
			t[k][j] -= h * frc[k][j]
		}
	}
}

// Step moves the target by −h·frc and reprojects it onto the constraint
// manifold
func (o *Optimizer) Step(h float64, frc [][]float64) error {
	o.advance(h, frc)
	if err := o.reprojectLocalConstraints(); err != nil {
		return err
	}
	return o.reprojectConstraints()
}

// reprojectLocalConstraints restores pointwise constraint satisfaction by
// Newton updates along the local constraint gradients, column by column
func (o *Optimizer) reprojectLocalConstraints() error {
	locals := o.tgt.localConstraints()
	if len(locals) == 0 {
		return nil
	}
	if err := o.initLocalConstraints(); err != nil {
		return err
	}
	t := o.tgt.target()
	nloc := len(locals)
	ncols := len(t[0])

	for step := 0; step < o.MaxConstraintSteps; step++ {
		vals := make([][]float64, nloc)
		grads := make([][][]float64, nloc)
		for i, lc := range locals {
			var err error
			if vals[i], err = o.tgt.integrand(lc, lc.active); err != nil {
				return err
			}
			if grads[i], err = o.tgt.grad(lc, lc.active); err != nil {
				return err
			}
		}

		maxresid := 0.0
		for v := 0; v < ncols; v++ {
			if o.fixed[v] {
				continue
			}

			// collect the constraints active at this column
			var act []int
			var d []float64
			for i, lc := range locals {
				if lc.active != nil && !lc.active.IsSelected(lc.Func.Grade(o.prob.Msh), v) {
					continue
				}
				if v >= len(vals[i]) {
					continue
				}
				resid := lc.Target - vals[i][v]
				if lc.Onesided && resid < 0 {
					continue
				}
				act = append(act, i)
				d = append(d, resid)
			}
			if len(act) == 0 {
				continue
			}
			dn := la.VecNorm(d)
			if dn < o.Ctol {
				continue
			}
			if dn > maxresid {
				maxresid = dn
			}

			// Gram matrix of the active gradients at this column
			n := len(act)
			gram := la.MatAlloc(n, n)
			for a := 0; a < n; a++ {
				for b := 0; b < n; b++ {
					for k := range t {
						gram[a][b] += grads[act[a]][k][v] * grads[act[b]][k][v]
					}
				}
			}
			gi := la.MatAlloc(n, n)
			if err := la.MatInvG(gi, gram, 1e-14); err != nil {
				if !o.Quiet {
					io.PfRed("singular system in local constraint reprojection: %v\n", err)
				}
				return nil
			}
			λ := make([]float64, n)
			la.MatVecMul(λ, 1, gi, d)
			for a := 0; a < n; a++ {
				for k := range t {
					t[k][v] += λ[a] * grads[act[a]][k][v]
				}
			}
		}
		if maxresid < o.Ctol {
			return nil
		}
	}
	if !o.Quiet {
		io.Pfyel("local constraint reprojection did not converge in %d steps\n", o.MaxConstraintSteps)
	}
	return nil
}

// reprojectConstraints restores the global constraint targets by Newton
// updates along the constraint gradients
func (o *Optimizer) reprojectConstraints() error {
	cons := o.tgt.constraints()
	n := len(cons)
	if n == 0 {
		return nil
	}
	t := o.tgt.target()

	for step := 0; step < o.MaxConstraintSteps; step++ {
		d := make([]float64, n)
		for i, c := range cons {
			total, err := o.tgt.total(c)
			if err != nil {
				return err
			}
			d[i] = c.Target - total
		}
		if la.VecNorm(d) < o.Ctol {
			return nil
		}

		grads := make([][][]float64, n)
		for i, c := range cons {
			g, err := o.tgt.grad(c, c.Sel)
			if err != nil {
				return err
			}
			if err = o.subtractLocalConstraints(g); err != nil {
				return err
			}
			o.zeroFixed(g)
			grads[i] = g
		}
		gram := la.MatAlloc(n, n)
		for a := 0; a < n; a++ {
			for b := 0; b < n; b++ {
				gram[a][b] = matInner(grads[a], grads[b])
			}
		}
		gi := la.MatAlloc(n, n)
		if err := la.MatInvG(gi, gram, 1e-14); err != nil {
			if !o.Quiet {
				io.PfRed("singular system in constraint reprojection: %v\n", err)
			}
			return nil
		}
		λ := make([]float64, n)
		la.MatVecMul(λ, 1, gi, d)
		for i := 0; i < n; i++ {
			for k := range t {
				for j := range t[k] {
					t[k][j] += λ[i] * grads[i][k][j]
				}
			}
		}
	}
	if !o.Quiet {
		io.Pfyel("constraint reprojection did not converge in %d steps\n", o.MaxConstraintSteps)
	}
	return nil
}

// record appends e to the energy history and reports progress, returning
// whether the energy itself or its relative change is below the tolerance
func (o *Optimizer) record(it int, e, h float64) (converged bool) {
	de := math.NaN()
	if len(o.Energy) > 0 {
		de = e - o.Energy[len(o.Energy)-1]
	}
	o.Energy = append(o.Energy, e)
	if !o.Quiet {
		if it == 0 {
			io.Pf("%6s%23s%23s%15s\n", "iter", "energy", "delta", "stepsize")
		}
		io.Pf("%6d%23.15e%23.15e%15.6e\n", it, e, de, h)
	}
	if math.Abs(e) < o.Etol {
		return true
	}
	if !math.IsNaN(de) && math.Abs(de) < o.Etol*math.Abs(e) {
		return true
	}
	return false
}

// Relax performs up to n fixed-size gradient steps, stopping when the
// energy change falls below the tolerance
func (o *Optimizer) Relax(n int) error {
	for it := 0; it < n; it++ {
		frc, err := o.TotalForceWithConstraints()
		if err != nil {
			return err
		}
		if err = o.Step(o.StepSize, frc); err != nil {
			return err
		}
		e, err := o.TotalEnergy()
		if err != nil {
			return err
		}
		if o.record(it, e, o.StepSize) {
			break
		}
	}
	return nil
}

// energyAt evaluates the energy with the target displaced by −s·frc,
// restoring the target afterwards
func (o *Optimizer) energyAt(saved [][]float64, frc [][]float64, s float64) (float64, error) {
	t := o.tgt.target()
	for k := range t {
		for j := range t[k] {
			t[k][j] = saved[k][j] - s*frc[k][j]
		}
	}
	e, err := o.tgt.totalEnergy()
	for k := range t {
		copy(t[k], saved[k])
	}
	return e, err
}

// Linesearch performs up to n steps, choosing each step size by bracketing
// and Brent minimization along the projected force
func (o *Optimizer) Linesearch(n int) error {
	for it := 0; it < n; it++ {
		frc, err := o.TotalForceWithConstraints()
		if err != nil {
			return err
		}
		h, ok, err := o.lineMinimize(frc)
		if err != nil {
			return err
		}
		if !ok {
			if !o.Quiet {
				io.Pfyel("line search failed to bracket a minimum\n")
			}
			return nil
		}
		if err = o.Step(h, frc); err != nil {
			return err
		}
		e, err := o.TotalEnergy()
		if err != nil {
			return err
		}
		if o.record(it, e, h) {
			break
		}
	}
	return nil
}

// lineMinimize brackets and minimizes the energy along −frc, returning the
// chosen step size clamped to StepLimit
func (o *Optimizer) lineMinimize(frc [][]float64) (h float64, ok bool, err error) {
	saved := la.MatClone(o.tgt.target())
	en := func(s float64) (float64, error) {
		return o.energyAt(saved, frc, s)
	}
	a, x, b, ok, err := o.bracket(en)
	if err != nil || !ok {
		return 0, ok, err
	}
	h, _, err = brent(en, a, x, b, o.LinminTol, o.LinminMax)
	if err != nil {
		return 0, false, err
	}
	if o.StepLimit > 0 && h > o.StepLimit {
		h = o.StepLimit
	}
	return h, true, nil
}

// bracket searches for a triple a < x < b with E(x) < E(a) and E(x) < E(b),
// expanding or contracting around the current step size
func (o *Optimizer) bracket(en func(float64) (float64, error)) (a, x, b float64, ok bool, err error) {
	a, x, b = 0, o.StepSize, 2*o.StepSize
	ea, err := en(a)
	if err != nil {
		return
	}
	ex, err := en(x)
	if err != nil {
		return
	}
	eb, err := en(b)
	if err != nil {
		return
	}
	for try := 0; try < o.MaxBracketSteps; try++ {
		if ex < ea && ex < eb {
			return a, x, b, true, nil
		}
		if ex >= ea { // overshooting: contract towards zero
			b, eb = x, ex
			x = 0.5 * x
			if ex, err = en(x); err != nil {
				return
			}
		} else { // still descending: expand
			x, ex = b, eb
			b = 2 * b
			if eb, err = en(b); err != nil {
				return
			}
		}
	}
	return a, x, b, false, nil
}

// ConjugateGradient performs up to n conjugate-gradient steps with the
// Hager–Zhang update, minimizing along each direction by bracket and Brent
func (o *Optimizer) ConjugateGradient(n int) error {
	var fprev, dir [][]float64
	for it := 0; it < n; it++ {
		frc, err := o.TotalForceWithConstraints()
		if err != nil {
			return err
		}
		if dir == nil {
			dir = la.MatClone(frc)
		} else {
			// y = f_{k-1} − f_k; dir stores the negative of the descent
			// direction, since Step subtracts it from the target
			y := la.MatClone(fprev)
			matAccum(y, -1, frc)
			dy := -matInner(dir, y) // ⟨d, y⟩
			β := 0.0
			if math.Abs(dy) > 1e-30 {
				yy := matInner(y, y)
				// β = ⟨y − 2·d·(y·y)/(d·y), f⟩ / (d·y)
				β = (matInner(y, frc) + 2*yy*matInner(dir, frc)/dy) / dy
			}
			next := la.MatClone(frc)
			matAccum(next, β, dir)
			dir = next
		}
		fprev = la.MatClone(frc)

		h, ok, err := o.lineMinimize(dir)
		if err != nil {
			return err
		}
		if !ok {
			if !o.Quiet {
				io.Pfyel("line search failed to bracket a minimum\n")
			}
			return nil
		}
		if err = o.Step(h, dir); err != nil {
			return err
		}
		e, err := o.TotalEnergy()
		if err != nil {
			return err
		}
		if o.record(it, e, h) {
			break
		}
	}
	return nil
}

/* matrix helpers --------------------------------------------------------- */

// matInner computes the Frobenius inner product of two matrices
func matInner(a, b [][]float64) (res float64) {
	for k := range a {
		for j := range a[k] {
			res += a[k][j] * b[k][j]
		}
	}
	return
}

// matAccum computes a ← a + λ·b
func matAccum(a [][]float64, λ float64, b [][]float64) {
	for k := range a {
		for j := range a[k] {
			a[k][j] += λ * b[k][j]
		}
	}
}

/* ShapeOptimizer --------------------------------------------------------- */

// ShapeOptimizer descends on the vertex positions of the problem's mesh
type ShapeOptimizer struct {
	Optimizer
}

// NewShapeOptimizer creates a shape optimizer with default parameters
func NewShapeOptimizer(p *Problem) *ShapeOptimizer {
	var o ShapeOptimizer
	o.initDefaults(p, &shapeAdapter{p})
	return &o
}

// Fix excludes the vertices selected in sel from motion
func (o *ShapeOptimizer) Fix(sel *selection.Selection) {
	for _, id := range sel.IDs(mesh.GradeVertex) {
		o.fixed[id] = true
	}
}

// FixIDs excludes the given vertex ids from motion
func (o *ShapeOptimizer) FixIDs(ids []int) {
	for _, id := range ids {
		o.fixed[id] = true
	}
}

// shapeAdapter presents vertex positions and position gradients
type shapeAdapter struct {
	p *Problem
}

func (o *shapeAdapter) target() [][]float64 {
	return o.p.Msh.Vert
}

func (o *shapeAdapter) force() ([][]float64, error) {
	m := o.p.Msh
	frc := la.MatAlloc(m.Ndim, m.NumVerts())
	for _, e := range o.p.Energies {
		g, err := e.Func.Gradient(m, e.Sel)
		if err != nil {
			return nil, err
		}
		matAccum(frc, e.Prefactor, g)
	}
	return frc, nil
}

func (o *shapeAdapter) grad(e *Entry, sel *selection.Selection) ([][]float64, error) {
	return e.Func.Gradient(o.p.Msh, sel)
}

func (o *shapeAdapter) integrand(e *Entry, sel *selection.Selection) ([]float64, error) {
	return e.Func.Integrand(o.p.Msh, sel)
}

func (o *shapeAdapter) total(e *Entry) (float64, error) {
	return e.Func.Total(o.p.Msh, e.Sel)
}

func (o *shapeAdapter) totalEnergy() (float64, error) {
	sum := 0.0
	for _, e := range o.p.Energies {
		t, err := e.Func.Total(o.p.Msh, e.Sel)
		if err != nil {
			return 0, err
		}
		sum += e.Prefactor * t
	}
	return sum, nil
}

func (o *shapeAdapter) constraints() (list []*Entry) {
	for _, c := range o.p.Constraints {
		if c.Fld == nil {
			list = append(list, c)
		}
	}
	return
}

func (o *shapeAdapter) localConstraints() (list []*Entry) {
	for _, c := range o.p.LocalConstraints {
		if c.Fld == nil {
			list = append(list, c)
		}
	}
	return
}

/* FieldOptimizer --------------------------------------------------------- */

// FieldOptimizer descends on the data of one field, using the field
// gradients of the problem's energies
type FieldOptimizer struct {
	Optimizer
	Fld *field.Field
}

// NewFieldOptimizer creates a field optimizer targeting fld
func NewFieldOptimizer(p *Problem, fld *field.Field) *FieldOptimizer {
	var o FieldOptimizer
	o.Fld = fld
	o.initDefaults(p, &fieldAdapter{p, fld})
	return &o
}

// Fix excludes the field items of the selected elements from motion
func (o *FieldOptimizer) Fix(sel *selection.Selection) {
	for g := 0; g < mesh.NGrades; g++ {
		if o.Fld.Dof[g] == 0 {
			continue
		}
		for _, id := range sel.IDs(g) {
			for j := 0; j < o.Fld.Dof[g]; j++ {
				o.fixed[o.Fld.Offset[g]+id*o.Fld.Dof[g]+j] = true
			}
		}
	}
}

// fieldAdapter presents field data and field gradients
type fieldAdapter struct {
	p   *Problem
	fld *field.Field
}

// applies reports whether entry e acts on the target field
func (o *fieldAdapter) applies(e *Entry) bool {
	return e.Fld == o.fld
}

func (o *fieldAdapter) target() [][]float64 {
	return o.fld.Data
}

func (o *fieldAdapter) fieldGradient(e *Entry, sel *selection.Selection) ([][]float64, error) {
	ff, ok := e.Func.(functional.FieldFunctional)
	if !ok {
		return nil, chk.Err("functional cannot differentiate with respect to a field")
	}
	g, err := ff.FieldGradient(o.p.Msh, sel)
	if err != nil {
		return nil, err
	}
	return g.Data, nil
}

func (o *fieldAdapter) force() ([][]float64, error) {
	frc := la.MatAlloc(o.fld.Psize, o.fld.Nitems)
	for _, e := range o.p.Energies {
		if !o.applies(e) {
			continue
		}
		g, err := o.fieldGradient(e, e.Sel)
		if err != nil {
			return nil, err
		}
		matAccum(frc, e.Prefactor, g)
	}
	return frc, nil
}

func (o *fieldAdapter) grad(e *Entry, sel *selection.Selection) ([][]float64, error) {
	return o.fieldGradient(e, sel)
}

func (o *fieldAdapter) integrand(e *Entry, sel *selection.Selection) ([]float64, error) {
	return e.Func.Integrand(o.p.Msh, sel)
}

func (o *fieldAdapter) total(e *Entry) (float64, error) {
	return e.Func.Total(o.p.Msh, e.Sel)
}

func (o *fieldAdapter) totalEnergy() (float64, error) {
	sum := 0.0
	for _, e := range o.p.Energies {
		if !o.applies(e) {
			continue
		}
		t, err := e.Func.Total(o.p.Msh, e.Sel)
		if err != nil {
			return 0, err
		}
		sum += e.Prefactor * t
	}
	return sum, nil
}

func (o *fieldAdapter) constraints() (list []*Entry) {
	for _, c := range o.p.Constraints {
		if o.applies(c) {
			list = append(list, c)
		}
	}
	return
}

func (o *fieldAdapter) localConstraints() (list []*Entry) {
	for _, c := range o.p.LocalConstraints {
		if o.applies(c) {
			list = append(list, c)
		}
	}
	return
}
