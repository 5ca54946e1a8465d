// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package opt implements optimization problems and the constrained
// gradient-descent optimizers that solve them
package opt

import (
	"github.com/cpmech/gosl/chk"

	"github.com/ConduitDan/morpho/field"
	"github.com/ConduitDan/morpho/functional"
	"github.com/ConduitDan/morpho/mesh"
	"github.com/ConduitDan/morpho/selection"
)

// Entry decorates a functional with the data attached when it is added to a
// problem: an optional selection, an optional field reference, a prefactor,
// and, for constraints, a target value and the onesided flag
type Entry struct {
	Func      functional.Functional
	Sel       *selection.Selection // restricts where the functional acts
	Fld       *field.Field         // field the entry constrains; nil → shape
	Prefactor float64
	Target    float64 // conserved value for constraints
	Onesided  bool    // local constraints: active only when violated

	active *selection.Selection // active set built during force assembly
}

// SetTarget overrides the recorded target value
func (o *Entry) SetTarget(val float64) {
	o.Target = val
}

// rebindable is implemented by functionals that hold references to meshes
// or fields
type rebindable interface {
	Rebind(dict map[any]any)
}

// Problem collects energies, global constraints and local constraints
// acting on a mesh and any auxiliary fields
type Problem struct {
	Msh              *mesh.Mesh
	Energies         []*Entry
	Constraints      []*Entry
	LocalConstraints []*Entry
	Fields           []*field.Field
}

// NewProblem creates an empty problem bound to mesh m
func NewProblem(m *mesh.Mesh) *Problem {
	return &Problem{Msh: m}
}

// AddEnergy registers an energy with an optional selection and prefactor
func (o *Problem) AddEnergy(f functional.Functional, sel *selection.Selection, prefactor float64) *Entry {
	if prefactor == 0 {
		prefactor = 1
	}
	e := &Entry{Func: f, Sel: sel, Prefactor: prefactor}
	if ff, ok := f.(functional.FieldFunctional); ok {
		e.Fld = ff.Field()
	}
	o.Energies = append(o.Energies, e)
	return e
}

// AddConstraint registers a global constraint. The target is captured from
// the current mesh so the value is conserved during optimization.
func (o *Problem) AddConstraint(f functional.Functional, sel *selection.Selection, fld *field.Field) (*Entry, error) {
	target, err := f.Total(o.Msh, sel)
	if err != nil {
		return nil, chk.Err("cannot record constraint target: %v", err)
	}
	e := &Entry{Func: f, Sel: sel, Fld: fld, Prefactor: 1, Target: target}
	o.Constraints = append(o.Constraints, e)
	return e, nil
}

// AddLocalConstraint registers a pointwise constraint with target zero;
// use SetTarget to override
func (o *Problem) AddLocalConstraint(f functional.Functional, sel *selection.Selection, fld *field.Field, onesided bool) *Entry {
	e := &Entry{Func: f, Sel: sel, Fld: fld, Prefactor: 1, Onesided: onesided}
	o.LocalConstraints = append(o.LocalConstraints, e)
	return e
}

// AddField registers an auxiliary field
func (o *Problem) AddField(f *field.Field) {
	o.Fields = append(o.Fields, f)
}

// Update rewires every internal reference according to dict, which maps old
// meshes, fields and selections to their replacements. It is the sole
// rebinding point after refinement.
func (o *Problem) Update(dict map[any]any) {
	if m, ok := dict[o.Msh].(*mesh.Mesh); ok {
		o.Msh = m
	}
	for i, f := range o.Fields {
		if nf, ok := dict[f].(*field.Field); ok {
			o.Fields[i] = nf
		}
	}
	for _, list := range [][]*Entry{o.Energies, o.Constraints, o.LocalConstraints} {
		for _, e := range list {
			if e.Sel != nil {
				if s, ok := dict[e.Sel].(*selection.Selection); ok {
					e.Sel = s
				}
			}
			if e.Fld != nil {
				if f, ok := dict[e.Fld].(*field.Field); ok {
					e.Fld = f
				}
			}
			if r, ok := e.Func.(rebindable); ok {
				r.Rebind(dict)
			}
			e.active = nil
		}
	}
}
