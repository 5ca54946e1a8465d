// Copyright 2017 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package morpho implements shape and field optimization on simplicial
// meshes. Users declare geometric energies (length, area, volume,
// curvature, elastic, nematic), global and local constraints, and descend
// on vertex positions or field values.
//
// The subpackages are:
//
//	mesh       simplicial complexes with cached connectivity
//	field      per-element numerical data
//	selection  per-grade element subsets
//	sparse     DOK/CCS sparse matrices
//	functional energy functionals and the element-wise evaluator
//	opt        optimization problems, shape and field optimizers
//	refine     edge-midpoint mesh refinement
package morpho
