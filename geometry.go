/*
 * geometry.go, part of mopml.
 *
 * Copyright 2025 Raul Mera <rmera{at}usachDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 * mopml is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

package mopml

import (
	"gonum.org/v1/gonum/mat"
)

/*Note: some functions here panic instead of returning errors. This is because they are "fundamental"
 * functions, and the conditions they panic on can only come from a programming error in this program,
 * never from data read from the pipe (the protocol reader validates that before building a Geometry).*/

//Geometry is one correction request as read from the pipe: the identity and
//position of every atom, in the order the external program sent them, plus
//whether a gradient was requested. Coordinates are in Angstrom, one row
//vector per atom, as in goChem's v3.
type Geometry struct {
	Numbers      []int
	Coords       *mat.Dense
	WantGradient bool
}

//Len returns the number of atoms in the geometry.
func (G *Geometry) Len() int {
	return len(G.Numbers)
}

//Filtered is the result of removing the atoms a model doesn't support from
//a Geometry. It remembers where the removed atoms were so their (zero)
//contribution can be put back in the right place.
type Filtered struct {
	Types    []int      //model type index for each surviving atom, original order
	Coords   *mat.Dense //positions of the surviving atoms, nil if none survived
	Excluded []int      //original indices of the removed atoms, ascending
	total    int
}

//Filter returns the geometry with every atom whose atomic number is not a
//key of supported removed, the survivors mapped to their model type indices.
//The excluded indices are collected in a first pass, before anything is
//filtered, so multi-exclusion geometries can not skip atoms.
func (G *Geometry) Filter(supported map[int]int) *Filtered {
	r, _ := G.Coords.Dims()
	if r != G.Len() {
		panic("mopml: geometry with mismatched numbers and coordinates")
	}
	F := &Filtered{total: G.Len()}
	for i, z := range G.Numbers {
		if _, ok := supported[z]; !ok {
			F.Excluded = append(F.Excluded, i)
		}
	}
	kept := G.Len() - len(F.Excluded)
	if kept == 0 {
		return F
	}
	F.Types = make([]int, 0, kept)
	F.Coords = mat.NewDense(kept, 3, nil)
	row := 0
	excl := 0
	for i, z := range G.Numbers {
		if excl < len(F.Excluded) && F.Excluded[excl] == i {
			excl++
			continue
		}
		F.Types = append(F.Types, supported[z])
		F.Coords.SetRow(row, G.Coords.RawRowView(i))
		row++
	}
	return F
}

//Len returns the number of atoms that survived the filter.
func (F *Filtered) Len() int {
	return len(F.Types)
}

//Total returns the number of atoms in the original, unfiltered geometry.
func (F *Filtered) Total() int {
	return F.total
}

//Reinsert takes a matrix with one row per surviving atom (forces, or
//anything shaped like them) and rebuilds the full-length matrix, with a zero
//row at each excluded position. rows may be nil, meaning no atom survived,
//in which case the whole returned matrix is zero. It panics if rows doesn't
//have exactly one row per surviving atom.
func (F *Filtered) Reinsert(rows *mat.Dense) *mat.Dense {
	full := mat.NewDense(F.total, 3, nil)
	if rows == nil {
		if F.Len() != 0 {
			panic("mopml: nil rows for a filter with survivors")
		}
		return full
	}
	r, _ := rows.Dims()
	if r != F.Len() {
		panic("mopml: Reinsert given a matrix with the wrong number of rows")
	}
	row := 0
	excl := 0
	for i := 0; i < F.total; i++ {
		if excl < len(F.Excluded) && F.Excluded[excl] == i {
			excl++
			continue
		}
		full.SetRow(i, rows.RawRowView(row))
		row++
	}
	return full
}
