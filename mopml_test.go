/*
 * mopml_test.go, part of mopml.
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
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

//TestConversion checks that each factor and its inverse multiply to one,
//and a couple of cross-checks between them.
func TestConversion(Te *testing.T) {
	pairs := [][2]float64{
		{H2Kcal, Kcal2H},
		{EV2Kcal, Kcal2EV},
		{A2Bohr, Bohr2A},
	}
	for _, p := range pairs {
		if math.Abs(p[0]*p[1]-1) > 1e-12 {
			Te.Errorf("factor %v and inverse %v don't multiply to 1", p[0], p[1])
		}
	}
	//1 Hartree in kcal/mol via eV should agree with the direct factor
	if math.Abs(H2EV*EV2Kcal-H2Kcal) > 0.05 {
		Te.Errorf("Hartree->eV->kcal/mol gives %v, want about %v", H2EV*EV2Kcal, H2Kcal)
	}
}

func TestSymbol(Te *testing.T) {
	if Symbol(6) != "C" {
		Te.Errorf("Symbol(6) = %q", Symbol(6))
	}
	if Symbol(104) != "Z104" {
		Te.Errorf("Symbol(104) = %q", Symbol(104))
	}
}

//water with a sodium ion and two heliums squeezed in, so the filter has
//adjacent AND non-adjacent exclusions to deal with.
func testGeometry() *Geometry {
	coords := mat.NewDense(6, 3, []float64{
		0.0, 0.0, 0.0,
		0.0, 0.0, 0.96,
		0.93, 0.0, -0.26,
		3.0, 0.0, 0.0,
		3.5, 0.0, 0.0,
		5.0, 1.0, 0.0,
	})
	return &Geometry{
		Numbers: []int{8, 1, 1, 2, 2, 11},
		Coords:  coords,
	}
}

var testSupported = map[int]int{1: 0, 8: 1}

func TestFilter(Te *testing.T) {
	g := testGeometry()
	f := g.Filter(testSupported)
	wantExcl := []int{3, 4, 5}
	if len(f.Excluded) != len(wantExcl) {
		Te.Fatalf("excluded %v, want %v", f.Excluded, wantExcl)
	}
	for i, v := range wantExcl {
		if f.Excluded[i] != v {
			Te.Fatalf("excluded %v, want %v", f.Excluded, wantExcl)
		}
	}
	if f.Len() != 3 || f.Total() != 6 {
		Te.Errorf("kept %d of %d, want 3 of 6", f.Len(), f.Total())
	}
	wantTypes := []int{1, 0, 0}
	for i, v := range wantTypes {
		if f.Types[i] != v {
			Te.Fatalf("types %v, want %v", f.Types, wantTypes)
		}
	}
	//the surviving coordinates must be the first three rows, in order
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			if f.Coords.At(i, k) != g.Coords.At(i, k) {
				Te.Errorf("filtered coordinates reordered at row %d", i)
			}
		}
	}
}

func TestFilterAllSupported(Te *testing.T) {
	g := &Geometry{
		Numbers: []int{1, 8, 1},
		Coords:  mat.NewDense(3, 3, nil),
	}
	f := g.Filter(testSupported)
	if len(f.Excluded) != 0 {
		Te.Errorf("excluded %v on an all-supported geometry", f.Excluded)
	}
	if f.Len() != 3 {
		Te.Errorf("kept %d atoms, want 3", f.Len())
	}
}

func TestFilterAllExcluded(Te *testing.T) {
	g := &Geometry{
		Numbers: []int{2, 10, 18},
		Coords:  mat.NewDense(3, 3, nil),
	}
	f := g.Filter(testSupported)
	if f.Len() != 0 {
		Te.Fatalf("kept %d atoms of an all-noble-gas geometry", f.Len())
	}
	if f.Coords != nil {
		Te.Errorf("non-nil coordinates for an empty filter result")
	}
	full := f.Reinsert(nil)
	r, c := full.Dims()
	if r != 3 || c != 3 {
		Te.Fatalf("reinserted matrix is %dx%d, want 3x3", r, c)
	}
	for i := 0; i < r; i++ {
		for k := 0; k < 3; k++ {
			if full.At(i, k) != 0 {
				Te.Errorf("nonzero entry in an all-excluded reinsertion")
			}
		}
	}
}

func TestReinsert(Te *testing.T) {
	g := testGeometry()
	f := g.Filter(testSupported)
	kept := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	full := f.Reinsert(kept)
	r, _ := full.Dims()
	if r != 6 {
		Te.Fatalf("reinserted %d rows, want 6", r)
	}
	for _, i := range f.Excluded {
		for k := 0; k < 3; k++ {
			if full.At(i, k) != 0 {
				Te.Errorf("excluded row %d is not zero", i)
			}
		}
	}
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			if full.At(i, k) != kept.At(i, k) {
				Te.Errorf("surviving row %d moved during reinsertion", i)
			}
		}
	}
}
