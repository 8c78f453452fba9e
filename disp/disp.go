/*
 * disp.go, part of mopml.
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

//Package disp implements a pairwise, Grimme-2006-style dispersion correction
//with an analytic gradient. It always sees the full atom list: elements
//missing from the parameter tables contribute nothing, but they are never
//filtered out, unlike in the neural-network term.
package disp

import (
	"fmt"
	"math"

	"github.com/rmera/mopml"
	"gonum.org/v1/gonum/mat"
)

//c6conv takes the tabulated C6 (J nm^6 mol^-1) to Hartree Bohr^6.
const c6conv = 17.3452

//Corrector evaluates the dispersion energy and gradient. Zero value is not
//usable, get one with New. It is stateless between calls, so it can be
//shared freely.
type Corrector struct {
	s6 float64 //global scaling, method dependent
	d  float64 //damping steepness
}

//New returns a Corrector with the standard parametrization for
//semiempirical methods (s6=1.0, d=20).
func New() *Corrector {
	return &Corrector{s6: 1.0, d: 20.0}
}

//Correct returns the dispersion energy (Hartree) and gradient
//(Hartree/Bohr, one row per atom) for the given atomic numbers and
//coordinates (Bohr, one row per atom). It returns an error if two atoms sit
//on top of each other, as the energy diverges there, or if the slice and
//matrix sizes don't match.
func (D *Corrector) Correct(numbers []int, coords *mat.Dense) (float64, *mat.Dense, error) {
	n := len(numbers)
	r, c := coords.Dims()
	if r != n || c != 3 {
		return 0, nil, Error{fmt.Sprintf("%d atoms but a %dx%d coordinate matrix", n, r, c), []string{"Correct"}, true}
	}
	//parameters per atom, zero C6 meaning "not in the tables"
	c6 := make([]float64, n)
	r0 := make([]float64, n)
	for i, z := range numbers {
		ci, okc := mopml.C6(z)
		ri, okr := mopml.R0(z)
		if okc && okr {
			c6[i] = ci * c6conv
			r0[i] = ri * mopml.A2Bohr
		}
	}
	var energy float64
	grad := mat.NewDense(n, 3, nil)
	var dv [3]float64
	for i := 0; i < n; i++ {
		if c6[i] == 0 {
			continue
		}
		for j := i + 1; j < n; j++ {
			if c6[j] == 0 {
				continue
			}
			dv[0] = coords.At(i, 0) - coords.At(j, 0)
			dv[1] = coords.At(i, 1) - coords.At(j, 1)
			dv[2] = coords.At(i, 2) - coords.At(j, 2)
			dist := math.Sqrt(dv[0]*dv[0] + dv[1]*dv[1] + dv[2]*dv[2])
			if dist < 1e-6 {
				return 0, nil, Error{fmt.Sprintf("atoms %d and %d are on top of each other", i, j), []string{"Correct"}, true}
			}
			cij := math.Sqrt(c6[i] * c6[j])
			rr := r0[i] + r0[j]
			//Fermi-type damping: f = 1/(1+exp(-d(dist/rr - 1)))
			ex := math.Exp(-D.d * (dist/rr - 1))
			f := 1 / (1 + ex)
			r6 := math.Pow(dist, 6)
			energy -= D.s6 * cij / r6 * f
			//de/ddist, then project on the pair vector
			dfdr := f * f * ex * D.d / rr
			dedr := -D.s6 * cij * (-6*f/(r6*dist) + dfdr/r6)
			for k := 0; k < 3; k++ {
				g := dedr * dv[k] / dist
				grad.Set(i, k, grad.At(i, k)+g)
				grad.Set(j, k, grad.At(j, k)-g)
			}
		}
	}
	return energy, grad, nil
}

//Errors

//Error is the dispersion error type. It fulfills mopml.Error.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("dispersion error: %s", err.message)
}

//Decorate adds new information to the error
func (E Error) Decorate(deco string) []string {
	//Even though this method does not use a pointer as a receiver, and tries to alter the receiver,
	//it should work, since E.deco is a slice, and hence a pointer itself.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }
