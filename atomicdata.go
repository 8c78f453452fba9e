/*
 * atomicdata.go, part of mopml.
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

import "strconv"

//Per-element data tables. Unlike goChem, everything here is keyed by
//atomic number, since that is what comes down the pipe.

//A map for assigning a symbol to each atomic number, only used to keep the
//logs readable. Just common "organic" elements plus the noble gases are present.
var numberSymbol = map[int]string{
	1:  "H",
	2:  "He",
	3:  "Li",
	4:  "Be",
	5:  "B",
	6:  "C",
	7:  "N",
	8:  "O",
	9:  "F",
	10: "Ne",
	11: "Na",
	12: "Mg",
	13: "Al",
	14: "Si",
	15: "P",
	16: "S",
	17: "Cl",
	18: "Ar",
	19: "K",
	20: "Ca",
	35: "Br",
	53: "I",
}

//Symbol returns the symbol for the element with atomic number z, or
//the number itself printed as text, if the element is not in the table.
func Symbol(z int) string {
	s, ok := numberSymbol[z]
	if !ok {
		return "Z" + strconv.Itoa(z)
	}
	return s
}

//A map for assigning C6 dispersion coefficients to elements.
//Values from Grimme 2006 (DOI:10.1002/jcc.20495), in J nm^6 mol^-1.
//Note that just common "organic" elements are present. Elements absent
//from this table simply don't contribute dispersion.
var numberC6 = map[int]float64{
	1:  0.14,
	2:  0.08,
	3:  1.61,
	4:  1.61,
	5:  3.13,
	6:  1.75,
	7:  1.23,
	8:  0.70,
	9:  0.75,
	10: 0.63,
	11: 5.71,
	12: 5.71,
	13: 10.79,
	14: 9.23,
	15: 7.84,
	16: 5.57,
	17: 5.07,
	18: 4.61,
	19: 10.80,
	20: 10.80,
	35: 12.47,
	53: 31.50,
}

//A map for assigning van der Waals radii to elements, for the dispersion
//damping function. Values from the same Grimme 2006 paper, in Angstrom.
var numberR0 = map[int]float64{
	1:  1.001,
	2:  1.012,
	3:  0.825,
	4:  1.408,
	5:  1.485,
	6:  1.452,
	7:  1.397,
	8:  1.342,
	9:  1.287,
	10: 1.243,
	11: 1.144,
	12: 1.364,
	13: 1.639,
	14: 1.716,
	15: 1.705,
	16: 1.683,
	17: 1.639,
	18: 1.595,
	19: 1.485,
	20: 1.474,
	35: 1.749,
	53: 1.892,
}

//C6 returns the C6 dispersion coefficient (J nm^6 mol^-1) for the element
//with atomic number z. The second return is false if the element has no entry.
func C6(z int) (float64, bool) {
	c, ok := numberC6[z]
	return c, ok
}

//R0 returns the van der Waals radius (Angstrom) used by the dispersion
//damping function for the element with atomic number z. The second return
//is false if the element has no entry.
func R0(z int) (float64, bool) {
	r, ok := numberR0[z]
	return r, ok
}
