/*
 * conversion.go, part of mopml.
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

//This provides useful conversion factors and other constants.
//The external program works in kcal/mol and Angstrom, the dispersion
//model in Hartree and Bohr, and the neural network in eV and Angstrom,
//so everybody meets here.

//Conversions
const (
	H2Kcal  = 627.509 //Hartree 2 Kcal/mol
	Kcal2H  = 1 / 627.509
	EV2Kcal = 23.060548 //electron-volt 2 Kcal/mol
	Kcal2EV = 1 / 23.060548
	H2EV    = 27.211386
	A2Bohr  = 1.889725989
	Bohr2A  = 1 / 1.889725989
)
