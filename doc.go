/*
 * doc.go, part of mopml.
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

/*Package mopml contains the shared pieces of the mopml program, a broker that
serves machine-learning corrections to an external semiempirical quantum
chemistry code over a pair of named pipes.

The external program writes a geometry to one pipe and reads the corrected
energy (and, if it asked for it, the gradient) from the other. The correction
is the sum of two independent terms: a pairwise dispersion model (package
disp) and a neural-network atomic energy model (package model). Package pipe
implements the wire protocol, package calc runs the request loop, and
cmd/mopml ties everything to the lifetime of the external process.

This root package holds what everything else shares: unit-conversion
constants, per-element data, the Geometry type with its element filtering,
the keyword check for the external program's input file, and the Error
interface that the subpackage error types implement.
*/
package mopml
