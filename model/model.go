/*
 * model.go, part of mopml.
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

//Package model evaluates the neural-network part of the correction: a
//Behler-Parrinello-style sum of atomic energies, each predicted from radial
//symmetry functions of the atom's environment by a small per-element
//feed-forward network. Forces come from analytic differentiation, first
//through the network, then through the symmetry functions.
//
//The model only knows the elements listed in its checkpoint. Filtering
//unsupported atoms out (and putting their zero forces back in) is the
//caller's job, via mopml.Geometry.Filter.
package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

//M is a loaded model, bound to the CPU. It is immutable after New, so a
//single M is safe to use from any number of goroutines. Native units are
//eV for energies, Angstrom for positions and eV/Angstrom for forces.
type M struct {
	elements map[int]int
	cutoff   float64
	etaR     []float64
	shiftR   []float64
	self     []float64
	nets     []network
	ntypes   int
	dlen     int //descriptor length: ntypes*len(etaR)*len(shiftR)
}

type network struct {
	w []*mat.Dense
	b []*mat.VecDense
}

//New builds a model from a checkpoint, validating that every piece has a
//consistent shape. The checkpoint is copied into gonum types, so the caller
//may discard or reuse it afterwards.
func New(c *Checkpoint) (*M, error) {
	if c.Cutoff <= 0 || len(c.EtaR) == 0 || len(c.ShiftR) == 0 {
		return nil, Error{BadDescriptor, "", []string{"New"}, true}
	}
	ntypes := len(c.Nets)
	if ntypes == 0 || len(c.Self) != ntypes {
		return nil, Error{fmt.Sprintf("%d networks but %d self energies", ntypes, len(c.Self)), "", []string{"New"}, true}
	}
	for z, t := range c.Elements {
		if t < 0 || t >= ntypes {
			return nil, Error{fmt.Sprintf("element %d mapped to type %d, but the model has %d types", z, t, ntypes), "", []string{"New"}, true}
		}
	}
	m := &M{
		elements: make(map[int]int, len(c.Elements)),
		cutoff:   c.Cutoff,
		etaR:     append([]float64{}, c.EtaR...),
		shiftR:   append([]float64{}, c.ShiftR...),
		self:     append([]float64{}, c.Self...),
		ntypes:   ntypes,
		dlen:     ntypes * len(c.EtaR) * len(c.ShiftR),
	}
	for z, t := range c.Elements {
		m.elements[z] = t
	}
	m.nets = make([]network, ntypes)
	for t, n := range c.Nets {
		if len(n.W) == 0 || len(n.W) != len(n.B) {
			return nil, Error{WrongShape, "", []string{"New"}, true}
		}
		prev := m.dlen
		net := network{}
		for l, w := range n.W {
			if w.Cols != prev || w.Rows*w.Cols != len(w.Data) || w.Rows != len(n.B[l]) {
				return nil, Error{fmt.Sprintf("%s (type %d, layer %d)", WrongShape, t, l), "", []string{"New"}, true}
			}
			net.w = append(net.w, mat.NewDense(w.Rows, w.Cols, append([]float64{}, w.Data...)))
			net.b = append(net.b, mat.NewVecDense(w.Rows, append([]float64{}, n.B[l]...)))
			prev = w.Rows
		}
		if prev != 1 {
			return nil, Error{fmt.Sprintf("type %d network ends in %d outputs, wanted 1", t, prev), "", []string{"New"}, true}
		}
		m.nets[t] = net
	}
	return m, nil
}

//Elements returns the atomic number to type index mapping of the model.
//The returned map is a copy; M stays immutable no matter what the caller
//does with it.
func (m *M) Elements() map[int]int {
	e := make(map[int]int, len(m.elements))
	for z, t := range m.elements {
		e[z] = t
	}
	return e
}

//Cutoff returns the radial cutoff of the model, in Angstrom.
func (m *M) Cutoff() float64 {
	return m.cutoff
}

//channel returns the descriptor index for a neighbor of type t seen through
//the radial function (e,s).
func (m *M) channel(t, e, s int) int {
	return (t*len(m.etaR)+e)*len(m.shiftR) + s
}

//Evaluate returns the total energy (eV) and per-atom forces (eV/Angstrom,
//one row per atom) for a system of atoms given by their model type indices
//and positions (Angstrom, one row per atom). An empty system returns zero
//energy and nil forces. Any non-finite result is an error: the caller has
//nothing sensible to send back to the pipe in that case.
func (m *M) Evaluate(types []int, coords *mat.Dense) (float64, *mat.Dense, error) {
	n := len(types)
	if n == 0 {
		return 0, nil, nil
	}
	r, c := coords.Dims()
	if r != n || c != 3 {
		return 0, nil, Error{WrongAtomCount, "", []string{"Evaluate"}, true}
	}
	for _, t := range types {
		if t < 0 || t >= m.ntypes {
			return 0, nil, Error{NotInRange, "", []string{"Evaluate"}, true}
		}
	}
	desc := m.descriptors(types, coords)
	energy := 0.0
	dEdG := make([][]float64, n)
	for i := 0; i < n; i++ {
		e, g := m.nets[types[i]].eval(desc[i])
		energy += m.self[types[i]] + e
		dEdG[i] = g
	}
	forces := m.forces(types, coords, dEdG)
	if math.IsNaN(energy) || math.IsInf(energy, 0) {
		return 0, nil, Error{NotANumber, "", []string{"Evaluate"}, true}
	}
	return energy, forces, nil
}

//cutoffFn is the usual smooth radial cutoff, 0.5(cos(pi r/rc)+1) inside rc,
//0 outside, and its derivative.
func (m *M) cutoffFn(r float64) (fc, dfc float64) {
	if r >= m.cutoff {
		return 0, 0
	}
	x := math.Pi * r / m.cutoff
	fc = 0.5 * (math.Cos(x) + 1)
	dfc = -0.5 * math.Pi / m.cutoff * math.Sin(x)
	return fc, dfc
}

//descriptors builds the radial symmetry function vector of every atom.
func (m *M) descriptors(types []int, coords *mat.Dense) [][]float64 {
	n := len(types)
	desc := make([][]float64, n)
	for i := range desc {
		desc[i] = make([]float64, m.dlen)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := pairDist(coords, i, j)
			fc, _ := m.cutoffFn(r)
			if fc == 0 {
				continue
			}
			for e, eta := range m.etaR {
				for s, shift := range m.shiftR {
					u := math.Exp(-eta*(r-shift)*(r-shift)) * fc
					desc[i][m.channel(types[j], e, s)] += u
					desc[j][m.channel(types[i], e, s)] += u
				}
			}
		}
	}
	return desc
}

//forces accumulates -dE/dr from the per-atom dE/dG vectors by walking the
//pairs a second time and differentiating the symmetry functions.
func (m *M) forces(types []int, coords *mat.Dense, dEdG [][]float64) *mat.Dense {
	n := len(types)
	forces := mat.NewDense(n, 3, nil)
	var dv [3]float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dv[0] = coords.At(i, 0) - coords.At(j, 0)
			dv[1] = coords.At(i, 1) - coords.At(j, 1)
			dv[2] = coords.At(i, 2) - coords.At(j, 2)
			r := math.Sqrt(dv[0]*dv[0] + dv[1]*dv[1] + dv[2]*dv[2])
			fc, dfc := m.cutoffFn(r)
			if fc == 0 {
				continue
			}
			var dEdr float64
			for e, eta := range m.etaR {
				for s, shift := range m.shiftR {
					gauss := math.Exp(-eta * (r - shift) * (r - shift))
					dudr := gauss * (-2*eta*(r-shift)*fc + dfc)
					dEdr += dEdG[i][m.channel(types[j], e, s)] * dudr
					dEdr += dEdG[j][m.channel(types[i], e, s)] * dudr
				}
			}
			for k := 0; k < 3; k++ {
				//dr/dx_i = dv/r; force is minus the gradient
				g := dEdr * dv[k] / r
				forces.Set(i, k, forces.At(i, k)-g)
				forces.Set(j, k, forces.At(j, k)+g)
			}
		}
	}
	return forces
}

//eval runs one descriptor through the network and returns the atomic energy
//together with dE/dG, from a reverse pass over the cached activations.
func (N *network) eval(g []float64) (float64, []float64) {
	last := len(N.w) - 1
	acts := make([]*mat.VecDense, 0, len(N.w))
	a := mat.NewVecDense(len(g), append([]float64{}, g...))
	acts = append(acts, a)
	for l := 0; l < last; l++ {
		z := mat.NewVecDense(N.w[l].RawMatrix().Rows, nil)
		z.MulVec(N.w[l], a)
		z.AddVec(z, N.b[l])
		for i := 0; i < z.Len(); i++ {
			z.SetVec(i, math.Tanh(z.AtVec(i)))
		}
		acts = append(acts, z)
		a = z
	}
	out := mat.NewVecDense(1, nil)
	out.MulVec(N.w[last], a)
	energy := out.AtVec(0) + N.b[last].AtVec(0)
	//backward pass: start from the linear output layer
	grad := mat.VecDenseCopyOf(N.w[last].RowView(0))
	for l := last - 1; l >= 0; l-- {
		a := acts[l+1]
		dz := mat.NewVecDense(a.Len(), nil)
		for i := 0; i < a.Len(); i++ {
			t := a.AtVec(i)
			dz.SetVec(i, grad.AtVec(i)*(1-t*t)) //tanh'
		}
		prev := mat.NewVecDense(N.w[l].RawMatrix().Cols, nil)
		prev.MulVec(N.w[l].T(), dz)
		grad = prev
	}
	return energy, grad.RawVector().Data
}

//pairDist is the distance between rows i and j of coords.
func pairDist(coords *mat.Dense, i, j int) float64 {
	dx := coords.At(i, 0) - coords.At(j, 0)
	dy := coords.At(i, 1) - coords.At(j, 1)
	dz := coords.At(i, 2) - coords.At(j, 2)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
