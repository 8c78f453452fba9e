/*
 * loop.go, part of mopml.
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

//Package calc runs the correction loop: wait for a geometry on the pipe,
//combine the dispersion and neural-network terms, answer, repeat. The loop
//has no terminal state of its own. It runs until the process goes away with
//the external program, or until something unrecoverable happens in a cycle,
//in which case the error is handed to the caller and the whole run dies:
//there is no partial result worth sending to a process we can no longer
//stay in sync with.
package calc

import (
	"github.com/rmera/mopml"
	"github.com/rmera/mopml/disp"
	"github.com/rmera/mopml/model"
	"github.com/rmera/mopml/trace"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

//Protocol is what the loop needs from the wire. pipe.Engine implements it;
//tests implement it over slices.
type Protocol interface {
	//Next blocks until a complete request is available.
	Next() (*mopml.Geometry, error)

	//Reply sends one result back. grad is nil when only the energy
	//was requested.
	Reply(energy float64, grad *mat.Dense) error
}

//Options collects everything a Loop depends on. It is read once by New and
//never again: the loop carries no ambient state, everything it touches came
//in here.
type Options struct {
	Disp  *disp.Corrector
	Model *model.M
	Trace *trace.Trace //may be nil
	Log   zerolog.Logger
}

//Loop is the calculation loop. Run it in its own goroutine; it talks to the
//rest of the program only through the Protocol (i.e. through the pipes) and
//through the optional trace.
type Loop struct {
	proto    Protocol
	disp     *disp.Corrector
	model    *model.M
	elements map[int]int
	tr       *trace.Trace
	log      zerolog.Logger
}

//New returns a Loop over the given protocol and options.
func New(p Protocol, o *Options) *Loop {
	return &Loop{
		proto:    p,
		disp:     o.Disp,
		model:    o.Model,
		elements: o.Model.Elements(),
		tr:       o.Trace,
		log:      o.Log,
	}
}

//Run serves requests until an error comes up. It never returns nil.
func (L *Loop) Run() error {
	for {
		g, err := L.proto.Next()
		if err != nil {
			return err
		}
		energy, grad, err := L.Correct(g)
		if err != nil {
			return err
		}
		if err := L.proto.Reply(energy, grad); err != nil {
			return err
		}
	}
}

//Correct computes the combined correction for one geometry: energy in
//kcal/mol, and, if the request asked for it, the gradient in kcal/mol per
//Angstrom with one row per atom of the original geometry (nil otherwise).
//The same geometry always produces the identical result; nothing is kept
//between calls.
func (L *Loop) Correct(g *mopml.Geometry) (float64, *mat.Dense, error) {
	n := g.Len()
	//The dispersion term sees the full, unfiltered atom list.
	bohr := mat.NewDense(n, 3, nil)
	bohr.Scale(mopml.A2Bohr, g.Coords)
	edisp, gdisp, err := L.disp.Correct(g.Numbers, bohr)
	if err != nil {
		return 0, nil, err
	}
	f := g.Filter(L.elements)
	var eml float64
	var fml *mat.Dense
	if f.Len() > 0 {
		eml, fml, err = L.model.Evaluate(f.Types, f.Coords)
		if err != nil {
			return 0, nil, err
		}
	}
	energy := eml*mopml.EV2Kcal + edisp*mopml.H2Kcal
	var grad *mat.Dense
	if g.WantGradient {
		full := f.Reinsert(fml) //zero force rows at the excluded positions
		grad = mat.NewDense(n, 3, nil)
		for i := 0; i < n; i++ {
			for k := 0; k < 3; k++ {
				//the network reports forces, the wire wants a gradient,
				//hence the sign flip on the ML term only
				v := -full.At(i, k)*mopml.EV2Kcal + gdisp.At(i, k)*mopml.H2Kcal*mopml.A2Bohr
				grad.Set(i, k, v)
			}
		}
	}
	if len(f.Excluded) > 0 {
		syms := make([]string, len(f.Excluded))
		for i, idx := range f.Excluded {
			syms[i] = mopml.Symbol(g.Numbers[idx])
		}
		L.log.Debug().Strs("excluded", syms).Msg("atoms outside the model's element set, dispersion only")
	}
	L.log.Debug().Int("atoms", n).Int("excluded", len(f.Excluded)).
		Float64("eml_ev", eml).Float64("edisp_hartree", edisp).
		Bool("gradient", g.WantGradient).Msg("request served")
	if L.tr != nil {
		L.tr.Add(energy)
	}
	return energy, grad, nil
}
