/*
 * trace.go, part of mopml.
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

//Package trace keeps the corrected energy of every request of a run and can
//plot the series at the end, which is handy for eyeballing whether an
//optimization driven by the external program is actually going downhill.
//It does nothing unless the user asked for it.
package trace

import (
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//Trace accumulates energies. The calculation loop adds from its own
//goroutine while the foreground saves at shutdown, hence the lock.
type Trace struct {
	mu       sync.Mutex
	energies []float64
}

//New returns an empty trace.
func New() *Trace {
	return new(Trace)
}

//Add appends one energy (kcal/mol) to the trace.
func (T *Trace) Add(e float64) {
	T.mu.Lock()
	T.energies = append(T.energies, e)
	T.mu.Unlock()
}

//Len returns the number of energies recorded so far.
func (T *Trace) Len() int {
	T.mu.Lock()
	defer T.mu.Unlock()
	return len(T.energies)
}

//Save writes a line plot of energy against request number to name. The
//format is taken from the extension, as gonum/plot does.
func (T *Trace) Save(name string) error {
	T.mu.Lock()
	defer T.mu.Unlock()
	pts := make(plotter.XYs, len(T.energies))
	for i, e := range T.energies {
		pts[i].X = float64(i + 1)
		pts[i].Y = e
	}
	p := plot.New()
	p.Title.Text = "Corrected energy per request"
	p.X.Label.Text = "Request"
	p.Y.Label.Text = "Energy (kcal/mol)"
	p.Add(plotter.NewGrid())
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)
	return p.Save(15*vg.Centimeter, 10*vg.Centimeter, name)
}
