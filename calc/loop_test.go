/*
 * loop_test.go, part of mopml.
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

package calc

import (
	"errors"
	"math"
	"testing"

	"github.com/rmera/mopml"
	"github.com/rmera/mopml/disp"
	"github.com/rmera/mopml/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var errDrained = errors.New("out of requests")

//fakeProto feeds the loop from a slice and records the replies, standing in
//for the two fifos.
type fakeProto struct {
	reqs     []*mopml.Geometry
	energies []float64
	grads    []*mat.Dense
}

func (f *fakeProto) Next() (*mopml.Geometry, error) {
	if len(f.reqs) == 0 {
		return nil, errDrained
	}
	g := f.reqs[0]
	f.reqs = f.reqs[1:]
	return g, nil
}

func (f *fakeProto) Reply(e float64, g *mat.Dense) error {
	f.energies = append(f.energies, e)
	f.grads = append(f.grads, g)
	return nil
}

func testModel(t *testing.T) *model.M {
	t.Helper()
	nin := 2 * 1 * 4
	net := func(seed float64) model.Net {
		w0 := make([]float64, 6*nin)
		for i := range w0 {
			w0[i] = 0.25 * math.Sin(seed+float64(i))
		}
		b0 := make([]float64, 6)
		w1 := make([]float64, 6)
		for i := range w1 {
			w1[i] = 0.2 * math.Cos(seed+float64(i))
		}
		return model.Net{
			W: []model.Tensor{
				{Rows: 6, Cols: nin, Data: w0},
				{Rows: 1, Cols: 6, Data: w1},
			},
			B: [][]float64{b0, {0.0}},
		}
	}
	m, err := model.New(&model.Checkpoint{
		Elements: map[int]int{1: 0, 6: 1},
		Cutoff:   4.5,
		EtaR:     []float64{5.0},
		ShiftR:   []float64{0.6, 1.2, 1.8, 2.4},
		Self:     []float64{-13.6, -1030.0},
		Nets:     []model.Net{net(0.3), net(2.1)},
	})
	require.NoError(t, err)
	return m
}

func testLoop(t *testing.T, p Protocol) *Loop {
	t.Helper()
	return New(p, &Options{
		Disp:  disp.New(),
		Model: testModel(t),
		Log:   zerolog.Nop(),
	})
}

func methane() *mopml.Geometry {
	return &mopml.Geometry{
		Numbers: []int{6, 1, 1, 1, 1},
		Coords: mat.NewDense(5, 3, []float64{
			0.000, 0.000, 0.000,
			0.629, 0.629, 0.629,
			-0.629, -0.629, 0.629,
			0.629, -0.629, -0.629,
			-0.629, 0.629, -0.629,
		}),
		WantGradient: true,
	}
}

//TestCombination checks the numbers the loop sends against the two terms
//computed by hand, unit conversions and the force sign flip included.
func TestCombination(t *testing.T) {
	g := methane()
	p := &fakeProto{reqs: []*mopml.Geometry{g}}
	L := testLoop(t, p)
	err := L.Run()
	require.ErrorIs(t, err, errDrained, "the loop must only stop when the protocol does")
	require.Len(t, p.energies, 1)

	//the same terms, by hand
	m := testModel(t)
	D := disp.New()
	n := g.Len()
	bohr := mat.NewDense(n, 3, nil)
	bohr.Scale(mopml.A2Bohr, g.Coords)
	edisp, gdisp, err := D.Correct(g.Numbers, bohr)
	require.NoError(t, err)
	f := g.Filter(m.Elements())
	require.Empty(t, f.Excluded, "methane is fully supported")
	eml, fml, err := m.Evaluate(f.Types, f.Coords)
	require.NoError(t, err)

	assert.Equal(t, eml*mopml.EV2Kcal+edisp*mopml.H2Kcal, p.energies[0])
	grad := p.grads[0]
	require.NotNil(t, grad)
	rows, cols := grad.Dims()
	require.Equal(t, n, rows)
	require.Equal(t, 3, cols)
	for i := 0; i < n; i++ {
		for k := 0; k < 3; k++ {
			want := -fml.At(i, k)*mopml.EV2Kcal + gdisp.At(i, k)*mopml.H2Kcal*mopml.A2Bohr
			assert.Equal(t, want, grad.At(i, k))
		}
	}
}

//TestIdempotence: the same geometry twice gives bit-for-bit the same answer.
func TestIdempotence(t *testing.T) {
	p := &fakeProto{reqs: []*mopml.Geometry{methane(), methane()}}
	L := testLoop(t, p)
	require.ErrorIs(t, L.Run(), errDrained)
	require.Len(t, p.energies, 2)
	assert.Equal(t, p.energies[0], p.energies[1])
	assert.True(t, mat.Equal(p.grads[0], p.grads[1]))
}

//TestAllExcluded: a geometry the model knows nothing about gets a pure
//dispersion answer, with the ML term contributing exactly zero.
func TestAllExcluded(t *testing.T) {
	g := &mopml.Geometry{
		Numbers: []int{2, 10, 2}, //helium and neon only
		Coords: mat.NewDense(3, 3, []float64{
			0, 0, 0,
			0, 0, 3.1,
			0, 3.0, 0.2,
		}),
		WantGradient: true,
	}
	p := &fakeProto{reqs: []*mopml.Geometry{g}}
	L := testLoop(t, p)
	require.ErrorIs(t, L.Run(), errDrained)
	require.Len(t, p.energies, 1)

	D := disp.New()
	bohr := mat.NewDense(3, 3, nil)
	bohr.Scale(mopml.A2Bohr, g.Coords)
	edisp, gdisp, err := D.Correct(g.Numbers, bohr)
	require.NoError(t, err)
	assert.Equal(t, edisp*mopml.H2Kcal, p.energies[0])
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			assert.Equal(t, gdisp.At(i, k)*mopml.H2Kcal*mopml.A2Bohr, p.grads[0].At(i, k))
		}
	}
}

//TestEnergyOnly: the spec'd minimal exchange, one C and one H with an "E"
//terminator, must produce an energy and no gradient.
func TestEnergyOnly(t *testing.T) {
	g := &mopml.Geometry{
		Numbers: []int{6, 1},
		Coords: mat.NewDense(2, 3, []float64{
			0, 0, 0,
			0, 0, 1.0,
		}),
	}
	p := &fakeProto{reqs: []*mopml.Geometry{g}}
	L := testLoop(t, p)
	require.ErrorIs(t, L.Run(), errDrained)
	require.Len(t, p.energies, 1)
	assert.False(t, math.IsNaN(p.energies[0]))
	assert.Nil(t, p.grads[0], "no gradient was requested")
}

//TestPartialExclusion: a mixed geometry keeps its unsupported atom as a
//zero row in the ML part of the gradient.
func TestPartialExclusion(t *testing.T) {
	g := &mopml.Geometry{
		Numbers: []int{6, 2, 1}, //the helium in the middle is unsupported
		Coords: mat.NewDense(3, 3, []float64{
			0, 0, 0,
			0, 2.5, 0,
			0, 0, 1.1,
		}),
		WantGradient: true,
	}
	p := &fakeProto{reqs: []*mopml.Geometry{g}}
	L := testLoop(t, p)
	require.ErrorIs(t, L.Run(), errDrained)

	//the helium row must be dispersion-only
	D := disp.New()
	bohr := mat.NewDense(3, 3, nil)
	bohr.Scale(mopml.A2Bohr, g.Coords)
	_, gdisp, err := D.Correct(g.Numbers, bohr)
	require.NoError(t, err)
	for k := 0; k < 3; k++ {
		assert.Equal(t, gdisp.At(1, k)*mopml.H2Kcal*mopml.A2Bohr, p.grads[0].At(1, k))
	}
	rows, _ := p.grads[0].Dims()
	assert.Equal(t, 3, rows, "gradient rows must match the original atom count")
}
