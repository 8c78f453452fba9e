/*
 * checkpoint.go, part of mopml.
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

package model

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
)

//The on-disk format is a zstd stream over a gob of the Checkpoint struct.
//Everything the model needs at runtime is in the file, including which
//elements it supports, so adding an element to a model never touches this
//program, only the checkpoint.

//Tensor is a dense row-major matrix as stored in a checkpoint.
type Tensor struct {
	Rows, Cols int
	Data       []float64
}

//Net holds the parameters of one per-element network: weights and biases
//for each layer, first to last. All hidden layers use tanh, the last layer
//is linear and must have a single output.
type Net struct {
	W []Tensor
	B [][]float64
}

//Checkpoint is the serialized form of a model. Descriptor lengths are
//implied: one channel per (neighbor type, EtaR value, ShiftR value).
type Checkpoint struct {
	Elements map[int]int //atomic number -> type index, contiguous from 0
	Cutoff   float64     //Angstrom
	EtaR     []float64   //1/Angstrom^2
	ShiftR   []float64   //Angstrom
	Self     []float64   //per-type atomic self energy, eV
	Nets     []Net       //indexed by type
}

//Write serializes the checkpoint to the given path.
func (C *Checkpoint) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return Error{UnableToOpen, path, []string{"Write"}, true}
	}
	defer f.Close()
	zw, err := zstd.NewWriter(f)
	if err != nil {
		return Error{err.Error(), path, []string{"zstd.NewWriter", "Write"}, true}
	}
	if err := gob.NewEncoder(zw).Encode(C); err != nil {
		zw.Close()
		return Error{err.Error(), path, []string{"gob.Encode", "Write"}, true}
	}
	return zw.Close()
}

//Load reads a checkpoint from path and builds the ready-to-evaluate model.
func Load(path string) (*M, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Error{UnableToOpen, path, []string{"Load"}, true}
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, Error{err.Error(), path, []string{"zstd.NewReader", "Load"}, true}
	}
	defer zr.Close()
	c := new(Checkpoint)
	if err := gob.NewDecoder(zr).Decode(c); err != nil {
		return nil, Error{err.Error(), path, []string{"gob.Decode", "Load"}, true}
	}
	m, err := New(c)
	if err != nil {
		return nil, errDecorate(err, "Load: "+path)
	}
	return m, nil
}

//Errors

//errDecorate is a helper that asserts that the error is a model Error
//and decorates it with the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2 := err.(Error) //I know that is the type returned by New
	err2.Decorate(caller)
	return err2
}

//Error is the general structure for model errors. It fulfills mopml.Error.
type Error struct {
	message  string
	filename string //the checkpoint with problems, or empty if none
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.filename == "" {
		return fmt.Sprintf("model error: %s", err.message)
	}
	return fmt.Sprintf("model %s error: %s", err.filename, err.message)
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

//FileName returns the checkpoint file associated to the error, if any
func (err Error) FileName() string { return err.filename }

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	UnableToOpen   = "Unable to open file"
	WrongShape     = "Network layer shapes don't chain"
	NotInRange     = "Atom type out of range for this model"
	BadDescriptor  = "Descriptor parameters empty or inconsistent"
	NotANumber     = "Evaluation produced NaN or Inf"
	WrongAtomCount = "Types and coordinates disagree on the atom count"
)
