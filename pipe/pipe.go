/*
 * pipe.go, part of mopml.
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

//Package pipe implements the wire protocol between this program and the
//external semiempirical code: two POSIX named pipes in the working
//directory, carrying newline-delimited text. A request is a count line, one
//"Z x y z" line per atom, and a terminator ("E" for energy only, "G" for
//energy and gradient). A response is one energy line, then one gradient
//line per atom if the gradient was asked for.
//
//Parsing is strict on purpose. The two processes have no way to
//resynchronize mid-stream, so a malformed request is fatal for the run.
package pipe

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rmera/mopml"
	"golang.org/x/sys/unix"
	"gonum.org/v1/gonum/mat"
)

//The fifo names are fixed; they are part of the contract with the patched
//external program, which has them hardcoded too.
const (
	InName  = "mopml.in"  //requests, written by the external program
	OutName = "mopml.out" //responses, read by the external program
)

//Pair is the two named pipes of one run. Their filesystem lifetime is tied
//to the run: NewPair creates them, Remove unlinks them, and whoever owns the
//Pair must make sure Remove happens on every exit path.
type Pair struct {
	in  string
	out string
}

//NewPair creates both fifos in dir. If the second one can't be created the
//first is removed again, so a failed NewPair leaves nothing behind.
func NewPair(dir string) (*Pair, error) {
	P := &Pair{in: filepath.Join(dir, InName), out: filepath.Join(dir, OutName)}
	if err := unix.Mkfifo(P.in, 0644); err != nil {
		return nil, Error{fmt.Sprintf("%s: %v", UnableToCreate, err), P.in, []string{"NewPair"}, true}
	}
	if err := unix.Mkfifo(P.out, 0644); err != nil {
		os.Remove(P.in)
		return nil, Error{fmt.Sprintf("%s: %v", UnableToCreate, err), P.out, []string{"NewPair"}, true}
	}
	return P, nil
}

//Remove unlinks both fifos. It is safe to call it on a pair that was
//already removed, so it can sit in both the normal and the signal exit path.
func (P *Pair) Remove() {
	os.Remove(P.in)
	os.Remove(P.out)
}

//InPath returns the path of the request fifo.
func (P *Pair) InPath() string { return P.in }

//OutPath returns the path of the response fifo.
func (P *Pair) OutPath() string { return P.out }

//Engine serves the protocol over a Pair. The fifos are opened per message,
//not held across a request/response cycle: opening the request fifo is what
//blocks until the external program has something to say.
type Engine struct {
	p *Pair
}

//NewEngine returns an Engine over the given pair.
func NewEngine(p *Pair) *Engine {
	return &Engine{p: p}
}

//Next blocks until the external program writes a complete request to the
//request fifo, and returns it parsed. Any protocol violation is an Error,
//and the caller is expected to terminate the whole run on it.
func (E *Engine) Next() (*mopml.Geometry, error) {
	f, err := os.Open(E.p.in) //blocks until the writer end opens
	if err != nil {
		return nil, Error{err.Error(), E.p.in, []string{"Next"}, true}
	}
	defer f.Close()
	g, err := ReadRequest(f)
	if err != nil {
		return nil, errDecorate(err, "Next: "+E.p.in)
	}
	return g, nil
}

//Reply writes one response to the response fifo. grad may be nil, meaning
//the request asked for the energy only.
func (E *Engine) Reply(energy float64, grad *mat.Dense) error {
	f, err := os.OpenFile(E.p.out, os.O_WRONLY, 0) //blocks until the reader end opens
	if err != nil {
		return Error{err.Error(), E.p.out, []string{"Reply"}, true}
	}
	defer f.Close()
	if err := WriteResult(f, energy, grad); err != nil {
		return errDecorate(err, "Reply: "+E.p.out)
	}
	return nil
}

//ReadRequest parses exactly one request from r. Empty lines are skipped;
//everything else about the grammar is enforced strictly: an integer count
//N>=1, N coordinate lines of four fields, then "E" or "G".
func ReadRequest(r io.Reader) (*mopml.Geometry, error) {
	br := bufio.NewReader(r)
	line, err := nextLine(br)
	if err != nil {
		return nil, Error{"stream ended before the request header", "", []string{"ReadRequest"}, true}
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 {
		return nil, Error{fmt.Sprintf("%s: %q", BadHeader, line), "", []string{"ReadRequest"}, true}
	}
	numbers := make([]int, 0, n)
	coords := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		line, err = nextLine(br)
		if err != nil {
			return nil, Error{fmt.Sprintf("stream ended after %d of %d coordinate lines", i, n), "", []string{"ReadRequest"}, true}
		}
		if line == "E" || line == "G" {
			return nil, Error{fmt.Sprintf("%s: header declared %d atoms but the terminator %q came after %d", CountMismatch, n, line, i), "", []string{"ReadRequest"}, true}
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, Error{fmt.Sprintf("%s: %q", BadCoordLine, line), "", []string{"ReadRequest"}, true}
		}
		z, err := strconv.Atoi(fields[0])
		if err != nil || z < 1 {
			return nil, Error{fmt.Sprintf("%s: %q", BadCoordLine, line), "", []string{"ReadRequest"}, true}
		}
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[k+1], 64)
			if err != nil {
				return nil, Error{fmt.Sprintf("%s: %q", BadCoordLine, line), "", []string{"ReadRequest"}, true}
			}
			coords.Set(i, k, v)
		}
		numbers = append(numbers, z)
	}
	line, err = nextLine(br)
	if err != nil {
		return nil, Error{"stream ended before the terminator", "", []string{"ReadRequest"}, true}
	}
	var wantGrad bool
	switch line {
	case "E":
		wantGrad = false
	case "G":
		wantGrad = true
	default:
		//a coordinate-looking line here means the header undercounted
		return nil, Error{fmt.Sprintf("%s: %q", BadTerminator, line), "", []string{"ReadRequest"}, true}
	}
	return &mopml.Geometry{Numbers: numbers, Coords: coords, WantGradient: wantGrad}, nil
}

//WriteResult writes one response to w: the energy line, then, if grad is
//not nil, one line per atom with the three gradient components.
func WriteResult(w io.Writer, energy float64, grad *mat.Dense) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%.12f\n", energy)
	if grad != nil {
		rows, _ := grad.Dims()
		for i := 0; i < rows; i++ {
			fmt.Fprintf(bw, "%20.12f %20.12f %20.12f\n", grad.At(i, 0), grad.At(i, 1), grad.At(i, 2))
		}
	}
	if err := bw.Flush(); err != nil {
		return Error{err.Error(), "", []string{"WriteResult"}, true}
	}
	return nil
}

//nextLine returns the next non-empty line of br, trimmed, or the read error
//once no non-empty line remains.
func nextLine(br *bufio.Reader) (string, error) {
	for {
		line, err := br.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed, nil
		}
		if err != nil {
			return "", err
		}
	}
}

//Errors

//errDecorate is a helper that asserts that the error is a pipe Error
//and decorates it with the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2 := err.(Error) //I know that is the type returned by ReadRequest and WriteResult
	err2.Decorate(caller)
	return err2
}

//Error is the general structure for protocol errors. It fulfills
//mopml.Error and mopml.ProtocolError.
type Error struct {
	message  string
	filename string //the fifo involved, or empty for a pure parsing error
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.filename == "" {
		return fmt.Sprintf("pipe protocol error: %s", err.message)
	}
	return fmt.Sprintf("pipe %s error: %s", err.filename, err.message)
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

//FileName returns the fifo associated to the error, if any
func (err Error) FileName() string { return err.filename }

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	UnableToCreate = "Unable to create the named pipe"
	BadHeader      = "Malformed atom-count header"
	BadCoordLine   = "Malformed coordinate line"
	BadTerminator  = "Unrecognized terminator"
	CountMismatch  = "Atom count mismatch"
)
