/*
 * infile.go, part of mopml.
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

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
)

//The external program only talks to us if its input asks for the ML-corrected
//method AND turns the pipe interface on, both on the keyword line (the first
//line of the file). Anything else means the user would start a calculation
//that silently never uses the correction, so we refuse to run.

var (
	methodRe = regexp.MustCompile(`(?i)(^|\s)PM6-ML(\s|$)`)
	pipeRe   = regexp.MustCompile(`(?i)(^|\s)PIPE(\s|$)`)
)

//ValidateInput checks that the external program's input file exists and that
//its keyword line contains both the PM6-ML method token and the PIPE keyword.
//It returns a descriptive error if not.
func ValidateInput(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("Can't open the input file %s: %v", filename, err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("Input file %s seems to be empty", filename)
	}
	if !methodRe.MatchString(line) {
		return fmt.Errorf("The keyword line of %s doesn't request the PM6-ML method", filename)
	}
	if !pipeRe.MatchString(line) {
		return fmt.Errorf("The keyword line of %s doesn't contain the PIPE keyword", filename)
	}
	return nil
}
