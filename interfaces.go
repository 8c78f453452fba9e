/*
 * interfaces.go, part of mopml.
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

//Errors

// Error is the interface for errors that the packages in this program implement. The Decorate method allows to add and retrieve info from the
// error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //Decorate allows you to add information when you pass the error up. Each call also returns the "decoration" slice of strings resulting from the current call. If passed an empty string, it just returns the current value, without adding the empty string to the slice.
	//The decorate slice should contain a list of functions in the calling stack, plus, for each function, any relevant information, or nothing. If information is to be added to an element of the slice, it should be in this format: "FunctionName: Extra info"
}

// ProtocolError is the interface for errors in the pipe protocol. Critical
// distinguishes a malformed request (always fatal for the whole program,
// since the two processes cannot resynchronize mid-stream) from anything
// milder a future version may want to report.
type ProtocolError interface {
	Error
	Critical() bool
}
