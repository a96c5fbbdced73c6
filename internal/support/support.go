// Copyright (c) 2024 The Coil Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package support collects the small arithmetic/invariant helpers the
// rest of the module reaches for repeatedly. Adapted from the teacher's
// utils/util.go: Assert and Align16 survive unchanged in behavior (every
// stack frame and spill area in this module is still 16-byte aligned);
// the teacher's toolchain-invocation helpers (ExecuteCmd, CopyFile,
// CopyFilesToTempDir, CommandExists) are not adapted here since this
// module never shells out to an external assembler or linker.
package support

import "fmt"

// Assert panics with a formatted message if cond is false. Used at
// internal invariant boundaries, never at input-validation boundaries
// (those return a *coilerr.Error instead).
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// Align16 rounds n up to the nearest multiple of 16.
func Align16(n int) int {
	return (n + 15) &^ 15
}

// Abs returns the absolute value of x.
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
