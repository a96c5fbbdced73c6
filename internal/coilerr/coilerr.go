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

// Package coilerr defines the error taxonomy shared by every core
// subsystem (spec.md §7). Each layer returns a success/failure result to
// the layer above; reporting through a diagnostics sink is a side effect,
// never the error channel itself.
package coilerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way spec.md §7 does.
type Kind int

const (
	BadArgument Kind = iota
	OutOfMemory
	UnknownName
	DuplicateName
	BadEncoding
	NoSelection
	Unsupported
	Internal
)

func (k Kind) String() string {
	switch k {
	case BadArgument:
		return "BadArgument"
	case OutOfMemory:
		return "OutOfMemory"
	case UnknownName:
		return "UnknownName"
	case DuplicateName:
		return "DuplicateName"
	case BadEncoding:
		return "BadEncoding"
	case NoSelection:
		return "NoSelection"
	case Unsupported:
		return "Unsupported"
	case Internal:
		return "Internal"
	default:
		return "<unknown-kind>"
	}
}

// Error wraps a Kind with a formatted message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

// New constructs a *Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the *Error found in err's chain (via
// errors.As) and true, or false when err carries no *Error. Kind itself
// is not an error value, so errors.Is cannot match on it.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Fatal-kind helper: Internal and OutOfMemory are the only two kinds
// spec.md §7 marks FATAL; callers that need to abort a session check this.
func (k Kind) IsFatal() bool {
	return k == Internal || k == OutOfMemory
}
