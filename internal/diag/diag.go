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

// Package diag implements the diagnostics sink protocol of spec.md §6: a
// write-only callback that receives one severity-tagged event per call,
// in reporting order. It is distinct from internal/logging, which is
// developer trace the user never sees (design note, spec.md §9).
package diag

import (
	"fmt"
	"os"

	"coil/internal/coilerr"
)

type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

type Category int

const (
	General Category = iota
	Parser
	Type
	Instruction
	Target
	Optimizer
	Generator
)

func (c Category) String() string {
	switch c {
	case General:
		return "general"
	case Parser:
		return "parser"
	case Type:
		return "type"
	case Instruction:
		return "instruction"
	case Target:
		return "target"
	case Optimizer:
		return "optimizer"
	case Generator:
		return "generator"
	default:
		return "unknown"
	}
}

// Location is an optional file/line/column triple.
type Location struct {
	File string
	Line int
	Col  int
	Set  bool
}

// Event is one diagnostic: severity, category, a 32-bit code and message,
// with an optional source location.
type Event struct {
	Severity Severity
	Category Category
	Code     uint32
	Message  string
	Loc      Location
}

// Sink receives one Event per call. The core never retains any part of
// the event beyond the call that reports it.
type Sink interface {
	Report(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Report(e Event) { f(e) }

// DefaultSink prints to stderr in the exact form spec.md §6 specifies:
// "[<severity>] <category>/<code>: <message>" with an optional
// "(<file>:<line>:<col>)" suffix.
type DefaultSink struct{}

func (DefaultSink) Report(e Event) {
	line := fmt.Sprintf("[%s] %s/%d: %s", e.Severity, e.Category, e.Code, e.Message)
	if e.Loc.Set {
		line += fmt.Sprintf(" (%s:%d:%d)", e.Loc.File, e.Loc.Line, e.Loc.Col)
	}
	fmt.Fprintln(os.Stderr, line)
}

// NopSink discards every event; useful for tests that don't want stderr
// noise.
type NopSink struct{}

func (NopSink) Report(Event) {}

// Report is a convenience that builds and reports an Event in one call.
func Report(sink Sink, sev Severity, cat Category, code uint32, format string, args ...any) {
	sink.Report(Event{
		Severity: sev,
		Category: cat,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}

// ReportAt is Report with a source location attached.
func ReportAt(sink Sink, sev Severity, cat Category, code uint32, loc Location, format string, args ...any) {
	sink.Report(Event{
		Severity: sev,
		Category: cat,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Loc:      loc,
	})
}

// ReportErr reports a coilerr.Error through the sink at the severity its
// Kind implies (FATAL for Internal/OutOfMemory, WARNING for
// DuplicateName/Unsupported, ERROR otherwise), per spec.md §7's table.
func ReportErr(sink Sink, cat Category, code uint32, err error) {
	sev := Error
	if kind, ok := coilerr.KindOf(err); ok {
		switch {
		case kind.IsFatal():
			sev = Fatal
		case kind == coilerr.DuplicateName || kind == coilerr.Unsupported:
			sev = Warning
		}
	}
	Report(sink, sev, cat, code, "%s", err.Error())
}
