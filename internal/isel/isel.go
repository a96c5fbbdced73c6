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

// Package isel is the cost-driven instruction selector of spec.md §4.F:
// targets register Patterns against an IR opcode, and the lowest-cost
// matching pattern wins, first-registered winning exact cost ties.
// Grounded on the teacher's compile/codegen/lower_x86.go, which lowers
// every ssa.Value via a single hard-coded switch over ssa.Op; this
// package generalizes that switch into a pluggable, per-target pattern
// table so a backend package (see internal/backend/x86) supplies
// patterns instead of editing a selector switch statement.
package isel

import (
	"coil/internal/coilerr"
	"coil/internal/ir"
)

// Lowered is one target-level instruction produced by a pattern's Emit.
// It mirrors the teacher's LIR instruction shape (mnemonic + operands)
// without committing to any particular target's concrete encoding.
type Lowered struct {
	Mnemonic string
	Operands []ir.Operand
}

// MatchFunc does pattern-specific matching beyond opcode/operand-count/
// flag-mask (e.g. "immediate fits in 32 bits").
type MatchFunc func(*ir.Instruction) bool

// EmitFunc lowers one IR instruction into one or more target instructions.
type EmitFunc func(*ir.Instruction) ([]Lowered, error)

// Pattern is `{opcode, expected_operand_count, expected_flag_mask, cost,
// name, match_fn, emit_fn}` per spec.md §4.F.
type Pattern struct {
	Name              string
	Opcode            ir.Opcode
	OperandCount      int // -1 accepts any operand count
	ExpectedFlagMask  ir.Flags
	Cost              int
	Match             MatchFunc
	Emit              EmitFunc
}

// Selector holds a target's pattern table plus an optional default
// lowering used when no pattern matches.
type Selector struct {
	patterns []Pattern
	optimize bool
	def      EmitFunc
}

func New() *Selector { return &Selector{} }

// SetOptimize toggles cost-based pattern preference; when false, Select
// still requires a match but does not need to consider cost across
// candidates beyond picking the first eligible one (useful for a -O0
// selector that wants simple, predictable code instead of the cheapest).
func (s *Selector) SetOptimize(enabled bool) { s.optimize = enabled }

// SetDefault installs the fallback used when no registered pattern
// matches an instruction.
func (s *Selector) SetDefault(fn EmitFunc) { s.def = fn }

// AddPattern registers a pattern. Names are unique; later additions with
// equal cost to an earlier one never win a tie (first-registered wins).
func (s *Selector) AddPattern(p Pattern) error {
	if p.Name == "" {
		return coilerr.New(coilerr.BadArgument, "pattern name must not be empty")
	}
	for _, existing := range s.patterns {
		if existing.Name == p.Name {
			return coilerr.New(coilerr.DuplicateName, "pattern %q already registered", p.Name)
		}
	}
	if p.Emit == nil {
		return coilerr.New(coilerr.BadArgument, "pattern %q: emit_fn is required", p.Name)
	}
	s.patterns = append(s.patterns, p)
	return nil
}

func (s *Selector) candidates(in *ir.Instruction) []Pattern {
	var out []Pattern
	for _, p := range s.patterns {
		if p.Opcode != in.Opcode {
			continue
		}
		if p.OperandCount >= 0 && len(in.AllOperands()) != p.OperandCount {
			continue
		}
		if p.ExpectedFlagMask != 0 && !in.Flags.Has(p.ExpectedFlagMask) {
			continue
		}
		if p.Match != nil && !p.Match(in) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Select picks the lowest-cost matching pattern for in (first-registered
// wins ties) and emits it. With no match and no default installed,
// Select returns a NoSelection error.
func (s *Selector) Select(in *ir.Instruction) ([]Lowered, error) {
	cands := s.candidates(in)
	if len(cands) == 0 {
		if s.def != nil {
			return s.def(in)
		}
		return nil, coilerr.New(coilerr.NoSelection, "no pattern matches opcode %s and no default is set", in.Opcode)
	}
	if !s.optimize {
		return cands[0].Emit(in)
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Cost < best.Cost {
			best = c
		}
	}
	return best.Emit(in)
}

// SelectBlock lowers every instruction in b in order.
func (s *Selector) SelectBlock(b *ir.Block) ([]Lowered, error) {
	var all []Lowered
	for _, in := range b.Instructions {
		lo, err := s.Select(in)
		if err != nil {
			return nil, err
		}
		all = append(all, lo...)
	}
	return all, nil
}

// SelectFunction lowers every block of fn in block order.
func (s *Selector) SelectFunction(fn *ir.Function) ([]Lowered, error) {
	var all []Lowered
	for _, b := range fn.Blocks {
		lo, err := s.SelectBlock(b)
		if err != nil {
			return nil, err
		}
		all = append(all, lo...)
	}
	return all, nil
}
