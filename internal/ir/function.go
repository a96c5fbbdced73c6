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

// Package ir is the typed IR model: functions own basic blocks, blocks
// own instructions, instructions reference operands. Structural
// invariants (spec.md §8, universal invariants 1-2) are enforced by
// Verify. Grounded on the teacher's compile/ssa/hir.go Func/Block/Value
// triad, generalized from the teacher's fixed op-list into the spec's
// typed opcode/operand/instruction model.
package ir

import (
	"fmt"
	"strings"

	"coil/internal/coilerr"
	"coil/internal/typesys"
)

// Function is `{id, name, type, blocks, param_virtual_regs}` per
// spec.md §3. The first block in Blocks is the entry.
type Function struct {
	ID               int
	Name             string
	Type             typesys.Word
	Blocks           []*Block
	ParamVirtualRegs []int

	nextBlockID int
	nextInstrID_ int
}

func NewFunction(id int, name string, t typesys.Word) *Function {
	return &Function{ID: id, Name: name, Type: t}
}

func (fn *Function) nextInstrID() int {
	id := fn.nextInstrID_
	fn.nextInstrID_++
	return id
}

// NewBlock appends a new, empty block to the function and returns it.
// The first call establishes the entry block.
func (fn *Function) NewBlock(name string) *Block {
	b := &Block{ID: fn.nextBlockID, Name: name, Func: fn}
	fn.nextBlockID++
	fn.Blocks = append(fn.Blocks, b)
	return b
}

// Entry returns the function's entry block (the first in Blocks), or nil
// for an empty function.
func (fn *Function) Entry() *Block {
	if len(fn.Blocks) == 0 {
		return nil
	}
	return fn.Blocks[0]
}

// ExitBlocks returns every block whose terminator is RET or UNREACHABLE.
func (fn *Function) ExitBlocks() []*Block {
	var exits []*Block
	for _, b := range fn.Blocks {
		if term := b.Terminator(); term != nil {
			if term.Opcode == RET || term.Opcode == UNREACHABLE {
				exits = append(exits, b)
			}
		}
	}
	return exits
}

func (fn *Function) BlockByID(id int) *Block {
	for _, b := range fn.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// RecomputeEdges rebuilds every block's Preds/Succs from terminator
// operands, per the "derived, recomputed after any CFG edit" design
// (spec.md §3, §9). Call after any block insertion/removal or terminator
// rewrite.
func (fn *Function) RecomputeEdges() {
	for _, b := range fn.Blocks {
		b.Preds = nil
		b.Succs = nil
	}
	for _, b := range fn.Blocks {
		term := b.Terminator()
		if term == nil {
			continue
		}
		for _, id := range term.successorBlockIDs() {
			succ := fn.BlockByID(id)
			if succ == nil {
				continue
			}
			b.Succs = append(b.Succs, succ)
			succ.Preds = append(succ.Preds, b)
		}
	}
}

func (fn *Function) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "func %s:\n", fn.Name)
	for _, b := range fn.Blocks {
		s.WriteString(b.String())
	}
	return s.String()
}

// Verify checks the universal invariants of spec.md §8 that are local to
// IR structure (arity and terminator placement are checked at
// construction and here respectively; allocator/selector invariants live
// in their own packages).
func Verify(fn *Function) error {
	for _, b := range fn.Blocks {
		for i, in := range b.Instructions {
			isLast := i == len(b.Instructions)-1
			if in.Opcode.IsTerminator() && !isLast {
				return coilerr.New(coilerr.Internal, "function %s: block b%d has a terminator %s before its end", fn.Name, b.ID, in.Opcode)
			}
			if !in.Opcode.IsTerminator() && isLast {
				return coilerr.New(coilerr.Internal, "function %s: block b%d does not end with a terminator", fn.Name, b.ID)
			}
		}
		if len(b.Instructions) == 0 {
			return coilerr.New(coilerr.Internal, "function %s: block b%d is empty, must end with exactly one terminator", fn.Name, b.ID)
		}
	}
	return nil
}
