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
package ir

import (
	"fmt"
	"strings"
)

// Block is a basic block: `{id, name, instructions, predecessors,
// successors}` per spec.md §3. Predecessor/successor edges are derived —
// they are recomputed by the owning Function's RecomputeEdges after any
// CFG edit rather than maintained as live back-pointers, per the arena+
// index re-architecture of spec.md §9.
type Block struct {
	ID           int
	Name         string
	Instructions []*Instruction

	Preds []*Block
	Succs []*Block

	Func *Function
}

// Append adds an instruction to the end of the block's sequence and
// back-links it to this block.
func (b *Block) Append(in *Instruction) {
	in.Block = b
	in.ID = b.Func.nextInstrID()
	b.Instructions = append(b.Instructions, in)
}

// InsertBefore inserts in immediately before the instruction at index idx.
func (b *Block) InsertBefore(idx int, in *Instruction) {
	in.Block = b
	in.ID = b.Func.nextInstrID()
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[idx+1:], b.Instructions[idx:])
	b.Instructions[idx] = in
}

// Remove deletes the instruction at index idx.
func (b *Block) Remove(idx int) {
	b.Instructions = append(b.Instructions[:idx], b.Instructions[idx+1:]...)
}

// Terminator returns the block's terminator instruction, or nil if the
// block is (transiently) empty or missing one.
func (b *Block) Terminator() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	last := b.Instructions[len(b.Instructions)-1]
	if last.Opcode.IsTerminator() {
		return last
	}
	return nil
}

// successorBlockIDs extracts the block ids a terminator instruction
// branches to, in operand order.
func (in *Instruction) successorBlockIDs() []int {
	var ids []int
	switch in.Opcode {
	case BR:
		if len(in.Operands) == 1 && in.Operands[0].Kind == OpBlockRef {
			ids = append(ids, in.Operands[0].RefID)
		}
	case BR_COND:
		for _, o := range in.Operands {
			if o.Kind == OpBlockRef {
				ids = append(ids, o.RefID)
			}
		}
	case SWITCH:
		for _, o := range in.Extra {
			if o.Kind == OpBlockRef {
				ids = append(ids, o.RefID)
			}
		}
	}
	return ids
}

func (b *Block) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "b%d (%s):\n", b.ID, b.Name)
	for _, in := range b.Instructions {
		fmt.Fprintf(&s, "  %s\n", in.String())
	}
	return s.String()
}
