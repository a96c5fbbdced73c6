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
package optimize

import (
	"coil/internal/collections"
	"coil/internal/ir"
)

// LoopInvariantCodeMotion finds natural loops via buildDomTree/backedges
// and hoists pure, non-volatile header instructions whose operands are
// all defined outside the loop body up into the loop's unique outside
// predecessor (its preheader), per spec.md §4.E.
//
// Hoisting is restricted to the header block and to loops with a single
// outside predecessor: every other body block is dominated by the
// header, so moving a header-resident definition up to its one entry
// edge preserves every use's dominance relationship without duplicating
// the computation across multiple entry edges or needing to synthesize
// a new preheader block.
func LoopInvariantCodeMotion(fn *ir.Function) error {
	if len(fn.Blocks) == 0 {
		return nil
	}
	dt := buildDomTree(fn)
	backedges := dt.backedges()
	if len(backedges) == 0 {
		return nil
	}
	for header, tails := range backedges {
		body := naturalLoopBody(header, tails)
		var outside []*ir.Block
		for _, p := range header.Preds {
			if !body[p] {
				outside = append(outside, p)
			}
		}
		if len(outside) != 1 {
			continue
		}
		hoistInvariantsFromHeader(header, body, outside[0])
	}
	fn.RecomputeEdges()
	return nil
}

func hoistInvariantsFromHeader(header *ir.Block, body map[*ir.Block]bool, pre *ir.Block) {
	definedInBody := collections.NewSet[int]()
	for b := range body {
		for _, in := range b.Instructions {
			if in.HasResult && in.Result.Kind == ir.OpRegister {
				definedInBody.Add(in.Result.VReg)
			}
		}
	}

	kept := header.Instructions[:0:0]
	for _, in := range header.Instructions {
		if canHoist(in, definedInBody) {
			insertBeforeTerminator(pre, in)
			definedInBody.Remove(in.Result.VReg)
			continue
		}
		kept = append(kept, in)
	}
	header.Instructions = kept
}

func canHoist(in *ir.Instruction, definedInBody *collections.Set[int]) bool {
	if in.Opcode == ir.PHI || in.Opcode.IsTerminator() {
		return false
	}
	if in.Opcode.HasSideEffect() || in.Flags.Has(ir.FlagVolatile) {
		return false
	}
	if !in.HasResult || in.Result.Kind != ir.OpRegister {
		return false
	}
	for _, o := range in.AllOperands() {
		if o.Kind == ir.OpRegister && definedInBody.Contains(o.VReg) {
			return false
		}
	}
	return true
}

func insertBeforeTerminator(b *ir.Block, in *ir.Instruction) {
	idx := len(b.Instructions)
	if b.Terminator() != nil {
		idx = len(b.Instructions) - 1
	}
	b.InsertBefore(idx, in)
}
