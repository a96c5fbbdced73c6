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

import "coil/internal/ir"

// DeadCodeElimination removes instructions whose result (if any) is never
// used, provided the opcode has no side effect and the instruction is not
// flagged volatile (spec.md §4.E). A NOP trivially qualifies — it has no
// result and no side effect — so a singleton NOP left by Peephole is
// cleaned up here, which is what makes scenario 1 ("fold add-zero")
// collapse all the way down to a single RET.
//
// DCE computes the full use count up front and then sweeps to a fixed
// point internally (removing one dead instruction can make its operands'
// producers dead in turn), so a single call is already idempotent —
// DCE(DCE(fn)) changes nothing, satisfying universal invariant 4.
func DeadCodeElimination(fn *ir.Function) error {
	for {
		uses := countUses(fn)
		removed := false
		for _, b := range fn.Blocks {
			out := b.Instructions[:0:0]
			for _, in := range b.Instructions {
				if isDeadInstruction(in, uses) {
					removed = true
					continue
				}
				out = append(out, in)
			}
			b.Instructions = out
		}
		if !removed {
			return nil
		}
	}
}

func isDeadInstruction(in *ir.Instruction, uses map[int]int) bool {
	if in.Opcode.HasSideEffect() || in.Flags.Has(ir.FlagVolatile) {
		return false
	}
	if !in.HasResult {
		return true
	}
	if in.Result.Kind != ir.OpRegister {
		return false
	}
	return uses[in.Result.VReg] == 0
}

func countUses(fn *ir.Function) map[int]int {
	uses := make(map[int]int)
	for _, b := range fn.Blocks {
		for _, in := range b.Instructions {
			for _, o := range in.AllOperands() {
				if o.Kind == ir.OpRegister {
					uses[o.VReg]++
				}
			}
		}
	}
	return uses
}
