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

// ConstantPropagation replaces every use of a register whose sole
// defining instruction is "r = COPY imm" with the immediate itself, then
// re-triggers dead-code elimination so the now-unused COPY disappears
// (spec.md §4.E). Runs to a fixed point: propagating through one COPY
// chain can expose another (r2 = COPY r1, r1 = COPY 5 -> r2 usable as 5
// too), so a single invocation is still idempotent by construction.
func ConstantPropagation(fn *ir.Function) error {
	for {
		consts := findConstantCopies(fn)
		if len(consts) == 0 {
			return nil
		}
		if !replaceWithConstants(fn, consts) {
			return nil
		}
		if err := DeadCodeElimination(fn); err != nil {
			return err
		}
		// Stop once no further constant copies remain to fold.
		if len(findConstantCopies(fn)) == 0 {
			return nil
		}
	}
}

func findConstantCopies(fn *ir.Function) map[int]ir.Operand {
	consts := make(map[int]ir.Operand)
	for _, b := range fn.Blocks {
		for _, in := range b.Instructions {
			if in.Opcode == ir.COPY && in.HasResult && in.Result.Kind == ir.OpRegister &&
				len(in.Operands) == 1 && in.Operands[0].Kind == ir.OpImmediate {
				consts[in.Result.VReg] = in.Operands[0]
			}
		}
	}
	return consts
}

// replaceWithConstants reports whether it replaced any operand.
func replaceWithConstants(fn *ir.Function, consts map[int]ir.Operand) bool {
	changed := false
	for _, b := range fn.Blocks {
		for _, in := range b.Instructions {
			for i, o := range in.Operands {
				if o.Kind == ir.OpRegister {
					if imm, ok := consts[o.VReg]; ok {
						in.Operands[i] = imm
						changed = true
					}
				}
			}
			for i, o := range in.Extra {
				if o.Kind == ir.OpRegister {
					if imm, ok := consts[o.VReg]; ok {
						in.Extra[i] = imm
						changed = true
					}
				}
			}
		}
	}
	return changed
}
