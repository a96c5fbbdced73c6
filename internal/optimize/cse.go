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
	"fmt"
	"strings"

	"coil/internal/ir"
)

// CommonSubexpressionElimination walks the function's extended basic
// blocks — a block with a single predecessor continues its parent's
// value-numbering scope; a join point (more than one predecessor) starts
// a fresh one — hashing eligible instructions by opcode, the relevant
// flag bits and their operand tuple (sorted first when the opcode is
// commutative), per spec.md §4.E. A repeated hash within scope means the
// second occurrence is redundant: its uses get redirected to the first
// occurrence's result and the duplicate instruction is turned into a NOP,
// left for a later dead-code elimination pass to remove.
func CommonSubexpressionElimination(fn *ir.Function) error {
	entry := fn.Entry()
	if entry == nil {
		return nil
	}
	visited := make(map[*ir.Block]bool)
	subs := make(map[int]ir.Operand)
	walkEBB(entry, make(map[string]ir.Operand), visited, subs)

	if len(subs) > 0 {
		applySubstitutions(fn, subs)
	}
	for _, b := range fn.Blocks {
		collapseNops(b)
	}
	return nil
}

func walkEBB(b *ir.Block, table map[string]ir.Operand, visited map[*ir.Block]bool, subs map[int]ir.Operand) {
	if visited[b] {
		return
	}
	visited[b] = true

	local := make(map[string]ir.Operand, len(table))
	for k, v := range table {
		local[k] = v
	}

	for _, in := range b.Instructions {
		if !eligibleForCSE(in) {
			continue
		}
		key := hashInstruction(in)
		if prior, ok := local[key]; ok {
			subs[in.Result.VReg] = prior
			neutralize(in)
			continue
		}
		local[key] = in.Result
	}

	for _, succ := range b.Succs {
		if len(succ.Preds) == 1 {
			walkEBB(succ, local, visited, subs) // extends this EBB
		} else {
			walkEBB(succ, make(map[string]ir.Operand), visited, subs) // join point: fresh scope
		}
	}
}

func eligibleForCSE(in *ir.Instruction) bool {
	if !in.HasResult || in.Result.Kind != ir.OpRegister {
		return false
	}
	if in.Opcode == ir.PHI || in.Opcode == ir.NOP {
		return false
	}
	if in.Opcode.HasSideEffect() || in.Flags.Has(ir.FlagVolatile) {
		return false
	}
	if len(in.Extra) > 0 {
		return false // variadic opcodes are not candidates
	}
	return true
}

func hashInstruction(in *ir.Instruction) string {
	ops := make([]ir.Operand, len(in.Operands))
	copy(ops, in.Operands)
	if in.Flags.Has(ir.FlagCommutative) && len(ops) == 2 {
		if operandKey(ops[0]) > operandKey(ops[1]) {
			ops[0], ops[1] = ops[1], ops[0]
		}
	}
	parts := make([]string, len(ops))
	for i, o := range ops {
		parts[i] = operandKey(o)
	}
	return fmt.Sprintf("%d:%d:%s", in.Opcode, in.Flags&(ir.FlagCommutative|ir.FlagAssociative), strings.Join(parts, ","))
}

func operandKey(o ir.Operand) string {
	switch o.Kind {
	case ir.OpRegister:
		return fmt.Sprintf("r%d", o.VReg)
	case ir.OpImmediate:
		return fmt.Sprintf("i%d", o.Imm)
	case ir.OpMemory:
		return fmt.Sprintf("m%d:%d:%d:%d:%v", o.BaseReg, o.IndexReg, o.Offset, o.Scale, o.HasIndex)
	case ir.OpBlockRef:
		return fmt.Sprintf("b%d", o.RefID)
	case ir.OpFuncRef:
		return fmt.Sprintf("f%d", o.RefID)
	case ir.OpTypeRef:
		return fmt.Sprintf("t%#x", uint32(o.TypeVal))
	default:
		return "?"
	}
}
