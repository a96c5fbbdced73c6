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

	"coil/internal/typesys"
)

// Instruction is `{opcode, flags, result_type, result, operands[0..4]}`
// per spec.md §3. At most 4 source operands are carried for the common
// case; variable-arity opcodes (CALL, SWITCH, PHI, VEC_BUILD) use the
// Extra slice instead, keeping Operands capped as the spec names it.
type Instruction struct {
	ID         int
	Opcode     Opcode
	Flags      Flags
	ResultType typesys.Word
	Result     Operand
	HasResult  bool
	Operands   []Operand // capped at 4 for fixed-arity opcodes
	Extra      []Operand // overflow for variable-arity opcodes
	Order      MemoryOrder
	HasOrder   bool

	Block *Block
}

// NewInstruction constructs an instruction, validating operand arity
// against the opcode's expected count (universal invariant 2, spec.md
// §8). Variable-arity opcodes skip the count check.
func NewInstruction(opcode Opcode, flags Flags, resultType typesys.Word, result Operand, hasResult bool, operands ...Operand) (*Instruction, error) {
	arity := opcode.Arity()
	if arity >= 0 && len(operands) != arity {
		return nil, fmt.Errorf("%s expects %d operands, got %d", opcode, arity, len(operands))
	}
	if len(operands) > 4 {
		return nil, fmt.Errorf("%s: more than 4 fixed operands; use variable-arity construction", opcode)
	}
	// Invariant: immediates never appear as the result.
	if hasResult && result.Kind == OpImmediate {
		return nil, fmt.Errorf("%s: an immediate cannot be an instruction result", opcode)
	}
	if opcode == LOAD && (!hasResult || result.Kind != OpRegister) {
		return nil, fmt.Errorf("LOAD's result must be a register")
	}
	if opcode == STORE && hasResult {
		return nil, fmt.Errorf("STORE has no result")
	}
	ops := make([]Operand, len(operands))
	copy(ops, operands)
	return &Instruction{
		Opcode:     opcode,
		Flags:      flags,
		ResultType: resultType,
		Result:     result,
		HasResult:  hasResult,
		Operands:   ops,
	}, nil
}

// NewVariadicInstruction builds an instruction whose operand count is not
// fixed by the opcode (CALL/SWITCH/PHI/VEC_BUILD/LEA).
func NewVariadicInstruction(opcode Opcode, flags Flags, resultType typesys.Word, result Operand, hasResult bool, operands ...Operand) (*Instruction, error) {
	if opcode.Arity() >= 0 {
		return nil, fmt.Errorf("%s has fixed arity; use NewInstruction", opcode)
	}
	if hasResult && result.Kind == OpImmediate {
		return nil, fmt.Errorf("%s: an immediate cannot be an instruction result", opcode)
	}
	ops := make([]Operand, len(operands))
	copy(ops, operands)
	return &Instruction{
		Opcode:     opcode,
		Flags:      flags,
		ResultType: resultType,
		Result:     result,
		HasResult:  hasResult,
		Extra:      ops,
	}, nil
}

// AllOperands returns the fixed operands followed by any variadic extras.
func (in *Instruction) AllOperands() []Operand {
	if len(in.Extra) == 0 {
		return in.Operands
	}
	all := make([]Operand, 0, len(in.Operands)+len(in.Extra))
	all = append(all, in.Operands...)
	all = append(all, in.Extra...)
	return all
}

// String formats as "OPCODE [result '='] operand, operand, …" per
// spec.md §4.B.
func (in *Instruction) String() string {
	var b strings.Builder
	if in.HasResult {
		b.WriteString(in.Result.String())
		b.WriteString(" = ")
	}
	b.WriteString(in.Opcode.String())
	ops := in.AllOperands()
	if len(ops) > 0 {
		b.WriteString(" ")
		parts := make([]string, len(ops))
		for i, o := range ops {
			parts[i] = o.String()
		}
		b.WriteString(strings.Join(parts, ", "))
	}
	if in.HasOrder {
		b.WriteString(" ")
		b.WriteString(in.Order.String())
	}
	return b.String()
}

// IsNop reports whether this is a NOP marker instruction, used by the
// peephole pass to collapse runs of NOPs (spec.md §4.E).
func (in *Instruction) IsNop() bool { return in.Opcode == NOP }
