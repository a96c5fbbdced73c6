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
package x86

import (
	"fmt"

	"golang.org/x/sys/cpu"

	"coil/internal/coilerr"
	"coil/internal/ir"
	"coil/internal/isel"
	"coil/internal/regalloc"
	"coil/internal/registry"
	"coil/internal/target"
	"coil/internal/typesys"
)

// Name is the target name this backend registers under.
const Name = "x86-64"

// Backend implements target.Backend for x86-64. Instruction lowering
// follows the teacher's compile/codegen/lower_x86.go arithmetic/compare
// switches, re-expressed as an isel pattern table instead of a hard-coded
// switch statement.
type Backend struct{}

func init() {
	b := &Backend{}
	d := target.NewDescriptor(Name, target.RegisterFile{
		NumGeneral:   numGeneralRegs,
		NumFloat:     numFloatRegs,
		WordSizeBits: 64,
		CallerSaved:  []int{0, 2, 3, 6, 7, 8, 9}, // rax, rcx, rdx, rdi-index omitted, r8-r11, per teacher's callerSaved()
		CalleeSaved:  []int{1, 4, 5, 10, 11, 12, 13},
	}, b)
	_ = registry.Register(d)
}

// Initialize probes host CPU features via golang.org/x/sys/cpu (the
// teacher repo has no such self-detection; this is enrichment drawn from
// the feature-probing idiom used elsewhere in the retrieved corpus).
func (b *Backend) Initialize(ctx *target.Context) error {
	d := ctx.Descriptor
	d.SetFeature("sse2", cpu.X86.HasSSE2)
	d.SetFeature("sse4.2", cpu.X86.HasSSE42)
	d.SetFeature("avx", cpu.X86.HasAVX)
	d.SetFeature("avx2", cpu.X86.HasAVX2)
	d.SetFeature("bmi2", cpu.X86.HasBMI2)
	return nil
}

func (b *Backend) Finalize(ctx *target.Context) error { return nil }

// classOf assigns the float register bank to Float/Vector typed values
// and the general bank to everything else, per spec.md §4.G/§4.H.
func classOf(t typesys.Word) regalloc.RegClass {
	cat, _, _, _ := typesys.Decode(t)
	if cat == typesys.Float || cat == typesys.Vector {
		return regalloc.ClassFloat
	}
	return regalloc.ClassGeneral
}

// MapInstruction registers this backend's patterns with sel, mirroring
// lowerArithmetic/lowerCompare's opcode coverage from
// compile/codegen/lower_x86.go.
func (b *Backend) MapInstruction(sel *isel.Selector) error {
	arith := map[ir.Opcode]string{
		ir.ADD: "add", ir.SUB: "sub", ir.AND: "and", ir.OR: "or", ir.XOR: "xor",
	}
	for op, mnemonic := range arith {
		op, mnemonic := op, mnemonic
		if err := sel.AddPattern(isel.Pattern{
			Name: "x86." + mnemonic + ".rr", Opcode: op, OperandCount: 2, Cost: 1,
			Emit: func(in *ir.Instruction) ([]isel.Lowered, error) {
				return []isel.Lowered{{Mnemonic: mnemonic, Operands: in.AllOperands()}}, nil
			},
		}); err != nil {
			return err
		}
	}

	mulDiv := map[ir.Opcode]string{ir.MUL: "imul", ir.DIV: "idiv", ir.MOD: "idiv"}
	for op, mnemonic := range mulDiv {
		op, mnemonic := op, mnemonic
		if err := sel.AddPattern(isel.Pattern{
			Name: "x86." + mnemonic, Opcode: op, OperandCount: 2, Cost: 3,
			Emit: func(in *ir.Instruction) ([]isel.Lowered, error) {
				return []isel.Lowered{{Mnemonic: mnemonic, Operands: in.AllOperands()}}, nil
			},
		}); err != nil {
			return err
		}
	}

	cmp := map[ir.Opcode]string{
		ir.CMP_EQ: "sete", ir.CMP_NE: "setne", ir.CMP_LT: "setl",
		ir.CMP_LE: "setle", ir.CMP_GT: "setg", ir.CMP_GE: "setge",
	}
	for op, mnemonic := range cmp {
		op, mnemonic := op, mnemonic
		if err := sel.AddPattern(isel.Pattern{
			Name: "x86." + mnemonic, Opcode: op, OperandCount: 2, Cost: 2,
			Emit: func(in *ir.Instruction) ([]isel.Lowered, error) {
				return []isel.Lowered{
					{Mnemonic: "cmp", Operands: in.AllOperands()},
					{Mnemonic: mnemonic, Operands: []ir.Operand{in.Result}},
				}, nil
			},
		}); err != nil {
			return err
		}
	}

	if err := sel.AddPattern(isel.Pattern{
		Name: "x86.ret", Opcode: ir.RET, OperandCount: -1, Cost: 1,
		Emit: func(in *ir.Instruction) ([]isel.Lowered, error) {
			return []isel.Lowered{{Mnemonic: "ret", Operands: in.AllOperands()}}, nil
		},
	}); err != nil {
		return err
	}
	if err := sel.AddPattern(isel.Pattern{
		Name: "x86.br", Opcode: ir.BR, OperandCount: 1, Cost: 1,
		Emit: func(in *ir.Instruction) ([]isel.Lowered, error) {
			return []isel.Lowered{{Mnemonic: "jmp", Operands: in.AllOperands()}}, nil
		},
	}); err != nil {
		return err
	}
	if err := sel.AddPattern(isel.Pattern{
		Name: "x86.mov", Opcode: ir.COPY, OperandCount: 1, Cost: 1,
		Emit: func(in *ir.Instruction) ([]isel.Lowered, error) {
			return []isel.Lowered{{Mnemonic: "mov", Operands: in.AllOperands()}}, nil
		},
	}); err != nil {
		return err
	}
	sel.SetDefault(func(in *ir.Instruction) ([]isel.Lowered, error) {
		return nil, coilerr.New(coilerr.NoSelection, "x86-64: no lowering for opcode %s", in.Opcode)
	})
	return nil
}

// GenerateFunction selects and allocates registers for fn, in that
// order, returning both results for the caller (typically
// internal/emit) to serialize.
func (b *Backend) GenerateFunction(ctx *target.Context, fn *ir.Function) ([]isel.Lowered, []*regalloc.LiveInterval, error) {
	sel := isel.New()
	sel.SetOptimize(true)
	if err := b.MapInstruction(sel); err != nil {
		return nil, nil, err
	}
	lowered, err := sel.SelectFunction(fn)
	if err != nil {
		return nil, nil, fmt.Errorf("x86-64: selecting %s: %w", fn.Name, err)
	}

	intervals := regalloc.BuildIntervals(fn, classOf)
	alloc := regalloc.New(map[regalloc.RegClass]int{
		regalloc.ClassGeneral: numGeneralRegs,
		regalloc.ClassFloat:   numFloatRegs,
	}, 8)
	alloc.Allocate(intervals)

	return lowered, intervals, nil
}
