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
package regalloc

import (
	"coil/internal/ir"
	"coil/internal/typesys"
)

// ClassOf maps a value's type to the register bank it must live in
// (e.g. Float/Vector categories go to ClassFloat, everything else to
// ClassGeneral). Backends supply their own per spec.md §4.H.
type ClassOf func(typesys.Word) RegClass

// BuildIntervals assigns every instruction in fn a position in a linear,
// whole-function numbering (block order, then instruction order within a
// block) and derives one LiveInterval per virtual register spanning its
// first definition to its last use, per spec.md §4.G. This is a
// single-pass, non-iterative liveness approximation — it does not chase
// values live across a loop back-edge beyond their textual last use —
// adequate for straight-line and forward-branching code; no dataflow
// fixed point is computed.
func BuildIntervals(fn *ir.Function, classOf ClassOf) []*LiveInterval {
	positions := make(map[*ir.Instruction]int)
	pos := 0
	for _, b := range fn.Blocks {
		for _, in := range b.Instructions {
			positions[in] = pos
			pos++
		}
	}

	byVReg := make(map[int]*LiveInterval)
	var order []int

	touch := func(vreg, at int, t typesys.Word) {
		iv, ok := byVReg[vreg]
		if !ok {
			iv = &LiveInterval{VReg: vreg, Start: at, End: at, AssignedPReg: -1, SpillSlot: -1, RegClass: classOf(t)}
			byVReg[vreg] = iv
			order = append(order, vreg)
			return
		}
		if at < iv.Start {
			iv.Start = at
		}
		if at > iv.End {
			iv.End = at
		}
	}

	for _, b := range fn.Blocks {
		for _, in := range b.Instructions {
			at := positions[in]
			if in.HasResult && in.Result.Kind == ir.OpRegister {
				touch(in.Result.VReg, at, in.Result.Type)
			}
			for _, o := range in.AllOperands() {
				if o.Kind == ir.OpRegister {
					touch(o.VReg, at, o.Type)
				}
			}
		}
	}

	intervals := make([]*LiveInterval, 0, len(order))
	for _, vreg := range order {
		intervals = append(intervals, byVReg[vreg])
	}
	return intervals
}
