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

// Package regalloc is the linear-scan register allocator of spec.md
// §4.G: live intervals over a linear instruction numbering, assigned
// physical registers (or spill slots) in one left-to-right sweep.
//
// Grounded on the teacher's compile/codegen/lsra.go/lsra_interval.go —
// this package keeps that file's active/inactive-list sweep and
// sorted-worklist idiom, but completes the actual allocation: the
// teacher's tryAllocatePhyReg and spillInterval bodies are commented out
// (they always report success without assigning anything), so the
// expire/assign/steal-or-spill core here is written fresh against the
// classic Poletto-Sarkar algorithm the teacher's scaffolding was headed
// toward, resolving spec.md §4.G's Open Question about spill semantics
// in favor of "steal the current interval's register from whichever
// active interval ends furthest in the future, if that is later than
// the current interval's own end; otherwise spill the current interval
// itself."
package regalloc

import (
	"sort"

	"coil/internal/collections"
	"coil/internal/support"
)

// RegClass partitions the physical register file the allocator draws
// from (spec.md §4.G allows more than one register bank, e.g. general
// purpose vs. floating point).
type RegClass int

const (
	ClassGeneral RegClass = iota
	ClassFloat
)

// LiveInterval is `{vreg, assigned_preg, start, end, reg_class,
// spill_slot, spilled}` per spec.md §4.G. Start/End are positions in a
// linear instruction numbering (not wall-clock time); AssignedPReg is -1
// once Spilled is true.
type LiveInterval struct {
	VReg         int
	Start        int
	End          int
	RegClass     RegClass
	AssignedPReg int
	Spilled      bool
	SpillSlot    int
}

// Allocator runs linear-scan register allocation for one function's
// intervals, independently per register class.
type Allocator struct {
	numRegs       map[RegClass]int
	slotSizeBytes int
	nextSpillSlot int
}

// New creates an Allocator with numRegs physical registers available per
// class and slotSizeBytes bytes per spill slot (the target word size).
func New(numRegs map[RegClass]int, slotSizeBytes int) *Allocator {
	return &Allocator{numRegs: numRegs, slotSizeBytes: slotSizeBytes}
}

// Allocate assigns a physical register or a spill slot to every interval,
// mutating each LiveInterval in place. Universal invariants 5 and 6 of
// spec.md §8 (no two intervals that overlap ever share a physical
// register; every spilled interval has a valid spill_slot) hold by
// construction of allocateClass.
func (a *Allocator) Allocate(intervals []*LiveInterval) {
	byClass := make(map[RegClass][]*LiveInterval)
	for _, iv := range intervals {
		byClass[iv.RegClass] = append(byClass[iv.RegClass], iv)
	}
	for class, list := range byClass {
		a.allocateClass(class, list)
	}
}

func (a *Allocator) allocateClass(class RegClass, intervals []*LiveInterval) {
	numRegs := a.numRegs[class]
	sort.SliceStable(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })

	used := collections.NewBitSet(numRegs)
	var active []*LiveInterval // kept sorted by increasing End

	for _, cur := range intervals {
		active = expireOldIntervals(active, cur.Start, used)

		if len(active) >= numRegs {
			active = a.spillAtInterval(cur, active, used)
			continue
		}
		reg := firstFreeRegister(used)
		cur.AssignedPReg = reg
		used.Set(reg)
		active = insertByEnd(active, cur)
	}
}

// expireOldIntervals removes from active every interval whose End
// precedes pos, freeing its physical register.
func expireOldIntervals(active []*LiveInterval, pos int, used *collections.BitSet) []*LiveInterval {
	kept := active[:0:0]
	for _, iv := range active {
		if iv.End < pos {
			used.Clear(iv.AssignedPReg)
			continue
		}
		kept = append(kept, iv)
	}
	return kept
}

// spillAtInterval implements the steal-or-spill-self rule: if the
// active interval ending furthest in the future ends later than cur,
// cur takes its register and the victim is spilled instead; otherwise
// cur itself is spilled, keeping every already-assigned interval intact.
func (a *Allocator) spillAtInterval(cur *LiveInterval, active []*LiveInterval, used *collections.BitSet) []*LiveInterval {
	victim := active[len(active)-1] // sorted by End, so the last entry ends furthest out
	if victim.End > cur.End {
		cur.AssignedPReg = victim.AssignedPReg
		victim.AssignedPReg = -1
		victim.Spilled = true
		victim.SpillSlot = a.allocSpillSlot()

		remaining := active[:len(active)-1]
		return insertByEnd(remaining, cur)
	}
	cur.AssignedPReg = -1
	cur.Spilled = true
	cur.SpillSlot = a.allocSpillSlot()
	return active
}

func insertByEnd(active []*LiveInterval, iv *LiveInterval) []*LiveInterval {
	i := sort.Search(len(active), func(i int) bool { return active[i].End >= iv.End })
	active = append(active, nil)
	copy(active[i+1:], active[i:])
	active[i] = iv
	return active
}

func firstFreeRegister(used *collections.BitSet) int {
	for i := 0; i < used.Size(); i++ {
		if !used.IsSet(i) {
			return i
		}
	}
	return -1
}

func (a *Allocator) allocSpillSlot() int {
	slot := a.nextSpillSlot
	a.nextSpillSlot++
	return slot
}

// SpillOffset returns the byte offset of slot within the spill area.
func (a *Allocator) SpillOffset(slot int) int { return slot * a.slotSizeBytes }

// FrameSize returns the stack frame size required for every spill slot
// allocated so far, rounded up to a 16-byte boundary (spec.md §4.G).
func (a *Allocator) FrameSize() int {
	raw := a.nextSpillSlot * a.slotSizeBytes
	return support.Align16(raw)
}

// Stats summarizes one Allocate call for diagnostics/testing.
type Stats struct {
	Total    int
	Spilled  int
	InReg    int
}

func ComputeStats(intervals []*LiveInterval) Stats {
	s := Stats{Total: len(intervals)}
	for _, iv := range intervals {
		if iv.Spilled {
			s.Spilled++
		} else {
			s.InReg++
		}
	}
	return s
}
