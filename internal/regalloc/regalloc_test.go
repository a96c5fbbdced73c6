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
package regalloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coil/internal/regalloc"
)

func overlaps(a, b *regalloc.LiveInterval) bool {
	return a.Start <= b.End && b.Start <= a.End
}

// Scenario 2, spec.md §8: four intervals contending for two general
// registers; one must spill.
func TestFourIntervalsTwoRegistersOneSpills(t *testing.T) {
	intervals := []*regalloc.LiveInterval{
		{VReg: 0, Start: 0, End: 10, AssignedPReg: -1, SpillSlot: -1},
		{VReg: 1, Start: 1, End: 5, AssignedPReg: -1, SpillSlot: -1},
		{VReg: 2, Start: 2, End: 8, AssignedPReg: -1, SpillSlot: -1},
		{VReg: 3, Start: 6, End: 9, AssignedPReg: -1, SpillSlot: -1},
	}
	a := regalloc.New(map[regalloc.RegClass]int{regalloc.ClassGeneral: 2}, 8)
	a.Allocate(intervals)

	stats := regalloc.ComputeStats(intervals)
	require.Equal(t, 1, stats.Spilled)
	require.Equal(t, 3, stats.InReg)

	for _, iv := range intervals {
		if iv.Spilled {
			require.GreaterOrEqual(t, iv.SpillSlot, 0)
			require.Equal(t, -1, iv.AssignedPReg)
		} else {
			require.GreaterOrEqual(t, iv.AssignedPReg, 0)
		}
	}
}

// Universal invariant 5, spec.md §8: no two overlapping intervals ever
// share a physical register.
func TestNoOverlappingIntervalsShareRegister(t *testing.T) {
	intervals := []*regalloc.LiveInterval{
		{VReg: 0, Start: 0, End: 10, AssignedPReg: -1, SpillSlot: -1},
		{VReg: 1, Start: 1, End: 5, AssignedPReg: -1, SpillSlot: -1},
		{VReg: 2, Start: 2, End: 8, AssignedPReg: -1, SpillSlot: -1},
		{VReg: 3, Start: 6, End: 9, AssignedPReg: -1, SpillSlot: -1},
		{VReg: 4, Start: 11, End: 12, AssignedPReg: -1, SpillSlot: -1},
	}
	a := regalloc.New(map[regalloc.RegClass]int{regalloc.ClassGeneral: 2}, 8)
	a.Allocate(intervals)

	for i := 0; i < len(intervals); i++ {
		for j := i + 1; j < len(intervals); j++ {
			x, y := intervals[i], intervals[j]
			if x.Spilled || y.Spilled {
				continue
			}
			if overlaps(x, y) {
				require.NotEqual(t, x.AssignedPReg, y.AssignedPReg,
					"v%d and v%d overlap but share preg %d", x.VReg, y.VReg, x.AssignedPReg)
			}
		}
	}
}

// Universal invariant 6, spec.md §8: every spilled interval has a valid
// (non-negative) spill slot, and frame size is a multiple of 16.
func TestSpilledIntervalsHaveValidSlotsAndFrameSize(t *testing.T) {
	intervals := []*regalloc.LiveInterval{
		{VReg: 0, Start: 0, End: 20, AssignedPReg: -1, SpillSlot: -1},
		{VReg: 1, Start: 1, End: 19, AssignedPReg: -1, SpillSlot: -1},
		{VReg: 2, Start: 2, End: 18, AssignedPReg: -1, SpillSlot: -1},
	}
	a := regalloc.New(map[regalloc.RegClass]int{regalloc.ClassGeneral: 1}, 8)
	a.Allocate(intervals)

	for _, iv := range intervals {
		if iv.Spilled {
			require.GreaterOrEqual(t, iv.SpillSlot, 0)
		}
	}
	require.Equal(t, 0, a.FrameSize()%16)
}

func TestNonOverlappingIntervalsCanShareRegister(t *testing.T) {
	intervals := []*regalloc.LiveInterval{
		{VReg: 0, Start: 0, End: 2, AssignedPReg: -1, SpillSlot: -1},
		{VReg: 1, Start: 3, End: 5, AssignedPReg: -1, SpillSlot: -1},
	}
	a := regalloc.New(map[regalloc.RegClass]int{regalloc.ClassGeneral: 1}, 8)
	a.Allocate(intervals)

	require.False(t, intervals[0].Spilled)
	require.False(t, intervals[1].Spilled)
	require.Equal(t, intervals[0].AssignedPReg, intervals[1].AssignedPReg)
}
