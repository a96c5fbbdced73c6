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

import "coil/internal/passmgr"

// RegisterAll registers the optimize module and its five passes with m,
// and builds a "default" pipeline running them in the order peephole,
// dce, constprop, cse, licm — cheap local cleanups before the pricier
// whole-function passes, mirroring the ordering of the teacher's
// Optimizer.Ideal loop (simplify, then eliminate dead code, then repeat).
func RegisterAll(m *passmgr.Manager) error {
	if err := m.RegisterModule("optimize", nil, nil); err != nil {
		return err
	}
	passes := []struct {
		name     string
		desc     string
		run      passmgr.RunFunc
		minLevel passmgr.OptLevel
	}{
		{"peephole", "local instruction-pattern simplification", Peephole, passmgr.O1},
		{"dce", "dead-code elimination", DeadCodeElimination, passmgr.O1},
		{"constprop", "constant propagation", ConstantPropagation, passmgr.O1},
		{"cse", "common subexpression elimination", CommonSubexpressionElimination, passmgr.O2},
		{"licm", "loop-invariant code motion", LoopInvariantCodeMotion, passmgr.O2},
	}
	for _, p := range passes {
		if err := m.RegisterPass("optimize", p.name, p.desc, p.run, p.minLevel); err != nil {
			return err
		}
	}

	if err := m.CreatePipeline("default"); err != nil {
		return err
	}
	for _, p := range passes {
		if err := m.AddPassToPipeline("default", p.name); err != nil {
			return err
		}
	}
	return nil
}
