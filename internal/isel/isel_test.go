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
package isel_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coil/internal/coilerr"
	"coil/internal/ir"
	"coil/internal/isel"
	"coil/internal/typesys"
)

func addInstr(t *testing.T) *ir.Instruction {
	sys := typesys.NewSystem(64, 1)
	i64t, err := sys.Primitive(typesys.Integer, 64, 0)
	require.NoError(t, err)
	in, err := ir.NewInstruction(ir.ADD, ir.FlagCommutative, i64t, ir.Register(2, i64t), true, ir.Register(0, i64t), ir.Register(1, i64t))
	require.NoError(t, err)
	return in
}

// Scenario 3, spec.md §8: tie-breaking picks the first-registered pattern
// when two candidates share the lowest cost.
func TestSelectFirstRegisteredWinsCostTie(t *testing.T) {
	s := isel.New()
	s.SetOptimize(true)
	require.NoError(t, s.AddPattern(isel.Pattern{
		Name: "add-reg-reg", Opcode: ir.ADD, OperandCount: 2, Cost: 1,
		Emit: func(*ir.Instruction) ([]isel.Lowered, error) {
			return []isel.Lowered{{Mnemonic: "add.first"}}, nil
		},
	}))
	require.NoError(t, s.AddPattern(isel.Pattern{
		Name: "add-reg-reg-alt", Opcode: ir.ADD, OperandCount: 2, Cost: 1,
		Emit: func(*ir.Instruction) ([]isel.Lowered, error) {
			return []isel.Lowered{{Mnemonic: "add.second"}}, nil
		},
	}))

	out, err := s.Select(addInstr(t))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "add.first", out[0].Mnemonic)
}

func TestSelectPrefersLowerCost(t *testing.T) {
	s := isel.New()
	s.SetOptimize(true)
	require.NoError(t, s.AddPattern(isel.Pattern{
		Name: "expensive", Opcode: ir.ADD, OperandCount: 2, Cost: 5,
		Emit: func(*ir.Instruction) ([]isel.Lowered, error) {
			return []isel.Lowered{{Mnemonic: "expensive"}}, nil
		},
	}))
	require.NoError(t, s.AddPattern(isel.Pattern{
		Name: "cheap", Opcode: ir.ADD, OperandCount: 2, Cost: 1,
		Emit: func(*ir.Instruction) ([]isel.Lowered, error) {
			return []isel.Lowered{{Mnemonic: "cheap"}}, nil
		},
	}))

	out, err := s.Select(addInstr(t))
	require.NoError(t, err)
	require.Equal(t, "cheap", out[0].Mnemonic)
}

func TestSelectReturnsNoSelectionWithoutDefault(t *testing.T) {
	s := isel.New()
	_, err := s.Select(addInstr(t))
	require.Error(t, err)
	kind, ok := coilerr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, coilerr.NoSelection, kind)
}

func TestSelectFallsBackToDefault(t *testing.T) {
	s := isel.New()
	s.SetDefault(func(*ir.Instruction) ([]isel.Lowered, error) {
		return []isel.Lowered{{Mnemonic: "fallback"}}, nil
	})
	out, err := s.Select(addInstr(t))
	require.NoError(t, err)
	require.Equal(t, "fallback", out[0].Mnemonic)
}

func TestAddPatternRejectsDuplicateName(t *testing.T) {
	s := isel.New()
	p := isel.Pattern{Name: "dup", Opcode: ir.ADD, OperandCount: 2, Cost: 1,
		Emit: func(*ir.Instruction) ([]isel.Lowered, error) { return nil, nil }}
	require.NoError(t, s.AddPattern(p))
	require.Error(t, s.AddPattern(p))
}
