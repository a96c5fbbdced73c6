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
package frontend_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"coil/internal/frontend"
	"coil/internal/ir"
	"coil/internal/typesys"
)

func TestReadSimpleFunction(t *testing.T) {
	src := `
func @sum(i64 v0, i64 v1) -> i64 {
entry:
  v2 = i64 add v0, v1
  ret v2
}
`
	sys := typesys.NewSystem(64, 1)
	prog, err := frontend.Read(strings.NewReader(src), "in.coil", sys)
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)

	fn := prog.Functions[0]
	require.Equal(t, "sum", fn.Name)
	require.Equal(t, []int{0, 1}, fn.ParamVirtualRegs)
	require.Len(t, fn.Blocks, 1)
	require.Len(t, fn.Blocks[0].Instructions, 2)
	require.Equal(t, ir.ADD, fn.Blocks[0].Instructions[0].Opcode)
	require.Equal(t, ir.RET, fn.Blocks[0].Instructions[1].Opcode)
	require.NoError(t, ir.Verify(fn))
}

func TestReadForwardBranch(t *testing.T) {
	src := `
func @choose(i64 v0) -> i64 {
entry:
  br @exit
exit:
  ret v0
}
`
	sys := typesys.NewSystem(64, 1)
	prog, err := frontend.Read(strings.NewReader(src), "in.coil", sys)
	require.NoError(t, err)
	fn := prog.Functions[0]
	require.Len(t, fn.Blocks, 2)

	br := fn.Blocks[0].Instructions[0]
	require.Equal(t, ir.BR, br.Opcode)
	require.Equal(t, fn.Blocks[1].ID, br.Operands[0].RefID)

	fn.RecomputeEdges()
	require.Equal(t, []*ir.Block{fn.Blocks[1]}, fn.Blocks[0].Succs)
}

func TestReadMultipleFunctions(t *testing.T) {
	src := `
func @id(i64 v0) -> i64 {
entry:
  ret v0
}
func @zero() -> i64 {
entry:
  v0 = i64 add 0, 0
  ret v0
}
`
	sys := typesys.NewSystem(64, 1)
	prog, err := frontend.Read(strings.NewReader(src), "in.coil", sys)
	require.NoError(t, err)
	require.Len(t, prog.Functions, 2)
	require.Equal(t, "id", prog.Functions[0].Name)
	require.Equal(t, "zero", prog.Functions[1].Name)
}

func TestReadRejectsUndeclaredRegister(t *testing.T) {
	src := `
func @bad() -> i64 {
entry:
  ret v9
}
`
	sys := typesys.NewSystem(64, 1)
	_, err := frontend.Read(strings.NewReader(src), "in.coil", sys)
	require.Error(t, err)
}

func TestReadRejectsUnknownOpcode(t *testing.T) {
	src := `
func @bad() -> i64 {
entry:
  v0 = i64 frobnicate 0, 0
  ret v0
}
`
	sys := typesys.NewSystem(64, 1)
	_, err := frontend.Read(strings.NewReader(src), "in.coil", sys)
	require.Error(t, err)
}
