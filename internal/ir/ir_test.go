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
package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coil/internal/ir"
	"coil/internal/typesys"
)

func i64(t *testing.T, sys *typesys.System) typesys.Word {
	w, err := sys.Primitive(typesys.Integer, 64, 0)
	require.NoError(t, err)
	return w
}

func TestFunctionSingleTerminatorInvariant(t *testing.T) {
	sys := typesys.NewSystem(64, 1)
	i64t := i64(t, sys)
	fnType, err := sys.FuncType(i64t, nil, false)
	require.NoError(t, err)
	fn := ir.NewFunction(0, "f", fnType)
	b := fn.NewBlock("entry")

	ret, err := ir.NewInstruction(ir.RET, 0, i64t, ir.Operand{}, false, ir.Immediate(0, i64t))
	require.NoError(t, err)
	b.Append(ret)

	require.NoError(t, ir.Verify(fn))
}

func TestVerifyRejectsMissingTerminator(t *testing.T) {
	sys := typesys.NewSystem(64, 1)
	i64t := i64(t, sys)
	fn := ir.NewFunction(0, "f", i64t)
	b := fn.NewBlock("entry")
	add, err := ir.NewInstruction(ir.ADD, 0, i64t, ir.Register(2, i64t), true, ir.Register(0, i64t), ir.Immediate(0, i64t))
	require.NoError(t, err)
	b.Append(add)

	err = ir.Verify(fn)
	require.Error(t, err)
}

func TestArityMismatchRejected(t *testing.T) {
	sys := typesys.NewSystem(64, 1)
	i64t := i64(t, sys)
	_, err := ir.NewInstruction(ir.ADD, 0, i64t, ir.Register(2, i64t), true, ir.Register(0, i64t))
	require.Error(t, err)
}

func TestImmediateCannotBeResult(t *testing.T) {
	sys := typesys.NewSystem(64, 1)
	i64t := i64(t, sys)
	_, err := ir.NewInstruction(ir.ADD, 0, i64t, ir.Immediate(1, i64t), true, ir.Register(0, i64t), ir.Register(1, i64t))
	require.Error(t, err)
}

func TestRecomputeEdges(t *testing.T) {
	sys := typesys.NewSystem(64, 1)
	i64t := i64(t, sys)
	fn := ir.NewFunction(0, "f", i64t)
	entry := fn.NewBlock("entry")
	exit := fn.NewBlock("exit")

	br, err := ir.NewInstruction(ir.BR, 0, 0, ir.Operand{}, false, ir.BlockRef(exit.ID))
	require.NoError(t, err)
	entry.Append(br)

	ret, err := ir.NewInstruction(ir.RET, 0, i64t, ir.Operand{}, false, ir.Immediate(0, i64t))
	require.NoError(t, err)
	exit.Append(ret)

	fn.RecomputeEdges()
	require.Equal(t, []*ir.Block{exit}, entry.Succs)
	require.Equal(t, []*ir.Block{entry}, exit.Preds)
}

func TestInstructionStringFormat(t *testing.T) {
	sys := typesys.NewSystem(64, 1)
	i64t := i64(t, sys)
	add, err := ir.NewInstruction(ir.ADD, 0, i64t, ir.Register(2, i64t), true, ir.Register(0, i64t), ir.Immediate(0, i64t))
	require.NoError(t, err)
	require.Equal(t, "v2 = ADD v0, 0", add.String())
}

func TestMemoryOperandFormat(t *testing.T) {
	sys := typesys.NewSystem(64, 1)
	i64t := i64(t, sys)
	mem := ir.Memory(0, 1, 8, ir.Scale4, i64t)
	require.Equal(t, "[v0 + v1*4 + 8]", mem.String())
}
