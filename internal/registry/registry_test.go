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
package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coil/internal/isel"
	"coil/internal/ir"
	"coil/internal/regalloc"
	"coil/internal/target"
)

type stubBackend struct {
	initialized bool
	finalized   bool
}

func (s *stubBackend) Initialize(ctx *target.Context) error { s.initialized = true; return nil }
func (s *stubBackend) Finalize(ctx *target.Context) error   { s.finalized = true; return nil }
func (s *stubBackend) MapInstruction(sel *isel.Selector) error { return nil }
func (s *stubBackend) GenerateFunction(ctx *target.Context, fn *ir.Function) ([]isel.Lowered, []*regalloc.LiveInterval, error) {
	return nil, nil, nil
}

func TestRegisterLookupAndSeal(t *testing.T) {
	resetForTest()
	defer resetForTest()

	backend := &stubBackend{}
	d := target.NewDescriptor("stub64", target.RegisterFile{NumGeneral: 8, WordSizeBits: 64}, backend)
	require.NoError(t, Register(d))

	got, err := ByName("stub64")
	require.NoError(t, err)
	require.Same(t, d, got)

	err = Register(d)
	require.Error(t, err)

	Seal()
	other := target.NewDescriptor("stub32", target.RegisterFile{NumGeneral: 4, WordSizeBits: 32}, backend)
	err = Register(other)
	require.Error(t, err)
}

func TestCreateAndDestroyContextRunsBackendHooks(t *testing.T) {
	resetForTest()
	defer resetForTest()

	backend := &stubBackend{}
	d := target.NewDescriptor("stub64", target.RegisterFile{NumGeneral: 8, WordSizeBits: 64}, backend)
	require.NoError(t, Register(d))

	ctx, err := CreateContext("stub64")
	require.NoError(t, err)
	require.True(t, backend.initialized)

	require.NoError(t, DestroyContext(ctx))
	require.True(t, backend.finalized)
}

func TestByNameUnknown(t *testing.T) {
	resetForTest()
	defer resetForTest()
	_, err := ByName("does-not-exist")
	require.Error(t, err)
}
