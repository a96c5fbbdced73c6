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
package emit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coil/internal/emit"
)

// Scenario 6, spec.md §8: an empty "main" function produces an object
// whose buffer starts with the COIL magic bytes and carries exactly one
// symbol ("main" at offset 0) and no relocations.
func TestEmptyMainFunctionObject(t *testing.T) {
	e := emit.New()
	_, err := e.AddSymbol("main")
	require.NoError(t, err)

	require.Equal(t, 1, e.SymbolCount())
	require.Equal(t, 0, e.RelocationCount())

	out := e.Finalize(1700000000)
	require.Equal(t, []byte{0x4C, 0x49, 0x4F, 0x43}, out[:4])

	magic, version, timestamp, code, symbols, relocations, ok := emit.ParseObject(out)
	require.True(t, ok)
	require.Equal(t, emit.Magic, magic)
	require.Equal(t, emit.Version, version)
	require.Equal(t, uint64(1700000000), timestamp)
	require.Len(t, code, 0)
	require.Len(t, symbols, 1)
	require.Equal(t, "main", symbols[0].Name)
	require.Equal(t, uint64(0), symbols[0].Offset)
	require.Len(t, relocations, 0)
}

// Container round-trip property, spec.md §8.
func TestFinalizeParseRoundTrip(t *testing.T) {
	e := emit.New()
	e.EmitU8(0x90)
	_, err := e.AddSymbol("foo")
	require.NoError(t, err)
	e.EmitU32(0xDEADBEEF)
	idx, err := e.AddSymbol("bar")
	require.NoError(t, err)
	require.NoError(t, e.AddRelocation(idx, emit.RelPCRelative32, -4))

	out := e.Finalize(42)
	magic, version, timestamp, code, symbols, relocations, ok := emit.ParseObject(out)
	require.True(t, ok)
	require.Equal(t, emit.Magic, magic)
	require.Equal(t, emit.Version, version)
	require.Equal(t, uint64(42), timestamp)
	require.Equal(t, e.GetBuffer(), code)
	require.Len(t, symbols, 2)
	require.Equal(t, "foo", symbols[0].Name)
	require.Equal(t, "bar", symbols[1].Name)
	require.Len(t, relocations, 1)
	require.Equal(t, int64(-4), relocations[0].Addend)
	require.Equal(t, emit.RelPCRelative32, relocations[0].Kind)
}

func TestAddSymbolRejectsDuplicateName(t *testing.T) {
	e := emit.New()
	_, err := e.AddSymbol("dup")
	require.NoError(t, err)
	_, err = e.AddSymbol("dup")
	require.Error(t, err)
}

func TestAddRelocationRejectsUnknownSymbol(t *testing.T) {
	e := emit.New()
	err := e.AddRelocation(0, emit.RelAbsolute64, 0)
	require.Error(t, err)
}

func TestBufferGrowsPastInitialCapacity(t *testing.T) {
	e := emit.New()
	big := make([]byte, 128*1024)
	e.Write(big)
	require.Len(t, e.GetBuffer(), 128*1024)
}
