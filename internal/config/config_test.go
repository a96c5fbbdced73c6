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
package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coil/internal/config"
)

// Scenario 5 of spec.md §8: Config dotted path.
func TestDottedPathScenario(t *testing.T) {
	root, err := config.Parse([]byte(`{"a":{"b":{"c":42}}}`))
	require.NoError(t, err)

	c, ok := root.Get("a.b.c")
	require.True(t, ok)
	i, ok := c.AsInt64()
	require.True(t, ok)
	require.Equal(t, int64(42), i)

	b, ok := root.Get("a.b")
	require.True(t, ok)
	require.Equal(t, config.KindObject, b.Kind)
	require.Equal(t, []string{"c"}, b.Keys())

	_, ok = root.Get("a.b.c.d")
	require.False(t, ok)

	updated, err := root.Set("a.b.c", config.Int(7))
	require.NoError(t, err)
	v, ok := updated.Get("a.b.c")
	require.True(t, ok)
	i, _ = v.AsInt64()
	require.Equal(t, int64(7), i)
	require.Equal(t, []string{"a"}, updated.Keys())
}

func TestRoundTrip(t *testing.T) {
	root, err := config.Parse([]byte(`{"name":"x","n":3,"f":1.5,"arr":[1,2,3],"flag":true}`))
	require.NoError(t, err)

	out, err := root.Serialize()
	require.NoError(t, err)

	reparsed, err := config.Parse(out)
	require.NoError(t, err)

	name, ok := reparsed.Get("name")
	require.True(t, ok)
	require.Equal(t, "x", name.String)

	flag, ok := reparsed.Get("flag")
	require.True(t, ok)
	require.True(t, flag.Bool)

	arr, ok := reparsed.Get("arr")
	require.True(t, ok)
	require.Equal(t, config.KindArray, arr.Kind)
	require.Len(t, arr.Array, 3)
}
