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
package collections_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coil/internal/collections"
)

func TestBitSetSetClearIsSet(t *testing.T) {
	bs := collections.NewBitSet(17)
	require.False(t, bs.IsSet(10))
	bs.Set(10)
	require.True(t, bs.IsSet(10))
	bs.Clear(10)
	require.False(t, bs.IsSet(10))
}

func TestBitSetUniteIntersectRemove(t *testing.T) {
	a := collections.NewBitSet(8)
	b := collections.NewBitSet(8)
	a.Set(1)
	a.Set(2)
	b.Set(2)
	b.Set(3)

	changed := a.Unite(b)
	require.True(t, changed)
	require.True(t, a.IsSet(1))
	require.True(t, a.IsSet(2))
	require.True(t, a.IsSet(3))
	require.Equal(t, 3, a.Count())

	c := a.Copy()
	require.True(t, c.Intersect(b))
	require.False(t, c.IsSet(1))
	require.True(t, c.IsSet(2))
	require.True(t, c.IsSet(3))

	require.True(t, a.Remove(b))
	require.True(t, a.IsSet(1))
	require.False(t, a.IsSet(2))
	require.False(t, a.IsSet(3))
}

func TestSetAddRemoveContains(t *testing.T) {
	s := collections.NewSet[int]()
	require.True(t, s.Add(5))
	require.False(t, s.Add(5))
	require.True(t, s.Contains(5))
	require.Equal(t, 1, s.Len())

	require.True(t, s.Remove(5))
	require.False(t, s.Remove(5))
	require.False(t, s.Contains(5))
}

func TestSetForEach(t *testing.T) {
	s := collections.NewSet[string]()
	s.Add("a")
	s.Add("b")
	seen := map[string]bool{}
	s.ForEach(func(v string) { seen[v] = true })
	require.Equal(t, map[string]bool{"a": true, "b": true}, seen)
}
