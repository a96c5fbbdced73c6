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
package passmgr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coil/internal/ir"
	"coil/internal/passmgr"
)

// Scenario 4, spec.md §8: pipeline min-level gating.
func TestPipelineMinLevelGating(t *testing.T) {
	m := passmgr.New()
	var order []string
	mk := func(name string) passmgr.RunFunc {
		return func(*ir.Function) error {
			order = append(order, name)
			return nil
		}
	}
	require.NoError(t, m.RegisterPass("", "p1", "", mk("p1"), passmgr.O1))
	require.NoError(t, m.RegisterPass("", "p2", "", mk("p2"), passmgr.O2))
	require.NoError(t, m.RegisterPass("", "p3", "", mk("p3"), passmgr.O3))

	require.NoError(t, m.CreatePipeline("default"))
	require.NoError(t, m.AddPassToPipeline("default", "p1"))
	require.NoError(t, m.AddPassToPipeline("default", "p2"))
	require.NoError(t, m.AddPassToPipeline("default", "p3"))
	require.NoError(t, m.SetPipeline("default"))

	m.SetOptLevel(passmgr.O2)
	order = nil
	require.NoError(t, m.Run(nil))
	require.Equal(t, []string{"p1", "p2"}, order)

	m.SetOptLevel(passmgr.OSize)
	order = nil
	require.NoError(t, m.Run(nil))
	require.Equal(t, []string{"p1", "p2", "p3"}, order)
}

func TestPipelineSnapshotsEnabledAtAddTime(t *testing.T) {
	m := passmgr.New()
	var ran bool
	require.NoError(t, m.RegisterPass("", "p", "", func(*ir.Function) error {
		ran = true
		return nil
	}, passmgr.O0))
	require.NoError(t, m.CreatePipeline("pipe"))
	require.NoError(t, m.AddPassToPipeline("pipe", "p"))
	// Disabling after the pipeline snapshot must not affect the already
	// built pipeline entry (spec.md §4.D, Open Question 1: snapshot).
	require.NoError(t, m.Enable("p", false))
	require.NoError(t, m.SetPipeline("pipe"))
	m.SetOptLevel(passmgr.O3)

	require.NoError(t, m.Run(nil))
	require.True(t, ran)
}

func TestDuplicateModuleAndPassRejected(t *testing.T) {
	m := passmgr.New()
	require.NoError(t, m.RegisterModule("mod", nil, nil))
	err := m.RegisterModule("mod", nil, nil)
	require.Error(t, err)

	require.NoError(t, m.RegisterPass("mod", "p", "", func(*ir.Function) error { return nil }, passmgr.O0))
	err = m.RegisterPass("mod", "p", "", func(*ir.Function) error { return nil }, passmgr.O0)
	require.Error(t, err)

	err = m.RegisterPass("missing-module", "q", "", func(*ir.Function) error { return nil }, passmgr.O0)
	require.Error(t, err)
}

func TestRunAbortsOnFailureReportingPassName(t *testing.T) {
	m := passmgr.New()
	boom := errorString("boom")
	require.NoError(t, m.RegisterPass("", "bad", "", func(*ir.Function) error {
		return boom
	}, passmgr.O0))
	require.NoError(t, m.CreatePipeline("pipe"))
	require.NoError(t, m.AddPassToPipeline("pipe", "bad"))
	require.NoError(t, m.SetPipeline("pipe"))
	m.SetOptLevel(passmgr.O3)

	err := m.Run(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad")
}

type errorString string

func (e errorString) Error() string { return string(e) }
