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

// Package passmgr is the pass manager of spec.md §4.D: modules and named
// passes with a minimum optimisation level, composed into named
// pipelines, run over a function. One Manager is owned by a compilation
// session (spec.md §5) — it is not a process-wide singleton here, since
// the design note in §9 asks for the driver to own its lifetime
// explicitly rather than relying on global mutable state. The teacher's
// compile/ssa/optimize.go Optimizer.Ideal hard-codes a three-pass loop;
// this package generalizes that into registrable, pipeline-composable
// passes while keeping its "loop until no more changes" idiom available
// to individual passes that want it (see internal/optimize).
package passmgr

import (
	"coil/internal/coilerr"
	"coil/internal/ir"
)

// OptLevel is the optimisation level a session runs at.
type OptLevel int

const (
	O0 OptLevel = iota
	O1
	O2
	O3
	// OSize is the size-oriented level. At OSize, min_level is not used
	// as an exclusion gate — size-oriented passes run regardless of
	// numeric level (spec.md §4.D, Open Question 2).
	OSize
)

// Module is `{name, init?, finalize?}` per spec.md §4.D.
type Module struct {
	Name     string
	Init     func() error
	Finalize func() error
}

// RunFunc is the body of a pass.
type RunFunc func(*ir.Function) error

// Pass is `{name, description, min_level, enabled, run, module?}`.
type Pass struct {
	Name        string
	Description string
	MinLevel    OptLevel
	Enabled     bool
	Run         RunFunc
	Module      string // "" if unowned by any module
}

// pipelineEntry is a *snapshot* of a pass's enabled flag and min_level at
// the moment it was added to a pipeline. Per spec.md §4.D: "Subsequent
// set_enabled on the pass does not alter already-added pipeline entries —
// this is a deliberate choice so that pipelines are self-contained once
// built." This resolves Open Question 1 in favor of snapshot semantics,
// matching the source's field-copy behaviour.
type pipelineEntry struct {
	passName string
	enabled  bool
	minLevel OptLevel
}

// Pipeline is a named ordered list of pass entries.
type Pipeline struct {
	Name    string
	entries []pipelineEntry
}

// Manager owns registered modules, passes and pipelines for the duration
// of one compilation session (spec.md §3 Lifecycle, §5).
type Manager struct {
	modules        map[string]*Module
	moduleOrder    []string
	passes         map[string]*Pass
	pipelines      map[string]*Pipeline
	activePipeline string
	level          OptLevel
}

// New creates a Manager. There is no implicit global instance — the
// driver creates and owns exactly one per session (spec.md §5).
func New() *Manager {
	return &Manager{
		modules:   make(map[string]*Module),
		passes:    make(map[string]*Pass),
		pipelines: make(map[string]*Pipeline),
	}
}

// RegisterModule names are unique; if Init is given it runs synchronously.
func (m *Manager) RegisterModule(name string, init, finalize func() error) error {
	if _, exists := m.modules[name]; exists {
		return coilerr.New(coilerr.DuplicateName, "module %q already registered", name)
	}
	mod := &Module{Name: name, Init: init, Finalize: finalize}
	if init != nil {
		if err := init(); err != nil {
			return err
		}
	}
	m.modules[name] = mod
	m.moduleOrder = append(m.moduleOrder, name)
	return nil
}

// RegisterPass names are unique across all passes, and module (if given)
// must already exist.
func (m *Manager) RegisterPass(module, name, description string, run RunFunc, minLevel OptLevel) error {
	if _, exists := m.passes[name]; exists {
		return coilerr.New(coilerr.DuplicateName, "pass %q already registered", name)
	}
	if module != "" {
		if _, exists := m.modules[module]; !exists {
			return coilerr.New(coilerr.UnknownName, "module %q not registered", module)
		}
	}
	m.passes[name] = &Pass{
		Name:        name,
		Description: description,
		MinLevel:    minLevel,
		Enabled:     true,
		Run:         run,
		Module:      module,
	}
	return nil
}

// CreatePipeline registers an empty, named pipeline.
func (m *Manager) CreatePipeline(name string) error {
	if _, exists := m.pipelines[name]; exists {
		return coilerr.New(coilerr.DuplicateName, "pipeline %q already exists", name)
	}
	m.pipelines[name] = &Pipeline{Name: name}
	return nil
}

// AddPassToPipeline appends a snapshot of passName's current enabled flag
// and min_level to the named pipeline.
func (m *Manager) AddPassToPipeline(pipeline, passName string) error {
	p, ok := m.pipelines[pipeline]
	if !ok {
		return coilerr.New(coilerr.UnknownName, "pipeline %q not found", pipeline)
	}
	pass, ok := m.passes[passName]
	if !ok {
		return coilerr.New(coilerr.UnknownName, "pass %q not found", passName)
	}
	p.entries = append(p.entries, pipelineEntry{
		passName: passName,
		enabled:  pass.Enabled,
		minLevel: pass.MinLevel,
	})
	return nil
}

// Enable toggles a pass's enabled flag. Affects future pipeline additions
// only — existing pipeline entries already took their snapshot.
func (m *Manager) Enable(passName string, enabled bool) error {
	p, ok := m.passes[passName]
	if !ok {
		return coilerr.New(coilerr.UnknownName, "pass %q not found", passName)
	}
	p.Enabled = enabled
	return nil
}

func (m *Manager) SetPipeline(name string) error {
	if _, ok := m.pipelines[name]; !ok {
		return coilerr.New(coilerr.UnknownName, "pipeline %q not found", name)
	}
	m.activePipeline = name
	return nil
}

func (m *Manager) GetPipeline() (string, error) {
	if m.activePipeline == "" {
		return "", coilerr.New(coilerr.UnknownName, "no active pipeline set")
	}
	return m.activePipeline, nil
}

func (m *Manager) SetOptLevel(level OptLevel) { m.level = level }
func (m *Manager) GetOptLevel() OptLevel      { return m.level }

// Run iterates the active pipeline's passes in order, skipping entries
// where enabled=false, or where min_level > current level unless the
// level is OSize (in which case min_level never excludes a pass — spec.md
// §4.D, Open Question 2). On a pass failure, Run aborts and reports the
// failing pass name; the manager does not roll back IR mutations already
// performed by prior passes (spec.md §4.D Failure model).
func (m *Manager) Run(fn *ir.Function) error {
	pipeline, ok := m.pipelines[m.activePipeline]
	if !ok {
		return coilerr.New(coilerr.UnknownName, "no active pipeline set")
	}
	for _, entry := range pipeline.entries {
		if !entry.enabled {
			continue
		}
		if m.level != OSize && entry.minLevel > m.level {
			continue
		}
		pass, ok := m.passes[entry.passName]
		if !ok {
			return coilerr.New(coilerr.Internal, "pipeline %q references unknown pass %q", pipeline.Name, entry.passName)
		}
		if err := pass.Run(fn); err != nil {
			return coilerr.New(coilerr.Internal, "pass %q failed: %v", entry.passName, err)
		}
	}
	return nil
}

// Finalize tears the manager down, calling each module's Finalize in
// registration order (spec.md §5).
func (m *Manager) Finalize() error {
	for _, name := range m.moduleOrder {
		mod := m.modules[name]
		if mod.Finalize != nil {
			if err := mod.Finalize(); err != nil {
				return err
			}
		}
	}
	return nil
}
