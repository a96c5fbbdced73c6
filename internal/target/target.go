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

// Package target is the target descriptor and backend contract of
// spec.md §4.H: a Descriptor names a target and its register file; a
// Backend implements initialize/finalize/map_instruction/
// generate_function against one session's Context. Grounded on the
// teacher's compile/codegen/arch_x86.go ArchABI interface (ArgReg,
// CallerSaveRegs, CalleeSaveRegs) and register_x86.go's physical-register
// numbering, generalized from a single hard-wired x86 implementation
// into a descriptor any backend package can populate.
package target

import (
	"coil/internal/ir"
	"coil/internal/isel"
	"coil/internal/regalloc"
)

// RegisterFile describes one target's physical registers: how many of
// each class are available for allocation, plus which are caller- vs.
// callee-saved (informational, consulted by a backend's own prologue/
// epilogue generation).
type RegisterFile struct {
	NumGeneral   int
	NumFloat     int
	CallerSaved  []int
	CalleeSaved  []int
	WordSizeBits int
}

// Feature is a target-specific capability name (e.g. "avx2", "sse4.2"),
// detected at Initialize time and queryable via Descriptor.HasFeature.
type Feature string

// Descriptor is `{name, register_file, features}` plus the backend
// contract functions, per spec.md §4.H.
type Descriptor struct {
	Name       string
	Registers  RegisterFile
	features   map[Feature]bool
	Backend    Backend
}

// Backend is the contract a concrete target package implements:
// Initialize runs once before any function is processed, Finalize once
// after the session completes, MapInstruction exposes the target's
// pattern table to an isel.Selector, and GenerateFunction produces the
// lowered+allocated instruction stream for one function.
type Backend interface {
	Initialize(ctx *Context) error
	Finalize(ctx *Context) error
	MapInstruction(sel *isel.Selector) error
	GenerateFunction(ctx *Context, fn *ir.Function) ([]isel.Lowered, []*regalloc.LiveInterval, error)
}

// Context is the per-session resource record a Backend's methods
// operate against — the descriptor itself plus anything Initialize
// decided to cache (e.g. detected CPU features).
type Context struct {
	Descriptor *Descriptor
}

// NewDescriptor builds a Descriptor with no detected features; call
// SetFeature (normally from within Backend.Initialize, after probing the
// host) to populate its feature set.
func NewDescriptor(name string, regs RegisterFile, backend Backend) *Descriptor {
	return &Descriptor{Name: name, Registers: regs, features: make(map[Feature]bool), Backend: backend}
}

func (d *Descriptor) SetFeature(f Feature, present bool) { d.features[f] = present }

// HasFeature reports whether f was detected (or declared) present. An
// unrecognized feature name reports false rather than erroring — per
// spec.md §4.H, feature queries are advisory, not part of the error
// taxonomy.
func (d *Descriptor) HasFeature(f Feature) bool { return d.features[f] }

// NewContext creates a session-scoped Context bound to d.
func NewContext(d *Descriptor) *Context { return &Context{Descriptor: d} }
