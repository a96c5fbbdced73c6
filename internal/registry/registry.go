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

// Package registry is the process-wide target registry of spec.md §4.H:
// a name->Descriptor map populated by backend packages' init() functions
// before any compilation session starts, and read-only once a session is
// underway. Grounded on the teacher's single-target ArchABI wiring in
// compile/codegen/arch_x86.go, generalized to support more than one
// registered backend.
package registry

import (
	"sync"

	"coil/internal/coilerr"
	"coil/internal/target"
)

var (
	mu      sync.RWMutex
	targets = make(map[string]*target.Descriptor)
	sealed  bool
)

// Register adds a target descriptor under its own Name. Call only from
// backend package init() functions, before Seal is called — registering
// after Seal returns an Internal error, since the registry is meant to
// be process-wide and immutable once a session begins (spec.md §4.H).
func Register(d *target.Descriptor) error {
	mu.Lock()
	defer mu.Unlock()
	if sealed {
		return coilerr.New(coilerr.Internal, "target registry is sealed; cannot register %q", d.Name)
	}
	if _, exists := targets[d.Name]; exists {
		return coilerr.New(coilerr.DuplicateName, "target %q already registered", d.Name)
	}
	targets[d.Name] = d
	return nil
}

// Seal freezes the registry. The driver calls this once, after every
// backend package has had a chance to register itself via init(), and
// before the first compilation session starts.
func Seal() { mu.Lock(); sealed = true; mu.Unlock() }

// ByName looks up a registered descriptor.
func ByName(name string) (*target.Descriptor, error) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := targets[name]
	if !ok {
		return nil, coilerr.New(coilerr.UnknownName, "target %q not registered", name)
	}
	return d, nil
}

// All returns every registered descriptor, in no defined order.
func All() []*target.Descriptor {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]*target.Descriptor, 0, len(targets))
	for _, d := range targets {
		out = append(out, d)
	}
	return out
}

// HasFeature reports whether the named target has the named feature,
// returning UnknownName if the target itself isn't registered.
func HasFeature(name string, f target.Feature) (bool, error) {
	d, err := ByName(name)
	if err != nil {
		return false, err
	}
	return d.HasFeature(f), nil
}

// CreateContext builds a fresh session-scoped Context for the named
// target, running the backend's Initialize hook.
func CreateContext(name string) (*target.Context, error) {
	d, err := ByName(name)
	if err != nil {
		return nil, err
	}
	ctx := target.NewContext(d)
	if d.Backend != nil {
		if err := d.Backend.Initialize(ctx); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

// DestroyContext runs the backend's Finalize hook for ctx.
func DestroyContext(ctx *target.Context) error {
	if ctx.Descriptor.Backend != nil {
		return ctx.Descriptor.Backend.Finalize(ctx)
	}
	return nil
}

// resetForTest clears the registry's contents and seal state. The tests
// in this package call it at the start of each test; it is unexported to
// the rest of the module.
func resetForTest() {
	mu.Lock()
	defer mu.Unlock()
	targets = make(map[string]*target.Descriptor)
	sealed = false
}
