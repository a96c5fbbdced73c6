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

// Package emit is the code emitter of spec.md §4.I: a grow-on-demand
// byte buffer plus a symbol table and a relocation table, finalized into
// a relocatable "object" container (magic 0x434F494C "COIL").
//
// Grounded on the teacher's compile/codegen/asm_x86.go byte-sink idiom
// (a []byte buffer instructions are appended to directly), generalized
// into a standalone, target-agnostic emitter with symbol/relocation
// bookkeeping the teacher never needed (falcon emits straight to an ELF
// object via a third-party assembler instead of its own container).
package emit

import (
	"encoding/binary"

	"coil/internal/coilerr"
)

// Magic is the object container's 4-byte identifier, "COIL" read as a
// big-endian uint32 (0x434F494C); it is written little-endian, so the
// first four bytes of a container are "LIOC", per spec.md §4.I.
const Magic uint32 = 0x434F494C

// Version is the container format version this package writes.
const Version uint32 = 1

// maxSymbols bounds the symbol table so add_symbol can report a concrete
// capacity failure instead of growing without limit (spec.md §4.I).
const maxSymbols = 1 << 20

// RelocationKind names how a relocation's target bytes are patched.
type RelocationKind uint8

const (
	RelAbsolute64 RelocationKind = iota
	RelPCRelative32
)

// Symbol is one entry of the symbol table: a name bound to a byte offset
// into the code buffer.
type Symbol struct {
	Name   string
	Offset uint64
}

// Relocation records a site in the code buffer that must be patched
// against a symbol at link time.
type Relocation struct {
	Offset uint64
	Symbol uint32 // index into the symbol table
	Kind   RelocationKind
	Addend int64
}

// Emitter accumulates code bytes, symbols and relocations for one
// compilation unit. The buffer starts at 64 KiB and doubles whenever it
// would overflow, per spec.md §4.I.
type Emitter struct {
	buf         []byte
	symbols     []Symbol
	relocations []Relocation
	byName      map[string]int
}

// New creates an Emitter with a 64 KiB initial code buffer.
func New() *Emitter {
	return &Emitter{
		buf:    make([]byte, 0, 64*1024),
		byName: make(map[string]int),
	}
}

func (e *Emitter) grow(extra int) {
	need := len(e.buf) + extra
	if need <= cap(e.buf) {
		return
	}
	newCap := cap(e.buf)
	if newCap == 0 {
		newCap = 64 * 1024
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]byte, len(e.buf), newCap)
	copy(grown, e.buf)
	e.buf = grown
}

// Write appends raw bytes to the code buffer, growing it first if needed.
func (e *Emitter) Write(p []byte) {
	e.grow(len(p))
	e.buf = append(e.buf, p...)
}

func (e *Emitter) EmitU8(v uint8) { e.Write([]byte{v}) }

func (e *Emitter) EmitU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.Write(b[:])
}

func (e *Emitter) EmitU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.Write(b[:])
}

func (e *Emitter) EmitU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.Write(b[:])
}

// AddSymbol binds name to the code buffer's current length (its offset),
// returning the symbol's index for use in relocations. Names must be
// unique within one Emitter.
func (e *Emitter) AddSymbol(name string) (int, error) {
	if _, exists := e.byName[name]; exists {
		return 0, coilerr.New(coilerr.DuplicateName, "symbol %q already defined", name)
	}
	if len(e.symbols) >= maxSymbols {
		return 0, coilerr.New(coilerr.OutOfMemory, "symbol table full at %d entries", maxSymbols)
	}
	idx := len(e.symbols)
	e.symbols = append(e.symbols, Symbol{Name: name, Offset: uint64(len(e.buf))})
	e.byName[name] = idx
	return idx, nil
}

// AddRelocation records a patch site against symbolIdx.
func (e *Emitter) AddRelocation(symbolIdx int, kind RelocationKind, addend int64) error {
	if symbolIdx < 0 || symbolIdx >= len(e.symbols) {
		return coilerr.New(coilerr.UnknownName, "relocation references unknown symbol index %d", symbolIdx)
	}
	e.relocations = append(e.relocations, Relocation{
		Offset: uint64(len(e.buf)),
		Symbol: uint32(symbolIdx),
		Kind:   kind,
		Addend: addend,
	})
	return nil
}

// GetBuffer returns the code bytes written so far (read-only view).
func (e *Emitter) GetBuffer() []byte { return e.buf }

func (e *Emitter) SymbolCount() int     { return len(e.symbols) }
func (e *Emitter) RelocationCount() int { return len(e.relocations) }
