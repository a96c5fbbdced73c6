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
package emit

import "encoding/binary"

// Finalize serializes the accumulated code, symbol table and relocation
// table into the object container format of spec.md §4.I:
//
//	magic (u32) | version (u32) | timestamp (u64)
//	code_len (u32) | code bytes
//	symbol_count (u32) | { name_len (u32) | name bytes | offset (u64) } *
//	relocation_count (u32) | { offset (u64) | symbol_index (u32) | kind (u8) | addend (i64) } *
//
// timestamp is supplied by the caller (the driver stamps the current
// build time) rather than read internally, keeping Finalize itself
// deterministic and independently testable.
func (e *Emitter) Finalize(timestamp uint64) []byte {
	out := make([]byte, 0, len(e.buf)+64)
	var b4 [4]byte
	var b8 [8]byte

	binary.LittleEndian.PutUint32(b4[:], Magic)
	out = append(out, b4[:]...)
	binary.LittleEndian.PutUint32(b4[:], Version)
	out = append(out, b4[:]...)
	binary.LittleEndian.PutUint64(b8[:], timestamp)
	out = append(out, b8[:]...)

	binary.LittleEndian.PutUint32(b4[:], uint32(len(e.buf)))
	out = append(out, b4[:]...)
	out = append(out, e.buf...)

	binary.LittleEndian.PutUint32(b4[:], uint32(len(e.symbols)))
	out = append(out, b4[:]...)
	for _, sym := range e.symbols {
		binary.LittleEndian.PutUint32(b4[:], uint32(len(sym.Name)))
		out = append(out, b4[:]...)
		out = append(out, []byte(sym.Name)...)
		binary.LittleEndian.PutUint64(b8[:], sym.Offset)
		out = append(out, b8[:]...)
	}

	binary.LittleEndian.PutUint32(b4[:], uint32(len(e.relocations)))
	out = append(out, b4[:]...)
	for _, rel := range e.relocations {
		binary.LittleEndian.PutUint64(b8[:], rel.Offset)
		out = append(out, b8[:]...)
		binary.LittleEndian.PutUint32(b4[:], rel.Symbol)
		out = append(out, b4[:]...)
		out = append(out, byte(rel.Kind))
		binary.LittleEndian.PutUint64(b8[:], uint64(rel.Addend))
		out = append(out, b8[:]...)
	}
	return out
}

// ParseObject is the Finalize inverse, used by tests and tooling to
// verify the container round-trips (spec.md §8's container-format
// property).
func ParseObject(data []byte) (magic, version uint32, timestamp uint64, code []byte, symbols []Symbol, relocations []Relocation, ok bool) {
	r := &reader{data: data}
	magic = r.u32()
	version = r.u32()
	timestamp = r.u64()
	codeLen := r.u32()
	code = r.bytes(int(codeLen))

	symCount := r.u32()
	symbols = make([]Symbol, 0, symCount)
	for i := uint32(0); i < symCount; i++ {
		nameLen := r.u32()
		name := string(r.bytes(int(nameLen)))
		offset := r.u64()
		symbols = append(symbols, Symbol{Name: name, Offset: offset})
	}

	relCount := r.u32()
	relocations = make([]Relocation, 0, relCount)
	for i := uint32(0); i < relCount; i++ {
		offset := r.u64()
		symIdx := r.u32()
		kind := RelocationKind(r.u8())
		addend := int64(r.u64())
		relocations = append(relocations, Relocation{Offset: offset, Symbol: symIdx, Kind: kind, Addend: addend})
	}
	return magic, version, timestamp, code, symbols, relocations, !r.overran
}

type reader struct {
	data    []byte
	pos     int
	overran bool
}

func (r *reader) bytes(n int) []byte {
	if r.pos+n > len(r.data) {
		r.overran = true
		r.pos = len(r.data)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if len(b) < 1 {
		return 0
	}
	return b[0]
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.bytes(8)
	if len(b) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}
