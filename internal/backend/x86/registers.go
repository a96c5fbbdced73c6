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

// Package x86 is the x86-64 backend of spec.md §4.H/§4.I: a target
// Descriptor, an isel pattern table, and CPU feature detection.
// Grounded on the teacher's compile/codegen/arch_x86.go (named register
// constants RAX..R15, XMM0..XMM15) and register_x86.go's contiguous
// physical-register index numbering (RAX_=0 .. R15_=13, then RBP_/RSP_),
// generalized into the target.Backend contract so the driver can select
// this package (or another) by name rather than having it hard-wired.
package x86

// generalRegNames mirrors register_x86.go's physical_reg index order:
// the 14 general-purpose integer registers available for allocation
// (RSP/RBP are reserved for the frame and excluded, as the teacher's
// register allocator also implicitly assumes by never spilling into
// them).
var generalRegNames = []string{
	"rax", "rbx", "rcx", "rdx", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

var floatRegNames = []string{
	"xmm0", "xmm1", "xmm2", "xmm3", "xmm4", "xmm5", "xmm6", "xmm7",
	"xmm8", "xmm9", "xmm10", "xmm11", "xmm12", "xmm13", "xmm14", "xmm15",
}

const (
	numGeneralRegs = len(generalRegNames)
	numFloatRegs   = len(floatRegNames)
)

func generalRegName(idx int) string {
	if idx < 0 || idx >= len(generalRegNames) {
		return "spill"
	}
	return generalRegNames[idx]
}

func floatRegName(idx int) string {
	if idx < 0 || idx >= len(floatRegNames) {
		return "spill"
	}
	return floatRegNames[idx]
}
