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
package frontend

import (
	"io"
	"strconv"
	"strings"

	"coil/internal/coilerr"
	"coil/internal/ir"
	"coil/internal/typesys"
)

// Program is the result of reading one textual IR assembly unit: an
// ordered list of functions, in source order.
type Program struct {
	Functions []*ir.Function
}

// Read parses a textual IR assembly stream into a Program. Grammar:
//
//	program  := function*
//	function := "func" "@" ident "(" params? ")" "->" type "{" block+ "}"
//	params   := param ("," param)*
//	param    := type vreg
//	block    := ident ":" instr*
//	instr    := (vreg "=" type)? mnemonic operand ("," operand)*
//	operand  := vreg | ["-"] number | "@" ident
//	type     := "void" | "bool" | ("i"|"u") number | "f" number | "ptr" "<" type ">"
//
// Only result-producing instructions carry a type; a non-result
// instruction's operand types are resolved from the symbol table built
// from parameter declarations and prior result assignments, and its
// immediates (if any) take the function's declared return type.
func Read(r io.Reader, file string, sys *typesys.System) (*Program, error) {
	p := &parser{toks: tokenize(r), file: file, sys: sys}
	return p.parseProgram()
}

type parser struct {
	toks []token
	pos  int
	file string
	sys  *typesys.System

	nextFnID int
}

func (p *parser) cur() token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token{kind: tkEOF}
}

func (p *parser) peekAt(offset int) token {
	if p.pos+offset < len(p.toks) {
		return p.toks[p.pos+offset]
	}
	return token{kind: tkEOF}
}

func (p *parser) advance() token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) errAt(t token, format string, args ...any) error {
	loc := p.file + ":" + strconv.Itoa(t.line) + ":" + strconv.Itoa(t.column)
	return coilerr.New(coilerr.BadEncoding, "%s: "+format, append([]any{loc}, args...)...)
}

func (p *parser) expectIdent(text string) error {
	if c := p.cur(); c.kind != tkIdent || c.text != text {
		return p.errAt(c, "expected %q, got %q", text, c.text)
	}
	p.advance()
	return nil
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	c := p.cur()
	if c.kind != kind {
		return token{}, p.errAt(c, "expected %s, got %q", what, c.text)
	}
	return p.advance(), nil
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{}
	for p.cur().kind != tkEOF {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}
	return prog, nil
}

func (p *parser) parseVRegNumber(text string, t token) (int, error) {
	if len(text) < 2 || text[0] != 'v' {
		return 0, p.errAt(t, "expected a virtual register like \"v0\", got %q", text)
	}
	n, err := strconv.Atoi(text[1:])
	if err != nil {
		return 0, p.errAt(t, "invalid virtual register %q", text)
	}
	return n, nil
}

func (p *parser) parseType() (typesys.Word, error) {
	t, err := p.expect(tkIdent, "a type")
	if err != nil {
		return 0, err
	}
	switch {
	case t.text == "void":
		return p.sys.Primitive(typesys.Void, 0, 0)
	case t.text == "bool":
		return p.sys.Primitive(typesys.Bool, 1, 0)
	case t.text == "ptr":
		if _, err := p.expect(tkLess, "'<'"); err != nil {
			return 0, err
		}
		inner, err := p.parseType()
		if err != nil {
			return 0, err
		}
		if _, err := p.expect(tkGreater, "'>'"); err != nil {
			return 0, err
		}
		return p.sys.Pointer(inner, 0)
	case strings.HasPrefix(t.text, "i") || strings.HasPrefix(t.text, "u"):
		width, err := strconv.Atoi(t.text[1:])
		if err != nil {
			return 0, p.errAt(t, "invalid integer type %q", t.text)
		}
		var q typesys.Qualifier
		if t.text[0] == 'u' {
			q = typesys.QualUnsigned
		}
		return p.sys.Primitive(typesys.Integer, uint32(width), q)
	case strings.HasPrefix(t.text, "f"):
		width, err := strconv.Atoi(t.text[1:])
		if err != nil {
			return 0, p.errAt(t, "invalid float type %q", t.text)
		}
		return p.sys.Primitive(typesys.Float, uint32(width), 0)
	default:
		return 0, p.errAt(t, "unrecognized type %q", t.text)
	}
}

type funcScope struct {
	types  map[int]typesys.Word
	blocks map[string]*ir.Block
	retTy  typesys.Word
}

func (p *parser) parseFunction() (*ir.Function, error) {
	if err := p.expectIdent("func"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tkAt, "'@'"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tkIdent, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tkLParen, "'('"); err != nil {
		return nil, err
	}

	scope := &funcScope{types: make(map[int]typesys.Word), blocks: make(map[string]*ir.Block)}
	var paramVRegs []int
	var paramTypes []typesys.Word
	for p.cur().kind != tkRParen {
		if len(paramVRegs) > 0 {
			if _, err := p.expect(tkComma, "','"); err != nil {
				return nil, err
			}
		}
		pt, err := p.parseType()
		if err != nil {
			return nil, err
		}
		vt, err := p.expect(tkIdent, "a parameter register")
		if err != nil {
			return nil, err
		}
		vreg, err := p.parseVRegNumber(vt.text, vt)
		if err != nil {
			return nil, err
		}
		scope.types[vreg] = pt
		paramVRegs = append(paramVRegs, vreg)
		paramTypes = append(paramTypes, pt)
	}
	if _, err := p.expect(tkRParen, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tkArrow, "'->'"); err != nil {
		return nil, err
	}
	retType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	scope.retTy = retType
	fnType, err := p.sys.FuncType(retType, paramTypes, false)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tkLBrace, "'{'"); err != nil {
		return nil, err
	}

	fn := ir.NewFunction(p.nextFnID, nameTok.text, fnType)
	p.nextFnID++
	fn.ParamVirtualRegs = paramVRegs

	// Declare every block before parsing any instruction, so a forward
	// branch resolves regardless of source order.
	for i := p.pos; ; i++ {
		if i >= len(p.toks) || p.toks[i].kind == tkRBrace || p.toks[i].kind == tkEOF {
			break
		}
		if p.toks[i].kind == tkIdent && i+1 < len(p.toks) && p.toks[i+1].kind == tkColon {
			b := fn.NewBlock(p.toks[i].text)
			scope.blocks[p.toks[i].text] = b
		}
	}

	var cur *ir.Block
	for p.cur().kind != tkRBrace {
		if p.cur().kind == tkEOF {
			return nil, p.errAt(p.cur(), "unexpected end of input inside function %q", nameTok.text)
		}
		if p.cur().kind == tkIdent && p.peekAt(1).kind == tkColon {
			label := p.advance().text
			p.advance() // ':'
			cur = scope.blocks[label]
			continue
		}
		if cur == nil {
			return nil, p.errAt(p.cur(), "instruction outside any block")
		}
		in, err := p.parseInstruction(scope)
		if err != nil {
			return nil, err
		}
		cur.Append(in)
	}
	if _, err := p.expect(tkRBrace, "'}'"); err != nil {
		return nil, err
	}

	fn.RecomputeEdges()
	return fn, nil
}

var mnemonics = map[string]ir.Opcode{
	"add": ir.ADD, "sub": ir.SUB, "mul": ir.MUL, "div": ir.DIV, "mod": ir.MOD, "neg": ir.NEG,
	"and": ir.AND, "or": ir.OR, "xor": ir.XOR, "not": ir.NOT, "shl": ir.SHL, "shr": ir.SHR, "ashr": ir.ASHR,
	"eq": ir.CMP_EQ, "ne": ir.CMP_NE, "lt": ir.CMP_LT, "le": ir.CMP_LE, "gt": ir.CMP_GT, "ge": ir.CMP_GE,
	"br": ir.BR, "brcond": ir.BR_COND, "switch": ir.SWITCH, "ret": ir.RET, "unreachable": ir.UNREACHABLE, "call": ir.CALL,
	"load": ir.LOAD, "store": ir.STORE, "lea": ir.LEA,
	"trunc": ir.TRUNC, "zext": ir.ZEXT, "sext": ir.SEXT, "fptoint": ir.FPTOINT, "inttofp": ir.INTTOFP, "bitcast": ir.BITCAST,
	"vecbuild": ir.VEC_BUILD, "vecextract": ir.VEC_EXTRACT, "vecinsert": ir.VEC_INSERT,
	"atomicload": ir.ATOMIC_LOAD, "atomicstore": ir.ATOMIC_STORE, "atomiccas": ir.ATOMIC_CAS, "atomicrmw": ir.ATOMIC_RMW,
	"fence": ir.FENCE, "nop": ir.NOP, "phi": ir.PHI, "copy": ir.COPY,
}

// producesResult lists opcodes whose textual form is "vN = <type> mnemonic operands...".
var producesResult = map[ir.Opcode]bool{
	ir.ADD: true, ir.SUB: true, ir.MUL: true, ir.DIV: true, ir.MOD: true, ir.NEG: true,
	ir.AND: true, ir.OR: true, ir.XOR: true, ir.NOT: true, ir.SHL: true, ir.SHR: true, ir.ASHR: true,
	ir.CMP_EQ: true, ir.CMP_NE: true, ir.CMP_LT: true, ir.CMP_LE: true, ir.CMP_GT: true, ir.CMP_GE: true,
	ir.LOAD: true, ir.LEA: true, ir.CALL: true,
	ir.TRUNC: true, ir.ZEXT: true, ir.SEXT: true, ir.FPTOINT: true, ir.INTTOFP: true, ir.BITCAST: true,
	ir.VEC_BUILD: true, ir.VEC_EXTRACT: true, ir.VEC_INSERT: true,
	ir.ATOMIC_LOAD: true, ir.ATOMIC_CAS: true, ir.ATOMIC_RMW: true, ir.COPY: true, ir.PHI: true,
}

func (p *parser) parseInstruction(scope *funcScope) (*ir.Instruction, error) {
	var resultVReg int
	var hasResult bool
	var resultType typesys.Word

	if p.cur().kind == tkIdent && strings.HasPrefix(p.cur().text, "v") && p.peekAt(1).kind == tkEquals {
		vt := p.advance()
		vreg, err := p.parseVRegNumber(vt.text, vt)
		if err != nil {
			return nil, err
		}
		p.advance() // '='
		resultType, err = p.parseType()
		if err != nil {
			return nil, err
		}
		scope.types[vreg] = resultType
		resultVReg, hasResult = vreg, true
	}

	opTok, err := p.expect(tkIdent, "an opcode mnemonic")
	if err != nil {
		return nil, err
	}
	opcode, ok := mnemonics[opTok.text]
	if !ok {
		return nil, p.errAt(opTok, "unknown opcode %q", opTok.text)
	}
	if hasResult && !producesResult[opcode] {
		return nil, p.errAt(opTok, "opcode %q never produces a result", opTok.text)
	}

	ctxType := resultType
	if !hasResult {
		ctxType = scope.retTy
	}

	var operands []ir.Operand
	for opcode.Arity() != 0 && p.cur().kind != tkRBrace && !(p.cur().kind == tkIdent && p.peekAt(1).kind == tkColon) {
		if len(operands) > 0 {
			if p.cur().kind != tkComma {
				break
			}
			p.advance()
		}
		op, err := p.parseOperand(scope, ctxType)
		if err != nil {
			return nil, err
		}
		operands = append(operands, op)
		if p.cur().kind != tkComma {
			break
		}
	}

	result := ir.Operand{}
	if hasResult {
		result = ir.Register(resultVReg, resultType)
	}

	if opcode.Arity() < 0 {
		return ir.NewVariadicInstruction(opcode, 0, resultType, result, hasResult, operands...)
	}
	return ir.NewInstruction(opcode, 0, resultType, result, hasResult, operands...)
}

func (p *parser) parseOperand(scope *funcScope, ctxType typesys.Word) (ir.Operand, error) {
	switch p.cur().kind {
	case tkAt:
		p.advance()
		lbl, err := p.expect(tkIdent, "a block label")
		if err != nil {
			return ir.Operand{}, err
		}
		b, ok := scope.blocks[lbl.text]
		if !ok {
			return ir.Operand{}, p.errAt(lbl, "undefined block %q", lbl.text)
		}
		return ir.BlockRef(b.ID), nil
	case tkMinus, tkNumber:
		neg := false
		if p.cur().kind == tkMinus {
			neg = true
			p.advance()
		}
		numTok, err := p.expect(tkNumber, "an integer literal")
		if err != nil {
			return ir.Operand{}, err
		}
		n, err := strconv.ParseInt(numTok.text, 10, 64)
		if err != nil {
			return ir.Operand{}, p.errAt(numTok, "invalid integer literal %q", numTok.text)
		}
		if neg {
			n = -n
		}
		return ir.Immediate(n, ctxType), nil
	case tkIdent:
		vt := p.advance()
		vreg, err := p.parseVRegNumber(vt.text, vt)
		if err != nil {
			return ir.Operand{}, err
		}
		t, ok := scope.types[vreg]
		if !ok {
			return ir.Operand{}, p.errAt(vt, "use of undeclared register %q", vt.text)
		}
		return ir.Register(vreg, t), nil
	default:
		return ir.Operand{}, p.errAt(p.cur(), "expected an operand, got %q", p.cur().text)
	}
}
