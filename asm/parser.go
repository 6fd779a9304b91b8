// This file is part of ape - https://github.com/duongddinh/apelang
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package asm

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/scanner"
	"unicode"

	"github.com/duongddinh/apelang/bytecode"
)

// Maximum number of errors to report.
const maxErrors = 10

// ErrAsm is the error type returned by Assemble. Each entry points at the
// source position that produced it.
type ErrAsm []struct {
	Pos scanner.Position
	Msg string
}

func (e ErrAsm) Error() string {
	var b strings.Builder
	for i, it := range e {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", it.Pos, it.Msg)
	}
	return b.String()
}

// patchKind selects how a label use is written back once the label's
// offset is known, mirroring the wire format's three jump encodings.
type patchKind int

const (
	patchForward  patchKind = iota // u16, relative to the byte after the operand
	patchBack                      // u16, back-relative
	patchAbsolute                  // u32, absolute within the stream
)

type labelUse struct {
	pos     scanner.Position
	operand int // Chunk offset of the placeholder to patch
	kind    patchKind
}

type label struct {
	pos    scanner.Position
	offset int // -1 until defined
	uses   []labelUse
}

// parser provides the parsing and assembling.
type parser struct {
	c          *bytecode.Chunk
	s          scanner.Scanner
	labels     map[string]*label
	errs       ErrAsm
	lastIsHalt bool
}

func newParser() *parser {
	return &parser{
		c:      bytecode.New(),
		labels: make(map[string]*label),
	}
}

// helper to build ErrAsm items.
func parseError(pos scanner.Position, msg string) struct {
	Pos scanner.Position
	Msg string
} {
	return struct {
		Pos scanner.Position
		Msg string
	}{pos, msg}
}

// error appends an error to the internal error list at the current scanner
// position.
func (p *parser) error(msg string) {
	pos := p.s.Position
	if !pos.IsValid() {
		pos = p.s.Pos()
	}
	p.errs = append(p.errs, parseError(pos, msg))
}

// abort returns true if the parser should abort due to too many errors.
func (p *parser) abort() bool { return len(p.errs) >= maxErrors }

// Identifiers are mnemonics and label names; a leading ':' marks a label
// definition and is carried as part of the token.
func isIdentRune(ch rune, i int) bool {
	return ch == '_' || unicode.IsLetter(ch) ||
		(i > 0 && unicode.IsDigit(ch)) ||
		(i == 0 && ch == ':')
}

func (p *parser) parse(name string, r io.Reader) ([]byte, error) {
	p.s.Init(r)
	p.s.Error = func(s *scanner.Scanner, msg string) {
		pos := s.Position
		if !pos.IsValid() {
			pos = s.Pos()
		}
		p.errs = append(p.errs, parseError(pos, msg))
	}
	p.s.IsIdentRune = isIdentRune
	p.s.Mode = scanner.ScanIdents | scanner.ScanFloats | scanner.ScanStrings
	p.s.Filename = name

	for tok := p.s.Scan(); !p.abort() && tok != scanner.EOF; tok = p.s.Scan() {
		switch tok {
		case '#':
			p.skipComment()
		case scanner.Ident:
			s := p.s.TokenText()
			if s[0] == ':' {
				p.defineLabel(s[1:])
				continue
			}
			p.instruction(s)
		default:
			p.error("unexpected " + scanner.TokenString(tok))
		}
	}

	p.patchLabels()
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	if !p.lastIsHalt {
		return p.c.Finish(), nil
	}
	return p.c.Code, nil
}

func (p *parser) skipComment() {
	for ch := p.s.Next(); ch != '\n' && ch != scanner.EOF; ch = p.s.Next() {
	}
}

func (p *parser) defineLabel(name string) {
	if name == "" {
		p.error("empty label name")
		return
	}
	if l, ok := p.labels[name]; ok {
		if l.offset != -1 {
			p.error("label redefinition: " + name + ", previous definition here: " + l.pos.String())
			return
		}
		// forward declaration from an earlier use
		l.offset = p.c.Tell()
		l.pos = p.s.Position
		return
	}
	p.labels[name] = &label{pos: p.s.Position, offset: p.c.Tell()}
}

func (p *parser) instruction(s string) {
	p.lastIsHalt = false
	if s == haltMnemonic {
		p.c.WriteOp(bytecode.Terminator)
		p.lastIsHalt = true
		return
	}
	op, ok := opcodeIndex[s]
	if !ok {
		p.error("unknown instruction " + s)
		return
	}
	switch op {
	case bytecode.OpPush:
		p.pushOperand()
	case bytecode.OpJumpIfFalse, bytecode.OpJump, bytecode.OpTumbleSetup:
		p.c.WriteOp(op)
		p.labelOperand(patchForward)
	case bytecode.OpLoop:
		p.c.WriteOp(op)
		p.labelOperand(patchBack)
	case bytecode.OpJumpBack:
		p.c.WriteOp(op)
		p.labelOperand(patchAbsolute)
	case bytecode.OpGetGlobal, bytecode.OpSetGlobal:
		p.c.WriteOp(op)
		p.stringOperand()
	case bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpCall,
		bytecode.OpBuildBunch, bytecode.OpBuildCanopy:
		p.c.WriteOp(op)
		p.byteOperand()
	default:
		p.c.WriteOp(op)
	}
}

// pushOperand assembles the polymorphic operand of a push instruction:
// a number, a string, one of the literal words, or a function constant.
func (p *parser) pushOperand() {
	tok := p.s.Scan()
	neg := false
	if tok == '-' {
		neg = true
		tok = p.s.Scan()
	}
	switch tok {
	case scanner.Int, scanner.Float:
		v, err := strconv.ParseFloat(p.s.TokenText(), 64)
		if err != nil {
			p.error("malformed number " + p.s.TokenText())
			return
		}
		if neg {
			v = -v
		}
		p.c.WriteOp(bytecode.OpPush)
		p.c.WriteUint8(byte(bytecode.TagNumber))
		p.c.WriteFloat64(v)
	case scanner.String:
		if neg {
			p.error("unexpected - before string constant")
			return
		}
		s, err := strconv.Unquote(p.s.TokenText())
		if err != nil {
			p.error("malformed string " + p.s.TokenText())
			return
		}
		p.c.WriteOp(bytecode.OpPush)
		p.c.WriteUint8(byte(bytecode.TagObj))
		p.c.WriteUint8(byte(bytecode.ObjTagString))
		if _, err := p.c.WriteString(s); err != nil {
			p.error(err.Error())
		}
	case scanner.Ident:
		if neg {
			p.error("unexpected - before " + p.s.TokenText())
			return
		}
		switch p.s.TokenText() {
		case "nil":
			p.c.WriteOp(bytecode.OpPush)
			p.c.WriteUint8(byte(bytecode.TagNil))
		case "true", "false":
			v := p.s.TokenText() == "true"
			p.c.WriteOp(bytecode.OpPush)
			p.c.WriteUint8(byte(bytecode.TagBool))
			if v {
				p.c.WriteUint8(1)
			} else {
				p.c.WriteUint8(0)
			}
		case "tribe":
			p.functionOperand()
		default:
			p.error("push: expected a number, string, literal word, or tribe, got " + p.s.TokenText())
		}
	default:
		p.error("push: missing operand")
	}
}

// functionOperand assembles `push tribe "name" arity entrylabel`.
func (p *parser) functionOperand() {
	if p.s.Scan() != scanner.String {
		p.error("push tribe: expected the function name as a string, got " + p.s.TokenText())
		return
	}
	name, err := strconv.Unquote(p.s.TokenText())
	if err != nil {
		p.error("malformed string " + p.s.TokenText())
		return
	}
	arity, ok := p.intOperand(255)
	if !ok {
		return
	}
	p.c.WriteOp(bytecode.OpPush)
	p.c.WriteUint8(byte(bytecode.TagObj))
	p.c.WriteUint8(byte(bytecode.ObjTagFunction))
	p.c.WriteUint8(byte(arity))
	p.labelOperand(patchAbsolute)
	if _, err := p.c.WriteString(name); err != nil {
		p.error(err.Error())
	}
}

// labelOperand writes a placeholder of the kind's width and records the
// use for patching; the label itself may be defined before or after.
func (p *parser) labelOperand(kind patchKind) {
	var operand int
	if kind == patchAbsolute {
		operand = p.c.WriteUint32(0)
	} else {
		operand = p.c.WriteUint16(0)
	}
	if p.s.Scan() != scanner.Ident || p.s.TokenText()[0] == ':' {
		p.error("expected a label name, got " + p.s.TokenText())
		return
	}
	name := p.s.TokenText()
	l := p.labels[name]
	if l == nil {
		l = &label{pos: p.s.Position, offset: -1}
		p.labels[name] = l
	}
	l.uses = append(l.uses, labelUse{pos: p.s.Position, operand: operand, kind: kind})
}

func (p *parser) stringOperand() {
	if p.s.Scan() != scanner.String {
		p.error("expected a string operand, got " + p.s.TokenText())
		p.c.WriteUint8(0)
		return
	}
	s, err := strconv.Unquote(p.s.TokenText())
	if err != nil {
		p.error("malformed string " + p.s.TokenText())
		p.c.WriteUint8(0)
		return
	}
	if _, err := p.c.WriteString(s); err != nil {
		p.error(err.Error())
	}
}

func (p *parser) byteOperand() {
	n, ok := p.intOperand(255)
	if !ok {
		n = 0
	}
	p.c.WriteUint8(byte(n))
}

func (p *parser) intOperand(max int) (int, bool) {
	if p.s.Scan() != scanner.Int {
		p.error("expected an integer operand, got " + p.s.TokenText())
		return 0, false
	}
	n, err := strconv.Atoi(p.s.TokenText())
	if err != nil || n < 0 || n > max {
		p.error("integer operand out of range: " + p.s.TokenText())
		return 0, false
	}
	return n, true
}

// patchLabels writes every recorded label use back into the stream.
func (p *parser) patchLabels() {
	for name, l := range p.labels {
		for _, u := range l.uses {
			if p.abort() {
				return
			}
			if l.offset == -1 {
				p.errs = append(p.errs, parseError(u.pos, "undefined label "+name))
				continue
			}
			switch u.kind {
			case patchForward:
				rel := l.offset - (u.operand + 2)
				if rel < 0 || rel > 0xFFFF {
					p.errs = append(p.errs, parseError(u.pos, "forward jump to "+name+" out of range"))
					continue
				}
				p.c.OverwriteUint16(u.operand, uint16(rel))
			case patchBack:
				rel := (u.operand + 2) - l.offset
				if rel < 0 || rel > 0xFFFF {
					p.errs = append(p.errs, parseError(u.pos, "backward jump to "+name+" out of range"))
					continue
				}
				p.c.OverwriteUint16(u.operand, uint16(rel))
			case patchAbsolute:
				p.c.OverwriteUint32(u.operand, uint32(l.offset))
			}
		}
	}
}
