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

package compiler

import (
	"strconv"

	"github.com/duongddinh/apelang/bytecode"
	"github.com/duongddinh/apelang/token"
)

// precedence orders the operators from loosest- to tightest-binding.
// Each step up the ladder is exactly one more than the last, so
// "one level tighter than X" is just X+1.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // yellow
	precAnd                   // ripe
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // ooh aah
	precFactor                // eek ook
	precUnary                 // ! -
	precCall                  // () []
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LParen:   {prefix: grouping, infix: call, prec: precCall},
		token.LBracket: {prefix: bunchLiteral, infix: subscript, prec: precCall},
		token.LBrace:   {prefix: canopyLiteral, prec: precNone},

		token.Number:   {prefix: number, prec: precNone},
		token.String:   {prefix: stringLit, prec: precNone},
		token.Ident:    {prefix: variable, prec: precNone},
		token.True:     {prefix: literal, prec: precNone},
		token.False:    {prefix: literal, prec: precNone},
		token.Nil:      {prefix: literal, prec: precNone},
		token.Ask:      {prefix: ask, prec: precNone},
		token.Forage:   {prefix: forage, prec: precNone},
		token.Inscribe: {prefix: inscribe, prec: precNone},

		token.Not: {prefix: unary, prec: precNone},
		token.Aah: {prefix: unary, infix: binary, prec: precTerm},
		token.Ooh: {infix: binary, prec: precTerm},
		token.Eek: {infix: binary, prec: precFactor},
		token.Ook: {infix: binary, prec: precFactor},

		token.Equal:     {infix: binary, prec: precEquality},
		token.NotEq:     {infix: binary, prec: precEquality},
		token.Less:      {infix: binary, prec: precComparison},
		token.Greater:   {infix: binary, prec: precComparison},
		token.LessEq:    {infix: binary, prec: precComparison},
		token.GreaterEq: {infix: binary, prec: precComparison},

		token.Ripe:   {infix: and_, prec: precAnd},
		token.Yellow: {infix: or_, prec: precOr},
	}
}

func (c *Compiler) getRule(k token.Kind) parseRule {
	if r, ok := rules[k]; ok {
		return r
	}
	return parseRule{}
}

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	rule := c.getRule(c.prev.Kind)
	if rule.prefix == nil {
		c.error("expected expression")
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for prec <= c.getRule(c.cur.Kind).prec {
		c.advance()
		infix := c.getRule(c.prev.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.Assign) {
		c.error("invalid assignment target")
	}
}

func number(c *Compiler, _ bool) {
	v, err := strconv.ParseFloat(c.prev.Lexeme, 64)
	if err != nil {
		c.error("malformed number literal")
		return
	}
	c.emitConstantNumber(v)
}

func stringLit(c *Compiler, _ bool) {
	c.emitConstantString(c.prev.Lexeme)
}

func literal(c *Compiler, _ bool) {
	switch c.prev.Kind {
	case token.True:
		c.emitOp(bytecode.OpTrue)
	case token.False:
		c.emitOp(bytecode.OpFalse)
	case token.Nil:
		c.emitOp(bytecode.OpNil)
	}
}

func ask(c *Compiler, _ bool) {
	c.emitOp(bytecode.OpAsk)
}

// forage compiles `forage path`: the file's text, or nil when it cannot be
// read.
func forage(c *Compiler, _ bool) {
	c.parsePrecedence(precUnary)
	c.emitOp(bytecode.OpForage)
}

// inscribe compiles `inscribe path, content`: true when the write
// succeeded.
func inscribe(c *Compiler, _ bool) {
	c.parsePrecedence(precUnary)
	c.consume(token.Comma, "expected ',' after inscribe path")
	c.parsePrecedence(precUnary)
	c.emitOp(bytecode.OpInscribe)
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RParen, "expected ')' after expression")
}

// unary compiles `!x` directly via OP_NOT, and `-x` as `0 - x` via
// OP_SUB: the opcode set has no dedicated negate, and 0 minus the operand
// produces the same result through the existing binary-arithmetic path.
func unary(c *Compiler, _ bool) {
	op := c.prev.Kind
	if op == token.Aah {
		c.emitConstantNumber(0)
	}
	c.parsePrecedence(precUnary)
	switch op {
	case token.Not:
		c.emitOp(bytecode.OpNot)
	case token.Aah:
		c.emitOp(bytecode.OpSub)
	}
}

// binary compiles a left-associative infix operator: the left operand is
// already on the stack, so it parses the right at one precedence level
// tighter and emits the opcode (or, for the composite comparisons the
// opcode table has no direct instruction for, an opcode pair).
func binary(c *Compiler, _ bool) {
	op := c.prev.Kind
	rule := c.getRule(op)
	c.parsePrecedence(rule.prec + 1)

	switch op {
	case token.Ooh:
		c.emitOp(bytecode.OpAdd)
	case token.Aah:
		c.emitOp(bytecode.OpSub)
	case token.Eek:
		c.emitOp(bytecode.OpMul)
	case token.Ook:
		c.emitOp(bytecode.OpDiv)
	case token.Equal:
		c.emitOp(bytecode.OpEqual)
	case token.NotEq:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case token.Greater:
		c.emitOp(bytecode.OpGreater)
	case token.Less:
		c.emitOp(bytecode.OpLess)
	case token.GreaterEq:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case token.LessEq:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	}
}

// and_ compiles `ripe` (logical and). The opcode set has no OP_DUP, so
// OP_JUMP_IF_FALSE's condition (which it pops, not peeks) cannot be
// reused as the expression's result. A falsy left operand yields false (so
// `nil ripe x` is false, not nil); a truthy one yields the right operand's
// value unchanged.
func and_(c *Compiler, _ bool) {
	falseJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.parsePrecedence(precAnd + 1)
	endJump := c.emitJump(bytecode.OpJump)

	c.patchJump(falseJump)
	c.emitOp(bytecode.OpFalse)

	c.patchJump(endJump)
}

// or_ compiles `yellow` (logical or); see and_ for why it doesn't keep the
// left operand's value. A truthy left operand yields true (so `1 yellow x`
// is true, not 1); a falsy one yields the right operand's value unchanged.
func or_(c *Compiler, _ bool) {
	falseJump := c.emitJump(bytecode.OpJumpIfFalse)
	trueJump := c.emitJump(bytecode.OpJump)

	c.patchJump(falseJump)
	c.parsePrecedence(precOr + 1)
	endJump := c.emitJump(bytecode.OpJump)

	c.patchJump(trueJump)
	c.emitOp(bytecode.OpTrue)

	c.patchJump(endJump)
}

// variable compiles an identifier reference, resolving it to a local slot
// or falling back to a global lookup by name. When canAssign and the next
// token is '=', it compiles an assignment instead: the store opcodes peek
// rather than pop, so the assigned value remains as the expression result.
func variable(c *Compiler, canAssign bool) {
	name := c.prev.Lexeme
	slot, isLocal := c.resolveLocal(name)

	if canAssign && c.match(token.Assign) {
		c.expression()
		if isLocal {
			c.emitOp(bytecode.OpSetLocal)
			c.emitByte(byte(slot))
		} else {
			c.emitOp(bytecode.OpSetGlobal)
			c.emitString(name)
		}
		return
	}

	if isLocal {
		c.emitOp(bytecode.OpGetLocal)
		c.emitByte(byte(slot))
	} else {
		c.emitOp(bytecode.OpGetGlobal)
		c.emitString(name)
	}
}

// call compiles the argument list of a call expression; the callee is
// already on the stack from the primary that was just parsed.
func call(c *Compiler, _ bool) {
	argc := 0
	if !c.check(token.RParen) {
		for {
			c.expression()
			argc++
			if argc > 255 {
				c.error("too many call arguments")
			}
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RParen, "expected ')' after arguments")
	c.emitOp(bytecode.OpCall)
	c.emitByte(byte(argc))
}

// subscript compiles `[index]`, the collection already on the stack. When
// canAssign and the next token is '=', it compiles a subscript-set
// instead: the stack order (collection, index, value) matches what
// OP_SET_SUBSCRIPT expects.
func subscript(c *Compiler, canAssign bool) {
	c.expression()
	c.consume(token.RBracket, "expected ']' after subscript")

	if canAssign && c.match(token.Assign) {
		c.expression()
		c.emitOp(bytecode.OpSetSubscript)
		return
	}
	c.emitOp(bytecode.OpGetSubscript)
}

// bunchLiteral compiles `[e1, e2, ...]`, pushing each element before the
// terminal OP_BUILD_BUNCH.
func bunchLiteral(c *Compiler, _ bool) {
	n := 0
	if !c.check(token.RBracket) {
		for {
			c.expression()
			n++
			if n > 255 {
				c.error("too many bunch elements")
			}
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RBracket, "expected ']' after bunch literal")
	c.emitOp(bytecode.OpBuildBunch)
	c.emitByte(byte(n))
}

// canopyLiteral compiles `{"k": v, ...}`, pushing each key then value
// before the terminal OP_BUILD_CANOPY. Keys must be string literals; the
// VM also enforces string-keyed canopies at OP_BUILD_CANOPY time.
func canopyLiteral(c *Compiler, _ bool) {
	n := 0
	if !c.check(token.RBrace) {
		for {
			c.consume(token.String, "expected string key in canopy literal")
			c.emitConstantString(c.prev.Lexeme)
			c.consume(token.Colon, "expected ':' after canopy key")
			c.expression()
			n++
			if n > 255 {
				c.error("too many canopy entries")
			}
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RBrace, "expected '}' after canopy literal")
	c.emitOp(bytecode.OpBuildCanopy)
	c.emitByte(byte(n))
}
