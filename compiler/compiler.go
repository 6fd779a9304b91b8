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

// Package compiler turns Ape source into a flat bytecode stream: a
// single-pass recursive-descent parser that emits directly to a
// bytecode.Chunk rather than building an intermediate tree. Every tribe
// declaration, no matter how deeply nested, is compiled inline into the
// same Chunk and jumped over at its declaration site; there is exactly one
// owning bytecode buffer per compilation unit.
package compiler

import (
	"fmt"
	"io"

	"github.com/duongddinh/apelang/bytecode"
	"github.com/duongddinh/apelang/lexer"
	"github.com/duongddinh/apelang/token"
)

// local is one entry in a funcState's fixed-capacity locals array: the
// name it was declared under and the scope depth it was declared at.
type local struct {
	name  string
	depth int
}

// funcState tracks the locals and scope depth of one function body being
// compiled. The outermost funcState (the script) starts at depth 0, where
// declarations become globals; every tribe's funcState starts at depth 1,
// so its parameters and top-level locals never leak into global scope.
// Slot 0 is always reserved for the callee's own function value, matching
// the VM's call convention (frame.slots points at the callee).
type funcState struct {
	enclosing  *funcState
	locals     [256]local
	localCount int
	scopeDepth int
	arity      int
	name       string
}

func newFuncState(enclosing *funcState, name string, startDepth int) *funcState {
	fn := &funcState{enclosing: enclosing, name: name, scopeDepth: startDepth}
	// Slot 0 holds the callee itself at runtime; naming it after the
	// function lets a tribe's body call itself recursively even when the
	// tribe was declared as a local of an enclosing scope.
	fn.locals[0] = local{name: name, depth: startDepth}
	fn.localCount = 1
	return fn
}

// Compiler is a single-use, single-pass Ape compiler. Construct one with
// New per compilation unit.
type Compiler struct {
	lex  *lexer.Lexer
	cur  token.Token
	prev token.Token

	chunk *bytecode.Chunk
	fn    *funcState

	diag      io.Writer
	filename  string
	hadError  bool
	panicking bool
}

// Compile compiles src into a flat, Terminator-ended bytecode stream.
// Compile-time errors are printed to diag (offending lexeme included) as
// they are found; the first one latches and later ones are suppressed to
// avoid cascades. ok is false if any error was reported.
func Compile(src []byte, filename string, diag io.Writer) (code []byte, ok bool) {
	c := &Compiler{
		lex:      lexer.New(src),
		chunk:    bytecode.New(),
		fn:       newFuncState(nil, "<script>", 0),
		diag:     diag,
		filename: filename,
	}
	c.advance()
	for !c.check(token.EOF) {
		c.declaration()
	}
	return c.chunk.Finish(), !c.hadError
}

func (c *Compiler) advance() {
	c.prev = c.cur
	for {
		c.cur = c.lex.Next()
		if c.cur.Kind != token.Error {
			return
		}
		c.errorAtCurrent(c.cur.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.cur.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, msg string) {
	if c.cur.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.cur, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.prev, msg) }

// errorAt reports a compile error at tok. Only the very first error across
// the whole compile is printed; panicking still latches on every error so
// synchronize can resync the parser, but everything after the first is a
// silent cascade the user never sees.
func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicking {
		return
	}
	c.panicking = true
	first := !c.hadError
	c.hadError = true
	if !first {
		return
	}
	if tok.Kind == token.EOF {
		fmt.Fprintf(c.diag, "%s:%d: %s at end of input\n", c.filename, tok.Line, msg)
		return
	}
	fmt.Fprintf(c.diag, "%s:%d: %s at %q\n", c.filename, tok.Line, msg, tok.Lexeme)
}

// synchronize skips tokens until it finds one that plausibly starts a new
// statement, so compilation can keep going far enough to catch further
// independent errors without emitting garbage bytecode for the broken one.
func (c *Compiler) synchronize() {
	c.panicking = false
	for !c.check(token.EOF) {
		switch c.cur.Kind {
		case token.Ape, token.Tribe, token.Tree, token.If, token.Banana,
			token.Swing, token.Tumble, token.Summon, token.Give:
			return
		}
		c.advance()
	}
}

// --- scopes and locals ---

func (c *Compiler) beginScope() { c.fn.scopeDepth++ }

// endScope pops every local declared at or below the scope just exited,
// emitting an OP_POP for each: locals are real stack slots, so leaving a
// block must actually discard them, not just forget about them at compile
// time.
func (c *Compiler) endScope() {
	c.fn.scopeDepth--
	for c.fn.localCount > 0 && c.fn.locals[c.fn.localCount-1].depth > c.fn.scopeDepth {
		c.emitByte(byte(bytecode.OpPop))
		c.fn.localCount--
	}
}

// declareVariable registers name in the current scope. At the script's
// top scope (depth 0) there is nothing to do here: globals need no
// compile-time bookkeeping, only a name carried inline with the opcode.
// Everywhere else it claims a local slot, rejecting redeclaration within
// the same block. The slot stays marked uninitialized (depth -1) until
// markInitialized, so the initializer cannot read the very local it is
// defining.
func (c *Compiler) declareVariable(name string) (isLocal bool, slot int) {
	if c.fn.scopeDepth == 0 {
		return false, 0
	}
	for i := c.fn.localCount - 1; i >= 0; i-- {
		l := c.fn.locals[i]
		if l.depth != -1 && l.depth < c.fn.scopeDepth {
			break
		}
		if l.name == name {
			c.error(fmt.Sprintf("%q is already declared in this scope", name))
			return true, i
		}
	}
	slot = c.addLocal(name)
	c.fn.locals[slot].depth = -1
	return true, slot
}

// markInitialized makes a declared local visible to resolveLocal. A local's
// value is whatever the initializer left on the stack: the declaration
// emits no store and no pop, the slot IS that stack position.
func (c *Compiler) markInitialized(slot int) {
	c.fn.locals[slot].depth = c.fn.scopeDepth
}

func (c *Compiler) addLocal(name string) int {
	if c.fn.localCount >= len(c.fn.locals) {
		c.error("too many locals in one function")
		return c.fn.localCount - 1
	}
	slot := c.fn.localCount
	c.fn.locals[slot] = local{name: name, depth: c.fn.scopeDepth}
	c.fn.localCount++
	return slot
}

// resolveLocal searches the current funcState's locals for name, innermost
// first. It does not cross function boundaries: Ape has no closures over
// enclosing locals, only globals and parameters.
func (c *Compiler) resolveLocal(name string) (slot int, ok bool) {
	for i := c.fn.localCount - 1; i >= 0; i-- {
		if c.fn.locals[i].name == name {
			if c.fn.locals[i].depth == -1 {
				c.error(fmt.Sprintf("cannot read %q in its own initializer", name))
			}
			return i, true
		}
	}
	return 0, false
}

// --- emission helpers ---

func (c *Compiler) emitByte(b byte) int       { return c.chunk.WriteUint8(b) }
func (c *Compiler) emitOp(op bytecode.Op) int { return c.chunk.WriteOp(op) }

func (c *Compiler) emitJump(op bytecode.Op) int {
	c.emitOp(op)
	return c.chunk.WriteUint16(0)
}

// patchJump back-fills a forward jump's placeholder with the distance from
// just past the placeholder to the current Chunk position.
func (c *Compiler) patchJump(placeholder int) {
	offset := c.chunk.Tell() - (placeholder + 2)
	if offset < 0 || offset > 0xFFFF {
		c.error("jump target out of range")
		return
	}
	c.chunk.OverwriteUint16(placeholder, uint16(offset))
}

// emitLoop emits OP_LOOP with a back-relative offset to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	placeholder := c.chunk.WriteUint16(0)
	offset := (placeholder + 2) - loopStart
	if offset < 0 || offset > 0xFFFF {
		c.error("loop body too large")
		return
	}
	c.chunk.OverwriteUint16(placeholder, uint16(offset))
}

func (c *Compiler) emitString(s string) {
	if _, err := c.chunk.WriteString(s); err != nil {
		c.error(err.Error())
	}
}

func (c *Compiler) emitConstantNumber(v float64) {
	c.emitOp(bytecode.OpPush)
	c.emitByte(byte(bytecode.TagNumber))
	c.chunk.WriteFloat64(v)
}

func (c *Compiler) emitConstantString(s string) {
	c.emitOp(bytecode.OpPush)
	c.emitByte(byte(bytecode.TagObj))
	c.emitByte(byte(bytecode.ObjTagString))
	c.emitString(s)
}

// --- declarations and statements ---

func (c *Compiler) declaration() {
	switch {
	case c.match(token.Ape):
		c.apeDeclaration()
	case c.match(token.Tribe):
		c.tribeDeclaration()
	default:
		c.statement()
	}
	if c.panicking {
		c.synchronize()
	}
}

// apeDeclaration compiles `ape name = expr`. At global scope the
// initializer is followed by an OP_SET_GLOBAL carrying the name inline and
// an OP_POP (the store peeks rather than pops, as assignment expressions
// do). Nested, no store and no pop are emitted at all: the initializer's
// result stays on the stack, and that stack position is the local's slot
// until endScope pops it.
func (c *Compiler) apeDeclaration() {
	c.consume(token.Ident, "expected variable name")
	name := c.prev.Lexeme
	isLocal, slot := c.declareVariable(name)

	c.consume(token.Assign, "expected '=' after variable name")
	c.expression()

	if isLocal {
		c.markInitialized(slot)
		return
	}
	c.emitOp(bytecode.OpSetGlobal)
	c.emitString(name)
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) tribeDeclaration() {
	c.consume(token.Ident, "expected function name")
	name := c.prev.Lexeme
	isLocal, slot := c.declareVariable(name)

	jumpOverBody := c.emitJump(bytecode.OpJump)
	entry := c.chunk.Tell()

	enclosing := c.fn
	c.fn = newFuncState(enclosing, name, 1)

	c.consume(token.LParen, "expected '(' after function name")
	arity := 0
	if !c.check(token.RParen) {
		for {
			c.consume(token.Ident, "expected parameter name")
			c.addLocal(c.prev.Lexeme)
			arity++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RParen, "expected ')' after parameters")
	c.fn.arity = arity

	c.consume(token.LBrace, "expected '{' before function body")
	c.beginScope()
	c.block()
	c.endScope()

	// Implicit `give` at the end of a body that falls off the end.
	c.emitOp(bytecode.OpNil)
	c.emitOp(bytecode.OpReturn)

	c.fn = enclosing
	c.patchJump(jumpOverBody)

	c.emitOp(bytecode.OpPush)
	c.emitByte(byte(bytecode.TagObj))
	c.emitByte(byte(bytecode.ObjTagFunction))
	c.emitByte(byte(arity))
	c.chunk.WriteUint32(uint32(entry))
	c.emitString(name)

	// Like ape declarations: a local tribe's function value simply stays
	// on the stack as the local's slot, a global one is stored and popped.
	if isLocal {
		c.markInitialized(slot)
		return
	}
	c.emitOp(bytecode.OpSetGlobal)
	c.emitString(name)
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Tree):
		c.expression()
		c.emitOp(bytecode.OpPrint)
	case c.match(token.Give):
		c.giveStatement()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.Banana):
		c.bananaStatement()
	case c.match(token.Swing):
		c.swingStatement()
	case c.match(token.Tumble):
		c.tumbleStatement()
	case c.match(token.Summon):
		c.summonStatement()
	case c.check(token.LBrace):
		c.advance()
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.exprStatement()
	}
}

func (c *Compiler) exprStatement() {
	c.expression()
	c.emitOp(bytecode.OpPop)
}

// block compiles declarations until a closing '}', which it consumes.
// Callers are responsible for begin/endScope around it.
func (c *Compiler) block() {
	for !c.check(token.RBrace) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBrace, "expected '}' after block")
}

func (c *Compiler) giveStatement() {
	if c.check(token.RBrace) {
		c.emitOp(bytecode.OpNil)
	} else {
		c.expression()
	}
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LParen, "expected '(' after 'if'")
	c.expression()
	c.consume(token.RParen, "expected ')' after condition")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.consume(token.LBrace, "expected '{' after if condition")
	c.beginScope()
	c.block()
	c.endScope()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)

	if c.match(token.Else) {
		if c.match(token.If) {
			c.ifStatement()
		} else {
			c.consume(token.LBrace, "expected '{' after else")
			c.beginScope()
			c.block()
			c.endScope()
		}
	}
	c.patchJump(elseJump)
}

func (c *Compiler) bananaStatement() {
	loopStart := c.chunk.Tell()
	c.consume(token.LParen, "expected '(' after 'banana'")
	c.expression()
	c.consume(token.RParen, "expected ')' after condition")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.consume(token.LBrace, "expected '{' after banana condition")
	c.beginScope()
	c.block()
	c.endScope()
	c.emitLoop(loopStart)
	c.patchJump(exitJump)
}

// swingStatement compiles `swing N { body }`: push the count, OP_LOOP_START
// moves it into the dedicated loop-counter stack, and the body is followed
// by OP_JUMP_BACK whose absolute target is the body's own start; the VM
// decrements the counter on each pass and either re-enters or falls
// through, per the wire format's documented departure from 16-bit relative
// jumps for this one instruction.
func (c *Compiler) swingStatement() {
	c.expression()
	c.emitOp(bytecode.OpLoopStart)

	bodyStart := c.chunk.Tell()
	c.consume(token.LBrace, "expected '{' after swing count")
	c.beginScope()
	c.block()
	c.endScope()

	c.emitOp(bytecode.OpJumpBack)
	c.chunk.WriteUint32(uint32(bodyStart))
}

// tumbleStatement compiles `tumble { ... } catch (e) { ... }`. The catch
// arm runs in its own scope whose first local binds the error value the
// VM already pushed onto the stack during unwinding, so the catch block
// never needs to emit anything to materialize it before using it.
func (c *Compiler) tumbleStatement() {
	setup := c.emitJump(bytecode.OpTumbleSetup)

	c.consume(token.LBrace, "expected '{' after 'tumble'")
	c.beginScope()
	c.block()
	c.endScope()
	c.emitOp(bytecode.OpTumbleEnd)

	skipCatch := c.emitJump(bytecode.OpJump)
	c.patchJump(setup)

	c.consume(token.Catch, "expected 'catch' after tumble block")
	c.consume(token.LParen, "expected '(' after 'catch'")
	c.consume(token.Ident, "expected error name")
	errName := c.prev.Lexeme
	c.consume(token.RParen, "expected ')' after error name")

	c.consume(token.LBrace, "expected '{' after catch clause")
	c.beginScope()
	c.addLocal(errName)
	c.block()
	c.endScope()

	c.patchJump(skipCatch)
}

func (c *Compiler) summonStatement() {
	c.consume(token.String, "expected module path string after 'summon'")
	c.emitConstantString(c.prev.Lexeme)
	c.emitOp(bytecode.OpSummon)
	c.emitOp(bytecode.OpPop)
}
