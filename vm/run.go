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

package vm

import (
	"fmt"
	"io"
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/duongddinh/apelang/bytecode"
	"github.com/duongddinh/apelang/value"
)

// Run pushes fn as the outermost call frame and interprets until the
// bytecode halts (the terminator byte at frame depth 1), an explicit
// OP_RETURN pops the outermost frame, or an uncaught runtime error aborts
// the machine.
func (m *Machine) Run(fn *value.Function) (value.Value, error) {
	// Each Run starts from empty stacks; globals and the heap persist.
	m.frameCount = 0
	m.stackTop = 0
	m.handlerCount = 0
	m.loopTop = 0
	if !m.push(value.Obj(fn)) {
		return value.Nil, errors.New("vm: could not push entry function")
	}
	if _, err := m.call(fn, 0); err != nil {
		return value.Nil, err
	}
	return m.run()
}

// call pushes a new frame for fn, checking arity and frame-stack depth.
// Both its success path and its "an active handler caught the failure"
// path leave the machine in a state where the dispatch loop can simply
// continue from the (possibly very different) new top frame, so callers
// only need to check err.
func (m *Machine) call(fn *value.Function, argc int) (bool, error) {
	if argc != fn.Arity {
		name := "<tribe>"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		return m.fail("%s: expected %d arguments but got %d", name, fn.Arity, argc)
	}
	if m.frameCount >= framesMax {
		return m.fail("stack overflow")
	}
	f := &m.frames[m.frameCount]
	f.fn = fn
	f.ip = fn.Entry
	f.slots = m.stackTop - argc - 1
	m.frameCount++
	return true, nil
}

// fail raises a runtime error. If an active handler exists, it unwinds the
// frame and value stacks to the handler's recorded marks, publishes the
// error string to the reserved error slot, pushes that value, and jumps the
// (now current) frame to the catch arm, returning (true, nil) so the
// dispatch loop can simply continue. With no handler, it returns
// (false, *RuntimeError) carrying a stack trace of function names.
func (m *Machine) fail(format string, args ...interface{}) (bool, error) {
	msg := fmt.Sprintf(format, args...)
	trace := m.stackTrace()

	errStr := value.NewString(msg)
	m.register(errStr)
	m.stack[errSlot] = value.Obj(errStr)

	if m.handlerCount == 0 {
		return false, &RuntimeError{Message: msg, Trace: trace}
	}

	m.handlerCount--
	h := m.handlers[m.handlerCount]
	m.frameCount = h.frameCount
	m.stackTop = h.stackTop
	m.frames[m.frameCount-1].ip = h.catchIP

	if !m.push(m.stack[errSlot]) {
		return false, &RuntimeError{Message: "stack overflow unwinding to catch block", Trace: trace}
	}
	return true, nil
}

// failCause is fail, but records cause as the Go error behind the
// RuntimeError (when one reaches the top), so errors.Cause still recovers
// it; used by summon's module-loading failures.
func (m *Machine) failCause(cause error, format string, args ...interface{}) (bool, error) {
	handled, err := m.fail(format, args...)
	if re, ok := err.(*RuntimeError); ok {
		re.cause = cause
	}
	return handled, err
}

func (m *Machine) stackTrace() []string {
	trace := make([]string, 0, m.frameCount)
	for i := m.frameCount - 1; i >= 0; i-- {
		fn := m.frames[i].fn
		name := "<script>"
		if fn != nil && fn.Name != nil {
			name = fn.Name.Chars
		}
		trace = append(trace, name)
	}
	return trace
}

// run is the switch-dispatch interpreter loop. A case can hand control to
// a caught handler (via tryPush/fail changing frameCount); no case uses f
// after that, and each iteration re-fetches f from the (possibly new) top
// frame rather than trusting a stale pointer.
func (m *Machine) run() (value.Value, error) {
	for {
		if m.frameCount == 0 {
			if m.stackTop > 0 {
				return m.stack[m.stackTop-1], nil
			}
			return value.Nil, nil
		}
		f := &m.frames[m.frameCount-1]
		code := f.fn.Bytecode()

		if f.ip >= len(code) {
			return value.Nil, errors.Errorf("vm: instruction pointer %d out of range for %d-byte buffer", f.ip, len(code))
		}

		op := bytecode.Op(code[f.ip])
		f.ip++

		switch op {
		case bytecode.Terminator:
			if m.frameCount == 1 {
				if m.stackTop > 0 {
					return m.stack[m.stackTop-1], nil
				}
				return value.Nil, nil
			}
			// Implicit nil-return from the end of a summoned module's body.
			poppedSlots := f.slots
			m.frameCount--
			m.stackTop = poppedSlots
			if _, err := m.tryPush(value.Nil); err != nil {
				return value.Nil, err
			}
			continue

		case bytecode.OpNil:
			if _, err := m.tryPush(value.Nil); err != nil {
				return value.Nil, err
			}
		case bytecode.OpTrue:
			if _, err := m.tryPush(value.Bool(true)); err != nil {
				return value.Nil, err
			}
		case bytecode.OpFalse:
			if _, err := m.tryPush(value.Bool(false)); err != nil {
				return value.Nil, err
			}
		case bytecode.OpPop:
			m.pop()

		case bytecode.OpPush:
			v, err := m.readConstant(f, code)
			if err != nil {
				return value.Nil, err
			}
			if _, err := m.tryPush(v); err != nil {
				return value.Nil, err
			}

		case bytecode.OpNot:
			v := m.pop()
			if _, err := m.tryPush(value.Bool(!v.Truthy())); err != nil {
				return value.Nil, err
			}

		case bytecode.OpAdd:
			if _, err := m.execAdd(); err != nil {
				return value.Nil, err
			}
			continue

		case bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv:
			if _, err := m.execArith(op); err != nil {
				return value.Nil, err
			}
			continue

		case bytecode.OpEqual:
			b, a := m.pop(), m.pop()
			if _, err := m.tryPush(value.Bool(value.Equal(a, b))); err != nil {
				return value.Nil, err
			}

		case bytecode.OpGreater, bytecode.OpLess:
			if _, err := m.execCompare(op); err != nil {
				return value.Nil, err
			}
			continue

		case bytecode.OpJumpIfFalse:
			off := bytecode.ReadUint16(code, f.ip)
			f.ip += 2
			if !m.pop().Truthy() {
				f.ip += int(off)
			}
		case bytecode.OpJump:
			off := bytecode.ReadUint16(code, f.ip)
			f.ip += 2
			f.ip += int(off)
		case bytecode.OpLoop:
			off := bytecode.ReadUint16(code, f.ip)
			f.ip += 2
			f.ip -= int(off)

		case bytecode.OpJumpBack:
			abs := bytecode.ReadUint32(code, f.ip)
			f.ip += 4
			if m.loopTop == 0 {
				if _, err := m.fail("loop-counter stack underflow"); err != nil {
					return value.Nil, err
				}
				continue
			}
			m.loopCounters[m.loopTop-1]--
			if m.loopCounters[m.loopTop-1] > 0 {
				f.ip = int(abs)
			} else {
				m.loopTop--
			}

		case bytecode.OpLoopStart:
			v := m.pop()
			if v.Kind != value.KNumber {
				if _, err := m.fail("type mismatch: swing requires a number, got %s", v.TypeName()); err != nil {
					return value.Nil, err
				}
				continue
			}
			if m.loopTop >= loopMax {
				if _, err := m.fail("loop-counter stack overflow"); err != nil {
					return value.Nil, err
				}
				continue
			}
			m.loopCounters[m.loopTop] = v.Number
			m.loopTop++

		case bytecode.OpPrint:
			v := m.pop()
			fmt.Fprintln(m.out, value.Format(v))

		case bytecode.OpAsk:
			v, err := m.execAsk()
			if err != nil {
				return value.Nil, err
			}
			if _, err := m.tryPush(v); err != nil {
				return value.Nil, err
			}

		case bytecode.OpGetGlobal:
			name := readName(code, &f.ip)
			v, found := m.getGlobal(name)
			if !found {
				if _, err := m.fail("undefined global %q", name); err != nil {
					return value.Nil, err
				}
				continue
			}
			if _, err := m.tryPush(v); err != nil {
				return value.Nil, err
			}
		case bytecode.OpSetGlobal:
			name := readName(code, &f.ip)
			m.setGlobal(name, m.peek(0))

		case bytecode.OpGetLocal:
			slot := int(code[f.ip])
			f.ip++
			if _, err := m.tryPush(m.stack[f.slots+slot]); err != nil {
				return value.Nil, err
			}
		case bytecode.OpSetLocal:
			slot := int(code[f.ip])
			f.ip++
			m.stack[f.slots+slot] = m.peek(0)

		case bytecode.OpCall:
			argc := int(code[f.ip])
			f.ip++
			if _, err := m.execCall(argc); err != nil {
				return value.Nil, err
			}
			continue

		case bytecode.OpReturn:
			result := m.pop()
			poppedSlots := f.slots
			m.frameCount--
			if m.frameCount == 0 {
				return result, nil
			}
			m.stackTop = poppedSlots
			if _, err := m.tryPush(result); err != nil {
				return value.Nil, err
			}
			continue

		case bytecode.OpBuildBunch:
			n := int(code[f.ip])
			f.ip++
			if _, err := m.execBuildBunch(n); err != nil {
				return value.Nil, err
			}
		case bytecode.OpBuildCanopy:
			n := int(code[f.ip])
			f.ip++
			if _, err := m.execBuildCanopy(n); err != nil {
				return value.Nil, err
			}
			continue
		case bytecode.OpGetSubscript:
			if _, err := m.execGetSubscript(); err != nil {
				return value.Nil, err
			}
			continue
		case bytecode.OpSetSubscript:
			if _, err := m.execSetSubscript(); err != nil {
				return value.Nil, err
			}
			continue

		case bytecode.OpTumbleSetup:
			off := bytecode.ReadUint16(code, f.ip)
			f.ip += 2
			if m.handlerCount >= handlersMax {
				if _, err := m.fail("handler stack overflow"); err != nil {
					return value.Nil, err
				}
				continue
			}
			m.handlers[m.handlerCount] = handler{
				catchIP:    f.ip + int(off),
				frameCount: m.frameCount,
				stackTop:   m.stackTop,
			}
			m.handlerCount++
		case bytecode.OpTumbleEnd:
			if m.handlerCount > 0 {
				m.handlerCount--
			}

		case bytecode.OpSummon:
			if _, err := m.execSummon(); err != nil {
				return value.Nil, err
			}
			continue

		case bytecode.OpForage:
			if _, err := m.execForage(); err != nil {
				return value.Nil, err
			}
			continue
		case bytecode.OpInscribe:
			if _, err := m.execInscribe(); err != nil {
				return value.Nil, err
			}
			continue

		default:
			if _, err := m.fail("unknown opcode %d", op); err != nil {
				return value.Nil, err
			}
			continue
		}
	}
}

// readConstant decodes an OP_PUSH payload, advancing f.ip past it.
func (m *Machine) readConstant(f *frame, code []byte) (value.Value, error) {
	tag := bytecode.ValueTag(code[f.ip])
	f.ip++
	switch tag {
	case bytecode.TagNil:
		return value.Nil, nil
	case bytecode.TagBool:
		b := code[f.ip] != 0
		f.ip++
		return value.Bool(b), nil
	case bytecode.TagNumber:
		v := bytecode.ReadFloat64(code, f.ip)
		f.ip += 8
		return value.Num(v), nil
	case bytecode.TagObj:
		objTag := bytecode.ObjTag(code[f.ip])
		f.ip++
		switch objTag {
		case bytecode.ObjTagString:
			s := readName(code, &f.ip)
			str := value.NewString(s)
			m.register(str)
			return value.Obj(str), nil
		case bytecode.ObjTagFunction:
			arity := int(code[f.ip])
			f.ip++
			entry := int(bytecode.ReadUint32(code, f.ip))
			f.ip += 4
			name := readName(code, &f.ip)
			nameStr := value.NewString(name)
			m.register(nameStr)
			if !m.push(value.Obj(nameStr)) {
				return value.Nil, errors.New("vm: stack overflow materializing function constant")
			}
			fn := value.NewNestedFunction(nameStr, arity, f.fn.Owner, entry)
			m.register(fn) // nameStr is on the stack: a valid GC root
			m.pop()
			return value.Obj(fn), nil
		}
	}
	return value.Nil, errors.Errorf("vm: malformed OP_PUSH value tag %d", tag)
}

func readName(code []byte, ip *int) string {
	n := int(code[*ip])
	*ip++
	s := string(code[*ip : *ip+n])
	*ip += n
	return s
}

// execAdd implements OP_ADD: (Number,Number) -> Number, and
// (String,String) -> a freshly concatenated String. Both operands are kept
// on the value stack (peeked, not popped) across the allocation so they
// remain reachable GC roots until the result replaces them.
func (m *Machine) execAdd() (bool, error) {
	b, a := m.peek(0), m.peek(1)

	if a.Kind == value.KNumber && b.Kind == value.KNumber {
		m.pop()
		m.pop()
		return m.tryPush(value.Num(a.Number + b.Number))
	}

	as, aIsStr := a.Obj.(*value.String)
	bs, bIsStr := b.Obj.(*value.String)
	if a.Kind == value.KObj && b.Kind == value.KObj && aIsStr && bIsStr {
		concatenated := value.NewString(as.Chars + bs.Chars)
		m.register(concatenated) // a, b are still on the stack: valid GC roots
		m.pop()
		m.pop()
		return m.tryPush(value.Obj(concatenated))
	}

	return m.fail("type mismatch: ooh requires two numbers or two strings, got %s and %s", a.TypeName(), b.TypeName())
}

func (m *Machine) execArith(op bytecode.Op) (bool, error) {
	b, a := m.pop(), m.pop()
	if a.Kind != value.KNumber || b.Kind != value.KNumber {
		word := map[bytecode.Op]string{bytecode.OpSub: "aah", bytecode.OpMul: "eek", bytecode.OpDiv: "ook"}[op]
		return m.fail("type mismatch: %s requires two numbers, got %s and %s", word, a.TypeName(), b.TypeName())
	}
	var res float64
	switch op {
	case bytecode.OpSub:
		res = a.Number - b.Number
	case bytecode.OpMul:
		res = a.Number * b.Number
	case bytecode.OpDiv:
		res = a.Number / b.Number
	}
	return m.tryPush(value.Num(res))
}

func (m *Machine) execCompare(op bytecode.Op) (bool, error) {
	b, a := m.pop(), m.pop()
	if a.Kind != value.KNumber || b.Kind != value.KNumber {
		return m.fail("type mismatch: comparison requires two numbers, got %s and %s", a.TypeName(), b.TypeName())
	}
	var res bool
	if op == bytecode.OpGreater {
		res = a.Number > b.Number
	} else {
		res = a.Number < b.Number
	}
	return m.tryPush(value.Bool(res))
}

// execAsk implements `ask`: a line of stdin, parsed as a number when it
// looks like one, a string otherwise, nil on a blank line.
func (m *Machine) execAsk() (value.Value, error) {
	line, err := m.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return value.Nil, errors.Wrap(err, "ask: reading standard input")
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return value.Nil, nil
	}
	if n, perr := strconv.ParseFloat(line, 64); perr == nil {
		return value.Num(n), nil
	}
	s := value.NewString(line)
	m.register(s)
	return value.Obj(s), nil
}

func (m *Machine) execCall(argc int) (bool, error) {
	callee := m.peek(argc)
	fn, ok := callee.Obj.(*value.Function)
	if callee.Kind != value.KObj || !ok {
		return m.fail("type mismatch: %s is not callable", callee.TypeName())
	}
	return m.call(fn, argc)
}

func (m *Machine) execBuildBunch(n int) (bool, error) {
	items := make([]value.Value, n)
	base := m.stackTop - n
	copy(items, m.stack[base:m.stackTop])
	b := value.NewBunch(items)
	m.register(b) // elements are still on the stack: valid GC roots
	m.stackTop = base
	return m.tryPush(value.Obj(b))
}

func (m *Machine) execBuildCanopy(n int) (bool, error) {
	base := m.stackTop - n*2
	c := value.NewCanopy(n)
	for i := 0; i < n; i++ {
		key := m.stack[base+i*2]
		val := m.stack[base+i*2+1]
		ks, ok := key.Obj.(*value.String)
		if key.Kind != value.KObj || !ok {
			m.stackTop = base
			return m.fail("type mismatch: canopy keys must be strings, got %s", key.TypeName())
		}
		c.Set(ks, val)
	}
	m.register(c) // keys and values are still on the stack: valid GC roots
	m.stackTop = base
	return m.tryPush(value.Obj(c))
}

func (m *Machine) execGetSubscript() (bool, error) {
	idx := m.pop()
	coll := m.pop()
	switch o := coll.Obj.(type) {
	case *value.Bunch:
		if coll.Kind != value.KObj || idx.Kind != value.KNumber {
			return m.fail("type mismatch: bunch subscript requires a number index, got %s", idx.TypeName())
		}
		return m.tryPush(o.Get(int(idx.Number)))
	case *value.Canopy:
		key, ok := idx.Obj.(*value.String)
		if idx.Kind != value.KObj || !ok {
			return m.fail("type mismatch: canopy subscript requires a string key, got %s", idx.TypeName())
		}
		return m.tryPush(o.Get(key))
	default:
		return m.fail("type mismatch: cannot subscript %s", coll.TypeName())
	}
}

func (m *Machine) execSetSubscript() (bool, error) {
	v := m.pop()
	idx := m.pop()
	coll := m.pop()
	switch o := coll.Obj.(type) {
	case *value.Bunch:
		if coll.Kind != value.KObj || idx.Kind != value.KNumber {
			return m.fail("type mismatch: bunch subscript requires a number index, got %s", idx.TypeName())
		}
		if !o.Set(int(idx.Number), v) {
			return m.fail("index out of range: bunch has no index %g", idx.Number)
		}
		return m.tryPush(v)
	case *value.Canopy:
		key, ok := idx.Obj.(*value.String)
		if idx.Kind != value.KObj || !ok {
			return m.fail("type mismatch: canopy subscript requires a string key, got %s", idx.TypeName())
		}
		o.Set(key, v)
		return m.tryPush(v)
	default:
		return m.fail("type mismatch: cannot subscript %s", coll.TypeName())
	}
}

// execForage reads the file named by the path on top of the stack, pushing
// its text as a String, or nil when the file cannot be read; a missing
// file is an ordinary value, not a runtime error.
func (m *Machine) execForage() (bool, error) {
	path := m.pop()
	ps, ok := path.Obj.(*value.String)
	if path.Kind != value.KObj || !ok {
		return m.fail("type mismatch: forage requires a string path, got %s", path.TypeName())
	}
	content, err := ioutil.ReadFile(ps.Chars)
	if err != nil {
		return m.tryPush(value.Nil)
	}
	s := value.NewString(string(content))
	m.register(s)
	return m.tryPush(value.Obj(s))
}

// execInscribe pops (content, path) and writes content to the file at
// path, pushing whether the write succeeded.
func (m *Machine) execInscribe() (bool, error) {
	content := m.pop()
	path := m.pop()
	cs, cok := content.Obj.(*value.String)
	ps, pok := path.Obj.(*value.String)
	if path.Kind != value.KObj || !pok || content.Kind != value.KObj || !cok {
		return m.fail("type mismatch: inscribe requires a string path and string content, got %s and %s",
			path.TypeName(), content.TypeName())
	}
	err := ioutil.WriteFile(ps.Chars, []byte(cs.Chars), 0644)
	return m.tryPush(value.Bool(err == nil))
}

// execSummon resolves the path on top of the stack to a compiled module
// artifact, loads it through the configured ModuleLoader, and calls it as
// a zero-argument function; its own terminator byte returns control here
// via the frame-depth-aware Terminator case in run, rather than halting
// the machine.
func (m *Machine) execSummon() (bool, error) {
	path := m.pop()
	ps, ok := path.Obj.(*value.String)
	if path.Kind != value.KObj || !ok {
		return m.fail("type mismatch: summon requires a string path, got %s", path.TypeName())
	}
	if !strings.HasSuffix(ps.Chars, ".ape") {
		return m.fail("bad module suffix: %q does not end in .ape", ps.Chars)
	}
	if m.loader == nil {
		return m.fail("summon is unavailable: no module loader configured")
	}
	artifact := strings.TrimSuffix(ps.Chars, ".ape") + ".apb"
	code, err := m.loader(artifact)
	if err != nil {
		return m.failCause(err, "failed to load module %q", artifact)
	}
	name := value.NewString(artifact)
	m.register(name)
	if !m.push(value.Obj(name)) {
		return m.fail("stack overflow")
	}
	fn := value.NewOwnerFunction(name, 0, code)
	m.register(fn) // name is on the stack: a valid GC root
	m.pop()

	if !m.push(value.Obj(fn)) {
		return m.fail("stack overflow")
	}
	return m.call(fn, 0)
}
