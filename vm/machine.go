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

// Package vm is Ape's stack-based interpreter: the call-frame discipline,
// the value/handler/loop-counter stacks, globals, and the opcode dispatch
// loop that drives the heap's collector.
package vm

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/duongddinh/apelang/heap"
	"github.com/duongddinh/apelang/internal/apeio"
	"github.com/duongddinh/apelang/value"
)

const (
	stackMax    = 256
	framesMax   = 64
	handlersMax = 16
	loopMax     = 256
	errSlot     = stackMax - 1
)

// ModuleLoader resolves a summoned module's artifact path to its compiled
// bytecode. cmd/ape supplies one backed by the filesystem; tests can supply
// an in-memory stand-in.
type ModuleLoader func(path string) ([]byte, error)

type frame struct {
	fn    *value.Function
	ip    int
	slots int // index into Machine.stack of this frame's slot 0 (the callee)
}

type handler struct {
	catchIP    int
	frameCount int
	stackTop   int
}

type global struct {
	name  string
	value value.Value
}

// Machine is one Ape VM instance: its stacks, globals, heap, and I/O.
type Machine struct {
	stack    [stackMax]value.Value
	stackTop int

	frames     [framesMax]frame
	frameCount int

	handlers     [handlersMax]handler
	handlerCount int

	loopCounters [loopMax]float64
	loopTop      int

	globals []global

	heap *heap.Heap

	out    *apeio.ErrWriter
	in     *bufio.Reader
	loader ModuleLoader
}

// Option configures a Machine at construction, following the functional-
// options style this module uses throughout.
type Option func(*Machine) error

// WithOutput directs tree/print output to w instead of os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(m *Machine) error {
		m.out = apeio.NewErrWriter(w)
		return nil
	}
}

// WithInput directs ask reads to r instead of os.Stdin.
func WithInput(r io.Reader) Option {
	return func(m *Machine) error {
		m.in = bufio.NewReader(r)
		return nil
	}
}

// WithModuleLoader installs the resolver summon uses to load a module's
// compiled bytecode. Without one, summon fails at runtime (catchable).
func WithModuleLoader(l ModuleLoader) Option {
	return func(m *Machine) error {
		m.loader = l
		return nil
	}
}

// New constructs a Machine with a fresh heap and stdio defaults, applying
// opts in order.
func New(opts ...Option) (*Machine, error) {
	m := &Machine{
		heap: heap.New(),
		out:  apeio.NewErrWriter(os.Stdout),
		in:   bufio.NewReader(os.Stdin),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, errors.Wrap(err, "vm: applying option")
		}
	}
	return m, nil
}

// push attempts to push v, reporting false if doing so would clobber the
// reserved error slot.
func (m *Machine) push(v value.Value) bool {
	if m.stackTop >= errSlot {
		return false
	}
	m.stack[m.stackTop] = v
	m.stackTop++
	return true
}

// tryPush pushes v, raising (and possibly catching) a stack-overflow error
// if the stack is full. ok is true only when v was actually pushed; when ok
// is false and err is nil, an active handler caught the overflow and the
// dispatch loop must restart from its (already updated) new frame.
func (m *Machine) tryPush(v value.Value) (ok bool, err error) {
	if m.push(v) {
		return true, nil
	}
	_, err = m.fail("stack overflow")
	return false, err
}

func (m *Machine) pop() value.Value {
	m.stackTop--
	return m.stack[m.stackTop]
}

func (m *Machine) peek(distance int) value.Value {
	return m.stack[m.stackTop-1-distance]
}

// register is the VM's single point of contact with the heap's allocation
// accounting: every heap object the VM creates passes through it.
func (m *Machine) register(o value.Object) {
	m.heap.Register(o, m.markRoots)
}

// markRoots implements heap.RootFunc: every live stack slot, the reserved
// error slot, every global, and every live frame's function.
func (m *Machine) markRoots(mark func(value.Value)) {
	for i := 0; i < m.stackTop; i++ {
		mark(m.stack[i])
	}
	mark(m.stack[errSlot])
	for _, g := range m.globals {
		mark(g.value)
	}
	for i := 0; i < m.frameCount; i++ {
		if fn := m.frames[i].fn; fn != nil {
			mark(value.Obj(fn))
		}
	}
}

func (m *Machine) getGlobal(name string) (value.Value, bool) {
	for i := range m.globals {
		if m.globals[i].name == name {
			return m.globals[i].value, true
		}
	}
	return value.Nil, false
}

// setGlobal implements "first assignment defines": repeated assignment to
// an existing name overwrites its value without reordering the vector.
func (m *Machine) setGlobal(name string, v value.Value) {
	for i := range m.globals {
		if m.globals[i].name == name {
			m.globals[i].value = v
			return
		}
	}
	m.globals = append(m.globals, global{name: name, value: v})
}

// Global looks up a global by name, for host-side introspection and tests.
func (m *Machine) Global(name string) (value.Value, bool) {
	return m.getGlobal(name)
}

// CollectorStats exposes the heap's bookkeeping, for diagnostics.
func (m *Machine) CollectorStats() (collections, freed, allocated int) {
	return m.heap.Collections, m.heap.Freed, m.heap.Allocated()
}

// OutputError reports the first error tree/print encountered writing to
// the configured output, if any. A host piping output to a process that
// exits early (e.g. `ape run foo.ape | head`) should check this once
// after Run returns rather than aborting the machine mid-print.
func (m *Machine) OutputError() error {
	return m.out.Err()
}
