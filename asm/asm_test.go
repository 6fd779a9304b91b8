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

package asm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duongddinh/apelang/asm"
	"github.com/duongddinh/apelang/bytecode"
	"github.com/duongddinh/apelang/value"
	"github.com/duongddinh/apelang/vm"
)

// runAsm assembles src and executes it on a fresh VM, returning what it
// printed.
func runAsm(t *testing.T, src string) string {
	t.Helper()
	code, err := asm.Assemble("test.apa", strings.NewReader(src))
	require.NoError(t, err)

	var out bytes.Buffer
	m, err := vm.New(vm.WithOutput(&out))
	require.NoError(t, err)
	_, err = m.Run(value.NewOwnerFunction(nil, 0, code))
	require.NoError(t, err)
	return out.String()
}

func TestAssembleArithmetic(t *testing.T) {
	got := runAsm(t, `
	push 2
	push 3
	add
	print
`)
	assert.Equal(t, "5\n", got)
}

func TestAssembleBackwardLoop(t *testing.T) {
	got := runAsm(t, `
	push 0
	set_global "n"
	pop
:top
	get_global "n"
	push 3
	less
	jump_if_false done
	get_global "n"
	print
	get_global "n"
	push 1
	add
	set_global "n"
	pop
	loop top
:done
	halt
`)
	assert.Equal(t, "0\n1\n2\n", got)
}

func TestAssembleFunctionConstantAndCall(t *testing.T) {
	got := runAsm(t, `
	jump after
:body
	get_local 1
	get_local 2
	add
	return
:after
	push tribe "add" 2 body
	set_global "add"
	pop
	get_global "add"
	push 10
	push 32
	call 2
	print
`)
	assert.Equal(t, "42\n", got)
}

func TestAssembleCountedLoop(t *testing.T) {
	got := runAsm(t, `
	push 3
	loop_start
:body
	push "x"
	print
	jump_back body
`)
	assert.Equal(t, "x\nx\nx\n", got)
}

func TestAssembleErrorsCarryPositions(t *testing.T) {
	src := `
	jump nowhere
	frobnicate
	push
`
	_, err := asm.Assemble("errs.apa", strings.NewReader(src))
	require.Error(t, err)

	errs, ok := err.(asm.ErrAsm)
	require.True(t, ok, "Assemble errors must be an ErrAsm value")
	assert.GreaterOrEqual(t, len(errs), 2)
	for _, e := range errs {
		assert.Equal(t, "errs.apa", e.Pos.Filename)
		assert.NotZero(t, e.Pos.Line)
	}
	assert.Contains(t, err.Error(), "frobnicate")
	assert.Contains(t, err.Error(), "nowhere")
}

func TestAssembleRedefinedLabelIsError(t *testing.T) {
	src := `
:spot
	nil
:spot
	pop
`
	_, err := asm.Assemble("dup.apa", strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redefinition")
}

func TestAssembleAppendsTerminatorWhenMissing(t *testing.T) {
	code, err := asm.Assemble("t.apa", strings.NewReader("\tnil\n\tpop\n"))
	require.NoError(t, err)
	require.NotEmpty(t, code)
	assert.Equal(t, byte(bytecode.Terminator), code[len(code)-1])
}

// Fprint emits a listing Assemble reads back to the identical stream.
func TestFprintAssembleRoundTrip(t *testing.T) {
	src := `
	push 1
	set_global "x"
	pop
:top
	get_global "x"
	push 10
	less
	jump_if_false out
	jump body
:body
	get_global "x"
	push 2
	mul
	set_global "x"
	pop
	loop top
:out
	get_global "x"
	print
	halt
`
	first, err := asm.Assemble("round.apa", strings.NewReader(src))
	require.NoError(t, err)

	var listing bytes.Buffer
	require.NoError(t, asm.Fprint(&listing, first))

	second, err := asm.Assemble("round2.apa", strings.NewReader(listing.String()))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
