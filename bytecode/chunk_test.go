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

package bytecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkWriteAndPatchJump(t *testing.T) {
	c := New()
	c.WriteOp(OpJumpIfFalse)
	patch := c.WriteUint16(0xFFFF)
	c.WriteOp(OpPop)
	target := c.Tell()
	c.OverwriteUint16(patch, uint16(target))

	assert.Equal(t, uint16(target), ReadUint16(c.Code, patch))
}

func TestChunkWriteFloat64RoundTrips(t *testing.T) {
	c := New()
	off := c.Tell()
	c.WriteFloat64(-12.5)
	assert.Equal(t, -12.5, ReadFloat64(c.Code, off))
}

func TestChunkWriteStringTooLong(t *testing.T) {
	c := New()
	_, err := c.WriteString(strings.Repeat("x", 256))
	require.Error(t, err)
}

func TestChunkFinishAppendsTerminator(t *testing.T) {
	c := New()
	c.WriteOp(OpNil)
	code := c.Finish()
	assert.Equal(t, byte(Terminator), code[len(code)-1])
}

func TestDisassembleSimpleProgram(t *testing.T) {
	c := New()
	c.WriteOp(OpNil)
	c.WriteOp(OpTrue)
	c.WriteOp(OpPrint)
	code := c.Finish()

	instrs := Disassemble(code)
	require.Len(t, instrs, 4)
	assert.Equal(t, OpNil, instrs[0].Op)
	assert.Equal(t, OpTrue, instrs[1].Op)
	assert.Equal(t, OpPrint, instrs[2].Op)
	assert.Equal(t, Terminator, instrs[3].Op)
}

func TestDisassembleNumberPush(t *testing.T) {
	c := New()
	c.WriteOp(OpPush)
	c.WriteUint8(byte(TagNumber))
	c.WriteFloat64(3.5)
	code := c.Finish()

	instrs := Disassemble(code)
	require.Len(t, instrs, 2)
	assert.Equal(t, "number 3.5", instrs[0].Operand)
}

func TestDisassembleStringPush(t *testing.T) {
	c := New()
	c.WriteOp(OpPush)
	c.WriteUint8(byte(TagObj))
	c.WriteUint8(byte(ObjTagString))
	_, err := c.WriteString("hi")
	require.NoError(t, err)
	code := c.Finish()

	instrs := Disassemble(code)
	require.Len(t, instrs, 2)
	assert.Equal(t, `string "hi"`, instrs[0].Operand)
}

func TestDisassembleTruncatedInstructionDoesNotPanic(t *testing.T) {
	code := []byte{byte(OpPush), byte(TagNumber), 1, 2, 3}
	assert.NotPanics(t, func() {
		instrs := Disassemble(code)
		require.Len(t, instrs, 1)
		assert.Equal(t, "<truncated>", instrs[0].Operand)
	})
}

func TestOpcodeMnemonics(t *testing.T) {
	assert.Equal(t, "ADD", OpAdd.String())
	assert.Equal(t, "HALT", Terminator.String())
}
