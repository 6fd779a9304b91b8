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

	"github.com/duongddinh/apelang/bytecode"
)

// halt is not a bytecode.Op of its own; the mnemonic writes the stream
// terminator byte.
const haltMnemonic = "halt"

var opcodes = [...]bytecode.Op{
	bytecode.OpPush,
	bytecode.OpPop,
	bytecode.OpNil,
	bytecode.OpTrue,
	bytecode.OpFalse,
	bytecode.OpNot,
	bytecode.OpAdd,
	bytecode.OpSub,
	bytecode.OpMul,
	bytecode.OpDiv,
	bytecode.OpEqual,
	bytecode.OpGreater,
	bytecode.OpLess,
	bytecode.OpJumpIfFalse,
	bytecode.OpJump,
	bytecode.OpLoop,
	bytecode.OpJumpBack,
	bytecode.OpLoopStart,
	bytecode.OpPrint,
	bytecode.OpAsk,
	bytecode.OpGetGlobal,
	bytecode.OpSetGlobal,
	bytecode.OpGetLocal,
	bytecode.OpSetLocal,
	bytecode.OpCall,
	bytecode.OpReturn,
	bytecode.OpBuildBunch,
	bytecode.OpBuildCanopy,
	bytecode.OpGetSubscript,
	bytecode.OpSetSubscript,
	bytecode.OpTumbleSetup,
	bytecode.OpTumbleEnd,
	bytecode.OpSummon,
	bytecode.OpForage,
	bytecode.OpInscribe,
}

var opcodeIndex = make(map[string]bytecode.Op, len(opcodes))

func init() {
	for _, op := range opcodes {
		opcodeIndex[mnemonic(op)] = op
	}
}

// mnemonic is the lower-cased opcode name, which is what both Assemble
// reads and Fprint writes.
func mnemonic(op bytecode.Op) string {
	name := op.String()
	b := []byte(name)
	for i, ch := range b {
		if ch >= 'A' && ch <= 'Z' {
			b[i] = ch - 'A' + 'a'
		}
	}
	return string(b)
}

// Assemble compiles assembly read from r into a flat, terminator-ended
// bytecode stream, the same format the compiler emits and run/disassemble
// consume.
//
// The name parameter is used only in error messages to name the source of
// the error. If r is a file, name should be the file name. If not nil,
// the returned error is an ErrAsm value holding up to 10 entries.
func Assemble(name string, r io.Reader) ([]byte, error) {
	p := newParser()
	return p.parse(name, r)
}

// Fprint dumps code to w as an assembly listing Assemble can read back.
// Jump and function-entry targets become numbered labels in stream order.
func Fprint(w io.Writer, code []byte) error {
	instrs := bytecode.Disassemble(code)

	targets := map[int]string{}
	ensure := func(off int) {
		if _, ok := targets[off]; !ok {
			targets[off] = ""
		}
	}
	for _, in := range instrs {
		switch in.Op {
		case bytecode.OpJumpIfFalse, bytecode.OpJump, bytecode.OpTumbleSetup:
			ensure(in.Offset + in.Size + int(bytecode.ReadUint16(code, in.Offset+1)))
		case bytecode.OpLoop:
			ensure(in.Offset + in.Size - int(bytecode.ReadUint16(code, in.Offset+1)))
		case bytecode.OpJumpBack:
			ensure(int(bytecode.ReadUint32(code, in.Offset+1)))
		case bytecode.OpPush:
			if isFunctionConstant(code, in.Offset) {
				ensure(int(bytecode.ReadUint32(code, in.Offset+4)))
			}
		}
	}
	n := 0
	for _, in := range instrs {
		if _, ok := targets[in.Offset]; ok {
			targets[in.Offset] = "l" + strconv.Itoa(n)
			n++
		}
	}

	for _, in := range instrs {
		if name, ok := targets[in.Offset]; ok && name != "" {
			if _, err := fmt.Fprintf(w, ":%s\n", name); err != nil {
				return err
			}
		}
		if err := fprintInstr(w, code, in, targets); err != nil {
			return err
		}
	}
	return nil
}

func isFunctionConstant(code []byte, off int) bool {
	return off+2 < len(code) &&
		bytecode.ValueTag(code[off+1]) == bytecode.TagObj &&
		bytecode.ObjTag(code[off+2]) == bytecode.ObjTagFunction
}

func fprintInstr(w io.Writer, code []byte, in bytecode.Instr, targets map[int]string) error {
	var err error
	switch in.Op {
	case bytecode.Terminator:
		_, err = fmt.Fprintf(w, "\t%s\n", haltMnemonic)
	case bytecode.OpPush:
		err = fprintPush(w, code, in.Offset, targets)
	case bytecode.OpJumpIfFalse, bytecode.OpJump, bytecode.OpTumbleSetup:
		t := in.Offset + in.Size + int(bytecode.ReadUint16(code, in.Offset+1))
		_, err = fmt.Fprintf(w, "\t%s %s\n", mnemonic(in.Op), targets[t])
	case bytecode.OpLoop:
		t := in.Offset + in.Size - int(bytecode.ReadUint16(code, in.Offset+1))
		_, err = fmt.Fprintf(w, "\t%s %s\n", mnemonic(in.Op), targets[t])
	case bytecode.OpJumpBack:
		t := int(bytecode.ReadUint32(code, in.Offset+1))
		_, err = fmt.Fprintf(w, "\t%s %s\n", mnemonic(in.Op), targets[t])
	case bytecode.OpGetGlobal, bytecode.OpSetGlobal:
		n := int(code[in.Offset+1])
		name := string(code[in.Offset+2 : in.Offset+2+n])
		_, err = fmt.Fprintf(w, "\t%s %q\n", mnemonic(in.Op), name)
	case bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpCall,
		bytecode.OpBuildBunch, bytecode.OpBuildCanopy:
		_, err = fmt.Fprintf(w, "\t%s %d\n", mnemonic(in.Op), code[in.Offset+1])
	default:
		_, err = fmt.Fprintf(w, "\t%s\n", mnemonic(in.Op))
	}
	return err
}

func fprintPush(w io.Writer, code []byte, off int, targets map[int]string) error {
	var err error
	switch bytecode.ValueTag(code[off+1]) {
	case bytecode.TagNil:
		_, err = fmt.Fprintln(w, "\tpush nil")
	case bytecode.TagBool:
		if code[off+2] != 0 {
			_, err = fmt.Fprintln(w, "\tpush true")
		} else {
			_, err = fmt.Fprintln(w, "\tpush false")
		}
	case bytecode.TagNumber:
		_, err = fmt.Fprintf(w, "\tpush %s\n",
			strconv.FormatFloat(bytecode.ReadFloat64(code, off+2), 'g', -1, 64))
	case bytecode.TagObj:
		switch bytecode.ObjTag(code[off+2]) {
		case bytecode.ObjTagString:
			n := int(code[off+3])
			_, err = fmt.Fprintf(w, "\tpush %q\n", string(code[off+4:off+4+n]))
		case bytecode.ObjTagFunction:
			arity := code[off+3]
			entry := int(bytecode.ReadUint32(code, off+4))
			n := int(code[off+8])
			name := string(code[off+9 : off+9+n])
			_, err = fmt.Fprintf(w, "\tpush tribe %q %d %s\n", name, arity, targets[entry])
		}
	}
	return err
}
