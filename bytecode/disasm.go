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

import "fmt"

// Instr is one decoded instruction: its offset, opcode, operand column (raw,
// for the disassemble table), and the number of bytes it and its operand
// occupy.
type Instr struct {
	Offset  int
	Op      Op
	Operand string
	Size    int
}

// Disassemble walks code and decodes every instruction up to (and including)
// the Terminator byte. It never panics on truncated input: a short buffer
// yields a synthetic "truncated" instruction instead of running off the end,
// since disassemble is also used on possibly-corrupt .apb files handed in by
// a user.
func Disassemble(code []byte) []Instr {
	var out []Instr
	off := 0
	for off < len(code) {
		op := Op(code[off])
		if op == Terminator {
			out = append(out, Instr{Offset: off, Op: Terminator, Size: 1})
			break
		}
		instr, size, ok := decodeOne(code, off)
		if !ok {
			out = append(out, Instr{Offset: off, Op: op, Operand: "<truncated>", Size: len(code) - off})
			break
		}
		out = append(out, instr)
		off += size
	}
	return out
}

func decodeOne(code []byte, off int) (Instr, int, bool) {
	op := Op(code[off])
	rest := code[off+1:]

	need := func(n int) bool { return len(rest) >= n }

	switch op {
	case OpPush:
		if !need(1) {
			return Instr{}, 0, false
		}
		tag := ValueTag(rest[0])
		switch tag {
		case TagNil:
			return Instr{Offset: off, Op: op, Operand: "nil", Size: 2}, 2, true
		case TagBool:
			if !need(2) {
				return Instr{}, 0, false
			}
			return Instr{Offset: off, Op: op, Operand: fmt.Sprintf("bool %v", rest[1] != 0), Size: 3}, 3, true
		case TagNumber:
			if !need(9) {
				return Instr{}, 0, false
			}
			v := ReadFloat64(rest, 1)
			return Instr{Offset: off, Op: op, Operand: fmt.Sprintf("number %g", v), Size: 10}, 10, true
		case TagObj:
			if !need(2) {
				return Instr{}, 0, false
			}
			switch ObjTag(rest[1]) {
			case ObjTagString:
				if !need(3) {
					return Instr{}, 0, false
				}
				n := int(rest[2])
				if !need(3 + n) {
					return Instr{}, 0, false
				}
				s := string(rest[3 : 3+n])
				return Instr{Offset: off, Op: op, Operand: fmt.Sprintf("string %q", s), Size: 3 + n + 1}, 3 + n + 1, true
			case ObjTagFunction:
				if !need(8) {
					return Instr{}, 0, false
				}
				arity := rest[2]
				entry := ReadUint32(rest, 3)
				nameLen := int(rest[7])
				if !need(8 + nameLen) {
					return Instr{}, 0, false
				}
				name := string(rest[8 : 8+nameLen])
				return Instr{
					Offset: off, Op: op,
					Operand: fmt.Sprintf("function %s/%d @%d", name, arity, entry),
					Size:    8 + nameLen + 1,
				}, 8 + nameLen + 1, true
			}
		}
		return Instr{}, 0, false
	case OpJumpIfFalse, OpJump, OpLoop, OpTumbleSetup:
		if !need(2) {
			return Instr{}, 0, false
		}
		off16 := ReadUint16(rest, 0)
		return Instr{Offset: off, Op: op, Operand: fmt.Sprintf("%d", off16), Size: 3}, 3, true
	case OpJumpBack:
		if !need(4) {
			return Instr{}, 0, false
		}
		abs := ReadUint32(rest, 0)
		return Instr{Offset: off, Op: op, Operand: fmt.Sprintf("%d", abs), Size: 5}, 5, true
	case OpGetGlobal, OpSetGlobal:
		if !need(1) {
			return Instr{}, 0, false
		}
		n := int(rest[0])
		if !need(1 + n) {
			return Instr{}, 0, false
		}
		name := string(rest[1 : 1+n])
		return Instr{Offset: off, Op: op, Operand: name, Size: n + 2}, n + 2, true
	case OpGetLocal, OpSetLocal, OpCall, OpBuildBunch, OpBuildCanopy:
		if !need(1) {
			return Instr{}, 0, false
		}
		return Instr{Offset: off, Op: op, Operand: fmt.Sprintf("%d", rest[0]), Size: 2}, 2, true
	default:
		return Instr{Offset: off, Op: op, Size: 1}, 1, true
	}
}
