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

// Package bytecode defines the Ape wire format: the opcode table and the
// Chunk sink the compiler writes to and the VM reads from.
package bytecode

import "fmt"

// Op is a single-byte bytecode instruction.
type Op byte

// The full instruction set. Operand shapes are documented per opcode; see
// Chunk for the encoding primitives.
const (
	OpPush Op = iota
	OpPop
	OpNil
	OpTrue
	OpFalse

	OpNot
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpEqual
	OpGreater
	OpLess

	OpJumpIfFalse // u16 relative forward offset
	OpJump        // u16 relative forward offset
	OpLoop        // u16 relative back offset
	OpJumpBack    // u32 absolute offset within owner, counted-loop back edge
	OpLoopStart

	OpPrint
	OpAsk

	OpGetGlobal // u8 len, name bytes
	OpSetGlobal // u8 len, name bytes
	OpGetLocal  // u8 slot
	OpSetLocal  // u8 slot

	OpCall // u8 argc
	OpReturn

	OpBuildBunch   // u8 n
	OpBuildCanopy  // u8 n (pairs)
	OpGetSubscript
	OpSetSubscript

	OpTumbleSetup // u16 forward offset to catch arm
	OpTumbleEnd
	OpSummon

	OpForage
	OpInscribe

	opCount
)

// Terminator marks the logical end of a bytecode stream; the VM treats it as
// an orderly halt rather than an unknown opcode.
const Terminator Op = 0xFF

// ValueTag follows OP_PUSH and selects the payload's representation.
type ValueTag byte

const (
	TagNil ValueTag = iota
	TagBool
	TagNumber
	TagObj
)

// ObjTag follows a TagObj payload and selects which Obj kind is encoded.
type ObjTag byte

const (
	ObjTagString ObjTag = iota
	ObjTagFunction
)

var names = [opCount]string{
	OpPush:  "PUSH",
	OpPop:   "POP",
	OpNil:   "NIL",
	OpTrue:  "TRUE",
	OpFalse: "FALSE",

	OpNot:     "NOT",
	OpAdd:     "ADD",
	OpSub:     "SUB",
	OpMul:     "MUL",
	OpDiv:     "DIV",
	OpEqual:   "EQUAL",
	OpGreater: "GREATER",
	OpLess:    "LESS",

	OpJumpIfFalse: "JUMP_IF_FALSE",
	OpJump:        "JUMP",
	OpLoop:        "LOOP",
	OpJumpBack:    "JUMP_BACK",
	OpLoopStart:   "LOOP_START",

	OpPrint: "PRINT",
	OpAsk:   "ASK",

	OpGetGlobal: "GET_GLOBAL",
	OpSetGlobal: "SET_GLOBAL",
	OpGetLocal:  "GET_LOCAL",
	OpSetLocal:  "SET_LOCAL",

	OpCall:   "CALL",
	OpReturn: "RETURN",

	OpBuildBunch:   "BUILD_BUNCH",
	OpBuildCanopy:  "BUILD_CANOPY",
	OpGetSubscript: "GET_SUBSCRIPT",
	OpSetSubscript: "SET_SUBSCRIPT",

	OpTumbleSetup: "TUMBLE_SETUP",
	OpTumbleEnd:   "TUMBLE_END",
	OpSummon:      "SUMMON",

	OpForage:   "FORAGE",
	OpInscribe: "INSCRIBE",
}

// String returns the opcode's mnemonic, matching the names emitted by the
// disassemble subcommand.
func (op Op) String() string {
	if op == Terminator {
		return "HALT"
	}
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return fmt.Sprintf("OP(%d)", byte(op))
}
