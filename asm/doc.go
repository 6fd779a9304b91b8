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

// Package asm assembles and dumps Ape bytecode in a textual form.
//
// Assemble turns an assembly listing into the same flat `.apb` stream the
// compiler emits; Fprint renders such a stream back into a listing that
// Assemble accepts, so the two round-trip. The assembler exists for the
// same reasons the bytecode has a disassembler: writing VM test inputs by
// hand, and inspecting or patching what the compiler produced.
//
// Syntax
//
// One instruction per line (whitespace is otherwise insignificant),
// comments from `#` to end of line, labels defined with a leading colon
// and referenced bare:
//
//	:top
//		get_global "n"
//		push 3
//		less
//		jump_if_false done
//		get_global "n"
//		print
//		loop top
//	:done
//		halt
//
// Mnemonics are the lower-cased opcode names (push, pop, nil, true, false,
// not, add, sub, mul, div, equal, greater, less, jump_if_false, jump,
// loop, jump_back, loop_start, print, ask, get_global, set_global,
// get_local, set_local, call, return, build_bunch, build_canopy,
// get_subscript, set_subscript, tumble_setup, tumble_end, summon, forage,
// inscribe) plus
// halt for the stream terminator. A missing trailing halt is supplied
// automatically.
//
// Operand forms:
//
//	push 3.5                number constant (leading - accepted)
//	push "text"             string constant
//	push nil                nil/true/false constants
//	push tribe "add" 2 body function constant: name, arity, entry label
//	get_global "name"       global access carries the name as a string
//	get_local 3             locals, call, build_bunch, build_canopy take
//	                        a small integer
//	jump done               jump, jump_if_false, tumble_setup take a
//	                        forward label (16-bit relative)
//	loop top                loop takes a backward label (16-bit relative)
//	jump_back top           jump_back takes any label (32-bit absolute)
//
// Errors are collected (up to 10) and returned as an ErrAsm value whose
// entries carry the offending source position.
package asm
