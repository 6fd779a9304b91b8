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

// The ape command line tool is a showcase for the compiler, vm, and bytecode
// packages: it compiles Ape source to bytecode, runs compiled bytecode, and
// offers a persistent REPL and a bytecode disassembler.
//
// Usage:
//
//	ape compile <file.ape>
//	      Compile file.ape (and anything it reaches via summon) to file.apb.
//	ape run <file.apb>
//	      Execute a compiled artifact.
//	ape repl
//	      Start an interactive session against a persistent VM.
//	ape disassemble <file.apb>
//	      Print a human-readable bytecode listing.
//	ape assemble <file.apa>
//	      Assemble a textual bytecode listing to file.apb.
//
// Top-level flags:
//
//	-e source
//	      Compile and run source directly instead of reading a file.
//	-v, --version
//	      Print the ape version and exit.
//
// Exit codes: 0 success, 64 usage / bad extension, 65 compile error, 70
// runtime error, 71 dependency error, 74 I/O error.
package main
