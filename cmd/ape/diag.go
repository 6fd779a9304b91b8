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

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// stderrIsTTY gates colorized diagnostics on whether stderr is actually a
// terminal, so piping `ape compile foo.ape 2>err.txt` yields plain text.
var stderrIsTTY = isatty.IsTerminal(os.Stderr.Fd())

var (
	diagError = color.New(color.FgRed, color.Bold)
	diagTrace = color.New(color.Faint)
)

// printDiag writes a compiler diagnostic (already terminated with its own
// newline by Compiler.errorAt) to stderr, bold red when attached to a tty.
func printDiag(msg string) {
	if stderrIsTTY {
		diagError.Fprint(os.Stderr, msg)
		return
	}
	fmt.Fprint(os.Stderr, msg)
}

// printRuntimeError writes a runtime error's message in bold red and its
// stack trace dimmed, matching the teacher's atExit's plain/verbose split.
func printRuntimeError(message string, trace []string) {
	if stderrIsTTY {
		diagError.Fprintln(os.Stderr, message)
		for _, fn := range trace {
			diagTrace.Fprintf(os.Stderr, "\tat %s\n", fn)
		}
		return
	}
	fmt.Fprintln(os.Stderr, message)
	for _, fn := range trace {
		fmt.Fprintf(os.Stderr, "\tat %s\n", fn)
	}
}
