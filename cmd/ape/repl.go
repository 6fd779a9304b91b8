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
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/duongddinh/apelang/compiler"
	"github.com/duongddinh/apelang/value"
	"github.com/duongddinh/apelang/vm"
)

func replCommand(c *cli.Context) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	m, err := vm.New(vm.WithModuleLoader(moduleLoaderFS))
	if err != nil {
		return cli.NewExitError(err.Error(), exitRuntime)
	}

	n := 0
	for {
		input, err := line.Prompt("ape> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return cli.NewExitError(err.Error(), exitIO)
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)
		n++
		replEval(m, input, n)
	}
}

// replEval compiles and runs one REPL line against the persistent Machine.
// It first tries wrapping the input as a `tree (...)` expression so bare
// expressions echo their value the way spec.md's REPL describes; if that
// fails to compile (the line is itself a statement, e.g. an `ape` or
// `tribe` declaration), it falls back to compiling the line as-is.
func replEval(m *vm.Machine, input string, n int) {
	name := fmt.Sprintf("<repl:%d>", n)

	var diag bytes.Buffer
	code, ok := compiler.Compile([]byte("tree ("+input+")"), name, &diag)
	if !ok {
		diag.Reset()
		code, ok = compiler.Compile([]byte(input), name, &diag)
	}
	if !ok {
		printDiag(diag.String())
		return
	}

	fn := value.NewOwnerFunction(nil, 0, code)
	if _, err := m.Run(fn); err != nil {
		if re, ok := err.(*vm.RuntimeError); ok {
			printRuntimeError(re.Message, re.Trace)
			return
		}
		printRuntimeError(err.Error(), nil)
	}
}
