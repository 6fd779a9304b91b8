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
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/duongddinh/apelang/compiler"
	"github.com/duongddinh/apelang/value"
	"github.com/duongddinh/apelang/vm"
)

func runCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("run: expected exactly one <file.apb> argument", exitUsage)
	}
	code, err := ioutil.ReadFile(c.Args().First())
	if err != nil {
		return cli.NewExitError(errors.Wrapf(err, "failed to read %q", c.Args().First()).Error(), exitIO)
	}
	return execute(code)
}

// runInline compiles and runs src directly, for `ape -e '...'`.
func runInline(src string) error {
	var diag bytes.Buffer
	code, ok := compiler.Compile([]byte(src), "-e", &diag)
	if !ok {
		printDiag(diag.String())
		return cli.NewExitError("", exitCompile)
	}
	return execute(code)
}

func execute(code []byte) error {
	m, err := vm.New(vm.WithModuleLoader(moduleLoaderFS))
	if err != nil {
		return cli.NewExitError(err.Error(), exitRuntime)
	}
	fn := value.NewOwnerFunction(nil, 0, code)
	_, runErr := m.Run(fn)
	if outErr := m.OutputError(); outErr != nil && runErr == nil {
		return cli.NewExitError(outErr.Error(), exitIO)
	}
	if runErr != nil {
		if re, ok := runErr.(*vm.RuntimeError); ok {
			printRuntimeError(re.Message, re.Trace)
			return cli.NewExitError("", exitRuntime)
		}
		return cli.NewExitError(runErr.Error(), exitRuntime)
	}
	return nil
}
