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
	"io/ioutil"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/duongddinh/apelang/bytecode"
)

func disassembleCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("disassemble: expected exactly one <file.apb> argument", exitUsage)
	}
	path := c.Args().First()
	code, err := ioutil.ReadFile(path)
	if err != nil {
		return cli.NewExitError(errors.Wrapf(err, "failed to read %q", path).Error(), exitIO)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Offset", "Op", "Operand"})
	table.SetAutoWrapText(false)
	if cols, _ := consoleSize(os.Stdout); cols > 0 {
		table.SetColWidth(cols / 3)
	}

	for _, instr := range bytecode.Disassemble(code) {
		table.Append([]string{fmt.Sprintf("%04d", instr.Offset), instr.Op.String(), instr.Operand})
	}
	table.Render()
	return nil
}
