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
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/duongddinh/apelang/asm"
)

func assembleCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("assemble: expected exactly one <file.apa> argument", exitUsage)
	}
	path := c.Args().First()
	if !strings.HasSuffix(path, ".apa") {
		return cli.NewExitError(path+": assembly files must have a .apa extension", exitUsage)
	}

	src, err := ioutil.ReadFile(path)
	if err != nil {
		return cli.NewExitError(errors.Wrapf(err, "failed to read %q", path).Error(), exitIO)
	}

	code, err := asm.Assemble(path, bytes.NewReader(src))
	if err != nil {
		printDiag(err.Error() + "\n")
		return cli.NewExitError("", exitCompile)
	}

	out := strings.TrimSuffix(path, ".apa") + ".apb"
	if err := ioutil.WriteFile(out, code, 0644); err != nil {
		return cli.NewExitError(errors.Wrapf(err, "failed to write %q", out).Error(), exitIO)
	}
	return nil
}
