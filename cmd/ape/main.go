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

	"gopkg.in/urfave/cli.v1"
)

// Exit codes, per the reference CLI's convention.
const (
	exitUsage      = 64
	exitCompile    = 65
	exitRuntime    = 70
	exitDependency = 71
	exitIO         = 74
)

var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "ape"
	app.Usage = "compile, run, and disassemble Ape scripts"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "e",
			Usage: "compile and run `SOURCE` directly instead of reading a file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "compile",
			Usage:     "compile a .ape file (and its summon dependencies) to .apb",
			ArgsUsage: "<file.ape>",
			Action:    compileCommand,
		},
		{
			Name:      "run",
			Usage:     "execute a compiled .apb artifact",
			ArgsUsage: "<file.apb>",
			Action:    runCommand,
		},
		{
			Name:   "repl",
			Usage:  "start an interactive session against a persistent VM",
			Action: replCommand,
		},
		{
			Name:      "disassemble",
			Usage:     "print a human-readable listing of a .apb file",
			ArgsUsage: "<file.apb>",
			Action:    disassembleCommand,
		},
		{
			Name:      "assemble",
			Usage:     "assemble a textual .apa listing to .apb",
			ArgsUsage: "<file.apa>",
			Action:    assembleCommand,
		},
	}
	app.Action = func(c *cli.Context) error {
		if src := c.String("e"); src != "" {
			return runInline(src)
		}
		return cli.ShowAppHelp(c)
	}

	// app.Run already calls os.Exit for errors that implement cli.ExitCoder
	// (every error our commands return); reaching here means a plain error
	// escaped instead, e.g. cli's own flag parsing.
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
}
