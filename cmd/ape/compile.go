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
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/duongddinh/apelang/compiler"
)

func compileCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("compile: expected exactly one <file.ape> argument", exitUsage)
	}
	return compileFile(c.Args().First(), map[string]bool{}, true)
}

// compileFile compiles path to its .apb sibling, then recursively compiles
// every file it reaches via summon, each visited at most once. Dependency
// paths are resolved relative to the summoning file's own directory. root
// distinguishes the entry point (a missing file is a usage/I-O problem)
// from a summoned dependency (a missing one is specifically exit code 71,
// per spec.md's "dependency error").
func compileFile(path string, visited map[string]bool, root bool) error {
	if visited[path] {
		return nil
	}
	visited[path] = true

	out, err := apbPath(path)
	if err != nil {
		return cli.NewExitError(err.Error(), exitUsage)
	}

	src, err := ioutil.ReadFile(path)
	if err != nil {
		code := exitIO
		if !root {
			code = exitDependency
		}
		return cli.NewExitError(errors.Wrapf(err, "failed to read %q", path).Error(), code)
	}

	var diag bytes.Buffer
	compiled, ok := compiler.Compile(src, path, &diag)
	if !ok {
		printDiag(diag.String())
		return cli.NewExitError("", exitCompile)
	}

	if err := ioutil.WriteFile(out, compiled, 0644); err != nil {
		return cli.NewExitError(errors.Wrapf(err, "failed to write %q", out).Error(), exitIO)
	}

	dir := filepath.Dir(path)
	for _, dep := range summonedSources(compiled) {
		depPath := dep
		if !filepath.IsAbs(depPath) {
			depPath = filepath.Join(dir, depPath)
		}
		if err := compileFile(depPath, visited, false); err != nil {
			return err
		}
	}
	return nil
}
