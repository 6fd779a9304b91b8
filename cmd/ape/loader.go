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
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/duongddinh/apelang/bytecode"
)

// apbPath derives a compiled artifact's path from a source path, matching
// execSummon's own `.ape` -> `.apb` suffix rule.
func apbPath(source string) (string, error) {
	if !strings.HasSuffix(source, ".ape") {
		return "", errors.Errorf("%s: source files must have a .ape extension", source)
	}
	return strings.TrimSuffix(source, ".ape") + ".apb", nil
}

// moduleLoaderFS resolves a summon'd artifact path against the filesystem,
// the concrete vm.ModuleLoader every host command that runs compiled code
// installs.
func moduleLoaderFS(path string) ([]byte, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read module %q", path)
	}
	return b, nil
}

// summonedSources scans compiled code for the `.ape` paths it summons: every
// OP_PUSH of a string constant immediately followed by OP_SUMMON. The
// compiler never emits a summon whose path isn't a string literal pushed
// right before it (see compiler's summonStatement), so this recovers the
// dependency list without re-parsing the original source.
func summonedSources(code []byte) []string {
	instrs := bytecode.Disassemble(code)
	var deps []string
	for i := 0; i+1 < len(instrs); i++ {
		if instrs[i].Op != bytecode.OpPush || instrs[i+1].Op != bytecode.OpSummon {
			continue
		}
		operand := instrs[i].Operand
		if !strings.HasPrefix(operand, "string ") {
			continue
		}
		s, err := strconv.Unquote(strings.TrimPrefix(operand, "string "))
		if err != nil {
			continue
		}
		deps = append(deps, s)
	}
	return deps
}
