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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompileFileDiscoversSummonDependencies compiles an entry point that
// summons a second file, and checks both land on disk as .apb artifacts
// with the entry point's dependency compiled exactly once.
func TestCompileFileDiscoversSummonDependencies(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "lib.ape"), []byte(`ape shared = 42`), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "main.ape"), []byte(`summon "lib.ape"  tree shared`), 0644))

	visited := map[string]bool{}
	err := compileFile(filepath.Join(dir, "main.ape"), visited, true)
	require.NoError(t, err)

	for _, name := range []string{"main.apb", "lib.apb"} {
		_, statErr := ioutil.ReadFile(filepath.Join(dir, name))
		assert.NoError(t, statErr, "%s should have been compiled", name)
	}
	assert.Len(t, visited, 2)
}

func TestCompileFileRejectsNonApeExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.txt")
	require.NoError(t, ioutil.WriteFile(path, []byte(`tree 1`), 0644))

	err := compileFile(path, map[string]bool{}, true)
	assert.Error(t, err)
}

func TestExecuteRunsCompiledSummonChain(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "lib.ape"), []byte(`ape shared = 42`), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "main.ape"), []byte(`summon "lib.ape"  tree shared`), 0644))

	require.NoError(t, compileFile(filepath.Join(dir, "main.ape"), map[string]bool{}, true))

	code, err := ioutil.ReadFile(filepath.Join(dir, "main.apb"))
	require.NoError(t, err)

	// execute resolves summon relative to the process's working directory
	// via moduleLoaderFS, matching execSummon's own plain-path lookup; run
	// it from the compiled artifacts' own directory.
	prevWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(prevWD)

	assert.NoError(t, execute(code))
}
