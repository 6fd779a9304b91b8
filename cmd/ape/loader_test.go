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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duongddinh/apelang/compiler"
)

func TestApbPathReplacesApeSuffix(t *testing.T) {
	out, err := apbPath("lib/foo.ape")
	require.NoError(t, err)
	assert.Equal(t, "lib/foo.apb", out)
}

func TestApbPathRejectsWrongExtension(t *testing.T) {
	_, err := apbPath("foo.txt")
	assert.Error(t, err)
}

func TestSummonedSourcesFindsEveryDependency(t *testing.T) {
	var diag bytes.Buffer
	code, ok := compiler.Compile([]byte(`summon "a.ape"  summon "b.ape"`), "test.ape", &diag)
	require.True(t, ok, diag.String())

	deps := summonedSources(code)
	assert.Equal(t, []string{"a.ape", "b.ape"}, deps)
}

func TestSummonedSourcesEmptyWhenNoSummon(t *testing.T) {
	var diag bytes.Buffer
	code, ok := compiler.Compile([]byte(`tree 1 ooh 1`), "test.ape", &diag)
	require.True(t, ok, diag.String())

	assert.Empty(t, summonedSources(code))
}
