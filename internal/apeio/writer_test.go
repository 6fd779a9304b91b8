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

package apeio

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type failingWriter struct {
	err   error
	calls int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	f.calls++
	return 0, f.err
}

func TestErrWriterPassesThroughUntilFirstError(t *testing.T) {
	var buf bytes.Buffer
	w := NewErrWriter(&buf)

	n, err := w.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
	assert.NoError(t, w.Err())
}

func TestErrWriterLatchesFirstErrorAndStopsWriting(t *testing.T) {
	underlying := &failingWriter{err: errors.New("broken pipe")}
	w := NewErrWriter(underlying)

	_, err := w.Write([]byte("a"))
	assert.Error(t, err)
	assert.Equal(t, 1, underlying.calls)

	_, err2 := w.Write([]byte("b"))
	assert.Error(t, err2)
	assert.Equal(t, 1, underlying.calls, "a writer that has latched an error must not retry the underlying write")
	assert.Equal(t, w.Err(), err2)
}
