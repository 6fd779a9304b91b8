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

// Package apeio provides ErrWriter, a write-error-sticking wrapper the VM
// uses for tree/print output. It has no line reader; ask and the REPL read
// input elsewhere.
package apeio

import (
	"io"

	"github.com/pkg/errors"
)

// ErrWriter wraps an io.Writer and latches the first write error it sees.
// tree prints run in a tight loop with no per-call error checking; a
// machine whose output is a closed pipe (e.g. `ape run foo.ape | head`)
// would otherwise spend the rest of the run retrying a write that will
// never succeed. Once latched, Write becomes a no-op that keeps returning
// the same error, so the caller can check once after a run instead of
// after every print.
type ErrWriter struct {
	w   io.Writer
	err error
}

// NewErrWriter wraps w.
func NewErrWriter(w io.Writer) *ErrWriter {
	return &ErrWriter{w: w}
}

func (e *ErrWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = errors.Wrap(err, "apeio: write failed")
	}
	return n, err
}

// Err returns the first write error encountered, or nil if every write so
// far has succeeded.
func (e *ErrWriter) Err() error {
	return e.err
}
