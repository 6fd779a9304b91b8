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

package vm

import "strings"

// RuntimeError is a failed Ape-level computation that reached the VM with
// no active handler. Message is the formatted diagnostic; Trace is the
// function-name stack trace, innermost first. When the error originated
// from a Go error (a failed summon file read, for instance), cause holds
// it so errors.Cause(err) still recovers the original sentinel, matching
// how the rest of this module wraps errors.
type RuntimeError struct {
	Message string
	Trace   []string
	cause   error
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, fn := range e.Trace {
		b.WriteString("\n\tat ")
		b.WriteString(fn)
	}
	return b.String()
}

// Cause implements the github.com/pkg/errors causer interface.
func (e *RuntimeError) Cause() error { return e.cause }
