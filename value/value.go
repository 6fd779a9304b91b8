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

// Package value defines Ape's runtime value representation: a tagged union
// of four variants (Nil, Bool, Number, Obj) and the heap object kinds an Obj
// handle can reference. Dispatch is always driven by the Kind tag, never by
// Go's own dynamic type switch on an arbitrary interface{}; the Obj
// variant's payload is narrowed with type assertions against the small,
// closed set of object kinds this package defines.
package value

import (
	"fmt"
	"strconv"
)

// Kind tags a Value's active variant.
type Kind int

const (
	KNil Kind = iota
	KBool
	KNumber
	KObj
)

// Value is a copy-by-value tagged union. Copying a KObj value aliases the
// referenced heap Object; every other variant is copied by value.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Obj    Object
}

// Nil is the singular nil value.
var Nil = Value{Kind: KNil}

// Bool constructs a boolean value.
func Bool(b bool) Value { return Value{Kind: KBool, Bool: b} }

// Num constructs a numeric value.
func Num(n float64) Value { return Value{Kind: KNumber, Number: n} }

// Obj constructs a value wrapping a heap object handle.
func Obj(o Object) Value { return Value{Kind: KObj, Obj: o} }

// IsNil reports whether v is the nil value.
func (v Value) IsNil() bool { return v.Kind == KNil }

// Truthy implements Ape's truthiness rule: only nil and false are false.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KNil:
		return false
	case KBool:
		return v.Bool
	default:
		return true
	}
}

// Equal implements Ape's equality rule: structural for strings, by identity
// for every other object kind, and by value for Nil/Bool/Number (comparing
// across different kinds is always false).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KNil:
		return true
	case KBool:
		return a.Bool == b.Bool
	case KNumber:
		return a.Number == b.Number
	case KObj:
		as, aIsStr := a.Obj.(*String)
		bs, bIsStr := b.Obj.(*String)
		if aIsStr && bIsStr {
			return as.Chars == bs.Chars
		}
		return a.Obj == b.Obj
	default:
		return false
	}
}

// TypeName returns the name used in runtime type-mismatch diagnostics.
func (v Value) TypeName() string {
	switch v.Kind {
	case KNil:
		return "nil"
	case KBool:
		return "bool"
	case KNumber:
		return "number"
	case KObj:
		switch v.Obj.(type) {
		case *String:
			return "string"
		case *Function:
			return "tribe"
		case *Bunch:
			return "bunch"
		case *Canopy:
			return "canopy"
		}
	}
	return "value"
}

// Format renders v the way `tree` (print) and the REPL's echo path do:
// %g-equivalent formatting for numbers, bare text for strings, and the
// literal words nil/true/false; never a Go debug representation.
func Format(v Value) string {
	switch v.Kind {
	case KNil:
		return "nil"
	case KBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case KObj:
		switch o := v.Obj.(type) {
		case *String:
			return o.Chars
		case *Function:
			if o.Name != nil {
				return fmt.Sprintf("<tribe %s>", o.Name.Chars)
			}
			return "<tribe>"
		case *Bunch:
			return formatBunch(o)
		case *Canopy:
			return formatCanopy(o)
		}
	}
	return "<value>"
}

func formatBunch(b *Bunch) string {
	s := "["
	for i, item := range b.Items {
		if i > 0 {
			s += ", "
		}
		s += Format(item)
	}
	return s + "]"
}

func formatCanopy(c *Canopy) string {
	s := "{"
	for i, e := range c.Entries() {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%q: %s", e.Key.Obj.(*String).Chars, Format(e.Value))
	}
	return s + "}"
}
