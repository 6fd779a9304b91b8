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

// Package token defines the lexical token kinds for the Ape language.
package token

import "fmt"

// Kind is the set of lexical token kinds produced by the lexer.
type Kind int

const (
	// Special tokens.
	Error Kind = iota
	EOF

	// Literals.
	Ident
	Number
	String

	// Operators (banana-themed arithmetic: ooh/aah/eek/ook).
	Ooh // +
	Aah // -
	Eek // *
	Ook // /

	Assign // =
	Equal  // ==
	NotEq  // !=
	Less   // <
	Greater
	LessEq
	GreaterEq
	Not // !

	// Punctuation.
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Colon

	keywordStart
	Ape      // ape   - variable declaration
	Tribe    // tribe - function declaration
	Give     // give  - return
	Tree     // tree  - print
	Ask      // ask   - read line
	Swing    // swing - counted loop
	Banana   // banana - while loop
	If       // if
	Else     // else
	Tumble   // tumble - try
	Catch    // catch
	Summon   // summon - import
	Forage   // forage - read a file into a string
	Inscribe // inscribe - write a string to a file
	Ripe     // ripe  - logical and
	Yellow   // yellow - logical or
	Bunch    // bunch - reserved; bunch literals are written [ ... ]
	Canopy   // canopy - reserved; canopy literals are written { ... }
	True
	False
	Nil
	keywordEnd
)

var names = [...]string{
	Error:  "error",
	EOF:    "eof",
	Ident:  "ident",
	Number: "number",
	String: "string",

	Ooh: "ooh",
	Aah: "aah",
	Eek: "eek",
	Ook: "ook",

	Assign:    "=",
	Equal:     "==",
	NotEq:     "!=",
	Less:      "<",
	Greater:   ">",
	LessEq:    "<=",
	GreaterEq: ">=",
	Not:       "!",

	LParen:   "(",
	RParen:   ")",
	LBrace:   "{",
	RBrace:   "}",
	LBracket: "[",
	RBracket: "]",
	Comma:    ",",
	Colon:    ":",

	Ape:      "ape",
	Tribe:    "tribe",
	Give:     "give",
	Tree:     "tree",
	Ask:      "ask",
	Swing:    "swing",
	Banana:   "banana",
	If:       "if",
	Else:     "else",
	Tumble:   "tumble",
	Catch:    "catch",
	Summon:   "summon",
	Forage:   "forage",
	Inscribe: "inscribe",
	Ripe:     "ripe",
	Yellow:   "yellow",
	Bunch:    "bunch",
	Canopy:   "canopy",
	True:     "true",
	False:    "false",
	Nil:      "nil",
}

// String returns the human-readable name of a token kind.
func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(names) && names[k] != "" {
		return names[k]
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// IsKeyword reports whether k is one of the reserved words.
func (k Kind) IsKeyword() bool {
	return k > keywordStart && k < keywordEnd
}

var keywords map[string]Kind

func init() {
	keywords = make(map[string]Kind, keywordEnd-keywordStart+3)
	for k := keywordStart + 1; k < keywordEnd; k++ {
		keywords[names[k]] = k
	}
	// The word-form arithmetic operators live outside the keyword range so
	// their Kind values group with the symbolic operators, but they are
	// reserved words all the same.
	for _, k := range []Kind{Ooh, Aah, Eek, Ook} {
		keywords[names[k]] = k
	}
}

// Lookup returns the keyword Kind for ident, or Ident if it is not a
// reserved word.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Ident
}

// Token is a lexeme span: a kind tag plus the lexeme text. The lexeme is a
// string copy of the source bytes, so a Token does not reference the
// caller's source buffer and may be kept after the lexer moves on.
type Token struct {
	Kind   Kind
	Lexeme string // copy of the scanned source bytes
	Line   int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q (line %d)", t.Kind, t.Lexeme, t.Line)
}
