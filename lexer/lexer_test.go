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

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duongddinh/apelang/token"
)

func tokenKinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	l := New([]byte(src))
	var kinds []token.Kind
	for {
		tok := l.Next()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			return kinds
		}
	}
}

func TestLexerKeywordsAndIdents(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{"decl", "ape x = 1", []token.Kind{token.Ape, token.Ident, token.Assign, token.Number, token.EOF}},
		{"tribe", "tribe f() { give 1 }", []token.Kind{
			token.Tribe, token.Ident, token.LParen, token.RParen,
			token.LBrace, token.Give, token.Number, token.RBrace, token.EOF,
		}},
		{"banana-themed ops", "1 ooh 2 aah 3 eek 4 ook 5", []token.Kind{
			token.Number, token.Ooh, token.Number, token.Aah, token.Number,
			token.Eek, token.Number, token.Ook, token.Number, token.EOF,
		}},
		{"logical", "a ripe b yellow c", []token.Kind{
			token.Ident, token.Ripe, token.Ident, token.Yellow, token.Ident, token.EOF,
		}},
		{"comparisons", "a == b != c <= d >= e < f > g", []token.Kind{
			token.Ident, token.Equal, token.Ident, token.NotEq, token.Ident,
			token.LessEq, token.Ident, token.GreaterEq, token.Ident,
			token.Less, token.Ident, token.Greater, token.Ident, token.EOF,
		}},
		{"ident not keyword prefix", "apex apples tribeName", []token.Kind{
			token.Ident, token.Ident, token.Ident, token.EOF,
		}},
		{"literals true false nil", "true false nil", []token.Kind{
			token.True, token.False, token.Nil, token.EOF,
		}},
		{"reserved words", "bunch canopy forage inscribe", []token.Kind{
			token.Bunch, token.Canopy, token.Forage, token.Inscribe, token.EOF,
		}},
		{"comment skipped", "ape x = 1 # this is a comment\nape y = 2", []token.Kind{
			token.Ape, token.Ident, token.Assign, token.Number,
			token.Ape, token.Ident, token.Assign, token.Number, token.EOF,
		}},
		{"bunch literal brackets", "[1, 2, 3]", []token.Kind{
			token.LBracket, token.Number, token.Comma, token.Number,
			token.Comma, token.Number, token.RBracket, token.EOF,
		}},
		{"canopy literal braces", `{"k": 1}`, []token.Kind{
			token.LBrace, token.String, token.Colon, token.Number, token.RBrace, token.EOF,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tokenKinds(t, tc.src))
		})
	}
}

func TestLexerNumbers(t *testing.T) {
	l := New([]byte("42 3.14 0"))
	tok := l.Next()
	assert.Equal(t, token.Number, tok.Kind)
	assert.Equal(t, "42", tok.Lexeme)

	tok = l.Next()
	assert.Equal(t, token.Number, tok.Kind)
	assert.Equal(t, "3.14", tok.Lexeme)

	tok = l.Next()
	assert.Equal(t, token.Number, tok.Kind)
	assert.Equal(t, "0", tok.Lexeme)
}

func TestLexerStrings(t *testing.T) {
	l := New([]byte(`"hello world"`))
	tok := l.Next()
	assert.Equal(t, token.String, tok.Kind)
	assert.Equal(t, "hello world", tok.Lexeme)
}

func TestLexerUnterminatedString(t *testing.T) {
	l := New([]byte(`"oops`))
	tok := l.Next()
	assert.Equal(t, token.Error, tok.Kind)
}

func TestLexerUnrecognizedChar(t *testing.T) {
	l := New([]byte("@"))
	tok := l.Next()
	assert.Equal(t, token.Error, tok.Kind)
}

func TestLexerLineTracking(t *testing.T) {
	l := New([]byte("ape x = 1\nape y = 2\n\nape z = 3"))
	var lines []int
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind == token.Ape {
			lines = append(lines, tok.Line)
		}
	}
	assert.Equal(t, []int{1, 2, 4}, lines)
}

func TestLexerEOFIsSticky(t *testing.T) {
	l := New([]byte(""))
	assert.Equal(t, token.EOF, l.Next().Kind)
	assert.Equal(t, token.EOF, l.Next().Kind)
}
