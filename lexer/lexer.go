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

// Package lexer turns Ape source text into a lazy sequence of tokens.
//
// The lexer is a byte-at-a-time cursor over a source buffer owned by the
// caller. Token lexemes are string copies of the scanned bytes, so tokens
// do not keep the buffer alive. Keyword recognition uses a hand-written
// trie keyed on a lexeme's first byte (and, where ambiguous, its length and
// a couple more bytes) rather than a generic map lookup on the hot path.
package lexer

import "github.com/duongddinh/apelang/token"

// Lexer scans Ape source text into tokens.
type Lexer struct {
	src  []byte
	pos  int // index of the next unread byte
	ch   byte
	line int
}

// New creates a Lexer over src. The returned Lexer borrows src; the caller
// must keep src unmodified for as long as the Lexer is in use. Tokens it
// produces hold copies of their lexemes.
func New(src []byte) *Lexer {
	l := &Lexer{src: src, line: 1}
	l.advance()
	return l
}

// advance consumes the current byte and loads the next one into l.ch. At
// end of input, l.ch is 0.
func (l *Lexer) advance() {
	if l.pos >= len(l.src) {
		l.ch = 0
		l.pos++
		return
	}
	l.ch = l.src[l.pos]
	l.pos++
}

// peek returns the byte after l.ch without consuming anything.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isAlpha(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isAlnum(ch byte) bool { return isAlpha(ch) || isDigit(ch) }

// skipSpaceAndComments consumes ASCII whitespace and '#'-prefixed line
// comments, tracking line numbers as it goes.
func (l *Lexer) skipSpaceAndComments() {
	for {
		switch l.ch {
		case ' ', '\t', '\r':
			l.advance()
		case '\n':
			l.line++
			l.advance()
		case '#':
			for l.ch != '\n' && l.ch != 0 {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) make(kind token.Kind, start int) token.Token {
	return token.Token{Kind: kind, Lexeme: string(l.src[start : l.pos-1]), Line: l.line}
}

// Next scans and returns the next token. After EOF, subsequent calls keep
// returning an EOF token.
func (l *Lexer) Next() token.Token {
	l.skipSpaceAndComments()

	line := l.line
	start := l.pos - 1
	ch := l.ch

	if ch == 0 {
		return token.Token{Kind: token.EOF, Line: line}
	}
	l.advance()

	switch {
	case isAlpha(ch):
		for isAlnum(l.ch) {
			l.advance()
		}
		lexeme := l.src[start : l.pos-1]
		return token.Token{Kind: keywordOrIdent(lexeme), Lexeme: string(lexeme), Line: line}
	case isDigit(ch):
		for isDigit(l.ch) {
			l.advance()
		}
		if l.ch == '.' && isDigit(l.peek()) {
			l.advance()
			for isDigit(l.ch) {
				l.advance()
			}
		}
		return l.make(token.Number, start)
	case ch == '"':
		for l.ch != '"' {
			if l.ch == 0 {
				return token.Token{Kind: token.Error, Lexeme: "unterminated string", Line: line}
			}
			if l.ch == '\n' {
				l.line++
			}
			l.advance()
		}
		lexeme := string(l.src[start+1 : l.pos-1])
		l.advance() // consume closing quote
		return token.Token{Kind: token.String, Lexeme: lexeme, Line: line}
	}

	switch ch {
	case '+':
		return token.Token{Kind: token.Ooh, Lexeme: "+", Line: line}
	case '-':
		return token.Token{Kind: token.Aah, Lexeme: "-", Line: line}
	case '*':
		return token.Token{Kind: token.Eek, Lexeme: "*", Line: line}
	case '/':
		return token.Token{Kind: token.Ook, Lexeme: "/", Line: line}
	case '(':
		return token.Token{Kind: token.LParen, Lexeme: "(", Line: line}
	case ')':
		return token.Token{Kind: token.RParen, Lexeme: ")", Line: line}
	case '{':
		return token.Token{Kind: token.LBrace, Lexeme: "{", Line: line}
	case '}':
		return token.Token{Kind: token.RBrace, Lexeme: "}", Line: line}
	case '[':
		return token.Token{Kind: token.LBracket, Lexeme: "[", Line: line}
	case ']':
		return token.Token{Kind: token.RBracket, Lexeme: "]", Line: line}
	case ',':
		return token.Token{Kind: token.Comma, Lexeme: ",", Line: line}
	case ':':
		return token.Token{Kind: token.Colon, Lexeme: ":", Line: line}
	case '=':
		if l.ch == '=' {
			l.advance()
			return token.Token{Kind: token.Equal, Lexeme: "==", Line: line}
		}
		return token.Token{Kind: token.Assign, Lexeme: "=", Line: line}
	case '!':
		if l.ch == '=' {
			l.advance()
			return token.Token{Kind: token.NotEq, Lexeme: "!=", Line: line}
		}
		return token.Token{Kind: token.Not, Lexeme: "!", Line: line}
	case '<':
		if l.ch == '=' {
			l.advance()
			return token.Token{Kind: token.LessEq, Lexeme: "<=", Line: line}
		}
		return token.Token{Kind: token.Less, Lexeme: "<", Line: line}
	case '>':
		if l.ch == '=' {
			l.advance()
			return token.Token{Kind: token.GreaterEq, Lexeme: ">=", Line: line}
		}
		return token.Token{Kind: token.Greater, Lexeme: ">", Line: line}
	}

	return token.Token{Kind: token.Error, Lexeme: "unrecognized character " + string(ch), Line: line}
}

// keywordOrIdent resolves a scanned identifier lexeme to its keyword kind,
// using a hand-written trie on the first byte (and second, where two
// keywords share a first byte). The trie exists to avoid a map lookup on
// every identifier and decides on its own: token.Lookup holds the same
// keyword set but is not consulted here.
func keywordOrIdent(lexeme []byte) token.Kind {
	if len(lexeme) == 0 {
		return token.Ident
	}
	switch lexeme[0] {
	case 'a':
		if len(lexeme) > 1 {
			switch lexeme[1] {
			case 'a':
				return exact(lexeme, "aah", token.Aah)
			case 'p':
				return exact(lexeme, "ape", token.Ape)
			case 's':
				return exact(lexeme, "ask", token.Ask)
			}
		}
	case 'b':
		if len(lexeme) > 1 && lexeme[1] == 'u' {
			return exact(lexeme, "bunch", token.Bunch)
		}
		return exact(lexeme, "banana", token.Banana)
	case 'c':
		if len(lexeme) > 2 && lexeme[2] == 'n' {
			return exact(lexeme, "canopy", token.Canopy)
		}
		return exact(lexeme, "catch", token.Catch)
	case 'e':
		if len(lexeme) > 1 && lexeme[1] == 'e' {
			return exact(lexeme, "eek", token.Eek)
		}
		return exact(lexeme, "else", token.Else)
	case 'f':
		if len(lexeme) > 1 && lexeme[1] == 'o' {
			return exact(lexeme, "forage", token.Forage)
		}
		return exact(lexeme, "false", token.False)
	case 'g':
		return exact(lexeme, "give", token.Give)
	case 'i':
		if len(lexeme) > 1 && lexeme[1] == 'n' {
			return exact(lexeme, "inscribe", token.Inscribe)
		}
		return exact(lexeme, "if", token.If)
	case 'n':
		return exact(lexeme, "nil", token.Nil)
	case 'o':
		if len(lexeme) > 2 && lexeme[1] == 'o' {
			switch lexeme[2] {
			case 'h':
				return exact(lexeme, "ooh", token.Ooh)
			case 'k':
				return exact(lexeme, "ook", token.Ook)
			}
		}
	case 'r':
		return exact(lexeme, "ripe", token.Ripe)
	case 's':
		if len(lexeme) > 1 && lexeme[1] == 'w' {
			return exact(lexeme, "swing", token.Swing)
		}
		return exact(lexeme, "summon", token.Summon)
	case 't':
		if len(lexeme) > 1 {
			switch lexeme[1] {
			case 'r':
				if exact(lexeme, "tree", token.Tree) == token.Tree {
					return token.Tree
				}
				if exact(lexeme, "true", token.True) == token.True {
					return token.True
				}
				return exact(lexeme, "tribe", token.Tribe)
			case 'u':
				return exact(lexeme, "tumble", token.Tumble)
			}
		}
		return exact(lexeme, "true", token.True)
	case 'y':
		return exact(lexeme, "yellow", token.Yellow)
	}
	return token.Ident
}

func exact(lexeme []byte, word string, kind token.Kind) token.Kind {
	if string(lexeme) == word {
		return kind
	}
	return token.Ident
}
