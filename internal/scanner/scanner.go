// Package scanner implements a lexer for SKilL schema text. It takes a
// []byte as source and tokenizes it through repeated calls to Scan.
package scanner

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/przytads/skill/internal/errors"
	"github.com/przytads/skill/internal/token"
)

// A Scanner holds the scanner's state while processing a source file. It
// must be initialized via Init before use.
type Scanner struct {
	file *token.File
	src  []byte
	err  errors.Handler

	ch       rune // current character, -1 at EOF
	offset   int  // position of ch
	rdOffset int  // reading offset (position after ch)

	ErrorCount int
}

const bom = 0xFEFF

// Init prepares s to tokenize src. file must have been created with a size
// equal to len(src); Init panics otherwise. err, if non-nil, is invoked for
// every lexical error encountered.
func (s *Scanner) Init(file *token.File, src []byte, err errors.Handler) {
	if file.Size() != len(src) {
		panic(fmt.Sprintf("file size (%d) does not match src len (%d)", file.Size(), len(src)))
	}
	s.file = file
	s.src = src
	s.err = err
	s.ch = ' '
	s.offset = 0
	s.rdOffset = 0
	s.ErrorCount = 0

	s.next()
	if s.ch == bom {
		s.next()
	}
}

func (s *Scanner) next() {
	if s.rdOffset < len(s.src) {
		s.offset = s.rdOffset
		if s.ch == '\n' {
			s.file.AddLine(s.offset)
		}
		r, w := rune(s.src[s.rdOffset]), 1
		switch {
		case r == 0:
			s.error(s.offset, "illegal character NUL")
		case r >= utf8.RuneSelf:
			r, w = utf8.DecodeRune(s.src[s.rdOffset:])
			if r == utf8.RuneError && w == 1 {
				s.error(s.offset, "illegal UTF-8 encoding")
			}
		}
		s.rdOffset += w
		s.ch = r
	} else {
		s.offset = len(s.src)
		if s.ch == '\n' {
			s.file.AddLine(s.offset)
		}
		s.ch = -1
	}
}

func (s *Scanner) error(offs int, msg string) {
	if s.err != nil {
		s.err(s.file.Pos(offs), msg)
	}
	s.ErrorCount++
}

// isIdentStart reports whether ch may start an identifier, per the grammar:
// [A-Za-z_-￿].
func isIdentStart(ch rune) bool {
	return ch == '_' ||
		'a' <= ch && ch <= 'z' ||
		'A' <= ch && ch <= 'Z' ||
		ch >= 0x7F
}

// isIdentCont reports whether ch may continue an identifier: \w plus the
// same extended range, i.e. letters, digits, underscore, and
// -￿.
func isIdentCont(ch rune) bool {
	return isIdentStart(ch) || unicode.IsDigit(ch)
}

func isHexDigit(ch rune) bool {
	return '0' <= ch && ch <= '9' || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}

func (s *Scanner) skipWhitespace() {
	for s.ch == ' ' || s.ch == '\t' || s.ch == '\n' || s.ch == '\r' {
		s.next()
	}
}

func (s *Scanner) scanIdentifier() string {
	offs := s.offset
	for isIdentCont(s.ch) {
		s.next()
	}
	return string(s.src[offs:s.offset])
}

// scanNumber recognizes hex integer literals 0x[0-9A-Fa-f]+.
func (s *Scanner) scanNumber() (token.Token, string) {
	offs := s.offset
	if s.ch == '0' {
		s.next()
		if s.ch == 'x' || s.ch == 'X' {
			s.next()
			start := s.offset
			for isHexDigit(s.ch) {
				s.next()
			}
			if s.offset == start {
				s.error(offs, "malformed hex literal")
			}
			return token.INT, string(s.src[offs:s.offset])
		}
	}
	for '0' <= s.ch && s.ch <= '9' {
		s.next()
	}
	return token.INT, string(s.src[offs:s.offset])
}

// scanString recognizes a double-quoted string literal with no interior
// escapes, per the grammar.
func (s *Scanner) scanString() string {
	offs := s.offset - 1 // position of opening quote
	for {
		ch := s.ch
		if ch == '\n' || ch < 0 {
			s.error(offs, "string literal not terminated")
			break
		}
		s.next()
		if ch == '"' {
			break
		}
	}
	return string(s.src[offs:s.offset])
}

// scanComment recognizes a C-style block comment /* ... */. The leading
// "/*" has already been consumed by the caller.
func (s *Scanner) scanComment(offs int) string {
	for {
		if s.ch < 0 {
			s.error(offs, "comment not terminated")
			break
		}
		ch := s.ch
		s.next()
		if ch == '*' && s.ch == '/' {
			s.next()
			break
		}
	}
	return string(s.src[offs:s.offset])
}

// Scan returns the position, token kind, and literal text of the next
// token in the source. At EOF, Scan returns token.EOF repeatedly.
func (s *Scanner) Scan() (pos token.Pos, tok token.Token, lit string) {
	s.skipWhitespace()

	offset := s.offset
	pos = s.file.Pos(offset)

	switch ch := s.ch; {
	case isIdentStart(ch):
		lit = s.scanIdentifier()
		tok = token.Lookup(lit)
	case '0' <= ch && ch <= '9':
		tok, lit = s.scanNumber()
	default:
		s.next()
		switch ch {
		case -1:
			tok = token.EOF
		case '"':
			tok = token.STRING
			lit = s.scanString()
		case '/':
			if s.ch == '*' {
				s.next()
				lit = s.scanComment(offset)
				tok = token.COMMENT
			} else {
				s.error(offset, fmt.Sprintf("illegal character %#U", ch))
				tok = token.ILLEGAL
			}
		case '{':
			tok = token.LBRACE
		case '}':
			tok = token.RBRACE
		case '[':
			tok = token.LBRACK
		case ']':
			tok = token.RBRACK
		case '(':
			tok = token.LPAREN
		case ')':
			tok = token.RPAREN
		case '<':
			tok = token.LSS
		case '>':
			tok = token.GTR
		case ':':
			tok = token.COLON
		case ';':
			tok = token.SEMI
		case ',':
			tok = token.COMMA
		case '=':
			tok = token.ASSIGN
		case '@':
			tok = token.AT
		case '!':
			tok = token.NOT
		default:
			s.error(offset, fmt.Sprintf("illegal character %#U", ch))
			tok = token.ILLEGAL
			lit = string(ch)
		}
	}
	return pos, tok, lit
}
