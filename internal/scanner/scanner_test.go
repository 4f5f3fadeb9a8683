package scanner

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/przytads/skill/internal/token"
)

type scanResult struct {
	tok token.Token
	lit string
}

func scanAll(t *testing.T, src string) ([]scanResult, int) {
	t.Helper()
	file := token.NewFile("test.skill", len(src))
	errCount := 0
	var s Scanner
	s.Init(file, []byte(src), func(pos token.Pos, msg string) { errCount++ })

	var out []scanResult
	for {
		_, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		out = append(out, scanResult{tok, lit})
	}
	return out, errCount
}

func TestScanBasicDeclaration(t *testing.T) {
	toks, errCount := scanAll(t, `Message { string name; }`)
	qt.Assert(t, qt.Equals(errCount, 0))
	qt.Assert(t, qt.DeepEquals(toks, []scanResult{
		{token.IDENT, "Message"},
		{token.LBRACE, ""},
		{token.IDENT, "string"},
		{token.IDENT, "name"},
		{token.SEMI, ""},
		{token.RBRACE, ""},
	}))
}

func TestScanKeywords(t *testing.T) {
	toks, errCount := scanAll(t, `include with extends auto const map set list`)
	qt.Assert(t, qt.Equals(errCount, 0))
	want := []token.Token{
		token.INCLUDE, token.WITH, token.EXTENDS, token.AUTO,
		token.CONST, token.MAP, token.SET, token.LIST,
	}
	qt.Assert(t, qt.Equals(len(toks), len(want)))
	for i, tk := range want {
		qt.Assert(t, qt.Equals(toks[i].tok, tk))
	}
}

func TestScanOperators(t *testing.T) {
	toks, errCount := scanAll(t, `{}[]()<>:;,=@!`)
	qt.Assert(t, qt.Equals(errCount, 0))
	want := []token.Token{
		token.LBRACE, token.RBRACE, token.LBRACK, token.RBRACK,
		token.LPAREN, token.RPAREN, token.LSS, token.GTR,
		token.COLON, token.SEMI, token.COMMA, token.ASSIGN,
		token.AT, token.NOT,
	}
	qt.Assert(t, qt.Equals(len(toks), len(want)))
	for i, tk := range want {
		qt.Assert(t, qt.Equals(toks[i].tok, tk))
	}
}

func TestScanIntAndString(t *testing.T) {
	toks, errCount := scanAll(t, `42 0x1F "hello.skill"`)
	qt.Assert(t, qt.Equals(errCount, 0))
	qt.Assert(t, qt.DeepEquals(toks, []scanResult{
		{token.INT, "42"},
		{token.INT, "0x1F"},
		{token.STRING, `"hello.skill"`},
	}))
}

func TestScanComment(t *testing.T) {
	toks, errCount := scanAll(t, `/* a doc comment */ Widget { }`)
	qt.Assert(t, qt.Equals(errCount, 0))
	qt.Assert(t, qt.Equals(toks[0].tok, token.COMMENT))
	qt.Assert(t, qt.Equals(toks[0].lit, "/* a doc comment */"))
	qt.Assert(t, qt.Equals(toks[1].tok, token.IDENT))
}

func TestScanUnterminatedStringIsAnError(t *testing.T) {
	_, errCount := scanAll(t, `"never closed`)
	qt.Assert(t, qt.Equals(errCount, 1))
}

func TestScanIllegalCharacter(t *testing.T) {
	_, errCount := scanAll(t, `Widget { i32 x # y; }`)
	qt.Assert(t, qt.Equals(errCount, 1))
}
