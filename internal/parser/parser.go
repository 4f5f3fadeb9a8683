// Package parser implements a parser for SKilL schema source text. Given a
// filename and source bytes, [ParseFile] returns an [*ast.File] and an
// error that is a non-nil [errors.List] if any syntax error was
// encountered. No partial result is meaningful in the presence of errors;
// callers that need a best-effort AST for tooling can still inspect it,
// but the front end never promotes a file with errors to the type checker.
package parser

import (
	"strconv"

	"github.com/przytads/skill/internal/ast"
	"github.com/przytads/skill/internal/errors"
	"github.com/przytads/skill/internal/scanner"
	"github.com/przytads/skill/internal/token"
)

// ParseFile parses the schema source src (named filename for diagnostics)
// and returns the resulting AST.
func ParseFile(filename string, src []byte) (*ast.File, error) {
	var p parser
	p.init(filename, src)
	file := p.parseFile()
	p.errors.Sort()
	return file, p.errors.Err()
}

type parser struct {
	file    *token.File
	scanner scanner.Scanner
	errors  errors.List

	pos token.Pos
	tok token.Token
	lit string
}

func (p *parser) init(filename string, src []byte) {
	p.file = token.NewFile(filename, len(src))
	p.file.SetLinesForContent(src)
	p.scanner.Init(p.file, src, func(pos token.Pos, msg string) {
		p.errors.AddNewf(pos, "%s", msg)
	})
	p.next()
}

func (p *parser) next() {
	p.pos, p.tok, p.lit = p.scanner.Scan()
}

func (p *parser) errorf(pos token.Pos, format string, args ...interface{}) {
	p.errors.AddNewf(pos, format, args...)
}

func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.pos
	if p.tok != tok {
		p.errorf(p.pos, "expected %q, found %q", tok, p.tok)
	}
	p.next() // make progress regardless
	return pos
}

// parseFile parses File ::= Include* Decl*.
func (p *parser) parseFile() *ast.File {
	f := &ast.File{Filename: p.file.Name()}
	for p.tok == token.INCLUDE || p.tok == token.WITH {
		f.Includes = append(f.Includes, p.parseInclude()...)
	}
	for p.tok != token.EOF {
		if d := p.parseDecl(); d != nil {
			f.Decls = append(f.Decls, d)
		} else {
			p.next() // make progress on unrecoverable input
		}
	}
	return f
}

// parseInclude parses Include ::= ("include"|"with") String+.
func (p *parser) parseInclude() []*ast.Include {
	p.next() // consume include/with
	var out []*ast.Include
	for p.tok == token.STRING {
		out = append(out, &ast.Include{Path: unquote(p.lit), PathPos: p.pos})
		p.next()
	}
	if len(out) == 0 {
		p.errorf(p.pos, "expected a file name after include/with")
	}
	return out
}

// parseDecl parses Decl ::= Desc id ((":"|"with"|"extends") id)? "{" Field* "}".
func (p *parser) parseDecl() *ast.Definition {
	desc := p.parseDesc()
	if p.tok == token.EOF && len(desc.Restrictions) == 0 && len(desc.Hints) == 0 {
		return nil // a trailing comment with no declaration after it
	}
	if p.tok != token.IDENT {
		p.errorf(p.pos, "expected a type name, found %q", p.tok)
		return nil
	}
	d := &ast.Definition{Desc: desc, NamePos: p.pos, Name: &ast.Ident{NamePos: p.pos, Name: p.lit}}
	p.next()

	if p.tok == token.COLON || p.tok == token.WITH || p.tok == token.EXTENDS {
		p.next()
		if p.tok != token.IDENT {
			p.errorf(p.pos, "expected a super type name, found %q", p.tok)
		} else {
			d.SuperName = &ast.Ident{NamePos: p.pos, Name: p.lit}
			p.next()
		}
	}

	d.Lbrace = p.expect(token.LBRACE)
	for p.tok != token.RBRACE && p.tok != token.EOF {
		if f := p.parseField(); f != nil {
			d.Fields = append(d.Fields, f)
		} else {
			p.next()
		}
	}
	d.Rbrace = p.expect(token.RBRACE)
	return d
}

// parseField parses Field ::= Desc (Const|Data) ";".
func (p *parser) parseField() ast.Field {
	desc := p.parseDesc()

	if p.tok == token.CONST {
		return p.parseConstField(desc)
	}

	auto := false
	autoPos := token.NoPos
	if p.tok == token.AUTO {
		auto, autoPos = true, p.pos
		p.next()
	}
	typ := p.parseTypeExpr()
	if typ == nil {
		return nil
	}
	if p.tok != token.IDENT {
		p.errorf(p.pos, "expected a field name, found %q", p.tok)
		return nil
	}
	name := &ast.Ident{NamePos: p.pos, Name: p.lit}
	p.next()
	semi := p.expect(token.SEMI)
	return &ast.DataField{Desc: desc, Auto: auto, AutoPos: autoPos, Type: typ, Name: name, Semi: semi}
}

// parseConstField parses Const ::= "const" TypeExpr id "=" int.
//
// Only a bare BaseType is accepted as a const field's type: a compound
// type expression here is a syntax error. The type checker (not the
// parser) rejects unsuitable ground types and user types, matching how
// other field-validity questions are deferred to semantic analysis.
func (p *parser) parseConstField(desc *ast.Description) ast.Field {
	constPos := p.pos
	p.next() // consume "const"

	if p.tok != token.IDENT {
		p.errorf(p.pos, "expected a type name, found %q", p.tok)
		return nil
	}
	typ := &ast.BaseType{Name: &ast.Ident{NamePos: p.pos, Name: p.lit}}
	p.next()

	if p.tok != token.IDENT {
		p.errorf(p.pos, "expected a field name, found %q", p.tok)
		return nil
	}
	name := &ast.Ident{NamePos: p.pos, Name: p.lit}
	p.next()

	p.expect(token.ASSIGN)
	lit := p.parseIntLiteral()

	semi := p.expect(token.SEMI)
	return &ast.ConstantField{Desc: desc, ConstPos: constPos, Type: typ, Name: name, Value: lit, Semi: semi}
}

// parseTypeExpr parses
//
//	TypeExpr ::= ("map"|"set"|"list") "<" BaseType ("," BaseType)* ">"
//	           | BaseType "[" int "]" | BaseType "[" "]" | BaseType
func (p *parser) parseTypeExpr() ast.TypeExpr {
	switch p.tok {
	case token.MAP:
		pos := p.pos
		p.next()
		p.expect(token.LSS)
		elems := []*ast.BaseType{p.parseBaseType()}
		for p.tok == token.COMMA {
			p.next()
			elems = append(elems, p.parseBaseType())
		}
		gtr := p.expect(token.GTR)
		if len(elems) < 2 {
			p.errorf(pos, "map requires at least two element types")
		}
		return &ast.MapType{MapPos: pos, Elems: elems, Gtr: gtr}
	case token.SET:
		pos := p.pos
		p.next()
		p.expect(token.LSS)
		elem := p.parseBaseType()
		gtr := p.expect(token.GTR)
		return &ast.SetType{SetPos: pos, Elem: elem, Gtr: gtr}
	case token.LIST:
		pos := p.pos
		p.next()
		p.expect(token.LSS)
		elem := p.parseBaseType()
		gtr := p.expect(token.GTR)
		return &ast.ListType{ListPos: pos, Elem: elem, Gtr: gtr}
	case token.IDENT:
		base := p.parseBaseType()
		if p.tok == token.LBRACK {
			p.next()
			if p.tok == token.RBRACK {
				rbrack := p.pos
				p.next()
				return &ast.VarArrayType{Elem: base, Rbrack: rbrack}
			}
			lit := p.parseIntLiteral()
			rbrack := p.expect(token.RBRACK)
			return &ast.FixedArrayType{Elem: base, Len: lit.Int, LenPos: lit.ValuePos, Rbrack: rbrack}
		}
		return base
	default:
		p.errorf(p.pos, "expected a type, found %q", p.tok)
		return nil
	}
}

func (p *parser) parseBaseType() *ast.BaseType {
	if p.tok != token.IDENT {
		p.errorf(p.pos, "expected a type name, found %q", p.tok)
		p.next()
		return &ast.BaseType{Name: &ast.Ident{NamePos: p.pos, Name: "<error>"}}
	}
	id := &ast.Ident{NamePos: p.pos, Name: p.lit}
	p.next()
	return &ast.BaseType{Name: id}
}

func (p *parser) parseIntLiteral() *ast.Literal {
	if p.tok != token.INT {
		p.errorf(p.pos, "expected an integer literal, found %q", p.tok)
		return &ast.Literal{ValuePos: p.pos}
	}
	pos, lit := p.pos, p.lit
	p.next()
	v, err := parseInt(lit)
	if err != nil {
		p.errorf(pos, "malformed integer literal %q", lit)
	}
	return &ast.Literal{ValuePos: pos, Int: v}
}

// parseDesc parses Desc ::= Comment? (Restriction|Hint)*.
func (p *parser) parseDesc() *ast.Description {
	desc := &ast.Description{}
	if p.tok == token.COMMENT {
		desc.Doc = &ast.CommentGroup{List: []*ast.Comment{{Slash: p.pos, Text: p.lit}}}
		p.next()
	}
	for p.tok == token.AT || p.tok == token.NOT {
		if p.tok == token.AT {
			desc.Restrictions = append(desc.Restrictions, p.parseRestriction())
		} else {
			desc.Hints = append(desc.Hints, p.parseHint())
		}
	}
	return desc
}

// parseRestriction parses Restriction ::= "@" id ("(" (int|String)("," (int|String))* ")")?.
func (p *parser) parseRestriction() *ast.Restriction {
	at := p.pos
	p.next() // consume '@'
	name := p.parseIdentName()
	r := &ast.Restriction{At: at, Name: name}
	if p.tok == token.LPAREN {
		r.Args = p.parseRestrictionArgs()
	}
	return r
}

// parseRestrictionArgs parses a parenthesized, comma-separated list of
// integer or string literal arguments.
func (p *parser) parseRestrictionArgs() []*ast.Literal {
	p.next() // consume '('
	var args []*ast.Literal
	for p.tok != token.RPAREN && p.tok != token.EOF {
		switch p.tok {
		case token.INT:
			args = append(args, p.parseIntLiteral())
		case token.STRING:
			args = append(args, &ast.Literal{ValuePos: p.pos, IsString: true, Str: unquote(p.lit)})
			p.next()
		default:
			p.errorf(p.pos, "expected an argument, found %q", p.tok)
			p.next()
		}
		if p.tok == token.COMMA {
			p.next()
		} else {
			break
		}
	}
	p.expect(token.RPAREN)
	return args
}

// parseHint parses Hint ::= "!" id.
func (p *parser) parseHint() *ast.Hint {
	bang := p.pos
	p.next() // consume '!'
	return &ast.Hint{Bang: bang, Name: p.parseIdentName()}
}

func (p *parser) parseIdentName() *ast.Ident {
	if p.tok != token.IDENT {
		p.errorf(p.pos, "expected an identifier, found %q", p.tok)
		return &ast.Ident{NamePos: p.pos, Name: "<error>"}
	}
	id := &ast.Ident{NamePos: p.pos, Name: p.lit}
	p.next()
	return id
}

func parseInt(lit string) (int64, error) {
	if len(lit) > 2 && (lit[1] == 'x' || lit[1] == 'X') {
		return strconv.ParseInt(lit[2:], 16, 64)
	}
	return strconv.ParseInt(lit, 10, 64)
}

func unquote(lit string) string {
	if len(lit) >= 2 {
		return lit[1 : len(lit)-1]
	}
	return lit
}
