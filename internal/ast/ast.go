// Package ast declares the types used to represent the syntax tree of a
// SKilL schema file, as produced by the parser and consumed by the type
// checker.
package ast

import (
	"strings"

	"github.com/przytads/skill/internal/token"
)

// A Node is any node in the syntax tree. All nodes carry enough position
// information to report a diagnostic pinpointing the node.
type Node interface {
	Pos() token.Pos
	End() token.Pos
}

// An Ident is a bare identifier, e.g. a type name or field name.
type Ident struct {
	NamePos token.Pos
	Name    string
}

// End is approximate: it returns the identifier's start position. Nodes in
// this package are only ever used to pinpoint diagnostics, never to slice
// source text, so a precise end offset is not needed.
func (x *Ident) Pos() token.Pos { return x.NamePos }
func (x *Ident) End() token.Pos { return x.NamePos }

// A Comment is a single /* ... */ block comment.
type Comment struct {
	Slash token.Pos
	Text  string // includes the /* */ delimiters
}

func (c *Comment) Pos() token.Pos { return c.Slash }
func (c *Comment) End() token.Pos { return c.Slash }

// A CommentGroup is one or more comments immediately preceding a
// declaration or field; in this grammar at most one block comment ever
// attaches, but the group is kept for symmetry with other comment-bearing
// nodes.
type CommentGroup struct {
	List []*Comment
}

// Text joins the group's comment text, stripped of delimiters and of
// surrounding whitespace, for use as documentation text.
func (g *CommentGroup) Text() string {
	if g == nil || len(g.List) == 0 {
		return ""
	}
	var out string
	for i, c := range g.List {
		if i > 0 {
			out += "\n"
		}
		t := c.Text
		if len(t) >= 4 {
			t = t[2 : len(t)-2] // strip /* and */
		}
		out += strings.TrimSpace(t)
	}
	return out
}

// A Literal is the value of a restriction argument: either an integer or a
// quoted string.
type Literal struct {
	ValuePos token.Pos
	IsString bool
	Int      int64  // valid when !IsString
	Str      string // valid when IsString; unquoted
}

func (l *Literal) Pos() token.Pos { return l.ValuePos }
func (l *Literal) End() token.Pos { return l.ValuePos }

// A Restriction is a parsed "@name(args...)" annotation.
type Restriction struct {
	At   token.Pos
	Name *Ident
	Args []*Literal
}

func (r *Restriction) Pos() token.Pos { return r.At }
func (r *Restriction) End() token.Pos { return r.Name.End() }

// A Hint is a parsed "!name" annotation.
type Hint struct {
	Bang token.Pos
	Name *Ident
}

func (h *Hint) Pos() token.Pos { return h.Bang }
func (h *Hint) End() token.Pos { return h.Name.End() }

// A Description is the documentation and annotations preceding a
// declaration or field.
type Description struct {
	Doc          *CommentGroup // nil if absent
	Restrictions []*Restriction
	Hints        []*Hint
}

// TypeExpr is implemented by every type-expression AST node.
type TypeExpr interface {
	Node
	typeExprNode()
}

// BaseType is a bare type name: a ground type or a reference to a
// user-declared type.
type BaseType struct {
	Name *Ident
}

func (t *BaseType) Pos() token.Pos { return t.Name.Pos() }
func (t *BaseType) End() token.Pos { return t.Name.End() }
func (*BaseType) typeExprNode()    {}

// FixedArrayType is "Base[n]".
type FixedArrayType struct {
	Elem   *BaseType
	Len    int64
	LenPos token.Pos
	Rbrack token.Pos
}

func (t *FixedArrayType) Pos() token.Pos { return t.Elem.Pos() }
func (t *FixedArrayType) End() token.Pos { return t.Rbrack }
func (*FixedArrayType) typeExprNode()    {}

// VarArrayType is "Base[]".
type VarArrayType struct {
	Elem   *BaseType
	Rbrack token.Pos
}

func (t *VarArrayType) Pos() token.Pos { return t.Elem.Pos() }
func (t *VarArrayType) End() token.Pos { return t.Rbrack }
func (*VarArrayType) typeExprNode()    {}

// ListType is "list<Base>".
type ListType struct {
	ListPos token.Pos
	Elem    *BaseType
	Gtr     token.Pos
}

func (t *ListType) Pos() token.Pos { return t.ListPos }
func (t *ListType) End() token.Pos { return t.Gtr }
func (*ListType) typeExprNode()    {}

// SetType is "set<Base>".
type SetType struct {
	SetPos token.Pos
	Elem   *BaseType
	Gtr    token.Pos
}

func (t *SetType) Pos() token.Pos { return t.SetPos }
func (t *SetType) End() token.Pos { return t.Gtr }
func (*SetType) typeExprNode()    {}

// MapType is "map<Base, Base, ...>" with two or more base types.
type MapType struct {
	MapPos token.Pos
	Elems  []*BaseType
	Gtr    token.Pos
}

func (t *MapType) Pos() token.Pos { return t.MapPos }
func (t *MapType) End() token.Pos { return t.Gtr }
func (*MapType) typeExprNode()    {}

// A Field is implemented by both Constant and Data fields.
type Field interface {
	Node
	fieldNode()
	FieldName() *Ident
	FieldDesc() *Description
}

// ConstantField is "const Type name = value;".
type ConstantField struct {
	Desc     *Description
	ConstPos token.Pos
	Type     *BaseType
	Name     *Ident
	Value    *Literal
	Semi     token.Pos
}

func (f *ConstantField) Pos() token.Pos        { return f.ConstPos }
func (f *ConstantField) End() token.Pos        { return f.Semi }
func (*ConstantField) fieldNode()              {}
func (f *ConstantField) FieldName() *Ident      { return f.Name }
func (f *ConstantField) FieldDesc() *Description { return f.Desc }

// DataField is "[auto] Type name;".
type DataField struct {
	Desc    *Description
	Auto    bool
	AutoPos token.Pos // valid iff Auto
	Type    TypeExpr
	Name    *Ident
	Semi    token.Pos
}

func (f *DataField) Pos() token.Pos {
	if f.Auto {
		return f.AutoPos
	}
	return f.Type.Pos()
}
func (f *DataField) End() token.Pos        { return f.Semi }
func (*DataField) fieldNode()              {}
func (f *DataField) FieldName() *Ident      { return f.Name }
func (f *DataField) FieldDesc() *Description { return f.Desc }

// A Definition declares a user type, optionally extending a super type.
type Definition struct {
	Desc      *Description
	NamePos   token.Pos
	Name      *Ident
	SuperName *Ident // nil if no super clause
	Lbrace    token.Pos
	Fields    []Field
	Rbrace    token.Pos
}

func (d *Definition) Pos() token.Pos { return d.NamePos }
func (d *Definition) End() token.Pos { return d.Rbrace }

// An Include is a single file name from an include/with clause.
type Include struct {
	Path    string // unquoted
	PathPos token.Pos
}

func (i *Include) Pos() token.Pos { return i.PathPos }
func (i *Include) End() token.Pos { return i.PathPos }

// A File is the parse result of a single schema source file.
type File struct {
	Filename string
	Includes []*Include
	Decls    []*Definition
}
