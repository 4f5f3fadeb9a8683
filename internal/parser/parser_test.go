package parser

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/przytads/skill/internal/ast"
)

func TestParseFileBasicDeclaration(t *testing.T) {
	f, err := ParseFile("test.skill", []byte(`
Message {
  string text;
  auto i32 computedLen;
  const i32 version = 3;
}
`))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(f.Decls), 1))

	d := f.Decls[0]
	qt.Assert(t, qt.Equals(d.Name.Name, "Message"))
	qt.Assert(t, qt.IsTrue(d.SuperName == nil))
	qt.Assert(t, qt.Equals(len(d.Fields), 3))

	data1, ok := d.Fields[0].(*ast.DataField)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(data1.Name.Name, "text"))
	qt.Assert(t, qt.Equals(data1.Auto, false))

	data2, ok := d.Fields[1].(*ast.DataField)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(data2.Name.Name, "computedLen"))
	qt.Assert(t, qt.IsTrue(data2.Auto))

	cf, ok := d.Fields[2].(*ast.ConstantField)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(cf.Name.Name, "version"))
	qt.Assert(t, qt.Equals(cf.Value.Int, int64(3)))
}

func TestParseSuperClauseVariants(t *testing.T) {
	for _, kw := range []string{":", "with", "extends"} {
		src := "DatedMessage " + kw + " Message { }"
		f, err := ParseFile("test.skill", []byte(src))
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.Equals(len(f.Decls), 1))
		qt.Assert(t, qt.IsTrue(f.Decls[0].SuperName != nil))
		qt.Assert(t, qt.Equals(f.Decls[0].SuperName.Name, "Message"))
	}
}

func TestParseCompoundTypeExpressions(t *testing.T) {
	f, err := ParseFile("test.skill", []byte(`
Widget {
  i32[4] fixed;
  i32[] varying;
  list<string> items;
  set<i32> tags;
  map<string, i32> counts;
}
`))
	qt.Assert(t, qt.IsNil(err))
	fields := f.Decls[0].Fields
	qt.Assert(t, qt.Equals(len(fields), 5))

	fa, ok := fields[0].(*ast.DataField).Type.(*ast.FixedArrayType)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(fa.Len, int64(4)))

	_, ok = fields[1].(*ast.DataField).Type.(*ast.VarArrayType)
	qt.Assert(t, qt.IsTrue(ok))

	_, ok = fields[2].(*ast.DataField).Type.(*ast.ListType)
	qt.Assert(t, qt.IsTrue(ok))

	_, ok = fields[3].(*ast.DataField).Type.(*ast.SetType)
	qt.Assert(t, qt.IsTrue(ok))

	mt, ok := fields[4].(*ast.DataField).Type.(*ast.MapType)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(len(mt.Elems), 2))
}

func TestParseRestrictionsAndHints(t *testing.T) {
	f, err := ParseFile("test.skill", []byte(`
Widget {
  @range(0, 10, 1, 0) @nonNull !ignore i32 x;
}
`))
	qt.Assert(t, qt.IsNil(err))
	df := f.Decls[0].Fields[0].(*ast.DataField)
	qt.Assert(t, qt.Equals(len(df.Desc.Restrictions), 2))
	qt.Assert(t, qt.Equals(len(df.Desc.Hints), 1))
	qt.Assert(t, qt.Equals(df.Desc.Restrictions[0].Name.Name, "range"))
	qt.Assert(t, qt.Equals(df.Desc.Restrictions[0].Args[0].Int, int64(0)))
	qt.Assert(t, qt.Equals(df.Desc.Hints[0].Name.Name, "ignore"))
}

func TestParseInclude(t *testing.T) {
	f, err := ParseFile("test.skill", []byte(`include "base.skill" "extra.skill"
Widget { }
`))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(f.Includes), 2))
	qt.Assert(t, qt.Equals(f.Includes[0].Path, "base.skill"))
	qt.Assert(t, qt.Equals(f.Includes[1].Path, "extra.skill"))
}

func TestParseSyntaxErrorIsReported(t *testing.T) {
	_, err := ParseFile("test.skill", []byte(`Widget { i32 x }`)) // missing semicolon
	qt.Assert(t, qt.IsTrue(err != nil))
}

func TestParseDocComment(t *testing.T) {
	f, err := ParseFile("test.skill", []byte(`
/* A widget with a name. */
Widget { }
`))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(f.Decls[0].Desc.Doc.Text(), "A widget with a name."))
}
