package skill

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/przytads/skill/internal/loader"
)

func memReader(files map[string]string) loader.ReadFile {
	return func(path string) ([]byte, error) {
		s, ok := files[path]
		if !ok {
			return nil, errNotFoundTest(path)
		}
		return []byte(s), nil
	}
}

type errNotFoundTest string

func (e errNotFoundTest) Error() string { return "no such file: " + string(e) }

func TestCompileFSAcrossIncludes(t *testing.T) {
	files := map[string]string{
		"main.skill": `include "common.skill"
DatedMessage : Message {
  v64 timestamp;
}
`,
		"common.skill": `Message {
  string text;
}
`,
	}
	schema, err := CompileFS("main.skill", memReader(files), Config{})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(schema.Len(), 2))

	msg, ok := schema.Lookup("message")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(len(msg.Fields), 1))

	dated, ok := schema.Lookup("datedmessage")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(dated.Super, msg.ID))
}

func TestCompileFSEmptyEntryIsNotAnError(t *testing.T) {
	schema, err := CompileFS("main.skill", memReader(map[string]string{
		"main.skill": "",
	}), Config{})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(schema.Len(), 0))
}

func TestCompileFSReportsTypeErrors(t *testing.T) {
	_, err := CompileFS("main.skill", memReader(map[string]string{
		"main.skill": `Widget {
  Nonexistent x;
}
`,
	}), Config{})
	qt.Assert(t, qt.IsTrue(err != nil))
	qt.Assert(t, qt.ErrorMatches(err, `(?s).*The type "Nonexistent" is unknown!.*`))
}

func TestCompileFSStrictHintsRejectsUnknownHint(t *testing.T) {
	src := map[string]string{
		"main.skill": `Widget {
  !bogus i32 x;
}
`,
	}
	_, err := CompileFS("main.skill", memReader(src), Config{StrictHints: true})
	qt.Assert(t, qt.ErrorMatches(err, `(?s).*unrecognized hint\(s\): bogus.*`))

	schema, err := CompileFS("main.skill", memReader(src), Config{StrictHints: false})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(schema.Len(), 1))
}

func TestCompileFSReadErrorIsReported(t *testing.T) {
	_, err := CompileFS("missing.skill", memReader(map[string]string{}), Config{})
	qt.Assert(t, qt.IsTrue(err != nil))
}
