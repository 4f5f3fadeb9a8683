package loader

import (
	"testing"

	"github.com/go-quicktest/qt"
)

func memReader(files map[string]string) ReadFile {
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

func TestLoadSingleFile(t *testing.T) {
	defs, err := Load("main.skill", memReader(map[string]string{
		"main.skill": `Widget { }`,
	}))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(defs), 1))
	qt.Assert(t, qt.Equals(defs[0].Name.Name, "Widget"))
}

func TestLoadFollowsIncludesRelativeToIncludingFile(t *testing.T) {
	defs, err := Load("main.skill", memReader(map[string]string{
		"main.skill":     `include "sub/base.skill"` + "\nMain { }",
		"sub/base.skill": `Base { }`,
	}))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(defs), 2))
	// The including file's own declarations are recorded before the loader
	// descends into what it includes.
	qt.Assert(t, qt.Equals(defs[0].Name.Name, "Main"))
	qt.Assert(t, qt.Equals(defs[1].Name.Name, "Base"))
}

func TestLoadDiamondIncludeReadsOnce(t *testing.T) {
	defs, err := Load("main.skill", memReader(map[string]string{
		"main.skill": `include "a.skill" "b.skill"` + "\nMain { }",
		"a.skill":    `include "shared.skill"` + "\nA { }",
		"b.skill":    `include "shared.skill"` + "\nB { }",
		"shared.skill": `Shared { }`,
	}))
	qt.Assert(t, qt.IsNil(err))

	var names []string
	for _, d := range defs {
		names = append(names, d.Name.Name)
	}
	qt.Assert(t, qt.DeepEquals(names, []string{"Main", "A", "Shared", "B"}))
}

func TestLoadMissingIncludeIsReported(t *testing.T) {
	_, err := Load("main.skill", memReader(map[string]string{
		"main.skill": `include "missing.skill"` + "\nMain { }",
	}))
	qt.Assert(t, qt.ErrorMatches(err, `(?s).*cannot find include file "missing\.skill".*`))
}

func TestLoadEntryFileMissing(t *testing.T) {
	_, err := Load("main.skill", memReader(map[string]string{}))
	qt.Assert(t, qt.IsTrue(err != nil))
}
