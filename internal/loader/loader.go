// Package loader resolves a schema entry file's transitive includes into a
// single, flattened stream of declarations ready for type checking.
package loader

import (
	"os"
	"path/filepath"

	"github.com/przytads/skill/internal/ast"
	"github.com/przytads/skill/internal/errors"
	"github.com/przytads/skill/internal/parser"
	"github.com/przytads/skill/internal/token"
)

// ReadFile abstracts file access so tests can load schema text from memory
// instead of the OS filesystem.
type ReadFile func(path string) ([]byte, error)

// Load parses entry and every file it transitively includes (via
// include/with clauses), relative to each including file's directory, and
// returns the concatenated declaration list in the order files were first
// encountered. Cycles and diamond includes are both handled: a file already
// in the done-set is never read twice.
func Load(entry string, read ReadFile) ([]*ast.Definition, error) {
	if read == nil {
		read = osReadFile
	}
	l := &loader{read: read, done: map[string]bool{}}
	var errs errors.List
	l.load(entry, &errs)
	return l.decls, errs.Err()
}

type loader struct {
	read  ReadFile
	done  map[string]bool
	decls []*ast.Definition
}

func (l *loader) load(path string, errs *errors.List) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if l.done[abs] {
		return
	}
	l.done[abs] = true

	src, err := l.read(path)
	if err != nil {
		wd, _ := os.Getwd()
		errs.AddNewf(token.NoPos, "cannot find include file %q (working directory %q): %v", path, wd, err)
		return
	}

	file, ferr := parser.ParseFile(path, src)
	if ferr != nil {
		errs.Add(ferr)
	}
	if file == nil {
		return
	}

	l.decls = append(l.decls, file.Decls...)

	dir := filepath.Dir(path)
	for _, inc := range file.Includes {
		l.load(filepath.Join(dir, inc.Path), errs)
	}
}

func osReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
