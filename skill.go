// Package skill compiles SKilL schema source into a type-checked
// [ir.Schema] and hands it to a [Backend] for code generation. The
// package itself generates nothing; it owns the front end (include
// resolution, parsing, type checking) and the contract a backend
// implements.
package skill

import (
	"io"
	"os"

	"github.com/przytads/skill/internal/check"
	"github.com/przytads/skill/internal/errors"
	"github.com/przytads/skill/internal/ir"
	"github.com/przytads/skill/internal/loader"
	"github.com/przytads/skill/internal/token"
)

// Config threads the settings a binding generator needs through the
// front end and into backend construction. There is no process-wide
// mutable state, package-level flag parsing, or init()-time backend
// registration: callers build a Config and pass it explicitly.
type Config struct {
	// Package is the target language package/namespace the generated
	// binding is emitted under.
	Package string

	// OutDir is the directory generated files are written to. Backend
	// implementations interpret this; Compile itself never touches the
	// filesystem beyond reading schema sources.
	OutDir string

	// StrictHints turns unrecognized hint names into type errors. Without
	// it, unrecognized hint names are dropped silently; no warning is
	// reported.
	StrictHints bool
}

// Backend is the contract a code generator implements against a
// checked schema. Compile never calls a Backend itself; callers that
// want generation wire Compile's result into one explicitly.
type Backend interface {
	Generate(schema *ir.Schema, cfg Config, w io.Writer) error
}

// Compile resolves entry's transitive includes, parses every file, and
// type-checks the result into an [ir.Schema]. The returned error is a
// non-nil [errors.List] if diagnostics were produced; Compile never
// returns a partial schema alongside an error.
func Compile(entry string, cfg Config) (*ir.Schema, error) {
	return CompileFS(entry, osReadFile, cfg)
}

// CompileFS is Compile parameterized over file access, for compiling
// schema text that isn't backed by the OS filesystem (e.g. in tests).
func CompileFS(entry string, read loader.ReadFile, cfg Config) (*ir.Schema, error) {
	defs, err := loader.Load(entry, read)
	if err != nil {
		return nil, err
	}

	blank, berr := isBlank(entry, read)
	if berr != nil {
		return nil, berr
	}

	schema, err := check.Check(defs, blank, check.Options{StrictHints: cfg.StrictHints})
	if err != nil {
		return nil, err
	}
	return schema, nil
}

// isBlank reports whether entry's raw content is empty or all
// whitespace, distinguishing "truly empty input" from "input that
// produced zero declarations", which is an error.
func isBlank(entry string, read loader.ReadFile) (bool, error) {
	if read == nil {
		read = osReadFile
	}
	src, err := read(entry)
	if err != nil {
		var errs errors.List
		errs.AddNewf(token.NoPos, "cannot read %q: %v", entry, err)
		return false, errs.Err()
	}
	return isAllWhitespace(src), nil
}

func isAllWhitespace(src []byte) bool {
	for _, b := range src {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return false
		}
	}
	return true
}

func osReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
