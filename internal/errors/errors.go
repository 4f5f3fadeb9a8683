// Package errors defines the shared error type used across the schema
// front-end: the scanner, the parser, and the type checker all report
// through this package rather than returning bare stdlib errors.
package errors

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/przytads/skill/internal/token"
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain matching the type target points
// to, and if so, sets target and returns true.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Error is the interface satisfied by every diagnostic produced by this
// module's front-end.
type Error interface {
	error
	// Position returns the primary source position of the error.
	Position() token.Pos
	// Msg returns the unformatted message and its arguments, for callers
	// that want to render or localize the message themselves.
	Msg() (format string, args []interface{})
}

type posError struct {
	pos    token.Pos
	format string
	args   []interface{}
}

func (e *posError) Position() token.Pos { return e.pos }
func (e *posError) Msg() (string, []interface{}) { return e.format, e.args }
func (e *posError) Error() string {
	msg := fmt.Sprintf(e.format, e.args...)
	if e.pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.pos, msg)
	}
	return msg
}

// Newf creates an Error with the given position and message.
func Newf(p token.Pos, format string, args ...interface{}) Error {
	return &posError{pos: p, format: format, args: args}
}

// Handler is called by the scanner and parser for every diagnostic
// encountered. Passing a nil Handler means errors are only available by
// inspecting the accumulated List returned from the top-level call.
type Handler func(pos token.Pos, msg string)

// List is a list of Errors. Its zero value is an empty list ready to use.
// List itself implements the error interface, so a *List can be returned
// wherever a plain error is expected.
type List []Error

// AddNewf adds an Error with the given position and message to the list.
func (p *List) AddNewf(pos token.Pos, format string, args ...interface{}) {
	*p = append(*p, &posError{pos: pos, format: format, args: args})
}

// Add appends err to the list, flattening it first if err is itself a List.
func (p *List) Add(err error) {
	switch x := err.(type) {
	case nil:
		return
	case List:
		*p = append(*p, x...)
	case Error:
		*p = append(*p, x)
	default:
		p.AddNewf(token.NoPos, "%s", x.Error())
	}
}

// Len reports the number of accumulated errors.
func (p List) Len() int { return len(p) }

// Sort orders the list by source position, with positionless errors first,
// then by message text for errors at the same position.
func (p List) Sort() {
	slices.SortFunc(p, func(a, b Error) int {
		if c := comparePos(a.Position(), b.Position()); c != 0 {
			return c
		}
		return cmp.Compare(a.Error(), b.Error())
	})
}

func comparePos(a, b token.Pos) int {
	if a == b {
		return 0
	} else if a == token.NoPos {
		return -1
	} else if b == token.NoPos {
		return +1
	}
	return a.Compare(b)
}

// Err returns p as an error, or nil if p is empty. Use this rather than
// comparing a List directly against nil, since a non-nil, empty List is
// not itself a valid "no error" sentinel for callers using ==.
func (p List) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

// Error implements the error interface by joining every message on its own
// line, each prefixed with its position.
func (p List) Error() string {
	switch len(p) {
	case 0:
		return ""
	case 1:
		return p[0].Error()
	}
	var buf []byte
	for i, e := range p {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, e.Error()...)
	}
	return string(buf)
}
