// Package session implements the create/read/write/append state machine
// and its two-phase write transaction over a schema, with field data
// streamed to a temporary side file before the main output is ever
// touched.
//
// Read is deliberately left thin here (it only records fromPath and moves
// to Open): populating pools from an existing file is a separate, largely
// symmetric concern left to the storage-pool layer rather than this
// package.
package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/przytads/skill/internal/ir"
)

// State is one node of the create/read/write/append lifecycle.
type State int

const (
	Empty State = iota
	Open
	Mutated
	Written
	Appended
	Closed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Open:
		return "Open"
	case Mutated:
		return "Mutated"
	case Written:
		return "Written"
	case Appended:
		return "Appended"
	case Closed:
		return "Closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// WriteResult is what a caller's emit function returns once field data
// has finished streaming to the side buffer and its size is known: the
// StringBlock and TypeBlock bytes that must precede that field data in
// the final file.
type WriteResult struct {
	Header []byte
}

// EmitFunc streams a block's field data to side and returns the header
// (StringBlock + TypeBlock) that belongs in front of it. It is the
// caller's responsibility to know how to encode this schema's fields;
// Session only guarantees side is flushed to target in the right place,
// and removed afterward regardless of outcome.
type EmitFunc func(side *OutBuffer) (WriteResult, error)

// Session drives one schema's lifecycle through Create/Read/Write/Append.
type Session struct {
	state    State
	fromPath string
	schema   *ir.Schema
}

// Create starts a new session with no backing file. A subsequent Write
// serializes a complete file from scratch; Append fails until a Write or
// Read has established fromPath.
func Create(schema *ir.Schema) *Session {
	return &Session{state: Empty, schema: schema}
}

// Schema returns the schema this session was built for.
func (s *Session) Schema() *ir.Schema { return s.schema }

// State returns the session's current lifecycle state.
func (s *Session) State() State { return s.state }

// FromPath returns the file this session last read from or wrote to, or
// "" if none yet.
func (s *Session) FromPath() string { return s.fromPath }

// Read records that this session's data region is populated from path.
// Only valid from Empty.
func (s *Session) Read(path string) error {
	if s.state != Empty {
		return fmt.Errorf("session: read requires the Empty state, have %s", s.state)
	}
	s.fromPath = path
	s.state = Open
	return nil
}

// MarkMutated transitions Empty or Open to Mutated, as every pool-level
// insert/update/delete must before a Write or Append is allowed to
// observe the change. Calling it from Mutated is a no-op.
func (s *Session) MarkMutated() {
	if s.state == Empty || s.state == Open {
		s.state = Mutated
	}
}

// Close ends the session without writing, from any state.
func (s *Session) Close() error {
	s.state = Closed
	return nil
}

// Write rewrites the entire state to target: resets the string pool,
// reprepares all strings, and re-emits every block as a first
// appearance. emit streams field data to a side buffer; once emit
// returns, Write copies emit's header followed by the side buffer's
// contents into target, then deletes the side buffer.
func (s *Session) Write(target string, emit EmitFunc) error {
	if s.state == Closed {
		return fmt.Errorf("session: write requires a constructed, opened, or mutated session, have %s", s.state)
	}
	if err := s.runEmit(target, emit, writeFresh); err != nil {
		return err
	}
	s.fromPath = target
	s.state = Written
	return nil
}

// Append emits one new block containing only this session's new-object
// deltas, based on fromPath. If target is "" or equals fromPath, the
// block is appended in place; otherwise fromPath is copied to target
// first and the block is appended there. Calling Append before any
// Read or Write has established fromPath, or after Close, is a fatal
// error: there is no source file to append to, or the session is done.
func (s *Session) Append(target string, emit EmitFunc) error {
	if s.state == Closed {
		return fmt.Errorf("session: append requires a constructed, opened, or mutated session, have %s", s.state)
	}
	if s.state == Empty || s.fromPath == "" {
		return fmt.Errorf("session: append requires a prior read or write to establish fromPath")
	}
	if target == "" {
		target = s.fromPath
	}
	if target != s.fromPath {
		if err := copyFile(s.fromPath, target); err != nil {
			return err
		}
	}
	if err := s.runEmit(target, emit, appendBlock); err != nil {
		return err
	}
	s.fromPath = target
	s.state = Appended
	return nil
}

// runEmit opens a side buffer next to target, invokes emit, and then
// passes emit's header and the side buffer's path to commit, which copies
// them into target. The side buffer's file handle is closed and the file
// removed before runEmit returns in every case — success, emit or commit
// error, or panic unwinding through the deferred cleanup — so no
// temporary file is ever left behind.
func (s *Session) runEmit(target string, emit EmitFunc, commit func(target string, header []byte, sidePath string) error) error {
	side, err := newOutBuffer(filepath.Dir(target))
	if err != nil {
		return err
	}
	defer func() {
		side.Close()
		os.Remove(side.path)
	}()

	res, err := emit(side)
	if err != nil {
		return err
	}
	if err := side.f.Sync(); err != nil {
		return err
	}
	return commit(target, res.Header, side.path)
}

func writeFresh(target string, header []byte, sidePath string) error {
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(header); err != nil {
		return err
	}
	return copySideInto(out, sidePath)
}

func appendBlock(target string, header []byte, sidePath string) error {
	out, err := os.OpenFile(target, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(header); err != nil {
		return err
	}
	return copySideInto(out, sidePath)
}

func copySideInto(out *os.File, sidePath string) error {
	side, err := os.Open(sidePath)
	if err != nil {
		return err
	}
	defer side.Close()
	_, err = io.Copy(out, side)
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// OutBuffer is the side buffer field data is streamed to during a write
// transaction, before the type block's sizes are known. It is backed by
// a uniquely named temp file so arbitrarily large field data never needs
// to fit in memory, and so two sessions writing concurrently into the
// same directory never collide.
type OutBuffer struct {
	f    *os.File
	path string
}

func newOutBuffer(dir string) (*OutBuffer, error) {
	name := fmt.Sprintf(".skill-%s.tmp", uuid.NewString())
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	return &OutBuffer{f: f, path: f.Name()}, nil
}

// Write streams p into the side buffer.
func (b *OutBuffer) Write(p []byte) (int, error) { return b.f.Write(p) }

// Close closes the underlying file. Callers never need to call this
// directly; Session removes the buffer on every exit path.
func (b *OutBuffer) Close() error { return b.f.Close() }
