// Package ir defines the type-checked, read-only model of a schema: a
// directed graph of type declarations connected by super-of and
// field-references-type edges. IR values are immutable once the type
// checker returns them and may be shared freely across goroutines for
// read-only access.
package ir

import "github.com/przytads/skill/internal/token"

// DeclID is a stable, arena-style index into a Schema's declaration list.
// Fields hold a DeclID rather than a direct *Declaration reference so that
// cyclic type graphs (a type whose field refers back to itself, directly
// or through another type) can be represented without ownership cycles.
type DeclID int

// noDecl is the sentinel DeclID used where "no super type" is meant.
// A valid DeclID is always >= 0, assigned in construction order, so -1 is
// never handed out and is safe to use as a sentinel.
const noDecl DeclID = -1

// Schema is the complete, type-checked intermediate representation of one
// or more included schema files. Declarations are stored in type order:
// every declaration precedes all of its subtypes, and ties between
// siblings are stable by first-seen-in-source order.
type Schema struct {
	decls  []*Declaration
	byName map[string]DeclID // lowercased skillName -> DeclID
}

// NewSchema builds a Schema from declarations already in type order and
// their name index. Only the checker calls this; every other caller
// receives a *Schema already built.
func NewSchema(decls []*Declaration, byName map[string]DeclID) *Schema {
	return &Schema{decls: decls, byName: byName}
}

// Len returns the number of declarations in the schema.
func (s *Schema) Len() int { return len(s.decls) }

// All returns every declaration, in type order. Callers must not mutate
// the result.
func (s *Schema) All() []*Declaration { return s.decls }

// Decl returns the declaration for id.
func (s *Schema) Decl(id DeclID) *Declaration { return s.decls[id] }

// Lookup finds a declaration by its (already-lowercased) skillName.
func (s *Schema) Lookup(skillName string) (*Declaration, bool) {
	id, ok := s.byName[skillName]
	if !ok {
		return nil, false
	}
	return s.decls[id], true
}

// Names returns every declaration's skillName, in type order: the same
// order the checker's "Known types are: ..." diagnostics list them in.
func (s *Schema) Names() []string {
	out := make([]string, len(s.decls))
	for i, d := range s.decls {
		out[i] = d.SkillName
	}
	return out
}

// Declaration is one user-defined type.
type Declaration struct {
	ID    DeclID
	Doc   string
	Pos   token.Pos
	Super DeclID // noDecl if this is a root type

	// SkillName is the lower-cased identifier used on the wire.
	SkillName string
	// CapitalName is the display form, as written in the source.
	CapitalName string

	// BaseType is the root of this declaration's super chain (itself if
	// this declaration has no super).
	BaseType DeclID
	// SubTypes is the transitive list of direct and indirect subtypes, in
	// type order.
	SubTypes []DeclID

	Fields       []*Field
	Restrictions []*Restriction
	Hints        []*Hint
}

// HasSuper reports whether d extends another declaration.
func (d *Declaration) HasSuper() bool { return d.Super != noDecl }

// IsBase reports whether d is the root of its own inheritance tree.
func (d *Declaration) IsBase() bool { return d.BaseType == d.ID }

// DeclaredFields returns fields declared directly on d (not inherited).
func (d *Declaration) DeclaredFields() []*Field { return d.Fields }

// Field is one data or constant member of a declaration.
type Field struct {
	SkillName string
	Doc       string
	Pos       token.Pos
	Type      Type

	IsConstant    bool
	ConstantValue int64 // valid iff IsConstant

	IsAuto bool // true: in-memory only, never serialized

	// IsIgnored marks a field carrying the "ignore" hint: the binding
	// still parses its declaration but never generates an accessor for
	// it, so in a file it travels only as unknownFieldData, carried
	// opaquely by the storage pool.
	IsIgnored bool

	Restrictions []*Restriction
	Hints        []*Hint
}

// GroundKind enumerates the primitive wire types.
type GroundKind int

const (
	I8 GroundKind = iota
	I16
	I32
	I64
	V64
	F32
	F64
	Bool
	Annotation
	StringKind
)

func (k GroundKind) String() string {
	switch k {
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case V64:
		return "v64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Bool:
		return "bool"
	case Annotation:
		return "annotation"
	case StringKind:
		return "string"
	default:
		return "ground(?)"
	}
}

// IsIntegral reports whether k is one of the fixed- or variable-width
// signed integer kinds eligible for an IntRange restriction and for
// const-field values.
func (k GroundKind) IsIntegral() bool {
	switch k {
	case I8, I16, I32, I64, V64:
		return true
	}
	return false
}

// IsFloat reports whether k is f32 or f64.
func (k GroundKind) IsFloat() bool { return k == F32 || k == F64 }

// groundByName maps the schema-source spelling of a ground type to its
// GroundKind. Names not present here (e.g. "halfFloat") are not ground
// types and must resolve as a user type reference or fail as unknown.
var groundByName = map[string]GroundKind{
	"i8":         I8,
	"i16":        I16,
	"i32":        I32,
	"i64":        I64,
	"v64":        V64,
	"f32":        F32,
	"f64":        F64,
	"bool":       Bool,
	"annotation": Annotation,
	"string":     StringKind,
}

// LookupGround reports the GroundKind for name, if name names a ground
// type.
func LookupGround(name string) (GroundKind, bool) {
	k, ok := groundByName[name]
	return k, ok
}

// Type is implemented by every arm of the field-type tagged union:
// Ground, UserRef, FixedArray, VarArray, List, Set, and Map. Consumers
// switch exhaustively on the concrete type rather than walking an
// inheritance tree.
type Type interface {
	typeNode()
}

// Ground is a primitive wire type.
type Ground struct{ Kind GroundKind }

// UserRef is a reference to a user-declared type, stored as an arena ID so
// that self-referential and mutually-referential type graphs (e.g. a
// linked-list node whose "next" field is of its own type) need no back
// edges or weak references to represent.
type UserRef struct{ Decl DeclID }

// FixedArray is "Base[n]": exactly n elements of Elem.
type FixedArray struct {
	Elem Type
	Len  int64
}

// VarArray is "Base[]": a variable-length array of Elem.
type VarArray struct{ Elem Type }

// List is an ordered, variable-length sequence of Elem.
type List struct{ Elem Type }

// Set is an unordered, deduplicated collection of Elem.
type Set struct{ Elem Type }

// Map is a mapping with two or more type parameters: one key type followed
// by one or more nested map levels, or a single value type for the
// innermost level — mirrored directly from "map<K, V, ...>" in the source.
type Map struct{ Elems []Type }

func (Ground) typeNode()     {}
func (UserRef) typeNode()    {}
func (FixedArray) typeNode() {}
func (VarArray) typeNode()   {}
func (List) typeNode()       {}
func (Set) typeNode()        {}
func (Map) typeNode()        {}

// RestrictionKind enumerates the known restriction vocabulary.
type RestrictionKind int

const (
	IntRange RestrictionKind = iota
	FloatRange
	NonNull
	Unique
	Singleton
	Monotone
	Default
	Coding
)

// Restriction is a validated field- or type-level restriction. Only the
// fields grouped below under Kind's name are meaningful; NonNull, Unique,
// Singleton and Monotone carry no fields beyond Kind and Pos.
type Restriction struct {
	Kind RestrictionKind
	Pos  token.Pos

	// IntRange
	LowInt, HighInt       int64
	IncLowInt, IncHighInt bool

	// FloatRange
	LowFloat, HighFloat       float64
	IncLowFloat, IncHighFloat bool

	// Default
	DefaultInt   int64
	DefaultFloat float64
	DefaultStr   string
	DefaultIsStr bool

	// Coding
	CodingName string
}

// Hint is a validated field- or type-level hint.
type Hint struct {
	Name string
	Pos  token.Pos
}
