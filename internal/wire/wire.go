// Package wire implements the on-disk binary encoding shared by every
// generated binding: the v64 variable-length integer, the type-ID table,
// the StringBlock layout, and the per-field type descriptors written into
// a TypeBlock. It does not assemble a complete TypeBlock. It has no
// dependency on any particular schema; callers drive it with values taken
// from an [ir.Schema].
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/przytads/skill/internal/ir"
)

// Type-ID table. Const-typed fields get a distinct ID range from their
// data-field counterparts because a constant never occupies per-instance
// storage; the reader only needs to know its width.
const (
	ConstI8  = 0
	ConstI16 = 1
	ConstI32 = 2
	ConstI64 = 3
	ConstV64 = 4

	TypeAnnotation = 5
	TypeBool       = 6
	TypeI8         = 7
	TypeI16        = 8
	TypeI32        = 9
	TypeI64        = 10
	TypeV64        = 11
	TypeF32        = 12
	TypeF64        = 13
	TypeString     = 14
	TypeFixedArray = 15
	// 16 is reserved and never assigned.
	TypeVarArray = 17
	TypeList     = 18
	TypeSet      = 19
	TypeMap      = 20

	userTypeBase = 32
)

// UserTypeID returns the wire type ID for the user-declared type at the
// given type-order index.
func UserTypeID(typeIndex int) int { return userTypeBase + typeIndex }

// AppendV64 appends v to dst using the minimal-length, unsigned-biased
// variable-length encoding: each of the first 8 bytes carries 7 bits of
// payload with the MSB set when another byte follows; if a 9th byte is
// needed it carries the remaining 8 bits outright, with no continuation
// bit, which is what lets 9 bytes cover the full 64-bit range.
func AppendV64(dst []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		if v < 0x80 {
			return append(dst, byte(v))
		}
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// V64Len reports the encoded length of v in bytes, without allocating.
func V64Len(v uint64) int {
	n := 1
	for i := 0; i < 8 && v >= 0x80; i++ {
		v >>= 7
		n++
	}
	return n
}

// GetV64 decodes a v64 from the front of src, returning the value and the
// number of bytes consumed.
func GetV64(src []byte) (v uint64, n int, err error) {
	var result uint64
	for i := 0; i < 8; i++ {
		if i >= len(src) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		b := src[i]
		if b&0x80 == 0 {
			result |= uint64(b) << uint(7*i)
			return result, i + 1, nil
		}
		result |= uint64(b&0x7f) << uint(7*i)
	}
	if len(src) < 9 {
		return 0, 0, io.ErrUnexpectedEOF
	}
	result |= uint64(src[8]) << 56
	return result, 9, nil
}

// ZigZag and UnZigZag map a signed value onto the unsigned range so that
// small magnitudes (positive or negative) stay small in a v64 encoding.
// The grammar only produces v64-typed const and data fields carrying
// ordinary (not necessarily non-negative) integers, so a plain two's
// complement reinterpretation would make every negative value encode to
// 9 bytes; zigzag keeps the common case short.
func ZigZag(v int64) uint64   { return uint64((v << 1) ^ (v >> 63)) }
func UnZigZag(u uint64) int64 { return int64(u>>1) ^ -int64(u&1) }

// AppendBool, AppendI8, ... append a fixed-width little-endian primitive
// to dst, for i8/i16/i32/i64/f32/f64/bool.
func AppendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}
	return append(dst, 0)
}

func AppendI8(dst []byte, v int8) []byte { return append(dst, byte(v)) }

func AppendI16(dst []byte, v int16) []byte {
	return binary.LittleEndian.AppendUint16(dst, uint16(v))
}

func AppendI32(dst []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(dst, uint32(v))
}

func AppendI64(dst []byte, v int64) []byte {
	return binary.LittleEndian.AppendUint64(dst, uint64(v))
}

func AppendF32Bits(dst []byte, bits uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, bits)
}

func AppendF64Bits(dst []byte, bits uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, bits)
}

// AppendAnnotation writes an annotation cell as two v64 values: the
// referenced type's wire type ID, then the 1-based SkillID within that
// type's base pool. A null annotation is typeID=0, skillID=0, which
// round-trips as exactly two zero bytes.
func AppendAnnotation(dst []byte, typeID, skillID uint64) []byte {
	dst = AppendV64(dst, typeID)
	dst = AppendV64(dst, skillID)
	return dst
}

// TypeIDOf returns the wire type ID for t. Compound element types
// (FixedArray/VarArray/List/Set/Map) are always a Ground or UserRef, per
// the grammar's BaseType restriction, so this never needs to recurse
// through more than one level of nesting.
func TypeIDOf(t ir.Type) int {
	switch v := t.(type) {
	case ir.Ground:
		return groundTypeID(v.Kind)
	case ir.UserRef:
		return UserTypeID(int(v.Decl))
	case ir.FixedArray:
		return TypeFixedArray
	case ir.VarArray:
		return TypeVarArray
	case ir.List:
		return TypeList
	case ir.Set:
		return TypeSet
	case ir.Map:
		return TypeMap
	default:
		panic(fmt.Sprintf("wire: unhandled type %T", t))
	}
}

func groundTypeID(k ir.GroundKind) int {
	switch k {
	case ir.Annotation:
		return TypeAnnotation
	case ir.Bool:
		return TypeBool
	case ir.I8:
		return TypeI8
	case ir.I16:
		return TypeI16
	case ir.I32:
		return TypeI32
	case ir.I64:
		return TypeI64
	case ir.V64:
		return TypeV64
	case ir.F32:
		return TypeF32
	case ir.F64:
		return TypeF64
	case ir.StringKind:
		return TypeString
	default:
		panic(fmt.Sprintf("wire: unhandled ground kind %v", k))
	}
}

// FieldTypeID returns the wire type ID for f, honoring the separate
// const-int range.
func FieldTypeID(f *ir.Field) int {
	if f.IsConstant {
		g, ok := f.Type.(ir.Ground)
		if !ok {
			panic("wire: constant field has a non-ground type")
		}
		switch g.Kind {
		case ir.I8:
			return ConstI8
		case ir.I16:
			return ConstI16
		case ir.I32:
			return ConstI32
		case ir.I64:
			return ConstI64
		case ir.V64:
			return ConstV64
		default:
			panic(fmt.Sprintf("wire: constant field has non-integral ground type %v", g.Kind))
		}
	}
	return TypeIDOf(f.Type)
}

// AppendFieldType appends a field's full type descriptor: its type ID
// followed by whatever type-specific payload the compound kind requires
// (fixed-array length and element type ID; var-array/list/set element
// type ID; map element count and element type IDs).
func AppendFieldType(dst []byte, f *ir.Field) []byte {
	id := FieldTypeID(f)
	dst = AppendV64(dst, uint64(id))
	if f.IsConstant {
		return dst
	}
	switch t := f.Type.(type) {
	case ir.FixedArray:
		dst = AppendV64(dst, uint64(t.Len))
		dst = AppendV64(dst, uint64(TypeIDOf(t.Elem)))
	case ir.VarArray:
		dst = AppendV64(dst, uint64(TypeIDOf(t.Elem)))
	case ir.List:
		dst = AppendV64(dst, uint64(TypeIDOf(t.Elem)))
	case ir.Set:
		dst = AppendV64(dst, uint64(TypeIDOf(t.Elem)))
	case ir.Map:
		dst = AppendV64(dst, uint64(len(t.Elems)))
		for _, e := range t.Elems {
			dst = AppendV64(dst, uint64(TypeIDOf(e)))
		}
	}
	return dst
}

// StringPool interns the strings referenced by a block's type table and
// field data. Insertion order is preserved; the empty string is never
// stored, and index 0 is reserved to mean "null/absent".
type StringPool struct {
	strs  []string
	index map[string]int
}

// NewStringPool returns an empty pool ready for use.
func NewStringPool() *StringPool {
	return &StringPool{index: map[string]int{}}
}

// Intern records s if it is new and non-empty, returning its 1-based
// index, or 0 for the empty string.
func (p *StringPool) Intern(s string) int {
	if s == "" {
		return 0
	}
	if i, ok := p.index[s]; ok {
		return i
	}
	p.strs = append(p.strs, s)
	i := len(p.strs)
	p.index[s] = i
	return i
}

// Len returns the number of distinct non-empty strings interned so far.
func (p *StringPool) Len() int { return len(p.strs) }

// Strings returns the interned strings in insertion order (index i+1).
func (p *StringPool) Strings() []string { return p.strs }

// EncodeStringBlock writes the StringBlock for p: a v64 count, then
// count little-endian int32 cumulative end-offsets, then the
// concatenated UTF-8 bytes of every interned string, in insertion order.
func EncodeStringBlock(p *StringPool) []byte {
	var out []byte
	out = AppendV64(out, uint64(len(p.strs)))
	cum := 0
	offsets := make([]byte, 0, 4*len(p.strs))
	var payload []byte
	for _, s := range p.strs {
		cum += len(s)
		offsets = binary.LittleEndian.AppendUint32(offsets, uint32(cum))
		payload = append(payload, s...)
	}
	out = append(out, offsets...)
	out = append(out, payload...)
	return out
}

// DecodeStringBlock reads a StringBlock from the front of src, returning
// the recovered strings (index i+1) and the number of bytes consumed.
func DecodeStringBlock(src []byte) (strs []string, n int, err error) {
	count, n, err := GetV64(src)
	if err != nil {
		return nil, 0, fmt.Errorf("wire: string block count: %w", err)
	}
	offsetsLen := int(count) * 4
	if n+offsetsLen > len(src) {
		return nil, 0, io.ErrUnexpectedEOF
	}
	offsets := make([]int, count)
	for i := range offsets {
		offsets[i] = int(binary.LittleEndian.Uint32(src[n+4*i:]))
	}
	n += offsetsLen
	strs = make([]string, count)
	prev := 0
	for i, end := range offsets {
		if end < prev || n+end > len(src) {
			return nil, 0, fmt.Errorf("wire: string block offset %d out of range", i)
		}
		strs[i] = string(src[n+prev : n+end])
		prev = end
	}
	n += prev
	return strs, n, nil
}
