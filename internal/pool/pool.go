// Package pool implements the storage-pool model: one instance pool per
// declared type, linked into a shared base pool per inheritance tree,
// plus the bookkeeping (LBPSI, type-order iteration, unknown field data)
// that a generated binding's read/write paths rely on.
package pool

import "github.com/przytads/skill/internal/ir"

// SkillID is a 1-based index into a type's base pool. 0 denotes null
// (an absent annotation, or a deletion marker).
type SkillID int

// BlockInfo records the local base-pool start index and instance count a
// single read or append block contributed for one type.
type BlockInfo struct {
	BPSI  int
	Count int
}

// Pool is the type-erased view of a StoragePool[T], used wherever code
// must navigate the inheritance tree or manipulate unknown field data
// without committing to a concrete instance type.
type Pool interface {
	Decl() ir.DeclID
	DataLen() int
	NewLen() int
	SuperPool() Pool
	SubPools() []Pool
	UnknownFieldData(id SkillID, fieldName string) (any, bool)
	SetUnknownFieldData(id SkillID, fieldName string, value any)
}

// BasePool owns the contiguous SkillID space shared by one entire
// inheritance tree: a base type and every type that (transitively)
// extends it. Instances of any type in the tree draw their SkillID from
// this single counter, which is what lets a reader resolve any instance
// given just its declared type and a SkillID.
type BasePool struct {
	base   Pool
	blocks []BlockInfo
	nextID int
}

// NewBasePool returns a BasePool rooted at base, with no instances yet.
func NewBasePool(base Pool) *BasePool {
	return &BasePool{base: base, nextID: 1}
}

// Base returns the pool for the root declaration of this inheritance tree.
func (bp *BasePool) Base() Pool { return bp.base }

// Blocks returns the per-block bookkeeping recorded so far, in the order
// blocks were committed.
func (bp *BasePool) Blocks() []BlockInfo { return bp.blocks }

// Reserve allocates count consecutive SkillIDs from this base pool's
// shared space and records the resulting BlockInfo. It returns the
// 1-based start index, i.e. this type's LBPSI for the block under
// construction.
func (bp *BasePool) Reserve(count int) int {
	start := bp.nextID
	bp.blocks = append(bp.blocks, BlockInfo{BPSI: start, Count: count})
	bp.nextID += count
	return start
}

// Size returns the total number of SkillIDs allocated from this base
// pool across every block committed so far.
func (bp *BasePool) Size() int { return bp.nextID - 1 }

// StoragePool holds the typed instances of one declared type: a data
// region populated by reads of prior blocks, and a newObjects region for
// instances created during the current session.
type StoragePool[T any] struct {
	decl  ir.DeclID
	base  *BasePool
	super Pool
	subs  []Pool

	data       []T
	newObjects []T

	knownFields map[string]bool
	unknown     map[SkillID]map[string]any
}

// NewStoragePool constructs an empty pool for decl, linked to base (its
// inheritance tree's shared SkillID space) and super (nil for a base
// type). knownFields lists the field names the generated binding has a
// typed accessor for; anything else read from a file is kept only in
// UnknownFieldData.
func NewStoragePool[T any](decl ir.DeclID, base *BasePool, super Pool, knownFields []string) *StoragePool[T] {
	kf := make(map[string]bool, len(knownFields))
	for _, f := range knownFields {
		kf[f] = true
	}
	return &StoragePool[T]{
		decl:        decl,
		base:        base,
		super:       super,
		knownFields: kf,
		unknown:     map[SkillID]map[string]any{},
	}
}

func (p *StoragePool[T]) Decl() ir.DeclID { return p.decl }
func (p *StoragePool[T]) DataLen() int    { return len(p.data) }
func (p *StoragePool[T]) NewLen() int     { return len(p.newObjects) }
func (p *StoragePool[T]) SuperPool() Pool { return p.super }
func (p *StoragePool[T]) SubPools() []Pool { return p.subs }

// AddSubPool links sub as one of p's direct subtype pools. Callers build
// the tree bottom-up, so this is called once per subtype during setup.
func (p *StoragePool[T]) AddSubPool(sub Pool) { p.subs = append(p.subs, sub) }

// BasePool returns the shared base pool p draws SkillIDs from.
func (p *StoragePool[T]) BasePool() *BasePool { return p.base }

// Get returns the instance at id, searching the data region first, then
// the new-objects region.
func (p *StoragePool[T]) Get(id SkillID) (T, bool) {
	var zero T
	idx := int(id) - 1
	if idx < 0 {
		return zero, false
	}
	if idx < len(p.data) {
		return p.data[idx], true
	}
	idx -= len(p.data)
	if idx < len(p.newObjects) {
		return p.newObjects[idx], true
	}
	return zero, false
}

// New appends v to the new-objects region and returns its SkillID.
func (p *StoragePool[T]) New(v T) SkillID {
	p.newObjects = append(p.newObjects, v)
	return SkillID(len(p.data) + len(p.newObjects))
}

// AppendData appends an instance recovered from a read into the data
// region; used only while replaying prior blocks.
func (p *StoragePool[T]) AppendData(v T) {
	p.data = append(p.data, v)
}

// NewObjects returns the instances created this session, in creation
// order.
func (p *StoragePool[T]) NewObjects() []T { return p.newObjects }

// IsKnownField reports whether fieldName has a generated typed accessor.
func (p *StoragePool[T]) IsKnownField(fieldName string) bool { return p.knownFields[fieldName] }

// UnknownFieldData returns the raw value recorded for id under
// fieldName, if any was read from a file the binding doesn't have a
// typed accessor for.
func (p *StoragePool[T]) UnknownFieldData(id SkillID, fieldName string) (any, bool) {
	m, ok := p.unknown[id]
	if !ok {
		return nil, false
	}
	v, ok := m[fieldName]
	return v, ok
}

// SetUnknownFieldData records value for id under fieldName. Reflective
// get/set on a field the binding doesn't know about always goes through
// here rather than through a typed field.
func (p *StoragePool[T]) SetUnknownFieldData(id SkillID, fieldName string, value any) {
	m, ok := p.unknown[id]
	if !ok {
		m = map[string]any{}
		p.unknown[id] = m
	}
	m[fieldName] = value
}

// AllInTypeOrder walks root's pool and every subpool depth-first in type
// order: root first, then each direct subpool's entire subtree before
// moving to the next sibling. Bulk field writing uses this order.
func AllInTypeOrder(root Pool) []Pool {
	out := []Pool{root}
	for _, sub := range root.SubPools() {
		out = append(out, AllInTypeOrder(sub)...)
	}
	return out
}

// NewInTypeOrder is AllInTypeOrder restricted to pools that gained at
// least one new instance this session, for incremental append.
func NewInTypeOrder(root Pool) []Pool {
	var out []Pool
	if root.NewLen() > 0 {
		out = append(out, root)
	}
	for _, sub := range root.SubPools() {
		out = append(out, NewInTypeOrder(sub)...)
	}
	return out
}

// ComputeLBPSI returns, for every declaration in schema, the 1-based
// index into its base pool's shared space at which this block's new
// instances begin. priorCount is the number of SkillIDs
// already allocated to each base pool before this block (0 for a fresh
// write); newCount is the number of new instances each type contributes
// in this block. Values are assigned left to right across each base
// type's inheritance tree, in type order, exactly mirroring how
// BasePool.Reserve would allocate them one type at a time.
func ComputeLBPSI(schema *ir.Schema, priorCount, newCount map[ir.DeclID]int) map[ir.DeclID]int {
	lbpsi := make(map[ir.DeclID]int, schema.Len())
	for _, d := range schema.All() {
		if !d.IsBase() {
			continue
		}
		next := priorCount[d.ID] + 1
		tree := append([]ir.DeclID{d.ID}, d.SubTypes...)
		for _, id := range tree {
			lbpsi[id] = next
			next += newCount[id]
		}
	}
	return lbpsi
}
