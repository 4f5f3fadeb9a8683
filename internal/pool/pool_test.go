package pool

import (
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"

	"github.com/przytads/skill/internal/ir"
)

// treeSchema builds a 4-declaration inheritance tree directly, without
// going through the parser/checker: A (base), B:A, C:A, D:B, mirroring the
// type-order scenario exercised in the checker's own tests.
func treeSchema() *ir.Schema {
	a := &ir.Declaration{ID: 0, SkillName: "a", Super: -1, BaseType: 0, SubTypes: []ir.DeclID{1, 2, 3}}
	b := &ir.Declaration{ID: 1, SkillName: "b", Super: 0, BaseType: 0, SubTypes: []ir.DeclID{2}}
	d := &ir.Declaration{ID: 2, SkillName: "d", Super: 1, BaseType: 0}
	c := &ir.Declaration{ID: 3, SkillName: "c", Super: 0, BaseType: 0}
	// order here matches assignTypeOrder's depth-first layout: a, b, d, c.
	decls := []*ir.Declaration{a, b, d, c}
	byName := map[string]ir.DeclID{"a": 0, "b": 1, "d": 2, "c": 3}
	return ir.NewSchema(decls, byName)
}

func TestComputeLBPSIFreshTree(t *testing.T) {
	schema := treeSchema()
	prior := map[ir.DeclID]int{}
	newCount := map[ir.DeclID]int{0: 2, 1: 3, 2: 1, 3: 4} // a, b, d, c

	lbpsi := ComputeLBPSI(schema, prior, newCount)

	// a's tree is walked in type order: a, b, d, c (a.SubTypes above).
	qt.Assert(t, qt.Equals(lbpsi[0], 1))  // a starts at 1, contributes 2
	qt.Assert(t, qt.Equals(lbpsi[1], 3))  // b starts at 3, contributes 3
	qt.Assert(t, qt.Equals(lbpsi[2], 6))  // d starts at 6, contributes 1
	qt.Assert(t, qt.Equals(lbpsi[3], 7))  // c starts at 7, contributes 4
}

func TestComputeLBPSIAppendBlockContinuesFromPriorCount(t *testing.T) {
	schema := treeSchema()
	prior := map[ir.DeclID]int{0: 10} // 10 instances already on disk in a's base pool
	newCount := map[ir.DeclID]int{0: 1, 1: 0, 2: 0, 3: 2}

	lbpsi := ComputeLBPSI(schema, prior, newCount)

	qt.Assert(t, qt.Equals(lbpsi[0], 11)) // a: prior 10 -> starts at 11, contributes 1
	qt.Assert(t, qt.Equals(lbpsi[1], 12)) // b: starts at 12, contributes 0
	qt.Assert(t, qt.Equals(lbpsi[2], 12)) // d: starts at 12, contributes 0
	qt.Assert(t, qt.Equals(lbpsi[3], 12)) // c: starts at 12, contributes 2
}

func TestComputeLBPSIOnlyAssignsBaseTypeTrees(t *testing.T) {
	schema := treeSchema()
	lbpsi := ComputeLBPSI(schema, map[ir.DeclID]int{}, map[ir.DeclID]int{})
	qt.Assert(t, qt.Equals(len(lbpsi), 4))
	for _, id := range []ir.DeclID{0, 1, 2, 3} {
		_, ok := lbpsi[id]
		qt.Assert(t, qt.IsTrue(ok))
	}
}

type stubPool struct {
	decl   ir.DeclID
	newLen int
	subs   []Pool
}

func (p *stubPool) Decl() ir.DeclID                  { return p.decl }
func (p *stubPool) DataLen() int                     { return 0 }
func (p *stubPool) NewLen() int                      { return p.newLen }
func (p *stubPool) SuperPool() Pool                  { return nil }
func (p *stubPool) SubPools() []Pool                 { return p.subs }
func (p *stubPool) UnknownFieldData(SkillID, string) (any, bool) { return nil, false }
func (p *stubPool) SetUnknownFieldData(SkillID, string, any)     {}

func TestAllInTypeOrderIsDepthFirst(t *testing.T) {
	d := &stubPool{decl: 2}
	b := &stubPool{decl: 1, subs: []Pool{d}}
	c := &stubPool{decl: 3}
	a := &stubPool{decl: 0, subs: []Pool{b, c}}

	order := AllInTypeOrder(a)
	qt.Assert(t, qt.Equals(len(order), 4))
	var ids []ir.DeclID
	for _, p := range order {
		ids = append(ids, p.Decl())
	}
	qt.Assert(t, qt.DeepEquals(ids, []ir.DeclID{0, 1, 2, 3}))
}

func TestNewInTypeOrderSkipsEmptyPools(t *testing.T) {
	d := &stubPool{decl: 2, newLen: 0}
	b := &stubPool{decl: 1, newLen: 5, subs: []Pool{d}}
	c := &stubPool{decl: 3, newLen: 0}
	a := &stubPool{decl: 0, newLen: 2, subs: []Pool{b, c}}

	order := NewInTypeOrder(a)
	var ids []ir.DeclID
	for _, p := range order {
		ids = append(ids, p.Decl())
	}
	qt.Assert(t, qt.DeepEquals(ids, []ir.DeclID{0, 1}))
}

func TestBasePoolReserve(t *testing.T) {
	base := NewBasePool(&stubPool{decl: 0})
	s1 := base.Reserve(3)
	s2 := base.Reserve(2)
	qt.Assert(t, qt.Equals(s1, 1))
	qt.Assert(t, qt.Equals(s2, 4))
	qt.Assert(t, qt.Equals(base.Size(), 5))
	want := []BlockInfo{{BPSI: 1, Count: 3}, {BPSI: 4, Count: 2}}
	if diff := cmp.Diff(want, base.Blocks()); diff != "" {
		t.Errorf("reserved blocks mismatch (-want +got):\n%s", diff)
	}
}

func TestStoragePoolGetAcrossDataAndNewRegions(t *testing.T) {
	type widget struct{ name string }
	sp := NewStoragePool[widget](0, NewBasePool(nil), nil, []string{"name"})
	sp.AppendData(widget{name: "fromFile"})
	id := sp.New(widget{name: "fresh"})

	got, ok := sp.Get(SkillID(1))
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(got.name, "fromFile"))

	got, ok = sp.Get(id)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(got.name, "fresh"))

	_, ok = sp.Get(SkillID(0))
	qt.Assert(t, qt.Equals(ok, false))

	qt.Assert(t, qt.IsTrue(sp.IsKnownField("name")))
	qt.Assert(t, qt.Equals(sp.IsKnownField("mystery"), false))
}

func TestStoragePoolUnknownFieldData(t *testing.T) {
	sp := NewStoragePool[int](0, NewBasePool(nil), nil, nil)
	_, ok := sp.UnknownFieldData(SkillID(1), "legacy")
	qt.Assert(t, qt.Equals(ok, false))

	sp.SetUnknownFieldData(SkillID(1), "legacy", "kept as-is")
	v, ok := sp.UnknownFieldData(SkillID(1), "legacy")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(v, "kept as-is"))
}
