// Package check lifts a flat list of parsed declarations into a
// type-checked [ir.Schema]: it resolves names, builds the inheritance
// graph, validates fields and restrictions, and returns declarations in
// type order. No partial IR is ever returned alongside an error.
package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/przytads/skill/internal/ast"
	"github.com/przytads/skill/internal/errors"
	"github.com/przytads/skill/internal/ir"
	"github.com/przytads/skill/internal/token"
)

// Options controls checker behavior that the source grammar itself leaves
// open, such as whether an unrecognized hint name is an error or a
// tolerated no-op.
type Options struct {
	// StrictHints turns unrecognized hint names into errors. Without it,
	// unrecognized hint names are dropped silently; no warning is reported.
	StrictHints bool
}

var knownRestrictions = map[string]bool{
	"range": true, "nonNull": true, "unique": true,
	"singleton": true, "monotone": true, "default": true, "coding": true,
}

// knownHints is the vocabulary of hints a binding understands. "ignore"
// is the one with checker-visible semantics: it marks a field as
// IsIgnored, a field a binding parses but never generates an accessor for.
var knownHints = map[string]bool{
	"ignore": true,
}

// Check type-checks defs (the flattened declaration list produced by the
// include resolver) and returns the resulting IR. An empty, non-nil defs
// slice with sourceWasBlank set to false still yields a schema error: a
// source that produced no declarations is only valid if the original text
// was itself blank.
func Check(defs []*ast.Definition, sourceWasBlank bool, opts Options) (*ir.Schema, error) {
	c := &checker{opts: opts}
	return c.run(defs, sourceWasBlank)
}

type checker struct {
	opts   Options
	errs   errors.List
	byName map[string]*ast.Definition // lowercased skillName -> first occurrence
	order  []*ast.Definition          // unique defs, first-seen order
}

func (c *checker) run(defs []*ast.Definition, sourceWasBlank bool) (*ir.Schema, error) {
	c.buildNameTable(defs)
	if len(c.order) == 0 {
		if sourceWasBlank {
			return &ir.Schema{}, nil
		}
		if c.errs.Len() == 0 {
			c.errs.AddNewf(token.NoPos, "schema contains no type declarations")
		}
		return nil, c.errs.Err()
	}

	children := c.buildChildren()
	decls, byName := c.assignTypeOrder(children)

	for _, d := range decls {
		c.resolveSuper(d, byName)
	}
	c.breakInheritanceCycles(decls)
	c.computeBaseAndSubTypes(decls)

	for i, d := range decls {
		c.resolveDeclDesc(d, c.order[i], byName)
		c.resolveFields(d, c.order[i], byName)
	}

	c.errs.Sort()
	if err := c.errs.Err(); err != nil {
		return nil, err
	}
	return ir.NewSchema(decls, byName), nil
}

// resolveDeclDesc validates the restrictions and hints attached directly to
// a type declaration (as opposed to one of its fields). Range and default
// restrictions have no declared field type to check against at this level,
// so they always report as inapplicable; the declaration-scoped vocabulary
// is effectively {nonNull, unique, singleton, monotone, coding}.
func (c *checker) resolveDeclDesc(decl *ir.Declaration, def *ast.Definition, byName map[string]ir.DeclID) {
	checked, ok := c.checkDescription(def.Desc, decl.CapitalName, "<type>", byName, nil)
	if !ok {
		return
	}
	decl.Restrictions = checked.restrictions
	decl.Hints = checked.hints
}

func (c *checker) buildNameTable(defs []*ast.Definition) {
	c.byName = map[string]*ast.Definition{}
	for _, d := range defs {
		lower := strings.ToLower(d.Name.Name)
		if lower == "any" {
			c.errs.AddNewf(d.Name.Pos(), "the type name \"any\" is reserved and may not be declared")
			continue
		}
		if _, dup := c.byName[lower]; dup {
			c.errs.AddNewf(d.Name.Pos(), "duplicate definition of type %q", d.Name.Name)
			continue
		}
		c.byName[lower] = d
		c.order = append(c.order, d)
	}
}

// buildChildren groups c.order by lowercased super name, preserving
// first-seen order among siblings.
func (c *checker) buildChildren() map[string][]*ast.Definition {
	children := map[string][]*ast.Definition{}
	for _, d := range c.order {
		if d.SuperName == nil {
			continue
		}
		key := strings.ToLower(d.SuperName.Name)
		children[key] = append(children[key], d)
	}
	return children
}

// assignTypeOrder performs the topological sort the wire format requires:
// every declaration precedes its subtypes, ties between siblings are
// stable by first-seen order. Declarations whose super name does not resolve are
// treated as roots for ordering purposes only; resolveSuper reports the
// actual error once the full name index is built.
func (c *checker) assignTypeOrder(children map[string][]*ast.Definition) ([]*ir.Declaration, map[string]ir.DeclID) {
	var order []*ast.Definition
	visited := map[*ast.Definition]bool{}

	var visit func(d *ast.Definition)
	visit = func(d *ast.Definition) {
		if visited[d] {
			return
		}
		visited[d] = true
		order = append(order, d)
		for _, child := range children[strings.ToLower(d.Name.Name)] {
			visit(child)
		}
	}

	isRoot := func(d *ast.Definition) bool {
		if d.SuperName == nil {
			return true
		}
		_, ok := c.byName[strings.ToLower(d.SuperName.Name)]
		return !ok
	}

	for _, d := range c.order {
		if isRoot(d) {
			visit(d)
		}
	}
	// Declarations whose super chain leads to a root are covered by the
	// walk above. Only declarations on a cyclic super chain (A : B, B : A)
	// are left unvisited; this pass adds them, and breakInheritanceCycles
	// reports them later.
	for _, d := range c.order {
		visit(d)
	}

	decls := make([]*ir.Declaration, len(order))
	byName := make(map[string]ir.DeclID, len(order))
	for i, d := range order {
		id := ir.DeclID(i)
		decls[i] = &ir.Declaration{
			ID:          id,
			Doc:         d.Desc.Doc.Text(),
			Pos:         d.Name.Pos(),
			Super:       ir.DeclID(-1),
			BaseType:    id,
			SkillName:   strings.ToLower(d.Name.Name),
			CapitalName: d.Name.Name,
		}
		byName[decls[i].SkillName] = id
	}
	// c.order is replaced by the type-ordered sequence so later passes
	// (field resolution) can zip decls[i] with order[i].
	c.order = order
	return decls, byName
}

func (c *checker) resolveSuper(d *ir.Declaration, byName map[string]ir.DeclID) {
	def := c.order[d.ID]
	if def.SuperName == nil {
		return
	}
	superID, ok := byName[strings.ToLower(def.SuperName.Name)]
	if !ok {
		c.unknownType(def.SuperName.Pos(), def.SuperName.Name, byName)
		return
	}
	d.Super = superID
}

// breakInheritanceCycles walks each declaration's super chain and reports
// a diagnostic for any declaration that, directly or transitively, extends
// itself. The offending declaration's Super link is then cleared so it is
// treated as its own root for the rest of the pipeline: without this, a
// cycle would make computeBaseAndSubTypes's subtree walk recurse forever
// instead of failing with a reported error.
func (c *checker) breakInheritanceCycles(decls []*ir.Declaration) {
	for _, d := range decls {
		seen := map[ir.DeclID]bool{d.ID: true}
		cur := d
		for cur.HasSuper() {
			next := cur.Super
			if seen[next] {
				c.errs.AddNewf(d.Pos, "type %q has a cyclic super chain through %q", d.CapitalName, decls[next].CapitalName)
				d.Super = ir.DeclID(-1)
				break
			}
			seen[next] = true
			cur = decls[next]
		}
	}
}

func (c *checker) computeBaseAndSubTypes(decls []*ir.Declaration) {
	// BaseType: walk the super chain to its root. The walk is capped at
	// len(decls) steps: the super chain is acyclic once
	// breakInheritanceCycles has run, but the cap keeps a pathological
	// input from hanging instead of failing a later invariant check.
	for _, d := range decls {
		root := d
		for steps := 0; root.HasSuper() && steps < len(decls); steps++ {
			root = decls[root.Super]
		}
		d.BaseType = root.ID
	}
	// SubTypes: group each declaration's direct children (in type order),
	// then collect each subtree depth-first, memoizing per declaration, so
	// every SubTypes list comes out in type order.
	childOf := make([][]ir.DeclID, len(decls))
	for _, d := range decls {
		if d.HasSuper() {
			childOf[d.Super] = append(childOf[d.Super], d.ID)
		}
	}
	var collect func(id ir.DeclID) []ir.DeclID
	memo := make([][]ir.DeclID, len(decls))
	collect = func(id ir.DeclID) []ir.DeclID {
		if memo[id] != nil {
			return memo[id]
		}
		var out []ir.DeclID
		for _, ch := range childOf[id] {
			out = append(out, ch)
			out = append(out, collect(ch)...)
		}
		memo[id] = out
		if out == nil {
			memo[id] = []ir.DeclID{}
		}
		return memo[id]
	}
	for _, d := range decls {
		d.SubTypes = collect(d.ID)
	}
}

func (c *checker) unknownType(pos token.Pos, name string, byName map[string]ir.DeclID) {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	// byName is keyed by the same DeclID space as decls, which are already
	// in type order; recover that order by sorting on DeclID rather than
	// name.
	sort.Slice(names, func(i, j int) bool { return byName[names[i]] < byName[names[j]] })
	c.errs.AddNewf(pos, "The type %q is unknown!\nKnown types are: %s", name, strings.Join(names, ", "))
}

func (c *checker) resolveFields(decl *ir.Declaration, def *ast.Definition, byName map[string]ir.DeclID) {
	seen := map[string]bool{}
	for _, f := range def.Fields {
		name := f.FieldName().Name
		lower := strings.ToLower(name)
		if seen[lower] {
			c.errs.AddNewf(f.FieldName().Pos(), "duplicate field %q in type %q", name, decl.CapitalName)
			continue
		}
		seen[lower] = true

		switch af := f.(type) {
		case *ast.ConstantField:
			c.resolveConstantField(decl, af, byName)
		case *ast.DataField:
			c.resolveDataField(decl, af, byName)
		}
	}
}

func (c *checker) resolveConstantField(decl *ir.Declaration, af *ast.ConstantField, byName map[string]ir.DeclID) {
	typeName := af.Type.Name.Name
	if strings.EqualFold(typeName, decl.CapitalName) {
		c.errs.AddNewf(af.Type.Pos(), "constant field %q may not reference its enclosing type %q", af.Name.Name, decl.CapitalName)
		return
	}
	kind, ok := ir.LookupGround(typeName)
	if !ok {
		if _, isUser := byName[strings.ToLower(typeName)]; isUser {
			c.errs.AddNewf(af.Type.Pos(), "const field %q must have an integral ground type, found user type %q", af.Name.Name, typeName)
			return
		}
		c.unknownType(af.Type.Pos(), typeName, byName)
		return
	}
	if !kind.IsIntegral() {
		c.errs.AddNewf(af.Type.Pos(), "const field %q must have an integral ground type (i8, i16, i32, i64, or v64), found %q", af.Name.Name, typeName)
		return
	}

	desc, ok := c.checkDescription(af.Desc, decl.CapitalName, af.Name.Name, byName, ir.Ground{Kind: kind})
	if !ok {
		return
	}
	field := &ir.Field{
		SkillName:     strings.ToLower(af.Name.Name),
		Doc:           af.Desc.Doc.Text(),
		Pos:           af.Name.Pos(),
		Type:          ir.Ground{Kind: kind},
		IsConstant:    true,
		ConstantValue: af.Value.Int,
		Restrictions:  desc.restrictions,
		Hints:         desc.hints,
		IsIgnored:     desc.ignored,
	}
	decl.Fields = append(decl.Fields, field)
}

func (c *checker) resolveDataField(decl *ir.Declaration, af *ast.DataField, byName map[string]ir.DeclID) {
	typ, ok := c.resolveTypeExpr(af.Type, byName)
	if !ok {
		return
	}
	desc, ok := c.checkDescription(af.Desc, decl.CapitalName, af.Name.Name, byName, typ)
	if !ok {
		return
	}
	field := &ir.Field{
		SkillName:    strings.ToLower(af.Name.Name),
		Doc:          af.Desc.Doc.Text(),
		Pos:          af.Name.Pos(),
		Type:         typ,
		IsAuto:       af.Auto,
		Restrictions: desc.restrictions,
		Hints:        desc.hints,
		IsIgnored:    desc.ignored,
	}
	decl.Fields = append(decl.Fields, field)
}

func (c *checker) resolveBaseType(bt *ast.BaseType, byName map[string]ir.DeclID) (ir.Type, bool) {
	name := bt.Name.Name
	if kind, ok := ir.LookupGround(name); ok {
		return ir.Ground{Kind: kind}, true
	}
	if id, ok := byName[strings.ToLower(name)]; ok {
		return ir.UserRef{Decl: id}, true
	}
	c.unknownType(bt.Name.Pos(), name, byName)
	return nil, false
}

func (c *checker) resolveTypeExpr(te ast.TypeExpr, byName map[string]ir.DeclID) (ir.Type, bool) {
	switch t := te.(type) {
	case *ast.BaseType:
		return c.resolveBaseType(t, byName)
	case *ast.FixedArrayType:
		elem, ok := c.resolveBaseType(t.Elem, byName)
		if !ok {
			return nil, false
		}
		return ir.FixedArray{Elem: elem, Len: t.Len}, true
	case *ast.VarArrayType:
		elem, ok := c.resolveBaseType(t.Elem, byName)
		if !ok {
			return nil, false
		}
		return ir.VarArray{Elem: elem}, true
	case *ast.ListType:
		elem, ok := c.resolveBaseType(t.Elem, byName)
		if !ok {
			return nil, false
		}
		return ir.List{Elem: elem}, true
	case *ast.SetType:
		elem, ok := c.resolveBaseType(t.Elem, byName)
		if !ok {
			return nil, false
		}
		return ir.Set{Elem: elem}, true
	case *ast.MapType:
		elems := make([]ir.Type, 0, len(t.Elems))
		for _, e := range t.Elems {
			elem, ok := c.resolveBaseType(e, byName)
			if !ok {
				return nil, false
			}
			elems = append(elems, elem)
		}
		return ir.Map{Elems: elems}, true
	default:
		panic(fmt.Sprintf("check: unreachable type expression %T", te))
	}
}

// sortUniqueStrings sorts ss and removes adjacent duplicates in place,
// returning the deduplicated prefix.
func sortUniqueStrings(ss []string) []string {
	sort.Strings(ss)
	out := ss[:0]
	for i, s := range ss {
		if i == 0 || s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

type checkedDesc struct {
	restrictions []*ir.Restriction
	hints        []*ir.Hint
	ignored      bool
}

// checkDescription validates every restriction and hint on a field (or, via
// the decl-level caller, a type) against fieldType.
func (c *checker) checkDescription(desc *ast.Description, ownerName, memberName string, byName map[string]ir.DeclID, fieldType ir.Type) (checkedDesc, bool) {
	var out checkedDesc
	ok := true

	var unknownHints []string
	for _, h := range desc.Hints {
		if !knownHints[h.Name.Name] {
			unknownHints = append(unknownHints, h.Name.Name)
			continue
		}
		out.hints = append(out.hints, &ir.Hint{Name: h.Name.Name, Pos: h.Pos()})
		if h.Name.Name == "ignore" {
			out.ignored = true
		}
	}
	if len(unknownHints) > 0 {
		unknownHints = sortUniqueStrings(unknownHints)
		msg := fmt.Sprintf("%s.%s: unrecognized hint(s): %s", ownerName, memberName, strings.Join(unknownHints, ", "))
		if c.opts.StrictHints {
			c.errs.AddNewf(desc.Hints[0].Pos(), "%s", msg)
			ok = false
		}
	}

	for _, r := range desc.Restrictions {
		restriction, valid := c.checkRestriction(r, fieldType)
		if !valid {
			ok = false
			continue
		}
		out.restrictions = append(out.restrictions, restriction)
	}
	return out, ok
}

func (c *checker) checkRestriction(r *ast.Restriction, fieldType ir.Type) (*ir.Restriction, bool) {
	if !knownRestrictions[r.Name.Name] {
		c.errs.AddNewf(r.Pos(), "%s() is either not supported or an invalid restriction name", r.Name.Name)
		return nil, false
	}

	switch r.Name.Name {
	case "range":
		return c.checkRange(r, fieldType)
	case "default":
		return c.checkDefault(r, fieldType)
	case "coding":
		if len(r.Args) != 1 || !r.Args[0].IsString {
			c.errs.AddNewf(r.Pos(), "coding() requires exactly one string argument")
			return nil, false
		}
		return &ir.Restriction{Kind: ir.Coding, Pos: r.Pos(), CodingName: r.Args[0].Str}, true
	case "nonNull", "unique", "singleton", "monotone":
		if len(r.Args) != 0 {
			c.errs.AddNewf(r.Pos(), "%s() takes no arguments", r.Name.Name)
			return nil, false
		}
		kind := map[string]ir.RestrictionKind{
			"nonNull": ir.NonNull, "unique": ir.Unique,
			"singleton": ir.Singleton, "monotone": ir.Monotone,
		}[r.Name.Name]
		return &ir.Restriction{Kind: kind, Pos: r.Pos()}, true
	default:
		panic("check: unreachable restriction name " + r.Name.Name)
	}
}

func (c *checker) checkRange(r *ast.Restriction, fieldType ir.Type) (*ir.Restriction, bool) {
	g, ok := fieldType.(ir.Ground)
	if !ok || !(g.Kind.IsIntegral() || g.Kind.IsFloat()) {
		c.errs.AddNewf(r.Pos(), "range() restriction is not applicable to this field's type")
		return nil, false
	}
	if len(r.Args) != 4 {
		c.errs.AddNewf(r.Pos(), "range() requires exactly 4 arguments: low, high, incLow, incHigh")
		return nil, false
	}
	for _, a := range r.Args {
		if a.IsString {
			c.errs.AddNewf(r.Pos(), "range() arguments must be integers")
			return nil, false
		}
	}
	low, high := r.Args[0].Int, r.Args[1].Int
	incLow, incHigh := r.Args[2].Int != 0, r.Args[3].Int != 0

	if g.Kind.IsIntegral() {
		if low >= high {
			c.errs.AddNewf(r.Pos(), "Integer range restriction has no legal values: %d -> %d", low, high)
			return nil, false
		}
		return &ir.Restriction{Kind: ir.IntRange, Pos: r.Pos(), LowInt: low, HighInt: high, IncLowInt: incLow, IncHighInt: incHigh}, true
	}
	lowF, highF := float64(low), float64(high)
	if lowF >= highF {
		c.errs.AddNewf(r.Pos(), "Float range restriction has no legal values: %v -> %v", lowF, highF)
		return nil, false
	}
	return &ir.Restriction{Kind: ir.FloatRange, Pos: r.Pos(), LowFloat: lowF, HighFloat: highF, IncLowFloat: incLow, IncHighFloat: incHigh}, true
}

func (c *checker) checkDefault(r *ast.Restriction, fieldType ir.Type) (*ir.Restriction, bool) {
	if len(r.Args) != 1 {
		c.errs.AddNewf(r.Pos(), "default() requires exactly one argument")
		return nil, false
	}
	g, ok := fieldType.(ir.Ground)
	if !ok {
		c.errs.AddNewf(r.Pos(), "default() restriction is not applicable to this field's type")
		return nil, false
	}
	arg := r.Args[0]
	switch {
	case g.Kind == ir.StringKind:
		if !arg.IsString {
			c.errs.AddNewf(r.Pos(), "default() for a string field requires a string argument")
			return nil, false
		}
		return &ir.Restriction{Kind: ir.Default, Pos: r.Pos(), DefaultStr: arg.Str, DefaultIsStr: true}, true
	case g.Kind.IsIntegral():
		if arg.IsString {
			c.errs.AddNewf(r.Pos(), "default() for an integral field requires an integer argument")
			return nil, false
		}
		return &ir.Restriction{Kind: ir.Default, Pos: r.Pos(), DefaultInt: arg.Int}, true
	case g.Kind.IsFloat():
		if arg.IsString {
			c.errs.AddNewf(r.Pos(), "default() for a floating field requires a numeric argument")
			return nil, false
		}
		return &ir.Restriction{Kind: ir.Default, Pos: r.Pos(), DefaultFloat: float64(arg.Int)}, true
	default:
		c.errs.AddNewf(r.Pos(), "default() restriction is not applicable to this field's type")
		return nil, false
	}
}
