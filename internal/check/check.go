package check

import (
	"strings"

	"github.com/virdant-lang/virdant/internal/ast"
	"github.com/virdant-lang/virdant/internal/errors"
	"github.com/virdant-lang/virdant/internal/ids"
	"github.com/virdant-lang/virdant/internal/registry"
	"github.com/virdant-lang/virdant/internal/structure"
	"github.com/virdant-lang/virdant/internal/vtypes"
)

// scope is the per-expression context a Check/Infer judgment carries:
// the package an expression's types resolve in, the enclosing module's
// built Structure (for local-element and submodule-port lookups), and
// the let-bound local environment.
type scope struct {
	pkg   string
	mod   *structure.Structure
	gamma map[string]vtypes.Type
}

func (s scope) withLet(name string, t vtypes.Type) scope {
	g := make(map[string]vtypes.Type, len(s.gamma)+1)
	for k, v := range s.gamma {
		g[k] = v
	}
	g[name] = t
	return scope{pkg: s.pkg, mod: s.mod, gamma: g}
}

// Checker is the bidirectional type checker. It holds no per-check
// mutable state itself; every Check/Infer call threads its own scope
// and diagnostics accumulator.
type Checker struct {
	reg     *registry.Registry
	defs    *vtypes.Defs
	builder *structure.Builder
}

// NewChecker creates a checker over reg/defs/builder, the same query
// objects the earlier phases (registry, vtypes, structure) already use.
func NewChecker(reg *registry.Registry, defs *vtypes.Defs, builder *structure.Builder) *Checker {
	return &Checker{reg: reg, defs: defs, builder: builder}
}

// resolvePath implements path resolution in expression position: a
// let-bound local, else a local element of the enclosing module, else
// (for a two-part path) a submodule's port, else unresolved.
func (c *Checker) resolvePath(s scope, name string) (*Referent, *errors.Report) {
	path := ids.ParsePath(name)

	if path.IsLocal() {
		head := path.Head()
		if t, ok := s.gamma[head]; ok {
			return &Referent{Kind: RefLocal, Name: head, Type: t}, nil
		}
		if el, ok := s.mod.ElementByName(head); ok {
			return &Referent{Kind: RefElement, Name: head, Type: el.Type}, nil
		}
		return nil, errors.UnresolvedIdent(name)
	}

	if path.IsForeign() {
		sub, ok := s.mod.SubmoduleByName(path.Head())
		if !ok || sub.Target == "" {
			return nil, errors.UnresolvedIdent(name)
		}
		targetStruct, _ := c.builder.Build(sub.Target)
		if targetStruct == nil {
			return nil, errors.UnresolvedIdent(name)
		}
		port, ok := targetStruct.ElementByName(path.Last())
		if !ok || !port.Kind.IsPort() {
			return nil, errors.UnresolvedIdent(name)
		}
		return &Referent{Kind: RefSubPort, Name: path.Head(), Port: path.Last(), Type: port.Type}, nil
	}

	return nil, errors.UnresolvedIdent(name)
}

// Infer synthesizes a TypedExpr's type from node alone. Forms the typing
// table marks "not inferable" (ctor literals, if, match) fall through to
// the default case and are reported as CantInfer.
func (c *Checker) Infer(s scope, node *ast.Node, diags *errors.Diagnostics) *TypedExpr {
	switch node.Kind() {
	case ast.KExprPath:
		ref, rerr := c.resolvePath(s, node.Name())
		if rerr != nil {
			diags.Add(rerr.WithSpan(node.Span()))
			return nil
		}
		return &TypedExpr{Kind: EReference, Type: ref.Type, Referent: ref}

	case ast.KExprWordLit:
		value, width, sized, err := parseWordLit(node.AsStr())
		if err != nil {
			diags.Add(errors.KindError(err.Error()).WithSpan(node.Span()))
			return nil
		}
		if !sized {
			diags.Add(errors.CantInfer("unsized word literal requires an expected type").WithSpan(node.Span()))
			return nil
		}
		return &TypedExpr{Kind: EWordLit, Type: vtypes.Word{Width: width}, WordValue: value}

	case ast.KExprAs:
		ascribed, rerr := c.defs.ResolveType(s.pkg, node.Typ())
		if rerr != nil {
			diags.Add(rerr)
			return nil
		}
		inner := c.Check(s, node.Of(), ascribed, diags)
		if inner == nil {
			return nil
		}
		return &TypedExpr{Kind: EAs, Type: ascribed, Inner: inner}

	case ast.KExprMethodCall:
		return c.inferMethodCall(s, node, diags)

	case ast.KExprIdx:
		return c.inferIdx(s, node, diags)

	case ast.KExprIdxRange:
		return c.inferIdxRange(s, node, diags)

	case ast.KExprCat:
		return c.inferCat(s, node, diags)

	case ast.KExprLet:
		return c.inferLet(s, node, diags)

	case ast.KExprVec:
		return c.inferVec(s, node, diags)

	case ast.KExprStruct:
		return c.inferOrCheckStruct(s, node, nil, diags)

	default:
		diags.Add(errors.CantInfer("expression form " + node.Kind().String() + " cannot be inferred without an expected type").WithSpan(node.Span()))
		return nil
	}
}

// Check verifies node against an expected type, producing a TypedExpr
// whose Type equals expected on success.
func (c *Checker) Check(s scope, node *ast.Node, expected vtypes.Type, diags *errors.Diagnostics) *TypedExpr {
	switch node.Kind() {
	case ast.KExprPath:
		ref, rerr := c.resolvePath(s, node.Name())
		if rerr != nil {
			diags.Add(rerr.WithSpan(node.Span()))
			return nil
		}
		if !vtypes.Equal(ref.Type, expected) {
			diags.Add(mismatch(expected, ref.Type).WithSpan(node.Span()))
			return nil
		}
		return &TypedExpr{Kind: EReference, Type: expected, Referent: ref}

	case ast.KExprWordLit:
		return c.checkWordLit(node, expected, diags)

	case ast.KExprAs:
		ascribed, rerr := c.defs.ResolveType(s.pkg, node.Typ())
		if rerr != nil {
			diags.Add(rerr)
			return nil
		}
		if !vtypes.Equal(ascribed, expected) {
			diags.Add(mismatch(expected, ascribed).WithSpan(node.Span()))
			return nil
		}
		inner := c.Check(s, node.Of(), ascribed, diags)
		if inner == nil {
			return nil
		}
		return &TypedExpr{Kind: EAs, Type: expected, Inner: inner}

	case ast.KExprCtor:
		return c.checkCtor(s, node, expected, diags)

	case ast.KExprIf:
		args := node.Args()
		cond := c.Check(s, args[0], vtypes.Word{Width: 1}, diags)
		then := c.Check(s, args[1], expected, diags)
		els := c.Check(s, args[2], expected, diags)
		if cond == nil || then == nil || els == nil {
			return nil
		}
		return &TypedExpr{Kind: EIf, Type: expected, Cond: cond, Then: then, Else: els}

	case ast.KExprLet:
		return c.checkLet(s, node, expected, diags)

	case ast.KExprMatch:
		return c.checkMatch(s, node, expected, diags)

	case ast.KExprStruct:
		return c.inferOrCheckStruct(s, node, expected, diags)

	case ast.KExprMethodCall, ast.KExprIdx, ast.KExprIdxRange, ast.KExprCat, ast.KExprVec:
		te := c.Infer(s, node, diags)
		if te == nil {
			return nil
		}
		if !vtypes.Equal(te.Type, expected) {
			diags.Add(mismatch(expected, te.Type).WithSpan(node.Span()))
			return nil
		}
		return te

	default:
		diags.Add(errors.TypeMismatch("expression form " + node.Kind().String() + " cannot be checked").WithSpan(node.Span()))
		return nil
	}
}

func mismatch(expected, found vtypes.Type) *errors.Report {
	return errors.TypeMismatch("expected " + expected.String() + ", found " + found.String())
}

func (c *Checker) checkWordLit(node *ast.Node, expected vtypes.Type, diags *errors.Diagnostics) *TypedExpr {
	value, width, sized, err := parseWordLit(node.AsStr())
	if err != nil {
		diags.Add(errors.KindError(err.Error()).WithSpan(node.Span()))
		return nil
	}
	w, isWord := expected.(vtypes.Word)
	if !isWord {
		diags.Add(errors.KindError("word literal requires a Word type, found " + expected.String()).WithSpan(node.Span()))
		return nil
	}
	if sized {
		if width != w.Width {
			diags.Add(mismatch(expected, vtypes.Word{Width: width}).WithSpan(node.Span()))
			return nil
		}
	} else if !fitsInWidth(value, w.Width) {
		diags.Add(errors.TypeMismatch("literal value does not fit in " + w.String()).WithSpan(node.Span()))
		return nil
	}
	return &TypedExpr{Kind: EWordLit, Type: w, WordValue: value}
}

func (c *Checker) inferMethodCall(s scope, node *ast.Node, diags *errors.Diagnostics) *TypedExpr {
	subject := c.Infer(s, node.Of(), diags)
	if subject == nil {
		return nil
	}
	paramType, resultType, arity, ok := lookupMethod(subject.Type, node.Name())
	if !ok {
		diags.Add(errors.KindError("no method " + node.Name() + " on " + subject.Type.String()).WithSpan(node.Span()))
		return nil
	}
	args := node.Args()
	if len(args) != arity {
		diags.Add(errors.TypeMismatch("method " + node.Name() + " expects a different number of arguments").WithSpan(node.Span()))
		return nil
	}
	var typedArgs []*TypedExpr
	if arity == 1 {
		arg := c.Check(s, args[0], paramType, diags)
		if arg == nil {
			return nil
		}
		typedArgs = []*TypedExpr{arg}
	}
	return &TypedExpr{Kind: EMethodCall, Type: resultType, Subject: subject, Method: node.Name(), Args: typedArgs}
}

func (c *Checker) inferIdx(s scope, node *ast.Node, diags *errors.Diagnostics) *TypedExpr {
	subject := c.Infer(s, node.Of(), diags)
	if subject == nil {
		return nil
	}
	w, isWord := subject.Type.(vtypes.Word)
	if !isWord {
		diags.Add(errors.KindError("index requires a Word subject, found " + subject.Type.String()).WithSpan(node.Span()))
		return nil
	}
	idx, err := evalIndexLit(node.Args()[0])
	if err != nil {
		diags.Add(errors.KindError(err.Error()).WithSpan(node.Span()))
		return nil
	}
	if idx < 0 || idx >= w.Width {
		diags.Add(errors.KindError("index out of bounds for " + w.String()).WithSpan(node.Span()))
		return nil
	}
	return &TypedExpr{Kind: EIdx, Type: vtypes.Word{Width: 1}, Subject: subject, Index: idx}
}

func (c *Checker) inferIdxRange(s scope, node *ast.Node, diags *errors.Diagnostics) *TypedExpr {
	subject := c.Infer(s, node.Of(), diags)
	if subject == nil {
		return nil
	}
	w, isWord := subject.Type.(vtypes.Word)
	if !isWord {
		diags.Add(errors.KindError("index range requires a Word subject, found " + subject.Type.String()).WithSpan(node.Span()))
		return nil
	}
	hi, herr := evalIndexLit(node.Args()[0])
	lo, lerr := evalIndexLit(node.Args()[1])
	if herr != nil || lerr != nil {
		diags.Add(errors.KindError("invalid index range bound").WithSpan(node.Span()))
		return nil
	}
	if lo < 0 || hi > w.Width || lo > hi {
		diags.Add(errors.KindError("index range out of bounds for " + w.String()).WithSpan(node.Span()))
		return nil
	}
	return &TypedExpr{Kind: EIdxRange, Type: vtypes.Word{Width: hi - lo}, Subject: subject, Hi: hi, Lo: lo}
}

func (c *Checker) inferCat(s scope, node *ast.Node, diags *errors.Diagnostics) *TypedExpr {
	parts := node.Args()
	typed := make([]*TypedExpr, 0, len(parts))
	total := 0
	ok := true
	for _, p := range parts {
		te := c.Infer(s, p, diags)
		if te == nil {
			ok = false
			continue
		}
		w, isWord := te.Type.(vtypes.Word)
		if !isWord {
			diags.Add(errors.KindError("cat requires every piece to be a word, found " + te.Type.String()).WithSpan(p.Span()))
			ok = false
			continue
		}
		total += w.Width
		typed = append(typed, te)
	}
	if !ok {
		return nil
	}
	return &TypedExpr{Kind: ECat, Type: vtypes.Word{Width: total}, Parts: typed}
}

// inferVec takes the element type from the first element and checks
// every remaining element against it.
func (c *Checker) inferVec(s scope, node *ast.Node, diags *errors.Diagnostics) *TypedExpr {
	elems := node.Args()
	if len(elems) == 0 {
		diags.Add(errors.CantInfer("an empty vec literal has no inferrable element type").WithSpan(node.Span()))
		return nil
	}
	first := c.Infer(s, elems[0], diags)
	if first == nil {
		return nil
	}
	typed := []*TypedExpr{first}
	ok := true
	for _, e := range elems[1:] {
		te := c.Check(s, e, first.Type, diags)
		if te == nil {
			ok = false
			continue
		}
		typed = append(typed, te)
	}
	if !ok {
		return nil
	}
	return &TypedExpr{Kind: EVec, Type: vtypes.Vec{Elem: first.Type, Len: len(typed)}, Parts: typed}
}

func (c *Checker) inferLetValue(s scope, node *ast.Node, diags *errors.Diagnostics) *TypedExpr {
	if t := node.Typ(); t != nil {
		ascribed, rerr := c.defs.ResolveType(s.pkg, t)
		if rerr != nil {
			diags.Add(rerr)
			return nil
		}
		return c.Check(s, node.Expr(), ascribed, diags)
	}
	return c.Infer(s, node.Expr(), diags)
}

func (c *Checker) inferLet(s scope, node *ast.Node, diags *errors.Diagnostics) *TypedExpr {
	value := c.inferLetValue(s, node, diags)
	if value == nil {
		return nil
	}
	bodyScope := s.withLet(node.Name(), value.Type)
	body := c.Infer(bodyScope, node.Args()[0], diags)
	if body == nil {
		return nil
	}
	return &TypedExpr{Kind: ELet, Type: body.Type, LetName: node.Name(), LetValue: value, Body: body}
}

func (c *Checker) checkLet(s scope, node *ast.Node, expected vtypes.Type, diags *errors.Diagnostics) *TypedExpr {
	value := c.inferLetValue(s, node, diags)
	if value == nil {
		return nil
	}
	bodyScope := s.withLet(node.Name(), value.Type)
	body := c.Check(bodyScope, node.Args()[0], expected, diags)
	if body == nil {
		return nil
	}
	return &TypedExpr{Kind: ELet, Type: expected, LetName: node.Name(), LetValue: value, Body: body}
}

func (c *Checker) checkCtor(s scope, node *ast.Node, expected vtypes.Type, diags *errors.Diagnostics) *TypedExpr {
	u, isUnion := expected.(vtypes.Union)
	if !isUnion {
		diags.Add(errors.KindError("constructor expression requires a union type, found " + expected.String()).WithSpan(node.Span()))
		return nil
	}
	info, innerDiags := c.defs.Union(u.ID)
	diags.Merge(innerDiags)
	if info == nil {
		return nil
	}
	ctor, ok := info.CtorByName(node.Name())
	if !ok {
		diags.Add(errors.KindError(node.Name() + " is not a constructor of " + u.String()).WithSpan(node.Span()))
		return nil
	}
	args := node.Args()
	if len(args) != len(ctor.Params) {
		diags.Add(errors.TypeMismatch("constructor " + node.Name() + " expects a different number of arguments").WithSpan(node.Span()))
		return nil
	}
	typedArgs := make([]*TypedExpr, 0, len(args))
	ok2 := true
	for i, a := range args {
		te := c.Check(s, a, ctor.Params[i].Type, diags)
		if te == nil {
			ok2 = false
			continue
		}
		typedArgs = append(typedArgs, te)
	}
	if !ok2 {
		return nil
	}
	return &TypedExpr{Kind: ECtor, Type: expected, CtorID: ctor.ID, Args: typedArgs}
}

// resolveStructRef resolves a struct literal's type-name node (which the
// parser parses as a plain KExprPath, not a KTypeName) to the struct it
// names.
func (c *Checker) resolveStructRef(pkg string, nameNode *ast.Node) (vtypes.Struct, *errors.Report) {
	id, rerr := c.reg.Resolve(pkg, nameNode.Name())
	if rerr != nil {
		return vtypes.Struct{}, rerr
	}
	kind, _ := c.reg.ItemKind(id)
	if kind != ids.KindStructDef {
		return vtypes.Struct{}, errors.KindError(nameNode.Name() + " is not a struct")
	}
	sid, _ := ids.Coerce[ids.StructTag](id, kind, ids.KindStructDef)
	return vtypes.Struct{ID: sid}, nil
}

func (c *Checker) inferOrCheckStruct(s scope, node *ast.Node, expected vtypes.Type, diags *errors.Diagnostics) *TypedExpr {
	declared, rerr := c.resolveStructRef(s.pkg, node.Of())
	if rerr != nil {
		diags.Add(rerr.WithSpan(node.Span()))
		return nil
	}
	if expected != nil && !vtypes.Equal(declared, expected) {
		diags.Add(mismatch(expected, declared).WithSpan(node.Span()))
		return nil
	}

	info, innerDiags := c.defs.Struct(declared.ID)
	diags.Merge(innerDiags)
	if info == nil {
		return nil
	}

	inits := node.Args()
	typed := make([]FieldInit, 0, len(inits))
	seen := make(map[string]bool)
	ok := true
	for _, fi := range inits {
		field, fok := info.FieldByName(fi.Name())
		if !fok {
			diags.Add(errors.TypeMismatch(declared.String() + " has no field " + fi.Name()).WithSpan(fi.Span()))
			ok = false
			continue
		}
		if seen[fi.Name()] {
			diags.Add(errors.TypeMismatch("duplicate field init " + fi.Name()).WithSpan(fi.Span()))
			ok = false
			continue
		}
		seen[fi.Name()] = true
		val := c.Check(s, fi.Expr(), field.Type, diags)
		if val == nil {
			ok = false
			continue
		}
		typed = append(typed, FieldInit{Name: fi.Name(), Value: val})
	}
	if ok && len(typed) != len(info.Fields) {
		diags.Add(errors.TypeMismatch("struct literal is missing field(s) of " + declared.String()).WithSpan(node.Span()))
		ok = false
	}
	if !ok {
		return nil
	}
	return &TypedExpr{Kind: EStruct, Type: declared, StructID: declared.ID, FieldInits: typed}
}

func (c *Checker) checkPattern(s scope, node *ast.Node, ty vtypes.Type, diags *errors.Diagnostics) (Pattern, scope, bool) {
	switch node.Kind() {
	case ast.KPatternWild:
		return Pattern{Kind: PWild}, s, true

	case ast.KPatternBind:
		return Pattern{Kind: PBind, BindName: node.Name()}, s.withLet(node.Name(), ty), true

	case ast.KPatternCtor:
		u, isUnion := ty.(vtypes.Union)
		if !isUnion {
			diags.Add(errors.KindError("constructor pattern requires a union subject, found " + ty.String()).WithSpan(node.Span()))
			return Pattern{}, s, false
		}
		info, innerDiags := c.defs.Union(u.ID)
		diags.Merge(innerDiags)
		if info == nil {
			return Pattern{}, s, false
		}
		ctor, ok := info.CtorByName(node.Name())
		if !ok {
			diags.Add(errors.KindError(node.Name() + " is not a constructor of " + u.String()).WithSpan(node.Span()))
			return Pattern{}, s, false
		}
		subs := node.Args()
		if len(subs) != len(ctor.Params) {
			diags.Add(errors.TypeMismatch("pattern " + node.Name() + " expects a different number of subpatterns").WithSpan(node.Span()))
			return Pattern{}, s, false
		}
		pat := Pattern{Kind: PCtor, CtorName: node.Name(), CtorID: ctor.ID}
		curScope := s
		allOK := true
		for i, subNode := range subs {
			subPat, newScope, sok := c.checkPattern(curScope, subNode, ctor.Params[i].Type, diags)
			if !sok {
				allOK = false
				continue
			}
			pat.Sub = append(pat.Sub, subPat)
			curScope = newScope
		}
		if !allOK {
			return Pattern{}, s, false
		}
		return pat, curScope, true

	default:
		diags.Add(errors.Other("not a pattern: " + node.Kind().String()).WithSpan(node.Span()))
		return Pattern{}, s, false
	}
}

func (c *Checker) checkMatch(s scope, node *ast.Node, expected vtypes.Type, diags *errors.Diagnostics) *TypedExpr {
	subject := c.Infer(s, node.Of(), diags)
	if subject == nil {
		return nil
	}

	armNodes := node.Args()
	patterns := make([]Pattern, len(armNodes))
	guarded := make([]bool, len(armNodes))
	typedArms := make([]MatchArm, 0, len(armNodes))
	ok := true
	for i, armNode := range armNodes {
		patNode := armNode.Args()[0]
		pat, armScope, sok := c.checkPattern(s, patNode, subject.Type, diags)
		if !sok {
			ok = false
			continue
		}
		patterns[i] = pat

		var guard *TypedExpr
		if g := armNode.Guard(); g != nil {
			guarded[i] = true
			guard = c.Check(armScope, g, vtypes.Word{Width: 1}, diags)
			if guard == nil {
				ok = false
				continue
			}
		}

		body := c.Check(armScope, armNode.Expr(), expected, diags)
		if body == nil {
			ok = false
			continue
		}
		typedArms = append(typedArms, MatchArm{Pattern: pat, Guard: guard, Body: body})
	}
	if !ok {
		return nil
	}

	var ctorNames []string
	if u, isUnion := subject.Type.(vtypes.Union); isUnion {
		info, innerDiags := c.defs.Union(u.ID)
		diags.Merge(innerDiags)
		if info != nil {
			for _, ctor := range info.Ctors {
				ctorNames = append(ctorNames, ctor.Name)
			}
		}
	}

	var covering []Pattern
	for i, p := range patterns {
		if !guarded[i] {
			covering = append(covering, p)
		}
	}
	if complete, missing := exhaustive(ctorNames, covering); !complete {
		diags.Add(errors.TypeMismatch("match is not exhaustive, missing: " + strings.Join(missing, ", ")).WithSpan(node.Span()))
		return nil
	}

	return &TypedExpr{Kind: EMatch, Type: expected, Subject: subject, Arms: typedArms}
}
