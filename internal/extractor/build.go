package extractor

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"codemodel/internal/metadata"
	"codemodel/internal/symbols"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"
)

// PackageTypeName is the type that holds the functions and constants of a
// package that belong to no type.
const PackageTypeName = "<package>"

// firstMethodToken is the token of the first method of a unit. Tokens
// follow declaration order.
const firstMethodToken = 0x06000001

const (
	objectType   = "System.Object"
	delegateType = "System.Delegate"
	attrSuffix   = "Attribute"
)

var basicTypes = map[string]string{
	"bool":       "System.Boolean",
	"string":     "System.String",
	"int":        "System.Int64",
	"int8":       "System.SByte",
	"int16":      "System.Int16",
	"int32":      "System.Int32",
	"rune":       "System.Int32",
	"int64":      "System.Int64",
	"uint":       "System.UInt64",
	"uint8":      "System.Byte",
	"byte":       "System.Byte",
	"uint16":     "System.UInt16",
	"uint32":     "System.UInt32",
	"uint64":     "System.UInt64",
	"uintptr":    "System.UIntPtr",
	"float32":    "System.Single",
	"float64":    "System.Double",
	"complex64":  objectType,
	"complex128": objectType,
}

var integerKinds = map[string]bool{
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"byte": true, "rune": true, "uintptr": true,
}

// emitter turns the collected declarations of a package into a manifest.
type emitter struct {
	s       *packageState
	token   int
	methods []symbols.Method

	attrTypes map[string]*attrType
	attrOrder []*attrType
}

// attrType is an attribute type implied by directives that name no declared type.
type attrType struct {
	name  string
	ctors [][]string
	props map[string]string
	order []string
}

func (s *packageState) build(unit, dir string) *Package {
	e := &emitter{s: s, token: firstMethodToken, attrTypes: make(map[string]*attrType)}
	free, packageConsts := s.attach()

	asm := metadata.AssemblyDecl{
		Name: unit,
		Path: filepath.Join(dir, unit+".a"),
	}
	for _, doc := range s.docs {
		asm.Attributes = append(asm.Attributes, e.attributes(doc, "package "+s.name)...)
	}
	for _, t := range s.order {
		asm.Types = append(asm.Types, e.typeDecl(t))
	}
	if len(free) > 0 || len(packageConsts) > 0 {
		asm.Types = append(asm.Types, e.packageType(free, packageConsts))
	}
	for _, at := range e.attrOrder {
		asm.Types = append(asm.Types, at.decl(s.name))
	}

	return &Package{
		Name:     s.name,
		Dir:      dir,
		Manifest: &metadata.Manifest{Assemblies: []metadata.AssemblyDecl{asm}},
		Methods:  e.methods,
	}
}

// attach moves methods onto their receiver types, functions returning a
// type onto it as constructors, and typed integer constants onto their
// enum type. It returns the functions and constants left over.
func (s *packageState) attach() ([]*goFunc, []*goConst) {
	for _, m := range s.methods {
		t, ok := s.types[m.receiver]
		if !ok {
			s.logger.Debug("method of unknown receiver", zap.String("receiver", m.receiver), zap.String("method", m.fn.name))
			continue
		}
		if len(m.args) > 0 {
			if len(m.args) != len(t.params) {
				s.logger.Debug("receiver arity mismatch", zap.String("receiver", m.receiver), zap.String("method", m.fn.name))
				continue
			}
			m.fn.scope = make(map[string]string, len(m.args))
			for i, a := range m.args {
				m.fn.scope[a] = t.params[i].name
			}
		}
		t.methods = append(t.methods, m.fn)
	}

	var free []*goFunc
	for _, fn := range s.funcs {
		if t, scope, ok := s.constructorTarget(fn); ok {
			fn.scope = scope
			t.ctors = append(t.ctors, fn)
			continue
		}
		free = append(free, fn)
	}

	var rest []*goConst
	for _, c := range s.consts {
		t, ok := s.types[c.typ]
		if _, isInt := c.value.(int64); ok && isInt && t.isIntegerKind() && fitsInt32(c.value.(int64)) {
			t.consts = append(t.consts, c)
			continue
		}
		rest = append(rest, c)
	}
	return free, rest
}

// constructorTarget reports whether fn is a constructor: a New function
// whose first result is a struct type of the package, or a pointer to one.
// A generic constructor must pass its own type parameters, in order.
func (s *packageState) constructorTarget(fn *goFunc) (*goType, map[string]string, bool) {
	if !strings.HasPrefix(fn.name, "New") || fn.result == nil {
		return nil, nil, false
	}
	res := fn.result
	if res.Type() == "pointer_type" {
		res = res.NamedChild(0)
	}
	src := fn.file.src
	switch res.Type() {
	case "type_identifier":
		t, ok := s.types[res.Content(src)]
		if !ok || t.kind != kindStruct || len(t.params) > 0 || len(fn.typeParams) > 0 {
			return nil, nil, false
		}
		return t, nil, true
	case "generic_type":
		t, ok := s.types[res.ChildByFieldName("type").Content(src)]
		if !ok || t.kind != kindStruct || len(fn.typeParams) != len(t.params) {
			return nil, nil, false
		}
		args := typeArguments(res.ChildByFieldName("type_arguments"))
		if len(args) != len(t.params) {
			return nil, nil, false
		}
		scope := make(map[string]string, len(args))
		for i, a := range args {
			if a.Content(src) != fn.typeParams[i].name {
				return nil, nil, false
			}
			scope[fn.typeParams[i].name] = t.params[i].name
		}
		fn.typeParams = nil
		return t, scope, true
	}
	return nil, nil, false
}

func (t *goType) isIntegerKind() bool {
	return t.kind == kindOther && len(t.params) == 0 && t.underlying != nil &&
		t.underlying.Type() == "type_identifier" && integerKinds[t.underlying.Content(t.file.src)]
}

func (t *goType) isEnum() bool {
	return len(t.consts) > 0
}

func fitsInt32(n int64) bool {
	return n >= -1<<31 && n < 1<<31
}

func exported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

func visibility(name string) string {
	if exported(name) {
		return "public"
	}
	return "internal"
}

func location(f *goFile, n *sitter.Node) *metadata.LocationDecl {
	p := n.StartPoint()
	return &metadata.LocationDecl{Path: f.path, Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func (e *emitter) typeDecl(t *goType) metadata.TypeDecl {
	src := t.file.src
	scope := make(map[string]string, len(t.params))
	for _, p := range t.params {
		scope[p.name] = p.name
	}
	d := metadata.TypeDecl{
		Name:       t.name,
		Namespace:  e.s.name,
		Visibility: visibility(t.name),
		Location:   location(t.file, t.node),
		Attributes: e.attributes(t.doc, "type "+t.name),
	}
	d.GenericParameters = e.genericParams(t.params, src, scope)

	switch {
	case t.kind == kindInterface:
		d.Kind = "interface"
		for _, embed := range t.ifaceEmbeds {
			if ref := e.typeRef(embed, src, scope); e.isInterfaceRef(embed, src) {
				d.Interfaces = append(d.Interfaces, ref)
			}
		}
	case t.isEnum():
		d.Kind = "enum"
	case t.kind == kindStruct:
		base := e.baseField(t)
		for _, f := range t.fields {
			if f == base {
				d.Base = e.typeRef(f.typ, src, scope)
				continue
			}
			d.Fields = append(d.Fields, metadata.FieldDecl{
				Name:       f.name,
				Type:       e.typeRef(f.typ, src, scope),
				Visibility: visibility(f.name),
				Attributes: e.attributes(f.doc, "field "+t.name+"."+f.name),
				Location:   location(t.file, f.node),
			})
		}
		d.Interfaces = e.implemented(t)
	case t.underlying != nil && t.underlying.Type() == "function_type":
		d.Sealed = true
		d.Base = delegateType
	case t.underlying != nil && t.underlying.Type() == "type_identifier" && basicTypes[t.underlying.Content(src)] != "":
		d.Kind = "struct"
	}

	for _, c := range t.consts {
		d.Fields = append(d.Fields, e.constField(c, t.name))
	}
	for _, fn := range t.ctors {
		d.Constructors = append(d.Constructors, e.constructorDecl(fn, t.name))
	}
	for _, fn := range t.methods {
		d.Methods = append(d.Methods, e.methodDecl(fn, t.name, false, scope))
	}
	for _, fn := range t.ifaceFuncs {
		m := e.methodDecl(fn, t.name, false, scope)
		m.Visibility = "public"
		d.Methods = append(d.Methods, m)
	}
	return d
}

// baseField returns the first field embedding a struct of the package,
// unless that would make the type its own ancestor.
func (e *emitter) baseField(t *goType) *goField {
	for _, f := range t.fields {
		if !f.embedded {
			continue
		}
		bt := e.localType(f.typ, t.file.src)
		if bt == nil || bt.kind != kindStruct {
			continue
		}
		if e.inheritsFrom(bt, t) {
			e.s.logger.Debug("embedding cycle", zap.String("type", t.name), zap.String("embedded", bt.name))
			return nil
		}
		return f
	}
	return nil
}

func (e *emitter) inheritsFrom(t, ancestor *goType) bool {
	seen := make(map[*goType]bool)
	for t != nil && !seen[t] {
		if t == ancestor {
			return true
		}
		seen[t] = true
		var next *goType
		for _, f := range t.fields {
			if !f.embedded {
				continue
			}
			if bt := e.localType(f.typ, t.file.src); bt != nil && bt.kind == kindStruct {
				next = bt
				break
			}
		}
		t = next
	}
	return false
}

func (e *emitter) localType(n *sitter.Node, src []byte) *goType {
	name := baseTypeNode(n, src)
	if name == nil || name.Type() != "type_identifier" {
		return nil
	}
	return e.s.types[name.Content(src)]
}

func (e *emitter) isInterfaceRef(n *sitter.Node, src []byte) bool {
	t := e.localType(n, src)
	return t != nil && t.kind == kindInterface
}

// implemented lists the non-generic interfaces of the package whose methods
// t declares, matched by name and parameter count.
func (e *emitter) implemented(t *goType) []string {
	have := make(map[string]int, len(t.methods))
	for _, m := range t.methods {
		have[m.name] = len(m.params)
	}
	var out []string
	for _, iface := range e.s.order {
		if iface.kind != kindInterface || len(iface.params) > 0 {
			continue
		}
		funcs := e.interfaceFuncs(iface, make(map[*goType]bool))
		if len(funcs) == 0 {
			continue
		}
		ok := true
		for _, fn := range funcs {
			if n, found := have[fn.name]; !found || n != len(fn.params) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, iface.name)
		}
	}
	return out
}

func (e *emitter) interfaceFuncs(t *goType, seen map[*goType]bool) []*goFunc {
	if seen[t] {
		return nil
	}
	seen[t] = true
	funcs := append([]*goFunc(nil), t.ifaceFuncs...)
	for _, embed := range t.ifaceEmbeds {
		if et := e.localType(embed, t.file.src); et != nil && et.kind == kindInterface {
			funcs = append(funcs, e.interfaceFuncs(et, seen)...)
		}
	}
	return funcs
}

func (e *emitter) genericParams(params []typeParam, src []byte, scope map[string]string) []metadata.GenericParamDecl {
	var out []metadata.GenericParamDecl
	for _, p := range params {
		d := metadata.GenericParamDecl{Name: p.name}
		if p.constraint != nil && e.isInterfaceRef(p.constraint, src) {
			d.Constraints = []string{e.typeRef(p.constraint, src, scope)}
		}
		out = append(out, d)
	}
	return out
}

// typeRef renders a Go type as a manifest type reference. Pointers are
// transparent, slices and arrays become vectors, and types from other
// packages become System.Object.
func (e *emitter) typeRef(n *sitter.Node, src []byte, scope map[string]string) string {
	if n == nil {
		return objectType
	}
	switch n.Type() {
	case "type_identifier":
		name := n.Content(src)
		if p, ok := scope[name]; ok {
			return p
		}
		if t, ok := e.s.types[name]; ok && len(t.params) == 0 {
			return name
		}
		if b, ok := basicTypes[name]; ok {
			return b
		}
	case "generic_type":
		t, ok := e.s.types[n.ChildByFieldName("type").Content(src)]
		args := typeArguments(n.ChildByFieldName("type_arguments"))
		if !ok || len(args) != len(t.params) {
			return objectType
		}
		refs := make([]string, len(args))
		for i, a := range args {
			refs[i] = e.typeRef(a, src, scope)
		}
		return t.name + "<" + strings.Join(refs, ", ") + ">"
	case "pointer_type", "parenthesized_type":
		return e.typeRef(n.NamedChild(0), src, scope)
	case "slice_type", "array_type":
		return e.typeRef(n.ChildByFieldName("element"), src, scope) + "[]"
	case "function_type":
		return delegateType
	}
	return objectType
}

func (e *emitter) parameters(fn *goFunc, scope map[string]string) []metadata.ParamDecl {
	src := fn.file.src
	var out []metadata.ParamDecl
	for i, p := range fn.params {
		name := p.name
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", i)
		}
		typ := e.typeRef(p.typ, src, scope)
		if p.variadic {
			typ += "[]"
		}
		out = append(out, metadata.ParamDecl{Name: name, Type: typ})
	}
	return out
}

// nextToken assigns a token to a function with a body and records its
// sequence point.
func (e *emitter) nextToken(fn *goFunc) int {
	if fn.node.ChildByFieldName("body") == nil {
		return 0
	}
	token := e.token
	e.token++
	start, end := fn.node.StartPoint(), fn.node.EndPoint()
	e.methods = append(e.methods, symbols.Method{
		Token: token,
		Points: []symbols.SequencePoint{{
			Document:  fn.file.path,
			Line:      int(start.Row) + 1,
			Column:    int(start.Column) + 1,
			EndLine:   int(end.Row) + 1,
			EndColumn: int(end.Column) + 1,
		}},
	})
	return token
}

func mergeScope(base map[string]string, fn *goFunc) map[string]string {
	scope := make(map[string]string, len(base)+len(fn.scope)+len(fn.typeParams))
	for k, v := range base {
		scope[k] = v
	}
	for k, v := range fn.scope {
		scope[k] = v
	}
	for _, p := range fn.typeParams {
		scope[p.name] = p.name
	}
	return scope
}

func (e *emitter) constructorDecl(fn *goFunc, owner string) metadata.ConstructorDecl {
	scope := mergeScope(nil, fn)
	return metadata.ConstructorDecl{
		Visibility: visibility(fn.name),
		Token:      e.nextToken(fn),
		Parameters: e.parameters(fn, scope),
		Attributes: e.attributes(fn.doc, owner+"."+fn.name),
	}
}

// methodDecl declares fn. Methods without a body (interface methods) get no
// token and no sequence point.
func (e *emitter) methodDecl(fn *goFunc, owner string, static bool, typeScope map[string]string) metadata.MethodDecl {
	scope := mergeScope(typeScope, fn)
	d := metadata.MethodDecl{
		Name:              fn.name,
		Token:             e.nextToken(fn),
		Visibility:        visibility(fn.name),
		Static:            static,
		GenericParameters: e.genericParams(fn.typeParams, fn.file.src, scope),
		Parameters:        e.parameters(fn, scope),
		Attributes:        e.attributes(fn.doc, owner+"."+fn.name),
	}
	if fn.result != nil {
		d.Returns = e.typeRef(fn.result, fn.file.src, scope)
	}
	return d
}

func (e *emitter) constField(c *goConst, owner string) metadata.FieldDecl {
	typ := owner
	if t, ok := e.s.types[owner]; !ok || !t.isEnum() {
		typ = constType(c)
	}
	value := metadata.Scalar(c.value)
	value.Type = typ
	return metadata.FieldDecl{
		Name:       c.name,
		Type:       typ,
		Visibility: visibility(c.name),
		Static:     true,
		Literal:    true,
		Value:      &value,
		Attributes: e.attributes(c.doc, "const "+c.name),
		Location:   location(c.file, c.node),
	}
}

// constType is the declared type of a constant, or the default type of its
// value when it is untyped or of a type without constants of its own.
func constType(c *goConst) string {
	if b, ok := basicTypes[c.typ]; ok && b != objectType {
		return b
	}
	switch c.value.(type) {
	case bool:
		return "System.Boolean"
	case int64:
		return "System.Int64"
	case float64:
		return "System.Double"
	}
	return "System.String"
}

func (e *emitter) packageType(funcs []*goFunc, consts []*goConst) metadata.TypeDecl {
	d := metadata.TypeDecl{
		Name:       PackageTypeName,
		Namespace:  e.s.name,
		Visibility: "public",
		Abstract:   true,
		Sealed:     true,
	}
	for _, c := range consts {
		d.Fields = append(d.Fields, e.constField(c, PackageTypeName))
	}
	for _, fn := range funcs {
		d.Methods = append(d.Methods, e.methodDecl(fn, e.s.name, true, nil))
	}
	return d
}

// attributes converts the directives of a doc comment. Directives naming no
// type of the package imply an attribute type.
func (e *emitter) attributes(doc, where string) []metadata.AttributeDecl {
	if doc == "" {
		return nil
	}
	directives, errs := parseDirectives(doc)
	for _, err := range errs {
		e.s.logger.Warn("skipping directive", zap.String("declaration", where), zap.Error(err))
	}
	var out []metadata.AttributeDecl
	for _, d := range directives {
		name := d.name
		if !strings.HasSuffix(name, attrSuffix) {
			name += attrSuffix
		}
		if _, declared := e.s.types[name]; !declared && !strings.Contains(name, ".") {
			e.implyAttribute(name, d)
		}
		decl := metadata.AttributeDecl{Type: name}
		for _, a := range d.args {
			decl.Args = append(decl.Args, metadata.Scalar(a))
		}
		for _, k := range d.keys {
			if decl.Properties == nil {
				decl.Properties = make(map[string]metadata.ArgDecl)
			}
			decl.Properties[k] = metadata.Scalar(d.named[k])
		}
		out = append(out, decl)
	}
	return out
}

func (e *emitter) implyAttribute(name string, d directive) {
	at, ok := e.attrTypes[name]
	if !ok {
		at = &attrType{name: name, props: make(map[string]string)}
		e.attrTypes[name] = at
		e.attrOrder = append(e.attrOrder, at)
	}

	sig := make([]string, len(d.args))
	for i, a := range d.args {
		sig[i] = metadata.Scalar(a).Type
	}
	if !at.hasConstructor(sig) {
		at.ctors = append(at.ctors, sig)
	}
	for _, k := range d.keys {
		typ := metadata.Scalar(d.named[k]).Type
		prev, seen := at.props[k]
		switch {
		case !seen:
			at.props[k] = typ
			at.order = append(at.order, k)
		case prev != typ:
			at.props[k] = "System.String"
		}
	}
}

func (at *attrType) hasConstructor(sig []string) bool {
	return slices.ContainsFunc(at.ctors, func(c []string) bool {
		return slices.Equal(c, sig)
	})
}

// decl declares an implied attribute type: repeatable, inherited, valid on
// any target, with one constructor per argument signature used.
func (at *attrType) decl(namespace string) metadata.TypeDecl {
	d := metadata.TypeDecl{
		Name:       at.name,
		Namespace:  namespace,
		Visibility: "public",
		Sealed:     true,
		Base:       "System.Attribute",
		Attributes: []metadata.AttributeDecl{{
			Type: "System.AttributeUsageAttribute",
			Args: []metadata.ArgDecl{{Type: "System.AttributeTargets", Value: "All"}},
			Properties: map[string]metadata.ArgDecl{
				"AllowMultiple": metadata.Scalar(true),
				"Inherited":     metadata.Scalar(true),
			},
		}},
	}
	for _, sig := range at.ctors {
		c := metadata.ConstructorDecl{Visibility: "public"}
		for i, typ := range sig {
			c.Parameters = append(c.Parameters, metadata.ParamDecl{Name: fmt.Sprintf("arg%d", i), Type: typ})
		}
		d.Constructors = append(d.Constructors, c)
	}
	for _, k := range at.order {
		d.Properties = append(d.Properties, metadata.PropertyDecl{
			Name:       k,
			Type:       at.props[k],
			Set:        true,
			Visibility: "public",
		})
	}
	return d
}
