package metadata

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"codemodel/internal/reflection"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// CoreLibraryName is the name of the built-in unit that declares the core types.
const CoreLibraryName = "corelib"

//go:embed corelib.yaml
var corelibYAML []byte

// CoreLibrary returns the manifest of the built-in core unit.
func CoreLibrary() *Manifest {
	m, err := ParseManifest("corelib.yaml", corelibYAML)
	if err != nil {
		panic(fmt.Sprintf("metadata: embedded core library is invalid: %v", err))
	}
	m.Source = ""
	return m
}

// Model is a linked set of units built from manifests.
type Model struct {
	assemblies []*Node
	byName     map[string][]*Node
	corelib    *Node
}

// Assemblies returns every unit of the model in build order, the core library first.
func (m *Model) Assemblies() []*Node {
	return m.assemblies
}

// Assembly returns the highest version of the unit with the given name.
func (m *Model) Assembly(name string) (*Node, bool) {
	var best *Node
	for _, a := range m.byName[name] {
		if best == nil || newer(a.assembly.name.Version, best.assembly.name.Version) {
			best = a
		}
	}
	return best, best != nil
}

// CoreLibrary returns the built-in core unit.
func (m *Model) CoreLibrary() *Node {
	return m.corelib
}

// Type finds a type by full name, searching units in build order.
func (m *Model) Type(fullName string) (*Node, bool) {
	for _, a := range m.assemblies {
		if t, ok := a.assembly.byName[fullName]; ok {
			return t, true
		}
	}
	return nil, false
}

func newer(a, b *semver.Version) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.GreaterThan(b)
	}
}

// Builder links manifests into a Model. The core library is always included.
type Builder struct {
	logger    *zap.Logger
	manifests []*Manifest
}

func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// Add queues a parsed manifest.
func (b *Builder) Add(m *Manifest) *Builder {
	b.manifests = append(b.manifests, m)
	return b
}

// AddFile loads and queues a manifest file.
func (b *Builder) AddFile(path string) error {
	m, err := LoadManifest(path)
	if err != nil {
		return err
	}
	b.Add(m)
	return nil
}

// Build links every queued manifest. All declaration errors are reported
// together.
func (b *Builder) Build() (*Model, error) {
	l := &linker{
		logger: b.logger,
		model:  &Model{byName: make(map[string][]*Node)},
	}
	manifests := append([]*Manifest{CoreLibrary()}, b.manifests...)
	for _, m := range manifests {
		for _, d := range m.Assemblies {
			l.errs = multierr.Append(l.errs, l.declareAssembly(m, d))
		}
	}
	if l.errs != nil {
		return nil, l.errs
	}
	l.model.corelib = l.model.byName[CoreLibraryName][0]

	for _, a := range l.model.assemblies {
		l.link(a)
	}
	for _, t := range l.types {
		l.errs = multierr.Append(l.errs, l.resolveHeader(t))
	}
	if l.errs != nil {
		return nil, l.errs
	}
	for _, t := range l.types {
		l.errs = multierr.Append(l.errs, checkBaseChain(t.node))
	}
	if l.errs != nil {
		return nil, l.errs
	}
	for _, t := range l.types {
		l.errs = multierr.Append(l.errs, l.resolveMembers(t))
	}
	for _, c := range l.constants {
		l.errs = multierr.Append(l.errs, l.resolveConstant(c))
	}
	for _, p := range l.attributes {
		l.errs = multierr.Append(l.errs, l.resolveAttributes(p))
	}
	if l.errs != nil {
		return nil, l.errs
	}
	b.logger.Debug("built code model",
		zap.Int("assemblies", len(l.model.assemblies)),
		zap.Int("types", len(l.types)))
	return l.model, nil
}

type linker struct {
	logger     *zap.Logger
	model      *Model
	types      []declaredType
	constants  []pendingConstant
	attributes []pendingAttributes
	errs       error
}

type declaredType struct {
	node *Node
	decl TypeDecl
	sc   scope
}

type pendingConstant struct {
	field *Node
	decl  ArgDecl
	sc    scope
}

type pendingAttributes struct {
	target *Node
	decls  []AttributeDecl
	sc     scope
}

// scope is where a type reference is written: the unit, the innermost
// declaring type and the method, when any.
type scope struct {
	asm    *Node
	typ    *Node
	method *Node
}

func (sc scope) genericParameter(name string) *Node {
	if sc.method != nil {
		for _, g := range sc.method.member.genericParams {
			if g.Name == name {
				return g
			}
		}
	}
	for t := sc.typ; t != nil && t.Kind == NodeType; t = t.Parent {
		for _, g := range t.typ.genericParams {
			if g.Name == name {
				return g
			}
		}
	}
	return nil
}

func (sc scope) namespace() string {
	if sc.typ == nil {
		return ""
	}
	return sc.typ.typ.namespace
}

func (l *linker) declareAssembly(m *Manifest, d AssemblyDecl) error {
	version, err := versionOrNil(d.Version)
	if err != nil {
		return fmt.Errorf("assembly %s: version: %w", d.Name, err)
	}
	for _, other := range l.model.byName[d.Name] {
		ov := other.assembly.name.Version
		if (ov == nil && version == nil) || (ov != nil && version != nil && ov.Equal(version)) {
			return fmt.Errorf("assembly %s: declared more than once", d.Name)
		}
	}

	path := d.Path
	if path != "" && !filepath.IsAbs(path) && m.Source != "" {
		path = filepath.Join(filepath.Dir(m.Source), path)
	}
	asm := &Node{
		Kind: NodeAssembly,
		Name: d.Name,
		assembly: &assemblyData{
			name:   reflection.AssemblyName{Name: d.Name, Version: version},
			path:   path,
			byName: make(map[string]*Node),
		},
	}
	asm.Assembly = asm
	if path != "" {
		asm.Location = reflection.CodeLocation{Path: path}
	}

	for _, r := range d.References {
		ref := reflection.AssemblyReference{Name: r.Name}
		if r.Version != "" {
			c, err := semver.NewConstraint(r.Version)
			if err != nil {
				return fmt.Errorf("assembly %s: reference %s: %w", d.Name, r.Name, err)
			}
			ref.Constraint = c
		}
		asm.assembly.references = append(asm.assembly.references, ref)
	}

	sc := scope{asm: asm}
	for _, td := range d.Types {
		if _, err := l.declareType(asm, nil, td); err != nil {
			return fmt.Errorf("assembly %s: %w", d.Name, err)
		}
	}
	l.pendAttributes(asm, d.Attributes, sc)

	l.model.assemblies = append(l.model.assemblies, asm)
	l.model.byName[d.Name] = append(l.model.byName[d.Name], asm)
	return nil
}

func (l *linker) declareType(asm, parent *Node, d TypeDecl) (*Node, error) {
	attrs, err := typeAttributes(d, parent != nil)
	if err != nil {
		return nil, fmt.Errorf("type %s: %w", d.Name, err)
	}
	simple, _, _ := strings.Cut(d.Name, "`")
	name := simple
	if n := len(d.GenericParameters); n > 0 {
		name += "`" + strconv.Itoa(n)
	}

	namespace := d.Namespace
	fullName := name
	switch {
	case parent != nil:
		namespace = parent.typ.namespace
		fullName = parent.typ.fullName + "+" + name
	case namespace != "":
		fullName = namespace + "." + name
	}
	if _, exists := asm.assembly.byName[fullName]; exists {
		return nil, fmt.Errorf("type %s: declared more than once", fullName)
	}
	location, err := locationOf(d.Location)
	if err != nil {
		return nil, fmt.Errorf("type %s: %w", fullName, err)
	}

	t := &Node{
		Kind:     NodeType,
		Name:     simple,
		Parent:   parent,
		Assembly: asm,
		Location: location,
		typ: &typeData{
			namespace: namespace,
			fullName:  fullName,
			attrs:     attrs,
		},
	}
	if parent == nil {
		t.Parent = asm
	}
	asm.assembly.types = append(asm.assembly.types, t)
	asm.assembly.byName[fullName] = t

	sc := scope{asm: asm, typ: t}
	for i, gd := range d.GenericParameters {
		g, err := l.declareGenericParameter(t, i, gd, sc)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", fullName, err)
		}
		t.typ.genericParams = append(t.typ.genericParams, g)
	}
	l.types = append(l.types, declaredType{node: t, decl: d, sc: sc})
	l.pendAttributes(t, d.Attributes, sc)

	for _, nd := range d.Nested {
		n, err := l.declareType(asm, t, nd)
		if err != nil {
			return nil, err
		}
		t.typ.nested = append(t.typ.nested, n)
	}
	return t, nil
}

func (l *linker) declareGenericParameter(owner *Node, position int, d GenericParamDecl, sc scope) (*Node, error) {
	var attrs reflection.GenericParameterAttributes
	switch d.Variance {
	case "", "none":
	case "out":
		attrs |= reflection.GenericParameterCovariant
	case "in":
		attrs |= reflection.GenericParameterContravariant
	default:
		return nil, fmt.Errorf("generic parameter %s: unknown variance %q", d.Name, d.Variance)
	}
	g := &Node{
		Kind:       NodeGenericParameter,
		Name:       d.Name,
		Parent:     owner,
		Assembly:   sc.asm,
		genericArg: &genericParamData{position: position, attrs: attrs},
	}
	l.pendAttributes(g, d.Attributes, sc)
	return g, nil
}

// link computes the units whose types asm may reference: itself, the highest
// loaded version satisfying each reference, and the core library.
func (l *linker) link(asm *Node) {
	visible := []*Node{asm}
	for _, ref := range asm.assembly.references {
		var match *Node
		for _, candidate := range l.model.byName[ref.Name] {
			if candidate.assembly.name.Matches(ref) && (match == nil || newer(candidate.assembly.name.Version, match.assembly.name.Version)) {
				match = candidate
			}
		}
		if match == nil {
			l.logger.Warn("unresolved assembly reference",
				zap.String("assembly", asm.Name),
				zap.String("reference", ref.String()))
			continue
		}
		visible = append(visible, match)
	}
	if asm != l.model.corelib {
		visible = append(visible, l.model.corelib)
	}
	asm.assembly.visible = visible
}

func (l *linker) resolveHeader(dt declaredType) error {
	t, d, sc := dt.node, dt.decl, dt.sc
	if err := l.resolveConstraints(t.typ.genericParams, d.GenericParameters, sc); err != nil {
		return fmt.Errorf("type %s: %w", t.typ.fullName, err)
	}

	base := d.Base
	if base == "" {
		switch d.Kind {
		case "", "class":
			if t.typ.fullName != reflection.WellKnownObject.FullName() {
				base = reflection.WellKnownObject.FullName()
			}
		case "struct":
			base = reflection.WellKnownValueType.FullName()
		case "enum":
			base = reflection.WellKnownEnum.FullName()
		}
	}
	if base != "" {
		sig, err := l.resolveType(base, sc)
		if err != nil {
			return fmt.Errorf("type %s: base: %w", t.typ.fullName, err)
		}
		if sig.kind != sigDeclared {
			return fmt.Errorf("type %s: base %s is not a declared type", t.typ.fullName, base)
		}
		t.typ.base = sig
	}
	for _, iface := range d.Interfaces {
		sig, err := l.resolveType(iface, sc)
		if err != nil {
			return fmt.Errorf("type %s: interface: %w", t.typ.fullName, err)
		}
		t.typ.interfaces = append(t.typ.interfaces, sig)
	}
	return nil
}

func checkBaseChain(t *Node) error {
	seen := map[*Node]bool{t: true}
	for base := t.typ.base; base != nil; base = base.def.typ.base {
		if seen[base.def] {
			return fmt.Errorf("type %s: circular base type chain", t.typ.fullName)
		}
		seen[base.def] = true
	}
	return nil
}

func (l *linker) resolveConstraints(params []*Node, decls []GenericParamDecl, sc scope) error {
	for i, d := range decls {
		g := params[i]
		for _, c := range d.Constraints {
			switch c {
			case "class":
				g.genericArg.attrs |= reflection.GenericParameterReferenceTypeConstraint
			case "struct":
				g.genericArg.attrs |= reflection.GenericParameterValueTypeConstraint
			case "new()":
				g.genericArg.attrs |= reflection.GenericParameterDefaultConstructor
			default:
				sig, err := l.resolveType(c, sc)
				if err != nil {
					return fmt.Errorf("generic parameter %s: %w", d.Name, err)
				}
				g.genericArg.constraints = append(g.genericArg.constraints, sig)
			}
		}
	}
	return nil
}

func (l *linker) resolveMembers(dt declaredType) error {
	t, d, sc := dt.node, dt.decl, dt.sc
	interfaceType := d.Kind == "interface"

	for _, fd := range d.Fields {
		f, err := l.field(t, fd, sc)
		if err != nil {
			return fmt.Errorf("type %s: %w", t.typ.fullName, err)
		}
		t.typ.fields = append(t.typ.fields, f)
	}

	for _, cd := range d.Constructors {
		c, err := l.constructor(t, cd, sc)
		if err != nil {
			return fmt.Errorf("type %s: %w", t.typ.fullName, err)
		}
		t.typ.constructors = append(t.typ.constructors, c)
	}
	if len(d.Constructors) == 0 && (d.Kind == "" || d.Kind == "class") && !(d.Abstract && d.Sealed) {
		visibility := "public"
		if d.Abstract {
			visibility = "protected"
		}
		c, err := l.constructor(t, ConstructorDecl{Visibility: visibility}, sc)
		if err != nil {
			return fmt.Errorf("type %s: %w", t.typ.fullName, err)
		}
		t.typ.constructors = append(t.typ.constructors, c)
	}

	for _, md := range d.Methods {
		m, err := l.method(t, md, interfaceType, sc)
		if err != nil {
			return fmt.Errorf("type %s: %w", t.typ.fullName, err)
		}
		t.typ.methods = append(t.typ.methods, m)
	}
	for _, pd := range d.Properties {
		if err := l.property(t, pd, interfaceType, sc); err != nil {
			return fmt.Errorf("type %s: %w", t.typ.fullName, err)
		}
	}
	for _, ed := range d.Events {
		if err := l.event(t, ed, interfaceType, sc); err != nil {
			return fmt.Errorf("type %s: %w", t.typ.fullName, err)
		}
	}
	return nil
}

func (l *linker) field(t *Node, d FieldDecl, sc scope) (*Node, error) {
	access, err := fieldAccess(d.Visibility)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", d.Name, err)
	}
	attrs := access
	if d.Static {
		attrs |= reflection.FieldStatic
	}
	if d.ReadOnly {
		attrs |= reflection.FieldInitOnly
	}
	if d.Literal {
		attrs |= reflection.FieldLiteral | reflection.FieldStatic
	}
	sig, err := l.resolveType(d.Type, sc)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", d.Name, err)
	}
	location, err := locationOf(d.Location)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", d.Name, err)
	}
	f := &Node{
		Kind:     NodeField,
		Name:     d.Name,
		Parent:   t,
		Assembly: sc.asm,
		Location: location,
		member:   &memberData{fieldAttrs: attrs, valueType: sig},
	}
	if d.Value != nil {
		f.member.fieldAttrs |= reflection.FieldHasDefault
		l.constants = append(l.constants, pendingConstant{field: f, decl: *d.Value, sc: sc})
	}
	l.pendAttributes(f, d.Attributes, sc)
	return f, nil
}

func (l *linker) constructor(t *Node, d ConstructorDecl, sc scope) (*Node, error) {
	access, err := methodAccess(d.Visibility)
	if err != nil {
		return nil, fmt.Errorf("constructor: %w", err)
	}
	name := ".ctor"
	attrs := access | reflection.MethodHideBySig | reflection.MethodSpecialName | reflection.MethodRTSpecialName
	conv := reflection.CallingStandard | reflection.CallingHasThis
	if d.Static {
		name = ".cctor"
		attrs |= reflection.MethodStatic
		conv = reflection.CallingStandard
	}
	location, err := locationOf(d.Location)
	if err != nil {
		return nil, fmt.Errorf("constructor: %w", err)
	}
	c := &Node{
		Kind:     NodeConstructor,
		Name:     name,
		Parent:   t,
		Assembly: sc.asm,
		Location: location,
		member:   &memberData{methodAttrs: attrs, callingConv: conv, token: d.Token},
	}
	if c.member.params, err = l.parameters(c, d.Parameters, sc); err != nil {
		return nil, fmt.Errorf("constructor: %w", err)
	}
	l.pendAttributes(c, d.Attributes, sc)
	return c, nil
}

func (l *linker) method(t *Node, d MethodDecl, interfaceType bool, sc scope) (*Node, error) {
	visibility := d.Visibility
	if interfaceType && visibility == "" {
		visibility = "public"
	}
	access, err := methodAccess(visibility)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", d.Name, err)
	}
	attrs := access
	if d.HideBySig == nil || *d.HideBySig {
		attrs |= reflection.MethodHideBySig
	}
	attrs |= slotAttributes(d.Static, d.Virtual, d.Abstract, d.NewSlot, interfaceType)
	if d.Final {
		attrs |= reflection.MethodFinal
	}
	conv := reflection.CallingStandard
	if d.VarArgs {
		conv = reflection.CallingVarArgs
	}
	if !d.Static {
		conv |= reflection.CallingHasThis
	}
	location, err := locationOf(d.Location)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", d.Name, err)
	}

	m := &Node{
		Kind:     NodeMethod,
		Name:     d.Name,
		Parent:   t,
		Assembly: sc.asm,
		Location: location,
		member:   &memberData{methodAttrs: attrs, callingConv: conv, token: d.Token},
	}
	msc := sc
	msc.method = m
	for i, gd := range d.GenericParameters {
		g, err := l.declareGenericParameter(m, i, gd, msc)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", d.Name, err)
		}
		m.member.genericParams = append(m.member.genericParams, g)
	}
	if err := l.resolveConstraints(m.member.genericParams, d.GenericParameters, msc); err != nil {
		return nil, fmt.Errorf("method %s: %w", d.Name, err)
	}
	if m.member.params, err = l.parameters(m, d.Parameters, msc); err != nil {
		return nil, fmt.Errorf("method %s: %w", d.Name, err)
	}

	returns := d.Returns
	if returns == "" {
		returns = reflection.WellKnownVoid.FullName()
	}
	ret, err := l.resolveType(returns, msc)
	if err != nil {
		return nil, fmt.Errorf("method %s: return type: %w", d.Name, err)
	}
	m.member.returnParam = l.returnParameter(m, ret)
	l.pendAttributes(m.member.returnParam, d.ReturnAttributes, msc)
	l.pendAttributes(m, d.Attributes, msc)
	return m, nil
}

func (l *linker) returnParameter(m *Node, sig *typeSig) *Node {
	return &Node{
		Kind:     NodeParameter,
		Parent:   m,
		Assembly: m.Assembly,
		param:    &paramData{position: -1, attrs: reflection.ParameterRetval, typ: sig},
	}
}

func (l *linker) parameters(owner *Node, decls []ParamDecl, sc scope) ([]*Node, error) {
	params := make([]*Node, 0, len(decls))
	for i, d := range decls {
		sig, err := l.resolveType(d.Type, sc)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", d.Name, err)
		}
		var attrs reflection.ParameterAttributes
		if d.In {
			attrs |= reflection.ParameterIn
		}
		if d.Out {
			attrs |= reflection.ParameterOut
			if sig.kind != sigByRef {
				sig = &typeSig{kind: sigByRef, elem: sig}
			}
		}
		if d.Optional {
			attrs |= reflection.ParameterOptional
		}
		p := &Node{
			Kind:     NodeParameter,
			Name:     d.Name,
			Parent:   owner,
			Assembly: sc.asm,
			param:    &paramData{position: i, attrs: attrs, typ: sig},
		}
		l.pendAttributes(p, d.Attributes, sc)
		params = append(params, p)
	}
	return params, nil
}

func (l *linker) property(t *Node, d PropertyDecl, interfaceType bool, sc scope) error {
	sig, err := l.resolveType(d.Type, sc)
	if err != nil {
		return fmt.Errorf("property %s: %w", d.Name, err)
	}
	location, err := locationOf(d.Location)
	if err != nil {
		return fmt.Errorf("property %s: %w", d.Name, err)
	}
	access, err := accessorAccess(d.Visibility, interfaceType)
	if err != nil {
		return fmt.Errorf("property %s: %w", d.Name, err)
	}
	attrs := access | reflection.MethodHideBySig | reflection.MethodSpecialName |
		slotAttributes(d.Static, d.Virtual, d.Abstract, d.NewSlot, interfaceType)

	p := &Node{
		Kind:     NodeProperty,
		Name:     d.Name,
		Parent:   t,
		Assembly: sc.asm,
		Location: location,
		member:   &memberData{propertyAttrs: reflection.PropertyNone, valueType: sig},
	}
	if d.Get == nil || *d.Get {
		p.member.getter = l.accessor(t, "get_"+d.Name, attrs, d.Static, location, sig, nil)
	}
	if d.Set {
		p.member.setter = l.accessor(t, "set_"+d.Name, attrs, d.Static, location, l.core(reflection.WellKnownVoid), sig)
	}
	t.typ.properties = append(t.typ.properties, p)
	l.pendAttributes(p, d.Attributes, sc)
	return nil
}

func (l *linker) event(t *Node, d EventDecl, interfaceType bool, sc scope) error {
	sig, err := l.resolveType(d.Type, sc)
	if err != nil {
		return fmt.Errorf("event %s: %w", d.Name, err)
	}
	location, err := locationOf(d.Location)
	if err != nil {
		return fmt.Errorf("event %s: %w", d.Name, err)
	}
	access, err := accessorAccess(d.Visibility, interfaceType)
	if err != nil {
		return fmt.Errorf("event %s: %w", d.Name, err)
	}
	attrs := access | reflection.MethodHideBySig | reflection.MethodSpecialName |
		slotAttributes(d.Static, d.Virtual, false, d.NewSlot, interfaceType)

	e := &Node{
		Kind:     NodeEvent,
		Name:     d.Name,
		Parent:   t,
		Assembly: sc.asm,
		Location: location,
		member:   &memberData{eventAttrs: reflection.EventNone, valueType: sig},
	}
	void := l.core(reflection.WellKnownVoid)
	e.member.adder = l.accessor(t, "add_"+d.Name, attrs, d.Static, location, void, sig)
	e.member.remover = l.accessor(t, "remove_"+d.Name, attrs, d.Static, location, void, sig)
	t.typ.events = append(t.typ.events, e)
	l.pendAttributes(e, d.Attributes, sc)
	return nil
}

// accessor synthesizes a property or event accessor method and adds it to t.
// A non-nil value adds the "value" parameter.
func (l *linker) accessor(t *Node, name string, attrs reflection.MethodAttributes, static bool, location reflection.CodeLocation, returns, value *typeSig) *Node {
	conv := reflection.CallingStandard
	if !static {
		conv |= reflection.CallingHasThis
	}
	m := &Node{
		Kind:     NodeMethod,
		Name:     name,
		Parent:   t,
		Assembly: t.Assembly,
		Location: location,
		member:   &memberData{methodAttrs: attrs, callingConv: conv},
	}
	if value != nil {
		m.member.params = []*Node{{
			Kind:     NodeParameter,
			Name:     "value",
			Parent:   m,
			Assembly: t.Assembly,
			param:    &paramData{position: 0, typ: value},
		}}
	}
	m.member.returnParam = l.returnParameter(m, returns)
	t.typ.methods = append(t.typ.methods, m)
	return m
}

func (l *linker) core(w reflection.WellKnownType) *typeSig {
	return &typeSig{kind: sigDeclared, def: l.model.corelib.assembly.byName[w.FullName()]}
}

func (l *linker) pendAttributes(target *Node, decls []AttributeDecl, sc scope) {
	if len(decls) == 0 {
		return
	}
	l.attributes = append(l.attributes, pendingAttributes{target: target, decls: decls, sc: sc})
}

func (l *linker) resolveConstant(p pendingConstant) error {
	c, err := l.constant(p.decl, p.field.member.valueType, p.sc)
	if err != nil {
		return fmt.Errorf("field %s: value: %w", p.field, err)
	}
	p.field.member.constant = c
	return nil
}

func (l *linker) resolveAttributes(p pendingAttributes) error {
	for _, d := range p.decls {
		a, err := l.attribute(d, p.sc)
		if err != nil {
			return fmt.Errorf("%s %s: %w", p.target.Kind, p.target, err)
		}
		a.Parent = p.target
		p.target.Attributes = append(p.target.Attributes, a)
	}
	return nil
}

func (l *linker) attribute(d AttributeDecl, sc scope) (*Node, error) {
	sig, err := l.resolveType(d.Type, sc)
	if err != nil {
		return nil, fmt.Errorf("attribute: %w", err)
	}
	if sig.kind != sigDeclared || len(sig.def.typ.genericParams) > 0 {
		return nil, fmt.Errorf("attribute %s: not a non-generic declared type", d.Type)
	}
	typ := sig.def
	data := &attributeData{typ: typ}
	data.ctor, data.args = l.attributeConstructor(typ, d.Args, sc)
	if data.ctor == nil {
		for _, arg := range d.Args {
			c, err := l.constant(arg, nil, sc)
			if err != nil {
				return nil, fmt.Errorf("attribute %s: %w", d.Type, err)
			}
			data.args = append(data.args, c)
		}
	}
	for _, name := range sortedKeys(d.Fields) {
		c, err := l.constant(d.Fields[name], namedMemberType(typ, name, NodeField), sc)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: field %s: %w", d.Type, name, err)
		}
		data.fields = append(data.fields, namedConst{name: name, value: c})
	}
	for _, name := range sortedKeys(d.Properties) {
		c, err := l.constant(d.Properties[name], namedMemberType(typ, name, NodeProperty), sc)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: property %s: %w", d.Type, name, err)
		}
		data.properties = append(data.properties, namedConst{name: name, value: c})
	}
	return &Node{Kind: NodeAttribute, Name: typ.Name, Assembly: sc.asm, attr: data}, nil
}

// attributeConstructor picks the first instance constructor of typ whose
// parameters accept args.
func (l *linker) attributeConstructor(typ *Node, args []ArgDecl, sc scope) (*Node, []*constSig) {
	for _, ctor := range typ.typ.constructors {
		if ctor.member.methodAttrs&reflection.MethodStatic != 0 || len(ctor.member.params) != len(args) {
			continue
		}
		values := make([]*constSig, len(args))
		ok := true
		for i, arg := range args {
			want := ctor.member.params[i].param.typ
			c, err := l.constant(arg, want, sc)
			if err != nil || !accepts(want, c) {
				ok = false
				break
			}
			values[i] = c
		}
		if ok {
			return ctor, values
		}
	}
	return nil, nil
}

// namedMemberType returns the type of the field or property called name on
// typ or its bases, or nil.
func namedMemberType(typ *Node, name string, kind NodeKind) *typeSig {
	for t := typ; t != nil; {
		members := t.typ.fields
		if kind == NodeProperty {
			members = t.typ.properties
		}
		for _, m := range members {
			if m.Name == name {
				return m.member.valueType
			}
		}
		if t.typ.base == nil {
			break
		}
		t = t.typ.base.def
	}
	return nil
}

// accepts reports whether a parameter of type want can receive c.
func accepts(want *typeSig, c *constSig) bool {
	switch {
	case isObjectSig(want) || want.kind == sigGenericParam:
		return true
	case c.typ == nil:
		return !isValueTypeSig(want)
	case want.kind == sigArray && c.array:
		return isObjectSig(want.elem) || sameSig(want.elem, c.typ.elem)
	}
	return sameSig(want, c.typ)
}

func sameSig(a, b *typeSig) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind || a.def != b.def || a.rank != b.rank || len(a.args) != len(b.args) {
		return false
	}
	for i := range a.args {
		if !sameSig(a.args[i], b.args[i]) {
			return false
		}
	}
	if a.elem != nil || b.elem != nil {
		return sameSig(a.elem, b.elem)
	}
	return true
}

func isObjectSig(s *typeSig) bool {
	return s != nil && s.kind == sigDeclared && s.def.typ.fullName == reflection.WellKnownObject.FullName()
}

func isValueTypeSig(s *typeSig) bool {
	if s.kind != sigDeclared || s.def.typ.base == nil {
		return false
	}
	switch s.def.typ.base.def.typ.fullName {
	case reflection.WellKnownValueType.FullName(), reflection.WellKnownEnum.FullName():
		return true
	}
	return false
}

func isEnumNode(t *Node) bool {
	return t.typ.base != nil && t.typ.base.kind == sigDeclared &&
		t.typ.base.def.typ.fullName == reflection.WellKnownEnum.FullName()
}

// resolveType parses and binds a type reference written in scope sc.
func (l *linker) resolveType(s string, sc scope) (*typeSig, error) {
	ref, err := parseTypeRef(s)
	if err != nil {
		return nil, err
	}
	return l.resolveRef(ref, sc)
}

func (l *linker) resolveRef(r *typeRef, sc scope) (*typeSig, error) {
	switch r.kind {
	case refArray, refPointer, refByRef:
		elem, err := l.resolveRef(r.elem, sc)
		if err != nil {
			return nil, err
		}
		return &typeSig{kind: sigKindOf(r.kind), elem: elem, rank: r.rank}, nil
	}

	if len(r.args) == 0 {
		if g := sc.genericParameter(r.name); g != nil {
			return &typeSig{kind: sigGenericParam, def: g}, nil
		}
	}
	def := l.lookupType(r.name, len(r.args), sc)
	if def == nil {
		return nil, fmt.Errorf("unresolved type %q", r.String())
	}
	sig := &typeSig{kind: sigDeclared, def: def}
	if len(r.args) == 0 {
		return sig, nil
	}
	if len(r.args) != len(def.typ.genericParams) {
		return nil, fmt.Errorf("type %s takes %d generic arguments, got %d", def.typ.fullName, len(def.typ.genericParams), len(r.args))
	}
	for _, a := range r.args {
		arg, err := l.resolveRef(a, sc)
		if err != nil {
			return nil, err
		}
		sig.args = append(sig.args, arg)
	}
	return sig, nil
}

func sigKindOf(k refKind) sigKind {
	switch k {
	case refArray:
		return sigArray
	case refPointer:
		return sigPointer
	case refByRef:
		return sigByRef
	}
	return sigDeclared
}

// lookupType binds a type name: nested types of the enclosing types first,
// then the enclosing namespaces from the innermost, then the name as
// written, then the System namespace.
func (l *linker) lookupType(name string, arity int, sc scope) *Node {
	key := name
	if alias, ok := builtinAliases[name]; ok && arity == 0 {
		key = alias
	}
	if arity > 0 && !strings.Contains(key[strings.LastIndexAny(key, ".+")+1:], "`") {
		key += "`" + strconv.Itoa(arity)
	}

	var candidates []string
	for t := sc.typ; t != nil && t.Kind == NodeType; t = t.Parent {
		candidates = append(candidates, t.typ.fullName+"+"+key)
	}
	for ns := sc.namespace(); ns != ""; ns = parentNamespace(ns) {
		candidates = append(candidates, ns+"."+key)
	}
	candidates = append(candidates, key, "System."+key)

	for _, candidate := range candidates {
		for _, asm := range sc.asm.assembly.visible {
			if t, ok := asm.assembly.byName[candidate]; ok {
				return t
			}
		}
	}
	return nil
}

func parentNamespace(ns string) string {
	i := strings.LastIndexByte(ns, '.')
	if i < 0 {
		return ""
	}
	return ns[:i]
}

func locationOf(d *LocationDecl) (reflection.CodeLocation, error) {
	if d == nil {
		return reflection.UnknownLocation, nil
	}
	return reflection.NewCodeLocation(d.Path, d.Line, d.Column)
}

func typeAttributes(d TypeDecl, nested bool) (reflection.TypeAttributes, error) {
	var attrs reflection.TypeAttributes
	if nested {
		switch d.Visibility {
		case "public":
			attrs = reflection.TypeNestedPublic
		case "", "private":
			attrs = reflection.TypeNestedPrivate
		case "protected":
			attrs = reflection.TypeNestedFamily
		case "internal":
			attrs = reflection.TypeNestedAssembly
		case "protected_internal":
			attrs = reflection.TypeNestedFamORAssem
		case "private_protected":
			attrs = reflection.TypeNestedFamANDAssem
		default:
			return 0, fmt.Errorf("unknown visibility %q", d.Visibility)
		}
	} else {
		switch d.Visibility {
		case "public":
			attrs = reflection.TypePublic
		case "", "internal":
			attrs = reflection.TypeNotPublic
		default:
			return 0, fmt.Errorf("visibility %q is only valid for nested types", d.Visibility)
		}
	}

	switch d.Kind {
	case "", "class":
	case "interface":
		attrs |= reflection.TypeInterface | reflection.TypeAbstract
	case "struct", "enum":
		attrs |= reflection.TypeSealed
	default:
		return 0, fmt.Errorf("unknown kind %q", d.Kind)
	}
	if d.Abstract {
		attrs |= reflection.TypeAbstract
	}
	if d.Sealed {
		attrs |= reflection.TypeSealed
	}
	if d.Serializable {
		attrs |= reflection.TypeSerializable
	}
	return attrs, nil
}

func methodAccess(visibility string) (reflection.MethodAttributes, error) {
	switch visibility {
	case "public":
		return reflection.MethodPublic, nil
	case "", "private":
		return reflection.MethodPrivate, nil
	case "protected":
		return reflection.MethodFamily, nil
	case "internal":
		return reflection.MethodAssembly, nil
	case "protected_internal":
		return reflection.MethodFamORAssem, nil
	case "private_protected":
		return reflection.MethodFamANDAssem, nil
	}
	return 0, fmt.Errorf("unknown visibility %q", visibility)
}

func fieldAccess(visibility string) (reflection.FieldAttributes, error) {
	access, err := methodAccess(visibility)
	return reflection.FieldAttributes(access), err
}

func accessorAccess(visibility string, interfaceType bool) (reflection.MethodAttributes, error) {
	if interfaceType && visibility == "" {
		visibility = "public"
	}
	return methodAccess(visibility)
}

// slotAttributes computes the vtable layout flags of a method. Instance
// members of interfaces are always abstract new slots.
func slotAttributes(static, virtual, abstract, newSlot, interfaceType bool) reflection.MethodAttributes {
	var attrs reflection.MethodAttributes
	if static {
		return reflection.MethodStatic
	}
	if interfaceType {
		virtual, abstract, newSlot = true, true, true
	}
	if virtual || abstract {
		attrs |= reflection.MethodVirtual
	}
	if abstract {
		attrs |= reflection.MethodAbstract
	}
	if newSlot {
		attrs |= reflection.MethodNewSlot
	}
	return attrs
}
