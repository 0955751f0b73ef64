package metadata

import (
	"fmt"

	"codemodel/internal/memo"
	"codemodel/internal/reflection"

	"go.uber.org/zap"
)

// SourceLocator maps method tokens of a unit to source positions.
type SourceLocator interface {
	SourceLocation(unitPath string, token int) (reflection.CodeLocation, error)
}

// AttributeFactory builds instances of static attributes.
type AttributeFactory interface {
	CreateAttribute(attr reflection.AttributeInfo) (any, error)
}

// Policy presents a Model through the reflection wrappers.
type Policy struct {
	reflection.BasePolicy[*Node]

	model      *Model
	symbols    SourceLocator
	attributes AttributeFactory
	logger     *zap.Logger

	types memo.Keyed[*typeSig, reflection.TypeInfo]
}

var _ reflection.StaticPolicy[*Node] = (*Policy)(nil)

type Option func(*Policy)

// WithSymbols resolves locations of methods without a declared location
// through debug symbols.
func WithSymbols(s SourceLocator) Option {
	return func(p *Policy) { p.symbols = s }
}

// WithAttributeFactory replaces the default AttributeInstance results of
// attribute resolution.
func WithAttributeFactory(f AttributeFactory) Option {
	return func(p *Policy) { p.attributes = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Policy) { p.logger = l }
}

func NewPolicy(model *Model, opts ...Option) *Policy {
	p := &Policy{model: model, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Policy) Model() *Model {
	return p.model
}

// Assemblies wraps every unit of the model.
func (p *Policy) Assemblies() []*reflection.Assembly[*Node] {
	out := make([]*reflection.Assembly[*Node], len(p.model.assemblies))
	for i, a := range p.model.assemblies {
		out[i] = reflection.NewAssembly[*Node](p, a)
	}
	return out
}

func (p *Policy) Assembly(name string) (*reflection.Assembly[*Node], bool) {
	a, ok := p.model.Assembly(name)
	if !ok {
		return nil, false
	}
	return reflection.NewAssembly[*Node](p, a), true
}

// Type wraps the definition of the type with the given full name.
func (p *Policy) Type(fullName string) (*reflection.DeclaredType[*Node], bool) {
	t, ok := p.model.Type(fullName)
	if !ok {
		return nil, false
	}
	return reflection.TypeDefinition[*Node](p, t), true
}

// FieldValue returns the constant recorded on a field.
func (p *Policy) FieldValue(f *Node) (reflection.ConstantValue, bool) {
	m := memberOf(f)
	if m.constant == nil {
		return reflection.ConstantValue{}, false
	}
	return p.constantValue(m.constant), true
}

func (p *Policy) WellKnownType(w reflection.WellKnownType) (*Node, bool) {
	t, ok := p.model.corelib.assembly.byName[w.FullName()]
	return t, ok
}

func (p *Policy) ResolveAttribute(attr reflection.AttributeInfo) (any, error) {
	if p.attributes != nil {
		return p.attributes.CreateAttribute(attr)
	}
	inst, err := newAttributeInstance(attr)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func (p *Policy) CustomAttributes(h *Node) []*Node {
	return h.Attributes
}

func (p *Policy) AssemblyName(a *Node) reflection.AssemblyName {
	return assemblyOf(a).name
}

func (p *Policy) AssemblyPath(a *Node) string {
	return assemblyOf(a).path
}

func (p *Policy) AssemblyReferences(a *Node) []reflection.AssemblyReference {
	return assemblyOf(a).references
}

func (p *Policy) AssemblyTypes(a *Node) []*Node {
	return assemblyOf(a).types
}

func (p *Policy) AssemblyType(a *Node, fullName string) (*Node, bool) {
	t, ok := assemblyOf(a).byName[fullName]
	return t, ok
}

func (p *Policy) AttributeType(attr *Node) *Node {
	return attributeOf(attr).typ
}

func (p *Policy) AttributeConstructor(attr *Node) (*Node, bool) {
	ctor := attributeOf(attr).ctor
	return ctor, ctor != nil
}

func (p *Policy) AttributeConstructorArguments(attr *Node) []reflection.ConstantValue {
	args := attributeOf(attr).args
	out := make([]reflection.ConstantValue, len(args))
	for i, c := range args {
		out[i] = p.constantValue(c)
	}
	return out
}

func (p *Policy) AttributeFieldArguments(attr *Node) []reflection.NamedArgument {
	return p.namedArguments(attributeOf(attr).fields)
}

func (p *Policy) AttributePropertyArguments(attr *Node) []reflection.NamedArgument {
	return p.namedArguments(attributeOf(attr).properties)
}

func (p *Policy) namedArguments(named []namedConst) []reflection.NamedArgument {
	out := make([]reflection.NamedArgument, len(named))
	for i, n := range named {
		out[i] = reflection.NamedArgument{Name: n.name, Value: p.constantValue(n.value)}
	}
	return out
}

func (p *Policy) MemberName(m *Node) string {
	return m.Name
}

func (p *Policy) MemberDeclaringType(m *Node) (*Node, bool) {
	if m.Parent == nil || m.Parent.Kind != NodeType {
		return nil, false
	}
	return m.Parent, true
}

// MemberSourceLocation returns the declared location of m, asking the
// symbol locator for methods and constructors that declare none.
func (p *Policy) MemberSourceLocation(m *Node) (reflection.CodeLocation, error) {
	if !m.Location.IsUnknown() || p.symbols == nil {
		return m.Location, nil
	}
	if m.Kind != NodeMethod && m.Kind != NodeConstructor {
		return reflection.UnknownLocation, nil
	}
	token := m.Token()
	path := m.Assembly.assembly.path
	if token == 0 || path == "" {
		return reflection.UnknownLocation, nil
	}
	loc, err := p.symbols.SourceLocation(path, token)
	if err != nil {
		p.logger.Debug("symbol lookup failed",
			zap.String("member", m.String()),
			zap.Int("token", token),
			zap.Error(err))
		return reflection.UnknownLocation, fmt.Errorf("locate %s: %w", m, err)
	}
	return loc, nil
}

func (p *Policy) TypeAttributes(t *Node) reflection.TypeAttributes {
	return typeOf(t).attrs
}

func (p *Policy) TypeAssembly(t *Node) *Node {
	typeOf(t)
	return t.Assembly
}

func (p *Policy) TypeNamespace(t *Node) string {
	return typeOf(t).namespace
}

func (p *Policy) TypeBaseType(t *Node) reflection.TypeInfo {
	return p.typeInfo(typeOf(t).base)
}

func (p *Policy) TypeInterfaces(t *Node) []reflection.TypeInfo {
	return p.typeInfos(typeOf(t).interfaces)
}

func (p *Policy) TypeGenericParameters(t *Node) []*Node { return typeOf(t).genericParams }
func (p *Policy) TypeConstructors(t *Node) []*Node      { return typeOf(t).constructors }
func (p *Policy) TypeMethods(t *Node) []*Node           { return typeOf(t).methods }
func (p *Policy) TypeProperties(t *Node) []*Node        { return typeOf(t).properties }
func (p *Policy) TypeFields(t *Node) []*Node            { return typeOf(t).fields }
func (p *Policy) TypeEvents(t *Node) []*Node            { return typeOf(t).events }
func (p *Policy) TypeNestedTypes(t *Node) []*Node       { return typeOf(t).nested }

func (p *Policy) GenericParameterAttributes(g *Node) reflection.GenericParameterAttributes {
	return genericParameterOf(g).attrs
}

func (p *Policy) GenericParameterPosition(g *Node) int {
	return genericParameterOf(g).position
}

func (p *Policy) GenericParameterConstraints(g *Node) []reflection.TypeInfo {
	return p.typeInfos(genericParameterOf(g).constraints)
}

func (p *Policy) GenericParameterOwner(g *Node) (*Node, bool) {
	genericParameterOf(g)
	return g.Parent, g.Parent.Kind == NodeMethod
}

func (p *Policy) FunctionAttributes(f *Node) reflection.MethodAttributes {
	return memberOf(f).methodAttrs
}

func (p *Policy) FunctionCallingConvention(f *Node) reflection.CallingConventions {
	return memberOf(f).callingConv
}

func (p *Policy) FunctionParameters(f *Node) []*Node {
	return memberOf(f).params
}

func (p *Policy) MethodGenericParameters(m *Node) []*Node {
	return memberOf(m).genericParams
}

func (p *Policy) MethodReturnParameter(m *Node) *Node {
	return memberOf(m).returnParam
}

func (p *Policy) ParameterAttributes(param *Node) reflection.ParameterAttributes {
	return parameterOf(param).attrs
}

func (p *Policy) ParameterName(param *Node) string {
	parameterOf(param)
	return param.Name
}

func (p *Policy) ParameterPosition(param *Node) int {
	return parameterOf(param).position
}

func (p *Policy) ParameterType(param *Node) reflection.TypeInfo {
	return p.typeInfo(parameterOf(param).typ)
}

func (p *Policy) FieldAttributes(f *Node) reflection.FieldAttributes {
	return memberOf(f).fieldAttrs
}

func (p *Policy) FieldType(f *Node) reflection.TypeInfo {
	return p.typeInfo(memberOf(f).valueType)
}

func (p *Policy) PropertyAttributes(prop *Node) reflection.PropertyAttributes {
	return memberOf(prop).propertyAttrs
}

func (p *Policy) PropertyType(prop *Node) reflection.TypeInfo {
	return p.typeInfo(memberOf(prop).valueType)
}

func (p *Policy) PropertyGetMethod(prop *Node) (*Node, bool) {
	m := memberOf(prop).getter
	return m, m != nil
}

func (p *Policy) PropertySetMethod(prop *Node) (*Node, bool) {
	m := memberOf(prop).setter
	return m, m != nil
}

func (p *Policy) EventAttributes(e *Node) reflection.EventAttributes {
	return memberOf(e).eventAttrs
}

func (p *Policy) EventHandlerType(e *Node) reflection.TypeInfo {
	return p.typeInfo(memberOf(e).valueType)
}

func (p *Policy) EventAddMethod(e *Node) (*Node, bool) {
	m := memberOf(e).adder
	return m, m != nil
}

func (p *Policy) EventRemoveMethod(e *Node) (*Node, bool) {
	m := memberOf(e).remover
	return m, m != nil
}

func (p *Policy) EventRaiseMethod(e *Node) (*Node, bool) {
	m := memberOf(e).raiser
	return m, m != nil
}

// typeInfo converts a resolved reference into an unsubstituted type.
func (p *Policy) typeInfo(sig *typeSig) reflection.TypeInfo {
	if sig == nil {
		return nil
	}
	return p.types.Get(sig, func() reflection.TypeInfo {
		switch sig.kind {
		case sigGenericParam:
			return reflection.GenericParameterDefinition[*Node](p, sig.def)
		case sigArray:
			t, err := p.typeInfo(sig.elem).MakeArrayType(sig.rank)
			if err != nil {
				panic(fmt.Errorf("%w: %v", reflection.ErrInvalidHandle, err))
			}
			return t
		case sigPointer:
			return p.typeInfo(sig.elem).MakePointerType()
		case sigByRef:
			return p.typeInfo(sig.elem).MakeByRefType()
		}

		def := reflection.TypeDefinition[*Node](p, sig.def)
		if len(sig.args) == 0 {
			return def
		}
		t, err := def.MakeGenericType(p.typeInfos(sig.args)...)
		if err != nil {
			panic(fmt.Errorf("%w: %v", reflection.ErrInvalidHandle, err))
		}
		return t
	})
}

func (p *Policy) typeInfos(sigs []*typeSig) []reflection.TypeInfo {
	out := make([]reflection.TypeInfo, len(sigs))
	for i, s := range sigs {
		out[i] = p.typeInfo(s)
	}
	return out
}

func (p *Policy) constantValue(c *constSig) reflection.ConstantValue {
	typ := p.typeInfo(c.typ)
	if typ == nil {
		typ = reflection.TypeDefinition[*Node](p, p.model.corelib.assembly.byName[reflection.WellKnownObject.FullName()])
	}
	switch {
	case c.typeOf != nil:
		return reflection.NewConstantValue(typ, p.typeInfo(c.typeOf))
	case c.array:
		items := make([]reflection.ConstantValue, len(c.items))
		for i, item := range c.items {
			items[i] = p.constantValue(item)
		}
		return reflection.NewConstantValue(typ, items)
	}
	return reflection.NewConstantValue(typ, c.value)
}

func invalidHandle(n *Node, want NodeKind) error {
	return fmt.Errorf("%w: %s is not a %s", reflection.ErrInvalidHandle, n, want)
}

func assemblyOf(n *Node) *assemblyData {
	if n == nil || n.assembly == nil {
		panic(invalidHandle(n, NodeAssembly))
	}
	return n.assembly
}

func typeOf(n *Node) *typeData {
	if n == nil || n.typ == nil {
		panic(invalidHandle(n, NodeType))
	}
	return n.typ
}

func genericParameterOf(n *Node) *genericParamData {
	if n == nil || n.genericArg == nil {
		panic(invalidHandle(n, NodeGenericParameter))
	}
	return n.genericArg
}

func memberOf(n *Node) *memberData {
	if n == nil || n.member == nil {
		panic(fmt.Errorf("%w: %s is not a member", reflection.ErrInvalidHandle, n))
	}
	return n.member
}

func parameterOf(n *Node) *paramData {
	if n == nil || n.param == nil {
		panic(invalidHandle(n, NodeParameter))
	}
	return n.param
}

func attributeOf(n *Node) *attributeData {
	if n == nil || n.attr == nil {
		panic(invalidHandle(n, NodeAttribute))
	}
	return n.attr
}
