package live

import (
	"cmp"
	"fmt"
	"go/token"
	"reflect"
	"runtime"
	"slices"

	"codemodel/internal/memo"
	"codemodel/internal/reflection"

	"go.uber.org/zap"
)

const constructorName = ".ctor"

// Policy presents the types of a Registry through the reflection wrappers.
//
// Structs map to classes whose base type is their first embedded struct.
// Methods are the methods declared on *T; promoted methods belong to the
// embedded type. A method M() V paired with SetM(V) forms a property. Go has
// neither generic definitions at run time nor events, so no type has generic
// parameters or events.
type Policy struct {
	reflection.BasePolicy[*Handle]

	registry *Registry
	logger   *zap.Logger

	handles memo.Keyed[Handle, *Handle]
	methods memo.Keyed[reflect.Type, []reflect.Method]
}

var _ reflection.StaticPolicy[*Handle] = (*Policy)(nil)

type Option func(*Policy)

func WithLogger(l *zap.Logger) Option {
	return func(p *Policy) { p.logger = l }
}

func NewPolicy(registry *Registry, opts ...Option) *Policy {
	p := &Policy{registry: registry, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Policy) Registry() *Registry {
	return p.registry
}

func (p *Policy) intern(h Handle) *Handle {
	return p.handles.Get(h, func() *Handle { return &h })
}

func (p *Policy) unitHandle(u *Unit) *Handle {
	return p.intern(Handle{Kind: reflection.KindAssembly, Unit: u})
}

func (p *Policy) typeHandle(rt reflect.Type) *Handle {
	return p.intern(Handle{Kind: reflection.KindType, Type: rt})
}

// Assemblies wraps every registered unit.
func (p *Policy) Assemblies() []*reflection.Assembly[*Handle] {
	units := p.registry.Units()
	out := make([]*reflection.Assembly[*Handle], len(units))
	for i, u := range units {
		out[i] = reflection.NewAssembly(p, p.unitHandle(u))
	}
	return out
}

func (p *Policy) Assembly(name string) (*reflection.Assembly[*Handle], bool) {
	u, ok := p.registry.Unit(name)
	if !ok {
		return nil, false
	}
	return reflection.NewAssembly(p, p.unitHandle(u)), true
}

// Type wraps a registered or core type.
func (p *Policy) Type(rt reflect.Type) (*reflection.DeclaredType[*Handle], bool) {
	if rt == nil {
		return nil, false
	}
	if _, ok := p.registry.entry(rt); !ok {
		return nil, false
	}
	return reflection.TypeDefinition(p, p.typeHandle(rt)), true
}

// TypeOf wraps the type of v, looking through pointers to structs.
func (p *Policy) TypeOf(v any) (*reflection.DeclaredType[*Handle], bool) {
	return p.Type(typeOfSample(v))
}

// typeInfo maps a Go type to a type of the model. Pointers to structs are
// the structs themselves, slices and arrays are rank-1 arrays and types the
// registry does not know are Object.
func (p *Policy) typeInfo(rt reflect.Type) reflection.TypeInfo {
	if _, ok := p.registry.entry(rt); ok {
		return reflection.TypeDefinition(p, p.typeHandle(rt))
	}
	switch rt.Kind() {
	case reflect.Pointer:
		if rt.Elem().Kind() == reflect.Struct {
			if _, ok := p.registry.entry(rt.Elem()); ok {
				return p.typeInfo(rt.Elem())
			}
		}
		return reflection.NewPointerType(p, p.typeInfo(rt.Elem()))
	case reflect.Slice, reflect.Array:
		return reflection.NewArrayType(p, p.typeInfo(rt.Elem()), 1)
	}
	p.logger.Debug("unregistered type presented as object", zap.Stringer("type", rt))
	return reflection.TypeDefinition(p, p.typeHandle(objectType))
}

func (p *Policy) mustEntry(h *Handle) *typeEntry {
	if h == nil || h.Type == nil {
		panic(fmt.Errorf("%w: %s has no type", reflection.ErrInvalidHandle, h))
	}
	e, ok := p.registry.entry(h.Type)
	if !ok {
		panic(fmt.Errorf("%w: %v is not registered", reflection.ErrInvalidHandle, h.Type))
	}
	return e
}

func mustKind(h *Handle, kinds ...reflection.CodeElementKind) {
	if h == nil || !slices.Contains(kinds, h.Kind) {
		panic(fmt.Errorf("%w: %s is not a %s", reflection.ErrInvalidHandle, h, kinds[0]))
	}
}

func (p *Policy) WellKnownType(w reflection.WellKnownType) (*Handle, bool) {
	rt, ok := wellKnownTypes[w]
	if !ok {
		return nil, false
	}
	return p.typeHandle(rt), true
}

// ResolveAttribute returns the registered attribute instance itself.
func (p *Policy) ResolveAttribute(attr reflection.AttributeInfo) (any, error) {
	se, ok := attr.(reflection.StaticElement[*Handle])
	if !ok || se.Policy() != reflection.StaticPolicy[*Handle](p) {
		return nil, fmt.Errorf("%w: %s does not belong to this backend", reflection.ErrInvalidArgument, attr)
	}
	return p.attributeValue(se.Handle()), nil
}

func (p *Policy) attributeList(h *Handle) []any {
	switch h.Kind {
	case reflection.KindAssembly:
		return h.Unit.attributes
	case reflection.KindType:
		return p.mustEntry(h).spec.Attributes
	case reflection.KindMethod, reflection.KindField, reflection.KindProperty:
		return p.mustEntry(h).spec.Members[h.Name]
	}
	return nil
}

func (p *Policy) attributeValue(attr *Handle) any {
	mustKind(attr, reflection.KindAttribute)
	return p.attributeList(attr.Owner)[attr.Index]
}

func (p *Policy) CustomAttributes(h *Handle) []*Handle {
	list := p.attributeList(h)
	out := make([]*Handle, len(list))
	for i := range list {
		out[i] = p.intern(Handle{Kind: reflection.KindAttribute, Owner: h, Index: i})
	}
	return out
}

func (p *Policy) AssemblyName(a *Handle) reflection.AssemblyName {
	mustKind(a, reflection.KindAssembly)
	return a.Unit.name
}

func (p *Policy) AssemblyPath(a *Handle) string {
	mustKind(a, reflection.KindAssembly)
	return a.Unit.path
}

func (p *Policy) AssemblyReferences(*Handle) []reflection.AssemblyReference {
	return nil
}

func (p *Policy) AssemblyTypes(a *Handle) []*Handle {
	mustKind(a, reflection.KindAssembly)
	types := p.registry.unitTypes(a.Unit)
	out := make([]*Handle, len(types))
	for i, rt := range types {
		out[i] = p.typeHandle(rt)
	}
	return out
}

func (p *Policy) AssemblyType(a *Handle, fullName string) (*Handle, bool) {
	mustKind(a, reflection.KindAssembly)
	rt, ok := p.registry.Lookup(a.Unit.name.Name, fullName)
	if !ok {
		return nil, false
	}
	return p.typeHandle(rt), true
}

func (p *Policy) AttributeType(attr *Handle) *Handle {
	return p.typeHandle(derefType(reflect.TypeOf(p.attributeValue(attr))))
}

// AttributeConstructor reports no constructor: live attributes are
// already constructed.
func (p *Policy) AttributeConstructor(*Handle) (*Handle, bool) {
	return nil, false
}

func (p *Policy) AttributeConstructorArguments(attr *Handle) []reflection.ConstantValue {
	if usage, ok := asUsage(p.attributeValue(attr)); ok {
		return []reflection.ConstantValue{p.constant(reflect.ValueOf(usage.ValidOn))}
	}
	return nil
}

// AttributeFieldArguments returns every exported field of the instance.
func (p *Policy) AttributeFieldArguments(attr *Handle) []reflection.NamedArgument {
	v := reflect.Indirect(reflect.ValueOf(p.attributeValue(attr)))
	if v.Kind() != reflect.Struct {
		return nil
	}
	_, isUsage := asUsage(v.Interface())
	var out []reflection.NamedArgument
	for i := range v.NumField() {
		f := v.Type().Field(i)
		if f.Anonymous || !f.IsExported() || (isUsage && f.Name == "ValidOn") {
			continue
		}
		out = append(out, reflection.NamedArgument{Name: f.Name, Value: p.constant(v.Field(i))})
	}
	return out
}

func (p *Policy) AttributePropertyArguments(*Handle) []reflection.NamedArgument {
	return nil
}

func asUsage(v any) (AttributeUsage, bool) {
	switch u := v.(type) {
	case AttributeUsage:
		return u, true
	case *AttributeUsage:
		return *u, u != nil
	}
	return AttributeUsage{}, false
}

// constant converts a Go value to a constant of the model.
func (p *Policy) constant(v reflect.Value) reflection.ConstantValue {
	if !v.IsValid() {
		return reflection.NewConstantValue(p.typeInfo(objectType), nil)
	}
	typ := p.typeInfo(v.Type())
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return reflection.NewConstantValue(typ, nil)
		}
		if t, ok := v.Interface().(reflection.TypeInfo); ok {
			return reflection.NewConstantValue(p.typeInfo(systemType), t)
		}
		if rt, ok := v.Interface().(reflect.Type); ok {
			return reflection.NewConstantValue(p.typeInfo(systemType), p.typeInfo(rt))
		}
		return p.constant(v.Elem())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return reflection.NewConstantValue(typ, nil)
		}
		elems := make([]reflection.ConstantValue, v.Len())
		for i := range elems {
			elems[i] = p.constant(v.Index(i))
		}
		return reflection.NewConstantValue(typ, elems)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflection.NewConstantValue(typ, v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflection.NewConstantValue(typ, v.Uint())
	case reflect.Bool:
		return reflection.NewConstantValue(typ, v.Bool())
	case reflect.String:
		return reflection.NewConstantValue(typ, v.String())
	case reflect.Float32, reflect.Float64:
		return reflection.NewConstantValue(typ, v.Float())
	}
	return reflection.NewConstantValue(typ, v.Interface())
}

func (p *Policy) MemberName(m *Handle) string {
	switch m.Kind {
	case reflection.KindAssembly:
		return m.Unit.name.Name
	case reflection.KindType:
		e := p.mustEntry(m)
		if e.core != nil {
			return e.core.name
		}
		return m.Type.Name()
	case reflection.KindConstructor:
		return constructorName
	case reflection.KindParameter:
		if m.Index < 0 {
			return ""
		}
		return fmt.Sprintf("arg%d", m.Index)
	case reflection.KindAttribute:
		return p.MemberName(p.AttributeType(m))
	}
	return m.Name
}

func (p *Policy) MemberDeclaringType(m *Handle) (*Handle, bool) {
	switch m.Kind {
	case reflection.KindMethod, reflection.KindConstructor, reflection.KindField, reflection.KindProperty:
		return p.typeHandle(m.Type), true
	}
	return nil, false
}

// MemberSourceLocation returns the location of functions from the runtime
// function table.
func (p *Policy) MemberSourceLocation(m *Handle) (reflection.CodeLocation, error) {
	var fn reflect.Value
	switch m.Kind {
	case reflection.KindMethod:
		fn = p.methodFunc(m)
	case reflection.KindConstructor:
		if m.Index >= 0 {
			fn = p.mustEntry(m).ctors[m.Index]
		}
	}
	if !fn.IsValid() {
		return reflection.UnknownLocation, nil
	}
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return reflection.UnknownLocation, nil
	}
	file, line := f.FileLine(f.Entry())
	return reflection.NewCodeLocation(file, line, 0)
}

func (p *Policy) TypeAttributes(t *Handle) reflection.TypeAttributes {
	e := p.mustEntry(t)
	if e.core != nil {
		return e.core.attr
	}
	var attrs reflection.TypeAttributes
	if token.IsExported(t.Type.Name()) {
		attrs = reflection.TypePublic
	}
	switch t.Type.Kind() {
	case reflect.Interface:
		attrs |= reflection.TypeInterface | reflection.TypeAbstract
	case reflect.Struct:
	default:
		attrs |= reflection.TypeSealed
	}
	return attrs
}

func (p *Policy) TypeAssembly(t *Handle) *Handle {
	return p.unitHandle(p.mustEntry(t).unit)
}

func (p *Policy) TypeNamespace(t *Handle) string {
	return p.mustEntry(t).namespace
}

func (p *Policy) TypeBaseType(t *Handle) reflection.TypeInfo {
	e := p.mustEntry(t)
	if e.core != nil {
		if e.core.base == nil {
			return nil
		}
		return p.typeInfo(e.core.base)
	}
	switch t.Type.Kind() {
	case reflect.Interface:
		return nil
	case reflect.Struct:
		if base := embeddedBase(t.Type); base != nil {
			if _, ok := p.registry.entry(base); ok {
				return p.typeInfo(base)
			}
		}
		return p.typeInfo(objectType)
	}
	if len(e.spec.Constants) > 0 {
		return p.typeInfo(enumType)
	}
	return p.typeInfo(valueType)
}

// TypeInterfaces returns the registered interfaces the type implements.
func (p *Policy) TypeInterfaces(t *Handle) []reflection.TypeInfo {
	rt := t.Type
	if rt.Kind() != reflect.Interface {
		rt = reflect.PointerTo(rt)
	}
	var out []reflection.TypeInfo
	for _, iface := range p.registry.registeredInterfaces() {
		if iface == t.Type || iface.NumMethod() == 0 || !rt.Implements(iface) {
			continue
		}
		out = append(out, p.typeInfo(iface))
	}
	slices.SortFunc(out, func(a, b reflection.TypeInfo) int {
		return cmp.Compare(a.FullName(), b.FullName())
	})
	return out
}

func (p *Policy) TypeGenericParameters(*Handle) []*Handle { return nil }
func (p *Policy) TypeEvents(*Handle) []*Handle            { return nil }
func (p *Policy) TypeNestedTypes(*Handle) []*Handle       { return nil }

// TypeConstructors returns the registered constructors and, for structs,
// the zero value constructor.
func (p *Policy) TypeConstructors(t *Handle) []*Handle {
	e := p.mustEntry(t)
	var out []*Handle
	if t.Type.Kind() == reflect.Struct {
		out = append(out, p.intern(Handle{Kind: reflection.KindConstructor, Type: t.Type, Index: -1}))
	}
	for i := range e.ctors {
		out = append(out, p.intern(Handle{Kind: reflection.KindConstructor, Type: t.Type, Index: i}))
	}
	return out
}

// declaredMethods lists the methods declared on T or *T. Promoted methods
// are compiler generated wrappers and are skipped.
func (p *Policy) declaredMethods(rt reflect.Type) []reflect.Method {
	return p.methods.Get(rt, func() []reflect.Method {
		var out []reflect.Method
		if rt.Kind() == reflect.Interface {
			for i := range rt.NumMethod() {
				if m := rt.Method(i); m.IsExported() {
					out = append(out, m)
				}
			}
			return out
		}
		ptr := reflect.PointerTo(rt)
		for i := range ptr.NumMethod() {
			m := ptr.Method(i)
			fn := m.Func
			if vm, ok := rt.MethodByName(m.Name); ok {
				fn = vm.Func
			}
			if isWrapper(fn) {
				continue
			}
			out = append(out, m)
		}
		return out
	})
}

func isWrapper(fn reflect.Value) bool {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return true
	}
	file, _ := f.FileLine(f.Entry())
	return file == "<autogenerated>"
}

func (p *Policy) method(m *Handle) reflect.Method {
	mustKind(m, reflection.KindMethod)
	for _, dm := range p.declaredMethods(m.Type) {
		if dm.Name == m.Name {
			return dm
		}
	}
	panic(fmt.Errorf("%w: %s has no method %s", reflection.ErrInvalidHandle, m.Type, m.Name))
}

// methodFunc returns the function implementing a method, with its receiver
// as the first argument.
func (p *Policy) methodFunc(m *Handle) reflect.Value {
	if m.Type.Kind() == reflect.Interface {
		return reflect.Value{}
	}
	if vm, ok := m.Type.MethodByName(m.Name); ok {
		return vm.Func
	}
	return p.method(m).Func
}

// signature returns the parameter and result types of a function handle,
// without the receiver.
func (p *Policy) signature(f *Handle) (in, out []reflect.Type, variadic bool) {
	var ft reflect.Type
	skip := 0
	switch f.Kind {
	case reflection.KindMethod:
		ft = p.method(f).Type
		if f.Type.Kind() != reflect.Interface {
			skip = 1
		}
	case reflection.KindConstructor:
		if f.Index < 0 {
			return nil, nil, false
		}
		ft = p.mustEntry(f).ctors[f.Index].Type()
	default:
		panic(fmt.Errorf("%w: %s is not a function", reflection.ErrInvalidHandle, f))
	}
	for i := skip; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}
	for i := range ft.NumOut() {
		out = append(out, ft.Out(i))
	}
	return in, out, ft.IsVariadic()
}

func (p *Policy) TypeMethods(t *Handle) []*Handle {
	p.mustEntry(t)
	methods := p.declaredMethods(t.Type)
	out := make([]*Handle, len(methods))
	for i, m := range methods {
		out[i] = p.intern(Handle{Kind: reflection.KindMethod, Type: t.Type, Name: m.Name, Index: m.Index})
	}
	return out
}

func (p *Policy) TypeProperties(t *Handle) []*Handle {
	var out []*Handle
	for _, m := range p.declaredMethods(t.Type) {
		if _, ok := p.setter(t.Type, m); ok {
			out = append(out, p.intern(Handle{Kind: reflection.KindProperty, Type: t.Type, Name: m.Name}))
		}
	}
	return out
}

// setter returns SetX for a getter X when the pair forms a property.
func (p *Policy) setter(rt reflect.Type, get reflect.Method) (reflect.Method, bool) {
	skip := 1
	if rt.Kind() == reflect.Interface {
		skip = 0
	}
	gt := get.Type
	if gt.NumIn() != skip || gt.NumOut() != 1 {
		return reflect.Method{}, false
	}
	for _, m := range p.declaredMethods(rt) {
		if m.Name != "Set"+get.Name {
			continue
		}
		st := m.Type
		if st.NumIn() == skip+1 && st.NumOut() == 0 && st.In(skip) == gt.Out(0) {
			return m, true
		}
	}
	return reflect.Method{}, false
}

func (p *Policy) TypeFields(t *Handle) []*Handle {
	e := p.mustEntry(t)
	var out []*Handle
	if t.Type.Kind() == reflect.Struct {
		base := embeddedBase(t.Type)
		for i := range t.Type.NumField() {
			f := t.Type.Field(i)
			if f.Anonymous && derefType(f.Type) == base {
				continue
			}
			out = append(out, p.intern(Handle{Kind: reflection.KindField, Type: t.Type, Name: f.Name, Index: i}))
		}
	}
	for i, c := range e.spec.Constants {
		out = append(out, p.intern(Handle{Kind: reflection.KindField, Type: t.Type, Name: c.Name, Index: -1 - i}))
	}
	return out
}

func (p *Policy) GenericParameterAttributes(*Handle) reflection.GenericParameterAttributes {
	return reflection.GenericParameterNone
}

func (p *Policy) GenericParameterPosition(*Handle) int                      { return 0 }
func (p *Policy) GenericParameterConstraints(*Handle) []reflection.TypeInfo { return nil }
func (p *Policy) GenericParameterOwner(*Handle) (*Handle, bool)             { return nil, false }

func (p *Policy) FunctionAttributes(f *Handle) reflection.MethodAttributes {
	mustKind(f, reflection.KindMethod, reflection.KindConstructor)
	if f.Kind == reflection.KindConstructor {
		return reflection.MethodPublic | reflection.MethodHideBySig | reflection.MethodSpecialName | reflection.MethodRTSpecialName
	}
	attrs := reflection.MethodPublic | reflection.MethodHideBySig | reflection.MethodVirtual
	if f.Type.Kind() == reflect.Interface {
		attrs |= reflection.MethodAbstract | reflection.MethodNewSlot
	}
	return attrs
}

func (p *Policy) FunctionCallingConvention(f *Handle) reflection.CallingConventions {
	conv := reflection.CallingStandard
	if f.Kind == reflection.KindMethod {
		conv |= reflection.CallingHasThis
	}
	if _, _, variadic := p.signature(f); variadic {
		conv |= reflection.CallingVarArgs
	}
	return conv
}

func (p *Policy) FunctionParameters(f *Handle) []*Handle {
	in, _, _ := p.signature(f)
	out := make([]*Handle, len(in))
	for i := range in {
		out[i] = p.intern(Handle{Kind: reflection.KindParameter, Owner: f, Index: i})
	}
	return out
}

func (p *Policy) MethodGenericParameters(*Handle) []*Handle { return nil }

func (p *Policy) MethodReturnParameter(m *Handle) *Handle {
	mustKind(m, reflection.KindMethod)
	return p.intern(Handle{Kind: reflection.KindParameter, Owner: m, Index: -1})
}

func (p *Policy) ParameterAttributes(*Handle) reflection.ParameterAttributes {
	return reflection.ParameterNone
}

func (p *Policy) ParameterName(param *Handle) string {
	return p.MemberName(param)
}

func (p *Policy) ParameterPosition(param *Handle) int {
	mustKind(param, reflection.KindParameter)
	return param.Index
}

// ParameterType returns the parameter type. The return value of a method
// with several results is its first result.
func (p *Policy) ParameterType(param *Handle) reflection.TypeInfo {
	return p.typeInfo(p.parameterReflectType(param))
}

func (p *Policy) parameterReflectType(param *Handle) reflect.Type {
	mustKind(param, reflection.KindParameter)
	in, out, _ := p.signature(param.Owner)
	if param.Index >= 0 {
		return in[param.Index]
	}
	if len(out) == 0 {
		return reflect.TypeFor[Void]()
	}
	return out[0]
}

func (p *Policy) FieldAttributes(f *Handle) reflection.FieldAttributes {
	mustKind(f, reflection.KindField)
	if f.isConstant() {
		return reflection.FieldPublic | reflection.FieldStatic | reflection.FieldLiteral | reflection.FieldHasDefault
	}
	if f.Type.Field(f.Index).IsExported() {
		return reflection.FieldPublic
	}
	return reflection.FieldAssembly
}

func (p *Policy) FieldType(f *Handle) reflection.TypeInfo {
	mustKind(f, reflection.KindField)
	if f.isConstant() {
		return p.typeInfo(f.Type)
	}
	return p.typeInfo(f.Type.Field(f.Index).Type)
}

// FieldValue returns the value of an enum constant.
func (p *Policy) FieldValue(f *Handle) (reflection.ConstantValue, bool) {
	if f == nil || !f.isConstant() {
		return reflection.ConstantValue{}, false
	}
	c := p.mustEntry(f).spec.Constants[-1-f.Index]
	return p.constant(reflect.ValueOf(c.Value).Convert(f.Type)), true
}

func (p *Policy) PropertyAttributes(*Handle) reflection.PropertyAttributes {
	return reflection.PropertyNone
}

func (p *Policy) PropertyType(prop *Handle) reflection.TypeInfo {
	get, _ := p.PropertyGetMethod(prop)
	return p.ParameterType(p.MethodReturnParameter(get))
}

func (p *Policy) PropertyGetMethod(prop *Handle) (*Handle, bool) {
	mustKind(prop, reflection.KindProperty)
	m := p.method(&Handle{Kind: reflection.KindMethod, Type: prop.Type, Name: prop.Name})
	return p.intern(Handle{Kind: reflection.KindMethod, Type: prop.Type, Name: m.Name, Index: m.Index}), true
}

func (p *Policy) PropertySetMethod(prop *Handle) (*Handle, bool) {
	mustKind(prop, reflection.KindProperty)
	get := p.method(&Handle{Kind: reflection.KindMethod, Type: prop.Type, Name: prop.Name})
	set, ok := p.setter(prop.Type, get)
	if !ok {
		return nil, false
	}
	return p.intern(Handle{Kind: reflection.KindMethod, Type: prop.Type, Name: set.Name, Index: set.Index}), true
}

func (p *Policy) EventAttributes(*Handle) reflection.EventAttributes { return reflection.EventNone }
func (p *Policy) EventHandlerType(*Handle) reflection.TypeInfo       { return nil }
func (p *Policy) EventAddMethod(*Handle) (*Handle, bool)             { return nil, false }
func (p *Policy) EventRemoveMethod(*Handle) (*Handle, bool)          { return nil, false }
func (p *Policy) EventRaiseMethod(*Handle) (*Handle, bool)           { return nil, false }
