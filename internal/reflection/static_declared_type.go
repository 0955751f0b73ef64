package reflection

import (
	"iter"
	"strings"

	"codemodel/internal/memo"
)

// DeclaredType wraps a type declaration together with the substitution that
// instantiates its generic parameters.
type DeclaredType[H any] struct {
	staticMember[H]
	subst Substitution[H]

	name          memo.Value[string]
	fullName      memo.Value[string]
	signature     memo.Value[string]
	genericParams memo.Value[[]*GenericParameter[H]]
	genericArgs   memo.Value[[]TypeInfo]
	baseType      memo.Value[TypeInfo]
	interfaces    memo.Value[[]TypeInfo]
	usage         memo.Value[AttributeUsage]
}

// NewDeclaredType wraps type handle h. declaringType is nil for top-level types.
func NewDeclaredType[H any](policy StaticPolicy[H], h H, declaringType *DeclaredType[H], subst Substitution[H]) *DeclaredType[H] {
	t := &DeclaredType[H]{subst: subst}
	t.staticMember.init(policy, h, t, declaringType, declaringType)
	return t
}

func (t *DeclaredType[H]) Kind() CodeElementKind {
	return KindType
}

// Substitution returns the generic parameter substitution applied to this type.
func (t *DeclaredType[H]) Substitution() Substitution[H] {
	return t.subst
}

// Name is the simple name with the arity suffix for generic types.
func (t *DeclaredType[H]) Name() string {
	return t.name.Get(func() string {
		return t.policy.MemberName(t.handle) + aritySuffix(len(t.genericParameters()))
	})
}

func (t *DeclaredType[H]) NamespaceName() string {
	return t.policy.TypeNamespace(t.handle)
}

func (t *DeclaredType[H]) Namespace() NamespaceInfo {
	return NewNamespace(t.NamespaceName())
}

func (t *DeclaredType[H]) Assembly() AssemblyInfo {
	return NewAssembly(t.policy, t.policy.TypeAssembly(t.handle))
}

func (t *DeclaredType[H]) TypeAttributes() TypeAttributes {
	return t.policy.TypeAttributes(t.handle)
}

func (t *DeclaredType[H]) FullName() string {
	return t.fullName.Get(func() string {
		if t.isOpenConstructed() {
			return ""
		}
		isDefinition := t.IsGenericTypeDefinition()

		var sb strings.Builder
		t.appendFullName(&sb)
		if !isDefinition {
			if args := t.GenericArguments(); len(args) != 0 {
				sb.WriteByte('[')
				for i, arg := range args {
					if i != 0 {
						sb.WriteByte(',')
					}
					sb.WriteByte('[')
					sb.WriteString(arg.AssemblyQualifiedName())
					sb.WriteByte(']')
				}
				sb.WriteByte(']')
			}
		}
		return sb.String()
	})
}

// isOpenConstructed reports whether the type or one of its declaring types
// is instantiated over generic parameters other than its own.
func (t *DeclaredType[H]) isOpenConstructed() bool {
	if t.declaringType != nil && t.declaringType.isOpenConstructed() {
		return true
	}
	if t.IsGenericTypeDefinition() {
		return false
	}
	for _, arg := range t.GenericArguments() {
		if arg.ContainsGenericParameters() {
			return true
		}
	}
	return false
}

func (t *DeclaredType[H]) AssemblyQualifiedName() string {
	fullName := t.FullName()
	if fullName == "" {
		return ""
	}
	return fullName + ", " + t.Assembly().FullName()
}

// String renders the full name with generic arguments listed positionally.
func (t *DeclaredType[H]) String() string {
	return t.signature.Get(func() string {
		var sb strings.Builder
		t.appendFullName(&sb)
		if args := t.GenericArguments(); len(args) != 0 {
			sb.WriteByte('[')
			for i, arg := range args {
				if i != 0 {
					sb.WriteByte(',')
				}
				sb.WriteString(arg.String())
			}
			sb.WriteByte(']')
		}
		return sb.String()
	})
}

func (t *DeclaredType[H]) appendFullName(sb *strings.Builder) {
	if t.declaringType != nil {
		t.declaringType.appendFullName(sb)
		sb.WriteByte('+')
	} else if ns := t.NamespaceName(); ns != "" {
		sb.WriteString(ns)
		sb.WriteByte('.')
	}
	sb.WriteString(t.Name())
}

func (t *DeclaredType[H]) CodeReference() CodeReference {
	typeName := t.FullName()
	if typeName == "" {
		typeName = t.String()
	}
	return CodeReference{
		Kind:          KindType,
		AssemblyName:  t.Assembly().FullName(),
		NamespaceName: t.NamespaceName(),
		TypeName:      typeName,
	}
}

// CodeLocation returns the declared location of the type, or else the file of
// its first located constructor or method.
func (t *DeclaredType[H]) CodeLocation() (CodeLocation, error) {
	loc, err := t.policy.MemberSourceLocation(t.handle)
	if err != nil || !loc.IsUnknown() {
		return loc, err
	}
	for _, c := range t.Constructors(BindingAll | BindingDeclaredOnly) {
		loc, err := c.CodeLocation()
		if err != nil {
			return UnknownLocation, err
		}
		if !loc.IsUnknown() {
			return loc.FileOnly(), nil
		}
	}
	for _, m := range t.declaredMethods(BindingAll, t) {
		loc, err := m.CodeLocation()
		if err != nil {
			return UnknownLocation, err
		}
		if !loc.IsUnknown() {
			return loc.FileOnly(), nil
		}
	}
	return UnknownLocation, nil
}

func (t *DeclaredType[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*DeclaredType[H])
	if !ok || o == nil {
		return false
	}
	if t == o {
		return true
	}
	return t.sameMember(&o.staticMember) && sameTypes(t.GenericArguments(), o.GenericArguments())
}

func (t *DeclaredType[H]) BaseType() TypeInfo {
	return t.baseType.Get(func() TypeInfo {
		base := t.policy.TypeBaseType(t.handle)
		if base == nil {
			return nil
		}
		return t.subst.Apply(base)
	})
}

func (t *DeclaredType[H]) baseDeclaredType() *DeclaredType[H] {
	base, _ := t.BaseType().(*DeclaredType[H])
	return base
}

// BaseTypes returns the chain of base types, nearest first.
func (t *DeclaredType[H]) BaseTypes() []*DeclaredType[H] {
	var out []*DeclaredType[H]
	for base := t.baseDeclaredType(); base != nil; base = base.baseDeclaredType() {
		out = append(out, base)
	}
	return out
}

// Interfaces returns every interface implemented by the type, its base types
// and the interfaces themselves, without duplicates.
func (t *DeclaredType[H]) Interfaces() []TypeInfo {
	return t.interfaces.Get(func() []TypeInfo {
		set := newElementSet[TypeInfo]()
		for _, iface := range t.policy.TypeInterfaces(t.handle) {
			iface = t.subst.Apply(iface)
			set.Add(iface)
			for _, inherited := range iface.Interfaces() {
				set.Add(inherited)
			}
		}
		if base := t.BaseType(); base != nil {
			for _, inherited := range base.Interfaces() {
				set.Add(inherited)
			}
		}
		return set.Items()
	})
}

func (t *DeclaredType[H]) ElementType() TypeInfo    { return nil }
func (t *DeclaredType[H]) ArrayRank() int           { return 0 }
func (t *DeclaredType[H]) IsArray() bool            { return false }
func (t *DeclaredType[H]) IsPointer() bool          { return false }
func (t *DeclaredType[H]) IsByRef() bool            { return false }
func (t *DeclaredType[H]) IsGenericParameter() bool { return false }

func (t *DeclaredType[H]) IsNested() bool {
	return t.declaringType != nil
}

func (t *DeclaredType[H]) IsGenericType() bool {
	return len(t.genericParameters()) != 0
}

// IsGenericTypeDefinition reports whether the type is generic and none of its
// own parameters is substituted.
func (t *DeclaredType[H]) IsGenericTypeDefinition() bool {
	params := t.genericParameters()
	return len(params) != 0 && t.subst.DoesNotContainAny(params)
}

func (t *DeclaredType[H]) ContainsGenericParameters() bool {
	for _, arg := range t.GenericArguments() {
		if arg.ContainsGenericParameters() {
			return true
		}
	}
	return t.declaringType != nil && t.declaringType.ContainsGenericParameters()
}

func (t *DeclaredType[H]) genericParameters() []*GenericParameter[H] {
	return t.genericParams.Get(func() []*GenericParameter[H] {
		handles := t.policy.TypeGenericParameters(t.handle)
		out := make([]*GenericParameter[H], len(handles))
		for i, h := range handles {
			out[i] = NewGenericParameter(t.policy, h, t, nil)
		}
		return out
	})
}

func (t *DeclaredType[H]) GenericParameters() []GenericParameterInfo {
	params := t.genericParameters()
	out := make([]GenericParameterInfo, len(params))
	for i, p := range params {
		out[i] = p
	}
	return out
}

func (t *DeclaredType[H]) GenericArguments() []TypeInfo {
	return t.genericArgs.Get(func() []TypeInfo {
		return t.subst.applyParams(t.genericParameters())
	})
}

// GenericTypeDefinition returns the type with its own parameters unsubstituted,
// or nil when the type is not generic.
func (t *DeclaredType[H]) GenericTypeDefinition() TypeInfo {
	def := t.genericTypeDefinition()
	if def == nil {
		return nil
	}
	return def
}

func (t *DeclaredType[H]) genericTypeDefinition() *DeclaredType[H] {
	if !t.IsGenericType() {
		return nil
	}
	if t.IsGenericTypeDefinition() {
		return t
	}
	return NewDeclaredType(t.policy, t.handle, t.declaringType, t.subst.Remove(t.genericParameters()))
}

func (t *DeclaredType[H]) MakeGenericType(args ...TypeInfo) (TypeInfo, error) {
	if !t.IsGenericTypeDefinition() {
		return nil, invalidOperation("%s is not a generic type definition", t)
	}
	subst, err := t.subst.Extend(t.genericParameters(), args)
	if err != nil {
		return nil, err
	}
	return NewDeclaredType(t.policy, t.handle, t.declaringType, subst), nil
}

func (t *DeclaredType[H]) MakeArrayType(rank int) (TypeInfo, error) {
	return makeArrayType(t.policy, t, rank)
}

func (t *DeclaredType[H]) MakePointerType() TypeInfo {
	return NewPointerType(t.policy, t)
}

func (t *DeclaredType[H]) MakeByRefType() TypeInfo {
	return NewByRefType(t.policy, t)
}

func (t *DeclaredType[H]) IsAssignableFrom(other TypeInfo) bool {
	return isAssignableFrom(t, other)
}

func (t *DeclaredType[H]) IsSubclassOf(other TypeInfo) bool {
	return isSubclassOf(t, other)
}

// applySubstitution composes s with the type's substitution. A generic
// definition is treated as instantiated over its own parameters, so that
// self references inside a generic type follow its instantiation.
func (t *DeclaredType[H]) applySubstitution(s Substitution[H]) TypeInfo {
	if !t.subst.IsEmpty() {
		return NewDeclaredType(t.policy, t.handle, t.declaringType, t.subst.Compose(s))
	}
	params := t.genericParameters()
	if len(params) == 0 {
		return t
	}
	subst, err := t.subst.Extend(params, s.applyParams(params))
	if err != nil || subst.IsEmpty() {
		return t
	}
	return NewDeclaredType(t.policy, t.handle, t.declaringType, subst)
}

func (t *DeclaredType[H]) inheritedElements() iter.Seq[attributeSource] {
	return func(yield func(attributeSource) bool) {
		for base := t.baseDeclaredType(); base != nil; base = base.baseDeclaredType() {
			if !yield(base) {
				return
			}
		}
	}
}

func (t *DeclaredType[H]) attributeUsage() AttributeUsage {
	return t.usage.Get(func() AttributeUsage {
		return readAttributeUsage(t)
	})
}

func (t *DeclaredType[H]) Constructors(flags BindingFlags) []ConstructorInfo {
	var out []ConstructorInfo
	for _, h := range t.policy.TypeConstructors(t.handle) {
		c := NewConstructor(t.policy, h, t, t)
		if matchesBindingFlags(flags, c.IsPublic(), c.IsStatic()) {
			out = append(out, c)
		}
	}
	return out
}

// Methods returns the methods visible under flags. Inherited methods that are
// overridden or hidden by signature are left out.
func (t *DeclaredType[H]) Methods(flags BindingFlags) []MethodInfo {
	methods := t.methods(flags)
	out := make([]MethodInfo, len(methods))
	for i, m := range methods {
		out[i] = m
	}
	return out
}

func (t *DeclaredType[H]) Method(name string, flags BindingFlags) (MethodInfo, error) {
	return memberByName(t.Methods(flags), name)
}

func (t *DeclaredType[H]) methods(flags BindingFlags) []*Method[H] {
	result := t.declaredMethods(flags, t)

	inherited := inheritanceBindingFlags(flags)
	if inherited == BindingDefault {
		return result
	}

	hidden := newElementSet[*Method[H]]()
	for _, m := range result {
		for o := range m.overriddenOrHidden(false) {
			hidden.Add(o)
		}
	}
	for base := t.baseDeclaredType(); base != nil; base = base.baseDeclaredType() {
		for _, m := range base.declaredMethods(inherited, t) {
			if hidden.Contains(m) {
				continue
			}
			result = append(result, m)
			for o := range m.overriddenOrHidden(false) {
				hidden.Add(o)
			}
		}
	}
	return result
}

func (t *DeclaredType[H]) declaredMethods(flags BindingFlags, reflectedType *DeclaredType[H]) []*Method[H] {
	var out []*Method[H]
	for _, h := range t.policy.TypeMethods(t.handle) {
		m := NewMethod(t.policy, h, t, reflectedType, t.subst)
		if matchesBindingFlags(flags, m.IsPublic(), m.IsStatic()) {
			out = append(out, m)
		}
	}
	return out
}

func (t *DeclaredType[H]) Properties(flags BindingFlags) []PropertyInfo {
	result := t.declaredProperties(flags, t)

	if inherited := inheritanceBindingFlags(flags); inherited != BindingDefault {
		hidden := newElementSet[*Property[H]]()
		for _, p := range result {
			for o := range p.overriddenOrHidden(false) {
				hidden.Add(o)
			}
		}
		for base := t.baseDeclaredType(); base != nil; base = base.baseDeclaredType() {
			for _, p := range base.declaredProperties(inherited, t) {
				if hidden.Contains(p) {
					continue
				}
				result = append(result, p)
				for o := range p.overriddenOrHidden(false) {
					hidden.Add(o)
				}
			}
		}
	}

	out := make([]PropertyInfo, len(result))
	for i, p := range result {
		out[i] = p
	}
	return out
}

func (t *DeclaredType[H]) Property(name string, flags BindingFlags) (PropertyInfo, error) {
	return memberByName(t.Properties(flags), name)
}

func (t *DeclaredType[H]) declaredProperties(flags BindingFlags, reflectedType *DeclaredType[H]) []*Property[H] {
	var out []*Property[H]
	for _, h := range t.policy.TypeProperties(t.handle) {
		p := NewProperty(t.policy, h, t, reflectedType)
		if matchesBindingFlags(flags, p.isPublic(), p.isStatic()) {
			out = append(out, p)
		}
	}
	return out
}

func (t *DeclaredType[H]) Events(flags BindingFlags) []EventInfo {
	result := t.declaredEvents(flags, t)

	if inherited := inheritanceBindingFlags(flags); inherited != BindingDefault {
		hidden := newElementSet[*Event[H]]()
		for _, e := range result {
			for o := range e.overriddenOrHidden(false) {
				hidden.Add(o)
			}
		}
		for base := t.baseDeclaredType(); base != nil; base = base.baseDeclaredType() {
			for _, e := range base.declaredEvents(inherited, t) {
				if hidden.Contains(e) {
					continue
				}
				result = append(result, e)
				for o := range e.overriddenOrHidden(false) {
					hidden.Add(o)
				}
			}
		}
	}

	out := make([]EventInfo, len(result))
	for i, e := range result {
		out[i] = e
	}
	return out
}

func (t *DeclaredType[H]) Event(name string, flags BindingFlags) (EventInfo, error) {
	return memberByName(t.Events(flags), name)
}

func (t *DeclaredType[H]) declaredEvents(flags BindingFlags, reflectedType *DeclaredType[H]) []*Event[H] {
	var out []*Event[H]
	for _, h := range t.policy.TypeEvents(t.handle) {
		e := NewEvent(t.policy, h, t, reflectedType)
		if matchesBindingFlags(flags, e.isPublic(), e.isStatic()) {
			out = append(out, e)
		}
	}
	return out
}

// Fields returns the fields visible under flags. Fields are inherited on
// visibility: private fields never, assembly fields only within the same unit.
func (t *DeclaredType[H]) Fields(flags BindingFlags) []FieldInfo {
	var out []FieldInfo
	for _, f := range t.declaredFields(flags, t) {
		out = append(out, f)
	}

	if inherited := inheritanceBindingFlags(flags); inherited != BindingDefault {
		assembly := t.Assembly()
		for base := t.baseDeclaredType(); base != nil; base = base.baseDeclaredType() {
			for _, f := range base.declaredFields(inherited, t) {
				access := f.FieldAttributes().Access()
				if access == FieldPrivate || access == FieldPrivateScope {
					continue
				}
				if access == FieldAssembly && !base.Assembly().Equals(assembly) {
					continue
				}
				out = append(out, f)
			}
		}
	}
	return out
}

// Field returns the most derived field named name, or nil.
func (t *DeclaredType[H]) Field(name string, flags BindingFlags) FieldInfo {
	return firstByName(t.Fields(flags), name)
}

func (t *DeclaredType[H]) declaredFields(flags BindingFlags, reflectedType *DeclaredType[H]) []*Field[H] {
	var out []*Field[H]
	for _, h := range t.policy.TypeFields(t.handle) {
		f := NewField(t.policy, h, t, reflectedType)
		if matchesBindingFlags(flags, f.IsPublic(), f.IsStatic()) {
			out = append(out, f)
		}
	}
	return out
}

// NestedTypes returns the nested types of the generic definition and of its
// base types. Base types that declare this type are skipped.
func (t *DeclaredType[H]) NestedTypes(flags BindingFlags) []TypeInfo {
	includePublic := flags&BindingPublic != 0
	includeNonPublic := flags&BindingNonPublic != 0

	out := t.declaredNestedTypes(includePublic, includeNonPublic)
	for base := t.baseDeclaredType(); base != nil; base = base.baseDeclaredType() {
		if t.isRecursivelyDeclaringType(base) {
			continue
		}
		out = append(out, base.declaredNestedTypes(includePublic, includeNonPublic)...)
	}
	return out
}

func (t *DeclaredType[H]) NestedType(name string, flags BindingFlags) TypeInfo {
	return firstByName(t.NestedTypes(flags), name)
}

func (t *DeclaredType[H]) declaredNestedTypes(includePublic, includeNonPublic bool) []TypeInfo {
	unspecialized := t
	if def := t.genericTypeDefinition(); def != nil {
		unspecialized = def
	}

	var out []TypeInfo
	for _, h := range t.policy.TypeNestedTypes(t.handle) {
		nested := NewDeclaredType(t.policy, h, unspecialized, unspecialized.subst)
		if nested.TypeAttributes().Visibility() == TypeNestedPublic {
			if !includePublic {
				continue
			}
		} else if !includeNonPublic {
			continue
		}
		out = append(out, nested)
	}
	return out
}

func (t *DeclaredType[H]) isRecursivelyDeclaringType(candidate *DeclaredType[H]) bool {
	for d := t.declaringType; d != nil; d = d.declaringType {
		if d.Equals(candidate) {
			return true
		}
	}
	return false
}

func (t *DeclaredType[H]) Members(flags BindingFlags) []MemberInfo {
	if flags&(BindingInstance|BindingStatic) == 0 {
		return nil
	}
	var out []MemberInfo
	for _, c := range t.Constructors(flags) {
		out = append(out, c)
	}
	for _, m := range t.Methods(flags) {
		out = append(out, m)
	}
	for _, p := range t.Properties(flags) {
		out = append(out, p)
	}
	for _, f := range t.Fields(flags) {
		out = append(out, f)
	}
	for _, e := range t.Events(flags) {
		out = append(out, e)
	}
	for _, n := range t.NestedTypes(flags) {
		out = append(out, n)
	}
	return out
}
