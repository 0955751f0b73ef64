package reflection

import (
	"fmt"

	"codemodel/internal/memo"
)

// GenericParameter wraps a generic parameter owned by exactly one type or method.
// Member queries behave like those of the well-known object type.
type GenericParameter[H any] struct {
	staticWrapper[H]
	delegatedMembers
	declaringType   *DeclaredType[H]
	declaringMethod *Method[H]

	constraints memo.Value[[]TypeInfo]
}

// NewGenericParameter panics with ErrInvalidArgument unless exactly one of
// declaringType and declaringMethod is set.
func NewGenericParameter[H any](policy StaticPolicy[H], h H, declaringType *DeclaredType[H], declaringMethod *Method[H]) *GenericParameter[H] {
	if (declaringType == nil) == (declaringMethod == nil) {
		panic(fmt.Errorf("%w: a generic parameter must be declared by exactly one type or method", ErrInvalidArgument))
	}
	g := &GenericParameter[H]{declaringType: declaringType, declaringMethod: declaringMethod}
	g.staticWrapper.init(policy, h, g)
	g.effective = func() TypeInfo {
		if obj := wellKnown(policy, WellKnownObject); obj != nil {
			return obj
		}
		return nil
	}
	return g
}

func (g *GenericParameter[H]) Kind() CodeElementKind {
	return KindGenericParameter
}

func (g *GenericParameter[H]) Name() string {
	return g.policy.MemberName(g.handle)
}

func (g *GenericParameter[H]) String() string {
	return g.Name()
}

func (g *GenericParameter[H]) ownerType() *DeclaredType[H] {
	if g.declaringType != nil {
		return g.declaringType
	}
	return g.declaringMethod.declaringType
}

func (g *GenericParameter[H]) DeclaringType() TypeInfo {
	return g.ownerType()
}

func (g *GenericParameter[H]) ReflectedType() TypeInfo {
	return g.ownerType()
}

func (g *GenericParameter[H]) DeclaringMethod() MethodInfo {
	if g.declaringMethod == nil {
		return nil
	}
	return g.declaringMethod
}

func (g *GenericParameter[H]) Assembly() AssemblyInfo          { return g.ownerType().Assembly() }
func (g *GenericParameter[H]) Namespace() NamespaceInfo        { return g.ownerType().Namespace() }
func (g *GenericParameter[H]) NamespaceName() string           { return g.ownerType().NamespaceName() }
func (g *GenericParameter[H]) FullName() string                { return "" }
func (g *GenericParameter[H]) AssemblyQualifiedName() string   { return "" }
func (g *GenericParameter[H]) TypeAttributes() TypeAttributes  { return TypePublic }
func (g *GenericParameter[H]) ElementType() TypeInfo           { return nil }
func (g *GenericParameter[H]) ArrayRank() int                  { return 0 }
func (g *GenericParameter[H]) IsArray() bool                   { return false }
func (g *GenericParameter[H]) IsPointer() bool                 { return false }
func (g *GenericParameter[H]) IsByRef() bool                   { return false }
func (g *GenericParameter[H]) IsGenericParameter() bool        { return true }
func (g *GenericParameter[H]) IsGenericType() bool             { return false }
func (g *GenericParameter[H]) IsGenericTypeDefinition() bool   { return false }
func (g *GenericParameter[H]) ContainsGenericParameters() bool { return true }
func (g *GenericParameter[H]) IsNested() bool                  { return true }
func (g *GenericParameter[H]) GenericArguments() []TypeInfo    { return nil }
func (g *GenericParameter[H]) GenericTypeDefinition() TypeInfo { return nil }

func (g *GenericParameter[H]) GenericParameters() []GenericParameterInfo {
	return nil
}

func (g *GenericParameter[H]) GenericParameterAttributes() GenericParameterAttributes {
	return g.policy.GenericParameterAttributes(g.handle)
}

func (g *GenericParameter[H]) Position() int {
	return g.policy.GenericParameterPosition(g.handle)
}

func (g *GenericParameter[H]) Constraints() []TypeInfo {
	return g.constraints.Get(func() []TypeInfo {
		return g.policy.GenericParameterConstraints(g.handle)
	})
}

// BaseType is the first class constraint, or the object type.
func (g *GenericParameter[H]) BaseType() TypeInfo {
	for _, c := range g.Constraints() {
		if !IsInterface(c) {
			return c
		}
	}
	if obj := wellKnown(g.policy, WellKnownObject); obj != nil {
		return obj
	}
	return nil
}

func (g *GenericParameter[H]) Interfaces() []TypeInfo {
	set := newElementSet[TypeInfo]()
	for _, c := range g.Constraints() {
		if IsInterface(c) {
			set.Add(c)
		}
		for _, iface := range c.Interfaces() {
			set.Add(iface)
		}
	}
	return set.Items()
}

func (g *GenericParameter[H]) MakeGenericType(...TypeInfo) (TypeInfo, error) {
	return nil, invalidOperation("generic parameter %s is not a generic type definition", g.Name())
}

func (g *GenericParameter[H]) MakeArrayType(rank int) (TypeInfo, error) {
	return makeArrayType(g.policy, g, rank)
}

func (g *GenericParameter[H]) MakePointerType() TypeInfo {
	return NewPointerType(g.policy, g)
}

func (g *GenericParameter[H]) MakeByRefType() TypeInfo {
	return NewByRefType(g.policy, g)
}

func (g *GenericParameter[H]) IsAssignableFrom(other TypeInfo) bool {
	return isAssignableFrom(g, other)
}

func (g *GenericParameter[H]) IsSubclassOf(other TypeInfo) bool {
	return isSubclassOf(g, other)
}

func (g *GenericParameter[H]) CodeReference() CodeReference {
	var ref CodeReference
	if g.declaringMethod != nil {
		ref = g.declaringMethod.CodeReference()
	} else {
		ref = g.declaringType.CodeReference()
	}
	ref.Kind = KindGenericParameter
	ref.ParameterName = g.Name()
	return ref
}

// CodeLocation is the location of the declaring method or type.
func (g *GenericParameter[H]) CodeLocation() (CodeLocation, error) {
	if g.declaringMethod != nil {
		return g.declaringMethod.CodeLocation()
	}
	return g.declaringType.CodeLocation()
}

// Equals compares handles only: a parameter is the same whichever
// instantiation of its owner it was reached through.
func (g *GenericParameter[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*GenericParameter[H])
	return ok && o != nil && g.sameHandle(&o.staticWrapper)
}

func (g *GenericParameter[H]) applySubstitution(s Substitution[H]) TypeInfo {
	if v, ok := s.Lookup(g); ok {
		return v
	}
	return g
}
