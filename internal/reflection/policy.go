package reflection

import (
	"fmt"
	"hash/maphash"
	"reflect"
)

// StaticPolicy is the contract a metadata source implements so that its
// declarations can be presented through the wrappers of this package.
//
// Handles are opaque to the wrappers. Member lists are declared-only: the
// wrappers walk inheritance themselves. Type-valued answers (base types,
// parameter types, constraints, constants) are returned unsubstituted, built
// with TypeDefinition, GenericParameterDefinition and the Make* methods of
// the resulting types. Implementations must be comparable, typically pointers.
type StaticPolicy[H any] interface {
	Equal(a, b H) bool
	Hash(h H) uint64

	// WellKnownType returns the handle of a core type, if the backend has it.
	WellKnownType(w WellKnownType) (H, bool)
	// ResolveAttribute builds an instance of a static attribute.
	ResolveAttribute(attr AttributeInfo) (any, error)
	// CustomAttributes returns the attribute handles declared directly on any element.
	CustomAttributes(h H) []H

	AssemblyName(a H) AssemblyName
	AssemblyPath(a H) string
	AssemblyReferences(a H) []AssemblyReference
	AssemblyTypes(a H) []H
	AssemblyType(a H, fullName string) (H, bool)

	AttributeType(attr H) H
	AttributeConstructor(attr H) (H, bool)
	AttributeConstructorArguments(attr H) []ConstantValue
	AttributeFieldArguments(attr H) []NamedArgument
	AttributePropertyArguments(attr H) []NamedArgument

	MemberName(m H) string
	// MemberDeclaringType returns the declaring type of a member or nested type.
	MemberDeclaringType(m H) (H, bool)
	// MemberSourceLocation returns the exact location of a member when known.
	MemberSourceLocation(m H) (CodeLocation, error)

	TypeAttributes(t H) TypeAttributes
	TypeAssembly(t H) H
	TypeNamespace(t H) string
	TypeBaseType(t H) TypeInfo
	TypeInterfaces(t H) []TypeInfo
	TypeGenericParameters(t H) []H
	TypeConstructors(t H) []H
	TypeMethods(t H) []H
	TypeProperties(t H) []H
	TypeFields(t H) []H
	TypeEvents(t H) []H
	TypeNestedTypes(t H) []H

	GenericParameterAttributes(g H) GenericParameterAttributes
	GenericParameterPosition(g H) int
	GenericParameterConstraints(g H) []TypeInfo
	// GenericParameterOwner returns the declaring type or method of a generic parameter.
	GenericParameterOwner(g H) (owner H, isMethod bool)

	FunctionAttributes(f H) MethodAttributes
	FunctionCallingConvention(f H) CallingConventions
	FunctionParameters(f H) []H
	MethodGenericParameters(m H) []H
	MethodReturnParameter(m H) H

	ParameterAttributes(p H) ParameterAttributes
	ParameterName(p H) string
	ParameterPosition(p H) int
	ParameterType(p H) TypeInfo

	FieldAttributes(f H) FieldAttributes
	FieldType(f H) TypeInfo

	PropertyAttributes(p H) PropertyAttributes
	PropertyType(p H) TypeInfo
	PropertyGetMethod(p H) (H, bool)
	PropertySetMethod(p H) (H, bool)

	EventAttributes(e H) EventAttributes
	EventHandlerType(e H) TypeInfo
	EventAddMethod(e H) (H, bool)
	EventRemoveMethod(e H) (H, bool)
	EventRaiseMethod(e H) (H, bool)
}

// StaticElement is implemented by every wrapper backed by a StaticPolicy.
type StaticElement[H any] interface {
	CodeElementInfo
	Handle() H
	Policy() StaticPolicy[H]
}

var handleSeed = maphash.MakeSeed()

// BasePolicy supplies handle equality and hashing for backends whose handles
// are comparable. Embed it and override when the backend knows better.
type BasePolicy[H comparable] struct{}

func (BasePolicy[H]) Equal(a, b H) bool {
	return a == b
}

func (BasePolicy[H]) Hash(h H) uint64 {
	return maphash.Comparable(handleSeed, h)
}

// TypeDefinition wraps the unsubstituted declaration of h, including its chain
// of declaring types.
func TypeDefinition[H any](p StaticPolicy[H], h H) *DeclaredType[H] {
	var declaringType *DeclaredType[H]
	if parent, ok := p.MemberDeclaringType(h); ok {
		declaringType = TypeDefinition(p, parent)
	}
	var subst Substitution[H]
	if declaringType != nil {
		subst = declaringType.Substitution()
	}
	return NewDeclaredType(p, h, declaringType, subst)
}

// MethodDefinition wraps the unsubstituted declaration of method h.
func MethodDefinition[H any](p StaticPolicy[H], h H) *Method[H] {
	parent, ok := p.MemberDeclaringType(h)
	if !ok {
		panic(fmt.Errorf("%w: method %s has no declaring type", ErrInvalidHandle, p.MemberName(h)))
	}
	declaringType := TypeDefinition(p, parent)
	return NewMethod(p, h, declaringType, declaringType, declaringType.Substitution())
}

// GenericParameterDefinition wraps generic parameter g with its declaring type or method.
func GenericParameterDefinition[H any](p StaticPolicy[H], g H) *GenericParameter[H] {
	owner, isMethod := p.GenericParameterOwner(g)
	if isMethod {
		return NewGenericParameter(p, g, nil, MethodDefinition(p, owner))
	}
	return NewGenericParameter(p, g, TypeDefinition(p, owner), nil)
}

func wellKnown[H any](p StaticPolicy[H], w WellKnownType) *DeclaredType[H] {
	h, ok := p.WellKnownType(w)
	if !ok {
		return nil
	}
	return TypeDefinition(p, h)
}

func isNilHandle(h any) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func samePolicy[H any](a, b StaticPolicy[H]) bool {
	return any(a) == any(b)
}
