package reflection

import (
	"fmt"
	"iter"

	"codemodel/internal/memo"
)

// parameterOwner is a member whose parameters are substituted along with it.
type parameterOwner[H any] interface {
	MemberInfo
	substitution() Substitution[H]
}

// function is the shared part of methods and constructors.
type function[H any] struct {
	staticMember[H]
	owner parameterOwner[H]

	params memo.Value[[]*Parameter[H]]
}

func (f *function[H]) init(policy StaticPolicy[H], h H, owner parameterOwner[H], self attributeSource, declaringType, reflectedType *DeclaredType[H]) {
	if declaringType == nil {
		panic(fmt.Errorf("%w: %s has no declaring type", ErrInvalidArgument, policy.MemberName(h)))
	}
	f.staticMember.init(policy, h, self, declaringType, reflectedType)
	f.owner = owner
}

func (f *function[H]) MethodAttributes() MethodAttributes {
	return f.policy.FunctionAttributes(f.handle)
}

func (f *function[H]) CallingConvention() CallingConventions {
	return f.policy.FunctionCallingConvention(f.handle)
}

func (f *function[H]) parameters() []*Parameter[H] {
	return f.params.Get(func() []*Parameter[H] {
		handles := f.policy.FunctionParameters(f.handle)
		out := make([]*Parameter[H], len(handles))
		for i, h := range handles {
			out[i] = NewParameter(f.policy, h, f.owner)
		}
		return out
	})
}

func (f *function[H]) Parameters() []ParameterInfo {
	params := f.parameters()
	out := make([]ParameterInfo, len(params))
	for i, p := range params {
		out[i] = p
	}
	return out
}

func (f *function[H]) IsStatic() bool   { return f.MethodAttributes()&MethodStatic != 0 }
func (f *function[H]) IsPublic() bool   { return f.MethodAttributes().Access() == MethodPublic }
func (f *function[H]) IsAbstract() bool { return f.MethodAttributes()&MethodAbstract != 0 }
func (f *function[H]) IsVirtual() bool  { return f.MethodAttributes()&MethodVirtual != 0 }
func (f *function[H]) IsFinal() bool    { return f.MethodAttributes()&MethodFinal != 0 }

func (f *function[H]) isHideBySig() bool {
	return f.MethodAttributes()&MethodHideBySig != 0
}

func (f *function[H]) CodeLocation() (CodeLocation, error) {
	return f.policy.MemberSourceLocation(f.handle)
}

// Method wraps a method declaration. Its substitution layers the method's own
// generic arguments over those of the declaring type.
type Method[H any] struct {
	function[H]
	subst Substitution[H]

	genericParams memo.Value[[]*GenericParameter[H]]
	genericArgs   memo.Value[[]TypeInfo]
	returnParam   memo.Value[*Parameter[H]]
	signature     memo.Value[string]
}

// NewMethod wraps method handle h. It panics with ErrInvalidArgument when
// declaringType is nil; reflectedType defaults to declaringType.
func NewMethod[H any](policy StaticPolicy[H], h H, declaringType, reflectedType *DeclaredType[H], subst Substitution[H]) *Method[H] {
	m := &Method[H]{subst: subst}
	m.function.init(policy, h, m, m, declaringType, reflectedType)
	return m
}

func (m *Method[H]) Kind() CodeElementKind {
	return KindMethod
}

func (m *Method[H]) substitution() Substitution[H] {
	return m.subst
}

func (m *Method[H]) genericParameters() []*GenericParameter[H] {
	return m.genericParams.Get(func() []*GenericParameter[H] {
		handles := m.policy.MethodGenericParameters(m.handle)
		out := make([]*GenericParameter[H], len(handles))
		for i, h := range handles {
			out[i] = NewGenericParameter(m.policy, h, nil, m)
		}
		return out
	})
}

func (m *Method[H]) GenericArguments() []TypeInfo {
	return m.genericArgs.Get(func() []TypeInfo {
		return m.subst.applyParams(m.genericParameters())
	})
}

func (m *Method[H]) IsGenericMethod() bool {
	return len(m.genericParameters()) != 0
}

func (m *Method[H]) IsGenericMethodDefinition() bool {
	params := m.genericParameters()
	return len(params) != 0 && m.subst.DoesNotContainAny(params)
}

func (m *Method[H]) ContainsGenericParameters() bool {
	for _, arg := range m.GenericArguments() {
		if arg.ContainsGenericParameters() {
			return true
		}
	}
	return m.declaringType.ContainsGenericParameters()
}

// GenericMethodDefinition returns the method with its own generic parameters
// unsubstituted, or nil when the method is not generic.
func (m *Method[H]) GenericMethodDefinition() MethodInfo {
	def := m.genericMethodDefinition()
	if def == nil {
		return nil
	}
	return def
}

func (m *Method[H]) genericMethodDefinition() *Method[H] {
	if !m.IsGenericMethod() {
		return nil
	}
	if m.IsGenericMethodDefinition() {
		return m
	}
	return NewMethod(m.policy, m.handle, m.declaringType, m.reflectedType, m.subst.Remove(m.genericParameters()))
}

func (m *Method[H]) MakeGenericMethod(args ...TypeInfo) (MethodInfo, error) {
	made, err := m.makeGenericMethod(args)
	if err != nil {
		return nil, err
	}
	return made, nil
}

func (m *Method[H]) makeGenericMethod(args []TypeInfo) (*Method[H], error) {
	if !m.IsGenericMethodDefinition() {
		return nil, invalidOperation("%s is not a generic method definition", m)
	}
	subst, err := m.subst.Extend(m.genericParameters(), args)
	if err != nil {
		return nil, err
	}
	return NewMethod(m.policy, m.handle, m.declaringType, m.reflectedType, subst), nil
}

func (m *Method[H]) returnParameter() *Parameter[H] {
	return m.returnParam.Get(func() *Parameter[H] {
		return NewParameter(m.policy, m.policy.MethodReturnParameter(m.handle), m)
	})
}

func (m *Method[H]) ReturnParameter() ParameterInfo {
	return m.returnParameter()
}

func (m *Method[H]) ReturnType() TypeInfo {
	return m.returnParameter().ValueType()
}

// IsOverride reports whether the method is virtual without a new slot.
func (m *Method[H]) IsOverride() bool {
	return m.MethodAttributes()&(MethodVirtual|MethodNewSlot) == MethodVirtual
}

// overriddenOrHidden yields, for each base type, the first method that m
// hides. With overridesOnly the walk only follows overrides and stops at the
// first base method that is not itself an override.
func (m *Method[H]) overriddenOrHidden(overridesOnly bool) iter.Seq[*Method[H]] {
	return func(yield func(*Method[H]) bool) {
		if overridesOnly && !m.IsOverride() {
			return
		}
		for base := m.declaringType.baseDeclaredType(); base != nil; base = base.baseDeclaredType() {
			for _, other := range base.declaredMethods(BindingAll, m.reflectedType) {
				if !m.HidesMethod(other) {
					continue
				}
				if !yield(other) {
					return
				}
				if overridesOnly && !other.IsOverride() {
					return
				}
				break
			}
		}
	}
}

// HidesMethod reports whether m hides other, which must be declared by a base
// type of m's declaring type. Methods not marked hide-by-signature hide by
// name alone.
func (m *Method[H]) HidesMethod(other *Method[H]) bool {
	if m.Name() != other.Name() {
		return false
	}
	if !m.isHideBySig() {
		return true
	}

	params := m.genericParameters()
	otherParams := other.genericParameters()
	if len(params) != len(otherParams) {
		return false
	}
	if len(params) == 0 {
		return sameParameterTypes(m.parameters(), other.parameters())
	}

	args := make([]TypeInfo, len(params))
	for i, p := range params {
		args[i] = p
	}
	def := m.genericMethodDefinition()
	otherDef, err := other.genericMethodDefinition().makeGenericMethod(args)
	if err != nil {
		return false
	}
	return sameParameterTypes(def.parameters(), otherDef.parameters())
}

func sameParameterTypes[H any](a, b []*Parameter[H]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].ValueType().Equals(b[i].ValueType()) {
			return false
		}
	}
	return true
}

func (m *Method[H]) inheritedElements() iter.Seq[attributeSource] {
	return func(yield func(attributeSource) bool) {
		for o := range m.overriddenOrHidden(true) {
			if !yield(o) {
				return
			}
		}
	}
}

func (m *Method[H]) String() string {
	return m.signature.Get(func() string {
		return functionSignature(signatureTypeName(m.ReturnType()), m.Name(), m.GenericArguments(), m.Parameters(), m.CallingConvention())
	})
}

func (m *Method[H]) CodeReference() CodeReference {
	return m.memberReference(KindMethod, m.Name())
}

func (m *Method[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*Method[H])
	if !ok || o == nil {
		return false
	}
	if m == o {
		return true
	}
	return m.sameMember(&o.staticMember) && sameTypes(m.GenericArguments(), o.GenericArguments())
}

// Constructor wraps an instance constructor or a type initializer.
type Constructor[H any] struct {
	function[H]
	signature memo.Value[string]
}

func NewConstructor[H any](policy StaticPolicy[H], h H, declaringType, reflectedType *DeclaredType[H]) *Constructor[H] {
	c := &Constructor[H]{}
	c.function.init(policy, h, c, c, declaringType, reflectedType)
	return c
}

func (c *Constructor[H]) Kind() CodeElementKind {
	return KindConstructor
}

func (c *Constructor[H]) substitution() Substitution[H] {
	return c.declaringType.subst
}

// IsTypeInitializer reports whether this is the static constructor.
func (c *Constructor[H]) IsTypeInitializer() bool {
	return c.IsStatic()
}

func (c *Constructor[H]) String() string {
	return c.signature.Get(func() string {
		return functionSignature("Void", c.Name(), nil, c.Parameters(), c.CallingConvention())
	})
}

func (c *Constructor[H]) CodeReference() CodeReference {
	return c.memberReference(KindConstructor, c.Name())
}

func (c *Constructor[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*Constructor[H])
	return ok && o != nil && c.sameMember(&o.staticMember)
}
