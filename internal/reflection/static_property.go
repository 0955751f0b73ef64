package reflection

import (
	"iter"

	"codemodel/internal/memo"
)

// accessorMember is the shared part of properties and events, whose
// visibility, staticness and overriding follow their accessor methods.
type accessorMember[H any] struct {
	staticMember[H]
}

func (a *accessorMember[H]) accessor(h H, ok bool) *Method[H] {
	if !ok {
		return nil
	}
	return NewMethod(a.policy, h, a.declaringType, a.reflectedType, a.declaringType.subst)
}

func anyAccessor[H any](accessors []*Method[H], pred func(*Method[H]) bool) bool {
	for _, m := range accessors {
		if m != nil && pred(m) {
			return true
		}
	}
	return false
}

func methodInfo[H any](m *Method[H]) MethodInfo {
	if m == nil {
		return nil
	}
	return m
}

// Property wraps a property declaration.
type Property[H any] struct {
	accessorMember[H]

	valueType memo.Value[TypeInfo]
	getter    memo.Value[*Method[H]]
	setter    memo.Value[*Method[H]]
}

func NewProperty[H any](policy StaticPolicy[H], h H, declaringType, reflectedType *DeclaredType[H]) *Property[H] {
	if declaringType == nil {
		panic(invalidArgument("property %s has no declaring type", policy.MemberName(h)))
	}
	p := &Property[H]{}
	p.staticMember.init(policy, h, p, declaringType, reflectedType)
	return p
}

func (p *Property[H]) Kind() CodeElementKind {
	return KindProperty
}

func (p *Property[H]) PropertyAttributes() PropertyAttributes {
	return p.policy.PropertyAttributes(p.handle)
}

func (p *Property[H]) ValueType() TypeInfo {
	return p.valueType.Get(func() TypeInfo {
		return p.declaringType.subst.Apply(p.policy.PropertyType(p.handle))
	})
}

func (p *Property[H]) getMethod() *Method[H] {
	return p.getter.Get(func() *Method[H] {
		return p.accessor(p.policy.PropertyGetMethod(p.handle))
	})
}

func (p *Property[H]) setMethod() *Method[H] {
	return p.setter.Get(func() *Method[H] {
		return p.accessor(p.policy.PropertySetMethod(p.handle))
	})
}

func (p *Property[H]) GetMethod() MethodInfo { return methodInfo(p.getMethod()) }
func (p *Property[H]) SetMethod() MethodInfo { return methodInfo(p.setMethod()) }

func (p *Property[H]) accessors() []*Method[H] {
	return []*Method[H]{p.getMethod(), p.setMethod()}
}

func (p *Property[H]) isPublic() bool {
	return anyAccessor(p.accessors(), (*Method[H]).IsPublic)
}

func (p *Property[H]) isStatic() bool {
	return anyAccessor(p.accessors(), (*Method[H]).IsStatic)
}

func (p *Property[H]) isOverride() bool {
	return anyAccessor(p.accessors(), (*Method[H]).IsOverride)
}

// overriddenOrHidden yields, for each base type, the property of the same
// name that p overrides or hides.
func (p *Property[H]) overriddenOrHidden(overridesOnly bool) iter.Seq[*Property[H]] {
	return func(yield func(*Property[H]) bool) {
		if overridesOnly && !p.isOverride() {
			return
		}
		name := p.Name()
		for base := p.declaringType.baseDeclaredType(); base != nil; base = base.baseDeclaredType() {
			for _, other := range base.declaredProperties(BindingAll, p.reflectedType) {
				if other.Name() != name {
					continue
				}
				if !yield(other) {
					return
				}
				if overridesOnly && !other.isOverride() {
					return
				}
				break
			}
		}
	}
}

func (p *Property[H]) inheritedElements() iter.Seq[attributeSource] {
	return func(yield func(attributeSource) bool) {
		for o := range p.overriddenOrHidden(true) {
			if !yield(o) {
				return
			}
		}
	}
}

func (p *Property[H]) CodeLocation() (CodeLocation, error) {
	return p.exactOrDeclaringTypeLocation()
}

func (p *Property[H]) CodeReference() CodeReference {
	return p.memberReference(KindProperty, p.Name())
}

func (p *Property[H]) String() string {
	return memberSignature(p.ValueType(), p.Name())
}

func (p *Property[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*Property[H])
	return ok && o != nil && p.sameMember(&o.staticMember)
}

// Event wraps an event declaration.
type Event[H any] struct {
	accessorMember[H]

	handlerType memo.Value[TypeInfo]
	adder       memo.Value[*Method[H]]
	remover     memo.Value[*Method[H]]
	raiser      memo.Value[*Method[H]]
}

func NewEvent[H any](policy StaticPolicy[H], h H, declaringType, reflectedType *DeclaredType[H]) *Event[H] {
	if declaringType == nil {
		panic(invalidArgument("event %s has no declaring type", policy.MemberName(h)))
	}
	e := &Event[H]{}
	e.staticMember.init(policy, h, e, declaringType, reflectedType)
	return e
}

func (e *Event[H]) Kind() CodeElementKind {
	return KindEvent
}

func (e *Event[H]) EventAttributes() EventAttributes {
	return e.policy.EventAttributes(e.handle)
}

func (e *Event[H]) EventHandlerType() TypeInfo {
	return e.handlerType.Get(func() TypeInfo {
		return e.declaringType.subst.Apply(e.policy.EventHandlerType(e.handle))
	})
}

func (e *Event[H]) addMethod() *Method[H] {
	return e.adder.Get(func() *Method[H] {
		return e.accessor(e.policy.EventAddMethod(e.handle))
	})
}

func (e *Event[H]) removeMethod() *Method[H] {
	return e.remover.Get(func() *Method[H] {
		return e.accessor(e.policy.EventRemoveMethod(e.handle))
	})
}

func (e *Event[H]) raiseMethod() *Method[H] {
	return e.raiser.Get(func() *Method[H] {
		return e.accessor(e.policy.EventRaiseMethod(e.handle))
	})
}

func (e *Event[H]) AddMethod() MethodInfo    { return methodInfo(e.addMethod()) }
func (e *Event[H]) RemoveMethod() MethodInfo { return methodInfo(e.removeMethod()) }
func (e *Event[H]) RaiseMethod() MethodInfo  { return methodInfo(e.raiseMethod()) }

func (e *Event[H]) accessors() []*Method[H] {
	return []*Method[H]{e.addMethod(), e.removeMethod(), e.raiseMethod()}
}

func (e *Event[H]) isPublic() bool {
	return anyAccessor(e.accessors(), (*Method[H]).IsPublic)
}

func (e *Event[H]) isStatic() bool {
	return anyAccessor(e.accessors(), (*Method[H]).IsStatic)
}

func (e *Event[H]) isOverride() bool {
	return anyAccessor(e.accessors(), (*Method[H]).IsOverride)
}

func (e *Event[H]) overriddenOrHidden(overridesOnly bool) iter.Seq[*Event[H]] {
	return func(yield func(*Event[H]) bool) {
		if overridesOnly && !e.isOverride() {
			return
		}
		name := e.Name()
		for base := e.declaringType.baseDeclaredType(); base != nil; base = base.baseDeclaredType() {
			for _, other := range base.declaredEvents(BindingAll, e.reflectedType) {
				if other.Name() != name {
					continue
				}
				if !yield(other) {
					return
				}
				if overridesOnly && !other.isOverride() {
					return
				}
				break
			}
		}
	}
}

func (e *Event[H]) inheritedElements() iter.Seq[attributeSource] {
	return func(yield func(attributeSource) bool) {
		for o := range e.overriddenOrHidden(true) {
			if !yield(o) {
				return
			}
		}
	}
}

func (e *Event[H]) CodeLocation() (CodeLocation, error) {
	return e.exactOrDeclaringTypeLocation()
}

func (e *Event[H]) CodeReference() CodeReference {
	return e.memberReference(KindEvent, e.Name())
}

func (e *Event[H]) String() string {
	return memberSignature(e.EventHandlerType(), e.Name())
}

func (e *Event[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*Event[H])
	return ok && o != nil && e.sameMember(&o.staticMember)
}
