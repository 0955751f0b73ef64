package reflection

import (
	"fmt"
	"iter"

	"codemodel/internal/memo"
)

// staticWrapper holds the policy and handle shared by every static wrapper and
// implements the attribute queries once for all of them.
type staticWrapper[H any] struct {
	policy StaticPolicy[H]
	handle H
	self   attributeSource

	attrs memo.Value[[]AttributeInfo]
}

func (w *staticWrapper[H]) init(policy StaticPolicy[H], handle H, self attributeSource) {
	if policy == nil {
		panic(fmt.Errorf("%w: nil policy", ErrInvalidArgument))
	}
	if isNilHandle(any(handle)) {
		panic(fmt.Errorf("%w: nil handle", ErrInvalidHandle))
	}
	w.policy = policy
	w.handle = handle
	w.self = self
}

func (w *staticWrapper[H]) Handle() H {
	return w.handle
}

func (w *staticWrapper[H]) Policy() StaticPolicy[H] {
	return w.policy
}

func (w *staticWrapper[H]) Hash() uint64 {
	return w.policy.Hash(w.handle)
}

func (w *staticWrapper[H]) sameHandle(other *staticWrapper[H]) bool {
	return samePolicy(w.policy, other.policy) && w.policy.Equal(w.handle, other.handle)
}

func (w *staticWrapper[H]) declaredAttributes() []AttributeInfo {
	return w.attrs.Get(func() []AttributeInfo {
		handles := w.policy.CustomAttributes(w.handle)
		out := make([]AttributeInfo, len(handles))
		for i, h := range handles {
			out[i] = NewAttribute(w.policy, h)
		}
		return out
	})
}

func (w *staticWrapper[H]) inheritedElements() iter.Seq[attributeSource] {
	return noInheritedElements
}

func (w *staticWrapper[H]) AttributeInfos(filter TypeInfo, inherit bool) iter.Seq[AttributeInfo] {
	return effectiveAttributes(w.self, filterName(filter), inherit)
}

func (w *staticWrapper[H]) HasAttribute(filter TypeInfo, inherit bool) bool {
	return hasAttribute(w.AttributeInfos(filter, inherit))
}

func (w *staticWrapper[H]) Attributes(filter TypeInfo, inherit bool) ([]any, error) {
	return resolveAttributes(w.AttributeInfos(filter, inherit))
}

// staticMember is the base of wrappers declared by a type.
type staticMember[H any] struct {
	staticWrapper[H]
	declaringType *DeclaredType[H]
	reflectedType *DeclaredType[H]
}

func (m *staticMember[H]) init(policy StaticPolicy[H], handle H, self attributeSource, declaringType, reflectedType *DeclaredType[H]) {
	m.staticWrapper.init(policy, handle, self)
	if reflectedType == nil {
		reflectedType = declaringType
	}
	m.declaringType = declaringType
	m.reflectedType = reflectedType
}

func (m *staticMember[H]) Name() string {
	return m.policy.MemberName(m.handle)
}

func (m *staticMember[H]) DeclaringType() TypeInfo {
	if m.declaringType == nil {
		return nil
	}
	return m.declaringType
}

func (m *staticMember[H]) ReflectedType() TypeInfo {
	if m.reflectedType == nil {
		return nil
	}
	return m.reflectedType
}

func (m *staticMember[H]) sameMember(other *staticMember[H]) bool {
	if !m.sameHandle(&other.staticWrapper) {
		return false
	}
	return sameDeclaredType(m.declaringType, other.declaringType)
}

// memberReference extends the reference of the declaring type with name.
func (m *staticMember[H]) memberReference(kind CodeElementKind, name string) CodeReference {
	var ref CodeReference
	if m.declaringType != nil {
		ref = m.declaringType.CodeReference()
	}
	ref.Kind = kind
	ref.MemberName = name
	return ref
}

// exactOrDeclaringTypeLocation returns the member's own location, falling back
// to the file of its declaring type.
func (m *staticMember[H]) exactOrDeclaringTypeLocation() (CodeLocation, error) {
	loc, err := m.policy.MemberSourceLocation(m.handle)
	if err != nil || !loc.IsUnknown() {
		return loc, err
	}
	if m.declaringType == nil {
		return UnknownLocation, nil
	}
	return m.declaringType.CodeLocation()
}

func sameDeclaredType[H any](a, b *DeclaredType[H]) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

func sameTypes(a, b []TypeInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}
