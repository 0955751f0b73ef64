package reflection

import "codemodel/internal/memo"

// Field wraps a field declaration.
type Field[H any] struct {
	staticMember[H]

	valueType memo.Value[TypeInfo]
}

func NewField[H any](policy StaticPolicy[H], h H, declaringType, reflectedType *DeclaredType[H]) *Field[H] {
	if declaringType == nil {
		panic(invalidArgument("field %s has no declaring type", policy.MemberName(h)))
	}
	f := &Field[H]{}
	f.staticMember.init(policy, h, f, declaringType, reflectedType)
	return f
}

func (f *Field[H]) Kind() CodeElementKind {
	return KindField
}

func (f *Field[H]) FieldAttributes() FieldAttributes {
	return f.policy.FieldAttributes(f.handle)
}

func (f *Field[H]) ValueType() TypeInfo {
	return f.valueType.Get(func() TypeInfo {
		return f.declaringType.subst.Apply(f.policy.FieldType(f.handle))
	})
}

func (f *Field[H]) IsStatic() bool   { return f.FieldAttributes()&FieldStatic != 0 }
func (f *Field[H]) IsPublic() bool   { return f.FieldAttributes().Access() == FieldPublic }
func (f *Field[H]) IsLiteral() bool  { return f.FieldAttributes()&FieldLiteral != 0 }
func (f *Field[H]) IsInitOnly() bool { return f.FieldAttributes()&FieldInitOnly != 0 }

func (f *Field[H]) CodeLocation() (CodeLocation, error) {
	return f.exactOrDeclaringTypeLocation()
}

func (f *Field[H]) CodeReference() CodeReference {
	return f.memberReference(KindField, f.Name())
}

func (f *Field[H]) String() string {
	return memberSignature(f.ValueType(), f.Name())
}

func (f *Field[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*Field[H])
	return ok && o != nil && f.sameMember(&o.staticMember)
}
