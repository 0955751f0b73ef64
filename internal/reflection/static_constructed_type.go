package reflection

import (
	"fmt"
	"iter"

	"codemodel/internal/memo"
)

// delegatedMembers forwards member queries to an effective type.
type delegatedMembers struct {
	effective func() TypeInfo
}

func (d delegatedMembers) target() TypeInfo {
	if d.effective == nil {
		return nil
	}
	return d.effective()
}

func (d delegatedMembers) Constructors(flags BindingFlags) []ConstructorInfo {
	if t := d.target(); t != nil {
		return t.Constructors(flags)
	}
	return nil
}

func (d delegatedMembers) Methods(flags BindingFlags) []MethodInfo {
	if t := d.target(); t != nil {
		return t.Methods(flags)
	}
	return nil
}

func (d delegatedMembers) Method(name string, flags BindingFlags) (MethodInfo, error) {
	if t := d.target(); t != nil {
		return t.Method(name, flags)
	}
	return nil, nil
}

func (d delegatedMembers) Properties(flags BindingFlags) []PropertyInfo {
	if t := d.target(); t != nil {
		return t.Properties(flags)
	}
	return nil
}

func (d delegatedMembers) Property(name string, flags BindingFlags) (PropertyInfo, error) {
	if t := d.target(); t != nil {
		return t.Property(name, flags)
	}
	return nil, nil
}

func (d delegatedMembers) Fields(flags BindingFlags) []FieldInfo {
	if t := d.target(); t != nil {
		return t.Fields(flags)
	}
	return nil
}

func (d delegatedMembers) Field(name string, flags BindingFlags) FieldInfo {
	if t := d.target(); t != nil {
		return t.Field(name, flags)
	}
	return nil
}

func (d delegatedMembers) Events(flags BindingFlags) []EventInfo {
	if t := d.target(); t != nil {
		return t.Events(flags)
	}
	return nil
}

func (d delegatedMembers) Event(name string, flags BindingFlags) (EventInfo, error) {
	if t := d.target(); t != nil {
		return t.Event(name, flags)
	}
	return nil, nil
}

func (d delegatedMembers) NestedTypes(flags BindingFlags) []TypeInfo {
	if t := d.target(); t != nil {
		return t.NestedTypes(flags)
	}
	return nil
}

func (d delegatedMembers) NestedType(name string, flags BindingFlags) TypeInfo {
	if t := d.target(); t != nil {
		return t.NestedType(name, flags)
	}
	return nil
}

func (d delegatedMembers) Members(flags BindingFlags) []MemberInfo {
	if t := d.target(); t != nil {
		return t.Members(flags)
	}
	return nil
}

// constructedType is the shared part of array, pointer and by-ref types. They
// take their identity from the element type and carry no attributes.
type constructedType[H any] struct {
	delegatedMembers
	policy StaticPolicy[H]
	elem   TypeInfo
	self   TypeInfo
	suffix string
}

func (c *constructedType[H]) init(policy StaticPolicy[H], elem TypeInfo, self TypeInfo, suffix string) {
	if policy == nil {
		panic(fmt.Errorf("%w: nil policy", ErrInvalidArgument))
	}
	if elem == nil {
		panic(fmt.Errorf("%w: nil element type", ErrInvalidArgument))
	}
	c.policy = policy
	c.elem = elem
	c.self = self
	c.suffix = suffix
}

func (c *constructedType[H]) Kind() CodeElementKind           { return KindType }
func (c *constructedType[H]) Name() string                    { return c.elem.Name() + c.suffix }
func (c *constructedType[H]) String() string                  { return c.elem.String() + c.suffix }
func (c *constructedType[H]) ElementType() TypeInfo           { return c.elem }
func (c *constructedType[H]) Assembly() AssemblyInfo          { return c.elem.Assembly() }
func (c *constructedType[H]) Namespace() NamespaceInfo        { return c.elem.Namespace() }
func (c *constructedType[H]) NamespaceName() string           { return c.elem.NamespaceName() }
func (c *constructedType[H]) TypeAttributes() TypeAttributes  { return TypePublic | TypeSealed }
func (c *constructedType[H]) DeclaringType() TypeInfo         { return nil }
func (c *constructedType[H]) ReflectedType() TypeInfo         { return nil }
func (c *constructedType[H]) IsGenericParameter() bool        { return false }
func (c *constructedType[H]) IsGenericType() bool             { return false }
func (c *constructedType[H]) IsGenericTypeDefinition() bool   { return false }
func (c *constructedType[H]) IsNested() bool                  { return false }
func (c *constructedType[H]) GenericArguments() []TypeInfo    { return nil }
func (c *constructedType[H]) GenericTypeDefinition() TypeInfo { return nil }

func (c *constructedType[H]) GenericParameters() []GenericParameterInfo {
	return nil
}

func (c *constructedType[H]) ContainsGenericParameters() bool {
	return c.elem.ContainsGenericParameters()
}

func (c *constructedType[H]) FullName() string {
	name := c.elem.FullName()
	if name == "" {
		return ""
	}
	return name + c.suffix
}

func (c *constructedType[H]) AssemblyQualifiedName() string {
	name := c.FullName()
	if name == "" {
		return ""
	}
	return name + ", " + c.Assembly().FullName()
}

func (c *constructedType[H]) CodeReference() CodeReference {
	ref := c.elem.CodeReference()
	ref.Kind = KindType
	ref.TypeName = c.String()
	return ref
}

func (c *constructedType[H]) CodeLocation() (CodeLocation, error) {
	return c.elem.CodeLocation()
}

func (c *constructedType[H]) AttributeInfos(TypeInfo, bool) iter.Seq[AttributeInfo] {
	return func(func(AttributeInfo) bool) {}
}

func (c *constructedType[H]) HasAttribute(TypeInfo, bool) bool {
	return false
}

func (c *constructedType[H]) Attributes(TypeInfo, bool) ([]any, error) {
	return nil, nil
}

func (c *constructedType[H]) MakeGenericType(...TypeInfo) (TypeInfo, error) {
	return nil, invalidOperation("%s is not a generic type definition", c.self)
}

func (c *constructedType[H]) MakeArrayType(rank int) (TypeInfo, error) {
	return makeArrayType(c.policy, c.self, rank)
}

func (c *constructedType[H]) MakePointerType() TypeInfo {
	return NewPointerType(c.policy, c.self)
}

func (c *constructedType[H]) MakeByRefType() TypeInfo {
	return NewByRefType(c.policy, c.self)
}

func (c *constructedType[H]) IsAssignableFrom(other TypeInfo) bool {
	return isAssignableFrom(c.self, other)
}

func (c *constructedType[H]) IsSubclassOf(other TypeInfo) bool {
	return isSubclassOf(c.self, other)
}

func (c *constructedType[H]) hashWith(salt uint64) uint64 {
	return c.elem.Hash()*31 + salt
}

// ArrayType is an array of rank one or more over an element type. Its members
// are those of the well-known array type and it implements the generic list
// interface over its element type.
type ArrayType[H any] struct {
	constructedType[H]
	rank int

	interfaces memo.Value[[]TypeInfo]
}

// NewArrayType panics with ErrInvalidArgument when rank is less than one.
func NewArrayType[H any](policy StaticPolicy[H], elem TypeInfo, rank int) *ArrayType[H] {
	if rank < 1 {
		panic(fmt.Errorf("%w: array rank %d must be at least 1", ErrInvalidArgument, rank))
	}
	a := &ArrayType[H]{rank: rank}
	a.constructedType.init(policy, elem, a, arraySuffix(rank))
	a.effective = func() TypeInfo {
		if arr := wellKnown(policy, WellKnownArray); arr != nil {
			return arr
		}
		return nil
	}
	return a
}

func makeArrayType[H any](policy StaticPolicy[H], elem TypeInfo, rank int) (TypeInfo, error) {
	if rank < 1 {
		return nil, invalidArgument("array rank %d must be at least 1", rank)
	}
	return NewArrayType(policy, elem, rank), nil
}

func (a *ArrayType[H]) IsArray() bool   { return true }
func (a *ArrayType[H]) IsPointer() bool { return false }
func (a *ArrayType[H]) IsByRef() bool   { return false }
func (a *ArrayType[H]) ArrayRank() int  { return a.rank }

func (a *ArrayType[H]) BaseType() TypeInfo {
	if arr := wellKnown(a.policy, WellKnownArray); arr != nil {
		return arr
	}
	return nil
}

func (a *ArrayType[H]) Interfaces() []TypeInfo {
	return a.interfaces.Get(func() []TypeInfo {
		set := newElementSet[TypeInfo]()
		if list := wellKnown(a.policy, WellKnownGenericList); list != nil {
			if instance, err := list.MakeGenericType(a.elem); err == nil {
				set.Add(instance)
				for _, iface := range instance.Interfaces() {
					set.Add(iface)
				}
			}
		}
		if base := a.BaseType(); base != nil {
			for _, iface := range base.Interfaces() {
				set.Add(iface)
			}
		}
		return set.Items()
	})
}

func (a *ArrayType[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*ArrayType[H])
	return ok && o != nil && a.rank == o.rank && a.elem.Equals(o.elem)
}

func (a *ArrayType[H]) Hash() uint64 {
	return a.hashWith(uint64(a.rank))
}

func (a *ArrayType[H]) applySubstitution(s Substitution[H]) TypeInfo {
	return NewArrayType(a.policy, s.Apply(a.elem), a.rank)
}

// PointerType is an unmanaged pointer to an element type. It has no members.
type PointerType[H any] struct {
	constructedType[H]
}

func NewPointerType[H any](policy StaticPolicy[H], elem TypeInfo) *PointerType[H] {
	p := &PointerType[H]{}
	p.constructedType.init(policy, elem, p, "*")
	return p
}

func (p *PointerType[H]) IsArray() bool          { return false }
func (p *PointerType[H]) IsPointer() bool        { return true }
func (p *PointerType[H]) IsByRef() bool          { return false }
func (p *PointerType[H]) ArrayRank() int         { return 0 }
func (p *PointerType[H]) BaseType() TypeInfo     { return nil }
func (p *PointerType[H]) Interfaces() []TypeInfo { return nil }

func (p *PointerType[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*PointerType[H])
	return ok && o != nil && p.elem.Equals(o.elem)
}

func (p *PointerType[H]) Hash() uint64 {
	return p.hashWith(0x2a)
}

func (p *PointerType[H]) applySubstitution(s Substitution[H]) TypeInfo {
	return NewPointerType(p.policy, s.Apply(p.elem))
}

// ByRefType is a reference to a storage location of an element type. It has no members.
type ByRefType[H any] struct {
	constructedType[H]
}

func NewByRefType[H any](policy StaticPolicy[H], elem TypeInfo) *ByRefType[H] {
	b := &ByRefType[H]{}
	b.constructedType.init(policy, elem, b, "&")
	return b
}

func (b *ByRefType[H]) IsArray() bool          { return false }
func (b *ByRefType[H]) IsPointer() bool        { return false }
func (b *ByRefType[H]) IsByRef() bool          { return true }
func (b *ByRefType[H]) ArrayRank() int         { return 0 }
func (b *ByRefType[H]) BaseType() TypeInfo     { return nil }
func (b *ByRefType[H]) Interfaces() []TypeInfo { return nil }

func (b *ByRefType[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*ByRefType[H])
	return ok && o != nil && b.elem.Equals(o.elem)
}

func (b *ByRefType[H]) Hash() uint64 {
	return b.hashWith(0x26)
}

func (b *ByRefType[H]) applySubstitution(s Substitution[H]) TypeInfo {
	return NewByRefType(b.policy, s.Apply(b.elem))
}

