package reflection

import (
	"errors"
	"slices"
	"strings"

	"codemodel/internal/memo"
)

// Attribute wraps a custom attribute record: its type, the constructor used
// and the recorded arguments.
type Attribute[H any] struct {
	staticWrapper[H]

	attrType  memo.Value[*DeclaredType[H]]
	ctor      memo.Value[*Constructor[H]]
	ctorArgs  memo.Value[[]ConstantValue]
	fieldArgs memo.Value[[]FieldArgument]
	propArgs  memo.Value[[]PropertyArgument]
	resolved  memo.Value[resolvedAttribute]
}

type resolvedAttribute struct {
	value any
	err   error
}

func NewAttribute[H any](policy StaticPolicy[H], h H) *Attribute[H] {
	a := &Attribute[H]{}
	a.staticWrapper.init(policy, h, a)
	return a
}

func (a *Attribute[H]) Kind() CodeElementKind {
	return KindAttribute
}

func (a *Attribute[H]) declaredType() *DeclaredType[H] {
	return a.attrType.Get(func() *DeclaredType[H] {
		return TypeDefinition(a.policy, a.policy.AttributeType(a.handle))
	})
}

func (a *Attribute[H]) Type() TypeInfo {
	return a.declaredType()
}

func (a *Attribute[H]) Name() string {
	return a.declaredType().Name()
}

func (a *Attribute[H]) Constructor() ConstructorInfo {
	c := a.ctor.Get(func() *Constructor[H] {
		h, ok := a.policy.AttributeConstructor(a.handle)
		if !ok {
			return nil
		}
		t := a.declaredType()
		return NewConstructor(a.policy, h, t, t)
	})
	if c == nil {
		return nil
	}
	return c
}

func (a *Attribute[H]) ConstructorArguments() []ConstantValue {
	return a.ctorArgs.Get(func() []ConstantValue {
		return a.policy.AttributeConstructorArguments(a.handle)
	})
}

func (a *Attribute[H]) FieldArguments() []FieldArgument {
	return a.fieldArgs.Get(func() []FieldArgument {
		named := a.policy.AttributeFieldArguments(a.handle)
		out := make([]FieldArgument, len(named))
		for i, arg := range named {
			out[i] = FieldArgument{
				Name:  arg.Name,
				Field: a.declaredType().Field(arg.Name, BindingPublic|BindingInstance),
				Value: arg.Value,
			}
		}
		return out
	})
}

func (a *Attribute[H]) PropertyArguments() []PropertyArgument {
	return a.propArgs.Get(func() []PropertyArgument {
		named := a.policy.AttributePropertyArguments(a.handle)
		out := make([]PropertyArgument, len(named))
		for i, arg := range named {
			prop, _ := a.declaredType().Property(arg.Name, BindingPublic|BindingInstance)
			out[i] = PropertyArgument{Name: arg.Name, Property: prop, Value: arg.Value}
		}
		return out
	})
}

func (a *Attribute[H]) NamedValue(name string) (ConstantValue, bool) {
	for _, arg := range a.policy.AttributeFieldArguments(a.handle) {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	for _, arg := range a.policy.AttributePropertyArguments(a.handle) {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return ConstantValue{}, false
}

// Resolve builds the attribute instance once through the policy.
func (a *Attribute[H]) Resolve() (any, error) {
	r := a.resolved.Get(func() resolvedAttribute {
		v, err := a.policy.ResolveAttribute(a)
		var ctorErr *AttributeConstructionError
		if err != nil && !errors.As(err, &ctorErr) {
			err = &AttributeConstructionError{AttributeType: attributeName(a.Type()), Err: err}
		}
		return resolvedAttribute{value: v, err: err}
	})
	return r.value, r.err
}

func (a *Attribute[H]) declaredAttributes() []AttributeInfo {
	return nil
}

func (a *Attribute[H]) CodeLocation() (CodeLocation, error) {
	return UnknownLocation, nil
}

func (a *Attribute[H]) CodeReference() CodeReference {
	ref := a.declaredType().CodeReference()
	ref.Kind = KindAttribute
	return ref
}

func (a *Attribute[H]) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(a.declaredType().String())
	args := a.ConstructorArguments()
	named := slices.Concat(a.policy.AttributeFieldArguments(a.handle), a.policy.AttributePropertyArguments(a.handle))
	if len(args) != 0 || len(named) != 0 {
		sb.WriteByte('(')
		for i, arg := range args {
			if i != 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(arg.String())
		}
		for i, arg := range named {
			if i != 0 || len(args) != 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(arg.Name)
			sb.WriteString(" = ")
			sb.WriteString(arg.Value.String())
		}
		sb.WriteByte(')')
	}
	sb.WriteByte(']')
	return sb.String()
}

func (a *Attribute[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*Attribute[H])
	return ok && o != nil && a.sameHandle(&o.staticWrapper)
}
