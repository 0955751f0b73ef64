package reflection

import (
	"fmt"
	"iter"

	"codemodel/internal/memo"
)

// Parameter wraps a parameter of a method or constructor, or a method's
// return parameter.
type Parameter[H any] struct {
	staticWrapper[H]
	member parameterOwner[H]

	valueType memo.Value[TypeInfo]
}

// NewParameter panics with ErrInvalidArgument unless member is a method or
// constructor of the same policy.
func NewParameter[H any](policy StaticPolicy[H], h H, member MemberInfo) *Parameter[H] {
	owner, ok := member.(parameterOwner[H])
	if !ok || member == nil {
		panic(fmt.Errorf("%w: parameter owner must be a static method or constructor", ErrInvalidArgument))
	}
	p := &Parameter[H]{member: owner}
	p.staticWrapper.init(policy, h, p)
	return p
}

func (p *Parameter[H]) Kind() CodeElementKind {
	return KindParameter
}

func (p *Parameter[H]) Name() string {
	return p.policy.ParameterName(p.handle)
}

func (p *Parameter[H]) Member() MemberInfo {
	return p.member
}

func (p *Parameter[H]) Position() int {
	return p.policy.ParameterPosition(p.handle)
}

func (p *Parameter[H]) ParameterAttributes() ParameterAttributes {
	return p.policy.ParameterAttributes(p.handle)
}

func (p *Parameter[H]) ValueType() TypeInfo {
	return p.valueType.Get(func() TypeInfo {
		return p.member.substitution().Apply(p.policy.ParameterType(p.handle))
	})
}

func (p *Parameter[H]) CodeLocation() (CodeLocation, error) {
	return p.member.CodeLocation()
}

func (p *Parameter[H]) CodeReference() CodeReference {
	ref := p.member.CodeReference()
	ref.Kind = KindParameter
	ref.ParameterName = p.Name()
	return ref
}

func (p *Parameter[H]) String() string {
	return signatureTypeName(p.ValueType()) + " " + p.Name()
}

func (p *Parameter[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*Parameter[H])
	return ok && o != nil && p.sameHandle(&o.staticWrapper) && p.member.Equals(o.member)
}

// inheritedElements yields the parameter at the same position in each method
// the owning method overrides.
func (p *Parameter[H]) inheritedElements() iter.Seq[attributeSource] {
	return func(yield func(attributeSource) bool) {
		m, ok := p.member.(*Method[H])
		if !ok {
			return
		}
		pos := p.Position()
		for o := range m.overriddenOrHidden(true) {
			var match *Parameter[H]
			if pos < 0 {
				match = o.returnParameter()
			} else if params := o.parameters(); pos < len(params) {
				match = params[pos]
			}
			if match != nil && !yield(match) {
				return
			}
		}
	}
}
