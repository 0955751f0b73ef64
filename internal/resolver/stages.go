package resolver

import (
	"fmt"

	"codemodel/internal/live"
	"codemodel/internal/reflection"
)

// HandleStage binds elements that the live policy itself produced.
type HandleStage struct {
	policy *live.Policy
}

func NewHandleStage(p *live.Policy) *HandleStage {
	return &HandleStage{policy: p}
}

func (s *HandleStage) Name() string {
	return "handle"
}

func (s *HandleStage) Bind(elem reflection.CodeElementInfo) (reflection.Declared, error) {
	var (
		v  reflection.Declared
		ok bool
	)
	switch e := elem.(type) {
	case reflection.AssemblyInfo:
		v, ok = bindAs(s.policy.BindAssembly, e)
	case reflection.MethodInfo:
		v, ok = bindAs(s.policy.BindMethod, e)
	case reflection.ConstructorInfo:
		v, ok = bindAs(s.policy.BindConstructor, e)
	case reflection.FieldInfo:
		v, ok = bindAs(s.policy.BindField, e)
	case reflection.PropertyInfo:
		v, ok = bindAs(s.policy.BindProperty, e)
	case reflection.EventInfo:
		v, ok = bindAs(s.policy.BindEvent, e)
	case reflection.ParameterInfo:
		v, ok = bindAs(s.policy.BindParameter, e)
	case reflection.TypeInfo:
		v, ok = bindAs(s.policy.BindType, e)
	}
	if !ok {
		return nil, ErrNoMatch
	}
	return v, nil
}

func bindAs[I any, O reflection.Declared](bind func(I) (O, bool), in I) (reflection.Declared, bool) {
	out, ok := bind(in)
	if !ok {
		return nil, false
	}
	return out, true
}

// RegistryStage binds declarations of other backends to registered Go types
// with the same unit name and full name. Members match by name; overloads
// are told apart by parameter count, then by parameter type names.
type RegistryStage struct {
	policy *live.Policy
	handle *HandleStage
}

func NewRegistryStage(p *live.Policy) *RegistryStage {
	return &RegistryStage{policy: p, handle: NewHandleStage(p)}
}

func (s *RegistryStage) Name() string {
	return "registry"
}

const allDeclared = reflection.BindingAll | reflection.BindingDeclaredOnly

func (s *RegistryStage) Bind(elem reflection.CodeElementInfo) (reflection.Declared, error) {
	target, err := s.locate(elem)
	if err != nil {
		return nil, err
	}
	return s.handle.Bind(target)
}

// locate finds the live declaration matching elem.
func (s *RegistryStage) locate(elem reflection.CodeElementInfo) (reflection.CodeElementInfo, error) {
	switch e := elem.(type) {
	case reflection.AssemblyInfo:
		a, ok := s.policy.Assembly(e.Name())
		if !ok {
			return nil, ErrNoMatch
		}
		return a, nil
	case reflection.MethodInfo:
		t, err := s.declaringType(e)
		if err != nil {
			return nil, err
		}
		var candidates []reflection.FunctionInfo
		for _, m := range t.Methods(allDeclared) {
			if m.Name() == e.Name() {
				candidates = append(candidates, m)
			}
		}
		return pickOverload(e, candidates)
	case reflection.ConstructorInfo:
		t, err := s.declaringType(e)
		if err != nil {
			return nil, err
		}
		var candidates []reflection.FunctionInfo
		for _, c := range t.Constructors(reflection.BindingAll) {
			candidates = append(candidates, c)
		}
		return pickOverload(e, candidates)
	case reflection.FieldInfo:
		t, err := s.declaringType(e)
		if err != nil {
			return nil, err
		}
		if f := t.Field(e.Name(), allDeclared); f != nil {
			return f, nil
		}
		return nil, ErrNoMatch
	case reflection.PropertyInfo:
		t, err := s.declaringType(e)
		if err != nil {
			return nil, err
		}
		p, err := t.Property(e.Name(), allDeclared)
		if err != nil || p == nil {
			return nil, ErrNoMatch
		}
		return p, nil
	case reflection.EventInfo:
		return nil, ErrNoMatch
	case reflection.ParameterInfo:
		owner, err := s.locate(e.Member())
		if err != nil {
			return nil, err
		}
		return parameterAt(owner, e.Position())
	case reflection.TypeInfo:
		return s.locateType(e)
	}
	return nil, ErrNoMatch
}

func (s *RegistryStage) locateType(t reflection.TypeInfo) (reflection.TypeInfo, error) {
	a := t.Assembly()
	if a == nil || t.FullName() == "" {
		return nil, ErrNoMatch
	}
	rt, ok := s.policy.Registry().Lookup(a.Name(), t.FullName())
	if !ok {
		return nil, ErrNoMatch
	}
	lt, ok := s.policy.Type(rt)
	if !ok {
		return nil, ErrNoMatch
	}
	return lt, nil
}

func (s *RegistryStage) declaringType(m reflection.MemberInfo) (reflection.TypeInfo, error) {
	dt := m.DeclaringType()
	if dt == nil {
		return nil, ErrNoMatch
	}
	return s.locateType(dt)
}

func pickOverload(want reflection.FunctionInfo, candidates []reflection.FunctionInfo) (reflection.CodeElementInfo, error) {
	wantParams := want.Parameters()
	var sameArity []reflection.FunctionInfo
	for _, c := range candidates {
		if len(c.Parameters()) == len(wantParams) {
			sameArity = append(sameArity, c)
		}
	}
	switch len(sameArity) {
	case 0:
		return nil, ErrNoMatch
	case 1:
		return sameArity[0], nil
	}

	var exact []reflection.FunctionInfo
	for _, c := range sameArity {
		if sameParameterTypes(c.Parameters(), wantParams) {
			exact = append(exact, c)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}
	return nil, fmt.Errorf("%w: %d overloads of %s take %d parameters", reflection.ErrAmbiguousMatch, len(sameArity), want.Name(), len(wantParams))
}

func sameParameterTypes(a, b []reflection.ParameterInfo) bool {
	for i := range a {
		if a[i].ValueType().FullName() != b[i].ValueType().FullName() {
			return false
		}
	}
	return true
}

func parameterAt(owner reflection.CodeElementInfo, pos int) (reflection.CodeElementInfo, error) {
	if pos < 0 {
		m, ok := owner.(reflection.MethodInfo)
		if !ok {
			return nil, ErrNoMatch
		}
		return m.ReturnParameter(), nil
	}
	f, ok := owner.(reflection.FunctionInfo)
	if !ok || pos >= len(f.Parameters()) {
		return nil, ErrNoMatch
	}
	return f.Parameters()[pos], nil
}
