package reflection

import "fmt"

// Substitution maps generic parameters to replacement types. It is immutable;
// every operation returns a new value. The zero value is the empty substitution.
type Substitution[H any] struct {
	entries []substitutionEntry[H]
}

type substitutionEntry[H any] struct {
	param *GenericParameter[H]
	value TypeInfo
}

// substitutable is implemented by the static type wrappers that can carry a substitution.
type substitutable[H any] interface {
	applySubstitution(s Substitution[H]) TypeInfo
}

func (s Substitution[H]) IsEmpty() bool {
	return len(s.entries) == 0
}

func (s Substitution[H]) Len() int {
	return len(s.entries)
}

// Lookup returns the replacement for p.
func (s Substitution[H]) Lookup(p *GenericParameter[H]) (TypeInfo, bool) {
	for _, e := range s.entries {
		if e.param.Equals(p) {
			return e.value, true
		}
	}
	return nil, false
}

// Apply substitutes t. Types from other backends are returned unchanged.
func (s Substitution[H]) Apply(t TypeInfo) TypeInfo {
	if t == nil || s.IsEmpty() {
		return t
	}
	if st, ok := t.(substitutable[H]); ok {
		return st.applySubstitution(s)
	}
	return t
}

func (s Substitution[H]) ApplyAll(types []TypeInfo) []TypeInfo {
	out := make([]TypeInfo, len(types))
	for i, t := range types {
		out[i] = s.Apply(t)
	}
	return out
}

func (s Substitution[H]) applyParams(params []*GenericParameter[H]) []TypeInfo {
	out := make([]TypeInfo, len(params))
	for i, p := range params {
		out[i] = s.Apply(p)
	}
	return out
}

// Extend returns a substitution that also maps params[i] to args[i].
// Identity mappings are not recorded.
func (s Substitution[H]) Extend(params []*GenericParameter[H], args []TypeInfo) (Substitution[H], error) {
	if len(params) != len(args) {
		return s, invalidArgument("generic argument count %d does not equal generic parameter count %d", len(args), len(params))
	}
	if len(params) == 0 {
		return s, nil
	}

	for i, p := range params {
		if p == nil {
			return s, invalidArgument("generic parameter %d is nil", i)
		}
		if args[i] == nil {
			return s, invalidArgument("generic argument %d is nil", i)
		}
	}

	entries := make([]substitutionEntry[H], 0, len(s.entries)+len(params))
	for _, e := range s.entries {
		if !containsParam(params, e.param) {
			entries = append(entries, e)
		}
	}
	for i, p := range params {
		if p.Equals(args[i]) {
			continue
		}
		entries = append(entries, substitutionEntry[H]{param: p, value: args[i]})
	}
	return Substitution[H]{entries: entries}, nil
}

// Compose applies other to the replacement values of s. Parameters mapped
// only by other are not added.
func (s Substitution[H]) Compose(other Substitution[H]) Substitution[H] {
	if other.IsEmpty() || s.IsEmpty() {
		return s
	}
	entries := make([]substitutionEntry[H], len(s.entries))
	for i, e := range s.entries {
		entries[i] = substitutionEntry[H]{param: e.param, value: other.Apply(e.value)}
	}
	return Substitution[H]{entries: entries}
}

// Remove drops the mappings for params.
func (s Substitution[H]) Remove(params []*GenericParameter[H]) Substitution[H] {
	if s.DoesNotContainAny(params) {
		return s
	}
	var entries []substitutionEntry[H]
	for _, e := range s.entries {
		if !containsParam(params, e.param) {
			entries = append(entries, e)
		}
	}
	return Substitution[H]{entries: entries}
}

// DoesNotContainAny reports whether none of params is mapped.
func (s Substitution[H]) DoesNotContainAny(params []*GenericParameter[H]) bool {
	for _, e := range s.entries {
		if containsParam(params, e.param) {
			return false
		}
	}
	return true
}

// Equal reports whether both substitutions hold the same mappings.
func (s Substitution[H]) Equal(other Substitution[H]) bool {
	if len(s.entries) != len(other.entries) {
		return false
	}
	for _, e := range s.entries {
		v, ok := other.Lookup(e.param)
		if !ok || !v.Equals(e.value) {
			return false
		}
	}
	return true
}

func (s Substitution[H]) String() string {
	out := "{"
	for i, e := range s.entries {
		if i != 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s -> %s", e.param.Name(), e.value)
	}
	return out + "}"
}

func containsParam[H any](params []*GenericParameter[H], p *GenericParameter[H]) bool {
	for _, q := range params {
		if q.Equals(p) {
			return true
		}
	}
	return false
}
