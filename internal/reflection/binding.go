package reflection

import "fmt"

func matchesBindingFlags(flags BindingFlags, isPublic, isStatic bool) bool {
	if isPublic {
		if flags&BindingPublic == 0 {
			return false
		}
	} else if flags&BindingNonPublic == 0 {
		return false
	}
	if isStatic {
		return flags&BindingStatic != 0
	}
	return flags&BindingInstance != 0
}

// inheritanceBindingFlags returns the flags used to query base types, or
// BindingDefault when inherited members are not wanted. Static members are
// only inherited when the hierarchy is flattened.
func inheritanceBindingFlags(flags BindingFlags) BindingFlags {
	if flags&BindingDeclaredOnly != 0 {
		return BindingDefault
	}
	inherited := flags & (BindingPublic | BindingNonPublic | BindingInstance)
	if flags&(BindingFlattenHierarchy|BindingStatic) == BindingFlattenHierarchy|BindingStatic {
		inherited |= BindingStatic
	}
	return inherited | BindingDeclaredOnly
}

func memberByName[T MemberInfo](members []T, name string) (T, error) {
	var match T
	found := false
	for _, m := range members {
		if m.Name() != name {
			continue
		}
		if found {
			var zero T
			return zero, fmt.Errorf("%w: found two members named %q", ErrAmbiguousMatch, name)
		}
		match = m
		found = true
	}
	return match, nil
}

func firstByName[T MemberInfo](members []T, name string) T {
	for _, m := range members {
		if m.Name() == name {
			return m
		}
	}
	var zero T
	return zero
}
