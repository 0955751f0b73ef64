package reflection

// IsInterface reports whether t is an interface type.
func IsInterface(t TypeInfo) bool {
	return t != nil && t.TypeAttributes()&TypeInterface != 0
}

// IsEnum reports whether t derives directly from the enum base type.
func IsEnum(t TypeInfo) bool {
	if t == nil {
		return false
	}
	base := t.BaseType()
	return base != nil && base.FullName() == WellKnownEnum.FullName()
}

// IsValueType reports whether t is a value type: an enum or a type deriving
// from the value type base, other than the enum base itself.
func IsValueType(t TypeInfo) bool {
	if t == nil || t.IsGenericParameter() {
		return false
	}
	if t.FullName() == WellKnownEnum.FullName() {
		return false
	}
	base := t.BaseType()
	if base == nil {
		return false
	}
	switch base.FullName() {
	case WellKnownValueType.FullName(), WellKnownEnum.FullName():
		return true
	}
	return false
}

// IsPublicType reports whether t is visible outside its unit.
func IsPublicType(t TypeInfo) bool {
	for t != nil {
		switch t.TypeAttributes().Visibility() {
		case TypePublic:
			return true
		case TypeNestedPublic:
			t = t.DeclaringType()
		default:
			return false
		}
	}
	return false
}

func isSubclassOf(t, other TypeInfo) bool {
	if other == nil {
		return false
	}
	for base := t.BaseType(); base != nil; base = base.BaseType() {
		if base.Equals(other) {
			return true
		}
	}
	return false
}

func isAssignableFrom(t, other TypeInfo) bool {
	if other == nil {
		return false
	}
	if t.Equals(other) {
		return true
	}
	if other.IsPointer() || other.IsByRef() {
		return false
	}
	if t.FullName() == WellKnownObject.FullName() {
		return true
	}
	if isSubclassOf(other, t) {
		return true
	}
	if IsInterface(t) {
		for _, iface := range other.Interfaces() {
			if iface.Equals(t) {
				return true
			}
		}
	}
	return false
}
