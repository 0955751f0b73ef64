package reflection

// CodeElementKind identifies which variant of the code element hierarchy
// an element belongs to. It never changes for the lifetime of an element.
type CodeElementKind int

const (
	KindAssembly CodeElementKind = iota + 1
	KindNamespace
	KindType
	KindGenericParameter
	KindField
	KindProperty
	KindEvent
	KindMethod
	KindConstructor
	KindParameter
	KindAttribute
)

func (k CodeElementKind) String() string {
	switch k {
	case KindAssembly:
		return "assembly"
	case KindNamespace:
		return "namespace"
	case KindType:
		return "type"
	case KindGenericParameter:
		return "generic_parameter"
	case KindField:
		return "field"
	case KindProperty:
		return "property"
	case KindEvent:
		return "event"
	case KindMethod:
		return "method"
	case KindConstructor:
		return "constructor"
	case KindParameter:
		return "parameter"
	case KindAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// IsMember reports whether elements of this kind are members of a type.
func (k CodeElementKind) IsMember() bool {
	switch k {
	case KindType, KindGenericParameter, KindField, KindProperty, KindEvent, KindMethod, KindConstructor:
		return true
	}
	return false
}
