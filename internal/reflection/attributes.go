package reflection

import (
	"fmt"
	"iter"
)

// AttributeUsage describes how an attribute type may be applied and inherited.
type AttributeUsage struct {
	ValidOn       AttributeTargets
	Inherited     bool
	AllowMultiple bool
}

// DefaultAttributeUsage applies to attribute types that declare no usage.
var DefaultAttributeUsage = AttributeUsage{ValidOn: TargetAll, Inherited: true}

// attributeUsageUsage is the usage of the usage attribute itself. Reading it
// from metadata would require knowing it first.
var attributeUsageUsage = AttributeUsage{ValidOn: TargetClass, Inherited: true}

// attributeSource is implemented by the static wrappers.
type attributeSource interface {
	CodeElementInfo
	declaredAttributes() []AttributeInfo
	inheritedElements() iter.Seq[attributeSource]
}

func noInheritedElements(func(attributeSource) bool) {}

// effectiveAttributes yields the attributes of src that derive from the type
// named filterName (all when empty). Declared attributes always come first.
// Inherited ones are kept when their usage says inherited, and dropped when an
// attribute of the same type was already seen and multiples are not allowed.
func effectiveAttributes(src attributeSource, filterName string, inherit bool) iter.Seq[AttributeInfo] {
	return func(yield func(AttributeInfo) bool) {
		var usages *elementMap[TypeInfo, *AttributeUsage]
		if inherit {
			usages = newElementMap[TypeInfo, *AttributeUsage]()
		}

		for _, attr := range src.declaredAttributes() {
			t := attr.Type()
			if !isDerivedFromName(t, filterName) {
				continue
			}
			if !yield(attr) {
				return
			}
			if inherit {
				usages.Put(t, nil)
			}
		}
		if !inherit {
			return
		}

		for elem := range src.inheritedElements() {
			for _, attr := range elem.declaredAttributes() {
				t := attr.Type()
				if !isDerivedFromName(t, filterName) {
					continue
				}
				usage, seen := usages.Get(t)
				if usage == nil {
					u := ReadAttributeUsage(t)
					usage = &u
					usages.Put(t, usage)
				}
				if !usage.Inherited {
					continue
				}
				if seen && !usage.AllowMultiple {
					continue
				}
				if !yield(attr) {
					return
				}
			}
		}
	}
}

func filterName(filter TypeInfo) string {
	if filter == nil {
		return ""
	}
	return filter.FullName()
}

func hasAttribute(attrs iter.Seq[AttributeInfo]) bool {
	for range attrs {
		return true
	}
	return false
}

func resolveAttributes(attrs iter.Seq[AttributeInfo]) ([]any, error) {
	var out []any
	for attr := range attrs {
		v, err := attr.Resolve()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type usageReader interface {
	attributeUsage() AttributeUsage
}

// ReadAttributeUsage returns the usage declared on attribute type t, following
// its base types, or DefaultAttributeUsage when none is declared.
func ReadAttributeUsage(t TypeInfo) AttributeUsage {
	if r, ok := t.(usageReader); ok {
		return r.attributeUsage()
	}
	return readAttributeUsage(t)
}

func readAttributeUsage(t TypeInfo) AttributeUsage {
	usageName := WellKnownAttributeUsage.FullName()
	if t.FullName() == usageName {
		return attributeUsageUsage
	}

	var attrs iter.Seq[AttributeInfo]
	if src, ok := t.(attributeSource); ok {
		attrs = effectiveAttributes(src, usageName, true)
	} else {
		attrs = t.AttributeInfos(nil, true)
	}
	for attr := range attrs {
		if attr.Type().FullName() != usageName {
			continue
		}
		return usageFromAttribute(attr)
	}
	return DefaultAttributeUsage
}

func usageFromAttribute(attr AttributeInfo) AttributeUsage {
	usage := AttributeUsage{ValidOn: TargetAll, Inherited: true}
	if args := attr.ConstructorArguments(); len(args) > 0 {
		if n, ok := constantInt(args[0].Value); ok {
			usage.ValidOn = AttributeTargets(n)
		}
	}
	if v, ok := attr.NamedValue("Inherited"); ok {
		if b, ok := v.Value.(bool); ok {
			usage.Inherited = b
		}
	}
	if v, ok := attr.NamedValue("AllowMultiple"); ok {
		if b, ok := v.Value.(bool); ok {
			usage.AllowMultiple = b
		}
	}
	return usage
}

func constantInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case ConstantValue:
		return constantInt(n.Value)
	}
	return 0, false
}

// IsDerivedFrom reports whether t is, derives from or implements target.
// Types are compared by full name so that declarations from different backends match.
func IsDerivedFrom(t, target TypeInfo) bool {
	if target == nil {
		return true
	}
	return isDerivedFromName(t, target.FullName())
}

func isDerivedFromName(t TypeInfo, name string) bool {
	if name == "" {
		return true
	}
	for x := t; x != nil; x = x.BaseType() {
		if x.FullName() == name {
			return true
		}
	}
	for _, iface := range t.Interfaces() {
		if iface.FullName() == name {
			return true
		}
	}
	return false
}

func attributeName(t TypeInfo) string {
	if t == nil {
		return "<unknown>"
	}
	if name := t.FullName(); name != "" {
		return name
	}
	return fmt.Sprint(t)
}
