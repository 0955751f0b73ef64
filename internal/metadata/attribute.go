package metadata

import (
	"fmt"
	"sort"
	"strings"

	"codemodel/internal/reflection"
)

// AttributeInstance is the result of resolving a static attribute when no
// AttributeFactory is configured: the recorded constructor call and named
// assignments, with constants unwrapped to Go values.
type AttributeInstance struct {
	Type       string
	Arguments  []any
	Fields     map[string]any
	Properties map[string]any
}

func newAttributeInstance(attr reflection.AttributeInfo) (*AttributeInstance, error) {
	typeName := attr.Type().FullName()
	fail := func(format string, args ...any) error {
		return &reflection.AttributeConstructionError{AttributeType: typeName, Err: fmt.Errorf(format, args...)}
	}
	if attr.Constructor() == nil {
		return nil, fail("no constructor accepts %d arguments", len(attr.ConstructorArguments()))
	}

	inst := &AttributeInstance{Type: typeName}
	for _, arg := range attr.ConstructorArguments() {
		inst.Arguments = append(inst.Arguments, plainValue(arg))
	}
	for _, f := range attr.FieldArguments() {
		if f.Field == nil {
			return nil, fail("no public field %s", f.Name)
		}
		if f.Field.IsInitOnly() || f.Field.IsLiteral() {
			return nil, fail("field %s is read-only", f.Name)
		}
		if inst.Fields == nil {
			inst.Fields = make(map[string]any)
		}
		inst.Fields[f.Name] = plainValue(f.Value)
	}
	for _, prop := range attr.PropertyArguments() {
		if prop.Property == nil {
			return nil, fail("no public property %s", prop.Name)
		}
		if prop.Property.SetMethod() == nil {
			return nil, fail("property %s has no setter", prop.Name)
		}
		if inst.Properties == nil {
			inst.Properties = make(map[string]any)
		}
		inst.Properties[prop.Name] = plainValue(prop.Value)
	}
	return inst, nil
}

// plainValue unwraps a constant. Arrays become []any; type references stay
// reflection.TypeInfo.
func plainValue(c reflection.ConstantValue) any {
	if !c.IsArray() {
		return c.Value
	}
	elems := c.Elements()
	out := make([]any, len(elems))
	for i, e := range elems {
		out[i] = plainValue(e)
	}
	return out
}

func (a *AttributeInstance) String() string {
	var sb strings.Builder
	sb.WriteString(a.Type)
	sb.WriteByte('(')
	var parts []string
	for _, arg := range a.Arguments {
		parts = append(parts, fmt.Sprint(arg))
	}
	for _, named := range []map[string]any{a.Fields, a.Properties} {
		keys := make([]string, 0, len(named))
		for k := range named {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s = %v", k, named[k]))
		}
	}
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteByte(')')
	return sb.String()
}
