package reflection

import (
	"fmt"
	"strings"
)

// WellKnownType names the core types every backend must be able to supply.
type WellKnownType int

const (
	WellKnownObject WellKnownType = iota + 1
	WellKnownValueType
	WellKnownEnum
	WellKnownVoid
	WellKnownString
	WellKnownSystemType
	WellKnownArray
	WellKnownAttribute
	WellKnownAttributeUsage
	WellKnownGenericList
)

var wellKnownNames = map[WellKnownType]string{
	WellKnownObject:         "System.Object",
	WellKnownValueType:      "System.ValueType",
	WellKnownEnum:           "System.Enum",
	WellKnownVoid:           "System.Void",
	WellKnownString:         "System.String",
	WellKnownSystemType:     "System.Type",
	WellKnownArray:          "System.Array",
	WellKnownAttribute:      "System.Attribute",
	WellKnownAttributeUsage: "System.AttributeUsageAttribute",
	WellKnownGenericList:    "System.Collections.Generic.IList`1",
}

// FullName returns the full name of the well-known type.
func (w WellKnownType) FullName() string {
	return wellKnownNames[w]
}

// WellKnownTypes lists every well-known type.
func WellKnownTypes() []WellKnownType {
	return []WellKnownType{
		WellKnownObject, WellKnownValueType, WellKnownEnum, WellKnownVoid, WellKnownString,
		WellKnownSystemType, WellKnownArray, WellKnownAttribute, WellKnownAttributeUsage, WellKnownGenericList,
	}
}

// ConstantValue is a literal usable as an attribute argument or field constant.
//
// Value holds a Go bool, integer, float, rune or string for primitives, the
// underlying integer for enums, a TypeInfo for type references, a
// []ConstantValue for arrays and nil for null.
type ConstantValue struct {
	Type  TypeInfo
	Value any
}

// NewConstantValue builds a constant of the given type.
func NewConstantValue(t TypeInfo, value any) ConstantValue {
	return ConstantValue{Type: t, Value: value}
}

func (c ConstantValue) IsNull() bool {
	return c.Value == nil
}

func (c ConstantValue) IsArray() bool {
	_, ok := c.Value.([]ConstantValue)
	return ok
}

func (c ConstantValue) IsTypeRef() bool {
	_, ok := c.Value.(TypeInfo)
	return ok
}

func (c ConstantValue) IsEnum() bool {
	return c.Type != nil && IsEnum(c.Type)
}

// Elements returns the elements of an array constant.
func (c ConstantValue) Elements() []ConstantValue {
	elems, _ := c.Value.([]ConstantValue)
	return elems
}

func (c ConstantValue) String() string {
	switch v := c.Value.(type) {
	case nil:
		return "null"
	case TypeInfo:
		return "typeof(" + v.String() + ")"
	case []ConstantValue:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = e.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case string:
		return fmt.Sprintf("%q", v)
	default:
		if c.IsEnum() {
			return fmt.Sprintf("(%s)%v", c.Type.Name(), v)
		}
		return fmt.Sprint(v)
	}
}

// NamedArgument is a field or property assignment recorded on an attribute.
type NamedArgument struct {
	Name  string
	Value ConstantValue
}

// FieldArgument is a named attribute argument bound to a field of the attribute type.
// Field is nil when the attribute type does not declare the field.
type FieldArgument struct {
	Name  string
	Field FieldInfo
	Value ConstantValue
}

// PropertyArgument is a named attribute argument bound to a property of the attribute type.
type PropertyArgument struct {
	Name     string
	Property PropertyInfo
	Value    ConstantValue
}
