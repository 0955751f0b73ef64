// Package live presents Go types registered in the running process through
// the reflection wrappers, and binds declarations to runtime entities.
package live

import (
	"reflect"

	"codemodel/internal/reflection"
)

// Marker types for the core types that have no Go counterpart. Attribute
// types embed Attribute; the base type of a struct is its first embedded
// struct.
type (
	ValueType struct{}
	Enum      struct{ ValueType }
	Void      struct{}
	Array     struct{}
	Attribute struct{}

	// AttributeUsage is attached to attribute types by RegisterAttribute.
	AttributeUsage struct {
		Attribute
		ValidOn       reflection.AttributeTargets
		Inherited     bool
		AllowMultiple bool
	}
)

const coreUnitName = "runtime"

type coreType struct {
	rt   reflect.Type
	name string
	base reflect.Type
	attr reflection.TypeAttributes
}

var (
	objectType    = reflect.TypeFor[any]()
	valueType     = reflect.TypeFor[ValueType]()
	enumType      = reflect.TypeFor[Enum]()
	attributeType = reflect.TypeFor[Attribute]()
	usageType     = reflect.TypeFor[AttributeUsage]()
	targetsType   = reflect.TypeFor[reflection.AttributeTargets]()
	systemType    = reflect.TypeFor[reflect.Type]()
)

var coreTypes = []coreType{
	{rt: objectType, name: "Object", attr: reflection.TypePublic},
	{rt: valueType, name: "ValueType", base: objectType, attr: reflection.TypePublic | reflection.TypeAbstract},
	{rt: enumType, name: "Enum", base: valueType, attr: reflection.TypePublic | reflection.TypeAbstract},
	{rt: reflect.TypeFor[Void](), name: "Void", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[string](), name: "String", base: objectType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: systemType, name: "Type", base: objectType, attr: reflection.TypePublic | reflection.TypeAbstract},
	{rt: reflect.TypeFor[Array](), name: "Array", base: objectType, attr: reflection.TypePublic | reflection.TypeAbstract},
	{rt: attributeType, name: "Attribute", base: objectType, attr: reflection.TypePublic | reflection.TypeAbstract},
	{rt: usageType, name: "AttributeUsageAttribute", base: attributeType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: targetsType, name: "AttributeTargets", base: enumType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[error](), name: "Exception", attr: reflection.TypePublic | reflection.TypeInterface | reflection.TypeAbstract},
	{rt: reflect.TypeFor[bool](), name: "Boolean", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[int8](), name: "SByte", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[uint8](), name: "Byte", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[int16](), name: "Int16", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[uint16](), name: "UInt16", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[int32](), name: "Int32", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[uint32](), name: "UInt32", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[int64](), name: "Int64", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[uint64](), name: "UInt64", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[int](), name: "IntPtr", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[uint](), name: "UIntPtr", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[float32](), name: "Single", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
	{rt: reflect.TypeFor[float64](), name: "Double", base: valueType, attr: reflection.TypePublic | reflection.TypeSealed},
}

var wellKnownTypes = map[reflection.WellKnownType]reflect.Type{
	reflection.WellKnownObject:         objectType,
	reflection.WellKnownValueType:      valueType,
	reflection.WellKnownEnum:           enumType,
	reflection.WellKnownVoid:           reflect.TypeFor[Void](),
	reflection.WellKnownString:         reflect.TypeFor[string](),
	reflection.WellKnownSystemType:     systemType,
	reflection.WellKnownArray:          reflect.TypeFor[Array](),
	reflection.WellKnownAttribute:      attributeType,
	reflection.WellKnownAttributeUsage: usageType,
}
