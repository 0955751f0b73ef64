package reflection

import "iter"

// CodeElementInfo is the capability set shared by every reflected declaration.
type CodeElementInfo interface {
	Name() string
	Kind() CodeElementKind
	CodeReference() CodeReference

	// AttributeInfos yields the attributes whose type derives from filter, or
	// all attributes when filter is nil. With inherit set, attributes from
	// inherited declarations are included according to their usage.
	AttributeInfos(filter TypeInfo, inherit bool) iter.Seq[AttributeInfo]
	HasAttribute(filter TypeInfo, inherit bool) bool
	// Attributes resolves every matching attribute to an instance.
	Attributes(filter TypeInfo, inherit bool) ([]any, error)

	// CodeLocation returns the best known source position, or UnknownLocation.
	// Only fatal symbol store failures are returned as errors.
	CodeLocation() (CodeLocation, error)

	Equals(other CodeElementInfo) bool
	Hash() uint64
	String() string
}

type AssemblyInfo interface {
	CodeElementInfo
	FullName() string
	AssemblyName() AssemblyName
	Path() string
	ReferencedAssemblies() []AssemblyReference
	Types() []TypeInfo
	ExportedTypes() []TypeInfo
	// Type returns the type with the given full name, or nil.
	Type(fullName string) TypeInfo
}

type NamespaceInfo interface {
	CodeElementInfo
}

type MemberInfo interface {
	CodeElementInfo
	// DeclaringType is nil for top-level types.
	DeclaringType() TypeInfo
	ReflectedType() TypeInfo
}

type TypeInfo interface {
	MemberInfo
	Assembly() AssemblyInfo
	Namespace() NamespaceInfo
	NamespaceName() string
	// FullName is empty for generic parameters and open constructed types.
	FullName() string
	AssemblyQualifiedName() string
	TypeAttributes() TypeAttributes

	BaseType() TypeInfo
	Interfaces() []TypeInfo
	ElementType() TypeInfo
	ArrayRank() int

	IsArray() bool
	IsPointer() bool
	IsByRef() bool
	IsGenericParameter() bool
	IsGenericType() bool
	IsGenericTypeDefinition() bool
	ContainsGenericParameters() bool
	IsNested() bool

	GenericArguments() []TypeInfo
	GenericParameters() []GenericParameterInfo
	GenericTypeDefinition() TypeInfo
	MakeGenericType(args ...TypeInfo) (TypeInfo, error)
	MakeArrayType(rank int) (TypeInfo, error)
	MakePointerType() TypeInfo
	MakeByRefType() TypeInfo

	Constructors(flags BindingFlags) []ConstructorInfo
	Methods(flags BindingFlags) []MethodInfo
	Method(name string, flags BindingFlags) (MethodInfo, error)
	Properties(flags BindingFlags) []PropertyInfo
	Property(name string, flags BindingFlags) (PropertyInfo, error)
	Fields(flags BindingFlags) []FieldInfo
	Field(name string, flags BindingFlags) FieldInfo
	Events(flags BindingFlags) []EventInfo
	Event(name string, flags BindingFlags) (EventInfo, error)
	NestedTypes(flags BindingFlags) []TypeInfo
	NestedType(name string, flags BindingFlags) TypeInfo
	Members(flags BindingFlags) []MemberInfo

	IsAssignableFrom(t TypeInfo) bool
	IsSubclassOf(t TypeInfo) bool
}

type GenericParameterInfo interface {
	TypeInfo
	GenericParameterAttributes() GenericParameterAttributes
	Position() int
	Constraints() []TypeInfo
	// DeclaringMethod is nil for parameters owned by a type.
	DeclaringMethod() MethodInfo
}

type FunctionInfo interface {
	MemberInfo
	MethodAttributes() MethodAttributes
	CallingConvention() CallingConventions
	Parameters() []ParameterInfo
	IsStatic() bool
	IsPublic() bool
	IsAbstract() bool
	IsVirtual() bool
}

type MethodInfo interface {
	FunctionInfo
	ReturnType() TypeInfo
	ReturnParameter() ParameterInfo
	IsGenericMethod() bool
	IsGenericMethodDefinition() bool
	ContainsGenericParameters() bool
	GenericArguments() []TypeInfo
	GenericMethodDefinition() MethodInfo
	MakeGenericMethod(args ...TypeInfo) (MethodInfo, error)
}

type ConstructorInfo interface {
	FunctionInfo
	IsTypeInitializer() bool
}

type FieldInfo interface {
	MemberInfo
	FieldAttributes() FieldAttributes
	ValueType() TypeInfo
	IsStatic() bool
	IsPublic() bool
	IsLiteral() bool
	IsInitOnly() bool
}

type PropertyInfo interface {
	MemberInfo
	PropertyAttributes() PropertyAttributes
	ValueType() TypeInfo
	GetMethod() MethodInfo
	SetMethod() MethodInfo
}

type EventInfo interface {
	MemberInfo
	EventAttributes() EventAttributes
	EventHandlerType() TypeInfo
	AddMethod() MethodInfo
	RemoveMethod() MethodInfo
	RaiseMethod() MethodInfo
}

type ParameterInfo interface {
	CodeElementInfo
	Member() MemberInfo
	ValueType() TypeInfo
	// Position is -1 for return parameters.
	Position() int
	ParameterAttributes() ParameterAttributes
}

type AttributeInfo interface {
	CodeElementInfo
	Type() TypeInfo
	// Constructor is nil when the constructor cannot be located.
	Constructor() ConstructorInfo
	ConstructorArguments() []ConstantValue
	FieldArguments() []FieldArgument
	PropertyArguments() []PropertyArgument
	// NamedValue returns a field or property argument by name.
	NamedValue(name string) (ConstantValue, bool)
	// Resolve builds an instance of the attribute. It may fail with an
	// *AttributeConstructionError even when the attribute enumerated fine.
	Resolve() (any, error)
}

// Declared is implemented by elements that stand in for a declaration, such
// as bound runtime entities and placeholders.
type Declared interface {
	Declaration() CodeElementInfo
}

// Unwrap returns the declaration behind e, or e itself.
func Unwrap(e CodeElementInfo) CodeElementInfo {
	for {
		d, ok := e.(Declared)
		if !ok {
			return e
		}
		e = d.Declaration()
	}
}
