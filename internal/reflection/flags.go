package reflection

// BindingFlags filters member queries.
type BindingFlags int

const (
	BindingDefault          BindingFlags = 0
	BindingDeclaredOnly     BindingFlags = 0x2
	BindingInstance         BindingFlags = 0x4
	BindingStatic           BindingFlags = 0x8
	BindingPublic           BindingFlags = 0x10
	BindingNonPublic        BindingFlags = 0x20
	BindingFlattenHierarchy BindingFlags = 0x40

	BindingAll = BindingPublic | BindingNonPublic | BindingInstance | BindingStatic
)

type TypeAttributes int

const (
	TypeNotPublic         TypeAttributes = 0x0
	TypePublic            TypeAttributes = 0x1
	TypeNestedPublic      TypeAttributes = 0x2
	TypeNestedPrivate     TypeAttributes = 0x3
	TypeNestedFamily      TypeAttributes = 0x4
	TypeNestedAssembly    TypeAttributes = 0x5
	TypeNestedFamANDAssem TypeAttributes = 0x6
	TypeNestedFamORAssem  TypeAttributes = 0x7
	TypeVisibilityMask    TypeAttributes = 0x7
	TypeInterface         TypeAttributes = 0x20
	TypeAbstract          TypeAttributes = 0x80
	TypeSealed            TypeAttributes = 0x100
	TypeSpecialName       TypeAttributes = 0x400
	TypeSerializable      TypeAttributes = 0x2000
)

func (a TypeAttributes) Visibility() TypeAttributes { return a & TypeVisibilityMask }

type MethodAttributes int

const (
	MethodPrivateScope  MethodAttributes = 0x0
	MethodPrivate       MethodAttributes = 0x1
	MethodFamANDAssem   MethodAttributes = 0x2
	MethodAssembly      MethodAttributes = 0x3
	MethodFamily        MethodAttributes = 0x4
	MethodFamORAssem    MethodAttributes = 0x5
	MethodPublic        MethodAttributes = 0x6
	MethodMemberAccess  MethodAttributes = 0x7
	MethodStatic        MethodAttributes = 0x10
	MethodFinal         MethodAttributes = 0x20
	MethodVirtual       MethodAttributes = 0x40
	MethodHideBySig     MethodAttributes = 0x80
	MethodNewSlot       MethodAttributes = 0x100
	MethodAbstract      MethodAttributes = 0x400
	MethodSpecialName   MethodAttributes = 0x800
	MethodRTSpecialName MethodAttributes = 0x1000
)

func (a MethodAttributes) Access() MethodAttributes { return a & MethodMemberAccess }

type FieldAttributes int

const (
	FieldPrivateScope FieldAttributes = 0x0
	FieldPrivate      FieldAttributes = 0x1
	FieldFamANDAssem  FieldAttributes = 0x2
	FieldAssembly     FieldAttributes = 0x3
	FieldFamily       FieldAttributes = 0x4
	FieldFamORAssem   FieldAttributes = 0x5
	FieldPublic       FieldAttributes = 0x6
	FieldAccessMask   FieldAttributes = 0x7
	FieldStatic       FieldAttributes = 0x10
	FieldInitOnly     FieldAttributes = 0x20
	FieldLiteral      FieldAttributes = 0x40
	FieldHasDefault   FieldAttributes = 0x8000
)

func (a FieldAttributes) Access() FieldAttributes { return a & FieldAccessMask }

type PropertyAttributes int

const (
	PropertyNone        PropertyAttributes = 0x0
	PropertySpecialName PropertyAttributes = 0x200
	PropertyHasDefault  PropertyAttributes = 0x1000
)

type EventAttributes int

const (
	EventNone        EventAttributes = 0x0
	EventSpecialName EventAttributes = 0x200
)

type ParameterAttributes int

const (
	ParameterNone       ParameterAttributes = 0x0
	ParameterIn         ParameterAttributes = 0x1
	ParameterOut        ParameterAttributes = 0x2
	ParameterRetval     ParameterAttributes = 0x8
	ParameterOptional   ParameterAttributes = 0x10
	ParameterHasDefault ParameterAttributes = 0x1000
)

type GenericParameterAttributes int

const (
	GenericParameterNone                    GenericParameterAttributes = 0x0
	GenericParameterCovariant               GenericParameterAttributes = 0x1
	GenericParameterContravariant           GenericParameterAttributes = 0x2
	GenericParameterVarianceMask            GenericParameterAttributes = 0x3
	GenericParameterReferenceTypeConstraint GenericParameterAttributes = 0x4
	GenericParameterValueTypeConstraint     GenericParameterAttributes = 0x8
	GenericParameterDefaultConstructor      GenericParameterAttributes = 0x10
)

type CallingConventions int

const (
	CallingStandard     CallingConventions = 0x1
	CallingVarArgs      CallingConventions = 0x2
	CallingAny          CallingConventions = 0x3
	CallingHasThis      CallingConventions = 0x20
	CallingExplicitThis CallingConventions = 0x40
)

// AttributeTargets lists the elements an attribute type may be applied to.
type AttributeTargets int

const (
	TargetAssembly         AttributeTargets = 0x1
	TargetModule           AttributeTargets = 0x2
	TargetClass            AttributeTargets = 0x4
	TargetStruct           AttributeTargets = 0x8
	TargetEnum             AttributeTargets = 0x10
	TargetConstructor      AttributeTargets = 0x20
	TargetMethod           AttributeTargets = 0x40
	TargetProperty         AttributeTargets = 0x80
	TargetField            AttributeTargets = 0x100
	TargetEvent            AttributeTargets = 0x200
	TargetInterface        AttributeTargets = 0x400
	TargetParameter        AttributeTargets = 0x800
	TargetDelegate         AttributeTargets = 0x1000
	TargetReturnValue      AttributeTargets = 0x2000
	TargetGenericParameter AttributeTargets = 0x4000
	TargetAll              AttributeTargets = 0x7fff
)
