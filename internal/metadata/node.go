package metadata

import (
	"codemodel/internal/reflection"

	"github.com/Masterminds/semver/v3"
)

// NodeKind identifies what a Node declares.
type NodeKind int

const (
	NodeAssembly NodeKind = iota + 1
	NodeType
	NodeGenericParameter
	NodeField
	NodeProperty
	NodeEvent
	NodeMethod
	NodeConstructor
	NodeParameter
	NodeAttribute
)

func (k NodeKind) String() string {
	switch k {
	case NodeAssembly:
		return "assembly"
	case NodeType:
		return "type"
	case NodeGenericParameter:
		return "generic_parameter"
	case NodeField:
		return "field"
	case NodeProperty:
		return "property"
	case NodeEvent:
		return "event"
	case NodeMethod:
		return "method"
	case NodeConstructor:
		return "constructor"
	case NodeParameter:
		return "parameter"
	case NodeAttribute:
		return "attribute"
	}
	return "unknown"
}

// Node is one declaration of a Model and the handle type of Policy. Nodes
// are immutable once the model is built.
type Node struct {
	Kind NodeKind
	Name string

	// Parent is the declaring type of members and nested types, the owner of
	// parameters and generic parameters, and the assembly of top-level types.
	Parent     *Node
	Assembly   *Node
	Attributes []*Node
	Location   reflection.CodeLocation

	assembly   *assemblyData
	typ        *typeData
	genericArg *genericParamData
	member     *memberData
	param      *paramData
	attr       *attributeData
}

type assemblyData struct {
	name       reflection.AssemblyName
	path       string
	references []reflection.AssemblyReference
	types      []*Node
	byName     map[string]*Node

	// visible lists the assemblies whose types references may name, this one first.
	visible []*Node
}

type typeData struct {
	namespace     string
	fullName      string
	attrs         reflection.TypeAttributes
	base          *typeSig
	interfaces    []*typeSig
	genericParams []*Node
	constructors  []*Node
	methods       []*Node
	properties    []*Node
	fields        []*Node
	events        []*Node
	nested        []*Node
}

type genericParamData struct {
	position    int
	attrs       reflection.GenericParameterAttributes
	constraints []*typeSig
}

type memberData struct {
	methodAttrs   reflection.MethodAttributes
	fieldAttrs    reflection.FieldAttributes
	propertyAttrs reflection.PropertyAttributes
	eventAttrs    reflection.EventAttributes
	callingConv   reflection.CallingConventions
	token         int

	valueType     *typeSig
	constant      *constSig
	params        []*Node
	returnParam   *Node
	genericParams []*Node

	getter, setter         *Node
	adder, remover, raiser *Node
}

type paramData struct {
	position int
	attrs    reflection.ParameterAttributes
	typ      *typeSig
}

type attributeData struct {
	typ        *Node
	ctor       *Node
	args       []*constSig
	fields     []namedConst
	properties []namedConst
}

type namedConst struct {
	name  string
	value *constSig
}

type sigKind int

const (
	sigDeclared sigKind = iota
	sigGenericParam
	sigArray
	sigPointer
	sigByRef
)

// typeSig is a resolved type reference.
type typeSig struct {
	kind sigKind
	def  *Node
	args []*typeSig
	elem *typeSig
	rank int
}

// constSig is a resolved constant: a scalar, a type reference, an array or null.
type constSig struct {
	typ    *typeSig
	value  any
	typeOf *typeSig
	items  []*constSig
	array  bool
}

// FullName returns the full name of a type node, with arity suffixes and '+'
// separating nested types.
func (n *Node) FullName() string {
	if n.typ != nil {
		return n.typ.fullName
	}
	return n.Name
}

// Token returns the method token of a method or constructor node.
func (n *Node) Token() int {
	if n.member == nil {
		return 0
	}
	return n.member.token
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Kind == NodeType {
		return n.FullName()
	}
	if n.Parent != nil && n.Parent.Kind == NodeType {
		return n.Parent.FullName() + "::" + n.Name
	}
	return n.Name
}

func versionOrNil(s string) (*semver.Version, error) {
	if s == "" {
		return nil, nil
	}
	return semver.NewVersion(s)
}
