package reflection

import (
	"hash/maphash"
	"iter"

	"codemodel/internal/memo"
)

// Assembly wraps a compiled unit.
type Assembly[H any] struct {
	staticWrapper[H]

	types memo.Value[[]*DeclaredType[H]]
}

func NewAssembly[H any](policy StaticPolicy[H], h H) *Assembly[H] {
	a := &Assembly[H]{}
	a.staticWrapper.init(policy, h, a)
	return a
}

func (a *Assembly[H]) Kind() CodeElementKind {
	return KindAssembly
}

func (a *Assembly[H]) AssemblyName() AssemblyName {
	return a.policy.AssemblyName(a.handle)
}

func (a *Assembly[H]) Name() string {
	return a.AssemblyName().Name
}

func (a *Assembly[H]) FullName() string {
	return a.AssemblyName().FullName()
}

func (a *Assembly[H]) Path() string {
	return a.policy.AssemblyPath(a.handle)
}

func (a *Assembly[H]) ReferencedAssemblies() []AssemblyReference {
	return a.policy.AssemblyReferences(a.handle)
}

func (a *Assembly[H]) declaredTypes() []*DeclaredType[H] {
	return a.types.Get(func() []*DeclaredType[H] {
		handles := a.policy.AssemblyTypes(a.handle)
		out := make([]*DeclaredType[H], len(handles))
		for i, h := range handles {
			out[i] = TypeDefinition(a.policy, h)
		}
		return out
	})
}

// Types returns every type of the unit, nested types included.
func (a *Assembly[H]) Types() []TypeInfo {
	types := a.declaredTypes()
	out := make([]TypeInfo, len(types))
	for i, t := range types {
		out[i] = t
	}
	return out
}

// ExportedTypes returns the types visible outside the unit.
func (a *Assembly[H]) ExportedTypes() []TypeInfo {
	var out []TypeInfo
	for _, t := range a.declaredTypes() {
		if IsPublicType(t) {
			out = append(out, t)
		}
	}
	return out
}

func (a *Assembly[H]) Type(fullName string) TypeInfo {
	h, ok := a.policy.AssemblyType(a.handle, fullName)
	if !ok {
		return nil
	}
	return TypeDefinition(a.policy, h)
}

// CodeLocation is the path of the unit file.
func (a *Assembly[H]) CodeLocation() (CodeLocation, error) {
	return CodeLocation{Path: a.Path()}, nil
}

func (a *Assembly[H]) CodeReference() CodeReference {
	return CodeReference{Kind: KindAssembly, AssemblyName: a.FullName()}
}

func (a *Assembly[H]) String() string {
	return a.FullName()
}

func (a *Assembly[H]) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*Assembly[H])
	return ok && o != nil && a.sameHandle(&o.staticWrapper)
}

var namespaceSeed = maphash.MakeSeed()

// Namespace is identified by name alone. It carries no attributes.
type Namespace struct {
	name string
}

func NewNamespace(name string) *Namespace {
	return &Namespace{name: name}
}

func (n *Namespace) Kind() CodeElementKind { return KindNamespace }
func (n *Namespace) Name() string          { return n.name }
func (n *Namespace) String() string        { return n.name }

func (n *Namespace) CodeReference() CodeReference {
	return CodeReference{Kind: KindNamespace, NamespaceName: n.name}
}

func (n *Namespace) AttributeInfos(TypeInfo, bool) iter.Seq[AttributeInfo] {
	return func(func(AttributeInfo) bool) {}
}

func (n *Namespace) HasAttribute(TypeInfo, bool) bool {
	return false
}

func (n *Namespace) Attributes(TypeInfo, bool) ([]any, error) {
	return nil, nil
}

func (n *Namespace) CodeLocation() (CodeLocation, error) {
	return UnknownLocation, nil
}

func (n *Namespace) Equals(other CodeElementInfo) bool {
	o, ok := Unwrap(other).(*Namespace)
	return ok && o != nil && n.name == o.name
}

func (n *Namespace) Hash() uint64 {
	return maphash.String(namespaceSeed, n.name)
}
