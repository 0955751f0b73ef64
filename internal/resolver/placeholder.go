package resolver

import (
	"fmt"
	"reflect"

	"codemodel/internal/live"
	"codemodel/internal/reflection"
)

// placeholder marks the Unresolved types.
type placeholder interface {
	unresolved()
}

func notSupported(elem reflection.CodeElementInfo, op string) error {
	return fmt.Errorf("%w: %s on unresolved %s %s", reflection.ErrNotSupported, op, elem.Kind(), elem)
}

// UnresolvedAssembly stands in for an assembly that is not loaded. Reads go
// to the declaration; equality and hashing are the declaration's.
type UnresolvedAssembly struct {
	reflection.AssemblyInfo
}

var _ live.Assembly = (*UnresolvedAssembly)(nil)

func (*UnresolvedAssembly) unresolved() {}

func (a *UnresolvedAssembly) Declaration() reflection.CodeElementInfo { return a.AssemblyInfo }

func (a *UnresolvedAssembly) ReflectTypes() ([]reflect.Type, error) {
	return nil, notSupported(a.AssemblyInfo, "ReflectTypes")
}

type UnresolvedType struct {
	reflection.TypeInfo
}

var _ live.Type = (*UnresolvedType)(nil)

func (*UnresolvedType) unresolved() {}

func (t *UnresolvedType) Declaration() reflection.CodeElementInfo { return t.TypeInfo }

func (t *UnresolvedType) ReflectType() (reflect.Type, error) {
	return nil, notSupported(t.TypeInfo, "ReflectType")
}

func (t *UnresolvedType) New(...any) (any, error) {
	return nil, notSupported(t.TypeInfo, "New")
}

type UnresolvedMethod struct {
	reflection.MethodInfo
}

var _ live.Method = (*UnresolvedMethod)(nil)

func (*UnresolvedMethod) unresolved() {}

func (m *UnresolvedMethod) Declaration() reflection.CodeElementInfo { return m.MethodInfo }

func (m *UnresolvedMethod) Invoke(any, ...any) ([]any, error) {
	return nil, notSupported(m.MethodInfo, "Invoke")
}

func (m *UnresolvedMethod) MetadataToken() (int, error) {
	return 0, notSupported(m.MethodInfo, "MetadataToken")
}

type UnresolvedConstructor struct {
	reflection.ConstructorInfo
}

var _ live.Constructor = (*UnresolvedConstructor)(nil)

func (*UnresolvedConstructor) unresolved() {}

func (c *UnresolvedConstructor) Declaration() reflection.CodeElementInfo { return c.ConstructorInfo }

func (c *UnresolvedConstructor) Call(...any) (any, error) {
	return nil, notSupported(c.ConstructorInfo, "Call")
}

func (c *UnresolvedConstructor) MetadataToken() (int, error) {
	return 0, notSupported(c.ConstructorInfo, "MetadataToken")
}

type UnresolvedField struct {
	reflection.FieldInfo
}

var _ live.Field = (*UnresolvedField)(nil)

func (*UnresolvedField) unresolved() {}

func (f *UnresolvedField) Declaration() reflection.CodeElementInfo { return f.FieldInfo }

func (f *UnresolvedField) Value(any) (any, error) {
	return nil, notSupported(f.FieldInfo, "Value")
}

func (f *UnresolvedField) SetValue(any, any) error {
	return notSupported(f.FieldInfo, "SetValue")
}

func (f *UnresolvedField) MetadataToken() (int, error) {
	return 0, notSupported(f.FieldInfo, "MetadataToken")
}

type UnresolvedProperty struct {
	reflection.PropertyInfo
}

var _ live.Property = (*UnresolvedProperty)(nil)

func (*UnresolvedProperty) unresolved() {}

func (p *UnresolvedProperty) Declaration() reflection.CodeElementInfo { return p.PropertyInfo }

func (p *UnresolvedProperty) Value(any) (any, error) {
	return nil, notSupported(p.PropertyInfo, "Value")
}

func (p *UnresolvedProperty) SetValue(any, any) error {
	return notSupported(p.PropertyInfo, "SetValue")
}

type UnresolvedEvent struct {
	reflection.EventInfo
}

var _ live.Event = (*UnresolvedEvent)(nil)

func (*UnresolvedEvent) unresolved() {}

func (e *UnresolvedEvent) Declaration() reflection.CodeElementInfo { return e.EventInfo }

func (e *UnresolvedEvent) AddHandler(any, any) error {
	return notSupported(e.EventInfo, "AddHandler")
}

type UnresolvedParameter struct {
	reflection.ParameterInfo
}

var _ live.Parameter = (*UnresolvedParameter)(nil)

func (*UnresolvedParameter) unresolved() {}

func (p *UnresolvedParameter) Declaration() reflection.CodeElementInfo { return p.ParameterInfo }

func (p *UnresolvedParameter) ReflectType() (reflect.Type, error) {
	return nil, notSupported(p.ParameterInfo, "ReflectType")
}
