package live

import (
	"fmt"
	"reflect"

	"codemodel/internal/reflection"
)

// Token tables of method and field tokens.
const (
	methodTokenTable = 0x06000000
	fieldTokenTable  = 0x04000000
)

type Assembly interface {
	reflection.AssemblyInfo
	reflection.Declared
	ReflectTypes() ([]reflect.Type, error)
}

type Type interface {
	reflection.TypeInfo
	reflection.Declared
	ReflectType() (reflect.Type, error)
	// New calls the first constructor accepting args.
	New(args ...any) (any, error)
}

type Method interface {
	reflection.MethodInfo
	reflection.Declared
	Invoke(receiver any, args ...any) ([]any, error)
	// MetadataToken is unique within the declaring type.
	MetadataToken() (int, error)
}

type Constructor interface {
	reflection.ConstructorInfo
	reflection.Declared
	Call(args ...any) (any, error)
	MetadataToken() (int, error)
}

type Field interface {
	reflection.FieldInfo
	reflection.Declared
	Value(obj any) (any, error)
	SetValue(obj, value any) error
	MetadataToken() (int, error)
}

type Property interface {
	reflection.PropertyInfo
	reflection.Declared
	Value(obj any) (any, error)
	SetValue(obj, value any) error
}

type Event interface {
	reflection.EventInfo
	reflection.Declared
	AddHandler(target, handler any) error
}

type Parameter interface {
	reflection.ParameterInfo
	reflection.Declared
	ReflectType() (reflect.Type, error)
}

// handleOf returns the handle of an element wrapped by p.
func (p *Policy) handleOf(e reflection.CodeElementInfo, kind reflection.CodeElementKind) (*Handle, bool) {
	se, ok := reflection.Unwrap(e).(reflection.StaticElement[*Handle])
	if !ok || se.Policy() != reflection.StaticPolicy[*Handle](p) {
		return nil, false
	}
	h := se.Handle()
	return h, h != nil && h.Kind == kind
}

func (p *Policy) BindAssembly(a reflection.AssemblyInfo) (Assembly, bool) {
	if _, ok := p.handleOf(a, reflection.KindAssembly); !ok {
		return nil, false
	}
	w, ok := reflection.Unwrap(a).(*reflection.Assembly[*Handle])
	if !ok {
		return nil, false
	}
	return &liveAssembly{Assembly: w, policy: p}, true
}

func (p *Policy) BindType(t reflection.TypeInfo) (Type, bool) {
	if _, ok := p.handleOf(t, reflection.KindType); !ok {
		return nil, false
	}
	w, ok := reflection.Unwrap(t).(*reflection.DeclaredType[*Handle])
	if !ok {
		return nil, false
	}
	return &liveType{DeclaredType: w, policy: p}, true
}

func (p *Policy) BindMethod(m reflection.MethodInfo) (Method, bool) {
	if _, ok := p.handleOf(m, reflection.KindMethod); !ok {
		return nil, false
	}
	w, ok := reflection.Unwrap(m).(*reflection.Method[*Handle])
	if !ok {
		return nil, false
	}
	return &liveMethod{Method: w, policy: p}, true
}

func (p *Policy) BindConstructor(c reflection.ConstructorInfo) (Constructor, bool) {
	if _, ok := p.handleOf(c, reflection.KindConstructor); !ok {
		return nil, false
	}
	w, ok := reflection.Unwrap(c).(*reflection.Constructor[*Handle])
	if !ok {
		return nil, false
	}
	return &liveConstructor{Constructor: w, policy: p}, true
}

func (p *Policy) BindField(f reflection.FieldInfo) (Field, bool) {
	if _, ok := p.handleOf(f, reflection.KindField); !ok {
		return nil, false
	}
	w, ok := reflection.Unwrap(f).(*reflection.Field[*Handle])
	if !ok {
		return nil, false
	}
	return &liveField{Field: w, policy: p}, true
}

func (p *Policy) BindProperty(prop reflection.PropertyInfo) (Property, bool) {
	if _, ok := p.handleOf(prop, reflection.KindProperty); !ok {
		return nil, false
	}
	w, ok := reflection.Unwrap(prop).(*reflection.Property[*Handle])
	if !ok {
		return nil, false
	}
	return &liveProperty{Property: w, policy: p}, true
}

// BindEvent always fails: Go types declare no events.
func (p *Policy) BindEvent(reflection.EventInfo) (Event, bool) {
	return nil, false
}

func (p *Policy) BindParameter(param reflection.ParameterInfo) (Parameter, bool) {
	if _, ok := p.handleOf(param, reflection.KindParameter); !ok {
		return nil, false
	}
	w, ok := reflection.Unwrap(param).(*reflection.Parameter[*Handle])
	if !ok {
		return nil, false
	}
	return &liveParameter{Parameter: w, policy: p}, true
}

type liveAssembly struct {
	*reflection.Assembly[*Handle]
	policy *Policy
}

func (a *liveAssembly) Declaration() reflection.CodeElementInfo { return a.Assembly }

func (a *liveAssembly) ReflectTypes() ([]reflect.Type, error) {
	return a.policy.registry.unitTypes(a.Handle().Unit), nil
}

type liveType struct {
	*reflection.DeclaredType[*Handle]
	policy *Policy
}

func (t *liveType) Declaration() reflection.CodeElementInfo { return t.DeclaredType }

func (t *liveType) ReflectType() (reflect.Type, error) {
	return t.Handle().Type, nil
}

func (t *liveType) New(args ...any) (any, error) {
	rt := t.Handle().Type
	if len(args) == 0 && rt.Kind() == reflect.Struct {
		return reflect.New(rt).Interface(), nil
	}
	e := t.policy.mustEntry(t.Handle())
	var lastErr error
	for _, ctor := range e.ctors {
		out, err := callConstructor(ctor, args)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: %s has no constructor", reflection.ErrInvalidOperation, e.fullName)
	}
	return nil, lastErr
}

type liveMethod struct {
	*reflection.Method[*Handle]
	policy *Policy
}

func (m *liveMethod) Declaration() reflection.CodeElementInfo { return m.Method }

func (m *liveMethod) MetadataToken() (int, error) {
	return methodTokenTable | (m.Handle().Index + 1), nil
}

func (m *liveMethod) Invoke(receiver any, args ...any) ([]any, error) {
	h := m.Handle()
	fn, err := boundMethod(h.Type, h.Name, receiver)
	if err != nil {
		return nil, err
	}
	in, err := convertArgs(fn.Type(), args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h, err)
	}
	results := fn.Call(in)
	out := make([]any, len(results))
	for i, r := range results {
		out[i] = r.Interface()
	}
	return out, nil
}

// boundMethod returns the method name of receiver, taking the address of
// receiver when the method has a pointer receiver.
func boundMethod(declaring reflect.Type, name string, receiver any) (reflect.Value, error) {
	rv := reflect.ValueOf(receiver)
	if !rv.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: nil receiver for %s.%s", reflection.ErrInvalidArgument, declaring, name)
	}
	if declaring.Kind() == reflect.Interface {
		if !rv.Type().Implements(declaring) {
			return reflect.Value{}, fmt.Errorf("%w: %s does not implement %s", reflection.ErrInvalidArgument, rv.Type(), declaring)
		}
	} else if derefType(rv.Type()) != declaring {
		return reflect.Value{}, fmt.Errorf("%w: receiver %s is not a %s", reflection.ErrInvalidArgument, rv.Type(), declaring)
	}
	fn := rv.MethodByName(name)
	if !fn.IsValid() && rv.Kind() != reflect.Pointer {
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		fn = ptr.MethodByName(name)
	}
	if !fn.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: %s has no method %s", reflection.ErrInvalidOperation, rv.Type(), name)
	}
	return fn, nil
}

type liveConstructor struct {
	*reflection.Constructor[*Handle]
	policy *Policy
}

func (c *liveConstructor) Declaration() reflection.CodeElementInfo { return c.Constructor }

// MetadataToken numbers constructors after the declared methods.
func (c *liveConstructor) MetadataToken() (int, error) {
	h := c.Handle()
	return methodTokenTable | (len(c.policy.declaredMethods(h.Type)) + h.Index + 2), nil
}

func (c *liveConstructor) Call(args ...any) (any, error) {
	h := c.Handle()
	if h.Index < 0 {
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: zero value constructor takes no arguments", reflection.ErrInvalidArgument)
		}
		return reflect.New(h.Type).Interface(), nil
	}
	return callConstructor(c.policy.mustEntry(h).ctors[h.Index], args)
}

func callConstructor(ctor reflect.Value, args []any) (any, error) {
	in, err := convertArgs(ctor.Type(), args)
	if err != nil {
		return nil, err
	}
	out := ctor.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

type liveField struct {
	*reflection.Field[*Handle]
	policy *Policy
}

func (f *liveField) Declaration() reflection.CodeElementInfo { return f.Field }

func (f *liveField) MetadataToken() (int, error) {
	h := f.Handle()
	if h.isConstant() {
		return fieldTokenTable | -h.Index, nil
	}
	return fieldTokenTable | (h.Index + 1), nil
}

func (f *liveField) Value(obj any) (any, error) {
	h := f.Handle()
	if h.isConstant() {
		c := f.policy.mustEntry(h).spec.Constants[-1-h.Index]
		return reflect.ValueOf(c.Value).Convert(h.Type).Interface(), nil
	}
	fv, err := f.field(obj)
	if err != nil {
		return nil, err
	}
	return fv.Interface(), nil
}

func (f *liveField) SetValue(obj, value any) error {
	h := f.Handle()
	if h.isConstant() {
		return fmt.Errorf("%w: %s is a constant", reflection.ErrInvalidOperation, h)
	}
	fv, err := f.field(obj)
	if err != nil {
		return err
	}
	if !fv.CanSet() {
		return fmt.Errorf("%w: %s is not addressable, pass a pointer", reflection.ErrInvalidArgument, h)
	}
	v, err := convertValue(value, fv.Type())
	if err != nil {
		return fmt.Errorf("%s: %w", h, err)
	}
	fv.Set(v)
	return nil
}

func (f *liveField) field(obj any) (reflect.Value, error) {
	h := f.Handle()
	if !h.Type.Field(h.Index).IsExported() {
		return reflect.Value{}, fmt.Errorf("%w: %s is not exported", reflection.ErrInvalidOperation, h)
	}
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != h.Type {
		return reflect.Value{}, fmt.Errorf("%w: %T is not a %s", reflection.ErrInvalidArgument, obj, h.Type)
	}
	return rv.Field(h.Index), nil
}

type liveProperty struct {
	*reflection.Property[*Handle]
	policy *Policy
}

func (p *liveProperty) Declaration() reflection.CodeElementInfo { return p.Property }

func (p *liveProperty) Value(obj any) (any, error) {
	h := p.Handle()
	fn, err := boundMethod(h.Type, h.Name, obj)
	if err != nil {
		return nil, err
	}
	return fn.Call(nil)[0].Interface(), nil
}

func (p *liveProperty) SetValue(obj, value any) error {
	h := p.Handle()
	if _, ok := p.policy.PropertySetMethod(h); !ok {
		return fmt.Errorf("%w: %s has no setter", reflection.ErrInvalidOperation, h)
	}
	fn, err := boundMethod(h.Type, "Set"+h.Name, obj)
	if err != nil {
		return err
	}
	in, err := convertArgs(fn.Type(), []any{value})
	if err != nil {
		return fmt.Errorf("%s: %w", h, err)
	}
	fn.Call(in)
	return nil
}

type liveParameter struct {
	*reflection.Parameter[*Handle]
	policy *Policy
}

func (p *liveParameter) Declaration() reflection.CodeElementInfo { return p.Parameter }

func (p *liveParameter) ReflectType() (reflect.Type, error) {
	return p.policy.parameterReflectType(p.Handle()), nil
}

// convertArgs converts call arguments to the parameter types of ft.
func convertArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	n := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("%w: want at least %d arguments, got %d", reflection.ErrInvalidArgument, n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", reflection.ErrInvalidArgument, n, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var want reflect.Type
		if ft.IsVariadic() && i >= n-1 {
			want = ft.In(n - 1).Elem()
		} else {
			want = ft.In(i)
		}
		v, err := convertValue(arg, want)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}
	return in, nil
}

func convertValue(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch want.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(want), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil is not a %s", reflection.ErrInvalidArgument, want)
	}
	v := reflect.ValueOf(arg)
	switch {
	case v.Type().AssignableTo(want):
		return v, nil
	case isNumeric(v.Kind()) && isNumeric(want.Kind()):
		if overflows(v, want) {
			return reflect.Value{}, fmt.Errorf("%w: %v overflows %s", reflection.ErrInvalidArgument, arg, want)
		}
		return v.Convert(want), nil
	case v.Kind() == want.Kind() && v.Type().ConvertibleTo(want):
		return v.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s is not a %s", reflection.ErrInvalidArgument, v.Type(), want)
}

func isNumeric(k reflect.Kind) bool {
	return isInteger(k) || k == reflect.Float32 || k == reflect.Float64
}

func overflows(v reflect.Value, want reflect.Type) bool {
	z := reflect.New(want).Elem()
	switch {
	case v.CanInt() && z.CanInt():
		return z.OverflowInt(v.Int())
	case v.CanInt() && z.CanUint():
		return v.Int() < 0 || z.OverflowUint(uint64(v.Int()))
	case v.CanUint() && z.CanUint():
		return z.OverflowUint(v.Uint())
	case v.CanUint() && z.CanInt():
		return v.Uint() > 1<<63-1 || z.OverflowInt(int64(v.Uint()))
	case v.CanFloat() && z.CanFloat():
		return z.OverflowFloat(v.Float())
	case v.CanFloat():
		f := v.Float()
		if f != float64(int64(f)) {
			return true
		}
		if z.CanUint() {
			return f < 0 || z.OverflowUint(uint64(f))
		}
		return z.OverflowInt(int64(f))
	}
	return false
}
