package live

import (
	"fmt"
	"reflect"

	"codemodel/internal/reflection"
)

// CreateAttribute builds an instance of a registered attribute type from a
// static attribute. It calls the first registered constructor accepting the
// constructor arguments, or takes the zero value when there are none, then
// assigns fields and calls SetX for property arguments.
func (r *Registry) CreateAttribute(attr reflection.AttributeInfo) (any, error) {
	typeName := attr.Type().FullName()
	fail := func(err error) error {
		return &reflection.AttributeConstructionError{AttributeType: typeName, Err: err}
	}
	e, ok := r.attributeEntry(typeName)
	if !ok {
		return nil, fail(ErrUnregistered)
	}

	v, err := r.construct(e, attr.ConstructorArguments())
	if err != nil {
		return nil, fail(err)
	}
	for _, arg := range attr.FieldArguments() {
		f := v.Elem().FieldByName(arg.Name)
		if !f.IsValid() || !f.CanSet() {
			return nil, fail(fmt.Errorf("no public field %s", arg.Name))
		}
		fv, err := r.constantValue(arg.Value, f.Type())
		if err != nil {
			return nil, fail(fmt.Errorf("field %s: %w", arg.Name, err))
		}
		f.Set(fv)
	}
	for _, arg := range attr.PropertyArguments() {
		set := v.MethodByName("Set" + arg.Name)
		if !set.IsValid() || set.Type().NumIn() != 1 {
			return nil, fail(fmt.Errorf("property %s has no setter", arg.Name))
		}
		pv, err := r.constantValue(arg.Value, set.Type().In(0))
		if err != nil {
			return nil, fail(fmt.Errorf("property %s: %w", arg.Name, err))
		}
		set.Call([]reflect.Value{pv})
	}
	return v.Elem().Interface(), nil
}

// construct returns a pointer to a new instance of e.
func (r *Registry) construct(e *typeEntry, args []reflection.ConstantValue) (reflect.Value, error) {
	if len(args) == 0 {
		return reflect.New(e.rt), nil
	}
	var lastErr error
	for _, ctor := range e.ctors {
		ft := ctor.Type()
		if ft.IsVariadic() || ft.NumIn() != len(args) {
			continue
		}
		in := make([]reflect.Value, len(args))
		var err error
		for i, arg := range args {
			if in[i], err = r.constantValue(arg, ft.In(i)); err != nil {
				err = fmt.Errorf("argument %d: %w", i, err)
				break
			}
		}
		if err != nil {
			lastErr = err
			continue
		}
		out := ctor.Call(in)
		if len(out) == 2 && !out[1].IsNil() {
			return reflect.Value{}, out[1].Interface().(error)
		}
		result := out[0]
		if result.Kind() == reflect.Pointer {
			if result.IsNil() {
				return reflect.Value{}, fmt.Errorf("constructor returned nil")
			}
			return result, nil
		}
		ptr := reflect.New(e.rt)
		ptr.Elem().Set(result)
		return ptr, nil
	}
	if lastErr != nil {
		return reflect.Value{}, lastErr
	}
	return reflect.Value{}, fmt.Errorf("no constructor accepts %d arguments", len(args))
}

// constantValue converts a constant to a value of type want. Arrays become
// slices, type references become reflect.Type for registered types.
func (r *Registry) constantValue(c reflection.ConstantValue, want reflect.Type) (reflect.Value, error) {
	switch {
	case c.IsNull():
		switch want.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
			return reflect.Zero(want), nil
		}
		return reflect.Value{}, fmt.Errorf("null is not a %s", want)
	case c.IsArray():
		return r.arrayValue(c.Elements(), want)
	case c.IsTypeRef():
		return r.typeValue(c.Value.(reflection.TypeInfo), want)
	}
	v, err := convertValue(c.Value, want)
	if err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

func (r *Registry) arrayValue(elems []reflection.ConstantValue, want reflect.Type) (reflect.Value, error) {
	st := want
	if want.Kind() == reflect.Interface {
		st = reflect.TypeFor[[]any]()
	}
	switch st.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(st, len(elems), len(elems))
		for i, e := range elems {
			v, err := r.constantValue(e, st.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("item %d: %w", i, err)
			}
			out.Index(i).Set(v)
		}
		if !st.AssignableTo(want) {
			return reflect.Value{}, fmt.Errorf("array is not a %s", want)
		}
		return out, nil
	case reflect.Array:
		if st.Len() != len(elems) {
			return reflect.Value{}, fmt.Errorf("want %d items, got %d", st.Len(), len(elems))
		}
		out := reflect.New(st).Elem()
		for i, e := range elems {
			v, err := r.constantValue(e, st.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("item %d: %w", i, err)
			}
			out.Index(i).Set(v)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("array is not a %s", want)
}

// typeValue converts a type reference. Targets of type reflect.Type receive
// the registered Go type; any other target receives the TypeInfo.
func (r *Registry) typeValue(t reflection.TypeInfo, want reflect.Type) (reflect.Value, error) {
	if want == systemType {
		rt, ok := r.resolveType(t)
		if !ok {
			return reflect.Value{}, fmt.Errorf("type %s: %w", t, ErrUnregistered)
		}
		return reflect.ValueOf(&rt).Elem(), nil
	}
	v := reflect.ValueOf(t)
	if !v.Type().AssignableTo(want) {
		return reflect.Value{}, fmt.Errorf("type reference is not a %s", want)
	}
	return v, nil
}

// resolveType finds the Go type registered for t, first in t's own unit,
// then in any unit.
func (r *Registry) resolveType(t reflection.TypeInfo) (reflect.Type, bool) {
	if se, ok := reflection.Unwrap(t).(reflection.StaticElement[*Handle]); ok {
		if h := se.Handle(); h != nil && h.Kind == reflection.KindType {
			return h.Type, true
		}
	}
	if a := t.Assembly(); a != nil {
		if rt, ok := r.Lookup(a.AssemblyName().Name, t.FullName()); ok {
			return rt, true
		}
	}
	for _, u := range r.Units() {
		if rt, ok := r.Lookup(u.name.Name, t.FullName()); ok {
			return rt, true
		}
	}
	return nil, false
}
