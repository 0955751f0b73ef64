package live

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"codemodel/internal/reflection"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

var (
	ErrDuplicate    = errors.New("already registered")
	ErrUnknownUnit  = errors.New("unknown unit")
	ErrUnregistered = errors.New("type not registered")
)

// Unit is a registered code unit.
type Unit struct {
	name       reflection.AssemblyName
	path       string
	attributes []any
	types      []reflect.Type
}

func (u *Unit) Name() reflection.AssemblyName {
	return u.name
}

func (u *Unit) Path() string {
	return u.path
}

// UnitSpec describes a unit to register.
type UnitSpec struct {
	Name       string
	Version    string
	Path       string
	Attributes []any
}

// Constant is a named value of an enum-like type.
type Constant struct {
	Name  string
	Value any
}

// TypeSpec describes a type to register.
type TypeSpec struct {
	// Namespace defaults to the last element of the package path.
	Namespace  string
	Attributes []any
	// Members holds the attributes of methods, fields and properties by name.
	Members map[string][]any
	// Constructors are functions returning the type or a pointer to it,
	// optionally followed by an error.
	Constructors []any
	// Constants turn a named integer type into an enum.
	Constants []Constant
}

type typeEntry struct {
	unit      *Unit
	rt        reflect.Type
	namespace string
	fullName  string
	spec      TypeSpec
	ctors     []reflect.Value
	core      *coreType
}

// Registry records the units and types the live backend can see. It is safe
// for concurrent use.
type Registry struct {
	logger *zap.Logger

	mu         sync.RWMutex
	units      []*Unit
	unitByName map[string]*Unit
	types      map[reflect.Type]*typeEntry
	attributes map[string]*typeEntry
	interfaces []reflect.Type
}

// NewRegistry returns a registry holding the runtime unit with the core types.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		logger:     logger,
		unitByName: make(map[string]*Unit),
		types:      make(map[reflect.Type]*typeEntry),
		attributes: make(map[string]*typeEntry),
	}

	var version *semver.Version
	if v, err := semver.NewVersion(strings.TrimPrefix(runtime.Version(), "go")); err == nil {
		version = v
	}
	core := &Unit{name: reflection.AssemblyName{Name: coreUnitName, Version: version}}
	r.addUnit(core)
	for i := range coreTypes {
		ct := &coreTypes[i]
		r.types[ct.rt] = &typeEntry{
			unit:      core,
			rt:        ct.rt,
			namespace: "System",
			fullName:  "System." + ct.name,
			core:      ct,
		}
		core.types = append(core.types, ct.rt)
		if ct.rt.Kind() == reflect.Interface {
			r.interfaces = append(r.interfaces, ct.rt)
		}
	}
	usage := r.types[usageType]
	usage.ctors = []reflect.Value{reflect.ValueOf(newAttributeUsage)}
	r.attributes[usage.fullName] = usage
	return r
}

func newAttributeUsage(validOn reflection.AttributeTargets) AttributeUsage {
	return AttributeUsage{ValidOn: validOn, Inherited: true}
}

func (r *Registry) addUnit(u *Unit) {
	r.units = append(r.units, u)
	r.unitByName[u.name.Name] = u
}

// RegisterUnit adds a unit.
func (r *Registry) RegisterUnit(spec UnitSpec) (*Unit, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: unit without a name", reflection.ErrInvalidArgument)
	}
	u := &Unit{name: reflection.AssemblyName{Name: spec.Name}, path: spec.Path}
	if spec.Version != "" {
		v, err := semver.NewVersion(spec.Version)
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", spec.Name, err)
		}
		u.name.Version = v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.unitByName[spec.Name]; ok {
		return nil, fmt.Errorf("unit %s: %w", spec.Name, ErrDuplicate)
	}
	if err := r.checkAttributes(spec.Attributes); err != nil {
		return nil, fmt.Errorf("unit %s: %w", spec.Name, err)
	}
	u.attributes = spec.Attributes
	r.addUnit(u)
	r.logger.Debug("registered unit", zap.String("unit", u.name.FullName()))
	return u, nil
}

// RegisterType adds the type of sample to a unit. Sample is a value, a
// pointer to a struct or interface, or a reflect.Type.
func (r *Registry) RegisterType(unit string, sample any, spec TypeSpec) error {
	_, err := r.register(unit, typeOfSample(sample), spec)
	return err
}

// RegisterAttribute adds an attribute type. The type must embed Attribute,
// directly or through its base types.
func (r *Registry) RegisterAttribute(unit string, sample any, usage reflection.AttributeUsage, spec TypeSpec) error {
	rt := typeOfSample(sample)
	if !embedsAttribute(rt) {
		return fmt.Errorf("%w: %v does not embed live.Attribute", reflection.ErrInvalidArgument, rt)
	}
	spec.Attributes = append([]any{AttributeUsage{
		ValidOn:       usage.ValidOn,
		Inherited:     usage.Inherited,
		AllowMultiple: usage.AllowMultiple,
	}}, spec.Attributes...)

	e, err := r.register(unit, rt, spec)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.attributes[e.fullName] = e
	r.mu.Unlock()
	return nil
}

func (r *Registry) register(unit string, rt reflect.Type, spec TypeSpec) (*typeEntry, error) {
	if rt == nil || rt.Name() == "" || rt.PkgPath() == "" {
		return nil, fmt.Errorf("%w: %v is not a named type", reflection.ErrInvalidArgument, rt)
	}
	e := &typeEntry{rt: rt, spec: spec, namespace: spec.Namespace}
	if e.namespace == "" {
		e.namespace = path.Base(rt.PkgPath())
	}
	e.fullName = e.namespace + "." + rt.Name()

	for _, c := range spec.Constructors {
		ctor := reflect.ValueOf(c)
		if err := checkConstructor(rt, ctor); err != nil {
			return nil, fmt.Errorf("type %s: %w", e.fullName, err)
		}
		e.ctors = append(e.ctors, ctor)
	}
	for _, c := range spec.Constants {
		if !isInteger(rt.Kind()) {
			return nil, fmt.Errorf("%w: type %s has constants but is not an integer type", reflection.ErrInvalidArgument, e.fullName)
		}
		if v := reflect.ValueOf(c.Value); !v.IsValid() || !v.Type().ConvertibleTo(rt) {
			return nil, fmt.Errorf("%w: constant %s.%s is not convertible to the type", reflection.ErrInvalidArgument, e.fullName, c.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.unitByName[unit]
	if !ok {
		return nil, fmt.Errorf("%s: %w", unit, ErrUnknownUnit)
	}
	if _, ok := r.types[rt]; ok {
		return nil, fmt.Errorf("type %s: %w", e.fullName, ErrDuplicate)
	}
	if err := r.checkAttributes(spec.Attributes); err != nil {
		return nil, fmt.Errorf("type %s: %w", e.fullName, err)
	}
	for name, attrs := range spec.Members {
		if err := r.checkAttributes(attrs); err != nil {
			return nil, fmt.Errorf("member %s.%s: %w", e.fullName, name, err)
		}
	}

	e.unit = u
	u.types = append(u.types, rt)
	r.types[rt] = e
	if rt.Kind() == reflect.Interface {
		r.interfaces = append(r.interfaces, rt)
	}
	r.logger.Debug("registered type", zap.String("unit", unit), zap.String("type", e.fullName))
	return e, nil
}

// checkAttributes requires every attribute instance to be of a registered
// attribute type. Callers hold the lock.
func (r *Registry) checkAttributes(attrs []any) error {
	for _, a := range attrs {
		rt := reflect.TypeOf(a)
		if rt == nil {
			return fmt.Errorf("%w: nil attribute", reflection.ErrInvalidArgument)
		}
		rt = derefType(rt)
		e, ok := r.types[rt]
		if !ok || r.attributes[e.fullName] != e {
			return fmt.Errorf("attribute %v: %w", rt, ErrUnregistered)
		}
	}
	return nil
}

func checkConstructor(rt reflect.Type, ctor reflect.Value) error {
	if ctor.Kind() != reflect.Func {
		return fmt.Errorf("%w: constructor %v is not a function", reflection.ErrInvalidArgument, ctor.Type())
	}
	ft := ctor.Type()
	switch {
	case ft.NumOut() == 0 || ft.NumOut() > 2:
	case derefType(ft.Out(0)) != rt:
	case ft.NumOut() == 2 && ft.Out(1) != reflect.TypeFor[error]():
	default:
		return nil
	}
	return fmt.Errorf("%w: constructor %v does not return %v", reflection.ErrInvalidArgument, ft, rt)
}

// Units returns the registered units, the runtime unit first.
func (r *Registry) Units() []*Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Unit(nil), r.units...)
}

func (r *Registry) Unit(name string) (*Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.unitByName[name]
	return u, ok
}

// Lookup returns the type registered in unit under fullName.
func (r *Registry) Lookup(unit, fullName string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.unitByName[unit]
	if !ok {
		return nil, false
	}
	for _, rt := range u.types {
		if r.types[rt].fullName == fullName {
			return rt, true
		}
	}
	return nil, false
}

// FullName returns the full name under which rt is registered.
func (r *Registry) FullName(rt reflect.Type) (string, bool) {
	e, ok := r.entry(rt)
	if !ok {
		return "", false
	}
	return e.fullName, true
}

func (r *Registry) entry(rt reflect.Type) (*typeEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.types[rt]
	return e, ok
}

func (r *Registry) attributeEntry(fullName string) (*typeEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.attributes[fullName]
	return e, ok
}

func (r *Registry) unitTypes(u *Unit) []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]reflect.Type(nil), u.types...)
}

func (r *Registry) registeredInterfaces() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]reflect.Type(nil), r.interfaces...)
}

func typeOfSample(sample any) reflect.Type {
	if rt, ok := sample.(reflect.Type); ok {
		return rt
	}
	rt := reflect.TypeOf(sample)
	if rt != nil && rt.Kind() == reflect.Pointer {
		switch rt.Elem().Kind() {
		case reflect.Struct, reflect.Interface:
			return rt.Elem()
		}
	}
	return rt
}

func derefType(rt reflect.Type) reflect.Type {
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt
}

func embedsAttribute(rt reflect.Type) bool {
	for rt != nil {
		if rt == attributeType {
			return true
		}
		rt = embeddedBase(rt)
	}
	return false
}

// embeddedBase returns the type of the first embedded struct field.
func embeddedBase(rt reflect.Type) reflect.Type {
	if rt.Kind() != reflect.Struct {
		return nil
	}
	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.Anonymous {
			continue
		}
		if ft := derefType(f.Type); ft.Kind() == reflect.Struct {
			return ft
		}
	}
	return nil
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
