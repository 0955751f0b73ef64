package resolver_test

import (
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"

	"codemodel/internal/live"
	"codemodel/internal/metadata"
	"codemodel/internal/reflection"
	"codemodel/internal/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const publicInstance = reflection.BindingPublic | reflection.BindingInstance

type Circle struct {
	Radius float64
	label  string
}

func NewCircle(radius float64) *Circle { return &Circle{Radius: radius} }

func (c *Circle) Area() float64     { return math.Pi * c.Radius * c.Radius }
func (c *Circle) Grow(by float64)   { c.Radius += by }
func (c *Circle) Label() string     { return c.label }
func (c *Circle) SetLabel(s string) { c.label = s }

const shapesManifest = `
assemblies:
  - name: Shapes
    version: 1.0.0
    types:
      - name: Circle
        namespace: Shapes
        visibility: public
        constructors:
          - visibility: public
            parameters: [{name: radius, type: double}]
        fields:
          - {name: Radius, type: double, visibility: public}
        methods:
          - {name: Area, visibility: public, returns: double}
          - name: Grow
            visibility: public
            parameters: [{name: by, type: double}]
        properties:
          - {name: Label, type: string, visibility: public, set: true}
      - name: Note
        namespace: Shapes
        visibility: public
        base: System.Attribute
        constructors:
          - visibility: public
      - name: Square
        namespace: Shapes
        visibility: public
        attributes:
          - type: Note
        fields:
          - {name: Side, type: double, visibility: public}
        methods:
          - {name: Area, visibility: public, returns: double}
`

type fixture struct {
	live   *live.Policy
	static *metadata.Policy
	chain  *resolver.Chain
}

func newFixture(t *testing.T, opts ...resolver.Option) *fixture {
	t.Helper()
	reg := live.NewRegistry(zaptest.NewLogger(t))
	_, err := reg.RegisterUnit(live.UnitSpec{Name: "Shapes", Version: "1.0.0"})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterType("Shapes", Circle{}, live.TypeSpec{
		Namespace:    "Shapes",
		Constructors: []any{NewCircle},
	}))
	lp := live.NewPolicy(reg)

	m, err := metadata.ParseManifest("shapes.yaml", []byte(shapesManifest))
	require.NoError(t, err)
	model, err := metadata.NewBuilder(zaptest.NewLogger(t)).Add(m).Build()
	require.NoError(t, err)

	return &fixture{
		live:   lp,
		static: metadata.NewPolicy(model),
		chain:  resolver.NewDefaultChain(lp, opts...),
	}
}

func (f *fixture) staticType(t *testing.T, name string) reflection.TypeInfo {
	t.Helper()
	typ, ok := f.static.Type(name)
	require.True(t, ok, name)
	return typ
}

func TestChain_ResolvesLiveElements(t *testing.T) {
	f := newFixture(t)
	circle, ok := f.live.TypeOf(Circle{})
	require.True(t, ok)

	typ, err := f.chain.ResolveType(circle)
	require.NoError(t, err)
	rt, err := typ.ReflectType()
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[Circle](), rt)

	again, err := f.chain.ResolveType(typ)
	require.NoError(t, err)
	assert.Same(t, typ, again)

	stats := f.chain.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "handle", stats[0].Stage)
	assert.Equal(t, resolver.ResolveStats{Attempted: 1, Resolved: 1}, stats[0].Stats)
	assert.Equal(t, resolver.ResolveStats{}, stats[1].Stats)
}

func TestChain_ResolvesStaticDeclarations(t *testing.T) {
	f := newFixture(t)
	circle := f.staticType(t, "Shapes.Circle")

	typ, err := f.chain.ResolveType(circle)
	require.NoError(t, err)
	assert.Equal(t, "Shapes.Circle", typ.FullName())

	asm, err := f.chain.ResolveAssembly(circle.Assembly())
	require.NoError(t, err)
	types, err := asm.ReflectTypes()
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[Circle]()}, types)

	ctor, err := f.chain.ResolveConstructor(circle.Constructors(publicInstance)[0])
	require.NoError(t, err)
	v, err := ctor.Call(2.0)
	require.NoError(t, err)
	c := v.(*Circle)

	area, err := circle.Method("Area", publicInstance)
	require.NoError(t, err)
	m, err := f.chain.ResolveMethod(area)
	require.NoError(t, err)
	out, err := m.Invoke(c)
	require.NoError(t, err)
	assert.InDelta(t, 4*math.Pi, out[0], 1e-9)

	grow, err := circle.Method("Grow", publicInstance)
	require.NoError(t, err)
	param, err := f.chain.ResolveParameter(grow.Parameters()[0])
	require.NoError(t, err)
	prt, err := param.ReflectType()
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[float64](), prt)

	radius, err := f.chain.ResolveField(circle.Field("Radius", publicInstance))
	require.NoError(t, err)
	require.NoError(t, radius.SetValue(c, 3.0))
	assert.Equal(t, 3.0, c.Radius)

	prop, err := circle.Property("Label", publicInstance)
	require.NoError(t, err)
	label, err := f.chain.ResolveProperty(prop)
	require.NoError(t, err)
	require.NoError(t, label.SetValue(c, "unit"))
	assert.Equal(t, "unit", c.Label())

	stats := f.chain.Stats()
	assert.Zero(t, stats[0].Stats.Resolved)
	assert.Equal(t, 7, stats[1].Stats.Resolved)
}

func TestChain_ResolveError(t *testing.T) {
	f := newFixture(t)
	square := f.staticType(t, "Shapes.Square")

	_, err := f.chain.ResolveType(square)
	var resolveErr *reflection.ResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.True(t, resolveErr.Element.Equals(square))
	assert.ErrorIs(t, err, resolver.ErrNoMatch)
	assert.EqualError(t, err, "cannot resolve type Shapes.Square: no live entity")

	area, err := square.Method("Area", publicInstance)
	require.NoError(t, err)
	_, err = f.chain.ResolveMethod(area)
	assert.ErrorIs(t, err, resolver.ErrNoMatch)

	_, err = f.chain.Resolve(nil)
	assert.ErrorIs(t, err, reflection.ErrInvalidArgument)
}

func TestChain_Placeholders(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := newFixture(t, resolver.WithLogger(zap.New(core)))
	square := f.staticType(t, "Shapes.Square")

	typ := f.chain.ResolveTypeOrPlaceholder(square)
	require.IsType(t, &resolver.UnresolvedType{}, typ)
	assert.Equal(t, "Square", typ.Name())
	assert.Equal(t, reflection.KindType, typ.Kind())
	assert.Len(t, slices.Collect(typ.AttributeInfos(nil, false)), 1)
	assert.True(t, typ.Equals(square))
	assert.True(t, square.Equals(typ))
	assert.Equal(t, square.Hash(), typ.Hash())
	assert.True(t, typ.Equals(f.chain.ResolveTypeOrPlaceholder(typ)))
	assert.Same(t, square, reflection.Unwrap(f.chain.ResolveTypeOrPlaceholder(typ)))

	_, err := typ.New()
	assert.ErrorIs(t, err, reflection.ErrNotSupported)
	_, err = typ.ReflectType()
	assert.ErrorIs(t, err, reflection.ErrNotSupported)

	area, err := square.Method("Area", publicInstance)
	require.NoError(t, err)
	m := f.chain.ResolveMethodOrPlaceholder(area)
	assert.Equal(t, "Area", m.Name())
	_, err = m.Invoke(nil)
	assert.ErrorIs(t, err, reflection.ErrNotSupported)
	_, err = m.MetadataToken()
	assert.ErrorIs(t, err, reflection.ErrNotSupported)
	_, err = f.chain.ResolveParameterOrPlaceholder(area.ReturnParameter()).ReflectType()
	assert.ErrorIs(t, err, reflection.ErrNotSupported)

	side := f.chain.ResolveFieldOrPlaceholder(square.Field("Side", publicInstance))
	_, err = side.Value(nil)
	assert.ErrorIs(t, err, reflection.ErrNotSupported)
	assert.ErrorIs(t, side.SetValue(nil, 1.0), reflection.ErrNotSupported)
	_, err = side.MetadataToken()
	assert.ErrorIs(t, err, reflection.ErrNotSupported)

	ctors := square.Constructors(publicInstance)
	require.NotEmpty(t, ctors)
	_, err = f.chain.ResolveConstructorOrPlaceholder(ctors[0]).Call()
	assert.ErrorIs(t, err, reflection.ErrNotSupported)

	// A resolvable declaration yields the live entity, not a placeholder.
	circle := f.chain.ResolveTypeOrPlaceholder(f.staticType(t, "Shapes.Circle"))
	_, isPlaceholder := circle.(*resolver.UnresolvedType)
	assert.False(t, isPlaceholder)

	assert.NotZero(t, logs.FilterMessage("using placeholder").Len())
}

type fakeStage struct {
	name string
	fn   func(reflection.CodeElementInfo) (reflection.Declared, error)
}

func (s fakeStage) Name() string { return s.name }
func (s fakeStage) Bind(e reflection.CodeElementInfo) (reflection.Declared, error) {
	return s.fn(e)
}

func TestChain_StageOrder(t *testing.T) {
	f := newFixture(t)
	square := f.staticType(t, "Shapes.Square")
	boom := errors.New("boom")

	var calls []string
	stage := func(name string, err error) resolver.Stage {
		return fakeStage{name: name, fn: func(reflection.CodeElementInfo) (reflection.Declared, error) {
			calls = append(calls, name)
			return nil, err
		}}
	}

	chain := resolver.NewChain([]resolver.Stage{
		stage("skip", resolver.ErrNoMatch),
		stage("fail", boom),
		stage("never", nil),
	})
	_, err := chain.ResolveType(square)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"skip", "fail"}, calls)

	stats := chain.Stats()
	assert.Equal(t, resolver.ResolveStats{Attempted: 1, Skipped: 1}, stats[0].Stats)
	assert.Equal(t, resolver.ResolveStats{Attempted: 1}, stats[1].Stats)
	assert.Equal(t, resolver.ResolveStats{}, stats[2].Stats)

	// A stage binding the wrong kind is reported, not returned.
	wrongKind := resolver.NewChain([]resolver.Stage{fakeStage{name: "wrong", fn: func(reflection.CodeElementInfo) (reflection.Declared, error) {
		return &resolver.UnresolvedType{TypeInfo: square}, nil
	}}})
	_, err = wrongKind.ResolveMethod(nil)
	assert.ErrorIs(t, err, reflection.ErrInvalidArgument)
	_, err = wrongKind.ResolveField(square.Field("Side", publicInstance))
	assert.ErrorIs(t, err, reflection.ErrInvalidOperation)
}
