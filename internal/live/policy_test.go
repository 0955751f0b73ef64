package live_test

import (
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"codemodel/internal/live"
	"codemodel/internal/reflection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names[T reflection.CodeElementInfo](elems []T) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = e.Name()
	}
	return out
}

func TestPolicy_Assemblies(t *testing.T) {
	p := newShapesPolicy(t)

	units := p.Assemblies()
	require.Len(t, units, 2)
	assert.Equal(t, "runtime", units[0].Name())

	shapes, ok := p.Assembly("Shapes")
	require.True(t, ok)
	assert.Equal(t, "Shapes, Version=1.2.0", shapes.FullName())
	assert.Equal(t, "bin/shapes", shapes.Path())
	assert.Empty(t, shapes.ReferencedAssemblies())
	assert.Equal(t, []string{"Tag", "Owner", "Shape", "Base", "Circle", "Color"}, names(shapes.Types()))
	assert.NotNil(t, shapes.Type("Shapes.Circle"))
	assert.Nil(t, shapes.Type("Shapes.Square"))

	_, ok = p.Assembly("Missing")
	assert.False(t, ok)
}

func TestPolicy_TypeShape(t *testing.T) {
	p := newShapesPolicy(t)
	circle := mustType(t, p, Circle{})

	assert.Equal(t, "Shapes.Circle", circle.FullName())
	assert.Equal(t, "Shapes", circle.NamespaceName())
	assert.Equal(t, "Shapes", circle.Assembly().Name())
	assert.True(t, reflection.IsPublicType(circle))
	assert.Equal(t, "Shapes.Base", circle.BaseType().FullName())
	assert.Equal(t, "System.Object", circle.BaseType().BaseType().FullName())
	assert.Equal(t, []string{"Shape"}, names(circle.Interfaces()))
	assert.False(t, circle.IsGenericType())

	shape := mustType(t, p, (*Shape)(nil))
	assert.True(t, reflection.IsInterface(shape))
	assert.Nil(t, shape.BaseType())

	color := mustType(t, p, Red)
	assert.True(t, reflection.IsEnum(color))
	assert.True(t, reflection.IsValueType(color))

	same, _ := p.TypeOf(&Circle{})
	assert.True(t, circle.Equals(same))
	assert.Equal(t, circle.Hash(), same.Hash())

	_, ok := p.TypeOf(struct{}{})
	assert.False(t, ok)
}

func TestPolicy_Methods(t *testing.T) {
	p := newShapesPolicy(t)
	circle := mustType(t, p, Circle{})

	// Describe is promoted from Base and belongs to it.
	assert.Equal(t, []string{"Area", "Label", "Scale", "SetLabel"}, names(circle.Methods(declaredOnly)))
	assert.Contains(t, names(circle.Methods(publicInstance)), "Describe")

	area, err := circle.Method("Area", publicInstance)
	require.NoError(t, err)
	assert.True(t, area.IsVirtual())
	assert.False(t, area.IsStatic())
	assert.Equal(t, "System.Double", area.ReturnType().FullName())
	assert.Empty(t, area.Parameters())

	scale, err := circle.Method("Scale", publicInstance)
	require.NoError(t, err)
	assert.NotZero(t, scale.CallingConvention()&reflection.CallingVarArgs)
	require.Len(t, scale.Parameters(), 1)
	assert.Equal(t, "arg0", scale.Parameters()[0].Name())
	assert.Equal(t, "System.Double[]", scale.Parameters()[0].ValueType().FullName())

	set, err := circle.Method("SetLabel", publicInstance)
	require.NoError(t, err)
	assert.Equal(t, "System.Void", set.ReturnType().FullName())

	loc, err := area.CodeLocation()
	require.NoError(t, err)
	assert.Equal(t, "fixture_test.go", filepath.Base(loc.Path))
	assert.Positive(t, loc.Line)

	shapeArea, err := mustType(t, p, (*Shape)(nil)).Method("Area", publicInstance)
	require.NoError(t, err)
	assert.True(t, shapeArea.IsAbstract())
	loc, err = shapeArea.CodeLocation()
	require.NoError(t, err)
	assert.True(t, loc.IsUnknown())
}

func TestPolicy_FieldsAndProperties(t *testing.T) {
	p := newShapesPolicy(t)
	circle := mustType(t, p, Circle{})

	assert.Equal(t, []string{"Radius"}, names(circle.Fields(declaredOnly)))
	all := circle.Fields(declaredOnly | reflection.BindingNonPublic)
	assert.Equal(t, []string{"Radius", "label"}, names(all))
	assert.False(t, all[1].IsPublic())

	id := circle.Field("ID", publicInstance)
	require.NotNil(t, id)
	assert.Equal(t, "Shapes.Base", id.DeclaringType().FullName())
	assert.Equal(t, "System.IntPtr", id.ValueType().FullName())

	props := circle.Properties(declaredOnly)
	require.Len(t, props, 1)
	assert.Equal(t, "Label", props[0].Name())
	assert.Equal(t, "System.String", props[0].ValueType().FullName())
	require.NotNil(t, props[0].SetMethod())
	assert.Equal(t, "SetLabel", props[0].SetMethod().Name())

	color := mustType(t, p, Red)
	consts := color.Fields(reflection.BindingPublic | reflection.BindingStatic)
	require.Len(t, consts, 2)
	assert.Equal(t, []string{"Red", "Blue"}, names(consts))
	assert.True(t, consts[1].IsLiteral())
	v, ok := p.FieldValue(consts[1].(*reflection.Field[*live.Handle]).Handle())
	require.True(t, ok)
	assert.Equal(t, int64(4), v.Value)
}

func TestPolicy_Constructors(t *testing.T) {
	p := newShapesPolicy(t)
	circle := mustType(t, p, Circle{})

	ctors := circle.Constructors(publicInstance)
	require.Len(t, ctors, 3)
	assert.Empty(t, ctors[0].Parameters())
	assert.Len(t, ctors[1].Parameters(), 1)
	assert.Len(t, ctors[2].Parameters(), 2)
	assert.Equal(t, ".ctor", ctors[1].Name())

	loc, err := circle.CodeLocation()
	require.NoError(t, err)
	assert.Equal(t, "fixture_test.go", filepath.Base(loc.Path))
	assert.Zero(t, loc.Line)
}

func TestPolicy_Attributes(t *testing.T) {
	p := newShapesPolicy(t)
	circle := mustType(t, p, Circle{})
	tag := mustType(t, p, Tag{})

	declared := slices.Collect(circle.AttributeInfos(tag, false))
	require.Len(t, declared, 1)
	assert.Equal(t, `[Shapes.Tag(Name = "round")]`, declared[0].String())

	inherited, err := circle.Attributes(tag, true)
	require.NoError(t, err)
	assert.Equal(t, []any{Tag{Name: "round"}, Tag{Name: "base"}}, inherited)

	area, err := circle.Method("Area", publicInstance)
	require.NoError(t, err)
	assert.True(t, area.HasAttribute(tag, false))

	usage := slices.Collect(tag.AttributeInfos(nil, false))
	require.Len(t, usage, 1)
	assert.Equal(t, "[System.AttributeUsageAttribute((AttributeTargets)32767, Inherited = true, AllowMultiple = true)]", usage[0].String())
}

func TestPolicy_WellKnownTypes(t *testing.T) {
	p := newShapesPolicy(t)

	for _, w := range reflection.WellKnownTypes() {
		h, ok := p.WellKnownType(w)
		if w == reflection.WellKnownGenericList {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok, w.FullName())
		assert.Equal(t, w.FullName(), reflection.TypeDefinition(p, h).FullName())
	}

	str, ok := p.Type(reflect.TypeFor[string]())
	require.True(t, ok)
	assert.Equal(t, "System.Object", str.BaseType().FullName())
}

func TestPolicy_InvalidHandle(t *testing.T) {
	p := newShapesPolicy(t)
	assert.Panics(t, func() { p.TypeNamespace(&live.Handle{Kind: reflection.KindType, Type: reflect.TypeFor[struct{ X int }]()}) })
	assert.Panics(t, func() { p.AssemblyName(&live.Handle{Kind: reflection.KindType}) })
}
