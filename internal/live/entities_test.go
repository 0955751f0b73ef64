package live_test

import (
	"reflect"
	"testing"

	"codemodel/internal/live"
	"codemodel/internal/reflection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind_Type(t *testing.T) {
	p := newShapesPolicy(t)
	circle := mustType(t, p, Circle{})

	typ, ok := p.BindType(circle)
	require.True(t, ok)
	rt, err := typ.ReflectType()
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[Circle](), rt)
	assert.True(t, typ.Equals(circle))
	assert.True(t, circle.Equals(typ.Declaration()))
	assert.Same(t, circle, reflection.Unwrap(typ))

	v, err := typ.New()
	require.NoError(t, err)
	assert.Equal(t, &Circle{}, v)

	v, err = typ.New(2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v.(*Circle).Radius)

	v, err = typ.New("disk", 1.5)
	require.NoError(t, err)
	assert.Equal(t, "disk", v.(*Circle).Label())

	_, err = typ.New("", 1.5)
	assert.EqualError(t, err, "empty label")

	shape, ok := p.BindType(mustType(t, p, (*Shape)(nil)))
	require.True(t, ok)
	_, err = shape.New()
	assert.ErrorIs(t, err, reflection.ErrInvalidOperation)
}

func TestBind_RejectsForeignElements(t *testing.T) {
	p := newShapesPolicy(t)
	other := newShapesPolicy(t)

	_, ok := p.BindType(mustType(t, other, Circle{}))
	assert.False(t, ok)

	area, err := mustType(t, p, Circle{}).Method("Area", publicInstance)
	require.NoError(t, err)
	_, ok = p.BindField(mustType(t, p, Circle{}).Field("Radius", publicInstance))
	assert.True(t, ok)
	_, ok = p.BindType(area.ReturnType())
	assert.True(t, ok)
	_, ok = p.BindEvent(nil)
	assert.False(t, ok)
}

func TestMethod_Invoke(t *testing.T) {
	p := newShapesPolicy(t)
	circle := mustType(t, p, Circle{})
	c := &Circle{Radius: 2}

	area, err := circle.Method("Area", publicInstance)
	require.NoError(t, err)
	m, ok := p.BindMethod(area)
	require.True(t, ok)

	out, err := m.Invoke(c)
	require.NoError(t, err)
	assert.Equal(t, []any{12.0}, out)

	out, err = m.Invoke(Circle{Radius: 1})
	require.NoError(t, err)
	assert.Equal(t, []any{3.0}, out)

	token, err := m.MetadataToken()
	require.NoError(t, err)
	assert.Equal(t, 0x06000001, token)

	_, err = m.Invoke(&Base{})
	assert.ErrorIs(t, err, reflection.ErrInvalidArgument)
	_, err = m.Invoke(c, 1)
	assert.ErrorIs(t, err, reflection.ErrInvalidArgument)

	scaleInfo, err := circle.Method("Scale", publicInstance)
	require.NoError(t, err)
	scale, ok := p.BindMethod(scaleInfo)
	require.True(t, ok)
	out, err = scale.Invoke(c, 2, 1.5)
	require.NoError(t, err)
	assert.Equal(t, []any{6.0}, out)

	// Interface methods dispatch on the receiver.
	shapeArea, err := mustType(t, p, (*Shape)(nil)).Method("Area", publicInstance)
	require.NoError(t, err)
	sm, ok := p.BindMethod(shapeArea)
	require.True(t, ok)
	out, err = sm.Invoke(c)
	require.NoError(t, err)
	assert.Equal(t, []any{12.0}, out)
}

func TestConstructor_Call(t *testing.T) {
	p := newShapesPolicy(t)
	ctors := mustType(t, p, Circle{}).Constructors(publicInstance)
	require.Len(t, ctors, 3)

	zero, ok := p.BindConstructor(ctors[0])
	require.True(t, ok)
	v, err := zero.Call()
	require.NoError(t, err)
	assert.Equal(t, &Circle{}, v)
	_, err = zero.Call(1)
	assert.ErrorIs(t, err, reflection.ErrInvalidArgument)

	named, ok := p.BindConstructor(ctors[2])
	require.True(t, ok)
	v, err = named.Call("ring", float32(0.5))
	require.NoError(t, err)
	assert.Equal(t, 0.5, v.(*Circle).Radius)

	_, err = named.Call(3, 0.5)
	assert.ErrorIs(t, err, reflection.ErrInvalidArgument)

	t1, _ := zero.MetadataToken()
	t2, _ := named.MetadataToken()
	assert.NotEqual(t, t1, t2)
}

func TestField_Value(t *testing.T) {
	p := newShapesPolicy(t)
	circle := mustType(t, p, Circle{})

	radius, ok := p.BindField(circle.Field("Radius", publicInstance))
	require.True(t, ok)
	c := &Circle{Radius: 2}

	v, err := radius.Value(c)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	require.NoError(t, radius.SetValue(c, 4))
	assert.Equal(t, 4.0, c.Radius)
	assert.ErrorIs(t, radius.SetValue(*c, 1.0), reflection.ErrInvalidArgument)
	assert.ErrorIs(t, radius.SetValue(c, "wide"), reflection.ErrInvalidArgument)
	_, err = radius.Value(&Base{})
	assert.ErrorIs(t, err, reflection.ErrInvalidArgument)

	token, err := radius.MetadataToken()
	require.NoError(t, err)
	assert.Equal(t, 0x04000002, token)

	label, ok := p.BindField(circle.Field("label", reflection.BindingNonPublic|reflection.BindingInstance))
	require.True(t, ok)
	_, err = label.Value(c)
	assert.ErrorIs(t, err, reflection.ErrInvalidOperation)

	blue, ok := p.BindField(mustType(t, p, Red).Field("Blue", reflection.BindingPublic|reflection.BindingStatic))
	require.True(t, ok)
	v, err = blue.Value(nil)
	require.NoError(t, err)
	assert.Equal(t, Blue, v)
	assert.ErrorIs(t, blue.SetValue(nil, Red), reflection.ErrInvalidOperation)
}

func TestProperty_Value(t *testing.T) {
	p := newShapesPolicy(t)
	info, err := mustType(t, p, Circle{}).Property("Label", publicInstance)
	require.NoError(t, err)
	prop, ok := p.BindProperty(info)
	require.True(t, ok)

	c := &Circle{}
	require.NoError(t, prop.SetValue(c, "dot"))
	v, err := prop.Value(c)
	require.NoError(t, err)
	assert.Equal(t, "dot", v)

	v, err = prop.Value(*c)
	require.NoError(t, err)
	assert.Equal(t, "dot", v)
}

func TestParameter_ReflectType(t *testing.T) {
	p := newShapesPolicy(t)
	set, err := mustType(t, p, Circle{}).Method("SetLabel", publicInstance)
	require.NoError(t, err)

	param, ok := p.BindParameter(set.Parameters()[0])
	require.True(t, ok)
	rt, err := param.ReflectType()
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[string](), rt)

	ret, ok := p.BindParameter(set.ReturnParameter())
	require.True(t, ok)
	rt, err = ret.ReflectType()
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[live.Void](), rt)
}

func TestAssembly_ReflectTypes(t *testing.T) {
	p := newShapesPolicy(t)
	asm, ok := p.Assembly("Shapes")
	require.True(t, ok)
	bound, ok := p.BindAssembly(asm)
	require.True(t, ok)

	types, err := bound.ReflectTypes()
	require.NoError(t, err)
	assert.Len(t, types, 6)
	assert.Contains(t, types, reflect.TypeFor[Circle]())
}
