package reflection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesBindingFlags(t *testing.T) {
	assert.True(t, matchesBindingFlags(BindingPublic|BindingInstance, true, false))
	assert.False(t, matchesBindingFlags(BindingPublic|BindingInstance, false, false))
	assert.False(t, matchesBindingFlags(BindingPublic|BindingInstance, true, true))
	assert.True(t, matchesBindingFlags(BindingNonPublic|BindingStatic, false, true))
	assert.False(t, matchesBindingFlags(BindingPublic, true, false), "neither instance nor static")
}

func TestInheritanceBindingFlags(t *testing.T) {
	assert.Equal(t, BindingDefault, inheritanceBindingFlags(BindingAll|BindingDeclaredOnly))
	assert.Equal(t, BindingPublic|BindingInstance|BindingDeclaredOnly, inheritanceBindingFlags(BindingPublic|BindingInstance|BindingStatic))
	assert.Equal(t, BindingPublic|BindingStatic|BindingDeclaredOnly, inheritanceBindingFlags(BindingPublic|BindingStatic|BindingFlattenHierarchy))
	assert.Equal(t, BindingNonPublic|BindingInstance|BindingDeclaredOnly, inheritanceBindingFlags(BindingNonPublic|BindingInstance|BindingFlattenHierarchy))
}

func TestSignatureSuffixes(t *testing.T) {
	assert.Equal(t, "[]", arraySuffix(1))
	assert.Equal(t, "[,,]", arraySuffix(3))
	assert.Equal(t, "", aritySuffix(0))
	assert.Equal(t, "`2", aritySuffix(2))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "generic_parameter", KindGenericParameter.String())
	assert.Equal(t, "unknown", CodeElementKind(0).String())
	assert.True(t, KindField.IsMember())
	assert.False(t, KindParameter.IsMember())
	assert.False(t, KindAssembly.IsMember())
}

func TestNamespace(t *testing.T) {
	a, b := NewNamespace("Acme.Tests"), NewNamespace("Acme.Tests")
	assert.True(t, a.Equals(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equals(NewNamespace("Acme")))
	assert.False(t, a.HasAttribute(nil, true))
	loc, err := a.CodeLocation()
	assert.NoError(t, err)
	assert.True(t, loc.IsUnknown())
}
