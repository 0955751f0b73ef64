package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest("testdata/acme.codemodel.yaml")
	require.NoError(t, err)

	assert.Equal(t, "testdata/acme.codemodel.yaml", m.Source)
	require.Len(t, m.Assemblies, 2)
	tests := m.Assemblies[1]
	assert.Equal(t, "Acme.Tests", tests.Name)
	require.Len(t, tests.Types, 4)
	assert.Equal(t, "Fixture", tests.Types[0].Name)
	assert.Equal(t, "Options", tests.Types[0].Nested[0].Name)
}

func TestValidateManifest_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing assemblies": `{}`,
		"unknown key":        "assemblies: []\nextra: 1\n",
		"type without name":  "assemblies:\n  - name: A\n    types:\n      - namespace: X\n",
		"bad visibility":     "assemblies:\n  - name: A\n    types:\n      - {name: T, visibility: friend}\n",
		"bad kind":           "assemblies:\n  - name: A\n    types:\n      - {name: T, kind: record}\n",
		"negative line":      "assemblies:\n  - name: A\n    types:\n      - {name: T, location: {path: a.cs, line: -1}}\n",
		"field without type": "assemblies:\n  - name: A\n    types:\n      - name: T\n        fields: [{name: f}]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateManifest([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseManifest_NamesSourceInErrors(t *testing.T) {
	_, err := ParseManifest("broken.yaml", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestArgDecl_Forms(t *testing.T) {
	doc := `
assemblies:
  - name: A
    attributes:
      - type: X
        args:
          - 3
          - 2.5
          - true
          - text
          - null
          - {type: System.Int64, value: 7}
          - {typeof: Acme.Fixture}
          - [a, b]
          - {type: System.String, items: [c]}
          - {type: System.String}
`
	m, err := ParseManifest("args.yaml", []byte(doc))
	require.NoError(t, err)
	args := m.Assemblies[0].Attributes[0].Args
	require.Len(t, args, 10)

	assert.Equal(t, "System.Int32", args[0].Type)
	assert.Equal(t, int64(3), args[0].Value)
	assert.True(t, args[0].implied)

	assert.Equal(t, "System.Double", args[1].Type)
	assert.Equal(t, 2.5, args[1].Value)

	assert.Equal(t, "System.Boolean", args[2].Type)
	assert.Equal(t, true, args[2].Value)

	assert.Equal(t, "System.String", args[3].Type)
	assert.Equal(t, "text", args[3].Value)

	assert.True(t, args[4].Null)
	assert.False(t, args[4].implied)

	assert.Equal(t, "System.Int64", args[5].Type)
	assert.Equal(t, 7, args[5].Value)
	assert.False(t, args[5].implied)

	assert.Equal(t, "Acme.Fixture", args[6].TypeOf)
	assert.False(t, args[6].Null)

	assert.True(t, args[7].Array)
	require.Len(t, args[7].Items, 2)
	assert.Equal(t, "a", args[7].Items[0].Value)

	assert.True(t, args[8].Array)
	assert.Equal(t, "System.String", args[8].Type)

	assert.True(t, args[9].Null, "a typed mapping without a value is a typed null")
	assert.Equal(t, "System.String", args[9].Type)
}

func TestMarshalManifest_RoundTrip(t *testing.T) {
	m, err := LoadManifest("testdata/acme.codemodel.yaml")
	require.NoError(t, err)

	data, err := MarshalManifest(m)
	require.NoError(t, err)
	again, err := ParseManifest("again.yaml", data)
	require.NoError(t, err)

	fixture := again.Assemblies[1].Types[0]
	assert.Equal(t, "Fixture", fixture.Name)
	require.Len(t, fixture.Attributes, 3)
	assert.Equal(t, "base", fixture.Attributes[0].Args[0].Value)
	assert.Equal(t, int64(1), fixture.Attributes[0].Properties["Priority"].Value)
	assert.Equal(t, "Fast|Slow", again.Assemblies[1].Types[2].Fields[2].Value.Value)
}
