package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func buildManifests(t *testing.T, docs ...string) (*Model, error) {
	t.Helper()
	b := NewBuilder(zaptest.NewLogger(t))
	for _, doc := range docs {
		m, err := ParseManifest("inline.yaml", []byte(doc))
		require.NoError(t, err)
		b.Add(m)
	}
	return b.Build()
}

func loadAcme(t *testing.T) *Model {
	t.Helper()
	b := NewBuilder(zaptest.NewLogger(t))
	require.NoError(t, b.AddFile("testdata/acme.codemodel.yaml"))
	model, err := b.Build()
	require.NoError(t, err)
	return model
}

func TestBuilder_CoreLibraryOnly(t *testing.T) {
	model, err := NewBuilder(nil).Build()
	require.NoError(t, err)

	require.Len(t, model.Assemblies(), 1)
	assert.Equal(t, CoreLibraryName, model.CoreLibrary().Name)

	object, ok := model.Type("System.Object")
	require.True(t, ok)
	assert.Nil(t, object.typ.base)

	str, ok := model.Type("System.String")
	require.True(t, ok)
	assert.Equal(t, object, str.typ.base.def)
}

func TestBuilder_LinksAcme(t *testing.T) {
	model := loadAcme(t)

	tests, ok := model.Assembly("Acme.Tests")
	require.True(t, ok)
	assert.Equal(t, "testdata/bin/Acme.Tests.dll", tests.assembly.path)

	t.Run("Generic base", func(t *testing.T) {
		sf, ok := model.Type("Acme.Tests.StringFixture")
		require.True(t, ok)
		base := sf.typ.base
		assert.Equal(t, "Acme.Tests.Fixture`1", base.def.FullName())
		require.Len(t, base.args, 1)
		assert.Equal(t, "System.String", base.args[0].def.FullName())
	})

	t.Run("Nested type names", func(t *testing.T) {
		options, ok := model.Type("Acme.Tests.Fixture`1+Options")
		require.True(t, ok)
		assert.Equal(t, "Options", options.Name)
		assert.Equal(t, "Acme.Tests", options.typ.namespace)
	})

	t.Run("Default constructor", func(t *testing.T) {
		fixture, _ := model.Type("Acme.Tests.Fixture`1")
		require.Len(t, fixture.typ.constructors, 1)
		assert.Equal(t, ".ctor", fixture.typ.constructors[0].Name)

		mode, _ := model.Type("Acme.Tests.Mode")
		assert.Empty(t, mode.typ.constructors)
	})

	t.Run("Accessors", func(t *testing.T) {
		fixture, _ := model.Type("Acme.Tests.Fixture`1")
		var names []string
		for _, m := range fixture.typ.methods {
			names = append(names, m.Name)
		}
		assert.Equal(t, []string{"Run", "Convert", "Helper", "TryGet", "get_Count", "add_Changed", "remove_Changed"}, names)
	})

	t.Run("Enum constants", func(t *testing.T) {
		mode, _ := model.Type("Acme.Tests.Mode")
		values := map[string]any{}
		for _, f := range mode.typ.fields {
			values[f.Name] = f.member.constant.value
		}
		assert.Equal(t, map[string]any{"Fast": int32(1), "Slow": int32(2), "Both": int32(3)}, values)
	})

	t.Run("Out parameter", func(t *testing.T) {
		fixture, _ := model.Type("Acme.Tests.Fixture`1")
		tryGet := fixture.typ.methods[3]
		sig := tryGet.member.params[0].param.typ
		assert.Equal(t, sigByRef, sig.kind)
		assert.Equal(t, sigGenericParam, sig.elem.kind)
	})
}

func TestBuilder_Errors(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want string
	}{
		"unresolved type": {
			doc: `
assemblies:
  - name: A
    types:
      - name: T
        fields: [{name: f, type: Missing}]
`,
			want: `unresolved type "Missing"`,
		},
		"arity mismatch": {
			doc: `
assemblies:
  - name: A
    types:
      - name: T
        fields: [{name: f, type: "System.Collections.Generic.IList` + "`" + `1<int, int>"}]
`,
			want: "takes 1 generic arguments, got 2",
		},
		"duplicate type": {
			doc: `
assemblies:
  - name: A
    types:
      - {name: T, namespace: N}
      - {name: T, namespace: N}
`,
			want: "N.T: declared more than once",
		},
		"duplicate assembly": {
			doc: `
assemblies:
  - {name: A, version: 1.0.0}
  - {name: A, version: 1.0.0}
`,
			want: "assembly A: declared more than once",
		},
		"circular base": {
			doc: `
assemblies:
  - name: A
    types:
      - {name: X, base: Y}
      - {name: Y, base: X}
`,
			want: "circular base type chain",
		},
		"generic parameter base": {
			doc: `
assemblies:
  - name: A
    types:
      - {name: X, base: "T[]", generic_parameters: [{name: T}]}
`,
			want: "is not a declared type",
		},
		"unknown enum member": {
			doc: `
assemblies:
  - name: A
    types:
      - name: E
        kind: enum
        fields: [{name: X, type: E, literal: true, value: Nope}]
`,
			want: `has no member "Nope"`,
		},
		"overflow": {
			doc: `
assemblies:
  - name: A
    types:
      - name: T
        fields: [{name: X, type: byte, literal: true, value: 300}]
`,
			want: "overflows a 8-bit unsigned integer",
		},
		"generic attribute": {
			doc: `
assemblies:
  - name: A
    attributes: [{type: "System.Collections.Generic.IList<int>"}]
`,
			want: "not a non-generic declared type",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := buildManifests(t, tc.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestBuilder_AggregatesErrors(t *testing.T) {
	_, err := buildManifests(t, `
assemblies:
  - name: A
    types:
      - name: T
        fields:
          - {name: f, type: Missing1}
      - name: U
        fields:
          - {name: g, type: Missing2}
`)
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "Missing1")
	assert.Contains(t, errs[1].Error(), "Missing2")
}

func TestBuilder_UnmatchedReferenceOnlyWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m, err := ParseManifest("inline.yaml", []byte(`
assemblies:
  - name: A
    references: [{name: Missing, version: "^1.0"}]
    types: [{name: T}]
`))
	require.NoError(t, err)

	model, err := NewBuilder(zap.New(core)).Add(m).Build()
	require.NoError(t, err)

	a, ok := model.Assembly("A")
	require.True(t, ok)
	require.Len(t, a.assembly.visible, 2)

	entries := logs.FilterMessage("unresolved assembly reference").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].ContextMap()["assembly"])
}

func TestModel_AssemblyPicksHighestVersion(t *testing.T) {
	model, err := buildManifests(t, `
assemblies:
  - {name: Lib, version: 1.0.0, types: [{name: Old, namespace: Lib}]}
  - {name: Lib, version: 1.2.0, types: [{name: New, namespace: Lib}]}
  - name: App
    references: [{name: Lib, version: "~1.0.0"}]
    types:
      - {name: Uses, namespace: App, fields: [{name: f, type: Lib.Old}]}
`)
	require.NoError(t, err)

	lib, ok := model.Assembly("Lib")
	require.True(t, ok)
	assert.Equal(t, "1.2.0", lib.assembly.name.Version.String())

	uses, _ := model.Type("App.Uses")
	f := uses.typ.fields[0]
	assert.Equal(t, "1.0.0", f.member.valueType.def.Assembly.assembly.name.Version.String())
}
