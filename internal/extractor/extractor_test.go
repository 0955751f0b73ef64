package extractor

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"codemodel/internal/metadata"
	"codemodel/internal/reflection"
	"codemodel/internal/symbols"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleFile = filepath.Join("testdata", "sample.go")

func extractSample(t *testing.T) *Package {
	t.Helper()
	pkg, err := NewExtractor().ExtractFiles(t.TempDir(), "", []string{sampleFile})
	require.NoError(t, err)
	return pkg
}

func typeDecl(t *testing.T, pkg *Package, name string) metadata.TypeDecl {
	t.Helper()
	for _, d := range pkg.Manifest.Assemblies[0].Types {
		if d.Name == name {
			return d
		}
	}
	require.Failf(t, "type not extracted", "%s", name)
	return metadata.TypeDecl{}
}

func TestExtractor_Manifest(t *testing.T) {
	pkg := extractSample(t)
	require.Len(t, pkg.Manifest.Assemblies, 1)
	asm := pkg.Manifest.Assemblies[0]

	t.Run("Unit", func(t *testing.T) {
		assert.Equal(t, "sample", pkg.Name)
		assert.Equal(t, "sample", asm.Name)
		assert.Equal(t, filepath.Join(pkg.Dir, "sample.a"), pkg.UnitPath())
		require.Len(t, asm.Attributes, 1)
		assert.Equal(t, "SuiteAttribute", asm.Attributes[0].Type)
		assert.Equal(t, "sample", asm.Attributes[0].Args[0].Value)

		var names []string
		for _, d := range asm.Types {
			names = append(names, d.Name)
		}
		assert.Equal(t, []string{
			"Status", "Base", "User", "Handler", "Stack", PackageTypeName,
			"SuiteAttribute", "CategoryAttribute", "OwnerAttribute",
		}, names)
	})

	t.Run("Enum", func(t *testing.T) {
		status := typeDecl(t, pkg, "Status")
		assert.Equal(t, "enum", status.Kind)
		require.Len(t, status.Fields, 3)
		var values []any
		for _, f := range status.Fields {
			assert.True(t, f.Literal && f.Static)
			assert.Equal(t, "Status", f.Type)
			values = append(values, f.Value.Value)
		}
		assert.Equal(t, []any{int64(200), int64(201), int64(500)}, values)
	})

	t.Run("Base Struct", func(t *testing.T) {
		base := typeDecl(t, pkg, "Base")
		assert.Empty(t, base.Base)
		require.Len(t, base.Fields, 1)
		assert.Equal(t, "ID", base.Fields[0].Name)
		assert.Equal(t, "System.Int64", base.Fields[0].Type)
		require.Len(t, base.Methods, 1)
		assert.Equal(t, "Identify", base.Methods[0].Name)
		assert.Equal(t, firstMethodToken, base.Methods[0].Token)
	})

	t.Run("User Struct", func(t *testing.T) {
		user := typeDecl(t, pkg, "User")
		assert.Equal(t, "Base", user.Base, "the first embedded struct is the base type")
		assert.Equal(t, []string{"Handler"}, user.Interfaces)
		assert.Equal(t, &metadata.LocationDecl{Path: sampleFile, Line: 41, Column: 6}, user.Location)

		var fields []string
		for _, f := range user.Fields {
			fields = append(fields, f.Name+":"+f.Type+":"+f.Visibility)
		}
		assert.Equal(t, []string{
			"Name:System.String:public",
			"Nickname:System.String:public",
			"Age:System.Int64:public",
			"tags:System.String[]:internal",
		}, fields)

		require.Len(t, user.Constructors, 1)
		ctor := user.Constructors[0]
		assert.Equal(t, []metadata.ParamDecl{
			{Name: "name", Type: "System.String"},
			{Name: "age", Type: "System.Int64"},
		}, ctor.Parameters)

		var methods []string
		for _, m := range user.Methods {
			methods = append(methods, m.Name)
		}
		assert.Equal(t, []string{"Handle", "Close", "String"}, methods)

		require.Len(t, user.Attributes, 2)
		assert.Equal(t, "CategoryAttribute", user.Attributes[0].Type)
		assert.Equal(t, "OwnerAttribute", user.Attributes[1].Type)
		assert.Equal(t, "core", user.Attributes[1].Properties["Team"].Value)
	})

	t.Run("Handler Interface", func(t *testing.T) {
		handler := typeDecl(t, pkg, "Handler")
		assert.Equal(t, "interface", handler.Kind)
		assert.Empty(t, handler.Interfaces, "interfaces of other packages are dropped")
		require.Len(t, handler.Methods, 2)

		handle := handler.Methods[0]
		assert.Equal(t, "Handle", handle.Name)
		assert.Zero(t, handle.Token, "abstract methods have no body")
		assert.Equal(t, "System.Int64", handle.Returns)
		assert.Equal(t, []metadata.ParamDecl{
			{Name: "ctx", Type: "System.String"},
			{Name: "data", Type: "System.Object"},
		}, handle.Parameters)
	})

	t.Run("Generic Struct", func(t *testing.T) {
		stack := typeDecl(t, pkg, "Stack")
		require.Len(t, stack.GenericParameters, 1)
		assert.Equal(t, "T", stack.GenericParameters[0].Name)
		assert.Equal(t, "T[]", stack.Fields[0].Type)
		require.Len(t, stack.Constructors, 1)

		require.Len(t, stack.Methods, 2)
		push, pop := stack.Methods[0], stack.Methods[1]
		assert.Equal(t, "T", push.Parameters[0].Type, "receiver type parameters map to the type's")
		assert.Equal(t, "T", pop.Returns)
	})

	t.Run("Package Functions", func(t *testing.T) {
		pt := typeDecl(t, pkg, PackageTypeName)
		assert.True(t, pt.Abstract && pt.Sealed)

		var fields []string
		for _, f := range pt.Fields {
			fields = append(fields, f.Name+":"+f.Type+":"+f.Visibility)
		}
		assert.Equal(t, []string{"Version:System.String:public", "maxRetries:System.Int64:internal"}, fields)

		require.Len(t, pt.Methods, 3)
		for _, m := range pt.Methods {
			assert.True(t, m.Static, m.Name)
		}
		myFunction := pt.Methods[1]
		assert.Equal(t, "System.Int64[]", myFunction.Parameters[1].Type)

		mapFn := pt.Methods[2]
		require.Len(t, mapFn.GenericParameters, 2)
		assert.Equal(t, "T[]", mapFn.Parameters[0].Type)
		assert.Equal(t, "System.Delegate", mapFn.Parameters[1].Type)
		assert.Equal(t, "U[]", mapFn.Returns)
	})

	t.Run("Implied Attributes", func(t *testing.T) {
		owner := typeDecl(t, pkg, "OwnerAttribute")
		assert.Equal(t, "System.Attribute", owner.Base)
		require.Len(t, owner.Properties, 2)
		assert.Equal(t, "Team", owner.Properties[0].Name)
		assert.Equal(t, "System.String", owner.Properties[0].Type)
		assert.Equal(t, "System.Int32", owner.Properties[1].Type)

		category := typeDecl(t, pkg, "CategoryAttribute")
		require.Len(t, category.Constructors, 1)
		assert.Equal(t, "System.String", category.Constructors[0].Parameters[0].Type)
	})

	t.Run("Tokens", func(t *testing.T) {
		require.Len(t, pkg.Methods, 11)
		for i, m := range pkg.Methods {
			assert.Equal(t, firstMethodToken+i, m.Token)
			require.Len(t, m.Points, 1)
			assert.Equal(t, sampleFile, m.Points[0].Document)
		}
		assert.Equal(t, 35, pkg.Methods[0].Points[0].Line)
	})
}

func TestExtractor_BuildsModel(t *testing.T) {
	pkg := extractSample(t)
	model, err := metadata.NewBuilder(nil).Add(pkg.Manifest).Build()
	require.NoError(t, err)

	require.NoError(t, symbols.WriteStore(context.Background(), pkg.UnitPath(), pkg.Methods))
	resolver := symbols.NewResolver(symbols.NewSQLiteBinder(nil))
	p := metadata.NewPolicy(model, metadata.WithSymbols(resolver))

	user, ok := p.Type("sample.User")
	require.True(t, ok)
	base, ok := p.Type("sample.Base")
	require.True(t, ok)
	handler, ok := p.Type("sample.Handler")
	require.True(t, ok)

	assert.True(t, user.IsSubclassOf(base))
	assert.True(t, handler.IsAssignableFrom(user))

	const all = reflection.BindingPublic | reflection.BindingInstance
	identify, err := user.Method("Identify", all)
	require.NoError(t, err)
	assert.True(t, identify.DeclaringType().Equals(base))
	loc, err := identify.CodeLocation()
	require.NoError(t, err)
	assert.Equal(t, reflection.CodeLocation{Path: sampleFile, Line: 35}, loc)

	attrs := slices.Collect(user.AttributeInfos(nil, true))
	var rendered []string
	for _, a := range attrs {
		rendered = append(rendered, a.String())
	}
	assert.Equal(t, []string{
		`[sample.CategoryAttribute("model")]`,
		`[sample.OwnerAttribute(Priority = 2, Team = "core")]`,
	}, rendered)

	status, ok := p.Type("sample.Status")
	require.True(t, ok)
	assert.True(t, reflection.IsEnum(status))

	stack, ok := p.Type("sample.Stack`1")
	require.True(t, ok)
	push, err := stack.Method("Push", all)
	require.NoError(t, err)
	assert.True(t, push.Parameters()[0].ValueType().IsGenericParameter())

	closed, err := stack.MakeGenericType(status)
	require.NoError(t, err)
	push, err = closed.Method("Push", all)
	require.NoError(t, err)
	assert.True(t, push.Parameters()[0].ValueType().Equals(status))
}

func TestExtractor_ExtractPackage(t *testing.T) {
	pkg, err := NewExtractor().ExtractPackage("testdata", "renamed")
	require.NoError(t, err)
	assert.Equal(t, "sample", pkg.Name)
	assert.Equal(t, "renamed", pkg.Manifest.Assemblies[0].Name)

	_, err = NewExtractor().ExtractPackage(t.TempDir(), "")
	assert.ErrorContains(t, err, "no Go files")
}
