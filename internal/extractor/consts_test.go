package extractor

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseExpr(t *testing.T, expr string) (*sitter.Node, []byte) {
	t.Helper()
	src := []byte("package p\nconst x = " + expr + "\n")
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	require.NoError(t, err)

	decl := tree.RootNode().NamedChild(1)
	require.Equal(t, "const_declaration", decl.Type())
	spec := decl.NamedChild(0)
	value := spec.ChildByFieldName("value")
	require.NotNil(t, value)
	return value.NamedChild(0), src
}

func TestEvalConst(t *testing.T) {
	env := constEnv{iota: 3, known: map[string]any{"base": int64(10)}}
	tests := []struct {
		expr string
		want any
	}{
		{"42", int64(42)},
		{"0x10", int64(16)},
		{"1_000", int64(1000)},
		{"1.5", 1.5},
		{`"hi"`, "hi"},
		{"`raw`", "raw"},
		{"'a'", int64('a')},
		{"true", true},
		{"iota", int64(3)},
		{"iota + 200", int64(203)},
		{"1 << iota", int64(8)},
		{"base * 2", int64(20)},
		{"-(base - 1)", int64(-9)},
		{`"a" + "b"`, "ab"},
		{"float64(base) / 4", 2.5},
		{"!false", true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			n, src := parseExpr(t, tt.expr)
			got, ok := evalConst(n, src, env)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, expr := range []string{"unknown", "1 / 0", "len(\"abc\")", "f(1, 2)"} {
		t.Run("unfolded "+expr, func(t *testing.T) {
			n, src := parseExpr(t, expr)
			_, ok := evalConst(n, src, env)
			assert.False(t, ok)
		})
	}
}
