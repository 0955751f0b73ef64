package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirectives(t *testing.T) {
	doc := `Fixture does things.

@Explicit
@Category("fast, cheap")
@Timeout(30, 1.5, Unit="s", Strict=true)
not a directive @Ignored
@Broken(`

	got, errs := parseDirectives(doc)
	require.Len(t, got, 3)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "@Broken(")

	assert.Equal(t, directive{name: "Explicit"}, got[0])
	assert.Equal(t, "Category", got[1].name)
	assert.Equal(t, []any{"fast, cheap"}, got[1].args)

	timeout := got[2]
	assert.Equal(t, []any{int64(30), 1.5}, timeout.args)
	assert.Equal(t, []string{"Unit", "Strict"}, timeout.keys)
	assert.Equal(t, map[string]any{"Unit": "s", "Strict": true}, timeout.named)
}

func TestParseDirective_Errors(t *testing.T) {
	tests := map[string]string{
		"missing name":    "(1)",
		"bad list":        "Name 1",
		"empty argument":  "Name(1,,2)",
		"positional last": `Name(Key=1, 2)`,
		"duplicate key":   "Name(K=1, K=2)",
		"unterminated":    `Name("abc)`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseDirective(src)
			assert.Error(t, err)
		})
	}
}
