package git

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNameStatus(t *testing.T) {
	out := []byte("M\tinternal/memo/memo.go\nD\tinternal/old/old.go\nA\tREADME.md\n\n")
	changes, err := parseNameStatus(out)
	require.NoError(t, err)
	assert.Equal(t, []ChangedFile{
		{Path: filepath.FromSlash("internal/memo/memo.go")},
		{Path: filepath.FromSlash("internal/old/old.go"), Deleted: true},
		{Path: "README.md"},
	}, changes)

	_, err = parseNameStatus([]byte("garbage\n"))
	assert.Error(t, err)
}

func TestPackageDirs(t *testing.T) {
	changes := []ChangedFile{
		{Path: filepath.FromSlash("b/x.go")},
		{Path: filepath.FromSlash("a/y.go")},
		{Path: filepath.FromSlash("b/z.go"), Deleted: true},
		{Path: filepath.FromSlash("c/c_test.go")},
		{Path: "main.go"},
		{Path: "go.mod"},
	}
	assert.Equal(t, []string{".", "a", "b"}, PackageDirs(changes))
}
