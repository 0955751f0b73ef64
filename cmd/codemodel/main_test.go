package main

import (
	"path/filepath"
	"testing"

	"codemodel/internal/extractor"
	"codemodel/internal/metadata"

	"github.com/stretchr/testify/assert"
)

func manifest(name string) *metadata.Manifest {
	return &metadata.Manifest{Assemblies: []metadata.AssemblyDecl{{Name: name}}}
}

func TestMergeManifests(t *testing.T) {
	stored := []*metadata.Manifest{manifest("a"), manifest("b"), manifest("c")}
	newB, newD := manifest("b"), manifest("d")
	updated := []*extractor.Package{{Manifest: newD}, {Manifest: newB}}

	merged := mergeManifests(stored, updated, []string{"c"})
	assert.Equal(t, []*metadata.Manifest{stored[0], newB, newD}, merged)
	assert.Same(t, newB, merged[1])
}

func TestShadowCopies(t *testing.T) {
	dir, root := t.TempDir(), t.TempDir()
	shadow := shadowCopies(dir, root)

	original, ok := shadow(filepath.Join(dir, "pkg", "unit.a"))
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, "pkg", "unit.a"), original)

	_, ok = shadow(filepath.Join(root, "unit.a"))
	assert.False(t, ok)
}
