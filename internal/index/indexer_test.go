package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"codemodel/internal/extractor"
	"codemodel/internal/metadata"
	"codemodel/internal/reflection"
	"codemodel/internal/symbols"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const shapesSource = `package shapes

type Circle struct {
	R float64
}

func (c *Circle) Area() float64 {
	return 3 * c.R * c.R
}
`

const extraManifest = `assemblies:
  - name: Extra
    types:
      - name: Widget
        namespace: Extra
        visibility: public
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIndexer_Scan(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "shapes", "circle.go")
	writeFile(t, source, shapesSource)
	extra := filepath.Join(t.TempDir(), "extra.yaml")
	writeFile(t, extra, extraManifest)

	logger := zaptest.NewLogger(t)
	idx := NewIndexer(extractor.NewExtractor(), WithSymbols(true), WithLogger(logger))
	snap, err := idx.Scan(context.Background(), root, extra)
	require.NoError(t, err)

	require.Len(t, snap.Packages, 1)
	require.Len(t, snap.Manifests, 2)
	assert.Equal(t, "Extra", snap.Manifests[0].Assemblies[0].Name)
	assert.Equal(t, "shapes", snap.Manifests[1].Assemblies[0].Name)
	assert.FileExists(t, symbols.StorePath(snap.Packages[0].UnitPath()))

	model, err := snap.Model(logger)
	require.NoError(t, err)
	p := metadata.NewPolicy(model, metadata.WithSymbols(symbols.NewResolver(symbols.NewSQLiteBinder(logger))))

	circle, ok := p.Type("shapes.Circle")
	require.True(t, ok)
	area, err := circle.Method("Area", reflection.BindingPublic|reflection.BindingInstance)
	require.NoError(t, err)
	loc, err := area.CodeLocation()
	require.NoError(t, err)
	assert.Equal(t, reflection.CodeLocation{Path: source, Line: 7}, loc)

	_, ok = p.Type("Extra.Widget")
	assert.True(t, ok)
}

func TestIndexer_Reindex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shapes", "circle.go"), shapesSource)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "gone"), 0o755))

	idx := NewIndexer(extractor.NewExtractor())
	updated, removed, err := idx.Reindex(context.Background(), root, []string{"shapes", "gone", "missing"})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "shapes", updated[0].Manifest.Assemblies[0].Name)
	assert.Equal(t, []string{"gone", "missing"}, removed)
	assert.NoFileExists(t, symbols.StorePath(updated[0].UnitPath()), "symbols are off by default")

	_, _, err = NewIndexer(nil).Reindex(context.Background(), root, nil)
	assert.Error(t, err)
}
