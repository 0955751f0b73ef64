package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"codemodel/internal/extractor"
	"codemodel/internal/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCrawler_ScanProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example\n")
	writeFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc main() {}\n")
	writeFile(t, filepath.Join(root, "lib", "shapes", "circle.go"), "package shapes\n\ntype Circle struct{ R float64 }\n")
	writeFile(t, filepath.Join(root, "lib", "shapes", "circle_test.go"), "package shapes\n")
	writeFile(t, filepath.Join(root, "lib", "only_test", "x_test.go"), "package only\n")
	writeFile(t, filepath.Join(root, "vendor", "dep", "dep.go"), "package dep\n")
	writeFile(t, filepath.Join(root, "testdata", "fixture.go"), "package fixture\n")
	writeFile(t, filepath.Join(root, "models", "acme"+ManifestSuffix), "assemblies:\n  - name: Acme\n")
	writeFile(t, filepath.Join(root, "models", "broken"+ManifestSuffix), "assemblies: 3\n")

	core, logs := observer.New(zap.WarnLevel)
	c := NewCrawler(extractor.NewExtractor(), zap.New(core))

	var (
		manifests []*metadata.Manifest
		units     []string
	)
	err := c.ScanProject(root, Visitor{
		Manifest: func(m *metadata.Manifest) { manifests = append(manifests, m) },
		Package: func(p *extractor.Package) {
			units = append(units, p.Manifest.Assemblies[0].Name)
		},
	})
	require.NoError(t, err)

	t.Run("Manifests", func(t *testing.T) {
		require.Len(t, manifests, 1)
		assert.Equal(t, "Acme", manifests[0].Assemblies[0].Name)
		assert.Equal(t, 1, logs.FilterMessage("skipping manifest").Len())
	})

	t.Run("Packages", func(t *testing.T) {
		assert.Equal(t, []string{filepath.Base(root), "lib.shapes"}, units)
	})
}

func TestCrawler_WithoutExtractor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")

	var packages int
	err := NewCrawler(nil, nil).ScanProject(root, Visitor{
		Package: func(*extractor.Package) { packages++ },
	})
	require.NoError(t, err)
	assert.Zero(t, packages)
}

func TestUnitName(t *testing.T) {
	root := filepath.Join("work", "proj")
	assert.Equal(t, "proj", UnitName(root, root))
	assert.Equal(t, "internal.memo", UnitName(root, filepath.Join(root, "internal", "memo")))
}
