package crawler

import (
	"io/fs"
	"path/filepath"
	"strings"

	"codemodel/internal/extractor"
	"codemodel/internal/metadata"

	"go.uber.org/zap"
)

// ManifestSuffix marks declaration manifest files.
const ManifestSuffix = ".codemodel.yaml"

// Crawler scans a directory for declaration manifests and Go packages.
type Crawler struct {
	extractor *extractor.Extractor
	ignored   []string
	logger    *zap.Logger
}

// NewCrawler creates a new crawler instance. A nil extractor skips Go
// packages.
func NewCrawler(ext *extractor.Extractor, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		extractor: ext,
		ignored:   []string{".git", "vendor", "node_modules", "testdata", "_examples"},
		logger:    logger,
	}
}

// Visitor receives what a scan finds. Either callback may be nil.
type Visitor struct {
	Manifest func(*metadata.Manifest)
	Package  func(*extractor.Package)
}

// ScanProject walks root. Manifests and packages that fail to load are
// logged and skipped; only walk errors end the scan.
func (c *Crawler) ScanProject(root string, v Visitor) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			if strings.HasSuffix(d.Name(), ManifestSuffix) && v.Manifest != nil {
				m, err := metadata.LoadManifest(path)
				if err != nil {
					c.logger.Warn("skipping manifest", zap.String("path", path), zap.Error(err))
					return nil
				}
				v.Manifest(m)
			}
			return nil
		}

		// Skip ignored directories
		if path != root {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
		}

		if c.extractor == nil || v.Package == nil || !hasGoFiles(path) {
			return nil
		}
		pkg, err := c.extractor.ExtractPackage(path, UnitName(root, path))
		if err != nil {
			c.logger.Warn("skipping package", zap.String("dir", path), zap.Error(err))
			return nil
		}
		v.Package(pkg)
		return nil
	})
}

// UnitName names the unit of a package by its directory relative to root,
// so that packages sharing a name stay distinct.
func UnitName(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return filepath.Base(dir)
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
}

func hasGoFiles(dir string) bool {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.go"))
	for _, m := range matches {
		if !strings.HasSuffix(m, "_test.go") {
			return true
		}
	}
	return false
}
