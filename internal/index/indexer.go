// Package index turns a project tree into a snapshot of declaration
// manifests and writes the symbol stores of its Go packages.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codemodel/internal/crawler"
	"codemodel/internal/extractor"
	"codemodel/internal/metadata"
	"codemodel/internal/symbols"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Snapshot is the result of one scan.
type Snapshot struct {
	// Manifests holds the manifests found on disk followed by the manifests
	// of the extracted packages.
	Manifests []*metadata.Manifest
	Packages  []*extractor.Package
}

// Model builds the static model of the snapshot.
func (s *Snapshot) Model(logger *zap.Logger) (*metadata.Model, error) {
	b := metadata.NewBuilder(logger)
	for _, m := range s.Manifests {
		b.Add(m)
	}
	return b.Build()
}

// Indexer orchestrates a project scan.
type Indexer struct {
	crawler   *crawler.Crawler
	extractor *extractor.Extractor
	symbols   bool
	logger    *zap.Logger
}

type Option func(*Indexer)

// WithSymbols controls whether symbol stores are written next to the
// extracted units.
func WithSymbols(enabled bool) Option {
	return func(i *Indexer) { i.symbols = enabled }
}

func WithLogger(l *zap.Logger) Option {
	return func(i *Indexer) { i.logger = l }
}

// NewIndexer creates a new indexer. A nil extractor indexes manifests only.
func NewIndexer(ext *extractor.Extractor, opts ...Option) *Indexer {
	i := &Indexer{extractor: ext, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	i.crawler = crawler.NewCrawler(ext, i.logger)
	return i
}

// Scan walks root and loads the extra manifest files. Symbol stores are
// written before Scan returns.
func (i *Indexer) Scan(ctx context.Context, root string, extra ...string) (*Snapshot, error) {
	snap := &Snapshot{}
	for _, path := range extra {
		m, err := metadata.LoadManifest(path)
		if err != nil {
			return nil, fmt.Errorf("load manifest: %w", err)
		}
		snap.Manifests = append(snap.Manifests, m)
	}

	err := i.crawler.ScanProject(root, crawler.Visitor{
		Manifest: func(m *metadata.Manifest) {
			snap.Manifests = append(snap.Manifests, m)
		},
		Package: func(p *extractor.Package) {
			snap.Packages = append(snap.Packages, p)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	for _, p := range snap.Packages {
		snap.Manifests = append(snap.Manifests, p.Manifest)
	}

	if err := i.writeSymbols(ctx, snap.Packages); err != nil {
		return nil, err
	}
	i.logger.Info("scan complete",
		zap.String("root", root),
		zap.Int("manifests", len(snap.Manifests)-len(snap.Packages)),
		zap.Int("packages", len(snap.Packages)))
	return snap, nil
}

// Reindex extracts the packages in dirs, relative to root, again. The unit
// names of directories that no longer hold a package are returned as
// removed.
func (i *Indexer) Reindex(ctx context.Context, root string, dirs []string) (updated []*extractor.Package, removed []string, err error) {
	if i.extractor == nil {
		return nil, nil, fmt.Errorf("reindex: no extractor")
	}
	for _, dir := range dirs {
		abs := filepath.Join(root, dir)
		unit := crawler.UnitName(root, abs)
		if !hasPackage(abs) {
			removed = append(removed, unit)
			continue
		}
		p, err := i.extractor.ExtractPackage(abs, unit)
		if err != nil {
			return nil, nil, err
		}
		updated = append(updated, p)
	}
	if err := i.writeSymbols(ctx, updated); err != nil {
		return nil, nil, err
	}
	return updated, removed, nil
}

func (i *Indexer) writeSymbols(ctx context.Context, packages []*extractor.Package) error {
	if !i.symbols {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range packages {
		g.Go(func() error {
			if err := symbols.WriteStore(ctx, p.UnitPath(), p.Methods); err != nil {
				return fmt.Errorf("write symbols of %s: %w", p.Manifest.Assemblies[0].Name, err)
			}
			i.logger.Debug("symbols written",
				zap.String("store", symbols.StorePath(p.UnitPath())),
				zap.Int("methods", len(p.Methods)))
			return nil
		})
	}
	return g.Wait()
}

func hasPackage(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			return true
		}
	}
	return false
}
