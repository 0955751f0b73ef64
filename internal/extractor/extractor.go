// Package extractor builds declaration manifests from Go source. Each package
// becomes one unit whose namespace is the package name.
package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codemodel/internal/metadata"
	"codemodel/internal/symbols"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"go.uber.org/zap"
)

// Extractor orchestrates the extraction of Go packages. It is safe for
// concurrent use.
type Extractor struct {
	logger *zap.Logger
}

type Option func(*Extractor)

func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Package is the extraction result of one Go package.
type Package struct {
	// Name is the Go package name, also the namespace of every type.
	Name     string
	Dir      string
	Manifest *metadata.Manifest
	// Methods holds the sequence points of every method and constructor
	// token of the unit.
	Methods []symbols.Method
}

// UnitPath is the path recorded for the unit. Its symbol store lives next
// to it.
func (p *Package) UnitPath() string {
	return p.Manifest.Assemblies[0].Path
}

// ExtractPackage extracts the non-test Go files of dir. unit names the
// resulting assembly; empty means the package name.
func (e *Extractor) ExtractPackage(dir, unit string) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no Go files", dir)
	}
	return e.ExtractFiles(dir, unit, files)
}

// ExtractFiles extracts one package from the given files.
func (e *Extractor) ExtractFiles(dir, unit string, paths []string) (*Package, error) {
	pkg := newPackageState(e.logger)
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())

	for _, path := range paths {
		sourceCode, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
		tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
		if err != nil {
			return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
		}

		f := &goFile{path: path, src: sourceCode}
		name := detectPackageName(tree.RootNode(), sourceCode)
		switch {
		case name == "":
			return nil, fmt.Errorf("%s: no package clause", path)
		case pkg.name == "":
			pkg.name = name
		case pkg.name != name:
			return nil, fmt.Errorf("%s: package %s, expected %s", path, name, pkg.name)
		}
		pkg.collect(f, tree.RootNode())
	}

	if unit == "" {
		unit = pkg.name
	}
	return pkg.build(unit, dir), nil
}

func detectPackageName(root *sitter.Node, sourceCode []byte) string {
	pkgQuery, err := sitter.NewQuery([]byte(`(package_clause (package_identifier) @pkg)`), golang.GetLanguage())
	if err != nil {
		return ""
	}
	pqc := sitter.NewQueryCursor()
	pqc.Exec(pkgQuery, root)
	if m, ok := pqc.NextMatch(); ok {
		return m.Captures[0].Node.Content(sourceCode)
	}
	return ""
}
