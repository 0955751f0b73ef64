package storage

import (
	"context"
	"errors"

	"codemodel/internal/metadata"
)

// ErrAssemblyNotFound is returned when a snapshot holds no assembly of the
// requested name.
var ErrAssemblyNotFound = errors.New("assembly not found")

// ModelStore persists snapshots of the static model as manifests.
type ModelStore interface {
	// SaveManifests replaces the snapshot with manifests.
	SaveManifests(ctx context.Context, manifests []*metadata.Manifest) error

	// LoadManifests returns the snapshot, one manifest per source.
	LoadManifests(ctx context.Context) ([]*metadata.Manifest, error)

	// DeleteAssembly removes one assembly from the snapshot.
	DeleteAssembly(ctx context.Context, name string) error

	// ListAssemblies describes the stored assemblies in save order.
	ListAssemblies(ctx context.Context) ([]AssemblyRecord, error)

	Close() error
}

type AssemblyRecord struct {
	Name    string
	Version string
	Path    string
	Source  string
	Types   int
}
