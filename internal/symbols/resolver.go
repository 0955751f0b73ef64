package symbols

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"codemodel/internal/reflection"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Resolver answers source locations of method tokens. Readers are opened
// once per unit; units without debug information are remembered as such.
type Resolver struct {
	binder Binder
	shadow ShadowCopyFunc
	logger *zap.Logger

	mu      sync.Mutex
	readers map[string]Reader
}

type Option func(*Resolver)

func WithShadowCopies(f ShadowCopyFunc) Option {
	return func(r *Resolver) { r.shadow = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func NewResolver(binder Binder, opts ...Option) *Resolver {
	r := &Resolver{
		binder:  binder,
		logger:  zap.NewNop(),
		readers: make(map[string]Reader),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SourceLocation returns the location of the method with the given token.
// The location carries the document and line of the first visible sequence
// point; its column is always zero.
func (r *Resolver) SourceLocation(unitPath string, token int) (reflection.CodeLocation, error) {
	abs, err := filepath.Abs(unitPath)
	if err != nil {
		return reflection.UnknownLocation, fmt.Errorf("resolve unit path %s: %w", unitPath, err)
	}
	reader, err := r.reader(abs)
	if err != nil || reader == nil {
		return reflection.UnknownLocation, err
	}

	points, err := reader.SequencePoints(token)
	if errors.Is(err, ErrMethodNotFound) {
		return reflection.UnknownLocation, nil
	}
	if err != nil {
		return reflection.UnknownLocation, fmt.Errorf("read sequence points of %s#%x: %w", abs, token, err)
	}
	return firstLocation(points), nil
}

func firstLocation(points []SequencePoint) reflection.CodeLocation {
	for _, p := range points {
		if p.Column != 0 {
			return reflection.CodeLocation{Path: p.Document, Line: p.Line}
		}
	}
	if len(points) == 0 {
		return reflection.UnknownLocation
	}
	return reflection.CodeLocation{Path: points[0].Document}
}

// reader returns the cached reader of a unit. A nil reader without error
// means the unit has no debug information.
func (r *Resolver) reader(abs string) (Reader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reader, ok := r.readers[abs]; ok {
		return reader, nil
	}

	if r.shadow != nil {
		if original, ok := r.shadow(abs); ok {
			copied, err := copyStore(original, abs)
			if err != nil {
				return nil, fmt.Errorf("copy symbols of %s: %w", original, err)
			}
			if !copied {
				r.logger.Debug("shadow copied unit has no symbols",
					zap.String("unit", abs),
					zap.String("original", original))
				r.readers[abs] = nil
				return nil, nil
			}
		}
	}

	reader, err := r.binder.Open(abs)
	if isSoft(err) {
		r.logger.Debug("no debug information", zap.String("unit", abs), zap.Error(err))
		r.readers[abs] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open symbols of %s: %w", abs, err)
	}
	r.readers[abs] = reader
	return reader, nil
}

// copyStore places the symbol store of the original unit next to its shadow
// copy. It reports false when the original has no store.
func copyStore(original, shadow string) (bool, error) {
	src := StorePath(original)
	dst := StorePath(shadow)
	if _, err := os.Stat(dst); err == nil {
		return true, nil
	}

	in, err := os.Open(src)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return false, err
	}
	return true, out.Close()
}

// Close closes every cached reader.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	for path, reader := range r.readers {
		if reader != nil {
			if cerr := reader.Close(); cerr != nil {
				err = multierr.Append(err, fmt.Errorf("close symbols of %s: %w", path, cerr))
			}
		}
		delete(r.readers, path)
	}
	return err
}
