// Package symbols maps method tokens of compiled units to source positions
// recorded in symbol stores.
package symbols

import (
	"errors"
	"path/filepath"
	"strings"
)

// Soft failures. The resolver reports them as an unknown location.
var (
	// ErrSymbolsNotFound means the unit has no symbol store.
	ErrSymbolsNotFound = errors.New("symbols not found")
	// ErrNoDebugInfo means the symbol store carries no debug information.
	ErrNoDebugInfo = errors.New("no debug information")
	// ErrDebugInfoNotInStore means the store does not describe the unit.
	ErrDebugInfoNotInStore = errors.New("debug information not in store")
	// ErrMethodNotFound means the store has no sequence points for the token.
	ErrMethodNotFound = errors.New("method not found in symbol store")
)

// SequencePoint maps a range of a method body to a source range. A point
// with a zero column is hidden.
type SequencePoint struct {
	Document  string
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

// Method groups the sequence points of one method token, in IL order.
type Method struct {
	Token  int
	Points []SequencePoint
}

// Reader reads the debug information of one unit. Readers are safe for
// concurrent use.
type Reader interface {
	SequencePoints(token int) ([]SequencePoint, error)
	Close() error
}

// Binder opens the reader for a unit, failing with one of the soft errors
// when the unit has no usable debug information.
type Binder interface {
	Open(unitPath string) (Reader, error)
}

// ShadowCopyFunc reports the original path of a unit that the host runs from
// a private copy.
type ShadowCopyFunc func(unitPath string) (originalPath string, ok bool)

// StorePath returns the symbol store path of a unit: the unit path with its
// extension replaced by ".sym".
func StorePath(unitPath string) string {
	return strings.TrimSuffix(unitPath, filepath.Ext(unitPath)) + ".sym"
}

func isSoft(err error) bool {
	return errors.Is(err, ErrSymbolsNotFound) ||
		errors.Is(err, ErrNoDebugInfo) ||
		errors.Is(err, ErrDebugInfoNotInStore)
}
