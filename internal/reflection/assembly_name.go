package reflection

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// AssemblyName identifies a program unit. Version is optional.
type AssemblyName struct {
	Name    string
	Version *semver.Version
}

// ParseAssemblyName parses "Name" or "Name, Version=1.2.3".
func ParseAssemblyName(s string) (AssemblyName, error) {
	parts := strings.Split(s, ",")
	name := AssemblyName{Name: strings.TrimSpace(parts[0])}
	if name.Name == "" {
		return AssemblyName{}, invalidArgument("empty assembly name %q", s)
	}
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return AssemblyName{}, invalidArgument("malformed assembly name component %q", part)
		}
		if strings.EqualFold(strings.TrimSpace(key), "Version") {
			v, err := semver.NewVersion(strings.TrimSpace(value))
			if err != nil {
				return AssemblyName{}, fmt.Errorf("parse version of %s: %w", name.Name, err)
			}
			name.Version = v
		}
	}
	return name, nil
}

// FullName renders the name with its version when known.
func (n AssemblyName) FullName() string {
	if n.Version == nil {
		return n.Name
	}
	return n.Name + ", Version=" + n.Version.String()
}

func (n AssemblyName) String() string {
	return n.FullName()
}

// Matches reports whether n satisfies the reference ref.
// A reference without a version matches any version of the same name.
func (n AssemblyName) Matches(ref AssemblyReference) bool {
	if n.Name != ref.Name {
		return false
	}
	if ref.Constraint == nil || n.Version == nil {
		return true
	}
	return ref.Constraint.Check(n.Version)
}

// AssemblyReference names a dependency of a unit, optionally constrained by version.
type AssemblyReference struct {
	Name       string
	Constraint *semver.Constraints
}

func (r AssemblyReference) String() string {
	if r.Constraint == nil {
		return r.Name
	}
	return r.Name + " " + r.Constraint.String()
}
