// Package deps defines the dependency data model: coordinates declared
// in build manifests, symbol references being traced, and the manifest
// parser contract shared by the dialect subpackages.
package deps

import (
	"fmt"
	"strings"
	"unicode"
)

// PlaceholderVersion marks a declared dependency whose version could
// not be determined (missing element or unresolved property reference).
// Downstream stages skip version-specific behavior when they see it.
const PlaceholderVersion = "unknown"

// Coordinate identifies a declared dependency within one manifest.
// Immutable once parsed.
type Coordinate struct {
	Group    string `json:"group"`
	Artifact string `json:"artifact"`
	Version  string `json:"version"`

	// VersionUnresolved is set when Version is a placeholder because
	// the manifest used an unresolvable property reference or omitted
	// the version entirely.
	VersionUnresolved bool `json:"version_unresolved,omitempty"`
}

// Key returns the normalized "group:artifact" identity used for
// repository mapping and caching. The version is excluded: repository
// identity rarely depends on it.
func (c Coordinate) Key() string {
	return strings.ToLower(strings.TrimSpace(c.Group)) + ":" + strings.ToLower(strings.TrimSpace(c.Artifact))
}

// String returns the full "group:artifact:version" form.
func (c Coordinate) String() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

// SymbolKind classifies the symbol being traced.
type SymbolKind string

const (
	KindMethod SymbolKind = "method"
	KindClass  SymbolKind = "class"
	KindField  SymbolKind = "field"
)

// SymbolRef names a method, class, or field whose implementation is
// being traced.
type SymbolRef struct {
	Name      string     `json:"name"`                // simple name (e.g. "isBlank")
	Enclosing string     `json:"enclosing,omitempty"` // enclosing type (e.g. "StringUtils")
	Package   string     `json:"package,omitempty"`   // package hint (e.g. "org.apache.commons.lang3")
	Kind      SymbolKind `json:"kind"`
}

// String returns the qualified form the caller supplied, e.g.
// "StringUtils.isBlank" or "StringUtils".
func (r SymbolRef) String() string {
	if r.Enclosing != "" {
		return r.Enclosing + "." + r.Name
	}
	return r.Name
}

// ParseSymbol interprets caller-supplied symbol strings.
//
// "StringUtils.isBlank" is a method isBlank on StringUtils;
// "StringUtils" alone is a class. A leading package prefix in
// lowercase segments is split off as the package hint:
// "org.apache.commons.lang3.StringUtils.isBlank".
func ParseSymbol(s string) (SymbolRef, error) {
	s = strings.TrimSpace(strings.TrimSuffix(s, "()"))
	if s == "" {
		return SymbolRef{}, fmt.Errorf("empty symbol")
	}

	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return SymbolRef{}, fmt.Errorf("invalid symbol %q", s)
		}
	}

	// Consume leading lowercase segments as the package hint.
	i := 0
	for i < len(parts)-1 && isLowerIdent(parts[i]) {
		i++
	}
	pkg := strings.Join(parts[:i], ".")
	rest := parts[i:]

	ref := SymbolRef{Package: pkg}
	switch len(rest) {
	case 1:
		ref.Name = rest[0]
		if isLowerIdent(rest[0]) {
			ref.Kind = KindMethod
		} else {
			ref.Kind = KindClass
		}
	default:
		ref.Enclosing = strings.Join(rest[:len(rest)-1], ".")
		ref.Name = rest[len(rest)-1]
		if isLowerIdent(ref.Name) {
			ref.Kind = KindMethod
		} else {
			ref.Kind = KindClass
		}
	}
	return ref, nil
}

func isLowerIdent(s string) bool {
	for _, r := range s {
		return unicode.IsLower(r)
	}
	return false
}

// Dialect names a supported manifest syntax.
type Dialect string

const (
	DialectMaven  Dialect = "maven"
	DialectGradle Dialect = "gradle"
)

// ParseDialect maps user-supplied dialect names (including manifest
// filenames) to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "maven", "pom", "pom.xml":
		return DialectMaven, nil
	case "gradle", "build.gradle", "build.gradle.kts":
		return DialectGradle, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q (available: maven, gradle)", s)
	}
}

// ManifestFiles lists the manifest filenames probed in a repository
// root, in preference order, with the dialect each one implies.
var ManifestFiles = []struct {
	Name    string
	Dialect Dialect
}{
	{"pom.xml", DialectMaven},
	{"build.gradle", DialectGradle},
	{"build.gradle.kts", DialectGradle},
}

// ParseError reports one malformed declaration inside a manifest.
// It is localized and non-fatal: parsing continues for the remaining
// well-formed declarations.
type ParseError struct {
	Dialect Dialect
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s manifest: line %d: %s", e.Dialect, e.Line, e.Message)
	}
	return fmt.Sprintf("%s manifest: %s", e.Dialect, e.Message)
}

// Result holds the outcome of parsing one manifest: the declared
// coordinates in declaration order plus any localized parse errors.
type Result struct {
	Coordinates []Coordinate
	Errors      []*ParseError
}

// Parser reads dependency declarations from raw manifest text.
type Parser interface {
	// Parse extracts coordinates from text. A non-nil error means the
	// whole manifest was unusable; localized failures are reported in
	// Result.Errors instead.
	Parse(text string) (*Result, error)
	// Dialect returns the manifest dialect this parser handles.
	Dialect() Dialect
}

// ForDialect finds the parser handling the given dialect.
// Returns an error if no parser matches.
func ForDialect(d Dialect, parsers ...Parser) (Parser, error) {
	for _, p := range parsers {
		if p.Dialect() == d {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no parser for dialect %q", d)
}

// Dedupe returns coords with later duplicates (by Key) removed,
// preserving first-occurrence order.
func Dedupe(coords []Coordinate) []Coordinate {
	seen := make(map[string]bool, len(coords))
	out := coords[:0:0]
	for _, c := range coords {
		if k := c.Key(); !seen[k] {
			seen[k] = true
			out = append(out, c)
		}
	}
	return out
}
