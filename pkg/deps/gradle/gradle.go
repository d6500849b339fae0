// Package gradle parses Groovy and Kotlin DSL Gradle build scripts
// into coordinates. It is a line-oriented declaration scanner, not a
// script evaluator: dynamic constructs are skipped, not executed.
package gradle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/depchase/depchase/pkg/deps"
)

// Parser reads build.gradle and build.gradle.kts dependency
// declarations.
type Parser struct{}

// New returns a Gradle build script parser.
func New() *Parser { return &Parser{} }

// Dialect implements deps.Parser.
func (*Parser) Dialect() deps.Dialect { return deps.DialectGradle }

// Configurations whose artifacts end up on a runtime or compile
// classpath. Test-only configurations are deliberately excluded.
var configurations = map[string]bool{
	"implementation": true,
	"api":            true,
	"compile":        true,
	"compileOnly":    true,
	"runtimeOnly":    true,
	"runtime":        true,
}

var (
	// implementation 'group:artifact:version' / "..." (Groovy) or
	// implementation("group:artifact:version") (Kotlin DSL).
	stringNotationRe = regexp.MustCompile(`^(\w+)\s*\(?\s*['"]([^'"]+)['"]\s*\)?\s*(?:\{.*)?$`)

	// implementation group: 'g', name: 'a', version: 'v'
	mapNotationRe = regexp.MustCompile(`^(\w+)\s*\(?\s*group\s*[:=]\s*['"]([^'"]+)['"]\s*,\s*name\s*[:=]\s*['"]([^'"]+)['"](?:\s*,\s*version\s*[:=]\s*['"]([^'"]+)['"])?`)

	// def lang3Version = '3.12.0' / val lang3Version = "3.12.0" /
	// ext.lang3Version = '3.12.0'
	propertyDefRe = regexp.MustCompile(`^(?:def\s+|val\s+|ext\.)(\w+)\s*=\s*['"]([^'"]+)['"]`)

	// $version or ${version} inside a GString.
	gstringRefRe = regexp.MustCompile(`\$\{?(\w+)\}?`)
)

// Parse implements deps.Parser. Declarations outside a dependencies
// block are ignored; malformed declarations inside one yield
// localized ParseErrors.
func (*Parser) Parse(text string) (*deps.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty manifest")
	}

	props := scanProperties(text)
	res := &deps.Result{}

	depth := 0 // brace depth inside dependencies { ... }, 0 = outside
	sawBlock := false
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(stripLineComment(raw))
		lineNo := i + 1

		if depth == 0 {
			if isDependenciesOpen(line) {
				depth = 1
				sawBlock = true
			}
			continue
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth <= 0 {
			depth = 0
			continue
		}
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		coord, perr := parseDeclaration(line, lineNo, props)
		if perr != nil {
			res.Errors = append(res.Errors, perr)
			continue
		}
		if coord != nil {
			res.Coordinates = append(res.Coordinates, *coord)
		}
	}

	if !sawBlock {
		res.Errors = append(res.Errors, &deps.ParseError{
			Dialect: deps.DialectGradle,
			Message: "no dependencies block found",
		})
	}
	return res, nil
}

// parseDeclaration interprets one line inside a dependencies block.
// A nil, nil return means the line is not a declaration we track
// (test configuration, project(), files(), plugin DSL noise).
func parseDeclaration(line string, lineNo int, props map[string]string) (*deps.Coordinate, *deps.ParseError) {
	if m := mapNotationRe.FindStringSubmatch(line); m != nil {
		if !configurations[m[1]] {
			return nil, nil
		}
		version := m[4]
		return resolveCoordinate(m[2], m[3], version, props), nil
	}

	m := stringNotationRe.FindStringSubmatch(line)
	if m == nil {
		return nil, nil
	}
	conf, notation := m[1], m[2]
	if !configurations[conf] {
		return nil, nil
	}
	if strings.Contains(line, "project(") || strings.Contains(line, "files(") || strings.Contains(line, "fileTree(") {
		return nil, nil
	}

	parts := strings.Split(notation, ":")
	switch len(parts) {
	case 2:
		return resolveCoordinate(parts[0], parts[1], "", props), nil
	case 3:
		return resolveCoordinate(parts[0], parts[1], parts[2], props), nil
	default:
		return nil, &deps.ParseError{
			Dialect: deps.DialectGradle,
			Line:    lineNo,
			Message: fmt.Sprintf("malformed coordinate %q (want group:artifact[:version])", notation),
		}
	}
}

func resolveCoordinate(group, artifact, version string, props map[string]string) *deps.Coordinate {
	c := &deps.Coordinate{
		Group:    strings.TrimSpace(group),
		Artifact: strings.TrimSpace(artifact),
	}
	version, ok := expand(strings.TrimSpace(version), props)
	if version == "" || !ok {
		c.Version = deps.PlaceholderVersion
		c.VersionUnresolved = true
	} else {
		c.Version = version
	}
	return c
}

// scanProperties collects simple string property definitions from the
// whole script so later declarations can reference them.
func scanProperties(text string) map[string]string {
	props := make(map[string]string)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(stripLineComment(raw))
		if m := propertyDefRe.FindStringSubmatch(line); m != nil {
			props[m[1]] = m[2]
		}
	}
	return props
}

// expand substitutes $ref / ${ref} GString references. The bool
// reports whether every reference resolved.
func expand(s string, props map[string]string) (string, bool) {
	if !strings.Contains(s, "$") {
		return s, true
	}
	ok := true
	out := gstringRefRe.ReplaceAllStringFunc(s, func(ref string) string {
		key := strings.Trim(ref, "${}")
		if v, found := props[key]; found {
			return v
		}
		ok = false
		return ref
	})
	return out, ok
}

func isDependenciesOpen(line string) bool {
	return line == "dependencies {" || strings.HasPrefix(line, "dependencies {") || line == "dependencies{"
}

func stripLineComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		// Keep URLs like https:// intact.
		if i == 0 || line[i-1] != ':' {
			return line[:i]
		}
	}
	return line
}
