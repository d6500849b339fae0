// Package maven parses Maven pom.xml manifests into coordinates.
//
// Parsing is tolerant: a malformed <dependency> element (or a document
// that is not even well-formed XML) yields localized ParseErrors while
// every recoverable declaration is still returned.
package maven

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/depchase/depchase/pkg/deps"
)

// Parser reads pom.xml dependency declarations.
type Parser struct{}

// New returns a pom.xml parser.
func New() *Parser { return &Parser{} }

// Dialect implements deps.Parser.
func (*Parser) Dialect() deps.Dialect { return deps.DialectMaven }

type pomProject struct {
	XMLName    xml.Name `xml:"project"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Version    string   `xml:"version"`
	Parent     struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
		Version    string `xml:"version"`
	} `xml:"parent"`
	Properties   pomProperties   `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
}

type pomDependency struct {
	XMLName    xml.Name `xml:"dependency"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Version    string   `xml:"version"`
}

// pomProperties flattens the free-form <properties> element into a map.
type pomProperties map[string]string

func (p *pomProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	m := make(map[string]string)
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			m[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			if t.Name == start.Name {
				*p = m
				return nil
			}
		}
	}
}

// Parse implements deps.Parser. A document that fails full XML decoding
// is re-scanned element by element so well-formed <dependency> blocks
// still produce coordinates.
func (mp *Parser) Parse(text string) (*deps.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty manifest")
	}

	var proj pomProject
	if err := xml.Unmarshal([]byte(text), &proj); err != nil {
		return mp.recover(text, err), nil
	}

	props := projectProperties(&proj)
	res := &deps.Result{}
	for _, d := range proj.Dependencies {
		coord, perr := buildCoordinate(d, props, text)
		if perr != nil {
			res.Errors = append(res.Errors, perr)
			continue
		}
		res.Coordinates = append(res.Coordinates, coord)
	}
	return res, nil
}

// recover scans a malformed document for individually well-formed
// <dependency> elements.
func (mp *Parser) recover(text string, cause error) *deps.Result {
	res := &deps.Result{
		Errors: []*deps.ParseError{{
			Dialect: deps.DialectMaven,
			Line:    syntaxLine(cause),
			Message: fmt.Sprintf("malformed document: %v; recovering individual dependency elements", cause),
		}},
	}

	props := scanProperties(text)
	for _, m := range dependencyBlockRe.FindAllStringIndex(text, -1) {
		block := text[m[0]:m[1]]
		line := lineAt(text, m[0])

		var d pomDependency
		if err := xml.Unmarshal([]byte(block), &d); err != nil {
			res.Errors = append(res.Errors, &deps.ParseError{
				Dialect: deps.DialectMaven,
				Line:    line,
				Message: fmt.Sprintf("unreadable dependency element: %v", err),
			})
			continue
		}
		coord, perr := buildCoordinate(d, props, text)
		if perr != nil {
			res.Errors = append(res.Errors, perr)
			continue
		}
		res.Coordinates = append(res.Coordinates, coord)
	}
	return res
}

var (
	dependencyBlockRe = regexp.MustCompile(`(?s)<dependency>.*?</dependency>`)
	propertyRefRe     = regexp.MustCompile(`\$\{([^}]+)\}`)
	propertyElemRe    = regexp.MustCompile(`(?s)<properties>(.*?)</properties>`)
	propertyPairRe    = regexp.MustCompile(`<([\w.\-]+)>([^<]*)</[\w.\-]+>`)
)

func buildCoordinate(d pomDependency, props map[string]string, text string) (deps.Coordinate, *deps.ParseError) {
	group, gok := expand(d.GroupID, props)
	artifact, aok := expand(d.ArtifactID, props)

	if strings.TrimSpace(group) == "" || strings.TrimSpace(artifact) == "" || !gok || !aok {
		return deps.Coordinate{}, &deps.ParseError{
			Dialect: deps.DialectMaven,
			Line:    lineOfDependency(text, d),
			Message: fmt.Sprintf("dependency missing groupId or artifactId (groupId=%q artifactId=%q)", d.GroupID, d.ArtifactID),
		}
	}

	coord := deps.Coordinate{
		Group:    strings.TrimSpace(group),
		Artifact: strings.TrimSpace(artifact),
	}
	version, vok := expand(d.Version, props)
	version = strings.TrimSpace(version)
	if version == "" || !vok {
		// Version managed elsewhere (parent, BOM) or behind an
		// unresolvable property reference.
		coord.Version = deps.PlaceholderVersion
		coord.VersionUnresolved = true
	} else {
		coord.Version = version
	}
	return coord, nil
}

// projectProperties merges <properties> with the built-in project.*
// references Maven exposes to interpolation.
func projectProperties(proj *pomProject) map[string]string {
	props := make(map[string]string, len(proj.Properties)+6)
	for k, v := range proj.Properties {
		props[k] = v
	}
	version := proj.Version
	if version == "" {
		version = proj.Parent.Version
	}
	group := proj.GroupID
	if group == "" {
		group = proj.Parent.GroupID
	}
	if version != "" {
		props["project.version"] = version
		props["version"] = version
	}
	if group != "" {
		props["project.groupId"] = group
	}
	if proj.Parent.Version != "" {
		props["project.parent.version"] = proj.Parent.Version
	}
	return props
}

// scanProperties extracts <properties> pairs from raw text when the
// document would not decode as a whole.
func scanProperties(text string) map[string]string {
	props := make(map[string]string)
	if m := propertyElemRe.FindStringSubmatch(text); m != nil {
		for _, pair := range propertyPairRe.FindAllStringSubmatch(m[1], -1) {
			props[pair[1]] = strings.TrimSpace(pair[2])
		}
	}
	return props
}

// expand substitutes ${...} references. The bool reports whether every
// reference resolved; unresolved references leave the raw text behind.
func expand(s string, props map[string]string) (string, bool) {
	ok := true
	for i := 0; i < 5; i++ { // bounded: properties can reference properties
		if !strings.Contains(s, "${") {
			return s, ok
		}
		replaced := propertyRefRe.ReplaceAllStringFunc(s, func(ref string) string {
			key := ref[2 : len(ref)-1]
			if v, found := props[key]; found {
				return v
			}
			ok = false
			return ref
		})
		if replaced == s {
			return s, ok
		}
		s = replaced
	}
	return s, ok
}

func syntaxLine(err error) int {
	var serr *xml.SyntaxError
	if errors.As(err, &serr) {
		return serr.Line
	}
	return 0
}

// lineAt returns the 1-based line containing byte offset off.
func lineAt(text string, off int) int {
	return strings.Count(text[:off], "\n") + 1
}

// lineOfDependency locates the declaration in the raw text for error
// reporting, falling back to 0 when the artifact cannot be found.
func lineOfDependency(text string, d pomDependency) int {
	needle := ""
	switch {
	case d.ArtifactID != "":
		needle = "<artifactId>" + d.ArtifactID + "</artifactId>"
	case d.GroupID != "":
		needle = "<groupId>" + d.GroupID + "</groupId>"
	default:
		return 0
	}
	if i := strings.Index(text, needle); i >= 0 {
		return lineAt(text, i)
	}
	return 0
}
