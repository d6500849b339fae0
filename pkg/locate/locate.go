// Package locate finds the implementation of a symbol inside a source
// repository.
//
// The locator searches the host for the symbol name, fetches the
// matching files, and scores every occurrence by how much it looks
// like the symbol's declaration. Results are ranked candidates, not
// proofs: an empty result means nothing plausible was found and is not
// an error.
package locate

import (
	"context"
	"encoding/json"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/depchase/depchase/pkg/cache"
	"github.com/depchase/depchase/pkg/deps"
	"github.com/depchase/depchase/pkg/observability"
	"github.com/depchase/depchase/pkg/source"
)

// Confidence levels assigned to occurrence shapes. The exact values
// are arbitrary; only their order matters to ranking.
const (
	scoreSignature   = 100 // declaration with modifier/keyword and parameter list
	scoreDeclaration = 60  // bare declaration context (class X, def x)
	scoreMention     = 25  // call site or comment
	bonusFileName    = 10  // file base name matches the enclosing type
)

// DefaultTopN bounds how many locations Locate returns.
const DefaultTopN = 5

// DefaultSnippetLines is the context included around a matched line.
const DefaultSnippetLines = 3

// Location is one ranked candidate for a symbol's implementation.
type Location struct {
	Repo       source.Repo `json:"repo"`
	Path       string      `json:"path"`
	Line       int         `json:"line"`
	Confidence int         `json:"confidence"`
	Snippet    string      `json:"snippet,omitempty"`
}

// Options tunes a lookup.
type Options struct {
	// TopN bounds the number of returned locations; 0 means DefaultTopN.
	TopN int
	// SnippetLines is the context radius around the matched line;
	// 0 means DefaultSnippetLines, negative disables snippets.
	SnippetLines int
}

// Locator finds symbol implementations through a source host.
// Safe for concurrent use.
type Locator struct {
	host  source.Host
	cache cache.Cache
	ttl   time.Duration
}

// New builds a Locator. A nil cache disables caching.
func New(host source.Host, c cache.Cache, ttl time.Duration) *Locator {
	if c == nil {
		c = cache.NewNullCache()
	}
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Locator{host: host, cache: c, ttl: ttl}
}

// Locate returns up to opts.TopN candidate locations for ref in repo,
// ordered by descending confidence. Ties break on shorter path, then
// earlier line, so identical inputs rank identically.
func (l *Locator) Locate(ctx context.Context, repo source.Repo, ref deps.SymbolRef, opts Options) ([]Location, error) {
	start := time.Now()
	observability.Engine().OnLocateStart(ctx, repo.String(), ref.String())

	locs, err := l.locate(ctx, repo, ref, opts)
	observability.Engine().OnLocateComplete(ctx, repo.String(), ref.String(), len(locs), time.Since(start), err)
	return locs, err
}

// Invalidate drops the cached lookup for (repo, ref).
func (l *Locator) Invalidate(ctx context.Context, repo source.Repo, ref deps.SymbolRef) error {
	return l.cache.Delete(ctx, cache.SymbolKey(repo.String(), ref.String()))
}

func (l *Locator) locate(ctx context.Context, repo source.Repo, ref deps.SymbolRef, opts Options) ([]Location, error) {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	radius := opts.SnippetLines
	if radius == 0 {
		radius = DefaultSnippetLines
	}

	cacheKey := cache.SymbolKey(repo.String(), ref.String())
	if data, ok, err := l.cache.Get(ctx, cacheKey); err == nil && ok {
		var cached []Location
		if json.Unmarshal(data, &cached) == nil {
			observability.Cache().OnCacheHit(ctx, "symbol")
			return truncate(cached, topN), nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "symbol")

	ext := ""
	if info, err := l.host.RepoInfo(ctx, repo); err == nil && info != nil {
		ext = source.ExtensionForLanguage(info.Language)
	}

	query := ref.Name
	if ref.Enclosing != "" {
		query = ref.Enclosing + " " + ref.Name
	}
	hits, err := l.host.SearchCode(ctx, repo, query, ext)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(hits))
	var locs []Location
	for _, hit := range hits {
		if seen[hit.Path] {
			continue
		}
		seen[hit.Path] = true

		loc, ok, err := l.scoreFile(ctx, repo, hit, ref, radius)
		if err != nil {
			// One unreadable file does not sink the lookup.
			continue
		}
		if ok {
			locs = append(locs, loc)
		}
	}

	rank(locs)
	if data, err := json.Marshal(locs); err == nil {
		if l.cache.Set(ctx, cacheKey, data, l.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, "symbol", len(data))
		}
	}
	return truncate(locs, topN), nil
}

// scoreFile fetches one file and scores the best occurrence of ref in
// it. The search hit rarely carries a line number, so the file is
// scanned as a whole.
func (l *Locator) scoreFile(ctx context.Context, repo source.Repo, hit source.SearchHit, ref deps.SymbolRef, radius int) (Location, bool, error) {
	content, err := l.host.FileContent(ctx, repo, hit.Path, nil)
	if err != nil {
		return Location{}, false, err
	}

	lines := strings.Split(content, "\n")
	best := Location{Repo: repo, Path: hit.Path}
	for i, line := range lines {
		score := scoreLine(line, ref)
		if score == 0 {
			continue
		}
		if baseName(hit.Path) == ref.Enclosing && ref.Enclosing != "" {
			score += bonusFileName
		}
		// Earlier line wins ties within one file.
		if score > best.Confidence {
			best.Confidence = score
			best.Line = i + 1
		}
	}
	if best.Confidence == 0 {
		return Location{}, false, nil
	}
	if radius > 0 {
		best.Snippet = snippet(lines, best.Line, radius)
	}
	return best, true, nil
}

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// scoreLine classifies one occurrence of the symbol on a line.
func scoreLine(line string, ref deps.SymbolRef) int {
	if !containsIdent(line, ref.Name) {
		return 0
	}
	trimmed := strings.TrimSpace(line)

	switch ref.Kind {
	case deps.KindClass:
		if typeDeclRe(ref.Name).MatchString(trimmed) {
			return scoreSignature
		}
	default:
		if methodDeclRe(ref.Name).MatchString(trimmed) {
			return scoreSignature
		}
	}
	if isBareDecl(trimmed, ref.Name) {
		return scoreDeclaration
	}
	return scoreMention
}

// typeDeclRe matches "public final class Name", "interface Name",
// "enum Name", "object Name" and similar shapes.
func typeDeclRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?:class|interface|enum|record|object|trait|struct)\s+` + regexp.QuoteMeta(name) + `\b`)
}

// methodDeclRe matches a signature-shaped declaration: a modifier or
// declaration keyword, then the name, then a parameter list.
func methodDeclRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?:public|private|protected|static|final|abstract|synchronized|default|override|fun|func|def|fn)[\w<>\[\],\s.*&]*?\b` + regexp.QuoteMeta(name) + `\s*\(`)
}

// isBareDecl matches weaker declaration contexts: the name opening a
// parameter list at the start of the line (optionally after a return
// type), or a field-style binding. Statement keywords before the name
// mean a call site, not a declaration.
func isBareDecl(trimmed, name string) bool {
	q := regexp.QuoteMeta(name)
	re := regexp.MustCompile(`^(?:([\w<>\[\],.]+)\s+)?` + q + `\s*[(=:]`)
	m := re.FindStringSubmatch(trimmed)
	if m == nil {
		return false
	}
	return !statementKeywords[m[1]]
}

var statementKeywords = map[string]bool{
	"return": true, "throw": true, "new": true, "if": true,
	"while": true, "for": true, "switch": true, "case": true,
	"else": true, "await": true, "yield": true, "assert": true,
}

// containsIdent reports whether name appears as a whole identifier.
func containsIdent(line, name string) bool {
	for _, m := range identRe.FindAllString(line, -1) {
		if m == name {
			return true
		}
	}
	return false
}

// rank orders by descending confidence, then shorter path, then
// earlier line, then lexicographic path for full determinism.
func rank(locs []Location) {
	sort.Slice(locs, func(i, j int) bool {
		a, b := locs[i], locs[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if len(a.Path) != len(b.Path) {
			return len(a.Path) < len(b.Path)
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Path < b.Path
	})
}

func truncate(locs []Location, n int) []Location {
	if len(locs) > n {
		return locs[:n]
	}
	return locs
}

func snippet(lines []string, line, radius int) string {
	start := line - 1 - radius
	if start < 0 {
		start = 0
	}
	end := line + radius
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

func baseName(p string) string {
	b := path.Base(p)
	if i := strings.LastIndex(b, "."); i > 0 {
		b = b[:i]
	}
	return b
}
