// Package engine ties the parsing, mapping, locating, and chain
// stages together behind the three operations the transports expose:
// dependency analysis, symbol tracing, and chain building.
package engine

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/depchase/depchase/pkg/cache"
	"github.com/depchase/depchase/pkg/chain"
	"github.com/depchase/depchase/pkg/deps"
	"github.com/depchase/depchase/pkg/deps/gradle"
	"github.com/depchase/depchase/pkg/deps/maven"
	"github.com/depchase/depchase/pkg/errors"
	"github.com/depchase/depchase/pkg/locate"
	"github.com/depchase/depchase/pkg/mapping"
	"github.com/depchase/depchase/pkg/source"
)

// DefaultResolveConcurrency bounds parallel coordinate resolutions
// within one manifest analysis.
const DefaultResolveConcurrency = 8

// Engine is the resolution and tracing facade. Safe for concurrent
// use; construct once and share.
type Engine struct {
	host        source.Host
	parsers     []deps.Parser
	resolver    *mapping.Resolver
	locator     *locate.Locator
	builder     *chain.Builder
	concurrency int
}

// Options configures an Engine.
type Options struct {
	// Host is the source host all remote lookups go through. Required.
	Host source.Host
	// Cache memoizes resolutions and symbol lookups. Nil disables
	// caching.
	Cache cache.Cache
	// CacheTTL defaults to cache.DefaultTTL.
	CacheTTL time.Duration
	// MappingOverrides extends the built-in coordinate table.
	MappingOverrides mapping.Table
	// ResolveConcurrency bounds parallel resolutions per manifest;
	// 0 means DefaultResolveConcurrency.
	ResolveConcurrency int
	// ChainConcurrency bounds sibling fan-out per chain node;
	// 0 means chain.DefaultConcurrency.
	ChainConcurrency int
}

// New builds an Engine.
func New(opts Options) *Engine {
	parsers := []deps.Parser{maven.New(), gradle.New()}
	resolver := mapping.NewResolver(mapping.Options{
		Overrides: opts.MappingOverrides,
		Host:      opts.Host,
		Cache:     opts.Cache,
		CacheTTL:  opts.CacheTTL,
	})
	locator := locate.New(opts.Host, opts.Cache, opts.CacheTTL)
	builder := chain.NewBuilder(chain.Options{
		Host:        opts.Host,
		Resolver:    resolver,
		Locator:     locator,
		Parsers:     parsers,
		Concurrency: opts.ChainConcurrency,
	})

	conc := opts.ResolveConcurrency
	if conc <= 0 {
		conc = DefaultResolveConcurrency
	}
	return &Engine{
		host:        opts.Host,
		parsers:     parsers,
		resolver:    resolver,
		locator:     locator,
		builder:     builder,
		concurrency: conc,
	}
}

// Analysis is the outcome of analyzing one manifest: one entry per
// declared coordinate in declaration order, each mapped or unmapped,
// plus whatever went wrong along the way.
type Analysis struct {
	Dialect deps.Dialect         `json:"dialect"`
	Entries []mapping.Resolution `json:"entries"`
	// ParseErrors lists declarations the parser could not read.
	ParseErrors []*deps.ParseError `json:"parse_errors,omitempty"`
	// Failures lists coordinates whose resolution hit an
	// infrastructure error (reported unmapped in Entries).
	Failures []string `json:"failures,omitempty"`
}

// AnalyzeDependencies parses manifestText and resolves every declared
// coordinate. Duplicate declarations of the same group:artifact
// collapse to the first occurrence. Unmapped coordinates and localized
// parse errors are reported in the Analysis, not as errors.
func (e *Engine) AnalyzeDependencies(ctx context.Context, manifestText string, dialect deps.Dialect) (*Analysis, error) {
	parser, err := deps.ForDialect(dialect, e.parsers...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDialect, err, "unsupported manifest dialect %q", dialect)
	}

	parsed, err := parser.Parse(manifestText)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "manifest could not be parsed")
	}

	coords := deps.Dedupe(parsed.Coordinates)
	analysis := &Analysis{
		Dialect:     dialect,
		Entries:     make([]mapping.Resolution, len(coords)),
		ParseErrors: parsed.Errors,
	}

	failures := make([]string, len(coords))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, coord := range coords {
		i, coord := i, coord
		g.Go(func() error {
			res, err := e.resolver.Resolve(gctx, coord)
			if err != nil {
				failures[i] = coord.Key() + ": " + err.Error()
				res = mapping.Resolution{Coordinate: coord, Unmapped: true}
			}
			analysis.Entries[i] = res
			return nil
		})
	}
	_ = g.Wait() // per-coordinate failures never abort the analysis

	for _, f := range failures {
		if f != "" {
			analysis.Failures = append(analysis.Failures, f)
		}
	}
	return analysis, nil
}

// AnalyzeRepository fetches the repository's manifest from the host
// and analyzes it. The manifest is probed in pom.xml, build.gradle,
// build.gradle.kts order.
func (e *Engine) AnalyzeRepository(ctx context.Context, repo source.Repo) (*Analysis, error) {
	text, dialect, err := e.fetchManifest(ctx, repo)
	if err != nil {
		return nil, err
	}
	return e.AnalyzeDependencies(ctx, text, dialect)
}

// TraceSymbol finds candidate implementations of ref in repo, best
// first. An empty slice means nothing plausible was found.
func (e *Engine) TraceSymbol(ctx context.Context, repo source.Repo, ref deps.SymbolRef) ([]locate.Location, error) {
	return e.TraceSymbolN(ctx, repo, ref, 0)
}

// TraceSymbolN is TraceSymbol with an explicit result bound; topN <= 0
// uses locate.DefaultTopN.
func (e *Engine) TraceSymbolN(ctx context.Context, repo source.Repo, ref deps.SymbolRef, topN int) ([]locate.Location, error) {
	if ref.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidSymbol, "empty symbol reference")
	}
	return e.locator.Locate(ctx, repo, ref, locate.Options{TopN: topN})
}

// BuildDependencyChain expands ref's dependency graph from repo down
// to maxDepth levels. A deadline on ctx truncates rather than fails:
// the partial graph is returned with Result.Truncated set.
func (e *Engine) BuildDependencyChain(ctx context.Context, repo source.Repo, ref deps.SymbolRef, maxDepth int) (*chain.Result, error) {
	if ref.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidSymbol, "empty symbol reference")
	}
	return e.builder.Build(ctx, repo, ref, maxDepth)
}

// InvalidateCoordinate forces the next resolution of coord to bypass
// the cache.
func (e *Engine) InvalidateCoordinate(ctx context.Context, coord deps.Coordinate) error {
	return e.resolver.Invalidate(ctx, coord)
}

// InvalidateSymbol forces the next trace of (repo, ref) to bypass the
// cache.
func (e *Engine) InvalidateSymbol(ctx context.Context, repo source.Repo, ref deps.SymbolRef) error {
	return e.locator.Invalidate(ctx, repo, ref)
}

// fetchManifest probes the repository root for a supported manifest.
func (e *Engine) fetchManifest(ctx context.Context, repo source.Repo) (string, deps.Dialect, error) {
	entries, err := e.host.ListDirectory(ctx, repo, "")
	if err != nil {
		return "", "", errors.Wrap(errors.ErrCodeNetwork, err, "list %s", repo)
	}
	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.Type == "file" {
			names[strings.ToLower(entry.Name)] = true
		}
	}

	for _, mf := range deps.ManifestFiles {
		if !names[mf.Name] {
			continue
		}
		text, err := e.host.FileContent(ctx, repo, mf.Name, nil)
		if err != nil {
			return "", "", errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s from %s", mf.Name, repo)
		}
		return text, mf.Dialect, nil
	}
	return "", "", errors.New(errors.ErrCodeManifestNotFound, "no supported manifest in %s (tried pom.xml, build.gradle, build.gradle.kts)", repo)
}
