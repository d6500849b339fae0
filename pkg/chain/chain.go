// Package chain recursively expands a symbol's resolved dependencies
// into a bounded dependency graph.
//
// Starting at a root repository, each node locates the symbol, reads
// the repository's own manifest, resolves the declared coordinates,
// and expands one child per coordinate in declaration order. Expansion
// stops at the depth bound, on a repository already visited along the
// current path (marked cyclic, never re-expanded), or when the caller
// deadline expires (partial graph plus a truncation flag).
package chain

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/depchase/depchase/pkg/deps"
	"github.com/depchase/depchase/pkg/locate"
	"github.com/depchase/depchase/pkg/mapping"
	"github.com/depchase/depchase/pkg/observability"
	"github.com/depchase/depchase/pkg/source"
)

// DefaultMaxDepth bounds expansion when the caller does not choose.
const DefaultMaxDepth = 5

// DefaultConcurrency bounds sibling fan-out per node.
const DefaultConcurrency = 4

// Node is one vertex of the dependency graph. The root node carries a
// zero Coordinate; an Unmapped node carries a zero Repo.
type Node struct {
	Coordinate deps.Coordinate  `json:"coordinate,omitempty"`
	Repo       source.Repo      `json:"repo,omitempty"`
	Location   *locate.Location `json:"location,omitempty"`
	Children   []*Node          `json:"children,omitempty"`

	// Terminal markers. Cyclic: the repository already appears on the
	// path from the root to this node. DepthCapped: the depth bound
	// stopped expansion here. Unmapped: the coordinate resolved to no
	// repository. None of these is an error.
	Cyclic      bool `json:"cyclic,omitempty"`
	DepthCapped bool `json:"depth_capped,omitempty"`
	Unmapped    bool `json:"unmapped,omitempty"`
}

// Size counts the nodes in the subtree rooted at n.
func (n *Node) Size() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Size()
	}
	return total
}

// Result is a built chain. Truncated is set when the caller deadline
// expired before expansion finished; the graph is the partial work
// completed by then.
type Result struct {
	Root      *Node  `json:"root"`
	Symbol    string `json:"symbol"`
	MaxDepth  int    `json:"max_depth"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Builder expands dependency chains. Safe for concurrent use.
type Builder struct {
	host        source.Host
	resolver    *mapping.Resolver
	locator     *locate.Locator
	parsers     []deps.Parser
	concurrency int
}

// Options configures a Builder.
type Options struct {
	Host     source.Host
	Resolver *mapping.Resolver
	Locator  *locate.Locator
	// Parsers handle the manifest dialects found in repositories.
	Parsers []deps.Parser
	// Concurrency bounds sibling fan-out per node; 0 means
	// DefaultConcurrency.
	Concurrency int
}

// NewBuilder builds a chain Builder.
func NewBuilder(opts Options) *Builder {
	conc := opts.Concurrency
	if conc <= 0 {
		conc = DefaultConcurrency
	}
	return &Builder{
		host:        opts.Host,
		resolver:    opts.Resolver,
		locator:     opts.Locator,
		parsers:     opts.Parsers,
		concurrency: conc,
	}
}

// Build expands the chain for ref starting at repo. maxDepth zero
// means "root only"; negative values are treated as zero. Callers
// wanting a default should pass DefaultMaxDepth.
//
// Build returns a non-nil Result even when the deadline expires
// mid-expansion; per-child failures become Unmapped or childless
// nodes, never errors.
func (b *Builder) Build(ctx context.Context, repo source.Repo, ref deps.SymbolRef, maxDepth int) (*Result, error) {
	if maxDepth < 0 {
		maxDepth = 0
	}
	start := time.Now()
	observability.Engine().OnChainStart(ctx, repo.String(), ref.String(), maxDepth)

	var truncated atomic.Bool
	root := &Node{Repo: repo}
	b.expand(ctx, root, ref, pathSet{repo.String(): true}, 0, maxDepth, &truncated)

	res := &Result{
		Root:      root,
		Symbol:    ref.String(),
		MaxDepth:  maxDepth,
		Truncated: truncated.Load(),
	}
	observability.Engine().OnChainComplete(ctx, repo.String(), ref.String(), root.Size(), res.Truncated, time.Since(start), nil)
	return res, nil
}

// pathSet tracks repositories visited along one root-to-node path.
// Each child expansion gets its own copy, so sibling branches never
// contend and a diamond dependency is not mistaken for a cycle.
type pathSet map[string]bool

func (p pathSet) with(repo string) pathSet {
	next := make(pathSet, len(p)+1)
	for k := range p {
		next[k] = true
	}
	next[repo] = true
	return next
}

func (b *Builder) expand(ctx context.Context, node *Node, ref deps.SymbolRef, path pathSet, depth, maxDepth int, truncated *atomic.Bool) {
	if ctx.Err() != nil {
		truncated.Store(true)
		return
	}

	if locs, err := b.locator.Locate(ctx, node.Repo, ref, locate.Options{TopN: 1}); err == nil && len(locs) > 0 {
		loc := locs[0]
		node.Location = &loc
	}

	if depth >= maxDepth {
		node.DepthCapped = true
		return
	}

	coords := b.manifestCoordinates(ctx, node.Repo)
	if len(coords) == 0 {
		return
	}

	// Children are created in declaration order up front; only their
	// subtree expansion fans out.
	children := make([]*Node, len(coords))
	var expandable []*Node
	for i, coord := range coords {
		child := &Node{Coordinate: coord}
		children[i] = child

		res, err := b.resolver.Resolve(ctx, coord)
		if err != nil || !res.Mapped() {
			child.Unmapped = true
			continue
		}
		child.Repo = res.Repo
		if path[res.Repo.String()] {
			child.Cyclic = true
			continue
		}
		expandable = append(expandable, child)
	}
	node.Children = children

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, child := range expandable {
		child := child
		childPath := path.with(child.Repo.String())
		g.Go(func() error {
			b.expand(gctx, child, ref, childPath, depth+1, maxDepth, truncated)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors
}

// manifestCoordinates finds the repository's manifest, parses it, and
// returns the declared coordinates deduplicated in declaration order.
// Any failure yields an empty slice: a repository without a readable
// manifest is a leaf, not an error.
func (b *Builder) manifestCoordinates(ctx context.Context, repo source.Repo) []deps.Coordinate {
	entries, err := b.host.ListDirectory(ctx, repo, "")
	if err != nil {
		return nil
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Type == "file" {
			names[strings.ToLower(e.Name)] = true
		}
	}

	for _, mf := range deps.ManifestFiles {
		if !names[mf.Name] {
			continue
		}
		text, err := b.host.FileContent(ctx, repo, mf.Name, nil)
		if err != nil {
			continue
		}
		parser, err := deps.ForDialect(mf.Dialect, b.parsers...)
		if err != nil {
			continue
		}
		res, err := parser.Parse(text)
		if err != nil {
			continue
		}
		return deps.Dedupe(res.Coordinates)
	}
	return nil
}
