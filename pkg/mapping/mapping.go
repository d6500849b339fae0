// Package mapping resolves dependency coordinates to source
// repositories.
//
// Resolution consults a mapping table (compiled-in defaults plus
// optional overrides), then falls back to a heuristic that derives
// candidate repositories from the coordinate itself and verifies them
// against the source host. A coordinate that resolves to nothing is
// Unmapped: an ordinary outcome, never an error.
package mapping

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode"

	"github.com/depchase/depchase/pkg/cache"
	"github.com/depchase/depchase/pkg/deps"
	"github.com/depchase/depchase/pkg/observability"
	"github.com/depchase/depchase/pkg/source"
)

// Resolution source labels.
const (
	SourceTable     = "table"
	SourceHeuristic = "heuristic"
)

// Resolution is the outcome of resolving one coordinate. Exactly one
// of (Repo non-zero) and Unmapped holds.
type Resolution struct {
	Coordinate deps.Coordinate `json:"coordinate"`
	Repo       source.Repo     `json:"repo,omitempty"`
	Source     string          `json:"source,omitempty"` // "table" or "heuristic"
	Unmapped   bool            `json:"unmapped,omitempty"`
}

// Mapped reports whether the coordinate resolved to a repository.
func (r Resolution) Mapped() bool { return !r.Unmapped && !r.Repo.IsZero() }

// Resolver maps coordinates to repositories. Safe for concurrent use.
type Resolver struct {
	table Table
	host  source.Host // heuristic verification; nil disables heuristics
	cache cache.Cache
	ttl   time.Duration
}

// Options configures a Resolver.
type Options struct {
	// Overrides extends or shadows the built-in table.
	Overrides Table
	// Host verifies heuristic candidates. Nil disables the heuristic
	// stage entirely.
	Host source.Host
	// Cache stores resolutions by coordinate key. Nil disables caching.
	Cache cache.Cache
	// CacheTTL defaults to cache.DefaultTTL.
	CacheTTL time.Duration
}

// NewResolver builds a Resolver from the built-in table merged with
// the given options.
func NewResolver(opts Options) *Resolver {
	table := builtinTable()
	for k, v := range opts.Overrides {
		table[k] = v
	}
	c := opts.Cache
	if c == nil {
		c = cache.NewNullCache()
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Resolver{table: table, host: opts.Host, cache: c, ttl: ttl}
}

// Resolve maps one coordinate to a repository. Unmapped coordinates
// return a Resolution with Unmapped set and a nil error; a non-nil
// error only reports infrastructure failures (the host being
// unreachable during heuristic verification).
func (r *Resolver) Resolve(ctx context.Context, coord deps.Coordinate) (Resolution, error) {
	key := coord.Key()
	start := time.Now()
	observability.Engine().OnResolveStart(ctx, key)

	res, err := r.resolve(ctx, coord)
	observability.Engine().OnResolveComplete(ctx, key, res.Mapped(), time.Since(start), err)
	return res, err
}

// Invalidate drops any cached resolution for the coordinate.
func (r *Resolver) Invalidate(ctx context.Context, coord deps.Coordinate) error {
	return r.cache.Delete(ctx, cache.CoordKey(coord.Group, coord.Artifact))
}

func (r *Resolver) resolve(ctx context.Context, coord deps.Coordinate) (Resolution, error) {
	cacheKey := cache.CoordKey(coord.Group, coord.Artifact)
	if data, ok, err := r.cache.Get(ctx, cacheKey); err == nil && ok {
		var cached Resolution
		if json.Unmarshal(data, &cached) == nil {
			observability.Cache().OnCacheHit(ctx, "coord")
			cached.Coordinate = coord
			return cached, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "coord")

	res := r.lookup(ctx, coord)
	if res.Unmapped && r.host != nil {
		verified, err := r.heuristic(ctx, coord)
		if err != nil {
			return Resolution{Coordinate: coord, Unmapped: true}, err
		}
		if verified != nil {
			res = Resolution{Coordinate: coord, Repo: *verified, Source: SourceHeuristic}
		}
	}

	if data, err := json.Marshal(res); err == nil {
		if r.cache.Set(ctx, cacheKey, data, r.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, "coord", len(data))
		}
	}
	return res, nil
}

// lookup consults the table: exact group:artifact, exact group, then
// the longest group prefix with trailing segments stripped.
func (r *Resolver) lookup(_ context.Context, coord deps.Coordinate) Resolution {
	group := strings.ToLower(strings.TrimSpace(coord.Group))
	artifact := strings.ToLower(strings.TrimSpace(coord.Artifact))

	if repo, ok := r.table[group+":"+artifact]; ok {
		return Resolution{Coordinate: coord, Repo: repo, Source: SourceTable}
	}
	for prefix := group; prefix != ""; prefix = parentGroup(prefix) {
		if repo, ok := r.table[prefix]; ok {
			return Resolution{Coordinate: coord, Repo: repo, Source: SourceTable}
		}
	}
	return Resolution{Coordinate: coord, Unmapped: true}
}

// heuristic derives candidate repositories from the coordinate shape
// and verifies each against the host. First existing candidate wins.
func (r *Resolver) heuristic(ctx context.Context, coord deps.Coordinate) (*source.Repo, error) {
	var firstErr error
	for _, candidate := range HeuristicCandidates(coord) {
		exists, err := r.host.RepositoryExists(ctx, candidate.String())
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if exists {
			repo := candidate
			return &repo, nil
		}
	}
	return nil, firstErr
}

// HeuristicCandidates lists plausible repositories for a coordinate,
// most specific first. A reverse-domain group like
// "org.apache.commons" suggests the owner "apache"; the artifact (with
// any trailing version digits stripped, commons-lang3 -> commons-lang)
// and the trailing group segment suggest repository names.
func HeuristicCandidates(coord deps.Coordinate) []source.Repo {
	group := strings.ToLower(strings.TrimSpace(coord.Group))
	artifact := strings.ToLower(strings.TrimSpace(coord.Artifact))
	segments := strings.Split(group, ".")
	if group == "" || artifact == "" {
		return nil
	}

	owner := segments[0]
	if len(segments) > 1 && knownTLDs[segments[0]] {
		owner = segments[1]
	}
	if owner == "" {
		return nil
	}

	names := []string{artifact}
	if stripped := stripTrailingDigits(artifact); stripped != artifact && stripped != "" {
		names = append(names, stripped)
	}
	if last := segments[len(segments)-1]; last != owner && last != artifact {
		names = append(names, last)
	}

	repos := make([]source.Repo, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		repos = append(repos, source.Repo{Owner: owner, Name: name})
	}
	return repos
}

var knownTLDs = map[string]bool{
	"com": true, "org": true, "net": true, "io": true,
	"dev": true, "cn": true, "de": true, "fr": true, "uk": true,
}

func stripTrailingDigits(s string) string {
	return strings.TrimRightFunc(s, unicode.IsDigit)
}

func parentGroup(group string) string {
	i := strings.LastIndex(group, ".")
	if i < 0 {
		return ""
	}
	return group[:i]
}
