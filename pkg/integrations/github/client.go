// Package github implements the source.Host interface against the
// GitHub REST API: code search, file content, directory listings, and
// repository metadata. Requests are rate-limit aware, retried with
// exponential backoff, and bounded by a global in-flight limit.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/depchase/depchase/pkg/cache"
	"github.com/depchase/depchase/pkg/integrations"
	"github.com/depchase/depchase/pkg/source"
)

const defaultBaseURL = "https://api.github.com"

// Host is a GitHub-backed source.Host.
// All methods are safe for concurrent use by multiple goroutines.
type Host struct {
	*integrations.Client
	baseURL string
}

// Options configures a GitHub host.
type Options struct {
	Token       string        // OAuth/PAT token; empty means unauthenticated (low rate limits)
	Cache       cache.Cache   // response cache; nil disables caching
	CacheTTL    time.Duration // expiry for cached lookups (default cache.DefaultTTL)
	MaxInFlight int           // concurrent request bound (default integrations.DefaultMaxInFlight)
	BaseURL     string        // override for tests
}

// New creates a GitHub host with the given options.
func New(opts Options) *Host {
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cache.DefaultTTL
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}

	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if opts.Token != "" {
		headers["Authorization"] = "Bearer " + opts.Token
	}

	return &Host{
		Client:  integrations.NewClient(opts.Cache, opts.CacheTTL, headers, opts.MaxInFlight),
		baseURL: opts.BaseURL,
	}
}

// SearchCode searches file contents within repo, scoped by extension.
// Fragments come from the text-match media type; GitHub does not report
// line numbers for code search, so hits carry Line == 0 and callers
// locate matches inside fetched content.
func (h *Host) SearchCode(ctx context.Context, repo source.Repo, query, ext string) ([]source.SearchHit, error) {
	q := fmt.Sprintf("%s repo:%s", query, repo)
	if ext != "" {
		q += " extension:" + ext
	}
	u := fmt.Sprintf("%s/search/code?q=%s&per_page=20", h.baseURL, url.QueryEscape(q))

	var resp codeSearchResponse
	headers := map[string]string{"Accept": "application/vnd.github.v3.text-match+json"}
	if err := h.GetWithHeaders(ctx, u, headers, &resp); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	hits := make([]source.SearchHit, 0, len(resp.Items))
	for _, item := range resp.Items {
		hit := source.SearchHit{Path: item.Path}
		if len(item.TextMatches) > 0 {
			hit.Fragment = item.TextMatches[0].Fragment
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// FileContent fetches a file's text via the raw media type. A non-nil
// window restricts the result to the given 1-based inclusive line range.
func (h *Host) FileContent(ctx context.Context, repo source.Repo, path string, window *source.LineRange) (string, error) {
	u := fmt.Sprintf("%s/repos/%s/contents/%s", h.baseURL, repo, path)
	headers := map[string]string{"Accept": "application/vnd.github.v3.raw"}

	text, err := h.GetText(ctx, u, headers)
	if err != nil {
		return "", err
	}
	if window == nil {
		return text, nil
	}
	return cutLines(text, window.Start, window.End), nil
}

// RepositoryExists reports whether "owner/name" exists upstream.
// Results are cached; a definitive 404 is (false, nil).
func (h *Host) RepositoryExists(ctx context.Context, ownerName string) (bool, error) {
	key := "repoexists:" + ownerName

	var result existsResult
	err := h.Cached(ctx, key, false, &result, func() error {
		var data repoResponse
		err := h.Get(ctx, fmt.Sprintf("%s/repos/%s", h.baseURL, ownerName), &data)
		if errors.Is(err, integrations.ErrNotFound) {
			result.Exists = false
			return nil
		}
		if err != nil {
			return err
		}
		result.Exists = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return result.Exists, nil
}

// ListDirectory lists entries at path within repo.
func (h *Host) ListDirectory(ctx context.Context, repo source.Repo, path string) ([]source.Entry, error) {
	u := fmt.Sprintf("%s/repos/%s/contents/%s", h.baseURL, repo, path)

	var items []contentResponse
	if err := h.Get(ctx, u, &items); err != nil {
		return nil, err
	}

	entries := make([]source.Entry, len(items))
	for i, item := range items {
		entries[i] = source.Entry{
			Name: item.Name,
			Path: item.Path,
			Type: item.Type,
			Size: item.Size,
		}
	}
	return entries, nil
}

// RepoInfo fetches repository metadata. Results are cached.
func (h *Host) RepoInfo(ctx context.Context, repo source.Repo) (*source.Info, error) {
	key := "repoinfo:" + repo.String()

	var info source.Info
	err := h.Cached(ctx, key, false, &info, func() error {
		var data repoResponse
		u := fmt.Sprintf("%s/repos/%s", h.baseURL, repo)
		if err := h.Get(ctx, u, &data); err != nil {
			if errors.Is(err, integrations.ErrNotFound) {
				return fmt.Errorf("%w: github repo %s", err, repo)
			}
			return err
		}
		info = source.Info{
			FullName:      data.FullName,
			Description:   data.Description,
			Language:      data.Language,
			DefaultBranch: data.DefaultBranch,
			Stars:         data.Stars,
			Forks:         data.Forks,
			Archived:      data.Archived,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// cutLines returns the 1-based inclusive [start, end] slice of text.
// Out-of-range bounds are clamped.
func cutLines(text string, start, end int) string {
	lines := strings.Split(text, "\n")
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > len(lines) || end < start {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

// Ensure Host implements source.Host.
var _ source.Host = (*Host)(nil)

type repoResponse struct {
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description"`
	Language      string   `json:"language"`
	DefaultBranch string   `json:"default_branch"`
	Stars         int      `json:"stargazers_count"`
	Forks         int      `json:"forks_count"`
	Archived      bool     `json:"archived"`
	Topics        []string `json:"topics"`
}

type contentResponse struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

type codeSearchResponse struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		Name        string `json:"name"`
		Path        string `json:"path"`
		TextMatches []struct {
			Fragment string `json:"fragment"`
		} `json:"text_matches"`
	} `json:"items"`
}

type existsResult struct {
	Exists bool `json:"exists"`
}
