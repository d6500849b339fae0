// Package source defines the abstract code-hosting service the engine
// queries. The engine only ever talks to a [Host]; the concrete GitHub
// implementation lives in pkg/integrations/github, and tests supply
// in-memory fakes.
package source

import (
	"context"
	"fmt"
	"strings"
)

// Repo identifies a repository by owner and name.
type Repo struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// String returns the canonical "owner/name" form.
func (r Repo) String() string { return r.Owner + "/" + r.Name }

// IsZero reports whether the repo is unset.
func (r Repo) IsZero() bool { return r.Owner == "" && r.Name == "" }

// ParseRepo accepts "owner/name" or a github.com URL and returns the
// repository identity.
func ParseRepo(s string) (Repo, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://github.com/")
	s = strings.TrimPrefix(s, "http://github.com/")
	s = strings.TrimSuffix(s, ".git")
	s = strings.Trim(s, "/")

	parts := strings.Split(s, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf("invalid repository %q (expected owner/name)", s)
	}
	return Repo{Owner: parts[0], Name: parts[1]}, nil
}

// SearchHit is one match returned by code search.
// Line may be zero when the host's search API does not report line
// numbers; callers locate the match inside the fetched file content.
type SearchHit struct {
	Path     string `json:"path"`
	Line     int    `json:"line,omitempty"`
	Fragment string `json:"fragment,omitempty"`
}

// LineRange bounds a window of file content. Lines are 1-based and
// inclusive.
type LineRange struct {
	Start int
	End   int
}

// Entry is one item in a directory listing.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // "file" or "dir"
	Size int    `json:"size,omitempty"`
}

// Info holds repository metadata needed for language detection.
type Info struct {
	FullName      string `json:"full_name"`
	Description   string `json:"description,omitempty"`
	Language      string `json:"language,omitempty"`
	DefaultBranch string `json:"default_branch,omitempty"`
	Stars         int    `json:"stars"`
	Forks         int    `json:"forks"`
	Archived      bool   `json:"archived,omitempty"`
}

// Host abstracts the remote code-hosting service.
//
// All methods honor the context deadline; implementations retry
// transient failures internally and surface a fatal error only after
// the retry budget is exhausted.
type Host interface {
	// SearchCode searches file contents within repo. The ext filter
	// restricts matches by file extension (without dot); empty means
	// no restriction.
	SearchCode(ctx context.Context, repo Repo, query, ext string) ([]SearchHit, error)

	// FileContent fetches a file's text. A non-nil window restricts
	// the returned text to the given line range.
	FileContent(ctx context.Context, repo Repo, path string, window *LineRange) (string, error)

	// RepositoryExists reports whether "owner/name" exists upstream.
	// A definitive "no" is (false, nil), not an error.
	RepositoryExists(ctx context.Context, ownerName string) (bool, error)

	// ListDirectory lists entries at path within repo.
	ListDirectory(ctx context.Context, repo Repo, path string) ([]Entry, error)

	// RepoInfo fetches repository metadata (primary language, default
	// branch).
	RepoInfo(ctx context.Context, repo Repo) (*Info, error)
}

// ExtensionForLanguage maps a repository's primary language to the
// source-file extension used to scope code searches.
func ExtensionForLanguage(lang string) string {
	switch strings.ToLower(lang) {
	case "java":
		return "java"
	case "kotlin":
		return "kt"
	case "go":
		return "go"
	case "python":
		return "py"
	case "javascript":
		return "js"
	case "typescript":
		return "ts"
	case "ruby":
		return "rb"
	case "rust":
		return "rs"
	case "c#":
		return "cs"
	case "scala":
		return "scala"
	case "php":
		return "php"
	default:
		return ""
	}
}
