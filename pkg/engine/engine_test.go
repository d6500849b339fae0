package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/depchase/depchase/pkg/cache"
	"github.com/depchase/depchase/pkg/deps"
	"github.com/depchase/depchase/pkg/errors"
	"github.com/depchase/depchase/pkg/source"
)

// fakeHost is an in-memory source host: repositories with files,
// naive substring search, and an existence table.
type fakeHost struct {
	files  map[string]map[string]string // repo -> path -> content
	exists map[string]bool
}

func (f *fakeHost) SearchCode(_ context.Context, repo source.Repo, query, _ string) ([]source.SearchHit, error) {
	terms := strings.Fields(query)
	var hits []source.SearchHit
	for path, content := range f.files[repo.String()] {
		for _, t := range terms {
			if strings.Contains(content, t) {
				hits = append(hits, source.SearchHit{Path: path})
				break
			}
		}
	}
	return hits, nil
}

func (f *fakeHost) FileContent(_ context.Context, repo source.Repo, path string, _ *source.LineRange) (string, error) {
	content, ok := f.files[repo.String()][path]
	if !ok {
		return "", errors.New(errors.ErrCodeFileNotFound, "no %s in %s", path, repo)
	}
	return content, nil
}

func (f *fakeHost) RepositoryExists(_ context.Context, ownerName string) (bool, error) {
	return f.exists[ownerName], nil
}

func (f *fakeHost) ListDirectory(_ context.Context, repo source.Repo, _ string) ([]source.Entry, error) {
	var entries []source.Entry
	for path := range f.files[repo.String()] {
		if !strings.Contains(path, "/") {
			entries = append(entries, source.Entry{Name: path, Path: path, Type: "file"})
		}
	}
	return entries, nil
}

func (f *fakeHost) RepoInfo(_ context.Context, repo source.Repo) (*source.Info, error) {
	return &source.Info{FullName: repo.String(), Language: "Java", DefaultBranch: "main"}, nil
}

const demoPom = `<project>
  <dependencies>
    <dependency>
      <groupId>org.apache.commons</groupId>
      <artifactId>commons-lang3</artifactId>
      <version>3.12.0</version>
    </dependency>
    <dependency>
      <groupId>com.unknown.internal</groupId>
      <artifactId>proprietary-lib</artifactId>
      <version>1.0</version>
    </dependency>
    <dependency>
      <groupId>org.slf4j</groupId>
      <artifactId>slf4j-api</artifactId>
      <version>2.0.9</version>
    </dependency>
  </dependencies>
</project>`

const stringUtilsJava = `package org.apache.commons.lang3;

public class StringUtils {

    public static boolean isBlank(final CharSequence cs) {
        return cs == null;
    }
}
`

func newTestEngine(host *fakeHost) *Engine {
	return New(Options{Host: host, Cache: cache.NewMemoryCache()})
}

func demoHost() *fakeHost {
	return &fakeHost{
		files: map[string]map[string]string{
			"acme/demo": {
				"pom.xml": demoPom,
			},
			"apache/commons-lang": {
				"src/main/java/org/apache/commons/lang3/StringUtils.java": stringUtilsJava,
			},
		},
		exists: map[string]bool{
			"apache/commons-lang": true,
		},
	}
}

func TestAnalyzeDependenciesOneEntryPerCoordinate(t *testing.T) {
	e := newTestEngine(demoHost())

	analysis, err := e.AnalyzeDependencies(context.Background(), demoPom, deps.DialectMaven)
	if err != nil {
		t.Fatalf("AnalyzeDependencies: %v", err)
	}
	if len(analysis.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(analysis.Entries))
	}

	// Declaration order preserved.
	wantKeys := []string{
		"org.apache.commons:commons-lang3",
		"com.unknown.internal:proprietary-lib",
		"org.slf4j:slf4j-api",
	}
	for i, want := range wantKeys {
		if got := analysis.Entries[i].Coordinate.Key(); got != want {
			t.Errorf("entry %d = %s, want %s", i, got, want)
		}
	}

	if got := analysis.Entries[0].Repo.String(); got != "apache/commons-lang" {
		t.Errorf("commons-lang3 resolved to %s", got)
	}
	if !analysis.Entries[1].Unmapped {
		t.Errorf("proprietary-lib should be unmapped: %+v", analysis.Entries[1])
	}
	if got := analysis.Entries[2].Repo.String(); got != "qos-ch/slf4j" {
		t.Errorf("slf4j-api resolved to %s", got)
	}
}

func TestAnalyzeDependenciesUnknownDialect(t *testing.T) {
	e := newTestEngine(demoHost())

	_, err := e.AnalyzeDependencies(context.Background(), demoPom, deps.Dialect("sbt"))
	if !errors.Is(err, errors.ErrCodeInvalidDialect) {
		t.Errorf("want INVALID_DIALECT, got %v", err)
	}
}

func TestAnalyzeRepository(t *testing.T) {
	e := newTestEngine(demoHost())

	analysis, err := e.AnalyzeRepository(context.Background(), source.Repo{Owner: "acme", Name: "demo"})
	if err != nil {
		t.Fatalf("AnalyzeRepository: %v", err)
	}
	if analysis.Dialect != deps.DialectMaven {
		t.Errorf("dialect = %s", analysis.Dialect)
	}
	if len(analysis.Entries) != 3 {
		t.Errorf("got %d entries", len(analysis.Entries))
	}
}

func TestAnalyzeRepositoryNoManifest(t *testing.T) {
	host := &fakeHost{files: map[string]map[string]string{
		"acme/empty": {"README.md": "# empty"},
	}}
	e := newTestEngine(host)

	_, err := e.AnalyzeRepository(context.Background(), source.Repo{Owner: "acme", Name: "empty"})
	if !errors.Is(err, errors.ErrCodeManifestNotFound) {
		t.Errorf("want MANIFEST_NOT_FOUND, got %v", err)
	}
}

func TestTraceSymbolFindsDeclaration(t *testing.T) {
	e := newTestEngine(demoHost())

	ref, err := deps.ParseSymbol("StringUtils.isBlank")
	if err != nil {
		t.Fatal(err)
	}
	locs, err := e.TraceSymbol(context.Background(), source.Repo{Owner: "apache", Name: "commons-lang"}, ref)
	if err != nil {
		t.Fatalf("TraceSymbol: %v", err)
	}
	if len(locs) == 0 {
		t.Fatal("want at least one location")
	}
	if !strings.HasSuffix(locs[0].Path, "StringUtils.java") {
		t.Errorf("top path = %s, want *StringUtils.java", locs[0].Path)
	}
}

func TestTraceSymbolNoMatchesIsEmpty(t *testing.T) {
	e := newTestEngine(demoHost())

	ref, err := deps.ParseSymbol("Nonexistent.thing")
	if err != nil {
		t.Fatal(err)
	}
	locs, err := e.TraceSymbol(context.Background(), source.Repo{Owner: "apache", Name: "commons-lang"}, ref)
	if err != nil {
		t.Fatalf("empty trace should not error: %v", err)
	}
	if len(locs) != 0 {
		t.Errorf("got %+v", locs)
	}
}

func TestTraceSymbolRejectsEmptyRef(t *testing.T) {
	e := newTestEngine(demoHost())

	_, err := e.TraceSymbol(context.Background(), source.Repo{Owner: "a", Name: "b"}, deps.SymbolRef{})
	if !errors.Is(err, errors.ErrCodeInvalidSymbol) {
		t.Errorf("want INVALID_SYMBOL, got %v", err)
	}
}

func TestBuildDependencyChainEndToEnd(t *testing.T) {
	e := newTestEngine(demoHost())

	ref, err := deps.ParseSymbol("StringUtils.isBlank")
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.BuildDependencyChain(context.Background(), source.Repo{Owner: "acme", Name: "demo"}, ref, 2)
	if err != nil {
		t.Fatalf("BuildDependencyChain: %v", err)
	}
	if res.Truncated {
		t.Error("unexpected truncation")
	}
	if len(res.Root.Children) != 3 {
		t.Fatalf("got %d children, want 3", len(res.Root.Children))
	}
	lang3 := res.Root.Children[0]
	if lang3.Repo.String() != "apache/commons-lang" {
		t.Errorf("child 0 = %+v", lang3)
	}
	if lang3.Location == nil || !strings.HasSuffix(lang3.Location.Path, "StringUtils.java") {
		t.Errorf("child 0 should locate the symbol: %+v", lang3.Location)
	}
	if !res.Root.Children[1].Unmapped {
		t.Errorf("child 1 should be unmapped: %+v", res.Root.Children[1])
	}
}

func TestResolutionIdempotentWithinTTL(t *testing.T) {
	e := newTestEngine(demoHost())
	coord := deps.Coordinate{Group: "org.apache.commons", Artifact: "commons-lang3", Version: "3.12.0"}

	first, err := e.AnalyzeDependencies(context.Background(), demoPom, deps.DialectMaven)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.AnalyzeDependencies(context.Background(), demoPom, deps.DialectMaven)
	if err != nil {
		t.Fatal(err)
	}
	if first.Entries[0] != second.Entries[0] {
		t.Errorf("resolution not idempotent: %+v vs %+v", first.Entries[0], second.Entries[0])
	}

	if err := e.InvalidateCoordinate(context.Background(), coord); err != nil {
		t.Fatal(err)
	}
}
