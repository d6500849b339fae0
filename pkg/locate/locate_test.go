package locate

import (
	"context"
	"testing"
	"time"

	"github.com/depchase/depchase/pkg/cache"
	"github.com/depchase/depchase/pkg/deps"
	"github.com/depchase/depchase/pkg/source"
)

type fakeHost struct {
	source.Host
	info    *source.Info
	hits    []source.SearchHit
	files   map[string]string
	queries []string
	fetches int
}

func (f *fakeHost) RepoInfo(context.Context, source.Repo) (*source.Info, error) {
	if f.info != nil {
		return f.info, nil
	}
	return &source.Info{Language: "Java"}, nil
}

func (f *fakeHost) SearchCode(_ context.Context, _ source.Repo, query, _ string) ([]source.SearchHit, error) {
	f.queries = append(f.queries, query)
	return f.hits, nil
}

func (f *fakeHost) FileContent(_ context.Context, _ source.Repo, path string, _ *source.LineRange) (string, error) {
	f.fetches++
	return f.files[path], nil
}

const stringUtilsJava = `package org.apache.commons.lang3;

/**
 * Operations on strings. See also isBlank for null-safe checks.
 */
public class StringUtils {

    public static boolean isBlank(final CharSequence cs) {
        return cs == null || cs.isEmpty();
    }
}
`

const callerJava = `package org.example;

class Caller {
    void run() {
        boolean b = StringUtils.isBlank(input);
    }
}
`

func testRepo() source.Repo { return source.Repo{Owner: "apache", Name: "commons-lang"} }

func mustRef(t *testing.T, s string) deps.SymbolRef {
	t.Helper()
	ref, err := deps.ParseSymbol(s)
	if err != nil {
		t.Fatal(err)
	}
	return ref
}

func TestLocateRanksDeclarationFirst(t *testing.T) {
	callerPath := "src/main/java/org/example/Caller.java"
	utilsPath := "src/main/java/org/apache/commons/lang3/StringUtils.java"
	host := &fakeHost{
		hits: []source.SearchHit{{Path: callerPath}, {Path: utilsPath}},
		files: map[string]string{
			callerPath: callerJava,
			utilsPath:  stringUtilsJava,
		},
	}
	l := New(host, nil, 0)

	locs, err := l.Locate(context.Background(), testRepo(), mustRef(t, "StringUtils.isBlank"), Options{})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("got %d locations, want 2: %+v", len(locs), locs)
	}

	top := locs[0]
	if top.Path != utilsPath {
		t.Errorf("top path = %s", top.Path)
	}
	if top.Line != 8 {
		t.Errorf("top line = %d, want 8 (the declaration, not the comment mention)", top.Line)
	}
	if top.Confidence != scoreSignature+bonusFileName {
		t.Errorf("top confidence = %d, want %d", top.Confidence, scoreSignature+bonusFileName)
	}
	if locs[1].Confidence >= top.Confidence {
		t.Errorf("call site should rank below declaration: %+v", locs)
	}
	if top.Snippet == "" {
		t.Error("top location should carry a snippet")
	}

	if len(host.queries) != 1 || host.queries[0] != "StringUtils isBlank" {
		t.Errorf("query = %v", host.queries)
	}
}

func TestLocateClassSymbol(t *testing.T) {
	host := &fakeHost{
		hits: []source.SearchHit{{Path: "lang3/StringUtils.java"}},
		files: map[string]string{
			"lang3/StringUtils.java": stringUtilsJava,
		},
	}
	l := New(host, nil, 0)

	locs, err := l.Locate(context.Background(), testRepo(), mustRef(t, "StringUtils"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 1 {
		t.Fatalf("got %+v", locs)
	}
	if locs[0].Line != 6 {
		t.Errorf("class declaration line = %d, want 6", locs[0].Line)
	}
	if locs[0].Confidence != scoreSignature {
		t.Errorf("confidence = %d, want %d", locs[0].Confidence, scoreSignature)
	}
}

func TestLocateEmptyIsNotAnError(t *testing.T) {
	host := &fakeHost{}
	l := New(host, nil, 0)

	locs, err := l.Locate(context.Background(), testRepo(), mustRef(t, "Nothing.everywhere"), Options{})
	if err != nil {
		t.Fatalf("empty result should not be an error: %v", err)
	}
	if len(locs) != 0 {
		t.Errorf("got %+v", locs)
	}
}

func TestLocateTopN(t *testing.T) {
	files := map[string]string{}
	var hits []source.SearchHit
	for _, p := range []string{"a/A.java", "b/B.java", "c/C.java"} {
		files[p] = "    helper(x);\n"
		hits = append(hits, source.SearchHit{Path: p})
	}
	host := &fakeHost{hits: hits, files: files}
	l := New(host, nil, 0)

	locs, err := l.Locate(context.Background(), testRepo(), mustRef(t, "helper"), Options{TopN: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(locs) != 2 {
		t.Errorf("TopN not applied: %+v", locs)
	}
}

func TestLocateDeterministicTieBreak(t *testing.T) {
	files := map[string]string{
		"deep/nested/Util.java": "    helper(x);\n",
		"Util.java":             "    helper(x);\n",
	}
	host := &fakeHost{
		hits: []source.SearchHit{
			{Path: "deep/nested/Util.java"},
			{Path: "Util.java"},
		},
		files: files,
	}
	l := New(host, nil, 0)

	locs, err := l.Locate(context.Background(), testRepo(), mustRef(t, "helper"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if locs[0].Path != "Util.java" {
		t.Errorf("shorter path should win ties: %+v", locs)
	}
}

func TestLocateCaching(t *testing.T) {
	host := &fakeHost{
		hits:  []source.SearchHit{{Path: "lang3/StringUtils.java"}},
		files: map[string]string{"lang3/StringUtils.java": stringUtilsJava},
	}
	l := New(host, cache.NewMemoryCache(), time.Minute)
	repo := testRepo()
	ref := mustRef(t, "StringUtils.isBlank")

	for i := 0; i < 3; i++ {
		if _, err := l.Locate(context.Background(), repo, ref, Options{}); err != nil {
			t.Fatal(err)
		}
	}
	if host.fetches != 1 {
		t.Errorf("file fetched %d times, want 1 (cached)", host.fetches)
	}

	if err := l.Invalidate(context.Background(), repo, ref); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Locate(context.Background(), repo, ref, Options{}); err != nil {
		t.Fatal(err)
	}
	if host.fetches != 2 {
		t.Errorf("fetches after invalidate = %d, want 2", host.fetches)
	}
}

func TestScoreLine(t *testing.T) {
	method := mustRef(t, "Utils.isBlank")
	tests := []struct {
		line string
		ref  deps.SymbolRef
		want int
	}{
		{"public static boolean isBlank(final CharSequence cs) {", method, scoreSignature},
		{"def isBlank(s):", method, scoreSignature},
		{"boolean isBlank(CharSequence cs);", method, scoreDeclaration},
		{"return isBlank(cs) || isEmpty(cs);", method, scoreMention},
		{"// see isBlank for details", method, scoreMention},
		{"return isBlankish(cs);", method, 0},
		{"", method, 0},
		{"public final class StringUtils {", mustRef(t, "StringUtils"), scoreSignature},
	}
	for _, tt := range tests {
		if got := scoreLine(tt.line, tt.ref); got != tt.want {
			t.Errorf("scoreLine(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}
