package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depchase/depchase/pkg/cache"
	"github.com/depchase/depchase/pkg/engine"
	"github.com/depchase/depchase/pkg/source"
)

type fakeHost struct {
	files map[string]map[string]string // repo -> path -> content
}

func (f *fakeHost) SearchCode(_ context.Context, repo source.Repo, query, _ string) ([]source.SearchHit, error) {
	var hits []source.SearchHit
	for path, content := range f.files[repo.String()] {
		for _, term := range strings.Fields(query) {
			if strings.Contains(content, term) {
				hits = append(hits, source.SearchHit{Path: path})
				break
			}
		}
	}
	return hits, nil
}

func (f *fakeHost) FileContent(_ context.Context, repo source.Repo, path string, window *source.LineRange) (string, error) {
	content := f.files[repo.String()][path]
	if window == nil {
		return content, nil
	}
	lines := strings.Split(content, "\n")
	start, end := window.Start, window.End
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start-1:end], "\n"), nil
}

func (f *fakeHost) RepositoryExists(_ context.Context, ownerName string) (bool, error) {
	_, ok := f.files[ownerName]
	return ok, nil
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
	return &source.Info{FullName: repo.String(), Language: "Java"}, nil
}

const demoPom = `<project>
  <dependencies>
    <dependency>
      <groupId>org.apache.commons</groupId>
      <artifactId>commons-lang3</artifactId>
      <version>3.12.0</version>
    </dependency>
  </dependencies>
</project>`

func newTestServer() *Server {
	host := &fakeHost{files: map[string]map[string]string{
		"acme/demo": {"pom.xml": demoPom},
		"apache/commons-lang": {
			"StringUtils.java": "public class StringUtils {\n    public static boolean isBlank(CharSequence cs) {\n        return cs == null;\n    }\n}\n",
		},
	}}
	eng := engine.New(engine.Options{Host: host, Cache: cache.NewMemoryCache()})
	return New(eng, host)
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestHandleAnalyzeDependenciesManifest(t *testing.T) {
	s := newTestServer()

	res, err := s.handleAnalyzeDependencies(context.Background(), callRequest("analyze_dependencies", map[string]interface{}{
		"manifest": demoPom,
		"dialect":  "maven",
	}))
	require.NoError(t, err)

	var analysis struct {
		Entries []struct {
			Repo struct {
				Owner string `json:"owner"`
				Name  string `json:"name"`
			} `json:"repo"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &analysis))
	require.Len(t, analysis.Entries, 1)
	assert.Equal(t, "apache", analysis.Entries[0].Repo.Owner)
	assert.Equal(t, "commons-lang", analysis.Entries[0].Repo.Name)
}

func TestHandleAnalyzeDependenciesByRepository(t *testing.T) {
	s := newTestServer()

	res, err := s.handleAnalyzeDependencies(context.Background(), callRequest("analyze_dependencies", map[string]interface{}{
		"repository": "acme/demo",
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "commons-lang3")
}

func TestHandleAnalyzeDependenciesMissingInput(t *testing.T) {
	s := newTestServer()

	_, err := s.handleAnalyzeDependencies(context.Background(), callRequest("analyze_dependencies", map[string]interface{}{}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, errorCodeInvalidParams, mcpErr.Code)
}

func TestHandleTraceSymbol(t *testing.T) {
	s := newTestServer()

	res, err := s.handleTraceSymbol(context.Background(), callRequest("trace_symbol", map[string]interface{}{
		"repository": "apache/commons-lang",
		"symbol":     "StringUtils.isBlank",
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "StringUtils.java")
}

func TestHandleTraceSymbolBadRepository(t *testing.T) {
	s := newTestServer()

	_, err := s.handleTraceSymbol(context.Background(), callRequest("trace_symbol", map[string]interface{}{
		"repository": "not-a-repo",
		"symbol":     "X.y",
	}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, errorCodeInvalidParams, mcpErr.Code)
}

func TestHandleBuildDependencyChain(t *testing.T) {
	s := newTestServer()

	res, err := s.handleBuildDependencyChain(context.Background(), callRequest("build_dependency_chain", map[string]interface{}{
		"repository": "acme/demo",
		"symbol":     "StringUtils.isBlank",
		"max_depth":  float64(2),
	}))
	require.NoError(t, err)

	text := resultText(t, res)
	assert.Contains(t, text, "apache")
	assert.Contains(t, text, "commons-lang")
}

func TestHandleBuildDependencyChainDepthBounds(t *testing.T) {
	s := newTestServer()

	_, err := s.handleBuildDependencyChain(context.Background(), callRequest("build_dependency_chain", map[string]interface{}{
		"repository": "acme/demo",
		"symbol":     "X.y",
		"max_depth":  float64(99),
	}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, errorCodeInvalidParams, mcpErr.Code)
}

func TestHandleGetFileContentWindow(t *testing.T) {
	s := newTestServer()

	res, err := s.handleGetFileContent(context.Background(), callRequest("get_file_content", map[string]interface{}{
		"repository": "apache/commons-lang",
		"path":       "StringUtils.java",
		"start_line": float64(2),
		"end_line":   float64(2),
	}))
	require.NoError(t, err)
	assert.Equal(t, "    public static boolean isBlank(CharSequence cs) {", resultText(t, res))
}

func TestHandleSearchCode(t *testing.T) {
	s := newTestServer()

	res, err := s.handleSearchCode(context.Background(), callRequest("search_code", map[string]interface{}{
		"repository": "apache/commons-lang",
		"query":      "isBlank",
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "StringUtils.java")
}

func TestHandleGetRepositoryInfo(t *testing.T) {
	s := newTestServer()

	res, err := s.handleGetRepositoryInfo(context.Background(), callRequest("get_repository_info", map[string]interface{}{
		"repository": "apache/commons-lang",
	}))
	require.NoError(t, err)

	var info source.Info
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &info))
	assert.Equal(t, "apache/commons-lang", info.FullName)
	assert.Equal(t, "Java", info.Language)
}

func TestHandleGetRepositoryInfoBadRepository(t *testing.T) {
	s := newTestServer()

	_, err := s.handleGetRepositoryInfo(context.Background(), callRequest("get_repository_info", map[string]interface{}{
		"repository": "not-a-repo",
	}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, errorCodeInvalidParams, mcpErr.Code)
}

func TestMCPErrorMessage(t *testing.T) {
	err := &MCPError{Code: -32602, Message: "invalid params"}
	assert.Equal(t, "MCP error -32602: invalid params", err.Error())
}
