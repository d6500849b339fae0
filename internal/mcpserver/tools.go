package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/depchase/depchase/pkg/deps"
	"github.com/depchase/depchase/pkg/errors"
	"github.com/depchase/depchase/pkg/source"
)

// JSON-RPC error codes used by the tool handlers.
const (
	errorCodeInvalidParams = -32602
	errorCodeInternal      = -32603
)

// MCPError carries a JSON-RPC error code; the framework encodes it.
type MCPError struct {
	Code    int
	Message string
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func invalidParams(format string, args ...any) error {
	return &MCPError{Code: errorCodeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

func internalError(err error) error {
	return &MCPError{Code: errorCodeInternal, Message: errors.UserMessage(err)}
}

func (s *Server) handleAnalyzeDependencies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, invalidParams("invalid arguments")
	}

	if repoArg, _ := args["repository"].(string); repoArg != "" {
		repo, err := source.ParseRepo(repoArg)
		if err != nil {
			return nil, invalidParams("repository: %v", err)
		}
		analysis, err := s.engine.AnalyzeRepository(ctx, repo)
		if err != nil {
			return nil, internalError(err)
		}
		return mcp.NewToolResultText(formatJSON(analysis)), nil
	}

	manifest, _ := args["manifest"].(string)
	if manifest == "" {
		return nil, invalidParams("either manifest or repository is required")
	}
	dialectArg, _ := args["dialect"].(string)
	dialect, err := deps.ParseDialect(dialectArg)
	if err != nil {
		return nil, invalidParams("dialect: %v", err)
	}

	analysis, err := s.engine.AnalyzeDependencies(ctx, manifest, dialect)
	if err != nil {
		return nil, internalError(err)
	}
	return mcp.NewToolResultText(formatJSON(analysis)), nil
}

func (s *Server) handleTraceSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, invalidParams("invalid arguments")
	}

	repo, ref, err := repoAndSymbol(args)
	if err != nil {
		return nil, err
	}
	topN := getIntDefault(args, "top_n", 0)

	locs, err := s.engine.TraceSymbolN(ctx, repo, ref, topN)
	if err != nil {
		return nil, internalError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"repository": repo.String(),
		"symbol":     ref.String(),
		"locations":  locs,
	})), nil
}

func (s *Server) handleBuildDependencyChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, invalidParams("invalid arguments")
	}

	repo, ref, err := repoAndSymbol(args)
	if err != nil {
		return nil, err
	}
	maxDepth := getIntDefault(args, "max_depth", 5)
	if maxDepth < 0 || maxDepth > 10 {
		return nil, invalidParams("max_depth must be between 0 and 10")
	}

	res, err := s.engine.BuildDependencyChain(ctx, repo, ref, maxDepth)
	if err != nil {
		return nil, internalError(err)
	}
	return mcp.NewToolResultText(formatJSON(res)), nil
}

func (s *Server) handleGetFileContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, invalidParams("invalid arguments")
	}

	repoArg, _ := args["repository"].(string)
	repo, err := source.ParseRepo(repoArg)
	if err != nil {
		return nil, invalidParams("repository: %v", err)
	}
	path, _ := args["path"].(string)
	if path == "" {
		return nil, invalidParams("path is required")
	}

	var window *source.LineRange
	start := getIntDefault(args, "start_line", 0)
	end := getIntDefault(args, "end_line", 0)
	if start > 0 && end >= start {
		window = &source.LineRange{Start: start, End: end}
	}

	text, err := s.host.FileContent(ctx, repo, path, window)
	if err != nil {
		return nil, internalError(err)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, invalidParams("invalid arguments")
	}

	repoArg, _ := args["repository"].(string)
	repo, err := source.ParseRepo(repoArg)
	if err != nil {
		return nil, invalidParams("repository: %v", err)
	}
	query, _ := args["query"].(string)
	if query == "" {
		return nil, invalidParams("query is required")
	}
	ext, _ := args["extension"].(string)

	hits, err := s.host.SearchCode(ctx, repo, query, ext)
	if err != nil {
		return nil, internalError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"repository": repo.String(),
		"query":      query,
		"hits":       hits,
	})), nil
}

func (s *Server) handleGetRepositoryInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, invalidParams("invalid arguments")
	}

	repoArg, _ := args["repository"].(string)
	repo, err := source.ParseRepo(repoArg)
	if err != nil {
		return nil, invalidParams("repository: %v", err)
	}

	info, err := s.host.RepoInfo(ctx, repo)
	if err != nil {
		return nil, internalError(err)
	}
	return mcp.NewToolResultText(formatJSON(info)), nil
}

// repoAndSymbol extracts the repository/symbol pair shared by the
// trace and chain tools.
func repoAndSymbol(args map[string]interface{}) (source.Repo, deps.SymbolRef, error) {
	repoArg, _ := args["repository"].(string)
	repo, err := source.ParseRepo(repoArg)
	if err != nil {
		return source.Repo{}, deps.SymbolRef{}, invalidParams("repository: %v", err)
	}
	symbolArg, _ := args["symbol"].(string)
	ref, err := deps.ParseSymbol(symbolArg)
	if err != nil {
		return source.Repo{}, deps.SymbolRef{}, invalidParams("symbol: %v", err)
	}
	return repo, ref, nil
}

func formatJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}
