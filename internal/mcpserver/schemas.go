package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func analyzeDependenciesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_dependencies",
		Description: "Parse a build manifest and resolve each declared dependency to its source repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"manifest": map[string]interface{}{
					"type":        "string",
					"description": "Raw manifest text (pom.xml or build.gradle contents)",
				},
				"dialect": map[string]interface{}{
					"type":        "string",
					"description": "Manifest dialect: maven or gradle",
					"enum":        []string{"maven", "gradle"},
				},
				"repository": map[string]interface{}{
					"type":        "string",
					"description": "Alternative to manifest/dialect: owner/name of a repository whose manifest is fetched and analyzed",
				},
			},
		},
	}
}

func traceSymbolTool() mcp.Tool {
	return mcp.Tool{
		Name:        "trace_symbol",
		Description: "Find candidate implementations of a method, class, or field inside a repository, ranked by confidence",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repository": map[string]interface{}{
					"type":        "string",
					"description": "Repository identity as owner/name",
				},
				"symbol": map[string]interface{}{
					"type":        "string",
					"description": "Symbol to trace, e.g. StringUtils.isBlank or ObjectMapper",
				},
				"top_n": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of locations to return",
					"default":     5,
					"minimum":     1,
					"maximum":     20,
				},
			},
			Required: []string{"repository", "symbol"},
		},
	}
}

func buildDependencyChainTool() mcp.Tool {
	return mcp.Tool{
		Name:        "build_dependency_chain",
		Description: "Recursively expand a symbol's dependency graph across repositories, bounded by depth and cycle detection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repository": map[string]interface{}{
					"type":        "string",
					"description": "Root repository as owner/name",
				},
				"symbol": map[string]interface{}{
					"type":        "string",
					"description": "Symbol whose implementation chain is traced",
				},
				"max_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum expansion depth (0 = root only)",
					"default":     5,
					"minimum":     0,
					"maximum":     10,
				},
			},
			Required: []string{"repository", "symbol"},
		},
	}
}

func getFileContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_file_content",
		Description: "Fetch a file's text from a repository, optionally restricted to a line range",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repository": map[string]interface{}{
					"type":        "string",
					"description": "Repository identity as owner/name",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "File path within the repository",
				},
				"start_line": map[string]interface{}{
					"type":        "integer",
					"description": "First line of the window (1-based, inclusive)",
				},
				"end_line": map[string]interface{}{
					"type":        "integer",
					"description": "Last line of the window (inclusive)",
				},
			},
			Required: []string{"repository", "path"},
		},
	}
}

func getRepositoryInfoTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_repository_info",
		Description: "Fetch repository metadata: primary language, default branch, description, stars",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repository": map[string]interface{}{
					"type":        "string",
					"description": "Repository identity as owner/name",
				},
			},
			Required: []string{"repository"},
		},
	}
}

func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search file contents within a repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repository": map[string]interface{}{
					"type":        "string",
					"description": "Repository identity as owner/name",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search terms",
				},
				"extension": map[string]interface{}{
					"type":        "string",
					"description": "Restrict matches to a file extension (without dot), e.g. java",
				},
			},
			Required: []string{"repository", "query"},
		},
	}
}
