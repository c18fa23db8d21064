package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var analyzeRepositoryTool = mcp.NewTool("analyze_repository",
	mcp.WithDescription("Analyze the user-facing navigation flow of a GitHub repository. Blocks until the analysis finishes and returns the recorded run with its node, route and journey counts."),
	mcp.WithString("repository_url",
		mcp.Required(),
		mcp.Description("Repository to analyze, e.g. https://github.com/owner/name or github.com/owner/name"),
	),
)

var listAnalysesTool = mcp.NewTool("list_analyses",
	mcp.WithDescription("List all recorded analyses, newest first."),
)

var getAnalysisTool = mcp.NewTool("get_analysis",
	mcp.WithDescription("Get the full flow graph of a completed analysis as JSON: screens, routes, connections and user journeys."),
	mcp.WithString("analysis_id",
		mcp.Required(),
		mcp.Description("ID of a completed analysis, as returned by analyze_repository or list_analyses"),
	),
)

var flowDiagramTool = mcp.NewTool("flow_diagram",
	mcp.WithDescription("Render the navigation graph of a completed analysis as a Mermaid flowchart."),
	mcp.WithString("analysis_id",
		mcp.Required(),
		mcp.Description("ID of a completed analysis, as returned by analyze_repository or list_analyses"),
	),
)
