package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/repoflow/repoflow/internal/analyses"
	"github.com/repoflow/repoflow/internal/analyzer"
	"github.com/repoflow/repoflow/internal/diagrams"
)

const pollInterval = 200 * time.Millisecond

func (s *Server) handleAnalyzeRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoURL, err := request.RequireString("repository_url")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: repository_url"), nil
	}

	a, err := s.svc.Submit(ctx, repoURL)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("submitting analysis: %v", err)), nil
	}

	rec, err := s.waitForTerminal(ctx, a.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if rec.Status == analyses.StatusFailed {
		return mcp.NewToolResultError("analysis failed: " + rec.Error), nil
	}
	return jsonResult(rec)
}

func (s *Server) handleListAnalyses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Store().List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing analyses: %v", err)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No analyses recorded yet. Run analyze_repository first."), nil
	}
	return jsonResult(list)
}

func (s *Server) handleGetAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("analysis_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: analysis_id"), nil
	}

	res, errResult := s.loadResult(ctx, id)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(res)
}

func (s *Server) handleFlowDiagram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("analysis_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: analysis_id"), nil
	}

	res, errResult := s.loadResult(ctx, id)
	if errResult != nil {
		return errResult, nil
	}
	return mcp.NewToolResultText(diagrams.Flowchart(res)), nil
}

// waitForTerminal polls the store until the analysis reaches a terminal
// status or the request context ends.
func (s *Server) waitForTerminal(ctx context.Context, id string) (*analyses.Analysis, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		rec, err := s.svc.Store().Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("getting analysis %s: %w", id, err)
		}
		if rec == nil {
			return nil, fmt.Errorf("analysis %s disappeared while running", id)
		}
		if rec.Terminal() {
			return rec, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for analysis %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

// loadResult fetches the stored flow graph for a completed analysis,
// translating the not-found and not-finished cases into tool errors.
func (s *Server) loadResult(ctx context.Context, id string) (*analyzer.AnalysisResult, *mcp.CallToolResult) {
	rec, err := s.svc.Store().Get(ctx, id)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("getting analysis: %v", err))
	}
	if rec == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("analysis %q not found", id))
	}
	if rec.Status == analyses.StatusFailed {
		return nil, mcp.NewToolResultError("analysis failed: " + rec.Error)
	}
	if rec.Status != analyses.StatusCompleted {
		return nil, mcp.NewToolResultError("analysis is still " + rec.Status)
	}

	res, err := s.svc.Store().Result(ctx, id)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("loading result: %v", err))
	}
	if res == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("analysis %q has no stored result", id))
	}
	return res, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
