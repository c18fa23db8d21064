// Package describe enriches analysis results with LLM-written narratives.
package describe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/repoflow/repoflow/internal/analyzer"
	"github.com/repoflow/repoflow/internal/llm"
)

// maxOutlineNodes caps how many nodes the prompt lists for large graphs.
const maxOutlineNodes = 60

const systemPrompt = `You are a senior frontend engineer documenting a web application for new team members. You are given the screens and navigation paths detected in the codebase. Be concise and factual. Do not invent features that are not in the outline.`

const promptTemplate = `Describe how a user moves through this application. Return a JSON object with exactly these fields:

{
  "overview": "2-3 sentence narrative of the main navigation paths",
  "nodes": {"<screen id>": "one sentence describing that screen"}
}

Application: %s

Screens:
%s
Connections:
%s`

// Narrative holds the generated descriptions for one analysis.
type Narrative struct {
	Overview string            `json:"overview"`
	Nodes    map[string]string `json:"nodes"`
}

// Describer writes navigation narratives for finished analyses.
type Describer struct {
	provider llm.Provider
	model    string

	maxRetries int
	backoff    time.Duration
}

// New creates a Describer on the given provider.
func New(provider llm.Provider, model string) *Describer {
	return &Describer{
		provider:   provider,
		model:      model,
		maxRetries: 3,
		backoff:    2 * time.Second,
	}
}

// Describe asks the provider for a navigation narrative and fills empty node
// descriptions in place. Nodes that already carry a description keep it, so
// the demo-data marker on fallback results survives enrichment.
func (d *Describer) Describe(ctx context.Context, res *analyzer.AnalysisResult) (*Narrative, error) {
	resp, err := d.completeWithRetry(ctx, llm.CompletionRequest{
		Model: d.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: buildPrompt(res)},
		},
		MaxTokens:   1024,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", res.RepoName, err)
	}

	narrative, parseErr := parseNarrative(resp.Content)
	if parseErr != nil {
		// Some models answer in prose despite the JSON instruction. Keep the
		// text as the overview rather than failing the run.
		return &Narrative{Overview: strings.TrimSpace(resp.Content)}, nil
	}

	for i := range res.Nodes {
		if res.Nodes[i].Metadata.Description != "" {
			continue
		}
		if text, ok := narrative.Nodes[res.Nodes[i].ID]; ok {
			res.Nodes[i].Metadata.Description = strings.TrimSpace(text)
		}
	}
	return narrative, nil
}

// completeWithRetry calls the provider with exponential backoff on rate
// limit and overload errors.
func (d *Describer) completeWithRetry(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	backoff := d.backoff
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		resp, err := d.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}

		errStr := err.Error()
		retryable := strings.Contains(errStr, "rate_limit") ||
			strings.Contains(errStr, "429") ||
			strings.Contains(errStr, "too many requests") ||
			strings.Contains(errStr, "overloaded")
		if !retryable {
			return nil, err
		}
		if attempt == d.maxRetries {
			return nil, fmt.Errorf("rate limited after %d retries: %w", d.maxRetries, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
		}
	}
	return nil, fmt.Errorf("unreachable")
}

// buildPrompt renders the graph as a compact outline the model can describe.
func buildPrompt(res *analyzer.AnalysisResult) string {
	var screens strings.Builder
	for i, node := range res.Nodes {
		if i == maxOutlineNodes {
			fmt.Fprintf(&screens, "- (and %d more screens)\n", len(res.Nodes)-maxOutlineNodes)
			break
		}
		fmt.Fprintf(&screens, "- %s: %s (%s)", node.ID, node.DisplayName, node.Kind)
		if node.RoutePath != "" {
			fmt.Fprintf(&screens, " at %s", node.RoutePath)
		}
		if node.Metadata.IsProtected {
			screens.WriteString(", requires sign-in")
		}
		if len(node.Metadata.UserActions) > 0 {
			fmt.Fprintf(&screens, ", actions: %s", strings.Join(node.Metadata.UserActions, ", "))
		}
		screens.WriteString("\n")
	}

	var connections strings.Builder
	for _, node := range res.Nodes {
		for _, conn := range node.Connections {
			fmt.Fprintf(&connections, "- %s -> %s (%s)\n", node.ID, conn.TargetNodeID, conn.TriggerDescription)
		}
	}
	if connections.Len() == 0 {
		connections.WriteString("- none detected\n")
	}

	name := res.RepoName
	if name == "" {
		name = res.RepoURL
	}
	return fmt.Sprintf(promptTemplate, name, screens.String(), connections.String())
}

// parseNarrative parses the provider's JSON response, tolerating markdown
// code fences around it.
func parseNarrative(raw string) (*Narrative, error) {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		lines := strings.Split(raw, "\n")
		if len(lines) >= 2 {
			start := 1
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			raw = strings.Join(lines[start:end], "\n")
		}
	}

	var narrative Narrative
	if err := json.Unmarshal([]byte(raw), &narrative); err != nil {
		return nil, fmt.Errorf("json parse: %w", err)
	}
	return &narrative, nil
}
