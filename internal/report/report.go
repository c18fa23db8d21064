// Package report renders analysis results as markdown and HTML documents.
package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/repoflow/repoflow/internal/analyzer"
	"github.com/repoflow/repoflow/internal/diagrams"
)

// Markdown builds the full user-flow report for an analysis. The intro is
// an optional lead paragraph, typically pulled from the repository README.
func Markdown(res *analyzer.AnalysisResult, intro string) string {
	var b strings.Builder

	name := res.RepoName
	if name == "" {
		name = "Repository"
	}
	b.WriteString(fmt.Sprintf("# %s User Flow Report\n\n", name))

	b.WriteString(fmt.Sprintf("Analyzed %s on %s. %d of %d candidate files produced %d flow nodes.\n\n",
		res.RepoURL, res.Timestamp.Format("2006-01-02 15:04 MST"),
		res.AnalyzedFiles, res.TotalFiles, len(res.Nodes)))

	if intro != "" {
		b.WriteString(intro)
		b.WriteString("\n\n")
	}

	if note := fallbackNote(res); note != "" {
		b.WriteString(note)
		b.WriteString("\n\n")
	}

	if len(res.Nodes) > 0 {
		b.WriteString("## Flow Diagram\n\n")
		b.WriteString("```mermaid\n")
		b.WriteString(diagrams.Flowchart(res))
		b.WriteString("```\n\n")

		b.WriteString("## Pages and Components\n\n")
		b.WriteString("| Node | Route | Kind | Complexity | Protected |\n")
		b.WriteString("|------|-------|------|------------|-----------|\n")
		for _, n := range res.Nodes {
			protected := ""
			if n.Metadata.IsProtected {
				protected = "yes"
			}
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				n.DisplayName, n.RoutePath, n.Kind, complexityCell(n), protected))
		}
		b.WriteString("\n")
	}

	if len(res.Routes) > 0 {
		b.WriteString("## Routes\n\n")
		b.WriteString("| Path | Component | Guards | Params |\n")
		b.WriteString("|------|-----------|--------|--------|\n")
		for _, r := range res.Routes {
			b.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s |\n",
				r.Path, r.ComponentName, strings.Join(r.Guards, ", "), strings.Join(r.Params, ", ")))
		}
		b.WriteString("\n")
	}

	if len(res.Journeys) > 0 {
		b.WriteString("## User Journeys\n\n")
		for _, j := range res.Journeys {
			b.WriteString(fmt.Sprintf("### %s\n\n", j.Name))
			if j.Description != "" {
				b.WriteString(j.Description + "\n\n")
			}
			for i, step := range j.Steps {
				if step.RoutePath != "" {
					b.WriteString(fmt.Sprintf("%d. **%s** (`%s`)\n", i+1, step.DisplayName, step.RoutePath))
				} else {
					b.WriteString(fmt.Sprintf("%d. **%s**\n", i+1, step.DisplayName))
				}
			}
			b.WriteString("\n")
		}

		b.WriteString("```mermaid\n")
		b.WriteString(diagrams.JourneyMap(res))
		b.WriteString("```\n\n")
	}

	b.WriteString(complexitySummary(res))

	return b.String()
}

func complexityCell(n analyzer.FlowNode) string {
	if n.Metadata.Complexity == "" {
		return "-"
	}
	return string(n.Metadata.Complexity)
}

// fallbackNote surfaces the demo-data marker as a visible report notice.
func fallbackNote(res *analyzer.AnalysisResult) string {
	if !analyzer.IsFallback(res) {
		return ""
	}
	note := "> **Note:** the repository could not be fetched, so this report shows the built-in demo dataset."

	desc := res.Nodes[0].Metadata.Description
	if end := strings.Index(desc, "]"); end > len("[demo data:") {
		cause := strings.TrimSpace(desc[len("[demo data:"):end])
		note += " Cause: " + cause + "."
	}
	return note
}

func complexitySummary(res *analyzer.AnalysisResult) string {
	if len(res.Nodes) == 0 {
		return ""
	}

	counts := map[analyzer.Complexity]int{}
	var high []string
	for _, n := range res.Nodes {
		counts[n.Metadata.Complexity]++
		if n.Metadata.Complexity == analyzer.ComplexityHigh {
			high = append(high, n.DisplayName)
		}
	}

	var b strings.Builder
	b.WriteString("## Complexity\n\n")
	b.WriteString(fmt.Sprintf("%d low, %d medium, %d high.\n",
		counts[analyzer.ComplexityLow], counts[analyzer.ComplexityMedium], counts[analyzer.ComplexityHigh]))
	if len(high) > 0 {
		b.WriteString("\nWorth a refactoring look:\n\n")
		for _, name := range high {
			b.WriteString("- " + name + "\n")
		}
	}
	return b.String()
}

// ExtractIntro pulls the first prose paragraph out of a README, skipping
// headings, badges and HTML fragments.
func ExtractIntro(readme string) string {
	var para []string
	for _, line := range strings.Split(readme, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(para) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "![") ||
			strings.HasPrefix(line, "[!") || strings.HasPrefix(line, "<") ||
			strings.HasPrefix(line, ">") || strings.HasPrefix(line, "---") {
			if len(para) > 0 {
				break
			}
			continue
		}
		para = append(para, line)
	}

	intro := strings.Join(para, " ")
	if len(intro) > 500 {
		cut := 500
		for cut > 0 && !utf8.RuneStart(intro[cut]) {
			cut--
		}
		intro = intro[:cut] + "..."
	}
	return intro
}
