// Package diagrams renders analysis results as mermaid diagram text.
package diagrams

import (
	"fmt"
	"strings"

	"github.com/repoflow/repoflow/internal/analyzer"
)

// Flowchart generates a mermaid graph TD diagram of the navigation graph.
// Node shapes follow the node kind, edge styles follow the connection kind.
func Flowchart(res *analyzer.AnalysisResult) string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	for _, n := range res.Nodes {
		b.WriteString(nodeLine(n))
	}
	for _, n := range res.Nodes {
		fromID := sanitizeID(n.ID)
		for _, c := range n.Connections {
			b.WriteString(edgeLine(fromID, c))
		}
	}

	return b.String()
}

func nodeLine(n analyzer.FlowNode) string {
	id := sanitizeID(n.ID)
	label := escapeMermaid(n.DisplayName)
	if n.RoutePath != "" {
		label += "<br/>" + escapeMermaid(n.RoutePath)
	}

	switch n.Kind {
	case analyzer.KindModal:
		return fmt.Sprintf("    %s{{\"%s\"}}\n", id, label)
	case analyzer.KindLayout:
		return fmt.Sprintf("    %s[/\"%s\"/]\n", id, label)
	case analyzer.KindRedirect:
		return fmt.Sprintf("    %s>\"%s\"]\n", id, label)
	case analyzer.KindComponent:
		return fmt.Sprintf("    %s(\"%s\")\n", id, label)
	default:
		return fmt.Sprintf("    %s[\"%s\"]\n", id, label)
	}
}

func edgeLine(fromID string, c analyzer.Connection) string {
	toID := sanitizeID(c.TargetNodeID)

	arrow := "-->"
	label := c.TriggerDescription
	switch c.Kind {
	case analyzer.ConnConditional:
		arrow = "-.->"
		if c.Condition != "" {
			label = c.Condition
		}
	case analyzer.ConnRedirect:
		arrow = "==>"
	}

	if label != "" {
		return fmt.Sprintf("    %s %s|%s| %s\n", fromID, arrow, escapeMermaid(label), toID)
	}
	return fmt.Sprintf("    %s %s %s\n", fromID, arrow, toID)
}

// JourneyMap generates mermaid user-journey diagrams, one per synthesized
// journey. Step scores reflect page complexity: simple pages are pleasant,
// complex ones are not.
func JourneyMap(res *analyzer.AnalysisResult) string {
	var b strings.Builder

	for i, j := range res.Journeys {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("journey\n")
		b.WriteString("    title " + journeyText(j.Name) + "\n")
		b.WriteString("    section " + sectionName(j.UserType) + "\n")
		for _, step := range j.Steps {
			b.WriteString(fmt.Sprintf("        %s: %d: %s\n",
				journeyText(step.DisplayName), stepScore(step), actorName(j.UserType)))
		}
	}

	return b.String()
}

func sectionName(ut analyzer.UserType) string {
	switch ut {
	case analyzer.UserAuthenticated:
		return "Signed in"
	case analyzer.UserAdmin:
		return "Admin"
	default:
		return "Guest"
	}
}

func actorName(ut analyzer.UserType) string {
	switch ut {
	case analyzer.UserAuthenticated:
		return "User"
	case analyzer.UserAdmin:
		return "Admin"
	default:
		return "Guest"
	}
}

func stepScore(n analyzer.FlowNode) int {
	switch n.Metadata.Complexity {
	case analyzer.ComplexityHigh:
		return 1
	case analyzer.ComplexityMedium:
		return 3
	default:
		return 5
	}
}

// journeyText strips characters the journey syntax treats as separators.
func journeyText(s string) string {
	s = strings.ReplaceAll(s, ":", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// sanitizeID converts a string into a safe mermaid node ID.
func sanitizeID(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		".", "_",
		"-", "_",
		" ", "_",
		"(", "_",
		")", "_",
		"[", "_",
		"]", "_",
		"{", "_",
		"}", "_",
		":", "_",
	)
	return replacer.Replace(s)
}

// escapeMermaid escapes characters that have special meaning in mermaid labels.
func escapeMermaid(s string) string {
	s = strings.ReplaceAll(s, "\"", "#quot;")
	s = strings.ReplaceAll(s, "(", "#lpar;")
	s = strings.ReplaceAll(s, ")", "#rpar;")
	s = strings.ReplaceAll(s, "[", "#lsqb;")
	s = strings.ReplaceAll(s, "]", "#rsqb;")
	s = strings.ReplaceAll(s, "{", "#lbrace;")
	s = strings.ReplaceAll(s, "}", "#rbrace;")
	s = strings.ReplaceAll(s, "<", "#lt;")
	s = strings.ReplaceAll(s, ">", "#gt;")
	return s
}
