package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// HTML renders a markdown report as a standalone HTML page with mermaid
// diagrams wired up for client-side rendering.
func HTML(markdown string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}

	tmpl, err := template.New("report").Parse(pageTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing report template: %w", err)
	}

	data := struct {
		Title   string
		Content template.HTML
	}{
		Title:   extractTitle(markdown),
		Content: template.HTML(postProcessMermaid(buf.String())),
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("rendering report template: %w", err)
	}
	return out.String(), nil
}

// extractTitle returns the first H1 heading, or a generic title.
func extractTitle(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimPrefix(line, "# ")
		}
	}
	return "User Flow Report"
}

// postProcessMermaid converts <pre><code class="language-mermaid">...</code></pre>
// blocks into <div class="mermaid">...</div> for Mermaid.js rendering.
func postProcessMermaid(htmlContent string) string {
	const openTag = `<pre><code class="language-mermaid">`
	const closeTag = `</code></pre>`

	for {
		idx := strings.Index(htmlContent, openTag)
		if idx == -1 {
			break
		}
		endIdx := strings.Index(htmlContent[idx:], closeTag)
		if endIdx == -1 {
			break
		}
		endIdx += idx

		mermaidContent := htmlContent[idx+len(openTag) : endIdx]
		replacement := `<div class="mermaid">` + mermaidContent + `</div>`
		htmlContent = htmlContent[:idx] + replacement + htmlContent[endIdx+len(closeTag):]
	}

	return htmlContent
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <script src="https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"></script>
  <script>
    document.addEventListener("DOMContentLoaded", function () {
      if (typeof mermaid !== "undefined") {
        mermaid.initialize({ startOnLoad: true, theme: "neutral" });
      }
    });
  </script>
  <style>
    body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 0; color: #1f2328; }
    main { max-width: 900px; margin: 0 auto; padding: 2rem 1.5rem 4rem; }
    h1, h2, h3 { line-height: 1.25; }
    h1 { border-bottom: 1px solid #d1d9e0; padding-bottom: 0.3em; }
    table { border-collapse: collapse; width: 100%; margin: 1em 0; }
    th, td { border: 1px solid #d1d9e0; padding: 6px 13px; text-align: left; }
    th { background: #f6f8fa; }
    code { background: #f6f8fa; padding: 0.2em 0.4em; border-radius: 4px; font-size: 85%; }
    pre code { display: block; padding: 1em; overflow-x: auto; }
    blockquote { border-left: 4px solid #d1d9e0; margin: 1em 0; padding: 0 1em; color: #59636e; }
    .mermaid { margin: 1.5em 0; text-align: center; }
  </style>
</head>
<body>
<main>
{{.Content}}
</main>
</body>
</html>
`
