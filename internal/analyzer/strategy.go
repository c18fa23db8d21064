package analyzer

import (
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Declaration is one component-like declaration found in a file's text.
type Declaration struct {
	Name   string
	Offset int
}

// ClassificationStrategy decides which files are candidates and what
// navigable units their text declares. The default implementation scans with
// regular expressions; a real parser can replace it without touching the
// rest of the pipeline.
type ClassificationStrategy interface {
	// Candidate reports whether the file at path is eligible for scanning.
	Candidate(path string) bool
	// Declarations returns the component-like declarations in text, in
	// order of appearance.
	Declarations(text string) []Declaration
	// Classify assigns a node kind to one declaration.
	Classify(path, name, text string) NodeKind
}

// candidateExts are the recognized script extensions.
var candidateExts = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
}

// excludePatterns remove test, spec, story, and build-config files from the
// candidate set.
var excludePatterns = []string{
	"**/*.test.*",
	"**/*.spec.*",
	"**/*.stories.*",
	"**/*.config.*",
	"**/*.d.ts",
	"**/*.min.js",
	"**/__tests__/**",
	"**/__mocks__/**",
}

// pagesLikeSegments mark a path as page territory for classification and
// route derivation.
var pagesLikeSegments = map[string]bool{
	"pages":   true,
	"routes":  true,
	"app":     true,
	"screens": true,
	"views":   true,
}

var (
	// Exported function components: export [default] [async] function Name(...) { ... return ( <
	funcDeclRe = regexp.MustCompile(`(?s)export\s+(?:default\s+)?(?:async\s+)?function\s+([A-Z][A-Za-z0-9_]*)\s*\([^)]*\)[^{]*\{.*?return\s*\(\s*<`)

	// Exported arrow components: export [default] const Name = (...) => with a
	// block body returning markup or an implicit parenthesized markup body.
	arrowDeclRe = regexp.MustCompile(`(?s)export\s+(?:default\s+)?const\s+([A-Z][A-Za-z0-9_]*)\s*(?::[^=]+?)?=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z0-9_]+)\s*=>\s*(?:\{.*?return\s*\(\s*<|\(\s*<)`)

	// Top-level exports sit at line starts; matching there keeps export
	// words inside string literals or JSX text from splitting a segment.
	exportMarkerRe = regexp.MustCompile(`(?m)^export\b`)

	routerHookRe = regexp.MustCompile(`use(Navigate|Router|History|Location)\s*\(`)
	pageTitleRe  = regexp.MustCompile(`document\.title|<title|useTitle|useDocumentTitle`)
)

// RegexStrategy is the default ClassificationStrategy: structural regular
// expressions over raw text, best effort, no parsing.
type RegexStrategy struct{}

func (RegexStrategy) Candidate(filePath string) bool {
	if !candidateExts[strings.ToLower(path.Ext(filePath))] {
		return false
	}
	normalized := strings.TrimPrefix(filePath, "/")
	for _, pattern := range excludePatterns {
		if ok, err := doublestar.Match(pattern, normalized); err == nil && ok {
			return false
		}
	}
	return true
}

// Declarations segments the text at export keywords and matches each segment
// against the two structural forms. Segmenting keeps the non-greedy body
// match from running past a markup-less export into the next declaration's
// return statement.
func (RegexStrategy) Declarations(text string) []Declaration {
	marks := exportMarkerRe.FindAllStringIndex(text, -1)
	decls := make([]Declaration, 0, len(marks))
	for i, mark := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		chunk := text[mark[0]:end]
		for _, re := range []*regexp.Regexp{funcDeclRe, arrowDeclRe} {
			m := re.FindStringSubmatchIndex(chunk)
			if m == nil || m[0] != 0 {
				continue
			}
			decls = append(decls, Declaration{
				Name:   chunk[m[2]:m[3]],
				Offset: mark[0],
			})
			break
		}
	}
	return decls
}

// Classify applies the kind rules with the fixed tie-break: layout beats
// modal beats redirect beats page beats component.
func (RegexStrategy) Classify(filePath, name, text string) NodeKind {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "layout"), strings.Contains(lower, "wrapper"):
		return KindLayout
	case strings.Contains(lower, "modal"), strings.Contains(lower, "dialog"):
		return KindModal
	case strings.Contains(lower, "redirect"):
		return KindRedirect
	}

	if hasPagesSegment(filePath) ||
		strings.Contains(lower, "page") ||
		strings.Contains(lower, "screen") ||
		strings.Contains(lower, "view") ||
		(routerHookRe.MatchString(text) && pageTitleRe.MatchString(text)) {
		return KindPage
	}
	return KindComponent
}

// hasPagesSegment reports whether any directory segment of the path is a
// pages-like root.
func hasPagesSegment(filePath string) bool {
	segs := strings.Split(strings.Trim(filePath, "/"), "/")
	if len(segs) < 2 {
		return false
	}
	for _, s := range segs[:len(segs)-1] {
		if pagesLikeSegments[strings.ToLower(s)] {
			return true
		}
	}
	return false
}
