package analyzer

import (
	"regexp"
	"sort"
	"strings"
)

// RawNavRef is a navigation reference lifted from file text before route
// resolution. Target holds the literal route string from the source.
type RawNavRef struct {
	Target    string
	Kind      ConnectionKind
	Trigger   string
	Condition string
}

const programmaticTrigger = "programmatic navigation"

var (
	linkTagRe  = regexp.MustCompile(`(?s)<(?:Link|NavLink)\b[^>]*\b(?:to|href)=["']([^"']+)["'][^>]*>(.*?)</(?:Link|NavLink)>`)
	progCallRe = regexp.MustCompile("(?:navigate|router\\.push|history\\.push)\\(\\s*[\"'`]([^\"'`]+)")
	redirectRe = regexp.MustCompile("(?:<Redirect\\b[^>]*\\bto=[\"']([^\"']+)[\"']|\\bredirect\\(\\s*[\"'`]([^\"'`]+))")
	condNavRe  = regexp.MustCompile("(?s)if\\s*\\(([^)]+)\\)\\s*\\{?[^{}]*?(?:navigate|router\\.push|history\\.push|redirect)\\(\\s*[\"'`]([^\"'`]+)")

	innerTagRe = regexp.MustCompile(`<[^>]*>`)
	wsRunRe    = regexp.MustCompile(`\s+`)
)

// ExtractNavRefs pulls every navigation reference out of file text, in
// source order. Conditional matches claim the call they wrap so the plain
// programmatic and redirect scans do not report it a second time.
func ExtractNavRefs(text string) []RawNavRef {
	type located struct {
		ref RawNavRef
		at  int
	}
	var found []located

	claimed := make(map[int]bool)
	for _, m := range condNavRe.FindAllStringSubmatchIndex(text, -1) {
		claimed[m[4]] = true
		found = append(found, located{
			ref: RawNavRef{
				Target:    text[m[4]:m[5]],
				Kind:      ConnConditional,
				Trigger:   programmaticTrigger,
				Condition: strings.TrimSpace(text[m[2]:m[3]]),
			},
			at: m[4],
		})
	}

	for _, m := range linkTagRe.FindAllStringSubmatchIndex(text, -1) {
		found = append(found, located{
			ref: RawNavRef{
				Target:  text[m[2]:m[3]],
				Kind:    ConnNavigation,
				Trigger: linkTrigger(text[m[4]:m[5]]),
			},
			at: m[2],
		})
	}

	for _, m := range progCallRe.FindAllStringSubmatchIndex(text, -1) {
		if claimed[m[2]] {
			continue
		}
		found = append(found, located{
			ref: RawNavRef{
				Target:  text[m[2]:m[3]],
				Kind:    ConnNavigation,
				Trigger: programmaticTrigger,
			},
			at: m[2],
		})
	}

	for _, m := range redirectRe.FindAllStringSubmatchIndex(text, -1) {
		at, target := m[2], ""
		if m[2] >= 0 {
			target = text[m[2]:m[3]]
		} else {
			at, target = m[4], text[m[4]:m[5]]
		}
		if claimed[at] {
			continue
		}
		found = append(found, located{
			ref: RawNavRef{
				Target:  target,
				Kind:    ConnRedirect,
				Trigger: programmaticTrigger,
			},
			at: at,
		})
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].at < found[j].at })

	refs := make([]RawNavRef, 0, len(found))
	for _, f := range found {
		refs = append(refs, f.ref)
	}
	return refs
}

// linkTrigger turns link body markup into a trigger description, falling
// back when the body has no readable text.
func linkTrigger(body string) string {
	text := innerTagRe.ReplaceAllString(body, " ")
	text = wsRunRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, "{}") {
		return "navigation link"
	}
	return text + " click"
}
