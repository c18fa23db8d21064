package analyzer

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var (
	bracketSegRe   = regexp.MustCompile(`\[([^\]]+)\]`)
	nameSuffixRe   = regexp.MustCompile(`(Page|Screen|View)$`)
	camelBoundary  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	headingTitleRe = regexp.MustCompile(`<h1[^>]*>\s*([^<{][^<]*?)\s*</h1>`)
	tagTitleRe     = regexp.MustCompile(`<title[^>]*>\s*([^<]+?)\s*</title>`)
	docTitleRe     = regexp.MustCompile("document\\.title\\s*=\\s*[\"'`]([^\"'`]+)")

	authSignalRe  = regexp.MustCompile(`useAuth|useUser|useSession|AuthProvider|AuthContext|isAuthenticated|isLoggedIn|RequireAuth|PrivateRoute|ProtectedRoute|AuthGuard`)
	paramSignalRe = regexp.MustCompile(`useParams|useSearchParams|useQueryParams|router\.query`)
	loginNavRe    = regexp.MustCompile(`(?:navigate|push|redirect)\(\s*["'` + "`" + `]/?(?:login|signin)`)
	authContentRe = regexp.MustCompile(`(?i)login|signin|sign-in|logout|authenticate`)

	hookCallRe    = regexp.MustCompile(`use(State|Effect|Context|Reducer|Callback|Memo|Ref)\s*\(`)
	ternaryRe     = regexp.MustCompile(`\?[^.?:][^:\n]*:`)
	mapCallRe     = regexp.MustCompile(`\.map\(`)
	handlerAttrRe = regexp.MustCompile(`on[A-Z][A-Za-z]*={`)
	networkCallRe = regexp.MustCompile(`fetch\(|axios\.`)
)

// guardComponents are route-guard wrappers recorded on route entries.
var guardComponents = []string{"RequireAuth", "PrivateRoute", "ProtectedRoute", "AuthGuard"}

// actionChecks is the fixed ordered checklist of user-action signatures.
var actionChecks = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`onClick|onPress`), "Click buttons and links"},
	{regexp.MustCompile(`onSubmit|handleSubmit|<form`), "Submit forms"},
	{regexp.MustCompile(`onChange|<input|<textarea`), "Enter text"},
	{regexp.MustCompile(`(?i)search|filter`), "Search and filter content"},
	{regexp.MustCompile(`(?i)login|signin|sign-in|authenticate`), "Log in or authenticate"},
	{regexp.MustCompile(`(?i)add to cart|checkout|purchase|price`), "Browse and purchase products"},
	{regexp.MustCompile(`(?i)upload|dropzone|filereader`), "Upload files"},
	{regexp.MustCompile(`(?i)share|social`), "Share content"},
}

const defaultAction = "View page content"

// RoutePath derives the navigable route for a declaration. Paths under a
// pages-like directory drive the route; otherwise the declaration name does.
func RoutePath(filePath, name string) string {
	segs := strings.Split(strings.Trim(filePath, "/"), "/")

	// The innermost pages-like segment anchors the route subpath.
	anchor := -1
	for i := 0; i < len(segs)-1; i++ {
		if pagesLikeSegments[strings.ToLower(segs[i])] {
			anchor = i
		}
	}

	if anchor >= 0 {
		sub := segs[anchor+1:]
		parts := make([]string, 0, len(sub))
		for _, s := range sub {
			parts = append(parts, strings.ToLower(s))
		}
		if n := len(parts); n > 0 {
			parts[n-1] = strings.TrimSuffix(parts[n-1], strings.ToLower(path.Ext(parts[n-1])))
			if parts[n-1] == "index" {
				parts = parts[:n-1]
			}
		}
		for i, s := range parts {
			parts[i] = bracketSegRe.ReplaceAllString(s, ":$1")
		}
		route := "/" + strings.Join(parts, "/")
		if route == "//" || route == "/" {
			return "/"
		}
		return strings.TrimSuffix(route, "/")
	}

	base := strings.ToLower(nameSuffixRe.ReplaceAllString(name, ""))
	if base == "home" || base == "homepage" || base == "" {
		return "/"
	}
	return "/" + base
}

// DisplayName renders a declaration name for humans: the Page/Screen/View
// suffix dropped, camel-case boundaries spaced.
func DisplayName(name string) string {
	stripped := nameSuffixRe.ReplaceAllString(name, "")
	if stripped == "" {
		stripped = name
	}
	return camelBoundary.ReplaceAllString(stripped, "$1 $2")
}

// ExtractMetadata derives the per-node metadata block from file text.
func ExtractMetadata(name string, kind NodeKind, route, text string) NodeMetadata {
	display := DisplayName(name)
	hasAuth := authSignalRe.MatchString(text)
	score := ComplexityScore(text)

	return NodeMetadata{
		Title:         pageTitle(text, display),
		Description:   describeNode(display, kind, route),
		HasAuth:       hasAuth,
		HasParameters: paramSignalRe.MatchString(text) || strings.Contains(route, ":"),
		IsProtected:   isProtected(text, hasAuth),
		Complexity:    ComplexityBucket(score),
		UserActions:   userActions(text),
		EntryPoints:   entryPoints(route, text),
	}
}

// ComplexityScore computes the additive score with the exact weights the
// output contract requires: hooks, ternaries, collection transforms, and
// inline handlers count one each, network calls two each, then two more
// for files over 100 lines or three more for files over 200.
func ComplexityScore(text string) int {
	score := len(hookCallRe.FindAllString(text, -1))
	score += len(ternaryRe.FindAllString(text, -1))
	score += len(mapCallRe.FindAllString(text, -1))
	score += len(handlerAttrRe.FindAllString(text, -1))
	score += 2 * len(networkCallRe.FindAllString(text, -1))

	lines := strings.Count(text, "\n") + 1
	switch {
	case lines > 200:
		score += 3
	case lines > 100:
		score += 2
	}
	return score
}

// ComplexityBucket maps a score onto its bucket: 3 and below is low, 8 and
// below is medium, everything above is high.
func ComplexityBucket(score int) Complexity {
	switch {
	case score <= 3:
		return ComplexityLow
	case score <= 8:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}

// RouteGuards lists the guard components present in the text.
func RouteGuards(text string) []string {
	var guards []string
	for _, g := range guardComponents {
		if strings.Contains(text, g) {
			guards = append(guards, g)
		}
	}
	return guards
}

// RouteParams lists the colon parameters of a route path.
func RouteParams(route string) []string {
	var params []string
	for _, seg := range strings.Split(route, "/") {
		if rest, ok := strings.CutPrefix(seg, ":"); ok && rest != "" {
			params = append(params, rest)
		}
	}
	return params
}

func pageTitle(text, fallback string) string {
	for _, re := range []*regexp.Regexp{headingTitleRe, tagTitleRe, docTitleRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return fallback
}

func isProtected(text string, hasAuth bool) bool {
	if len(RouteGuards(text)) > 0 {
		return true
	}
	return hasAuth && loginNavRe.MatchString(text)
}

func userActions(text string) []string {
	var actions []string
	for _, check := range actionChecks {
		if check.re.MatchString(text) {
			actions = append(actions, check.label)
		}
	}
	if len(actions) == 0 {
		actions = []string{defaultAction}
	}
	return actions
}

func entryPoints(route, text string) []string {
	var entries []string
	if route == "/" {
		entries = append(entries, "direct URL", "search engines")
	}
	if authContentRe.MatchString(text) {
		entries = append(entries, "authentication flow")
	}
	if strings.Contains(route, ":") {
		entries = append(entries, "deep link")
	}
	if len(entries) == 0 {
		entries = []string{"internal navigation"}
	}
	return entries
}

// describeNode writes the deterministic one-line description nodes carry by
// default.
func describeNode(display string, kind NodeKind, route string) string {
	switch kind {
	case KindPage:
		return fmt.Sprintf("%s page serving the %s route.", display, route)
	case KindLayout:
		return fmt.Sprintf("%s layout framing nested content.", display)
	case KindModal:
		return fmt.Sprintf("%s overlay opened on top of the current page.", display)
	case KindRedirect:
		return fmt.Sprintf("%s forwarding visitors to another route.", display)
	default:
		return fmt.Sprintf("%s component embedded by other pages.", display)
	}
}
