package analyzer

import (
	"fmt"
	"strings"
	"time"
)

// demoDataset is the process-wide fallback analysis handed out when a
// repository cannot be fetched. Built once, never mutated; callers receive
// clones.
var demoDataset = buildDemoDataset()

// DemoDataset returns a copy of the built-in demo storefront analysis.
func DemoDataset() *AnalysisResult {
	return cloneResult(demoDataset)
}

// fallbackResult stamps a clone of base with the requested repository and
// the failure that diverted the run, marking the first node so readers can
// tell the data is canned.
func fallbackResult(base *AnalysisResult, repoURL, repoName string, cause error) *AnalysisResult {
	out := cloneResult(base)
	out.RepoURL = repoURL
	out.RepoName = repoName
	out.Timestamp = time.Now().UTC()
	if len(out.Nodes) > 0 {
		out.Nodes[0].Metadata.Description = fmt.Sprintf("[demo data: %v] %s", cause, out.Nodes[0].Metadata.Description)
	}
	return out
}

// IsFallback reports whether a result carries the demo-data marker instead
// of a real analysis.
func IsFallback(res *AnalysisResult) bool {
	if res == nil || len(res.Nodes) == 0 {
		return false
	}
	return strings.HasPrefix(res.Nodes[0].Metadata.Description, "[demo data:")
}

func buildDemoDataset() *AnalysisResult {
	nodes := []FlowNode{
		{
			ID:          "homepage-0",
			DisplayName: "Home",
			RoutePath:   "/",
			SourcePath:  "src/pages/index.tsx",
			Kind:        KindPage,
			Connections: []Connection{
				{TargetNodeID: "productspage-0", Kind: ConnNavigation, TriggerDescription: "Shop Now click"},
				{TargetNodeID: "loginpage-0", Kind: ConnNavigation, TriggerDescription: "Sign In click"},
			},
			Metadata: NodeMetadata{
				Title:       "Home",
				Description: describeNode("Home", KindPage, "/"),
				Complexity:  ComplexityLow,
				UserActions: []string{"Click buttons and links"},
				EntryPoints: []string{"direct URL", "search engines"},
			},
		},
		{
			ID:          "productspage-0",
			DisplayName: "Products",
			RoutePath:   "/products",
			SourcePath:  "src/pages/products/index.tsx",
			Kind:        KindPage,
			Connections: []Connection{
				{TargetNodeID: "productdetailpage-0", Kind: ConnNavigation, TriggerDescription: "View Details click"},
				{TargetNodeID: "cartmodal-0", Kind: ConnModal, TriggerDescription: "Add to Cart click"},
			},
			Metadata: NodeMetadata{
				Title:       "Products",
				Description: describeNode("Products", KindPage, "/products"),
				Complexity:  ComplexityMedium,
				UserActions: []string{"Click buttons and links", "Search and filter content", "Browse and purchase products"},
				EntryPoints: []string{"internal navigation"},
			},
		},
		{
			ID:          "productdetailpage-0",
			DisplayName: "Product Detail",
			RoutePath:   "/products/:id",
			SourcePath:  "src/pages/products/[id].tsx",
			Kind:        KindPage,
			Connections: []Connection{
				{TargetNodeID: "cartmodal-0", Kind: ConnModal, TriggerDescription: "Add to Cart click"},
			},
			Metadata: NodeMetadata{
				Title:         "Product Detail",
				Description:   describeNode("Product Detail", KindPage, "/products/:id"),
				HasParameters: true,
				Complexity:    ComplexityMedium,
				UserActions:   []string{"Click buttons and links", "Browse and purchase products"},
				EntryPoints:   []string{"deep link"},
			},
		},
		{
			ID:          "cartmodal-0",
			DisplayName: "Cart Modal",
			RoutePath:   "/cartmodal",
			SourcePath:  "src/components/CartModal.tsx",
			Kind:        KindModal,
			Connections: []Connection{
				{TargetNodeID: "checkoutpage-0", Kind: ConnNavigation, TriggerDescription: "Checkout click"},
			},
			Metadata: NodeMetadata{
				Title:       "Cart Modal",
				Description: describeNode("Cart Modal", KindModal, "/cartmodal"),
				Complexity:  ComplexityLow,
				UserActions: []string{"Click buttons and links", "Browse and purchase products"},
				EntryPoints: []string{"internal navigation"},
			},
		},
		{
			ID:          "checkoutpage-0",
			DisplayName: "Checkout",
			RoutePath:   "/checkout",
			SourcePath:  "src/pages/checkout.tsx",
			Kind:        KindPage,
			Connections: []Connection{
				{TargetNodeID: "loginpage-0", Kind: ConnConditional, TriggerDescription: programmaticTrigger, Condition: "!user"},
			},
			Metadata: NodeMetadata{
				Title:       "Checkout",
				Description: describeNode("Checkout", KindPage, "/checkout"),
				HasAuth:     true,
				IsProtected: true,
				Complexity:  ComplexityHigh,
				UserActions: []string{"Click buttons and links", "Submit forms", "Enter text", "Browse and purchase products"},
				EntryPoints: []string{"internal navigation"},
			},
		},
		{
			ID:          "loginpage-0",
			DisplayName: "Login",
			RoutePath:   "/login",
			SourcePath:  "src/pages/login.tsx",
			Kind:        KindPage,
			Connections: []Connection{
				{TargetNodeID: "accountdashboard-0", Kind: ConnRedirect, TriggerDescription: programmaticTrigger},
			},
			Metadata: NodeMetadata{
				Title:       "Sign In",
				Description: describeNode("Login", KindPage, "/login"),
				HasAuth:     true,
				Complexity:  ComplexityLow,
				UserActions: []string{"Submit forms", "Enter text", "Log in or authenticate"},
				EntryPoints: []string{"authentication flow"},
			},
		},
		{
			ID:          "accountdashboard-0",
			DisplayName: "Account Dashboard",
			RoutePath:   "/account",
			SourcePath:  "src/pages/account.tsx",
			Kind:        KindPage,
			Metadata: NodeMetadata{
				Title:       "Account Dashboard",
				Description: describeNode("Account Dashboard", KindPage, "/account"),
				HasAuth:     true,
				IsProtected: true,
				Complexity:  ComplexityMedium,
				UserActions: []string{"Click buttons and links"},
				EntryPoints: []string{"authentication flow"},
			},
		},
	}

	routes := []RouteEntry{
		{Path: "/products", ComponentName: "ProductsPage", SourcePath: "src/pages/products/index.tsx"},
		{Path: "/products/:id", ComponentName: "ProductDetailPage", SourcePath: "src/pages/products/[id].tsx", Params: []string{"id"}},
		{Path: "/checkout", ComponentName: "CheckoutPage", SourcePath: "src/pages/checkout.tsx", Guards: []string{"RequireAuth"}},
		{Path: "/login", ComponentName: "LoginPage", SourcePath: "src/pages/login.tsx"},
		{Path: "/account", ComponentName: "AccountDashboard", SourcePath: "src/pages/account.tsx"},
	}

	return &AnalysisResult{
		Nodes:         nodes,
		Routes:        routes,
		Journeys:      SynthesizeJourneys(nodes),
		TotalFiles:    24,
		AnalyzedFiles: 7,
	}
}

func cloneResult(r *AnalysisResult) *AnalysisResult {
	out := *r

	out.Nodes = make([]FlowNode, len(r.Nodes))
	for i, n := range r.Nodes {
		out.Nodes[i] = cloneNode(n)
	}

	out.Routes = make([]RouteEntry, len(r.Routes))
	for i, rt := range r.Routes {
		crt := rt
		crt.Guards = append([]string(nil), rt.Guards...)
		crt.Params = append([]string(nil), rt.Params...)
		out.Routes[i] = crt
	}

	out.Journeys = make([]UserJourney, len(r.Journeys))
	for i, j := range r.Journeys {
		cj := j
		cj.Steps = make([]FlowNode, len(j.Steps))
		for k, step := range j.Steps {
			cj.Steps[k] = cloneNode(step)
		}
		out.Journeys[i] = cj
	}

	return &out
}

func cloneNode(n FlowNode) FlowNode {
	cn := n
	cn.Connections = append([]Connection(nil), n.Connections...)
	cn.Metadata.UserActions = append([]string(nil), n.Metadata.UserActions...)
	cn.Metadata.EntryPoints = append([]string(nil), n.Metadata.EntryPoints...)
	return cn
}
