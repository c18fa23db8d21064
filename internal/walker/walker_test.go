package walker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/repoflow/repoflow/internal/analyzer"
	"github.com/repoflow/repoflow/internal/githost"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func localRef(root string) githost.RepositoryReference {
	return githost.RepositoryReference{
		URL:    "file://" + root,
		Name:   filepath.Base(root),
		Branch: githost.DefaultBranch,
	}
}

func TestLocalProbe(t *testing.T) {
	root := writeTree(t, map[string]string{"src/pages/Home.tsx": "x"})
	l, err := NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if err := l.Probe(context.Background(), localRef(root)); err != nil {
		t.Errorf("Probe: %v", err)
	}

	missing, err := NewLocal(filepath.Join(root, "nope"))
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if err := missing.Probe(context.Background(), localRef(root)); !githost.IsNotFound(err) {
		t.Errorf("Probe on missing dir = %v, want not found", err)
	}
}

func TestLocalListDirectory(t *testing.T) {
	root := writeTree(t, map[string]string{
		"README.md":             "# readme",
		"src/pages/Home.tsx":    "home",
		"node_modules/lib/x.js": "junk",
		".git/config":           "junk",
		"src/pages/About.tsx":   "about",
	})
	l, err := NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ref := localRef(root)

	rootEntries, err := l.ListDirectory(context.Background(), ref, "")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	var names []string
	for _, e := range rootEntries {
		names = append(names, e.Name)
	}
	if strings.Join(names, ",") != "README.md,src" {
		t.Errorf("root entries = %v, want README.md and src only", names)
	}

	pages, err := l.ListDirectory(context.Background(), ref, "src/pages")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if len(pages) != 2 || pages[0].Name != "About.tsx" || pages[1].Name != "Home.tsx" {
		t.Fatalf("pages entries = %+v, want sorted About.tsx, Home.tsx", pages)
	}
	if pages[0].Path != "src/pages/About.tsx" {
		t.Errorf("Path = %q, want slash-relative", pages[0].Path)
	}
	if got := l.ReadFile(context.Background(), pages[1].ContentLocation); got != "home" {
		t.Errorf("ReadFile via ContentLocation = %q", got)
	}

	if _, err := l.ListDirectory(context.Background(), ref, "src/nope"); !githost.IsNotFound(err) {
		t.Errorf("listing missing dir = %v, want not found", err)
	}
}

func TestLocalGitignore(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":         "secrets/\n*.snap\n",
		"secrets/keys.ts":    "k",
		"src/pages/App.tsx":  "a",
		"src/pages/App.snap": "s",
	})
	l, err := NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ref := localRef(root)

	rootEntries, _ := l.ListDirectory(context.Background(), ref, "")
	for _, e := range rootEntries {
		if e.Name == "secrets" {
			t.Error("gitignored directory listed")
		}
	}

	pages, _ := l.ListDirectory(context.Background(), ref, "src/pages")
	if len(pages) != 1 || pages[0].Name != "App.tsx" {
		t.Errorf("pages entries = %+v, want App.tsx only", pages)
	}
}

func TestLocalReadFileLimits(t *testing.T) {
	root := writeTree(t, map[string]string{"src/ok.ts": "fine"})
	binPath := filepath.Join(root, "src", "blob.ts")
	if err := os.WriteFile(binPath, []byte{0x89, 0x00, 0x42}, 0o644); err != nil {
		t.Fatal(err)
	}
	bigPath := filepath.Join(root, "src", "big.ts")
	if err := os.WriteFile(bigPath, []byte(strings.Repeat("a", int(DefaultMaxFileSize)+1)), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	if got := l.ReadFile(ctx, filepath.Join(root, "src", "ok.ts")); got != "fine" {
		t.Errorf("ReadFile = %q", got)
	}
	if got := l.ReadFile(ctx, binPath); got != "" {
		t.Errorf("binary file read as %q, want empty", got)
	}
	if got := l.ReadFile(ctx, bigPath); got != "" {
		t.Errorf("oversized file read as %q, want empty", got)
	}
	if got := l.ReadFile(ctx, filepath.Join(root, "src", "missing.ts")); got != "" {
		t.Errorf("missing file read as %q, want empty", got)
	}
}

func TestSampleProject(t *testing.T) {
	l, err := NewLocal(filepath.Join("..", "..", "testdata", "sample_project"))
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	pipe := analyzer.NewPipeline(l, analyzer.Options{})
	res, err := pipe.AnalyzeRef(context.Background(), githost.RepositoryReference{
		URL:  "file://testdata/sample_project",
		Name: "sample_project",
	})
	if err != nil {
		t.Fatalf("AnalyzeRef: %v", err)
	}

	if res.TotalFiles != 8 || res.AnalyzedFiles != 7 {
		t.Errorf("files seen/analyzed = %d/%d, want 8/7", res.TotalFiles, res.AnalyzedFiles)
	}
	if len(res.Nodes) != 7 || len(res.Routes) != 4 || len(res.Journeys) != 1 {
		t.Fatalf("nodes/routes/journeys = %d/%d/%d, want 7/4/1",
			len(res.Nodes), len(res.Routes), len(res.Journeys))
	}
	if !strings.Contains(pipe.Readme(), "Acme Shop") {
		t.Errorf("readme not captured, got %q", pipe.Readme())
	}

	byID := make(map[string]analyzer.FlowNode, len(res.Nodes))
	for _, n := range res.Nodes {
		byID[n.ID] = n
	}

	kinds := []struct {
		id    string
		kind  analyzer.NodeKind
		route string
	}{
		{"homepage-0", analyzer.KindPage, "/home"},
		{"productspage-0", analyzer.KindPage, "/products"},
		{"checkoutpage-0", analyzer.KindPage, "/checkout"},
		{"loginpage-0", analyzer.KindPage, "/login"},
		{"cartmodal-0", analyzer.KindModal, "/cart"},
		{"shoplayout-0", analyzer.KindLayout, "/shoplayout"},
		{"productcard-0", analyzer.KindComponent, "/productcard"},
	}
	for _, want := range kinds {
		n, ok := byID[want.id]
		if !ok {
			t.Fatalf("node %s missing from %v", want.id, res.Nodes)
		}
		if n.Kind != want.kind || n.RoutePath != want.route {
			t.Errorf("%s = kind %s route %s, want %s %s",
				want.id, n.Kind, n.RoutePath, want.kind, want.route)
		}
	}

	home := byID["homepage-0"]
	if home.Metadata.Title != "Acme Shop" {
		t.Errorf("home title = %q, want heading text", home.Metadata.Title)
	}
	// The /deals link has no matching route and must not become an edge.
	if len(home.Connections) != 2 {
		t.Fatalf("home connections = %+v, want products and login only", home.Connections)
	}
	if home.Connections[0].TriggerDescription != "Browse products click" ||
		home.Connections[0].TargetNodeID != "productspage-0" {
		t.Errorf("home first connection = %+v", home.Connections[0])
	}

	checkout := byID["checkoutpage-0"]
	if !checkout.Metadata.IsProtected {
		t.Error("checkout not marked protected despite auth guard and login redirect")
	}
	if len(checkout.Connections) != 1 {
		t.Fatalf("checkout connections = %+v", checkout.Connections)
	}
	if c := checkout.Connections[0]; c.Kind != analyzer.ConnConditional ||
		c.Condition != "!isAuthenticated" || c.TargetNodeID != "loginpage-0" {
		t.Errorf("checkout guard edge = %+v", c)
	}

	login := byID["loginpage-0"]
	if len(login.Connections) != 1 || login.Connections[0].Condition != "ok" ||
		login.Connections[0].TargetNodeID != "homepage-0" {
		t.Errorf("login connections = %+v", login.Connections)
	}

	// Navigation refs pointing at the cart become modal edges.
	products := byID["productspage-0"]
	if len(products.Connections) != 2 {
		t.Fatalf("products connections = %+v", products.Connections)
	}
	if c := products.Connections[0]; c.Kind != analyzer.ConnModal ||
		c.TargetNodeID != "cartmodal-0" || c.TriggerDescription != "View cart click" {
		t.Errorf("products cart edge = %+v", c)
	}

	layout := byID["shoplayout-0"]
	if len(layout.Connections) != 3 {
		t.Fatalf("layout connections = %+v", layout.Connections)
	}
	if c := layout.Connections[2]; c.Kind != analyzer.ConnModal || c.TargetNodeID != "cartmodal-0" {
		t.Errorf("layout cart edge = %+v", c)
	}

	j := res.Journeys[0]
	if j.UserType != analyzer.UserGuest || j.StartNodeID != "homepage-0" || j.EndNodeID != "loginpage-0" {
		t.Errorf("journey = %+v, want guest journey from home to login", j)
	}
}

func TestLocalPipeline(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/pages/Home.tsx":    "export default function HomePage() {\n  return (\n    <div>\n      <Link to=\"/about\">About</Link>\n    </div>\n  )\n}\n",
		"src/pages/About.tsx":   "export default function AboutPage() {\n  return (\n    <main />\n  )\n}\n",
		"node_modules/lib/x.js": "junk",
	})
	l, err := NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	res, err := analyzer.NewPipeline(l, analyzer.Options{}).AnalyzeRef(context.Background(), localRef(root))
	if err != nil {
		t.Fatalf("AnalyzeRef: %v", err)
	}
	if len(res.Nodes) != 2 || res.TotalFiles != 2 {
		t.Fatalf("nodes = %d, files = %d, want 2/2", len(res.Nodes), res.TotalFiles)
	}

	var home analyzer.FlowNode
	for _, n := range res.Nodes {
		if n.ID == "homepage-0" {
			home = n
		}
	}
	if len(home.Connections) != 1 || home.Connections[0].TriggerDescription != "About click" {
		t.Errorf("home connections = %+v", home.Connections)
	}
}
