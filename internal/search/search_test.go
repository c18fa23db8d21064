package search

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/repoflow/repoflow/internal/analyzer"
)

// mockEmbedder returns deterministic embeddings based on text content so
// tests never call a real API.
type mockEmbedder struct {
	dims int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

// deterministicVector produces a normalized vector from text. Texts sharing
// characters land weight in the same positions, so similar strings stay
// close in the vector space.
func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex(&mockEmbedder{dims: 64})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return ix
}

func shopResult() *analyzer.AnalysisResult {
	return &analyzer.AnalysisResult{
		RepoName: "webshop",
		Nodes: []analyzer.FlowNode{
			{
				ID:          "loginpage-0",
				DisplayName: "Login",
				RoutePath:   "/login",
				Kind:        analyzer.KindPage,
				Metadata:    analyzer.NodeMetadata{UserActions: []string{"Sign in click"}},
			},
			{
				ID:          "checkoutpage-0",
				DisplayName: "Checkout",
				RoutePath:   "/checkout",
				Kind:        analyzer.KindPage,
				Metadata:    analyzer.NodeMetadata{Description: "Payment and order review."},
			},
		},
	}
}

func blogResult() *analyzer.AnalysisResult {
	return &analyzer.AnalysisResult{
		RepoName: "blog",
		Nodes: []analyzer.FlowNode{
			{ID: "postpage-0", DisplayName: "Post", RoutePath: "/posts/:id", Kind: analyzer.KindPage},
		},
	}
}

func TestIndexAndQuery(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	if err := ix.IndexResult(ctx, "a1", shopResult()); err != nil {
		t.Fatalf("IndexResult: %v", err)
	}
	if !ix.Has("a1") {
		t.Error("Has(a1) = false after indexing")
	}

	hits, err := ix.Query(ctx, "a1", "Login\n/login\nSign in click", 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}

	top := hits[0]
	if top.NodeID != "loginpage-0" {
		t.Errorf("top hit = %q, want loginpage-0", top.NodeID)
	}
	if top.DisplayName != "Login" || top.RoutePath != "/login" || top.Kind != "page" {
		t.Errorf("hit metadata = %+v", top)
	}
	if top.Similarity <= 0 {
		t.Errorf("similarity = %f, want > 0", top.Similarity)
	}
}

func TestQueryScopedToAnalysis(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	if err := ix.IndexResult(ctx, "a1", shopResult()); err != nil {
		t.Fatalf("IndexResult a1: %v", err)
	}
	if err := ix.IndexResult(ctx, "a2", blogResult()); err != nil {
		t.Fatalf("IndexResult a2: %v", err)
	}

	hits, err := ix.Query(ctx, "a2", "login checkout payment", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, h := range hits {
		if h.NodeID != "postpage-0" {
			t.Errorf("hit %q leaked from another analysis", h.NodeID)
		}
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits, want 1", len(hits))
	}
}

func TestReindexReplacesDocuments(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	if err := ix.IndexResult(ctx, "a1", shopResult()); err != nil {
		t.Fatalf("IndexResult: %v", err)
	}
	if err := ix.IndexResult(ctx, "a1", blogResult()); err != nil {
		t.Fatalf("reindex: %v", err)
	}

	hits, err := ix.Query(ctx, "a1", "anything at all", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 || hits[0].NodeID != "postpage-0" {
		t.Errorf("hits after reindex = %+v", hits)
	}
}

func TestRemoveDropsAnalysis(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	if err := ix.IndexResult(ctx, "a1", shopResult()); err != nil {
		t.Fatalf("IndexResult a1: %v", err)
	}
	if err := ix.IndexResult(ctx, "a2", blogResult()); err != nil {
		t.Fatalf("IndexResult a2: %v", err)
	}

	if err := ix.Remove(ctx, "a1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ix.Has("a1") {
		t.Error("Has(a1) = true after removal")
	}

	hits, err := ix.Query(ctx, "a1", "login", 10)
	if err != nil {
		t.Fatalf("Query removed analysis: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits after removal", len(hits))
	}

	// The other analysis is untouched.
	hits, err = ix.Query(ctx, "a2", "post", 10)
	if err != nil {
		t.Fatalf("Query surviving analysis: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("surviving analysis lost documents: %d hits", len(hits))
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	ix := newTestIndex(t)

	hits, err := ix.Query(context.Background(), "a1", "anything", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if hits != nil {
		t.Errorf("expected nil hits, got %+v", hits)
	}
}

func TestIndexEmptyResult(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	if err := ix.IndexResult(ctx, "a1", &analyzer.AnalysisResult{RepoName: "empty"}); err != nil {
		t.Fatalf("IndexResult: %v", err)
	}
	if !ix.Has("a1") {
		t.Error("Has(a1) = false after indexing an empty result")
	}

	hits, err := ix.Query(ctx, "a1", "anything", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits from empty analysis", len(hits))
	}
}

func TestDocumentText(t *testing.T) {
	node := analyzer.FlowNode{
		DisplayName: "Checkout",
		RoutePath:   "/checkout",
		Metadata: analyzer.NodeMetadata{
			UserActions: []string{"Pay click"},
			Description: "Payment and order review.",
		},
	}

	text := documentText(node)
	for _, want := range []string{"Checkout", "/checkout", "Pay click", "Payment and order review."} {
		if !strings.Contains(text, want) {
			t.Errorf("document text missing %q: %q", want, text)
		}
	}
}
