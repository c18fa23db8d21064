package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/repoflow/repoflow/internal/analyzer"
)

const (
	collectionName = "nodes"
	defaultLimit   = 10
)

// Hit is one ranked node match for a search query.
type Hit struct {
	NodeID      string  `json:"node_id"`
	DisplayName string  `json:"display_name"`
	RoutePath   string  `json:"route_path"`
	Kind        string  `json:"kind"`
	Similarity  float32 `json:"similarity"`
}

// Index holds node documents for all analyses in one in-memory chromem
// collection, scoped per analysis through metadata filters.
type Index struct {
	collection *chromem.Collection

	mu      sync.Mutex
	indexed map[string]bool
}

// NewIndex creates an empty index backed by the given embedder.
func NewIndex(embedder Embedder) (*Index, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, chromemFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}
	return &Index{
		collection: col,
		indexed:    make(map[string]bool),
	}, nil
}

// Has reports whether the analysis already has documents in the index.
func (ix *Index) Has(analysisID string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.indexed[analysisID]
}

// IndexResult replaces the indexed documents for one analysis with the nodes
// of the given result.
func (ix *Index) IndexResult(ctx context.Context, analysisID string, res *analyzer.AnalysisResult) error {
	if err := ix.Remove(ctx, analysisID); err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(res.Nodes))
	for _, node := range res.Nodes {
		docs = append(docs, chromem.Document{
			ID:      analysisID + "/" + node.ID,
			Content: documentText(node),
			Metadata: map[string]string{
				"analysis_id":  analysisID,
				"node_id":      node.ID,
				"display_name": node.DisplayName,
				"route_path":   node.RoutePath,
				"kind":         string(node.Kind),
			},
		})
	}

	if len(docs) > 0 {
		if err := ix.collection.AddDocuments(ctx, docs, 1); err != nil {
			return fmt.Errorf("adding node documents: %w", err)
		}
	}

	ix.mu.Lock()
	ix.indexed[analysisID] = true
	ix.mu.Unlock()
	return nil
}

// Remove drops all documents of one analysis.
func (ix *Index) Remove(ctx context.Context, analysisID string) error {
	ix.mu.Lock()
	delete(ix.indexed, analysisID)
	ix.mu.Unlock()

	if ix.collection.Count() == 0 {
		return nil
	}
	if err := ix.collection.Delete(ctx, map[string]string{"analysis_id": analysisID}, nil); err != nil {
		return fmt.Errorf("deleting node documents: %w", err)
	}
	return nil
}

// Query returns up to limit nodes of one analysis ranked by similarity to
// the query text.
func (ix *Index) Query(ctx context.Context, analysisID, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	// chromem-go requires nResults <= collection size.
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := ix.collection.Query(ctx, query, limit, map[string]string{"analysis_id": analysisID}, nil)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			NodeID:      r.Metadata["node_id"],
			DisplayName: r.Metadata["display_name"],
			RoutePath:   r.Metadata["route_path"],
			Kind:        r.Metadata["kind"],
			Similarity:  r.Similarity,
		}
	}
	return hits, nil
}

// documentText renders one node as the text that gets embedded.
func documentText(node analyzer.FlowNode) string {
	parts := []string{node.DisplayName}
	if node.RoutePath != "" {
		parts = append(parts, node.RoutePath)
	}
	parts = append(parts, node.Metadata.UserActions...)
	if node.Metadata.Description != "" {
		parts = append(parts, node.Metadata.Description)
	}
	return strings.Join(parts, "\n")
}
