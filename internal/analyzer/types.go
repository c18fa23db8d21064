package analyzer

import (
	"context"
	"time"

	"github.com/repoflow/repoflow/internal/githost"
)

// NodeKind classifies a detected navigable unit.
type NodeKind string

const (
	KindPage      NodeKind = "page"
	KindLayout    NodeKind = "layout"
	KindModal     NodeKind = "modal"
	KindRedirect  NodeKind = "redirect"
	KindComponent NodeKind = "component"
)

// ConnectionKind classifies a resolved navigation edge.
type ConnectionKind string

const (
	ConnNavigation  ConnectionKind = "navigation"
	ConnRedirect    ConnectionKind = "redirect"
	ConnModal       ConnectionKind = "modal"
	ConnConditional ConnectionKind = "conditional"
)

// Complexity buckets the additive per-file score.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// UserType tags a synthesized journey with its audience.
type UserType string

const (
	UserGuest         UserType = "guest"
	UserAuthenticated UserType = "authenticated"
	UserAdmin         UserType = "admin"
)

// NodeMetadata carries the signals extracted from one node's file text.
type NodeMetadata struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	HasAuth       bool       `json:"has_auth"`
	HasParameters bool       `json:"has_parameters"`
	IsProtected   bool       `json:"is_protected"`
	Complexity    Complexity `json:"complexity"`
	UserActions   []string   `json:"user_actions"`
	EntryPoints   []string   `json:"entry_points"`
}

// Connection is a directed, resolved navigation edge. TargetNodeID always
// names an existing node within the same result; unresolved references are
// dropped before a result is built.
type Connection struct {
	TargetNodeID       string         `json:"target_node_id"`
	Kind               ConnectionKind `json:"kind"`
	TriggerDescription string         `json:"trigger_description"`
	Condition          string         `json:"condition,omitempty"`
}

// FlowNode is one detected navigable unit extracted from a source file. A
// single file may yield several nodes, one per component-like declaration.
type FlowNode struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"display_name"`
	RoutePath   string       `json:"route_path"`
	SourcePath  string       `json:"source_path"`
	Kind        NodeKind     `json:"kind"`
	Connections []Connection `json:"outgoing_connections"`
	Metadata    NodeMetadata `json:"metadata"`
}

// RouteEntry is the routing-table view of one page node. Entries exist only
// for pages with a non-empty, non-root route path.
type RouteEntry struct {
	Path          string   `json:"path"`
	ComponentName string   `json:"component_name"`
	SourcePath    string   `json:"source_path"`
	Guards        []string `json:"guards,omitempty"`
	Params        []string `json:"params,omitempty"`
}

// UserJourney is a synthesized ordered walk through the graph.
type UserJourney struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Steps       []FlowNode `json:"ordered_steps"`
	StartNodeID string     `json:"start_node_id"`
	EndNodeID   string     `json:"end_node_id"`
	UserType    UserType   `json:"user_type"`
}

// AnalysisResult is the complete artifact of one analysis run, built once
// and never mutated afterwards.
type AnalysisResult struct {
	RepoURL       string        `json:"repo_url"`
	RepoName      string        `json:"repo_name"`
	Nodes         []FlowNode    `json:"nodes"`
	Routes        []RouteEntry  `json:"routes"`
	Journeys      []UserJourney `json:"journeys"`
	TotalFiles    int           `json:"total_files_seen"`
	AnalyzedFiles int           `json:"files_successfully_analyzed"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Source supplies repository listings and file bodies to the pipeline. The
// GitHub-backed client and the local directory walker both satisfy it.
type Source interface {
	// Probe checks reachability before a scan starts.
	Probe(ctx context.Context, ref githost.RepositoryReference) error
	// ListDirectory fetches one directory level of the tree.
	ListDirectory(ctx context.Context, ref githost.RepositoryReference, path string) ([]githost.RemoteFile, error)
	// ReadFile fetches a raw file body, empty on failure.
	ReadFile(ctx context.Context, handle string) string
}
