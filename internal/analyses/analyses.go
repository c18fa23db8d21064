// Package analyses persists repository analyses and serves them over REST
// and WebSocket endpoints.
package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/repoflow/repoflow/internal/analyzer"
	"github.com/repoflow/repoflow/internal/db"
)

// Analysis statuses.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Analysis is one recorded analysis run. The full result graph is stored
// separately and fetched on demand.
type Analysis struct {
	ID            string     `json:"id"`
	RepoURL       string     `json:"repo_url"`
	RepoName      string     `json:"repo_name"`
	Branch        string     `json:"branch"`
	Status        string     `json:"status"`
	Error         string     `json:"error,omitempty"`
	NodeCount     int        `json:"node_count"`
	RouteCount    int        `json:"route_count"`
	JourneyCount  int        `json:"journey_count"`
	FilesSeen     int        `json:"files_seen"`
	FilesAnalyzed int        `json:"files_analyzed"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Terminal reports whether the analysis has reached a final status.
func (a *Analysis) Terminal() bool {
	return a.Status == StatusCompleted || a.Status == StatusFailed
}

// Store provides CRUD operations for analysis records.
type Store struct {
	db *db.DB
}

// NewStore creates a new analysis store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Create inserts a new analysis record.
func (s *Store) Create(ctx context.Context, a *Analysis) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = StatusQueued
	}
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, repo_url, repo_name, branch, status, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.RepoURL, a.RepoName, a.Branch, a.Status, a.Error, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating analysis: %w", err)
	}
	return nil
}

// Get retrieves an analysis by ID. Returns nil, nil when no record exists.
func (s *Store) Get(ctx context.Context, id string) (*Analysis, error) {
	a := &Analysis{}
	var completed sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, repo_url, repo_name, branch, status, error, node_count, route_count, journey_count, files_seen, files_analyzed, created_at, updated_at, completed_at
		 FROM analyses WHERE id = ?`, id,
	).Scan(&a.ID, &a.RepoURL, &a.RepoName, &a.Branch, &a.Status, &a.Error,
		&a.NodeCount, &a.RouteCount, &a.JourneyCount, &a.FilesSeen, &a.FilesAnalyzed,
		&a.CreatedAt, &a.UpdatedAt, &completed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting analysis: %w", err)
	}
	if completed.Valid {
		a.CompletedAt = &completed.Time
	}
	return a, nil
}

// List returns all analyses, newest first.
func (s *Store) List(ctx context.Context) ([]Analysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, repo_url, repo_name, branch, status, error, node_count, route_count, journey_count, files_seen, files_analyzed, created_at, updated_at, completed_at
		 FROM analyses ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		var completed sql.NullTime
		if err := rows.Scan(&a.ID, &a.RepoURL, &a.RepoName, &a.Branch, &a.Status, &a.Error,
			&a.NodeCount, &a.RouteCount, &a.JourneyCount, &a.FilesSeen, &a.FilesAnalyzed,
			&a.CreatedAt, &a.UpdatedAt, &completed); err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		if completed.Valid {
			a.CompletedAt = &completed.Time
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateStatus moves an analysis to a new status, recording the error
// message for failed runs.
func (s *Store) UpdateStatus(ctx context.Context, id, status, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status=?, error=?, updated_at=? WHERE id=?`,
		status, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating analysis status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveResult stores the finished result graph and marks the analysis
// completed.
func (s *Store) SaveResult(ctx context.Context, id string, result *analyzer.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status=?, error='', result=?, repo_name=?, node_count=?, route_count=?, journey_count=?, files_seen=?, files_analyzed=?, updated_at=?, completed_at=?
		 WHERE id=?`,
		StatusCompleted, string(payload), result.RepoName,
		len(result.Nodes), len(result.Routes), len(result.Journeys),
		result.TotalFiles, result.AnalyzedFiles, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("saving analysis result: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Result retrieves the stored result graph. Returns nil, nil when the
// analysis exists but has no result yet.
func (s *Store) Result(ctx context.Context, id string) (*analyzer.AnalysisResult, error) {
	var payload sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT result FROM analyses WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting analysis result: %w", err)
	}
	if !payload.Valid || payload.String == "" {
		return nil, nil
	}

	var result analyzer.AnalysisResult
	if err := json.Unmarshal([]byte(payload.String), &result); err != nil {
		return nil, fmt.Errorf("decoding analysis result: %w", err)
	}
	return &result, nil
}

// Delete removes an analysis and its cached reports.
func (s *Store) Delete(ctx context.Context, id string) error {
	// Cascade handles reports, but be explicit for databases opened
	// without foreign keys.
	s.db.ExecContext(ctx, `DELETE FROM reports WHERE analysis_id = ?`, id)

	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting analysis: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveReport caches a rendered report for an analysis, replacing any
// previous render in the same format.
func (s *Store) SaveReport(ctx context.Context, analysisID, format, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, analysis_id, format, content, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(analysis_id, format) DO UPDATE SET content=excluded.content, created_at=excluded.created_at`,
		uuid.NewString(), analysisID, format, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// Report retrieves a cached report. Returns "" when none is cached.
func (s *Store) Report(ctx context.Context, analysisID, format string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM reports WHERE analysis_id = ? AND format = ?`,
		analysisID, format,
	).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting report: %w", err)
	}
	return content, nil
}
