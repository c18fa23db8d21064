package githost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FileKind distinguishes directory-listing entries.
type FileKind string

const (
	FileKindFile      FileKind = "file"
	FileKindDirectory FileKind = "directory"
)

// RemoteFile is one entry of a repository directory listing. ContentLocation
// is an opaque fetchable handle, empty for directories.
type RemoteFile struct {
	Name            string   `json:"name"`
	Path            string   `json:"path"`
	Kind            FileKind `json:"kind"`
	ContentLocation string   `json:"content_location,omitempty"`
}

// SkipDirs are directory names never descended into: dependency trees, build
// output, and version-control or editor internals.
var SkipDirs = []string{
	".git", "node_modules", "vendor", "dist", "build", ".next", "out",
	"coverage", "__pycache__", "target", ".cache", ".idea", ".vscode",
}

// SkipDir reports whether name is in the fixed skip-set.
func SkipDir(name string) bool {
	for _, d := range SkipDirs {
		if name == d {
			return true
		}
	}
	return false
}

const (
	defaultBaseURL    = "https://api.github.com"
	defaultUserAgent  = "repoflow-analyzer"
	acceptJSON        = "application/vnd.github.v3+json"
	acceptRaw         = "application/vnd.github.v3.raw"
	maxAttempts       = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// Config holds settings for the content host client.
type Config struct {
	BaseURL    string        // API root, defaults to the public GitHub API
	Token      string        // optional bearer token
	UserAgent  string        // client identifier sent on every request
	RetryDelay time.Duration // base unit of the linear retry backoff
	HTTPClient *http.Client
}

// Client fetches repository listings and raw file bodies from a GitHub-style
// content host.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	retryDelay time.Duration
	httpClient *http.Client
}

// NewClient creates a content host client. Zero-value config fields fall back
// to the public GitHub API, a 30 second request timeout, and a 500 ms retry
// base delay.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		retryDelay: cfg.RetryDelay,
		httpClient: cfg.HTTPClient,
	}
}

// contentEntry is the host's directory-listing JSON shape.
type contentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// Probe checks that the repository exists and is reachable before a scan
// starts. Failures carry the transport taxonomy: ErrRepositoryNotFound,
// RateLimitedError with the host-reported reset time, or HostError.
func (c *Client) Probe(ctx context.Context, ref RepositoryReference) error {
	endpoint := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, ref.Owner, ref.Name)
	resp, err := c.getWithRetry(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("probing %s/%s: %w", ref.Owner, ref.Name, err)
	}
	resp.Body.Close()
	return nil
}

// ListDirectory fetches one directory level of the repository tree. Entries
// named in the skip-set are dropped so their subtrees are never visited.
func (c *Client) ListDirectory(ctx context.Context, ref RepositoryReference, path string) ([]RemoteFile, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.baseURL, ref.Owner, ref.Name, strings.TrimPrefix(path, "/"), url.QueryEscape(ref.Branch))

	resp, err := c.getWithRetry(ctx, endpoint)
	if err != nil {
		dir := path
		if dir == "" {
			dir = "/"
		}
		return nil, fmt.Errorf("listing %s of %s: %w", dir, ref, err)
	}
	defer resp.Body.Close()

	var entries []contentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding listing of %s: %w", ref, err)
	}

	files := make([]RemoteFile, 0, len(entries))
	for _, e := range entries {
		switch e.Type {
		case "dir":
			if SkipDir(e.Name) {
				continue
			}
			files = append(files, RemoteFile{Name: e.Name, Path: e.Path, Kind: FileKindDirectory})
		case "file":
			files = append(files, RemoteFile{
				Name:            e.Name,
				Path:            e.Path,
				Kind:            FileKindFile,
				ContentLocation: e.DownloadURL,
			})
		}
	}
	return files, nil
}

// ReadFile fetches a raw file body as text. Any failure yields an empty
// string: a missing body downgrades one file to "no signal" instead of
// aborting the surrounding run.
func (c *Client) ReadFile(ctx context.Context, handle string) string {
	if handle == "" {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, handle, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Accept", acceptRaw)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(body)
}

// get issues one request with the required negotiation and identity headers.
func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", acceptJSON)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpClient.Do(req)
}

// getWithRetry applies the transport rules: rate-limit and not-found surface
// immediately, everything else is retried up to two more times with delays of
// 1x, 2x, 3x the base unit before the last error surfaces.
func (c *Client) getWithRetry(ctx context.Context, endpoint string) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.get(ctx, endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		} else {
			lastErr = classifyStatus(resp)
			resp.Body.Close()
			if !retryable(lastErr) {
				return nil, lastErr
			}
		}
		if err := sleepCtx(ctx, time.Duration(attempt)*c.retryDelay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// classifyStatus maps a non-success response onto the error taxonomy.
func classifyStatus(resp *http.Response) error {
	rl := parseRateLimit(resp.Header)
	if rl.exhausted(resp.StatusCode) {
		return &RateLimitedError{Reset: rl.resetTime()}
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrRepositoryNotFound
	}
	return &HostError{Status: resp.StatusCode}
}

func retryable(err error) bool {
	if errors.Is(err, ErrRepositoryNotFound) {
		return false
	}
	if _, ok := AsRateLimited(err); ok {
		return false
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
