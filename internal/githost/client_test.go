package githost

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:    srv.URL,
		Token:      "test-token",
		RetryDelay: time.Millisecond,
	})
}

func testRef(t *testing.T) RepositoryReference {
	t.Helper()
	ref, err := ParseRepoURL("https://github.com/acme/webshop")
	if err != nil {
		t.Fatal(err)
	}
	return ref
}

func TestListDirectory(t *testing.T) {
	var gotAccept, gotUA, gotAuth string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/repos/acme/webshop/contents/src" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ref := r.URL.Query().Get("ref"); ref != "main" {
			t.Errorf("ref query = %q, want main", ref)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name":"pages","path":"src/pages","type":"dir"},
			{"name":"node_modules","path":"src/node_modules","type":"dir"},
			{"name":"App.tsx","path":"src/App.tsx","type":"file","download_url":"http://raw.test/App.tsx"},
			{"name":"logo.svg","path":"src/logo.svg","type":"symlink"}
		]`))
	})

	files, err := client.ListDirectory(context.Background(), testRef(t), "src")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}

	if gotAccept != "application/vnd.github.v3+json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotUA == "" {
		t.Error("expected a User-Agent header")
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	if len(files) != 2 {
		t.Fatalf("got %d entries, want 2 (skip-set and unknown types dropped): %+v", len(files), files)
	}
	if files[0].Kind != FileKindDirectory || files[0].Name != "pages" {
		t.Errorf("files[0] = %+v", files[0])
	}
	if files[1].Kind != FileKindFile || files[1].ContentLocation != "http://raw.test/App.tsx" {
		t.Errorf("files[1] = %+v", files[1])
	}
}

func TestProbeNotFound(t *testing.T) {
	attempts := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.Probe(context.Background(), testRef(t))
	if !IsNotFound(err) {
		t.Fatalf("Probe = %v, want not-found", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (not-found is never retried)", attempts)
	}
}

func TestProbeRateLimited(t *testing.T) {
	reset := time.Now().Add(30 * time.Minute).Unix()
	attempts := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("x-ratelimit-remaining", "0")
		w.Header().Set("x-ratelimit-reset", strconv.FormatInt(reset, 10))
		w.WriteHeader(http.StatusForbidden)
	})

	err := client.Probe(context.Background(), testRef(t))
	rl, ok := AsRateLimited(err)
	if !ok {
		t.Fatalf("Probe = %v, want RateLimitedError", err)
	}
	if !rl.Reset.Equal(time.Unix(reset, 0)) {
		t.Errorf("reset = %v, want %v", rl.Reset, time.Unix(reset, 0))
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (rate limiting is never retried)", attempts)
	}
}

func TestTransientRetried(t *testing.T) {
	attempts := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	})

	if _, err := client.ListDirectory(context.Background(), testRef(t), ""); err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestTransientExhausted(t *testing.T) {
	attempts := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.ListDirectory(context.Background(), testRef(t), "src")
	var hostErr *HostError
	if !errors.As(err, &hostErr) {
		t.Fatalf("ListDirectory = %v, want HostError", err)
	}
	if hostErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", hostErr.Status)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (two retries)", attempts)
	}
}

func TestReadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.Write([]byte("export function HomePage() {}"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(Config{BaseURL: srv.URL, RetryDelay: time.Millisecond})

	if got := client.ReadFile(context.Background(), srv.URL+"/ok"); got != "export function HomePage() {}" {
		t.Errorf("ReadFile = %q", got)
	}
	if got := client.ReadFile(context.Background(), srv.URL+"/boom"); got != "" {
		t.Errorf("ReadFile on failure = %q, want empty", got)
	}
	if got := client.ReadFile(context.Background(), ""); got != "" {
		t.Errorf("ReadFile on empty handle = %q, want empty", got)
	}
}

func TestParseRateLimitHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("x-ratelimit-remaining", "0")
	h.Set("x-ratelimit-reset", "1700000000")

	rl := parseRateLimit(h)
	if rl.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", rl.Remaining)
	}
	if !rl.Reset.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("reset = %v", rl.Reset)
	}
	if !rl.exhausted(http.StatusForbidden) {
		t.Error("403 with zero remaining should be exhausted")
	}
	if rl.exhausted(http.StatusOK) {
		t.Error("200 should never be exhausted")
	}

	empty := parseRateLimit(http.Header{})
	if empty.Remaining != -1 {
		t.Errorf("absent remaining = %d, want -1", empty.Remaining)
	}
	if empty.exhausted(http.StatusForbidden) {
		t.Error("403 without headers is not rate limiting")
	}
	if !empty.exhausted(http.StatusTooManyRequests) {
		t.Error("429 is always rate limiting")
	}
}

