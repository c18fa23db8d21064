package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/repoflow/repoflow/internal/githost"
)

// DefaultMaxFileSize is the maximum file size to read (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// Local serves a project directory on disk through the same interface the
// hosted-repository client provides, so the analyzer can run offline.
// Branch fields on the reference are ignored; a checkout has exactly one.
type Local struct {
	root      string
	maxSize   int64
	gitignore []string
}

// NewLocal builds a Local source rooted at dir.
func NewLocal(dir string) (*Local, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	return &Local{
		root:      root,
		maxSize:   DefaultMaxFileSize,
		gitignore: loadGitignore(filepath.Join(root, ".gitignore")),
	}, nil
}

// Probe verifies the root exists and is a directory.
func (l *Local) Probe(ctx context.Context, ref githost.RepositoryReference) error {
	info, err := os.Stat(l.root)
	if err != nil {
		return fmt.Errorf("probing %s: %w", l.root, githost.ErrRepositoryNotFound)
	}
	if !info.IsDir() {
		return fmt.Errorf("probing %s: not a directory: %w", l.root, githost.ErrRepositoryNotFound)
	}
	return nil
}

// ListDirectory reads one directory level, dropping skip-set directories,
// gitignored entries, and anything that is neither a regular file nor a
// directory. Entries come back name-sorted for a stable scan order.
func (l *Local) ListDirectory(ctx context.Context, ref githost.RepositoryReference, dir string) ([]githost.RemoteFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs := filepath.Join(l.root, filepath.FromSlash(dir))
	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("listing %q: %w", dir, githost.ErrRepositoryNotFound)
		}
		return nil, fmt.Errorf("listing %q: %w", dir, err)
	}

	var entries []githost.RemoteFile
	for _, e := range dirEntries {
		name := e.Name()
		rel := name
		if dir != "" {
			rel = dir + "/" + name
		}

		switch {
		case e.IsDir():
			if githost.SkipDir(name) || matchesGitignore(rel, true, l.gitignore) {
				continue
			}
			entries = append(entries, githost.RemoteFile{
				Name: name,
				Path: rel,
				Kind: githost.FileKindDirectory,
			})
		case e.Type().IsRegular():
			if matchesGitignore(rel, false, l.gitignore) {
				continue
			}
			entries = append(entries, githost.RemoteFile{
				Name:            name,
				Path:            rel,
				Kind:            githost.FileKindFile,
				ContentLocation: filepath.Join(abs, name),
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// ReadFile returns a file body, or "" for anything oversized, binary, or
// unreadable. A bad file never aborts a run.
func (l *Local) ReadFile(ctx context.Context, handle string) string {
	if handle == "" {
		return ""
	}
	info, err := os.Stat(handle)
	if err != nil || info.Size() > l.maxSize {
		return ""
	}
	data, err := os.ReadFile(handle)
	if err != nil || isBinary(data) {
		return ""
	}
	return string(data)
}

// isBinary checks the first 512 bytes for NUL, a simple but effective
// heuristic for binary content.
func isBinary(data []byte) bool {
	n := min(len(data), 512)
	for i := range n {
		if data[i] == 0 {
			return true
		}
	}
	return false
}

// loadGitignore reads a .gitignore file and returns its non-empty,
// non-comment lines as patterns.
func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesGitignore checks a slash-relative path against gitignore patterns.
// Slashless patterns match any path component; patterns with a slash match
// the whole relative path. Directory-only patterns (trailing slash) apply to
// directory entries and to anything beneath one.
func matchesGitignore(relPath string, isDir bool, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	for _, pattern := range patterns {
		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")

		if !strings.Contains(pattern, "/") {
			parts := strings.Split(relPath, "/")
			for i, part := range parts {
				matched, _ := filepath.Match(pattern, part)
				if !matched {
					continue
				}
				if !dirOnly || i < len(parts)-1 || isDir {
					return true
				}
			}
		} else if matched, _ := filepath.Match(pattern, relPath); matched && (!dirOnly || isDir) {
			return true
		}
	}
	return false
}
