package githost

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultBranch is assumed when a repository URL carries no branch segment.
const DefaultBranch = "main"

// RepositoryReference identifies one repository and branch on the content host.
// It is resolved once per analysis run and not mutated afterwards.
type RepositoryReference struct {
	URL    string `json:"url"`
	Owner  string `json:"owner"`
	Name   string `json:"name"`
	Branch string `json:"branch"`

	branchDefaulted bool
}

// BranchDefaulted reports whether the branch was assumed rather than given in
// the URL. Only defaulted references are retried against "master" when the
// host reports the tree missing.
func (r RepositoryReference) BranchDefaulted() bool {
	return r.branchDefaulted
}

// WithBranch returns a copy of the reference pinned to the given branch.
func (r RepositoryReference) WithBranch(branch string) RepositoryReference {
	r.Branch = branch
	r.branchDefaulted = false
	return r
}

func (r RepositoryReference) String() string {
	return fmt.Sprintf("%s/%s@%s", r.Owner, r.Name, r.Branch)
}

var repoURLRe = regexp.MustCompile(`^(?:https?://)?(?:www\.)?github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+?)(?:\.git)?(?:/tree/([^?#]+))?$`)

// ParseRepoURL turns a user-supplied repository URL into a structured
// reference. The branch defaults to "main" when the URL has no /tree/ segment.
// Inputs that do not look like a repository URL fail with ErrInvalidReference.
func ParseRepoURL(raw string) (RepositoryReference, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), "/")

	m := repoURLRe.FindStringSubmatch(trimmed)
	if m == nil {
		return RepositoryReference{}, fmt.Errorf("parsing repository url %q: %w", raw, ErrInvalidReference)
	}

	ref := RepositoryReference{
		URL:    trimmed,
		Owner:  m[1],
		Name:   m[2],
		Branch: m[3],
	}
	if ref.Branch == "" {
		ref.Branch = DefaultBranch
		ref.branchDefaulted = true
	}
	return ref, nil
}
