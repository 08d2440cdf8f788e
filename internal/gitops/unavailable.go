package gitops

import "github.com/forgecraft/sah/internal/errs"

// Unavailable is an Operations implementation for use when sah is running
// outside any git repository: the git operations handle in ToolContext is
// optional and may be absent outside a repository, but
// issue.Workflow holds a concrete gitops.Operations rather than a *gitops
// pointer that could be nil, so a caller outside a repository wires this
// in instead of leaving the field nil (which would panic on first use
// rather than returning the typed not-in-git-repository error).
type Unavailable struct{}

// NewUnavailable returns an Operations value whose every method reports
// errs.NotInGitRepository.
func NewUnavailable() Unavailable { return Unavailable{} }

func (Unavailable) CurrentBranch() (string, error) { return "", errs.NotInGitRepository() }
func (Unavailable) BranchExists(name string) (bool, error) { return false, errs.NotInGitRepository() }
func (Unavailable) CreateAndCheckoutBranch(name string) error { return errs.NotInGitRepository() }
func (Unavailable) CheckoutBranch(name string) error { return errs.NotInGitRepository() }
func (Unavailable) CreateWorkBranch(issueName string) (string, error) {
	return "", errs.NotInGitRepository()
}
func (Unavailable) MergeIssueBranch(issueName, targetBranch string) error {
	return errs.NotInGitRepository()
}
func (Unavailable) AddAll() error     { return errs.NotInGitRepository() }
func (Unavailable) Commit(string) error { return errs.NotInGitRepository() }
