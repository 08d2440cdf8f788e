// Package gitops wraps go-git to provide the small set of branch
// operations the issue workflow needs: creating and checking out an
// issue's work branch, merging it back to whichever branch it was
// actually started from, and reading the current branch name.
package gitops

import (
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/forgecraft/sah/internal/errs"
)

// Operations is the contract the issue workflow and its tools depend on,
// letting tests substitute an in-memory fake instead of a real
// repository.
type Operations interface {
	CurrentBranch() (string, error)
	BranchExists(name string) (bool, error)
	CreateAndCheckoutBranch(name string) error
	CheckoutBranch(name string) error
	CreateWorkBranch(issueName string) (string, error)
	MergeIssueBranch(issueName, targetBranch string) error
	AddAll() error
	Commit(message string) error
}

// Git is the go-git-backed implementation of Operations. All operations
// on a given working tree are serialized by mu: go-git's Worktree is not
// documented as safe for concurrent use, and this package's callers
// (issue work/merge tools) can legitimately run on a worker pool.
type Git struct {
	mu   sync.Mutex
	repo *git.Repository
}

// Open opens the git repository rooted at or above dir.
func Open(dir string) (*Git, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return nil, errs.NotInGitRepository()
		}
		return nil, errs.New(errs.KindGitWorkflow, "open_failed", err.Error(), errs.Critical).Wrap(err)
	}
	return &Git{repo: repo}, nil
}

// CurrentBranch returns the short name of the currently checked-out
// branch.
func (g *Git) CurrentBranch() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	head, err := g.repo.Head()
	if err != nil {
		return "", errs.New(errs.KindGitWorkflow, "head_unreadable", err.Error(), errs.Error).Wrap(err)
	}
	if !head.Name().IsBranch() {
		return "", errs.New(errs.KindGitWorkflow, "detached_head", "repository HEAD is detached", errs.Error)
	}
	return head.Name().Short(), nil
}

// BranchExists reports whether a local branch with the given short name
// exists.
func (g *Git) BranchExists(name string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, err := g.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return false, nil
		}
		return false, errs.New(errs.KindGitWorkflow, "branch_lookup_failed", err.Error(), errs.Error).Wrap(err)
	}
	return true, nil
}

// CreateAndCheckoutBranch creates name from the current HEAD and checks
// it out. It fails if the branch already exists.
func (g *Git) CreateAndCheckoutBranch(name string) error {
	exists, err := g.BranchExists(name)
	if err != nil {
		return err
	}
	if exists {
		return errs.BranchExists(name)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	wt, err := g.repo.Worktree()
	if err != nil {
		return errs.New(errs.KindGitWorkflow, "worktree_unavailable", err.Error(), errs.Critical).Wrap(err)
	}

	if err := wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	}); err != nil {
		return errs.New(errs.KindGitWorkflow, "checkout_failed", err.Error(), errs.Error).Wrap(err)
	}
	return nil
}

// CheckoutBranch checks out an existing branch.
func (g *Git) CheckoutBranch(name string) error {
	exists, err := g.BranchExists(name)
	if err != nil {
		return err
	}
	if !exists {
		return errs.BranchNotExist(name)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	wt, err := g.repo.Worktree()
	if err != nil {
		return errs.New(errs.KindGitWorkflow, "worktree_unavailable", err.Error(), errs.Critical).Wrap(err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}); err != nil {
		return errs.New(errs.KindGitWorkflow, "checkout_failed", err.Error(), errs.Error).Wrap(err)
	}
	return nil
}

// CreateWorkBranch creates and checks out "issue/{issueName}" from
// whatever branch is currently checked out, returning that source
// branch name so the caller can record it once, immutably, on the
// issue.
func (g *Git) CreateWorkBranch(issueName string) (string, error) {
	source, err := g.CurrentBranch()
	if err != nil {
		return "", err
	}

	branch := "issue/" + issueName
	if err := g.CreateAndCheckoutBranch(branch); err != nil {
		return "", err
	}
	return source, nil
}

// MergeIssueBranch fast-forwards targetBranch to "issue/{issueName}";
// a target that has diverged is rejected, never merged. The caller is expected to already be on the issue's
// work branch; merging from anywhere else is rejected since it would
// not be clear what is actually being merged.
func (g *Git) MergeIssueBranch(issueName, targetBranch string) error {
	current, err := g.CurrentBranch()
	if err != nil {
		return err
	}
	workBranch := "issue/" + issueName
	if current != workBranch {
		return errs.CannotMerge(issueName, current)
	}

	if err := g.CheckoutBranch(targetBranch); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	workRef, err := g.repo.Reference(plumbing.NewBranchReferenceName(workBranch), true)
	if err != nil {
		return errs.New(errs.KindGitWorkflow, "work_branch_unreadable", err.Error(), errs.Error).Wrap(err)
	}

	wt, err := g.repo.Worktree()
	if err != nil {
		return errs.New(errs.KindGitWorkflow, "worktree_unavailable", err.Error(), errs.Critical).Wrap(err)
	}

	targetHead, err := g.repo.Head()
	if err != nil {
		return errs.New(errs.KindGitWorkflow, "head_unreadable", err.Error(), errs.Error).Wrap(err)
	}

	if err := g.fastForwardOnly(wt, targetHead.Hash(), workRef.Hash(), issueName, targetBranch); err != nil {
		return err
	}
	return nil
}

// fastForwardOnly updates the currently checked-out branch (targetBranch)
// to workHash. go-git has no built-in three-way merge, so this only ever
// fast-forwards: it requires targetHash (the target branch's current
// commit) to be an ancestor of workHash (the work branch's tip) before
// moving the ref. If the target branch gained commits after the work
// branch was created, targetHash is no longer an ancestor and the merge
// is rejected with NonFastForwardMerge rather than silently discarding
// those commits by force-moving the ref anyway.
func (g *Git) fastForwardOnly(wt *git.Worktree, targetHash, workHash plumbing.Hash, issueName, targetBranch string) error {
	if targetHash != workHash {
		targetCommit, err := g.repo.CommitObject(targetHash)
		if err != nil {
			return errs.New(errs.KindGitWorkflow, "commit_unreadable", err.Error(), errs.Error).Wrap(err)
		}
		workCommit, err := g.repo.CommitObject(workHash)
		if err != nil {
			return errs.New(errs.KindGitWorkflow, "commit_unreadable", err.Error(), errs.Error).Wrap(err)
		}
		isAncestor, err := targetCommit.IsAncestor(workCommit)
		if err != nil {
			return errs.New(errs.KindGitWorkflow, "ancestry_check_failed", err.Error(), errs.Error).Wrap(err)
		}
		if !isAncestor {
			return errs.NonFastForwardMerge(issueName, targetBranch)
		}
	}

	head, err := g.repo.Head()
	if err != nil {
		return errs.New(errs.KindGitWorkflow, "head_unreadable", err.Error(), errs.Error).Wrap(err)
	}

	ref := plumbing.NewHashReference(head.Name(), workHash)
	if err := g.repo.Storer.SetReference(ref); err != nil {
		return errs.New(errs.KindGitWorkflow, "merge_failed", err.Error(), errs.Error).Wrap(err)
	}

	if err := wt.Checkout(&git.CheckoutOptions{Branch: head.Name(), Force: true}); err != nil {
		return errs.New(errs.KindGitWorkflow, "checkout_failed", err.Error(), errs.Error).Wrap(err)
	}

	return nil
}

// AddAll stages every change in the working tree.
func (g *Git) AddAll() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	wt, err := g.repo.Worktree()
	if err != nil {
		return errs.New(errs.KindGitWorkflow, "worktree_unavailable", err.Error(), errs.Critical).Wrap(err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return errs.New(errs.KindGitWorkflow, "add_failed", err.Error(), errs.Error).Wrap(err)
	}
	return nil
}

// Commit creates a commit from the current index.
func (g *Git) Commit(message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	wt, err := g.repo.Worktree()
	if err != nil {
		return errs.New(errs.KindGitWorkflow, "worktree_unavailable", err.Error(), errs.Critical).Wrap(err)
	}

	cfg, err := g.repo.ConfigScoped(config.SystemScope)
	author := &object.Signature{Name: "sah", Email: "sah@localhost"}
	if err == nil && cfg.User.Name != "" {
		author.Name = cfg.User.Name
		author.Email = cfg.User.Email
	}

	if _, err := wt.Commit(message, &git.CommitOptions{Author: author}); err != nil {
		return errs.New(errs.KindGitWorkflow, "commit_failed", err.Error(), errs.Error).Wrap(err)
	}
	return nil
}

// IsDirty reports whether the working tree has uncommitted changes.
func (g *Git) IsDirty() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	wt, err := g.repo.Worktree()
	if err != nil {
		return false, errs.New(errs.KindGitWorkflow, "worktree_unavailable", err.Error(), errs.Critical).Wrap(err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, errs.New(errs.KindGitWorkflow, "status_failed", err.Error(), errs.Error).Wrap(err)
	}
	return !status.IsClean(), nil
}
