package issue

import (
	"context"
	"fmt"

	"github.com/forgecraft/sah/internal/errs"
	"github.com/forgecraft/sah/internal/gitops"
	"github.com/forgecraft/sah/internal/workflow"
)

// Workflow ties the issue Store to the git repository and the abort
// sentinel, implementing the `work`/`merge` operations that the Store's
// own Start/Complete methods deliberately leave to the caller: the Store
// only ever touches its own index and markdown files, never git.
type Workflow struct {
	Store *Store
	Git   gitops.Operations
	Guard *workflow.Guard
}

// NewWorkflow wires a Store, a git Operations implementation, and an
// abort-sentinel Guard into a single orchestrator.
func NewWorkflow(store *Store, git gitops.Operations, guard *workflow.Guard) *Workflow {
	return &Workflow{Store: store, Git: git, Guard: guard}
}

// Work begins (or resumes) work on an issue: forbidden while already on
// another issue's work branch, idempotent while already on this issue's
// own work branch, and a plain checkout when invoked again from the
// recorded source branch.
func (w *Workflow) Work(ctx context.Context, name string) (*Issue, error) {
	// Starting a new run clears any stale sentinel a previous failed run
	// left behind.
	if err := w.Guard.Clear(); err != nil {
		return nil, err
	}

	i, err := w.Store.Get(name)
	if err != nil {
		return nil, err
	}
	workBranch := i.WorkBranch()

	current, err := w.Git.CurrentBranch()
	if err != nil {
		return nil, err
	}

	if current == workBranch {
		// Idempotent: already on this issue's own work branch.
		if i.Status != StatusActive {
			return w.Store.Start(name, i.SourceBranch)
		}
		return i, nil
	}

	if isWorkBranch(current) {
		return nil, errs.New(errs.KindGitWorkflow, "already_on_work_branch",
			fmt.Sprintf("cannot start work on %q while on another issue's work branch %q", name, current),
			errs.Error)
	}

	exists, err := w.Git.BranchExists(workBranch)
	if err != nil {
		return nil, err
	}
	if exists {
		// Re-entering from the source branch: just check the existing
		// work branch back out. The issue is already active from the
		// first work call, so there's nothing left for the store to do.
		if err := w.Git.CheckoutBranch(workBranch); err != nil {
			return nil, err
		}
		if i.Status != StatusActive {
			return w.Store.Start(name, i.SourceBranch)
		}
		return i, nil
	}

	source, err := w.Git.CreateWorkBranch(name)
	if err != nil {
		return nil, err
	}
	return w.Store.Start(name, source)
}

// Merge requires the current branch to be the issue's work branch. If
// it is not, it writes an abort sentinel naming the invalid branch and
// the issue before failing with a "cannot merge" error. On success the
// work branch is merged into the issue's recorded source branch and
// that branch is checked out.
func (w *Workflow) Merge(ctx context.Context, name string) (*Issue, error) {
	if err := w.Guard.Clear(); err != nil {
		return nil, err
	}

	i, err := w.Store.Get(name)
	if err != nil {
		return nil, err
	}
	if i.SourceBranch == "" {
		return nil, errs.SourceBranchMissing(name)
	}

	current, err := w.Git.CurrentBranch()
	if err != nil {
		return nil, err
	}
	workBranch := i.WorkBranch()

	if current != workBranch {
		reason := fmt.Sprintf("Cannot merge issue %q: current branch is %q, expected work branch %q", name, current, workBranch)
		if _, abortErr := w.Guard.Abort(ctx, reason); abortErr != nil {
			return nil, abortErr
		}
		return nil, errs.CannotMerge(name, current)
	}

	if err := w.Git.MergeIssueBranch(name, i.SourceBranch); err != nil {
		return nil, err
	}

	return i, nil
}

func isWorkBranch(branch string) bool {
	return len(branch) > len("issue/") && branch[:len("issue/")] == "issue/"
}
