// Package errs provides the severity-tagged error taxonomy shared by every
// core component: invalid-parameter, content, state, git/workflow, and IO
// errors, plus the mechanical severity mapping that drives logging and
// batch-failure behavior.
package errs

import (
	"errors"
	"fmt"
)

// Severity classifies the impact of an error.
type Severity int

const (
	// Warning is a non-critical issue; the operation still succeeds.
	Warning Severity = iota
	// Error means a specific operation failed but the system continues.
	Error
	// Critical means the system cannot continue without intervention.
	Critical
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// Severifier is implemented by every error kind in this package.
type Severifier interface {
	error
	Severity() Severity
}

// Kind identifies the broad error family, used for JSON-RPC code mapping.
type Kind int

const (
	KindInvalidParameter Kind = iota
	KindContent
	KindState
	KindGitWorkflow
	KindIO
	KindRuleViolation
)

// Enhanced carries optional user-facing hints: explanation, examples,
// suggestions, and whether a retry makes sense.
type Enhanced struct {
	Explanation string
	Examples    []string
	Suggestions []string
	Recoverable bool
}

// E is the concrete error type used throughout the core. It is deliberately
// a single struct rather than a family of types; Kind + Code carry the
// variant.
type E struct {
	Kind     Kind
	Code     string // stable machine-readable sub-code, e.g. "tool_not_found"
	Message  string
	Sev      Severity
	Data     map[string]any // type-specific fields (providedSize, supportedFormats, ...)
	Enhanced *Enhanced
	Wrapped  error
}

func (e *E) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *E) Unwrap() error { return e.Wrapped }

func (e *E) Severity() Severity { return e.Sev }

// JSONRPCCode maps an error Kind (and, for Content, the sub-code) to its
// JSON-RPC error code.
func (e *E) JSONRPCCode() int {
	switch e.Kind {
	case KindInvalidParameter:
		return -32602
	case KindContent:
		if e.Code == "security_validation_failed_internal" || e.Code == "memory_allocation_failed" {
			return -32603
		}
		return -32602
	default:
		return -32603
	}
}

// New builds an *E with explicit severity.
func New(kind Kind, code, message string, sev Severity) *E {
	return &E{Kind: kind, Code: code, Message: message, Sev: sev}
}

// WithData attaches type-specific JSON-RPC data fields.
func (e *E) WithData(kv map[string]any) *E {
	e.Data = kv
	return e
}

// WithEnhancement attaches user-facing hints.
func (e *E) WithEnhancement(enh Enhanced) *E {
	e.Enhanced = &enh
	return e
}

// Wrap attaches an underlying cause.
func (e *E) Wrap(cause error) *E {
	e.Wrapped = cause
	return e
}

// --- Constructors for the named error kinds ---

func NotFound(code, message string) *E {
	return New(KindState, code, message, Error)
}

func RegistrationDuplicate(name string) *E {
	return New(KindState, "registration_duplicate", fmt.Sprintf("tool %q already registered", name), Error)
}

func NotInGitRepository() *E {
	return New(KindGitWorkflow, "not_in_git_repository", "must be run from within a git repository", Critical)
}

func DirtyWorkingTree(detail string) *E {
	return New(KindGitWorkflow, "dirty_working_tree", "working tree has uncommitted changes: "+detail, Error)
}

func BranchExists(name string) *E {
	return New(KindGitWorkflow, "branch_exists", fmt.Sprintf("branch %q already exists", name), Error)
}

func BranchNotExist(name string) *E {
	return New(KindGitWorkflow, "branch_not_exist", fmt.Sprintf("branch %q does not exist", name), Error)
}

func CannotMerge(issueName, currentBranch string) *E {
	return New(KindGitWorkflow, "cannot_merge_from_non_issue_branch",
		fmt.Sprintf("cannot merge issue %q: current branch %q is not its work branch", issueName, currentBranch),
		Error)
}

func SourceBranchMissing(issueName string) *E {
	return New(KindGitWorkflow, "source_branch_missing", fmt.Sprintf("issue %q has no recorded source branch", issueName), Error)
}

// NonFastForwardMerge reports that an issue's target branch gained commits
// of its own after the work branch was created, so a fast-forward would
// silently discard them. go-git has no three-way merge; rather than force
// the ref forward and lose history, the merge fails and asks for a manual
// merge/rebase instead.
func NonFastForwardMerge(issueName, targetBranch string) *E {
	return New(KindGitWorkflow, "non_fast_forward_merge",
		fmt.Sprintf("cannot merge issue %q: branch %q has diverged since the work branch was created; fast-forward is not possible", issueName, targetBranch),
		Error)
}

// RateLimited reports that a tool call was rejected by the process-wide
// rate limiter before it ever reached the tool's Execute.
func RateLimited() *E {
	return New(KindState, "rate_limited", "rate limit exceeded, try again shortly", Error).
		WithEnhancement(Enhanced{Recoverable: true})
}

func FileNotFound(path string) *E {
	return New(KindIO, "file_not_found", "file not found: "+path, Error)
}

func PermissionDenied(path string, cause error) *E {
	return New(KindIO, "permission_denied", "permission denied: "+path, Critical).Wrap(cause)
}

func NotAFile(path string) *E {
	return New(KindIO, "not_a_file", "not a file: "+path, Error)
}

func InvalidPath(path string) *E {
	return New(KindIO, "invalid_path", "invalid path: "+path, Error)
}

func RuleViolation(message string) *E {
	return New(KindRuleViolation, "rule_violation", message, Warning)
}

// Chain renders the full cause chain: one "Error: " line, then indented
// "Caused by: " lines.
func Chain(err error) string {
	if err == nil {
		return ""
	}
	s := "Error: " + err.Error()
	indent := 1
	for {
		u := errors.Unwrap(err)
		if u == nil {
			break
		}
		s += "\n"
		for i := 0; i < indent; i++ {
			s += "  "
		}
		s += "Caused by: " + u.Error()
		err = u
		indent++
	}
	return s
}

// As is a thin re-export of errors.As so callers don't need a second import
// just to type-assert an *E out of a wrapped chain.
func As(err error, target **E) bool {
	return errors.As(err, target)
}
