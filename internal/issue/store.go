package issue

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/forgecraft/sah/internal/errs"
)

// Store is a filesystem-backed issue tracker. Pending and active issues
// live at {root}/{name}.md; completing an issue moves its file to
// {root}/complete/{name}.md, matching the on-disk layout a developer
// browsing the issues directory would expect to see change as work
// finishes. Metadata (status, source branch, timestamps) rides alongside
// the markdown body in a front-matter-free sidecar: one map of name to
// Issue held in memory and mirrored to a single index file, since the
// markdown files themselves carry no structured header.
type Store struct {
	root string

	mu     sync.RWMutex
	issues map[string]*Issue
}

// NewStore opens (without yet loading) an issue store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir, issues: make(map[string]*Issue)}
}

func (s *Store) completeDir() string {
	return filepath.Join(s.root, "complete")
}

func (s *Store) bodyPath(i *Issue) string {
	dir := s.root
	if i.Status == StatusCompleted {
		dir = s.completeDir()
	}
	return filepath.Join(dir, i.Name+".md")
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, ".index.json")
}

// Create registers a new pending issue with the given markdown content.
// name must be unique among all issues this store has ever tracked,
// completed or not.
func (s *Store) Create(name, content string) (*Issue, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errs.InvalidPath(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.issues[name]; exists {
		return nil, errs.New(errs.KindState, "issue_exists",
			fmt.Sprintf("issue %q already exists", name), errs.Error)
	}

	i := &Issue{
		Name:      name,
		Content:   content,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.writeBody(i); err != nil {
		return nil, err
	}
	s.issues[name] = i

	if err := s.persistIndex(); err != nil {
		return nil, err
	}
	return i, nil
}

// Get returns a copy-free pointer to the named issue.
func (s *Store) Get(name string) (*Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.issues[name]
	if !ok {
		return nil, errs.NotFound("issue_not_found", fmt.Sprintf("issue %q not found", name))
	}
	return i, nil
}

// List returns every tracked issue sorted by name.
func (s *Store) List() []*Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Issue, 0, len(s.issues))
	for _, i := range s.issues {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// Start transitions an issue from pending to active and, if it has no
// recorded source branch yet, stamps sourceBranch onto it. Once a source
// branch is recorded it is immutable: a later call with a different
// branch is rejected rather than silently overwriting the original base,
// since merging back to the wrong branch would be far worse than
// refusing the request.
func (s *Store) Start(name, sourceBranch string) (*Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.issues[name]
	if !ok {
		return nil, errs.NotFound("issue_not_found", fmt.Sprintf("issue %q not found", name))
	}

	if err := Validate(i.Status, StatusActive); err != nil {
		return nil, err
	}

	if i.SourceBranch != "" && i.SourceBranch != sourceBranch {
		return nil, errs.New(errs.KindGitWorkflow, "source_branch_immutable",
			fmt.Sprintf("issue %q already has source branch %q, cannot change to %q",
				name, i.SourceBranch, sourceBranch), errs.Error)
	}

	i.Status = StatusActive
	if i.SourceBranch == "" {
		i.SourceBranch = sourceBranch
	}

	if err := s.persistIndex(); err != nil {
		return nil, err
	}
	return i, nil
}

// Complete transitions an issue to completed and moves its markdown file
// into the complete/ subdirectory.
func (s *Store) Complete(name string) (*Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.issues[name]
	if !ok {
		return nil, errs.NotFound("issue_not_found", fmt.Sprintf("issue %q not found", name))
	}

	if err := Validate(i.Status, StatusCompleted); err != nil {
		return nil, err
	}
	if i.SourceBranch == "" {
		return nil, errs.SourceBranchMissing(name)
	}

	oldPath := s.bodyPath(i)

	now := time.Now()
	i.Status = StatusCompleted
	i.CompletedAt = &now

	if err := os.MkdirAll(s.completeDir(), 0o755); err != nil {
		return nil, errs.PermissionDenied(s.completeDir(), err)
	}
	if err := os.Rename(oldPath, s.bodyPath(i)); err != nil {
		return nil, errs.PermissionDenied(oldPath, err)
	}

	if err := s.persistIndex(); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Store) writeBody(i *Issue) error {
	dir := filepath.Dir(s.bodyPath(i))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.PermissionDenied(dir, err)
	}
	if err := os.WriteFile(s.bodyPath(i), []byte(i.Content), 0o644); err != nil {
		return errs.PermissionDenied(s.bodyPath(i), err)
	}
	return nil
}
