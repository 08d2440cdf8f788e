package rules

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/forgecraft/sah/internal/errs"
)

// Store reads and writes rule files under a single rules root. Unlike
// the issue/memo stores there is no JSON index: the directory tree is
// the source of truth, and every List/Get re-reads from disk so rules
// edited by hand (their normal authoring mode) are picked up without a
// reload step.
type Store struct {
	mu   sync.Mutex
	root string
}

// NewStore opens a rule store rooted at dir. The directory is created
// lazily on first Create.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.root, name+".md")
}

// validName rejects names that would escape the rules root or collide
// with nothing a rule file can be: empty names, absolute paths, and any
// ".." segment.
func validName(name string) error {
	if name == "" {
		return errs.InvalidPath("rule name cannot be empty")
	}
	if filepath.IsAbs(name) || strings.Contains(name, "\\") {
		return errs.InvalidPath(name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return errs.InvalidPath(name)
		}
	}
	return nil
}

// Create writes a new rule file at {root}/{name}.md, creating any
// subdirectories the name implies. An existing rule with the same name
// is never overwritten.
func (s *Store) Create(name, body string, severity Severity, tags []string) (*Rule, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if body == "" {
		return nil, errs.New(errs.KindInvalidParameter, "empty_rule_content", "rule content cannot be empty", errs.Error)
	}
	sev, err := ParseSeverity(string(severity))
	if err != nil {
		return nil, errs.New(errs.KindInvalidParameter, "invalid_severity", err.Error(), errs.Error)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dest := s.path(name)
	if _, err := os.Stat(dest); err == nil {
		return nil, errs.New(errs.KindState, "rule_exists", "rule "+name+" already exists", errs.Error)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, errs.PermissionDenied(filepath.Dir(dest), err)
	}

	r := &Rule{Name: name, Severity: sev, Tags: tags, Body: body}
	data, err := marshalRule(r)
	if err != nil {
		return nil, errs.New(errs.KindIO, "rule_marshal_failed", err.Error(), errs.Error).Wrap(err)
	}

	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, errs.PermissionDenied(tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return nil, errs.PermissionDenied(dest, err)
	}
	return r, nil
}

// Get reads and parses a single rule by name.
func (s *Store) Get(name string) (*Rule, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("rule_not_found", "rule "+name+" not found")
		}
		return nil, errs.PermissionDenied(s.path(name), err)
	}
	r, err := parseRule(name, data)
	if err != nil {
		return nil, errs.RuleViolation("rule " + name + ": " + err.Error()).Wrap(err)
	}
	return r, nil
}

// List walks the rules tree and parses every .md file, sorted by name.
// Malformed rule files don't abort the walk: each becomes a
// rule-violation warning in the second return value, so one bad file
// never hides the rest of the rule set.
func (s *Store) List() ([]*Rule, []*errs.E, error) {
	var (
		rules      []*Rule
		violations []*errs.E
	)

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.root {
				return filepath.SkipAll // no rules directory yet: empty set
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ".md")

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		r, err := parseRule(name, data)
		if err != nil {
			violations = append(violations, errs.RuleViolation("rule "+name+": "+err.Error()))
			return nil
		}
		rules = append(rules, r)
		return nil
	})
	if err != nil {
		return nil, nil, errs.PermissionDenied(s.root, err)
	}

	sort.Slice(rules, func(a, b int) bool { return rules[a].Name < rules[b].Name })
	return rules, violations, nil
}

// ListByTag filters List down to rules carrying tag.
func (s *Store) ListByTag(tag string) ([]*Rule, []*errs.E, error) {
	all, violations, err := s.List()
	if err != nil {
		return nil, nil, err
	}
	var out []*Rule
	for _, r := range all {
		if r.HasTag(tag) {
			out = append(out, r)
		}
	}
	return out, violations, nil
}
