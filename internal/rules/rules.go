// Package rules loads and writes project rule files: markdown documents
// under .swissarmyhammer/rules/ (optionally nested in subdirectories)
// with a minimal YAML frontmatter carrying a severity and optional tags.
// Rule checking itself is LLM-driven and lives with an external
// collaborator; this package owns the file format and the store.
package rules

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Severity is a rule's reporting level.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// ParseSeverity normalizes and validates a severity string. Input is
// lower-cased, so "Error" and "ERROR" are accepted.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToLower(s)); sev {
	case SeverityError, SeverityWarning, SeverityInfo, SeverityHint:
		return sev, nil
	default:
		return "", fmt.Errorf("invalid severity %q (must be one of: error, warning, info, hint)", s)
	}
}

// Rule is one parsed rule file. Name includes any subdirectory path
// relative to the rules root, without the .md extension (e.g.
// "code-quality/no-global-state").
type Rule struct {
	Name     string
	Severity Severity
	Tags     []string
	Body     string
}

// HasTag reports whether the rule carries tag.
func (r *Rule) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// frontmatter is the YAML document between the two "---" markers.
type frontmatter struct {
	Severity string   `yaml:"severity"`
	Tags     []string `yaml:"tags,omitempty"`
}

const frontmatterDelim = "---"

// marshalRule renders a rule file: frontmatter between "---" markers,
// then a blank line, then the markdown body.
func marshalRule(r *Rule) ([]byte, error) {
	fm, err := yaml.Marshal(frontmatter{Severity: string(r.Severity), Tags: r.Tags})
	if err != nil {
		return nil, fmt.Errorf("serializing frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString(frontmatterDelim + "\n")
	b.Write(fm)
	b.WriteString(frontmatterDelim + "\n\n")
	b.WriteString(r.Body)
	return []byte(b.String()), nil
}

// parseRule parses a rule file's content. name is attached to the
// returned rule verbatim.
func parseRule(name string, data []byte) (*Rule, error) {
	text := string(data)
	if !strings.HasPrefix(text, frontmatterDelim+"\n") {
		return nil, fmt.Errorf("missing frontmatter: file must begin with %q", frontmatterDelim)
	}
	rest := text[len(frontmatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end < 0 {
		return nil, fmt.Errorf("unterminated frontmatter: no closing %q", frontmatterDelim)
	}
	fmText := rest[:end+1]
	body := rest[end+1+len(frontmatterDelim):]
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	sev, err := ParseSeverity(fm.Severity)
	if err != nil {
		return nil, err
	}

	return &Rule{Name: name, Severity: sev, Tags: fm.Tags, Body: body}, nil
}
