// Package clitree generates a cobra command tree from the registered MCP
// tools' JSON schemas: one flag per schema property, optional domain/action
// subcommand grouping, and the safety limits the tool catalog is validated
// against before a single cobra.Command is built.
package clitree

import "github.com/forgecraft/sah/internal/errs"

// NamingStrategy controls how a tool name becomes a CLI command name.
type NamingStrategy int

const (
	// KeepOriginal uses the tool name verbatim (e.g. "issue_create").
	KeepOriginal NamingStrategy = iota
	// GroupByDomain splits "domain_action" tool names into a
	// "domain action" subcommand pair.
	GroupByDomain
	// Custom defers the transformation to a caller-supplied function.
	Custom
)

// CustomNamer transforms a tool name under NamingStrategy Custom.
type CustomNamer func(toolName string) string

// GenerationConfig controls the CLI generation pipeline.
type GenerationConfig struct {
	NamingStrategy  NamingStrategy
	CustomNamer     CustomNamer
	UseSubcommands  bool
	CommandPrefix   string
	MaxCommands     int
	IncludeExcluded bool
}

// DefaultGenerationConfig keeps tool names verbatim with no subcommands
// and a generous but finite command ceiling.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		NamingStrategy: KeepOriginal,
		MaxCommands:    500,
	}
}

// Validate rejects a whitespace-bearing prefix, a command ceiling that is
// not positive, and a Custom strategy with no namer function.
func (c GenerationConfig) Validate() error {
	if c.CommandPrefix != "" {
		if hasWhitespace(c.CommandPrefix) {
			return errs.New(errs.KindState, "config_validation", "command prefix cannot contain whitespace", errs.Error)
		}
	}
	if c.MaxCommands <= 0 {
		return errs.New(errs.KindState, "config_validation", "maximum commands must be greater than 0", errs.Error)
	}
	if c.NamingStrategy == Custom && c.CustomNamer == nil {
		return errs.New(errs.KindState, "config_validation", "custom naming strategy requires a namer function", errs.Error)
	}
	return nil
}

func hasWhitespace(s string) bool {
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return true
		}
	}
	return false
}

// TooManyCommands is returned when the eligible tool count exceeds
// MaxCommands.
func TooManyCommands(limit, attempted int) error {
	return errs.New(errs.KindState, "too_many_commands", "too many commands", errs.Error).
		WithData(map[string]any{"limit": limit, "attempted": attempted})
}

// Arg is a single CLI flag translated from a JSON Schema property.
type Arg struct {
	Name        string
	Description string
	Type        string // "string", "boolean", "number", "array", "object"
	Required    bool
	Default     any
	Enum        []string
	// ItemType is the element type for a Type == "array" arg, derived
	// from the schema's "items" property (empty if unspecified).
	ItemType string
	// Help is Description enriched with format/pattern/min/max hints
	// and, for an "object" arg, a note that the flag expects a JSON
	// object string. Cobra renders this instead of Description when set.
	Help string
	// Action names the cobra flag behavior this arg maps to: "set",
	// "set_true", or "append". It documents intent; buildLeaf still
	// switches on Type to pick the concrete cobra Flags() call.
	Action string
}

// GeneratedCommand is the intermediate representation between a tool's
// schema and its cobra.Command, letting generation and rendering stay in
// separate files (and be tested independently).
type GeneratedCommand struct {
	Name              string
	Description       string
	ToolName          string
	Args              []Arg
	SubcommandOf      string // empty for top-level commands
	IsSyntheticParent bool
}
