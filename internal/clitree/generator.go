package clitree

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/forgecraft/sah/internal/mcptool"
	"github.com/forgecraft/sah/internal/parameter"
)

// CLIExcluder is an optional interface a mcptool.Tool can implement to opt
// out of CLI generation (e.g. a tool that only makes sense behind an
// interactive prompt). Tools that don't implement it are eligible.
type CLIExcluder interface {
	CLIExcluded() bool
}

// Generator builds GeneratedCommands from a tool registry.
type Generator struct {
	registry *mcptool.Registry
	config   GenerationConfig
}

// NewGenerator creates a Generator with the default configuration.
func NewGenerator(registry *mcptool.Registry) *Generator {
	return &Generator{registry: registry, config: DefaultGenerationConfig()}
}

// WithConfig returns a copy of the generator using config.
func (g *Generator) WithConfig(config GenerationConfig) *Generator {
	return &Generator{registry: g.registry, config: config}
}

// Config returns the generator's current configuration.
func (g *Generator) Config() GenerationConfig { return g.config }

func (g *Generator) eligibleTools() []mcptool.ToolDefinition {
	var eligible []mcptool.ToolDefinition
	for _, name := range g.registry.Names() {
		t := g.registry.Get(name)
		if !g.config.IncludeExcluded {
			// Two ways a tool opts out: the legacy local-to-this-package
			// CLIExcluder interface, and the registry's own CLI metadata
			// (CliExclusionMarker / hidden_from_cli). Both are honored so
			// generation behaves the same whether a tool declares itself
			// through mcptool's typed markers or this package's own.
			if excl, ok := t.(CLIExcluder); ok && excl.CLIExcluded() {
				continue
			}
			if g.registry.CliMetadata(name).IsCliExcluded {
				continue
			}
		}
		eligible = append(eligible, mcptool.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return eligible
}

// GenerateCommands runs the full pipeline: validate config, gather eligible
// tools, translate each schema, apply naming/prefix/subcommand
// organization, and sort for stable output.
func (g *Generator) GenerateCommands() ([]GeneratedCommand, error) {
	if err := g.config.Validate(); err != nil {
		return nil, err
	}

	eligible := g.eligibleTools()
	if len(eligible) > g.config.MaxCommands {
		return nil, TooManyCommands(g.config.MaxCommands, len(eligible))
	}

	commands := make([]GeneratedCommand, 0, len(eligible))
	for _, def := range eligible {
		cmd, err := g.generateCommandForTool(def)
		if err != nil {
			// A single bad schema doesn't abort the whole run.
			slog.Warn("skipping tool with untranslatable schema", "tool", def.Name, "error", err)
			continue
		}
		commands = append(commands, cmd)
	}

	return g.organizeCommands(commands)
}

func (g *Generator) generateCommandForTool(def mcptool.ToolDefinition) (GeneratedCommand, error) {
	args, err := schemaToArgs(def.InputSchema)
	if err != nil {
		return GeneratedCommand{}, err
	}

	name := def.Name
	if g.config.NamingStrategy == Custom && g.config.CustomNamer != nil {
		name = g.config.CustomNamer(def.Name)
	}

	return GeneratedCommand{
		Name:        name,
		Description: def.Description,
		ToolName:    def.Name,
		Args:        args,
	}, nil
}

func (g *Generator) organizeCommands(commands []GeneratedCommand) ([]GeneratedCommand, error) {
	if g.config.CommandPrefix != "" {
		for i := range commands {
			if commands[i].SubcommandOf == "" {
				commands[i].Name = g.config.CommandPrefix + commands[i].Name
			}
		}
	}

	if g.config.UseSubcommands {
		commands = g.createSubcommandStructure(commands)
	}

	sort.SliceStable(commands, func(i, j int) bool {
		a, b := commands[i], commands[j]
		switch {
		case a.SubcommandOf == "" && b.SubcommandOf == "":
			return a.Name < b.Name
		case a.SubcommandOf == "" && b.SubcommandOf != "":
			return true
		case a.SubcommandOf != "" && b.SubcommandOf == "":
			return false
		default:
			if a.SubcommandOf != b.SubcommandOf {
				return a.SubcommandOf < b.SubcommandOf
			}
			return a.Name < b.Name
		}
	})

	return commands, nil
}

// createSubcommandStructure groups commands by the domain prefix of their
// tool name ("issue_create" -> domain "issue", action "create"),
// synthesizing a parent command for each domain encountered.
func (g *Generator) createSubcommandStructure(commands []GeneratedCommand) []GeneratedCommand {
	parents := make(map[string]GeneratedCommand)
	var parentOrder []string
	subcommands := make([]GeneratedCommand, 0, len(commands))

	for _, cmd := range commands {
		idx := strings.Index(cmd.ToolName, "_")
		if idx < 0 {
			subcommands = append(subcommands, cmd)
			continue
		}
		domain := cmd.ToolName[:idx]
		action := cmd.ToolName[idx+1:]

		if _, ok := parents[domain]; !ok {
			parents[domain] = GeneratedCommand{
				Name:              domain,
				Description:       fmt.Sprintf("Commands for %s operations", domain),
				ToolName:          domain + "_parent",
				IsSyntheticParent: true,
			}
			parentOrder = append(parentOrder, domain)
		}

		cmd.Name = strings.ReplaceAll(action, "_", "-")
		cmd.SubcommandOf = domain
		subcommands = append(subcommands, cmd)
	}

	result := make([]GeneratedCommand, 0, len(parents)+len(subcommands))
	for _, domain := range parentOrder {
		result = append(result, parents[domain])
	}
	result = append(result, subcommands...)
	return result
}

// --- schema translation ---
//
// schemaToArgs delegates the actual JSON Schema parsing to
// parameter.FromJSONSchema, the same translation tool input validation
// uses, so a property's type/required/enum/pattern reading can't drift
// between the CLI and the MCP dispatch path.

func schemaToArgs(raw json.RawMessage) ([]Arg, error) {
	params, err := parameter.FromJSONSchema(raw)
	if err != nil {
		return nil, err
	}

	args := make([]Arg, 0, len(params))
	for _, p := range params {
		argType := cliArgType(p.Type)
		arg := Arg{
			Name:        p.Name,
			Description: p.Description,
			Type:        argType,
			// A boolean flag is never required, even when the schema lists
			// it: a cobra bool defaults to false, so "required" could never
			// be meaningfully unsatisfied.
			Required: p.Required && argType != "boolean",
			Default:  p.Default,
			Enum:     p.Choices,
			Help:     buildHelp(p),
			Action:   actionFor(argType),
		}
		if p.Type == parameter.TypeArray {
			arg.ItemType = cliArgType(p.ItemType)
		}
		args = append(args, arg)
	}
	return args, nil
}

// cliArgType maps a Parameter's Type onto the handful of CLI flag shapes
// Arg.Type names. TypeChoice/TypeMultiChoice carry their restriction via
// Arg.Enum, not a distinct CLI type, since cobra has no native "choice"
// flag kind.
func cliArgType(t parameter.Type) string {
	switch t {
	case parameter.TypeBoolean:
		return "boolean"
	case parameter.TypeNumber:
		return "number"
	case parameter.TypeArray:
		return "array"
	case parameter.TypeObject:
		return "object"
	default:
		return "string"
	}
}

// buildHelp surfaces format/pattern/minimum/maximum in the help text
// only: these never change CLI validation, they just make `--help` more
// informative.
func buildHelp(p parameter.Parameter) string {
	help := p.Description
	if p.Format != "" {
		help = appendHelp(help, "format: "+p.Format)
	}
	if p.Pattern != "" {
		help = appendHelp(help, "pattern: "+p.Pattern)
	}
	if p.Min != nil {
		help = appendHelp(help, fmt.Sprintf("min: %v", *p.Min))
	}
	if p.Max != nil {
		help = appendHelp(help, fmt.Sprintf("max: %v", *p.Max))
	}
	if p.Type == parameter.TypeObject {
		help = appendHelp(help, "expects a JSON object string")
	}
	return help
}

func appendHelp(base, addition string) string {
	if base == "" {
		return addition
	}
	return base + " (" + addition + ")"
}

func actionFor(argType string) string {
	switch argType {
	case "boolean":
		return "set_true"
	case "array":
		return "append"
	default:
		return "set"
	}
}
