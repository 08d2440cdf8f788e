package clitree

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgecraft/sah/internal/mcptool"
)

// Build renders commands into a cobra command tree rooted at root. Each
// leaf command's RunE collects its flags into a JSON params blob and
// dispatches through registry.Execute. Boolean arguments are never marked
// required: cobra booleans default to false, so a "required" bool flag can
// never be meaningfully unsatisfied, and marking it so would make the flag
// impossible to omit even when false is the intended value.
func Build(root *cobra.Command, commands []GeneratedCommand, registry *mcptool.Registry, tc *mcptool.ToolContext) error {
	parents := make(map[string]*cobra.Command)

	for _, gc := range commands {
		if gc.IsSyntheticParent {
			parent := &cobra.Command{
				Use:   gc.Name,
				Short: gc.Description,
			}
			root.AddCommand(parent)
			parents[gc.Name] = parent
		}
	}

	for _, gc := range commands {
		if gc.IsSyntheticParent {
			continue
		}

		cmd := buildLeaf(gc, registry, tc)

		if gc.SubcommandOf != "" {
			parent, ok := parents[gc.SubcommandOf]
			if !ok {
				return fmt.Errorf("clitree: command %q references unknown parent %q", gc.Name, gc.SubcommandOf)
			}
			parent.AddCommand(cmd)
			continue
		}
		root.AddCommand(cmd)
	}

	return nil
}

func buildLeaf(gc GeneratedCommand, registry *mcptool.Registry, tc *mcptool.ToolContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   gc.Name,
		Short: gc.Description,
	}

	values := make(map[string]any, len(gc.Args))
	objectArgs := make(map[string]bool)
	for _, arg := range gc.Args {
		help := arg.Description
		if arg.Help != "" {
			help = arg.Help
		}
		switch arg.Type {
		case "boolean":
			var v bool
			if b, ok := arg.Default.(bool); ok {
				v = b
			}
			cmd.Flags().BoolVar(&v, arg.Name, v, help)
			values[arg.Name] = &v
		case "number":
			var v float64
			if f, ok := arg.Default.(float64); ok {
				v = f
			}
			cmd.Flags().Float64Var(&v, arg.Name, v, help)
			values[arg.Name] = &v
			if arg.Required {
				cmd.MarkFlagRequired(arg.Name)
			}
		case "array":
			var v []string
			cmd.Flags().StringSliceVar(&v, arg.Name, nil, help)
			values[arg.Name] = &v
			if arg.Required {
				cmd.MarkFlagRequired(arg.Name)
			}
		case "object":
			// An object-typed schema property takes a flag value that is
			// itself a JSON object string; RunE re-parses it below so the
			// dispatched params carry a real JSON object, not a string.
			var v string
			if s, ok := arg.Default.(string); ok {
				v = s
			}
			cmd.Flags().StringVar(&v, arg.Name, v, help)
			values[arg.Name] = &v
			objectArgs[arg.Name] = true
			if arg.Required {
				cmd.MarkFlagRequired(arg.Name)
			}
		default:
			var v string
			if s, ok := arg.Default.(string); ok {
				v = s
			}
			cmd.Flags().StringVar(&v, arg.Name, v, help)
			values[arg.Name] = &v
			if arg.Required {
				cmd.MarkFlagRequired(arg.Name)
			}
		}
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		params := make(map[string]any, len(values))
		for name, ptr := range values {
			switch v := ptr.(type) {
			case *bool:
				params[name] = *v
			case *float64:
				params[name] = *v
			case *[]string:
				params[name] = *v
			case *string:
				if *v == "" {
					continue
				}
				if objectArgs[name] {
					var obj any
					if err := json.Unmarshal([]byte(*v), &obj); err != nil {
						return fmt.Errorf("parsing --%s as JSON: %w", name, err)
					}
					params[name] = obj
					continue
				}
				params[name] = *v
			}
		}

		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshaling params for %q: %w", gc.ToolName, err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if tc != nil {
			ctx = mcptool.WithToolContext(ctx, tc)
		}

		result, err := registry.Execute(ctx, gc.ToolName, raw)
		if err != nil {
			return err
		}
		for _, block := range result.Content {
			fmt.Fprintln(cmd.OutOrStdout(), block.Text)
		}
		if result.IsError {
			return fmt.Errorf("%s failed", gc.ToolName)
		}
		return nil
	}

	return cmd
}
