package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

// newPlanCommand and newImplementCommand reserve the "plan"/"implement"
// top-level names so they never collide with dynamically generated
// domain commands. Their actual behavior is LLM-driven and lives with an
// external collaborator, so they report that plainly rather than faking
// a response.
func newPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Generate an implementation plan (requires an LLM backend)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "sah plan requires an LLM backend, which this build does not wire in; use the issue/memo/kanban tools directly or via an MCP client that supplies its own model.")
			return nil
		},
	}
}

func newImplementCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "implement",
		Short: "Execute an implementation plan (requires an LLM backend)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "sah implement requires an LLM backend, which this build does not wire in; use the issue/memo/kanban tools directly or via an MCP client that supplies its own model.")
			return nil
		},
	}
}

// newFlowCommand lists the workflow definitions present under
// .swissarmyhammer/workflows/; it does
// not execute them, since workflow execution is the LLM-driven
// implement/plan surface this repository leaves to an external
// collaborator.
func newFlowCommand() *cobra.Command {
	list := &cobra.Command{
		Use:   "list",
		Short: "List workflow definitions under .swissarmyhammer/workflows/",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			entries, err := os.ReadDir(a.cfg.Paths.Workflows)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(cmd.OutOrStdout(), "no workflows directory yet")
					return nil
				}
				return fmt.Errorf("reading workflows directory: %w", err)
			}
			var names []string
			for _, e := range entries {
				if !e.IsDir() {
					names = append(names, filepath.Base(e.Name()))
				}
			}
			sort.Strings(names)
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Inspect workflow definitions",
	}
	cmd.AddCommand(list)
	return cmd
}

// newPromptCommand lists the MCP prompts the registry currently exposes.
// Prompt content itself is authored elsewhere; this surfaces whatever is
// registered through the registry's Prompt capability
// (internal/mcptool.Registry.ListPrompts).
func newPromptCommand() *cobra.Command {
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered MCP prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			prompts := a.registry.ListPrompts()
			if len(prompts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no prompts registered")
				return nil
			}
			for _, p := range prompts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Name, p.Description)
			}
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Inspect registered MCP prompts",
	}
	cmd.AddCommand(list)
	return cmd
}
