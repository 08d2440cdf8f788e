package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// newConfigCommand prints the fully resolved configuration (file merge +
// environment overlay + derived paths) as TOML, so a user can see exactly
// what sah.toml/sah.yaml/sah.yml/sah.json plus their environment resolved
// to without re-deriving the merge rules by hand.
func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved sah configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			enc := toml.NewEncoder(cmd.OutOrStdout())
			if err := enc.Encode(a.cfg); err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n# derived paths\nroot = %q\nstate_dir = %q\nissues_dir = %q\nmemos_dir = %q\nkanban_dir = %q\nsessions_dir = %q\nabort_file = %q\n",
				a.cfg.Paths.Root, a.cfg.Paths.StateDir, a.cfg.Paths.IssuesDir, a.cfg.Paths.MemosDir,
				a.cfg.Paths.KanbanDir, a.cfg.Paths.Sessions, a.cfg.Paths.AbortFile)
			return nil
		},
	}
}
