package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgecraft/sah/internal/gitops"
	"github.com/forgecraft/sah/internal/workflow"
)

// newDoctorCommand reports on the health of the resolved project: config
// load, git repository detection, the issues/sessions directories, and
// whether a stale abort sentinel is present. It never modifies state.
func newDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the health of the current sah project",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "sah doctor: %s\n\n", a.cfg.Paths.Root)

			fmt.Fprintf(out, "[ok] configuration loaded (transport=%s, content profile=%s)\n",
				a.cfg.Transport.Mode, a.cfg.Content.Profile)

			if _, err := gitops.Open(a.cfg.Paths.Root); err != nil {
				fmt.Fprintf(out, "[warn] no git repository detected at or above %s; issue work/merge unavailable\n", a.cfg.Paths.Root)
			} else {
				fmt.Fprintln(out, "[ok] git repository detected")
			}

			checkDir(out, "issues", a.cfg.Paths.IssuesDir)
			checkDir(out, "memos", a.cfg.Paths.MemosDir)
			checkDir(out, "kanban", a.cfg.Paths.KanbanDir)
			checkDir(out, "sessions", a.cfg.Paths.Sessions)

			ruleSet, violations, err := a.rules.List()
			if err != nil {
				fmt.Fprintf(out, "[warn] rules directory unreadable: %v\n", err)
			} else {
				fmt.Fprintf(out, "[ok] %d rules loaded\n", len(ruleSet))
				for _, v := range violations {
					fmt.Fprintf(out, "[warn] %v\n", v)
				}
			}

			if _, err := os.Stat(workflow.SentinelPath(a.cfg.Paths.StateDir)); err == nil {
				fmt.Fprintf(out, "[warn] abort sentinel present at %s; a prior workflow run did not complete cleanly\n",
					workflow.SentinelPath(a.cfg.Paths.StateDir))
			} else {
				fmt.Fprintln(out, "[ok] no abort sentinel")
			}

			fmt.Fprintf(out, "\n%d issues, %d memos, %d kanban cards tracked\n",
				len(a.issues.List()), len(a.memos.List()), len(a.cards.List()))

			return nil
		},
	}
}

func checkDir(out io.Writer, label, dir string) {
	if _, err := os.Stat(dir); err != nil {
		fmt.Fprintf(out, "[info] %s directory not yet created: %s\n", label, dir)
		return
	}
	fmt.Fprintf(out, "[ok] %s directory present: %s\n", label, dir)
}
