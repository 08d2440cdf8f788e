package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgecraft/sah/internal/session"
)

// compactionJob periodically sweeps every loaded session for compaction
// candidates and compacts them, running auto-compaction as a background
// job rather than an operation a caller must remember to invoke. It
// implements internal/scheduler.Job.
type compactionJob struct {
	manager *session.Manager
	cfg     session.CompactionConfig
	limit   int
}

func (compactionJob) Name() string { return "session-compaction" }

func (j compactionJob) Run(ctx context.Context) error {
	summary := j.manager.AutoCompactSessions(ctx, j.cfg, j.limit, truncatingSummarize)
	if len(summary.Failed) > 0 {
		return fmt.Errorf("compaction sweep: %d of %d candidates failed", len(summary.Failed), len(summary.Candidates))
	}
	return nil
}

// truncatingSummarize is the default, non-LLM SummarizeFunc: sah has no
// model-provider dependency of its own, so the background sweep falls back to a
// deterministic summary (the role and a length-bounded snippet of each
// message's content), good enough to keep a session's context bounded
// without inventing facts. An MCP client wanting real summarization
// should call the compaction operations itself with its own
// SummarizeFunc rather than rely on this sweep.
func truncatingSummarize(_ context.Context, messages []session.Message) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[compacted %d earlier messages]\n", len(messages)))
	for _, m := range messages {
		content := m.Content
		if len(content) > 80 {
			content = content[:80] + "…"
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", m.Role, content))
	}
	return b.String(), nil
}
