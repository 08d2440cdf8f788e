package mcptool

import (
	"context"
	"log/slog"

	"github.com/forgecraft/sah/internal/gitops"
	"github.com/forgecraft/sah/internal/issue"
	"github.com/forgecraft/sah/internal/kanban"
	"github.com/forgecraft/sah/internal/memo"
)

// ToolContext aggregates every handle a tool's Execute needs: the issue,
// memo, and kanban stores, the git operations handle, the process-wide
// rate limiter, working directory, logger, and the kanban plan-update
// broadcaster. It is attached to the context.Context passed into
// Tool.Execute rather than stored on individual tool structs, so a single
// Registry can serve tools built by different packages (issuetool,
// memotool, kanbantool, ...) from one construction site without those
// packages' constructors each taking their own dependency, and so the MCP
// and CLI dispatch paths hand every tool the exact same dependencies.
type ToolContext struct {
	WorkingDir string
	Logger     *slog.Logger
	Limiter    RateLimiter

	Issues        *issue.Store
	IssueWorkflow *issue.Workflow
	Memos         *memo.Store
	Cards         *kanban.Store
	Git           gitops.Operations
	PlanSender    *kanban.PlanBroadcaster
}

// RateLimiter is the minimal contract ToolContext needs from
// internal/ratelimit; defined here (not imported) to avoid a dependency
// from mcptool onto ratelimit.
type RateLimiter interface {
	Allow() bool
}

type toolContextKey struct{}

// WithToolContext attaches tc to ctx.
func WithToolContext(ctx context.Context, tc *ToolContext) context.Context {
	return context.WithValue(ctx, toolContextKey{}, tc)
}

// ToolContextFrom retrieves the ToolContext attached by WithToolContext,
// or a zero-value one if none was attached (useful in tests).
func ToolContextFrom(ctx context.Context) *ToolContext {
	if tc, ok := ctx.Value(toolContextKey{}).(*ToolContext); ok {
		return tc
	}
	return &ToolContext{Logger: slog.Default()}
}
