// Command sah runs the SwissArmyHammer MCP server and its companion
// dynamically generated CLI, wiring the tool registry, issue/memo/kanban
// stores, git integration, and the content-validation pipeline together.
//
// Required environment: none. sah operates against the current working
// directory's .swissarmyhammer/ state and, for issue work/merge, a git
// repository at or above that directory.
//
// Optional environment variables:
//
//	SAH_TRANSPORT         - "stdio" (default) or "http"
//	SAH_PORT, SAH_HOST    - HTTP listen address (mode "http" only)
//	SAH_CORS_ORIGINS      - comma-separated CORS allow-list (mode "http")
//	SAH_BEARER_TOKEN      - bearer token required by the HTTP transport
//	SAH_LOG_LEVEL         - debug, info, warn, error (default: info)
//	SAH_CONTENT_PROFILE   - strict, moderate, permissive (default: moderate)
//	SAH_RATE_LIMIT_RPS    - tool-call rate limit, requests/sec
//	SAH_RATE_LIMIT_BURST  - tool-call rate limit burst
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgecraft/sah/internal/clitree"
	"github.com/forgecraft/sah/internal/config"
	"github.com/forgecraft/sah/internal/gitops"
	"github.com/forgecraft/sah/internal/issue"
	"github.com/forgecraft/sah/internal/issuetool"
	"github.com/forgecraft/sah/internal/kanban"
	"github.com/forgecraft/sah/internal/kanbantool"
	"github.com/forgecraft/sah/internal/mcptool"
	"github.com/forgecraft/sah/internal/memo"
	"github.com/forgecraft/sah/internal/memotool"
	"github.com/forgecraft/sah/internal/ratelimit"
	"github.com/forgecraft/sah/internal/rules"
	"github.com/forgecraft/sah/internal/session"
	"github.com/forgecraft/sah/internal/workflow"
)

// version is set via -ldflags "-X main.version=..." at release build time.
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sah: %v\n", err)
		os.Exit(1)
	}
}

// app bundles everything the static and generated commands dispatch
// through: the loaded config, the tool registry, and the shared
// ToolContext every Tool.Execute call reads from its context.Context.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *mcptool.Registry
	toolCtx  *mcptool.ToolContext
	issues   *issue.Store
	memos    *memo.Store
	cards    *kanban.Store
	rules    *rules.Store
	sessions *session.Manager
	workflow *issue.Workflow
	guard    *workflow.Guard
}

// newApp loads config rooted at the current working directory, opens (or
// gracefully skips) the git repository, and registers every issue, memo,
// and kanban tool.
func newApp() (*app, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	guard := workflow.New(cfg.Paths.StateDir)

	issues := issue.NewStore(cfg.Paths.IssuesDir)
	if err := issues.Load(); err != nil {
		return nil, fmt.Errorf("loading issue index: %w", err)
	}
	memos := memo.NewStore(cfg.Paths.MemosDir)
	if err := memos.Load(); err != nil {
		return nil, fmt.Errorf("loading memo index: %w", err)
	}
	cards := kanban.NewStore(cfg.Paths.KanbanDir)
	if err := cards.Load(); err != nil {
		return nil, fmt.Errorf("loading kanban index: %w", err)
	}
	ruleStore := rules.NewStore(cfg.Paths.Rules)

	var gitOps gitops.Operations
	if g, err := gitops.Open(cfg.Paths.Root); err == nil {
		gitOps = g
	} else {
		logger.Debug("no git repository detected; issue work/merge will report not-in-git-repository", "dir", cfg.Paths.Root)
		gitOps = gitops.NewUnavailable()
	}
	wf := issue.NewWorkflow(issues, gitOps, guard)

	limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	broadcaster := kanban.NewPlanBroadcaster(16)
	sessions := session.NewManager(cfg.Paths.Sessions)

	registry := mcptool.NewRegistry()
	tools := []mcptool.Tool{
		issuetool.NewCreate(),
		issuetool.NewWork(),
		issuetool.NewComplete(),
		issuetool.NewMerge(),
		issuetool.NewList(),
		issuetool.NewShow(),
		memotool.NewCreate(),
		memotool.NewGet(),
		memotool.NewList(),
		memotool.NewUpdate(),
		memotool.NewDelete(),
		kanbantool.NewAddCard(),
		kanbantool.NewGet(),
		kanbantool.NewList(),
		kanbantool.NewMoveCard(),
	}
	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("registering tool %q: %w", t.Name(), err)
		}
	}

	toolCtx := &mcptool.ToolContext{
		WorkingDir:    cfg.Paths.Root,
		Logger:        logger,
		Limiter:       limiter,
		Issues:        issues,
		IssueWorkflow: wf,
		Memos:         memos,
		Cards:         cards,
		Git:           gitOps,
		PlanSender:    broadcaster,
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		toolCtx:  toolCtx,
		issues:   issues,
		memos:    memos,
		cards:    cards,
		rules:    ruleStore,
		sessions: sessions,
		workflow: wf,
		guard:    guard,
	}, nil
}

// newRootCommand builds the cobra command tree: the static top-level
// commands (serve, doctor, validate, plan, implement,
// config, completion, prompt, flow; "completion" comes from cobra's
// built-in default) plus, layered on top, the dynamically generated
// issue/memo/kanban commands. Dynamic generation runs here, once newApp
// succeeds; when newApp fails (e.g. config.Load fails outside any
// project directory) the tree keeps only the static commands, so
// `sah --help` still works.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sah",
		Short:         "SwissArmyHammer developer agent platform",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newDoctorCommand())
	root.AddCommand(newValidateCommand())
	root.AddCommand(newConfigCommand())
	root.AddCommand(newPlanCommand())
	root.AddCommand(newImplementCommand())
	root.AddCommand(newFlowCommand())
	root.AddCommand(newPromptCommand())

	a, err := newApp()
	if err != nil {
		// Dynamic commands can't be generated without an app; static
		// commands are still registered and --help/--version still work.
		// Any command that actually runs gets the initialization error
		// from the root's PersistentPreRunE.
		root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("initializing sah: %w", err)
		}
		return root
	}

	genConfig := clitree.DefaultGenerationConfig()
	genConfig.UseSubcommands = true
	generator := clitree.NewGenerator(a.registry).WithConfig(genConfig)
	commands, genErr := generator.GenerateCommands()
	if genErr != nil {
		a.logger.Error("CLI generation failed; dynamic commands unavailable", "error", genErr)
		return root
	}
	if buildErr := clitree.Build(root, commands, a.registry, a.toolCtx); buildErr != nil {
		a.logger.Error("CLI tree assembly failed", "error", buildErr)
	}

	return root
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
