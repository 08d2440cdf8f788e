package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgecraft/sah/internal/mcpserver"
	"github.com/forgecraft/sah/internal/mcptool"
	"github.com/forgecraft/sah/internal/scheduler"
	"github.com/forgecraft/sah/internal/session"
)

// shutdownGrace bounds how long an in-flight HTTP request gets to finish
// after a SIGINT/SIGTERM before the listener is torn down anyway.
const shutdownGrace = 5 * time.Second

// newServeCommand runs the MCP server over whichever transport the
// resolved config selects: load config, build a registry, hand it to a
// server, block on ctx until a signal or the transport's own shutdown.
func newServeCommand() *cobra.Command {
	var transportFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sah MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			mode := a.cfg.Transport.Mode
			if transportFlag != "" {
				mode = transportFlag
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			sched := scheduler.NewScheduler(a.logger)
			sched.AddJob(compactionJob{
				manager: a.sessions,
				cfg: session.CompactionConfig{
					PreserveRecent: a.cfg.Session.PreserveRecent,
				},
				limit: a.cfg.Session.ContextLimit,
			}, time.Duration(a.cfg.Session.CompactionIntervalSeconds)*time.Second)
			sched.Start(ctx)
			defer sched.Stop()

			info := mcptool.ServerInfo{Name: a.cfg.Server.Name, Version: a.cfg.Server.Version}
			if version != "dev" {
				info.Version = version
			}
			server := mcpserver.NewServer(a.registry, info, a.logger, a.toolCtx)

			switch mode {
			case "stdio":
				a.logger.Info("serving over stdio")
				return server.Run(ctx)
			case "http":
				return runHTTP(ctx, a, server)
			default:
				return fmt.Errorf("unknown transport %q (must be \"stdio\" or \"http\")", mode)
			}
		},
	}

	cmd.Flags().StringVar(&transportFlag, "transport", "", "override the configured transport (stdio, http)")
	return cmd
}

func runHTTP(ctx context.Context, a *app, server *mcpserver.Server) error {
	httpServer := mcpserver.NewHTTPServer(server, a.cfg.Transport.CORSOrigins, a.cfg.Transport.BearerToken, a.logger)
	addr := a.cfg.Transport.Host + ":" + a.cfg.Transport.Port

	srv := &http.Server{
		Addr:    addr,
		Handler: httpServer.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving over streamable http", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
