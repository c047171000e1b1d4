package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"codedesk/internal/agent"
	"codedesk/internal/config"
	"codedesk/internal/contextmgr"
	"codedesk/internal/conversation"
	"codedesk/internal/logging"
	"codedesk/internal/model"
	"codedesk/internal/orchestrator"
	"codedesk/internal/server"
	"codedesk/internal/types"
	"codedesk/internal/workspace"
)

// engineParts is everything serve and chat need from a wired engine.
type engineParts struct {
	engine   *orchestrator.Orchestrator
	registry *model.Registry
	files    *workspace.Files
	watcher  *workspace.Watcher
	archive  *conversation.Archive
}

// buildEngine wires the full stack from config.
func buildEngine(cfg *config.Config) (*engineParts, error) {
	registry, err := model.NewRegistry(cfg.Models)
	if err != nil {
		return nil, err
	}

	agents := []types.Agent{
		agent.NewChatAgent(registry, cfg.Agents),
		agent.NewCodeAgent(registry, cfg.Agents),
		agent.NewReasoningAgent(registry, cfg.Agents),
	}

	var archive *conversation.Archive
	if cfg.Conversation.ArchivePath != "" {
		path := cfg.Conversation.ArchivePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Workspace.Root, path)
		}
		archive, err = conversation.OpenArchive(path)
		if err != nil {
			// Archival is best-effort; run without it.
			logging.Boot("transcript archive unavailable: %v", err)
			archive = nil
		}
	}

	store := conversation.NewStore(archive)
	contexts := contextmgr.NewManager()

	engine, err := orchestrator.New(agents, store, contexts, cfg.Agents, orchestrator.Options{
		HistoryWindow: cfg.Conversation.HistoryWindow,
	})
	if err != nil {
		return nil, err
	}

	files, err := workspace.NewFiles(cfg.Workspace.Root)
	if err != nil {
		return nil, err
	}

	var watcher *workspace.Watcher
	if cfg.Workspace.Watch {
		watcher, err = workspace.NewWatcher(files.Root())
		if err != nil {
			logging.Boot("workspace watcher unavailable: %v", err)
			watcher = nil
		}
	}

	return &engineParts{
		engine:   engine,
		registry: registry,
		files:    files,
		watcher:  watcher,
		archive:  archive,
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := consoleLogger()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer logging.CloseAll()

			parts, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer parts.archive.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if parts.watcher != nil {
				if err := parts.watcher.Start(ctx); err != nil {
					log.Warnw("workspace watcher failed to start", "error", err)
				}
			}

			handlers := server.NewHandlers(parts.engine, parts.files, parts.watcher, parts.registry.Status)
			srv := server.New(cfg.Server.Addr(), cfg.Server.ShutdownTimeoutDuration(), handlers)

			log.Infow("codedesk serving", "addr", cfg.Server.Addr(), "workspace", cfg.Workspace.Root)
			return srv.Run(ctx)
		},
	}
}
