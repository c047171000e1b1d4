package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"codedesk/internal/logging"
	"codedesk/internal/orchestrator"
	"codedesk/internal/types"
)

func chatCmd() *cobra.Command {
	var workflow string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session against the local engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
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
					logging.Boot("workspace watcher failed to start: %v", err)
				}
			}

			convID := parts.engine.CreateConversation(nil)
			fmt.Printf("codedesk %s - conversation %s\n", cfg.Version, convID)
			fmt.Println("type a request, or /quit to exit")

			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "/quit" || line == "/exit" {
					break
				}

				result, err := parts.engine.Process(ctx, orchestrator.ProcessRequest{
					Input:          line,
					ConversationID: convID,
					Context:        workspaceContext(parts),
					Workflow:       types.Workflow(workflow),
				})
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}

				fmt.Printf("\n[%s via %s]\n%s\n\n", result.Workflow, strings.Join(result.Metadata.Steps, " -> "), result.Response)
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&workflow, "workflow", "auto", "workflow to use (auto, chat-first, code-first, reasoning-first, collaborative)")
	return cmd
}

func workspaceContext(parts *engineParts) types.Context {
	if parts.watcher == nil {
		return nil
	}
	return parts.watcher.Context()
}
