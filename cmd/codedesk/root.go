package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codedesk/internal/config"
	"codedesk/internal/logging"
)

var flagWorkspace string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codedesk",
		Short: "Multi-agent coding assistant backend",
		Long: "codedesk runs a multi-agent orchestration engine for coding assistance:\n" +
			"requests are classified into workflows and dispatched across chat, code,\n" +
			"and reasoning agents backed by local or hosted model providers.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", ".", "project workspace directory")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(chatCmd())
	cmd.AddCommand(initCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

// loadConfig loads config for the workspace flag and initializes file logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagWorkspace)
	if err != nil {
		return nil, err
	}
	if err := logging.Initialize(flagWorkspace); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	return cfg, nil
}

// consoleLogger is the terminal-facing logger for the cmd layer; file logging
// stays on the internal logging package.
func consoleLogger() (*zap.SugaredLogger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.DisableStacktrace = true
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the codedesk version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.Default().Version)
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if err := cfg.Save(flagWorkspace); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", config.ConfigPath(flagWorkspace))
			return nil
		},
	}
}
