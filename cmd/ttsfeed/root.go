// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ttsfeed/ttsfeed/internal/config"
	"github.com/ttsfeed/ttsfeed/internal/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the ttsfeed CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ttsfeed",
		Short: "ttsfeed - a small multi-user web application",
		Long: `ttsfeed serves a session-authenticated web application in which
new accounts wait for administrator approval before they can use it.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/ttsfeed/config.yaml)")

	cmd.AddCommand(newServeCmd(deps))
	cmd.AddCommand(newMigrateCmd(deps))
	cmd.AddCommand(newCreateAdminCmd(deps))

	return cmd
}

// loadConfig resolves configuration for cmd from the --config file, the
// command's flags and the environment.
func loadConfig(cmd *cobra.Command, getenv func(string) string) (*config.Config, error) {
	return config.Load(configFile, cmd.Flags(), getenv)
}

// setupLogging installs the process logger described by cfg.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	return logging.SetDefault(logging.Options{
		Service: "ttsfeed",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	})
}
