// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/jamhost/jamhost/internal/config"
)

// rootConfig holds the persistent flags shared by every subcommand.
type rootConfig struct {
	configFile string
}

// NewRootCmd creates the root command for the jamhost CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmdWithDeps(nil)
}

func newRootCmdWithDeps(deps *Deps) *cobra.Command {
	root := &rootConfig{}

	cmd := &cobra.Command{
		Use:   "jamhost",
		Short: "jamhost - a minimal native plugin host",
		Long: `jamhost looks for shared libraries next to its own executable, selects
the first one that reports itself as a control plugin, and runs it once
through attach, invoke and detach.

Exit status: 0 success, 2 plugin directory unreadable, 3 no control plugin,
4 plugin entry points could not be bound, 5 plugin attach failed, 1 anything else.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHost(cmd, root, deps)
		},
	}

	cmd.PersistentFlags().StringVar(&root.configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newInspectCmd(root, deps))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(cmd.Root().Version)
		},
	}
}
