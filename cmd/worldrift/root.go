// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldrift Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Worldrift CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worldrift",
		Short: "Worldrift - per-player online worlds with travel between them",
		Long: `Worldrift serves per-player game worlds: a POI graph per world,
single-hop movement, travel sessions into other players' worlds, and
invasion reports for the owners.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
