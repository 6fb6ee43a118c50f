package main

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kbukum/nodegraph/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(version.Get())
	},
}
