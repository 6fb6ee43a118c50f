// nodegraph loads graph definitions written in YAML, evaluates them and
// prints the results.
//
// Usage:
//
//	nodegraph run pricing.yaml [--set total.b=5] [--tree] [--levels]
//	nodegraph kinds
//	nodegraph version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/nodegraph/version"
)

var rootFlags struct {
	config  string
	envFile string
}

var rootCmd = &cobra.Command{
	Use:   "nodegraph",
	Short: "Evaluate incremental computation graphs",
	Long:  "nodegraph builds dependency-tracked node graphs from YAML definitions\nand evaluates them, recomputing only what changed.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.config, "config", "", "settings file (default: search for nodegraph.yml)")
	pf.StringVar(&rootFlags.envFile, "env-file", "", ".env file with NODIFY_* variables")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version.Get().String()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
