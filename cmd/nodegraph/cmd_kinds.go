package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/nodegraph/node"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the registered node kinds and their signatures",
	RunE:  runKinds,
}

func runKinds(cmd *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tSIGNATURE\tPARENT")
	for _, k := range node.DefaultRegistry().Kinds() {
		parent := "-"
		if p := k.Parent(); p != nil {
			parent = p.Name()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", k.Name(), k.Signature(), parent)
	}
	return w.Flush()
}
