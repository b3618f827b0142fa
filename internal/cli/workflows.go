package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petrijr/flowtree/internal/demo"
)

// NewWorkflowsCommand creates the workflows command.
func NewWorkflowsCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "workflows",
		Short: "List the registered demo workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tROOT\tDESCRIPTION")
			for _, e := range demo.NewRegistry().Entries() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Workflow.Identifier().Name, e.Description)
			}
			return w.Flush()
		},
	}
}
