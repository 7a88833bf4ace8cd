package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newListCmd())
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List loaded components",
		Long:    `List every component currently registered with the Lifecycle Manager.`,
		Example: `  wassette list`,
		Args:    cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			summaries, err := ctx.Container.ManagerService().ListComponents(ctx.Context)
			if err != nil {
				return fmt.Errorf("failed to list components: %w", err)
			}

			if len(summaries) == 0 {
				fmt.Println("No components loaded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			if _, err := fmt.Fprintln(w, "ID\tTOOLS\tPOLICY"); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}

			for _, c := range summaries {
				policyState := "default-deny"
				if c.PolicyAttached {
					policyState = "attached"
				}
				if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", c.ID, c.ToolCount, policyState); err != nil {
					return fmt.Errorf("failed to write component info: %w", err)
				}
			}
			return w.Flush()
		}),
	}

	addCommonFlags(cmd)

	return cmd
}
