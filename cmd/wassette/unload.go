package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/microsoft/wassette/internal/infrastructure/schemabridge"
)

func init() {
	rootCmd.AddCommand(newUnloadCmd())
}

func newUnloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "unload <component-id>",
		Short:   "Unload a component and remove its tools",
		Long:    `Wait for any outstanding calls to drain, then unregister a component and its tools.`,
		Example: `  wassette unload calculator`,
		Args:    cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			resp, err := ctx.Container.ManagerService().UnloadComponent(ctx.Context, schemabridge.UnloadComponentRequest{
				ID: args[0],
			})
			if err != nil {
				return fmt.Errorf("failed to unload component: %w", err)
			}

			fmt.Printf("Unloaded component %s at %s\n", resp.ID, resp.UnloadedAt)
			return nil
		}),
	}

	addCommonFlags(cmd)

	return cmd
}
