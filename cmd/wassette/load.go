package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/microsoft/wassette/internal/infrastructure/schemabridge"
)

func init() {
	rootCmd.AddCommand(newLoadCmd())
}

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <source>",
		Short: "Load a WebAssembly component as a set of MCP tools",
		Long:  `Fetch a component from a file, https, or oci origin and register its exported functions as callable tools.`,
		Example: `  wassette load file:///opt/components/calculator.wasm
  wassette load https://example.com/dist/weather.wasm
  wassette load oci://ghcr.io/acme/translator:v2`,
		Args: cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			resp, err := ctx.Container.ManagerService().LoadComponent(ctx.Context, schemabridge.LoadComponentRequest{
				Source: args[0],
			})
			if err != nil {
				return fmt.Errorf("failed to load component: %w", err)
			}

			fmt.Printf("Loaded component %s with %d tool(s):\n", resp.ComponentID, len(resp.Tools))
			for _, name := range resp.Tools {
				fmt.Printf("  %s\n", name)
			}
			return nil
		}),
	}

	addCommonFlags(cmd)

	return cmd
}
