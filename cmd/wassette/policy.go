package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/microsoft/wassette/internal/infrastructure/prompt"
	"github.com/microsoft/wassette/internal/infrastructure/schemabridge"
)

func init() {
	rootCmd.AddCommand(newPolicyCmd())
}

// newPolicyCmd builds the `policy` command group: get, grant-*,
// revoke-*, and reset, mirroring the Manager's own MCP tool surface.
func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect and mutate a component's effective policy",
	}

	cmd.AddCommand(
		newPolicyGetCmd(),
		newPolicyGrantStorageCmd(),
		newPolicyRevokeStorageCmd(),
		newPolicyGrantNetworkCmd(),
		newPolicyRevokeNetworkCmd(),
		newPolicyGrantEnvCmd(),
		newPolicyRevokeEnvCmd(),
		newPolicyResetCmd(),
	)

	return cmd
}

func printPolicy(resp *schemabridge.PolicyResponse) {
	fmt.Printf("Component: %s (%s)\n", resp.ID, resp.Source)
	fmt.Printf("%+v\n", resp.Policy)
}

// confirmGrant asks the user to approve an expansion of access unless
// --yes was passed; in non-interactive mode without --yes, it refuses.
func confirmGrant(cmd *cobra.Command, description string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if yes {
		return nil
	}

	p := prompt.NewTerminalPrompter()
	if !p.IsInteractive() {
		return prompt.FormatNonInteractiveError(description)
	}

	ok, err := p.Confirm(description)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("grant cancelled")
	}
	return nil
}

func addYesFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("yes", false, "skip the interactive confirmation prompt")
}

func newPolicyGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <component-id>",
		Short: "Print a component's effective policy",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			resp, err := ctx.Container.ManagerService().GetPolicy(ctx.Context, schemabridge.GetPolicyRequest{ID: args[0]})
			if err != nil {
				return fmt.Errorf("failed to get policy: %w", err)
			}
			printPolicy(resp)
			return nil
		}),
	}
	addCommonFlags(cmd)
	return cmd
}

func newPolicyGrantStorageCmd() *cobra.Command {
	var access string
	cmd := &cobra.Command{
		Use:   "grant-storage <component-id> <uri>",
		Short: "Grant a storage access rule",
		Args:  cobra.ExactArgs(2),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			accessList := strings.Split(access, ",")
			if err := confirmGrant(cmd, fmt.Sprintf("storage %s access to %s for %s", access, args[1], args[0])); err != nil {
				return err
			}
			resp, err := ctx.Container.ManagerService().GrantStoragePermission(ctx.Context, schemabridge.GrantStorageRequest{
				ID: args[0], URI: args[1], Access: accessList,
			})
			if err != nil {
				return fmt.Errorf("failed to grant storage permission: %w", err)
			}
			printPolicy(resp)
			return nil
		}),
	}
	cmd.Flags().StringVar(&access, "access", "read", "comma-separated access atoms (read,write)")
	addYesFlag(cmd)
	addCommonFlags(cmd)
	return cmd
}

func newPolicyRevokeStorageCmd() *cobra.Command {
	var access string
	cmd := &cobra.Command{
		Use:   "revoke-storage <component-id> <uri>",
		Short: "Revoke a storage access rule",
		Args:  cobra.ExactArgs(2),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			var accessList []string
			if access != "" {
				accessList = strings.Split(access, ",")
			}
			resp, err := ctx.Container.ManagerService().RevokeStoragePermission(ctx.Context, schemabridge.RevokeStorageRequest{
				ID: args[0], URI: args[1], Access: accessList,
			})
			if err != nil {
				return fmt.Errorf("failed to revoke storage permission: %w", err)
			}
			printPolicy(resp)
			return nil
		}),
	}
	cmd.Flags().StringVar(&access, "access", "", "comma-separated access atoms to revoke; empty revokes the whole rule")
	addCommonFlags(cmd)
	return cmd
}

func newPolicyGrantNetworkCmd() *cobra.Command {
	var ports string
	var protocol string
	cmd := &cobra.Command{
		Use:   "grant-network <component-id> <host>",
		Short: "Grant a network access rule",
		Args:  cobra.ExactArgs(2),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			portList, err := parsePorts(ports)
			if err != nil {
				return err
			}
			if err := confirmGrant(cmd, fmt.Sprintf("network access to %s for %s", args[1], args[0])); err != nil {
				return err
			}
			resp, err := ctx.Container.ManagerService().GrantNetworkPermission(ctx.Context, schemabridge.GrantNetworkRequest{
				ID: args[0], Host: args[1], Ports: portList, Protocol: protocol,
			})
			if err != nil {
				return fmt.Errorf("failed to grant network permission: %w", err)
			}
			printPolicy(resp)
			return nil
		}),
	}
	cmd.Flags().StringVar(&ports, "ports", "", "comma-separated port list; empty means any port")
	cmd.Flags().StringVar(&protocol, "protocol", "", "protocol scheme filter, e.g. https")
	addYesFlag(cmd)
	addCommonFlags(cmd)
	return cmd
}

func newPolicyRevokeNetworkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke-network <component-id> <host>",
		Short: "Revoke a network access rule",
		Args:  cobra.ExactArgs(2),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			resp, err := ctx.Container.ManagerService().RevokeNetworkPermission(ctx.Context, schemabridge.RevokeNetworkRequest{
				ID: args[0], Host: args[1],
			})
			if err != nil {
				return fmt.Errorf("failed to revoke network permission: %w", err)
			}
			printPolicy(resp)
			return nil
		}),
	}
	addCommonFlags(cmd)
	return cmd
}

func newPolicyGrantEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant-env <component-id> <key>",
		Short: "Grant access to an environment variable",
		Args:  cobra.ExactArgs(2),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			if err := confirmGrant(cmd, fmt.Sprintf("environment variable %s for %s", args[1], args[0])); err != nil {
				return err
			}
			resp, err := ctx.Container.ManagerService().GrantEnvironmentVariablePermission(ctx.Context, schemabridge.GrantEnvRequest{
				ID: args[0], Key: args[1],
			})
			if err != nil {
				return fmt.Errorf("failed to grant environment variable permission: %w", err)
			}
			printPolicy(resp)
			return nil
		}),
	}
	addYesFlag(cmd)
	addCommonFlags(cmd)
	return cmd
}

func newPolicyRevokeEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke-env <component-id> <key>",
		Short: "Revoke access to an environment variable",
		Args:  cobra.ExactArgs(2),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			resp, err := ctx.Container.ManagerService().RevokeEnvironmentVariablePermission(ctx.Context, schemabridge.RevokeEnvRequest{
				ID: args[0], Key: args[1],
			})
			if err != nil {
				return fmt.Errorf("failed to revoke environment variable permission: %w", err)
			}
			printPolicy(resp)
			return nil
		}),
	}
	addCommonFlags(cmd)
	return cmd
}

func newPolicyResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset <component-id>",
		Short: "Clear a component's runtime overlay, reverting to its base policy",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			resp, err := ctx.Container.ManagerService().ResetPermission(ctx.Context, schemabridge.ResetPermissionRequest{ID: args[0]})
			if err != nil {
				return fmt.Errorf("failed to reset permissions: %w", err)
			}
			printPolicy(resp)
			return nil
		}),
	}
	addCommonFlags(cmd)
	return cmd
}

func parsePorts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ports := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", p, err)
		}
		ports = append(ports, n)
	}
	return ports, nil
}
