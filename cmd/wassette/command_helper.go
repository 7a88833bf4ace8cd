package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/microsoft/wassette/internal/infrastructure/container"
)

// CommandContext provides common command dependencies. Eliminates
// repetitive container initialization across CLI commands.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
}

// CommandHandler is a function that executes with initialized
// dependencies. Commands focus on business logic, not infrastructure
// setup.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with container initialization.
func withContainer(handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		logger := slog.Default()

		c, err := container.New(container.Options{
			SystemConfigPath: configPath,
			Logger:           logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		ctx := &CommandContext{
			Container: c,
			Logger:    logger,
			Context:   cmd.Context(),
		}

		return handler(ctx, cmd, args)
	}
}

// addCommonFlags adds standard flags to a command.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file")
}
