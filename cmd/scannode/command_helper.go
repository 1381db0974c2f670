package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/scannode/internal/infrastructure/container"
	"github.com/reglet-dev/scannode/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CommandContext provides common command dependencies.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
}

// CommandHandler is a function that executes with initialized dependencies.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with container initialization:
// config loading, validation and the node's adapters.
func withContainer(handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadNodeConfig(viper.GetViper())
		if err != nil {
			return err
		}

		logger := slog.Default()

		c, err := container.New(container.Options{
			Config:          cfg,
			Logger:          logger,
			FirmwareVersion: version.Version,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize node: %w", err)
		}

		ctx := &CommandContext{
			Container: c,
			Logger:    c.Logger(),
			Context:   cmd.Context(),
		}
		if ctx.Context == nil {
			ctx.Context = context.Background()
		}

		return handler(ctx, cmd, args)
	}
}
