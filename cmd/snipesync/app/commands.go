package app

import (
	"github.com/spf13/cobra"

	"github.com/macbridge/snipesync/cmd/snipesync/cmd"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(cmd.NewSyncCommand(a))
	rootCmd.AddCommand(cmd.NewModelsCommand(a))
	rootCmd.AddCommand(cmd.NewCheckCommand(a))
	rootCmd.AddCommand(cmd.NewVersionCommand(a))
}

// Ensure App satisfies the dependency surface the commands consume.
var _ cmd.App = (*App)(nil)
