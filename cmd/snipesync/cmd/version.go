package cmd

import (
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(app App) *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("snipesync %s\n", app.Version())
			if detailed {
				cmd.Printf("  commit: %s\n", app.Commit())
				cmd.Printf("  built:  %s\n", app.Date())
			}
		},
	}

	cmd.Flags().BoolVar(&detailed, "detailed", false, "include commit and build date")

	return cmd
}
