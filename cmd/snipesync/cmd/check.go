package cmd

import (
	"github.com/spf13/cobra"

	"github.com/macbridge/snipesync/pkg/errors"
)

// errUnreachableSystem is returned when any connectivity probe fails so the
// command exits non-zero.
var errUnreachableSystem = errors.New("one or more systems are unreachable")

// NewCheckCommand creates the check command, a connectivity probe against
// both systems.
func NewCheckCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify connectivity to the MDM and the asset store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mdm, err := app.MDM()
			if err != nil {
				return err
			}
			store, err := app.AssetStore()
			if err != nil {
				return err
			}

			failed := false

			if err := mdm.Ping(cmd.Context()); err != nil {
				cmd.Printf("MDM:         FAIL (%v)\n", err)
				failed = true
			} else {
				cmd.Printf("MDM:         OK\n")
			}

			if err := store.Ping(cmd.Context()); err != nil {
				cmd.Printf("Asset store: FAIL (%v)\n", err)
				failed = true
			} else {
				cmd.Printf("Asset store: OK\n")
			}

			if failed {
				return errUnreachableSystem
			}
			return nil
		},
	}
}
