package cmd

import (
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewModelsCommand creates the models command, which prints the asset
// store's hardware model catalog as the reconciler would see it.
func NewModelsCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the asset store's hardware model catalog",
		Long: `Models fetches the asset store's full hardware model catalog and prints
it. Models without a model number are flagged: they can never match an
MDM device and are skipped by the reconciler.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.AssetStore()
			if err != nil {
				return err
			}

			models, err := store.Models(cmd.Context())
			if err != nil {
				return err
			}

			sort.Slice(models, func(i, j int) bool {
				return models[i].ModelNumber < models[j].ModelNumber
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			write := func(cols ...string) {
				for i, col := range cols {
					if i > 0 {
						w.Write([]byte{'\t'})
					}
					w.Write([]byte(col))
				}
				w.Write([]byte{'\n'})
			}

			write("ID", "MODEL NUMBER", "NAME")
			unmatched := 0
			for _, m := range models {
				number := m.ModelNumber
				if number == "" {
					number = "(none)"
					unmatched++
				}
				write(strconv.Itoa(m.ID), number, m.Name)
			}

			if unmatched > 0 {
				cmd.Printf("\n%d model(s) have no model number and are never matched\n", unmatched)
			}
			return nil
		},
	}
}
