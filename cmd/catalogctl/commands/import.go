package commands

import (
	"context"
	"fmt"

	"github.com/bcnelson/pricing-catalog/internal/catalog"
	"github.com/spf13/cobra"
)

func importCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored catalog with a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			regions, err := readCatalogFile(args[0])
			if err != nil {
				return err
			}

			return rt.withStore(cmd.Context(), func(ctx context.Context, store *catalog.Store) error {
				if err := store.Replace(ctx, regions); err != nil {
					return err
				}
				if err := store.SaveChanges(ctx); err != nil {
					return err
				}
				stats := store.Stats()
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d regions, %d countries, %d services\n",
					stats.Regions, stats.Countries, stats.Services)
				return nil
			})
		},
	}
}
