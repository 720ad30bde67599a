package commands

import (
	"context"
	"fmt"

	"github.com/bcnelson/pricing-catalog/internal/catalog"
	"github.com/spf13/cobra"
)

func resetCmd(rt *runtime) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Replace the stored catalog with the built-in default catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset discards the stored catalog; pass --yes to confirm")
			}
			return rt.withStore(cmd.Context(), func(ctx context.Context, store *catalog.Store) error {
				if err := store.ResetToDefault(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "catalog reset to defaults")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
