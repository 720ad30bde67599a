package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/bcnelson/pricing-catalog/internal/catalog"
	"github.com/bcnelson/pricing-catalog/internal/storage"
	"github.com/spf13/cobra"
)

func exportCmd(rt *runtime) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := storage.ParseFormat(format)
			if err != nil {
				return err
			}
			if format == "" && output != "" {
				f = storage.FormatFromPath(output)
			}

			return rt.withStore(cmd.Context(), func(ctx context.Context, store *catalog.Store) error {
				regions, err := store.Regions()
				if err != nil {
					return err
				}
				data, err := storage.MarshalCatalog(regions, f)
				if err != nil {
					return err
				}
				if output == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d regions to %s\n", len(regions), output)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output format: json or yaml (default from --output extension, else json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
