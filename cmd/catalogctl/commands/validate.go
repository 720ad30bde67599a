package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/bcnelson/pricing-catalog/internal/storage"
	"github.com/bcnelson/pricing-catalog/internal/validation"
	"github.com/spf13/cobra"
)

func validateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a catalog file, or the stored catalog when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var regions []domain.Region
			if len(args) == 1 {
				loaded, err := readCatalogFile(args[0])
				if err != nil {
					return err
				}
				regions = loaded
			} else {
				err := rt.withGateway(cmd.Context(), func(ctx context.Context, gateway storage.CatalogGateway) error {
					loaded, err := gateway.LoadCatalog(ctx)
					regions = loaded
					return err
				})
				if err != nil {
					return err
				}
			}

			errs := validation.ValidateCatalog(normalized(regions))
			out := cmd.OutOrStdout()
			for _, e := range errs {
				fmt.Fprintf(out, "%s: %s (value %q)\n", e.Field, e.Message, e.Value)
			}
			if errs.HasErrors() {
				return fmt.Errorf("catalog has %d validation errors", len(errs))
			}
			fmt.Fprintln(out, "catalog is valid")
			return nil
		},
	}
}

func readCatalogFile(path string) ([]domain.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return storage.UnmarshalCatalog(data, storage.FormatFromPath(path))
}

// normalized uppercases country codes the same way the store does on import.
func normalized(regions []domain.Region) []domain.Region {
	for i := range regions {
		for j := range regions[i].Countries {
			regions[i].Countries[j].Code = validation.NormalizeCountryCode(regions[i].Countries[j].Code)
		}
	}
	return regions
}
